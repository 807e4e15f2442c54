// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package message

import (
	"github.com/pkg/errors"

	"github.com/collapse-im/go-collapse"
)

// Assemble builds the immutable signed envelope around content:
// digest the canonical encoding, sign the digest, stamp the clock.
// The message must not be mutated afterwards.
func Assemble(signer Signer, parent collapse.Digest, content collapse.Content, ts collapse.Timestamp) (collapse.Message, error) {
	var msg collapse.Message

	digest, err := ComputeDigest(content)
	if err != nil {
		return msg, errors.Wrap(err, "message: assemble failed to digest content")
	}

	msg.Sender = signer.Identity()
	msg.Parent = parent
	msg.Content = content
	msg.Digest = digest
	msg.Signature = signer.Sign(digest)
	msg.Timestamp = ts
	return msg, nil
}

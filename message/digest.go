// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package message

import (
	"crypto/sha256"

	"github.com/pkg/errors"

	"github.com/collapse-im/go-collapse"
)

// ComputeDigest hashes the canonical encoding of a content variant.
// Identical logical content digests identically across processes; the
// canonical encoder is the only path into the hash.
func ComputeDigest(c collapse.Content) (collapse.Digest, error) {
	var d collapse.Digest
	enc, err := collapse.EncodeContent(c)
	if err != nil {
		return d, errors.Wrap(err, "message: digest encode failed")
	}
	return collapse.Digest(sha256.Sum256(enc)), nil
}

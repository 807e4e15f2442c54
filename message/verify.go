// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package message

import (
	"github.com/pkg/errors"

	"github.com/collapse-im/go-collapse"
)

// History is the view of an observer's already-accepted messages that
// the causality check needs. The node's inbox implements it.
type History interface {
	HasMessage(collapse.Digest) bool
}

// VerifyIntegrity recomputes the digest of the message's content and
// compares byte-exact against the stored digest, then verifies the
// signature against (sender, digest). Both must pass.
func VerifyIntegrity(msg collapse.Message) error {
	digest, err := ComputeDigest(msg.Content)
	if err != nil {
		return errors.Wrap(err, "message: integrity recompute failed")
	}
	if !digest.Equal(msg.Digest) {
		return errors.Errorf("message: digest mismatch, claimed %s computed %s",
			msg.Digest.ShortRef(), digest.ShortRef())
	}
	if err := VerifySignature(msg.Sender, msg.Digest, msg.Signature); err != nil {
		return errors.Wrap(err, "message: signature check failed")
	}
	return nil
}

// VerifyCausality passes root messages (zero parent) unconditionally;
// otherwise the immediate parent must already be in the observer's
// history. The check is local and shallow: transitive ancestry is
// implicit because accepted parents were themselves validated against
// their own parents at admission time.
func VerifyCausality(msg collapse.Message, hist History) error {
	if msg.IsRoot() {
		return nil
	}
	if !hist.HasMessage(msg.Parent) {
		return errors.Errorf("message: parent %s unknown to observer", msg.Parent.ShortRef())
	}
	return nil
}

// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package collapse

import (
	"fmt"

	"github.com/pkg/errors"
)

// RejectionReason attributes a dropped message to exactly one failure
// of the acceptance path. Every rejection carries one of these; nothing
// is swallowed silently.
type RejectionReason int

const (
	RejectInvalid RejectionReason = iota

	// RejectIntegrity: digest or signature did not recompute.
	RejectIntegrity

	// RejectCausality: the parent digest is unknown to this observer.
	RejectCausality

	// RejectTrust: the sender sits below the admission threshold.
	RejectTrust
)

func (r RejectionReason) String() string {
	switch r {
	case RejectIntegrity:
		return "integrity"
	case RejectCausality:
		return "causality"
	case RejectTrust:
		return "trust"
	default:
		return "invalid"
	}
}

// RejectedError reports that an observer refused a message. It is
// local and non-fatal: the sender was punished, the message dropped,
// and the node keeps operating.
type RejectedError struct {
	Reason RejectionReason
	Sender Identity
	Digest Digest
}

func (e RejectedError) Error() string {
	return fmt.Sprintf("collapse: rejected %s from %s (%s)", e.Digest.ShortRef(), e.Sender, e.Reason)
}

// IsRejection unpacks a RejectedError from an error chain.
func IsRejection(err error) (RejectedError, bool) {
	var re RejectedError
	ok := errors.As(err, &re)
	return re, ok
}

// DecodeError wraps a malformed wire envelope. The transport boundary
// surfaces it as "no message" rather than corrupting observer state.
type DecodeError struct {
	Cause error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("collapse: malformed envelope: %s", e.Cause)
}

func (e DecodeError) Unwrap() error { return e.Cause }

// IsDecodeFailure reports whether err stems from a malformed envelope.
func IsDecodeFailure(err error) bool {
	var de DecodeError
	return errors.As(err, &de)
}

// ErrBlobNotFound is returned by the byte store when no object with
// the given digest was ever stored.
type ErrBlobNotFound struct {
	Digest Digest
}

func (e ErrBlobNotFound) Error() string {
	return fmt.Sprintf("collapse: no blob for %s", e.Digest.ShortRef())
}

// IsBlobNotFound reports whether err is the store's not-found condition.
func IsBlobNotFound(err error) bool {
	var nf ErrBlobNotFound
	return errors.As(err, &nf)
}

// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package phi

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"

	"github.com/collapse-im/go-collapse"
)

// Collapser maps evidence to canonical content. Pure and deterministic
// except for blob evidence, which performs an idempotent put into the
// byte store.
type Collapser struct {
	store  collapse.BlobStore
	solver Solver
}

// NewCollapser wires a collapser. store may be nil if no blob evidence
// will be collapsed; a nil solver selects the reference solver.
func NewCollapser(store collapse.BlobStore, solver Solver) *Collapser {
	if solver == nil {
		solver = LstsqSolver{}
	}
	return &Collapser{store: store, solver: solver}
}

// CanonicalText collapses runs of whitespace to single spaces and
// trims the ends. Texts differing only in whitespace canonicalize
// identically.
func CanonicalText(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Collapse is Φ. Adding an evidence kind extends the sealed union and
// must be handled here; the default branch is an error, not a fallback.
func (c *Collapser) Collapse(ev Evidence) (collapse.Content, error) {
	switch e := ev.(type) {
	case DraftText:
		return collapse.TextBody{CanonicalText: CanonicalText(e.Raw)}, nil

	case RawCapture:
		body, err := c.solver.Solve(e)
		if err != nil {
			return nil, errors.Wrap(err, "phi: capture solve failed")
		}
		return body, nil

	case StatusIntent:
		return e.Event, nil

	case BlobEvidence:
		if c.store == nil {
			return nil, errors.New("phi: no byte store configured for blob evidence")
		}
		digest, err := c.store.Put(bytes.NewReader(e.Bytes))
		if err != nil {
			return nil, errors.Wrap(err, "phi: byte store write failed")
		}
		return collapse.BlobBody{
			MIME:         e.MIME,
			Size:         int64(len(e.Bytes)),
			ObjectDigest: digest,
		}, nil

	default:
		return nil, errors.Errorf("phi: unhandled evidence kind %T", ev)
	}
}

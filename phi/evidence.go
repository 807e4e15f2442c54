// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

// Package phi implements the collapse step Φ: the deterministic
// transformation of raw observational evidence into canonical,
// digestible content.
package phi

import (
	"github.com/collapse-im/go-collapse"
)

// Evidence is the closed set of raw inputs Φ can collapse. The
// interface is sealed so every collapse site switches exhaustively.
type Evidence interface {
	sealedEvidence()
}

var (
	_ Evidence = DraftText{}
	_ Evidence = RawCapture{}
	_ Evidence = StatusIntent{}
	_ Evidence = BlobEvidence{}
)

// DraftText is free-form text to canonicalize (trim + collapse runs of
// whitespace).
type DraftText struct {
	Raw string
}

func (DraftText) sealedEvidence() {}

// Sample is one raw measurement of a retinal capture.
type Sample struct {
	X, Y, V float64
}

// GridSpec is the basis grid size a capture should be solved on.
type GridSpec struct {
	NX, NY uint32
}

// RawCapture is a possibly-noisy retinal capture awaiting a solve.
// Given identical inputs (same seed, same samples) the solve must
// produce byte-identical coefficients and certificate; downstream
// digesting depends on it.
type RawCapture struct {
	Samples   []Sample
	Lambda    float64
	Foveation collapse.FoveationSpec
	Grid      GridSpec
	Seed      uint64
}

func (RawCapture) sealedEvidence() {}

// StatusIntent wraps a status event for passthrough into content.
type StatusIntent struct {
	Event collapse.StatusEvent
}

func (StatusIntent) sealedEvidence() {}

// BlobEvidence is an arbitrary binary payload (pictures, video, docs)
// with its MIME type. Collapsing it writes the bytes to the byte store.
type BlobEvidence struct {
	Bytes []byte
	MIME  string
}

func (BlobEvidence) sealedEvidence() {}

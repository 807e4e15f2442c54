// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package fuse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/collapse-im/go-collapse"
	"github.com/collapse-im/go-collapse/phi"
)

func fixation(t *testing.T, seed uint64) collapse.RetinaBody {
	t.Helper()

	body, err := phi.LstsqSolver{}.Solve(phi.RawCapture{
		Samples: []phi.Sample{
			{X: 0.5, Y: 0.5, V: 0.8},
			{X: 0.6, Y: 0.4, V: 0.6},
		},
		Lambda:    550,
		Foveation: collapse.FoveationSpec{Sigma: 0.2, CenterX: 0.5, CenterY: 0.5},
		Grid:      phi.GridSpec{NX: 16, NY: 16},
		Seed:      seed,
	})
	require.NoError(t, err)
	return body
}

func TestFixationsEmpty(t *testing.T) {
	r := require.New(t)

	fused, err := Fixations(nil)
	r.NoError(err)
	r.Nil(fused, "empty sequence fuses to nothing")
}

func TestFixationsVarianceDropIsOneOverJ(t *testing.T) {
	r := require.New(t)

	fixations := []collapse.RetinaBody{fixation(t, 1), fixation(t, 2), fixation(t, 3), fixation(t, 4)}

	for j := 1; j <= len(fixations); j++ {
		fused, err := Fixations(fixations[:j])
		r.NoError(err)
		r.NotNil(fused)
		r.Equal(1/float64(j), fused.Fused.Cert.FusedVarianceDrop, "J=%d", j)
	}
}

func TestFixationsTwoHalvesVariance(t *testing.T) {
	r := require.New(t)

	fused, err := Fixations([]collapse.RetinaBody{fixation(t, 1), fixation(t, 2)})
	r.NoError(err)
	r.Equal(0.5, fused.Fused.Cert.FusedVarianceDrop)
}

func TestFixationsCarriesRepresentative(t *testing.T) {
	r := require.New(t)

	first := fixation(t, 9)
	fused, err := Fixations([]collapse.RetinaBody{first, fixation(t, 10)})
	r.NoError(err)

	r.Equal(first.OmegaID, fused.Fused.OmegaID)
	r.Equal(first.BasisSpec, fused.Fused.BasisSpec)
	r.Equal(first.AHat, fused.Fused.AHat)
	r.Equal(first.Lambda, fused.Fused.Lambda)
	r.Equal(first.Cert.PSNREquivDB, fused.Fused.Cert.PSNREquivDB)
	r.Equal(first.Cert.DeterministicHash, fused.Fused.Cert.DeterministicHash)
}

func TestFixationsDigestTracksCount(t *testing.T) {
	r := require.New(t)

	fixations := []collapse.RetinaBody{fixation(t, 1), fixation(t, 2), fixation(t, 3)}

	one, err := Fixations(fixations[:1])
	r.NoError(err)
	two, err := Fixations(fixations[:2])
	r.NoError(err)
	three, err := Fixations(fixations)
	r.NoError(err)

	r.False(one.Digest.Equal(two.Digest))
	r.False(two.Digest.Equal(three.Digest))

	// and the fusion itself replays deterministically
	again, err := Fixations(fixations[:2])
	r.NoError(err)
	r.True(two.Digest.Equal(again.Digest))
}

func TestFixationsDoesNotAliasInput(t *testing.T) {
	r := require.New(t)

	first := fixation(t, 5)
	want := first.AHat[0]

	fused, err := Fixations([]collapse.RetinaBody{first})
	r.NoError(err)

	fused.Fused.AHat[0] = want + 1
	r.Equal(want, first.AHat[0], "fusing must copy the coefficient vector")
}

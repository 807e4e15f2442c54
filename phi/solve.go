// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package phi

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/collapse-im/go-collapse"
)

// Solver turns a raw capture into a canonical retina observation. The
// determinism contract is hard: same inputs, byte-identical output.
// LstsqSolver is a certified stand-in; a production optical backend
// can replace it without touching collapse or fusion logic.
type Solver interface {
	Solve(RawCapture) (collapse.RetinaBody, error)
}

// coeffDim is the fixed dimension of the solved coefficient vector.
const coeffDim = 7

// ridgeLambda regularizes the normal equations so the solve stays
// well-posed for sparse sample sets.
const ridgeLambda = 1e-6

// LstsqSolver projects the samples onto a seeded Gaussian basis via a
// regularized least-squares solve. All randomness comes from the
// capture seed through a fixed generator, so the solve replays
// byte-identically on every process.
type LstsqSolver struct{}

var _ Solver = LstsqSolver{}

func (LstsqSolver) Solve(rc RawCapture) (collapse.RetinaBody, error) {
	var body collapse.RetinaBody

	if rc.Grid.NX == 0 || rc.Grid.NY == 0 {
		return body, errors.Errorf("phi: degenerate basis grid %dx%d", rc.Grid.NX, rc.Grid.NY)
	}

	centers := basisCenters(rc.Seed)
	sigma := rc.Foveation.Sigma
	if sigma <= 0 {
		sigma = 1.0
	}

	aHat := solveCoefficients(rc.Samples, centers, sigma)

	cert := collapse.CertBundle{
		PSNREquivDB:             psnrEquiv(rc.Samples, centers, aHat, sigma),
		FusedVarianceDrop:       0, // single capture, no fusion yet
		FoveationAlignmentScore: alignmentScore(rc.Samples, rc.Foveation),
		DeterministicHash:       certFingerprint(rc, aHat),
	}

	body = collapse.RetinaBody{
		OmegaID: fmt.Sprintf("omega/%d", rc.Seed%64),
		BasisSpec: collapse.BasisSpec{
			NX:               rc.Grid.NX,
			NY:               rc.Grid.NY,
			BasisFingerprint: basisFingerprint(rc.Seed, rc.Grid),
		},
		AHat:      aHat,
		Lambda:    rc.Lambda,
		Foveation: rc.Foveation,
		Cert:      cert,
	}
	return body, nil
}

// basisCenters places coeffDim Gaussian bumps in the unit square,
// driven only by the seed. math/rand's generator is frozen by the Go 1
// compatibility promise, which keeps this stable across processes.
func basisCenters(seed uint64) [][2]float64 {
	rng := rand.New(rand.NewSource(int64(seed)))
	centers := make([][2]float64, coeffDim)
	for i := range centers {
		centers[i][0] = rng.Float64()
		centers[i][1] = rng.Float64()
	}
	return centers
}

func gauss(x, y float64, center [2]float64, sigma float64) float64 {
	dx := x - center[0]
	dy := y - center[1]
	return math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
}

// solveCoefficients solves (AᵀA + λI) a = Aᵀv where A is the design
// matrix of basis responses at the sample positions.
func solveCoefficients(samples []Sample, centers [][2]float64, sigma float64) []float64 {
	aHat := make([]float64, coeffDim)
	if len(samples) == 0 {
		return aHat
	}

	n := len(samples)
	design := mat.NewDense(n, coeffDim, nil)
	values := mat.NewVecDense(n, nil)
	for i, s := range samples {
		for k, c := range centers {
			design.Set(i, k, gauss(s.X, s.Y, c, sigma))
		}
		values.SetVec(i, s.V)
	}

	var gram mat.Dense
	gram.Mul(design.T(), design)
	for k := 0; k < coeffDim; k++ {
		gram.Set(k, k, gram.At(k, k)+ridgeLambda)
	}

	var rhs mat.VecDense
	rhs.MulVec(design.T(), values)

	var solved mat.VecDense
	if err := solved.SolveVec(&gram, &rhs); err != nil {
		// singular gram despite the ridge; fall back to the raw
		// projection, which is still deterministic
		copy(aHat, rhs.RawVector().Data)
		return aHat
	}
	copy(aHat, solved.RawVector().Data)
	return aHat
}

// psnrEquiv estimates signal fidelity from the solve residual.
func psnrEquiv(samples []Sample, centers [][2]float64, aHat []float64, sigma float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sse float64
	for _, s := range samples {
		var recon float64
		for k, c := range centers {
			recon += aHat[k] * gauss(s.X, s.Y, c, sigma)
		}
		diff := s.V - recon
		sse += diff * diff
	}
	mse := sse / float64(len(samples))
	if mse < 1e-12 {
		return 120
	}
	return 10 * math.Log10(1/mse)
}

// alignmentScore compares the foveation center against the
// value-weighted centroid of the samples; 1.0 is perfect alignment.
func alignmentScore(samples []Sample, fov collapse.FoveationSpec) float64 {
	var cx, cy, wsum float64
	for _, s := range samples {
		w := math.Abs(s.V)
		cx += w * s.X
		cy += w * s.Y
		wsum += w
	}
	if wsum == 0 {
		return 1
	}
	cx /= wsum
	cy /= wsum
	return math.Exp(-math.Hypot(cx-fov.CenterX, cy-fov.CenterY))
}

func basisFingerprint(seed uint64, grid GridSpec) string {
	h := sha256.New()
	binary.Write(h, binary.BigEndian, seed)
	binary.Write(h, binary.BigEndian, grid.NX)
	binary.Write(h, binary.BigEndian, grid.NY)
	return "gauss7/" + hex.EncodeToString(h.Sum(nil))[:16]
}

// certFingerprint digests everything that went into the solve, so two
// certificates match exactly when their inputs did.
func certFingerprint(rc RawCapture, aHat []float64) string {
	h := sha256.New()
	binary.Write(h, binary.BigEndian, rc.Seed)
	binary.Write(h, binary.BigEndian, rc.Lambda)
	binary.Write(h, binary.BigEndian, rc.Grid.NX)
	binary.Write(h, binary.BigEndian, rc.Grid.NY)
	binary.Write(h, binary.BigEndian, rc.Foveation.Sigma)
	binary.Write(h, binary.BigEndian, rc.Foveation.CenterX)
	binary.Write(h, binary.BigEndian, rc.Foveation.CenterY)
	for _, s := range rc.Samples {
		binary.Write(h, binary.BigEndian, s.X)
		binary.Write(h, binary.BigEndian, s.Y)
		binary.Write(h, binary.BigEndian, s.V)
	}
	for _, a := range aHat {
		binary.Write(h, binary.BigEndian, a)
	}
	return hex.EncodeToString(h.Sum(nil))
}

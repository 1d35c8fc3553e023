// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Profile values closer than this to an integer are taken as counts.
const wholeNumberTolerance = 1e-15

func isWholeNumber(x float64) bool {
	return math.Abs(x-math.Round(x)) < wholeNumberTolerance
}

// mutationTotal returns mutationCount if positive, otherwise the sum
// of m, which must then consist of whole-number counts.
func mutationTotal(m []float64, mutationCount int) (int, error) {
	if mutationCount > 0 {
		return mutationCount, nil
	}
	for _, v := range m {
		if !isWholeNumber(v) {
			return 0, ErrMissingMutationCount
		}
	}
	total := int(math.Round(floats.Sum(m)))
	if total == 0 {
		return 0, ErrEmptyProfile
	}
	return total, nil
}

// BootstrapProfiles draws r multinomial resamples of the profile m.
// Each resample distributes mutationCount mutations over the K
// categories with probabilities proportional to m and is returned as
// a normalized column of the K×r result. If mutationCount is 0, m
// must hold whole-number counts and their sum is used.
func BootstrapProfiles(m []float64, mutationCount, r int, rng *rand.Rand) (*mat.Dense, error) {
	if r < 1 {
		return nil, fmt.Errorf("replicate count %d: must be at least 1", r)
	}
	if rng == nil {
		return nil, errors.New("nil random source")
	}
	count, err := mutationTotal(m, mutationCount)
	if err != nil {
		return nil, err
	}
	probs, err := normalized(m)
	if err != nil {
		return nil, err
	}
	k := len(probs)
	cat := distuv.NewCategorical(probs, rng)
	out := mat.NewDense(k, r, nil)
	tally := make([]float64, k)
	for rep := 0; rep < r; rep++ {
		for i := range tally {
			tally[i] = 0
		}
		for i := 0; i < count; i++ {
			tally[int(cat.Rand())]++
		}
		floats.Scale(1/float64(count), tally)
		out.SetCol(rep, tally)
	}
	return out, nil
}

// BootstrapExposures estimates the sampling distribution of the
// exposures of m. It draws r resamples with BootstrapProfiles,
// decomposes each against p, and returns the N×r exposure matrix
// together with the error of each replicate's exposures against the
// normalized m.
func BootstrapExposures(m []float64, p mat.Matrix, r, mutationCount int, rng *rand.Rand, dec Decomposer) (*mat.Dense, []float64, error) {
	k, _ := p.Dims()
	if len(m) != k {
		return nil, nil, fmt.Errorf("%w: profile has %d mutation types, signatures have %d", ErrShapeMismatch, len(m), k)
	}
	replicates, err := BootstrapProfiles(m, mutationCount, r, rng)
	if err != nil {
		return nil, nil, err
	}
	probs, err := normalized(m)
	if err != nil {
		return nil, nil, err
	}
	return decomposeReplicates(probs, replicates, p, dec)
}

// decomposeReplicates decomposes every column of the K×R matrix
// replicates against p and scores each result against m.
func decomposeReplicates(m []float64, replicates, p mat.Matrix, dec Decomposer) (*mat.Dense, []float64, error) {
	_, r := replicates.Dims()
	_, n := p.Dims()
	solve, err := solverFor(dec, p)
	if err != nil {
		return nil, nil, err
	}
	exposures := mat.NewDense(n, r, nil)
	errs := make([]float64, r)
	for j := 0; j < r; j++ {
		e, err := solve(mat.Col(nil, j, replicates))
		if err != nil {
			return nil, nil, fmt.Errorf("replicate %d: %w", j, err)
		}
		if err = clampNormalize(e); err != nil {
			return nil, nil, fmt.Errorf("replicate %d: %w", j, err)
		}
		exposures.SetCol(j, e)
		errs[j] = FrobeniusNorm(m, p, e)
	}
	return exposures, errs, nil
}

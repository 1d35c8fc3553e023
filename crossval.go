// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// CrossValidationExposures splits the normalized profile m into
// contiguous folds of foldSize mutation types (the last fold takes
// the remainder) and, for each fold, decomposes the profile with that
// fold zeroed out. If shuffle is true the mutation types of m and the
// rows of p are first permuted together using rng.
//
// It returns the N×F exposure matrix, one column per fold, and each
// fold's error against the full normalized profile.
func CrossValidationExposures(m []float64, p mat.Matrix, foldSize int, shuffle bool, rng *rand.Rand, dec Decomposer) (*mat.Dense, []float64, error) {
	k, n := p.Dims()
	if len(m) != k {
		return nil, nil, fmt.Errorf("%w: profile has %d mutation types, signatures have %d", ErrShapeMismatch, len(m), k)
	}
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: signature matrix has %d columns", ErrDegenerateModel, n)
	}
	if foldSize < 1 || foldSize > k {
		return nil, nil, fmt.Errorf("fold size %d: must be between 1 and %d", foldSize, k)
	}
	probs, err := normalized(m)
	if err != nil {
		return nil, nil, err
	}
	if shuffle {
		if rng == nil {
			return nil, nil, errors.New("nil random source")
		}
		perm := rng.Perm(k)
		shuffled := make([]float64, k)
		pp := mat.NewDense(k, n, nil)
		for i, src := range perm {
			shuffled[i] = probs[src]
			for j := 0; j < n; j++ {
				pp.Set(i, j, p.At(src, j))
			}
		}
		probs, p = shuffled, pp
	}

	nfolds := (k + foldSize - 1) / foldSize
	replicates := mat.NewDense(k, nfolds, nil)
	held := make([]float64, k)
	for f := 0; f < nfolds; f++ {
		copy(held, probs)
		end := (f + 1) * foldSize
		if end > k {
			end = k
		}
		for i := f * foldSize; i < end; i++ {
			held[i] = 0
		}
		col, err := normalized(held)
		if err != nil {
			return nil, nil, fmt.Errorf("fold %d: %w", f, err)
		}
		replicates.SetCol(f, col)
	}
	return decomposeReplicates(probs, replicates, p, dec)
}

// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"fmt"
	"math"

	"github.com/marcin119a/sigconfide/qp"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// A Decomposer writes a probability profile m (length K) as a
// non-negative, sum-to-one combination of the columns of a K×N
// signature matrix.
type Decomposer interface {
	Decompose(m []float64, p mat.Matrix) ([]float64, error)
}

// preparer is implemented by decomposers that can do per-matrix work
// once and then decompose many profiles against the same matrix.
type preparer interface {
	prepare(p mat.Matrix) (func(m []float64) ([]float64, error), error)
}

// solverFor returns a function decomposing profiles against p with
// dec, or with the default QPDecomposer if dec is nil.
func solverFor(dec Decomposer, p mat.Matrix) (func(m []float64) ([]float64, error), error) {
	if dec == nil {
		dec = QPDecomposer{}
	}
	if pr, ok := dec.(preparer); ok {
		return pr.prepare(p)
	}
	return func(m []float64) ([]float64, error) {
		return dec.Decompose(m, p)
	}, nil
}

// QPDecomposer minimizes ‖m − P·E‖² over the probability simplex by
// solving the quadratic program with G = PᵀP and d = Pᵀm.
type QPDecomposer struct {
	Settings *qp.Settings
}

// Decompose returns the exposures of m with respect to the columns of
// p.
func (dec QPDecomposer) Decompose(m []float64, p mat.Matrix) ([]float64, error) {
	solve, err := dec.prepare(p)
	if err != nil {
		return nil, err
	}
	return solve(m)
}

func (dec QPDecomposer) prepare(p mat.Matrix) (func(m []float64) ([]float64, error), error) {
	k, n := p.Dims()
	if n < 1 {
		return nil, fmt.Errorf("%w: signature matrix has no columns", ErrDegenerateModel)
	}
	var g mat.SymDense
	g.SymOuterK(1, p.T())
	return func(m []float64) ([]float64, error) {
		if len(m) != k {
			return nil, fmt.Errorf("%w: profile has %d mutation types, signatures have %d", ErrShapeMismatch, len(m), k)
		}
		d := mat.NewVecDense(n, nil)
		d.MulVec(p.T(), mat.NewVecDense(k, m))
		x, err := qp.Simplex(&g, d.RawVector().Data, dec.Settings)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSolver, err)
		}
		if err = clampNormalize(x); err != nil {
			return nil, err
		}
		return x, nil
	}, nil
}

// Decompose decomposes m against p with the default QP decomposer.
func Decompose(m []float64, p mat.Matrix) ([]float64, error) {
	return QPDecomposer{}.Decompose(m, p)
}

// clampNormalize sets negative entries of x to zero and rescales x to
// sum to 1.
func clampNormalize(x []float64) error {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
	sum := floats.Sum(x)
	if !(sum > 0) || math.IsInf(sum, 0) {
		return fmt.Errorf("%w: exposures sum to %v", ErrSolver, sum)
	}
	floats.Scale(1/sum, x)
	return nil
}

// normalized returns a copy of m scaled to sum to 1.
func normalized(m []float64) ([]float64, error) {
	sum := 0.0
	for _, v := range m {
		if v < 0 || math.IsNaN(v) {
			return nil, fmt.Errorf("invalid profile value %v", v)
		}
		sum += v
	}
	if sum == 0 {
		return nil, ErrEmptyProfile
	}
	out := make([]float64, len(m))
	copy(out, m)
	floats.Scale(1/sum, out)
	return out, nil
}

// FrobeniusNorm returns ‖m − P·e‖. It panics if the shapes of m, p and
// e are not compatible.
func FrobeniusNorm(m []float64, p mat.Matrix, e []float64) float64 {
	var pe mat.VecDense
	pe.MulVec(p, mat.NewVecDense(len(e), e))
	r := make([]float64, len(m))
	floats.SubTo(r, m, pe.RawVector().Data)
	return floats.Norm(r, 2)
}

// FindExposures normalizes each column of samples (K×G) and decomposes
// it against p (K×N). It returns the N×G exposure matrix and the
// reconstruction error of each column.
func FindExposures(samples, p mat.Matrix, dec Decomposer) (*mat.Dense, []float64, error) {
	k, g := samples.Dims()
	pk, n := p.Dims()
	if k != pk {
		return nil, nil, fmt.Errorf("%w: samples have %d rows, signatures have %d", ErrShapeMismatch, k, pk)
	}
	solve, err := solverFor(dec, p)
	if err != nil {
		return nil, nil, err
	}
	exposures := mat.NewDense(n, g, nil)
	errs := make([]float64, g)
	for j := 0; j < g; j++ {
		m, err := normalized(mat.Col(nil, j, samples))
		if err != nil {
			return nil, nil, fmt.Errorf("column %d: %w", j, err)
		}
		e, err := solve(m)
		if err != nil {
			return nil, nil, fmt.Errorf("column %d: %w", j, err)
		}
		exposures.SetCol(j, e)
		errs[j] = FrobeniusNorm(m, p, e)
	}
	return exposures, errs, nil
}

// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package qp solves the small convex quadratic programs that arise
// when a profile is written as a convex combination of signatures.
package qp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotConverged = errors.New("qp: iteration limit reached")
	ErrSingular     = errors.New("qp: singular KKT system")
)

// Settings tune Simplex. The zero value is usable.
type Settings struct {
	// Multipliers above -Tolerance count as non-negative, and
	// coefficients at or below Tolerance are pinned to zero.
	// Default 1e-12.
	Tolerance float64
	// Maximum number of variables admitted to the free set.
	// Default 3n.
	MaxIter int
}

// Simplex minimizes
//
//	½xᵀGx − dᵀx
//
// subject to the constraint system Cᵀx ≥ b with C = [1 | I] and
// b = [1, 0, ..., 0], where the first constraint is an equality
// (meq=1): x lies on the probability simplex.
//
// G must be positive semi-definite. Columns that are affinely
// dependent on the current support are never admitted, so a singular
// G only makes the minimizer non-unique.
//
// The method is a primal active-set iteration in the style of
// Lawson–Hanson NNLS: start at the best vertex, free the bound
// variable with the most negative multiplier, solve the equality
// constrained subproblem on the free set, and step back to the
// boundary whenever a free coordinate would go negative.
func Simplex(g mat.Symmetric, d []float64, settings *Settings) ([]float64, error) {
	n := g.SymmetricDim()
	if n == 0 {
		return nil, errors.New("qp: empty problem")
	}
	if len(d) != n {
		return nil, fmt.Errorf("qp: len(d) %d != dim(G) %d", len(d), n)
	}
	tol, maxIter := 1e-12, 3*n
	if settings != nil {
		if settings.Tolerance > 0 {
			tol = settings.Tolerance
		}
		if settings.MaxIter > 0 {
			maxIter = settings.MaxIter
		}
	}

	best := 0
	for j := 1; j < n; j++ {
		if g.At(j, j)/2-d[j] < g.At(best, best)/2-d[best] {
			best = j
		}
	}
	x := make([]float64, n)
	x[best] = 1
	free := make([]bool, n)
	free[best] = true

	skip := make([]bool, n) // refused entry since the last successful step
	grad := make([]float64, n)
	for iter := 0; ; iter++ {
		gradient(g, d, x, grad)
		nu := multiplier(grad, free)
		t := -1
		lambda := -tol
		for j := range x {
			if free[j] || skip[j] {
				continue
			}
			if l := grad[j] - nu; l < lambda {
				t, lambda = j, l
			}
		}
		if t < 0 {
			return x, nil
		}
		if iter >= maxIter {
			return x, ErrNotConverged
		}

		free[t] = true
		s, err := solveKKT(g, d, free)
		if err != nil || s[t] <= tol {
			free[t] = false
			skip[t] = true
			continue
		}
		for j := range skip {
			skip[j] = false
		}

		for {
			alpha, block := 1.0, -1
			for j := range s {
				if free[j] && s[j] <= 0 {
					if a := x[j] / (x[j] - s[j]); a < alpha {
						alpha, block = a, j
					}
				}
			}
			if block < 0 {
				copy(x, s)
				break
			}
			for j := range x {
				if free[j] {
					x[j] += alpha * (s[j] - x[j])
				}
			}
			x[block] = 0
			free[block] = false
			nfree := 0
			for j := range x {
				if free[j] && x[j] <= tol {
					x[j] = 0
					free[j] = false
				}
				if free[j] {
					nfree++
				}
			}
			if nfree == 0 {
				return x, ErrSingular
			}
			s, err = solveKKT(g, d, free)
			if err != nil {
				return x, err
			}
		}
	}
}

// gradient stores Gx − d in dst.
func gradient(g mat.Symmetric, d, x, dst []float64) {
	for i := range dst {
		sum := -d[i]
		for j, xj := range x {
			if xj != 0 {
				sum += g.At(i, j) * xj
			}
		}
		dst[i] = sum
	}
}

// multiplier estimates the Lagrange multiplier of the equality
// constraint: at a stationary point every free coordinate has the
// same gradient.
func multiplier(grad []float64, free []bool) float64 {
	var sum float64
	var n int
	for j, f := range free {
		if f {
			sum += grad[j]
			n++
		}
	}
	return sum / float64(n)
}

// solveKKT minimizes the objective over the free coordinates subject
// only to Σx = 1, by solving
//
//	⎡ G_FF  1 ⎤ ⎡ s ⎤   ⎡ d_F ⎤
//	⎣ 1ᵀ    0 ⎦ ⎣ μ ⎦ = ⎣  1  ⎦
//
// The returned vector has length n with zeros outside the free set.
func solveKKT(g mat.Symmetric, d []float64, free []bool) ([]float64, error) {
	var idx []int
	for j, f := range free {
		if f {
			idx = append(idx, j)
		}
	}
	k := len(idx)
	a := mat.NewDense(k+1, k+1, nil)
	rhs := mat.NewVecDense(k+1, nil)
	for r, i := range idx {
		for c, j := range idx {
			a.Set(r, c, g.At(i, j))
		}
		a.Set(r, k, 1)
		a.Set(k, r, 1)
		rhs.SetVec(r, d[i])
	}
	rhs.SetVec(k, 1)

	var sol mat.VecDense
	if err := sol.SolveVec(a, rhs); err != nil {
		// A finite condition number still yields a usable solution.
		if cond, ok := err.(mat.Condition); !ok || math.IsInf(float64(cond), 1) {
			return nil, ErrSingular
		}
	}
	s := make([]float64, len(free))
	for r, i := range idx {
		s[i] = sol.AtVec(r)
	}
	return s, nil
}

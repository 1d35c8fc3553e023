// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"gonum.org/v1/gonum/mat"
)

// columnSet is an ordered set of column indices into the full
// signature matrix. Transitions return a new set and never share
// storage with the receiver.
type columnSet []int

func allColumns(n int) columnSet {
	cs := make(columnSet, n)
	for i := range cs {
		cs[i] = i
	}
	return cs
}

// without returns the set with the entry at position pos removed.
func (cs columnSet) without(pos int) columnSet {
	out := make(columnSet, 0, len(cs)-1)
	out = append(out, cs[:pos]...)
	return append(out, cs[pos+1:]...)
}

// with returns the set with original column col appended.
func (cs columnSet) with(col int) columnSet {
	out := make(columnSet, len(cs), len(cs)+1)
	copy(out, cs)
	return append(out, col)
}

func (cs columnSet) indices() []int {
	return append([]int(nil), cs...)
}

// matrix returns the K×len(cs) matrix of the selected columns of p.
func (cs columnSet) matrix(p mat.Matrix) *mat.Dense {
	k, _ := p.Dims()
	out := mat.NewDense(k, len(cs), nil)
	for j, col := range cs {
		for i := 0; i < k; i++ {
			out.Set(i, j, p.At(i, col))
		}
	}
	return out
}

// expand places e, aligned with cs, at the original column positions
// of a length-n vector.
func (cs columnSet) expand(e []float64, n int) []float64 {
	out := make([]float64, n)
	for j, col := range cs {
		out[col] = e[j]
	}
	return out
}

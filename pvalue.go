// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"gonum.org/v1/gonum/mat"
)

// PValues returns, for each row of the N×R exposure matrix, the
// fraction of replicates (columns) whose exposure does not exceed
// threshold.
//
// A small value means the signature is consistently present across
// resamples.
func PValues(exposures mat.Matrix, threshold float64) []float64 {
	n, _ := exposures.Dims()
	p := make([]float64, n)
	for i := range p {
		p[i] = pvalue(mat.Row(nil, i, exposures), threshold)
	}
	return p
}

func pvalue(x []float64, threshold float64) float64 {
	if len(x) == 0 {
		return 1
	}
	var above float64
	for _, xi := range x {
		if xi > threshold {
			above++
		}
	}
	return 1 - above/float64(len(x))
}

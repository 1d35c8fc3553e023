// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ExposureSummary describes the distribution of one signature's
// exposure across replicates.
type ExposureSummary struct {
	Mean   float64
	StdDev float64
	// Empirical quantiles bounding the central confidence interval.
	Lower, Upper float64
}

// SummarizeExposures summarizes each row of an N×R replicate exposure
// matrix. confidence is the coverage of the [Lower, Upper] interval,
// e.g. 0.95.
func SummarizeExposures(exposures mat.Matrix, confidence float64) ([]ExposureSummary, error) {
	if !(confidence > 0 && confidence < 1) {
		return nil, fmt.Errorf("confidence %v: must be between 0 and 1", confidence)
	}
	n, r := exposures.Dims()
	tail := (1 - confidence) / 2
	out := make([]ExposureSummary, n)
	x := make([]float64, r)
	for i := range out {
		mat.Row(x, i, exposures)
		sort.Float64s(x)
		out[i].Mean = stat.Mean(x, nil)
		if r > 1 {
			out[i].StdDev = stat.StdDev(x, nil)
		}
		out[i].Lower = stat.Quantile(tail, stat.Empirical, x, nil)
		out[i].Upper = stat.Quantile(1-tail, stat.Empirical, x, nil)
	}
	return out, nil
}

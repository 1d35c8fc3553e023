// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// BackwardElimination selects the signatures (columns of p) that
// significantly contribute to profile m.
//
// Replicates of m are drawn once. Each round decomposes them against
// the remaining signatures and removes the one with the highest
// p-value, if that p-value exceeds cfg.Significance; equal maxima are
// broken at random. The last remaining signature is never removed.
//
// The result carries the point estimate of m against the selected
// signatures and a fresh bootstrap of the selected model.
func BackwardElimination(m []float64, p mat.Matrix, cfg SelectionConfig, rng *rand.Rand) (*Selection, error) {
	run, err := newSelectionRun(m, p, cfg, rng)
	if err != nil {
		return nil, err
	}
	_, n := p.Dims()
	active := allColumns(n)
	var pv []float64
	for {
		pv, err = run.pvalues(active)
		if err != nil {
			return nil, err
		}
		if len(active) == 1 {
			break
		}
		cand := run.candidates(pv)
		if len(cand) == 0 {
			break
		}
		active = active.without(cand[0])
	}
	sel, err := run.result(active, pv)
	if err != nil {
		return nil, err
	}
	sel.Bootstrap, sel.BootstrapErrors, err = BootstrapExposures(m, active.matrix(p), cfg.Replicates, cfg.MutationCount, rng, cfg.Decomposer)
	if err != nil {
		return nil, err
	}
	return sel, nil
}

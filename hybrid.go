// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// HybridSelection runs backward elimination in which every removal
// must also keep the point-estimate error within cfg.ErrorTolerance
// of the current model's error, then tries to reinstate the removed
// signatures in removal order. A reinstated signature stays if its
// p-value in the augmented model is below cfg.Significance.
//
// When the gate rejects the top candidate, the remaining candidates
// are tried in order of decreasing p-value. Elimination stops when
// none is accepted.
//
// The same replicates are used throughout. The result has no
// bootstrap.
func HybridSelection(m []float64, p mat.Matrix, cfg SelectionConfig, rng *rand.Rand) (*Selection, error) {
	run, err := newSelectionRun(m, p, cfg, rng)
	if err != nil {
		return nil, err
	}
	_, n := p.Dims()
	active := allColumns(n)
	_, current, err := run.estimate(active)
	if err != nil {
		return nil, err
	}

	var removed []int
	var pv []float64
backward:
	for len(active) > 1 {
		pv, err = run.pvalues(active)
		if err != nil {
			return nil, err
		}
		for _, pos := range run.candidates(pv) {
			trial := active.without(pos)
			_, errv, err := run.estimate(trial)
			if err != nil {
				return nil, err
			}
			if errv-current <= cfg.ErrorTolerance {
				removed = append(removed, active[pos])
				active, current = trial, errv
				continue backward
			}
		}
		break
	}

	for _, col := range removed {
		trial := active.with(col)
		tpv, err := run.pvalues(trial)
		if err != nil {
			return nil, err
		}
		if tpv[len(tpv)-1] < cfg.Significance {
			active = trial
		}
	}

	pv, err = run.pvalues(active)
	if err != nil {
		return nil, err
	}
	return run.result(active, pv)
}

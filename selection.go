// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// SelectionConfig holds the parameters of a model selection run.
type SelectionConfig struct {
	// A replicate counts as evidence for a signature when its
	// exposure exceeds Threshold.
	Threshold float64
	// Signatures with a p-value above Significance are removal
	// candidates.
	Significance float64
	// Number of bootstrap replicates.
	Replicates int
	// Total mutations per replicate. 0 means the profile holds
	// whole-number counts and their sum is used.
	MutationCount int
	// Largest increase of the point-estimate error accepted for one
	// removal during hybrid selection.
	ErrorTolerance float64
	// Decomposer used for every fit. nil means QPDecomposer{}.
	Decomposer Decomposer
}

// DefaultSelectionConfig returns the defaults of the fit command.
func DefaultSelectionConfig() SelectionConfig {
	return SelectionConfig{
		Threshold:      0.01,
		Significance:   0.01,
		Replicates:     100,
		ErrorTolerance: 0.01,
	}
}

// Selection is the result of a model selection run for one profile.
type Selection struct {
	// Original indices of the selected signatures, in the order
	// used by Exposures.
	Columns []int
	// Point estimate of the normalized profile against the
	// selected signatures.
	Exposures []float64
	// Reconstruction error of Exposures.
	Error float64
	// p-value of each selected signature on the replicates used
	// during selection.
	PValues []float64
	// Fresh bootstrap of the selected model (backward elimination
	// only): len(Columns)×R exposures and per-replicate errors.
	Bootstrap       *mat.Dense
	BootstrapErrors []float64
}

// Expanded returns the exposures placed at their original column
// positions in a vector of length n.
func (sel *Selection) Expanded(n int) []float64 {
	return columnSet(sel.Columns).expand(sel.Exposures, n)
}

// selectionRun holds the per-profile state shared by the backward and
// hybrid engines. It is owned by a single goroutine.
type selectionRun struct {
	cfg        SelectionConfig
	p          mat.Matrix
	m          []float64 // normalized profile
	replicates *mat.Dense
	rng        *rand.Rand
}

func newSelectionRun(m []float64, p mat.Matrix, cfg SelectionConfig, rng *rand.Rand) (*selectionRun, error) {
	k, n := p.Dims()
	if len(m) != k {
		return nil, fmt.Errorf("%w: profile has %d mutation types, signatures have %d", ErrShapeMismatch, len(m), k)
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: signature matrix has %d columns", ErrDegenerateModel, n)
	}
	probs, err := normalized(m)
	if err != nil {
		return nil, err
	}
	replicates, err := BootstrapProfiles(m, cfg.MutationCount, cfg.Replicates, rng)
	if err != nil {
		return nil, err
	}
	return &selectionRun{cfg: cfg, p: p, m: probs, replicates: replicates, rng: rng}, nil
}

// pvalues decomposes the fixed replicates against the columns cs and
// returns each column's p-value.
func (run *selectionRun) pvalues(cs columnSet) ([]float64, error) {
	exposures, _, err := decomposeReplicates(run.m, run.replicates, cs.matrix(run.p), run.cfg.Decomposer)
	if err != nil {
		return nil, err
	}
	return PValues(exposures, run.cfg.Threshold), nil
}

// estimate decomposes the profile itself against the columns cs.
func (run *selectionRun) estimate(cs columnSet) ([]float64, float64, error) {
	pa := cs.matrix(run.p)
	solve, err := solverFor(run.cfg.Decomposer, pa)
	if err != nil {
		return nil, 0, err
	}
	e, err := solve(run.m)
	if err != nil {
		return nil, 0, err
	}
	if err = clampNormalize(e); err != nil {
		return nil, 0, err
	}
	return e, FrobeniusNorm(run.m, pa, e), nil
}

// candidates returns the positions whose p-value exceeds the
// significance level, highest p-value first. Equal p-values are
// ordered at random.
func (run *selectionRun) candidates(pv []float64) []int {
	var pos []int
	for _, i := range run.rng.Perm(len(pv)) {
		if pv[i] > run.cfg.Significance {
			pos = append(pos, i)
		}
	}
	sort.SliceStable(pos, func(a, b int) bool { return pv[pos[a]] > pv[pos[b]] })
	return pos
}

func (run *selectionRun) result(cs columnSet, pv []float64) (*Selection, error) {
	e, errv, err := run.estimate(cs)
	if err != nil {
		return nil, err
	}
	return &Selection{
		Columns:   cs.indices(),
		Exposures: e,
		Error:     errv,
		PValues:   pv,
	}, nil
}

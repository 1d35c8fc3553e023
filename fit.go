// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

const (
	MethodBackward = "backward"
	MethodHybrid   = "hybrid"
)

// Fitter applies model selection to every sample of a batch against
// one shared, read-only signature matrix.
type Fitter struct {
	Signatures     mat.Matrix // K×N
	SignatureNames []string   // N names, aligned with the columns of Signatures
	Config         SelectionConfig
	Method         string // MethodBackward (default) or MethodHybrid
	Threads        int    // default GOMAXPROCS
	// Sample i is resampled with a generator seeded with Seed+i.
	Seed uint64
}

func (f *Fitter) selector() (func([]float64, mat.Matrix, SelectionConfig, *rand.Rand) (*Selection, error), error) {
	switch f.Method {
	case "", MethodBackward:
		return BackwardElimination, nil
	case MethodHybrid:
		return HybridSelection, nil
	default:
		return nil, fmt.Errorf("unknown selection method %q", f.Method)
	}
}

// Fit runs model selection on each profile. A sample whose selection
// fails gets an all-zero row and an entry in Assignment.Failed; the
// other samples are unaffected. The returned error is only for
// problems with the Fitter itself.
func (f *Fitter) Fit(profiles [][]float64, sampleNames []string) (*Assignment, error) {
	sel, err := f.selector()
	if err != nil {
		return nil, err
	}
	_, n := f.Signatures.Dims()
	if len(f.SignatureNames) != n {
		return nil, fmt.Errorf("%w: %d signature names for %d signatures", ErrShapeMismatch, len(f.SignatureNames), n)
	}
	if len(sampleNames) != len(profiles) {
		return nil, fmt.Errorf("%w: %d sample names for %d samples", ErrShapeMismatch, len(sampleNames), len(profiles))
	}
	a := newAssignment(f.SignatureNames, sampleNames)
	if len(profiles) == 0 {
		return a, nil
	}
	threads := f.Threads
	if threads < 1 {
		threads = runtime.GOMAXPROCS(0)
	}

	var (
		mtx  sync.Mutex
		done int64
	)
	throttle := throttle{Max: threads}
	for i, m := range profiles {
		i, m := i, m
		throttle.Go(func() error {
			s, err := f.fitOne(sel, i, m)
			mtx.Lock()
			if err != nil {
				a.Failed[i] = err
			} else {
				a.Selections[i] = s
				a.Exposures.SetRow(i, s.Expanded(n))
			}
			mtx.Unlock()
			if err != nil {
				log.WithFields(log.Fields{
					"sample": sampleNames[i],
					"index":  i,
				}).Warnf("selection failed: %s", err)
			}
			log.Infof("%04d: %s done (%d/%d)", i, sampleNames[i], atomic.AddInt64(&done, 1), len(profiles))
			return nil
		})
	}
	throttle.Wait()
	return a, nil
}

func (f *Fitter) fitOne(sel func([]float64, mat.Matrix, SelectionConfig, *rand.Rand) (*Selection, error), i int, m []float64) (s *Selection, err error) {
	defer func() {
		if r := recover(); r != nil {
			// typically a gonum shape or singularity panic
			s, err = nil, fmt.Errorf("%v", r)
		}
	}()
	rng := rand.New(rand.NewSource(f.Seed + uint64(i)))
	return sel(m, f.Signatures, f.Config, rng)
}

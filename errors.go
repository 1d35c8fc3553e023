// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import "errors"

var (
	// ErrShapeMismatch means a profile and a signature matrix (or a
	// sample file and a signature panel) do not describe the same
	// mutation types.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrMissingMutationCount means a resampler was given a
	// probability profile and no total mutation count.
	ErrMissingMutationCount = errors.New("mutation count not given and profile does not hold whole-number counts")

	// ErrDegenerateModel means fewer than two signatures are
	// available where a selection is required.
	ErrDegenerateModel = errors.New("at least 2 signatures are required")

	// ErrUnknownFormat means an input file's layout could not be
	// classified.
	ErrUnknownFormat = errors.New("unknown input format")

	// ErrSolver wraps a failure of the underlying QP solve.
	ErrSolver = errors.New("decomposition failed")

	// ErrEmptyProfile means a profile has no mass to normalize.
	ErrEmptyProfile = errors.New("profile sums to zero")
)

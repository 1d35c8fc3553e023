// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"errors"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/check.v1"
)

type bootstrapSuite struct{}

var _ = check.Suite(&bootstrapSuite{})

func (s *bootstrapSuite) TestIsWholeNumber(c *check.C) {
	for _, x := range []float64{2, 0, -3, 2.000000000000001, 2.0000000000000001, -3.0000000000000001} {
		c.Check(isWholeNumber(x), check.Equals, true, check.Commentf("%v", x))
	}
	for _, x := range []float64{3.5, -1.2, 0.001} {
		c.Check(isWholeNumber(x), check.Equals, false, check.Commentf("%v", x))
	}
}

func (s *bootstrapSuite) TestProfilesShape(c *check.C) {
	rng := rand.New(rand.NewSource(1))
	m := []float64{10, 20, 30, 40}
	replicates, err := BootstrapProfiles(m, 0, 50, rng)
	c.Assert(err, check.IsNil)
	k, r := replicates.Dims()
	c.Check(k, check.Equals, 4)
	c.Check(r, check.Equals, 50)
	for j := 0; j < r; j++ {
		col := mat.Col(nil, j, replicates)
		c.Check(math.Abs(floats.Sum(col)-1) < 1e-12, check.Equals, true)
		for _, v := range col {
			// inferred mutation count is 100
			c.Check(math.Abs(v*100-math.Round(v*100)) < 1e-9, check.Equals, true)
		}
	}
}

func (s *bootstrapSuite) TestProfilesExplicitCount(c *check.C) {
	rng := rand.New(rand.NewSource(1))
	replicates, err := BootstrapProfiles([]float64{0.25, 0.25, 0.5}, 7, 20, rng)
	c.Assert(err, check.IsNil)
	for j := 0; j < 20; j++ {
		for _, v := range mat.Col(nil, j, replicates) {
			c.Check(math.Abs(v*7-math.Round(v*7)) < 1e-9, check.Equals, true)
		}
	}
}

func (s *bootstrapSuite) TestProfilesZeroCategory(c *check.C) {
	rng := rand.New(rand.NewSource(1))
	replicates, err := BootstrapProfiles([]float64{5, 0, 5}, 0, 30, rng)
	c.Assert(err, check.IsNil)
	c.Check(mat.Row(nil, 1, replicates), check.DeepEquals, make([]float64, 30))
}

func (s *bootstrapSuite) TestMissingMutationCount(c *check.C) {
	rng := rand.New(rand.NewSource(1))
	_, err := BootstrapProfiles([]float64{10.5, 20.2, 30.3}, 0, 10, rng)
	c.Check(err, check.Equals, ErrMissingMutationCount)
	_, err = BootstrapProfiles([]float64{10.5, 20.2, 30.3}, 100, 10, rng)
	c.Check(err, check.IsNil)
	_, _, err = BootstrapExposures([]float64{0.5, 0.3, 0.2}, smallSignatures, 10, 0, rng, nil)
	c.Check(errors.Is(err, ErrMissingMutationCount), check.Equals, true)
}

func (s *bootstrapSuite) TestProfilesReproducible(c *check.C) {
	m := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	a, err := BootstrapProfiles(m, 0, 10, rand.New(rand.NewSource(42)))
	c.Assert(err, check.IsNil)
	b, err := BootstrapProfiles(m, 0, 10, rand.New(rand.NewSource(42)))
	c.Assert(err, check.IsNil)
	c.Check(mat.Equal(a, b), check.Equals, true)
}

func (s *bootstrapSuite) TestExposures(c *check.C) {
	rng := rand.New(rand.NewSource(3))
	p := randomSignatures(rng, 96, 5)
	m := make([]float64, 96)
	for i := range m {
		m[i] = float64(rng.Intn(30))
	}
	exposures, errs, err := BootstrapExposures(m, p, 25, 0, rng, nil)
	c.Assert(err, check.IsNil)
	n, r := exposures.Dims()
	c.Check(n, check.Equals, 5)
	c.Check(r, check.Equals, 25)
	c.Check(errs, check.HasLen, 25)
	for j := 0; j < r; j++ {
		col := mat.Col(nil, j, exposures)
		c.Check(math.Abs(floats.Sum(col)-1) < 1e-9, check.Equals, true)
		c.Check(floats.Min(col) >= 0, check.Equals, true)
		c.Check(errs[j] > 0, check.Equals, true)
	}
}

func (s *bootstrapSuite) TestExposuresShapeMismatch(c *check.C) {
	rng := rand.New(rand.NewSource(1))
	_, _, err := BootstrapExposures([]float64{1, 2}, smallSignatures, 10, 0, rng, nil)
	c.Check(errors.Is(err, ErrShapeMismatch), check.Equals, true)
}

func (s *bootstrapSuite) TestBadReplicateCount(c *check.C) {
	_, err := BootstrapProfiles([]float64{1, 2}, 0, 0, rand.New(rand.NewSource(1)))
	c.Check(err, check.ErrorMatches, `replicate count 0: .*`)
}

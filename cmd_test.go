// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kshedden/gonpy"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/check.v1"
)

type cmdSuite struct{}

var _ = check.Suite(&cmdSuite{})

// trinucleotides returns the 96 single-base substitution types as
// (substitution, context) pairs.
func trinucleotides() (subs, contexts []string) {
	for _, sub := range []string{"C>A", "C>G", "C>T", "T>A", "T>C", "T>G"} {
		for _, five := range "ACGT" {
			for _, three := range "ACGT" {
				subs = append(subs, sub)
				contexts = append(contexts, string(five)+sub[:1]+string(three))
			}
		}
	}
	return
}

// writeTestData writes a 10-signature panel (tab separated, one label
// column) and a samples file (comma separated, two label columns,
// rows in reverse order) into dir.
func writeTestData(c *check.C, dir string) (panel, samples string) {
	subs, contexts := trinucleotides()
	p := blockSignatures(96, 10)

	var buf bytes.Buffer
	buf.WriteString("Type")
	for _, name := range signatureNames(10) {
		buf.WriteString("\t" + name)
	}
	buf.WriteString("\n")
	for i := range subs {
		fmt.Fprintf(&buf, "%c[%s]%c", contexts[i][0], subs[i], contexts[i][2])
		for j := 0; j < 10; j++ {
			fmt.Fprintf(&buf, "\t%v", p.At(i, j))
		}
		buf.WriteString("\n")
	}
	panel = writeFile(c, filepath.Join(dir, "panel.txt"), buf.String())

	s0 := mixture(p, 5000, map[int]float64{2: 0.5, 5: 0.3, 7: 0.2})
	s1 := mixture(p, 4000, map[int]float64{0: 0.7, 9: 0.3})
	buf.Reset()
	buf.WriteString("Type,Subtype,patient0,patient1\n")
	for i := 95; i >= 0; i-- {
		fmt.Fprintf(&buf, "%s,%s,%v,%v\n", subs[i], contexts[i], s0[i], s1[i])
	}
	samples = writeFile(c, filepath.Join(dir, "samples.csv"), buf.String())
	return
}

func (s *cmdSuite) TestFit(c *check.C) {
	tmpdir := c.MkDir()
	panel, samples := writeTestData(c, tmpdir)
	var stderr bytes.Buffer
	exited := (&fitcmd{}).RunCommand("sigconfide fit", []string{
		"-samples", samples,
		"-signatures", panel,
		"-output-dir", tmpdir + "/out",
		"-drop-zeros",
		"-numpy",
		"-threads", "2",
		"-random-seed", "1",
	}, &bytes.Buffer{}, &bytes.Buffer{}, &stderr)
	c.Assert(exited, check.Equals, 0, check.Commentf("%s", stderr.String()))

	buf, err := os.ReadFile(tmpdir + "/out/" + AssignmentFilename)
	c.Assert(err, check.IsNil)
	lines := strings.Split(strings.TrimSuffix(string(buf), "\n"), "\n")
	c.Assert(lines, check.HasLen, 3)
	c.Check(lines[0], check.Equals, "Samples,SBSA,SBSC,SBSF,SBSH,SBSJ")
	c.Check(lines[1], check.Matches, `patient0,0,0\.(49|5)[0-9]*,0\.(29|3)[0-9]*,0\.(19|2)[0-9]*,0`)
	c.Check(lines[2], check.Matches, `patient1,0\.(69|7)[0-9]*,0,0,0,0\.(29|3)[0-9]*`)

	f, err := os.Open(tmpdir + "/out/exposures.npy")
	c.Assert(err, check.IsNil)
	defer f.Close()
	npy, err := gonpy.NewReader(f)
	c.Assert(err, check.IsNil)
	c.Check(npy.Shape, check.DeepEquals, []int{2, 5})
}

func (s *cmdSuite) TestFitHybrid(c *check.C) {
	tmpdir := c.MkDir()
	panel, samples := writeTestData(c, tmpdir)
	exited := (&fitcmd{}).RunCommand("sigconfide fit", []string{
		"-samples", samples,
		"-signatures", panel,
		"-output-dir", tmpdir,
		"-method", "hybrid",
	}, &bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{})
	c.Assert(exited, check.Equals, 0)
	buf, err := os.ReadFile(tmpdir + "/" + AssignmentFilename)
	c.Assert(err, check.IsNil)
	c.Check(strings.Count(string(buf), "\n"), check.Equals, 3)
	c.Check(string(buf), check.Matches, `Samples,SBSA,SBSB,SBSC,SBSD,SBSE,SBSF,SBSG,SBSH,SBSI,SBSJ\n.*`)
}

func (s *cmdSuite) TestFitUsage(c *check.C) {
	var stderr bytes.Buffer
	c.Check((&fitcmd{}).RunCommand("sigconfide fit", []string{"-help"}, nil, &bytes.Buffer{}, &stderr), check.Equals, 0)
	c.Check(stderr.String(), check.Matches, `(?ms).*-significance.*`)
	c.Check((&fitcmd{}).RunCommand("sigconfide fit", []string{"-no-such-flag"}, nil, &bytes.Buffer{}, &bytes.Buffer{}), check.Equals, 2)
	c.Check((&fitcmd{}).RunCommand("sigconfide fit", []string{}, nil, &bytes.Buffer{}, &bytes.Buffer{}), check.Equals, 2)
	stderr.Reset()
	c.Check((&fitcmd{}).RunCommand("sigconfide fit", []string{"-samples", "x", "extra"}, nil, &bytes.Buffer{}, &stderr), check.Equals, 2)
	c.Check(stderr.String(), check.Matches, `errant command line arguments.*\n`)
}

func (s *cmdSuite) TestFitBadInput(c *check.C) {
	tmpdir := c.MkDir()
	panel, _ := writeTestData(c, tmpdir)
	bad := writeFile(c, filepath.Join(tmpdir, "bad.txt"), "a b c\n1 2 3\n")
	var stderr bytes.Buffer
	exited := (&fitcmd{}).RunCommand("sigconfide fit", []string{
		"-samples", bad,
		"-signatures", panel,
		"-output-dir", tmpdir,
	}, nil, &bytes.Buffer{}, &stderr)
	c.Check(exited, check.Equals, 1)
	c.Check(stderr.String(), check.Matches, `(?ms).*unknown input format.*`)
	_, err := os.Stat(tmpdir + "/" + AssignmentFilename)
	c.Check(os.IsNotExist(err), check.Equals, true)
}

func (s *cmdSuite) TestDecompose(c *check.C) {
	tmpdir := c.MkDir()
	panel, samples := writeTestData(c, tmpdir)
	var stderr bytes.Buffer
	exited := (&decomposecmd{}).RunCommand("sigconfide decompose", []string{
		"-samples", samples,
		"-signatures", panel,
		"-output-dir", tmpdir,
	}, nil, &bytes.Buffer{}, &stderr)
	c.Assert(exited, check.Equals, 0, check.Commentf("%s", stderr.String()))
	buf, err := os.ReadFile(tmpdir + "/" + AssignmentFilename)
	c.Assert(err, check.IsNil)
	lines := strings.Split(strings.TrimSuffix(string(buf), "\n"), "\n")
	c.Assert(lines, check.HasLen, 3)
	c.Check(strings.Split(lines[1], ","), check.HasLen, 11)
}

func (s *cmdSuite) TestEstimate(c *check.C) {
	tmpdir := c.MkDir()
	panel, samples := writeTestData(c, tmpdir)
	var stderr bytes.Buffer
	exited := (&estimatecmd{}).RunCommand("sigconfide estimate", []string{
		"-samples", samples,
		"-signatures", panel,
		"-output-dir", tmpdir,
		"-R", "20",
		"-numpy",
	}, nil, &bytes.Buffer{}, &stderr)
	c.Assert(exited, check.Equals, 0, check.Commentf("%s", stderr.String()))
	buf, err := os.ReadFile(tmpdir + "/" + ConfidenceFilename)
	c.Assert(err, check.IsNil)
	lines := strings.Split(strings.TrimSuffix(string(buf), "\n"), "\n")
	c.Check(lines, check.HasLen, 21)
	c.Check(lines[0], check.Equals, "Sample,Signature,Mean,SD,Lower,Upper")
	c.Check(lines[3], check.Matches, `patient0,SBSC,0\.[45][0-9]*,.*`)

	f, err := os.Open(tmpdir + "/replicates.npy")
	c.Assert(err, check.IsNil)
	defer f.Close()
	npy, err := gonpy.NewReader(f)
	c.Assert(err, check.IsNil)
	c.Check(npy.Shape, check.DeepEquals, []int{2, 10, 20})

	exited = (&estimatecmd{}).RunCommand("sigconfide estimate", []string{
		"-samples", samples,
		"-signatures", panel,
		"-output-dir", tmpdir + "/cv",
		"-method", "crossval",
		"-fold-size", "12",
	}, nil, &bytes.Buffer{}, &stderr)
	c.Assert(exited, check.Equals, 0, check.Commentf("%s", stderr.String()))
	_, err = os.Stat(tmpdir + "/cv/" + ConfidenceFilename)
	c.Check(err, check.IsNil)
}

func (s *cmdSuite) TestSummarizeExposures(c *check.C) {
	exposures := mat.NewDense(2, 5, []float64{
		0.1, 0.2, 0.3, 0.4, 0.5,
		1, 1, 1, 1, 1,
	})
	summary, err := SummarizeExposures(exposures, 0.6)
	c.Assert(err, check.IsNil)
	c.Check(fmt.Sprintf("%.4f %.4f %.4f %.4f", summary[0].Mean, summary[0].StdDev, summary[0].Lower, summary[0].Upper), check.Equals, "0.3000 0.1581 0.1000 0.4000")
	c.Check(summary[1], check.Equals, ExposureSummary{Mean: 1, StdDev: 0, Lower: 1, Upper: 1})
	// The input is not reordered.
	c.Check(exposures.At(0, 0), check.Equals, 0.1)
	_, err = SummarizeExposures(exposures, 1)
	c.Check(err, check.ErrorMatches, `confidence 1: .*`)
}

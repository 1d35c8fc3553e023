// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// AssignmentFilename is the name of the exposure table written by the
// fit and decompose commands.
const AssignmentFilename = "Assignment_Solution_Activities.csv"

// headerLabel is the first header cell, above the sample names.
const headerLabel = "Samples"

// An Assignment is the exposure table of a batch: one row per sample,
// one column per signature.
type Assignment struct {
	// Header is "Samples" followed by the signature names.
	Header      []string
	SampleNames []string
	// G×N, zero outside each sample's selected signatures and for
	// failed samples.
	Exposures *mat.Dense
	// Per-sample selections, nil for failed samples.
	Selections []*Selection
	// Errors of failed samples, by sample index.
	Failed map[int]error
}

func newAssignment(signatureNames, sampleNames []string) *Assignment {
	a := &Assignment{
		Header:      append([]string{headerLabel}, signatureNames...),
		SampleNames: sampleNames,
		Selections:  make([]*Selection, len(sampleNames)),
		Failed:      map[int]error{},
	}
	if len(sampleNames) > 0 && len(signatureNames) > 0 {
		a.Exposures = mat.NewDense(len(sampleNames), len(signatureNames), nil)
	}
	return a
}

// DropZeroColumns returns a copy of the assignment without the
// signature columns that are zero for every sample.
func (a *Assignment) DropZeroColumns() *Assignment {
	if a.Exposures == nil {
		return a
	}
	g, n := a.Exposures.Dims()
	var keep []int
	for j := 0; j < n; j++ {
		for i := 0; i < g; i++ {
			if a.Exposures.At(i, j) != 0 {
				keep = append(keep, j)
				break
			}
		}
	}
	out := &Assignment{
		Header:      []string{a.Header[0]},
		SampleNames: a.SampleNames,
		Selections:  a.Selections,
		Failed:      a.Failed,
	}
	for _, j := range keep {
		out.Header = append(out.Header, a.Header[j+1])
	}
	if len(keep) > 0 {
		out.Exposures = columnSet(keep).matrix(a.Exposures)
	}
	return out
}

// WriteCSV writes the header row and one row per sample.
func (a *Assignment) WriteCSV(w io.Writer) error {
	bufw := bufio.NewWriter(w)
	_, err := fmt.Fprintln(bufw, strings.Join(a.Header, ","))
	if err != nil {
		return err
	}
	row := make([]string, len(a.Header))
	for i, name := range a.SampleNames {
		row[0] = name
		for j := 1; j < len(row); j++ {
			row[j] = formatFloat(a.Exposures.At(i, j-1))
		}
		_, err = fmt.Fprintln(bufw, strings.Join(row, ","))
		if err != nil {
			return err
		}
	}
	return bufw.Flush()
}

// WriteFile writes the table to AssignmentFilename in dir.
func (a *Assignment) WriteFile(dir string) error {
	fnm := filepath.Join(dir, AssignmentFilename)
	log.Infof("writing %s", fnm)
	f, err := os.Create(fnm)
	if err != nil {
		return err
	}
	defer f.Close()
	err = a.WriteCSV(f)
	if err != nil {
		return fmt.Errorf("write %s: %w", fnm, err)
	}
	err = f.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", fnm, err)
	}
	return nil
}

// WriteNumpy writes the G×N exposure matrix as a float64 .npy file.
func (a *Assignment) WriteNumpy(fnm string) error {
	rows, cols := len(a.SampleNames), len(a.Header)-1
	var data []float64
	if a.Exposures != nil {
		data = mat.DenseCopyOf(a.Exposures).RawMatrix().Data
	}
	return writeNumpyFloat64(fnm, data, rows, cols)
}

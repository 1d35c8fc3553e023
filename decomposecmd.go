// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"errors"
	"flag"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// decomposecmd fits every sample against the whole panel, without
// model selection.
type decomposecmd struct{}

func (cmd *decomposecmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	samplesFilename := flags.String("samples", "", "mutation count matrix `file` (csv or tsv, optionally .gz)")
	outputDir := flags.String("output-dir", ".", "output `directory`")
	signatures := flags.String("signatures", "3.4", "reference panel `version` (1.0, 2.0, 3.0, 3.1, 3.4) or signature file")
	panelDir := flags.String("panel-dir", defaultPanelDir(), "`directory` holding the reference panel files")
	dropZeros := flags.Bool("drop-zeros", false, "omit signatures with zero exposure in every sample")
	writeNumpy := flags.Bool("numpy", false, "also write exposures.npy")
	err = flags.Parse(args)
	if err == flag.ErrHelp {
		err = nil
		return 0
	} else if err != nil {
		return 2
	} else if flags.NArg() > 0 {
		err = fmt.Errorf("errant command line arguments after parsed flags: %v", flags.Args())
		return 2
	}
	if *samplesFilename == "" {
		err = errors.New("-samples is required")
		return 2
	}

	in, err := loadInputs(*samplesFilename, *signatures, *panelDir)
	if err != nil {
		return 1
	}
	a := decomposeAll(in)
	err = writeAssignment(a, *outputDir, *dropZeros, *writeNumpy)
	if err != nil {
		return 1
	}
	return 0
}

// decomposeAll decomposes each sample separately so that one bad
// sample leaves a zero row instead of failing the batch.
func decomposeAll(in *inputs) *Assignment {
	a := newAssignment(in.signatureNames, in.sampleNames)
	k, g := in.samples.Dims()
	_, n := in.signatures.Dims()
	for j := 0; j < g; j++ {
		exposures, errs, err := FindExposures(in.samples.Slice(0, k, j, j+1), in.signatures, nil)
		if err != nil {
			a.Failed[j] = err
			log.WithFields(log.Fields{
				"sample": in.sampleNames[j],
				"index":  j,
			}).Warnf("decomposition failed: %s", err)
			continue
		}
		e := mat.Col(nil, 0, exposures)
		a.Exposures.SetRow(j, e)
		a.Selections[j] = &Selection{
			Columns:   allColumns(n).indices(),
			Exposures: e,
			Error:     errs[0],
		}
		log.Infof("%04d: %s done (%d/%d) error %.6f", j, in.sampleNames[j], j+1, g, errs[0])
	}
	return a
}

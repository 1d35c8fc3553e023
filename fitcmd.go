// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

func defaultPanelDir() string {
	if dir := os.Getenv("SIGCONFIDE_PANEL_DIR"); dir != "" {
		return dir
	}
	return "./panels"
}

type inputs struct {
	samples        *mat.Dense // K×G, rows in panel order
	sampleNames    []string
	signatures     *mat.Dense // K×N
	signatureNames []string   // N names, without the placeholder
}

// loadInputs reads a samples file and a signature panel and aligns
// the sample rows to the panel.
func loadInputs(samplesFilename, selector, panelDir string) (*inputs, error) {
	catalog, err := NewCatalog(panelDir)
	if err != nil {
		return nil, err
	}
	sigs, names, sigTypes, err := catalog.Load(selector)
	if err != nil {
		return nil, err
	}
	samples, sampleNames, types, err := LoadSamples(samplesFilename)
	if err != nil {
		return nil, err
	}
	samples, err = AlignSamples(samples, types, sigTypes)
	if err != nil {
		return nil, err
	}
	k, g := samples.Dims()
	_, n := sigs.Dims()
	log.Infof("loaded %d samples, %d signatures, %d mutation types", g, n, k)
	return &inputs{
		samples:        samples,
		sampleNames:    sampleNames,
		signatures:     sigs,
		signatureNames: names[1:],
	}, nil
}

type fitcmd struct{}

func (cmd *fitcmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pprof := flags.String("pprof", "", "serve Go profile data at http://`[addr]:port`")
	samplesFilename := flags.String("samples", "", "mutation count matrix `file` (csv or tsv, optionally .gz)")
	outputDir := flags.String("output-dir", ".", "output `directory`")
	signatures := flags.String("signatures", "3.4", "reference panel `version` (1.0, 2.0, 3.0, 3.1, 3.4) or signature file")
	panelDir := flags.String("panel-dir", defaultPanelDir(), "`directory` holding the reference panel files")
	threshold := flags.Float64("threshold", 0.01, "exposure above which a replicate counts as evidence for a signature")
	mutationCount := flags.Int("mutation-count", 0, "mutations per bootstrap replicate (0 = sum of each sample's counts)")
	replicates := flags.Int("R", 100, "number of bootstrap replicates")
	significance := flags.Float64("significance", 0.01, "significance level")
	dropZeros := flags.Bool("drop-zeros", false, "omit signatures with zero exposure in every sample")
	method := flags.String("method", MethodBackward, "model selection `method` (backward or hybrid)")
	errorTolerance := flags.Float64("error-tolerance", 0.01, "largest error increase per removal (hybrid method)")
	threads := flags.Int("threads", runtime.GOMAXPROCS(0), "number of samples to process concurrently")
	randSeed := flags.Uint64("random-seed", 0, "PRNG seed")
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

	if *pprof != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprof, nil))
		}()
	}

	in, err := loadInputs(*samplesFilename, *signatures, *panelDir)
	if err != nil {
		return 1
	}
	fitter := Fitter{
		Signatures:     in.signatures,
		SignatureNames: in.signatureNames,
		Config: SelectionConfig{
			Threshold:      *threshold,
			Significance:   *significance,
			Replicates:     *replicates,
			MutationCount:  *mutationCount,
			ErrorTolerance: *errorTolerance,
		},
		Method:  *method,
		Threads: *threads,
		Seed:    *randSeed,
	}
	a, err := fitter.Fit(profiles(in.samples), in.sampleNames)
	if err != nil {
		return 1
	}
	if len(a.Failed) > 0 {
		log.Warnf("%d of %d samples failed", len(a.Failed), len(a.SampleNames))
	}
	err = writeAssignment(a, *outputDir, *dropZeros, *writeNumpy)
	if err != nil {
		return 1
	}
	return 0
}

func writeAssignment(a *Assignment, outputDir string, dropZeros, writeNumpy bool) error {
	if dropZeros {
		a = a.DropZeroColumns()
	}
	err := os.MkdirAll(outputDir, 0777)
	if err != nil {
		return err
	}
	err = a.WriteFile(outputDir)
	if err != nil {
		return err
	}
	if writeNumpy {
		err = a.WriteNumpy(filepath.Join(outputDir, "exposures.npy"))
		if err != nil {
			return err
		}
	}
	return nil
}

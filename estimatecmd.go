// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// ConfidenceFilename is the name of the table written by the estimate
// command.
const ConfidenceFilename = "Exposure_Confidence.csv"

// estimatecmd reports the bootstrap or cross-validation distribution
// of each sample's exposures to the whole panel.
type estimatecmd struct {
	method        string
	replicates    int
	mutationCount int
	foldSize      int
	shuffle       bool
	confidence    float64
	threads       int
	seed          uint64
}

func (cmd *estimatecmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
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
	flags.StringVar(&cmd.method, "method", "bootstrap", "resampling `method` (bootstrap or crossval)")
	flags.IntVar(&cmd.replicates, "R", 100, "number of bootstrap replicates")
	flags.IntVar(&cmd.mutationCount, "mutation-count", 0, "mutations per bootstrap replicate (0 = sum of each sample's counts)")
	flags.IntVar(&cmd.foldSize, "fold-size", 10, "mutation types per cross-validation fold")
	flags.BoolVar(&cmd.shuffle, "shuffle", true, "permute mutation types before forming cross-validation folds")
	flags.Float64Var(&cmd.confidence, "confidence", 0.95, "coverage of the reported interval")
	flags.IntVar(&cmd.threads, "threads", runtime.GOMAXPROCS(0), "number of samples to process concurrently")
	flags.Uint64Var(&cmd.seed, "random-seed", 0, "PRNG seed")
	writeNumpy := flags.Bool("numpy", false, "also write replicates.npy (samples × signatures × replicates)")
	pprofdir := flags.String("pprof-dir", "", "write Go profile data to `directory` periodically")
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
	if cmd.method != "bootstrap" && cmd.method != "crossval" {
		err = fmt.Errorf("unknown method %q", cmd.method)
		return 2
	}

	if *pprofdir != "" {
		stop := make(chan struct{})
		defer close(stop)
		go writeProfilesPeriodically(*pprofdir, time.Minute, stop)
	}

	in, err := loadInputs(*samplesFilename, *signatures, *panelDir)
	if err != nil {
		return 1
	}
	reps, err := cmd.estimate(in)
	if err != nil {
		return 1
	}
	err = os.MkdirAll(*outputDir, 0777)
	if err != nil {
		return 1
	}
	err = cmd.writeSummary(filepath.Join(*outputDir, ConfidenceFilename), in, reps)
	if err != nil {
		return 1
	}
	if *writeNumpy {
		err = writeReplicates(filepath.Join(*outputDir, "replicates.npy"), reps)
		if err != nil {
			return 1
		}
	}
	return 0
}

// estimate returns each sample's N×R replicate exposure matrix. Unlike
// fit, any failure aborts the run.
func (cmd *estimatecmd) estimate(in *inputs) ([]*mat.Dense, error) {
	k, g := in.samples.Dims()
	reps := make([]*mat.Dense, g)
	var done int64
	throttle := throttle{Max: cmd.threads}
	for j := 0; j < g; j++ {
		j := j
		throttle.Go(func() error {
			if err := throttle.Err(); err != nil {
				return nil
			}
			m := mat.Col(nil, j, in.samples)
			rng := rand.New(rand.NewSource(cmd.seed + uint64(j)))
			var exposures *mat.Dense
			var err error
			if cmd.method == "crossval" {
				exposures, _, err = CrossValidationExposures(m, in.signatures, cmd.foldSize, cmd.shuffle, rng, nil)
			} else {
				exposures, _, err = BootstrapExposures(m, in.signatures, cmd.replicates, cmd.mutationCount, rng, nil)
			}
			if err != nil {
				return fmt.Errorf("sample %s: %w", in.sampleNames[j], err)
			}
			reps[j] = exposures
			log.Infof("%04d: %s done (%d/%d)", j, in.sampleNames[j], atomic.AddInt64(&done, 1), g)
			return nil
		})
	}
	if err := throttle.Wait(); err != nil {
		return nil, err
	}
	log.Infof("estimated %d samples over %d mutation types", g, k)
	return reps, nil
}

func (cmd *estimatecmd) writeSummary(fnm string, in *inputs, reps []*mat.Dense) error {
	log.Infof("writing %s", fnm)
	f, err := os.Create(fnm)
	if err != nil {
		return err
	}
	defer f.Close()
	bufw := bufio.NewWriter(f)
	fmt.Fprintln(bufw, "Sample,Signature,Mean,SD,Lower,Upper")
	for j, exposures := range reps {
		summary, err := SummarizeExposures(exposures, cmd.confidence)
		if err != nil {
			return err
		}
		for i, s := range summary {
			fmt.Fprintf(bufw, "%s,%s,%s,%s,%s,%s\n", in.sampleNames[j], in.signatureNames[i],
				formatFloat(s.Mean), formatFloat(s.StdDev), formatFloat(s.Lower), formatFloat(s.Upper))
		}
	}
	err = bufw.Flush()
	if err != nil {
		return fmt.Errorf("write %s: %w", fnm, err)
	}
	err = f.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", fnm, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// writeReplicates writes the per-sample N×R matrices as one
// G×N×R array.
func writeReplicates(fnm string, reps []*mat.Dense) error {
	if len(reps) == 0 {
		return writeNumpyFloat64Shape(fnm, nil, []int{0, 0, 0})
	}
	n, r := reps[0].Dims()
	out := make([]float64, 0, len(reps)*n*r)
	for _, exposures := range reps {
		out = append(out, mat.DenseCopyOf(exposures).RawMatrix().Data...)
	}
	return writeNumpyFloat64Shape(fnm, out, []int{len(reps), n, r})
}

// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

type sampleFormat int

const (
	formatCSV        sampleFormat = iota + 1 // C>A,ACA,66,83,...
	formatTSV                                // AC>AA<TAB>66<TAB>83...
	formatMutatedTSV                         // A[C>A]A<TAB>66<TAB>83...
)

func (f sampleFormat) String() string {
	switch f {
	case formatCSV:
		return "CSV Format"
	case formatTSV:
		return "TSV Format"
	case formatMutatedTSV:
		return "Mutated TSV Format"
	default:
		return "Unknown Format"
	}
}

// separator and number of label cells at the start of each row.
func (f sampleFormat) layout() (string, int) {
	if f == formatCSV {
		return ",", 2
	}
	return "\t", 1
}

var (
	csvRowRe     = regexp.MustCompile(`^[ACGT]>[ACGT],[ACGT]{3},`)
	tsvRowRe     = regexp.MustCompile(`^[ACGT]{2}>[ACGT]{2}\t`)
	mutatedRowRe = regexp.MustCompile(`^[ACGT]\[[ACGT]>[ACGT]\][ACGT]\t`)

	substitutionRe = regexp.MustCompile(`^([ACGT])>([ACGT])$`)
	contextRe      = regexp.MustCompile(`^([ACGT])([ACGT])([ACGT])$`)
	flatTypeRe     = regexp.MustCompile(`^([ACGT])([ACGT])>([ACGT])([ACGT])$`)
	mutatedTypeRe  = regexp.MustCompile(`^[ACGT]\[[ACGT]>[ACGT]\][ACGT]$`)
)

// detectFormat classifies a data row of a samples file.
func detectFormat(line string) (sampleFormat, error) {
	switch {
	case csvRowRe.MatchString(line):
		return formatCSV, nil
	case tsvRowRe.MatchString(line):
		return formatTSV, nil
	case mutatedRowRe.MatchString(line):
		return formatMutatedTSV, nil
	}
	if len(line) > 40 {
		line = line[:40] + "..."
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, line)
}

// mutationType returns the A[C>A]A form of the mutation type named by
// the label cells of a row, or "" if the labels are not recognized.
func mutationType(labels []string) string {
	for _, l := range labels {
		if mutatedTypeRe.MatchString(l) {
			return l
		}
	}
	for _, l := range labels {
		if m := flatTypeRe.FindStringSubmatch(l); m != nil {
			return m[1] + "[" + m[2] + ">" + m[3] + "]" + m[4]
		}
	}
	for i := 0; i+1 < len(labels); i++ {
		sub := substitutionRe.FindStringSubmatch(labels[i])
		ctx := contextRe.FindStringSubmatch(labels[i+1])
		if sub != nil && ctx != nil && ctx[2] == sub[1] {
			return ctx[1] + "[" + sub[1] + ">" + sub[2] + "]" + ctx[3]
		}
	}
	return ""
}

// LoadSamples reads a mutation count matrix. The first row holds the
// sample names; each following row holds one mutation type's label
// cells and one count per sample. The layout is detected from the
// first data row.
//
// It returns the K×G count matrix, the G sample names and the K
// mutation types in A[C>A]A form.
func LoadSamples(fnm string) (*mat.Dense, []string, []string, error) {
	lines, err := readLines(fnm)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(lines) < 2 {
		return nil, nil, nil, fmt.Errorf("%s: no data rows", fnm)
	}
	format, err := detectFormat(lines[1])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s line 2: %w", fnm, err)
	}
	sep, nlabels := format.layout()
	header := strings.Split(lines[0], sep)
	ncols := len(strings.Split(lines[1], sep)) - nlabels
	if ncols < 1 {
		return nil, nil, nil, fmt.Errorf("%s line 2: no sample columns", fnm)
	}
	if len(header) < ncols {
		return nil, nil, nil, fmt.Errorf("%s: header has %d fields, data rows have %d samples", fnm, len(header), ncols)
	}
	names := header[len(header)-ncols:]
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}

	rows := lines[1:]
	data := make([]float64, 0, len(rows)*ncols)
	types := make([]string, 0, len(rows))
	for r, line := range rows {
		lineNum := r + 2
		split := strings.Split(line, sep)
		if len(split) != nlabels+ncols {
			return nil, nil, nil, fmt.Errorf("%s line %d: %d fields, expected %d", fnm, lineNum, len(split), nlabels+ncols)
		}
		mt := mutationType(split[:nlabels])
		if mt == "" {
			return nil, nil, nil, fmt.Errorf("%s line %d: %w: mutation type %q", fnm, lineNum, ErrUnknownFormat, strings.Join(split[:nlabels], sep))
		}
		types = append(types, mt)
		for _, s := range split[nlabels:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("%s line %d: cannot parse float %q: %s", fnm, lineNum, s, err)
			}
			if v < 0 {
				return nil, nil, nil, fmt.Errorf("%s line %d: negative count %v", fnm, lineNum, v)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(len(rows), ncols, data), names, types, nil
}

// AlignSamples reorders the rows of samples (labelled sampleTypes) to
// the order of the signature panel's rows (labelled sigTypes). If the
// panel's rows are unlabelled, the row counts must simply agree.
func AlignSamples(samples *mat.Dense, sampleTypes, sigTypes []string) (*mat.Dense, error) {
	k, g := samples.Dims()
	if k != len(sigTypes) {
		return nil, fmt.Errorf("%w: samples have %d mutation types, signatures have %d", ErrShapeMismatch, k, len(sigTypes))
	}
	row := make(map[string]int, k)
	for i, t := range sampleTypes {
		if t == "" {
			return samples, nil
		}
		row[t] = i
	}
	for _, t := range sigTypes {
		if t == "" {
			return samples, nil
		}
	}
	out := mat.NewDense(k, g, nil)
	for i, t := range sigTypes {
		src, ok := row[t]
		if !ok {
			return nil, fmt.Errorf("%w: mutation type %s is missing from samples", ErrShapeMismatch, t)
		}
		delete(row, t)
		out.SetRow(i, samples.RawRowView(src))
	}
	return out, nil
}

// profiles returns the columns of the K×G matrix samples.
func profiles(samples mat.Matrix) [][]float64 {
	_, g := samples.Dims()
	out := make([][]float64, g)
	for j := range out {
		out[j] = mat.Col(nil, j, samples)
	}
	return out
}

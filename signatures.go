// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// LoadSignatures reads a signature panel: a header row with the
// signature names, then one row per mutation type. Rows start with
// one or more non-numeric label cells followed by one probability per
// signature. Tab and comma separated files are accepted.
//
// It returns the K×N signature matrix, the signature names preceded
// by the placeholder "Samples" (length N+1), and the K mutation types
// in A[C>A]A form ("" where a row label is not recognized).
func LoadSignatures(fnm string) (*mat.Dense, []string, []string, error) {
	lines, err := readLines(fnm)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(lines) < 2 {
		return nil, nil, nil, fmt.Errorf("%s: no data rows", fnm)
	}
	sep := ","
	if strings.Contains(lines[0], "\t") {
		sep = "\t"
	}
	first := strings.Split(lines[1], sep)
	nlabels := 0
	for nlabels < len(first) {
		if _, err := strconv.ParseFloat(strings.TrimSpace(first[nlabels]), 64); err == nil {
			break
		}
		nlabels++
	}
	nsigs := len(first) - nlabels
	if nsigs < 1 {
		return nil, nil, nil, fmt.Errorf("%s line 2: no numeric columns", fnm)
	}
	header := strings.Split(lines[0], sep)
	if len(header) < nsigs {
		return nil, nil, nil, fmt.Errorf("%s: header has %d fields, data rows have %d signatures", fnm, len(header), nsigs)
	}
	names := []string{headerLabel}
	for _, name := range header[len(header)-nsigs:] {
		names = append(names, strings.TrimSpace(name))
	}

	rows := lines[1:]
	data := make([]float64, 0, len(rows)*nsigs)
	types := make([]string, 0, len(rows))
	for r, line := range rows {
		lineNum := r + 2
		split := strings.Split(line, sep)
		if len(split) != nlabels+nsigs {
			return nil, nil, nil, fmt.Errorf("%s line %d: %d fields, expected %d", fnm, lineNum, len(split), nlabels+nsigs)
		}
		types = append(types, mutationType(split[:nlabels]))
		for _, s := range split[nlabels:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("%s line %d: cannot parse float %q: %s", fnm, lineNum, s, err)
			}
			if v < 0 {
				return nil, nil, nil, fmt.Errorf("%s line %d: negative signature weight %v", fnm, lineNum, v)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(len(rows), nsigs, data), names, types, nil
}

// Copyright (C) The SigConfide Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package sigconfide

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

//go:embed catalog.json
var catalogJSON []byte

// A Catalog maps reference panel version tags (e.g. "3.4") to panel
// files in Dir.
type Catalog struct {
	Dir    string
	Panels map[string]string
}

// NewCatalog returns the catalog of bundled panel versions, with
// panel files expected in dir.
func NewCatalog(dir string) (*Catalog, error) {
	c := &Catalog{Dir: dir}
	if err := json.Unmarshal(catalogJSON, &c.Panels); err != nil {
		return nil, fmt.Errorf("catalog.json: %w", err)
	}
	return c, nil
}

// Versions returns the known version tags in order.
func (c *Catalog) Versions() []string {
	var vs []string
	for v := range c.Panels {
		vs = append(vs, v)
	}
	sort.Strings(vs)
	return vs
}

// Path returns the file a selector refers to. A selector is either a
// version tag ("3.4", or "2" for "2.0") or a file path.
func (c *Catalog) Path(selector string) string {
	if fnm, ok := c.Panels[selector]; ok {
		return filepath.Join(c.Dir, fnm)
	}
	if v, err := strconv.ParseFloat(selector, 64); err == nil {
		if fnm, ok := c.Panels[strconv.FormatFloat(v, 'f', 1, 64)]; ok {
			return filepath.Join(c.Dir, fnm)
		}
	}
	return selector
}

// Load reads the panel a selector refers to with LoadSignatures.
func (c *Catalog) Load(selector string) (*mat.Dense, []string, []string, error) {
	return LoadSignatures(c.Path(selector))
}

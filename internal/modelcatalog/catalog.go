// Package modelcatalog loads the manifest of installed neural amp models
// from a YAML file, the way the installed-device table is loaded in the
// pack's deviceid.go: read once at startup from an OS-specific search
// list, tolerate a missing file by degrading to an empty catalog instead
// of failing startup.
package modelcatalog

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Entry describes one installed model file available for loading into a
// ModelSlot (spec §6 modelcatalog manifest).
type Entry struct {
	ID          string `yaml:"id"`
	Path        string `yaml:"path"`
	DisplayName string `yaml:"display_name"`
	Vendor      string `yaml:"vendor"`
	TrimDB      float64 `yaml:"trim_db"`
}

type manifest struct {
	Models []Entry `yaml:"models"`
}

// Catalog is the in-memory, read-only view of the installed-models
// manifest, sorted by ID for deterministic listing.
type Catalog struct {
	entries []Entry
	byID    map[string]Entry
}

// SearchLocations mirrors the pack's layered config search order: current
// directory first, then source-tree-relative, then system-wide locations.
var SearchLocations = []string{
	"models.yaml",
	"data/models.yaml",
	"../data/models.yaml",
	"/usr/local/share/hoopipi/models.yaml",
	"/usr/share/hoopipi/models.yaml",
}

// Load reads the first manifest file found on SearchLocations. A missing
// file is not an error: it yields an empty catalog and a warning log, since
// the engine can still run with models loaded by explicit absolute path.
func Load(logger *log.Logger) (*Catalog, error) {
	var fp *os.File
	for _, loc := range SearchLocations {
		f, err := os.Open(loc)
		if err == nil {
			fp = f
			break
		}
	}

	if fp == nil {
		logger.Warn("no model catalog manifest found, starting with empty catalog", "searched", SearchLocations)
		return &Catalog{byID: map[string]Entry{}}, nil
	}
	defer fp.Close()

	data, err := io.ReadAll(fp)
	if err != nil {
		return nil, fmt.Errorf("modelcatalog: reading %s: %w", fp.Name(), err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("modelcatalog: parsing %s: %w", fp.Name(), err)
	}

	c := &Catalog{byID: make(map[string]Entry, len(m.Models))}
	for _, e := range m.Models {
		e.ID = strings.TrimSpace(e.ID)
		if e.ID == "" {
			continue
		}
		c.entries = append(c.entries, e)
		c.byID[e.ID] = e
	}

	sort.Slice(c.entries, func(i, j int) bool { return c.entries[i].ID < c.entries[j].ID })

	logger.Info("model catalog loaded", "path", fp.Name(), "count", len(c.entries))
	return c, nil
}

// Lookup resolves a catalog ID to its entry.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// List returns all catalog entries sorted by ID.
func (c *Catalog) List() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Package manifest defines the catalog serialized at the output root.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/runnerforge/internal/config"
)

// Entry is one catalog entry: the runner's normalized metadata fields plus
// the reserved path/environment/hash fields added during catalog assembly.
type Entry map[string]any

// Reserved entry field names set by the catalog builder.
const (
	FieldPath        = "path"
	FieldEnvironment = "environment"
	FieldHash        = "hash"
)

// Catalog describes every artifact produced by one build run. It is
// regenerated fully each run, never merged with a prior catalog.
type Catalog struct {
	Runners  []Entry `json:"runners"`
	ListName string  `json:"listName"`
}

// ToJSON serializes the catalog to JSON.
func (c *Catalog) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a catalog from JSON.
func FromJSON(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	return &c, nil
}

// Write serializes the catalog into <outDir>/runners.json.
func (c *Catalog) Write(outDir string) error {
	data, err := c.ToJSON()
	if err != nil {
		return err
	}
	path := filepath.Join(outDir, config.ManifestFileName)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Package transfer exports and imports the whole project collection as
// JSON or YAML documents.
package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tgienger/myday/internal/models"
	"github.com/tgienger/myday/internal/repository"
)

// Format of an exported document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
}

// FormatFromPath guesses the format from a file extension, defaulting to JSON
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Export writes the collection to w
func Export(w io.Writer, projects []*models.Project, format Format) error {
	snap := repository.NewSnapshot(projects)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

// Import reads a document written by Export (or a legacy bare JSON array).
// Duplicate names are disambiguated; the renames are returned for reporting.
func Import(r io.Reader, format Format) ([]*models.Project, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}

	var snap repository.Snapshot
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return nil, nil, fmt.Errorf("invalid yaml: %w", err)
		}
		if snap.Version > repository.SchemaVersion {
			return nil, nil, fmt.Errorf("document version %d is newer than supported version %d", snap.Version, repository.SchemaVersion)
		}
	default:
		snap, err = repository.UnmarshalSnapshot(data)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid json: %w", err)
		}
	}

	projects, renames := snap.Build()
	return projects, renames, nil
}

// Package catalog reads the laptop listings that seed the vector index.
package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"laptoprag/internal/domain"
)

// File reads listings from a YAML or JSON document. The document is either a
// top-level list of listings or an object with a "laptops" list.
type File struct {
	path string
}

func NewFile(path string) *File { return &File{path: path} }

func (f *File) Listings(_ context.Context) ([]domain.Metadata, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog bytes. yaml.v3 also accepts JSON.
func Parse(data []byte) ([]domain.Metadata, error) {
	var rows []map[string]any
	if err := yaml.Unmarshal(data, &rows); err != nil {
		var doc struct {
			Laptops []map[string]any `yaml:"laptops"`
		}
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		rows = doc.Laptops
	}
	out := make([]domain.Metadata, 0, len(rows))
	for i, row := range rows {
		m := domain.MetadataFromMap(row)
		if m.NameAR == "" && m.NameEN == "" {
			return nil, fmt.Errorf("catalog entry %d has no name", i)
		}
		out = append(out, m)
	}
	return out, nil
}

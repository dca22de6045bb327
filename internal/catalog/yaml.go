package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// catalogFile is the raw YAML structure of a catalog.
type catalogFile struct {
	Products []map[string]any `yaml:"products"`
}

// ReadYAML parses a YAML catalog.
func ReadYAML(data []byte) (*Catalog, error) {
	var raw catalogFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if len(raw.Products) == 0 {
		return nil, fmt.Errorf("catalog contains no products")
	}

	entries := make([]Entry, len(raw.Products))
	for i, fields := range raw.Products {
		entries[i] = Entry{Line: i + 1, Fields: fields}
		if entries[i].Name() == "" {
			return nil, fmt.Errorf("product at index %d has no name", i)
		}
	}
	return &Catalog{Entries: entries}, nil
}

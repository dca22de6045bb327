// Package catalog reads product catalogs for batch runs.
//
// A catalog lists several product descriptions, each of which becomes the
// raw input of one workflow run. Two formats are read:
//
// CSV, one product per row with the header naming the fields:
//
//	Product Name,Concentration,Skin Type,Key Ingredients,Benefits,How to Use,Side Effects,Price
//	GlowBoost Vitamin C Serum,10% Vitamin C,"Oily, Combination",...,₹699
//
// YAML, a products list of field mappings:
//
//	products:
//	  - Product Name: GlowBoost Vitamin C Serum
//	    Price: ₹699
//
// Field names are passed through unchanged; the workflow's extract step
// normalizes them. Only a product name column is required here.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// nameColumns are the accepted spellings of the product name field,
// compared case-insensitively.
var nameColumns = []string{"product name", "product_name", "name"}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Entry is one product of a catalog.
type Entry struct {
	// Line is the CSV line or YAML list position (1-based) the entry came from.
	Line int

	// Fields is the raw product mapping handed to the workflow.
	Fields map[string]any
}

// Name returns the product name field.
func (e Entry) Name() string {
	for key, v := range e.Fields {
		if isNameColumn(key) {
			if s, ok := v.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// Slug returns a file-system friendly form of the product name, used as the
// entry's output directory.
func (e Entry) Slug() string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(e.Name()), "-"), "-")
	if slug == "" {
		return fmt.Sprintf("product-%d", e.Line)
	}
	return slug
}

// Catalog holds the products of a catalog file, in file order.
type Catalog struct {
	Entries []Entry
}

// Names returns the product names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		names[i] = e.Name()
	}
	return names
}

// ReadFromFile reads a catalog, choosing the format by extension: .yaml and
// .yml are YAML, everything else CSV.
func ReadFromFile(path string) (*Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		return ReadYAML(data)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	return readCSV(f)
}

// ReadFromString parses a CSV catalog from a string.
func ReadFromString(data string) (*Catalog, error) {
	return readCSV(strings.NewReader(data))
}

func readCSV(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := validateColumns(header); err != nil {
		return nil, err
	}

	var entries []Entry
	lineNum := 1 // header was line 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog line %d: %w", lineNum, err)
		}

		fields := make(map[string]any, len(header))
		for i, col := range header {
			if i >= len(record) || col == "" {
				continue
			}
			if v := strings.TrimSpace(record[i]); v != "" {
				fields[col] = v
			}
		}

		entry := Entry{Line: lineNum, Fields: fields}
		if entry.Name() == "" {
			return nil, fmt.Errorf("catalog line %d: product name is required", lineNum)
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog contains no products")
	}
	return &Catalog{Entries: entries}, nil
}

func validateColumns(header []string) error {
	for _, col := range header {
		if isNameColumn(col) {
			return nil
		}
	}
	return fmt.Errorf("catalog missing required column: one of %s", strings.Join(nameColumns, ", "))
}

func isNameColumn(col string) bool {
	col = strings.ToLower(strings.TrimSpace(col))
	for _, name := range nameColumns {
		if col == name {
			return true
		}
	}
	return false
}

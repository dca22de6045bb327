// Package schema validates product input and generated pages against the
// JSON Schemas embedded in the binary.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Names of the embedded schemas.
const (
	Product        = "product.json"
	FAQ            = "faq.json"
	ProductPage    = "product_page.json"
	ComparisonPage = "comparison_page.json"
)

// ErrInvalid is returned when a document does not conform to its schema.
var ErrInvalid = errors.New("schema validation failed")

//go:embed schemas/*.json
var files embed.FS

// Validator holds the compiled schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	entries, err := files.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read embedded schemas: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		data, err := files.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", entry.Name(), err)
		}
		if err := compiler.AddResource(entry.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", entry.Name(), err)
		}
		names = append(names, entry.Name())
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		compiled, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = compiled
	}
	return v, nil
}

// MustNew is like [New] but panics on error. The schemas are embedded, so a
// failure is a build defect.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks doc against the named schema. doc may be any value that
// encodes to JSON; it is normalized through encoding/json first.
func (v *Validator) Validate(name string, doc any) error {
	compiled, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	instance, err := normalize(doc)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}
	if err := compiled.Validate(instance); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %s: %s", ErrInvalid, name, describe(verr))
		}
		return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}
	return nil
}

func normalize(doc any) (any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// describe flattens the leaf causes of a validation error into one line.
func describe(verr *jsonschema.ValidationError) string {
	leaves := leafErrors(verr)
	if len(leaves) == 0 {
		return verr.Message
	}
	var buf bytes.Buffer
	for i, leaf := range leaves {
		if i > 0 {
			buf.WriteString("; ")
		}
		loc := leaf.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		fmt.Fprintf(&buf, "%s: %s", loc, leaf.Message)
	}
	return buf.String()
}

func leafErrors(verr *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(verr.Causes) == 0 {
		return []*jsonschema.ValidationError{verr}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range verr.Causes {
		out = append(out, leafErrors(cause)...)
	}
	return out
}

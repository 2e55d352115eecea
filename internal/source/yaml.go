package source

import (
	"context"
	"fmt"
	"os"

	"github.com/ginjaninja78/tabmerge/internal/table"
	"gopkg.in/yaml.v3"
)

// YAML reads documents with the same shape as the JSON source:
//
//	fields:
//	  - {D1: a, M1: 1}
//	  - {D1: b, M1: 2}
//
// Decoding goes through yaml.Node so mapping key order is kept.
type YAML struct {
	name string
	path string
}

// NewYAML creates a YAML source.
func NewYAML(name, path string) *YAML {
	return &YAML{name: name, path: path}
}

// Name returns the source name.
func (s *YAML) Name() string { return s.name }

// Path returns the file path.
func (s *YAML) Path() string { return s.path }

// Open reads the whole file.
func (s *YAML) Open(_ context.Context) (*table.ColumnTable, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return parseYAML(data)
}

func parseYAML(data []byte) (*table.ColumnTable, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("YAML document is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}

	var records *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "fields" {
			records = root.Content[i+1]
		}
	}
	if records == nil {
		return nil, fmt.Errorf(`document has no "fields" list`)
	}
	if records.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf(`line %d: "fields" must be a list`, records.Line)
	}

	t := table.New()
	for _, record := range records.Content {
		if record.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: record must be a mapping", record.Line)
		}
		for i := 0; i+1 < len(record.Content); i += 2 {
			key, value := record.Content[i], record.Content[i+1]
			if value.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d, field %s: nested values are not supported", value.Line, key.Value)
			}
			if value.Tag == "!!null" {
				t.Append(key.Value, "")
				continue
			}
			t.Append(key.Value, value.Value)
		}
	}
	return t, nil
}

package schema

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/elphick/df-eval/ecode"
	"gopkg.in/yaml.v3"
)

// LoadYAML reads a schema document, keeping the declaration order of its
// columns. Columns sit under a top level "columns" key or at the root:
//
//	columns:
//	  net: price * qty
//	  total:
//	    expression: net * (1 + rate)
//	    dtype: float
//	    metadata:
//	      unit: usd
func LoadYAML(r io.Reader) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return ParseYAML(data)
}

// LoadFile reads a YAML schema file
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	s, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}
	return s, nil
}

// ParseYAML parses a schema document
func ParseYAML(data []byte) (*Schema, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		if err == io.EOF {
			return New()
		}
		return nil, &ecode.ConfigurationError{Field: "schema", Message: err.Error()}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return New()
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, invalidNode("schema", doc, "a mapping")
	}
	columns := doc
	if node := findMappingKey(doc, "columns"); node != nil {
		columns = node
	}
	if columns.Kind != yaml.MappingNode {
		return nil, invalidNode("columns", columns, "a mapping")
	}

	s := &Schema{specs: make(map[string]ColumnSpec, len(columns.Content)/2)}
	for i := 0; i < len(columns.Content); i += 2 {
		name := columns.Content[i].Value
		spec, err := decodeSpec(name, columns.Content[i+1])
		if err != nil {
			return nil, err
		}
		if err := s.Add(spec); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// decodeSpec accepts either a bare expression string or a full mapping
func decodeSpec(name string, node *yaml.Node) (ColumnSpec, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return ColumnSpec{Name: name, Expression: node.Value}, nil
	case yaml.MappingNode:
		var spec ColumnSpec
		if err := node.Decode(&spec); err != nil {
			return ColumnSpec{}, &ecode.ConfigurationError{Field: name, Message: err.Error()}
		}
		spec.Name = name
		return spec, nil
	}
	return ColumnSpec{}, invalidNode(name, node, "an expression or a mapping")
}

func invalidNode(field string, node *yaml.Node, want string) error {
	return &ecode.ConfigurationError{
		Field:   field,
		Message: fmt.Sprintf("line %d: expected %s", node.Line, want),
	}
}

// findMappingKey finds the value node for a given key in a mapping node
func findMappingKey(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

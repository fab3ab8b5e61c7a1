package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/trasco/internal/ir"
)

// yamlDocument mirrors the document shape. Custom node types keep parameter
// declaration order and accept both statement forms.
type yamlDocument struct {
	Parameters yamlParameters `yaml:"parameters"`
	Revisions  []yamlRevision `yaml:"revisions"`
}

type yamlRevision struct {
	Version    *ir.Version     `yaml:"version"`
	Statements []yamlStatement `yaml:"statements"`
}

type yamlReference struct {
	Order *int   `yaml:"order"`
	Name  string `yaml:"name"`
}

type yamlParameters []ParameterDoc

type yamlStatement StatementDoc

// ParseYAML parses a YAML revision document into a revision set.
// Unknown fields are rejected.
func ParseYAML(src []byte, filename string) (*ir.SchemaRevisionSet, error) {
	doc, err := ParseYAMLDocument(src, filename)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// ParseYAMLDocument parses a YAML revision document into a Document.
func ParseYAMLDocument(src []byte, filename string) (*Document, error) {
	var raw yamlDocument
	decoder := yaml.NewDecoder(bytes.NewReader(src))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &CompileError{Field: "revisions", Message: "revisions is required", Filename: filename}
		}
		return nil, yamlError(filename, err)
	}
	if raw.Revisions == nil {
		return nil, &CompileError{Field: "revisions", Message: "revisions is required", Filename: filename}
	}

	doc := &Document{Parameters: raw.Parameters}
	for i, rev := range raw.Revisions {
		if rev.Version == nil {
			return nil, &CompileError{
				Field:    fmt.Sprintf("revisions[%d].version", i),
				Message:  "version is required",
				Filename: filename,
			}
		}
		statements := make([]StatementDoc, len(rev.Statements))
		for j, st := range rev.Statements {
			statements[j] = StatementDoc(st)
		}
		doc.Revisions = append(doc.Revisions, RevisionDoc{Version: *rev.Version, Statements: statements})
	}
	return doc, nil
}

// yamlError wraps a decoder error, keeping positioned CompileErrors intact.
func yamlError(filename string, err error) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		ce.Filename = filename
		return ce
	}
	return &CompileError{Field: "yaml", Message: err.Error(), Filename: filename}
}

// UnmarshalYAML reads parameters from a mapping, preserving key order.
func (p *yamlParameters) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return nodeError(node, "parameters", "must be a mapping of name to declaration")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, value := node.Content[i].Value, node.Content[i+1]
		if err := checkKeys(value, "parameters."+name, "kind"); err != nil {
			return err
		}
		var decl struct {
			Kind string `yaml:"kind"`
		}
		if err := value.Decode(&decl); err != nil {
			return nodeError(value, "parameters."+name, err.Error())
		}
		*p = append(*p, ParameterDoc{Name: name, Kind: decl.Kind})
	}
	return nil
}

// UnmarshalYAML accepts a plain SQL string or a parameterized mapping.
func (s *yamlStatement) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = yamlStatement{SQL: node.Value}
		return nil
	case yaml.MappingNode:
		if err := checkKeys(node, "statement", "sql", "interpolation", "references"); err != nil {
			return err
		}
		var decl struct {
			SQL           *string         `yaml:"sql"`
			Interpolation string          `yaml:"interpolation"`
			References    []yamlReference `yaml:"references"`
		}
		if err := node.Decode(&decl); err != nil {
			return nodeError(node, "statement", err.Error())
		}
		if decl.SQL == nil {
			return nodeError(node, "statement.sql", "sql is required")
		}
		st := yamlStatement{
			SQL:           *decl.SQL,
			Parameterized: true,
			Interpolation: decl.Interpolation,
		}
		for _, ref := range decl.References {
			if ref.Order == nil {
				return nodeError(node, "statement.references", fmt.Sprintf("reference %q has no order", ref.Name))
			}
			st.References = append(st.References, ReferenceDoc{Order: *ref.Order, Name: ref.Name})
		}
		*s = st
		return nil
	default:
		return nodeError(node, "statement", "must be a string or a mapping with sql")
	}
}

// checkKeys rejects mapping keys outside allowed. Custom unmarshalers decode
// with a fresh decoder, so the outer KnownFields setting does not reach them.
func checkKeys(node *yaml.Node, field string, allowed ...string) error {
	if node.Kind != yaml.MappingNode {
		return nodeError(node, field, "must be a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		known := false
		for _, a := range allowed {
			if key.Value == a {
				known = true
				break
			}
		}
		if !known {
			return nodeError(key, field, fmt.Sprintf("field %s not found", key.Value))
		}
	}
	return nil
}

func nodeError(node *yaml.Node, field, message string) *CompileError {
	return &CompileError{Field: field, Message: message, Line: node.Line, Column: node.Column}
}

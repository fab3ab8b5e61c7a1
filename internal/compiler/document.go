package compiler

import (
	"fmt"

	"github.com/roach88/trasco/internal/ir"
)

// Document is the format-neutral form of a revision document.
type Document struct {
	Parameters []ParameterDoc
	Revisions  []RevisionDoc
}

// ParameterDoc declares one parameter. Declaration order is significant.
type ParameterDoc struct {
	Name string
	Kind string
}

// RevisionDoc is one revision and its statements in execution order.
type RevisionDoc struct {
	Version    ir.Version
	Statements []StatementDoc
}

// StatementDoc is either plain SQL or, when Parameterized is set, a
// template with references and an interpolation mode.
type StatementDoc struct {
	SQL           string
	Parameterized bool
	Interpolation string
	References    []ReferenceDoc
}

// ReferenceDoc binds a positional slot to a parameter name.
type ReferenceDoc struct {
	Order int
	Name  string
}

// Build validates the document and converts it into a revision set.
func (d *Document) Build() (*ir.SchemaRevisionSet, error) {
	declared := make([]ir.Parameter, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		kind, err := ir.ParseParameterKind(p.Kind)
		if err != nil {
			return nil, &CompileError{Field: "parameters." + p.Name, Message: err.Error(), Err: err}
		}
		declared = append(declared, ir.Parameter{Name: p.Name, Kind: kind})
	}
	params, err := ir.NewParameters(declared...)
	if err != nil {
		return nil, &CompileError{Field: "parameters", Message: err.Error(), Err: err}
	}

	revisions := make([]ir.SchemaRevision, 0, len(d.Revisions))
	for _, rev := range d.Revisions {
		statements := make([]ir.Statement, 0, len(rev.Statements))
		for i, st := range rev.Statements {
			statement, err := st.build()
			if err != nil {
				return nil, &CompileError{
					Field:   fmt.Sprintf("revisions[%s].statements[%d]", rev.Version, i),
					Message: err.Error(),
					Err:     err,
				}
			}
			statements = append(statements, statement)
		}
		revisions = append(revisions, ir.SchemaRevision{Version: rev.Version, Statements: statements})
	}

	set, err := ir.NewSchemaRevisionSet(params, revisions...)
	if err != nil {
		return nil, fmt.Errorf("revisions: %w", err)
	}
	return set, nil
}

func (s StatementDoc) build() (ir.Statement, error) {
	if !s.Parameterized {
		return ir.PlainStatement{SQL: s.SQL}, nil
	}

	interpolation, err := ir.ParseInterpolation(s.Interpolation)
	if err != nil {
		return nil, err
	}

	refs := make([]ir.ParameterReference, len(s.References))
	for i, r := range s.References {
		refs[i] = ir.ParameterReference{Order: r.Order, Name: r.Name}
	}
	references, err := ir.NewParameterReferences(refs...)
	if err != nil {
		return nil, err
	}

	return ir.ParameterizedStatement{
		SQL:           s.SQL,
		References:    references,
		Interpolation: interpolation,
	}, nil
}

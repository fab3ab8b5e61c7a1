package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/trasco/internal/ir"
)

// documentSchema constrains the shape of a CUE revision document.
const documentSchema = `
#Parameter: {
	kind: "STRING" | "NUMERIC"
}

#Reference: {
	order: int & >=0
	name:  string
}

#Statement: string | {
	sql:            string
	interpolation?: "PREPARED_STATEMENT" | "STRING_FORMATTING"
	references?: [...#Reference]
}

#Revision: {
	version: int
	statements: [...#Statement]
}

parameters?: [string]: #Parameter
revisions: [...#Revision]
`

// CompileCUE parses CUE source into a revision set. filename is used in
// error positions.
func CompileCUE(src []byte, filename string) (*ir.SchemaRevisionSet, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(documentSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	doc, err := CompileDocument(schema.Unify(v))
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// CompileDocument extracts a Document from a CUE value.
func CompileDocument(v cue.Value) (*Document, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	doc := &Document{}

	var err error
	doc.Parameters, err = parseParameters(v)
	if err != nil {
		return nil, err
	}

	revisionsVal := v.LookupPath(cue.ParsePath("revisions"))
	if !revisionsVal.Exists() {
		return nil, atPos("revisions", "revisions is required", v.Pos())
	}
	iter, err := revisionsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		rev, err := parseRevision(iter.Value())
		if err != nil {
			return nil, err
		}
		doc.Revisions = append(doc.Revisions, rev)
	}

	return doc, nil
}

// parseParameters extracts parameter declarations in source order.
func parseParameters(v cue.Value) ([]ParameterDoc, error) {
	var params []ParameterDoc

	paramsVal := v.LookupPath(cue.ParsePath("parameters"))
	if !paramsVal.Exists() {
		return params, nil // parameters are optional
	}

	iter, err := paramsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		kind, err := iter.Value().LookupPath(cue.ParsePath("kind")).String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		params = append(params, ParameterDoc{Name: iter.Label(), Kind: kind})
	}
	return params, nil
}

func parseRevision(v cue.Value) (RevisionDoc, error) {
	var rev RevisionDoc

	n, err := v.LookupPath(cue.ParsePath("version")).Int(nil)
	if err != nil {
		return rev, formatCUEError(err)
	}
	rev.Version = ir.VersionFromBig(n)

	statementsVal := v.LookupPath(cue.ParsePath("statements"))
	iter, err := statementsVal.List()
	if err != nil {
		return rev, formatCUEError(err)
	}
	for iter.Next() {
		st, err := parseStatement(iter.Value())
		if err != nil {
			return rev, err
		}
		rev.Statements = append(rev.Statements, st)
	}
	return rev, nil
}

// parseStatement parses a statement.
// Supports a plain string or a struct with sql, interpolation and references.
func parseStatement(v cue.Value) (StatementDoc, error) {
	// Try as string first
	if text, err := v.String(); err == nil {
		return StatementDoc{SQL: text}, nil
	}

	st := StatementDoc{Parameterized: true}

	text, err := v.LookupPath(cue.ParsePath("sql")).String()
	if err != nil {
		return st, atPos("sql", "statement must be a string or a struct with sql", v.Pos())
	}
	st.SQL = text

	// Interpolation is optional
	interpVal := v.LookupPath(cue.ParsePath("interpolation"))
	if interpVal.Exists() && interpVal.IsConcrete() {
		st.Interpolation, err = interpVal.String()
		if err != nil {
			return st, formatCUEError(err)
		}
	}

	refsVal := v.LookupPath(cue.ParsePath("references"))
	if !refsVal.Exists() {
		return st, nil
	}
	iter, err := refsVal.List()
	if err != nil {
		return st, formatCUEError(err)
	}
	for iter.Next() {
		ref := iter.Value()
		order, err := ref.LookupPath(cue.ParsePath("order")).Int64()
		if err != nil {
			return st, formatCUEError(err)
		}
		name, err := ref.LookupPath(cue.ParsePath("name")).String()
		if err != nil {
			return st, formatCUEError(err)
		}
		st.References = append(st.References, ReferenceDoc{Order: int(order), Name: name})
	}
	return st, nil
}

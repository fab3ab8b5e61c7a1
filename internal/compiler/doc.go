// Package compiler turns revision documents into validated revision sets.
//
// Two source formats describe the same document shape:
//
//	parameters: {
//		owner: kind: "STRING"
//	}
//	revisions: [
//		{version: 0, statements: ["create table t (id integer)"]},
//		{version: 1, statements: [{
//			sql:           "insert into t (owner) values (?)"
//			interpolation: "PREPARED_STATEMENT"
//			references: [{order: 0, name: "owner"}]
//		}]},
//	]
//
// CUE documents are checked against an embedded schema and report errors
// with CUE source positions. YAML documents use the same field names and
// reject unknown fields. Both produce a Document, which Build converts into
// an *ir.SchemaRevisionSet.
package compiler

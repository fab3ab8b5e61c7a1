// Package ir provides the in-memory representation of schema revisions.
//
// This package contains the data model shared by every other internal
// package: versions, declared parameters, caller-supplied arguments,
// statements and the validated revision set. ir imports nothing internal,
// which keeps it the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Versions are arbitrary-precision integers (math/big), never machine ints
//   - Statements and arguments are sealed interfaces with a closed set of variants
//   - A SchemaRevisionSet is validated once at construction and immutable afterwards
//   - Failures that callers must inspect are *Error values carrying an ErrorCode
package ir

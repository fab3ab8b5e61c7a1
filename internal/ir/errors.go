package ir

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode categorizes execution failures.
type ErrorCode string

const (
	// ErrCodeArgumentMissing indicates a declared parameter has no argument.
	ErrCodeArgumentMissing ErrorCode = "ARGUMENT_MISSING"

	// ErrCodeArgumentTypeError indicates an argument kind differs from its parameter kind.
	ErrCodeArgumentTypeError ErrorCode = "ARGUMENT_TYPE_ERROR"

	// ErrCodeArgumentErrors aggregates one or more argument errors.
	ErrCodeArgumentErrors ErrorCode = "ARGUMENT_ERRORS"

	// ErrCodeUpgradeDisallowed indicates the database needs an upgrade but
	// the configuration forbids performing one.
	ErrCodeUpgradeDisallowed ErrorCode = "UPGRADE_DISALLOWED"

	// ErrCodeUnrecognizedSchemaRevision indicates the database is newer than
	// any known revision.
	ErrCodeUnrecognizedSchemaRevision ErrorCode = "UNRECOGNIZED_SCHEMA_REVISION"

	// ErrCodeSQLException wraps a failure reported by the database driver.
	ErrCodeSQLException ErrorCode = "SQL_EXCEPTION"
)

// Error is a structured failure.
//
// Attributes describe the offending state (e.g. current vs. highest known
// version). Errors holds sub-errors for aggregate failures such as
// ARGUMENT_ERRORS. Err is the underlying cause, if any.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Attributes contains additional context.
	Attributes map[string]string

	// Errors contains sub-errors, in the order they were detected.
	Errors []*Error

	// Err is the underlying cause.
	Err error
}

// NewError creates an Error with no attributes.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates an Error whose message is taken from cause.
func WrapError(code ErrorCode, cause error) *Error {
	return &Error{Code: code, Message: cause.Error(), Err: cause}
}

// WithAttribute sets an attribute and returns the receiver.
func (e *Error) WithAttribute(key, value string) *Error {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// AttributeKeys returns the attribute keys in sorted order.
func (e *Error) AttributeKeys() []string {
	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if len(e.Attributes) > 0 {
		pairs := make([]string, 0, len(e.Attributes))
		for _, k := range e.AttributeKeys() {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, e.Attributes[k]))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(pairs, ", "))
	}
	if len(e.Errors) > 0 {
		subs := make([]string, len(e.Errors))
		for i, sub := range e.Errors {
			subs[i] = sub.Error()
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(subs, "; "))
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the ErrorCode of the first *Error in err's chain.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// IsCode returns true if err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

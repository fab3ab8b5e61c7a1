package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError describes a problem in a revision document.
type CompileError struct {
	Field    string
	Message  string
	Filename string
	Line     int
	Column   int
	Err      error
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Filename, e.Line, e.Column, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// atPos builds a CompileError located at a CUE position.
func atPos(field, message string, pos token.Pos) *CompileError {
	e := &CompileError{Field: field, Message: message}
	if pos.IsValid() {
		e.Filename = pos.Filename()
		e.Line = pos.Line()
		e.Column = pos.Column()
	}
	return e
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return atPos("cue", firstErr.Error(), positions[0])
	}

	return err
}

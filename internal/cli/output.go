package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/trasco/internal/compiler"
	"github.com/roach88/trasco/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Execution failure (upgrade refused, SQL error, invalid arguments)
	ExitCommandError = 2 // Command error (bad flags, unreadable files, database unreachable)
)

// Error code constants for failures that do not come from the executor.
// Executor failures are reported with their own codes (UPGRADE_DISALLOWED etc.).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Configuration file or flag error
	ErrCodeArguments   = "E003" // Malformed --arg value
	ErrCodeLoadFailed  = "E004" // Revision document failed to load
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeDatabase    = "E006" // Database open or version store error
	ErrCodeWriteFailed = "E007" // File write error
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
	RunID  string    `json:"run_id,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "UPGRADE_DISALLOWED", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// ErrorDetails is the detail payload for executor failures.
type ErrorDetails struct {
	Attributes map[string]string `json:"attributes,omitempty"`
	Errors     []CLIError        `json:"errors,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// ExecutionError outputs an executor failure with its attributes and
// sub-errors. In text mode attributes are always shown.
func (f *OutputFormatter) ExecutionError(e *ir.Error) error {
	details := errorDetails(e)
	if f.Format == "json" {
		return f.Error(string(e.Code), e.Message, details)
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", e.Code, e.Message)
	writeAttributes(f.Writer, "  ", e)
	for _, sub := range e.Errors {
		fmt.Fprintf(f.Writer, "  - [%s] %s\n", sub.Code, sub.Message)
		writeAttributes(f.Writer, "      ", sub)
	}
	return nil
}

func writeAttributes(w io.Writer, indent string, e *ir.Error) {
	for _, k := range e.AttributeKeys() {
		fmt.Fprintf(w, "%s%s: %s\n", indent, k, e.Attributes[k])
	}
}

func errorDetails(e *ir.Error) *ErrorDetails {
	if len(e.Attributes) == 0 && len(e.Errors) == 0 {
		return nil
	}
	d := &ErrorDetails{Attributes: e.Attributes}
	for _, sub := range e.Errors {
		d.Errors = append(d.Errors, CLIError{
			Code:    string(sub.Code),
			Message: sub.Message,
			Details: sub.Attributes,
		})
	}
	return d
}

// LoadError outputs a revision document failure, with its location when known.
func (f *OutputFormatter) LoadError(err error) error {
	var ce *compiler.CompileError
	if errors.As(err, &ce) && ce.Line > 0 {
		return f.Error(ErrCodeLoadFailed, err.Error(), map[string]any{
			"file":   ce.Filename,
			"line":   ce.Line,
			"column": ce.Column,
			"field":  ce.Field,
		})
	}
	return f.Error(ErrCodeLoadFailed, err.Error(), nil)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

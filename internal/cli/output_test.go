package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/trasco/internal/compiler"
	"github.com/roach88/trasco/internal/ir"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(VersionResult{Known: true, Version: "3"})
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   VersionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, VersionResult{Known: true, Version: "3"}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeDatabase, "database is locked", nil)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E006", resp.Error.Code)
	assert.Equal(t, "database is locked", resp.Error.Message)
	assert.Nil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success("database schema is at version 3"))
	assert.Equal(t, "database schema is at version 3\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	details := map[string]string{"file": "revisions.cue"}
	require.NoError(t, formatter.Error(ErrCodeLoadFailed, "version gap", details))
	assert.Equal(t, "Error [E004]: version gap\n", buf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"file": "revisions.cue"}
	require.NoError(t, formatter.Error(ErrCodeLoadFailed, "version gap", details))
	assert.Contains(t, buf.String(), "Error [E004]")
	assert.Contains(t, buf.String(), "Details:")
}

func upgradeDisallowed() *ir.Error {
	return ir.NewError(ir.ErrCodeUpgradeDisallowed, "schema is outdated").
		WithAttribute("Schema Version", "1").
		WithAttribute("Highest Known Version", "3")
}

func TestOutputFormatter_ExecutionErrorText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.ExecutionError(upgradeDisallowed()))
	assert.Equal(t,
		"Error [UPGRADE_DISALLOWED]: schema is outdated\n"+
			"  Highest Known Version: 3\n"+
			"  Schema Version: 1\n",
		buf.String())
}

func TestOutputFormatter_ExecutionErrorSubErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	agg := ir.NewError(ir.ErrCodeArgumentErrors, "argument errors")
	agg.Errors = []*ir.Error{
		ir.NewError(ir.ErrCodeArgumentMissing, "missing argument").WithAttribute("Parameter", "owner"),
	}

	require.NoError(t, formatter.ExecutionError(agg))
	out := buf.String()
	assert.Contains(t, out, "Error [ARGUMENT_ERRORS]: argument errors\n")
	assert.Contains(t, out, "  - [ARGUMENT_MISSING] missing argument\n")
	assert.Contains(t, out, "      Parameter: owner\n")
}

func TestOutputFormatter_ExecutionErrorJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.ExecutionError(upgradeDisallowed()))

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string       `json:"code"`
			Details ErrorDetails `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "UPGRADE_DISALLOWED", resp.Error.Code)
	assert.Equal(t, map[string]string{
		"Schema Version":        "1",
		"Highest Known Version": "3",
	}, resp.Error.Details.Attributes)
}

func TestOutputFormatter_LoadErrorWithPosition(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := &compiler.CompileError{
		Field:    "statement",
		Message:  "must be a string or a mapping with sql",
		Filename: "revisions.yaml",
		Line:     7,
		Column:   9,
	}
	require.NoError(t, formatter.LoadError(err))

	var resp struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, ErrCodeLoadFailed, resp.Error.Code)
	assert.Equal(t, "revisions.yaml", resp.Error.Details["file"])
	assert.Equal(t, float64(7), resp.Error.Details["line"])
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: errOut,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Loaded %d revision(s)", 4)

			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Equal(t, "Loaded 4 revision(s)\n", errOut.String())
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
		{"exit error", NewExitError(ExitCommandError, "bad flag"), ExitCommandError},
		{"wrapped", WrapExitError(ExitFailure, "upgrade failed", errors.New("locked")), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	cause := errors.New("locked")
	err := WrapExitError(ExitFailure, "upgrade failed", cause)

	assert.Equal(t, "upgrade failed: locked", err.Error())
	assert.ErrorIs(t, err, cause)
}

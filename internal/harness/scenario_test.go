package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes a revision document and a scenario next to it.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	revisions := "revisions:\n  - version: 0\n    statements:\n      - create table t (id integer)\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "revisions.yaml"), []byte(revisions), 0o644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
revisions: revisions.yaml
version_store: table
setup:
  - create table legacy (id integer)
steps:
  - upgrade: FAIL_INSTEAD_OF_UPGRADING
    arguments:
      owner: app
      quota: 7
    expect:
      error: UPGRADE_DISALLOWED
      version: none
assertions:
  - type: trace_contains
    event: "upgrading -1 -> 0"
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "revisions.yaml"), scenario.Revisions)
	assert.Equal(t, "table", scenario.VersionStore)
	assert.Equal(t, []string{"create table legacy (id integer)"}, scenario.Setup)
	require.Len(t, scenario.Steps, 1)
	assert.Equal(t, "FAIL_INSTEAD_OF_UPGRADING", scenario.Steps[0].Upgrade)
	assert.Equal(t, "app", scenario.Steps[0].Arguments["owner"])
	assert.Equal(t, 7, scenario.Steps[0].Arguments["quota"])
	assert.Equal(t, &ExpectClause{Error: "UPGRADE_DISALLOWED", Version: "none"}, scenario.Steps[0].Expect)
	assert.Len(t, scenario.Assertions, 1)
}

func TestLoadScenarioWithBasePath(t *testing.T) {
	path := writeScenario(t, `
name: based
description: "Relative to an explicit base"
revisions: revisions.yaml
steps:
  - {}
`)

	_, err := LoadScenarioWithBasePath(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revision document not found")

	scenario, err := LoadScenarioWithBasePath(path, filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, scenario.Steps, 1)
	assert.Nil(t, scenario.Steps[0].Expect)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "Misspelled steps"
revisions: revisions.yaml
step:
  - {}
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing name",
			content: "description: d\nrevisions: revisions.yaml\nsteps: [{}]\n",
			want:    "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nrevisions: revisions.yaml\nsteps: [{}]\n",
			want:    "description is required",
		},
		{
			name:    "missing revisions",
			content: "name: n\ndescription: d\nsteps: [{}]\n",
			want:    "revisions is required",
		},
		{
			name:    "revisions not found",
			content: "name: n\ndescription: d\nrevisions: other.yaml\nsteps: [{}]\n",
			want:    "revision document not found",
		},
		{
			name:    "postgres driver",
			content: "name: n\ndescription: d\nrevisions: revisions.yaml\ndriver: pgx\nsteps: [{}]\n",
			want:    "not supported",
		},
		{
			name:    "unknown driver",
			content: "name: n\ndescription: d\nrevisions: revisions.yaml\ndriver: mysql\nsteps: [{}]\n",
			want:    "unknown driver",
		},
		{
			name:    "unknown version store",
			content: "name: n\ndescription: d\nrevisions: revisions.yaml\nversion_store: file\nsteps: [{}]\n",
			want:    "unknown version_store",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\nrevisions: revisions.yaml\n",
			want:    "steps list is required",
		},
		{
			name:    "bad policy",
			content: "name: n\ndescription: d\nrevisions: revisions.yaml\nsteps: [{upgrade: MAYBE}]\n",
			want:    "steps[0]: unknown upgrade policy",
		},
		{
			name:    "bad argument",
			content: "name: n\ndescription: d\nrevisions: revisions.yaml\nsteps: [{arguments: {flag: true}}]\n",
			want:    "steps[0].arguments",
		},
		{
			name:    "assertion without type",
			content: "name: n\ndescription: d\nrevisions: revisions.yaml\nsteps: [{}]\nassertions: [{event: x}]\n",
			want:    "assertions[0]: type is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateAssertion(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"contains ok", Assertion{Type: AssertTraceContains, Event: "upgrading 0 -> 1"}, ""},
		{"contains without event", Assertion{Type: AssertTraceContains}, "event is required"},
		{"order ok", Assertion{Type: AssertTraceOrder, Events: []string{"a", "b"}}, ""},
		{"order without events", Assertion{Type: AssertTraceOrder}, "events list is required"},
		{"count ok", Assertion{Type: AssertTraceCount, Kind: KindExecuting, Count: 0}, ""},
		{"count bad kind", Assertion{Type: AssertTraceCount, Kind: "committing"}, "kind must be"},
		{"count negative", Assertion{Type: AssertTraceCount, Kind: KindUpgrading, Count: -1}, "non-negative"},
		{"state ok", Assertion{Type: AssertFinalState, Table: "t", Expect: map[string]interface{}{"id": 1}}, ""},
		{"state without table", Assertion{Type: AssertFinalState, Expect: map[string]interface{}{"id": 1}}, "table is required"},
		{"state without expect", Assertion{Type: AssertFinalState, Table: "t"}, "expect is required"},
		{"unknown type", Assertion{Type: "trace_absent"}, "unknown assertion type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAssertion(2, &tt.assertion)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "assertions[2]")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

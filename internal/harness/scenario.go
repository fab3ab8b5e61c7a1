package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/trasco/internal/engine"
	"github.com/roach88/trasco/internal/store"
)

// Scenario defines a revision scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Revisions is the path to the revision document (.cue, .yaml, .yml).
	Revisions string `yaml:"revisions"`

	// Driver is the SQLite driver, sqlite3 or sqlite. Defaults to sqlite3.
	Driver string `yaml:"driver,omitempty"`

	// VersionStore is user_version or table. Defaults to user_version.
	VersionStore string `yaml:"version_store,omitempty"`

	// RunIDPrefix prefixes the per-step run ids.
	RunIDPrefix string `yaml:"run_id_prefix,omitempty"`

	// Setup holds SQL run before the first step, outside any transaction.
	Setup []string `yaml:"setup,omitempty"`

	// Steps are Execute calls, run in order against the same database.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one Execute call.
type Step struct {
	// Upgrade is the upgrade policy. Defaults to PERFORM_UPGRADES.
	Upgrade string `yaml:"upgrade,omitempty"`

	// Arguments are the statement arguments, typed by their YAML type.
	Arguments map[string]interface{} `yaml:"arguments,omitempty"`

	// Expect is the expected outcome. If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected failure code (e.g. "UPGRADE_DISALLOWED").
	// Empty means the step succeeds.
	Error string `yaml:"error,omitempty"`

	// Version is the expected stored version afterwards, or "none".
	// Empty skips the check.
	Version string `yaml:"version,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, final_state.
	Type string `yaml:"type"`

	// Event is the exact event text (trace_contains).
	Event string `yaml:"event,omitempty"`

	// Events is the expected event order (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Kind is the event kind to count, upgrading or executing (trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Table is the table to query (final_state).
	Table string `yaml:"table,omitempty"`

	// Where filters rows; all fields must match exactly (final_state).
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect holds expected column values, subset match (final_state).
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file. Relative paths in the
// scenario are resolved against the scenario file's directory.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "step:" vs "steps:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Revisions != "" && !filepath.IsAbs(scenario.Revisions) && basePath != "" {
		scenario.Revisions = filepath.Join(basePath, scenario.Revisions)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Revisions == "" {
		return fmt.Errorf("revisions is required")
	}
	if _, err := os.Stat(s.Revisions); os.IsNotExist(err) {
		return fmt.Errorf("revision document not found: %s", s.Revisions)
	}

	if s.Driver != "" {
		driver, err := store.ParseDriver(s.Driver)
		if err != nil {
			return err
		}
		if !driver.IsSQLite() {
			return fmt.Errorf("driver %s is not supported: scenarios run on in-memory SQLite", driver)
		}
	}

	switch s.VersionStore {
	case "", store.VersionStoreUserVersion, store.VersionStoreTable:
	default:
		return fmt.Errorf("unknown version_store %q", s.VersionStore)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Upgrade != "" {
			if _, err := engine.ParseUpgradePolicy(step.Upgrade); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
		if _, err := convertArguments(step.Arguments); err != nil {
			return fmt.Errorf("steps[%d].arguments: %w", i, err)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Kind != KindUpgrading && a.Kind != KindExecuting {
			return fmt.Errorf("assertions[%d]: kind must be %s or %s for trace_count", index, KindUpgrading, KindExecuting)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

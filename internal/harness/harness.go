package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"

	"github.com/roach88/trasco/internal/compiler"
	"github.com/roach88/trasco/internal/engine"
	"github.com/roach88/trasco/internal/ir"
	"github.com/roach88/trasco/internal/store"
	"github.com/roach88/trasco/internal/testutil"
)

// Harness holds the per-run state of a scenario.
type Harness struct {
	store      *store.Store
	revisions  *ir.SchemaRevisionSet
	versionGet engine.VersionGetFunc
	versionSet engine.VersionSetFunc
	seq        *testutil.Sequence
	runIDs     *testutil.SequentialRunIDs
	logger     *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. An error is returned
// only when the scenario cannot be run at all; failed expectations and
// assertions are reported in Result.Errors.
//
// Execution flow:
// 1. Load the revision document and open the database
// 2. Run the setup SQL
// 3. Run each step through the executor, recording events and outcome
// 4. Evaluate assertions against the trace and the database
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	revisions, err := compiler.LoadFile(scenario.Revisions)
	if err != nil {
		return nil, fmt.Errorf("failed to load revisions: %w", err)
	}

	driver := store.DriverSQLite3
	if scenario.Driver != "" {
		driver = store.Driver(scenario.Driver)
	}
	st, err := store.Open(ctx, driver, ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	get, set, err := st.VersionFuncs(scenario.VersionStore, "")
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store:      st,
		revisions:  revisions,
		versionGet: get,
		versionSet: set,
		seq:        testutil.NewSequence(),
		runIDs:     testutil.NewSequentialRunIDs(scenario.RunIDPrefix),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	for i, stmt := range scenario.Setup {
		if _, err := st.DB().ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep runs one Execute call and checks its expect clause.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	args, err := convertArguments(step.Arguments)
	if err != nil {
		return err
	}

	policy := engine.PerformUpgrades
	if step.Upgrade != "" {
		policy = engine.UpgradePolicy(step.Upgrade)
	}

	runID := h.runIDs.Generate()
	sink := func(e engine.Event) {
		kind := KindExecuting
		if _, ok := e.(engine.Upgrading); ok {
			kind = KindUpgrading
		}
		result.AddTrace(h.seq.Next(), index, kind, e.String())
	}

	executor := engine.New(engine.Configuration{
		VersionGet: h.versionGet,
		VersionSet: h.versionSet,
		Events:     sink,
		Revisions:  h.revisions,
		Upgrade:    policy,
		Arguments:  args,
		Conn:       h.store.DB(),
	},
		engine.WithLogger(h.logger),
		engine.WithRunIDGenerator(engine.FixedGenerator{ID: runID}),
	)

	outcome := StepResult{RunID: runID, Version: VersionNone}
	if execErr := executor.Execute(ctx); execErr != nil {
		code, ok := ir.CodeOf(execErr)
		if !ok {
			return execErr
		}
		outcome.Error = string(code)
	}

	v, known, err := h.versionGet(ctx, h.store.DB())
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if known {
		outcome.Version = v.String()
	}
	result.Steps = append(result.Steps, outcome)

	h.logger.Info("step completed",
		"step", index,
		"run_id", runID,
		"error", outcome.Error,
		"version", outcome.Version,
	)

	expect := step.Expect
	if expect == nil {
		expect = &ExpectClause{}
	}
	if outcome.Error != expect.Error {
		want := expect.Error
		if want == "" {
			want = "success"
		}
		got := outcome.Error
		if got == "" {
			got = "success"
		}
		result.AddError(fmt.Sprintf("step %d: expected %s, got %s", index, want, got))
	}
	if expect.Version != "" && outcome.Version != expect.Version {
		result.AddError(fmt.Sprintf("step %d: expected version %s, got %s", index, expect.Version, outcome.Version))
	}

	return nil
}

// convertArguments converts YAML-decoded values into executor arguments.
// Names are processed in sorted order so errors are deterministic.
func convertArguments(values map[string]interface{}) (ir.Arguments, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]ir.Argument, 0, len(values))
	for _, name := range names {
		arg, err := convertArgument(name, values[name])
		if err != nil {
			return ir.Arguments{}, fmt.Errorf("argument %q: %w", name, err)
		}
		args = append(args, arg)
	}
	return ir.NewArguments(args...)
}

func convertArgument(name string, val interface{}) (ir.Argument, error) {
	switch v := val.(type) {
	case nil:
		return nil, fmt.Errorf("null values are not arguments")
	case string:
		return ir.NewStringArgument(name, v), nil
	case int:
		n, err := ir.ParseNumeric(strconv.Itoa(v))
		if err != nil {
			return nil, err
		}
		return ir.NewNumericArgument(name, n), nil
	case float64:
		return ir.NewNumericArgument(name, ir.Float64(v)), nil
	case map[string]interface{}:
		text, ok := v["decimal"].(string)
		if !ok || len(v) != 1 {
			return nil, fmt.Errorf("mapping values must be {decimal: \"<text>\"}")
		}
		d, err := ir.NewDecimal(text)
		if err != nil {
			return nil, err
		}
		return ir.NewNumericArgument(name, d), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", val)
	}
}

package harness

import (
	"fmt"
	"io"
)

// Trace event kinds.
const (
	KindUpgrading = "upgrading"
	KindExecuting = "executing"
)

// TraceEvent is one executor event, numbered across the whole scenario.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Step int    `json:"step"` // 1-based step index
	Kind string `json:"kind"` // KindUpgrading or KindExecuting
	Text string `json:"text"`
}

// StepResult is the observed outcome of one Execute call.
type StepResult struct {
	RunID string `json:"run_id"`

	// Error is the failure code, or empty on success.
	Error string `json:"error,omitempty"`

	// Version is the stored schema version after the step, or VersionNone.
	Version string `json:"version"`
}

// VersionNone stands for "no version recorded" in expectations and results.
const VersionNone = "none"

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Steps  []StepResult `json:"steps"`
	Errors []string     `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError records a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(seq int64, step int, kind, text string) {
	r.Trace = append(r.Trace, TraceEvent{Seq: seq, Step: step, Kind: kind, Text: text})
}

// WriteText renders the steps and their events, one line each.
func (r *Result) WriteText(w io.Writer) {
	for i, step := range r.Steps {
		outcome := "ok"
		if step.Error != "" {
			outcome = step.Error
		}
		fmt.Fprintf(w, "step %d (%s): %s, version %s\n", i+1, step.RunID, outcome, step.Version)
		for _, ev := range r.Trace {
			if ev.Step == i+1 {
				fmt.Fprintf(w, "  [%d] %s\n", ev.Seq, ev.Text)
			}
		}
	}
}

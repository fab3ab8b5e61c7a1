package engine

import (
	"fmt"

	"github.com/roach88/trasco/internal/ir"
)

// Event is a sealed interface for observations emitted during execution.
// Only Upgrading and ExecutingSQL implement this.
// Events are purely observational and never influence control flow.
type Event interface {
	String() string
	event() // Sealed
}

// EventSink receives events synchronously. It must not panic.
type EventSink func(Event)

// Upgrading is emitted before the statements of a revision run.
type Upgrading struct {
	From ir.Version
	To   ir.Version
}

func (Upgrading) event() {}

func (e Upgrading) String() string {
	return fmt.Sprintf("upgrading %s -> %s", e.From, e.To)
}

// ExecutingSQL is emitted immediately before a statement is executed.
// Statement is the exact text sent to the database.
type ExecutingSQL struct {
	Statement string
}

func (ExecutingSQL) event() {}

func (e ExecutingSQL) String() string {
	return "executing: " + e.Statement
}

// discardEvents is the sink used when the configuration has none.
func discardEvents(Event) {}

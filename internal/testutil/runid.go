package testutil

import "fmt"

// DefaultRunIDPrefix is used when a scenario names no run id prefix.
const DefaultRunIDPrefix = "test-run"

// SequentialRunIDs generates "<prefix>-1", "<prefix>-2", ... so every Execute
// call in a test gets a distinct but reproducible run id.
//
// Implements engine.RunIDGenerator. Safe for concurrent use.
type SequentialRunIDs struct {
	prefix string
	seq    *Sequence
}

// NewSequentialRunIDs creates a generator. An empty prefix means
// DefaultRunIDPrefix.
func NewSequentialRunIDs(prefix string) *SequentialRunIDs {
	if prefix == "" {
		prefix = DefaultRunIDPrefix
	}
	return &SequentialRunIDs{prefix: prefix, seq: NewSequence()}
}

// Generate returns the next run id.
func (g *SequentialRunIDs) Generate() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.seq.Next())
}

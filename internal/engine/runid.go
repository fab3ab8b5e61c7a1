package engine

import (
	"github.com/google/uuid"
)

// RunIDGenerator generates identifiers that correlate the log lines of one
// Execute call. Implemented by UUIDv7Generator (production) and
// FixedGenerator (tests).
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run identifiers.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator always returns the same run identifier.
type FixedGenerator struct {
	ID string
}

// Generate returns the fixed identifier.
func (g FixedGenerator) Generate() string {
	return g.ID
}

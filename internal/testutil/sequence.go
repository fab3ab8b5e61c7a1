package testutil

import "sync"

// Sequence is a thread-safe monotonic counter for numbering trace events.
//
// A Sequence can be reset so the same scenario run twice yields identical
// numbering.
type Sequence struct {
	mu sync.Mutex
	n  int64
}

// NewSequence creates a sequence starting at 0. The first call to Next returns 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next increments and returns the next number.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

// Current returns the last number handed out, or 0.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Reset rewinds the sequence to 0.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = 0
}

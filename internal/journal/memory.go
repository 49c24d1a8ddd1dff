package journal

import (
	"context"
	"sync"

	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

// MemorySink keeps journal entries in process memory. Intended for tests and
// ephemeral environments.
type MemorySink struct {
	mu     sync.Mutex
	events []odb.Event
}

// NewMemory returns an empty in-memory sink.
func NewMemory() *MemorySink { return &MemorySink{} }

// Append records one event.
func (s *MemorySink) Append(_ context.Context, ev odb.Event) error {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	return nil
}

// Events returns a copy of everything appended so far, in append order.
func (s *MemorySink) Events() []odb.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]odb.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Close is a no-op for the memory sink.
func (s *MemorySink) Close() error { return nil }

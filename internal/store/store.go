// Package store provides the in-memory transactional snapshot store at the
// heart of the observing database: one immutable Tables value per instant,
// mutated only through a single linearizing transition primitive.
package store

import (
	"context"
	"sync"

	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

// Publisher receives event builders at the commit point of a transition. The
// builder is handed the next logical sequence number and must return the
// fully built event. Publication is defined to never fail.
type Publisher interface {
	Publish(build func(odb.EventID) odb.Event) odb.Event
}

// Store owns the authoritative snapshot. All mutation flows through Modify,
// which serializes transitions under one lock: a transition either fully
// commits or leaves the snapshot untouched, and readers observe either the
// pre- or post-state, never a partial one.
type Store struct {
	mu        sync.RWMutex
	tables    Tables
	publisher Publisher
}

// New constructs an empty store. Events staged during a transition are
// handed to pub at commit; a nil publisher discards them.
func New(pub Publisher) *Store {
	return &Store{tables: NewTables(), publisher: pub}
}

// Tx is one in-flight transition: a private clone of the snapshot plus the
// events staged against it. Staged events are published only if the
// transition commits.
type Tx struct {
	tables Tables
	staged []func(odb.EventID) odb.Event
}

// Tables exposes the transition's private snapshot for mutation.
func (tx *Tx) Tables() *Tables { return &tx.tables }

// Stage queues an event builder to run at commit. The logical sequence
// number is assigned then, so event order always matches commit order.
func (tx *Tx) Stage(build func(odb.EventID) odb.Event) {
	tx.staged = append(tx.staged, build)
}

// Modify applies fn atomically against the current snapshot. On error the
// snapshot is unchanged and nothing publishes; on success the new snapshot
// is installed and the staged events publish before any later transition can
// commit, so entity state and its describing events are never observed out
// of order.
func (s *Store) Modify(ctx context.Context, fn func(*Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{tables: s.tables.Clone()}
	if err := fn(tx); err != nil {
		return err
	}

	s.tables = tx.tables
	if s.publisher != nil {
		for _, build := range tx.staged {
			s.publisher.Publish(build)
		}
	}
	return nil
}

// View runs fn against a consistent read-only copy of the snapshot.
func (s *Store) View(fn func(Tables)) {
	fn(s.Snapshot())
}

// Snapshot returns a consistent deep copy of the current state.
func (s *Store) Snapshot() Tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables.Clone()
}

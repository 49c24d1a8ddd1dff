package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/swalker2m/gem-odb-api/internal/store"
	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

// capturePublisher records published events in commit order.
type capturePublisher struct {
	mu     sync.Mutex
	seq    int64
	events []odb.Event
}

func (p *capturePublisher) Publish(build func(odb.EventID) odb.Event) odb.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	ev := build(odb.EventID(p.seq))
	p.events = append(p.events, ev)
	return ev
}

func (p *capturePublisher) all() []odb.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]odb.Event(nil), p.events...)
}

func TestModifyCommitsAtomically(t *testing.T) {
	st := store.New(nil)
	ctx := context.Background()

	err := st.Modify(ctx, func(tx *store.Tx) error {
		tx.Tables().Programs[1] = odb.Program{ID: 1, Existence: odb.Present, Name: "SV-101"}
		tx.Tables().Programs[2] = odb.Program{ID: 2, Existence: odb.Present, Name: "SV-102"}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := st.Snapshot()
	if len(snap.Programs) != 2 {
		t.Fatalf("expected 2 programs, got %d", len(snap.Programs))
	}
}

func TestModifyErrorLeavesSnapshotUntouched(t *testing.T) {
	st := store.New(nil)
	ctx := context.Background()

	if err := st.Modify(ctx, func(tx *store.Tx) error {
		tx.Tables().Programs[1] = odb.Program{ID: 1, Existence: odb.Present, Name: "keep"}
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	boom := fmt.Errorf("boom")
	err := st.Modify(ctx, func(tx *store.Tx) error {
		t := tx.Tables()
		t.Programs[1] = odb.Program{ID: 1, Existence: odb.Present, Name: "mutated"}
		t.Programs[2] = odb.Program{ID: 2, Existence: odb.Present, Name: "extra"}
		tx.Stage(odb.Created(odb.EntityProgram, t.Programs[2]))
		return boom
	})
	if err != boom {
		t.Fatalf("expected transition error to surface, got %v", err)
	}

	snap := st.Snapshot()
	if len(snap.Programs) != 1 {
		t.Fatalf("failed transition leaked rows: %d", len(snap.Programs))
	}
	if snap.Programs[1].Name != "keep" {
		t.Fatalf("failed transition leaked mutation: %q", snap.Programs[1].Name)
	}
}

func TestModifyRespectsCancelledContext(t *testing.T) {
	st := store.New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := st.Modify(ctx, func(*store.Tx) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatalf("expected context error")
	}
	if called {
		t.Fatalf("transition body ran despite cancelled context")
	}
}

func TestStagedEventsPublishOnlyOnCommit(t *testing.T) {
	pub := &capturePublisher{}
	st := store.New(pub)
	ctx := context.Background()

	_ = st.Modify(ctx, func(tx *store.Tx) error {
		tx.Stage(odb.Created(odb.EntityProgram, odb.Program{ID: 1}))
		return fmt.Errorf("abort")
	})
	if got := len(pub.all()); got != 0 {
		t.Fatalf("aborted transition published %d events", got)
	}

	if err := st.Modify(ctx, func(tx *store.Tx) error {
		tx.Stage(odb.Created(odb.EntityProgram, odb.Program{ID: 1}))
		tx.Stage(odb.Created(odb.EntityTarget, odb.Target{ID: 1}))
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	evs := pub.all()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].ID != 1 || evs[1].ID != 2 {
		t.Fatalf("event ids not assigned in commit order: %v %v", evs[0].ID, evs[1].ID)
	}
	if evs[0].Entity != odb.EntityProgram || evs[1].Entity != odb.EntityTarget {
		t.Fatalf("staged events published out of order")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	st := store.New(nil)
	ctx := context.Background()

	if err := st.Modify(ctx, func(tx *store.Tx) error {
		tx.Tables().Programs[1] = odb.Program{ID: 1, Existence: odb.Present, Name: "before"}
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	snap := st.Snapshot()
	snap.Programs[1] = odb.Program{ID: 1, Existence: odb.Present, Name: "hacked"}
	snap.Programs[99] = odb.Program{ID: 99}

	cur := st.Snapshot()
	if cur.Programs[1].Name != "before" {
		t.Fatalf("snapshot mutation reached the store")
	}
	if _, ok := cur.Programs[99]; ok {
		t.Fatalf("snapshot insertion reached the store")
	}
}

func TestConcurrentModifyIssuesDistinctIDs(t *testing.T) {
	st := store.New(nil)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- st.Modify(ctx, func(tx *store.Tx) error {
				t := tx.Tables()
				id := store.NextID[odb.ProgramID](t, odb.EntityProgram)
				if _, dup := t.Programs[id]; dup {
					return fmt.Errorf("identifier %v issued twice", id)
				}
				t.Programs[id] = odb.Program{ID: id, Existence: odb.Present, Name: "p"}
				return nil
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent transition failed: %v", err)
		}
	}

	snap := st.Snapshot()
	if len(snap.Programs) != n {
		t.Fatalf("expected %d programs, got %d", n, len(snap.Programs))
	}
	for i := int64(1); i <= n; i++ {
		if _, ok := snap.Programs[odb.ProgramID(i)]; !ok {
			t.Fatalf("identifier gap at %d", i)
		}
	}
	if snap.Counters[odb.EntityProgram] != n {
		t.Fatalf("counter should sit at %d, got %d", n, snap.Counters[odb.EntityProgram])
	}
}

func TestClaimAdvancesCounterMonotonically(t *testing.T) {
	tables := store.NewTables()

	store.Claim(&tables, odb.EntityTarget, odb.TargetID(10))
	if got := store.NextID[odb.TargetID](&tables, odb.EntityTarget); got != 11 {
		t.Fatalf("expected next id 11 after claiming 10, got %v", got)
	}

	// claiming below the counter must not rewind it
	store.Claim(&tables, odb.EntityTarget, odb.TargetID(3))
	if got := store.NextID[odb.TargetID](&tables, odb.EntityTarget); got != 12 {
		t.Fatalf("expected next id 12, got %v", got)
	}
}

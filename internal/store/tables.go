package store

import (
	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

// Tables is the full in-memory state at one instant: per-kind entity maps,
// per-kind identifier counters, and the relation indices between kinds. A
// Tables value is treated as immutable once installed; mutation happens on a
// clone which is swapped in atomically by the Store.
type Tables struct {
	Programs     map[odb.ProgramID]odb.Program
	Targets      map[odb.TargetID]odb.Target
	Asterisms    map[odb.AsterismID]odb.Asterism
	Observations map[odb.ObservationID]odb.Observation

	Counters map[odb.EntityType]int64

	ProgramTargets   Index[odb.ProgramID, odb.TargetID]
	ProgramAsterisms Index[odb.ProgramID, odb.AsterismID]
}

// NewTables returns an empty snapshot.
func NewTables() Tables {
	return Tables{
		Programs:         make(map[odb.ProgramID]odb.Program),
		Targets:          make(map[odb.TargetID]odb.Target),
		Asterisms:        make(map[odb.AsterismID]odb.Asterism),
		Observations:     make(map[odb.ObservationID]odb.Observation),
		Counters:         make(map[odb.EntityType]int64),
		ProgramTargets:   NewIndex[odb.ProgramID, odb.TargetID](),
		ProgramAsterisms: NewIndex[odb.ProgramID, odb.AsterismID](),
	}
}

// Clone returns a deep copy of the snapshot.
func (t Tables) Clone() Tables {
	cp := NewTables()
	for k, v := range t.Programs {
		cp.Programs[k] = v
	}
	for k, v := range t.Targets {
		cp.Targets[k] = v
	}
	for k, v := range t.Asterisms {
		cp.Asterisms[k] = v.Clone()
	}
	for k, v := range t.Observations {
		cp.Observations[k] = v.Clone()
	}
	for k, v := range t.Counters {
		cp.Counters[k] = v
	}
	cp.ProgramTargets = t.ProgramTargets.Clone()
	cp.ProgramAsterisms = t.ProgramAsterisms.Clone()
	return cp
}

// NextID issues a fresh identifier for the kind. Counters only ever move
// forward; an identifier is never issued twice, even after deletion.
func NextID[I ~int64](t *Tables, kind odb.EntityType) I {
	t.Counters[kind]++
	return I(t.Counters[kind])
}

// Claim advances the kind counter past an explicitly requested identifier so
// later NextID calls can never re-issue it.
func Claim[I ~int64](t *Tables, kind odb.EntityType, id I) {
	if int64(id) > t.Counters[kind] {
		t.Counters[kind] = int64(id)
	}
}

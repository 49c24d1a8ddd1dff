// Package repo provides the entity-kind-agnostic CRUD facade over the
// snapshot store and the event service. One Repo is instantiated per entity
// kind, parameterized by that kind's identifier type and store layout.
package repo

import (
	"context"
	"fmt"
	"slices"

	"github.com/swalker2m/gem-odb-api/internal/store"
	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

// Entity constrains repository records to types carrying a typed identifier
// and an Existence flag, with copy-on-write updates: WithExistence returns a
// new value, never mutates in place.
type Entity[I ~int64, E any] interface {
	EntityID() I
	ExistenceState() odb.Existence
	WithExistence(odb.Existence) E
}

// Table describes how one entity kind is laid out in the store snapshot.
type Table[I ~int64, E Entity[I, E]] struct {
	// Kind tags events and errors for this entity kind.
	Kind odb.EntityType
	// Rows selects the kind's id-to-entity map from a snapshot.
	Rows func(*store.Tables) map[I]E
	// Clone deep-copies a record across the store boundary.
	Clone func(E) E
	// Check re-validates entity invariants before an edit installs.
	// Optional.
	Check func(E) error
}

// Repo is the generic CRUD facade for one entity kind.
type Repo[I ~int64, E Entity[I, E]] struct {
	store *store.Store
	table Table[I, E]
}

// New constructs a repository over the given store and table layout.
func New[I ~int64, E Entity[I, E]](st *store.Store, table Table[I, E]) *Repo[I, E] {
	if table.Clone == nil {
		table.Clone = func(e E) E { return e }
	}
	return &Repo[I, E]{store: st, table: table}
}

// Kind returns the entity kind served by this repository.
func (r *Repo[I, E]) Kind() odb.EntityType { return r.table.Kind }

// InsertTx performs an insert inside an already-open transition. When
// explicit is non-nil that identifier is requested; it is rejected with
// ErrAlreadyExists if already issued, whether its holder is Present or
// Deleted. Otherwise a fresh identifier is allocated. The construct callback
// builds the entity around the settled identifier.
func (r *Repo[I, E]) InsertTx(tx *store.Tx, explicit *I, construct func(I) (E, error)) (E, error) {
	var zero E
	t := tx.Tables()
	rows := r.table.Rows(t)

	var id I
	if explicit != nil {
		id = *explicit
		if _, taken := rows[id]; taken {
			return zero, odb.ErrAlreadyExists{Entity: r.table.Kind, ID: fmt.Sprint(id)}
		}
		store.Claim(t, r.table.Kind, id)
	} else {
		id = store.NextID[I](t, r.table.Kind)
	}

	e, err := construct(id)
	if err != nil {
		return zero, err
	}
	if e.EntityID() != id {
		return zero, fmt.Errorf("%s construct changed identifier %v", r.table.Kind, id)
	}
	if r.table.Check != nil {
		if err := r.table.Check(e); err != nil {
			return zero, err
		}
	}

	rows[id] = r.table.Clone(e)
	tx.Stage(odb.Created(r.table.Kind, r.table.Clone(e)))
	return e, nil
}

// Insert runs InsertTx in its own atomic transition.
func (r *Repo[I, E]) Insert(ctx context.Context, explicit *I, construct func(I) (E, error)) (E, error) {
	var out E
	err := r.store.Modify(ctx, func(tx *store.Tx) error {
		var err error
		out, err = r.InsertTx(tx, explicit, construct)
		return err
	})
	if err != nil {
		var zero E
		return zero, err
	}
	return out, nil
}

// SelectByID returns the entity, or ErrNotFound when the identifier was
// never issued or its holder is Deleted and includeDeleted is false.
func (r *Repo[I, E]) SelectByID(_ context.Context, id I, includeDeleted bool) (E, error) {
	var zero E
	t := r.store.Snapshot()
	e, ok := r.table.Rows(&t)[id]
	if !ok || (!includeDeleted && e.ExistenceState().IsDeleted()) {
		return zero, odb.ErrNotFound{Entity: r.table.Kind, ID: fmt.Sprint(id)}
	}
	return r.table.Clone(e), nil
}

// SelectAll returns every entity of the kind, ordered by identifier, with
// Deleted entities filtered unless requested.
func (r *Repo[I, E]) SelectAll(_ context.Context, includeDeleted bool) []E {
	t := r.store.Snapshot()
	rows := r.table.Rows(&t)
	ids := make([]I, 0, len(rows))
	for id, e := range rows {
		if !includeDeleted && e.ExistenceState().IsDeleted() {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]E, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.table.Clone(rows[id]))
	}
	return out
}

// EditTx performs a read-modify-write inside an already-open transition.
// The updater receives a copy of the current value and returns its
// replacement; identifier changes are rejected and entity invariants are
// re-checked before the new value installs.
func (r *Repo[I, E]) EditTx(tx *store.Tx, id I, update func(E) (E, error)) (E, error) {
	var zero E
	rows := r.table.Rows(tx.Tables())

	cur, ok := rows[id]
	if !ok || cur.ExistenceState().IsDeleted() {
		return zero, odb.ErrNotFound{Entity: r.table.Kind, ID: fmt.Sprint(id)}
	}

	before := r.table.Clone(cur)
	next, err := update(r.table.Clone(cur))
	if err != nil {
		return zero, err
	}
	if next.EntityID() != id {
		return zero, fmt.Errorf("%s edit cannot change identifier %v", r.table.Kind, id)
	}
	if r.table.Check != nil {
		if err := r.table.Check(next); err != nil {
			return zero, err
		}
	}

	rows[id] = r.table.Clone(next)
	tx.Stage(odb.Edited(r.table.Kind, before, r.table.Clone(next)))
	return next, nil
}

// Edit runs EditTx in its own atomic transition. The whole read-modify-write
// is serialized by the store, so a stale-snapshot edit can never install.
func (r *Repo[I, E]) Edit(ctx context.Context, id I, update func(E) (E, error)) (E, error) {
	var out E
	err := r.store.Modify(ctx, func(tx *store.Tx) error {
		var err error
		out, err = r.EditTx(tx, id, update)
		return err
	})
	if err != nil {
		var zero E
		return zero, err
	}
	return out, nil
}

// Delete flips the entity to Deleted. It is idempotent: deleting an already
// deleted entity succeeds without effect and publishes nothing. Deleting an
// identifier that was never issued is ErrNotFound.
func (r *Repo[I, E]) Delete(ctx context.Context, id I) error {
	return r.store.Modify(ctx, func(tx *store.Tx) error {
		return r.setExistence(tx, id, odb.Deleted)
	})
}

// Undelete flips the entity back to Present. The identifier must have been
// issued; restoring an already Present entity succeeds without effect.
func (r *Repo[I, E]) Undelete(ctx context.Context, id I) error {
	return r.store.Modify(ctx, func(tx *store.Tx) error {
		return r.setExistence(tx, id, odb.Present)
	})
}

func (r *Repo[I, E]) setExistence(tx *store.Tx, id I, e odb.Existence) error {
	rows := r.table.Rows(tx.Tables())
	cur, ok := rows[id]
	if !ok {
		return odb.ErrNotFound{Entity: r.table.Kind, ID: fmt.Sprint(id)}
	}
	if cur.ExistenceState() == e {
		return nil
	}
	before := r.table.Clone(cur)
	next := cur.WithExistence(e)
	rows[id] = r.table.Clone(next)
	tx.Stage(odb.Edited(r.table.Kind, before, r.table.Clone(next)))
	return nil
}

package odb

// Existence is the soft-delete lifecycle flag carried by every entity.
// Deletion never removes a record, it only flips this flag, so historical
// events and relation edges stay dereferenceable forever.
type Existence string

// Lifecycle states. There are exactly two; an entity cycles between them
// through delete and undelete.
const (
	// Present marks a live entity visible under default filtering.
	Present Existence = "present"
	// Deleted marks a soft-deleted entity hidden under default filtering.
	Deleted Existence = "deleted"
)

// IsDeleted reports whether the flag marks a soft-deleted entity.
func (e Existence) IsDeleted() bool { return e == Deleted }

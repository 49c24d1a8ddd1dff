package odb

import "fmt"

// ErrNotFound is returned when an identifier does not resolve to a visible
// entity. Under default visibility a soft-deleted entity is not found.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ErrAlreadyExists is returned when an insert requests an identifier that
// has already been issued, whether the holder is Present or Deleted.
type ErrAlreadyExists struct {
	Entity EntityType
	ID     string
}

func (e ErrAlreadyExists) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.ID)
}

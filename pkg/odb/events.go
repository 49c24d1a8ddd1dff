package odb

// Action indicates what a published event describes.
type Action string

// Event actions. Soft delete and undelete publish as edits, since they flip
// a field on a record that continues to exist.
const (
	// ActionCreated carries the newly inserted value in After.
	ActionCreated Action = "created"
	// ActionEdited carries the previous value in Before and the installed
	// value in After.
	ActionEdited Action = "edited"
)

// Event describes one committed entity transition. Events are assigned a
// logical sequence number at the commit point of the transition that caused
// them, so every subscriber observes the same total order and never sees an
// event for a state that is not yet current. Wall-clock timestamps are an
// upstream concern.
type Event struct {
	ID     EventID    `json:"id"`
	Entity EntityType `json:"entity"`
	Action Action     `json:"action"`
	Before any        `json:"before,omitempty"`
	After  any        `json:"after"`
}

// Created builds a creation event for the given value. The event id is
// assigned by the publisher at commit time.
func Created(entity EntityType, after any) func(EventID) Event {
	return func(id EventID) Event {
		return Event{ID: id, Entity: entity, Action: ActionCreated, After: after}
	}
}

// Edited builds an edit event carrying both the previous and the installed
// value.
func Edited(entity EntityType, before, after any) func(EventID) Event {
	return func(id EventID) Event {
		return Event{ID: id, Entity: entity, Action: ActionEdited, Before: before, After: after}
	}
}

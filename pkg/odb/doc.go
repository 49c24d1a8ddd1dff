// Package odb defines the persistent entities, typed identifiers, sequence
// model, and validation primitives of the observing database core.
//
// The package is pure data: it has no transport, storage, or concurrency
// concerns. Mutation of stored entities happens in internal/store; this
// package only describes the shapes those layers agree on and the rules a
// creation request must satisfy before it becomes a domain value.
package odb

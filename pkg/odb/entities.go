package odb

// EntityType identifies the kind of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in events and store buckets.
const (
	// EntityProgram identifies a science program record.
	EntityProgram EntityType = "program"
	// EntityTarget identifies an observing target record.
	EntityTarget EntityType = "target"
	// EntityAsterism identifies a target grouping record.
	EntityAsterism EntityType = "asterism"
	// EntityObservation identifies an observation record.
	EntityObservation EntityType = "observation"
)

// Program represents a science program, the root entity that targets,
// asterisms, and observations hang off.
type Program struct {
	ID        ProgramID `json:"id"`
	Existence Existence `json:"existence"`
	Name      string    `json:"name"`
}

// EntityID returns the program identifier.
func (p Program) EntityID() ProgramID { return p.ID }

// ExistenceState returns the soft-delete flag.
func (p Program) ExistenceState() Existence { return p.Existence }

// WithExistence returns a copy of the program with the flag replaced.
func (p Program) WithExistence(e Existence) Program {
	p.Existence = e
	return p
}

// Sidereal carries a target's sidereal attributes. The core stores them
// opaquely; parsing and coordinate math belong to upstream collaborators.
type Sidereal struct {
	RA    string `json:"ra"`
	Dec   string `json:"dec"`
	Epoch string `json:"epoch,omitempty"`
}

// Target represents an observing target with sidereal tracking.
type Target struct {
	ID        TargetID  `json:"id"`
	Existence Existence `json:"existence"`
	Name      string    `json:"name"`
	Sidereal  Sidereal  `json:"sidereal"`
}

// EntityID returns the target identifier.
func (t Target) EntityID() TargetID { return t.ID }

// ExistenceState returns the soft-delete flag.
func (t Target) ExistenceState() Existence { return t.Existence }

// WithExistence returns a copy of the target with the flag replaced.
func (t Target) WithExistence(e Existence) Target {
	t.Existence = e
	return t
}

// AsterismVariant distinguishes the supported asterism shapes.
type AsterismVariant string

// Asterism variants. Default groups one or more targets; Ghost is the dual
// integral-field-unit arrangement and holds exactly two.
const (
	AsterismDefault AsterismVariant = "default"
	AsterismGhost   AsterismVariant = "ghost"
)

// Coordinates is an opaque base position. Like Sidereal, the core never
// interprets the strings.
type Coordinates struct {
	RA  string `json:"ra"`
	Dec string `json:"dec"`
}

// Asterism groups targets under an optional explicit base position.
type Asterism struct {
	ID           AsterismID      `json:"id"`
	Existence    Existence       `json:"existence"`
	Variant      AsterismVariant `json:"variant"`
	ExplicitBase *Coordinates    `json:"explicit_base,omitempty"`
	TargetIDs    []TargetID      `json:"target_ids"`
}

// EntityID returns the asterism identifier.
func (a Asterism) EntityID() AsterismID { return a.ID }

// ExistenceState returns the soft-delete flag.
func (a Asterism) ExistenceState() Existence { return a.Existence }

// WithExistence returns a copy of the asterism with the flag replaced.
func (a Asterism) WithExistence(e Existence) Asterism {
	a.Existence = e
	return a
}

// Clone returns a deep copy safe to hand across the store boundary.
func (a Asterism) Clone() Asterism {
	cp := a
	cp.TargetIDs = append([]TargetID(nil), a.TargetIDs...)
	if a.ExplicitBase != nil {
		base := *a.ExplicitBase
		cp.ExplicitBase = &base
	}
	return cp
}

// Observation ties a target and a validated execution sequence to a program.
// The Config field crosses into the store only after sequence validation has
// succeeded; the store never re-validates its internals.
type Observation struct {
	ID        ObservationID `json:"id"`
	Existence Existence     `json:"existence"`
	ProgramID ProgramID     `json:"program_id"`
	TargetID  TargetID      `json:"target_id"`
	Title     string        `json:"title,omitempty"`
	Config    Sequence      `json:"config"`
}

// EntityID returns the observation identifier.
func (o Observation) EntityID() ObservationID { return o.ID }

// ExistenceState returns the soft-delete flag.
func (o Observation) ExistenceState() Existence { return o.Existence }

// WithExistence returns a copy of the observation with the flag replaced.
func (o Observation) WithExistence(e Existence) Observation {
	o.Existence = e
	return o
}

// Clone returns a deep copy safe to hand across the store boundary.
func (o Observation) Clone() Observation {
	cp := o
	cp.Config = o.Config.Clone()
	return cp
}

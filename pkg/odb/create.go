package odb

// Create inputs structurally mirror their domain counterparts but may carry
// malformed nested payloads. Each is checked by the accumulating validators
// in validate.go before a domain value is constructed. Optional ID fields
// request a specific identifier; when nil the store allocates the next one.

// ProgramCreate describes a new science program.
type ProgramCreate struct {
	ID   *ProgramID `json:"id,omitempty"`
	Name string     `json:"name"`
}

// TargetCreate describes a new target, optionally shared with a set of
// programs in the same transition that creates it.
type TargetCreate struct {
	ID         *TargetID   `json:"id,omitempty"`
	Name       string      `json:"name"`
	Sidereal   Sidereal    `json:"sidereal"`
	ProgramIDs []ProgramID `json:"program_ids,omitempty"`
}

// AsterismCreate describes a new asterism, optionally shared with a set of
// programs in the same transition that creates it.
type AsterismCreate struct {
	ID           *AsterismID     `json:"id,omitempty"`
	Variant      AsterismVariant `json:"variant"`
	ExplicitBase *Coordinates    `json:"explicit_base,omitempty"`
	TargetIDs    []TargetID      `json:"target_ids"`
	ProgramIDs   []ProgramID     `json:"program_ids,omitempty"`
}

// ObservationCreate describes a new observation. Config is validated before
// the observation ever reaches the store.
type ObservationCreate struct {
	ID        *ObservationID `json:"id,omitempty"`
	ProgramID ProgramID      `json:"program_id"`
	TargetID  TargetID       `json:"target_id"`
	Title     string         `json:"title,omitempty"`
	Config    SequenceCreate `json:"config"`
}

// StepCreate describes one step. Type is a free string until validated.
type StepCreate struct {
	Type    string         `json:"type"`
	Dynamic map[string]any `json:"dynamic,omitempty"`
}

// BreakpointStepCreate pairs an unvalidated step with its breakpoint flag.
// An empty flag normalises to Disabled.
type BreakpointStepCreate struct {
	Breakpoint Breakpoint `json:"breakpoint,omitempty"`
	Step       StepCreate `json:"step"`
}

// AtomCreate describes one atom. A valid atom needs at least one step.
type AtomCreate struct {
	Steps []BreakpointStepCreate `json:"steps"`
}

// StaticConfigCreate describes the static instrument configuration.
type StaticConfigCreate struct {
	Instrument string         `json:"instrument"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// SequenceCreate describes a full execution plan awaiting validation.
type SequenceCreate struct {
	Static      StaticConfigCreate `json:"static"`
	Acquisition []AtomCreate       `json:"acquisition"`
	Science     []AtomCreate       `json:"science"`
}

// StopBefore builds a single-step atom whose breakpoint is Enabled, so
// execution pauses immediately before the given step runs.
func StopBefore(step StepCreate) AtomCreate {
	return AtomCreate{Steps: []BreakpointStepCreate{{Breakpoint: BreakpointEnabled, Step: step}}}
}

// ContinueTo builds a single-step atom whose breakpoint is Disabled, so
// execution continues through to the given step without pausing.
func ContinueTo(step StepCreate) AtomCreate {
	return AtomCreate{Steps: []BreakpointStepCreate{{Breakpoint: BreakpointDisabled, Step: step}}}
}

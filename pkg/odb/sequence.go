package odb

// Instrument tags a sequence with the facility instrument it executes on.
// The core treats instrument field catalogs as opaque payloads; the tag only
// exists so validation can reject sequences for instruments it has never
// heard of.
type Instrument string

// Known facility instruments.
const (
	InstrumentAcqCam     Instrument = "AcqCam"
	InstrumentFlamingos2 Instrument = "Flamingos2"
	InstrumentGhost      Instrument = "Ghost"
	InstrumentGmosN      Instrument = "GmosNorth"
	InstrumentGmosS      Instrument = "GmosSouth"
	InstrumentGnirs      Instrument = "Gnirs"
	InstrumentGpi        Instrument = "Gpi"
	InstrumentGsaoi      Instrument = "Gsaoi"
	InstrumentNifs       Instrument = "Nifs"
	InstrumentNiri       Instrument = "Niri"
)

var knownInstruments = map[Instrument]struct{}{
	InstrumentAcqCam:     {},
	InstrumentFlamingos2: {},
	InstrumentGhost:      {},
	InstrumentGmosN:      {},
	InstrumentGmosS:      {},
	InstrumentGnirs:      {},
	InstrumentGpi:        {},
	InstrumentGsaoi:      {},
	InstrumentNifs:       {},
	InstrumentNiri:       {},
}

// Known reports whether the instrument tag is recognised.
func (i Instrument) Known() bool {
	_, ok := knownInstruments[i]
	return ok
}

// StepType classifies an execution step.
type StepType string

// Step classifications.
const (
	StepBias      StepType = "bias"
	StepDark      StepType = "dark"
	StepGcal      StepType = "gcal"
	StepScience   StepType = "science"
	StepSmartGcal StepType = "smart_gcal"
)

var knownStepTypes = map[StepType]struct{}{
	StepBias:      {},
	StepDark:      {},
	StepGcal:      {},
	StepScience:   {},
	StepSmartGcal: {},
}

// Known reports whether the step type is recognised.
func (t StepType) Known() bool {
	_, ok := knownStepTypes[t]
	return ok
}

// Step is one executable instruction. Dynamic holds the instrument-specific
// configuration for the step, carried opaquely.
type Step struct {
	Type    StepType       `json:"type"`
	Dynamic map[string]any `json:"dynamic,omitempty"`
}

// Clone returns a deep copy of the step.
func (s Step) Clone() Step {
	cp := s
	if s.Dynamic != nil {
		cp.Dynamic = make(map[string]any, len(s.Dynamic))
		for k, v := range s.Dynamic {
			cp.Dynamic[k] = v
		}
	}
	return cp
}

// Breakpoint marks whether execution pauses immediately before a step.
type Breakpoint string

// Breakpoint states.
const (
	// BreakpointEnabled pauses execution immediately before the step runs.
	BreakpointEnabled Breakpoint = "enabled"
	// BreakpointDisabled continues through the step without pausing.
	BreakpointDisabled Breakpoint = "disabled"
)

// BreakpointStep pairs a step with its breakpoint flag.
type BreakpointStep struct {
	Breakpoint Breakpoint `json:"breakpoint"`
	Step       Step       `json:"step"`
}

// Clone returns a deep copy of the pair.
func (b BreakpointStep) Clone() BreakpointStep {
	b.Step = b.Step.Clone()
	return b
}

// Atom is an indivisible ordered group of steps. A valid atom always holds
// at least one step; validation refuses to construct an empty one.
type Atom struct {
	Steps []BreakpointStep `json:"steps"`
}

// Clone returns a deep copy of the atom.
func (a Atom) Clone() Atom {
	if a.Steps == nil {
		return a
	}
	steps := make([]BreakpointStep, len(a.Steps))
	for i, s := range a.Steps {
		steps[i] = s.Clone()
	}
	return Atom{Steps: steps}
}

// StaticConfig is the per-sequence instrument configuration that does not
// change from step to step.
type StaticConfig struct {
	Instrument Instrument     `json:"instrument"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// Clone returns a deep copy of the static config.
func (c StaticConfig) Clone() StaticConfig {
	cp := c
	if c.Fields != nil {
		cp.Fields = make(map[string]any, len(c.Fields))
		for k, v := range c.Fields {
			cp.Fields[k] = v
		}
	}
	return cp
}

// Sequence is a validated execution plan: static instrument configuration
// plus ordered acquisition and science atom lists.
type Sequence struct {
	Static      StaticConfig `json:"static"`
	Acquisition []Atom       `json:"acquisition"`
	Science     []Atom       `json:"science"`
}

// Clone returns a deep copy of the sequence.
func (s Sequence) Clone() Sequence {
	cp := s
	cp.Static = s.Static.Clone()
	cp.Acquisition = cloneAtoms(s.Acquisition)
	cp.Science = cloneAtoms(s.Science)
	return cp
}

func cloneAtoms(atoms []Atom) []Atom {
	if atoms == nil {
		return nil
	}
	out := make([]Atom, len(atoms))
	for i, a := range atoms {
		out[i] = a.Clone()
	}
	return out
}

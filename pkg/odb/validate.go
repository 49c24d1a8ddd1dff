package odb

import (
	"fmt"
	"strings"
)

// Problem locates a single validation failure within a create payload.
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// MessageEmptyAtom is the distinguished message reported when an atom holds
// no steps. It is a domain invariant, not a format check: an empty step list
// can never produce a valid atom.
const MessageEmptyAtom = "atom must contain at least one step"

// ValidationError carries every problem discovered in one validation pass.
// Validators accumulate: they never stop at the first failure.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "validation failed: " + e.Problems[0].String()
	}
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.String()
	}
	return fmt.Sprintf("validation failed (%d problems): %s", len(e.Problems), strings.Join(msgs, "; "))
}

// errOrNil wraps accumulated problems, or returns nil when there are none.
func errOrNil(problems []Problem) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// Validate checks the program payload.
func (c ProgramCreate) Validate() error {
	var problems []Problem
	if strings.TrimSpace(c.Name) == "" {
		problems = append(problems, Problem{Path: "name", Message: "name is required"})
	}
	return errOrNil(problems)
}

// Validate checks the target payload. Sidereal attributes are opaque to the
// core and pass through unchecked; only the presence of a name and the
// coordinate strings themselves are required.
func (c TargetCreate) Validate() error {
	var problems []Problem
	if strings.TrimSpace(c.Name) == "" {
		problems = append(problems, Problem{Path: "name", Message: "name is required"})
	}
	if strings.TrimSpace(c.Sidereal.RA) == "" {
		problems = append(problems, Problem{Path: "sidereal.ra", Message: "right ascension is required"})
	}
	if strings.TrimSpace(c.Sidereal.Dec) == "" {
		problems = append(problems, Problem{Path: "sidereal.dec", Message: "declination is required"})
	}
	return errOrNil(problems)
}

// Validate checks the asterism payload against its variant's arity rules.
func (c AsterismCreate) Validate() error {
	var problems []Problem
	switch c.Variant {
	case AsterismDefault:
		if len(c.TargetIDs) == 0 {
			problems = append(problems, Problem{Path: "target_ids", Message: "default asterism needs at least one target"})
		}
	case AsterismGhost:
		if len(c.TargetIDs) != 2 {
			problems = append(problems, Problem{Path: "target_ids", Message: "ghost asterism needs exactly two targets"})
		}
	default:
		problems = append(problems, Problem{Path: "variant", Message: fmt.Sprintf("unknown asterism variant %q", string(c.Variant))})
	}
	return errOrNil(problems)
}

// Validate turns the sequence payload into a domain Sequence, or reports the
// union of every problem found across the static config and all atoms. Each
// nested payload is validated independently so one malformed atom never
// masks another.
func (c SequenceCreate) Validate() (Sequence, error) {
	var problems []Problem

	static, ps := c.Static.validate("static")
	problems = append(problems, ps...)

	acquisition, ps := validateAtoms(c.Acquisition, "acquisition")
	problems = append(problems, ps...)

	science, ps := validateAtoms(c.Science, "science")
	problems = append(problems, ps...)

	if len(problems) > 0 {
		return Sequence{}, &ValidationError{Problems: problems}
	}
	return Sequence{Static: static, Acquisition: acquisition, Science: science}, nil
}

// Validate turns the atom payload into a domain Atom or reports every
// problem in its steps. A zero-step atom fails immediately with the
// distinguished empty-atom problem.
func (c AtomCreate) Validate() (Atom, error) {
	atom, problems := c.validate("atom")
	if len(problems) > 0 {
		return Atom{}, &ValidationError{Problems: problems}
	}
	return atom, nil
}

// Validate turns the pair payload into a domain BreakpointStep, pairing the
// validated step unchanged with its breakpoint flag.
func (c BreakpointStepCreate) Validate() (BreakpointStep, error) {
	bs, problems := c.validate("step")
	if len(problems) > 0 {
		return BreakpointStep{}, &ValidationError{Problems: problems}
	}
	return bs, nil
}

func validateAtoms(atoms []AtomCreate, path string) ([]Atom, []Problem) {
	if len(atoms) == 0 {
		return nil, nil
	}
	out := make([]Atom, 0, len(atoms))
	var problems []Problem
	for i, ac := range atoms {
		atom, ps := ac.validate(fmt.Sprintf("%s[%d]", path, i))
		problems = append(problems, ps...)
		out = append(out, atom)
	}
	if len(problems) > 0 {
		return nil, problems
	}
	return out, nil
}

func (c StaticConfigCreate) validate(path string) (StaticConfig, []Problem) {
	var problems []Problem
	inst := Instrument(strings.TrimSpace(c.Instrument))
	switch {
	case inst == "":
		problems = append(problems, Problem{Path: path + ".instrument", Message: "instrument is required"})
	case !inst.Known():
		problems = append(problems, Problem{Path: path + ".instrument", Message: fmt.Sprintf("unknown instrument %q", c.Instrument)})
	}
	if len(problems) > 0 {
		return StaticConfig{}, problems
	}
	return StaticConfig{Instrument: inst, Fields: c.Fields}, nil
}

func (c AtomCreate) validate(path string) (Atom, []Problem) {
	if len(c.Steps) == 0 {
		return Atom{}, []Problem{{Path: path, Message: MessageEmptyAtom}}
	}
	steps := make([]BreakpointStep, 0, len(c.Steps))
	var problems []Problem
	for i, sc := range c.Steps {
		bs, ps := sc.validate(fmt.Sprintf("%s.steps[%d]", path, i))
		problems = append(problems, ps...)
		steps = append(steps, bs)
	}
	if len(problems) > 0 {
		return Atom{}, problems
	}
	return Atom{Steps: steps}, nil
}

func (c BreakpointStepCreate) validate(path string) (BreakpointStep, []Problem) {
	var problems []Problem

	flag := c.Breakpoint
	switch flag {
	case BreakpointEnabled, BreakpointDisabled:
	case "":
		flag = BreakpointDisabled
	default:
		problems = append(problems, Problem{Path: path + ".breakpoint", Message: fmt.Sprintf("unknown breakpoint flag %q", string(c.Breakpoint))})
	}

	step, ps := c.Step.validate(path)
	problems = append(problems, ps...)

	if len(problems) > 0 {
		return BreakpointStep{}, problems
	}
	return BreakpointStep{Breakpoint: flag, Step: step}, nil
}

func (c StepCreate) validate(path string) (Step, []Problem) {
	var problems []Problem
	st := StepType(strings.TrimSpace(c.Type))
	switch {
	case st == "":
		problems = append(problems, Problem{Path: path + ".type", Message: "step type is required"})
	case !st.Known():
		problems = append(problems, Problem{Path: path + ".type", Message: fmt.Sprintf("unknown step type %q", c.Type)})
	}
	if len(problems) > 0 {
		return Step{}, problems
	}
	return Step{Type: st, Dynamic: c.Dynamic}, nil
}

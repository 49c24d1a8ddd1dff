package odb

import (
	"fmt"
	"strconv"
	"strings"
)

// Identifiers are distinct types per entity kind so a ProgramID can never be
// passed where a TargetID is expected. They are issued by a kind-specific
// monotonic counter and are never reused, even after the entity is deleted.
type (
	// ProgramID identifies a science program.
	ProgramID int64
	// TargetID identifies an observing target.
	TargetID int64
	// AsterismID identifies a target grouping.
	AsterismID int64
	// ObservationID identifies an observation.
	ObservationID int64
)

// EventID is the logical sequence number assigned to a published event.
// EventIDs form one total order across all entity kinds.
type EventID int64

const (
	programPrefix     = "p"
	targetPrefix      = "t"
	asterismPrefix    = "a"
	observationPrefix = "o"
)

func (id ProgramID) String() string     { return formatID(programPrefix, int64(id)) }
func (id TargetID) String() string      { return formatID(targetPrefix, int64(id)) }
func (id AsterismID) String() string    { return formatID(asterismPrefix, int64(id)) }
func (id ObservationID) String() string { return formatID(observationPrefix, int64(id)) }

func formatID(prefix string, n int64) string {
	return fmt.Sprintf("%s-%d", prefix, n)
}

// ParseProgramID parses the canonical "p-<n>" form.
func ParseProgramID(s string) (ProgramID, error) {
	n, err := parseID(programPrefix, s)
	return ProgramID(n), err
}

// ParseTargetID parses the canonical "t-<n>" form.
func ParseTargetID(s string) (TargetID, error) {
	n, err := parseID(targetPrefix, s)
	return TargetID(n), err
}

// ParseAsterismID parses the canonical "a-<n>" form.
func ParseAsterismID(s string) (AsterismID, error) {
	n, err := parseID(asterismPrefix, s)
	return AsterismID(n), err
}

// ParseObservationID parses the canonical "o-<n>" form.
func ParseObservationID(s string) (ObservationID, error) {
	n, err := parseID(observationPrefix, s)
	return ObservationID(n), err
}

func parseID(prefix, s string) (int64, error) {
	rest, ok := strings.CutPrefix(s, prefix+"-")
	if !ok {
		return 0, fmt.Errorf("malformed %s id %q", prefix, s)
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("malformed %s id %q", prefix, s)
	}
	return n, nil
}

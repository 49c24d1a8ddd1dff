package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/swalker2m/gem-odb-api/internal/store"
	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

const snapshotPrefix = "snapshots/"

// Snapshot is the JSON document written by Export: every entity row
// (deleted rows included, so an archive reflects soft-deletion state),
// the identifier counters, and both relation indices.
type Snapshot struct {
	TakenAt     time.Time   `json:"taken_at"`
	LastEventID odb.EventID `json:"last_event_id"`

	Programs     []odb.Program     `json:"programs"`
	Targets      []odb.Target      `json:"targets"`
	Asterisms    []odb.Asterism    `json:"asterisms"`
	Observations []odb.Observation `json:"observations"`

	Counters map[odb.EntityType]int64 `json:"counters"`

	ProgramTargets   map[odb.ProgramID][]odb.TargetID   `json:"program_targets"`
	ProgramAsterisms map[odb.ProgramID][]odb.AsterismID `json:"program_asterisms"`
}

// BuildSnapshot flattens a table snapshot into the archive document. Entity
// slices are sorted by identifier so exports of equal state are byte-equal.
func BuildSnapshot(tables store.Tables, lastEventID odb.EventID, takenAt time.Time) Snapshot {
	doc := Snapshot{
		TakenAt:          takenAt.UTC(),
		LastEventID:      lastEventID,
		Counters:         make(map[odb.EntityType]int64, len(tables.Counters)),
		ProgramTargets:   tables.ProgramTargets.Edges(),
		ProgramAsterisms: tables.ProgramAsterisms.Edges(),
	}
	for k, v := range tables.Counters {
		doc.Counters[k] = v
	}
	for _, p := range tables.Programs {
		doc.Programs = append(doc.Programs, p)
	}
	sort.Slice(doc.Programs, func(i, j int) bool { return doc.Programs[i].ID < doc.Programs[j].ID })
	for _, t := range tables.Targets {
		doc.Targets = append(doc.Targets, t)
	}
	sort.Slice(doc.Targets, func(i, j int) bool { return doc.Targets[i].ID < doc.Targets[j].ID })
	for _, a := range tables.Asterisms {
		doc.Asterisms = append(doc.Asterisms, a.Clone())
	}
	sort.Slice(doc.Asterisms, func(i, j int) bool { return doc.Asterisms[i].ID < doc.Asterisms[j].ID })
	for _, o := range tables.Observations {
		doc.Observations = append(doc.Observations, o.Clone())
	}
	sort.Slice(doc.Observations, func(i, j int) bool { return doc.Observations[i].ID < doc.Observations[j].ID })
	return doc
}

// SnapshotKey names the archive object for a snapshot taken at ts after the
// given last event.
func SnapshotKey(takenAt time.Time, lastEventID odb.EventID) string {
	return fmt.Sprintf("%s%s-%d.json", snapshotPrefix, takenAt.UTC().Format("20060102T150405Z"), int64(lastEventID))
}

// Export writes the snapshot document to dst and returns the stored object
// metadata.
func Export(ctx context.Context, dst Store, doc Snapshot) (Info, error) {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Info{}, fmt.Errorf("encode snapshot: %w", err)
	}
	key := SnapshotKey(doc.TakenAt, doc.LastEventID)
	info, err := dst.Put(ctx, key, bytes.NewReader(payload), PutOptions{ContentType: "application/json"})
	if err != nil {
		return Info{}, fmt.Errorf("store snapshot %s: %w", key, err)
	}
	return info, nil
}

// Fetch reads a snapshot document back from the archive.
func Fetch(ctx context.Context, src Store, key string) (Snapshot, error) {
	_, rc, err := src.Get(ctx, key)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch snapshot %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	var doc Snapshot
	if err := json.NewDecoder(rc).Decode(&doc); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return doc, nil
}

// ListSnapshots returns all stored snapshot objects, oldest key first.
func ListSnapshots(ctx context.Context, src Store) ([]Info, error) {
	return src.List(ctx, snapshotPrefix)
}

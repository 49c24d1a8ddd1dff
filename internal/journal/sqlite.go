package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

// SQLiteSink appends journal entries to a SQLite database as JSON payloads,
// one row per event. The default path ":memory:" keeps the journal inside
// the process, matching the core's non-durable posture.
type SQLiteSink struct {
	db   *sql.DB
	path string
}

// NewSQLite opens (or creates) the journal database at path.
func NewSQLite(path string) (*SQLiteSink, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY,
		entity TEXT NOT NULL,
		action TEXT NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create events table: %w", err)
	}
	return &SQLiteSink{db: db, path: path}, nil
}

// Append records one event.
func (s *SQLiteSink) Append(ctx context.Context, ev odb.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %d: %w", ev.ID, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO events(id, entity, action, payload) VALUES(?,?,?,?)`,
		int64(ev.ID), string(ev.Entity), string(ev.Action), payload); err != nil {
		return fmt.Errorf("insert event %d: %w", ev.ID, err)
	}
	return nil
}

// Events reads back every journaled event in sequence order.
func (s *SQLiteSink) Events(ctx context.Context) ([]odb.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []odb.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var ev odb.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *SQLiteSink) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *SQLiteSink) Path() string { return s.path }

// Close closes the database.
func (s *SQLiteSink) Close() error { return s.db.Close() }

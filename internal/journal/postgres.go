package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

const (
	postgresDriver = "pgx"
	// Default DSN kept overridable via ODB_JOURNAL_POSTGRES_DSN.
	defaultPostgresDSN = "postgres://localhost/odb?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// PostgresSink appends journal entries to a Postgres table as JSONB
// payloads, one row per event.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgres opens the journal database at dsn (falls back to a local
// default) and ensures the events table exists.
func NewPostgres(dsn string) (*PostgresSink, error) {
	if dsn == "" {
		dsn = defaultPostgresDSN
	}
	openMu.Lock()
	db, err := sqlOpen(postgresDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS events (
		id BIGINT PRIMARY KEY,
		entity TEXT NOT NULL,
		action TEXT NOT NULL,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create events table: %w", err)
	}
	return &PostgresSink{db: db}, nil
}

// Append records one event.
func (s *PostgresSink) Append(ctx context.Context, ev odb.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event %d: %w", ev.ID, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO events(id, entity, action, payload) VALUES($1,$2,$3,$4)`,
		int64(ev.ID), string(ev.Entity), string(ev.Action), payload); err != nil {
		return fmt.Errorf("insert event %d: %w", ev.ID, err)
	}
	return nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *PostgresSink) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *PostgresSink) Close() error { return s.db.Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

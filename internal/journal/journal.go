// Package journal records committed domain events into an append-only sink.
// The authoritative store stays memory-resident; journaling is the hook for
// external collaborators that want an audit trail of what committed. A
// journal is advisory: losing entries degrades the trail, never the store.
package journal

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/swalker2m/gem-odb-api/internal/event"
	"github.com/swalker2m/gem-odb-api/internal/logging"
	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

// Driver identifies a concrete journal backend.
type Driver string

// Supported journal drivers.
const (
	// DriverMemory keeps entries in process memory (default, tests).
	DriverMemory Driver = "memory"
	// DriverSQLite appends entries to a SQLite database.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres appends entries to a Postgres database.
	DriverPostgres Driver = "postgres"
)

// Sink is an append-only event journal backend.
type Sink interface {
	// Append records one committed event.
	Append(ctx context.Context, ev odb.Event) error
	// Close releases backend resources.
	Close() error
}

// Config selects and parameterises a journal backend from the environment.
type Config struct {
	Driver      string `env:"ODB_JOURNAL_DRIVER" envDefault:"memory"`
	SQLitePath  string `env:"ODB_JOURNAL_SQLITE_PATH" envDefault:":memory:"`
	PostgresDSN string `env:"ODB_JOURNAL_POSTGRES_DSN"`
}

// Open constructs the sink selected by cfg.
func Open(cfg Config) (Sink, error) {
	switch Driver(cfg.Driver) {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(cfg.SQLitePath)
	case DriverPostgres:
		return NewPostgres(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown journal driver %s", cfg.Driver)
	}
}

// OpenFromEnv constructs a sink from process environment variables.
func OpenFromEnv() (Sink, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse journal config: %w", err)
	}
	return Open(cfg)
}

// Recorder drains an event subscription into a sink until its context ends
// or the subscription is cancelled. Append failures are logged and skipped
// so a broken journal never stalls event consumption.
type Recorder struct {
	sink   Sink
	sub    *event.Subscription
	logger logging.Logger
}

// NewRecorder constructs a recorder over the given sink and subscription.
func NewRecorder(sink Sink, sub *event.Subscription, logger logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Recorder{sink: sink, sub: sub, logger: logger}
}

// Run consumes events until ctx is done or the subscription closes. It
// returns ctx.Err() when cancelled and nil when the feed closes.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.sub.Cancel()
			return ctx.Err()
		case ev, ok := <-r.sub.Events():
			if !ok {
				return nil
			}
			if err := r.sink.Append(ctx, ev); err != nil {
				r.logger.Error("journal append failed", "event", int64(ev.ID), "error", err)
			}
		}
	}
}

// Package archive offers opt-in snapshot export for external collaborators.
// The store itself never reads an archive back at startup; archives are a
// one-way export surface for backup tooling and offline analysis.
package archive

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/caarlos0/env/v11"
)

// Driver identifies a concrete archive backend.
type Driver string

// Supported archive drivers.
const (
	// DriverMemory keeps objects in process memory (default, tests).
	DriverMemory Driver = "memory"
	// DriverFilesystem writes objects under a local root directory.
	DriverFilesystem Driver = "fs"
	// DriverS3 writes objects to an S3-compatible bucket.
	DriverS3 Driver = "s3"
)

// Info describes one stored archive object.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// PutOptions carries optional attributes for a stored object.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Store is a create-only object store: a key is written once and never
// overwritten, matching the append-only nature of snapshot archives.
type Store interface {
	Driver() Driver
	// Put stores a new object; it fails when the key already exists.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get returns object metadata and a reader over its content.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Delete removes the object, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns objects whose keys match prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Info, error)
}

// Config selects and parameterises an archive backend from the environment.
type Config struct {
	Driver      string `env:"ODB_ARCHIVE_DRIVER" envDefault:"memory"`
	FSRoot      string `env:"ODB_ARCHIVE_FS_ROOT" envDefault:"./archivedata"`
	S3Bucket    string `env:"ODB_ARCHIVE_S3_BUCKET"`
	S3Region    string `env:"ODB_ARCHIVE_S3_REGION"`
	S3Endpoint  string `env:"ODB_ARCHIVE_S3_ENDPOINT"`
	S3PathStyle bool   `env:"ODB_ARCHIVE_S3_PATH_STYLE"`
}

// Open constructs the store selected by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch Driver(cfg.Driver) {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown archive driver %s", cfg.Driver)
	}
}

// OpenFromEnv constructs a store from process environment variables.
func OpenFromEnv(ctx context.Context) (Store, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse archive config: %w", err)
	}
	return Open(ctx, cfg)
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

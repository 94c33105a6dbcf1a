package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("storage: key not found")

// Store is the durable key-value interface the security stores persist
// through. Values round-trip through JSON: Set marshals value, Get
// unmarshals into dest (a non-nil pointer).
//
// Set must be synchronous: once it returns nil the write is durable and
// visible to any subsequent Get, including from another evaluator sharing
// the backend.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and parameterizes a storage backend.
type Config struct {
	Type string // "filesystem", "sqlite", "redis"

	// Filesystem config
	FilesystemRoot string

	// SQLite config
	SQLitePath string

	// Redis config
	RedisURL      string
	RedisPassword string
	RedisDB       int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Type:           "filesystem",
		FilesystemRoot: "/var/lib/tgsentry",
		SQLitePath:     "/var/lib/tgsentry/tgsentry.db",
		RedisDB:        0,
	}
}

// Open builds the backend named by cfg.Type.
func Open(cfg Config) (Store, error) {
	switch cfg.Type {
	case "filesystem":
		return NewFileStore(cfg.FilesystemRoot)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "redis":
		return NewRedisStore(cfg)
	default:
		return nil, errors.New("storage: unknown backend type " + cfg.Type)
	}
}

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// FileStore implements Store with one JSON file per key under a root
// directory. Writes go through a temp file and rename so a crash never
// leaves a half-written record behind.
type FileStore struct {
	rootDir string
}

// NewFileStore creates a filesystem-backed store rooted at rootDir.
func NewFileStore(rootDir string) (*FileStore, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{rootDir: rootDir}, nil
}

// Get implements Store.Get.
func (s *FileStore) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read key %q: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal key %q: %w", key, err)
	}
	return nil
}

// Set implements Store.Set. The record is fsynced before the rename so the
// durability guarantee holds across power loss, not just process crash.
func (s *FileStore) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal key %q: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.rootDir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync key %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("failed to commit key %q: %w", key, err)
	}
	return nil
}

// Delete implements Store.Delete. Deleting an absent key is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Close implements Store.Close.
func (s *FileStore) Close() error { return nil }

// Ping verifies the root directory is still accessible.
func (s *FileStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.rootDir); err != nil {
		return fmt.Errorf("storage root unavailable: %w", err)
	}
	return nil
}

func (s *FileStore) path(key string) string {
	// Keys are caller-controlled identifiers; escape them so a key can
	// never traverse out of the root.
	return filepath.Join(s.rootDir, url.PathEscape(key)+".json")
}

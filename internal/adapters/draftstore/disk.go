package draftstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// File permissions for draft files and their directory.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// DiskStore keeps one JSON file per draft key under a directory. Writes go
// through a temp file and rename so a crash mid-write never leaves a
// half-written draft behind.
type DiskStore struct {
	dir string
}

// Option applies a configuration option to the DiskStore.
type Option func(*DiskStore)

// WithDir sets the draft directory.
func WithDir(dir string) Option {
	return func(s *DiskStore) {
		if dir != "" {
			s.dir = dir
		}
	}
}

// NewDiskStore creates a disk-backed draft store.
func NewDiskStore(opts ...Option) *DiskStore {
	s := &DiskStore{dir: "drafts"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get reads the draft for key. Any read failure reports absence; the caller
// falls back to a fresh session (fail-safe, not fail-fatal).
func (s *DiskStore) Get(_ context.Context, key string) ([]byte, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Set durably replaces the draft for key.
func (s *DiskStore) Set(_ context.Context, key string, snapshot []byte) error {
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return fmt.Errorf("create draft dir: %w", err)
	}
	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, "draft-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp draft: %w", err)
	}
	if _, err := tmp.Write(snapshot); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write draft: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close draft: %w", err)
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod draft: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("publish draft: %w", err)
	}
	return nil
}

// Clear removes the draft for key.
func (s *DiskStore) Clear(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

// path hashes the key so arbitrary draft keys map to safe filenames.
func (s *DiskStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+".json")
}

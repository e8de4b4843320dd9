package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File permissions for stored blobs.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FSStore stores blobs on the local filesystem under a root directory and
// serves them under a base URL.
type FSStore struct {
	root    string
	baseURL string
}

// Option applies a configuration option to the FSStore.
type Option func(*FSStore)

// WithRoot sets the storage root directory.
func WithRoot(root string) Option {
	return func(s *FSStore) {
		if root != "" {
			s.root = root
		}
	}
}

// WithBaseURL sets the public URL prefix returned in refs.
func WithBaseURL(u string) Option {
	return func(s *FSStore) {
		if u != "" {
			s.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// NewFSStore creates a filesystem-backed blob store.
func NewFSStore(opts ...Option) *FSStore {
	s := &FSStore{root: "media", baseURL: "/media"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload writes the blob to root/path via temp file and rename. The write is
// abandoned when ctx is cancelled before publishing.
func (s *FSStore) Upload(ctx context.Context, path string, r io.Reader) (Ref, error) {
	clean := filepath.ToSlash(filepath.Clean(path))
	if clean == "" || clean == "." || strings.HasPrefix(clean, "..") {
		return Ref{}, fmt.Errorf("upload %q: %w", path, ErrEmptyPath)
	}
	dst := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return Ref{}, fmt.Errorf("create blob dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return Ref{}, fmt.Errorf("create temp blob: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return Ref{}, fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return Ref{}, fmt.Errorf("close blob: %w", err)
	}
	if err := ctx.Err(); err != nil {
		os.Remove(tmp.Name())
		return Ref{}, fmt.Errorf("upload cancelled: %w", err)
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		os.Remove(tmp.Name())
		return Ref{}, fmt.Errorf("chmod blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return Ref{}, fmt.Errorf("publish blob: %w", err)
	}
	return Ref{URL: s.baseURL + "/" + clean, Path: clean}, nil
}

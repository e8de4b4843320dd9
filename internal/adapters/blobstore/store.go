// Package blobstore defines durable blob storage for finalized media.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// Sentinel kinds for blob storage errors.
var (
	ErrEmptyPath = errors.New("blob path must not be empty")
)

// Ref is the stable reference an upload returns.
type Ref struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Store accepts independent concurrent uploads. No transactional guarantee
// exists beyond per-call success or failure; batch atomicity is the upload
// orchestrator's job.
type Store interface {
	// Upload durably stores the blob under path and returns its reference.
	Upload(ctx context.Context, path string, r io.Reader) (Ref, error)
}

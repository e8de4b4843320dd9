// Package draftstore defines local durable key-value persistence for
// in-progress capture session drafts.
package draftstore

import "context"

// Store survives process restarts so a reload can resume an assessment.
// Implementations must treat Set as last-write-wins for a key.
type Store interface {
	// Get returns the stored snapshot for key. ok is false when no draft
	// exists or the stored bytes are unreadable.
	Get(ctx context.Context, key string) (snapshot []byte, ok bool)

	// Set durably stores snapshot under key, replacing any prior value.
	Set(ctx context.Context, key string, snapshot []byte) error

	// Clear removes the draft for key. Clearing a missing key is not an
	// error.
	Clear(ctx context.Context, key string) error
}

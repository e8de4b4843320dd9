package app

import (
	"context"
	"sync"
	"time"

	"github.com/kinesia/capture/internal/adapters/draftstore"
	"github.com/kinesia/capture/pkg/logger"
	"github.com/kinesia/capture/pkg/metrics"
)

// autosaver debounces draft writes for one session. Each mutation replaces
// the pending snapshot and restarts the single trailing timer, so only the
// most recent snapshot at the end of a quiet window reaches the store and
// intermediate states collapse. Writes for one session never interleave.
type autosaver struct {
	store draftstore.Store
	key   string
	delay time.Duration
	log   logger.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending []byte
	seq     uint64
	stopped bool

	// writeMu serializes store writes; written is the highest snapshot
	// sequence handed to the store, guarded by writeMu. A slow write from an
	// earlier window must never land over a newer one.
	writeMu sync.Mutex
	written uint64
}

func newAutosaver(store draftstore.Store, key string, delay time.Duration, log logger.Logger) *autosaver {
	return &autosaver{store: store, key: key, delay: delay, log: log}
}

// schedule arms the trailing write with the latest snapshot, superseding any
// pending one.
func (a *autosaver) schedule(snapshot []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.pending = snapshot
	a.seq++
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *autosaver) fire() {
	a.mu.Lock()
	snapshot, seq := a.pending, a.seq
	a.pending = nil
	stopped := a.stopped
	a.mu.Unlock()
	if stopped || snapshot == nil {
		return
	}
	a.write(snapshot, seq)
}

// flush writes any pending snapshot immediately, cancelling the timer.
func (a *autosaver) flush() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	snapshot, seq := a.pending, a.seq
	a.pending = nil
	a.mu.Unlock()
	if snapshot != nil {
		a.write(snapshot, seq)
	}
}

// stop cancels the timer and drops any pending snapshot.
func (a *autosaver) stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
	}
}

func (a *autosaver) write(snapshot []byte, seq uint64) {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	if seq <= a.written {
		// A newer snapshot already reached the store; this one is stale.
		return
	}
	a.written = seq

	ctx := context.Background()
	start := time.Now()
	if err := a.store.Set(ctx, a.key, snapshot); err != nil {
		metrics.RecordAutosaveError()
		a.log.Warn(ctx, "draft autosave failed",
			logger.String("draftKey", a.key),
			logger.Error(err),
		)
		return
	}
	metrics.RecordAutosave(float64(time.Since(start).Milliseconds()))
}

// Package app wires the capture wizard, annotation surface, measurement
// engine, draft autosave and submission pipeline behind one service facade
// consumed by the HTTP API.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/kinesia/capture/internal/adapters/blobstore"
	"github.com/kinesia/capture/internal/adapters/directory"
	"github.com/kinesia/capture/internal/adapters/draftstore"
	"github.com/kinesia/capture/internal/adapters/recordstore"
	"github.com/kinesia/capture/internal/domain/annotate"
	"github.com/kinesia/capture/internal/domain/landmark"
	"github.com/kinesia/capture/internal/domain/measure"
	"github.com/kinesia/capture/internal/domain/session"
	"github.com/kinesia/capture/internal/media"
	"github.com/kinesia/capture/internal/upload"
	"github.com/kinesia/capture/pkg/logger"
	"github.com/kinesia/capture/pkg/metrics"
)

// Default service tunables.
const (
	defaultDebounce    = 400 * time.Millisecond
	defaultStagingDir  = "data/staging"
	defaultMaxUpload   = 64 << 20
	defaultGuardTTL    = 30 * time.Second
	guardSweepInterval = time.Minute
	stagingDirPerm     = 0o755
)

// openSession bundles one session with its ephemeral annotation surface and
// its autosaver. The surface's gesture state is UI-scoped and never
// serialized with the draft.
type openSession struct {
	mu      sync.Mutex
	sess    *session.Session
	surface *annotate.Surface
	saver   *autosaver
}

// Service implements the capture pipeline operations behind the HTTP API.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*openSession

	drafts  draftstore.Store
	blobs   blobstore.Store
	records recordstore.Store
	targets directory.Directory
	engine  *measure.Engine
	orch    *upload.Orchestrator
	guard   *gocache.Cache

	gate              session.Gate
	debounce          time.Duration
	stagingDir        string
	maxUpload         int64
	uploadConcurrency int
	guardTTL          time.Duration
	log               logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDebounce sets the autosave trailing debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithGate sets the media-minimum gate applied to new sessions.
func WithGate(g session.Gate) Option {
	return func(s *Service) { s.gate = g }
}

// WithEngine sets the measurement engine.
func WithEngine(e *measure.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithStagingDir sets where captured media is staged before submission.
func WithStagingDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.stagingDir = dir
		}
	}
}

// WithMaxUploadBytes caps a single captured media item.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithUploadConcurrency bounds the submission fan-out width.
func WithUploadConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.uploadConcurrency = n
		}
	}
}

// WithSubmitGuardTTL sets how long a session id blocks double-submission.
func WithSubmitGuardTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.guardTTL = d
		}
	}
}

// New creates the service over its storage and directory collaborators.
func New(drafts draftstore.Store, blobs blobstore.Store, records recordstore.Store, targets directory.Directory, opts ...Option) *Service {
	s := &Service{
		sessions:          make(map[string]*openSession),
		drafts:            drafts,
		blobs:             blobs,
		records:           records,
		targets:           targets,
		engine:            measure.NewEngine(),
		gate:              session.NewGate(),
		debounce:          defaultDebounce,
		stagingDir:        defaultStagingDir,
		maxUpload:         defaultMaxUpload,
		guardTTL:          defaultGuardTTL,
		uploadConcurrency: 0,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("capture")
	}
	orchOpts := []upload.Option{upload.WithLogger(s.log)}
	if s.uploadConcurrency > 0 {
		orchOpts = append(orchOpts, upload.WithConcurrency(s.uploadConcurrency))
	}
	s.orch = upload.New(blobs, records, s.engine, orchOpts...)
	s.guard = gocache.New(s.guardTTL, guardSweepInterval)
	return s
}

// Open creates a fresh session or resumes the caller's stored draft. A draft
// is resumed only when no explicit target is passed; passing a target means
// the operator deliberately started over for that subject.
func (s *Service) Open(ctx context.Context, who upload.Principal, explicitTarget string) (*Snapshot, error) {
	key := draftKey(who)
	if explicitTarget == "" {
		if snap, ok := s.drafts.Get(ctx, key); ok {
			if resumed, err := s.resume(ctx, key, snap); err == nil {
				metrics.RecordDraftRecovered()
				return resumed, nil
			}
			// Malformed draft: discard and fall through to a fresh
			// session rather than failing the open.
			metrics.RecordDraftDiscarded()
			s.log.Warn(ctx, "discarding malformed draft", logger.String("draftKey", key))
			_ = s.drafts.Clear(ctx, key)
		}
	}

	if explicitTarget != "" {
		if _, err := s.targets.Get(ctx, explicitTarget); err != nil {
			return nil, fmt.Errorf("open: %w: %w", ErrUnknownTarget, err)
		}
	}

	sess := session.New(uuid.NewString(), s.gate)
	if explicitTarget != "" {
		_ = sess.SetTarget(explicitTarget)
	}
	open := s.register(key, sess)
	metrics.RecordSessionCreated()
	s.log.Info(ctx, "session opened",
		logger.String("sessionID", sess.ID),
		logger.String("targetID", explicitTarget),
	)
	return s.snapshotOf(open), nil
}

func (s *Service) resume(ctx context.Context, key string, raw []byte) (*Snapshot, error) {
	var sess session.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	restored, err := session.Rehydrate(&sess, s.gate)
	if err != nil {
		return nil, err
	}
	open := s.register(key, restored)
	s.log.Info(ctx, "session resumed from draft",
		logger.String("sessionID", restored.ID),
		logger.String("step", restored.Step.String()),
	)
	return s.snapshotOf(open), nil
}

func (s *Service) register(draftKey string, sess *session.Session) *openSession {
	open := &openSession{
		sess:  sess,
		saver: newAutosaver(s.drafts, draftKey, s.debounce, s.log),
	}
	open.surface = annotate.NewSurface(placeSink{open: open})
	s.mu.Lock()
	s.sessions[sess.ID] = open
	active := len(s.sessions)
	s.mu.Unlock()
	metrics.UpdateSessionsActive(active)
	return open
}

// placeSink adapts the session's update API to the annotation surface's
// sink contract. Rejected ids (not part of the view's landmark set) are
// dropped; the surface has no use for the error.
type placeSink struct {
	open *openSession
}

func (p placeSink) PlaceLandmark(viewID, landmarkID string, x, y float64) {
	if err := p.open.sess.PlaceLandmark(viewID, landmarkID, x, y); err == nil {
		metrics.RecordLandmarkPlaced()
	}
}

// Get returns the current snapshot of a session.
func (s *Service) Get(_ context.Context, sessionID string) (*Snapshot, error) {
	open, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	open.mu.Lock()
	defer open.mu.Unlock()
	return s.snapshotLocked(open), nil
}

// SetTarget selects the assessment target.
func (s *Service) SetTarget(ctx context.Context, sessionID, targetID string) (*Snapshot, error) {
	if _, err := s.targets.Get(ctx, targetID); err != nil {
		return nil, fmt.Errorf("set target: %w: %w", ErrUnknownTarget, err)
	}
	return s.mutate(sessionID, func(open *openSession) error {
		return open.sess.SetTarget(targetID)
	})
}

// ChooseKind picks the assessment kind; the wizard auto-advances to capture.
// Staged files for media the kind change dropped are removed.
func (s *Service) ChooseKind(_ context.Context, sessionID string, kind landmark.Kind) (*Snapshot, error) {
	var orphaned []string
	snap, err := s.mutate(sessionID, func(open *openSession) error {
		before := open.sess.Media
		if err := open.sess.ChooseKind(kind); err != nil {
			return err
		}
		kept := make(map[string]struct{}, len(open.sess.Media))
		for _, m := range open.sess.Media {
			kept[m.ID] = struct{}{}
		}
		for _, m := range before {
			if _, ok := kept[m.ID]; ok {
				continue
			}
			if m.LocalPath != "" {
				orphaned = append(orphaned, m.LocalPath)
			}
			if m.ThumbPath != "" {
				orphaned = append(orphaned, m.ThumbPath)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, p := range orphaned {
		os.Remove(p)
	}
	return snap, nil
}

// Next advances the wizard one step; gated by the current step's predicate.
func (s *Service) Next(_ context.Context, sessionID string) (*Snapshot, error) {
	snap, err := s.mutate(sessionID, func(open *openSession) error {
		return open.sess.Next()
	})
	if err == nil {
		metrics.RecordStepTransition("next")
	}
	return snap, err
}

// Back navigates to a prior step.
func (s *Service) Back(_ context.Context, sessionID string, to session.Step) (*Snapshot, error) {
	snap, err := s.mutate(sessionID, func(open *openSession) error {
		return open.sess.Back(to)
	})
	if err == nil {
		metrics.RecordStepTransition("back")
	}
	return snap, err
}

// SetNote stores a named free-text note.
func (s *Service) SetNote(_ context.Context, sessionID, key, text string) (*Snapshot, error) {
	return s.mutate(sessionID, func(open *openSession) error {
		return open.sess.SetNote(key, text)
	})
}

// AddMedia stages a captured media payload locally and records it on the
// session. Still photos get a preview thumbnail alongside the staged file.
func (s *Service) AddMedia(ctx context.Context, sessionID, filename string, role session.MediaRole, angle string, data []byte) (*Snapshot, error) {
	if int64(len(data)) > s.maxUpload {
		return nil, fmt.Errorf("media %q: %w", filename, ErrMediaTooLarge)
	}
	info, err := media.Probe(filename, data)
	if err != nil {
		return nil, err
	}

	mediaID := uuid.NewString()
	staged, err := s.stage(sessionID, mediaID, filename, data)
	if err != nil {
		return nil, err
	}

	item := session.Media{
		ID:        mediaID,
		Filename:  filename,
		Role:      role,
		Angle:     angle,
		LocalPath: staged,
	}
	if !info.Video {
		if thumb, terr := media.Thumbnail(data); terr == nil {
			thumbPath := staged + ".thumb.jpg"
			if werr := os.WriteFile(thumbPath, thumb, 0o644); werr == nil {
				item.ThumbPath = thumbPath
			}
		}
	}

	snap, err := s.mutate(sessionID, func(open *openSession) error {
		return open.sess.AddMedia(item)
	})
	if err != nil {
		os.Remove(staged)
		return nil, err
	}
	s.log.Debug(ctx, "media staged",
		logger.String("sessionID", sessionID),
		logger.String("mediaID", mediaID),
		logger.String("format", info.Format),
	)
	return snap, nil
}

func (s *Service) stage(sessionID, mediaID, filename string, data []byte) (string, error) {
	dir := filepath.Join(s.stagingDir, sessionID)
	if err := os.MkdirAll(dir, stagingDirPerm); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	path := filepath.Join(dir, mediaID+"_"+filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("stage media: %w", err)
	}
	return path, nil
}

// RemoveMedia drops a pending media item and its staged files.
func (s *Service) RemoveMedia(_ context.Context, sessionID, mediaID string) (*Snapshot, error) {
	var staged, thumb string
	snap, err := s.mutate(sessionID, func(open *openSession) error {
		for _, m := range open.sess.Media {
			if m.ID == mediaID {
				staged, thumb = m.LocalPath, m.ThumbPath
				break
			}
		}
		return open.sess.RemoveMedia(mediaID)
	})
	if err != nil {
		return nil, err
	}
	if staged != "" {
		os.Remove(staged)
	}
	if thumb != "" {
		os.Remove(thumb)
	}
	return snap, nil
}

// PointerEvent is one gesture input over a view.
type PointerEvent struct {
	Type       string  `json:"type"` // select | down | move | up | click | cancel
	LandmarkID string  `json:"landmark_id,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
}

// Pointer feeds one pointer event into the view's annotation surface.
func (s *Service) Pointer(_ context.Context, sessionID, viewID string, ev PointerEvent) (*Snapshot, error) {
	return s.mutate(sessionID, func(open *openSession) error {
		if open.surface.ViewID() != viewID {
			if _, ok := open.sess.View(viewID); !ok {
				return fmt.Errorf("view %q: %w", viewID, session.ErrUnknownView)
			}
			open.surface.SetView(viewID)
		}
		vp := annotate.Viewport{Width: ev.Width, Height: ev.Height}
		switch ev.Type {
		case "select":
			open.surface.SelectLandmark(ev.LandmarkID)
			return nil
		case "down":
			return open.surface.PointerDown(ev.LandmarkID)
		case "move":
			return open.surface.PointerMove(ev.X, ev.Y, vp)
		case "up":
			return open.surface.PointerUp()
		case "click":
			return open.surface.ClickAt(ev.X, ev.Y, vp)
		case "cancel":
			open.surface.EndGesture()
			return nil
		}
		return fmt.Errorf("pointer type %q: %w", ev.Type, ErrBadGesture)
	})
}

// ViewMeasurements pairs a view with its derived measurements.
type ViewMeasurements struct {
	ViewID       string                `json:"view_id"`
	Complete     bool                  `json:"complete"`
	Measurements []measure.Measurement `json:"measurements"`
}

// Measurements derives the current measurements for every view. Derivation
// is recomputed on demand; nothing is cached.
func (s *Service) Measurements(_ context.Context, sessionID string) ([]ViewMeasurements, error) {
	open, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	open.mu.Lock()
	defer open.mu.Unlock()

	start := time.Now()
	out := make([]ViewMeasurements, 0, len(open.sess.Views))
	for _, v := range open.sess.Views {
		out = append(out, ViewMeasurements{
			ViewID:       v.ID,
			Complete:     open.sess.ViewComplete(v.ID),
			Measurements: s.engine.ForView(v),
		})
	}
	metrics.RecordMeasureLatency(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// Submit runs the upload batch and writes the assessment record. The draft
// is cleared only after the batch fully succeeds; on failure it is retained
// so a retry loses no work. A retry is operator-initiated and mints a fresh
// assessment id.
func (s *Service) Submit(ctx context.Context, sessionID string, who upload.Principal) (recordstore.Assessment, error) {
	open, err := s.lookup(sessionID)
	if err != nil {
		return recordstore.Assessment{}, err
	}

	if gerr := s.guard.Add(sessionID, struct{}{}, gocache.DefaultExpiration); gerr != nil {
		return recordstore.Assessment{}, fmt.Errorf("submit %s: %w", sessionID, ErrSubmitInFlight)
	}

	open.mu.Lock()
	defer open.mu.Unlock()

	if open.sess.Step != session.StepReviewMeasurements {
		s.guard.Delete(sessionID)
		return recordstore.Assessment{}, fmt.Errorf("submit at step %s: %w", open.sess.Step, ErrNotReady)
	}

	rec, err := s.orch.Submit(ctx, open.sess, who)
	if err != nil {
		// Draft stays; the operator retries the whole batch.
		s.guard.Delete(sessionID)
		return recordstore.Assessment{}, err
	}

	open.sess.MarkSubmitted()
	// The step check blocks repeat submissions from here on; release the
	// guard so they fail with the not-ready error rather than in-flight.
	s.guard.Delete(sessionID)
	open.saver.stop()
	if cerr := s.drafts.Clear(ctx, open.saver.key); cerr != nil {
		s.log.Warn(ctx, "draft clear failed after submission", logger.Error(cerr))
	}
	s.cleanupStaging(sessionID)
	return rec, nil
}

func (s *Service) cleanupStaging(sessionID string) {
	os.RemoveAll(filepath.Join(s.stagingDir, sessionID))
}

// Targets lists the selectable assessment targets.
func (s *Service) Targets(ctx context.Context) ([]directory.Target, error) {
	return s.targets.List(ctx)
}

// Assessment returns a stored assessment record.
func (s *Service) Assessment(ctx context.Context, id string) (recordstore.Assessment, error) {
	return s.records.Get(ctx, id)
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	active := len(s.sessions)
	s.mu.RUnlock()
	return map[string]any{
		"activeSessions": active,
		"assessments":    s.records.Count(ctx),
	}
}

// Close flushes pending drafts and stops all autosavers.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, open := range s.sessions {
		open.saver.flush()
		open.saver.stop()
	}
}

// mutate runs fn under the session lock and, on success, schedules the
// debounced draft write with the fresh snapshot.
func (s *Service) mutate(sessionID string, fn func(*openSession) error) (*Snapshot, error) {
	open, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	open.mu.Lock()
	defer open.mu.Unlock()
	if err := fn(open); err != nil {
		return nil, err
	}
	if raw, merr := json.Marshal(open.sess); merr == nil {
		open.saver.schedule(raw)
	}
	return s.snapshotLocked(open), nil
}

func (s *Service) lookup(sessionID string) (*openSession, error) {
	s.mu.RLock()
	open, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %q: %w", sessionID, ErrSessionNotFound)
	}
	return open, nil
}

func draftKey(who upload.Principal) string {
	if who.UserID == "" {
		return "draft:anonymous"
	}
	return "draft:" + who.OrganisationID + ":" + who.UserID
}

// Snapshot is the wire-facing session view returned by every operation.
type Snapshot struct {
	ID           string            `json:"id"`
	TargetID     string            `json:"target_id,omitempty"`
	Kind         landmark.Kind     `json:"kind,omitempty"`
	Step         string            `json:"step"`
	NextDisabled bool              `json:"next_disabled"`
	Views        []ViewSnapshot    `json:"views"`
	Media        []session.Media   `json:"media"`
	Notes        map[string]string `json:"notes"`
	Revision     int64             `json:"revision"`
	ActiveDrag   string            `json:"active_drag,omitempty"`
	ActiveSelect string            `json:"active_select,omitempty"`
}

// ViewSnapshot is one view plus its completeness affordance.
type ViewSnapshot struct {
	landmark.View
	Complete bool `json:"complete"`
}

func (s *Service) snapshotOf(open *openSession) *Snapshot {
	open.mu.Lock()
	defer open.mu.Unlock()
	return s.snapshotLocked(open)
}

func (s *Service) snapshotLocked(open *openSession) *Snapshot {
	sess := open.sess
	views := make([]ViewSnapshot, len(sess.Views))
	for i, v := range sess.Views {
		views[i] = ViewSnapshot{View: v, Complete: sess.ViewComplete(v.ID)}
	}
	return &Snapshot{
		ID:           sess.ID,
		TargetID:     sess.TargetID,
		Kind:         sess.Kind,
		Step:         sess.Step.String(),
		NextDisabled: sess.NextDisabled(),
		Views:        views,
		Media:        sess.Media,
		Notes:        sess.Notes,
		Revision:     sess.Revision,
		ActiveDrag:   open.surface.Dragging(),
		ActiveSelect: open.surface.ActiveLandmark(),
	}
}

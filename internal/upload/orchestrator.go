// Package upload turns a finalized capture session into one durable
// assessment record.
//
// Every media blob in the batch uploads concurrently; the record is written
// only after every upload succeeds. A single failure fails the whole
// submission, cancels the in-flight siblings, and leaves no partial record
// behind, so the retained local draft stays resubmittable.
package upload

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kinesia/capture/internal/adapters/blobstore"
	"github.com/kinesia/capture/internal/adapters/recordstore"
	"github.com/kinesia/capture/internal/domain/landmark"
	"github.com/kinesia/capture/internal/domain/measure"
	"github.com/kinesia/capture/internal/domain/session"
	"github.com/kinesia/capture/pkg/logger"
	"github.com/kinesia/capture/pkg/metrics"
)

// Default fan-out width.
const defaultConcurrency = 4

// Orchestrator owns the submission pipeline.
type Orchestrator struct {
	blobs       blobstore.Store
	records     recordstore.Store
	engine      *measure.Engine
	concurrency int
	now         func() time.Time
	log         logger.Logger
}

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithConcurrency bounds how many blobs upload at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// New creates an orchestrator writing blobs and records through the given
// stores and deriving the metrics summary with engine.
func New(blobs blobstore.Store, records recordstore.Store, engine *measure.Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		blobs:       blobs,
		records:     records,
		engine:      engine,
		concurrency: defaultConcurrency,
		now:         time.Now,
		log:         logger.Get().Named("upload"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Principal identifies who submits, read from the request context.
type Principal struct {
	UserID         string
	OrganisationID string
}

// uploaded pairs a media item with its returned reference.
type uploaded struct {
	media session.Media
	ref   blobstore.Ref
}

// Submit uploads every pending blob and writes the assessment record.
// The assessment id is minted fresh here; a retried submission mints a new
// one, so a retry never collides with a half-finished earlier attempt.
func (o *Orchestrator) Submit(ctx context.Context, sess *session.Session, who Principal) (recordstore.Assessment, error) {
	assessmentID := uuid.NewString()
	start := o.now()

	results := make([]uploaded, len(sess.Media))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, m := range sess.Media {
		g.Go(func() error {
			ref, err := o.uploadOne(gctx, sess.TargetID, assessmentID, m)
			if err != nil {
				return err
			}
			results[i] = uploaded{media: m, ref: ref}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.RecordSubmission("failed")
		o.log.Error(ctx, "submission batch failed",
			logger.String("sessionID", sess.ID),
			logger.String("assessmentID", assessmentID),
			logger.Error(err),
		)
		return recordstore.Assessment{}, fmt.Errorf("upload batch: %w", err)
	}

	rec := o.assemble(sess, assessmentID, who, results)
	if err := o.records.Create(ctx, rec); err != nil {
		metrics.RecordSubmission("failed")
		return recordstore.Assessment{}, fmt.Errorf("create record: %w", err)
	}
	if err := o.records.UpdateTargetSummary(ctx, sess.TargetID, recordstore.TargetSummaryPatch{
		LastAssessmentID: assessmentID,
		LastAssessmentAt: rec.CreatedAt,
	}); err != nil {
		// The record exists; the rollup is denormalized convenience data.
		o.log.Warn(ctx, "target summary update failed",
			logger.String("targetID", sess.TargetID),
			logger.Error(err),
		)
	}

	metrics.RecordSubmission("success")
	metrics.RecordSubmissionLatency(float64(o.now().Sub(start).Milliseconds()))
	o.log.Info(ctx, "assessment submitted",
		logger.String("assessmentID", assessmentID),
		logger.String("targetID", sess.TargetID),
		logger.Int("mediaCount", len(sess.Media)),
	)
	return rec, nil
}

// uploadOne streams a single staged file into the blob store under the
// deterministic path {targetID}/{assessmentID}/{subfolder}/{filename}.
func (o *Orchestrator) uploadOne(ctx context.Context, targetID, assessmentID string, m session.Media) (blobstore.Ref, error) {
	metrics.UploadStarted()
	defer metrics.UploadFinished()

	if m.LocalPath == "" {
		return blobstore.Ref{}, fmt.Errorf("media %s: %w", m.ID, ErrMissingBlob)
	}
	f, err := os.Open(m.LocalPath)
	if err != nil {
		return blobstore.Ref{}, fmt.Errorf("media %s: %w: %w", m.ID, ErrMissingBlob, err)
	}
	defer f.Close()

	path := BlobPath(targetID, assessmentID, m)
	ref, err := o.blobs.Upload(ctx, path, f)
	if err != nil {
		metrics.RecordUploadError()
		return blobstore.Ref{}, fmt.Errorf("upload %s: %w", path, err)
	}
	return ref, nil
}

// BlobPath derives the storage path for one media item.
func BlobPath(targetID, assessmentID string, m session.Media) string {
	return targetID + "/" + assessmentID + "/" + Subfolder(m.Role) + "/" + m.Filename
}

// Subfolder maps a media role to its storage subfolder.
func Subfolder(role session.MediaRole) string {
	switch role {
	case session.RoleGroundVideo:
		return "ground-video"
	case session.RoleTreadmillVideo:
		return "treadmill-video"
	case session.RoleFrame:
		return "frames"
	case session.RolePhoto:
		return "photos"
	}
	return "photos"
}

// assemble builds the terminal record from the session and upload results.
func (o *Orchestrator) assemble(sess *session.Session, assessmentID string, who Principal, ups []uploaded) recordstore.Assessment {
	var set recordstore.MediaSet
	for _, u := range ups {
		item := recordstore.MediaItem{Angle: u.media.Angle, URL: u.ref.URL, Path: u.ref.Path}
		switch {
		case u.media.Role == session.RoleFrame:
			set.Frames = append(set.Frames, item)
		case u.media.Role.Valid() && u.media.Role != session.RolePhoto:
			set.Videos = append(set.Videos, item)
		default:
			set.Photos = append(set.Photos, item)
		}
	}

	annotations := make(map[string][]landmark.Landmark, len(sess.Views))
	perView := make(map[string]string, len(sess.Views))
	worst := measure.StatusOptimal
	for _, v := range sess.Views {
		annotations[v.ID] = v.Landmarks
		ms := o.engine.ForView(v)
		status := measure.Summarize(ms)
		perView[v.ID] = string(status)
		if status == measure.StatusDeviation || (status == measure.StatusWarning && worst == measure.StatusOptimal) {
			worst = status
		}
	}

	notes := make(map[string]string, len(sess.Notes))
	for k, v := range sess.Notes {
		notes[k] = v
	}

	return recordstore.Assessment{
		ID:             assessmentID,
		TargetID:       sess.TargetID,
		Kind:           sess.Kind,
		Status:         recordstore.StatusSubmitted,
		Media:          set,
		Annotations:    annotations,
		Notes:          notes,
		Metrics:        recordstore.MetricsSummary{Overall: string(worst), PerView: perView},
		CreatedBy:      who.UserID,
		OrganisationID: who.OrganisationID,
		CreatedAt:      o.now().UTC(),
	}
}

// Package recordstore defines the durable store for finalized assessment
// records.
package recordstore

import (
	"context"
	"time"

	"github.com/kinesia/capture/internal/domain/landmark"
)

// Assessment lifecycle states.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusFinal     = "final"
)

// MediaItem references one uploaded media object.
type MediaItem struct {
	Angle string `json:"angle,omitempty"`
	URL   string `json:"url"`
	Path  string `json:"path"`
}

// MediaSet groups uploaded media by role.
type MediaSet struct {
	Photos []MediaItem `json:"photos,omitempty"`
	Videos []MediaItem `json:"videos,omitempty"`
	Frames []MediaItem `json:"frames,omitempty"`
}

// MetricsSummary is the denormalized measurement digest stored with the
// record; full measurements are always recomputed from annotations.
type MetricsSummary struct {
	Overall string            `json:"overall"`
	PerView map[string]string `json:"per_view,omitempty"`
}

// Assessment is the terminal server-durable artifact of one submission.
// The capture session is its sole writer until submission; afterwards it is
// owned by downstream review collaborators.
type Assessment struct {
	ID             string                         `json:"id"`
	TargetID       string                         `json:"target_id"`
	Kind           landmark.Kind                  `json:"kind"`
	Status         string                         `json:"status"`
	Media          MediaSet                       `json:"media"`
	Annotations    map[string][]landmark.Landmark `json:"annotations"`
	Notes          map[string]string              `json:"notes,omitempty"`
	Metrics        MetricsSummary                 `json:"metrics_summary"`
	CreatedBy      string                         `json:"created_by,omitempty"`
	OrganisationID string                         `json:"organisation_id,omitempty"`
	CreatedAt      time.Time                      `json:"created_at"`
}

// TargetSummaryPatch bumps the denormalized per-target rollup fields.
type TargetSummaryPatch struct {
	LastAssessmentID string
	LastAssessmentAt time.Time
}

// TargetSummary is the rolled-up assessment state of one target.
type TargetSummary struct {
	TargetID         string    `json:"target_id"`
	AssessmentCount  int       `json:"assessment_count"`
	LastAssessmentID string    `json:"last_assessment_id,omitempty"`
	LastAssessmentAt time.Time `json:"last_assessment_at,omitempty"`
}

// Store provides durable assessment record persistence.
type Store interface {
	// Create writes a record exactly once. Returns ErrExists on id reuse.
	Create(ctx context.Context, rec Assessment) error

	// Get returns a record by id. Returns ErrNotFound when unknown.
	Get(ctx context.Context, id string) (Assessment, error)

	// UpdateTargetSummary bumps the denormalized summary for a target.
	UpdateTargetSummary(ctx context.Context, targetID string, patch TargetSummaryPatch) error

	// Count returns the number of stored assessments.
	Count(ctx context.Context) int
}

package recordstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore implements Store with an in-memory map. It stands in for the
// real record backend behind the same contract.
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[string]Assessment
	summaries map[string]TargetSummary
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[string]Assessment),
		summaries: make(map[string]TargetSummary),
	}
}

// Create writes a record exactly once.
func (s *MemoryStore) Create(_ context.Context, rec Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("create %q: %w", rec.ID, ErrExists)
	}
	s.records[rec.ID] = rec
	return nil
}

// Get returns a record by id.
func (s *MemoryStore) Get(_ context.Context, id string) (Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Assessment{}, fmt.Errorf("get %q: %w", id, ErrNotFound)
	}
	return rec, nil
}

// UpdateTargetSummary bumps the denormalized rollup for a target.
func (s *MemoryStore) UpdateTargetSummary(_ context.Context, targetID string, patch TargetSummaryPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := s.summaries[targetID]
	sum.TargetID = targetID
	sum.AssessmentCount++
	if patch.LastAssessmentID != "" {
		sum.LastAssessmentID = patch.LastAssessmentID
		sum.LastAssessmentAt = patch.LastAssessmentAt
	}
	s.summaries[targetID] = sum
	return nil
}

// TargetSummaryFor returns the rollup for a target, zero when untracked.
func (s *MemoryStore) TargetSummaryFor(targetID string) TargetSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaries[targetID]
}

// Count returns the number of stored assessments.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

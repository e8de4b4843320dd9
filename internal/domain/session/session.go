// Package session implements the capture wizard state machine.
//
// A Session is the in-progress working state of one assessment. It is owned
// exclusively by the wizard layer for its whole lifetime; the annotation
// surface and the measurement engine only read it or propose changes through
// its update methods. Every landmark update produces a new landmarks slice,
// never an in-place mutation, so readers holding an older snapshot stay
// consistent.
package session

import (
	"fmt"

	"github.com/kinesia/capture/internal/domain/landmark"
)

// Default media minimums by kind family.
const (
	defaultPhotoMin = 1
	defaultVideoMin = 1
)

// Gate holds the per-kind media minimums used by forward gating.
type Gate struct {
	photoMin int
	videoMin int
}

// GateOption applies a configuration option to a Gate.
type GateOption func(*Gate)

// WithPhotoMinimum sets the media minimum for photo-based kinds.
func WithPhotoMinimum(n int) GateOption {
	return func(g *Gate) {
		if n > 0 {
			g.photoMin = n
		}
	}
}

// WithVideoMinimum sets the media minimum for motion kinds.
func WithVideoMinimum(n int) GateOption {
	return func(g *Gate) {
		if n > 0 {
			g.videoMin = n
		}
	}
}

// NewGate creates a gate with default minimums.
func NewGate(opts ...GateOption) Gate {
	g := Gate{photoMin: defaultPhotoMin, videoMin: defaultVideoMin}
	for _, opt := range opts {
		opt(&g)
	}
	return g
}

// Session is one in-progress assessment. Exported fields form the draft
// snapshot persisted by the autosaver; the gate is reference data and is
// re-attached on rehydration.
type Session struct {
	ID       string            `json:"id"`
	TargetID string            `json:"target_id"`
	Kind     landmark.Kind     `json:"kind,omitempty"`
	Step     Step              `json:"step"`
	Views    []landmark.View   `json:"views"`
	Media    []Media           `json:"media"`
	Notes    map[string]string `json:"notes"`
	Revision int64             `json:"revision"`

	gate Gate
}

// New creates a fresh session at the target-selection step.
func New(id string, gate Gate) *Session {
	return &Session{
		ID:    id,
		Step:  StepSelectTarget,
		Notes: map[string]string{},
		gate:  gate,
	}
}

// Rehydrate re-attaches reference data to a session restored from a draft
// snapshot. Malformed snapshots are rejected rather than repaired.
func Rehydrate(s *Session, gate Gate) (*Session, error) {
	if s == nil || s.ID == "" {
		return nil, fmt.Errorf("rehydrate: %w", ErrBadStep)
	}
	if s.Step < StepSelectTarget || s.Step > StepSubmitted {
		return nil, fmt.Errorf("rehydrate step %d: %w", s.Step, ErrBadStep)
	}
	if s.Kind != "" && !s.Kind.Valid() {
		return nil, fmt.Errorf("rehydrate kind %q: %w", s.Kind, ErrUnknownKind)
	}
	if s.Notes == nil {
		s.Notes = map[string]string{}
	}
	s.gate = gate
	return s, nil
}

// bump marks a mutation; the wizard layer watches Revision to schedule the
// debounced draft write.
func (s *Session) bump() { s.Revision++ }

// SetTarget selects the assessment target.
func (s *Session) SetTarget(targetID string) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.TargetID = targetID
	s.bump()
	return nil
}

// ChooseKind picks the assessment kind, seeds its views with unplaced
// landmarks, and auto-advances to capture. Media whose role does not belong
// to the chosen kind is dropped; retained frame media gets its frame view
// re-seeded.
func (s *Session) ChooseKind(k landmark.Kind) error {
	if err := s.mutable(); err != nil {
		return err
	}
	cfg, ok := landmark.ConfigFor(k)
	if !ok {
		return fmt.Errorf("kind %q: %w", k, ErrUnknownKind)
	}
	s.Kind = k
	kept := make([]Media, 0, len(s.Media))
	for _, m := range s.Media {
		if m.Role.fits(k) {
			kept = append(kept, m)
		}
	}
	s.Media = kept
	s.Views = nil
	for _, vs := range cfg.Views {
		if vs.ViewID == "frame" {
			// Motion frames materialize as media is added.
			continue
		}
		v, _ := cfg.NewView(vs.ViewID)
		s.Views = append(s.Views, v)
	}
	for i := 0; i < s.frameCount(); i++ {
		if v, ok := cfg.NewView(fmt.Sprintf("frame_%03d", i+1)); ok {
			s.Views = append(s.Views, v)
		}
	}
	if s.Step == StepChooseKind {
		s.Step = StepCaptureAnnotate
	}
	s.bump()
	return nil
}

// NextDisabled reports whether forward navigation from the current step is
// blocked. Annotation completeness is deliberately not required to leave the
// capture step; it is surfaced via ViewComplete only.
func (s *Session) NextDisabled() bool {
	switch s.Step {
	case StepSelectTarget:
		return s.TargetID == ""
	case StepChooseKind:
		return s.Kind == ""
	case StepCaptureAnnotate:
		return !s.mediaMinimumMet()
	case StepReviewMeasurements:
		return false
	case StepSubmitted:
		return true
	}
	return true
}

func (s *Session) mediaMinimumMet() bool {
	if s.Kind == "" {
		return false
	}
	var photos, videos int
	for _, m := range s.Media {
		if m.Role.video() {
			videos++
		} else {
			photos++
		}
	}
	if s.Kind.VideoBased() {
		return videos >= s.gate.videoMin
	}
	return photos >= s.gate.photoMin
}

// Next advances one step when the current step's predicate holds.
func (s *Session) Next() error {
	if err := s.mutable(); err != nil {
		return err
	}
	if s.NextDisabled() {
		return fmt.Errorf("step %s: %w", s.Step, ErrStepGated)
	}
	s.Step++
	s.bump()
	return nil
}

// Back navigates to any prior step without validation.
func (s *Session) Back(to Step) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if to < StepSelectTarget || to >= s.Step {
		return fmt.Errorf("back to %s from %s: %w", to, s.Step, ErrBadStep)
	}
	s.Step = to
	s.bump()
	return nil
}

// MarkSubmitted finalizes the session after a successful submission.
func (s *Session) MarkSubmitted() {
	s.Step = StepSubmitted
	s.bump()
}

// AddMedia records a captured media item. Frame media also materializes a
// new annotatable frame view.
func (s *Session) AddMedia(m Media) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if s.Kind == "" {
		return ErrNoKind
	}
	if !m.Role.Valid() {
		return fmt.Errorf("role %q: %w", m.Role, ErrUnknownMedia)
	}
	s.Media = append(append([]Media(nil), s.Media...), m)
	if m.Role == RoleFrame {
		cfg, _ := landmark.ConfigFor(s.Kind)
		frameID := fmt.Sprintf("frame_%03d", s.frameCount())
		if v, ok := cfg.NewView(frameID); ok {
			s.Views = append(append([]landmark.View(nil), s.Views...), v)
		}
	}
	s.bump()
	return nil
}

func (s *Session) frameCount() int {
	n := 0
	for _, m := range s.Media {
		if m.Role == RoleFrame {
			n++
		}
	}
	return n
}

// RemoveMedia drops a pending media item by id.
func (s *Session) RemoveMedia(mediaID string) error {
	if err := s.mutable(); err != nil {
		return err
	}
	for i, m := range s.Media {
		if m.ID == mediaID {
			out := make([]Media, 0, len(s.Media)-1)
			out = append(out, s.Media[:i]...)
			out = append(out, s.Media[i+1:]...)
			s.Media = out
			s.bump()
			return nil
		}
	}
	return fmt.Errorf("media %q: %w", mediaID, ErrUnknownMedia)
}

// SetNote stores a named free-text note.
func (s *Session) SetNote(key, text string) error {
	if err := s.mutable(); err != nil {
		return err
	}
	notes := make(map[string]string, len(s.Notes)+1)
	for k, v := range s.Notes {
		notes[k] = v
	}
	notes[key] = text
	s.Notes = notes
	s.bump()
	return nil
}

// PlaceLandmark places or moves a landmark on a view, copy-on-write. Only
// ids the kind's set config defines for the view are accepted.
func (s *Session) PlaceLandmark(viewID, landmarkID string, x, y float64) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if s.Kind == "" {
		return ErrNoKind
	}
	cfg, _ := landmark.ConfigFor(s.Kind)
	idx := -1
	for i := range s.Views {
		if s.Views[i].ID == viewID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("view %q: %w", viewID, ErrUnknownView)
	}
	allowed := false
	for _, id := range cfg.RequiredIDs(viewID) {
		if id == landmarkID {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("landmark %q on view %q: %w", landmarkID, viewID, ErrUnknownLandmark)
	}
	views := make([]landmark.View, len(s.Views))
	copy(views, s.Views)
	views[idx] = views[idx].Place(landmarkID, "", x, y)
	s.Views = views
	s.bump()
	return nil
}

// View returns a view by id.
func (s *Session) View(viewID string) (landmark.View, bool) {
	for _, v := range s.Views {
		if v.ID == viewID {
			return v, true
		}
	}
	return landmark.View{}, false
}

// ViewComplete reports whether every required landmark of the view has been
// placed. This drives the completeness affordance only; it never gates.
func (s *Session) ViewComplete(viewID string) bool {
	if s.Kind == "" {
		return false
	}
	cfg, _ := landmark.ConfigFor(s.Kind)
	v, ok := s.View(viewID)
	if !ok {
		return false
	}
	return v.IsComplete(cfg.RequiredIDs(viewID))
}

func (s *Session) mutable() error {
	if s.Step == StepSubmitted {
		return ErrAlreadyFinal
	}
	return nil
}

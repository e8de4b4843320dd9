package session

// Step is one wizard state. Transitions are linear going forward and free
// going back; forward movement is gated by the current step's completion
// predicate.
type Step int

// Wizard steps in order.
const (
	StepSelectTarget Step = iota
	StepChooseKind
	StepCaptureAnnotate
	StepReviewMeasurements
	StepSubmitted
)

// String returns the wire name of the step.
func (s Step) String() string {
	switch s {
	case StepSelectTarget:
		return "select_target"
	case StepChooseKind:
		return "choose_kind"
	case StepCaptureAnnotate:
		return "capture_annotate"
	case StepReviewMeasurements:
		return "review_measurements"
	case StepSubmitted:
		return "submitted"
	}
	return "unknown"
}

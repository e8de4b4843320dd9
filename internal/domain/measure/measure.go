// Package measure derives clinical measurements from placed landmarks.
//
// The engine is pure: the same landmark set always yields the same output,
// and a measurement whose inputs are not all placed is omitted entirely,
// never reported as zero. Output therefore grows monotonically as the
// operator places more landmarks.
package measure

import (
	"math"

	"github.com/kinesia/capture/internal/domain/landmark"
)

// Status classifies a measurement against its threshold band.
type Status string

// Classification bands.
const (
	StatusOptimal   Status = "optimal"
	StatusWarning   Status = "warning"
	StatusDeviation Status = "deviation"
)

// Measurement is one derived clinical metric. Measurements are recomputed on
// demand from landmarks and never persisted on their own.
type Measurement struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Status Status  `json:"status"`
}

// Default thresholds and scale observed in clinical use.
const (
	defaultTiltThresholdDeg = 2.0
	defaultShiftThreshold   = 5.0
	defaultTiltScale        = 0.5
	valuePrecision          = 10 // decimal places kept: 1
)

// Engine computes measurements for a view. Thresholds are configurable per
// deployment with the defaults above; the formulas themselves are fixed.
type Engine struct {
	tiltThresholdDeg float64
	shiftThreshold   float64
	tiltScale        float64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTiltThreshold sets the bilateral tilt warning threshold in degrees.
func WithTiltThreshold(deg float64) Option {
	return func(e *Engine) {
		if deg > 0 {
			e.tiltThresholdDeg = deg
		}
	}
}

// WithShiftThreshold sets the sagittal shift deviation threshold.
func WithShiftThreshold(units float64) Option {
	return func(e *Engine) {
		if units > 0 {
			e.shiftThreshold = units
		}
	}
}

// WithTiltScale sets the percent-to-degrees conversion factor for tilt rules.
func WithTiltScale(scale float64) Option {
	return func(e *Engine) {
		if scale > 0 {
			e.tiltScale = scale
		}
	}
}

// NewEngine creates an engine with default clinical thresholds.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		tiltThresholdDeg: defaultTiltThresholdDeg,
		shiftThreshold:   defaultShiftThreshold,
		tiltScale:        defaultTiltScale,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// rule maps a pair of semantic landmark ids to one measurement.
type rule struct {
	label   string
	leftID  string
	rightID string
	kind    ruleKind
}

type ruleKind int

const (
	ruleTilt ruleKind = iota
	ruleShift
)

// Rules are keyed by view id, with motion frames sharing the sagittal set.
var frontBackRules = []rule{
	{label: "Shoulder Tilt", leftID: landmark.ShoulderLeft, rightID: landmark.ShoulderRight, kind: ruleTilt},
	{label: "Pelvic Tilt", leftID: landmark.PelvisLeft, rightID: landmark.PelvisRight, kind: ruleTilt},
	{label: "Knee Height Delta", leftID: landmark.KneeLeft, rightID: landmark.KneeRight, kind: ruleTilt},
}

var sagittalRules = []rule{
	{label: "Forward Head Shift", leftID: landmark.Ear, rightID: landmark.C7, kind: ruleShift},
	{label: "Trunk Lean", leftID: landmark.C7, rightID: landmark.Hip, kind: ruleShift},
	{label: "Hip-Ankle Shift", leftID: landmark.Hip, rightID: landmark.Ankle, kind: ruleShift},
}

func rulesFor(viewID string) []rule {
	switch viewID {
	case "front", "back":
		return frontBackRules
	case "left", "right":
		return sagittalRules
	}
	if len(viewID) > 5 && viewID[:5] == "frame" {
		return sagittalRules
	}
	return nil
}

// ForView derives all measurements whose inputs are fully placed in the view.
func (e *Engine) ForView(v landmark.View) []Measurement {
	rules := rulesFor(v.ID)
	out := make([]Measurement, 0, len(rules))
	for _, r := range rules {
		a, okA := v.Placed(r.leftID)
		b, okB := v.Placed(r.rightID)
		if !okA || !okB {
			continue
		}
		out = append(out, e.apply(r, a, b))
	}
	return out
}

func (e *Engine) apply(r rule, a, b landmark.Landmark) Measurement {
	switch r.kind {
	case ruleShift:
		value := round1(math.Abs(a.X - b.X))
		status := StatusOptimal
		if value >= e.shiftThreshold {
			status = StatusDeviation
		}
		return Measurement{Label: r.label, Value: value, Unit: "units", Status: status}
	default:
		value := round1(math.Abs(a.Y-b.Y) * e.tiltScale)
		status := StatusOptimal
		if value >= e.tiltThresholdDeg {
			status = StatusWarning
		}
		return Measurement{Label: r.label, Value: value, Unit: "deg", Status: status}
	}
}

// round1 keeps one decimal place so repeated derivations are bit-identical
// regardless of accumulation order upstream.
func round1(v float64) float64 {
	return math.Round(v*valuePrecision) / valuePrecision
}

// Summarize folds a measurement list into its worst classification, used for
// the assessment record's denormalized metrics summary. An empty list
// summarizes as optimal.
func Summarize(ms []Measurement) Status {
	worst := StatusOptimal
	for _, m := range ms {
		switch m.Status {
		case StatusDeviation:
			return StatusDeviation
		case StatusWarning:
			worst = StatusWarning
		case StatusOptimal:
		}
	}
	return worst
}

// Package landmark contains the anatomical landmark model shared between layers.
//
// Coordinates are percentages of the rendered media's bounding box, in
// [0,100] on both axes, so placements survive zoom and display-size changes.
package landmark

import "math"

// Coordinate bounds for normalized placement.
const (
	CoordMin = 0.0
	CoordMax = 100.0
)

// Landmark is a named anatomical reference point on one view.
// Placement is an explicit tagged state rather than a magic origin value,
// so a genuine top-left-corner placement stays representable.
type Landmark struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Placed bool    `json:"placed"`
}

// Unplaced returns a landmark in the not-yet-placed state.
func Unplaced(id, label string) Landmark {
	return Landmark{ID: id, Label: label}
}

// At returns a placed landmark with coordinates clamped to bounds.
func At(id, label string, x, y float64) Landmark {
	x, y = Clamp(x), Clamp(y)
	return Landmark{ID: id, Label: label, X: x, Y: y, Placed: true}
}

// MoveTo returns a copy of l placed at the clamped coordinates.
func (l Landmark) MoveTo(x, y float64) Landmark {
	l.X = Clamp(x)
	l.Y = Clamp(y)
	l.Placed = true
	return l
}

// Clamp bounds a coordinate to [CoordMin, CoordMax]. NaN collapses to
// CoordMin so malformed pointer input can never poison a stored landmark.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return CoordMin
	}
	return math.Max(CoordMin, math.Min(CoordMax, v))
}

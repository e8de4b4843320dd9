// Package annotate translates pointer gestures over a rendered view into
// normalized landmark updates.
//
// The surface owns only ephemeral gesture state (the selected landmark and
// the single in-flight drag); durable landmark data lives in the capture
// session and is reached exclusively through the Sink contract. Coordinates
// arrive as container-relative pixels plus the container size and leave as
// percentages, so placements are independent of the rendered pixel size.
package annotate

import (
	"errors"

	"github.com/kinesia/capture/internal/domain/landmark"
)

// Sentinel kinds for gesture errors.
var (
	ErrDragActive  = errors.New("another landmark drag is active")
	ErrNoDrag      = errors.New("no landmark drag is active")
	ErrBadViewport = errors.New("viewport size must be positive")
)

// Sink receives proposed landmark updates. Implementations apply them with
// copy-on-write semantics; the surface never touches stored arrays.
type Sink interface {
	PlaceLandmark(viewID, landmarkID string, x, y float64)
}

// Viewport is the rendered container size in pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// Surface interprets one operator's gestures over one view at a time.
// It is not safe for concurrent use; input events are already serialized
// by the single interactive operator.
type Surface struct {
	sink Sink

	viewID string
	// activeID is the landmark armed for click-to-place, step one of the
	// two-step protocol.
	activeID string
	// dragID is the single landmark currently being dragged. Empty means
	// no drag. A second concurrent drag is rejected, not queued.
	dragID string
}

// NewSurface creates a surface proposing updates into sink.
func NewSurface(sink Sink) *Surface {
	return &Surface{sink: sink}
}

// SetView switches the surface to another view, ending any gesture in
// progress. The last dragged position is kept.
func (s *Surface) SetView(viewID string) {
	s.EndGesture()
	s.viewID = viewID
	s.activeID = ""
}

// ViewID returns the view the surface currently annotates.
func (s *Surface) ViewID() string { return s.viewID }

// SelectLandmark arms a landmark for click-to-place.
func (s *Surface) SelectLandmark(id string) { s.activeID = id }

// ActiveLandmark returns the armed landmark id, empty when none.
func (s *Surface) ActiveLandmark() string { return s.activeID }

// ClickAt places or repositions the armed landmark at the clicked point.
// With no armed landmark the click is a no-op; a click can never land while
// a drag gesture is in flight (the marker's pointer-down consumes it).
func (s *Surface) ClickAt(px, py float64, vp Viewport) error {
	if s.activeID == "" || s.dragID != "" {
		return nil
	}
	x, y, err := normalize(px, py, vp)
	if err != nil {
		return err
	}
	s.sink.PlaceLandmark(s.viewID, s.activeID, x, y)
	return nil
}

// PointerDown starts dragging an existing landmark marker. Only one drag may
// be in flight; starting a second is an error rather than a silent takeover.
func (s *Surface) PointerDown(landmarkID string) error {
	if s.dragID != "" {
		return ErrDragActive
	}
	s.dragID = landmarkID
	return nil
}

// PointerMove updates the dragged landmark. Moves past the container bounds
// clamp to the boundary. Moves outside a drag are ignored.
func (s *Surface) PointerMove(px, py float64, vp Viewport) error {
	if s.dragID == "" {
		return nil
	}
	x, y, err := normalize(px, py, vp)
	if err != nil {
		return err
	}
	s.sink.PlaceLandmark(s.viewID, s.dragID, x, y)
	return nil
}

// PointerUp ends the drag gesture.
func (s *Surface) PointerUp() error {
	if s.dragID == "" {
		return ErrNoDrag
	}
	s.dragID = ""
	return nil
}

// Dragging returns the id of the landmark in drag, empty when none.
func (s *Surface) Dragging() string { return s.dragID }

// EndGesture silently ends any in-flight drag, keeping the last position.
// Called when the operator navigates away mid-gesture.
func (s *Surface) EndGesture() { s.dragID = "" }

// normalize converts container-relative pixels to clamped percent space.
func normalize(px, py float64, vp Viewport) (x, y float64, err error) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return 0, 0, ErrBadViewport
	}
	x = landmark.Clamp(px / vp.Width * landmark.CoordMax)
	y = landmark.Clamp(py / vp.Height * landmark.CoordMax)
	return x, y, nil
}

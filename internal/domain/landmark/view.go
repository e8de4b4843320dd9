package landmark

// BlobRef points at a stored media object.
type BlobRef struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// View is one captured image or motion frame plus its landmark set.
// Landmark ids are unique within a view; Place enforces upsert semantics.
type View struct {
	ID        string     `json:"view_id"`
	MediaRef  BlobRef    `json:"media_ref"`
	Landmarks []Landmark `json:"landmarks"`
}

// Place returns a copy of the view with the given landmark placed at the
// clamped coordinates. An existing landmark with the same id is replaced in
// position order; a new id is appended. The receiver is never mutated.
func (v View) Place(id, label string, x, y float64) View {
	out := make([]Landmark, len(v.Landmarks), len(v.Landmarks)+1)
	copy(out, v.Landmarks)
	for i := range out {
		if out[i].ID == id {
			out[i] = out[i].MoveTo(x, y)
			v.Landmarks = out
			return v
		}
	}
	v.Landmarks = append(out, At(id, label, x, y))
	return v
}

// Find returns the landmark with the given id and whether it exists.
func (v View) Find(id string) (Landmark, bool) {
	for _, l := range v.Landmarks {
		if l.ID == id {
			return l, true
		}
	}
	return Landmark{}, false
}

// Placed returns the landmark with the given id only if it has been placed.
func (v View) Placed(id string) (Landmark, bool) {
	l, ok := v.Find(id)
	if !ok || !l.Placed {
		return Landmark{}, false
	}
	return l, true
}

// IsComplete reports whether every landmark id required for this view by the
// set config has been placed.
func (v View) IsComplete(required []string) bool {
	for _, id := range required {
		if _, ok := v.Placed(id); !ok {
			return false
		}
	}
	return true
}

package landmark

// Kind identifies an assessment kind. Kinds decide which views are captured,
// which landmarks each view requires, and the minimum media needed to advance
// past capture.
type Kind string

// Supported assessment kinds.
const (
	KindStaticPosture Kind = "static_posture"
	KindGaitGround    Kind = "gait_ground"
	KindGaitTreadmill Kind = "gait_treadmill"
)

// Valid reports whether k names a known assessment kind.
func (k Kind) Valid() bool {
	switch k {
	case KindStaticPosture, KindGaitGround, KindGaitTreadmill:
		return true
	}
	return false
}

// VideoBased reports whether the kind captures motion video rather than
// still photos.
func (k Kind) VideoBased() bool {
	return k == KindGaitGround || k == KindGaitTreadmill
}

// ViewSpec names a view and the ordered landmark ids it requires.
type ViewSpec struct {
	ViewID   string
	Required []Spec
}

// Spec pairs a landmark id with its display label.
type Spec struct {
	ID    string
	Label string
}

// SetConfig is the immutable per-kind landmark reference data. It is not
// user data; sessions read it, never write it.
type SetConfig struct {
	Kind  Kind
	Views []ViewSpec
}

// Canonical landmark ids used by the measurement rules.
const (
	ShoulderLeft  = "shoulder_left"
	ShoulderRight = "shoulder_right"
	PelvisLeft    = "pelvis_left"
	PelvisRight   = "pelvis_right"
	KneeLeft      = "knee_left"
	KneeRight     = "knee_right"
	Ear           = "ear"
	C7            = "c7"
	Hip           = "hip"
	Knee          = "knee"
	Ankle         = "ankle"
)

var frontBack = []Spec{
	{ID: ShoulderLeft, Label: "Left shoulder"},
	{ID: ShoulderRight, Label: "Right shoulder"},
	{ID: PelvisLeft, Label: "Left pelvis"},
	{ID: PelvisRight, Label: "Right pelvis"},
	{ID: KneeLeft, Label: "Left knee"},
	{ID: KneeRight, Label: "Right knee"},
}

var sagittal = []Spec{
	{ID: Ear, Label: "Ear"},
	{ID: C7, Label: "C7 vertebra"},
	{ID: Hip, Label: "Hip"},
	{ID: Knee, Label: "Knee"},
	{ID: Ankle, Label: "Ankle"},
}

var configs = map[Kind]SetConfig{
	KindStaticPosture: {
		Kind: KindStaticPosture,
		Views: []ViewSpec{
			{ViewID: "front", Required: frontBack},
			{ViewID: "back", Required: frontBack},
			{ViewID: "left", Required: sagittal},
			{ViewID: "right", Required: sagittal},
		},
	},
	// Motion kinds annotate extracted frames; each frame reuses the
	// sagittal landmark set.
	KindGaitGround: {
		Kind:  KindGaitGround,
		Views: []ViewSpec{{ViewID: "frame", Required: sagittal}},
	},
	KindGaitTreadmill: {
		Kind:  KindGaitTreadmill,
		Views: []ViewSpec{{ViewID: "frame", Required: sagittal}},
	},
}

// ConfigFor returns the landmark set config for a kind.
func ConfigFor(k Kind) (SetConfig, bool) {
	c, ok := configs[k]
	return c, ok
}

// RequiredIDs returns the ordered landmark ids a view requires, or nil when
// the view is unknown to the kind. Frame views of motion kinds match by
// prefix so frame_001, frame_002, ... share one spec.
func (c SetConfig) RequiredIDs(viewID string) []string {
	spec := c.specFor(viewID)
	if spec == nil {
		return nil
	}
	ids := make([]string, len(spec))
	for i, s := range spec {
		ids[i] = s.ID
	}
	return ids
}

// NewView builds an empty view pre-seeded with unplaced required landmarks.
func (c SetConfig) NewView(viewID string) (View, bool) {
	spec := c.specFor(viewID)
	if spec == nil {
		return View{}, false
	}
	marks := make([]Landmark, len(spec))
	for i, s := range spec {
		marks[i] = Unplaced(s.ID, s.Label)
	}
	return View{ID: viewID, Landmarks: marks}, true
}

func (c SetConfig) specFor(viewID string) []Spec {
	for _, vs := range c.Views {
		if vs.ViewID == viewID {
			return vs.Required
		}
		if vs.ViewID == "frame" && len(viewID) > 5 && viewID[:5] == "frame" {
			return vs.Required
		}
	}
	return nil
}

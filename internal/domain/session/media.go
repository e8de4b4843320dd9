package session

import "github.com/kinesia/capture/internal/domain/landmark"

// MediaRole classifies a captured media item; it decides the storage
// subfolder at submission and which gating minimum it counts toward.
type MediaRole string

// Media roles.
const (
	RolePhoto          MediaRole = "photo"
	RoleGroundVideo    MediaRole = "ground_video"
	RoleTreadmillVideo MediaRole = "treadmill_video"
	RoleFrame          MediaRole = "frame"
)

// Valid reports whether r names a known media role.
func (r MediaRole) Valid() bool {
	switch r {
	case RolePhoto, RoleGroundVideo, RoleTreadmillVideo, RoleFrame:
		return true
	}
	return false
}

// video reports whether the role counts toward the video minimum.
func (r MediaRole) video() bool {
	return r == RoleGroundVideo || r == RoleTreadmillVideo
}

// fits reports whether media of this role belongs to the given kind. Used
// when the kind changes to drop captures from the previous one.
func (r MediaRole) fits(k landmark.Kind) bool {
	switch r {
	case RolePhoto:
		return !k.VideoBased()
	case RoleGroundVideo:
		return k == landmark.KindGaitGround
	case RoleTreadmillVideo:
		return k == landmark.KindGaitTreadmill
	case RoleFrame:
		return k.VideoBased()
	}
	return false
}

// Media is one captured item pending upload. LocalPath is a raw local file
// handle; it is expected to be unrecoverable across a reload and is the only
// field a draft round-trip may lose.
type Media struct {
	ID        string           `json:"id"`
	Filename  string           `json:"filename"`
	Role      MediaRole        `json:"role"`
	Angle     string           `json:"angle,omitempty"`
	LocalPath string           `json:"local_path,omitempty"`
	ThumbPath string           `json:"thumb_path,omitempty"`
	Ref       landmark.BlobRef `json:"ref,omitempty"`
}

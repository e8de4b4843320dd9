package session

import "errors"

// Sentinel kinds for session errors.
var (
	ErrStepGated       = errors.New("current step is incomplete")
	ErrUnknownKind     = errors.New("unknown assessment kind")
	ErrUnknownView     = errors.New("unknown view")
	ErrUnknownLandmark = errors.New("landmark not defined for view")
	ErrUnknownMedia    = errors.New("media item not found")
	ErrAlreadyFinal    = errors.New("session already submitted")
	ErrNoKind          = errors.New("assessment kind not chosen")
	ErrBadStep         = errors.New("invalid step transition")
)

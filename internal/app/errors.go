package app

import "errors"

// Sentinel kinds for service errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSubmitInFlight  = errors.New("submission already in progress")
	ErrNotReady        = errors.New("session not ready for submission")
	ErrMediaTooLarge   = errors.New("media exceeds size limit")
	ErrUnknownTarget   = errors.New("target not in directory")
	ErrBadGesture      = errors.New("unknown pointer gesture")
)

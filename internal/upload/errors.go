package upload

import "errors"

// Sentinel kinds for submission errors.
var (
	ErrMissingBlob = errors.New("media blob unavailable locally")
)

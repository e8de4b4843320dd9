package config

import (
	"errors"
	"fmt"
)

// Sentinel kinds for configuration errors.
var (
	ErrEmptyAddr      = errors.New("addr must not be empty")
	ErrBadDebounce    = errors.New("autosave_debounce_ms must be positive")
	ErrBadConcurrency = errors.New("upload_concurrency must be positive")
	ErrBadThreshold   = errors.New("measurement thresholds must be positive")
	ErrLoad           = errors.New("config load failed")
)

// WrapLoad wraps an external loader error with the package sentinel.
func WrapLoad(err error) error {
	return fmt.Errorf("%w: %w", ErrLoad, err)
}

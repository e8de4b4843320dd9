// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers an optional YAML file and env on top.
// - External errors are wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DraftDir holds locally persisted session drafts.
	DraftDir string `koanf:"draft_dir"`

	// StagingDir holds captured media blobs awaiting submission.
	StagingDir string `koanf:"staging_dir"`

	// MediaRoot is the durable blob storage root directory.
	MediaRoot string `koanf:"media_root"`

	// MediaBaseURL prefixes returned media URLs.
	MediaBaseURL string `koanf:"media_base_url"`

	// TargetSeedPath optionally seeds the target directory from YAML.
	TargetSeedPath string `koanf:"target_seed_path"`

	// AutosaveDebounceMS is the trailing debounce window for draft writes.
	AutosaveDebounceMS int `koanf:"autosave_debounce_ms"`

	// UploadConcurrency bounds the submission fan-out width.
	UploadConcurrency int `koanf:"upload_concurrency"`

	// MaxUploadBytes caps a single captured media item.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// Measurement classification parameters; defaults match observed
	// clinical constants.
	TiltThresholdDeg float64 `koanf:"tilt_threshold_deg"`
	ShiftThreshold   float64 `koanf:"shift_threshold"`
	TiltScale        float64 `koanf:"tilt_scale"`

	// Media minimums gating the capture step.
	PhotoMinimum int `koanf:"photo_minimum"`
	VideoMinimum int `koanf:"video_minimum"`

	// SubmitGuardTTLSec is how long a session id is held against
	// double-submission.
	SubmitGuardTTLSec int `koanf:"submit_guard_ttl_sec"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		DraftDir:           "data/drafts",
		StagingDir:         "data/staging",
		MediaRoot:          "data/media",
		MediaBaseURL:       "/media",
		AutosaveDebounceMS: 400,
		UploadConcurrency:  runtime.NumCPU(),
		MaxUploadBytes:     64 << 20,
		TiltThresholdDeg:   2.0,
		ShiftThreshold:     5.0,
		TiltScale:          0.5,
		PhotoMinimum:       1,
		VideoMinimum:       1,
		SubmitGuardTTLSec:  30,
	}
}

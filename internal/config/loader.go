package config

import (
	"context"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if CAPTURE_CONFIG is set
//  3. env (prefix CAPTURE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("CAPTURE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, WrapLoad(err)
		}
	}

	// Env keys like CAPTURE_AUTOSAVE_DEBOUNCE_MS map to the flat koanf
	// tags; underscores are preserved.
	envProvider := env.Provider("CAPTURE_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "capture_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, WrapLoad(err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, WrapLoad(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return ErrEmptyAddr
	case c.AutosaveDebounceMS <= 0:
		return ErrBadDebounce
	case c.UploadConcurrency <= 0:
		return ErrBadConcurrency
	case c.TiltScale <= 0 || c.TiltThresholdDeg <= 0 || c.ShiftThreshold <= 0:
		return ErrBadThreshold
	}
	return nil
}

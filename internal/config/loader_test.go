package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kinesia/capture/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadDefaults(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		t.Setenv("CAPTURE_CONFIG", "")

		Convey("When the config loads", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults apply", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9080")
				So(cfg.LogLevel, ShouldEqual, "info")
				So(cfg.AutosaveDebounceMS, ShouldEqual, 400)
				So(cfg.TiltThresholdDeg, ShouldEqual, 2.0)
				So(cfg.ShiftThreshold, ShouldEqual, 5.0)
				So(cfg.TiltScale, ShouldEqual, 0.5)
				So(cfg.PhotoMinimum, ShouldEqual, 1)
				So(cfg.MaxUploadBytes, ShouldEqual, int64(64<<20))
				So(cfg.UploadConcurrency, ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestLoadLayers(t *testing.T) {
	Convey("Given a YAML config file", t, func() {
		path := filepath.Join(t.TempDir(), "capture.yaml")
		doc := `addr: ":7070"
log_level: debug
autosave_debounce_ms: 250
tilt_threshold_deg: 3.5
`
		So(os.WriteFile(path, []byte(doc), 0o644), ShouldBeNil)
		t.Setenv("CAPTURE_CONFIG", path)

		Convey("When only the file layers over defaults", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then file values win over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.LogLevel, ShouldEqual, "debug")
				So(cfg.AutosaveDebounceMS, ShouldEqual, 250)
				So(cfg.TiltThresholdDeg, ShouldEqual, 3.5)
				So(cfg.ShiftThreshold, ShouldEqual, 5.0)
			})
		})

		Convey("When env vars layer over the file", func() {
			t.Setenv("CAPTURE_ADDR", ":6060")
			t.Setenv("CAPTURE_AUTOSAVE_DEBOUNCE_MS", "150")
			cfg, err := config.Load(context.Background())

			Convey("Then env wins over file", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":6060")
				So(cfg.AutosaveDebounceMS, ShouldEqual, 150)
				So(cfg.LogLevel, ShouldEqual, "debug")
			})
		})
	})

	Convey("Given a missing config file", t, func() {
		t.Setenv("CAPTURE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

		Convey("When loading", func() {
			_, err := config.Load(context.Background())
			So(err, ShouldWrap, config.ErrLoad)
		})
	})
}

func TestValidation(t *testing.T) {
	Convey("Given invalid settings via env", t, func() {
		t.Setenv("CAPTURE_CONFIG", "")

		Convey("When the debounce is non-positive", func() {
			os.Setenv("CAPTURE_AUTOSAVE_DEBOUNCE_MS", "0")
			defer os.Unsetenv("CAPTURE_AUTOSAVE_DEBOUNCE_MS")
			_, err := config.Load(context.Background())
			So(err, ShouldEqual, config.ErrBadDebounce)
		})

		Convey("When the concurrency is non-positive", func() {
			os.Setenv("CAPTURE_UPLOAD_CONCURRENCY", "-1")
			defer os.Unsetenv("CAPTURE_UPLOAD_CONCURRENCY")
			_, err := config.Load(context.Background())
			So(err, ShouldEqual, config.ErrBadConcurrency)
		})

		Convey("When a measurement threshold is non-positive", func() {
			os.Setenv("CAPTURE_TILT_SCALE", "0")
			defer os.Unsetenv("CAPTURE_TILT_SCALE")
			_, err := config.Load(context.Background())
			So(err, ShouldEqual, config.ErrBadThreshold)
		})
	})
}

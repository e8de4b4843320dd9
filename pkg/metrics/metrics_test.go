package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the package-level recording helpers", t, func() {
		Convey("When recording session lifecycle metrics", func() {
			So(func() {
				UpdateSessionsActive(3)
				RecordSessionCreated()
				RecordDraftRecovered()
				RecordDraftDiscarded()
			}, ShouldNotPanic)
		})

		Convey("When recording autosave metrics", func() {
			So(func() {
				RecordAutosave(2.5)
				RecordAutosave(0.0)
				RecordAutosaveError()
			}, ShouldNotPanic)
		})

		Convey("When recording annotation metrics", func() {
			So(func() {
				RecordLandmarkPlaced()
				RecordLandmarkPlaced()
				RecordMeasureLatency(1.2)
			}, ShouldNotPanic)
		})

		Convey("When recording wizard transitions", func() {
			So(func() {
				RecordStepTransition("next")
				RecordStepTransition("back")
				RecordStepTransition("")
			}, ShouldNotPanic)
		})

		Convey("When recording submission metrics", func() {
			So(func() {
				UploadStarted()
				UploadFinished()
				RecordUploadError()
				RecordSubmission("success")
				RecordSubmission("failed")
				RecordSubmissionLatency(350.0)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("sessions", "POST", "201")
				RecordHTTPRequest("", "", "500")
				RecordHTTPRequestDuration("sessions", "GET", "200", 4.0)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recording", t, func() {
		done := make(chan bool, 8)
		for i := 0; i < 8; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					RecordLandmarkPlaced()
					UpdateSessionsActive(j)
					RecordAutosave(float64(j))
					RecordHTTPRequest("sessions", "GET", "200")
				}
				done <- true
			}()
		}
		for i := 0; i < 8; i++ {
			<-done
		}

		Convey("Then it should handle concurrent access without panics", func() {
			So(true, ShouldBeTrue)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the global registry", t, func() {
		reg := GetRegistry()
		So(reg, ShouldNotBeNil)

		Convey("When gathering", func() {
			RecordSessionCreated()
			RecordSubmission("success")
			families, err := reg.Gather()

			Convey("Then the service collectors are registered", func() {
				So(err, ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "kinesia_capture_sessions_created_total")
				So(names, ShouldContain, "kinesia_capture_submissions_total")
			})
		})
	})
}

package measure_test

import (
	"testing"

	"github.com/kinesia/capture/internal/domain/landmark"
	"github.com/kinesia/capture/internal/domain/measure"
	. "github.com/smartystreets/goconvey/convey"
)

func frontView(pairs map[string][2]float64) landmark.View {
	cfg, _ := landmark.ConfigFor(landmark.KindStaticPosture)
	v, _ := cfg.NewView("front")
	for id, xy := range pairs {
		v = v.Place(id, "", xy[0], xy[1])
	}
	return v
}

func TestShoulderTiltScenario(t *testing.T) {
	Convey("Given a front view with both shoulders placed", t, func() {
		v := frontView(map[string][2]float64{
			landmark.ShoulderLeft:  {40, 30},
			landmark.ShoulderRight: {60, 32},
		})
		engine := measure.NewEngine()

		Convey("When measurements are derived", func() {
			ms := engine.ForView(v)

			Convey("Then shoulder tilt is 1.0 degrees and optimal", func() {
				var tilt *measure.Measurement
				for i := range ms {
					if ms[i].Label == "Shoulder Tilt" {
						tilt = &ms[i]
					}
				}
				So(tilt, ShouldNotBeNil)
				So(tilt.Value, ShouldEqual, 1.0)
				So(tilt.Unit, ShouldEqual, "deg")
				So(tilt.Status, ShouldEqual, measure.StatusOptimal)
			})
		})
	})
}

func TestClassificationBands(t *testing.T) {
	Convey("Given an engine with default thresholds", t, func() {
		engine := measure.NewEngine()

		Convey("When a tilt reaches the threshold", func() {
			v := frontView(map[string][2]float64{
				landmark.ShoulderLeft:  {40, 30},
				landmark.ShoulderRight: {60, 34}, // |30-34|*0.5 = 2.0
			})
			ms := engine.ForView(v)

			Convey("Then it classifies as warning", func() {
				So(ms[0].Status, ShouldEqual, measure.StatusWarning)
			})
		})

		Convey("When a sagittal shift reaches its threshold", func() {
			cfg, _ := landmark.ConfigFor(landmark.KindStaticPosture)
			v, _ := cfg.NewView("left")
			v = v.Place(landmark.Ear, "", 50, 10)
			v = v.Place(landmark.C7, "", 44, 20) // |50-44| = 6 >= 5

			ms := engine.ForView(v)
			So(len(ms), ShouldEqual, 1)
			So(ms[0].Label, ShouldEqual, "Forward Head Shift")
			So(ms[0].Unit, ShouldEqual, "units")
			So(ms[0].Status, ShouldEqual, measure.StatusDeviation)
		})
	})

	Convey("Given an engine with custom thresholds", t, func() {
		engine := measure.NewEngine(
			measure.WithTiltThreshold(5),
			measure.WithTiltScale(1),
		)
		v := frontView(map[string][2]float64{
			landmark.ShoulderLeft:  {40, 30},
			landmark.ShoulderRight: {60, 34}, // |30-34|*1 = 4 < 5
		})

		Convey("Then the custom band applies", func() {
			ms := engine.ForView(v)
			So(ms[0].Value, ShouldEqual, 4.0)
			So(ms[0].Status, ShouldEqual, measure.StatusOptimal)
		})
	})
}

func TestErrorsAsAbsence(t *testing.T) {
	Convey("Given a view with one shoulder missing", t, func() {
		v := frontView(map[string][2]float64{
			landmark.ShoulderLeft: {40, 30},
		})
		engine := measure.NewEngine()

		Convey("Then no shoulder measurement is reported at all", func() {
			ms := engine.ForView(v)
			for _, m := range ms {
				So(m.Label, ShouldNotEqual, "Shoulder Tilt")
				So(m.Value, ShouldNotEqual, 0)
			}
			So(ms, ShouldBeEmpty)
		})
	})

	Convey("Given a shoulder genuinely placed at the top-left corner", t, func() {
		v := frontView(map[string][2]float64{
			landmark.ShoulderLeft:  {0, 0},
			landmark.ShoulderRight: {60, 1},
		})
		engine := measure.NewEngine()

		Convey("Then the corner placement still counts as an input", func() {
			ms := engine.ForView(v)
			So(len(ms), ShouldEqual, 1)
			So(ms[0].Label, ShouldEqual, "Shoulder Tilt")
		})
	})
}

func TestPlacementMonotonicity(t *testing.T) {
	Convey("Given landmarks placed one at a time", t, func() {
		engine := measure.NewEngine()
		cfg, _ := landmark.ConfigFor(landmark.KindStaticPosture)
		v, _ := cfg.NewView("front")

		seen := 0
		for i, id := range cfg.RequiredIDs("front") {
			v = v.Place(id, "", float64(20+i*10), float64(30+i*2))
			ms := engine.ForView(v)

			Convey("Then placing "+id+" never shrinks the measurement set", func() {
				So(len(ms), ShouldBeGreaterThanOrEqualTo, seen)
			})
			seen = len(ms)
		}

		Convey("And the fully placed view yields every front rule", func() {
			So(seen, ShouldEqual, 3)
		})
	})
}

func TestDeterminism(t *testing.T) {
	Convey("Given a fixed landmark set", t, func() {
		v := frontView(map[string][2]float64{
			landmark.ShoulderLeft:  {40.123, 30.456},
			landmark.ShoulderRight: {60.789, 32.321},
			landmark.PelvisLeft:    {42, 60},
			landmark.PelvisRight:   {58, 61},
		})
		engine := measure.NewEngine()

		Convey("When derived repeatedly", func() {
			first := engine.ForView(v)
			for i := 0; i < 50; i++ {
				So(engine.ForView(v), ShouldResemble, first)
			}
		})
	})
}

func TestSummarize(t *testing.T) {
	Convey("Given measurement lists", t, func() {
		So(measure.Summarize(nil), ShouldEqual, measure.StatusOptimal)
		So(measure.Summarize([]measure.Measurement{
			{Status: measure.StatusOptimal},
			{Status: measure.StatusWarning},
		}), ShouldEqual, measure.StatusWarning)
		So(measure.Summarize([]measure.Measurement{
			{Status: measure.StatusWarning},
			{Status: measure.StatusDeviation},
			{Status: measure.StatusOptimal},
		}), ShouldEqual, measure.StatusDeviation)
	})
}

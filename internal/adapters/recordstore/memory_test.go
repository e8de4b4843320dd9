package recordstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/kinesia/capture/internal/adapters/recordstore"
	"github.com/kinesia/capture/internal/domain/landmark"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty record store", t, func() {
		store := recordstore.NewMemoryStore()
		ctx := context.Background()
		rec := recordstore.Assessment{
			ID:       "assess-1",
			TargetID: "patient-1",
			Kind:     landmark.KindStaticPosture,
			Status:   recordstore.StatusSubmitted,
			Annotations: map[string][]landmark.Landmark{
				"front": {landmark.At(landmark.ShoulderLeft, "Left shoulder", 40, 30)},
			},
			Metrics:   recordstore.MetricsSummary{Overall: "optimal"},
			CreatedAt: time.Now().UTC(),
		}

		Convey("When a record is created", func() {
			So(store.Create(ctx, rec), ShouldBeNil)

			Convey("Then it reads back intact", func() {
				got, err := store.Get(ctx, "assess-1")
				So(err, ShouldBeNil)
				So(got.TargetID, ShouldEqual, "patient-1")
				So(got.Annotations["front"], ShouldHaveLength, 1)
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("And creating the same id again fails", func() {
				So(store.Create(ctx, rec), ShouldWrap, recordstore.ErrExists)
				So(store.Count(ctx), ShouldEqual, 1)
			})
		})

		Convey("When an unknown id is fetched", func() {
			_, err := store.Get(ctx, "missing")
			So(err, ShouldWrap, recordstore.ErrNotFound)
		})

		Convey("When target summaries are bumped", func() {
			at := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
			So(store.UpdateTargetSummary(ctx, "patient-1", recordstore.TargetSummaryPatch{
				LastAssessmentID: "assess-1", LastAssessmentAt: at,
			}), ShouldBeNil)
			So(store.UpdateTargetSummary(ctx, "patient-1", recordstore.TargetSummaryPatch{
				LastAssessmentID: "assess-2", LastAssessmentAt: at.Add(time.Hour),
			}), ShouldBeNil)

			Convey("Then the rollup accumulates", func() {
				sum := store.TargetSummaryFor("patient-1")
				So(sum.AssessmentCount, ShouldEqual, 2)
				So(sum.LastAssessmentID, ShouldEqual, "assess-2")
				So(sum.LastAssessmentAt, ShouldEqual, at.Add(time.Hour))
			})

			Convey("And untracked targets read as zero", func() {
				So(store.TargetSummaryFor("other").AssessmentCount, ShouldEqual, 0)
			})
		})
	})
}

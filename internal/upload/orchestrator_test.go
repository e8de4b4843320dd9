package upload_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kinesia/capture/internal/adapters/blobstore"
	"github.com/kinesia/capture/internal/adapters/recordstore"
	"github.com/kinesia/capture/internal/domain/landmark"
	"github.com/kinesia/capture/internal/domain/measure"
	"github.com/kinesia/capture/internal/domain/session"
	"github.com/kinesia/capture/internal/upload"
	"github.com/kinesia/capture/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	logger.Init()
}

// flakyBlobs fails uploads whose path contains failOn; other uploads succeed.
type flakyBlobs struct {
	mu     sync.Mutex
	failOn string
	paths  []string
}

func (f *flakyBlobs) Upload(_ context.Context, path string, r io.Reader) (blobstore.Ref, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return blobstore.Ref{}, err
	}
	if f.failOn != "" && strings.Contains(path, f.failOn) {
		return blobstore.Ref{}, fmt.Errorf("upload %s: simulated outage", path)
	}
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	return blobstore.Ref{URL: "/media/" + path, Path: path}, nil
}

func stagedSession(t *testing.T, n int) *session.Session {
	t.Helper()
	dir := t.TempDir()
	s := session.New("sess-up", session.NewGate())
	So(s.SetTarget("patient-7"), ShouldBeNil)
	So(s.Next(), ShouldBeNil)
	So(s.ChooseKind(landmark.KindStaticPosture), ShouldBeNil)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("photo_%d.jpg", i)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
			t.Fatal(err)
		}
		So(s.AddMedia(session.Media{
			ID: fmt.Sprintf("m%d", i), Filename: name,
			Role: session.RolePhoto, Angle: "front", LocalPath: path,
		}), ShouldBeNil)
	}
	So(s.PlaceLandmark("front", landmark.ShoulderLeft, 40, 30), ShouldBeNil)
	So(s.PlaceLandmark("front", landmark.ShoulderRight, 60, 32), ShouldBeNil)
	return s
}

func TestSubmitSuccess(t *testing.T) {
	Convey("Given a staged session and healthy stores", t, func() {
		blobs := &flakyBlobs{}
		records := recordstore.NewMemoryStore()
		at := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
		orch := upload.New(blobs, records, measure.NewEngine(),
			upload.WithConcurrency(2),
			upload.WithClock(func() time.Time { return at }),
		)
		sess := stagedSession(t, 3)

		Convey("When the session is submitted", func() {
			rec, err := orch.Submit(context.Background(), sess, upload.Principal{UserID: "u1", OrganisationID: "org1"})

			Convey("Then every blob uploads and one record is created", func() {
				So(err, ShouldBeNil)
				So(blobs.paths, ShouldHaveLength, 3)
				So(records.Count(context.Background()), ShouldEqual, 1)
			})

			Convey("And the record carries session state and principal", func() {
				So(err, ShouldBeNil)
				So(rec.TargetID, ShouldEqual, "patient-7")
				So(rec.Status, ShouldEqual, recordstore.StatusSubmitted)
				So(rec.CreatedBy, ShouldEqual, "u1")
				So(rec.OrganisationID, ShouldEqual, "org1")
				So(rec.Media.Photos, ShouldHaveLength, 3)
				So(rec.Annotations["front"], ShouldNotBeEmpty)
				So(rec.Metrics.PerView["front"], ShouldNotBeEmpty)
				So(rec.CreatedAt, ShouldEqual, at.UTC())
			})

			Convey("And the target rollup is bumped", func() {
				So(err, ShouldBeNil)
				sum := records.TargetSummaryFor("patient-7")
				So(sum.AssessmentCount, ShouldEqual, 1)
				So(sum.LastAssessmentID, ShouldEqual, rec.ID)
			})
		})

		Convey("When the same session is submitted twice", func() {
			rec1, err1 := orch.Submit(context.Background(), sess, upload.Principal{})
			rec2, err2 := orch.Submit(context.Background(), sess, upload.Principal{})

			Convey("Then each attempt mints a fresh assessment id", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(rec1.ID, ShouldNotEqual, rec2.ID)
				So(records.Count(context.Background()), ShouldEqual, 2)
			})
		})
	})
}

func TestSubmitAllOrNothing(t *testing.T) {
	Convey("Given a batch where one upload fails", t, func() {
		blobs := &flakyBlobs{failOn: "photo_1.jpg"}
		records := recordstore.NewMemoryStore()
		orch := upload.New(blobs, records, measure.NewEngine(), upload.WithConcurrency(3))
		sess := stagedSession(t, 3)

		Convey("When the session is submitted", func() {
			_, err := orch.Submit(context.Background(), sess, upload.Principal{})

			Convey("Then the whole submission fails and no record is written", func() {
				So(err, ShouldNotBeNil)
				So(records.Count(context.Background()), ShouldEqual, 0)
				So(records.TargetSummaryFor("patient-7").AssessmentCount, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a media item whose staged file is gone", t, func() {
		blobs := &flakyBlobs{}
		records := recordstore.NewMemoryStore()
		orch := upload.New(blobs, records, measure.NewEngine())
		sess := stagedSession(t, 1)
		So(sess.AddMedia(session.Media{ID: "ghost", Filename: "gone.jpg", Role: session.RolePhoto, LocalPath: "/nonexistent/gone.jpg"}), ShouldBeNil)

		Convey("When submitted", func() {
			_, err := orch.Submit(context.Background(), sess, upload.Principal{})

			Convey("Then the batch fails with the missing blob error", func() {
				So(err, ShouldWrap, upload.ErrMissingBlob)
				So(records.Count(context.Background()), ShouldEqual, 0)
			})
		})
	})
}

func TestBlobPaths(t *testing.T) {
	Convey("Given media of each role", t, func() {
		cases := []struct {
			role session.MediaRole
			want string
		}{
			{session.RolePhoto, "patient-1/assess-1/photos/f.jpg"},
			{session.RoleGroundVideo, "patient-1/assess-1/ground-video/f.jpg"},
			{session.RoleTreadmillVideo, "patient-1/assess-1/treadmill-video/f.jpg"},
			{session.RoleFrame, "patient-1/assess-1/frames/f.jpg"},
		}

		Convey("Then each maps to its deterministic storage path", func() {
			for _, c := range cases {
				m := session.Media{Filename: "f.jpg", Role: c.role}
				So(upload.BlobPath("patient-1", "assess-1", m), ShouldEqual, c.want)
			}
		})
	})
}

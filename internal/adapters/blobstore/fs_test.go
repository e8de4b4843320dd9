package blobstore_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kinesia/capture/internal/adapters/blobstore"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFSStore(t *testing.T) {
	Convey("Given a filesystem blob store", t, func() {
		root := t.TempDir()
		store := blobstore.NewFSStore(
			blobstore.WithRoot(root),
			blobstore.WithBaseURL("https://media.example.com/blobs/"),
		)
		ctx := context.Background()

		Convey("When a blob is uploaded to a nested path", func() {
			ref, err := store.Upload(ctx, "patient-1/assess-9/photos/front.jpg", strings.NewReader("jpegbytes"))

			Convey("Then the file lands under the root", func() {
				So(err, ShouldBeNil)
				data, rerr := os.ReadFile(filepath.Join(root, "patient-1", "assess-9", "photos", "front.jpg"))
				So(rerr, ShouldBeNil)
				So(string(data), ShouldEqual, "jpegbytes")
			})

			Convey("And the ref carries the public URL and relative path", func() {
				So(err, ShouldBeNil)
				So(ref.Path, ShouldEqual, "patient-1/assess-9/photos/front.jpg")
				So(ref.URL, ShouldEqual, "https://media.example.com/blobs/patient-1/assess-9/photos/front.jpg")
			})
		})

		Convey("When the same path is uploaded twice", func() {
			_, err := store.Upload(ctx, "p/a/photos/x.jpg", strings.NewReader("one"))
			So(err, ShouldBeNil)
			_, err = store.Upload(ctx, "p/a/photos/x.jpg", strings.NewReader("two"))
			So(err, ShouldBeNil)

			Convey("Then the last write wins", func() {
				data, rerr := os.ReadFile(filepath.Join(root, "p", "a", "photos", "x.jpg"))
				So(rerr, ShouldBeNil)
				So(string(data), ShouldEqual, "two")
			})
		})

		Convey("When the path tries to escape the root", func() {
			_, err := store.Upload(ctx, "../outside.jpg", strings.NewReader("x"))

			Convey("Then the upload is rejected", func() {
				So(err, ShouldWrap, blobstore.ErrEmptyPath)
			})
		})

		Convey("When the path is empty", func() {
			_, err := store.Upload(ctx, "", strings.NewReader("x"))
			So(err, ShouldWrap, blobstore.ErrEmptyPath)
		})

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := store.Upload(cancelled, "p/a/photos/y.jpg", strings.NewReader("x"))

			Convey("Then nothing is published", func() {
				So(err, ShouldNotBeNil)
				_, serr := os.Stat(filepath.Join(root, "p", "a", "photos", "y.jpg"))
				So(os.IsNotExist(serr), ShouldBeTrue)
			})
		})
	})
}

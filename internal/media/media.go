// Package media probes captured uploads and prepares photo thumbnails.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	// Register bmp/tiff decoders for image.Decode sniffing.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Sentinel kinds for media errors.
var (
	ErrUnknownFormat = errors.New("unknown or unsupported media format")
)

// Thumbnail geometry.
const (
	thumbMaxDim  = 320
	thumbQuality = 85
)

// Info describes a probed media payload.
type Info struct {
	Format string
	Width  int
	Height int
	Video  bool
}

// videoExts covers the container formats clinicians capture with.
var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".webm": true, ".avi": true, ".mkv": true,
}

// IsVideoFilename reports whether the filename looks like a video container.
// Video payloads are stored opaquely; only stills are decoded.
func IsVideoFilename(name string) bool {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return false
	}
	return videoExts[strings.ToLower(name[idx:])]
}

// Probe inspects a payload. Videos are accepted by extension; stills must
// decode through the registered formats, with an explicit WebP fallback.
func Probe(filename string, data []byte) (Info, error) {
	if IsVideoFilename(filename) {
		return Info{Format: "video", Video: true}, nil
	}
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
	}
	if cfg, err := webp.DecodeConfig(bytes.NewReader(data)); err == nil {
		return Info{Format: "webp", Width: cfg.Width, Height: cfg.Height}, nil
	}
	return Info{}, fmt.Errorf("probe %q: %w", filename, ErrUnknownFormat)
}

// Thumbnail renders a JPEG preview bounded to thumbMaxDim on the long edge.
// Video payloads have no thumbnail.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() > thumbMaxDim || b.Dy() > thumbMaxDim {
		if b.Dx() >= b.Dy() {
			img = imaging.Resize(img, thumbMaxDim, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, thumbMaxDim, imaging.Lanczos)
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(thumbQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// decode tries the registered still formats first, then WebP.
func decode(data []byte) (image.Image, error) {
	if img, err := imaging.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, ErrUnknownFormat
}

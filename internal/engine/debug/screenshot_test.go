package debug

import (
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/disintegration/imaging"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/internal/engine/projection"
	"github.com/Faultbox/tagoverlay/pkg/nv21"
)

func mockClock() *clock.Mock {
	c := clock.NewMock()
	c.Set(time.Date(2024, 3, 9, 14, 5, 7, 250e6, time.Local))
	return c
}

func TestGenerateFilename(t *testing.T) {
	s := NewSnapshotter("shots", "tag", "JPG", mockClock())
	want := filepath.Join("shots", "tag_2024-03-09_14-05-07.250_screen.jpg")
	if got := s.GenerateFilename("screen"); got != want {
		t.Errorf("GenerateFilename = %q, want %q", got, want)
	}

	s.SetOutputDir("")
	if got := s.GenerateFilename(""); got != "tag_2024-03-09_14-05-07.250.jpg" {
		t.Errorf("GenerateFilename = %q", got)
	}
}

func TestComposeDrawsAxes(t *testing.T) {
	const w, h = 64, 48
	frame := make([]byte, nv21.FrameSize(w, h))
	nv21.FillSolid(frame, w, h, 0, 0, 0)

	s := NewSnapshotter(t.TempDir(), "snap", "png", mockClock())
	segs := []projection.Segment{
		{Axis: projection.AxisX, From: image.Pt(10, 10), To: image.Pt(50, 10)},
		{Axis: projection.AxisY, From: image.Pt(10, 20), To: image.Pt(10, 40)},
	}
	img, err := s.Compose(frame, capture.Resolution{Width: w, Height: h}, segs)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, w, h) {
		t.Fatalf("bounds = %v", img.Bounds())
	}

	r, g, b, _ := img.At(30, 10).RGBA()
	if r>>8 < 200 || g>>8 > 60 || b>>8 > 60 {
		t.Errorf("x axis pixel = (%d, %d, %d), want red", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = img.At(10, 30).RGBA()
	if g>>8 < 200 || r>>8 > 60 || b>>8 > 60 {
		t.Errorf("y axis pixel = (%d, %d, %d), want green", r>>8, g>>8, b>>8)
	}
	r, g, b, _ = img.At(40, 40).RGBA()
	if r>>8 > 20 || g>>8 > 20 || b>>8 > 20 {
		t.Errorf("background pixel = (%d, %d, %d), want black", r>>8, g>>8, b>>8)
	}
}

func TestComposeRejectsShortFrame(t *testing.T) {
	s := NewSnapshotter("", "snap", "png", mockClock())
	if _, err := s.Compose(make([]byte, 10), capture.Resolution{Width: 64, Height: 48}, nil); err == nil {
		t.Error("expected error for short frame")
	}
}

func TestCaptureFromPixelsFlips(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshotter(dir, "screen", "png", mockClock())

	// 1×2 image: bottom row (first in GL order) red, top row blue.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	path, err := s.CaptureFromPixels(pixels, 1, 2, "gl")
	if err != nil {
		t.Fatal(err)
	}
	img, err := imaging.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, b, _ := img.At(0, 0).RGBA(); b>>8 != 255 || r != 0 {
		t.Errorf("top pixel = %v, want blue", img.At(0, 0))
	}
	if r, _, _, _ := img.At(0, 1).RGBA(); r>>8 != 255 {
		t.Errorf("bottom pixel = %v, want red", img.At(0, 1))
	}

	if _, err := s.CaptureFromPixels(pixels[:4], 1, 2, ""); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestCaptureFromImageJPEG(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshotter(dir, "snap", "jpg", mockClock())
	path, err := s.CaptureFromImage(image.NewRGBA(image.Rect(0, 0, 8, 8)))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(path) != ".jpg" {
		t.Errorf("path = %s", path)
	}
	if _, err := imaging.Open(path); err != nil {
		t.Errorf("reopening %s: %v", path, err)
	}
}

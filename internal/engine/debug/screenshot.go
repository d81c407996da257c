// Package debug exports what the preview shows, for inspection offline.
package debug

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/internal/engine/overlay"
	"github.com/Faultbox/tagoverlay/internal/engine/projection"
	"github.com/Faultbox/tagoverlay/pkg/nv21"
)

const timestampLayout = "2006-01-02_15-04-05.000"

// Snapshotter writes composed frames and screen captures to disk.
type Snapshotter struct {
	outputDir string
	prefix    string
	ext       string
	clock     clock.Clock

	// LineWidth is the axis stroke width in capture pixels.
	LineWidth float64
}

// NewSnapshotter creates a snapshotter writing prefix_<timestamp>.<format>
// files into outputDir. format is png or jpg.
func NewSnapshotter(outputDir, prefix, format string, clk clock.Clock) *Snapshotter {
	if clk == nil {
		clk = clock.New()
	}
	ext := strings.ToLower(strings.TrimPrefix(format, "."))
	if ext == "" {
		ext = "png"
	}
	return &Snapshotter{
		outputDir: outputDir,
		prefix:    prefix,
		ext:       ext,
		clock:     clk,
		LineWidth: 3,
	}
}

// SetOutputDir sets the output directory for snapshots.
func (s *Snapshotter) SetOutputDir(dir string) {
	s.outputDir = dir
}

// Compose converts an NV21 frame to RGB on the CPU and strokes the axis
// segments over it, in capture pixels.
func (s *Snapshotter) Compose(frame []byte, res capture.Resolution, segs []projection.Segment) (image.Image, error) {
	img, err := nv21.ToRGBA(frame, res.Width, res.Height)
	if err != nil {
		return nil, fmt.Errorf("composing snapshot: %w", err)
	}
	dc := gg.NewContextForRGBA(img)
	dc.SetLineWidth(s.LineWidth)
	for _, seg := range segs {
		dc.SetColor(overlay.AxisColor(seg.Axis).RGBA())
		dc.DrawLine(float64(seg.From.X), float64(seg.From.Y), float64(seg.To.X), float64(seg.To.Y))
		dc.Stroke()
	}
	return dc.Image(), nil
}

// CaptureFromPixels saves a GL framebuffer readback. pixels should be in
// RGBA format with width*height*4 bytes. The image is flipped vertically
// since OpenGL has origin at bottom-left.
func (s *Snapshotter) CaptureFromPixels(pixels []byte, width, height int, suffix string) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	img := &image.NRGBA{
		Pix:    pixels,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	return s.save(imaging.FlipV(img), suffix)
}

// CaptureFromImage saves img.
func (s *Snapshotter) CaptureFromImage(img image.Image) (string, error) {
	return s.save(img, "")
}

func (s *Snapshotter) save(img image.Image, suffix string) (string, error) {
	if s.outputDir != "" {
		if err := os.MkdirAll(s.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}
	filename := s.GenerateFilename(suffix)
	if err := imaging.Save(img, filename, imaging.JPEGQuality(92)); err != nil {
		return "", fmt.Errorf("saving %s: %w", filename, err)
	}
	return filename, nil
}

// GenerateFilename generates a snapshot filename without saving.
func (s *Snapshotter) GenerateFilename(suffix string) string {
	name := s.prefix + "_" + s.clock.Now().Format(timestampLayout)
	if suffix != "" {
		name += "_" + suffix
	}
	name += "." + s.ext
	if s.outputDir != "" {
		name = filepath.Join(s.outputDir, name)
	}
	return name
}

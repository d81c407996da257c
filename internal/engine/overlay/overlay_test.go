package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/internal/engine/projection"
)

func TestAxisColor(t *testing.T) {
	tests := []struct {
		axis projection.Axis
		want Color
	}{
		{projection.AxisX, Red},
		{projection.AxisY, Green},
		{projection.AxisZ, Blue},
		{projection.Axis(9), White},
	}
	for _, tt := range tests {
		if got := AxisColor(tt.axis); got != tt.want {
			t.Errorf("AxisColor(%s) = %v, want %v", tt.axis, got, tt.want)
		}
	}
}

func TestColorRGBA(t *testing.T) {
	got := Color{1, 0.5, -1, 2}.RGBA()
	want := color.NRGBA{R: 255, G: 128, B: 0, A: 255}
	if got != want {
		t.Errorf("RGBA = %v, want %v", got, want)
	}
}

func TestAppendLines(t *testing.T) {
	frame := capture.Resolution{Width: 640, Height: 480}
	segs := []projection.Segment{
		{Axis: projection.AxisX, From: image.Pt(320, 240), To: image.Pt(640, 240)},
		{Axis: projection.AxisZ, From: image.Pt(320, 240), To: image.Pt(320, 0)},
	}
	lines := AppendLines(nil, segs, frame)
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0] != (Line{X0: 0, Y0: 0, X1: 1, Y1: 0, Color: Red}) {
		t.Errorf("x line = %+v", lines[0])
	}
	if lines[1] != (Line{X0: 0, Y0: 0, X1: 0, Y1: 1, Color: Blue}) {
		t.Errorf("z line = %+v", lines[1])
	}

	if got := AppendLines(lines[:0], nil, frame); len(got) != 0 {
		t.Errorf("no segments produced %d lines", len(got))
	}
}

// Package overlay turns projected axis segments into coloured NDC lines.
package overlay

import (
	"image/color"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/internal/engine/projection"
)

// Color is a linear RGBA colour with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// RGBA converts c to an 8-bit colour.
func (c Color) RGBA() color.NRGBA {
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}
}

func to8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

var (
	Red   = Color{1, 0, 0, 1}
	Green = Color{0, 1, 0, 1}
	Blue  = Color{0, 0, 1, 1}
	White = Color{1, 1, 1, 1}
)

// AxisColor returns red, green and blue for X, Y and Z.
func AxisColor(a projection.Axis) Color {
	switch a {
	case projection.AxisX:
		return Red
	case projection.AxisY:
		return Green
	case projection.AxisZ:
		return Blue
	}
	return White
}

// Line is a segment in normalized device coordinates.
type Line struct {
	X0, Y0, X1, Y1 float32
	Color          Color
}

// AppendLines converts segments in capture pixels to NDC lines for a frame
// of the given size and appends them to dst.
func AppendLines(dst []Line, segs []projection.Segment, frame capture.Resolution) []Line {
	for _, s := range segs {
		x0, y0 := projection.ToNDC(s.From, frame)
		x1, y1 := projection.ToNDC(s.To, frame)
		dst = append(dst, Line{X0: x0, Y0: y0, X1: x1, Y1: y1, Color: AxisColor(s.Axis)})
	}
	return dst
}

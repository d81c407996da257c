// Package projection maps object-space points into screen pixels through
// the calibrated camera model.
package projection

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/tagoverlay/internal/capture"
)

const (
	// MinDepth is the smallest homogeneous w a point may have and still be
	// drawn. Points at or behind the camera plane are culled.
	MinDepth = 1e-6

	// DefaultMarkerEdge is the axis length in object units.
	DefaultMarkerEdge = 20.0

	// DefaultFocal is the focal length, in processing pixels, assumed when no
	// calibration is configured.
	DefaultFocal = 270.0
)

// ErrIntrinsics is returned for an unusable camera matrix.
var ErrIntrinsics = errors.New("invalid camera intrinsics")

// Intrinsics are pinhole camera parameters in processing-resolution pixels.
type Intrinsics struct {
	Fx, Fy float64
	Cx, Cy float64
}

// DefaultIntrinsics centres the principal point in the processing frame.
func DefaultIntrinsics(processing capture.Resolution) Intrinsics {
	return Intrinsics{
		Fx: DefaultFocal,
		Fy: DefaultFocal,
		Cx: float64(processing.Width) / 2,
		Cy: float64(processing.Height) / 2,
	}
}

// CheckValid reports an error unless both focal lengths are positive.
func (k Intrinsics) CheckValid() error {
	if k.Fx <= 0 || k.Fy <= 0 {
		return fmt.Errorf("%w: focal length (%g, %g)", ErrIntrinsics, k.Fx, k.Fy)
	}
	return nil
}

// Matrix returns the row-major 3×3 camera matrix.
func (k Intrinsics) Matrix() [9]float64 {
	return [9]float64{
		k.Fx, 0, k.Cx,
		0, k.Fy, k.Cy,
		0, 0, 1,
	}
}

// Mat4 embeds the camera matrix in a 4×4 whose last row copies z into w,
// so that w of K·p is the point's depth.
func (k Intrinsics) Mat4() mgl64.Mat4 {
	return mgl64.Mat4FromRows(
		mgl64.Vec4{k.Fx, 0, k.Cx, 0},
		mgl64.Vec4{0, k.Fy, k.Cy, 0},
		mgl64.Vec4{0, 0, 1, 0},
		mgl64.Vec4{0, 0, 1, 0},
	)
}

// Axis identifies one of the three object axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// Segment is one projected axis in capture-resolution pixels.
type Segment struct {
	Axis     Axis
	From, To image.Point
}

// Model projects object-space points with a fixed camera matrix and the
// processing-to-capture scale factors.
type Model struct {
	k              mgl64.Mat4
	xScale, yScale float64
	edge           float64
}

// New returns a model for intrinsics k. xScale and yScale map processing
// pixels to capture pixels.
func New(k Intrinsics, xScale, yScale float64) *Model {
	return &Model{
		k:      k.Mat4(),
		xScale: xScale,
		yScale: yScale,
		edge:   DefaultMarkerEdge,
	}
}

// SetMarkerEdge sets the axis length used by Axes. Non-positive values
// restore the default.
func (m *Model) SetMarkerEdge(edge float64) {
	if edge <= 0 {
		edge = DefaultMarkerEdge
	}
	m.edge = edge
}

// Project returns K·t·v.
func (m *Model) Project(t mgl64.Mat4, v mgl64.Vec4) mgl64.Vec4 {
	return m.k.Mul4(t).Mul4x1(v)
}

// ScreenPoint divides by w and scales into capture pixels, truncating
// toward zero. It reports false for points with w <= MinDepth.
func (m *Model) ScreenPoint(v mgl64.Vec4) (image.Point, bool) {
	w := v.W()
	if w <= MinDepth {
		return image.Point{}, false
	}
	return image.Pt(int(m.xScale*v.X()/w), int(m.yScale*v.Y()/w)), true
}

// ReferencePoints returns the origin followed by the X, Y and Z axis ends.
func ReferencePoints(edge float64) [4]mgl64.Vec4 {
	return [4]mgl64.Vec4{
		{0, 0, 0, 1},
		{edge, 0, 0, 1},
		{0, edge, 0, 1},
		{0, 0, edge, 1},
	}
}

var axisOrder = [3]Axis{AxisX, AxisY, AxisZ}

// Axes projects the object axes of transform t. A segment with a culled
// endpoint is omitted, so fewer than three segments may be returned.
func (m *Model) Axes(t mgl64.Mat4) []Segment {
	return m.AppendAxes(nil, t)
}

// AppendAxes is Axes appending to dst, for callers that reuse one buffer
// across frames.
func (m *Model) AppendAxes(dst []Segment, t mgl64.Mat4) []Segment {
	kt := m.k.Mul4(t)
	refs := ReferencePoints(m.edge)

	origin, ok := m.ScreenPoint(kt.Mul4x1(refs[0]))
	if !ok {
		return dst
	}
	for i, axis := range axisOrder {
		end, ok := m.ScreenPoint(kt.Mul4x1(refs[i+1]))
		if !ok {
			continue
		}
		dst = append(dst, Segment{Axis: axis, From: origin, To: end})
	}
	return dst
}

// ToNDC converts a capture-resolution pixel into normalized device
// coordinates for a frame of the given size. Y points up in NDC.
func ToNDC(p image.Point, frame capture.Resolution) (x, y float32) {
	x = float32((float64(p.X)/float64(frame.Width) - 0.5) * 2)
	y = float32(-(float64(p.Y)/float64(frame.Height) - 0.5) * 2)
	return x, y
}

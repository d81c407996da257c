// Package pose defines the contract of the external pose estimator: the
// transforms it produces, the detection modes it accepts and the calibration
// it is configured with.
package pose

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxDistortionCoeffs is the largest distortion vector the estimator accepts.
const MaxDistortionCoeffs = 6

var (
	// ErrBufferSize is returned when an image buffer does not match the
	// resolution the estimator was built for.
	ErrBufferSize = errors.New("pose: image buffer size mismatch")

	// ErrDistortion is returned for distortion vectors longer than MaxDistortionCoeffs.
	ErrDistortion = errors.New("pose: too many distortion coefficients")
)

// Transform is one estimated object: its name and the 4x4 rigid transform
// from the object frame to the camera frame.
//
// A Transform is only valid for the frame it was estimated from.
type Transform struct {
	Name   string
	Matrix mgl64.Mat4
}

// NewTransform returns a transform with the identity matrix.
func NewTransform(name string) Transform {
	return Transform{Name: name, Matrix: mgl64.Ident4()}
}

// FromRows builds a transform from a row-major 4x4 array.
func FromRows(name string, rows [4][4]float64) Transform {
	var m mgl64.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m.Set(r, c, rows[r][c])
		}
	}
	return Transform{Name: name, Matrix: m}
}

// Rows returns the matrix in row-major order.
func (t Transform) Rows() [4][4]float64 {
	var rows [4][4]float64
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			rows[r][c] = t.Matrix.At(r, c)
		}
	}
	return rows
}

// Translation returns the object origin in camera coordinates.
func (t Transform) Translation() mgl64.Vec3 {
	return t.Matrix.Col(3).Vec3()
}

// IsRigid reports whether the last row is [0 0 0 1] and the rotation block is
// orthonormal, both within tol.
func (t Transform) IsRigid(tol float64) bool {
	last := t.Matrix.Row(3)
	if !last.ApproxEqualThreshold(mgl64.Vec4{0, 0, 0, 1}, tol) {
		return false
	}
	rot := t.Matrix.Mat3()
	should := rot.Transpose().Mul3(rot)
	return should.ApproxEqualThreshold(mgl64.Ident3(), tol) && math.Abs(rot.Det()-1) <= tol
}

// DetectionMode tells the estimator how to combine tracking and full detection.
type DetectionMode int

const (
	// TrackAndDetect tracks the previous results, then runs a full detection on the same image.
	TrackAndDetect DetectionMode = iota
	// DetectOnly disables tracking.
	DetectOnly
	// TrackOnly only tracks previous results.
	TrackOnly
	// DetectPeriodically runs a full detection every few frames and tracks in between.
	DetectPeriodically
)

var modeNames = [...]string{
	TrackAndDetect:     "track_and_detect",
	DetectOnly:         "detect_only",
	TrackOnly:          "track_only",
	DetectPeriodically: "detect_periodically",
}

func (m DetectionMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("DetectionMode(%d)", int(m))
	}
	return modeNames[m]
}

// Next returns the following mode, wrapping around.
func (m DetectionMode) Next() DetectionMode {
	return (m + 1) % DetectionMode(len(modeNames))
}

// ParseDetectionMode parses a mode name as printed by String.
func ParseDetectionMode(s string) (DetectionMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if s == name {
			return DetectionMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown detection mode %q", s)
}

// InputType is the color encoding of buffers passed to the estimator.
type InputType int

const (
	YUVNV21 InputType = iota
	RGB565
	RGB888
)

// BytesPerFrame returns the buffer length of a w×h image in this encoding.
func (t InputType) BytesPerFrame(w, h int) int {
	switch t {
	case RGB565:
		return w * h * 2
	case RGB888:
		return w * h * 3
	default:
		return w * h * 3 / 2
	}
}

// PerformancePreset trades detection speed against accuracy.
type PerformancePreset int

const (
	// Faster skips corner refinement.
	Faster PerformancePreset = iota
	// Fast refines corners; the default.
	Fast
	// Robust refines corners and subsamples input down to 160 pixels wide.
	Robust
)

var presetNames = [...]string{
	Faster: "faster",
	Fast:   "fast",
	Robust: "robust",
}

func (p PerformancePreset) String() string {
	if p >= 0 && int(p) < len(presetNames) {
		return presetNames[p]
	}
	return fmt.Sprintf("preset(%d)", int(p))
}

// ParsePerformancePreset parses a preset name as produced by String.
func ParsePerformancePreset(s string) (PerformancePreset, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range presetNames {
		if name == s {
			return PerformancePreset(i), nil
		}
	}
	return 0, fmt.Errorf("unknown performance preset %q", s)
}

// Params are the construction parameters of an estimator.
type Params struct {
	Width            int
	Height           int
	ProcessingWidth  int
	ProcessingHeight int
	Input            InputType
	Preset           PerformancePreset
}

// FrameBytes returns the expected image buffer length.
func (p Params) FrameBytes() int {
	return p.Input.BytesPerFrame(p.Width, p.Height)
}

// Calibration is the camera model handed to the estimator.
type Calibration struct {
	// Matrix is the row-major 3x3 camera matrix.
	Matrix     [9]float64
	Distortion []float64
}

// Validate checks the distortion vector length and that the matrix is not degenerate.
func (c Calibration) Validate() error {
	if len(c.Distortion) > MaxDistortionCoeffs {
		return fmt.Errorf("%w: %d > %d", ErrDistortion, len(c.Distortion), MaxDistortionCoeffs)
	}
	if c.Matrix[0] <= 0 || c.Matrix[4] <= 0 {
		return fmt.Errorf("pose: focal lengths must be positive, got fx=%g fy=%g", c.Matrix[0], c.Matrix[4])
	}
	return nil
}

// Estimator is the synchronous estimation capability. Estimate blocks until
// the transforms for image are known; image must match the resolution and
// encoding the estimator was constructed with.
type Estimator interface {
	Estimate(image []byte, mode DetectionMode) ([]Transform, error)
}

// Configurer is implemented by estimators that accept calibration and tag
// geometry at runtime. Both calls are opaque to this module.
type Configurer interface {
	SetCalibration(c Calibration) error
	ReadTagConfiguration(path string, omitUnlisted bool) error
}

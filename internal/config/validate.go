package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/tagoverlay/internal/logger"
	"github.com/Faultbox/tagoverlay/pkg/pose"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks settings that would otherwise fail late, at device or
// surface creation. All problems are reported together.
func (c *Config) Validate() error {
	var err error
	bad := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	switch c.Camera.Source {
	case SourceSynthetic, SourceV4L2:
	default:
		bad("camera.source %q (want %s or %s)", c.Camera.Source, SourceSynthetic, SourceV4L2)
	}
	if c.Camera.Source == SourceV4L2 && c.Camera.Device == "" {
		bad("camera.device is required for the v4l2 source")
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 || c.Camera.Width%2 != 0 || c.Camera.Height%2 != 0 {
		bad("camera size %dx%d must be positive and even", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		bad("camera.fps %d must be positive", c.Camera.FPS)
	}
	if c.Camera.MaxProcessingWidth <= 0 {
		bad("camera.max_processing_width %d must be positive", c.Camera.MaxProcessingWidth)
	}

	if c.Calibration.IsSet() && (c.Calibration.Fx <= 0 || c.Calibration.Fy <= 0) {
		bad("calibration focal lengths (%g, %g) must be positive", c.Calibration.Fx, c.Calibration.Fy)
	}
	if n := len(c.Calibration.Distortion); n > pose.MaxDistortionCoeffs {
		bad("calibration.distortion has %d coefficients, at most %d allowed", n, pose.MaxDistortionCoeffs)
	}

	if _, e := pose.ParseDetectionMode(c.Estimator.Mode); e != nil {
		bad("estimator.mode: %v", e)
	}
	if _, e := pose.ParsePerformancePreset(c.Estimator.Preset); e != nil {
		bad("estimator.preset: %v", e)
	}
	if c.Estimator.MarkerSize <= 0 {
		bad("estimator.marker_size %g must be positive", c.Estimator.MarkerSize)
	}

	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		bad("display size %dx%d must be positive", c.Display.Width, c.Display.Height)
	}
	switch c.Snapshot.Format {
	case "png", "jpg", "jpeg":
	default:
		bad("snapshot.format %q (want png or jpg)", c.Snapshot.Format)
	}
	if !logger.ValidLevel(c.Logging.Level) {
		bad("logging.level %q", c.Logging.Level)
	}
	return err
}

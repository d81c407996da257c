package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/internal/capture/v4l2"
	"github.com/Faultbox/tagoverlay/internal/config"
	"github.com/Faultbox/tagoverlay/internal/engine/projection"
	"github.com/Faultbox/tagoverlay/internal/logger"
	"github.com/Faultbox/tagoverlay/pkg/pose"
)

// newSource builds the frame source selected by cfg.
func newSource(cfg config.CameraConfig) (capture.FrameSource, error) {
	switch cfg.Source {
	case config.SourceSynthetic:
		return capture.NewSynthetic(capture.SyntheticConfig{FPS: cfg.FPS}), nil
	case config.SourceV4L2:
		return v4l2.New(v4l2.Config{Device: cfg.Device, Autofocus: cfg.Autofocus}, logger.Named("v4l2")), nil
	}
	return nil, fmt.Errorf("unknown frame source %q", cfg.Source)
}

// geometry is everything derived from the negotiated capture size.
type geometry struct {
	full, processing capture.Resolution
	xScale, yScale   float64
	intrinsics       projection.Intrinsics
}

func newGeometry(full capture.Resolution, cam config.CameraConfig, cal config.CalibrationConfig) (geometry, error) {
	g := geometry{full: full}
	g.processing = capture.ProcessingResolution(full, cam.MaxProcessingWidth)
	g.xScale, g.yScale = capture.ScaleFactors(full, g.processing)

	g.intrinsics = projection.DefaultIntrinsics(g.processing)
	if cal.IsSet() {
		g.intrinsics = projection.Intrinsics{Fx: cal.Fx, Fy: cal.Fy, Cx: cal.Cx, Cy: cal.Cy}
	}
	if err := g.intrinsics.CheckValid(); err != nil {
		return geometry{}, err
	}
	return g, nil
}

func (g geometry) model(markerSize float64) *projection.Model {
	m := projection.New(g.intrinsics, g.xScale, g.yScale)
	m.SetMarkerEdge(markerSize)
	return m
}

func (g geometry) params(preset pose.PerformancePreset) pose.Params {
	return pose.Params{
		Width:            g.full.Width,
		Height:           g.full.Height,
		ProcessingWidth:  g.processing.Width,
		ProcessingHeight: g.processing.Height,
		Input:            pose.YUVNV21,
		Preset:           preset,
	}
}

// newEstimator loads the scripted estimator and hands it the calibration
// and tag configuration, then wraps it so faults never reach the draw loop.
func newEstimator(cfg *config.Config, g geometry, log *zap.Logger) (*pose.Guarded, *pose.Replay, error) {
	preset, err := pose.ParsePerformancePreset(cfg.Estimator.Preset)
	if err != nil {
		return nil, nil, err
	}
	params := g.params(preset)

	replay := pose.NewReplay(nil)
	if cfg.Estimator.ReplayFile != "" {
		if replay, err = pose.LoadReplay(cfg.Estimator.ReplayFile); err != nil {
			return nil, nil, err
		}
	}

	var est pose.Estimator = replay
	if c, ok := est.(pose.Configurer); ok {
		cal := pose.Calibration{Matrix: g.intrinsics.Matrix(), Distortion: cfg.Calibration.Distortion}
		if err := c.SetCalibration(cal); err != nil {
			return nil, nil, fmt.Errorf("configuring estimator: %w", err)
		}
		if cfg.Estimator.TagConfig != "" {
			if err := c.ReadTagConfiguration(cfg.Estimator.TagConfig, cfg.Estimator.OmitUnlisted); err != nil {
				return nil, nil, fmt.Errorf("configuring estimator: %w", err)
			}
		}
	}

	log.Info("estimator ready",
		zap.String("replay", cfg.Estimator.ReplayFile),
		zap.Int("frame_bytes", params.FrameBytes()),
		zap.Stringer("preset", params.Preset),
		zap.Int("processing_width", params.ProcessingWidth),
		zap.Int("processing_height", params.ProcessingHeight),
	)
	return pose.NewGuarded(est, params.FrameBytes(), logger.Sampled(log)), replay, nil
}

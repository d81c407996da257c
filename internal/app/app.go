// Package app wires capture, estimation and the preview surface into the
// main loop.
package app

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/internal/config"
	"github.com/Faultbox/tagoverlay/internal/engine/debug"
	"github.com/Faultbox/tagoverlay/internal/engine/input"
	"github.com/Faultbox/tagoverlay/internal/engine/overlay"
	"github.com/Faultbox/tagoverlay/internal/engine/renderer"
	"github.com/Faultbox/tagoverlay/internal/engine/window"
	"github.com/Faultbox/tagoverlay/internal/logger"
	"github.com/Faultbox/tagoverlay/internal/preview"
	"github.com/Faultbox/tagoverlay/pkg/pose"
)

// App is the running preview.
type App struct {
	cfg   *config.Config
	log   *zap.Logger
	clock clock.Clock

	session   *capture.Session
	estimator *pose.Guarded
	window    *window.Window
	renderer  *renderer.Renderer
	input     *input.Input
	surface   *preview.Surface
	snap      *debug.Snapshotter

	running      bool
	showStats    bool
	snapshotNext bool
}

// New opens the camera, loads the estimator and creates the window and
// surface. The returned App must be closed.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:       cfg,
		log:       logger.Named("app"),
		clock:     clock.New(),
		input:     input.New(),
		showStats: cfg.Display.ShowFPS,
	}
	a.log.Info("initializing preview",
		zap.String("source", cfg.Camera.Source),
		zap.Int("capture_width", cfg.Camera.Width),
		zap.Int("capture_height", cfg.Camera.Height),
	)

	src, err := newSource(cfg.Camera)
	if err != nil {
		return nil, err
	}
	a.session = capture.NewSession(src, logger.Named("capture"))
	full, err := a.session.Start(capture.Resolution{Width: cfg.Camera.Width, Height: cfg.Camera.Height})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to start capture: %w", err)
	}

	geo, err := newGeometry(full, cfg.Camera, cfg.Calibration)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.estimator, _, err = newEstimator(cfg, geo, logger.Named("estimator"))
	if err != nil {
		a.Close()
		return nil, err
	}
	mode, err := pose.ParseDetectionMode(cfg.Estimator.Mode)
	if err != nil {
		a.Close()
		return nil, err
	}

	// Window before renderer: the GL context must exist.
	a.window, err = window.New(window.Config{
		Title:      cfg.Display.Title,
		Width:      cfg.Display.Width,
		Height:     cfg.Display.Height,
		Fullscreen: cfg.Display.Fullscreen,
		VSync:      cfg.Display.VSync,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	dw, dh := a.window.DrawableSize()
	a.renderer = renderer.New(renderer.Config{
		Width:      dw,
		Height:     dh,
		ClearColor: overlay.Color{R: 0.05, G: 0.05, B: 0.08, A: 1},
	})
	a.surface = preview.NewSurface(a.session, a.renderer, a.estimator, geo.model(cfg.Estimator.MarkerSize), mode)
	if err := a.surface.OnSurfaceCreated(); err != nil {
		a.Close()
		return nil, err
	}
	a.surface.OnSurfaceChanged(dw, dh)

	a.snap = debug.NewSnapshotter(cfg.Snapshot.Dir, cfg.Snapshot.Prefix, cfg.Snapshot.Format, a.clock)

	a.log.Info("preview initialized",
		zap.Stringer("capture", geo.full),
		zap.Stringer("processing", geo.processing),
		zap.Float64("x_scale", geo.xScale),
		zap.Float64("y_scale", geo.yScale),
	)
	return a, nil
}

// Run drives the main loop until the window is closed or quit is pressed.
func (a *App) Run() error {
	a.running = true
	fps := NewFPSCounter(a.clock, time.Second, a.reportFPS)

	a.log.Info("starting preview loop")
	for a.running {
		if a.input.Update() {
			a.running = false
			break
		}
		if _, _, ok := a.input.Resized(); ok {
			a.surface.OnSurfaceChanged(a.window.DrawableSize())
		}
		for _, act := range a.input.Actions() {
			a.handle(act)
		}

		a.surface.OnDrawFrame()

		// Read back before the swap leaves the back buffer undefined.
		if a.snapshotNext {
			a.snapshotNext = false
			a.snapshot()
		}
		a.window.SwapBuffers()
		fps.Frame()
	}
	return nil
}

func (a *App) handle(act input.Action) {
	switch act {
	case input.ActionQuit:
		a.running = false
	case input.ActionSnapshot:
		a.snapshotNext = true
	case input.ActionCycleMode:
		a.surface.CycleMode()
	case input.ActionToggleStats:
		a.showStats = !a.showStats
		if !a.showStats {
			a.window.SetTitle(a.cfg.Display.Title)
		}
	case input.ActionToggleFullscreen:
		if _, err := a.window.ToggleFullscreen(); err != nil {
			a.log.Warn("fullscreen toggle failed", zap.Error(err))
		}
	}
}

func (a *App) reportFPS(s FPSSample) {
	st := a.surface.Stats()
	a.log.Debug("fps",
		zap.Float64("fps", s.FPS()),
		zap.Uint64("captured", a.session.Frames()),
		zap.Uint64("dropped", a.session.Dropped()),
		zap.Uint64("drawn", st.FramesDrawn),
		zap.Uint64("skipped", st.FramesSkipped),
		zap.Uint64("detections", st.Detections),
		zap.Uint64("culled", st.SegmentsCulled),
		zap.Uint64("estimator_failures", a.estimator.Failures()),
	)
	if a.showStats {
		a.window.SetTitle(fmt.Sprintf("%s | %.1f fps | %s | %d objects",
			a.cfg.Display.Title, s.FPS(), a.surface.Mode(), st.Detections))
	}
}

// snapshot saves the composed camera frame with axes and the GL back buffer.
func (a *App) snapshot() {
	frame, ok := a.session.Latest()
	if !ok {
		a.log.Warn("snapshot skipped: no frame yet")
		return
	}
	// The live buffer keeps changing underneath; encode from a copy.
	frame = append([]byte(nil), frame...)

	img, err := a.snap.Compose(frame, a.surface.Frame(), a.surface.LastSegments())
	if err != nil {
		a.log.Warn("snapshot failed", zap.Error(err))
		return
	}
	path, err := a.snap.CaptureFromImage(img)
	if err != nil {
		a.log.Warn("snapshot failed", zap.Error(err))
		return
	}
	a.log.Info("snapshot saved", zap.String("path", path))

	pixels, w, h := a.renderer.ReadPixels()
	if path, err = a.snap.CaptureFromPixels(pixels, w, h, "screen"); err != nil {
		a.log.Warn("screen capture failed", zap.Error(err))
		return
	}
	a.log.Info("screen capture saved", zap.String("path", path))
}

// Close stops capture (delivery, placeholder, device, in that order), then
// releases the surface and the window.
func (a *App) Close() error {
	a.log.Info("closing preview")
	var err error
	if a.session != nil {
		err = multierr.Append(err, a.session.Stop())
	}
	if a.surface != nil {
		err = multierr.Append(err, a.surface.Close())
	}
	if a.window != nil {
		a.window.Close()
		a.window = nil
	}
	if err != nil {
		a.log.Warn("errors during shutdown", zap.Error(err))
	}
	return err
}

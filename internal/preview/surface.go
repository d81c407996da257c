// Package preview runs the per-frame draw cycle: camera background first,
// then the axes of every object the estimator reports.
package preview

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/internal/engine/overlay"
	"github.com/Faultbox/tagoverlay/internal/engine/projection"
	"github.com/Faultbox/tagoverlay/internal/logger"
	"github.com/Faultbox/tagoverlay/pkg/pose"
)

// Backend owns the GPU resources of a surface. All methods run on the
// draw thread.
type Backend interface {
	// Init creates programs, textures and buffers for frames of the given size.
	Init(frame capture.Resolution) error
	Resize(width, height int)
	Clear()
	DrawBackground(frame []byte) error
	DrawLine(l overlay.Line)
	// Placeholder returns the device-activation target owned by the surface.
	Placeholder() capture.Placeholder
	// Close releases whatever exists; it must be safe after a failed Init.
	Close() error
}

// Feed is the frame side of a capture session.
type Feed interface {
	Latest() ([]byte, bool)
	Resolution() capture.Resolution
	AttachPlaceholder(p capture.Placeholder) error
}

// Detector returns the objects visible in a frame. It must not fail;
// faults are reported as no detections.
type Detector interface {
	Estimate(image []byte, mode pose.DetectionMode) []pose.Transform
}

// Stats counts draw-cycle outcomes since the surface was created.
type Stats struct {
	FramesDrawn    uint64
	FramesSkipped  uint64
	Detections     uint64
	SegmentsDrawn  uint64
	SegmentsCulled uint64
}

// Surface ties a frame feed, a detector and a projection model to a backend.
type Surface struct {
	feed    Feed
	backend Backend
	det     Detector
	model   *projection.Model
	log     *zap.Logger
	hot     *zap.Logger

	frame   capture.Resolution
	created bool
	mode    pose.DetectionMode
	stats   Stats
	segs    []projection.Segment
	lines   []overlay.Line

	// last is read by the snapshot path, possibly from another goroutine.
	mu   sync.Mutex
	last []projection.Segment
}

// NewSurface returns a surface. Nothing touches the backend until
// OnSurfaceCreated.
func NewSurface(feed Feed, backend Backend, det Detector, model *projection.Model, mode pose.DetectionMode) *Surface {
	log := logger.Named("preview")
	return &Surface{
		feed:    feed,
		backend: backend,
		det:     det,
		model:   model,
		mode:    mode,
		log:     log,
		hot:     logger.Sampled(log),
	}
}

// OnSurfaceCreated initializes the backend for the feed's resolution and
// attaches the placeholder target to the feed. An error here is fatal for
// the surface, and any backend resources created before it are released.
func (s *Surface) OnSurfaceCreated() error {
	s.frame = s.feed.Resolution()
	err := s.backend.Init(s.frame)
	if err == nil {
		err = s.feed.AttachPlaceholder(s.backend.Placeholder())
	}
	if err != nil {
		err = fmt.Errorf("initializing surface: %w", err)
		return multierr.Append(err, s.backend.Close())
	}
	s.created = true
	s.log.Info("surface created", zap.Stringer("frame", s.frame), zap.Stringer("mode", s.mode))
	return nil
}

// OnSurfaceChanged resizes the viewport.
func (s *Surface) OnSurfaceChanged(width, height int) {
	s.backend.Resize(width, height)
}

// OnDrawFrame runs one draw cycle. A cycle with no frame yet only clears.
func (s *Surface) OnDrawFrame() {
	if !s.created {
		return
	}
	s.backend.Clear()

	frame, ok := s.feed.Latest()
	if !ok {
		s.stats.FramesSkipped++
		return
	}
	if err := s.backend.DrawBackground(frame); err != nil {
		s.stats.FramesSkipped++
		s.hot.Warn("drawing background", zap.Error(err))
		return
	}
	s.stats.FramesDrawn++

	objects := s.det.Estimate(frame, s.mode)
	s.stats.Detections += uint64(len(objects))

	s.segs = s.segs[:0]
	for _, obj := range objects {
		n := len(s.segs)
		s.segs = s.model.AppendAxes(s.segs, obj.Matrix)
		s.stats.SegmentsCulled += uint64(3 - (len(s.segs) - n))
	}

	s.lines = overlay.AppendLines(s.lines[:0], s.segs, s.frame)
	for _, l := range s.lines {
		s.backend.DrawLine(l)
	}
	s.stats.SegmentsDrawn += uint64(len(s.lines))

	s.mu.Lock()
	s.last = append(s.last[:0], s.segs...)
	s.mu.Unlock()
}

// Stats returns the draw counters. Call from the draw thread.
func (s *Surface) Stats() Stats {
	return s.stats
}

// Mode returns the detection mode passed to the detector.
func (s *Surface) Mode() pose.DetectionMode {
	return s.mode
}

// SetMode changes the detection mode from the next cycle on.
func (s *Surface) SetMode(m pose.DetectionMode) {
	if m == s.mode {
		return
	}
	s.log.Info("detection mode changed", zap.Stringer("from", s.mode), zap.Stringer("to", m))
	s.mode = m
}

// CycleMode advances to the next detection mode and returns it.
func (s *Surface) CycleMode() pose.DetectionMode {
	s.SetMode(s.mode.Next())
	return s.mode
}

// Frame returns the capture resolution the surface was created for.
func (s *Surface) Frame() capture.Resolution {
	return s.frame
}

// LastSegments returns a copy of the segments drawn by the last cycle.
func (s *Surface) LastSegments() []projection.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]projection.Segment, len(s.last))
	copy(out, s.last)
	return out
}

// Close releases the backend.
func (s *Surface) Close() error {
	if !s.created {
		return nil
	}
	s.created = false
	return s.backend.Close()
}

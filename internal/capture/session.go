package capture

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/tagoverlay/pkg/nv21"
)

// Session owns exactly one frame buffer for a capture stream.
//
// The buffer is shared with the source without locking: the source writes
// into it, the frame handler immediately re-submits it, and the renderer may
// read it at any time. A reader can therefore observe a frame that is being
// overwritten by the next capture. This torn read shows up as a one-frame
// glitch and is accepted in exchange for no per-frame allocation and no
// cross-goroutine blocking.
type Session struct {
	src FrameSource
	log *zap.Logger

	// mu guards lifecycle transitions only; the frame path never takes it.
	mu          sync.Mutex
	buf         []byte
	res         Resolution
	started     bool
	opened      bool
	placeholder Placeholder

	// live is published once the first frame lands in buf.
	live   atomic.Pointer[[]byte]
	frames atomic.Uint64
}

// NewSession returns a session reading from src.
func NewSession(src FrameSource, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{src: src, log: log}
}

// Start opens the stream, allocates the frame buffer for the negotiated
// resolution and registers it with the source so the first frame has a
// destination. Calling Start on a started session returns the current resolution.
func (s *Session) Start(target Resolution) (Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return s.res, nil
	}

	res, err := s.src.StartStream(target)
	if err != nil {
		return Resolution{}, fmt.Errorf("starting capture at %s: %w", target, err)
	}
	if err := nv21.CheckSize(res.Width, res.Height); err != nil {
		err = fmt.Errorf("negotiated resolution: %w", err)
		// The device was opened by StartStream; nothing will stop it later.
		err = multierr.Append(err, s.src.StopStream())
		err = multierr.Append(err, s.src.Release())
		return Resolution{}, err
	}

	size := nv21.FrameSize(res.Width, res.Height)
	if len(s.buf) != size {
		s.buf = make([]byte, size)
	}
	// A fresh stream has no frame until the source delivers one.
	s.live.Store(nil)
	s.res = res
	s.started = true
	s.opened = true

	s.src.SetFrameHandler(s.onFrameReady)
	s.src.SubmitBuffer(s.buf)

	s.log.Info("capture started",
		zap.Stringer("requested", target),
		zap.Stringer("negotiated", res),
		zap.Int("buffer_bytes", size),
	)
	return res, nil
}

// onFrameReady runs on the source goroutine. The buffer goes straight back
// to the source before anything else so capture never starves.
func (s *Session) onFrameReady(buf []byte) {
	s.src.SubmitBuffer(buf)
	s.frames.Inc()
	if s.live.Load() == nil {
		s.live.Store(&buf)
	}
}

// Latest returns the frame buffer once at least one frame has arrived.
// It never blocks. The returned slice is the live buffer and may be
// overwritten by a concurrent capture.
func (s *Session) Latest() ([]byte, bool) {
	p := s.live.Load()
	if p == nil {
		return nil, false
	}
	return *p, true
}

// Recycle hands the buffer back to the source. Re-submitting an already
// queued buffer is harmless, so calling it repeatedly is safe.
func (s *Session) Recycle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.src.SubmitBuffer(s.buf)
}

// AttachPlaceholder attaches p as the device-activation target. Only the
// first placeholder is kept; later calls are no-ops.
func (s *Session) AttachPlaceholder(p Placeholder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.placeholder != nil || p == nil {
		return nil
	}
	if err := p.Attach(); err != nil {
		return fmt.Errorf("attaching placeholder: %w", err)
	}
	s.placeholder = p
	return nil
}

// Stop stops frame delivery, detaches the placeholder and releases the
// device, in that order. Stopping a session that never started is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.started {
		err = multierr.Append(err, s.src.StopStream())
		s.src.SetFrameHandler(nil)
		s.started = false
		s.live.Store(nil)
	}
	if s.placeholder != nil {
		s.placeholder.Detach()
		s.placeholder = nil
	}
	if s.opened {
		err = multierr.Append(err, s.src.Release())
		s.opened = false
		s.log.Info("capture stopped", zap.Uint64("frames", s.frames.Load()))
	}
	return err
}

// Resolution returns the negotiated resolution, zero before Start.
func (s *Session) Resolution() Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.res
}

// Frames returns the number of frames delivered since the session was created.
func (s *Session) Frames() uint64 {
	return s.frames.Load()
}

// Dropped returns the frames the source dropped, if it counts them.
func (s *Session) Dropped() uint64 {
	if dc, ok := s.src.(DropCounter); ok {
		return dc.Dropped()
	}
	return 0
}

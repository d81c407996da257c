package capture

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/atomic"

	"github.com/Faultbox/tagoverlay/pkg/nv21"
)

// SyntheticConfig configures a Synthetic source.
type SyntheticConfig struct {
	// FPS is the delivery rate; defaults to 30.
	FPS int
	// Fallback is negotiated when the requested resolution is not a valid 4:2:0 size.
	Fallback Resolution
	// Clock drives frame timing; defaults to the wall clock.
	Clock clock.Clock
}

// Synthetic is a FrameSource producing SMPTE color bars with a moving bright
// band, for running without a camera.
type Synthetic struct {
	cfg SyntheticConfig

	mu        sync.Mutex
	res       Resolution
	pattern   []byte
	pending   []byte
	handler   func([]byte)
	streaming bool
	stop      chan struct{}
	done      chan struct{}

	seq     atomic.Uint64
	dropped atomic.Uint64
}

// NewSynthetic returns a synthetic source.
func NewSynthetic(cfg SyntheticConfig) *Synthetic {
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.Fallback == (Resolution{}) {
		cfg.Fallback = Resolution{Width: 640, Height: 480}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return &Synthetic{cfg: cfg}
}

// StartStream negotiates target, or the fallback when target has odd or
// non-positive dimensions, and starts the delivery goroutine.
func (s *Synthetic) StartStream(target Resolution) (Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streaming {
		return s.res, nil
	}

	res := target
	if nv21.CheckSize(res.Width, res.Height) != nil {
		res = s.cfg.Fallback
	}
	if s.res != res || s.pattern == nil {
		s.pattern = make([]byte, nv21.FrameSize(res.Width, res.Height))
		nv21.FillColorBars(s.pattern, res.Width, res.Height)
	}
	s.res = res
	s.streaming = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	ticker := s.cfg.Clock.Ticker(time.Second / time.Duration(s.cfg.FPS))
	go s.run(ticker, s.stop, s.done)
	return res, nil
}

func (s *Synthetic) run(ticker *clock.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.deliver()
		}
	}
}

func (s *Synthetic) deliver() {
	s.mu.Lock()
	buf, fn, res := s.pending, s.handler, s.res
	s.pending = nil
	if buf == nil || fn == nil {
		s.mu.Unlock()
		s.dropped.Inc()
		return
	}
	copy(buf, s.pattern)
	s.mu.Unlock()

	n := s.seq.Inc()
	band := res.Width / 16
	nv21.SweepLuma(buf, res.Width, res.Height, int(n*4)%res.Width, band)
	fn(buf)
}

// SubmitBuffer queues buf as the next destination. A buffer of the wrong size is ignored.
func (s *Synthetic) SubmitBuffer(buf []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(buf) != nv21.FrameSize(s.res.Width, s.res.Height) {
		return
	}
	s.pending = buf
}

// SetFrameHandler installs fn as the frame callback.
func (s *Synthetic) SetFrameHandler(fn func([]byte)) {
	s.mu.Lock()
	s.handler = fn
	s.mu.Unlock()
}

// StopStream stops the delivery goroutine and waits for it to exit.
func (s *Synthetic) StopStream() error {
	s.mu.Lock()
	if !s.streaming {
		s.mu.Unlock()
		return nil
	}
	s.streaming = false
	s.pending = nil
	stop, done := s.stop, s.done
	s.mu.Unlock()

	close(stop)
	<-done
	return nil
}

// Release is a no-op beyond stopping the stream.
func (s *Synthetic) Release() error {
	return s.StopStream()
}

// Delivered returns the number of frames handed to the frame handler.
func (s *Synthetic) Delivered() uint64 {
	return s.seq.Load()
}

// Dropped returns the number of frames dropped because no buffer was queued.
func (s *Synthetic) Dropped() uint64 {
	return s.dropped.Load()
}

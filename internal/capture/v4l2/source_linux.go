//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"sync"

	"github.com/blackjack/webcam"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/pkg/nv21"
)

const (
	cidFocusAuto webcam.ControlID = 0x009a090c
	// waitSeconds bounds each WaitForFrame so StopStream is noticed promptly.
	waitSeconds = 1
)

// Source is a capture.FrameSource backed by a V4L2 device.
type Source struct {
	cfg Config
	log *zap.Logger

	mu        sync.Mutex
	cam       *webcam.Webcam
	format    uint32
	res       capture.Resolution
	pending   []byte
	handler   func([]byte)
	streaming bool
	stop      chan struct{}
	done      chan struct{}

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// New returns a source for cfg.Device. The device is opened by StartStream.
func New(cfg Config, log *zap.Logger) *Source {
	if cfg.Buffers == 0 {
		cfg.Buffers = 2
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{cfg: cfg, log: log.With(zap.String("device", cfg.Device))}
}

// StartStream opens the device if needed, negotiates a format and size near
// target and starts the read loop. On failure the device is closed again.
func (s *Source) StartStream(target capture.Resolution) (res capture.Resolution, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streaming {
		return s.res, nil
	}
	if s.cam == nil {
		cam, err := webcam.Open(s.cfg.Device)
		if err != nil {
			return capture.Resolution{}, fmt.Errorf("opening %s: %v: %w", s.cfg.Device, err, capture.ErrDeviceUnavailable)
		}
		s.cam = cam
	}
	defer func() {
		if err == nil {
			return
		}
		err = multierr.Append(err, s.cam.Close())
		s.cam = nil
	}()

	offered := make(map[uint32]string)
	for f, name := range s.cam.GetSupportedFormats() {
		offered[uint32(f)] = name
	}
	format, err := pickFormat(offered)
	if err != nil {
		return capture.Resolution{}, err
	}

	var sizes []FrameSize
	for _, fs := range s.cam.GetSupportedFrameSizes(webcam.PixelFormat(format)) {
		sizes = append(sizes, FrameSize{
			MinWidth: fs.MinWidth, MaxWidth: fs.MaxWidth, StepWidth: fs.StepWidth,
			MinHeight: fs.MinHeight, MaxHeight: fs.MaxHeight, StepHeight: fs.StepHeight,
		})
	}
	size, ok := pickSize(sizes, target)
	if !ok {
		size = target
	}

	got, w, h, err := s.cam.SetImageFormat(webcam.PixelFormat(format), uint32(size.Width), uint32(size.Height))
	if err != nil {
		return capture.Resolution{}, fmt.Errorf("setting format %#x %s: %w", format, size, err)
	}
	if err := s.cam.SetBufferCount(s.cfg.Buffers); err != nil {
		return capture.Resolution{}, fmt.Errorf("setting buffer count: %w", err)
	}
	if s.cfg.Autofocus {
		if err := s.cam.SetControl(cidFocusAuto, 1); err != nil {
			s.log.Debug("autofocus not supported", zap.Error(err))
		}
	}
	if err := s.cam.StartStreaming(); err != nil {
		return capture.Resolution{}, fmt.Errorf("starting stream: %w", err)
	}

	s.format = uint32(got)
	s.res = capture.Resolution{Width: int(w), Height: int(h)}
	s.streaming = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.cam, s.stop, s.done)

	s.log.Info("stream started",
		zap.String("format", offered[s.format]),
		zap.Stringer("resolution", s.res),
	)
	return s.res, nil
}

func (s *Source) run(cam *webcam.Webcam, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}

		err := cam.WaitForFrame(waitSeconds)
		var timeout *webcam.Timeout
		switch {
		case errors.As(err, &timeout):
			continue
		case err != nil:
			s.log.Warn("waiting for frame", zap.Error(err))
			return
		}

		raw, err := cam.ReadFrame()
		if err != nil {
			s.log.Warn("reading frame", zap.Error(err))
			continue
		}
		if len(raw) == 0 {
			continue
		}
		s.deliver(raw)
	}
}

func (s *Source) deliver(raw []byte) {
	s.mu.Lock()
	buf, fn, format, res := s.pending, s.handler, s.format, s.res
	s.pending = nil
	s.mu.Unlock()

	if buf == nil || fn == nil {
		s.dropped.Inc()
		return
	}
	if err := convert(format, buf, raw, res.Width, res.Height); err != nil {
		s.log.Warn("converting frame", zap.Error(err))
		s.SubmitBuffer(buf)
		s.dropped.Inc()
		return
	}
	s.delivered.Inc()
	fn(buf)
}

// SubmitBuffer queues buf for the next frame. A buffer of the wrong size is ignored.
func (s *Source) SubmitBuffer(buf []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(buf) != nv21.FrameSize(s.res.Width, s.res.Height) {
		return
	}
	s.pending = buf
}

// SetFrameHandler installs fn as the frame callback.
func (s *Source) SetFrameHandler(fn func([]byte)) {
	s.mu.Lock()
	s.handler = fn
	s.mu.Unlock()
}

// StopStream stops the read loop and the device stream. The device stays open.
func (s *Source) StopStream() error {
	s.mu.Lock()
	if !s.streaming {
		s.mu.Unlock()
		return nil
	}
	s.streaming = false
	s.pending = nil
	stop, done, cam := s.stop, s.done, s.cam
	s.mu.Unlock()

	close(stop)
	<-done
	return cam.StopStreaming()
}

// Release stops streaming if needed and closes the device.
func (s *Source) Release() error {
	err := s.StopStream()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cam == nil {
		return err
	}
	err = multierr.Append(err, s.cam.Close())
	s.cam = nil
	s.log.Info("device released", zap.Uint64("frames", s.delivered.Load()), zap.Uint64("dropped", s.dropped.Load()))
	return err
}

// Dropped returns frames read from the device with no buffer queued.
func (s *Source) Dropped() uint64 {
	return s.dropped.Load()
}

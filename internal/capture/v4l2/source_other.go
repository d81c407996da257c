//go:build !linux

package v4l2

import (
	"go.uber.org/zap"

	"github.com/Faultbox/tagoverlay/internal/capture"
)

// Source is unavailable outside Linux; StartStream always fails.
type Source struct {
	cfg Config
	log *zap.Logger
}

// New returns a source that reports capture.ErrDeviceUnavailable.
func New(cfg Config, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{cfg: cfg, log: log}
}

func (s *Source) StartStream(capture.Resolution) (capture.Resolution, error) {
	s.log.Warn("V4L2 capture requires Linux", zap.String("device", s.cfg.Device))
	return capture.Resolution{}, capture.ErrDeviceUnavailable
}

func (s *Source) SubmitBuffer([]byte)           {}
func (s *Source) SetFrameHandler(func([]byte)) {}
func (s *Source) StopStream() error             { return nil }
func (s *Source) Release() error                { return nil }

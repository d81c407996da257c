package pose

import (
	"fmt"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Guarded wraps an Estimator so that any fault inside it becomes "no
// detections this frame". Errors and panics are logged, never returned.
type Guarded struct {
	est        Estimator
	log        *zap.Logger
	frameBytes int

	failures atomic.Uint64
}

// NewGuarded wraps est. frameBytes is the buffer length est expects; 0 skips the check.
// log should be a sampled logger since failures are reported once per frame.
func NewGuarded(est Estimator, frameBytes int, log *zap.Logger) *Guarded {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guarded{est: est, log: log, frameBytes: frameBytes}
}

// Estimate never fails. It returns nil when the wrapped estimator errors,
// panics or is handed a buffer of the wrong size.
func (g *Guarded) Estimate(image []byte, mode DetectionMode) (out []Transform) {
	if g.frameBytes > 0 && len(image) != g.frameBytes {
		g.fail(fmt.Errorf("%w: have %d, want %d", ErrBufferSize, len(image), g.frameBytes))
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			g.fail(fmt.Errorf("estimator panic: %v", r))
			out = nil
		}
	}()

	transforms, err := g.est.Estimate(image, mode)
	if err != nil {
		g.fail(err)
		return nil
	}
	return transforms
}

// Failures returns the number of estimation calls treated as empty.
func (g *Guarded) Failures() uint64 {
	return g.failures.Load()
}

func (g *Guarded) fail(err error) {
	n := g.failures.Inc()
	g.log.Warn("estimation failed, treating as no detections",
		zap.Error(err),
		zap.Uint64("failures", n),
	)
}

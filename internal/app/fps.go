package app

import (
	"time"

	"github.com/benbjohnson/clock"
)

// FPSSample is one reporting interval.
type FPSSample struct {
	Frames  int
	Elapsed time.Duration
}

// FPS returns frames per second over the interval.
func (s FPSSample) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// FPSCounter counts presented frames and reports once per interval.
type FPSCounter struct {
	clock    clock.Clock
	interval time.Duration
	report   func(FPSSample)

	frames int
	start  time.Time
}

// NewFPSCounter returns a counter calling report every interval.
func NewFPSCounter(clk clock.Clock, interval time.Duration, report func(FPSSample)) *FPSCounter {
	return &FPSCounter{clock: clk, interval: interval, report: report, start: clk.Now()}
}

// Frame records one presented frame.
func (c *FPSCounter) Frame() {
	c.frames++
	elapsed := c.clock.Since(c.start)
	if elapsed < c.interval {
		return
	}
	c.report(FPSSample{Frames: c.frames, Elapsed: elapsed})
	c.frames = 0
	c.start = c.clock.Now()
}

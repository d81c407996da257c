// Package posetest provides a scripted pose.Estimator for tests.
package posetest

import (
	"sync"

	"github.com/Faultbox/tagoverlay/pkg/pose"
)

// Result is one scripted answer.
type Result struct {
	Transforms []pose.Transform
	Err        error
	Panic      any
}

// Call records one Estimate invocation.
type Call struct {
	Len  int
	Mode pose.DetectionMode
}

// Scripted returns queued results in order and then keeps returning Default.
type Scripted struct {
	mu      sync.Mutex
	queue   []Result
	Default Result
	calls   []Call
}

// New returns a Scripted estimator answering with results in order.
func New(results ...Result) *Scripted {
	return &Scripted{queue: results}
}

// Estimate implements pose.Estimator.
func (s *Scripted) Estimate(image []byte, mode pose.DetectionMode) ([]pose.Transform, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Len: len(image), Mode: mode})
	res := s.Default
	if len(s.queue) > 0 {
		res = s.queue[0]
		s.queue = s.queue[1:]
	}
	s.mu.Unlock()

	if res.Panic != nil {
		panic(res.Panic)
	}
	return res.Transforms, res.Err
}

// Calls returns a copy of the recorded calls.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// At returns a transform with identity rotation and the origin at (x, y, z).
func At(name string, x, y, z float64) pose.Transform {
	t := pose.NewTransform(name)
	t.Matrix.Set(0, 3, x)
	t.Matrix.Set(1, 3, y)
	t.Matrix.Set(2, 3, z)
	return t
}

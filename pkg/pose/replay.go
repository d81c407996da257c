package pose

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ReplayFile is the on-disk layout read by LoadReplay.
//
//	frames:
//	  - - name: tag_0
//	      rows:
//	        - [1, 0, 0, 0]
//	        - [0, 1, 0, 0]
//	        - [0, 0, 1, 300]
//	        - [0, 0, 0, 1]
//	  - []   # a frame with no detections
type ReplayFile struct {
	Frames [][]ReplayObject `yaml:"frames"`
}

// ReplayObject is one named transform in a ReplayFile.
type ReplayObject struct {
	Name string        `yaml:"name"`
	Rows [4][4]float64 `yaml:"rows"`
}

// Replay is an Estimator that plays back a scripted sequence of results,
// one entry per call, looping at the end. It stands in for the native
// detector when none is linked.
type Replay struct {
	mu     sync.Mutex
	frames [][]Transform
	next   int

	calibration *Calibration
	tagConfig   string
}

// NewReplay returns a Replay over frames.
func NewReplay(frames [][]Transform) *Replay {
	return &Replay{frames: frames}
}

// LoadReplay reads a YAML replay script.
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading replay %s: %w", path, err)
	}
	return ParseReplay(data)
}

// ParseReplay decodes a YAML replay script.
func ParseReplay(data []byte) (*Replay, error) {
	var f ReplayFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing replay: %w", err)
	}
	frames := make([][]Transform, len(f.Frames))
	for i, objs := range f.Frames {
		for _, o := range objs {
			frames[i] = append(frames[i], FromRows(o.Name, o.Rows))
		}
	}
	return NewReplay(frames), nil
}

// Estimate returns the next scripted result. The returned slice is a copy.
func (r *Replay) Estimate(image []byte, mode DetectionMode) ([]Transform, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.frames) == 0 {
		return nil, nil
	}
	src := r.frames[r.next]
	r.next = (r.next + 1) % len(r.frames)

	out := make([]Transform, len(src))
	copy(out, src)
	return out, nil
}

// SetCalibration records the calibration after validating it.
func (r *Replay) SetCalibration(c Calibration) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calibration = &c
	return nil
}

// Calibration returns the last calibration set, if any.
func (r *Replay) Calibration() (Calibration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calibration == nil {
		return Calibration{}, false
	}
	return *r.calibration, true
}

// ReadTagConfiguration only checks that the file exists; tag geometry does not
// affect scripted results.
func (r *Replay) ReadTagConfiguration(path string, omitUnlisted bool) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("tag configuration: %w", err)
	}
	r.mu.Lock()
	r.tagConfig = path
	r.mu.Unlock()
	return nil
}

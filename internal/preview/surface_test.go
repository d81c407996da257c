package preview

import (
	"errors"
	"image"
	"testing"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/internal/engine/overlay"
	"github.com/Faultbox/tagoverlay/internal/engine/projection"
	"github.com/Faultbox/tagoverlay/pkg/nv21"
	"github.com/Faultbox/tagoverlay/pkg/pose"
	"github.com/Faultbox/tagoverlay/pkg/pose/posetest"
)

type fakeBackend struct {
	initFrame   capture.Resolution
	initErr     error
	bgErr       error
	clears      int
	backgrounds int
	lines       []overlay.Line
	resized     [2]int
	closed      int
	ph          *fakePlaceholder
	calls       []string
}

func (b *fakeBackend) Init(frame capture.Resolution) error {
	b.initFrame = frame
	b.calls = append(b.calls, "init")
	return b.initErr
}

func (b *fakeBackend) Resize(w, h int) { b.resized = [2]int{w, h} }

func (b *fakeBackend) Clear() {
	b.clears++
	b.calls = append(b.calls, "clear")
}

func (b *fakeBackend) DrawBackground(frame []byte) error {
	b.calls = append(b.calls, "background")
	if b.bgErr != nil {
		return b.bgErr
	}
	b.backgrounds++
	return nil
}

func (b *fakeBackend) DrawLine(l overlay.Line) {
	b.calls = append(b.calls, "line")
	b.lines = append(b.lines, l)
}

func (b *fakeBackend) Placeholder() capture.Placeholder {
	if b.ph == nil {
		b.ph = &fakePlaceholder{}
	}
	return b.ph
}

func (b *fakeBackend) Close() error {
	b.closed++
	return nil
}

type fakePlaceholder struct{ attached int }

func (p *fakePlaceholder) Attach() error { p.attached++; return nil }
func (p *fakePlaceholder) Detach()       {}

type fakeFeed struct {
	res         capture.Resolution
	frame       []byte
	placeholder capture.Placeholder
	attachErr   error
}

func (f *fakeFeed) Latest() ([]byte, bool) { return f.frame, f.frame != nil }

func (f *fakeFeed) Resolution() capture.Resolution { return f.res }

func (f *fakeFeed) AttachPlaceholder(p capture.Placeholder) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	f.placeholder = p
	return p.Attach()
}

type rig struct {
	feed    *fakeFeed
	backend *fakeBackend
	est     *posetest.Scripted
	surface *Surface
}

func newRig(t *testing.T, full capture.Resolution) *rig {
	t.Helper()
	proc := capture.ProcessingResolution(full, capture.DefaultMaxProcessingWidth)
	xs, ys := capture.ScaleFactors(full, proc)
	model := projection.New(projection.DefaultIntrinsics(proc), xs, ys)

	r := &rig{
		feed:    &fakeFeed{res: full},
		backend: &fakeBackend{},
		est:     posetest.New(),
	}
	det := pose.NewGuarded(r.est, nv21.FrameSize(full.Width, full.Height), nil)
	r.surface = NewSurface(r.feed, r.backend, det, model, pose.TrackAndDetect)
	if err := r.surface.OnSurfaceCreated(); err != nil {
		t.Fatalf("OnSurfaceCreated: %v", err)
	}
	return r
}

func (r *rig) deliver() {
	r.feed.frame = make([]byte, nv21.FrameSize(r.feed.res.Width, r.feed.res.Height))
}

func TestOnSurfaceCreated(t *testing.T) {
	r := newRig(t, capture.Resolution{Width: 1280, Height: 720})
	if r.backend.initFrame != (capture.Resolution{Width: 1280, Height: 720}) {
		t.Errorf("backend initialized for %s", r.backend.initFrame)
	}
	if r.backend.ph == nil || r.backend.ph.attached != 1 || r.feed.placeholder != r.backend.ph {
		t.Error("placeholder not attached to the feed")
	}
	if r.surface.Frame() != r.feed.res {
		t.Errorf("Frame = %s", r.surface.Frame())
	}
}

func TestOnSurfaceCreatedFatal(t *testing.T) {
	feed := &fakeFeed{res: capture.Resolution{Width: 640, Height: 480}}
	backend := &fakeBackend{initErr: errors.New("no GL 4.1")}
	s := NewSurface(feed, backend, pose.NewGuarded(posetest.New(), 0, nil), projection.New(projection.Intrinsics{Fx: 1, Fy: 1}, 1, 1), pose.DetectOnly)

	if err := s.OnSurfaceCreated(); err == nil {
		t.Fatal("expected init error")
	}
	// A surface that failed to initialize never draws.
	feed.frame = make([]byte, nv21.FrameSize(640, 480))
	s.OnDrawFrame()
	if backend.clears != 0 || backend.backgrounds != 0 {
		t.Error("uninitialized surface drew")
	}
	// Partially created resources are released at once, and only once.
	if backend.closed != 1 {
		t.Errorf("backend closed %d times after failed init, want 1", backend.closed)
	}
	if err := s.Close(); err != nil || backend.closed != 1 {
		t.Errorf("Close on uninitialized surface: err=%v closed=%d", err, backend.closed)
	}
}

func TestOnSurfaceCreatedAttachFailureReleasesBackend(t *testing.T) {
	feed := &fakeFeed{res: capture.Resolution{Width: 640, Height: 480}, attachErr: errors.New("device busy")}
	backend := &fakeBackend{}
	s := NewSurface(feed, backend, pose.NewGuarded(posetest.New(), 0, nil), projection.New(projection.Intrinsics{Fx: 1, Fy: 1}, 1, 1), pose.DetectOnly)

	if err := s.OnSurfaceCreated(); err == nil {
		t.Fatal("expected attach error")
	}
	if backend.closed != 1 {
		t.Errorf("backend closed %d times after failed attach, want 1", backend.closed)
	}
}

func TestDrawFrameSkipsBeforeFirstFrame(t *testing.T) {
	r := newRig(t, capture.Resolution{Width: 640, Height: 480})

	r.surface.OnDrawFrame()
	r.surface.OnDrawFrame()

	st := r.surface.Stats()
	if st.FramesSkipped != 2 || st.FramesDrawn != 0 {
		t.Errorf("stats = %+v", st)
	}
	if r.backend.clears != 2 || r.backend.backgrounds != 0 {
		t.Errorf("clears=%d backgrounds=%d", r.backend.clears, r.backend.backgrounds)
	}
	if len(r.est.Calls()) != 0 {
		t.Error("estimator called without a frame")
	}
}

func TestDrawFrameNoDetections(t *testing.T) {
	r := newRig(t, capture.Resolution{Width: 640, Height: 480})
	r.deliver()

	r.surface.OnDrawFrame()

	if r.backend.backgrounds != 1 {
		t.Errorf("backgrounds = %d, want 1", r.backend.backgrounds)
	}
	if len(r.backend.lines) != 0 {
		t.Errorf("drew %d lines with no detections", len(r.backend.lines))
	}
	calls := r.est.Calls()
	if len(calls) != 1 || calls[0].Len != nv21.FrameSize(640, 480) || calls[0].Mode != pose.TrackAndDetect {
		t.Errorf("estimator calls = %+v", calls)
	}
}

func TestDrawFrameOrder(t *testing.T) {
	r := newRig(t, capture.Resolution{Width: 640, Height: 480})
	r.est.Default = posetest.Result{Transforms: []pose.Transform{posetest.At("tag_0", 0, 0, 100)}}
	r.deliver()
	r.backend.calls = nil

	r.surface.OnDrawFrame()

	want := []string{"clear", "background", "line", "line", "line"}
	if len(r.backend.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", r.backend.calls, want)
	}
	for i := range want {
		if r.backend.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", r.backend.calls, want)
		}
	}
}

func TestDrawFrameAxesAtPrincipalPoint(t *testing.T) {
	r := newRig(t, capture.Resolution{Width: 1280, Height: 960})
	r.est.Default = posetest.Result{Transforms: []pose.Transform{
		posetest.At("tag_0", 0, 0, 100),
		posetest.At("tag_1", 0, 0, 200),
	}}
	r.deliver()

	r.surface.OnDrawFrame()

	if len(r.backend.lines) != 6 {
		t.Fatalf("drew %d lines, want 6", len(r.backend.lines))
	}
	for i, l := range r.backend.lines {
		if l.X0 != 0 || l.Y0 != 0 {
			t.Errorf("line %d starts at (%f, %f), want NDC origin", i, l.X0, l.Y0)
		}
	}
	wantColors := []overlay.Color{overlay.Red, overlay.Green, overlay.Blue}
	for i, l := range r.backend.lines[:3] {
		if l.Color != wantColors[i] {
			t.Errorf("line %d color = %v, want %v", i, l.Color, wantColors[i])
		}
	}

	st := r.surface.Stats()
	if st.Detections != 2 || st.SegmentsDrawn != 6 || st.SegmentsCulled != 0 {
		t.Errorf("stats = %+v", st)
	}

	segs := r.surface.LastSegments()
	if len(segs) != 6 || segs[0].From != image.Pt(640, 480) {
		t.Errorf("LastSegments = %+v", segs)
	}
	segs[0].From = image.Pt(-1, -1)
	if r.surface.LastSegments()[0].From != image.Pt(640, 480) {
		t.Error("LastSegments returned shared storage")
	}
}

func TestDrawFrameCullsDegenerate(t *testing.T) {
	r := newRig(t, capture.Resolution{Width: 640, Height: 480})
	r.est.Default = posetest.Result{Transforms: []pose.Transform{
		pose.NewTransform("identity"),
		posetest.At("behind", 0, 0, -50),
	}}
	r.deliver()

	r.surface.OnDrawFrame()

	if len(r.backend.lines) != 0 {
		t.Errorf("drew %d lines for degenerate transforms", len(r.backend.lines))
	}
	if st := r.surface.Stats(); st.SegmentsCulled != 6 || st.Detections != 2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestDrawFrameReusesSegmentBuffer(t *testing.T) {
	r := newRig(t, capture.Resolution{Width: 640, Height: 480})
	two := []pose.Transform{posetest.At("tag_0", 0, 0, 100), posetest.At("tag_1", 0, 0, 200)}
	r.est = posetest.New(
		posetest.Result{Transforms: two},
		posetest.Result{Transforms: two},
		posetest.Result{Transforms: two[:1]},
	)
	r.surface.det = pose.NewGuarded(r.est, 0, nil)
	r.deliver()

	r.surface.OnDrawFrame()
	first := &r.surface.segs[0]
	r.surface.OnDrawFrame()
	if &r.surface.segs[0] != first {
		t.Error("segment buffer reallocated between cycles")
	}

	// Fewer detections shrink the published segments.
	r.surface.OnDrawFrame()
	if n := len(r.surface.LastSegments()); n != 3 {
		t.Errorf("LastSegments has %d segments after one detection, want 3", n)
	}
	if st := r.surface.Stats(); st.SegmentsDrawn != 15 || st.SegmentsCulled != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestDrawFrameEstimatorFaults(t *testing.T) {
	r := newRig(t, capture.Resolution{Width: 640, Height: 480})
	r.est = posetest.New(
		posetest.Result{Err: errors.New("native detector crashed")},
		posetest.Result{Panic: "index out of range"},
	)
	r.surface.det = pose.NewGuarded(r.est, 0, nil)
	r.deliver()

	r.surface.OnDrawFrame()
	r.surface.OnDrawFrame()

	if st := r.surface.Stats(); st.FramesDrawn != 2 || st.Detections != 0 {
		t.Errorf("stats = %+v", st)
	}
	if len(r.backend.lines) != 0 {
		t.Error("lines drawn for failed estimation")
	}
}

func TestDrawFrameBackgroundError(t *testing.T) {
	r := newRig(t, capture.Resolution{Width: 640, Height: 480})
	r.backend.bgErr = errors.New("short frame")
	r.deliver()

	r.surface.OnDrawFrame()

	if st := r.surface.Stats(); st.FramesSkipped != 1 || st.FramesDrawn != 0 {
		t.Errorf("stats = %+v", st)
	}
	if len(r.est.Calls()) != 0 {
		t.Error("estimator called after failed background draw")
	}
}

func TestModeCycling(t *testing.T) {
	r := newRig(t, capture.Resolution{Width: 640, Height: 480})
	r.deliver()

	if got := r.surface.CycleMode(); got != pose.DetectOnly {
		t.Errorf("CycleMode = %s, want detect_only", got)
	}
	r.surface.OnDrawFrame()
	r.surface.SetMode(pose.DetectPeriodically)
	r.surface.OnDrawFrame()
	if got := r.surface.CycleMode(); got != pose.TrackAndDetect {
		t.Errorf("CycleMode wrapped to %s", got)
	}

	calls := r.est.Calls()
	if calls[0].Mode != pose.DetectOnly || calls[1].Mode != pose.DetectPeriodically {
		t.Errorf("modes passed = %+v", calls)
	}
}

func TestSurfaceResizeAndClose(t *testing.T) {
	r := newRig(t, capture.Resolution{Width: 640, Height: 480})
	r.surface.OnSurfaceChanged(800, 600)
	if r.backend.resized != [2]int{800, 600} {
		t.Errorf("resized = %v", r.backend.resized)
	}
	r.surface.Close()
	r.surface.Close()
	if r.backend.closed != 1 {
		t.Errorf("backend closed %d times", r.backend.closed)
	}
}

func TestSurfaceWithSession(t *testing.T) {
	src := capture.NewSynthetic(capture.SyntheticConfig{})
	session := capture.NewSession(src, nil)
	if _, err := session.Start(capture.Resolution{Width: 64, Height: 48}); err != nil {
		t.Fatal(err)
	}
	defer session.Stop()

	backend := &fakeBackend{}
	s := NewSurface(session, backend, pose.NewGuarded(posetest.New(), 0, nil),
		projection.New(projection.DefaultIntrinsics(session.Resolution()), 1, 1), pose.TrackAndDetect)
	if err := s.OnSurfaceCreated(); err != nil {
		t.Fatal(err)
	}
	if backend.ph.attached != 1 {
		t.Error("session did not attach the surface placeholder")
	}
}

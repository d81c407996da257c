// Package renderer provides the OpenGL backend of the preview surface.
package renderer

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/internal/engine/overlay"
	"github.com/Faultbox/tagoverlay/internal/engine/shader"
	"github.com/Faultbox/tagoverlay/internal/engine/yuv"
	"github.com/Faultbox/tagoverlay/internal/logger"
	"github.com/Faultbox/tagoverlay/internal/preview"
)

var _ preview.Backend = (*Renderer)(nil)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	// ClearColor is shown before the first frame arrives.
	ClearColor overlay.Color
}

// Renderer owns every GPU object of the preview surface.
// IMPORTANT: all methods must run on the thread owning the GL context.
type Renderer struct {
	config Config
	log    *zap.Logger

	yuvProg  *shader.Program
	lineProg *shader.Program
	frames   *yuv.Converter
	lines    *LineRenderer
	target   *placeholder
	loaded   bool
}

// New creates a renderer. No GL calls happen until Init.
func New(cfg Config) *Renderer {
	return &Renderer{
		config: cfg,
		log:    logger.Named("renderer"),
		target: &placeholder{},
	}
}

// Init loads GL, compiles both programs and allocates textures for frames
// of the given size. On failure everything created so far is released.
func (r *Renderer) Init(frame capture.Resolution) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.loaded = true
	if err := r.createResources(frame); err != nil {
		if cerr := r.release(); cerr != nil {
			r.log.Warn("releasing partial surface resources", zap.Error(cerr))
		}
		return err
	}
	return nil
}

func (r *Renderer) createResources(frame capture.Resolution) error {
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))),
	)

	gl.Disable(gl.DEPTH_TEST)
	c := r.config.ClearColor
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.Viewport(0, 0, int32(r.config.Width), int32(r.config.Height))

	var err error
	if r.yuvProg, err = shader.Load(shader.YUVProgram); err != nil {
		return fmt.Errorf("failed to create shader program: %w", err)
	}
	if r.lineProg, err = shader.Load(shader.LineProgram); err != nil {
		return fmt.Errorf("failed to create shader program: %w", err)
	}
	if r.frames, err = yuv.New(r.yuvProg, frame); err != nil {
		return err
	}
	r.lines = NewLineRenderer(r.lineProg)

	r.log.Debug("surface resources created",
		zap.Stringer("frame", frame),
		zap.Uint32("yuv_program", r.yuvProg.ID),
		zap.Uint32("line_program", r.lineProg.ID),
	)
	return nil
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Clear starts a new frame.
func (r *Renderer) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// DrawBackground uploads and draws one NV21 frame.
func (r *Renderer) DrawBackground(frame []byte) error {
	return r.frames.Draw(frame)
}

// DrawLine draws one overlay segment.
func (r *Renderer) DrawLine(l overlay.Line) {
	r.lines.Draw(l)
}

// Placeholder returns the device-activation target.
func (r *Renderer) Placeholder() capture.Placeholder {
	return r.target
}

// Close releases every GPU object and reports any GL error raised while
// doing so. It is safe to call more than once and after a failed Init.
func (r *Renderer) Close() error {
	r.log.Info("closing renderer")
	return r.release()
}

func (r *Renderer) release() error {
	if !r.loaded {
		return nil
	}
	var err error
	release := func(what string, fn func()) {
		fn()
		if code := gl.GetError(); code != gl.NO_ERROR {
			err = multierr.Append(err, fmt.Errorf("releasing %s: GL error %#x", what, code))
		}
	}
	if r.lines != nil {
		release("line buffers", r.lines.Delete)
		r.lines = nil
	}
	if r.frames != nil {
		release("frame textures", r.frames.Delete)
		r.frames = nil
	}
	release("placeholder", r.target.Detach)
	release("programs", func() {
		r.lineProg.Delete()
		r.yuvProg.Delete()
	})
	r.lineProg, r.yuvProg = nil, nil
	return err
}

// ReadPixels reads the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	if width <= 0 || height <= 0 {
		return nil, 0, 0
	}
	pixels = make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadBuffer(gl.BACK)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&pixels[0]))
	return pixels, width, height
}

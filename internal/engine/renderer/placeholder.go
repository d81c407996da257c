package renderer

import (
	"errors"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// placeholder is a 1×1 texture the capture device is activated against
// before the surface shows real frames.
type placeholder struct {
	tex uint32
}

func (p *placeholder) Attach() error {
	if p.tex != 0 {
		return nil
	}
	gl.GenTextures(1, &p.tex)
	if p.tex == 0 {
		return errors.New("allocating placeholder texture")
	}
	black := [4]uint8{0, 0, 0, 255}
	gl.BindTexture(gl.TEXTURE_2D, p.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, 1, 1, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&black[0]))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

func (p *placeholder) Detach() {
	if p.tex == 0 {
		return
	}
	gl.DeleteTextures(1, &p.tex)
	p.tex = 0
}

// Package yuv draws NV21 frames as a full-viewport quad, converting to RGB
// on the GPU.
package yuv

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/tagoverlay/internal/capture"
	"github.com/Faultbox/tagoverlay/internal/engine/shader"
	"github.com/Faultbox/tagoverlay/pkg/nv21"
)

// Quad covers the viewport. Each vertex is position (x, y) then texture
// coordinate (s, t); t = 0 is the first row of the frame, drawn at the top.
var Quad = [16]float32{
	-1, 1, 0, 0,
	1, 1, 1, 0,
	1, -1, 1, 1,
	-1, -1, 0, 1,
}

// QuadIndices are the two triangles of Quad.
var QuadIndices = [6]uint32{0, 1, 2, 2, 3, 0}

// Converter owns the plane textures and quad geometry for one frame size.
type Converter struct {
	prog  *shader.Program
	frame capture.Resolution

	yTex, vuTex   uint32
	vao, vbo, ebo uint32
}

// New allocates textures for frames of the given size and uploads the quad.
// prog must have been loaded from shader.YUVProgram.
func New(prog *shader.Program, frame capture.Resolution) (*Converter, error) {
	if err := nv21.CheckSize(frame.Width, frame.Height); err != nil {
		return nil, fmt.Errorf("yuv converter: %w", err)
	}
	c := &Converter{prog: prog, frame: frame}

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	c.yTex = newPlaneTexture(gl.R8, gl.RED, frame.Width, frame.Height)
	c.vuTex = newPlaneTexture(gl.RG8, gl.RG, frame.Width/2, frame.Height/2)

	gl.GenVertexArrays(1, &c.vao)
	gl.BindVertexArray(c.vao)

	gl.GenBuffers(1, &c.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(Quad)*4, gl.Ptr(&Quad[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &c.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, c.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(QuadIndices)*4, gl.Ptr(&QuadIndices[0]), gl.STATIC_DRAW)

	pos := uint32(prog.Attrib(shader.AttrPosition))
	tex := uint32(prog.Attrib(shader.AttrTexCoord))
	gl.VertexAttribPointerWithOffset(pos, 2, gl.FLOAT, false, 4*4, 0)
	gl.EnableVertexAttribArray(pos)
	gl.VertexAttribPointerWithOffset(tex, 2, gl.FLOAT, false, 4*4, 2*4)
	gl.EnableVertexAttribArray(tex)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	prog.Use()
	gl.Uniform1i(prog.Uniform(shader.UniformYTexture), 0)
	gl.Uniform1i(prog.Uniform(shader.UniformVUTexture), 1)
	gl.UseProgram(0)

	return c, nil
}

// newPlaneTexture allocates storage once; frames are uploaded with TexSubImage2D.
func newPlaneTexture(internal int32, format uint32, w, h int) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(w), int32(h), 0, format, gl.UNSIGNED_BYTE, nil)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}

// Frame returns the frame size the textures were allocated for.
func (c *Converter) Frame() capture.Resolution {
	return c.frame
}

// Draw uploads both planes of frame and draws the quad. Upload always
// precedes the draw that samples it.
func (c *Converter) Draw(frame []byte) error {
	if err := nv21.Validate(frame, c.frame.Width, c.frame.Height); err != nil {
		return err
	}
	y, vu := nv21.Planes(frame, c.frame.Width, c.frame.Height)
	w, h := int32(c.frame.Width), int32(c.frame.Height)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, c.yTex)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, w, h, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(&y[0]))

	gl.ActiveTexture(gl.TEXTURE1)
	gl.BindTexture(gl.TEXTURE_2D, c.vuTex)
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, w/2, h/2, gl.RG, gl.UNSIGNED_BYTE, gl.Ptr(&vu[0]))

	c.prog.Use()
	gl.BindVertexArray(c.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, int32(len(QuadIndices)), gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
	gl.ActiveTexture(gl.TEXTURE0)
	return nil
}

// Delete releases the textures and buffers. The program is not owned.
func (c *Converter) Delete() {
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
		c.vao = 0
	}
	for _, b := range []*uint32{&c.vbo, &c.ebo} {
		if *b != 0 {
			gl.DeleteBuffers(1, b)
			*b = 0
		}
	}
	for _, t := range []*uint32{&c.yTex, &c.vuTex} {
		if *t != 0 {
			gl.DeleteTextures(1, t)
			*t = 0
		}
	}
}

package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/tagoverlay/internal/engine/overlay"
	"github.com/Faultbox/tagoverlay/internal/engine/shader"
)

// LineRenderer draws single line segments from one two-vertex buffer.
type LineRenderer struct {
	prog     *shader.Program
	color    int32
	vao, vbo uint32
	verts    [4]float32
}

// NewLineRenderer allocates the vertex buffer. prog must have been loaded
// from shader.LineProgram.
func NewLineRenderer(prog *shader.Program) *LineRenderer {
	l := &LineRenderer{prog: prog, color: prog.Uniform(shader.UniformColor)}

	gl.GenVertexArrays(1, &l.vao)
	gl.BindVertexArray(l.vao)

	gl.GenBuffers(1, &l.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(l.verts)*4, nil, gl.STREAM_DRAW)

	pos := uint32(prog.Attrib(shader.AttrPosition))
	gl.VertexAttribPointerWithOffset(pos, 2, gl.FLOAT, false, 2*4, 0)
	gl.EnableVertexAttribArray(pos)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return l
}

// Draw draws l in NDC with its colour.
func (l *LineRenderer) Draw(line overlay.Line) {
	l.verts = [4]float32{line.X0, line.Y0, line.X1, line.Y1}

	l.prog.Use()
	gl.Uniform4f(l.color, line.Color.R, line.Color.G, line.Color.B, line.Color.A)

	gl.BindVertexArray(l.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, l.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(l.verts)*4, gl.Ptr(&l.verts[0]))
	gl.DrawArrays(gl.LINES, 0, 2)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

// Delete releases the buffers.
func (l *LineRenderer) Delete() {
	if l.vao != 0 {
		gl.DeleteVertexArrays(1, &l.vao)
		l.vao = 0
	}
	if l.vbo != 0 {
		gl.DeleteBuffers(1, &l.vbo)
		l.vbo = 0
	}
}

// Package shader compiles and links OpenGL programs and resolves their
// attribute and uniform locations.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// ErrMissingLocation is returned when a named attribute or uniform is not
// active in a linked program.
var ErrMissingLocation = errors.New("missing attribute or uniform")

// ProgramSpec describes a program and the locations its users need.
type ProgramSpec struct {
	Name           string
	VertexSource   string
	FragmentSource string
	Attributes     []string
	Uniforms       []string
}

// Program is a linked program with its resolved locations.
type Program struct {
	ID       uint32
	Name     string
	attribs  map[string]int32
	uniforms map[string]int32
}

// Load compiles, links and resolves spec. Intermediate shader objects are
// always deleted. Must be called with a current GL context.
func Load(spec ProgramSpec) (*Program, error) {
	vert, err := compileShader(spec.VertexSource, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}
	defer gl.DeleteShader(vert)

	frag, err := compileShader(spec.FragmentSource, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}
	defer gl.DeleteShader(frag)

	id := gl.CreateProgram()
	gl.AttachShader(id, vert)
	gl.AttachShader(id, frag)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLen)
		log := infoLog(logLen, func(buf *uint8) { gl.GetProgramInfoLog(id, logLen, nil, buf) })
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("%s: link: %s", spec.Name, log)
	}
	gl.DetachShader(id, vert)
	gl.DetachShader(id, frag)

	p := &Program{
		ID:       id,
		Name:     spec.Name,
		attribs:  make(map[string]int32, len(spec.Attributes)),
		uniforms: make(map[string]int32, len(spec.Uniforms)),
	}
	for _, name := range spec.Attributes {
		loc := gl.GetAttribLocation(id, gl.Str(name+"\x00"))
		if loc < 0 {
			p.Delete()
			return nil, fmt.Errorf("%s: attribute %q: %w", spec.Name, name, ErrMissingLocation)
		}
		p.attribs[name] = loc
	}
	for _, name := range spec.Uniforms {
		loc := gl.GetUniformLocation(id, gl.Str(name+"\x00"))
		if loc < 0 {
			p.Delete()
			return nil, fmt.Errorf("%s: uniform %q: %w", spec.Name, name, ErrMissingLocation)
		}
		p.uniforms[name] = loc
	}
	return p, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, kind string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := infoLog(logLen, func(buf *uint8) { gl.GetShaderInfoLog(shader, logLen, nil, buf) })
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", kind, log)
	}
	return shader, nil
}

func infoLog(n int32, read func(*uint8)) string {
	if n <= 0 {
		return "(no log)"
	}
	buf := make([]byte, n)
	read(&buf[0])
	return strings.TrimRight(string(buf), "\x00\n")
}

// Attrib returns the location of a named attribute, or -1 if it was not
// requested by the spec.
func (p *Program) Attrib(name string) int32 {
	if loc, ok := p.attribs[name]; ok {
		return loc
	}
	return -1
}

// Uniform returns the location of a named uniform, or -1 if it was not
// requested by the spec.
func (p *Program) Uniform(name string) int32 {
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	return -1
}

// Use makes p the current program.
func (p *Program) Use() {
	gl.UseProgram(p.ID)
}

// Delete releases the program. Safe to call more than once.
func (p *Program) Delete() {
	if p == nil || p.ID == 0 {
		return
	}
	gl.DeleteProgram(p.ID)
	p.ID = 0
}

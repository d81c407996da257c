package shader

import _ "embed"

// Attribute and uniform names shared between the GLSL sources and their users.
const (
	AttrPosition = "aPosition"
	AttrTexCoord = "aTexCoord"

	UniformYTexture  = "uYTexture"
	UniformVUTexture = "uVUTexture"
	UniformColor     = "uColor"
)

var (
	//go:embed glsl/yuv.vert
	yuvVert string
	//go:embed glsl/yuv.frag
	yuvFrag string
	//go:embed glsl/line.vert
	lineVert string
	//go:embed glsl/line.frag
	lineFrag string
)

// YUVProgram samples a full-resolution luma texture and a half-resolution
// interleaved V/U texture and converts to RGB.
var YUVProgram = ProgramSpec{
	Name:           "yuv",
	VertexSource:   yuvVert,
	FragmentSource: yuvFrag,
	Attributes:     []string{AttrPosition, AttrTexCoord},
	Uniforms:       []string{UniformYTexture, UniformVUTexture},
}

// LineProgram draws solid-colour lines in NDC.
var LineProgram = ProgramSpec{
	Name:           "line",
	VertexSource:   lineVert,
	FragmentSource: lineFrag,
	Attributes:     []string{AttrPosition},
	Uniforms:       []string{UniformColor},
}

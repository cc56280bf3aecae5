package renderer

import "github.com/spaghettifunk/glitch/engine/renderer/metadata"

type RendererType uint8

const (
	OpenGL RendererType = iota
	WebGL
)

func (t RendererType) String() string {
	switch t {
	case OpenGL:
		return "OpenGL 3.3 core"
	case WebGL:
		return "WebGL 2"
	}
	return "unknown"
}

// OpenGL enums shared by every backend.
const (
	NoError = 0

	ArrayBuffer        = 0x8892
	ElementArrayBuffer = 0x8893
	UniformBuffer      = 0x8A11

	StaticDraw  = 0x88E4
	DynamicDraw = 0x88E8

	DepthBufferBit = 0x00000100
	ColorBufferBit = 0x00004000

	DepthTest = 0x0B71
	Blend     = 0x0BE2
)

/**
 * @brief The subset of OpenGL the renderer needs. Implementations exist for
 * desktop OpenGL 3.3 core and for WebGL 2. Every call must happen on the
 * thread that owns the context.
 */
type Backend interface {
	Type() RendererType
	/** @brief The #version line and default precision prepended to every stage. */
	ShadingLanguageHeader() string

	/**
	 * @brief Compiles one shader stage.
	 * @return The shader object, or the driver log wrapped in an error. A failed
	 * shader object is already deleted.
	 */
	CompileShader(stage metadata.ShaderStage, source string) (uint32, error)
	DeleteShader(shader uint32)
	/**
	 * @brief Links the stages into a program.
	 * @return The program, or the driver log wrapped in an error. A failed
	 * program is already deleted.
	 */
	LinkProgram(shaders ...uint32) (uint32, error)
	DeleteProgram(program uint32)
	UseProgram(program uint32)

	ActiveUniformCount(program uint32) int32
	ActiveUniformMaxLength(program uint32) int32
	/** @brief Reads the name of active uniform index into buf and returns it with its size and type. */
	ActiveUniform(program uint32, index uint32, buf []byte) (name string, size int32, typ uint32)
	ActiveAttributeCount(program uint32) int32
	ActiveAttributeMaxLength(program uint32) int32
	ActiveAttribute(program uint32, index uint32, buf []byte) (name string, size int32, typ uint32)
	UniformLocation(program uint32, name string) int32
	AttributeLocation(program uint32, name string) int32
	/** @brief Binds a named uniform block to a binding point. Returns false when the block is not active. */
	UniformBlockBinding(program uint32, block string, binding uint32) bool

	CreateBuffer() uint32
	DeleteBuffer(buffer uint32)
	BindBuffer(target uint32, buffer uint32)
	BufferData(target uint32, data []byte, usage uint32)
	/** @brief Allocates size bytes of uninitialised storage. */
	BufferStorage(target uint32, size int, usage uint32)
	BufferSubData(target uint32, offset int, data []byte)
	BindBufferBase(target uint32, index uint32, buffer uint32)

	CreateVertexArray() uint32
	DeleteVertexArray(array uint32)
	BindVertexArray(array uint32)
	VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride int32, offset int)
	VertexAttribIPointer(index uint32, size int32, typ uint32, stride int32, offset int)
	EnableVertexAttribArray(index uint32)

	Uniform1fv(location int32, v []float32)
	Uniform2fv(location int32, v []float32)
	Uniform3fv(location int32, v []float32)
	Uniform4fv(location int32, v []float32)
	Uniform1iv(location int32, v []int32)
	Uniform2iv(location int32, v []int32)
	Uniform3iv(location int32, v []int32)
	Uniform4iv(location int32, v []int32)
	Uniform1uiv(location int32, v []uint32)
	Uniform2uiv(location int32, v []uint32)
	Uniform3uiv(location int32, v []uint32)
	Uniform4uiv(location int32, v []uint32)
	UniformMatrix4fv(location int32, v []float32)

	DrawArrays(mode uint32, first int32, count int32)
	DrawElements(mode uint32, count int32, typ uint32, offset int)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask uint32)
	Enable(capability uint32)
	GetError() uint32
}

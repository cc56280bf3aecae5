package metadata

import (
	"strings"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	/** @brief The name of the uniform block every program receives. */
	BuiltinBlockName = "GLitch"
	/** @brief The uniform buffer binding point of the built-in block. */
	BuiltinBlockBinding = 0
	/** @brief The number of uniforms the built-in block contributes to reflection. */
	BuiltinUniformCount = 6
	/** @brief The std140 size of the built-in block in bytes. */
	BuiltinUniformsSize = int(unsafe.Sizeof(BuiltinUniforms{}))
)

/** @brief The names of the built-in block members, hidden from user reflection. */
var BuiltinUniformNames = [BuiltinUniformCount]string{
	"model",
	"view",
	"projection",
	"resolution",
	"time",
	"delta_time",
}

/**
 * @brief The per-draw data uploaded to the built-in uniform block. The field
 * order and sizes follow the std140 layout of the GLSL declaration.
 */
type BuiltinUniforms struct {
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Resolution mgl32.Vec2
	Time       float32
	DeltaTime  float32
}

// Bytes views the block as raw memory for a buffer upload.
func (b *BuiltinUniforms) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(b)), BuiltinUniformsSize)
}

// IsBuiltinUniform reports whether name belongs to the built-in block.
func IsBuiltinUniform(name string) bool {
	for _, builtin := range BuiltinUniformNames {
		if name == builtin {
			return true
		}
	}
	return false
}

const builtinBlock = `layout(std140) uniform GLitch {
  mat4 model;
  mat4 view;
  mat4 projection;
  vec2 resolution;
  float time;
  float delta_time;
};
`

// Prelude returns the text prepended to every shader stage: the version
// header of the backend, the built-in block and a #line directive so driver
// diagnostics refer to the caller's line numbers.
func Prelude(header string) string {
	var sb strings.Builder
	sb.WriteString(header)
	if !strings.HasSuffix(header, "\n") {
		sb.WriteByte('\n')
	}
	sb.WriteString(builtinBlock)
	sb.WriteString("#line 1\n")
	return sb.String()
}

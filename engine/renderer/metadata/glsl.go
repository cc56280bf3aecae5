package metadata

import "github.com/spaghettifunk/glitch/engine/ecs"

/** @brief A GLSL type as reported by uniform and attribute reflection. */
type GLSLType uint32

const (
	GLSLTypeFloat GLSLType = 0x1406
	GLSLTypeVec2  GLSLType = 0x8B50
	GLSLTypeVec3  GLSLType = 0x8B51
	GLSLTypeVec4  GLSLType = 0x8B52
	GLSLTypeInt   GLSLType = 0x1404
	GLSLTypeIVec2 GLSLType = 0x8B53
	GLSLTypeIVec3 GLSLType = 0x8B54
	GLSLTypeIVec4 GLSLType = 0x8B55
	GLSLTypeUint  GLSLType = 0x1405
	GLSLTypeUVec2 GLSLType = 0x8DC6
	GLSLTypeUVec3 GLSLType = 0x8DC7
	GLSLTypeUVec4 GLSLType = 0x8DC8
	GLSLTypeMat4  GLSLType = 0x8B5C
)

var glslTypes = map[GLSLType]struct {
	name     string
	dataType ecs.DataType
}{
	GLSLTypeFloat: {"float", ecs.DataTypeF32},
	GLSLTypeVec2:  {"vec2", ecs.DataTypeVec2},
	GLSLTypeVec3:  {"vec3", ecs.DataTypeVec3},
	GLSLTypeVec4:  {"vec4", ecs.DataTypeVec4},
	GLSLTypeInt:   {"int", ecs.DataTypeI32},
	GLSLTypeIVec2: {"ivec2", ecs.DataTypeIVec2},
	GLSLTypeIVec3: {"ivec3", ecs.DataTypeIVec3},
	GLSLTypeIVec4: {"ivec4", ecs.DataTypeIVec4},
	GLSLTypeUint:  {"uint", ecs.DataTypeU32},
	GLSLTypeUVec2: {"uvec2", ecs.DataTypeUVec2},
	GLSLTypeUVec3: {"uvec3", ecs.DataTypeUVec3},
	GLSLTypeUVec4: {"uvec4", ecs.DataTypeUVec4},
	GLSLTypeMat4:  {"mat4", ecs.DataTypeMat4},
}

func (t GLSLType) String() string {
	if info, ok := glslTypes[t]; ok {
		return info.name
	}
	return "unsupported"
}

// DataTypeForGLSL returns the engine data type a component must have to feed
// a uniform of type t, or DataTypeNone for types that cannot be bound.
func DataTypeForGLSL(t GLSLType) ecs.DataType {
	return glslTypes[t].dataType
}

// GLSLTypeByName maps a GLSL type keyword to its enum.
func GLSLTypeByName(name string) (GLSLType, bool) {
	for t, info := range glslTypes {
		if info.name == name {
			return t, true
		}
	}
	return 0, false
}

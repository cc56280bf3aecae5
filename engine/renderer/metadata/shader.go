package metadata

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/glitch/engine/ecs"
)

const (
	/** @brief The maximum number of user uniforms a shader program keeps. */
	MaxUniforms = 16
	/** @brief The maximum number of vertex attributes a shader program reports. */
	MaxAttributes = 16
	/**
	 * @brief Uniforms whose name starts with this prefix are read from the
	 * rendered entity. All others are read from the shader program entity.
	 */
	EntityUniformPrefix = "entity"
)

/** @brief Shader stages available in the system. */
type ShaderStage uint32

const (
	ShaderStageVertex   ShaderStage = 0x8B31
	ShaderStageFragment ShaderStage = 0x8B30
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	}
	return "unknown"
}

/**
 * @brief The source code of a shader program. Sources must not contain a
 * #version directive, the compiler prepends one together with the built-in
 * uniform block.
 */
type ShaderProgramSource struct {
	/** @brief The vertex stage GLSL. */
	Vertex string
	/** @brief The fragment stage GLSL. */
	Fragment string
}

/**
 * @brief A user uniform that survived name and type resolution.
 */
type ShaderUniform struct {
	/** @brief The uniform name as declared in GLSL. */
	Name string
	/** @brief The uniform location in the linked program. */
	Location int32
	/** @brief The GLSL type reported by the driver. */
	Type GLSLType
	/** @brief The component the value is read from. */
	Component ecs.Entity
	/** @brief True when the value is read from the rendered entity instead of the program entity. */
	FromEntity bool
}

/**
 * @brief Represents a single active vertex attribute.
 */
type ShaderAttribute struct {
	Name     string
	Location int32
	Type     GLSLType
}

/**
 * @brief A compiled, reflected and resolved shader program.
 */
type ShaderProgram struct {
	/** @brief Unique per compilation, a recompiled program gets a new one. */
	ID uuid.UUID
	/** @brief The linked program handle. */
	Program uint32

	Uniforms     [MaxUniforms]ShaderUniform
	UniformCount int
	/** @brief The checked data type of every uniform, parallel to Uniforms. */
	UniformTypes [MaxUniforms]ecs.DataType

	Attributes     [MaxAttributes]ShaderAttribute
	AttributeCount int

	/** @brief Selects the entities drawn with this program. */
	Query *ecs.Query
}

// Uniform returns the resolved uniform with the given name, or nil.
func (p *ShaderProgram) Uniform(name string) *ShaderUniform {
	for i := 0; i < p.UniformCount; i++ {
		if p.Uniforms[i].Name == name {
			return &p.Uniforms[i]
		}
	}
	return nil
}

// Attribute returns the active attribute with the given name, or nil.
func (p *ShaderProgram) Attribute(name string) *ShaderAttribute {
	for i := 0; i < p.AttributeCount; i++ {
		if p.Attributes[i].Name == name {
			return &p.Attributes[i]
		}
	}
	return nil
}

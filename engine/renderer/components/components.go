// Package components declares the components the renderer reads and writes
// and registers them with a world.
package components

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/glitch/engine/ecs"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
)

// Color is an RGBA colour. Shaders read it through uniforms named Color or
// entityColor.
type Color mgl32.Vec4

// ClearColor is the colour the frame is cleared with. It is usually set as a
// singleton.
type ClearColor mgl32.Vec4

// Window caches the title and framebuffer size of the window.
type Window struct {
	Title  string
	Width  int32
	Height int32
}

/**
 * @brief Registers every renderer component, the Uses relationship and the
 * lifecycle hooks that do not need a graphics backend.
 * @param w The world to register into. Registering twice is harmless.
 * @return The id of the Uses relationship.
 */
func Register(w *ecs.World) ecs.Entity {
	registerSpatial(w)
	registerCameras(w)

	ecs.Register[Color](w, "Color")
	ecs.Register[ClearColor](w, "ClearColor")
	ecs.Register[Window](w, "Window")

	ecs.Register[metadata.MeshData](w, "MeshData")
	ecs.Register[metadata.Mesh](w, "Mesh")
	ecs.Register[metadata.ShaderProgramSource](w, "ShaderProgramSource")
	ecs.Register[metadata.ShaderProgram](w, "ShaderProgram")

	return ecs.Tag(w, "Uses")
}

// Uses returns the id of the Uses relationship.
func Uses(w *ecs.World) ecs.Entity {
	return w.Lookup("Uses")
}

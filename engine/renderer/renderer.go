package renderer

import (
	"fmt"

	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
)

/** @brief The most driver errors drained in one frame, a lost context can report forever. */
const maxDrainedErrors = 32

/**
 * @brief Owns the graphics context for the lifetime of the application:
 * the backend, the shared built-in uniform buffer and the viewport size.
 * Create it once after the context is current and shut it down once.
 */
type Renderer struct {
	backend Backend

	builtinBuffer uint32
	builtins      metadata.BuiltinUniforms

	width  int32
	height int32
}

/**
 * @brief Prepares the context for drawing.
 * @param backend A backend whose context is current on this thread.
 * @param width The initial framebuffer width.
 * @param height The initial framebuffer height.
 */
func New(backend Backend, width, height int32) (*Renderer, error) {
	if backend == nil {
		return nil, core.ErrNoContext
	}
	r := &Renderer{backend: backend}

	r.builtinBuffer = backend.CreateBuffer()
	if r.builtinBuffer == 0 {
		return nil, fmt.Errorf("%w: cannot create the built-in uniform buffer", core.ErrNoContext)
	}
	backend.BindBuffer(UniformBuffer, r.builtinBuffer)
	backend.BufferStorage(UniformBuffer, metadata.BuiltinUniformsSize, DynamicDraw)
	backend.BindBufferBase(UniformBuffer, metadata.BuiltinBlockBinding, r.builtinBuffer)

	backend.Enable(DepthTest)
	r.Resize(width, height)

	core.LogInfo("renderer initialized (%s, %dx%d)", backend.Type(), width, height)
	return r, nil
}

// Backend returns the graphics backend.
func (r *Renderer) Backend() Backend {
	return r.backend
}

// Builtins returns the block uploaded by UploadBuiltins.
func (r *Renderer) Builtins() *metadata.BuiltinUniforms {
	return &r.builtins
}

// UploadBuiltins copies the built-in block to its uniform buffer.
func (r *Renderer) UploadBuiltins() {
	r.backend.BindBuffer(UniformBuffer, r.builtinBuffer)
	r.backend.BufferSubData(UniformBuffer, 0, r.builtins.Bytes())
}

// Resize updates the viewport and the resolution seen by shaders.
func (r *Renderer) Resize(width, height int32) {
	r.width, r.height = width, height
	r.backend.Viewport(0, 0, width, height)
	r.builtins.Resolution[0] = float32(width)
	r.builtins.Resolution[1] = float32(height)
}

// Size returns the current viewport size.
func (r *Renderer) Size() (int32, int32) {
	return r.width, r.height
}

// Clear clears colour and depth with the given colour.
func (r *Renderer) Clear(red, green, blue, alpha float32) {
	r.backend.ClearColor(red, green, blue, alpha)
	r.backend.Clear(ColorBufferBit | DepthBufferBit)
}

// DrainErrors collects every pending driver error code.
func (r *Renderer) DrainErrors() []uint32 {
	var codes []uint32
	for i := 0; i < maxDrainedErrors; i++ {
		code := r.backend.GetError()
		if code == NoError {
			break
		}
		codes = append(codes, code)
	}
	return codes
}

// Shutdown releases the resources owned by the renderer.
func (r *Renderer) Shutdown() error {
	if r.builtinBuffer != 0 {
		r.backend.DeleteBuffer(r.builtinBuffer)
		r.builtinBuffer = 0
	}
	return nil
}

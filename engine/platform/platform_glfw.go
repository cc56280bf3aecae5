//go:build !js

package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/renderer"
	"github.com/spaghettifunk/glitch/engine/renderer/opengl"
)

func init() {
	// GLFW event handling and the GL context must stay on the main OS thread
	runtime.LockOSThread()
}

type native struct {
	window *glfw.Window
}

/**
 * @brief Opens the window, makes an OpenGL 3.3 core context current and
 * loads the GL entry points.
 * @return The backend drawing into the window.
 */
func (p *Platform) Startup(config WindowConfig) (renderer.Backend, error) {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return nil, err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(int(config.Width), int(config.Height), config.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		core.LogError("failed to create window: %s", err)
		return nil, err
	}
	window.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	p.native.window = window

	window.SetKeyCallback(p.keyCallback)
	window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	window.SetCloseCallback(p.closeCallback)
	window.SetPos(int(config.X), int(config.Y))
	window.Show()

	// On high-DPI displays the framebuffer is larger than the window.
	width, height := window.GetFramebufferSize()
	p.width, p.height = int32(width), int32(height)

	backend, err := opengl.New()
	if err != nil {
		_ = p.native.shutdown()
		return nil, err
	}
	return backend, nil
}

func (n *native) poll(_ *Platform) {
	glfw.PollEvents()
}

func (n *native) swap() {
	if n.window != nil {
		n.window.SwapBuffers()
	}
}

func (n *native) shutdown() error {
	if n.window != nil {
		n.window.Destroy()
		n.window = nil
	}
	glfw.Terminate()
	return nil
}

func (p *Platform) keyCallback(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	switch action {
	case glfw.Press:
		p.key(core.EventCodeKeyPressed, int(key))
	case glfw.Release:
		p.key(core.EventCodeKeyReleased, int(key))
	}
}

func (p *Platform) framebufferSizeCallback(_ *glfw.Window, width, height int) {
	p.resized(int32(width), int32(height))
}

func (p *Platform) closeCallback(w *glfw.Window) {
	// The engine decides when to close, the window stays open until Shutdown.
	w.SetShouldClose(false)
	p.closed()
}

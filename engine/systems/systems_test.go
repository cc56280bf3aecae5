package systems

import (
	"bytes"
	"os"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/glitch/engine/assets"
	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/ecs"
	"github.com/spaghettifunk/glitch/engine/renderer"
	"github.com/spaghettifunk/glitch/engine/renderer/components"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
	"github.com/spaghettifunk/glitch/engine/renderer/rendertest"
	"github.com/stretchr/testify/require"
)

const frame = float32(1.0 / 60.0)

const vertexSource = `layout(location = 0) in vec2 position;
void main() {
  gl_Position = projection * view * model * vec4(position, 0.0, 1.0);
}
`

const tintFragment = `out vec4 fragColor;
uniform vec4 Tint;
uniform vec4 entityColor;
void main() {
  fragColor = Tint * entityColor;
}
`

// Tint is shared by every renderable of a shader.
type Tint mgl32.Vec4

// Layer exercises integer uniforms.
type Layer int32

var triangle = []mgl32.Vec2{{0, 173.205081}, {-100, 0}, {100, 0}}

type harness struct {
	world    *ecs.World
	backend  *rendertest.Recorder
	renderer *renderer.Renderer
	events   *core.EventSystem
	surface  *rendertest.Surface
	manager  *SystemManager
	uses     ecs.Entity
}

func newHarness(t *testing.T, am *assets.AssetManager) *harness {
	t.Helper()
	w := ecs.NewWorld()
	backend := rendertest.NewRecorder()
	r, err := renderer.New(backend, 800, 600)
	require.NoError(t, err)
	events := core.NewEventSystem()
	surface := rendertest.NewSurface(events)

	sm, err := NewSystemManager(w, r, surface, events, am)
	require.NoError(t, err)
	require.NoError(t, sm.Initialize())

	ecs.Register[Tint](w, "Tint")
	ecs.Register[Layer](w, "Layer")

	t.Cleanup(func() {
		_ = sm.Shutdown()
		w.Fini()
		_ = r.Shutdown()
	})
	return &harness{
		world:    w,
		backend:  backend,
		renderer: r,
		events:   events,
		surface:  surface,
		manager:  sm,
		uses:     components.Uses(w),
	}
}

func (h *harness) shader(t *testing.T, name, fragment string) ecs.Entity {
	t.Helper()
	e, err := h.world.NewNamed(name)
	require.NoError(t, err)
	require.NoError(t, ecs.Set(h.world, e, metadata.ShaderProgramSource{Vertex: vertexSource, Fragment: fragment}))
	return e
}

func (h *harness) mesh(t *testing.T) ecs.Entity {
	t.Helper()
	e := h.world.New()
	require.NoError(t, ecs.Set(h.world, e, metadata.NewMeshData2D(triangle)))
	return e
}

func (h *harness) renderable2D(t *testing.T, program, mesh ecs.Entity, position mgl32.Vec2) ecs.Entity {
	t.Helper()
	e := h.world.New()
	require.NoError(t, ecs.Set(h.world, e, components.Position2D(position)))
	require.NoError(t, h.world.Add(e, ecs.Pair(h.uses, program)))
	require.NoError(t, h.world.Add(e, ecs.Pair(h.uses, mesh)))
	return e
}

func (h *harness) camera2D(t *testing.T) ecs.Entity {
	t.Helper()
	e := h.world.New()
	require.NoError(t, ecs.Set(h.world, e, components.NewCamera2D()))
	return e
}

func (h *harness) program(t *testing.T, e ecs.Entity) *metadata.ShaderProgram {
	t.Helper()
	sp := ecs.Get[metadata.ShaderProgram](h.world, e)
	require.NotNil(t, sp, "shader %s is not compiled", e)
	return sp
}

func (h *harness) progress() bool {
	h.backend.ResetFrame()
	return h.world.Progress(frame)
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	core.SetLogOutput(&buf)
	t.Cleanup(func() { core.SetLogOutput(os.Stderr) })
	return &buf
}

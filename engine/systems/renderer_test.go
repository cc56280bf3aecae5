package systems

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/glitch/engine/ecs"
	"github.com/spaghettifunk/glitch/engine/math"
	"github.com/spaghettifunk/glitch/engine/renderer/components"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const colorFragment = `out vec4 fragColor;
uniform vec4 entityColor;
void main() {
  fragColor = entityColor;
}
`

const (
	missingCamera = "no Camera2D or Camera3D"
	extraCameras  = "more than one camera of a kind"
)

func (h *harness) colored(t *testing.T, e ecs.Entity, c components.Color) {
	t.Helper()
	require.NoError(t, ecs.Set(h.world, e, c))
}

func TestDrawUploadsSharedAndPerEntityUniforms(t *testing.T) {
	h := newHarness(t, nil)
	program := h.shader(t, "tint", tintFragment)
	require.NoError(t, ecs.Set(h.world, program, Tint{0.5, 0.5, 0.5, 1}))
	mesh := h.mesh(t)
	red := h.renderable2D(t, program, mesh, mgl32.Vec2{10, 20})
	h.colored(t, red, components.Color{1, 0, 0, 1})
	green := h.renderable2D(t, program, mesh, mgl32.Vec2{-10, -20})
	h.colored(t, green, components.Color{0, 1, 0, 1})
	h.camera2D(t)

	require.True(t, h.progress())

	sp := h.program(t, program)
	m := ecs.Get[metadata.Mesh](h.world, mesh)
	require.NotNil(t, m)
	require.Len(t, h.backend.Draws, 2)
	for _, d := range h.backend.Draws {
		assert.Equal(t, sp.Program, d.Program)
		assert.Equal(t, m.VertexArray, d.VertexArray)
		assert.Equal(t, uint32(0x0004), d.Mode)
		assert.Equal(t, int32(3), d.Count)
		assert.False(t, d.Indexed)
	}

	tint := h.backend.UniformsAt(sp.Program, sp.Uniform("Tint").Location)
	require.Len(t, tint, 2)
	for _, c := range tint {
		assert.Equal(t, "4fv", c.Kind)
		assert.Equal(t, []float32{0.5, 0.5, 0.5, 1}, c.Floats)
	}

	colors := h.backend.UniformsAt(sp.Program, sp.Uniform("entityColor").Location)
	require.Len(t, colors, 2)
	assert.Equal(t, []float32{1, 0, 0, 1}, colors[0].Floats)
	assert.Equal(t, []float32{0, 1, 0, 1}, colors[1].Floats)
}

func TestDrawUploadsBuiltins(t *testing.T) {
	h := newHarness(t, nil)
	program := h.shader(t, "color", colorFragment)
	mesh := h.mesh(t)
	e := h.renderable2D(t, program, mesh, mgl32.Vec2{10, 20})
	h.colored(t, e, components.Color{1, 1, 1, 1})
	require.NoError(t, ecs.Set(h.world, e, components.Rotation2D(mgl32.DegToRad(90))))
	require.NoError(t, ecs.Set(h.world, e, components.Scale2D{2, 3}))
	camera := h.camera2D(t)
	require.NoError(t, ecs.Set(h.world, camera, components.Position2D{5, 5}))

	h.progress()

	require.Len(t, h.backend.Draws, 1)
	b := h.backend.Draws[0].Builtins
	rotation, scale := float32(mgl32.DegToRad(90)), mgl32.Vec2{2, 3}
	assert.Equal(t, math.Model2D(mgl32.Vec2{10, 20}, &rotation, &scale), b.Model)
	assert.Equal(t, math.View2D(mgl32.Vec2{5, 5}), b.View)
	assert.Equal(t, math.Projection2D(800, 600, 1), b.Projection)
	assert.Equal(t, mgl32.Vec2{800, 600}, b.Resolution)
	assert.Equal(t, frame, b.Time)
	assert.Equal(t, frame, b.DeltaTime)

	h.progress()
	require.Len(t, h.backend.Draws, 1)
	assert.Equal(t, 2*frame, h.backend.Draws[0].Builtins.Time)
}

func TestMissingCameraWarnsOncePerStreak(t *testing.T) {
	h := newHarness(t, nil)
	logs := captureLog(t)
	program := h.shader(t, "color", colorFragment)
	e := h.renderable2D(t, program, h.mesh(t), mgl32.Vec2{})
	h.colored(t, e, components.Color{1, 1, 1, 1})

	for i := 0; i < 3; i++ {
		h.progress()
		assert.Empty(t, h.backend.Draws)
	}
	assert.Equal(t, 1, strings.Count(logs.String(), missingCamera))

	camera := h.camera2D(t)
	h.progress()
	assert.Len(t, h.backend.Draws, 1)

	require.NoError(t, h.world.Delete(camera))
	h.progress()
	h.progress()
	assert.Empty(t, h.backend.Draws)
	assert.Equal(t, 2, strings.Count(logs.String(), missingCamera))
}

func TestBatchesWithoutTheirCameraAreSkipped(t *testing.T) {
	h := newHarness(t, nil)
	program := h.shader(t, "color", colorFragment)
	mesh := h.mesh(t)
	flat := h.renderable2D(t, program, mesh, mgl32.Vec2{})
	h.colored(t, flat, components.Color{1, 1, 1, 1})

	solid := h.world.New()
	rotation := mgl32.QuatRotate(mgl32.DegToRad(45), mgl32.Vec3{0, 1, 0})
	scale := mgl32.Vec3{2, 2, 2}
	require.NoError(t, ecs.Set(h.world, solid, components.Position3D{1, 2, -10}))
	require.NoError(t, ecs.Set(h.world, solid, components.Rotation3D(rotation)))
	require.NoError(t, ecs.Set(h.world, solid, components.Scale3D(scale)))
	require.NoError(t, h.world.Add(solid, ecs.Pair(h.uses, program)))
	require.NoError(t, h.world.Add(solid, ecs.Pair(h.uses, mesh)))
	h.colored(t, solid, components.Color{1, 1, 1, 1})

	h.camera2D(t)
	h.progress()
	require.Len(t, h.backend.Draws, 1)
	assert.Equal(t, math.Model2D(mgl32.Vec2{}, nil, nil), h.backend.Draws[0].Builtins.Model)

	camera := h.world.New()
	require.NoError(t, ecs.Set(h.world, camera, components.NewCamera3D()))
	h.progress()
	require.Len(t, h.backend.Draws, 2)

	c := ecs.Get[components.Camera3D](h.world, camera)
	require.NotNil(t, c)
	assert.Equal(t, math.Projection3D(800, 600, components.DefaultFieldOfView, components.DefaultNearPlane, components.DefaultFarPlane), c.Projection)
	var drawn3D int
	for _, d := range h.backend.Draws {
		if d.Builtins.Projection == c.Projection {
			drawn3D++
			assert.Equal(t, c.View, d.Builtins.View)
			assert.Equal(t, math.Model3D(mgl32.Vec3{1, 2, -10}, &rotation, &scale), d.Builtins.Model)
		}
	}
	assert.Equal(t, 1, drawn3D)
}

func TestIndexedMeshesDrawElements(t *testing.T) {
	h := newHarness(t, nil)
	program := h.shader(t, "color", colorFragment)
	mesh := h.world.New()
	square := []mgl32.Vec2{{-100, -100}, {100, -100}, {100, 100}, {-100, 100}}
	require.NoError(t, ecs.Set(h.world, mesh, metadata.NewMeshData2D(square).WithIndices16([]uint16{0, 1, 2, 2, 3, 0})))
	e := h.renderable2D(t, program, mesh, mgl32.Vec2{})
	h.colored(t, e, components.Color{1, 1, 1, 1})
	h.camera2D(t)
	h.progress()

	require.Len(t, h.backend.Draws, 1)
	d := h.backend.Draws[0]
	assert.True(t, d.Indexed)
	assert.Equal(t, int32(6), d.Count)
	assert.Equal(t, uint32(0x1403), d.IndexType)
}

func TestMismatchedUniformIsNotUploaded(t *testing.T) {
	h := newHarness(t, nil)
	program := h.shader(t, "vec3", `out vec4 fragColor;
uniform vec3 entityColor;
void main() {
  fragColor = vec4(entityColor, 1.0);
}
`)
	e := h.renderable2D(t, program, h.mesh(t), mgl32.Vec2{})
	h.colored(t, e, components.Color{1, 0, 0, 1})
	h.camera2D(t)
	h.progress()

	assert.Zero(t, h.program(t, program).UniformCount)
	assert.Len(t, h.backend.Draws, 1)
	assert.Empty(t, h.backend.Uniforms)
}

func TestIntegerUniforms(t *testing.T) {
	h := newHarness(t, nil)
	program := h.shader(t, "layer", `out vec4 fragColor;
uniform int entityLayer;
void main() {
  fragColor = vec4(float(entityLayer));
}
`)
	e := h.renderable2D(t, program, h.mesh(t), mgl32.Vec2{})
	require.NoError(t, ecs.Set(h.world, e, Layer(7)))
	h.camera2D(t)
	h.progress()

	sp := h.program(t, program)
	calls := h.backend.UniformsAt(sp.Program, sp.Uniform("entityLayer").Location)
	require.Len(t, calls, 1)
	assert.Equal(t, "1iv", calls[0].Kind)
	assert.Equal(t, []int32{7}, calls[0].Ints)
}

func TestExtraCamerasWarnOncePerStreak(t *testing.T) {
	h := newHarness(t, nil)
	logs := captureLog(t)
	h.camera2D(t)
	extra := h.camera2D(t)

	for i := 0; i < 3; i++ {
		h.progress()
	}
	assert.Equal(t, 1, strings.Count(logs.String(), extraCameras))

	require.NoError(t, h.world.Delete(extra))
	h.progress()
	h.camera2D(t)
	h.progress()
	assert.Equal(t, 2, strings.Count(logs.String(), extraCameras))
}

func TestFrameEvents(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, ecs.SetSingleton(h.world, components.Window{Title: "test", Width: 800, Height: 600}))
	require.NoError(t, ecs.SetSingleton(h.world, components.ClearColor{0.1, 0.2, 0.3, 1}))
	camera := h.camera2D(t)

	h.surface.Resize(1024, 768)
	assert.True(t, h.progress())
	assert.Equal(t, [4]int32{0, 0, 1024, 768}, h.backend.ViewportSize)
	assert.Equal(t, mgl32.Vec2{1024, 768}, h.renderer.Builtins().Resolution)
	win := ecs.Singleton[components.Window](h.world)
	require.NotNil(t, win)
	assert.Equal(t, components.Window{Title: "test", Width: 1024, Height: 768}, *win)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, h.backend.ClearValue)
	assert.Equal(t, 1, h.surface.Pumps)
	assert.Equal(t, 1, h.surface.Swaps)
	// The resize reaches the camera in the frame it is pumped.
	assert.Equal(t, math.Projection2D(1024, 768, 1), ecs.Get[components.Camera2D](h.world, camera).Projection)

	// A minimised window keeps the last viewport.
	h.surface.Resize(0, 0)
	h.progress()
	assert.Equal(t, [4]int32{0, 0, 1024, 768}, h.backend.ViewportSize)

	h.surface.Close()
	assert.False(t, h.progress())
}

func TestDefaultClearColor(t *testing.T) {
	h := newHarness(t, nil)
	h.progress()
	assert.Equal(t, [4]float32{0, 0, 0, 1}, h.backend.ClearValue)
	require.NotEmpty(t, h.backend.Clears)
}

func TestResizeCreatesTheWindowSingleton(t *testing.T) {
	h := newHarness(t, nil)
	h.surface.Resize(320, 200)
	h.progress()

	win := ecs.Singleton[components.Window](h.world)
	require.NotNil(t, win)
	assert.Equal(t, int32(320), win.Width)
	assert.Equal(t, int32(200), win.Height)
}

func TestDriverErrorsAreLogged(t *testing.T) {
	h := newHarness(t, nil)
	logs := captureLog(t)
	h.backend.PushError(0x0502)
	h.backend.PushError(0x0505)
	h.progress()

	assert.Contains(t, logs.String(), "graphics driver error 0x0502")
	assert.Contains(t, logs.String(), "graphics driver error 0x0505")
}

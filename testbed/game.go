package testbed

import (
	"embed"
	"io/fs"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/glitch/engine"
	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/ecs"
	"github.com/spaghettifunk/glitch/engine/renderer/components"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
)

//go:embed assets/shaders
var embedded embed.FS

// ShaderName is the asset both demo shapes are drawn with.
const ShaderName = "tint"

// OrbitRadius is the distance of the shapes to the origin in world units.
const OrbitRadius = 100

// Lifetime is the scaled age of an entity in seconds.
type Lifetime float32

// TimeScale multiplies the rate an entity ages at.
type TimeScale float32

// Tint is shared by every entity drawn with the demo shader.
type Tint mgl32.Vec4

type TestGame struct {
	*engine.Game
}

type gameState struct {
	shader   ecs.Entity
	triangle ecs.Entity
	square   ecs.Entity
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}
	tg.FnInitialize = tg.Initialize
	return tg
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogDebug("TestGame Initialize fn....")

	shader, err := loadShader(e)
	if err != nil {
		core.LogError("failed to load the `%s` shader: %s", ShaderName, err)
		return err
	}

	state := g.State.(*gameState)
	state.shader = shader
	state.triangle, state.square, err = Populate(e.World(), shader)
	return err
}

// loadShader reads the shader from the assets directory when there is one,
// so edits are hot reloaded, and from the embedded copy otherwise.
func loadShader(e *engine.Engine) (ecs.Entity, error) {
	if e.HasAssets() {
		return e.LoadShader(ShaderName)
	}
	vertex, err := fs.ReadFile(embedded, "assets/shaders/"+ShaderName+".vert")
	if err != nil {
		return 0, err
	}
	fragment, err := fs.ReadFile(embedded, "assets/shaders/"+ShaderName+".frag")
	if err != nil {
		return 0, err
	}
	return e.NewShader(ShaderName, metadata.ShaderProgramSource{Vertex: string(vertex), Fragment: string(fragment)})
}

/**
 * @brief Registers the demo components and systems and spawns a triangle and
 * a square orbiting the origin, the square twice as fast.
 * @param w A world with the renderer components registered.
 * @param shader The program both shapes use.
 * @return The triangle and the square entities.
 */
func Populate(w *ecs.World, shader ecs.Entity) (ecs.Entity, ecs.Entity, error) {
	ecs.Register[Lifetime](w, "Lifetime")
	ecs.Register[TimeScale](w, "TimeScale")
	ecs.Register[Tint](w, "Tint")
	ecs.SetHooks(w, ecs.Hooks[TimeScale]{
		Ctor: func(s *TimeScale) { *s = 1 },
	})

	if _, err := w.System(ecs.SystemDesc{
		Name:  "Age",
		Phase: ecs.OnUpdate,
		Query: &ecs.QueryDesc{Terms: []ecs.Term{
			{ID: ecs.Id[Lifetime](w), InOut: ecs.InOutDefault},
			{ID: ecs.Id[TimeScale](w), InOut: ecs.In},
		}},
		Callback: age,
	}); err != nil {
		return 0, 0, err
	}
	if _, err := w.System(ecs.SystemDesc{
		Name:  "Move",
		Phase: ecs.OnUpdate,
		Query: &ecs.QueryDesc{Terms: []ecs.Term{
			{ID: ecs.Id[components.Position2D](w), InOut: ecs.Out},
			{ID: ecs.Id[Lifetime](w), InOut: ecs.In},
		}},
		Callback: move,
	}); err != nil {
		return 0, 0, err
	}

	if err := ecs.Set(w, shader, Tint{1, 1, 1, 1}); err != nil {
		return 0, 0, err
	}

	triangleMesh := w.New()
	if err := ecs.Set(w, triangleMesh, metadata.NewMeshData2D([]mgl32.Vec2{
		{0, 173.205081},
		{-100, 0},
		{100, 0},
	})); err != nil {
		return 0, 0, err
	}
	squareMesh := w.New()
	if err := ecs.Set(w, squareMesh, metadata.NewMeshData2D([]mgl32.Vec2{
		{-100, 100},
		{-100, -100},
		{100, -100},
		{-100, 100},
		{100, -100},
		{100, 100},
	})); err != nil {
		return 0, 0, err
	}

	triangle, err := spawn(w, "Triangle", shader, triangleMesh, 1, components.Color{1, 0.5, 0.2, 1})
	if err != nil {
		return 0, 0, err
	}
	square, err := spawn(w, "Square", shader, squareMesh, 2, components.Color{0.2, 0.6, 1, 1})
	if err != nil {
		return 0, 0, err
	}

	if err := ecs.SetSingleton(w, components.NewCamera2D()); err != nil {
		return 0, 0, err
	}
	return triangle, square, nil
}

func spawn(w *ecs.World, name string, shader, mesh ecs.Entity, timeScale TimeScale, color components.Color) (ecs.Entity, error) {
	e, err := w.NewNamed(name)
	if err != nil {
		return 0, err
	}
	uses := components.Uses(w)
	for _, id := range []ecs.Entity{
		ecs.Id[components.Position2D](w),
		ecs.Id[Lifetime](w),
		ecs.Pair(uses, mesh),
		ecs.Pair(uses, shader),
	} {
		if err := w.Add(e, id); err != nil {
			return 0, err
		}
	}
	if err := ecs.Set(w, e, timeScale); err != nil {
		return 0, err
	}
	if err := ecs.Set(w, e, color); err != nil {
		return 0, err
	}
	return e, nil
}

func age(it *ecs.Iter) {
	lifetimes := ecs.Field[Lifetime](it, 0)
	timeScales := ecs.Field[TimeScale](it, 1)
	for i := range lifetimes {
		lifetimes[i] += Lifetime(it.DeltaTime * float32(timeScales[i]))
	}
}

func move(it *ecs.Iter) {
	positions := ecs.Field[components.Position2D](it, 0)
	lifetimes := ecs.Field[Lifetime](it, 1)
	for i := range positions {
		l := float64(lifetimes[i])
		positions[i] = components.Position2D{
			float32(math.Cos(l)) * OrbitRadius,
			float32(math.Sin(l)) * OrbitRadius,
		}
	}
}

package testbed

import (
	"math"
	"testing"

	"github.com/spaghettifunk/glitch/engine/ecs"
	"github.com/spaghettifunk/glitch/engine/renderer/components"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapesOrbitTheOrigin(t *testing.T) {
	w := ecs.NewWorld()
	t.Cleanup(w.Fini)
	components.Register(w)
	shader := w.New()

	triangle, square, err := Populate(w, shader)
	require.NoError(t, err)

	assert.Equal(t, TimeScale(1), *ecs.Get[TimeScale](w, triangle))
	assert.Equal(t, TimeScale(2), *ecs.Get[TimeScale](w, square))
	assert.Equal(t, Tint{1, 1, 1, 1}, *ecs.Get[Tint](w, shader))
	assert.NotNil(t, ecs.Singleton[components.Camera2D](w))

	const dt = float32(0.25)
	for i := 0; i < 4; i++ {
		require.True(t, w.Progress(dt))
	}

	for e, scale := range map[ecs.Entity]float64{triangle: 1, square: 2} {
		lifetime := float64(*ecs.Get[Lifetime](w, e))
		assert.InDelta(t, scale, lifetime, 1e-5)
		p := ecs.Get[components.Position2D](w, e)
		assert.InDelta(t, math.Cos(lifetime)*OrbitRadius, p[0], 1e-3)
		assert.InDelta(t, math.Sin(lifetime)*OrbitRadius, p[1], 1e-3)
	}
}

func TestShapesUseTheShaderAndTheirMesh(t *testing.T) {
	w := ecs.NewWorld()
	t.Cleanup(w.Fini)
	uses := components.Register(w)
	shader := w.New()

	triangle, square, err := Populate(w, shader)
	require.NoError(t, err)

	for _, e := range []ecs.Entity{triangle, square} {
		assert.True(t, w.Has(e, ecs.Pair(uses, shader)))
		assert.NotNil(t, ecs.Get[components.Color](w, e))
	}

	q, err := w.Query(ecs.QueryDesc{Terms: []ecs.Term{
		{ID: ecs.Id[metadata.MeshData](w), InOut: ecs.In},
	}})
	require.NoError(t, err)
	defer q.Fini()
	assert.Equal(t, 2, q.Count())

	var vertices []int32
	it := q.Iter()
	for it.Next() {
		for _, data := range ecs.Field[metadata.MeshData](it, 0) {
			vertices = append(vertices, data.VertexCount())
		}
	}
	assert.ElementsMatch(t, []int32{3, 6}, vertices)
}

func TestEmbeddedShaderIsComplete(t *testing.T) {
	for _, ext := range []string{".vert", ".frag"} {
		data, err := embedded.ReadFile("assets/shaders/" + ShaderName + ext)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "#version")
	}
}

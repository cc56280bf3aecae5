package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/ecs"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeMeshes(t *testing.T) {
	h := newHarness(t, nil)
	e := h.mesh(t)
	h.progress()

	assert.False(t, h.world.Has(e, ecs.Id[metadata.MeshData](h.world)))
	m := ecs.Get[metadata.Mesh](h.world, e)
	require.NotNil(t, m)
	assert.NotZero(t, m.VertexArray)
	assert.NotZero(t, m.VertexBuffer)
	assert.Zero(t, m.IndexBuffer)
	assert.Equal(t, int32(3), m.VertexCount)
	assert.False(t, m.Indexed())
	assert.Len(t, h.backend.BufferContents(m.VertexBuffer), 3*8)

	// The built-in uniform block and the vertices.
	assert.Equal(t, 2, h.backend.LiveBuffers())
	assert.Equal(t, 1, h.backend.LiveVertexArrays())

	require.Len(t, h.backend.AttribPointers, 1)
	p := h.backend.AttribPointers[0]
	assert.Equal(t, m.VertexArray, p.VertexArray)
	assert.Equal(t, m.VertexBuffer, p.Buffer)
	assert.Equal(t, uint32(0), p.Index)
	assert.Equal(t, int32(2), p.Size)
	assert.Equal(t, uint32(metadata.VertexAttributeFloat), p.Type)
	assert.Equal(t, int32(8), p.Stride)
	assert.False(t, p.Integer)
	assert.Equal(t, []uint32{0}, h.backend.EnabledArrays[m.VertexArray])
}

func TestRebuiltMeshReleasesThePreviousOne(t *testing.T) {
	h := newHarness(t, nil)
	e := h.mesh(t)
	h.progress()
	old := *ecs.Get[metadata.Mesh](h.world, e)

	square := []mgl32.Vec2{{-100, -100}, {100, -100}, {100, 100}, {-100, 100}}
	require.NoError(t, ecs.Set(h.world, e, metadata.NewMeshData2D(square).WithIndices([]uint32{0, 1, 2, 2, 3, 0})))
	h.progress()

	m := ecs.Get[metadata.Mesh](h.world, e)
	require.NotNil(t, m)
	assert.True(t, m.Indexed())
	assert.Equal(t, int32(4), m.VertexCount)
	assert.Equal(t, int32(6), m.IndexCount)
	assert.Equal(t, metadata.IndexTypeUint32, m.IndexType)
	assert.Len(t, h.backend.BufferContents(m.IndexBuffer), 6*4)

	assert.Contains(t, h.backend.DeletedBuffers, old.VertexBuffer)
	assert.Contains(t, h.backend.DeletedArrays, old.VertexArray)
	assert.Equal(t, 3, h.backend.LiveBuffers())
	assert.Equal(t, 1, h.backend.LiveVertexArrays())

	require.NoError(t, h.world.Delete(e))
	assert.Equal(t, 1, h.backend.LiveBuffers())
	assert.Zero(t, h.backend.LiveVertexArrays())
}

func TestMakeMeshesIntegerAttributes(t *testing.T) {
	type vertex struct {
		Position mgl32.Vec3
		Bone     int32
	}
	h := newHarness(t, nil)
	data := metadata.NewMeshData([]vertex{{Bone: 1}, {Bone: 2}},
		metadata.VertexAttribute{Type: metadata.VertexAttributeFloat, Components: 3},
		metadata.VertexAttribute{Type: metadata.VertexAttributeInt, Components: 1, Integer: true},
	)
	data.Primitive = metadata.PrimitivePoints
	e := h.world.New()
	require.NoError(t, ecs.Set(h.world, e, data))
	h.progress()

	m := ecs.Get[metadata.Mesh](h.world, e)
	require.NotNil(t, m)
	assert.Equal(t, int32(2), m.VertexCount)
	assert.Equal(t, metadata.PrimitivePoints, m.Primitive)

	require.Len(t, h.backend.AttribPointers, 2)
	position, bone := h.backend.AttribPointers[0], h.backend.AttribPointers[1]
	assert.False(t, position.Integer)
	assert.Equal(t, int32(3), position.Size)
	assert.Equal(t, int32(16), position.Stride)
	assert.True(t, bone.Integer)
	assert.Equal(t, uint32(1), bone.Index)
	assert.Equal(t, 12, bone.Offset)
	assert.Equal(t, []uint32{0, 1}, h.backend.EnabledArrays[m.VertexArray])
}

func TestMakeMeshesRejectsInvalidData(t *testing.T) {
	h := newHarness(t, nil)
	logs := captureLog(t)
	e := h.world.New()
	require.NoError(t, ecs.Set(h.world, e, metadata.MeshData{Vertices: []byte{1, 2, 3}}))
	h.progress()

	assert.False(t, h.world.Has(e, ecs.Id[metadata.MeshData](h.world)))
	assert.Nil(t, ecs.Get[metadata.Mesh](h.world, e))
	assert.Contains(t, logs.String(), core.ErrInvalidMeshData.Error())
	assert.Zero(t, h.backend.LiveVertexArrays())
}

package systems

import (
	"fmt"

	"github.com/spaghettifunk/glitch/engine/core"
	"github.com/spaghettifunk/glitch/engine/ecs"
	"github.com/spaghettifunk/glitch/engine/renderer"
	"github.com/spaghettifunk/glitch/engine/renderer/metadata"
)

/**
 * @brief Uploads MeshData to the GPU. The MeshData component is consumed and
 * replaced by a Mesh holding the vertex array and buffers.
 */
type MeshSystem struct {
	renderer *renderer.Renderer
}

func NewMeshSystem(w *ecs.World, r *renderer.Renderer) (*MeshSystem, error) {
	if w == nil || r == nil {
		err := fmt.Errorf("NewMeshSystem - world and renderer are required")
		core.LogError(err.Error())
		return nil, err
	}
	ms := &MeshSystem{renderer: r}
	ecs.SetHooks(w, ecs.Hooks[metadata.Mesh]{
		// Runs on removal and when a rebuilt mesh replaces this one.
		OnRemove: func(_ *ecs.World, _ ecs.Entity, m *metadata.Mesh) {
			ms.release(m)
		},
	})
	return ms, nil
}

func (ms *MeshSystem) Shutdown() error {
	return nil
}

func (ms *MeshSystem) makeMeshesSystem(w *ecs.World) ecs.SystemDesc {
	return ecs.SystemDesc{
		Name:  "MakeMeshes",
		Phase: ecs.OnLoad,
		Query: &ecs.QueryDesc{Terms: []ecs.Term{
			{ID: ecs.Id[metadata.MeshData](w), InOut: ecs.In},
		}},
		Callback: ms.makeMeshes,
	}
}

func (ms *MeshSystem) makeMeshes(it *ecs.Iter) {
	w := it.World
	meshDataID := ecs.Id[metadata.MeshData](w)
	data := ecs.Field[metadata.MeshData](it, 0)
	for i, e := range it.Entities {
		mesh, err := ms.upload(&data[i])
		if err != nil {
			core.LogError("mesh `%s`: %s", entityLabel(w, e), err)
		} else {
			_ = ecs.Set(w, e, mesh)
		}
		_ = w.Remove(e, meshDataID)
	}
}

/**
 * @brief Creates the vertex array, vertex buffer and optional index buffer
 * of a mesh and configures its vertex layout.
 * @param data A mesh description, checked with Validate first.
 * @return The GPU mesh.
 */
func (ms *MeshSystem) upload(data *metadata.MeshData) (metadata.Mesh, error) {
	if err := data.Validate(); err != nil {
		return metadata.Mesh{}, err
	}
	b := ms.renderer.Backend()
	mesh := metadata.Mesh{
		VertexCount: data.VertexCount(),
		IndexCount:  data.IndexCount(),
		IndexType:   data.IndexType,
		Primitive:   data.Primitive,
	}

	mesh.VertexArray = b.CreateVertexArray()
	b.BindVertexArray(mesh.VertexArray)

	mesh.VertexBuffer = b.CreateBuffer()
	b.BindBuffer(renderer.ArrayBuffer, mesh.VertexBuffer)
	b.BufferData(renderer.ArrayBuffer, data.Vertices, renderer.StaticDraw)

	stride := data.Stride()
	offset := 0
	for i, a := range data.Attributes[:data.AttributeCount()] {
		index := uint32(i)
		if a.Integer {
			b.VertexAttribIPointer(index, a.Components, uint32(a.Type), stride, offset)
		} else {
			b.VertexAttribPointer(index, a.Components, uint32(a.Type), a.Normalized, stride, offset)
		}
		b.EnableVertexAttribArray(index)
		offset += int(a.Components * a.Type.Size())
	}

	if data.IndexType != metadata.IndexTypeNone {
		mesh.IndexBuffer = b.CreateBuffer()
		// The element buffer binding is recorded in the vertex array.
		b.BindBuffer(renderer.ElementArrayBuffer, mesh.IndexBuffer)
		b.BufferData(renderer.ElementArrayBuffer, data.Indices, renderer.StaticDraw)
	}
	b.BindVertexArray(0)
	core.LogDebug("mesh uploaded: %d vertices, %d indices", mesh.VertexCount, mesh.IndexCount)
	return mesh, nil
}

func (ms *MeshSystem) release(m *metadata.Mesh) {
	b := ms.renderer.Backend()
	b.DeleteVertexArray(m.VertexArray)
	b.DeleteBuffer(m.VertexBuffer)
	b.DeleteBuffer(m.IndexBuffer)
	*m = metadata.Mesh{}
}

package metadata

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/glitch/engine/core"
)

/** @brief The maximum number of vertex attributes of a mesh, including the sentinel. */
const MaxVertexAttributes = 8

/** @brief The component type of a vertex attribute. Zero terminates a layout. */
type VertexAttributeType uint32

const (
	VertexAttributeNone          VertexAttributeType = 0
	VertexAttributeByte          VertexAttributeType = 0x1400
	VertexAttributeUnsignedByte  VertexAttributeType = 0x1401
	VertexAttributeShort         VertexAttributeType = 0x1402
	VertexAttributeUnsignedShort VertexAttributeType = 0x1403
	VertexAttributeInt           VertexAttributeType = 0x1404
	VertexAttributeUnsignedInt   VertexAttributeType = 0x1405
	VertexAttributeFloat         VertexAttributeType = 0x1406
)

// Size returns the size of one component in bytes.
func (t VertexAttributeType) Size() int32 {
	switch t {
	case VertexAttributeByte, VertexAttributeUnsignedByte:
		return 1
	case VertexAttributeShort, VertexAttributeUnsignedShort:
		return 2
	case VertexAttributeInt, VertexAttributeUnsignedInt, VertexAttributeFloat:
		return 4
	}
	return 0
}

/** @brief Describes one interleaved vertex attribute. */
type VertexAttribute struct {
	Type VertexAttributeType
	/** @brief Number of components, 1 to 4. */
	Components int32
	/** @brief Normalize integer data when it feeds a float attribute. */
	Normalized bool
	/** @brief Feed integer data to an integer attribute (ivec/uvec) unconverted. */
	Integer bool
}

/** @brief The primitive assembled from the vertices of a mesh. */
type Primitive uint8

const (
	PrimitiveTriangles Primitive = iota
	PrimitiveTriangleStrip
	PrimitiveTriangleFan
	PrimitiveLines
	PrimitiveLineStrip
	PrimitiveLineLoop
	PrimitivePoints
)

// GL returns the OpenGL draw mode.
func (p Primitive) GL() uint32 {
	switch p {
	case PrimitiveTriangleStrip:
		return 0x0005
	case PrimitiveTriangleFan:
		return 0x0006
	case PrimitiveLines:
		return 0x0001
	case PrimitiveLineStrip:
		return 0x0003
	case PrimitiveLineLoop:
		return 0x0002
	case PrimitivePoints:
		return 0x0000
	}
	return 0x0004
}

/** @brief The type of the indices of a mesh. IndexTypeNone draws without indices. */
type IndexType uint8

const (
	IndexTypeNone IndexType = iota
	IndexTypeUint8
	IndexTypeUint16
	IndexTypeUint32
)

// GL returns the OpenGL index type.
func (t IndexType) GL() uint32 {
	switch t {
	case IndexTypeUint8:
		return 0x1401
	case IndexTypeUint16:
		return 0x1403
	case IndexTypeUint32:
		return 0x1405
	}
	return 0
}

// Size returns the size of one index in bytes.
func (t IndexType) Size() int {
	switch t {
	case IndexTypeUint8:
		return 1
	case IndexTypeUint16:
		return 2
	case IndexTypeUint32:
		return 4
	}
	return 0
}

/**
 * @brief CPU side mesh description. It is consumed once by the mesh upload
 * and removed from its entity afterwards.
 */
type MeshData struct {
	/** @brief Interleaved vertex data. */
	Vertices []byte
	/** @brief Optional index data of IndexType. */
	Indices   []byte
	IndexType IndexType
	Primitive Primitive
	/** @brief The vertex layout, terminated by an attribute of type VertexAttributeNone. */
	Attributes [MaxVertexAttributes]VertexAttribute
}

// AttributeCount returns the number of attributes before the sentinel.
func (m *MeshData) AttributeCount() int {
	for i, a := range m.Attributes {
		if a.Type == VertexAttributeNone {
			return i
		}
	}
	return MaxVertexAttributes
}

// Stride returns the size of one vertex in bytes.
func (m *MeshData) Stride() int32 {
	var stride int32
	for _, a := range m.Attributes[:m.AttributeCount()] {
		stride += a.Components * a.Type.Size()
	}
	return stride
}

// VertexCount returns the number of vertices.
func (m *MeshData) VertexCount() int32 {
	if stride := m.Stride(); stride > 0 {
		return int32(len(m.Vertices)) / stride
	}
	return 0
}

// IndexCount returns the number of indices.
func (m *MeshData) IndexCount() int32 {
	if size := m.IndexType.Size(); size > 0 {
		return int32(len(m.Indices) / size)
	}
	return 0
}

// Validate checks the layout against the vertex and index data.
func (m *MeshData) Validate() error {
	n := m.AttributeCount()
	if n == 0 {
		return fmt.Errorf("%w: empty vertex layout", core.ErrInvalidMeshData)
	}
	if n == MaxVertexAttributes {
		return fmt.Errorf("%w: vertex layout is not terminated", core.ErrInvalidMeshData)
	}
	for i, a := range m.Attributes[:n] {
		if a.Components < 1 || a.Components > 4 || a.Type.Size() == 0 {
			return fmt.Errorf("%w: attribute %d has %d components of type %#x", core.ErrInvalidMeshData, i, a.Components, uint32(a.Type))
		}
	}
	if len(m.Vertices) == 0 || len(m.Vertices)%int(m.Stride()) != 0 {
		return fmt.Errorf("%w: %d vertex bytes do not fit stride %d", core.ErrInvalidMeshData, len(m.Vertices), m.Stride())
	}
	if m.IndexType == IndexTypeNone && len(m.Indices) > 0 {
		return fmt.Errorf("%w: indices without an index type", core.ErrInvalidMeshData)
	}
	if m.IndexType != IndexTypeNone && (len(m.Indices) == 0 || len(m.Indices)%m.IndexType.Size() != 0) {
		return fmt.Errorf("%w: %d index bytes do not fit index size %d", core.ErrInvalidMeshData, len(m.Indices), m.IndexType.Size())
	}
	return nil
}

// WithIndices returns a copy of m drawn with 32-bit indices.
func (m MeshData) WithIndices(indices []uint32) MeshData {
	m.Indices = asBytes(indices)
	m.IndexType = IndexTypeUint32
	return m
}

// WithIndices16 returns a copy of m drawn with 16-bit indices.
func (m MeshData) WithIndices16(indices []uint16) MeshData {
	m.Indices = asBytes(indices)
	m.IndexType = IndexTypeUint16
	return m
}

// NewMeshData2D describes triangles with a single vec2 position attribute.
func NewMeshData2D(vertices []mgl32.Vec2) MeshData {
	m := MeshData{Vertices: asBytes(vertices)}
	m.Attributes[0] = VertexAttribute{Type: VertexAttributeFloat, Components: 2}
	return m
}

// NewMeshData3D describes triangles with a single vec3 position attribute.
func NewMeshData3D(vertices []mgl32.Vec3) MeshData {
	m := MeshData{Vertices: asBytes(vertices)}
	m.Attributes[0] = VertexAttribute{Type: VertexAttributeFloat, Components: 3}
	return m
}

// NewMeshData copies raw interleaved vertices described by layout.
func NewMeshData[T any](vertices []T, layout ...VertexAttribute) MeshData {
	m := MeshData{Vertices: asBytes(vertices)}
	copy(m.Attributes[:MaxVertexAttributes-1], layout)
	return m
}

// asBytes copies a slice of plain values into native byte order.
func asBytes[T any](values []T) []byte {
	if len(values) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(values[0])) * len(values)
	return append([]byte(nil), unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), size)...)
}

/**
 * @brief GPU side mesh. Handles are released when the component is removed
 * or replaced.
 */
type Mesh struct {
	VertexArray  uint32
	VertexBuffer uint32
	/** @brief Zero when the mesh is drawn without indices. */
	IndexBuffer uint32
	VertexCount int32
	IndexCount  int32
	IndexType   IndexType
	Primitive   Primitive
}

// Indexed reports whether the mesh is drawn with an index buffer.
func (m *Mesh) Indexed() bool {
	return m.IndexBuffer != 0 && m.IndexCount > 0
}

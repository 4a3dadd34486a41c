package scene

import (
	"sync/atomic"

	"nexium/core"
)

// PrimitiveType selects the GL primitive topology used to draw a mesh.
type PrimitiveType int

const (
	PrimTriangles PrimitiveType = iota
	PrimTriangleStrip
	PrimTriangleFan
	PrimLines
	PrimLineStrip
	PrimLineLoop
	PrimPoints
)

// MinVertexCount returns the smallest vertex count that produces output for
// the primitive type. Draws below this count are silently skipped.
func (p PrimitiveType) MinVertexCount() int {
	switch p {
	case PrimPoints:
		return 1
	case PrimLines, PrimLineStrip, PrimLineLoop:
		return 2
	default:
		return 3
	}
}

// ShadowCastMode controls whether a mesh appears in shadow passes,
// color passes, or both.
type ShadowCastMode int

const (
	ShadowCastEnabled  ShadowCastMode = iota // rendered in color and shadow passes
	ShadowCastOnly                           // shadow passes only
	ShadowCastDisabled                       // color passes only
)

// ShadowFaceMode selects face culling during shadow rendering.
type ShadowFaceMode int

const (
	ShadowFaceAuto  ShadowFaceMode = iota // follow the material's cull mode
	ShadowFaceFront                       // cull back, render front faces
	ShadowFaceBack                        // cull front, render back faces
	ShadowFaceBoth                        // no culling, render both
)

var meshIDCounter atomic.Uint32

func nextMeshID() uint32 { return meshIDCounter.Add(1) }

// Mesh holds CPU-side vertex and index data. The mesh exclusively owns its
// CPU arrays; GPU upload is managed by the renderer backend through GPUData.
type Mesh struct {
	ID       uint32
	Name     string
	Vertices []core.Vertex
	Indices  []uint32

	Primitive  PrimitiveType
	ShadowCast ShadowCastMode
	ShadowFace ShadowFaceMode
	LayerMask  uint32

	// Cached local-space AABB; valid when HasAABB is set.
	AABB    AABB
	HasAABB bool

	// GPUData is set by the renderer backend. Do not access directly.
	GPUData interface{}
}

// NewMesh builds a mesh from vertex and index data and computes its
// local-space AABB. Indices may be nil for non-indexed drawing.
func NewMesh(name string, vertices []core.Vertex, indices []uint32) *Mesh {
	m := &Mesh{
		ID:        nextMeshID(),
		Name:      name,
		Vertices:  vertices,
		Indices:   indices,
		LayerMask: 0xFFFFFFFF,
	}
	m.UpdateAABB()
	return m
}

// VertexCount returns the number of vertices actually drawn: the index count
// for indexed meshes, the vertex count otherwise.
func (m *Mesh) VertexCount() int {
	if len(m.Indices) > 0 {
		return len(m.Indices)
	}
	return len(m.Vertices)
}

// UpdateAABB recomputes the local-space AABB. When indices are present only
// the referenced vertices are considered.
func (m *Mesh) UpdateAABB() {
	if len(m.Vertices) == 0 {
		m.AABB = AABB{}
		m.HasAABB = false
		return
	}
	if len(m.Indices) > 0 {
		first := m.Vertices[m.Indices[0]].Position
		box := AABB{Min: first, Max: first}
		for _, idx := range m.Indices[1:] {
			p := m.Vertices[idx].Position
			box.Min = box.Min.Min(p)
			box.Max = box.Max.Max(p)
		}
		m.AABB = box
	} else {
		first := m.Vertices[0].Position
		box := AABB{Min: first, Max: first}
		for i := 1; i < len(m.Vertices); i++ {
			p := m.Vertices[i].Position
			box.Min = box.Min.Min(p)
			box.Max = box.Max.Max(p)
		}
		m.AABB = box
	}
	m.HasAABB = true
}

// Destroy drops the CPU arrays. GPU resources are freed by the renderer
// backend when it sees GPUData on a destroyed mesh.
func (m *Mesh) Destroy() {
	m.Vertices = nil
	m.Indices = nil
	m.HasAABB = false
}

package scene

import (
	"sync/atomic"

	"nexium/core"
	"nexium/math"
)

var dynMeshIDCounter atomic.Uint32

// DynamicMesh is an immediate-mode mesh rebuilt between Begin and End calls.
// Vertex attributes other than position are latched: SetTexCoord, SetNormal,
// SetTangent and SetColor set the current attribute state applied to every
// subsequent AddVertex.
type DynamicMesh struct {
	ID        uint32
	Vertices  []core.Vertex
	Primitive PrimitiveType
	LayerMask uint32

	current  core.Vertex
	building bool

	// Dirty marks CPU content newer than the GPU copy. The backend clears it
	// after upload, growing its buffer only when capacity is exceeded.
	Dirty bool

	// GPUData is set by the renderer backend. Do not access directly.
	GPUData interface{}
}

// NewDynamicMesh returns an empty dynamic mesh.
func NewDynamicMesh() *DynamicMesh {
	return &DynamicMesh{
		ID:        dynMeshIDCounter.Add(1),
		LayerMask: 0xFFFFFFFF,
		current:   core.DefaultVertex(),
	}
}

// Begin discards previous content and starts a new primitive stream. The
// latched attribute state carries over from the previous build.
func (d *DynamicMesh) Begin(prim PrimitiveType) {
	d.Vertices = d.Vertices[:0]
	d.Primitive = prim
	d.building = true
}

// SetTexCoord latches the texture coordinate applied to subsequent vertices.
func (d *DynamicMesh) SetTexCoord(uv math.Vec2) { d.current.TexCoord = uv }

// SetNormal latches the normal applied to subsequent vertices.
func (d *DynamicMesh) SetNormal(n math.Vec3) { d.current.Normal = n }

// SetTangent latches the tangent applied to subsequent vertices. Handedness
// goes in W.
func (d *DynamicMesh) SetTangent(t math.Vec4) { d.current.Tangent = t }

// SetColor latches the color applied to subsequent vertices.
func (d *DynamicMesh) SetColor(c core.Color) { d.current.Color = c }

// AddVertex appends a vertex at the given position with the current latched
// attribute state. Calling outside Begin/End is a no-op.
func (d *DynamicMesh) AddVertex(position math.Vec3) {
	if !d.building {
		core.Logger().Warn("DynamicMesh.AddVertex outside Begin/End")
		return
	}
	v := d.current
	v.Position = position
	d.Vertices = append(d.Vertices, v)
}

// End finishes the build and marks the mesh for GPU upload. Returns the
// number of vertices collected. Streams shorter than the primitive's minimum
// vertex count produce no draw but are not an error.
func (d *DynamicMesh) End() int {
	if !d.building {
		core.Logger().Warn("DynamicMesh.End without Begin")
		return 0
	}
	d.building = false
	d.Dirty = true
	return len(d.Vertices)
}

// Drawable reports whether the mesh holds enough vertices for its primitive.
func (d *DynamicMesh) Drawable() bool {
	return !d.building && len(d.Vertices) >= d.Primitive.MinVertexCount()
}

// ComputeAABB returns the bounds of the current content.
func (d *DynamicMesh) ComputeAABB() AABB {
	if len(d.Vertices) == 0 {
		return AABB{}
	}
	first := d.Vertices[0].Position
	box := AABB{Min: first, Max: first}
	for i := 1; i < len(d.Vertices); i++ {
		p := d.Vertices[i].Position
		box.Min = box.Min.Min(p)
		box.Max = box.Max.Max(p)
	}
	return box
}

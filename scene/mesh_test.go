package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexium/core"
	"nexium/math"
)

func TestUpdateAABBContainsAllVertices(t *testing.T) {
	m := GenMeshSphere(2, 8, 12)
	require.True(t, m.HasAABB)

	assert.LessOrEqual(t, m.AABB.Min.X, m.AABB.Max.X)
	assert.LessOrEqual(t, m.AABB.Min.Y, m.AABB.Max.Y)
	assert.LessOrEqual(t, m.AABB.Min.Z, m.AABB.Max.Z)

	for _, idx := range m.Indices {
		assert.True(t, m.AABB.Contains(m.Vertices[idx].Position))
	}
}

func TestUpdateAABBIndexedSubset(t *testing.T) {
	// The far vertex is not referenced by any index and must not widen
	// the box.
	verts := []core.Vertex{
		{Position: math.Vec3{X: -1, Y: -1, Z: -1}},
		{Position: math.Vec3{X: 1, Y: 1, Z: 1}},
		{Position: math.Vec3{X: 100, Y: 100, Z: 100}},
	}
	m := NewMesh("subset", verts, []uint32{0, 1, 0})
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 1}, m.AABB.Max)
}

func TestMeshIDsUnique(t *testing.T) {
	a := GenMeshQuad(1, 1)
	b := GenMeshQuad(1, 1)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestPrimitiveMinVertexCount(t *testing.T) {
	assert.Equal(t, 1, PrimPoints.MinVertexCount())
	assert.Equal(t, 2, PrimLines.MinVertexCount())
	assert.Equal(t, 2, PrimLineLoop.MinVertexCount())
	assert.Equal(t, 3, PrimTriangles.MinVertexCount())
	assert.Equal(t, 3, PrimTriangleFan.MinVertexCount())
}

func TestGenMeshCube(t *testing.T) {
	m := GenMeshCube(2)
	assert.Len(t, m.Vertices, 24)
	assert.Len(t, m.Indices, 36)
	assert.Equal(t, math.Vec3{X: -1, Y: -1, Z: -1}, m.AABB.Min)
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 1}, m.AABB.Max)
}

func TestComputeTangentsOrthogonal(t *testing.T) {
	m := GenMeshCube(1)
	for i, v := range m.Vertices {
		tan := math.Vec3{X: v.Tangent.X, Y: v.Tangent.Y, Z: v.Tangent.Z}
		assert.InDelta(t, 1.0, tan.Length(), 1e-4, "vertex %d tangent not unit", i)
		assert.InDelta(t, 0.0, tan.Dot(v.Normal), 1e-4, "vertex %d tangent not orthogonal", i)
		assert.Contains(t, []float32{1, -1}, v.Tangent.W)
	}
}

func TestDynamicMeshBuild(t *testing.T) {
	d := NewDynamicMesh()
	d.Begin(PrimTriangles)
	d.SetColor(core.ColorRed)
	d.SetTexCoord(math.Vec2{X: 0.5, Y: 0.5})
	d.AddVertex(math.Vec3{X: 0, Y: 0, Z: 0})
	d.AddVertex(math.Vec3{X: 1, Y: 0, Z: 0})
	d.AddVertex(math.Vec3{X: 0, Y: 1, Z: 0})
	n := d.End()

	assert.Equal(t, 3, n)
	assert.Equal(t, PrimTriangles, d.Primitive)
	assert.True(t, d.Dirty)
	assert.True(t, d.Drawable())

	// Latched attributes applied to every vertex.
	for _, v := range d.Vertices {
		assert.Equal(t, core.ColorRed, v.Color)
		assert.Equal(t, math.Vec2{X: 0.5, Y: 0.5}, v.TexCoord)
	}
}

func TestDynamicMeshBeginDiscards(t *testing.T) {
	d := NewDynamicMesh()
	d.Begin(PrimTriangles)
	d.AddVertex(math.Vec3{})
	d.AddVertex(math.Vec3{})
	d.AddVertex(math.Vec3{})
	d.End()

	d.Begin(PrimLines)
	d.AddVertex(math.Vec3{X: 1})
	d.End()

	assert.Equal(t, PrimLines, d.Primitive)
	assert.Len(t, d.Vertices, 1)
	assert.False(t, d.Drawable(), "one vertex is below the line minimum")
}

func TestDynamicMeshAddOutsideBegin(t *testing.T) {
	d := NewDynamicMesh()
	d.AddVertex(math.Vec3{X: 1})
	assert.Empty(t, d.Vertices)
	assert.Equal(t, 0, d.End())
}

func TestDynamicMeshLatchPersistsAcrossBegin(t *testing.T) {
	d := NewDynamicMesh()
	d.Begin(PrimPoints)
	d.SetColor(core.ColorBlue)
	d.AddVertex(math.Vec3{})
	d.End()

	d.Begin(PrimPoints)
	d.AddVertex(math.Vec3{})
	d.End()
	assert.Equal(t, core.ColorBlue, d.Vertices[0].Color)
}

func TestFrustumCullSphereMesh(t *testing.T) {
	cam := NewCamera()
	cam.Position = math.Vec3{Z: 5}
	f := cam.Frustum(16.0 / 9.0)

	inside := AABB{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 1}}
	assert.True(t, inside.IntersectsFrustum(&f))

	behind := AABB{Min: math.Vec3{X: -1, Y: -1, Z: 20}, Max: math.Vec3{X: 1, Y: 1, Z: 22}}
	assert.False(t, behind.IntersectsFrustum(&f))

	farAway := AABB{Min: math.Vec3{X: 5000, Y: 0, Z: 0}, Max: math.Vec3{X: 5001, Y: 1, Z: 1}}
	assert.False(t, farAway.IntersectsFrustum(&f))
}

func TestAABBTransform(t *testing.T) {
	box := AABB{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 1}}
	moved := box.Transform(math.Mat4Translation(math.Vec3{X: 10}))
	assert.Equal(t, math.Vec3{X: 9, Y: -1, Z: -1}, moved.Min)
	assert.Equal(t, math.Vec3{X: 11, Y: 1, Z: 1}, moved.Max)
}

func TestAABBIntersectsSphere(t *testing.T) {
	box := AABB{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3{X: 1, Y: 1, Z: 1}}
	assert.True(t, box.IntersectsSphere(math.Vec3{X: 2, Y: 0, Z: 0}, 1.5))
	assert.False(t, box.IntersectsSphere(math.Vec3{X: 5, Y: 0, Z: 0}, 1))
}

package scene

import (
	"github.com/chewxy/math32"

	"nexium/core"
	"nexium/math"
)

// Primitive generation helpers. All primitives are centered at the origin,
// use white vertex color, and carry computed tangents.

// GenMeshQuad builds a quad in the XY plane facing +Z.
func GenMeshQuad(width, height float32) *Mesh {
	hw, hh := width/2, height/2
	vertices := make([]core.Vertex, 4)
	positions := [4]math.Vec3{
		{X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}, {X: -hw, Y: hh},
	}
	uvs := [4]math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	for i := range vertices {
		v := core.DefaultVertex()
		v.Position = positions[i]
		v.TexCoord = uvs[i]
		v.Normal = math.Vec3Front
		vertices[i] = v
	}
	m := NewMesh("Quad", vertices, []uint32{0, 1, 2, 2, 3, 0})
	ComputeTangents(m)
	return m
}

// GenMeshPlane builds a subdivided plane in the XZ plane facing +Y.
func GenMeshPlane(width, depth float32, segX, segZ int) *Mesh {
	if segX < 1 {
		segX = 1
	}
	if segZ < 1 {
		segZ = 1
	}
	vertices := make([]core.Vertex, 0, (segX+1)*(segZ+1))
	for z := 0; z <= segZ; z++ {
		for x := 0; x <= segX; x++ {
			fx := float32(x) / float32(segX)
			fz := float32(z) / float32(segZ)
			v := core.DefaultVertex()
			v.Position = math.Vec3{X: (fx - 0.5) * width, Z: (fz - 0.5) * depth}
			v.TexCoord = math.Vec2{X: fx, Y: fz}
			v.Normal = math.Vec3Up
			vertices = append(vertices, v)
		}
	}
	indices := make([]uint32, 0, segX*segZ*6)
	stride := uint32(segX + 1)
	for z := 0; z < segZ; z++ {
		for x := 0; x < segX; x++ {
			i := uint32(z)*stride + uint32(x)
			indices = append(indices, i, i+1, i+stride+1, i+stride+1, i+stride, i)
		}
	}
	m := NewMesh("Plane", vertices, indices)
	ComputeTangents(m)
	return m
}

// GenMeshCube builds an axis-aligned cube with per-face normals.
func GenMeshCube(size float32) *Mesh {
	s := size / 2
	type face struct {
		normal math.Vec3
		corner [4]math.Vec3
	}
	faces := []face{
		{math.Vec3Front, [4]math.Vec3{{X: -s, Y: -s, Z: s}, {X: s, Y: -s, Z: s}, {X: s, Y: s, Z: s}, {X: -s, Y: s, Z: s}}},
		{math.Vec3Back, [4]math.Vec3{{X: s, Y: -s, Z: -s}, {X: -s, Y: -s, Z: -s}, {X: -s, Y: s, Z: -s}, {X: s, Y: s, Z: -s}}},
		{math.Vec3Up, [4]math.Vec3{{X: -s, Y: s, Z: s}, {X: s, Y: s, Z: s}, {X: s, Y: s, Z: -s}, {X: -s, Y: s, Z: -s}}},
		{math.Vec3Down, [4]math.Vec3{{X: -s, Y: -s, Z: -s}, {X: s, Y: -s, Z: -s}, {X: s, Y: -s, Z: s}, {X: -s, Y: -s, Z: s}}},
		{math.Vec3Right, [4]math.Vec3{{X: s, Y: -s, Z: s}, {X: s, Y: -s, Z: -s}, {X: s, Y: s, Z: -s}, {X: s, Y: s, Z: s}}},
		{math.Vec3Left, [4]math.Vec3{{X: -s, Y: -s, Z: -s}, {X: -s, Y: -s, Z: s}, {X: -s, Y: s, Z: s}, {X: -s, Y: s, Z: -s}}},
	}
	uvs := [4]math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

	vertices := make([]core.Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for fi, f := range faces {
		base := uint32(fi * 4)
		for ci := 0; ci < 4; ci++ {
			v := core.DefaultVertex()
			v.Position = f.corner[ci]
			v.TexCoord = uvs[ci]
			v.Normal = f.normal
			vertices = append(vertices, v)
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	m := NewMesh("Cube", vertices, indices)
	ComputeTangents(m)
	return m
}

// GenMeshSphere builds a UV sphere.
func GenMeshSphere(radius float32, rings, sectors int) *Mesh {
	if rings < 2 {
		rings = 2
	}
	if sectors < 3 {
		sectors = 3
	}
	vertices := make([]core.Vertex, 0, (rings+1)*(sectors+1))
	for r := 0; r <= rings; r++ {
		phi := math32.Pi * float32(r) / float32(rings)
		for s := 0; s <= sectors; s++ {
			theta := 2 * math32.Pi * float32(s) / float32(sectors)
			n := math.Vec3{
				X: math32.Sin(phi) * math32.Cos(theta),
				Y: math32.Cos(phi),
				Z: math32.Sin(phi) * math32.Sin(theta),
			}
			v := core.DefaultVertex()
			v.Position = n.Mul(radius)
			v.Normal = n
			v.TexCoord = math.Vec2{X: float32(s) / float32(sectors), Y: float32(r) / float32(rings)}
			vertices = append(vertices, v)
		}
	}
	indices := make([]uint32, 0, rings*sectors*6)
	stride := uint32(sectors + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < sectors; s++ {
			i := uint32(r)*stride + uint32(s)
			indices = append(indices, i, i+stride, i+stride+1, i+stride+1, i+1, i)
		}
	}
	m := NewMesh("Sphere", vertices, indices)
	ComputeTangents(m)
	return m
}

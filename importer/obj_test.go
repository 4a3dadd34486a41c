package importer

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexium/scene"
)

const cubeFaceOBJ = `
# one quad
v -1 -1 0
v  1 -1 0
v  1  1 0
v -1  1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestLoadOBJQuadTriangulation(t *testing.T) {
	model, err := LoadOBJFromMemory("quad.obj", []byte(cubeFaceOBJ), nil)
	require.NoError(t, err)
	require.Len(t, model.Meshes, 1)

	m := model.Meshes[0]
	assert.Len(t, m.Vertices, 4)
	// Quad fans into two triangles.
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, m.Indices)

	v := m.Vertices[2]
	assert.Equal(t, float32(1), v.Position.X)
	assert.Equal(t, float32(1), v.TexCoord.X)
	assert.Equal(t, float32(1), v.Normal.Z)
}

func TestLoadOBJNegativeIndices(t *testing.T) {
	src := `
v 0 0 0
v 1 0 0
v 0 1 0
f -3 -2 -1
`
	model, err := LoadOBJFromMemory("neg.obj", []byte(src), nil)
	require.NoError(t, err)

	m := model.Meshes[0]
	require.Len(t, m.Vertices, 3)
	assert.Equal(t, float32(1), m.Vertices[1].Position.X)
	assert.Equal(t, float32(1), m.Vertices[2].Position.Y)
}

func TestLoadOBJGroupsSplitMeshes(t *testing.T) {
	src := `
v 0 0 0
v 1 0 0
v 0 1 0
o first
f 1 2 3
o second
f 1 2 3
`
	model, err := LoadOBJFromMemory("two.obj", []byte(src), nil)
	require.NoError(t, err)
	require.Len(t, model.Meshes, 2)
	assert.Equal(t, "second", model.Meshes[1].Name)
}

func TestLoadOBJMaterials(t *testing.T) {
	fsys := fstest.MapFS{
		"models/box.mtl": &fstest.MapFile{Data: []byte(`
newmtl red
Kd 1 0 0
Ns 500
d 0.5
`)},
	}
	src := `
mtllib box.mtl
v 0 0 0
v 1 0 0
v 0 1 0
usemtl red
f 1 2 3
`
	model, err := LoadOBJFromMemory("models/box.obj", []byte(src), fsys)
	require.NoError(t, err)
	require.Len(t, model.Materials, 1)

	mat := model.MaterialFor(0)
	assert.Equal(t, "red", mat.Name)
	assert.Equal(t, float32(1), mat.Albedo.Color.R)
	assert.Equal(t, float32(0), mat.Albedo.Color.G)
	assert.InDelta(t, 0.5, mat.ORM.Roughness, 1e-5)
	assert.InDelta(t, 0.5, mat.Albedo.Color.A, 1e-5)
	assert.Equal(t, scene.BlendAlpha, mat.Blend)
}

func TestLoadOBJMissingMTLIsTolerated(t *testing.T) {
	src := `
mtllib ghost.mtl
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`
	model, err := LoadOBJFromMemory("a.obj", []byte(src), fstest.MapFS{})
	require.NoError(t, err)
	assert.Len(t, model.Meshes, 1)
	assert.Empty(t, model.Materials)
}

func TestLoadOBJEmpty(t *testing.T) {
	_, err := LoadOBJFromMemory("empty.obj", []byte("# nothing"), nil)
	assert.Error(t, err)
}

func TestLoadOBJDedupesCorners(t *testing.T) {
	// Two triangles sharing corners reuse vertices via the v/vt/vn key.
	src := `
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
f 1 2 3
f 2 4 3
`
	model, err := LoadOBJFromMemory("shared.obj", []byte(src), nil)
	require.NoError(t, err)
	assert.Len(t, model.Meshes[0].Vertices, 4)
	assert.Len(t, model.Meshes[0].Indices, 6)
}

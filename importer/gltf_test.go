package importer

import (
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexium/math"
	"nexium/scene"
)

func TestNormalizeHint(t *testing.T) {
	assert.Equal(t, "glb", normalizeHint("GLB", nil))
	assert.Equal(t, "gltf", normalizeHint(".gltf", nil))
	assert.Equal(t, "glb", normalizeHint("", []byte("glTF\x02\x00\x00\x00")))
	assert.Equal(t, "gltf", normalizeHint("", []byte("  {\"asset\":{}}")))
	assert.Equal(t, "obj", normalizeHint("", []byte("v 0 0 0\n")))
}

func TestConvertWrap(t *testing.T) {
	assert.Equal(t, scene.WrapClamp, convertWrap(gltf.WrapClampToEdge))
	assert.Equal(t, scene.WrapMirror, convertWrap(gltf.WrapMirroredRepeat))
	assert.Equal(t, scene.WrapRepeat, convertWrap(gltf.WrapRepeat))
}

// skeleton with joints listed child-first to exercise the reorder.
func jointTestDoc() *gltf.Document {
	return &gltf.Document{
		Nodes: []*gltf.Node{
			{Name: "root", Children: []int{1}},
			{Name: "arm", Children: []int{2}, Translation: [3]float64{0, 2, 0}},
			{Name: "hand"},
		},
		Skins: []*gltf.Skin{
			{Joints: []int{2, 1, 0}}, // hand, arm, root
		},
	}
}

func TestBuildSkeletonReordersParentsFirst(t *testing.T) {
	skel, joints, err := buildSkeleton(jointTestDoc())
	require.NoError(t, err)
	require.NotNil(t, skel)
	require.Len(t, skel.Bones, 3)

	assert.Equal(t, "root", skel.Bones[0].Name)
	assert.Equal(t, "arm", skel.Bones[1].Name)
	assert.Equal(t, "hand", skel.Bones[2].Name)
	assert.Equal(t, -1, skel.Bones[0].Parent)
	assert.Equal(t, 0, skel.Bones[1].Parent)
	assert.Equal(t, 1, skel.Bones[2].Parent)

	// JOINTS_0 slot 0 referenced "hand", which is now bone 2.
	assert.Equal(t, int32(2), joints.remap(0))
	assert.Equal(t, int32(1), joints.remap(1))
	assert.Equal(t, int32(0), joints.remap(2))

	assert.Equal(t, float32(2), skel.Bones[1].LocalBind.Position.Y)
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: 1}, skel.Bones[1].LocalBind.Scale)
}

func TestBuildSkeletonNoSkins(t *testing.T) {
	skel, joints, err := buildSkeleton(&gltf.Document{})
	require.NoError(t, err)
	assert.Nil(t, skel)
	assert.Nil(t, joints)
}

func TestJointMapOutOfRange(t *testing.T) {
	jm := &jointMap{slotToBone: []int32{3}}
	assert.Equal(t, int32(3), jm.remap(0))
	assert.Equal(t, int32(0), jm.remap(9))
}

func TestChannelSampleLinear(t *testing.T) {
	ch := boneChannel{
		kind:  channelTranslation,
		times: []float32{0, 1, 2},
		vec: []math.Vec3{
			{X: 0}, {X: 10}, {X: 20},
		},
		maxT: 2,
	}
	assert.InDelta(t, 0, ch.sampleVec(-1).X, 1e-5)
	assert.InDelta(t, 5, ch.sampleVec(0.5).X, 1e-5)
	assert.InDelta(t, 10, ch.sampleVec(1).X, 1e-5)
	assert.InDelta(t, 15, ch.sampleVec(1.5).X, 1e-5)
	assert.InDelta(t, 20, ch.sampleVec(5).X, 1e-5)
}

func TestChannelSampleStep(t *testing.T) {
	ch := boneChannel{
		kind:  channelTranslation,
		times: []float32{0, 1},
		vec:   []math.Vec3{{X: 0}, {X: 10}},
		step:  true,
		maxT:  1,
	}
	assert.InDelta(t, 0, ch.sampleVec(0.99).X, 1e-5)
	assert.InDelta(t, 10, ch.sampleVec(1).X, 1e-5)
}

func TestChannelSampleQuat(t *testing.T) {
	a := math.QuaternionIdentity()
	b := math.QuaternionFromAxisAngle(math.Vec3{Y: 1}, math.Radians(90))
	ch := boneChannel{
		kind:  channelRotation,
		times: []float32{0, 1},
		quat:  []math.Quaternion{a, b},
		maxT:  1,
	}
	mid := ch.sampleQuat(0.5)
	want := math.QuaternionFromAxisAngle(math.Vec3{Y: 1}, math.Radians(45))
	assert.InDelta(t, want.X, mid.X, 1e-4)
	assert.InDelta(t, want.Y, mid.Y, 1e-4)
	assert.InDelta(t, want.Z, mid.Z, 1e-4)
	assert.InDelta(t, want.W, mid.W, 1e-4)
}

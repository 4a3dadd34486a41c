package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexium/math"
	"nexium/scene"
)

func TestSortShadowLightsPriority(t *testing.T) {
	far := scene.NewLight(scene.LightOmni)
	far.Position = math.Vec3{X: 20}
	near := scene.NewLight(scene.LightSpot)
	near.Position = math.Vec3{X: 2}
	sun := scene.NewLight(scene.LightDirectional)

	lights := []*scene.Light{far, near, sun}
	sortShadowLights(lights, math.Vec3{})

	require.Len(t, lights, 3)
	assert.Same(t, sun, lights[0])
	assert.Same(t, near, lights[1])
	assert.Same(t, far, lights[2])
}

func TestSortShadowLightsStableForDirectional(t *testing.T) {
	a := scene.NewLight(scene.LightDirectional)
	b := scene.NewLight(scene.LightDirectional)
	lights := []*scene.Light{a, b}
	sortShadowLights(lights, math.Vec3{})
	assert.Same(t, a, lights[0])
	assert.Same(t, b, lights[1])
}

func TestShadowUp(t *testing.T) {
	assert.Equal(t, math.Vec3{Z: 1}, shadowUp(math.Vec3{Y: -1}))
	assert.Equal(t, math.Vec3{Y: 1}, shadowUp(math.Vec3{Z: -1}))
}

// project runs a world point through a view-projection and returns NDC.
func project(vp math.Mat4, p math.Vec3) (math.Vec3, float32) {
	clip := vp.MulVec(p.ToVec4(1))
	return clip.ToVec3DivW(), clip.W
}

func TestSpotShadowVPCenterAxis(t *testing.T) {
	l := scene.NewLight(scene.LightSpot)
	l.Position = math.Vec3{X: 1, Y: 2, Z: 3}
	l.Direction = math.Vec3{Z: -1}
	l.Range = 10

	vp := spotShadowVP(l)

	// A point on the cone axis projects to the map center.
	ndc, w := project(vp, l.Position.Add(math.Vec3{Z: -5}))
	assert.Greater(t, w, float32(0))
	assert.InDelta(t, 0, ndc.X, 1e-4)
	assert.InDelta(t, 0, ndc.Y, 1e-4)
	assert.True(t, ndc.Z > -1 && ndc.Z < 1)

	// A point behind the light is outside the frustum.
	_, w = project(vp, l.Position.Add(math.Vec3{Z: 5}))
	assert.Less(t, w, float32(0))
}

func TestOmniFaceVPCoversAllDirections(t *testing.T) {
	l := scene.NewLight(scene.LightOmni)
	l.Position = math.Vec3{X: -4, Y: 1, Z: 7}
	l.Range = 12

	for face := 0; face < 6; face++ {
		vp := omniFaceVP(l, face)
		ndc, w := project(vp, l.Position.Add(cubeFaces[face].dir.Mul(6)))
		assert.Greater(t, w, float32(0), "face %d", face)
		assert.InDelta(t, 0, ndc.X, 1e-4, "face %d", face)
		assert.InDelta(t, 0, ndc.Y, 1e-4, "face %d", face)
	}
}

func TestCubeFaceOrientationsOrthogonal(t *testing.T) {
	for i, f := range cubeFaces {
		assert.InDelta(t, 0, f.dir.Dot(f.up), 1e-6, "face %d", i)
		assert.InDelta(t, 1, f.dir.Length(), 1e-6, "face %d", i)
		assert.InDelta(t, 1, f.up.Length(), 1e-6, "face %d", i)
	}
}

func TestDirectionalShadowVPContainsCameraFrustum(t *testing.T) {
	cam := scene.NewCamera()
	cam.Position = math.Vec3{X: 3, Y: 2, Z: 8}

	l := scene.NewLight(scene.LightDirectional)
	l.Direction = math.Vec3{X: -0.4, Y: -1, Z: -0.3}.Normalize()
	l.Range = 50

	const aspect = 16.0 / 9.0
	vp := directionalShadowVP(l, cam, aspect, 2048)

	// Every corner of the camera frustum, clipped to the light range, must
	// land inside the ortho volume. The texel snap can push the bounds by
	// up to one texel, hence the tolerance.
	clipped := math.Mat4Perspective(cam.FOV, aspect, cam.Near, l.Range)
	invVP := cam.ViewMatrix().Mul(clipped).Inverse()
	for i, c := range scene.FrustumCorners(invVP) {
		ndc, w := project(vp, c)
		require.Greater(t, w, float32(0), "corner %d", i)
		assert.LessOrEqual(t, math.Abs(ndc.X), float32(1.01), "corner %d", i)
		assert.LessOrEqual(t, math.Abs(ndc.Y), float32(1.01), "corner %d", i)
		assert.LessOrEqual(t, math.Abs(ndc.Z), float32(1.01), "corner %d", i)
	}
}

func TestDirectionalShadowVPClampsToCameraFar(t *testing.T) {
	cam := scene.NewCamera()
	cam.Far = 30

	l := scene.NewLight(scene.LightDirectional)
	l.Direction = math.Vec3{Y: -1}
	l.Range = 500

	// Must not panic or blow up the ortho volume when the range exceeds the
	// camera far plane.
	vp := directionalShadowVP(l, cam, 1, 1024)
	ndc, w := project(vp, cam.Position.Add(math.Vec3{Z: -15}))
	assert.Greater(t, w, float32(0))
	assert.LessOrEqual(t, math.Abs(ndc.X), float32(1.01))
	assert.LessOrEqual(t, math.Abs(ndc.Y), float32(1.01))
}

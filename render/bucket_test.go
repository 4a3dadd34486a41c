package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexium/scene"
)

func TestSortKeyOpaqueBeforeTranslucent(t *testing.T) {
	// The nearest translucent call still sorts after the farthest opaque one.
	opaque := sortKey(scene.BlendOpaque, 99, 0.1, 100, 5, 5)
	alpha := sortKey(scene.BlendAlpha, 1, 0.1, 100, 5, 5)
	add := sortKey(scene.BlendAdd, 1, 0.1, 100, 5, 5)
	assert.Less(t, opaque, alpha)
	assert.Less(t, alpha, add)
}

func TestSortKeyOpaqueFrontToBack(t *testing.T) {
	near := sortKey(scene.BlendOpaque, 2, 0.1, 100, 1, 1)
	far := sortKey(scene.BlendOpaque, 80, 0.1, 100, 1, 1)
	assert.Less(t, near, far)
}

func TestSortKeyTranslucentBackToFront(t *testing.T) {
	near := sortKey(scene.BlendAlpha, 2, 0.1, 100, 1, 1)
	far := sortKey(scene.BlendAlpha, 80, 0.1, 100, 1, 1)
	assert.Less(t, far, near)
}

func TestSortKeyGroupsByMaterialThenMesh(t *testing.T) {
	// Same depth bucket: material id dominates mesh id.
	a := sortKey(scene.BlendOpaque, 10, 0.1, 100, 1, 9)
	b := sortKey(scene.BlendOpaque, 10, 0.1, 100, 2, 1)
	assert.Less(t, a, b)

	c := sortKey(scene.BlendOpaque, 10, 0.1, 100, 1, 1)
	d := sortKey(scene.BlendOpaque, 10, 0.1, 100, 1, 2)
	assert.Less(t, c, d)
}

func TestQuantizeDepthClamps(t *testing.T) {
	assert.Equal(t, uint32(0), quantizeDepth(-5, 0.1, 100))
	assert.Equal(t, uint32((1<<depthBits)-1), quantizeDepth(500, 0.1, 100))
}

func TestBucketSortIsStable(t *testing.T) {
	var b drawBucket
	key := sortKey(scene.BlendOpaque, 10, 0.1, 100, 3, 3)
	for i := 0; i < 4; i++ {
		b.push(drawCall{key: key})
	}
	b.push(drawCall{key: sortKey(scene.BlendOpaque, 1, 0.1, 100, 3, 3)})
	b.sort()

	require.Len(t, b.calls, 5)
	// The near call moved to the front; equal keys kept submission order.
	assert.Equal(t, 4, b.calls[0].index)
	for i := 1; i < 5; i++ {
		assert.Equal(t, i-1, b.calls[i].index)
	}
}

func TestBucketReset(t *testing.T) {
	var b drawBucket
	b.push(drawCall{})
	b.push(drawCall{})
	b.reset()
	assert.Empty(t, b.calls)
}

func TestBucketTracksMaterialPrePass(t *testing.T) {
	var b drawBucket
	plain := scene.DefaultMaterial()
	b.push(drawCall{material: plain})
	assert.False(t, b.prePass)

	// A translucent material never schedules the depth pre-pass.
	glass := scene.DefaultMaterial()
	glass.Depth.PrePass = true
	glass.Blend = scene.BlendAlpha
	b.push(drawCall{material: glass})
	assert.False(t, b.prePass)

	opaque := scene.DefaultMaterial()
	opaque.Depth.PrePass = true
	b.push(drawCall{material: opaque})
	assert.True(t, b.prePass)

	b.reset()
	assert.False(t, b.prePass)
}

func TestPrepassEligible(t *testing.T) {
	plain := scene.DefaultMaterial()
	requested := scene.DefaultMaterial()
	requested.Depth.PrePass = true

	// Full prepass (SSAO on) takes every visible opaque call.
	assert.True(t, (&drawCall{material: plain}).prepassEligible(true))
	// Material-driven prepass takes only materials that asked for it.
	assert.False(t, (&drawCall{material: plain}).prepassEligible(false))
	assert.True(t, (&drawCall{material: requested}).prepassEligible(false))

	translucent := scene.DefaultMaterial()
	translucent.Depth.PrePass = true
	translucent.Blend = scene.BlendAlpha
	assert.False(t, (&drawCall{material: translucent}).prepassEligible(true))

	wire := scene.DefaultMaterial()
	wire.Depth.PrePass = true
	wire.Shading = scene.ShadingWireframe
	assert.False(t, (&drawCall{material: wire}).prepassEligible(false))

	shadowOnly := scene.NewMesh("m", nil, nil)
	shadowOnly.ShadowCast = scene.ShadowCastOnly
	c := drawCall{kind: drawStatic, mesh: shadowOnly, material: requested}
	assert.False(t, c.prepassEligible(true))
}

func TestCastsShadowLayerMask(t *testing.T) {
	mesh := scene.NewMesh("m", nil, nil)
	c := drawCall{kind: drawStatic, mesh: mesh, layerMask: 0b0010}

	assert.True(t, c.castsShadow(0xFFFFFFFF))
	assert.False(t, c.castsShadow(0b0001))
}

func TestCastsShadowMeshModes(t *testing.T) {
	mesh := scene.NewMesh("m", nil, nil)
	c := drawCall{kind: drawStatic, mesh: mesh, layerMask: 1}

	mesh.ShadowCast = scene.ShadowCastDisabled
	assert.False(t, c.castsShadow(1))
	assert.True(t, c.colorVisible())

	mesh.ShadowCast = scene.ShadowCastOnly
	assert.True(t, c.castsShadow(1))
	assert.False(t, c.colorVisible())

	mesh.ShadowCast = scene.ShadowCastEnabled
	assert.True(t, c.castsShadow(1))
	assert.True(t, c.colorVisible())
}

func TestDynamicMeshAlwaysCasts(t *testing.T) {
	c := drawCall{kind: drawDynamic, layerMask: 1}
	assert.True(t, c.castsShadow(1))
	assert.True(t, c.colorVisible())
}

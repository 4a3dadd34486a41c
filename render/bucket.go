package render

import (
	"sort"

	"nexium/math"
	"nexium/scene"
)

type drawKind uint8

const (
	drawStatic drawKind = iota
	drawDynamic
)

// drawCall is one pending entry between Begin3D and End3D. Entries are
// tagged by kind rather than dispatched through an interface so the pass
// loops stay a flat switch.
type drawCall struct {
	kind drawKind
	mesh *scene.Mesh
	dyn  *scene.DynamicMesh

	material  *scene.Material
	transform math.Mat4

	instances     *scene.InstanceBuffer
	instanceCount int

	// bones is the skin palette for this draw, nil when unskinned.
	bones []math.Mat4

	layerMask uint32
	worldAABB scene.AABB
	hasAABB   bool

	key   uint64
	index int
}

// Sort key layout, high to low: blend class (2 bits), quantized depth
// (24 bits), material id (19 bits), mesh id (19 bits). Opaque depth is
// ascending (front to back); translucent depth is inverted so one sort
// yields the full pass order.
const depthBits = 24

func quantizeDepth(depth, near, far float32) uint32 {
	t := math.Clamp((depth-near)/(far-near), 0, 1)
	return uint32(t * float32((1<<depthBits)-1))
}

func sortKey(blend scene.BlendMode, depth, near, far float32, materialID, meshID uint32) uint64 {
	q := quantizeDepth(depth, near, far)
	if blend.Translucent() {
		q = (1 << depthBits) - 1 - q
	}
	return uint64(blend)<<62 |
		uint64(q)<<38 |
		uint64(materialID&0x7FFFF)<<19 |
		uint64(meshID&0x7FFFF)
}

// drawBucket collects draw calls for one Begin3D/End3D scope.
type drawBucket struct {
	calls []drawCall

	// prePass is set when any opaque call's material requests a depth
	// pre-pass, so the pass runs even with SSAO disabled.
	prePass bool
}

func (b *drawBucket) push(c drawCall) {
	c.index = len(b.calls)
	if c.material != nil && c.material.Depth.PrePass && !c.translucent() {
		b.prePass = true
	}
	b.calls = append(b.calls, c)
}

func (b *drawBucket) reset() {
	b.calls = b.calls[:0]
	b.prePass = false
}

// sort orders the bucket by key; equal keys keep submission order.
func (b *drawBucket) sort() {
	sort.SliceStable(b.calls, func(i, j int) bool {
		return b.calls[i].key < b.calls[j].key
	})
}

// translucent reports whether the call blends against the framebuffer.
func (c *drawCall) translucent() bool {
	return c.material.Blend.Translucent()
}

// castsShadow reports whether the call participates in shadow passes for a
// light with the given shadow cull mask.
func (c *drawCall) castsShadow(shadowCullMask uint32) bool {
	if c.layerMask&shadowCullMask == 0 {
		return false
	}
	mode := scene.ShadowCastEnabled
	if c.kind == drawStatic {
		mode = c.mesh.ShadowCast
	}
	return mode != scene.ShadowCastDisabled
}

// prepassEligible reports whether the call is drawn in the depth pre-pass.
// With all set, every visible opaque call participates (SSAO needs full
// scene depth); otherwise only materials that request the pre-pass.
func (c *drawCall) prepassEligible(all bool) bool {
	if c.translucent() || !c.colorVisible() {
		return false
	}
	if c.material.Shading == scene.ShadingWireframe {
		return false
	}
	return all || c.material.Depth.PrePass
}

// colorVisible reports whether the call appears in color passes.
func (c *drawCall) colorVisible() bool {
	if c.kind == drawStatic && c.mesh.ShadowCast == scene.ShadowCastOnly {
		return false
	}
	return true
}

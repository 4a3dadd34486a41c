package scene

import "nexium/math"

// Plane represents a half-space: ax + by + cz + d = 0.
// Normal (a, b, c) points into the "inside" of the frustum.
type Plane struct {
	Normal math.Vec3
	D      float32
}

// DistanceTo returns the signed distance from a point to the plane.
// Positive means on the "inside" (same side as Normal).
func (p Plane) DistanceTo(pt math.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the six clip planes of a view frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumFromVP extracts the six frustum planes from a view-projection matrix.
// The planes are normalized so DistanceTo returns a true distance in world units.
//
// Convention: matrices are stored [col][row] and passed to GLSL with
// transpose=false. The GLSL shader multiplies as "mvp * col_vector", so the
// GLSL matrix is the transpose of the Go matrix. Gribb/Hartmann frustum
// extraction operates on the GLSL matrix rows, which correspond to Go matrix
// columns (vp[col][0..3]).
func FrustumFromVP(vp math.Mat4) Frustum {
	r0 := math.Vec4{X: vp[0][0], Y: vp[0][1], Z: vp[0][2], W: vp[0][3]}
	r1 := math.Vec4{X: vp[1][0], Y: vp[1][1], Z: vp[1][2], W: vp[1][3]}
	r2 := math.Vec4{X: vp[2][0], Y: vp[2][1], Z: vp[2][2], W: vp[2][3]}
	r3 := math.Vec4{X: vp[3][0], Y: vp[3][1], Z: vp[3][2], W: vp[3][3]}

	var f Frustum
	f.Planes[0] = normalizePlane(r3.X+r0.X, r3.Y+r0.Y, r3.Z+r0.Z, r3.W+r0.W) // Left
	f.Planes[1] = normalizePlane(r3.X-r0.X, r3.Y-r0.Y, r3.Z-r0.Z, r3.W-r0.W) // Right
	f.Planes[2] = normalizePlane(r3.X+r1.X, r3.Y+r1.Y, r3.Z+r1.Z, r3.W+r1.W) // Bottom
	f.Planes[3] = normalizePlane(r3.X-r1.X, r3.Y-r1.Y, r3.Z-r1.Z, r3.W-r1.W) // Top
	f.Planes[4] = normalizePlane(r3.X+r2.X, r3.Y+r2.Y, r3.Z+r2.Z, r3.W+r2.W) // Near
	f.Planes[5] = normalizePlane(r3.X-r2.X, r3.Y-r2.Y, r3.Z-r2.Z, r3.W-r2.W) // Far
	return f
}

func normalizePlane(a, b, c, d float32) Plane {
	l := math.Vec3{X: a, Y: b, Z: c}.Length()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: math.Vec3{X: a / l, Y: b / l, Z: c / l}, D: d / l}
}

// Corners returns the eight world-space corner points of the frustum,
// computed from an inverse view-projection matrix. Order: near quad then far
// quad, each counter-clockwise from bottom-left.
func FrustumCorners(invVP math.Mat4) [8]math.Vec3 {
	ndc := [8]math.Vec4{
		{X: -1, Y: -1, Z: -1, W: 1},
		{X: 1, Y: -1, Z: -1, W: 1},
		{X: 1, Y: 1, Z: -1, W: 1},
		{X: -1, Y: 1, Z: -1, W: 1},
		{X: -1, Y: -1, Z: 1, W: 1},
		{X: 1, Y: -1, Z: 1, W: 1},
		{X: 1, Y: 1, Z: 1, W: 1},
		{X: -1, Y: 1, Z: 1, W: 1},
	}
	var out [8]math.Vec3
	for i, c := range ndc {
		p := c.MulMat(invVP)
		if p.W != 0 {
			out[i] = math.Vec3{X: p.X / p.W, Y: p.Y / p.W, Z: p.Z / p.W}
		}
	}
	return out
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max math.Vec3
}

// IsEmpty reports whether the box has zero extent on every axis.
func (box AABB) IsEmpty() bool {
	return box.Min == box.Max
}

// Center returns the midpoint of the box.
func (box AABB) Center() math.Vec3 {
	return box.Min.Add(box.Max).Mul(0.5)
}

// Merge returns the smallest AABB containing both boxes.
func (box AABB) Merge(other AABB) AABB {
	return AABB{Min: box.Min.Min(other.Min), Max: box.Max.Max(other.Max)}
}

// Contains reports whether the point is inside the box (inclusive).
func (box AABB) Contains(p math.Vec3) bool {
	return p.X >= box.Min.X && p.X <= box.Max.X &&
		p.Y >= box.Min.Y && p.Y <= box.Max.Y &&
		p.Z >= box.Min.Z && p.Z <= box.Max.Z
}

// IntersectsFrustum returns false if the AABB is completely outside the
// frustum. Uses the "p-vertex" test: for each plane, check whether the corner
// most aligned with the plane normal is on the outside.
func (box AABB) IntersectsFrustum(f *Frustum) bool {
	for i := 0; i < 6; i++ {
		p := f.Planes[i]
		px := box.Max.X
		if p.Normal.X < 0 {
			px = box.Min.X
		}
		py := box.Max.Y
		if p.Normal.Y < 0 {
			py = box.Min.Y
		}
		pz := box.Max.Z
		if p.Normal.Z < 0 {
			pz = box.Min.Z
		}
		if p.DistanceTo(math.Vec3{X: px, Y: py, Z: pz}) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether the box and a sphere overlap.
func (box AABB) IntersectsSphere(center math.Vec3, radius float32) bool {
	clamp := func(v, lo, hi float32) float32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	closest := math.Vec3{
		X: clamp(center.X, box.Min.X, box.Max.X),
		Y: clamp(center.Y, box.Min.Y, box.Max.Y),
		Z: clamp(center.Z, box.Min.Z, box.Max.Z),
	}
	d := closest.Sub(center)
	return d.Dot(d) <= radius*radius
}

// Transform returns the AABB of this box transformed by m, computed by
// transforming all 8 corners.
func (box AABB) Transform(m math.Mat4) AABB {
	mn, mx := box.Min, box.Max
	corners := [8]math.Vec3{
		{X: mn.X, Y: mn.Y, Z: mn.Z},
		{X: mx.X, Y: mn.Y, Z: mn.Z},
		{X: mn.X, Y: mx.Y, Z: mn.Z},
		{X: mx.X, Y: mx.Y, Z: mn.Z},
		{X: mn.X, Y: mn.Y, Z: mx.Z},
		{X: mx.X, Y: mn.Y, Z: mx.Z},
		{X: mn.X, Y: mx.Y, Z: mx.Z},
		{X: mx.X, Y: mx.Y, Z: mx.Z},
	}
	first := m.MulVec3(corners[0])
	out := AABB{Min: first, Max: first}
	for i := 1; i < 8; i++ {
		wp := m.MulVec3(corners[i])
		out.Min = out.Min.Min(wp)
		out.Max = out.Max.Max(wp)
	}
	return out
}

package render

import (
	"sort"

	"github.com/chewxy/math32"

	"nexium/math"
	"nexium/scene"
)

const shadowNear = 0.05

// sortShadowLights orders lights for shadow slot assignment: directional
// lights first, then positional lights by distance to the camera. Equal
// priorities keep their relative order.
func sortShadowLights(lights []*scene.Light, camPos math.Vec3) {
	sort.SliceStable(lights, func(i, j int) bool {
		a, b := lights[i], lights[j]
		aDir := a.Type == scene.LightDirectional
		bDir := b.Type == scene.LightDirectional
		if aDir != bDir {
			return aDir
		}
		if aDir {
			return false
		}
		da := a.Position.Sub(camPos).LengthSqr()
		db := b.Position.Sub(camPos).LengthSqr()
		return da < db
	})
}

// shadowUp picks an up vector not parallel to the light direction.
func shadowUp(dir math.Vec3) math.Vec3 {
	if math32.Abs(dir.Y) > 0.99 {
		return math.Vec3{Z: 1}
	}
	return math.Vec3{Y: 1}
}

// spotShadowVP builds the view-projection for a spot light: perspective
// with fov = 2·outerCutoff, square aspect, far at the light range.
func spotShadowVP(l *scene.Light) math.Mat4 {
	dir := l.Direction.Normalize()
	view := math.Mat4LookAt(l.Position, l.Position.Add(dir), shadowUp(dir))
	proj := math.Mat4Perspective(2*l.OuterCutoff, 1, shadowNear, l.Range)
	return view.Mul(proj)
}

// Cube face orientations in GL order: +X, -X, +Y, -Y, +Z, -Z.
var cubeFaces = [6]struct {
	dir math.Vec3
	up  math.Vec3
}{
	{math.Vec3{X: 1}, math.Vec3{Y: -1}},
	{math.Vec3{X: -1}, math.Vec3{Y: -1}},
	{math.Vec3{Y: 1}, math.Vec3{Z: 1}},
	{math.Vec3{Y: -1}, math.Vec3{Z: -1}},
	{math.Vec3{Z: 1}, math.Vec3{Y: -1}},
	{math.Vec3{Z: -1}, math.Vec3{Y: -1}},
}

// omniFaceVP builds the view-projection for one cube face of an omni
// light: 90 degree perspective, square aspect.
func omniFaceVP(l *scene.Light, face int) math.Mat4 {
	f := cubeFaces[face]
	view := math.Mat4LookAt(l.Position, l.Position.Add(f.dir), f.up)
	proj := math.Mat4Perspective(math.Radians(90), 1, shadowNear, l.Range)
	return view.Mul(proj)
}

// directionalShadowVP fits an orthographic frustum around the camera
// frustum clipped to the light's range, oriented along the light
// direction. The ortho center is snapped to the shadow texel grid so the
// map does not shimmer as the camera moves.
func directionalShadowVP(l *scene.Light, cam *scene.Camera, aspect float32, mapSize int) math.Mat4 {
	far := cam.Far
	if l.Range > 0 && l.Range < far {
		far = l.Range
	}

	var proj math.Mat4
	if cam.Projection == scene.ProjectionOrthographic {
		halfH := cam.FOV
		halfW := halfH * aspect
		proj = math.Mat4Orthographic(-halfW, halfW, -halfH, halfH, cam.Near, far)
	} else {
		proj = math.Mat4Perspective(cam.FOV, aspect, cam.Near, far)
	}
	invVP := cam.ViewMatrix().Mul(proj).Inverse()
	corners := scene.FrustumCorners(invVP)

	var center math.Vec3
	for _, c := range corners {
		center = center.Add(c)
	}
	center = center.Mul(1.0 / 8.0)

	var radius float32
	for _, c := range corners {
		if d := c.Sub(center).Length(); d > radius {
			radius = d
		}
	}
	if radius < 1e-3 {
		radius = 1e-3
	}

	dir := l.Direction.Normalize()
	view := math.Mat4LookAt(math.Vec3{}, dir, shadowUp(dir))

	// Snap the frustum center to the texel grid in light space.
	texel := (2 * radius) / float32(mapSize)
	c := view.MulVec3(center)
	c.X = math32.Floor(c.X/texel) * texel
	c.Y = math32.Floor(c.Y/texel) * texel

	// Pull the near plane back by one radius to keep casters behind the
	// camera frustum in the map.
	dist := -c.Z
	ortho := math.Mat4Orthographic(
		c.X-radius, c.X+radius,
		c.Y-radius, c.Y+radius,
		dist-2*radius, dist+radius)
	return view.Mul(ortho)
}

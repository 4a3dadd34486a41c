package scene

import "nexium/math"

// ProjectionType selects perspective or orthographic projection.
type ProjectionType int

const (
	ProjectionPerspective ProjectionType = iota
	ProjectionOrthographic
)

// Camera describes a viewpoint. Rotation maps camera-local axes to world
// space, so GetForward is Rotation applied to -Z.
type Camera struct {
	Position math.Vec3
	Rotation math.Quaternion

	Near float32
	Far  float32

	// FOV is the vertical field of view in radians for perspective, the
	// vertical half-extent in world units for orthographic.
	FOV float32

	Projection ProjectionType
	CullMask   uint32
}

// NewCamera returns a perspective camera at the origin looking down -Z.
func NewCamera() *Camera {
	return &Camera{
		Rotation: math.QuaternionIdentity(),
		Near:     0.1,
		Far:      1000,
		FOV:      math.Radians(60),
		CullMask: 0xFFFFFFFF,
	}
}

// ViewMatrix returns the world-to-camera transform.
func (c *Camera) ViewMatrix() math.Mat4 {
	rot := c.Rotation.Conjugate().ToMat4()
	return math.Mat4Translation(c.Position.Negate()).Mul(rot)
}

// ProjectionMatrix returns the camera-to-clip transform for the given
// aspect ratio.
func (c *Camera) ProjectionMatrix(aspect float32) math.Mat4 {
	if c.Projection == ProjectionOrthographic {
		halfH := c.FOV
		halfW := halfH * aspect
		return math.Mat4Orthographic(-halfW, halfW, -halfH, halfH, c.Near, c.Far)
	}
	return math.Mat4Perspective(c.FOV, aspect, c.Near, c.Far)
}

// ViewProjection composes view then projection.
func (c *Camera) ViewProjection(aspect float32) math.Mat4 {
	return c.ViewMatrix().Mul(c.ProjectionMatrix(aspect))
}

// GetForward returns the camera's look direction in world space.
func (c *Camera) GetForward() math.Vec3 {
	return c.Rotation.RotateVector(math.Vec3{Z: -1})
}

// GetRight returns the camera's right axis in world space.
func (c *Camera) GetRight() math.Vec3 {
	return c.Rotation.RotateVector(math.Vec3Right)
}

// GetUp returns the camera's up axis in world space.
func (c *Camera) GetUp() math.Vec3 {
	return c.Rotation.RotateVector(math.Vec3Up)
}

// LookAt orients the camera toward target.
func (c *Camera) LookAt(target, up math.Vec3) {
	forward := target.Sub(c.Position).Normalize()
	c.Rotation = math.QuaternionLookRotation(forward, up)
}

// Frustum extracts the camera's view frustum for the given aspect ratio.
func (c *Camera) Frustum(aspect float32) Frustum {
	return FrustumFromVP(c.ViewProjection(aspect))
}

package core

import (
	"nexium/math"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite  = Color{1, 1, 1, 1}
	ColorBlack  = Color{0, 0, 0, 1}
	ColorRed    = Color{1, 0, 0, 1}
	ColorGreen  = Color{0, 1, 0, 1}
	ColorBlue   = Color{0, 0, 1, 1}
	ColorYellow = Color{1, 1, 0, 1}
)

// Mul returns the componentwise product of two colors.
func (c Color) Mul(other Color) Color {
	return Color{R: c.R * other.R, G: c.G * other.G, B: c.B * other.B, A: c.A * other.A}
}

// Scale multiplies the RGB channels by s, leaving alpha untouched.
func (c Color) Scale(s float32) Color {
	return Color{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A}
}

// Vertex is the interleaved 3D vertex layout uploaded to the GPU.
// Tangent.W carries the bitangent handedness (+1 or -1). Bone weights
// must sum to 1; unskinned vertices use {1,0,0,0} with bone ids 0.
type Vertex struct {
	Position    math.Vec3
	TexCoord    math.Vec2
	Normal      math.Vec3
	Tangent     math.Vec4
	Color       Color
	BoneIDs     [4]int32
	BoneWeights math.Vec4
}

// DefaultVertex returns a vertex with white color, up normal, and the
// unskinned bone weight pattern.
func DefaultVertex() Vertex {
	return Vertex{
		Normal:      math.Vec3Up,
		Tangent:     math.Vec4{X: 1, W: 1},
		Color:       ColorWhite,
		BoneWeights: math.Vec4{X: 1},
	}
}

type Transform struct {
	Position math.Vec3
	Rotation math.Quaternion
	Scale    math.Vec3
}

func NewTransform() Transform {
	return Transform{
		Position: math.Vec3Zero,
		Rotation: math.QuaternionIdentity(),
		Scale:    math.Vec3One,
	}
}

func (t Transform) GetMatrix() math.Mat4 {
	return math.Mat4TRS(t.Position, t.Rotation, t.Scale)
}

func (t Transform) GetForward() math.Vec3 {
	return t.Rotation.RotateVector(math.Vec3Front)
}

func (t Transform) GetRight() math.Vec3 {
	return t.Rotation.RotateVector(math.Vec3Right)
}

func (t Transform) GetUp() math.Vec3 {
	return t.Rotation.RotateVector(math.Vec3Up)
}

type Rect struct {
	X, Y, Width, Height float32
}

// Scissor clips 2D drawing to a rectangle in framebuffer pixels, measured
// from the top-left corner. The zero value means no clipping.
type Scissor struct {
	Enabled             bool
	X, Y, Width, Height int32
}

package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	assert.Equal(t, NewVec3(5, 7, 9), v1.Add(v2))
	assert.Equal(t, NewVec3(3, 3, 3), v2.Sub(v1))
	assert.Equal(t, NewVec3(2, 4, 6), v1.Mul(2))
	assert.Equal(t, float32(32), v1.Dot(v2)) // 1*4 + 2*5 + 3*6

	// Right x Up = Front in a right-handed system
	assert.Equal(t, Vec3Front, Vec3Right.Cross(Vec3Up))
}

func TestVec3Normalize(t *testing.T) {
	v := NewVec3(3, 0, 0)
	normalized := v.Normalize()
	assert.Equal(t, NewVec3(1, 0, 0), normalized)
	assert.InDelta(t, 1, normalized.Length(), 0.0001)

	// Zero vector stays zero
	assert.Equal(t, Vec3Zero, Vec3Zero.Normalize())
}

func TestVec3MinMax(t *testing.T) {
	a := NewVec3(1, 5, -3)
	b := NewVec3(2, -4, 0)
	assert.Equal(t, NewVec3(1, -4, -3), a.Min(b))
	assert.Equal(t, NewVec3(2, 5, 0), a.Max(b))
}

func TestMat4Identity(t *testing.T) {
	m := Mat4Identity()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			expected := float32(0)
			if i == j {
				expected = 1
			}
			if m[i][j] != expected {
				t.Errorf("Identity: expected [%d][%d] = %v, got %v", i, j, expected, m[i][j])
			}
		}
	}
}

func TestMat4Translation(t *testing.T) {
	translation := NewVec3(1, 2, 3)
	m := Mat4Translation(translation)

	point := NewVec4(0, 0, 0, 1)
	result := point.MulMat(m)
	assert.Equal(t, translation, result.ToVec3())
}

func TestMat4LookAt(t *testing.T) {
	eye := NewVec3(0, 0, 5)
	m := Mat4LookAt(eye, Vec3Zero, Vec3Up)

	// The view matrix transforms the eye position to the origin
	result := m.MulVec(eye.ToVec4(1))
	assert.InDelta(t, 0, result.X, 0.001)
	assert.InDelta(t, 0, result.Y, 0.001)
	assert.InDelta(t, 0, result.Z, 0.001)
}

// Mat4Inverse(Mat4Inverse(M)) == M within 1e-4 for non-degenerate M.
func TestMat4InverseRoundTrip(t *testing.T) {
	m := Mat4TRS(
		NewVec3(3, -1, 7),
		QuaternionFromAxisAngle(NewVec3(1, 2, 3), 0.8),
		NewVec3(2, 0.5, 1.5),
	)

	back := m.Inverse().Inverse()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.InDelta(t, m[i][j], back[i][j], 1e-4, "element [%d][%d]", i, j)
		}
	}
}

func TestMat4InverseIsInverse(t *testing.T) {
	m := Mat4TRS(
		NewVec3(1, 2, 3),
		QuaternionFromEuler(NewVec3(0.3, -0.4, 0.5)),
		NewVec3(1, 2, 4),
	)

	prod := m.Mul(m.Inverse())
	ident := Mat4Identity()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.InDelta(t, ident[i][j], prod[i][j], 1e-4, "element [%d][%d]", i, j)
		}
	}
}

func TestMat4InverseDegenerate(t *testing.T) {
	assert.Equal(t, Mat4Identity(), Mat4Zero().Inverse())
}

func TestQuaternionIdentity(t *testing.T) {
	q := QuaternionIdentity()
	assert.Equal(t, Quaternion{0, 0, 0, 1}, q)
}

func TestQuaternionRotation(t *testing.T) {
	// 90 degree rotation around Y: X axis maps to -Z
	q := QuaternionFromAxisAngle(Vec3Up, float32(math.Pi/2))
	result := q.RotateVector(Vec3Right)

	assert.InDelta(t, 0, result.X, 0.001)
	assert.InDelta(t, 0, result.Y, 0.001)
	assert.InDelta(t, -1, result.Z, 0.001)
}

// ToEuler(QuaternionFromEuler(v)) == v (mod 2pi) for |pitch| < pi/2.
func TestQuaternionEulerRoundTrip(t *testing.T) {
	cases := []Vec3{
		{0, 0, 0},
		{0.3, 0.2, 0.1},
		{-0.5, 1.2, 2.0},
		{1.5, -1.4, -3.0},
		{0.1, 1.5, 0.7}, // Y close to pi/2
	}
	for _, euler := range cases {
		got := QuaternionFromEuler(euler).ToEuler()
		assert.InDelta(t, euler.X, got.X, 1e-4, "X for %v", euler)
		assert.InDelta(t, euler.Y, got.Y, 1e-4, "Y for %v", euler)
		assert.InDelta(t, euler.Z, got.Z, 1e-4, "Z for %v", euler)
	}
}

func TestQuaternionMat4Agree(t *testing.T) {
	q := QuaternionFromEuler(NewVec3(0.4, -0.7, 1.1))
	v := NewVec3(1, 2, 3)

	viaQuat := q.RotateVector(v)
	viaMat := q.ToMat4().MulVec3(v)

	assert.InDelta(t, viaQuat.X, viaMat.X, 1e-4)
	assert.InDelta(t, viaQuat.Y, viaMat.Y, 1e-4)
	assert.InDelta(t, viaQuat.Z, viaMat.Z, 1e-4)
}

func TestQuaternionSlerpEndpoints(t *testing.T) {
	a := QuaternionFromAxisAngle(Vec3Up, 0)
	b := QuaternionFromAxisAngle(Vec3Up, float32(math.Pi/2))

	s0 := a.Slerp(b, 0)
	s1 := a.Slerp(b, 1)
	assert.InDelta(t, a.W, s0.W, 1e-4)
	assert.InDelta(t, b.W, s1.W, 1e-4)
	assert.InDelta(t, b.Y, s1.Y, 1e-4)
}

// combine(P, C) applied to a point equals P applied to (C applied to the point).
func TestTransformComposition(t *testing.T) {
	parent := Mat4TRS(NewVec3(1, 2, 3), QuaternionFromEuler(NewVec3(0.1, 0.2, 0.3)), NewVec3(2, 2, 2))
	child := Mat4TRS(NewVec3(-4, 0, 5), QuaternionFromEuler(NewVec3(0.7, -0.1, 0)), NewVec3(1, 0.5, 1))
	p := NewVec3(0.5, -1, 2)

	// Row-vector convention: combined = child.Mul(parent)
	combined := child.Mul(parent)
	direct := combined.MulVec3(p)
	stepped := parent.MulVec3(child.MulVec3(p))

	assert.InDelta(t, stepped.X, direct.X, 1e-5)
	assert.InDelta(t, stepped.Y, direct.Y, 1e-5)
	assert.InDelta(t, stepped.Z, direct.Z, 1e-5)
}

func TestMat4TRSOrder(t *testing.T) {
	// Scale 2, rotate 90 degrees about Y, translate (0, 5, 0):
	// (1,0,0) -> (2,0,0) -> (0,0,-2) -> (0,5,-2)
	m := Mat4TRS(NewVec3(0, 5, 0), QuaternionFromAxisAngle(Vec3Up, float32(math.Pi/2)), NewVec3(2, 2, 2))
	p := m.MulVec3(NewVec3(1, 0, 0))
	assert.InDelta(t, 0, p.X, 1e-4)
	assert.InDelta(t, 5, p.Y, 1e-4)
	assert.InDelta(t, -2, p.Z, 1e-4)
}

func TestMat3Transforms(t *testing.T) {
	// Translate then rotate 90 degrees CCW
	tr := Mat3Translation(1, 0)
	rot := Mat3Rotation(float32(math.Pi / 2))

	p := tr.MulPoint(NewVec2(0, 0))
	assert.Equal(t, NewVec2(1, 0), p)

	r := rot.MulPoint(NewVec2(1, 0))
	assert.InDelta(t, 0, r.X, 1e-5)
	assert.InDelta(t, 1, r.Y, 1e-5)

	// Direction transform ignores translation
	d := tr.MulDir(NewVec2(0, 1))
	assert.Equal(t, NewVec2(0, 1), d)
}

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Mat4RotationY(0.5)
	m2 := Mat4Translation(NewVec3(1, 2, 3))

	for i := 0; i < b.N; i++ {
		_ = m1.Mul(m2)
	}
}

func BenchmarkMat4Inverse(b *testing.B) {
	m := Mat4TRS(NewVec3(1, 2, 3), QuaternionFromEuler(NewVec3(0.3, 0.2, 0.1)), Vec3One)
	for i := 0; i < b.N; i++ {
		_ = m.Inverse()
	}
}

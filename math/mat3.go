package math

import "github.com/chewxy/math32"

// Mat3 is a 3x3 matrix used for 2D overlay transforms, stored [col][row]
// like Mat4. The third row is the homogeneous (tx, ty, 1) part.
type Mat3 [3][3]float32

func Mat3Identity() Mat3 {
	return Mat3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

func Mat3Translation(x, y float32) Mat3 {
	m := Mat3Identity()
	m[2][0] = x
	m[2][1] = y
	return m
}

func Mat3Rotation(angle float32) Mat3 {
	c := math32.Cos(angle)
	s := math32.Sin(angle)
	return Mat3{
		{c, s, 0},
		{-s, c, 0},
		{0, 0, 1},
	}
}

func Mat3Scale(x, y float32) Mat3 {
	m := Mat3Identity()
	m[0][0] = x
	m[1][1] = y
	return m
}

func (m Mat3) Mul(other Mat3) Mat3 {
	var result Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				result[i][j] += m[i][k] * other[k][j]
			}
		}
	}
	return result
}

// MulPoint transforms a 2D point (w = 1).
func (m Mat3) MulPoint(p Vec2) Vec2 {
	return Vec2{
		X: p.X*m[0][0] + p.Y*m[1][0] + m[2][0],
		Y: p.X*m[0][1] + p.Y*m[1][1] + m[2][1],
	}
}

// MulDir transforms a 2D direction (w = 0, ignores translation).
func (m Mat3) MulDir(d Vec2) Vec2 {
	return Vec2{
		X: d.X*m[0][0] + d.Y*m[1][0],
		Y: d.X*m[0][1] + d.Y*m[1][1],
	}
}

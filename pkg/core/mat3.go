package core

import "math"

// Mat3 is a 3x3 matrix stored row-major
type Mat3 [3][3]float64

// Identity3 returns the identity matrix
func Identity3() Mat3 {
	return Mat3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// MulVec returns m*v
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Mul returns the matrix product m*other
func (m Mat3) Mul(other Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*other[0][j] + m[i][1]*other[1][j] + m[i][2]*other[2][j]
		}
	}
	return r
}

// Transpose returns the transposed matrix. For rotations this is the inverse.
func (m Mat3) Transpose() Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// IsIdentity reports whether m is exactly the identity
func (m Mat3) IsIdentity() bool {
	return m == Identity3()
}

// MaxAbsDiff returns the largest absolute element difference between two matrices
func (m Mat3) MaxAbsDiff(other Mat3) float64 {
	d := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d = math.Max(d, math.Abs(m[i][j]-other[i][j]))
		}
	}
	return d
}

// RotationX returns a right-handed rotation about the X axis (radians)
func RotationX(a float64) Mat3 {
	s, c := math.Sincos(a)
	return Mat3{
		{1, 0, 0},
		{0, c, -s},
		{0, s, c},
	}
}

// RotationY returns a right-handed rotation about the Y axis (radians)
func RotationY(a float64) Mat3 {
	s, c := math.Sincos(a)
	return Mat3{
		{c, 0, s},
		{0, 1, 0},
		{-s, 0, c},
	}
}

// RotationZ returns a right-handed rotation about the Z axis (radians)
func RotationZ(a float64) Mat3 {
	s, c := math.Sincos(a)
	return Mat3{
		{c, -s, 0},
		{s, c, 0},
		{0, 0, 1},
	}
}

// EulerRotation builds a rotation from alpha/beta/gamma tilts in degrees,
// applied about X, then Y, then Z.
func EulerRotation(alpha, beta, gamma float64) Mat3 {
	ax := alpha * math.Pi / 180
	by := beta * math.Pi / 180
	gz := gamma * math.Pi / 180
	return RotationZ(gz).Mul(RotationY(by)).Mul(RotationX(ax))
}

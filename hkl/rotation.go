package hkl

import (
	"math"

	"github.com/crystalbeam/diffcalc/internal/units"
)

// Vec3 is a 3-component column vector in the laboratory frame.
type Vec3 [3]float64

// Mat3 is a 3x3 matrix in row-major order.
type Mat3 [9]float64

var identity = Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}

func (v Vec3) dot(w Vec3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

func (v Vec3) cross(w Vec3) Vec3 {
	return Vec3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

func (v Vec3) norm() float64 {
	return math.Sqrt(v.dot(v))
}

func (v Vec3) scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (v Vec3) sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

func (v Vec3) unit() Vec3 {
	return v.scale(1 / v.norm())
}

// MulVec applies m to v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2],
		m[3]*v[0] + m[4]*v[1] + m[5]*v[2],
		m[6]*v[0] + m[7]*v[1] + m[8]*v[2],
	}
}

// Mul returns the matrix product m·n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = m[3*i]*n[j] + m[3*i+1]*n[3+j] + m[3*i+2]*n[6+j]
		}
	}
	return out
}

// Transpose returns the transpose of m.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Det returns the determinant of m.
func (m Mat3) Det() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Inverse returns the inverse of m. ok is false when m is numerically
// singular, in which case the returned matrix is meaningless.
func (m Mat3) Inverse() (Mat3, bool) {
	det := m.Det()
	if math.Abs(det) < 1e-12 {
		return Mat3{}, false
	}
	inv := Mat3{
		m[4]*m[8] - m[5]*m[7], m[2]*m[7] - m[1]*m[8], m[1]*m[5] - m[2]*m[4],
		m[5]*m[6] - m[3]*m[8], m[0]*m[8] - m[2]*m[6], m[2]*m[3] - m[0]*m[5],
		m[3]*m[7] - m[4]*m[6], m[1]*m[6] - m[0]*m[7], m[0]*m[4] - m[1]*m[3],
	}
	for i := range inv {
		inv[i] /= det
	}
	return inv, true
}

// rotationAbout builds the rotation matrix for a right-handed rotation of
// theta radians about the (not necessarily unit) direction dir, using the
// Rodrigues formula.
func rotationAbout(dir Vec3, theta float64) Mat3 {
	n := dir.unit()
	c, s := math.Cos(theta), math.Sin(theta)
	x, y, z := n[0], n[1], n[2]
	omc := 1 - c
	return Mat3{
		c + omc*x*x, omc*x*y - s*z, omc*x*z + s*y,
		omc*y*x + s*z, c + omc*y*y, omc*y*z - s*x,
		omc*z*x - s*y, omc*z*y + s*x, c + omc*z*z,
	}
}

// signedAngle returns the rotation angle about n that takes the component
// of a perpendicular to n onto the corresponding component of b.
func signedAngle(a, b, n Vec3) float64 {
	nu := n.unit()
	ap := a.sub(nu.scale(a.dot(nu)))
	bp := b.sub(nu.scale(b.dot(nu)))
	return math.Atan2(nu.dot(ap.cross(bp)), ap.dot(bp))
}

// cosSinSolutions returns the angles solving a·cosθ + b·sinθ = c, each
// mapped onto (-π, π]. Zero, one or two solutions exist; a degenerate
// (a≈b≈0) equation yields θ=0 when c≈0 and nothing otherwise.
func cosSinSolutions(a, b, c float64) []float64 {
	r := math.Hypot(a, b)
	if r < 1e-12 {
		if math.Abs(c) < 1e-9 {
			return []float64{0}
		}
		return nil
	}
	x := c / r
	if math.Abs(x) > 1+1e-9 {
		return nil
	}
	x = math.Max(-1, math.Min(1, x))
	base := math.Atan2(b, a)
	d := math.Acos(x)
	if d < 1e-12 {
		return []float64{base}
	}
	return []float64{units.NormalizeRadians(base + d), units.NormalizeRadians(base - d)}
}

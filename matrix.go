package cfdg

import "math"

// Matrix is a 2D affine transformation in row-major order:
//
//	| a  b  c |
//	| d  e  f |
//
// mapping x' = a*x + b*y + c and y' = d*x + e*y + f.
//
// Shape transforms compose by right multiplication: a child's transform is
// parent.Multiply(adjustment), so the adjustment acts in the parent's local
// coordinate frame.
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transformation matrix.
func Identity() Matrix {
	return Matrix{A: 1, E: 1}
}

// Translate creates a translation matrix.
func Translate(x, y float64) Matrix {
	return Matrix{A: 1, C: x, E: 1, F: y}
}

// Scale creates a scaling matrix.
func Scale(x, y float64) Matrix {
	return Matrix{A: x, E: y}
}

// Rotate creates a counter-clockwise rotation matrix (angle in radians).
func Rotate(angle float64) Matrix {
	sin, cos := math.Sincos(angle)
	return Matrix{
		A: cos, B: -sin,
		D: sin, E: cos,
	}
}

// Skew creates a skew matrix from the two skew angles in radians.
func Skew(ax, ay float64) Matrix {
	return Matrix{
		A: 1, B: math.Tan(ax),
		D: math.Tan(ay), E: 1,
	}
}

// Flip creates a reflection across the line through the origin at angle
// (radians) from the x axis.
func Flip(angle float64) Matrix {
	sin, cos := math.Sincos(2 * angle)
	return Matrix{
		A: cos, B: sin,
		D: sin, E: -cos,
	}
}

// Multiply multiplies two matrices (m * other). The result applies other
// first, then m.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// TransformPoint applies the transformation to a point.
func (m Matrix) TransformPoint(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// TransformVector applies the transformation to a vector (no translation).
func (m Matrix) TransformVector(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y,
		Y: m.D*p.X + m.E*p.Y,
	}
}

// Determinant returns the determinant of the linear part.
func (m Matrix) Determinant() float64 {
	return m.A*m.E - m.B*m.D
}

// Area returns the factor by which the transformation scales areas.
func (m Matrix) Area() float64 {
	return math.Abs(m.Determinant())
}

// Scaling returns the geometric mean of the two axis scale factors.
func (m Matrix) Scaling() float64 {
	return math.Sqrt(m.Area())
}

// Invert returns the inverse matrix.
// Returns the identity matrix if the matrix is not invertible.
func (m Matrix) Invert() Matrix {
	det := m.Determinant()
	if math.Abs(det) < 1e-12 {
		return Identity()
	}
	inv := 1.0 / det
	return Matrix{
		A: m.E * inv,
		B: -m.B * inv,
		C: (m.B*m.F - m.C*m.E) * inv,
		D: -m.D * inv,
		E: m.A * inv,
		F: (m.C*m.D - m.A*m.F) * inv,
	}
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// Equal reports whether all six coefficients differ by less than tol.
func (m Matrix) Equal(o Matrix, tol float64) bool {
	return math.Abs(m.A-o.A) < tol && math.Abs(m.B-o.B) < tol &&
		math.Abs(m.C-o.C) < tol && math.Abs(m.D-o.D) < tol &&
		math.Abs(m.E-o.E) < tol && math.Abs(m.F-o.F) < tol
}

// Translation returns the translation part of the matrix.
func (m Matrix) Translation() Point {
	return Point{X: m.C, Y: m.F}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

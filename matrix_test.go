package cfdg

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func pointNear(a, b Point) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon
}

func TestMatrixTransformPoint(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		p    Point
		want Point
	}{
		{"identity", Identity(), Pt(3, 4), Pt(3, 4)},
		{"translate", Translate(10, -2), Pt(1, 1), Pt(11, -1)},
		{"scale", Scale(2, 3), Pt(1, 1), Pt(2, 3)},
		{"rotate 90", Rotate(math.Pi / 2), Pt(1, 0), Pt(0, 1)},
		{"rotate 180", Rotate(math.Pi), Pt(1, 2), Pt(-1, -2)},
		{"skew x 45", Skew(math.Pi/4, 0), Pt(0, 1), Pt(1, 1)},
		{"flip x axis", Flip(0), Pt(1, 1), Pt(1, -1)},
		{"flip y axis", Flip(math.Pi / 2), Pt(1, 1), Pt(-1, 1)},
		{"flip diagonal", Flip(math.Pi / 4), Pt(1, 0), Pt(0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.TransformPoint(tt.p); !pointNear(got, tt.want) {
				t.Errorf("TransformPoint(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestMatrixMultiplyOrder(t *testing.T) {
	// parent.Multiply(child) applies child first
	m := Translate(5, 0).Multiply(Scale(2, 2))
	if got := m.TransformPoint(Pt(1, 0)); !pointNear(got, Pt(7, 0)) {
		t.Errorf("T·S (1,0) = %v, want (7,0)", got)
	}
	m = Scale(2, 2).Multiply(Translate(5, 0))
	if got := m.TransformPoint(Pt(1, 0)); !pointNear(got, Pt(12, 0)) {
		t.Errorf("S·T (1,0) = %v, want (12,0)", got)
	}
}

func TestMatrixInvert(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
	}{
		{"identity", Identity()},
		{"translate", Translate(3, -7)},
		{"scale", Scale(0.5, 4)},
		{"rotate", Rotate(0.7)},
		{"compound", Translate(1, 2).Multiply(Rotate(1.1)).Multiply(Scale(3, 0.2)).Multiply(Skew(0.3, 0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.Multiply(tt.m.Invert())
			if !got.Equal(Identity(), epsilon) {
				t.Errorf("m·m⁻¹ = %+v, want identity", got)
			}
		})
	}

	if got := Scale(0, 1).Invert(); !got.IsIdentity() {
		t.Errorf("singular Invert() = %+v, want identity", got)
	}
}

func TestMatrixScaling(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		area float64
		want float64
	}{
		{"identity", Identity(), 1, 1},
		{"uniform", Scale(3, 3), 9, 3},
		{"non-uniform", Scale(2, 8), 16, 4},
		{"mirror", Scale(-2, 2), 4, 2},
		{"rotation keeps area", Rotate(0.4).Multiply(Scale(2, 2)), 4, 2},
		{"translation ignored", Translate(100, 100), 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Area(); math.Abs(got-tt.area) > epsilon {
				t.Errorf("Area() = %v, want %v", got, tt.area)
			}
			if got := tt.m.Scaling(); math.Abs(got-tt.want) > epsilon {
				t.Errorf("Scaling() = %v, want %v", got, tt.want)
			}
		})
	}
	if d := Flip(0.3).Determinant(); d > 0 {
		t.Errorf("Flip determinant = %v, want negative", d)
	}
}

func TestMatrixTransformVectorIgnoresTranslation(t *testing.T) {
	m := Translate(5, 5).Multiply(Scale(2, 2))
	if got := m.TransformVector(Pt(1, 1)); !pointNear(got, Pt(2, 2)) {
		t.Errorf("TransformVector = %v, want (2,2)", got)
	}
	if got := m.Translation(); got != Pt(5, 5) {
		t.Errorf("Translation() = %v, want (5,5)", got)
	}
}

func TestDegrees(t *testing.T) {
	if got := radians(180); math.Abs(got-math.Pi) > epsilon {
		t.Errorf("radians(180) = %v", got)
	}
	if got := degrees(math.Pi / 2); math.Abs(got-90) > epsilon {
		t.Errorf("degrees(π/2) = %v", got)
	}
}

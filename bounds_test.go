package cfdg

import (
	"math"
	"testing"
)

func TestBoundsMerge(t *testing.T) {
	var b Bounds
	if b.Valid() {
		t.Fatal("zero Bounds is valid")
	}
	b.Merge(Bounds{})
	if b.Valid() {
		t.Fatal("merging an invalid box made it valid")
	}
	b.MergePoint(Pt(1, 2))
	b.MergePoint(Pt(-3, 5))
	b.MergePoint(Pt(math.NaN(), 100))
	want := NewBounds(-3, 2, 1, 5)
	if b != want {
		t.Errorf("bounds = %+v, want %+v", b, want)
	}
	u := b.Union(NewBounds(0, 0, 10, 1))
	if u != NewBounds(-3, 0, 10, 5) {
		t.Errorf("Union() = %+v", u)
	}
	if b.Width() != 4 || b.Height() != 3 {
		t.Errorf("size = %vx%v, want 4x3", b.Width(), b.Height())
	}
}

func TestBoundsDilateAndContains(t *testing.T) {
	b := NewBounds(0, 0, 2, 2).Dilate(1)
	if b != NewBounds(-1, -1, 3, 3) {
		t.Errorf("Dilate() = %+v", b)
	}
	if !b.Contains(Pt(-1, 3)) || b.Contains(Pt(3.1, 0)) {
		t.Error("Contains() wrong on the edges")
	}
	if (Bounds{}).Dilate(5).Valid() {
		t.Error("dilating an invalid box made it valid")
	}
}

func TestBoundsInterpolate(t *testing.T) {
	a := NewBounds(0, 0, 10, 10)
	b := NewBounds(10, 10, 20, 20)
	if got := a.Interpolate(b, 0.5); got != NewBounds(5, 5, 15, 15) {
		t.Errorf("Interpolate(0.5) = %+v", got)
	}
	if got := (Bounds{}).Interpolate(b, 0.5); got != b {
		t.Errorf("invalid.Interpolate = %+v, want other", got)
	}
}

func TestBoundsTransform(t *testing.T) {
	b := NewBounds(-1, -1, 1, 1).Transform(Translate(5, 0).Multiply(Rotate(math.Pi / 4)))
	r := math.Sqrt2
	if math.Abs(b.MinX-(5-r)) > epsilon || math.Abs(b.MaxY-r) > epsilon {
		t.Errorf("Transform() = %+v", b)
	}
}

func TestBoundsFit(t *testing.T) {
	tests := []struct {
		name          string
		b             Bounds
		w, h          int
		border        float64
		exact         bool
		wantW, wantH  int
		wantScale     float64
	}{
		{"square exact", NewBounds(0, 0, 1, 1), 100, 100, 0, true, 100, 100, 100},
		{"wide shrinks height", NewBounds(0, 0, 4, 1), 200, 200, 0, false, 200, 50, 50},
		{"wide exact keeps size", NewBounds(0, 0, 4, 1), 200, 200, 0, true, 200, 200, 50},
		{"border", NewBounds(0, 0, 1, 1), 120, 120, 10, true, 120, 120, 100},
		{"odd rounds to even", NewBounds(0, 0, 3, 1), 100, 100, 0, false, 100, 34, 100.0 / 3},
		{"odd canvas shrinks to even", NewBounds(0, 0, 1, 1), 101, 101, 0, false, 100, 100, 100},
		{"odd canvas exact stays odd", NewBounds(0, 0, 1, 1), 101, 101, 0, true, 101, 101, 101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.b.Fit(tt.w, tt.h, tt.border, tt.exact)
			if f.Width != tt.wantW || f.Height != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", f.Width, f.Height, tt.wantW, tt.wantH)
			}
			if math.Abs(f.Scale-tt.wantScale) > 1e-9 {
				t.Errorf("scale = %v, want %v", f.Scale, tt.wantScale)
			}
			// the center of the design lands in the center of the canvas
			c := f.Transform.TransformPoint(tt.b.Center())
			if !pointNear(c, Pt(float64(f.Width)/2, float64(f.Height)/2)) {
				t.Errorf("center maps to %v", c)
			}
		})
	}
}

func TestBoundsFitFlipsY(t *testing.T) {
	f := NewBounds(0, 0, 1, 1).Fit(10, 10, 0, true)
	top := f.Transform.TransformPoint(Pt(0.5, 1))
	if !pointNear(top, Pt(5, 0)) {
		t.Errorf("top of the design maps to %v, want (5,0)", top)
	}
}

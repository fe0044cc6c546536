package blend

import (
	"math"
	"testing"

	"github.com/gogpu/cfdg"
)

const tol = 1e-5

func near(a, b Color) bool {
	d := func(x, y float32) bool { return math.Abs(float64(x-y)) <= tol }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

var (
	red     = Color{R: 1, A: 1}
	blue    = Color{B: 1, A: 1}
	halfRed = Color{R: 0.5, A: 0.5}
	none    = Color{}
)

func TestPorterDuff(t *testing.T) {
	tests := []struct {
		name string
		mode cfdg.BlendMode
		s, d Color
		want Color
	}{
		{"normal opaque", cfdg.BlendNormal, red, blue, red},
		{"normal half", cfdg.BlendNormal, halfRed, blue, Color{R: 0.5, B: 0.5, A: 1}},
		{"normal onto transparent", cfdg.BlendNormal, halfRed, none, halfRed},
		{"clear", cfdg.BlendClear, red, blue, none},
		{"source", cfdg.BlendSource, halfRed, blue, halfRed},
		{"dest over", cfdg.BlendDestOver, red, blue, blue},
		{"dest over transparent", cfdg.BlendDestOver, red, none, red},
		{"source in", cfdg.BlendSourceIn, red, Color{A: 0.5}, halfRed},
		{"source in empty", cfdg.BlendSourceIn, red, none, none},
		{"dest in", cfdg.BlendDestIn, halfRed, blue, Color{B: 0.5, A: 0.5}},
		{"source out", cfdg.BlendSourceOut, red, blue, none},
		{"source out empty", cfdg.BlendSourceOut, red, none, red},
		{"dest out", cfdg.BlendDestOut, halfRed, blue, Color{B: 0.5, A: 0.5}},
		{"source atop", cfdg.BlendSourceAtop, halfRed, blue, Color{R: 0.5, B: 0.5, A: 1}},
		{"source atop empty", cfdg.BlendSourceAtop, red, none, none},
		{"dest atop", cfdg.BlendDestAtop, red, halfRed, red},
		{"xor opaque", cfdg.BlendXor, red, blue, none},
		{"xor half", cfdg.BlendXor, halfRed, none, halfRed},
		{"plus", cfdg.BlendPlus, halfRed, Color{G: 0.25, A: 0.75}, Color{R: 0.5, G: 0.25, A: 1}},
		{"plus clamps", cfdg.BlendPlus, red, red, red},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Get(tt.mode)(tt.s, tt.d)
			if !near(got, tt.want) {
				t.Errorf("%v(%v, %v) = %v, want %v", tt.mode, tt.s, tt.d, got, tt.want)
			}
		})
	}
}

func TestComposite(t *testing.T) {
	f := Get(cfdg.BlendNormal)
	if got := Composite(f, red, blue, 0); got != blue {
		t.Errorf("zero coverage = %v, want destination", got)
	}
	if got := Composite(f, red, blue, 1); got != red {
		t.Errorf("full coverage = %v, want source", got)
	}
	// half coverage of an opaque source equals a half transparent source
	got := Composite(f, red, blue, 0.5)
	want := f(red.Scale(0.5), blue)
	if !near(got, want) {
		t.Errorf("half coverage = %v, want %v", got, want)
	}
	// clear only clears what the shape covers
	got = Composite(Get(cfdg.BlendClear), red, blue, 0.25)
	if !near(got, blue.Scale(0.75)) {
		t.Errorf("partial clear = %v, want %v", got, blue.Scale(0.75))
	}
}

func TestGetUnknown(t *testing.T) {
	got := Get(cfdg.BlendMode(200))(halfRed, blue)
	if !near(got, sourceOver(halfRed, blue)) {
		t.Errorf("unknown mode = %v, want source over", got)
	}
}

func TestFromRGBA(t *testing.T) {
	got := FromRGBA(cfdg.RGBA{R: 1, G: 0.5, B: 0, A: 0.5})
	want := Color{R: 0.5, G: 0.25, A: 0.5}
	if !near(got, want) {
		t.Errorf("FromRGBA = %v, want %v", got, want)
	}
}

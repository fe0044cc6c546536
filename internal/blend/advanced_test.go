package blend

import (
	"testing"

	"github.com/gogpu/cfdg"
)

func TestChannelFuncs(t *testing.T) {
	tests := []struct {
		name string
		f    channelFunc
		s, d float32
		want float32
	}{
		{"multiply", multiply, 0.5, 0.5, 0.25},
		{"screen", screen, 0.5, 0.5, 0.75},
		{"overlay dark backdrop", overlay, 0.5, 0.25, 0.25},
		{"overlay light backdrop", overlay, 0.5, 0.75, 0.75},
		{"darken", darken, 0.2, 0.7, 0.2},
		{"lighten", lighten, 0.2, 0.7, 0.7},
		{"dodge black backdrop", colorDodge, 0.8, 0, 0},
		{"dodge white source", colorDodge, 1, 0.3, 1},
		{"dodge", colorDodge, 0.5, 0.25, 0.5},
		{"burn white backdrop", colorBurn, 0.2, 1, 1},
		{"burn black source", colorBurn, 0, 0.7, 0},
		{"burn", colorBurn, 0.5, 0.75, 0.5},
		{"hard light dark", hardLight, 0.25, 0.5, 0.25},
		{"hard light light", hardLight, 0.75, 0.5, 0.75},
		{"soft light neutral", softLight, 0.5, 0.3, 0.3},
		{"soft light dark", softLight, 0, 0.5, 0.25},
		{"soft light bright", softLight, 1, 0.25, 0.5},
		{"difference", difference, 0.2, 0.7, 0.5},
		{"difference reversed", difference, 0.7, 0.2, 0.5},
		{"exclusion", exclusion, 0.5, 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.f(tt.s, tt.d)
			if d := got - tt.want; d > tol || d < -tol {
				t.Errorf("%s(%v, %v) = %v, want %v", tt.name, tt.s, tt.d, got, tt.want)
			}
		})
	}
}

func TestSeparable(t *testing.T) {
	gray := Color{R: 0.5, G: 0.5, B: 0.5, A: 1}
	white := Color{R: 1, G: 1, B: 1, A: 1}

	tests := []struct {
		name string
		mode cfdg.BlendMode
		s, d Color
		want Color
	}{
		{"multiply opaque", cfdg.BlendMultiply, gray, gray, Color{R: 0.25, G: 0.25, B: 0.25, A: 1}},
		{"multiply by white", cfdg.BlendMultiply, white, red, red},
		{"screen by black", cfdg.BlendScreen, Color{A: 1}, blue, blue},
		{"difference self", cfdg.BlendDifference, red, red, Color{A: 1}},
		{"transparent source", cfdg.BlendMultiply, none, blue, blue},
		{"transparent backdrop", cfdg.BlendMultiply, halfRed, none, halfRed},
		// half red over opaque blue: 0.5*B(red, blue) + 0.5*blue
		{"multiply half", cfdg.BlendMultiply, halfRed, blue, Color{B: 0.5, A: 1}},
		{"lighten half", cfdg.BlendLighten, halfRed, blue, Color{R: 0.5, B: 1, A: 1}},
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

func TestSeparableAlpha(t *testing.T) {
	s := Color{R: 0.3, A: 0.6}
	d := Color{G: 0.2, A: 0.4}
	for m := cfdg.BlendMultiply; m <= cfdg.BlendExclusion; m++ {
		got := Get(m)(s, d)
		want := s.A + d.A - s.A*d.A
		if diff := got.A - want; diff > tol || diff < -tol {
			t.Errorf("%v alpha = %v, want %v", m, got.A, want)
		}
		if got.R > got.A+tol || got.G > got.A+tol || got.B > got.A+tol {
			t.Errorf("%v = %v is not premultiplied", m, got)
		}
	}
}

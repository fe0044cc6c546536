package cfdg

import (
	"image/color"
	"math"
	"testing"
)

func TestHSBToRGBA(t *testing.T) {
	tests := []struct {
		name string
		c    HSBColor
		want RGBA
	}{
		{"black", Black, RGBA{A: 1}},
		{"white", White, RGBA{R: 1, G: 1, B: 1, A: 1}},
		{"red", HSBColor{H: 0, S: 1, B: 1, A: 1}, RGBA{R: 1, A: 1}},
		{"green", HSBColor{H: 120, S: 1, B: 1, A: 1}, RGBA{G: 1, A: 1}},
		{"blue", HSBColor{H: 240, S: 1, B: 1, A: 1}, RGBA{B: 1, A: 1}},
		{"yellow", HSBColor{H: 60, S: 1, B: 1, A: 1}, RGBA{R: 1, G: 1, A: 1}},
		{"hue wraps", HSBColor{H: 480, S: 1, B: 1, A: 1}, RGBA{G: 1, A: 1}},
		{"gray", HSBColor{H: 200, S: 0, B: 0.5, A: 0.5}, RGBA{R: 0.5, G: 0.5, B: 0.5, A: 0.5}},
		{"clamped", HSBColor{S: 2, B: -1, A: 3}, RGBA{A: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.c.RGBA()
			if math.Abs(got.R-tt.want.R) > epsilon || math.Abs(got.G-tt.want.G) > epsilon ||
				math.Abs(got.B-tt.want.B) > epsilon || math.Abs(got.A-tt.want.A) > epsilon {
				t.Errorf("RGBA() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRGBToHSBRoundTrip(t *testing.T) {
	for _, c := range []HSBColor{
		{H: 0, S: 1, B: 1},
		{H: 30, S: 0.5, B: 0.8},
		{H: 200, S: 0.25, B: 0.4},
		{H: 300, S: 1, B: 0.1},
	} {
		r, g, b := hsbToRGB(c.H, c.S, c.B)
		h, s, v := rgbToHSB(r, g, b)
		if math.Abs(h-c.H) > 1e-6 || math.Abs(s-c.S) > 1e-6 || math.Abs(v-c.B) > 1e-6 {
			t.Errorf("round trip of %+v = (%v, %v, %v)", c, h, s, v)
		}
	}
}

func TestHSBAdjust(t *testing.T) {
	gray := HSBColor{H: 100, S: 0.5, B: 0.5, A: 0.5}
	tests := []struct {
		name   string
		adj    HSBColor
		flags  ColorAssignment
		target HSBColor
		want   HSBColor
	}{
		{"hue adds", HSBColor{H: 300}, HueSet, HSBColor{}, HSBColor{H: 40, S: 0.5, B: 0.5, A: 0.5}},
		{"brightness up", HSBColor{B: 0.5}, BrightSet, HSBColor{}, HSBColor{H: 100, S: 0.5, B: 0.75, A: 0.5}},
		{"brightness down", HSBColor{B: -0.5}, BrightSet, HSBColor{}, HSBColor{H: 100, S: 0.5, B: 0.25, A: 0.5}},
		{"saturation full", HSBColor{S: 1}, SatSet, HSBColor{}, HSBColor{H: 100, S: 1, B: 0.5, A: 0.5}},
		{"alpha down", HSBColor{A: -1}, AlphaSet, HSBColor{}, HSBColor{H: 100, S: 0.5, B: 0.5, A: 0}},
		{"toward target", HSBColor{B: 0.5}, BrightSet | BrightTarget, HSBColor{B: 0.9},
			HSBColor{H: 100, S: 0.5, B: 0.7, A: 0.5}},
		{"away from target", HSBColor{B: -0.5}, BrightSet | BrightTarget, HSBColor{B: 0.9},
			HSBColor{H: 100, S: 0.5, B: 0.25, A: 0.5}},
		{"hue toward target", HSBColor{H: 0.5}, HueSet | HueTarget, HSBColor{H: 200},
			HSBColor{H: 150, S: 0.5, B: 0.5, A: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gray.Adjust(tt.adj, tt.flags, tt.target)
			if math.Abs(got.H-tt.want.H) > epsilon || math.Abs(got.S-tt.want.S) > epsilon ||
				math.Abs(got.B-tt.want.B) > epsilon || math.Abs(got.A-tt.want.A) > epsilon {
				t.Errorf("Adjust() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRGBAConversions(t *testing.T) {
	c := RGBA{R: 1, G: 0.5, B: 0, A: 0.5}
	if got := c.NRGBA(); got != (color.NRGBA{R: 255, G: 128, B: 0, A: 128}) {
		t.Errorf("NRGBA() = %v", got)
	}
	if got := c.Premultiply(); got != (RGBA{R: 0.5, G: 0.25, B: 0, A: 0.5}) {
		t.Errorf("Premultiply() = %+v", got)
	}
	if got := c.WithAlpha(0.5).A; got != 0.25 {
		t.Errorf("WithAlpha(0.5).A = %v, want 0.25", got)
	}
}

package cfdg

import "math"

// HSBColor is a color in hue/saturation/brightness/alpha space. Hue is in
// degrees [0,360); the other channels are in [0,1].
//
// The same type carries absolute shape colors and color adjustments. As an
// adjustment, hue is an additive offset and the other channels are signed
// fractions: positive moves toward 1 (or toward the target), negative
// toward 0 (or away from the target).
type HSBColor struct {
	H, S, B, A float64
}

// ColorAssignment records which channels an adjustment touches and whether
// they are relative to the target color.
type ColorAssignment uint16

const (
	HueSet ColorAssignment = 1 << iota
	SatSet
	BrightSet
	AlphaSet
	HueTarget
	SatTarget
	BrightTarget
	AlphaTarget
	TargetHueSet
	TargetSatSet
	TargetBrightSet
	TargetAlphaSet
)

// colorValueMask covers the bits of channels set by value.
const colorValueMask = HueSet | SatSet | BrightSet | AlphaSet

const equalityThreshold = 1e-8

// Black is the default shape color.
var Black = HSBColor{A: 1}

// White is the default background color.
var White = HSBColor{B: 1, A: 1}

// Adjust applies adj to c. flags selects which channels move toward target.
func (c HSBColor) Adjust(adj HSBColor, flags ColorAssignment, target HSBColor) HSBColor {
	return HSBColor{
		H: adjustHue(c.H, adj.H, flags&HueTarget != 0, target.H),
		S: adjustChannel(c.S, adj.S, flags&SatTarget != 0, target.S),
		B: adjustChannel(c.B, adj.B, flags&BrightTarget != 0, target.B),
		A: adjustChannel(c.A, adj.A, flags&AlphaTarget != 0, target.A),
	}
}

// adjustHue shifts base by adj degrees or, relative to a target, moves it
// the fraction adj of the way toward (or away from) the target hue.
func adjustHue(base, adj float64, useTarget bool, target float64) float64 {
	if adj == 0 {
		return base
	}
	h := base + adj
	if useTarget {
		t := target
		if adj < 0 {
			if t > base {
				t -= 360
			}
			h = base + (base-t)*adj
		} else {
			if t < base {
				t += 360
			}
			h = base + (t-base)*adj
		}
	}
	return wrapHue(h)
}

func wrapHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// adjustChannel moves base toward 1 or 0, or toward/away from target.
func adjustChannel(base, adj float64, useTarget bool, target float64) float64 {
	if adj == 0 {
		return base
	}
	if useTarget {
		if adj > 0 && math.Abs(base-target) < equalityThreshold {
			return base
		}
		if adj < 0 {
			edge := 1.0
			if base < target {
				edge = 0
			}
			return clampUnit(base + (base-edge)*adj)
		}
		return clampUnit(base + (target-base)*adj)
	}
	if adj < 0 {
		return clampUnit(base + base*adj)
	}
	return clampUnit(base + (1-base)*adj)
}

func clampUnit(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// RGBA converts the color to non-premultiplied RGBA.
func (c HSBColor) RGBA() RGBA {
	r, g, b := hsbToRGB(c.H, c.S, c.B)
	return RGBA{R: r, G: g, B: b, A: clampUnit(c.A)}
}

func hsbToRGB(h, s, v float64) (r, g, b float64) {
	s = clampUnit(s)
	v = clampUnit(v)
	if s == 0 {
		return v, v, v
	}
	h = wrapHue(h) / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func rgbToHSB(r, g, b float64) (h, s, v float64) {
	mx := math.Max(r, math.Max(g, b))
	mn := math.Min(r, math.Min(g, b))
	v = mx
	d := mx - mn
	if mx <= 0 || d <= 0 {
		return 0, 0, v
	}
	s = d / mx
	switch mx {
	case r:
		h = (g - b) / d
	case g:
		h = 2 + (b-r)/d
	default:
		h = 4 + (r-g)/d
	}
	return wrapHue(h * 60), s, v
}

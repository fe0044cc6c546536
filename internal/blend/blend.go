// Package blend provides color blending operations.
//
// Colors are premultiplied, with components in [0, 1]. Every mode of
// cfdg.BlendMode maps onto a Func: the Porter-Duff operators and the
// separable blend modes of W3C Compositing and Blending Level 1.
//
// References:
//   - Porter-Duff: "Compositing Digital Images" (1984)
//   - W3C Compositing and Blending Level 1: https://www.w3.org/TR/compositing-1/
package blend

import "github.com/gogpu/cfdg"

// Color is a premultiplied color.
type Color struct {
	R, G, B, A float32
}

// FromRGBA premultiplies a straight-alpha color.
func FromRGBA(c cfdg.RGBA) Color {
	a := float32(c.A)
	return Color{R: float32(c.R) * a, G: float32(c.G) * a, B: float32(c.B) * a, A: a}
}

// Scale multiplies every component by k.
func (c Color) Scale(k float32) Color {
	return Color{R: c.R * k, G: c.G * k, B: c.B * k, A: c.A * k}
}

// Lerp moves c toward o by t.
func (c Color) Lerp(o Color, t float32) Color {
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
		A: c.A + (o.A-c.A)*t,
	}
}

// Func composites source s onto destination d.
type Func func(s, d Color) Color

var funcs = [...]Func{
	cfdg.BlendNormal:     sourceOver,
	cfdg.BlendClear:      clearOp,
	cfdg.BlendSource:     source,
	cfdg.BlendDestOver:   destOver,
	cfdg.BlendSourceIn:   sourceIn,
	cfdg.BlendDestIn:     destIn,
	cfdg.BlendSourceOut:  sourceOut,
	cfdg.BlendDestOut:    destOut,
	cfdg.BlendSourceAtop: sourceAtop,
	cfdg.BlendDestAtop:   destAtop,
	cfdg.BlendXor:        xor,
	cfdg.BlendPlus:       plus,
	cfdg.BlendMultiply:   separable(multiply),
	cfdg.BlendScreen:     separable(screen),
	cfdg.BlendOverlay:    separable(overlay),
	cfdg.BlendDarken:     separable(darken),
	cfdg.BlendLighten:    separable(lighten),
	cfdg.BlendColorDodge: separable(colorDodge),
	cfdg.BlendColorBurn:  separable(colorBurn),
	cfdg.BlendHardLight:  separable(hardLight),
	cfdg.BlendSoftLight:  separable(softLight),
	cfdg.BlendDifference: separable(difference),
	cfdg.BlendExclusion:  separable(exclusion),
}

// Get returns the function for mode. Unknown modes composite normally.
func Get(mode cfdg.BlendMode) Func {
	if int(mode) < len(funcs) {
		return funcs[mode]
	}
	return sourceOver
}

// Composite blends s onto d where the shape covers a fraction coverage of
// the pixel. Outside the shape the destination is unchanged.
func Composite(f Func, s, d Color, coverage float32) Color {
	if coverage <= 0 {
		return d
	}
	r := f(s, d)
	if coverage >= 1 {
		return r
	}
	return d.Lerp(r, coverage)
}

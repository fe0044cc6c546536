package cfdg

import "math"

// Bounds is an axis-aligned box. The zero value is invalid (unset) and
// merging anything into it makes it valid.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
	valid      bool
}

// NewBounds returns a valid box spanning the two corners.
func NewBounds(x0, y0, x1, y1 float64) Bounds {
	return Bounds{
		MinX: math.Min(x0, x1), MinY: math.Min(y0, y1),
		MaxX: math.Max(x0, x1), MaxY: math.Max(y0, y1),
		valid: true,
	}
}

// Valid reports whether the box has been set.
func (b Bounds) Valid() bool {
	return b.valid
}

// Width returns the horizontal extent, zero for invalid boxes.
func (b Bounds) Width() float64 {
	if !b.valid {
		return 0
	}
	return b.MaxX - b.MinX
}

// Height returns the vertical extent, zero for invalid boxes.
func (b Bounds) Height() float64 {
	if !b.valid {
		return 0
	}
	return b.MaxY - b.MinY
}

// Center returns the middle of the box.
func (b Bounds) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// MergePoint grows the box to contain p.
func (b *Bounds) MergePoint(p Point) {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return
	}
	if !b.valid {
		*b = Bounds{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y, valid: true}
		return
	}
	b.MinX = math.Min(b.MinX, p.X)
	b.MinY = math.Min(b.MinY, p.Y)
	b.MaxX = math.Max(b.MaxX, p.X)
	b.MaxY = math.Max(b.MaxY, p.Y)
}

// Merge grows the box to contain o.
func (b *Bounds) Merge(o Bounds) {
	if !o.valid {
		return
	}
	b.MergePoint(Point{X: o.MinX, Y: o.MinY})
	b.MergePoint(Point{X: o.MaxX, Y: o.MaxY})
}

// Union returns the smallest box containing both.
func (b Bounds) Union(o Bounds) Bounds {
	b.Merge(o)
	return b
}

// Dilate grows the box by d on every side.
func (b Bounds) Dilate(d float64) Bounds {
	if !b.valid {
		return b
	}
	b.MinX -= d
	b.MinY -= d
	b.MaxX += d
	b.MaxY += d
	return b
}

// Interpolate moves every edge of b toward o by alpha.
func (b Bounds) Interpolate(o Bounds, alpha float64) Bounds {
	if !b.valid {
		return o
	}
	if !o.valid {
		return b
	}
	lerp := func(x, y float64) float64 { return x + (y-x)*alpha }
	return Bounds{
		MinX: lerp(b.MinX, o.MinX), MinY: lerp(b.MinY, o.MinY),
		MaxX: lerp(b.MaxX, o.MaxX), MaxY: lerp(b.MaxY, o.MaxY),
		valid: true,
	}
}

// Transform returns the bounds of the box's corners under m.
func (b Bounds) Transform(m Matrix) Bounds {
	if !b.valid {
		return b
	}
	var r Bounds
	r.MergePoint(m.TransformPoint(Point{X: b.MinX, Y: b.MinY}))
	r.MergePoint(m.TransformPoint(Point{X: b.MaxX, Y: b.MinY}))
	r.MergePoint(m.TransformPoint(Point{X: b.MaxX, Y: b.MaxY}))
	r.MergePoint(m.TransformPoint(Point{X: b.MinX, Y: b.MaxY}))
	return r
}

// Contains reports whether p lies inside the box.
func (b Bounds) Contains(p Point) bool {
	return b.valid && p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Fit describes how a design maps onto the output canvas.
type Fit struct {
	Transform     Matrix // design space to pixel space, y flipped
	Scale         float64
	Width, Height int
}

// Fit computes the uniform scale that maps b into a width×height canvas,
// leaving border pixels on every side. The axis that constrains the design
// decides the scale, so the aspect ratio is preserved. Unless exact is set,
// the canvas is shrunk to the design's aspect ratio and rounded up to even
// dimensions.
func (b Bounds) Fit(width, height int, border float64, exact bool) Fit {
	bw, bh := b.Width(), b.Height()
	if bw <= 0 || math.IsInf(bw, 0) || math.IsNaN(bw) {
		bw = 1
	}
	if bh <= 0 || math.IsInf(bh, 0) || math.IsNaN(bh) {
		bh = 1
	}
	availW := math.Max(float64(width)-2*border, 1)
	availH := math.Max(float64(height)-2*border, 1)

	scale := availH / bh
	if sx := availW / bw; sx < scale {
		scale = sx
	}

	outW, outH := width, height
	if !exact {
		outW = min(evenCeil(bw*scale+2*border), evenFloor(width))
		outH = min(evenCeil(bh*scale+2*border), evenFloor(height))
		// rounding down an odd canvas may leave less room than scale needs
		fit := math.Min((float64(outW)-2*border)/bw, (float64(outH)-2*border)/bh)
		if fit > 0 && fit < scale {
			scale = fit
		}
	}

	c := b.Center()
	if !b.valid {
		c = Point{}
	}
	m := Translate(float64(outW)/2, float64(outH)/2).
		Multiply(Scale(scale, -scale)).
		Multiply(Translate(-c.X, -c.Y))
	return Fit{Transform: m, Scale: scale, Width: outW, Height: outH}
}

// evenFloor rounds n down to even, keeping at least one pixel.
func evenFloor(n int) int {
	if n > 1 {
		return n &^ 1
	}
	return n
}

func evenCeil(x float64) int {
	n := int(math.Ceil(x))
	if n%2 != 0 {
		n++
	}
	return max(n, 2)
}

package cfdg

import "math"

// Indices of the primitive shapes in every grammar's name table.
const (
	ShapeCircle = iota
	ShapeSquare
	ShapeTriangle
	ShapeFill
	primitiveCount
)

var primitiveNames = [primitiveCount]string{"CIRCLE", "SQUARE", "TRIANGLE", "FILL"}

// IsPrimitive reports whether shape type t is a built-in primitive.
func IsPrimitive(t int) bool {
	return t >= 0 && t < primitiveCount
}

// Path flag bits. The same values are the CF:: flag constants of the
// language, so FILL(CF::EvenOdd) and STROKE(w, CF::RoundJoin+CF::RoundCap)
// pass them straight through.
const (
	JoinMiter  = 0
	JoinRound  = 1
	JoinBevel  = 2
	JoinMask   = 3
	CapButt    = 0
	CapRound   = 4
	CapSquare  = 8
	CapMask    = 12
	ArcCW      = 16
	ArcLarge   = 32
	Continuous = 64
	Align      = 128
	EvenOdd    = 256
	IsoWidth   = 512
	PathFill   = 1024
)

// PathAttr holds the drawing attributes of a FILL or STROKE.
type PathAttr struct {
	Flags       int
	StrokeWidth float64
	MiterLimit  float64
}

// IsFill reports whether the attribute describes a fill.
func (a PathAttr) IsFill() bool { return a.Flags&PathFill != 0 }

// Join returns the join style bits.
func (a PathAttr) Join() int { return a.Flags & JoinMask }

// Cap returns the cap style bits.
func (a PathAttr) Cap() int { return a.Flags & CapMask }

// Shape is a shape waiting to be expanded.
type Shape struct {
	Type   int
	Params *StackRule
	World  Modification
}

// Area is the area of the shape in design units.
func (s *Shape) Area() float64 {
	return s.World.Area()
}

// FinishedShape is a leaf ready to draw.
type FinishedShape struct {
	Type   int
	Order  int
	World  Modification
	Bounds Bounds
	Path   *PathStorage // nil for primitives
	Attr   PathAttr
}

// Less orders finished shapes for drawing: by start time, then depth, then
// production order.
func (f *FinishedShape) Less(o *FinishedShape) bool {
	if f.World.Time.Begin != o.World.Time.Begin {
		return f.World.Time.Begin < o.World.Time.Begin
	}
	if f.World.Z.Tz != o.World.Z.Tz {
		return f.World.Z.Tz < o.World.Z.Tz
	}
	return f.Order < o.Order
}

// primitivePaths are the unit outlines of CIRCLE, SQUARE and TRIANGLE.
var primitivePaths = func() [primitiveCount]*PathStorage {
	var p [primitiveCount]*PathStorage

	c := NewPathStorage()
	c.MoveTo(Pt(0.5, 0))
	c.ArcTo(Pt(-0.5, 0), 0.5, 0.5, 0, false, false)
	c.ArcTo(Pt(0.5, 0), 0.5, 0.5, 0, false, false)
	c.Close(false)
	p[ShapeCircle] = c

	s := NewPathStorage()
	s.MoveTo(Pt(0.5, 0.5))
	s.LineTo(Pt(-0.5, 0.5))
	s.LineTo(Pt(-0.5, -0.5))
	s.LineTo(Pt(0.5, -0.5))
	s.Close(false)
	p[ShapeSquare] = s

	h := math.Sqrt(3) / 2
	t := NewPathStorage()
	t.MoveTo(Pt(0, h*2/3))
	t.LineTo(Pt(-0.5, -h/3))
	t.LineTo(Pt(0.5, -h/3))
	t.Close(false)
	p[ShapeTriangle] = t
	return p
}()

// PrimitivePath returns the unit outline of a primitive shape, or nil for
// FILL.
func PrimitivePath(t int) *PathStorage {
	if t < 0 || t >= ShapeFill {
		return nil
	}
	return primitivePaths[t]
}

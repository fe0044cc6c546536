package cfdg

import "math"

// SegmentOp identifies a path segment kind.
type SegmentOp uint8

const (
	OpMoveTo SegmentOp = iota
	OpLineTo
	OpQuadTo
	OpCubicTo
	OpClose
)

// Segment is a single element of a PathStorage. QuadTo uses Ctrl1, CubicTo
// uses Ctrl1 and Ctrl2; every op except Close ends at To.
type Segment struct {
	Op           SegmentOp
	Ctrl1, Ctrl2 Point
	To           Point
}

// PathStorage is an append-only vertex list in path-local coordinates.
type PathStorage struct {
	segs    []Segment
	start   Point // first point of the current subpath
	current Point
	ctrl    Point // last control point, for smooth curves
	open    bool  // a subpath is in progress
}

// NewPathStorage creates a new empty path.
func NewPathStorage() *PathStorage {
	return &PathStorage{segs: make([]Segment, 0, 16)}
}

// Len returns the number of segments.
func (p *PathStorage) Len() int {
	return len(p.segs)
}

// Segments returns the segments of the path.
func (p *PathStorage) Segments() []Segment {
	return p.segs
}

// CurrentPoint returns the current point.
func (p *PathStorage) CurrentPoint() Point {
	return p.current
}

// LastControl returns the control point a smooth curve would reflect.
func (p *PathStorage) LastControl() Point {
	return p.ctrl
}

// HasCurrentPoint reports whether a subpath is in progress.
func (p *PathStorage) HasCurrentPoint() bool {
	return p.open
}

// MoveTo starts a new subpath.
func (p *PathStorage) MoveTo(pt Point) {
	if n := len(p.segs); n > 0 && p.segs[n-1].Op == OpMoveTo {
		p.segs[n-1].To = pt
	} else {
		p.segs = append(p.segs, Segment{Op: OpMoveTo, To: pt})
	}
	p.start, p.current, p.ctrl = pt, pt, pt
	p.open = true
}

func (p *PathStorage) ensureStart() {
	if !p.open {
		p.MoveTo(p.current)
	}
}

// LineTo appends a straight segment.
func (p *PathStorage) LineTo(pt Point) {
	p.ensureStart()
	p.segs = append(p.segs, Segment{Op: OpLineTo, To: pt})
	p.current, p.ctrl = pt, pt
}

// QuadTo appends a quadratic Bézier segment.
func (p *PathStorage) QuadTo(c, pt Point) {
	p.ensureStart()
	p.segs = append(p.segs, Segment{Op: OpQuadTo, Ctrl1: c, To: pt})
	p.current, p.ctrl = pt, c
}

// CubicTo appends a cubic Bézier segment.
func (p *PathStorage) CubicTo(c1, c2, pt Point) {
	p.ensureStart()
	p.segs = append(p.segs, Segment{Op: OpCubicTo, Ctrl1: c1, Ctrl2: c2, To: pt})
	p.current, p.ctrl = pt, c2
}

// SmoothControl returns the reflection of the last control point about the
// current point.
func (p *PathStorage) SmoothControl() Point {
	return p.current.Add(p.current.Sub(p.ctrl))
}

// ArcTo appends an elliptical arc from the current point to pt, using the
// SVG endpoint parameterization. angle is the ellipse rotation in radians.
// The arc is emitted as cubic segments of at most 90 degrees each.
func (p *PathStorage) ArcTo(pt Point, rx, ry, angle float64, large, clockwise bool) {
	p.ensureStart()
	p0 := p.current
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx < 1e-12 || ry < 1e-12 || p0 == pt {
		p.LineTo(pt)
		return
	}

	sinPhi, cosPhi := math.Sincos(angle)
	dx, dy := (p0.X-pt.X)/2, (p0.Y-pt.Y)/2
	x1 := cosPhi*dx + sinPhi*dy
	y1 := -sinPhi*dx + cosPhi*dy

	if lambda := (x1*x1)/(rx*rx) + (y1*y1)/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	num := rx*rx*ry*ry - rx*rx*y1*y1 - ry*ry*x1*x1
	den := rx*rx*y1*y1 + ry*ry*x1*x1
	coef := 0.0
	if den > 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	// Counter-clockwise sweep in a y-up frame.
	sweep := !clockwise
	if large == sweep {
		coef = -coef
	}
	cx1 := coef * rx * y1 / ry
	cy1 := -coef * ry * x1 / rx
	cx := cosPhi*cx1 - sinPhi*cy1 + (p0.X+pt.X)/2
	cy := sinPhi*cx1 + cosPhi*cy1 + (p0.Y+pt.Y)/2

	theta1 := math.Atan2((y1-cy1)/ry, (x1-cx1)/rx)
	theta2 := math.Atan2((-y1-cy1)/ry, (-x1-cx1)/rx)
	delta := theta2 - theta1
	if sweep && delta < 0 {
		delta += 2 * math.Pi
	} else if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(delta) / (math.Pi / 2)))
	if n < 1 {
		n = 1
	}
	step := delta / float64(n)
	for i := 0; i < n; i++ {
		a1 := theta1 + float64(i)*step
		a2 := a1 + step
		p.arcSegment(cx, cy, rx, ry, sinPhi, cosPhi, a1, a2)
	}
	p.segs[len(p.segs)-1].To = pt
	p.current = pt
}

// arcSegment adds a single cubic approximation of an arc of at most 90
// degrees on a rotated ellipse.
func (p *PathStorage) arcSegment(cx, cy, rx, ry, sinPhi, cosPhi, a1, a2 float64) {
	alpha := 4.0 / 3.0 * math.Tan((a2-a1)/4)
	s1, c1 := math.Sincos(a1)
	s2, c2 := math.Sincos(a2)

	pt := func(x, y float64) Point {
		return Point{
			X: cx + cosPhi*rx*x - sinPhi*ry*y,
			Y: cy + sinPhi*rx*x + cosPhi*ry*y,
		}
	}
	ctrl1 := pt(c1-alpha*s1, s1+alpha*c1)
	ctrl2 := pt(c2+alpha*s2, s2-alpha*c2)
	p.CubicTo(ctrl1, ctrl2, pt(c2, s2))
}

// Close closes the current subpath. With align set, the last vertex is
// snapped onto the subpath's first vertex instead of adding a closing edge.
func (p *PathStorage) Close(align bool) {
	if !p.open {
		return
	}
	if align {
		if n := len(p.segs); n > 0 && p.segs[n-1].Op != OpMoveTo {
			p.segs[n-1].To = p.start
			if p.segs[n-1].Op == OpCubicTo {
				// keep the tangent direction of the final control
				p.segs[n-1].Ctrl2 = p.segs[n-1].Ctrl2.Add(p.start.Sub(p.current))
			}
		}
	}
	p.segs = append(p.segs, Segment{Op: OpClose})
	p.current, p.ctrl = p.start, p.start
	p.open = false
}

// EndSubpath finishes the current subpath without closing it.
func (p *PathStorage) EndSubpath() {
	p.open = false
}

// Clone creates a deep copy of the path.
func (p *PathStorage) Clone() *PathStorage {
	c := *p
	c.segs = make([]Segment, len(p.segs))
	copy(c.segs, p.segs)
	return &c
}

// Slice returns a path holding segments [from, to).
func (p *PathStorage) Slice(from, to int) *PathStorage {
	c := &PathStorage{segs: make([]Segment, 0, to-from)}
	c.segs = append(c.segs, p.segs[from:to]...)
	return c
}

// Equal reports whether two paths have identical segments.
func (p *PathStorage) Equal(o *PathStorage) bool {
	if len(p.segs) != len(o.segs) {
		return false
	}
	for i := range p.segs {
		if p.segs[i] != o.segs[i] {
			return false
		}
	}
	return true
}

// Transform returns a new path with every point mapped by m.
func (p *PathStorage) Transform(m Matrix) *PathStorage {
	c := p.Clone()
	for i := range c.segs {
		s := &c.segs[i]
		s.Ctrl1 = m.TransformPoint(s.Ctrl1)
		s.Ctrl2 = m.TransformPoint(s.Ctrl2)
		s.To = m.TransformPoint(s.To)
	}
	c.start = m.TransformPoint(c.start)
	c.current = m.TransformPoint(c.current)
	c.ctrl = m.TransformPoint(c.ctrl)
	return c
}

// curveSteps is the subdivision used when bounding curves.
const curveSteps = 8

// Bounds returns the bounds of segments [from, to) under m. Curves are
// sampled, which is tight enough for sizing the output.
func (p *PathStorage) Bounds(m Matrix, from, to int) Bounds {
	var b Bounds
	var cur Point
	for _, s := range p.segs[from:to] {
		switch s.Op {
		case OpMoveTo, OpLineTo:
			b.MergePoint(m.TransformPoint(s.To))
		case OpQuadTo:
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				b.MergePoint(m.TransformPoint(quadPoint(cur, s.Ctrl1, s.To, t)))
			}
		case OpCubicTo:
			for i := 1; i <= curveSteps; i++ {
				t := float64(i) / curveSteps
				b.MergePoint(m.TransformPoint(cubicPoint(cur, s.Ctrl1, s.Ctrl2, s.To, t)))
			}
		case OpClose:
			continue
		}
		cur = s.To
	}
	return b
}

func quadPoint(p0, c, p1 Point, t float64) Point {
	u := 1 - t
	return p0.Mul(u * u).Add(c.Mul(2 * u * t)).Add(p1.Mul(t * t))
}

func cubicPoint(p0, c1, c2, p1 Point, t float64) Point {
	u := 1 - t
	return p0.Mul(u * u * u).Add(c1.Mul(3 * u * u * t)).Add(c2.Mul(3 * u * t * t)).Add(p1.Mul(t * t * t))
}

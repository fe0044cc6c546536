package cfdg

// pathOpKind identifies a path operation.
type pathOpKind uint8

const (
	opMoveTo pathOpKind = iota
	opMoveRel
	opLineTo
	opLineRel
	opArcTo
	opArcRel
	opCurveTo
	opCurveRel
	opClosePoly
)

var pathOpNames = map[string]pathOpKind{
	"MOVETO":    opMoveTo,
	"MOVEREL":   opMoveRel,
	"LINETO":    opLineTo,
	"LINEREL":   opLineRel,
	"ARCTO":     opArcTo,
	"ARCREL":    opArcRel,
	"CURVETO":   opCurveTo,
	"CURVEREL":  opCurveRel,
	"CLOSEPOLY": opClosePoly,
}

// pathArgCounts lists the argument counts each operation accepts.
var pathArgCounts = [...][]int{
	opMoveTo:    {2},
	opMoveRel:   {2},
	opLineTo:    {2},
	opLineRel:   {2},
	opArcTo:     {3, 4, 5, 6},
	opArcRel:    {3, 4, 5, 6},
	opCurveTo:   {3, 4, 5, 6},
	opCurveRel:  {3, 4, 5, 6},
	opClosePoly: {0, 1},
}

// PathOp appends vertices to the path being built. Coordinates are
// mapped by the adjustment accumulated so far in the path rule.
type PathOp struct {
	repBase
	Name string
	Kind pathOpKind
	Args Expr // nil for CLOSEPOLY without flags
}

func (o *PathOp) argCount() int {
	if o.Args == nil {
		return 0
	}
	return o.Args.Size()
}

func (o *PathOp) compile(ph Phase, b *Builder) {
	if o.Args != nil {
		o.Args = o.Args.compile(ph, b)
	}
	if ph != PhaseTypeCheck {
		return
	}
	if o.Args != nil && o.Args.Type() == NoType {
		return
	}
	if o.Args != nil && o.Args.Type()&NumericType == 0 {
		b.errorf(o.span, "%s takes numeric arguments", o.Name)
		return
	}
	n := o.argCount()
	for _, want := range pathArgCounts[o.Kind] {
		if n == want {
			return
		}
	}
	b.errorf(o.span, "wrong number of arguments (%d) for %s", n, o.Name)
}

func (o *PathOp) Traverse(parent *Shape, _ bool, r *Renderer) {
	p := r.path
	if p == nil {
		runtimeError(o.span, "%s outside of a path", o.Name)
	}
	var a []float64
	if o.Args != nil {
		a = evalNumbers(r, o.Args)
	}
	p.beginOps()
	st := p.storage
	m := parent.World.Transform
	rel := o.Kind == opMoveRel || o.Kind == opLineRel || o.Kind == opArcRel || o.Kind == opCurveRel
	// point maps argument pair i into path space.
	point := func(i int) Point {
		v := Pt(a[i], a[i+1])
		if rel {
			return st.CurrentPoint().Add(m.TransformVector(v))
		}
		return m.TransformPoint(v)
	}

	switch o.Kind {
	case opMoveTo, opMoveRel:
		st.MoveTo(point(0))
	case opLineTo, opLineRel:
		st.LineTo(point(0))
	case opArcTo, opArcRel:
		o.arc(st, m, a, rel)
	case opCurveTo, opCurveRel:
		to := point(0)
		switch len(a) {
		case 3: // x y flags
			st.QuadTo(st.SmoothControl(), to)
		case 4:
			st.QuadTo(point(2), to)
		case 5: // x y x2 y2 flags
			st.CubicTo(st.SmoothControl(), point(2), to)
		default:
			st.CubicTo(point(2), point(4), to)
		}
	case opClosePoly:
		flags := 0
		if len(a) > 0 {
			flags = int(a[0])
		}
		st.Close(flags&Align != 0)
	}
}

// arc adds an elliptical arc. The endpoint parameterization is solved in
// the local frame so that the ellipse is transformed as a whole.
func (o *PathOp) arc(st *PathStorage, m Matrix, a []float64, rel bool) {
	var rx, ry, angle float64
	flags := 0
	switch len(a) {
	case 3, 4:
		rx, ry = a[2], a[2]
		if len(a) == 4 {
			flags = int(a[3])
		}
	default:
		rx, ry, angle = a[2], a[3], a[4]
		if len(a) == 6 {
			flags = int(a[5])
		}
	}
	inv := m.Invert()
	local := NewPathStorage()
	cur := inv.TransformPoint(st.CurrentPoint())
	local.MoveTo(cur)
	to := Pt(a[0], a[1])
	if rel {
		to = cur.Add(to)
	}
	local.ArcTo(to, rx, ry, radians(angle), flags&ArcLarge != 0, flags&ArcCW != 0)
	appendTransformed(st, local.Segments()[1:], m)
}

// appendTransformed appends segs to dst with every point mapped by m.
func appendTransformed(dst *PathStorage, segs []Segment, m Matrix) {
	for _, s := range segs {
		switch s.Op {
		case OpMoveTo:
			dst.MoveTo(m.TransformPoint(s.To))
		case OpLineTo:
			dst.LineTo(m.TransformPoint(s.To))
		case OpQuadTo:
			dst.QuadTo(m.TransformPoint(s.Ctrl1), m.TransformPoint(s.To))
		case OpCubicTo:
			dst.CubicTo(m.TransformPoint(s.Ctrl1), m.TransformPoint(s.Ctrl2), m.TransformPoint(s.To))
		case OpClose:
			dst.Close(false)
		}
	}
}

// PathCommand closes the run of operations before it with a FILL or
// STROKE.
type PathCommand struct {
	repBase
	Stroke bool
	Args   Expr // nil when no arguments are given
	Mod    *ModExpr
}

const (
	defaultStrokeWidth = 0.1
	defaultMiterLimit  = 4.0
)

func (c *PathCommand) name() string {
	if c.Stroke {
		return "STROKE"
	}
	return "FILL"
}

func (c *PathCommand) compile(ph Phase, b *Builder) {
	if c.Args != nil {
		c.Args = c.Args.compile(ph, b)
	}
	c.Mod = c.Mod.compile(ph, b).(*ModExpr)
	if ph != PhaseTypeCheck || c.Args == nil || c.Args.Type() == NoType {
		return
	}
	maxArgs := 1
	if c.Stroke {
		maxArgs = 3
	}
	if c.Args.Type()&NumericType == 0 || c.Args.Size() > maxArgs {
		b.errorf(c.span, "%s takes at most %d numeric arguments", c.name(), maxArgs)
	}
}

// attr evaluates the drawing attributes. FILL takes (flags); STROKE takes
// (width, flags, miter limit).
func (c *PathCommand) attr(r *Renderer) PathAttr {
	a := PathAttr{StrokeWidth: defaultStrokeWidth, MiterLimit: defaultMiterLimit}
	var v []float64
	if c.Args != nil {
		v = evalNumbers(r, c.Args)
	}
	if !c.Stroke {
		if len(v) > 0 {
			a.Flags = int(v[0])
		}
		a.Flags |= PathFill
		return a
	}
	if len(v) > 0 {
		a.StrokeWidth = v[0]
	}
	if len(v) > 1 {
		a.Flags = int(v[1]) &^ PathFill
	}
	if len(v) > 2 {
		a.MiterLimit = v[2]
	}
	return a
}

func (c *PathCommand) Traverse(parent *Shape, _ bool, r *Renderer) {
	p := r.path
	if p == nil {
		runtimeError(c.span, "%s outside of a path", c.name())
	}
	delta := parent.World
	delta.Transform = Identity()
	c.Mod.EvalMod(r, &delta, false)
	p.command(c.attr(r), delta)
}

// pathCommand is a recorded FILL or STROKE over segments [from, to).
type pathCommand struct {
	from, to int
	attr     PathAttr
	delta    Modification
}

// pathBuilder collects the output of one path rule.
type pathBuilder struct {
	storage  *PathStorage
	cmds     []pathCommand
	opsStart int
	afterCmd bool
}

func newPathBuilder() *pathBuilder {
	return &pathBuilder{storage: NewPathStorage()}
}

// beginOps starts a new segment run after a command.
func (p *pathBuilder) beginOps() {
	if p.afterCmd {
		p.storage.EndSubpath()
		p.opsStart = p.storage.Len()
		p.afterCmd = false
	}
}

func (p *pathBuilder) command(attr PathAttr, delta Modification) {
	if p.storage.Len() > p.opsStart {
		p.cmds = append(p.cmds, pathCommand{from: p.opsStart, to: p.storage.Len(), attr: attr, delta: delta})
	}
	p.afterCmd = true
}

// finish adds the implicit FILL of trailing operations.
func (p *pathBuilder) finish() {
	if !p.afterCmd && p.storage.Len() > p.opsStart {
		p.command(PathAttr{Flags: PathFill, StrokeWidth: defaultStrokeWidth, MiterLimit: defaultMiterLimit}, NewModification())
	}
}

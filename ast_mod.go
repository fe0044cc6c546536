package cfdg

import (
	"math"
	"sort"
	"strings"
)

// termKind identifies an adjustment term.
type termKind uint8

const (
	termTranslate termKind = iota // x, y, z
	termRotate
	termSize
	termSkew
	termFlip
	termTransform
	termHue
	termSat
	termBright
	termAlpha
	termTime
	termTimeScale
	termBlend
	termMod // an adjustment-valued expression
)

// termOrder is the position of each kind in canonical (unordered)
// adjustments. Kinds that commute share the last rank.
var termOrder = [...]int{
	termTranslate: 0,
	termRotate:    1,
	termSize:      2,
	termSkew:      3,
	termFlip:      4,
	termTransform: 5,
	termHue:       6,
	termSat:       6,
	termBright:    6,
	termAlpha:     6,
	termTime:      6,
	termTimeScale: 6,
	termBlend:     6,
	termMod:       6,
}

var termNames = map[string]termKind{
	"x": termTranslate, "y": termTranslate, "z": termTranslate,
	"r": termRotate, "rotate": termRotate,
	"s": termSize, "size": termSize,
	"skew": termSkew,
	"f":    termFlip, "flip": termFlip,
	"trans": termTransform, "transform": termTransform,
	"h": termHue, "hue": termHue,
	"sat": termSat, "saturation": termSat,
	"b": termBright, "brightness": termBright,
	"a": termAlpha, "alpha": termAlpha,
	"time":      termTime,
	"timescale": termTimeScale,
	"blend":     termBlend,
}

// ModTerm is one term of an adjustment.
type ModTerm struct {
	Kind      termKind
	Name      string
	Args      Expr // nil when the term has no arguments
	Target    bool
	UseTarget bool
	span      Span
}

func (t *ModTerm) argSize() int {
	if t.Args == nil {
		return 0
	}
	return t.Args.Size()
}

// typeCheck validates the argument count of the term.
func (t *ModTerm) typeCheck(b *Builder) bool {
	if t.Args != nil && t.Args.Type() == NoType {
		return false
	}
	if t.Kind == termMod {
		if t.Args.Type()&ModType == 0 {
			b.errorf(t.span, "expected an adjustment, found %s", t.Args.Type())
			return false
		}
		return true
	}
	if t.Args == nil || t.Args.Type()&NumericType == 0 {
		b.errorf(t.span, "adjustment %q needs numeric arguments", t.Name)
		return false
	}
	n := t.argSize()
	ok := true
	switch t.Kind {
	case termTranslate:
		ok = n >= 1 && n <= 3 && (t.Name == "x" || n == 1)
	case termSize:
		ok = n >= 1 && n <= 3
	case termSkew:
		ok = n == 2
	case termTransform:
		ok = n == 2 || n == 4 || n == 6
	case termTime:
		ok = n == 2
	default:
		ok = n == 1
	}
	if !ok {
		b.errorf(t.span, "wrong number of arguments (%d) for adjustment %q", n, t.Name)
		return false
	}
	if (t.Target || t.UseTarget) && (t.Kind < termHue || t.Kind > termAlpha) {
		b.errorf(t.span, "only color adjustments can use the target color")
		return false
	}
	return true
}

// delta computes the adjustment of a single term.
func (t *ModTerm) delta(r *Renderer) Modification {
	d := NewModification()
	if t.Kind == termMod {
		t.Args.EvalMod(r, &d, false)
		return d
	}
	v := evalNumbers(r, t.Args)
	switch t.Kind {
	case termTranslate:
		switch t.Name {
		case "x":
			d.Transform = Translate(v[0], 0)
			if len(v) > 1 {
				d.Transform.F = v[1]
			}
			if len(v) > 2 {
				d.Z.Tz = v[2]
			}
		case "y":
			d.Transform = Translate(0, v[0])
		case "z":
			d.Z.Tz = v[0]
		}
	case termRotate:
		d.Transform = Rotate(radians(v[0]))
	case termSize:
		switch len(v) {
		case 1:
			d.Transform = Scale(v[0], v[0])
		case 2:
			d.Transform = Scale(v[0], v[1])
		default:
			d.Transform = Scale(v[0], v[1])
			d.Z.Sz = v[2]
		}
	case termSkew:
		d.Transform = Skew(radians(v[0]), radians(v[1]))
	case termFlip:
		d.Transform = Flip(radians(v[0]))
	case termTransform:
		d.Transform = transformTerm(v)
	case termHue, termSat, termBright, termAlpha:
		t.colorDelta(&d, v[0])
	case termTime:
		d.Time = AffineTime{Begin: v[0], End: v[1], Scale: 1, Interval: true}
		if v[1] < v[0] {
			runtimeError(t.span, "time interval ends before it begins")
		}
	case termTimeScale:
		d.Time.Scale = v[0]
	case termBlend:
		if !isNaturalValue(v[0]) || v[0] >= float64(blendModeCount) {
			runtimeError(t.span, "unknown blend mode %s", formatFloat(v[0]))
		}
		d.Blend = BlendMode(v[0])
		d.Flags |= BlendSet
	}
	return d
}

// transformTerm builds the matrix of "trans": a translation (2 args), the
// map of the unit segment onto a segment (4 args) or of the unit triangle
// (0,0) (1,0) (0,1) onto three points (6 args).
func transformTerm(v []float64) Matrix {
	switch len(v) {
	case 2:
		return Translate(v[0], v[1])
	case 4:
		dx, dy := v[2]-v[0], v[3]-v[1]
		return Matrix{A: dx, B: -dy, C: v[0], D: dy, E: dx, F: v[1]}
	}
	return Matrix{
		A: v[2] - v[0], B: v[4] - v[0], C: v[0],
		D: v[3] - v[1], E: v[5] - v[1], F: v[1],
	}
}

func (t *ModTerm) colorDelta(d *Modification, v float64) {
	var valueBit, targetBit, useBit ColorAssignment
	var val, tgt *float64
	switch t.Kind {
	case termHue:
		valueBit, targetBit, useBit = HueSet, TargetHueSet, HueTarget
		val, tgt = &d.Color.H, &d.Target.H
	case termSat:
		valueBit, targetBit, useBit = SatSet, TargetSatSet, SatTarget
		val, tgt = &d.Color.S, &d.Target.S
	case termBright:
		valueBit, targetBit, useBit = BrightSet, TargetBrightSet, BrightTarget
		val, tgt = &d.Color.B, &d.Target.B
	default:
		valueBit, targetBit, useBit = AlphaSet, TargetAlphaSet, AlphaTarget
		val, tgt = &d.Color.A, &d.Target.A
	}
	if t.Kind != termHue || t.UseTarget {
		v = math.Max(-1, math.Min(1, v))
	}
	switch {
	case t.Target:
		*tgt = v
		d.Flags |= targetBit
	case t.UseTarget:
		*val = v
		d.Flags |= valueBit | useBit
	default:
		*val = v
		d.Flags |= valueBit
	}
}

func (t *ModTerm) entropy(e *strings.Builder) {
	if t.Target {
		e.WriteByte('|')
	}
	e.WriteString(t.Name)
	if t.Args != nil {
		t.Args.Entropy(e)
	}
	if t.UseTarget {
		e.WriteByte('|')
	}
}

// ModExpr is an adjustment: "[terms]" applied in canonical order or
// "[[terms]]" applied as written. Once every term is constant the whole
// adjustment folds into Value.
type ModExpr struct {
	exprBase
	Ordered bool
	Terms   []*ModTerm
	Value   *Modification // non-nil once folded
}

func newModExpr(span Span, ordered bool, terms []*ModTerm) *ModExpr {
	m := &ModExpr{Ordered: ordered, Terms: terms}
	m.span = span
	m.typ = ModType
	m.size = 1
	return m
}

// NewModLiteral wraps a constant adjustment.
func NewModLiteral(span Span, v Modification) *ModExpr {
	m := newModExpr(span, true, nil)
	m.Value = &v
	m.constant = true
	m.locality = PureLocal
	return m
}

func (m *ModExpr) compile(ph Phase, b *Builder) Expr {
	if m.Value != nil {
		return m
	}
	for _, t := range m.Terms {
		if t.Args != nil {
			t.Args = t.Args.compile(ph, b)
		}
	}
	switch ph {
	case PhaseTypeCheck:
		m.constant = true
		m.locality = PureLocal
		for _, t := range m.Terms {
			if !t.typeCheck(b) {
				m.invalidate()
				return m
			}
			if t.Args != nil {
				m.constant = m.constant && t.Args.IsConstant()
				m.locality = combineLocality(m.locality, t.Args.Locality())
			}
		}
		m.typ = ModType
		m.size = 1
	case PhaseSimplify:
		if !m.Ordered {
			sort.SliceStable(m.Terms, func(i, j int) bool {
				return termOrder[m.Terms[i].Kind] < termOrder[m.Terms[j].Kind]
			})
		}
		var v Modification
		var conflict bool
		if tryFold(func() { v, conflict = m.accumulate(nil) }) {
			if conflict {
				b.errorf(m.span, "conflicting color adjustments")
				return m
			}
			m.Value = &v
			m.constant = true
			m.locality = PureLocal
		}
	}
	return m
}

// accumulate merges the terms into one adjustment. conflict reports
// incompatible color terms.
func (m *ModExpr) accumulate(r *Renderer) (v Modification, conflict bool) {
	if m.Value != nil {
		return *m.Value, false
	}
	v = NewModification()
	for _, t := range m.Terms {
		d := t.delta(r)
		if !v.Merge(&d) {
			conflict = true
		}
	}
	return v, conflict
}

func (m *ModExpr) EvalMod(r *Renderer, dst *Modification, shapeDest bool) {
	if m.typ != ModType {
		runtimeError(m.span, "invalid adjustment")
	}
	v, conflict := m.accumulate(r)
	if conflict {
		runtimeError(m.span, "conflicting color adjustments")
	}
	if shapeDest {
		dst.Concat(&v)
		return
	}
	if !dst.Merge(&v) {
		runtimeError(m.span, "conflicting color adjustments")
	}
}

func (m *ModExpr) Entropy(e *strings.Builder) {
	e.WriteByte('[')
	for _, t := range m.Terms {
		t.entropy(e)
	}
	e.WriteByte(']')
}

// IsEmpty reports whether the adjustment has no terms.
func (m *ModExpr) IsEmpty() bool {
	return len(m.Terms) == 0 && (m.Value == nil || m.Value.IsIdentity())
}

// foldMod evaluates a constant adjustment-valued node into a literal, or
// returns nil when evaluation needs a renderer.
func foldMod(e Expr) Expr {
	var v Modification
	if !tryFold(func() {
		v = NewModification()
		e.EvalMod(nil, &v, false)
	}) {
		return nil
	}
	lit := NewModLiteral(e.Span(), v)
	if src, ok := e.(*ModExpr); ok {
		lit.Terms = src.Terms
	}
	return lit
}

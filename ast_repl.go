package cfdg

import (
	"math"
	"sort"
	"strings"

	"github.com/gogpu/cfdg/internal/rand64"
)

// Replacement is a statement of a rule body. Traverse runs it against the
// shape being expanded; inPath is set inside path rules, where
// adjustments accumulate by merging instead of concatenation.
type Replacement interface {
	Span() Span
	Traverse(parent *Shape, inPath bool, r *Renderer)
	compile(ph Phase, b *Builder)
}

type repBase struct {
	span Span
}

func (n *repBase) Span() Span { return n.span }

// nodeSeed hashes the source of a replacement into the seed it mixes into
// its children.
func nodeSeed(write func(e *strings.Builder)) rand64.Rand64 {
	var sb strings.Builder
	write(&sb)
	var s rand64.Rand64
	s.XorString(sb.String())
	return s
}

// RepContainer is a statement list. Stack slots pushed by its statements
// are released when it finishes.
type RepContainer struct {
	repBase
	Body []Replacement
	// PathOps reports that the body contains path operations.
	PathOps bool
}

func newContainer(span Span) *RepContainer {
	return &RepContainer{repBase: repBase{span: span}}
}

func (c *RepContainer) Traverse(parent *Shape, inPath bool, r *Renderer) {
	base := r.st.Size()
	for _, rep := range c.Body {
		rep.Traverse(parent, inPath, r)
	}
	r.st.Truncate(base)
}

func (c *RepContainer) compile(ph Phase, b *Builder) {
	if ph == PhaseTypeCheck {
		b.pushScope()
		defer b.popScope()
	}
	for _, rep := range c.Body {
		rep.compile(ph, b)
	}
}

// ShapeReplacement emits a child shape: name(args) [adjustment].
type ShapeReplacement struct {
	repBase
	Spec Expr
	Mod  *ModExpr
	seed rand64.Rand64
}

func (s *ShapeReplacement) compile(ph Phase, b *Builder) {
	s.Spec = s.Spec.compile(ph, b)
	s.Mod = s.Mod.compile(ph, b).(*ModExpr)
	if ph == PhaseTypeCheck {
		if s.Spec.Type() != NoType && s.Spec.Type()&RuleType == 0 {
			b.errorf(s.span, "expected a shape, found %s", s.Spec.Type())
		}
		s.seed = nodeSeed(func(e *strings.Builder) {
			s.Spec.Entropy(e)
			s.Mod.Entropy(e)
		})
	}
}

func (s *ShapeReplacement) Traverse(parent *Shape, _ bool, r *Renderer) {
	rule := s.Spec.EvalRule(r)
	child := Shape{Type: rule.Shape, Params: rule, World: parent.World}
	child.World.Seed.Add(s.seed)
	child.World.Seed.Bump()
	parent.World.Seed.Bump()
	s.Mod.EvalMod(r, &child.World, true)
	r.processChild(&child, s.span)
}

// Loop runs its body for an index from start up to (not including) end.
type Loop struct {
	repBase
	Var     string
	Args    []Expr
	Mod     *ModExpr
	Body    *RepContainer
	Finally *RepContainer // nil if absent
	index   *Binding
	seed    rand64.Rand64
}

func (l *Loop) compile(ph Phase, b *Builder) {
	for i := range l.Args {
		l.Args[i] = l.Args[i].compile(ph, b)
	}
	if ph == PhaseTypeCheck {
		b.pushScope()
		defer b.popScope()
		natural := true
		for _, a := range l.Args {
			if a.Type() == NoType {
				continue
			}
			if a.Type()&NumericType == 0 || a.Size() != 1 {
				b.errorf(a.Span(), "loop arguments must be single numbers")
			}
			natural = natural && a.IsNatural()
		}
		if len(l.Args) == 3 && l.Args[2].IsConstant() {
			if step, ok := b.constNumber(l.Args[2]); ok && step == 0 {
				b.errorf(l.Args[2].Span(), "loop step is zero")
			}
		}
		l.index = b.declareLocal(l.Var, NumericType, 1, natural, l.span)
		l.seed = nodeSeed(func(e *strings.Builder) {
			e.WriteString("loop")
			for _, a := range l.Args {
				a.Entropy(e)
			}
			l.Mod.Entropy(e)
		})
	}
	l.Mod = l.Mod.compile(ph, b).(*ModExpr)
	l.Body.compile(ph, b)
	if l.Finally != nil {
		l.Finally.compile(ph, b)
	}
}

// bounds evaluates start, end and step.
func (l *Loop) bounds(r *Renderer) (start, end, step float64) {
	start, step = 0, 1
	switch len(l.Args) {
	case 1:
		end = evalScalar(r, l.Args[0])
	case 2:
		start, end = evalScalar(r, l.Args[0]), evalScalar(r, l.Args[1])
	default:
		start, end, step = evalScalar(r, l.Args[0]), evalScalar(r, l.Args[1]), evalScalar(r, l.Args[2])
	}
	if step == 0 || math.IsNaN(step) {
		runtimeError(l.span, "loop step is zero")
	}
	return start, end, step
}

func (l *Loop) Traverse(parent *Shape, inPath bool, r *Renderer) {
	start, end, step := l.bounds(r)
	loop := *parent
	base := r.st.Size()
	r.st.Push(NumberItem(start))
	for i := start; step > 0 && i < end || step < 0 && i > end; i += step {
		r.st.At(l.index.Offset, false).Number = i
		l.Body.Traverse(&loop, inPath, r)
		l.Mod.EvalMod(r, &loop.World, !inPath)
		loop.World.Seed.Add(l.seed)
		loop.World.Seed.Bump()
		r.poll()
	}
	if l.Finally != nil {
		l.Finally.Traverse(&loop, inPath, r)
	}
	r.st.Truncate(base)
	parent.World.Seed.Bump()
}

// If runs one of two bodies.
type If struct {
	repBase
	Cond Expr
	Then *RepContainer
	Else *RepContainer // nil if absent
}

func (n *If) compile(ph Phase, b *Builder) {
	n.Cond = n.Cond.compile(ph, b)
	if ph == PhaseTypeCheck && n.Cond.Type() != NoType &&
		(n.Cond.Type()&NumericType == 0 || n.Cond.Size() != 1) {
		b.errorf(n.Cond.Span(), "if condition must be a single number")
	}
	n.Then.compile(ph, b)
	if n.Else != nil {
		n.Else.compile(ph, b)
	}
}

func (n *If) Traverse(parent *Shape, inPath bool, r *Renderer) {
	if evalScalar(r, n.Cond) != 0 {
		n.Then.Traverse(parent, inPath, r)
	} else if n.Else != nil {
		n.Else.Traverse(parent, inPath, r)
	}
}

// switchCase is an inclusive range of selector values.
type switchCase struct {
	lo, hi   float64
	low, hiE Expr
	body     *RepContainer
}

// Switch dispatches on the floor of its selector.
type Switch struct {
	repBase
	Selector Expr
	Cases    []*switchCase
	Else     *RepContainer // nil if absent
	overlap  bool
}

func (s *Switch) compile(ph Phase, b *Builder) {
	s.Selector = s.Selector.compile(ph, b)
	if ph == PhaseTypeCheck {
		if s.Selector.Type() != NoType && (s.Selector.Type()&NumericType == 0 || s.Selector.Size() != 1) {
			b.errorf(s.Selector.Span(), "switch selector must be a single number")
		}
		for _, c := range s.Cases {
			c.low = c.low.compile(ph, b)
			c.hiE = c.hiE.compile(ph, b)
			lo, ok1 := b.constNumber(c.low)
			hi, ok2 := b.constNumber(c.hiE)
			if !ok1 || !ok2 {
				b.errorf(c.low.Span(), "case values must be constant numbers")
				continue
			}
			c.lo, c.hi = math.Floor(lo), math.Floor(hi)
			if c.hi < c.lo {
				b.errorf(c.low.Span(), "case range %s..%s is empty", formatFloat(lo), formatFloat(hi))
			}
		}
		sort.SliceStable(s.Cases, func(i, j int) bool { return s.Cases[i].lo < s.Cases[j].lo })
		s.overlap = b.g.AllowOverlap
		for i := 1; i < len(s.Cases); i++ {
			if s.Cases[i].lo <= s.Cases[i-1].hi && !s.overlap {
				b.errorf(s.Cases[i].low.Span(), "case value %s overlaps an earlier case", formatFloat(s.Cases[i].lo))
			}
		}
	}
	// Several values of one case share a body.
	done := make(map[*RepContainer]bool, len(s.Cases))
	for _, c := range s.Cases {
		if !done[c.body] {
			done[c.body] = true
			c.body.compile(ph, b)
		}
	}
	if s.Else != nil {
		s.Else.compile(ph, b)
	}
}

// find returns the body for selector value v, or nil.
func (s *Switch) find(v float64) *RepContainer {
	if s.overlap {
		for _, c := range s.Cases {
			if c.lo <= v && v <= c.hi {
				return c.body
			}
		}
		return nil
	}
	i := sort.Search(len(s.Cases), func(i int) bool { return s.Cases[i].hi >= v })
	if i < len(s.Cases) && s.Cases[i].lo <= v {
		return s.Cases[i].body
	}
	return nil
}

func (s *Switch) Traverse(parent *Shape, inPath bool, r *Renderer) {
	body := s.find(math.Floor(evalScalar(r, s.Selector)))
	if body == nil {
		body = s.Else
	}
	if body != nil {
		body.Traverse(parent, inPath, r)
	}
}

// Transform runs its body once per adjustment. A clone gives every copy
// the same random seed.
type Transform struct {
	repBase
	Clone bool
	Mods  []*ModExpr
	Body  *RepContainer
}

func (t *Transform) compile(ph Phase, b *Builder) {
	for i, m := range t.Mods {
		t.Mods[i] = m.compile(ph, b).(*ModExpr)
	}
	t.Body.compile(ph, b)
}

func (t *Transform) Traverse(parent *Shape, inPath bool, r *Renderer) {
	saved := parent.World.Seed
	for _, m := range t.Mods {
		c := *parent
		if t.Clone {
			c.World.Seed = saved
		}
		m.EvalMod(r, &c.World, !inPath)
		t.Body.Traverse(&c, inPath, r)
		if !t.Clone {
			parent.World.Seed = c.World.Seed
		}
	}
	if t.Clone {
		parent.World.Seed = saved
		parent.World.Seed.Bump()
	}
}

// Define pushes a local definition for the rest of its container.
type Define struct {
	repBase
	Name    string
	Value   Expr
	binding *Binding
}

func (d *Define) compile(ph Phase, b *Builder) {
	d.Value = d.Value.compile(ph, b)
	if ph == PhaseTypeCheck {
		typ := d.Value.Type() &^ FlagType
		if typ == NoType {
			typ = NumericType
		}
		d.binding = b.declareLocal(d.Name, typ, slotCount(d.Value), d.Value.IsNatural(), d.span)
	}
}

func (d *Define) Traverse(_ *Shape, _ bool, r *Renderer) {
	pushValue(r, d.Value)
}

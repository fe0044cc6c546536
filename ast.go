package cfdg

import (
	"math"
	"strings"
)

// Phase is a compile pass over the AST.
type Phase int

const (
	// PhaseTypeCheck resolves names, assigns stack offsets and checks
	// types and arity.
	PhaseTypeCheck Phase = iota
	// PhaseSimplify folds constants and fixes adjustment term order.
	PhaseSimplify
)

// ExprType is a bitmask of the kinds of value an expression can produce.
type ExprType uint8

const (
	NoType      ExprType = 0
	NumericType ExprType = 1
	ModType     ExprType = 2
	RuleType    ExprType = 4
	FlagType    ExprType = 8
	ReuseType   ExprType = 16
)

func (t ExprType) String() string {
	switch {
	case t&NumericType != 0:
		return "number"
	case t&ModType != 0:
		return "adjustment"
	case t&RuleType != 0:
		return "shape"
	case t&ReuseType != 0:
		return "parameter reuse"
	}
	return "nothing"
}

// Locality classifies what an expression's value depends on.
type Locality uint8

const (
	LocalityUnknown Locality = iota
	// PureLocal values depend only on literals and constants.
	PureLocal
	// PureNonlocal values read parameters or globals but draw no random
	// numbers.
	PureNonlocal
	// ImpureNonlocal values draw random numbers or read the frame time.
	ImpureNonlocal
)

func combineLocality(a, b Locality) Locality {
	return max(a, b)
}

// Expr is an AST expression. The set of implementations is closed: every
// node type lives in this package.
//
// Evaluate writes the numeric tuple into out and returns its length, or -1
// when the expression is not numeric. A nil out only queries the length.
// EvalMod folds an adjustment into m, by concatenation when m is a shape's
// world state (shapeDest) and by merging otherwise. EvalRule returns a
// bound shape. Entropy appends the source text that seeds replacements.
type Expr interface {
	Span() Span
	Type() ExprType
	IsConstant() bool
	IsNatural() bool
	Locality() Locality
	Size() int

	Evaluate(r *Renderer, out []float64) int
	EvalMod(r *Renderer, m *Modification, shapeDest bool)
	EvalRule(r *Renderer) *StackRule
	Entropy(e *strings.Builder)

	compile(ph Phase, b *Builder) Expr
}

// exprBase holds the facts every expression node carries.
type exprBase struct {
	span     Span
	typ      ExprType
	constant bool
	natural  bool
	locality Locality
	size     int
}

func (e *exprBase) Span() Span         { return e.span }
func (e *exprBase) Type() ExprType     { return e.typ }
func (e *exprBase) IsConstant() bool   { return e.constant }
func (e *exprBase) IsNatural() bool    { return e.natural }
func (e *exprBase) Locality() Locality { return e.locality }
func (e *exprBase) Size() int          { return e.size }

func (e *exprBase) Evaluate(*Renderer, []float64) int { return -1 }

func (e *exprBase) EvalMod(*Renderer, *Modification, bool) {
	runtimeError(e.span, "expression is not an adjustment")
}

func (e *exprBase) EvalRule(*Renderer) *StackRule {
	runtimeError(e.span, "expression is not a shape")
	return nil
}

// invalidate marks a node that failed to type check so parents do not
// report the same problem again.
func (e *exprBase) invalidate() {
	e.typ = NoType
	e.constant = false
	e.size = 0
}

// evalNumbers evaluates a numeric expression into a fresh slice.
func evalNumbers(r *Renderer, e Expr) []float64 {
	n := e.Size()
	out := make([]float64, n)
	if e.Evaluate(r, out) != n {
		runtimeError(e.Span(), "error evaluating numeric expression")
	}
	return out
}

// evalScalar evaluates an expression that must produce one number.
func evalScalar(r *Renderer, e Expr) float64 {
	var v [1]float64
	if e.Evaluate(r, v[:]) != 1 {
		runtimeError(e.Span(), "expected a single number")
	}
	return v[0]
}

// maxInteger is the largest integer a float64 holds exactly.
const maxInteger = 1 << 53

func isNaturalValue(v float64) bool {
	return v >= 0 && v <= maxInteger && v == math.Floor(v)
}

// Real is a numeric literal or a folded constant tuple.
type Real struct {
	exprBase
	Values []float64
	text   string
}

// NewReal makes a constant node holding vals.
func NewReal(span Span, text string, vals ...float64) *Real {
	n := &Real{Values: vals, text: text}
	n.span = span
	n.typ = NumericType
	n.constant = true
	n.locality = PureLocal
	n.size = len(vals)
	n.natural = true
	for _, v := range vals {
		if !isNaturalValue(v) {
			n.natural = false
		}
	}
	return n
}

func (n *Real) Evaluate(_ *Renderer, out []float64) int {
	if out != nil {
		copy(out, n.Values)
	}
	return len(n.Values)
}

func (n *Real) Entropy(e *strings.Builder) {
	if n.text != "" {
		e.WriteString(n.text)
		return
	}
	for _, v := range n.Values {
		e.WriteString(formatFloat(v))
	}
}

func (n *Real) compile(Phase, *Builder) Expr { return n }

// Tuple concatenates numeric expressions into one vector.
type Tuple struct {
	exprBase
	Elems []Expr
}

func newTuple(span Span, elems []Expr) *Tuple {
	t := &Tuple{Elems: elems}
	t.span = span
	return t
}

func (t *Tuple) compile(ph Phase, b *Builder) Expr {
	for i := range t.Elems {
		t.Elems[i] = t.Elems[i].compile(ph, b)
	}
	switch ph {
	case PhaseTypeCheck:
		t.typ = NumericType
		t.constant, t.natural = true, true
		t.size = 0
		for _, e := range t.Elems {
			if e.Type()&NumericType == 0 {
				if e.Type() != NoType {
					b.errorf(e.Span(), "vector elements must be numbers, not %s", e.Type())
				}
				t.invalidate()
				return t
			}
			t.size += e.Size()
			t.constant = t.constant && e.IsConstant()
			t.natural = t.natural && e.IsNatural()
			t.locality = combineLocality(t.locality, e.Locality())
		}
	case PhaseSimplify:
		if t.constant {
			if f := foldNumeric(t); f != nil {
				return f
			}
		}
	}
	return t
}

func (t *Tuple) Evaluate(r *Renderer, out []float64) int {
	if t.typ&NumericType == 0 {
		return -1
	}
	if out == nil {
		return t.size
	}
	pos := 0
	for _, e := range t.Elems {
		n := e.Evaluate(r, out[pos:pos+e.Size()])
		if n < 0 {
			return -1
		}
		pos += n
	}
	return pos
}

func (t *Tuple) Entropy(e *strings.Builder) {
	for _, el := range t.Elems {
		el.Entropy(e)
	}
	e.WriteByte(',')
}

// foldNumeric evaluates a constant numeric node without a renderer and
// returns the literal, or nil if evaluation had to be deferred.
func foldNumeric(e Expr) Expr {
	var vals []float64
	if !tryFold(func() { vals = evalNumbers(nil, e) }) {
		return nil
	}
	r := NewReal(e.Span(), "", vals...)
	var sb strings.Builder
	e.Entropy(&sb)
	r.text = sb.String()
	return r
}

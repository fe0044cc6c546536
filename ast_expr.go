package cfdg

import (
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/cfdg/syntax"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Binding is what a name resolves to: a stack slot holding a parameter,
// loop index, local or global definition.
type Binding struct {
	Name    string
	Type    ExprType
	Size    int // slots: vector length for numbers, 1 otherwise
	Natural bool
	Offset  int
	Global  bool
	Span    Span

	// value is the definition of a global, used for constant folding.
	value Expr
}

// Variable reads a bound name.
type Variable struct {
	exprBase
	Name    string
	ns      string // namespace of the file the reference appears in
	binding *Binding
}

func newVariable(span Span, name, ns string) *Variable {
	v := &Variable{Name: name, ns: ns}
	v.span = span
	return v
}

func (v *Variable) compile(ph Phase, b *Builder) Expr {
	switch ph {
	case PhaseTypeCheck:
		if v.binding == nil {
			v.binding = b.lookup(v.Name, v.ns)
		}
		if v.binding == nil {
			// Shape names and CF:: constants are values too.
			if e := b.resolveName(v.span, v.Name, v.ns); e != nil {
				return e.compile(ph, b)
			}
			b.errorf(v.span, "unknown name %q%s", v.Name, b.suggestName(v.Name))
			v.invalidate()
			return v
		}
		bd := v.binding
		v.typ = bd.Type
		v.size = bd.Size
		v.natural = bd.Natural
		v.locality = PureNonlocal
		if bd.Global && bd.value != nil && bd.value.IsConstant() {
			v.constant = true
			v.locality = PureLocal
		}
	case PhaseSimplify:
		if v.constant && v.typ&NumericType != 0 {
			if f := foldNumeric(v); f != nil {
				return f
			}
		}
		if v.constant && v.typ&ModType != 0 {
			if f := foldMod(v); f != nil {
				return f
			}
		}
	}
	return v
}

func (v *Variable) Evaluate(r *Renderer, out []float64) int {
	if v.typ&NumericType == 0 {
		return -1
	}
	if out == nil {
		return v.size
	}
	if r == nil {
		if v.constant {
			return v.binding.value.Evaluate(nil, out)
		}
		panic(deferSignal{})
	}
	r.st.Numbers(v.binding.Offset, v.binding.Global, out[:v.size])
	return v.size
}

func (v *Variable) EvalMod(r *Renderer, m *Modification, shapeDest bool) {
	if v.typ&ModType == 0 {
		runtimeError(v.span, "%q is not an adjustment", v.Name)
	}
	if r == nil {
		if v.constant {
			v.binding.value.EvalMod(nil, m, shapeDest)
			return
		}
		panic(deferSignal{})
	}
	it := r.st.At(v.binding.Offset, v.binding.Global)
	if shapeDest {
		m.Concat(it.Mod)
	} else {
		m.Merge(it.Mod)
	}
}

func (v *Variable) EvalRule(r *Renderer) *StackRule {
	if v.typ&RuleType == 0 {
		runtimeError(v.span, "%q is not a shape", v.Name)
	}
	if r == nil {
		if v.constant {
			return v.binding.value.EvalRule(nil)
		}
		panic(deferSignal{})
	}
	return r.st.At(v.binding.Offset, v.binding.Global).Rule
}

func (v *Variable) Entropy(e *strings.Builder) { e.WriteString(v.Name) }

// Operator is a unary or binary operation. Y is nil for unary operators.
type Operator struct {
	exprBase
	Op   syntax.Kind
	X, Y Expr
}

func newOperator(span Span, op syntax.Kind, x, y Expr) *Operator {
	o := &Operator{Op: op, X: x, Y: y}
	o.span = span
	return o
}

func (o *Operator) compile(ph Phase, b *Builder) Expr {
	o.X = o.X.compile(ph, b)
	if o.Y != nil {
		o.Y = o.Y.compile(ph, b)
	}
	switch ph {
	case PhaseTypeCheck:
		o.typeCheck(b)
	case PhaseSimplify:
		if o.constant {
			if f := foldNumeric(o); f != nil {
				return f
			}
		}
	}
	return o
}

func (o *Operator) typeCheck(b *Builder) {
	if o.X.Type() == NoType || o.Y != nil && o.Y.Type() == NoType {
		o.invalidate()
		return
	}
	if o.X.Type()&NumericType == 0 || o.Y != nil && o.Y.Type()&NumericType == 0 {
		b.errorf(o.span, "operator %q needs numeric operands", o.Op.String())
		o.invalidate()
		return
	}
	o.typ = NumericType
	o.constant = o.X.IsConstant()
	o.locality = o.X.Locality()
	if o.Y != nil {
		o.constant = o.constant && o.Y.IsConstant()
		o.locality = combineLocality(o.locality, o.Y.Locality())
	}
	xs := o.X.Size()
	if o.Y == nil {
		switch o.Op {
		case syntax.Not:
			if xs != 1 {
				b.errorf(o.span, "operator \"!\" needs a scalar operand")
			}
			o.size = 1
			o.natural = true
		case syntax.Plus:
			o.size = xs
			o.natural = o.X.IsNatural()
		default:
			o.size = xs
		}
		return
	}
	ys := o.Y.Size()
	bothNatural := o.X.IsNatural() && o.Y.IsNatural()
	switch o.Op {
	case syntax.Plus, syntax.Minus:
		if xs != ys {
			b.errorf(o.span, "operands of %q have different lengths (%d and %d)", o.Op.String(), xs, ys)
		}
		o.size = xs
		o.natural = bothNatural && o.Op == syntax.Plus
	case syntax.Star, syntax.Slash:
		switch {
		case xs == ys && xs == 1:
			o.size = 1
		case xs == 1:
			o.size = ys
		case ys == 1:
			o.size = xs
		default:
			b.errorf(o.span, "operator %q needs a scalar operand", o.Op.String())
			o.size = xs
		}
		if o.Op == syntax.Slash && xs == 1 && ys > 1 {
			b.errorf(o.span, "cannot divide a scalar by a vector")
		}
		o.natural = bothNatural && o.Op == syntax.Star
	case syntax.Caret, syntax.Under:
		if xs != 1 || ys != 1 {
			b.errorf(o.span, "operator %q needs scalar operands", o.Op.String())
		}
		o.size = 1
		o.natural = bothNatural
	case syntax.Eq, syntax.Ne:
		if xs != ys {
			b.errorf(o.span, "operands of %q have different lengths (%d and %d)", o.Op.String(), xs, ys)
		}
		o.size = 1
		o.natural = true
	case syntax.Lt, syntax.Gt, syntax.Le, syntax.Ge, syntax.AndAnd, syntax.OrOr, syntax.XorXor:
		if xs != 1 || ys != 1 {
			b.errorf(o.span, "operator %q needs scalar operands", o.Op.String())
		}
		o.size = 1
		o.natural = true
	case syntax.Range:
		b.errorf(o.span, "a range is only allowed as a switch case")
		o.invalidate()
	default:
		b.errorf(o.span, "unknown operator %q", o.Op.String())
		o.invalidate()
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (o *Operator) Evaluate(r *Renderer, out []float64) int {
	if o.typ&NumericType == 0 {
		return -1
	}
	if out == nil {
		return o.size
	}
	var xbuf [8]float64
	x := scratch(xbuf[:], o.X.Size())
	if o.X.Evaluate(r, x) < 0 {
		return -1
	}
	if o.Y == nil {
		switch o.Op {
		case syntax.Minus:
			for i, v := range x {
				out[i] = -v
			}
		case syntax.Not:
			out[0] = boolValue(x[0] == 0)
		default:
			copy(out, x)
		}
		return o.size
	}

	// Short-circuit logic.
	switch o.Op {
	case syntax.AndAnd:
		if x[0] == 0 {
			out[0] = 0
			return 1
		}
		out[0] = boolValue(evalScalar(r, o.Y) != 0)
		return 1
	case syntax.OrOr:
		if x[0] != 0 {
			out[0] = 1
			return 1
		}
		out[0] = boolValue(evalScalar(r, o.Y) != 0)
		return 1
	}

	var ybuf [8]float64
	y := scratch(ybuf[:], o.Y.Size())
	if o.Y.Evaluate(r, y) < 0 {
		return -1
	}
	switch o.Op {
	case syntax.Plus:
		for i := range out[:o.size] {
			out[i] = x[i] + y[i]
		}
	case syntax.Minus:
		for i := range out[:o.size] {
			out[i] = x[i] - y[i]
		}
	case syntax.Star:
		for i := range out[:o.size] {
			out[i] = broadcast(x, i) * broadcast(y, i)
		}
	case syntax.Slash:
		for i := range out[:o.size] {
			out[i] = broadcast(x, i) / broadcast(y, i)
		}
	case syntax.Under:
		out[0] = math.Max(0, x[0]-y[0])
	case syntax.Caret:
		out[0] = o.power(x[0], y[0])
	case syntax.Eq, syntax.Ne:
		eq := true
		for i := range x {
			if x[i] != y[i] {
				eq = false
			}
		}
		out[0] = boolValue(eq == (o.Op == syntax.Eq))
	case syntax.Lt:
		out[0] = boolValue(x[0] < y[0])
	case syntax.Gt:
		out[0] = boolValue(x[0] > y[0])
	case syntax.Le:
		out[0] = boolValue(x[0] <= y[0])
	case syntax.Ge:
		out[0] = boolValue(x[0] >= y[0])
	case syntax.XorXor:
		out[0] = boolValue((x[0] != 0) != (y[0] != 0))
	default:
		return -1
	}
	if o.natural && r != nil {
		r.checkNatural(out[0], o.span)
	}
	return o.size
}

// power raises x to y, exactly when both are naturals.
func (o *Operator) power(x, y float64) float64 {
	if o.natural && isNaturalValue(x) && isNaturalValue(y) {
		if v, ok := intPow(uint64(x), uint64(y)); ok {
			return float64(v)
		}
	}
	return math.Pow(x, y)
}

// intPow computes base^exp by repeated squaring, failing on overflow past
// the exact float64 integer range.
func intPow(base, exp uint64) (uint64, bool) {
	result := uint64(1)
	for exp > 0 {
		if exp&1 != 0 {
			if base != 0 && result > maxInteger/base {
				return 0, false
			}
			result *= base
		}
		exp >>= 1
		if exp > 0 {
			if base > 0 && base > maxInteger/base {
				return 0, false
			}
			base *= base
		}
	}
	return result, true
}

func broadcast(v []float64, i int) float64 {
	if len(v) == 1 {
		return v[0]
	}
	return v[i]
}

// scratch returns buf[:n] or a fresh slice when n does not fit.
func scratch(buf []float64, n int) []float64 {
	if n <= len(buf) {
		return buf[:n]
	}
	return make([]float64, n)
}

func (o *Operator) Entropy(e *strings.Builder) {
	o.X.Entropy(e)
	if o.Y != nil {
		o.Y.Entropy(e)
	}
	e.WriteString(o.Op.String())
}

// Select picks one of its branches by the floor of the selector, clamped
// to the last branch. If is the two-branch form that tests for non-zero.
type Select struct {
	exprBase
	Selector Expr
	Branches []Expr
	If       bool
}

func newSelect(span Span, sel Expr, branches []Expr, isIf bool) *Select {
	s := &Select{Selector: sel, Branches: branches, If: isIf}
	s.span = span
	return s
}

func (s *Select) compile(ph Phase, b *Builder) Expr {
	s.Selector = s.Selector.compile(ph, b)
	for i := range s.Branches {
		s.Branches[i] = s.Branches[i].compile(ph, b)
	}
	switch ph {
	case PhaseTypeCheck:
		if s.Selector.Type() == NoType {
			s.invalidate()
			return s
		}
		if s.Selector.Type()&NumericType == 0 || s.Selector.Size() != 1 {
			b.errorf(s.Selector.Span(), "selector must be a single number")
			s.invalidate()
			return s
		}
		if len(s.Branches) == 0 {
			b.errorf(s.span, "select needs at least one branch")
			s.invalidate()
			return s
		}
		first := s.Branches[0]
		s.typ = first.Type() &^ FlagType
		s.size = first.Size()
		s.constant = s.Selector.IsConstant()
		s.natural = true
		s.locality = s.Selector.Locality()
		for _, br := range s.Branches {
			if br.Type() == NoType {
				s.invalidate()
				return s
			}
			if br.Type()&^FlagType != s.typ || br.Size() != s.size {
				b.errorf(br.Span(), "select branches must all have the same type and length")
				s.invalidate()
				return s
			}
			s.constant = s.constant && br.IsConstant()
			s.natural = s.natural && br.IsNatural()
			s.locality = combineLocality(s.locality, br.Locality())
		}
	case PhaseSimplify:
		if s.Selector.IsConstant() {
			var idx int
			if tryFold(func() { idx = s.index(nil) }) {
				return s.Branches[idx]
			}
		}
	}
	return s
}

func (s *Select) index(r *Renderer) int {
	v := evalScalar(r, s.Selector)
	if s.If {
		if v != 0 {
			return 0
		}
		return 1
	}
	i := int(math.Floor(v))
	if i < 0 || math.IsNaN(v) {
		i = 0
	}
	if i >= len(s.Branches) {
		i = len(s.Branches) - 1
	}
	return i
}

func (s *Select) Evaluate(r *Renderer, out []float64) int {
	if s.typ&NumericType == 0 {
		return -1
	}
	if out == nil {
		return s.size
	}
	return s.Branches[s.index(r)].Evaluate(r, out)
}

func (s *Select) EvalMod(r *Renderer, m *Modification, shapeDest bool) {
	s.Branches[s.index(r)].EvalMod(r, m, shapeDest)
}

func (s *Select) EvalRule(r *Renderer) *StackRule {
	return s.Branches[s.index(r)].EvalRule(r)
}

func (s *Select) Entropy(e *strings.Builder) {
	s.Selector.Entropy(e)
	for _, br := range s.Branches {
		br.Entropy(e)
	}
	e.WriteString("select")
}

// letBinding is one "name = value" of a let expression.
type letBinding struct {
	name    string
	value   Expr
	binding *Binding
	span    Span
}

// Let evaluates its bindings onto the stack, then its body.
type Let struct {
	exprBase
	Bindings []*letBinding
	Body     Expr
}

func (l *Let) compile(ph Phase, b *Builder) Expr {
	switch ph {
	case PhaseTypeCheck:
		b.pushScope()
		defer b.popScope()
		for _, lb := range l.Bindings {
			lb.value = lb.value.compile(ph, b)
			if lb.value.Type() == NoType {
				l.invalidate()
				return l
			}
			lb.binding = b.declareLocal(lb.name, lb.value.Type()&^FlagType, slotCount(lb.value), lb.value.IsNatural(), lb.span)
		}
		l.Body = l.Body.compile(ph, b)
		l.typ = l.Body.Type()
		l.size = l.Body.Size()
		l.natural = l.Body.IsNatural()
		l.locality = l.Body.Locality()
		for _, lb := range l.Bindings {
			l.locality = combineLocality(l.locality, lb.value.Locality())
		}
	case PhaseSimplify:
		for _, lb := range l.Bindings {
			lb.value = lb.value.compile(ph, b)
		}
		l.Body = l.Body.compile(ph, b)
	}
	return l
}

// slotCount is the number of stack slots a value of e occupies.
func slotCount(e Expr) int {
	if e.Type()&NumericType != 0 {
		return e.Size()
	}
	return 1
}

func (l *Let) push(r *Renderer) int {
	if r == nil {
		panic(deferSignal{})
	}
	base := r.st.Size()
	for _, lb := range l.Bindings {
		pushValue(r, lb.value)
	}
	return base
}

func (l *Let) Evaluate(r *Renderer, out []float64) int {
	if l.typ&NumericType == 0 {
		return -1
	}
	if out == nil {
		return l.size
	}
	base := l.push(r)
	n := l.Body.Evaluate(r, out)
	r.st.Truncate(base)
	return n
}

func (l *Let) EvalMod(r *Renderer, m *Modification, shapeDest bool) {
	base := l.push(r)
	l.Body.EvalMod(r, m, shapeDest)
	r.st.Truncate(base)
}

func (l *Let) EvalRule(r *Renderer) *StackRule {
	base := l.push(r)
	rule := l.Body.EvalRule(r)
	r.st.Truncate(base)
	return rule
}

func (l *Let) Entropy(e *strings.Builder) {
	for _, lb := range l.Bindings {
		e.WriteString(lb.name)
		lb.value.Entropy(e)
	}
	l.Body.Entropy(e)
	e.WriteString("let")
}

// pushValue evaluates e and pushes its value in stack layout.
func pushValue(r *Renderer, e Expr) {
	switch {
	case e.Type()&NumericType != 0:
		r.st.PushNumbers(evalNumbers(r, e))
	case e.Type()&ModType != 0:
		m := NewModification()
		e.EvalMod(r, &m, false)
		r.st.Push(ModItem(&m))
	case e.Type()&RuleType != 0:
		r.st.Push(RuleItem(e.EvalRule(r)))
	default:
		runtimeError(e.Span(), "cannot store a value of this type")
	}
}

// Index selects elements of a vector: v[i], or v[i, length, stride].
type Index struct {
	exprBase
	X      Expr
	At     Expr
	Length int
	Stride int
	args   []Expr
}

func (ix *Index) compile(ph Phase, b *Builder) Expr {
	ix.X = ix.X.compile(ph, b)
	ix.At = ix.At.compile(ph, b)
	for i := range ix.args {
		ix.args[i] = ix.args[i].compile(ph, b)
	}
	switch ph {
	case PhaseTypeCheck:
		if ix.X.Type() == NoType || ix.At.Type() == NoType {
			ix.invalidate()
			return ix
		}
		if ix.X.Type()&NumericType == 0 || ix.At.Type()&NumericType == 0 || ix.At.Size() != 1 {
			b.errorf(ix.span, "indexing needs a vector and a scalar index")
			ix.invalidate()
			return ix
		}
		ix.Length, ix.Stride = 1, 1
		for i, a := range ix.args {
			v, ok := b.constNatural(a)
			if !ok || v < 1 {
				b.errorf(a.Span(), "index length and stride must be constant naturals")
				ix.invalidate()
				return ix
			}
			if i == 0 {
				ix.Length = int(v)
			} else {
				ix.Stride = int(v)
			}
		}
		if (ix.Length-1)*ix.Stride >= ix.X.Size() {
			b.errorf(ix.span, "index selects past the end of a vector of length %d", ix.X.Size())
		}
		ix.typ = NumericType
		ix.size = ix.Length
		ix.natural = ix.X.IsNatural()
		ix.constant = ix.X.IsConstant() && ix.At.IsConstant()
		ix.locality = combineLocality(ix.X.Locality(), ix.At.Locality())
	case PhaseSimplify:
		if ix.constant {
			if f := foldNumeric(ix); f != nil {
				return f
			}
		}
	}
	return ix
}

func (ix *Index) Evaluate(r *Renderer, out []float64) int {
	if ix.typ&NumericType == 0 {
		return -1
	}
	if out == nil {
		return ix.size
	}
	v := evalNumbers(r, ix.X)
	i := int(math.Floor(evalScalar(r, ix.At)))
	last := i + (ix.Length-1)*ix.Stride
	if i < 0 || last >= len(v) {
		runtimeError(ix.span, "vector index %d out of range", i)
	}
	for k := 0; k < ix.Length; k++ {
		out[k] = v[i+k*ix.Stride]
	}
	return ix.size
}

func (ix *Index) Entropy(e *strings.Builder) {
	ix.X.Entropy(e)
	ix.At.Entropy(e)
	e.WriteString("[]")
}

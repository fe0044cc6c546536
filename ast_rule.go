package cfdg

import "strings"

// ArgMode is how a shape reference binds its arguments.
type ArgMode uint8

const (
	// NoArgs names a shape without parameters.
	NoArgs ArgMode = iota
	// StackArgs reads a bound shape from a shape-typed variable.
	StackArgs
	// ParentArgs reuses the parameters of the shape being expanded: name(=).
	ParentArgs
	// DynamicArgs evaluates the arguments on every traversal.
	DynamicArgs
	// ConstArgs binds arguments folded at compile time.
	ConstArgs
	// ShapeArgs takes the binding from a shape-valued expression.
	ShapeArgs
)

func (m ArgMode) String() string {
	switch m {
	case NoArgs:
		return "none"
	case StackArgs:
		return "stack"
	case ParentArgs:
		return "parent"
	case DynamicArgs:
		return "dynamic"
	case ConstArgs:
		return "constant"
	case ShapeArgs:
		return "shape"
	}
	return "unknown"
}

// RuleSpec references a shape together with its arguments.
type RuleSpec struct {
	exprBase
	Name   string
	Shape  int // index in the name table; -1 for StackArgs and ShapeArgs
	Mode   ArgMode
	Args   []Expr
	Source Expr // the variable or expression of StackArgs and ShapeArgs

	bound *StackRule // NoArgs and ConstArgs
}

func newRuleSpec(span Span, name string, shape int, mode ArgMode, args []Expr) *RuleSpec {
	s := &RuleSpec{Name: name, Shape: shape, Mode: mode, Args: args}
	s.span = span
	s.typ = RuleType
	s.size = 1
	return s
}

func (s *RuleSpec) compile(ph Phase, b *Builder) Expr {
	for i := range s.Args {
		s.Args[i] = s.Args[i].compile(ph, b)
	}
	if s.Source != nil {
		s.Source = s.Source.compile(ph, b)
	}
	switch ph {
	case PhaseTypeCheck:
		s.typeCheck(b)
	case PhaseSimplify:
		if s.Mode == DynamicArgs {
			var items []StackItem
			if tryFold(func() { items = bindArgs(nil, b.g.shapes[s.Shape].Params, s.Args) }) {
				s.bound = &StackRule{Shape: s.Shape, Params: items}
				s.Mode = ConstArgs
				s.constant = true
				s.locality = PureLocal
			}
		}
	}
	return s
}

func (s *RuleSpec) typeCheck(b *Builder) {
	s.typ = RuleType
	s.size = 1
	s.locality = PureLocal
	switch s.Mode {
	case StackArgs, ShapeArgs:
		if s.Source.Type()&RuleType == 0 {
			if s.Source.Type() != NoType {
				b.errorf(s.span, "%q is not a shape", s.Name)
			}
			s.invalidate()
			return
		}
		s.locality = s.Source.Locality()
		return
	}
	el := b.g.shapes[s.Shape]
	switch s.Mode {
	case NoArgs:
		if len(el.Params) > 0 {
			b.errorf(s.span, "shape %q needs %d arguments", s.Name, len(el.Params))
			s.invalidate()
			return
		}
		s.bound = &StackRule{Shape: s.Shape}
		s.constant = true
	case ParentArgs:
		if !b.sameParamsAsCurrent(el.Params) {
			b.errorf(s.span, "%s(=) needs the same parameters as the shape being expanded", s.Name)
			s.invalidate()
		}
		s.locality = PureNonlocal
	case DynamicArgs, ConstArgs:
		if !b.checkArgs(s.span, s.Name, el.Params, s.Args) {
			s.invalidate()
			return
		}
		s.constant = true
		for _, a := range s.Args {
			s.constant = s.constant && a.IsConstant()
			s.locality = combineLocality(s.locality, a.Locality())
		}
		s.Mode = DynamicArgs
	}
}

func (s *RuleSpec) EvalRule(r *Renderer) *StackRule {
	switch s.Mode {
	case NoArgs, ConstArgs:
		return s.bound
	case ParentArgs:
		if r == nil {
			panic(deferSignal{})
		}
		return &StackRule{Shape: s.Shape, Params: r.curParams.Params}
	case StackArgs, ShapeArgs:
		return s.Source.EvalRule(r)
	}
	if r == nil {
		panic(deferSignal{})
	}
	return &StackRule{Shape: s.Shape, Params: bindArgs(r, r.g.shapes[s.Shape].Params, s.Args)}
}

func (s *RuleSpec) Entropy(e *strings.Builder) {
	e.WriteString(s.Name)
	for _, a := range s.Args {
		a.Entropy(e)
	}
	if s.Mode == ParentArgs {
		e.WriteString("(=)")
	}
}

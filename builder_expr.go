package cfdg

import (
	"strings"

	"github.com/gogpu/cfdg/syntax"
)

// expr converts a syntax expression into an AST node. Names are resolved
// later, at TypeCheck, so that forward references work.
func (b *Builder) expr(e syntax.Expr) Expr {
	ns := b.file().ns
	switch e := e.(type) {
	case *syntax.NumberLit:
		return NewReal(e.Span(), e.Text, e.Value)
	case *syntax.Ident:
		return newVariable(e.Span(), e.Name, ns)
	case *syntax.UnaryExpr:
		return newOperator(e.Span(), e.Op, b.expr(e.X), nil)
	case *syntax.BinaryExpr:
		return newOperator(e.Span(), e.Op, b.expr(e.X), b.expr(e.Y))
	case *syntax.TupleExpr:
		return newTuple(e.Span(), b.exprs(e.Elems))
	case *syntax.CallExpr:
		return b.call(e)
	case *syntax.IndexExpr:
		ix := &Index{X: b.expr(e.X), At: b.expr(e.Args[0]), args: b.exprs(e.Args[1:])}
		ix.span = e.Span()
		return ix
	case *syntax.LetExpr:
		l := &Let{Body: b.expr(e.Body)}
		l.span = e.Span()
		for _, d := range e.Defs {
			l.Bindings = append(l.Bindings, &letBinding{name: d.Name, value: b.expr(d.Value), span: d.Span()})
		}
		return l
	case *syntax.ModExpr:
		return b.modExpr(e.Mod)
	}
	b.errorf(e.Span(), "unsupported expression")
	return NewReal(e.Span(), "", 0)
}

func (b *Builder) exprs(list []syntax.Expr) []Expr {
	out := make([]Expr, len(list))
	for i, e := range list {
		out[i] = b.expr(e)
	}
	return out
}

// call converts name(args): select and if, user functions, built-ins
// and shape references, in that order.
func (b *Builder) call(e *syntax.CallExpr) Expr {
	span := e.Span()
	ns := b.file().ns
	switch e.Name {
	case "if":
		if len(e.Args) != 3 {
			b.errorf(span, "if() takes a condition and two values")
			return NewReal(span, "", 0)
		}
		return newSelect(span, b.expr(e.Args[0]), b.exprs(e.Args[1:]), true)
	case "select":
		if len(e.Args) < 2 {
			b.errorf(span, "select() takes a selector and at least one value")
			return NewReal(span, "", 0)
		}
		return newSelect(span, b.expr(e.Args[0]), b.exprs(e.Args[1:]), false)
	case "range":
		b.errorf(span, "range() is only allowed as a switch case")
		return NewReal(span, "", 0)
	}
	if e.Reuse {
		return b.ruleSpec(span, e.Name, nil, true, false)
	}
	if f := b.funcDef(e.Name, ns); f != nil {
		return newUserCall(span, f, b.exprs(e.Args))
	}
	if isBuiltin(e.Name) {
		return newCall(span, e.Name, b.exprs(e.Args))
	}
	if _, ok := b.shapeIndex(e.Name, ns); ok {
		return b.ruleSpec(span, e.Name, e.Args, false, true)
	}
	b.errorf(e.NameSp, "unknown function %q%s", e.Name, b.suggestFunc(e.Name))
	return NewReal(span, "", 0)
}

// ruleSpec converts a shape reference. A name that is not a declared
// shape must be a shape-typed variable.
func (b *Builder) ruleSpec(span Span, name string, args []syntax.Expr, reuse, hasArgs bool) Expr {
	ns := b.file().ns
	idx, ok := b.shapeIndex(name, ns)
	if !ok {
		if reuse || hasArgs {
			b.errorf(span, "unknown shape %q%s", name, b.suggestShape(name))
			return newRuleSpec(span, name, ShapeFill, NoArgs, nil)
		}
		s := newRuleSpec(span, name, -1, StackArgs, nil)
		s.Source = newVariable(span, name, ns)
		return s
	}
	full := b.g.shapes[idx].Name
	switch {
	case reuse:
		return newRuleSpec(span, full, idx, ParentArgs, nil)
	case len(args) == 0:
		return newRuleSpec(span, full, idx, NoArgs, nil)
	}
	return newRuleSpec(span, full, idx, DynamicArgs, b.exprs(args))
}

// defaultArgs builds zero arguments for a start shape declared with
// parameters but named without arguments.
func (b *Builder) defaultArgs(span Span, el *ShapeElement) ([]Expr, bool) {
	args := make([]Expr, 0, len(el.Params))
	for _, p := range el.Params {
		switch p.Type {
		case NumericType:
			args = append(args, NewReal(span, "", make([]float64, p.Size)...))
		case ModType:
			args = append(args, newModExpr(span, false, nil))
		default:
			return nil, false
		}
	}
	return args, true
}

// modOrEmpty converts an optional adjustment.
func (b *Builder) modOrEmpty(m *syntax.Modification, span Span) *ModExpr {
	if m == nil {
		return newModExpr(span, false, nil)
	}
	return b.modExpr(m)
}

func (b *Builder) modExpr(m *syntax.Modification) *ModExpr {
	terms := make([]*ModTerm, 0, len(m.Terms))
	for _, t := range m.Terms {
		mt := &ModTerm{Name: t.Name, Target: t.Target, UseTarget: t.UseTarget, span: t.Span()}
		if t.Name == "" {
			mt.Kind = termMod
		} else {
			kind, ok := termNames[t.Name]
			if !ok {
				b.errorf(t.Span(), "unknown adjustment %q", t.Name)
				continue
			}
			mt.Kind = kind
		}
		switch len(t.Args) {
		case 0:
		case 1:
			mt.Args = b.expr(t.Args[0])
		default:
			mt.Args = newTuple(t.Span(), b.exprs(t.Args))
		}
		terms = append(terms, mt)
	}
	return newModExpr(m.Span(), m.Ordered, terms)
}

// block converts a statement list.
func (b *Builder) block(blk *syntax.Block, inPath bool) *RepContainer {
	c := newContainer(blk.Span())
	for _, s := range blk.Stmts {
		rep := b.stmt(s, inPath)
		if rep == nil {
			continue
		}
		if _, ok := rep.(*PathOp); ok {
			c.PathOps = true
		}
		c.Body = append(c.Body, rep)
	}
	return c
}

func (b *Builder) stmt(s syntax.Stmt, inPath bool) Replacement {
	switch s := s.(type) {
	case *syntax.ShapeStmt:
		if inPath {
			b.errorf(s.Span(), "shape replacements are not allowed in paths")
			return nil
		}
		rep := &ShapeReplacement{
			Spec: b.ruleSpec(s.NameSp, s.Name, s.Args, s.Reuse, s.HasArgs && len(s.Args) > 0),
			Mod:  b.modOrEmpty(s.Mod, s.Span()),
		}
		rep.span = s.Span()
		return rep

	case *syntax.Definition:
		if s.Function {
			b.errorf(s.Span(), "functions can only be defined at the top level")
			return nil
		}
		if strings.HasPrefix(s.Name, "CF::") {
			b.errorf(s.Span(), "configuration parameters can only be set at the top level")
			return nil
		}
		d := &Define{Name: s.Name, Value: b.expr(s.Value)}
		d.span = s.Span()
		return d

	case *syntax.LoopStmt:
		l := &Loop{
			Var:  s.Var,
			Args: b.exprs(s.Args),
			Mod:  b.modOrEmpty(s.Mod, s.Span()),
			Body: b.block(s.Body, inPath),
		}
		if s.Finally != nil {
			l.Finally = b.block(s.Finally, inPath)
		}
		l.span = s.Span()
		return l

	case *syntax.IfStmt:
		n := &If{Cond: b.expr(s.Cond), Then: b.block(s.Then, inPath)}
		if s.Else != nil {
			n.Else = b.block(s.Else, inPath)
		}
		n.span = s.Span()
		return n

	case *syntax.SwitchStmt:
		sw := &Switch{Selector: b.expr(s.Selector)}
		sw.span = s.Span()
		for _, cs := range s.Cases {
			body := b.block(cs.Body, inPath)
			for _, v := range cs.Values {
				sw.Cases = append(sw.Cases, b.caseRange(v, body))
			}
		}
		if s.Else != nil {
			sw.Else = b.block(s.Else, inPath)
		}
		return sw

	case *syntax.TransformStmt:
		t := &Transform{Clone: s.Clone, Body: b.block(s.Body, inPath)}
		t.span = s.Span()
		for _, m := range s.Mods {
			t.Mods = append(t.Mods, b.modExpr(m))
		}
		return t

	case *syntax.PathOpStmt:
		if !inPath {
			b.errorf(s.Span(), "%s is only allowed in paths", s.Op)
			return nil
		}
		op := &PathOp{Name: s.Op, Kind: pathOpNames[s.Op]}
		op.span = s.Span()
		switch len(s.Args) {
		case 0:
		case 1:
			op.Args = b.expr(s.Args[0])
		default:
			op.Args = newTuple(s.Span(), b.exprs(s.Args))
		}
		return op

	case *syntax.PathCmdStmt:
		c := &PathCommand{Stroke: s.Cmd == "STROKE", Mod: b.modOrEmpty(s.Mod, s.Span())}
		c.span = s.Span()
		switch len(s.Args) {
		case 0:
		case 1:
			c.Args = b.expr(s.Args[0])
		default:
			c.Args = newTuple(s.Span(), b.exprs(s.Args))
		}
		return c
	}
	b.errorf(s.Span(), "unsupported statement")
	return nil
}

// caseRange converts one case value: a..b, range(a, b) or a single value.
func (b *Builder) caseRange(v syntax.Expr, body *RepContainer) *switchCase {
	if r, ok := v.(*syntax.BinaryExpr); ok && r.Op == syntax.Range {
		return &switchCase{low: b.expr(r.X), hiE: b.expr(r.Y), body: body}
	}
	if c, ok := v.(*syntax.CallExpr); ok && c.Name == "range" && len(c.Args) == 2 {
		return &switchCase{low: b.expr(c.Args[0]), hiE: b.expr(c.Args[1]), body: body}
	}
	return &switchCase{low: b.expr(v), hiE: b.expr(v), body: body}
}

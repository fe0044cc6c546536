package syntax

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse parses a CFDG source file. The returned error, if any, is an
// ErrorList wrapping ErrParse; the File holds every declaration that parsed
// cleanly so callers can still report semantic errors.
func Parse(file, src string) (*File, error) {
	p := newParser(file, src)
	f := p.parseFile()
	return f, p.errs.Err()
}

// ParseExpr parses a single expression.
func ParseExpr(src string) (Expr, error) {
	p := newParser("", src)
	var e Expr
	func() {
		defer p.recoverBailout()
		e = p.parseExprList()
		if p.tok().Kind != EOF {
			p.fail(p.tok(), "unexpected %s after expression", p.describe(p.tok()))
		}
	}()
	return e, p.errs.Err()
}

// bailout aborts the current declaration after an error.
type bailout struct{}

// Path operations and commands recognized inside path bodies.
var (
	pathOps = map[string]bool{
		"MOVETO": true, "MOVEREL": true,
		"LINETO": true, "LINEREL": true,
		"ARCTO": true, "ARCREL": true,
		"CURVETO": true, "CURVEREL": true,
		"CLOSEPOLY": true,
	}
	pathCmds = map[string]bool{"FILL": true, "STROKE": true}
)

// termArgs is the maximum argument count of each adjustment term.
var termArgs = map[string]int{
	"x": 3, "y": 1, "z": 1,
	"s": 3, "size": 3,
	"r": 1, "rotate": 1,
	"f": 1, "flip": 1,
	"skew": 2,
	"trans": 6, "transform": 6,
	"h": 1, "hue": 1,
	"sat": 1, "saturation": 1,
	"b": 1, "brightness": 1,
	"a": 1, "alpha": 1,
	"time": 2, "timescale": 1,
	"blend": 1,
}

// IsTerm reports whether name is an adjustment term keyword.
func IsTerm(name string) bool {
	_, ok := termArgs[name]
	return ok
}

type parser struct {
	file string
	toks []Token
	ends []int
	i    int
	errs ErrorList

	// splitArgs makes "x 1 -2" two arguments instead of "1 - 2".
	splitArgs bool
}

func newParser(file, src string) *parser {
	p := &parser{file: file}
	l := newLexer(file, src, &p.errs)
	for {
		t := l.next()
		p.toks = append(p.toks, t)
		p.ends = append(p.ends, l.off)
		if t.Kind == EOF {
			break
		}
	}
	return p
}

func (p *parser) tok() Token { return p.toks[p.i] }

func (p *parser) peek(n int) Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *parser) advance() Token {
	t := p.toks[p.i]
	if t.Kind != EOF {
		p.i++
	}
	return t
}

func (p *parser) spanOf(i int) Span {
	t := p.toks[i]
	return Span{File: p.file, Offset: t.Pos.Offset, Line: t.Pos.Line, Col: t.Pos.Col, Len: p.ends[i] - t.Pos.Offset}
}

func (p *parser) span() Span { return p.spanOf(p.i) }

// prevSpan is the span of the last consumed token.
func (p *parser) prevSpan() Span {
	if p.i == 0 {
		return p.spanOf(0)
	}
	return p.spanOf(p.i - 1)
}

func (p *parser) from(start Span) Span { return start.To(p.prevSpan()) }

func (p *parser) describe(t Token) string {
	switch t.Kind {
	case IdentTok, Number:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	case EOF:
		return "end of file"
	}
	return fmt.Sprintf("%q", t.Kind.String())
}

func (p *parser) fail(t Token, format string, args ...any) {
	idx := p.i
	for idx > 0 && p.toks[idx].Pos != t.Pos {
		idx--
	}
	p.errs.add(p.spanOf(idx), fmt.Sprintf(format, args...))
	panic(bailout{})
}

func (p *parser) recoverBailout() {
	if r := recover(); r != nil {
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
	}
}

func (p *parser) expect(k Kind) Token {
	t := p.tok()
	if t.Kind != k {
		p.fail(t, "expected %q, found %s", k.String(), p.describe(t))
	}
	return p.advance()
}

func (p *parser) accept(k Kind) bool {
	if p.tok().Kind == k {
		p.advance()
		return true
	}
	return false
}

// matchParen returns the index just past the parenthesis matching the
// one at index i.
func (p *parser) matchParen(i int) int {
	depth := 0
	for ; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case LParen:
			depth++
		case RParen:
			depth--
			if depth == 0 {
				return i + 1
			}
		case EOF:
			return i
		}
	}
	return len(p.toks) - 1
}

// sync skips to the start of the next top-level declaration.
func (p *parser) sync() {
	depth := 0
	for {
		t := p.tok()
		switch t.Kind {
		case EOF:
			return
		case LBrace:
			depth++
		case RBrace:
			depth--
			if depth <= 0 {
				p.advance()
				if depth == 0 {
					return
				}
				depth = 0
				continue
			}
		case KwStartshape, KwImport, KwShape, KwPath:
			if depth == 0 {
				return
			}
		}
		p.advance()
	}
}

func (p *parser) parseFile() *File {
	f := &File{Name: p.file}
	var shape *ShapeDecl
	for p.tok().Kind != EOF {
		start := p.i
		func() {
			defer func() {
				if r := recover(); r != nil {
					if _, ok := r.(bailout); !ok {
						panic(r)
					}
					shape = nil
					if p.i == start {
						p.advance()
					}
					p.sync()
				}
			}()
			d := p.parseDecl(shape)
			switch d := d.(type) {
			case nil:
			case *ShapeDecl:
				shape = d
				f.Decls = append(f.Decls, d)
			case *RuleDecl:
				if d.Name == "" {
					shape.Rules = append(shape.Rules, d)
					return
				}
				shape = nil
				f.Decls = append(f.Decls, d)
			default:
				shape = nil
				f.Decls = append(f.Decls, d)
			}
		}()
	}
	return f
}

// parseDecl parses one top-level declaration. shape is the shape
// declaration that anonymous rules attach to.
func (p *parser) parseDecl(shape *ShapeDecl) Decl {
	t := p.tok()
	switch t.Kind {
	case KwStartshape:
		return p.parseStartShape()
	case KwImport:
		return p.parseImport()
	case KwShape:
		if p.peek(1).Kind == IdentTok && p.peek(2).Kind == Assign {
			return p.parseDefinition()
		}
		if p.peek(1).Kind == IdentTok && p.peek(2).Kind == LParen && p.toks[p.matchParen(p.i+2)].Kind == Assign {
			return p.parseDefinition()
		}
		return p.parseShapeDecl()
	case KwRule:
		if p.peek(1).Kind == IdentTok {
			return p.parseRule(true)
		}
		if shape == nil {
			p.fail(t, "rule without a preceding shape declaration")
		}
		return p.parseRule(false)
	case KwPath:
		return p.parsePathDecl()
	case IdentTok:
		return p.parseDefinition()
	case Semicolon:
		p.advance()
		return nil
	}
	p.fail(t, "unexpected %s at top level", p.describe(t))
	return nil
}

func (p *parser) parseStartShape() Decl {
	start := p.span()
	p.expect(KwStartshape)
	name := p.expect(IdentTok)
	d := &StartShape{Name: name.Text}
	if p.tok().Kind == LParen {
		d.Args, d.HasArgs = p.parseArgs()
	}
	if p.tok().Kind == LBracket {
		d.Mod = p.parseModification()
	}
	d.Sp = p.from(start)
	return d
}

func (p *parser) parseImport() Decl {
	start := p.span()
	p.expect(KwImport)
	d := &Import{}
	if p.accept(At) {
		d.Namespace = p.expect(IdentTok).Text
	}
	d.Path = p.expect(String).Text
	d.Sp = p.from(start)
	return d
}

func (p *parser) parseShapeDecl() Decl {
	start := p.span()
	p.expect(KwShape)
	d := &ShapeDecl{Name: p.expect(IdentTok).Text}
	if p.tok().Kind == LParen {
		d.Params = p.parseParams()
	}
	if p.tok().Kind != KwRule {
		// A shape with a single body and no rule keyword.
		rs := p.span()
		body := p.parseBlock(false)
		d.Rules = append(d.Rules, &RuleDecl{node: node{Sp: p.from(rs)}, Body: body})
	}
	d.Sp = p.from(start)
	return d
}

func (p *parser) parseRule(named bool) Decl {
	start := p.span()
	p.expect(KwRule)
	d := &RuleDecl{}
	if named {
		d.Name = p.expect(IdentTok).Text
	}
	if p.tok().Kind == Number {
		d.Weight = p.number(p.advance())
		d.HasWeight = true
		d.Percent = p.accept(Percent)
	}
	d.Body = p.parseBlock(false)
	d.Sp = p.from(start)
	return d
}

func (p *parser) parsePathDecl() Decl {
	start := p.span()
	p.expect(KwPath)
	d := &PathDecl{Name: p.expect(IdentTok).Text}
	if p.tok().Kind == LParen {
		d.Params = p.parseParams()
	}
	d.Body = p.parseBlock(true)
	d.Sp = p.from(start)
	return d
}

// parseParams parses "(type name, name, ...)".
func (p *parser) parseParams() []*Param {
	p.expect(LParen)
	params := []*Param{}
	if p.accept(RParen) {
		return params
	}
	for {
		start := p.span()
		prm := &Param{Type: "number"}
		if p.tok().Kind == KwShape {
			p.advance()
			prm.Type = "shape"
		} else if p.tok().Kind == IdentTok && p.peek(1).Kind == IdentTok {
			prm.Type, prm.Size = p.typeName(p.advance())
		}
		prm.Name = p.expect(IdentTok).Text
		prm.Sp = p.from(start)
		params = append(params, prm)
		if !p.accept(Comma) {
			break
		}
	}
	p.expect(RParen)
	return params
}

// typeName validates a parameter or definition type.
func (p *parser) typeName(t Token) (string, int) {
	switch t.Text {
	case "number", "natural", "adjustment", "shape":
		return t.Text, 0
	}
	if rest, ok := strings.CutPrefix(t.Text, "vector"); ok {
		n, err := strconv.Atoi(rest)
		if err == nil && n >= 2 && n <= 99 {
			return "vector", n
		}
	}
	p.fail(t, "unknown type %q", t.Text)
	return "", 0
}

// parseDefinition parses "[type] name[(params)] = value".
func (p *parser) parseDefinition() *Definition {
	start := p.span()
	d := &Definition{}
	switch {
	case p.tok().Kind == KwShape:
		p.advance()
		d.Type = "shape"
	case p.tok().Kind == IdentTok && p.peek(1).Kind == IdentTok:
		d.Type, d.Size = p.typeName(p.advance())
	}
	d.Name = p.expect(IdentTok).Text
	if p.tok().Kind == LParen {
		d.Params = p.parseParams()
		d.Function = true
	}
	p.expect(Assign)
	if d.Function {
		d.Value = p.parseExpr()
	} else {
		d.Value = p.parseExprList()
	}
	d.Sp = p.from(start)
	return d
}

// parseBlock parses a braced statement list or a single statement.
func (p *parser) parseBlock(inPath bool) *Block {
	start := p.span()
	b := &Block{}
	if p.accept(LBrace) {
		for p.tok().Kind != RBrace {
			if p.tok().Kind == EOF {
				p.fail(p.tok(), "expected \"}\", found end of file")
			}
			if p.accept(Semicolon) {
				continue
			}
			b.Stmts = append(b.Stmts, p.parseStmt(inPath))
		}
		p.advance()
	} else {
		b.Stmts = append(b.Stmts, p.parseStmt(inPath))
	}
	b.Sp = p.from(start)
	return b
}

func (p *parser) parseStmt(inPath bool) Stmt {
	t := p.tok()
	switch t.Kind {
	case KwLoop:
		return p.parseLoop(inPath)
	case KwIf:
		return p.parseIf(inPath)
	case KwSwitch:
		return p.parseSwitch(inPath)
	case KwTransform, KwClone:
		return p.parseTransform(inPath)
	case KwShape:
		return p.parseDefinition()
	case Number, LParen:
		return p.parseCountLoop(inPath)
	case IdentTok:
	default:
		p.fail(t, "unexpected %s in rule body", p.describe(t))
	}

	next := p.peek(1)
	switch {
	case next.Kind == Assign:
		return p.parseDefinition()
	case next.Kind == IdentTok && p.peek(2).Kind == Assign:
		return p.parseDefinition()
	case next.Kind == Star:
		return p.parseCountLoop(inPath)
	case next.Kind == LParen:
		after := p.toks[p.matchParen(p.i+1)].Kind
		if after == Assign {
			return p.parseDefinition()
		}
		if after == Star {
			return p.parseCountLoop(inPath)
		}
	}
	if pathOps[t.Text] {
		return p.parsePathOp()
	}
	if inPath && pathCmds[t.Text] {
		return p.parsePathCmd()
	}
	return p.parseShapeStmt()
}

func (p *parser) parseShapeStmt() Stmt {
	start := p.span()
	name := p.expect(IdentTok)
	s := &ShapeStmt{Name: name.Text, NameSp: p.prevSpan()}
	if p.tok().Kind == LParen {
		if p.peek(1).Kind == Assign && p.peek(2).Kind == RParen {
			p.i += 3
			s.Reuse = true
			s.HasArgs = true
		} else {
			s.Args, s.HasArgs = p.parseArgs()
		}
	}
	if p.tok().Kind == LBracket {
		s.Mod = p.parseModification()
	} else {
		s.Mod = &Modification{node: node{Sp: p.prevSpan()}}
	}
	s.Sp = p.from(start)
	return s
}

func (p *parser) parsePathOp() Stmt {
	start := p.span()
	s := &PathOpStmt{Op: p.advance().Text}
	if p.tok().Kind == LParen {
		s.Args, _ = p.parseArgs()
	}
	s.Sp = p.from(start)
	return s
}

func (p *parser) parsePathCmd() Stmt {
	start := p.span()
	s := &PathCmdStmt{Cmd: p.advance().Text}
	if p.tok().Kind == LParen {
		s.Args, _ = p.parseArgs()
	}
	if p.tok().Kind == LBracket {
		s.Mod = p.parseModification()
	}
	s.Sp = p.from(start)
	return s
}

func (p *parser) parseLoop(inPath bool) Stmt {
	start := p.span()
	p.expect(KwLoop)
	s := &LoopStmt{}
	if p.tok().Kind == IdentTok && p.peek(1).Kind == Assign {
		s.Var = p.advance().Text
		p.advance()
	}
	s.Args = p.loopArgs()
	if len(s.Args) > 3 {
		p.fail(p.tok(), "loop takes at most 3 arguments")
	}
	s.Mod = p.parseModification()
	s.Body = p.parseBlock(inPath)
	if p.tok().Kind == KwFinally {
		p.advance()
		s.Finally = p.parseBlock(inPath)
	}
	s.Sp = p.from(start)
	return s
}

// loopArgs parses the comma separated loop bounds.
func (p *parser) loopArgs() []Expr {
	args := []Expr{p.parseExpr()}
	for p.accept(Comma) {
		args = append(args, p.parseExpr())
	}
	return args
}

// parseCountLoop parses "count * [mods] body".
func (p *parser) parseCountLoop(inPath bool) Stmt {
	start := p.span()
	s := &LoopStmt{}
	s.Args = []Expr{p.parseUnary()}
	p.expect(Star)
	s.Mod = p.parseModification()
	s.Body = p.parseBlock(inPath)
	if p.tok().Kind == KwFinally {
		p.advance()
		s.Finally = p.parseBlock(inPath)
	}
	s.Sp = p.from(start)
	return s
}

func (p *parser) parseIf(inPath bool) Stmt {
	start := p.span()
	p.expect(KwIf)
	p.expect(LParen)
	s := &IfStmt{Cond: p.parseExprList()}
	p.expect(RParen)
	s.Then = p.parseBlock(inPath)
	if p.accept(KwElse) {
		s.Else = p.parseBlock(inPath)
	}
	s.Sp = p.from(start)
	return s
}

func (p *parser) parseSwitch(inPath bool) Stmt {
	start := p.span()
	p.expect(KwSwitch)
	p.expect(LParen)
	s := &SwitchStmt{Selector: p.parseExprList()}
	p.expect(RParen)
	p.expect(LBrace)
	for !p.accept(RBrace) {
		switch t := p.tok(); t.Kind {
		case KwCase:
			cs := p.span()
			p.advance()
			c := &Case{}
			for {
				c.Values = append(c.Values, p.parseExpr())
				if !p.accept(Comma) {
					break
				}
			}
			p.expect(Colon)
			c.Body = p.parseBlock(inPath)
			c.Sp = p.from(cs)
			s.Cases = append(s.Cases, c)
		case KwElse:
			p.advance()
			p.expect(Colon)
			if s.Else != nil {
				p.fail(t, "switch has more than one else")
			}
			s.Else = p.parseBlock(inPath)
		case Semicolon:
			p.advance()
		default:
			p.fail(t, "expected case or else, found %s", p.describe(t))
		}
	}
	s.Sp = p.from(start)
	return s
}

func (p *parser) parseTransform(inPath bool) Stmt {
	start := p.span()
	s := &TransformStmt{Clone: p.advance().Kind == KwClone}
	for p.tok().Kind == LBracket {
		s.Mods = append(s.Mods, p.parseModification())
	}
	if len(s.Mods) == 0 {
		p.fail(p.tok(), "expected adjustment after %s", p.toks[p.i-1].Text)
	}
	s.Body = p.parseBlock(inPath)
	s.Sp = p.from(start)
	return s
}

// parseArgs parses "(args)". An empty list returns hasArgs true.
func (p *parser) parseArgs() ([]Expr, bool) {
	p.expect(LParen)
	save := p.splitArgs
	p.splitArgs = false
	defer func() { p.splitArgs = save }()
	var args []Expr
	if p.accept(RParen) {
		return args, true
	}
	for {
		args = append(args, p.parseExpr())
		if !p.accept(Comma) {
			break
		}
	}
	p.expect(RParen)
	return args, true
}

// parseModification parses "[terms]" or "[[terms]]".
func (p *parser) parseModification() *Modification {
	start := p.span()
	p.expect(LBracket)
	m := &Modification{}
	if p.tok().Kind == LBracket && !p.tok().SpaceBefore {
		p.advance()
		m.Ordered = true
	}
	save := p.splitArgs
	p.splitArgs = true
	defer func() { p.splitArgs = save }()

	for p.tok().Kind != RBracket {
		if p.tok().Kind == EOF {
			p.fail(p.tok(), "unterminated adjustment")
		}
		if p.accept(Semicolon) {
			continue
		}
		m.Terms = append(m.Terms, p.parseTerm())
	}
	p.advance()
	if m.Ordered {
		if p.tok().Kind != RBracket {
			p.fail(p.tok(), "expected \"]]\"")
		}
		p.advance()
	}
	m.Sp = p.from(start)
	return m
}

func (p *parser) parseTerm() *Term {
	start := p.span()
	tm := &Term{}
	if p.tok().Kind == Pipe {
		p.advance()
		tm.Target = true
	}
	t := p.tok()
	maxArgs, named := termArgs[t.Text]
	if t.Kind != IdentTok || !named || p.peek(1).Kind == LParen && !p.peek(1).SpaceBefore {
		if tm.Target {
			p.fail(t, "expected color adjustment after \"|\"")
		}
		tm.Args = []Expr{p.parseExpr()}
		tm.Sp = p.from(start)
		return tm
	}
	p.advance()
	tm.Name = t.Text
	for len(tm.Args) < maxArgs && p.startsArg() {
		tm.Args = append(tm.Args, p.parseExpr())
	}
	if len(tm.Args) == 0 {
		p.fail(p.tok(), "adjustment %q needs an argument", t.Text)
	}
	if p.tok().Kind == Pipe && !p.tok().SpaceBefore {
		p.advance()
		tm.UseTarget = true
	}
	if tm.Target && tm.UseTarget {
		p.fail(t, "adjustment %q cannot both set and use the target", t.Text)
	}
	tm.Sp = p.from(start)
	return tm
}

// startsArg reports whether the current token can start a term argument.
func (p *parser) startsArg() bool {
	t := p.tok()
	switch t.Kind {
	case Number, LParen, Minus, Plus, Not, KwLet, KwIf:
		return true
	case IdentTok:
		return !IsTerm(t.Text) || p.peek(1).Kind == LParen && !p.peek(1).SpaceBefore
	}
	return false
}

// parseExprList parses "e, e, ..." into a single expression or a tuple.
func (p *parser) parseExprList() Expr {
	start := p.span()
	e := p.parseExpr()
	if p.tok().Kind != Comma {
		return e
	}
	elems := []Expr{e}
	for p.accept(Comma) {
		elems = append(elems, p.parseExpr())
	}
	return &TupleExpr{node: node{Sp: p.from(start)}, Elems: elems}
}

// Binary operator precedence, lowest first.
func precedence(k Kind) int {
	switch k {
	case OrOr, XorXor:
		return 1
	case AndAnd:
		return 2
	case Lt, Gt, Le, Ge, Eq, Ne:
		return 3
	case Range:
		return 4
	case Plus, Minus, Under:
		return 5
	case Star, Slash:
		return 6
	}
	return 0
}

func (p *parser) parseExpr() Expr { return p.parseBinary(1) }

func (p *parser) parseBinary(minPrec int) Expr {
	start := p.span()
	x := p.parseUnary()
	for {
		t := p.tok()
		prec := precedence(t.Kind)
		if prec < minPrec || prec == 0 {
			return x
		}
		if p.splitArgs && (t.Kind == Plus || t.Kind == Minus) && t.SpaceBefore && !p.peek(1).SpaceBefore {
			return x
		}
		if t.Kind == Star && p.peek(1).Kind == LBracket {
			// "n * [mods]" belongs to a loop.
			return x
		}
		p.advance()
		y := p.parseBinary(prec + 1)
		x = &BinaryExpr{node: node{Sp: p.from(start)}, Op: t.Kind, X: x, Y: y}
	}
}

func (p *parser) parseUnary() Expr {
	start := p.span()
	switch t := p.tok(); t.Kind {
	case Minus, Plus, Not:
		p.advance()
		x := p.parseUnary()
		return &UnaryExpr{node: node{Sp: p.from(start)}, Op: t.Kind, X: x}
	}
	return p.parsePower()
}

// parsePower parses the right-associative "^".
func (p *parser) parsePower() Expr {
	start := p.span()
	x := p.parsePostfix()
	if p.tok().Kind == Caret {
		p.advance()
		y := p.parseUnary()
		return &BinaryExpr{node: node{Sp: p.from(start)}, Op: Caret, X: x, Y: y}
	}
	return x
}

func (p *parser) parsePostfix() Expr {
	start := p.span()
	x := p.parsePrimary()
	for p.tok().Kind == LBracket && !p.tok().SpaceBefore {
		if _, ok := x.(*NumberLit); ok {
			break
		}
		p.advance()
		save := p.splitArgs
		p.splitArgs = false
		ix := &IndexExpr{X: x}
		for {
			ix.Args = append(ix.Args, p.parseExpr())
			if !p.accept(Comma) {
				break
			}
		}
		p.splitArgs = save
		p.expect(RBracket)
		if len(ix.Args) > 3 {
			p.fail(p.tok(), "index takes at most 3 arguments")
		}
		ix.Sp = p.from(start)
		x = ix
	}
	return x
}

func (p *parser) parsePrimary() Expr {
	start := p.span()
	t := p.tok()
	switch t.Kind {
	case Number:
		p.advance()
		return &NumberLit{node: node{Sp: start}, Value: p.number(t), Text: t.Text}
	case IdentTok:
		p.advance()
		name := t.Text
		if name == "rand" && p.isRandPM() {
			p.i += 3
			name = "rand+/-"
		}
		if p.tok().Kind == LParen {
			return p.parseCall(name, start)
		}
		return &Ident{node: node{Sp: start}, Name: name}
	case KwIf:
		p.advance()
		if p.tok().Kind != LParen {
			p.fail(p.tok(), "expected \"(\" after if")
		}
		return p.parseCall("if", start)
	case KwLet:
		return p.parseLet()
	case LParen:
		p.advance()
		save := p.splitArgs
		p.splitArgs = false
		e := p.parseExprList()
		p.splitArgs = save
		p.expect(RParen)
		if tup, ok := e.(*TupleExpr); ok {
			tup.Sp = p.from(start)
		}
		return e
	case LBracket:
		m := p.parseModification()
		return &ModExpr{node: node{Sp: m.Sp}, Mod: m}
	}
	p.fail(t, "expected expression, found %s", p.describe(t))
	return nil
}

// isRandPM reports whether "+/-" follows directly after "rand".
func (p *parser) isRandPM() bool {
	a, b, c := p.peek(0), p.peek(1), p.peek(2)
	return a.Kind == Plus && b.Kind == Slash && c.Kind == Minus &&
		!a.SpaceBefore && !b.SpaceBefore && !c.SpaceBefore
}

func (p *parser) parseCall(name string, start Span) Expr {
	c := &CallExpr{Name: name, NameSp: start}
	if p.peek(1).Kind == Assign && p.peek(2).Kind == RParen {
		p.i += 3
		c.Reuse = true
	} else {
		c.Args, _ = p.parseArgs()
	}
	c.Sp = p.from(start)
	return c
}

// parseLet parses "let(a = e; b = e; body)".
func (p *parser) parseLet() Expr {
	start := p.span()
	p.expect(KwLet)
	p.expect(LParen)
	save := p.splitArgs
	p.splitArgs = false
	defer func() { p.splitArgs = save }()
	l := &LetExpr{}
	for p.tok().Kind == IdentTok && p.peek(1).Kind == Assign ||
		p.tok().Kind == IdentTok && p.peek(1).Kind == IdentTok && p.peek(2).Kind == Assign {
		ds := p.span()
		d := &Definition{}
		if p.peek(1).Kind == IdentTok {
			d.Type, d.Size = p.typeName(p.advance())
		}
		d.Name = p.advance().Text
		p.advance()
		d.Value = p.parseExprList()
		d.Sp = p.from(ds)
		l.Defs = append(l.Defs, d)
		if !p.accept(Semicolon) {
			p.fail(p.tok(), "expected \";\" after let binding")
		}
	}
	l.Body = p.parseExprList()
	p.expect(RParen)
	l.Sp = p.from(start)
	return l
}

func (p *parser) number(t Token) float64 {
	if t.Text == "∞" {
		return math.Inf(1)
	}
	v, err := strconv.ParseFloat(t.Text, 64)
	if err != nil {
		p.fail(t, "malformed number %q", t.Text)
	}
	return v
}

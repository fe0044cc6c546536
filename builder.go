package cfdg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gogpu/cfdg/internal/rand64"
	"github.com/gogpu/cfdg/syntax"
)

// CompileOption configures Compile.
type CompileOption func(*compileOptions)

type compileOptions struct {
	fsys       fs.FS
	diags      *Diagnostics
	staticSeed uint64
}

// WithFS sets the file system that import statements read from.
func WithFS(fsys fs.FS) CompileOption {
	return func(o *compileOptions) {
		o.fsys = fsys
	}
}

// WithCompileDiagnostics collects compile messages into d.
func WithCompileDiagnostics(d *Diagnostics) CompileOption {
	return func(o *compileOptions) {
		o.diags = d
	}
}

// WithStaticSeed seeds the stream rand_static() draws from.
func WithStaticSeed(seed uint64) CompileOption {
	return func(o *compileOptions) {
		o.staticSeed = seed
	}
}

// scope is one level of local names.
type scope struct {
	names map[string]*Binding
	depth int // local stack depth on entry
}

// fileCtx is a file being loaded.
type fileCtx struct {
	name  string
	ns    string // "" or "ns::"
	depth int
}

// pendingDecl is a declaration waiting for conversion after every file is
// loaded.
type pendingDecl struct {
	decl syntax.Decl
	file *fileCtx
}

// Builder compiles syntax trees into a Grammar. It is used once.
type Builder struct {
	g     *Grammar
	diags *Diagnostics
	fsys  fs.FS

	files   []*fileCtx
	loading map[string]bool
	pending []pendingDecl

	scopes   []scope
	depth    int
	globals  map[string]*Binding
	funcs    map[string]*FuncDef
	curShape *ShapeElement

	startDepth int
	static     rand64.Rand64
}

// Compile parses and compiles a CFDG program. name is used in diagnostics
// and as the base for resolving imports. The returned error wraps
// ErrCompile or syntax.ErrParse; diagnostics are available from the
// grammar even when compilation fails.
func Compile(name string, src []byte, opts ...CompileOption) (*Grammar, error) {
	o := compileOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.diags == nil {
		o.diags = &Diagnostics{}
	}
	if o.fsys == nil {
		o.fsys = os.DirFS(filepath.Dir(name))
		name = filepath.Base(name)
	}
	b := &Builder{
		g:       newGrammar(name, o.diags),
		diags:   o.diags,
		fsys:    o.fsys,
		loading: make(map[string]bool),
		globals: make(map[string]*Binding),
		funcs:   make(map[string]*FuncDef),
		static:  rand64.New(o.staticSeed),
	}
	if err := b.load(name, src, "", 0); err != nil {
		return b.g, err
	}
	b.convert()
	b.rulesLoaded()
	if b.diags.HasErrors() {
		return b.g, fmt.Errorf("%s: %w", name, ErrCompile)
	}
	Logger().Debug("cfdg: compiled grammar", "file", name,
		"shapes", len(b.g.shapes), "rules", len(b.g.rules), "globals", b.g.globalSize)
	return b.g, nil
}

// CompileFile reads and compiles a file; imports resolve relative to its
// directory.
func CompileFile(file string, opts ...CompileOption) (*Grammar, error) {
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("cfdg: read %s: %w", file, err)
	}
	opts = append([]CompileOption{WithFS(os.DirFS(filepath.Dir(file)))}, opts...)
	return Compile(filepath.Base(file), src, opts...)
}

func (b *Builder) errorf(span Span, format string, args ...any) {
	b.diags.Error(fmt.Sprintf(format, args...), span)
}

func (b *Builder) warnf(span Span, format string, args ...any) {
	b.diags.Warning(fmt.Sprintf(format, args...), span)
}

// load parses one file and declares its contents, recursing into imports.
func (b *Builder) load(name string, src []byte, ns string, depth int) error {
	file, err := syntax.Parse(name, string(src))
	var list syntax.ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			b.diags.Error(e.Msg, e.Span)
		}
	}
	if file == nil {
		return err
	}
	fc := &fileCtx{name: name, ns: ns, depth: depth}
	b.loading[name] = true
	defer delete(b.loading, name)
	for _, d := range file.Decls {
		if imp, ok := d.(*syntax.Import); ok {
			b.importFile(fc, imp)
			continue
		}
		b.declare(fc, d)
		b.pending = append(b.pending, pendingDecl{decl: d, file: fc})
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (b *Builder) importFile(fc *fileCtx, imp *syntax.Import) {
	p := path.Clean(path.Join(path.Dir(fc.name), imp.Path))
	if b.loading[p] {
		b.errorf(imp.Span(), "import cycle through %q", imp.Path)
		return
	}
	src, err := fs.ReadFile(b.fsys, p)
	if err != nil {
		b.errorf(imp.Span(), "cannot import %q: %v", imp.Path, fmt.Errorf("%w: %w", ErrImport, err))
		return
	}
	ns := fc.ns
	if imp.Namespace != "" {
		ns += imp.Namespace + "::"
	}
	if err := b.load(p, src, ns, fc.depth+1); err != nil {
		Logger().Debug("cfdg: import failed", "file", p, "err", err)
	}
}

// declare records the names a declaration introduces so that later
// conversion can resolve forward references.
func (b *Builder) declare(fc *fileCtx, d syntax.Decl) {
	switch d := d.(type) {
	case *syntax.StartShape:
		if b.g.start == nil || fc.depth < b.startDepth {
			b.startDepth = fc.depth
			b.g.start = &startDef{Span: d.Span()}
		}
	case *syntax.ShapeDecl:
		b.declareShape(fc.ns+d.Name, KindShape, d.Params, d.Span())
	case *syntax.PathDecl:
		b.declareShape(fc.ns+d.Name, KindPath, d.Params, d.Span())
	case *syntax.RuleDecl:
		if d.Name != "" {
			b.declareShape(fc.ns+d.Name, KindShape, nil, d.Span())
		}
	case *syntax.Definition:
		b.declareDefinition(fc, d)
	}
}

func (b *Builder) declareShape(name string, kind ShapeKind, sparams []*syntax.Param, span Span) {
	if _, isFunc := b.funcs[name]; isFunc || b.globals[name] != nil {
		b.errorf(span, "%q is already defined as a function or variable", name)
		return
	}
	params := b.params(sparams)
	el := b.g.shapes[b.g.ShapeIndex(name, span)]
	switch {
	case el.Kind == KindPrimitive:
		b.errorf(span, "cannot redefine primitive shape %s", name)
		return
	case el.declared && el.Kind != kind:
		b.errorf(span, "%q is declared both as a shape and as a path", name)
		return
	case el.declared && !sameParams(el.Params, params):
		b.errorf(span, "%q is declared again with different parameters", name)
		return
	}
	el.Kind = kind
	el.Params = params
	el.ParamSize = paramSize(params)
	el.declared = true
}

// params converts declared parameters.
func (b *Builder) params(sparams []*syntax.Param) []*Param {
	var out []*Param
	seen := make(map[string]bool)
	for _, sp := range sparams {
		if seen[sp.Name] {
			b.errorf(sp.Span(), "duplicate parameter %q", sp.Name)
		}
		seen[sp.Name] = true
		p := &Param{Name: sp.Name, Span: sp.Span()}
		p.Type, p.Size, p.Natural = typeOf(sp.Type, sp.Size)
		out = append(out, p)
	}
	return out
}

// typeOf maps a declared type name to its expression type and slot count.
func typeOf(name string, size int) (ExprType, int, bool) {
	switch name {
	case "natural":
		return NumericType, 1, true
	case "vector":
		return NumericType, size, false
	case "adjustment":
		return ModType, 1, false
	case "shape":
		return RuleType, 1, false
	}
	return NumericType, 1, false
}

func sameParams(a, b []*Param) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || a[i].Size != b[i].Size || a[i].Natural != b[i].Natural {
			return false
		}
	}
	return true
}

func (b *Builder) declareDefinition(fc *fileCtx, d *syntax.Definition) {
	if strings.HasPrefix(d.Name, "CF::") {
		if d.Function {
			b.errorf(d.Span(), "configuration parameter %s cannot be a function", d.Name)
		}
		return
	}
	name := fc.ns + d.Name
	if _, ok := b.g.names[name]; ok && b.g.shapes[b.g.names[name]].declared {
		b.errorf(d.Span(), "%q is already defined as a shape", name)
		return
	}
	if b.funcs[name] != nil || b.globals[name] != nil {
		b.errorf(d.Span(), "%q is already defined", name)
		return
	}
	if isBuiltin(name) {
		b.errorf(d.Span(), "%q is a built-in function", name)
		return
	}
	if d.Function {
		f := &FuncDef{Name: name, Params: b.params(d.Params), Span: d.Span()}
		f.ParamSize = paramSize(f.Params)
		f.Type, f.Size, f.Natural = typeOf(d.Type, d.Size)
		b.funcs[name] = f
	}
}

// convert turns the pending declarations into AST, in source order.
func (b *Builder) convert() {
	for _, p := range b.pending {
		b.files = append(b.files, p.file)
		switch d := p.decl.(type) {
		case *syntax.StartShape:
			b.convertStart(d)
		case *syntax.ShapeDecl:
			idx := b.g.names[p.file.ns+d.Name]
			for _, rd := range d.Rules {
				b.convertRule(idx, rd, false)
			}
		case *syntax.RuleDecl:
			if d.Name != "" {
				b.convertRule(b.g.names[p.file.ns+d.Name], d, false)
			}
		case *syntax.PathDecl:
			idx := b.g.names[p.file.ns+d.Name]
			b.convertRule(idx, &syntax.RuleDecl{Body: d.Body}, true)
		case *syntax.Definition:
			b.convertDefinition(d)
		}
		b.files = b.files[:len(b.files)-1]
	}
}

func (b *Builder) file() *fileCtx {
	return b.files[len(b.files)-1]
}

func (b *Builder) convertStart(d *syntax.StartShape) {
	if b.g.start == nil || b.g.start.Span != d.Span() {
		return
	}
	spec := b.ruleSpec(d.Span(), d.Name, d.Args, false, len(d.Args) > 0)
	if rs, ok := spec.(*RuleSpec); ok && rs.Mode == NoArgs {
		if el := b.g.shapes[rs.Shape]; len(el.Params) > 0 {
			if args, ok := b.defaultArgs(d.Span(), el); ok {
				rs.Mode, rs.Args = DynamicArgs, args
				b.diags.Info(fmt.Sprintf("start shape %s is given default arguments", el.Name), d.Span())
			}
		}
	}
	b.g.start.Spec = spec
	b.g.start.Mod = b.modOrEmpty(d.Mod, d.Span())
}

func (b *Builder) convertRule(idx int, rd *syntax.RuleDecl, isPath bool) {
	r := &Rule{NameIndex: idx, IsPath: isPath, Span: rd.Span()}
	switch {
	case !rd.HasWeight:
		r.WeightKind = WeightNone
	case rd.Percent:
		r.WeightKind = WeightPercent
		r.Weight = rd.Weight / 100
	default:
		r.WeightKind = WeightExplicit
		r.Weight = rd.Weight
	}
	r.Body = b.block(rd.Body, isPath)
	b.g.addRule(r)
}

func (b *Builder) convertDefinition(d *syntax.Definition) {
	fc := b.file()
	if strings.HasPrefix(d.Name, "CF::") {
		if !isConfigName(d.Name) {
			b.warnf(d.Span(), "unknown configuration parameter %s%s", d.Name, suggest(d.Name, configNames))
			return
		}
		b.g.setConfig(d.Name, &configDef{Value: b.expr(d.Value), Depth: fc.depth, Span: d.Span()})
		return
	}
	name := fc.ns + d.Name
	if d.Function {
		if f := b.funcs[name]; f != nil && f.Body == nil {
			f.Body = b.expr(d.Value)
		}
		return
	}
	if b.globals[name] != nil {
		return
	}
	// The binding stays untyped, and so invisible, until its definition
	// has been type checked.
	bd := &Binding{Name: name, Global: true, Span: d.Span()}
	gd := &globalDef{Name: name, Value: b.expr(d.Value), binding: bd, Span: d.Span(), typed: d.Type != ""}
	gd.declType, gd.declSize, gd.declNatural = typeOf(d.Type, d.Size)
	bd.value = gd.Value
	b.globals[name] = bd
	b.g.globals = append(b.g.globals, gd)
}

// rulesLoaded normalizes weights and runs both compile phases.
func (b *Builder) rulesLoaded() {
	g := b.g
	for i, el := range g.shapes {
		if el.declared && !el.HasRules && i >= primitiveCount {
			b.warnf(el.FirstUse, "shape %q has no rules", el.Name)
		}
	}
	g.normalizeWeights(b.diags)
	for _, ph := range []Phase{PhaseTypeCheck, PhaseSimplify} {
		b.compileGlobals(ph)
		b.compileConfig(ph)
		b.compileFuncs(ph)
		b.compileRules(ph)
		if ph == PhaseTypeCheck && b.diags.HasErrors() {
			return
		}
	}
}

func (b *Builder) compileConfig(ph Phase) {
	names := make([]string, 0, len(b.g.config))
	for n := range b.g.config {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		def := b.g.config[n]
		b.depth = b.g.globalSize
		def.Value = def.Value.compile(ph, b)
		if ph == PhaseTypeCheck {
			b.checkConfig(n, def)
		}
	}
	if e := b.g.configExpr("CF::AllowOverlap"); e != nil {
		if v, ok := b.constNumber(e); ok {
			b.g.AllowOverlap = v != 0
		}
	}
}

func (b *Builder) compileGlobals(ph Phase) {
	for _, gd := range b.g.globals {
		// Locals of a global's value sit above the globals before it.
		b.depth = gd.binding.Offset
		if ph == PhaseTypeCheck {
			b.depth = b.g.globalSize
		}
		gd.Value = gd.Value.compile(ph, b)
		gd.binding.value = gd.Value
		if ph != PhaseTypeCheck {
			continue
		}
		bd := gd.binding
		vt := gd.Value.Type() &^ FlagType
		switch {
		case vt == NoType:
			bd.Type, bd.Size = gd.declType, gd.declSize
		case !gd.typed:
			bd.Type = vt
			bd.Size = slotCount(gd.Value)
			bd.Natural = gd.Value.IsNatural()
		case gd.declType != vt || vt == NumericType && gd.declSize != gd.Value.Size():
			b.errorf(gd.Span, "%q is declared as %s but defined as %s", gd.Name, gd.declType, vt)
			bd.Type, bd.Size = gd.declType, gd.declSize
		default:
			bd.Type, bd.Size = vt, gd.declSize
			bd.Natural = gd.declNatural
		}
		bd.Offset = b.g.globalSize
		b.g.globalSize += bd.Size
	}
}

func (b *Builder) compileFuncs(ph Phase) {
	names := make([]string, 0, len(b.funcs))
	for n := range b.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		f := b.funcs[n]
		if f.Body == nil {
			continue
		}
		b.enterFrame(f.Params)
		f.Body = f.Body.compile(ph, b)
		b.leaveFrame()
		if ph == PhaseTypeCheck && f.Body.Type() != NoType {
			if f.Body.Type()&^FlagType != f.Type || f.Type == NumericType && f.Body.Size() != f.Size {
				b.errorf(f.Span, "function %q returns %s but its body is %s", f.Name, f.Type, f.Body.Type())
			}
			if f.Natural && !f.Body.IsNatural() {
				f.Natural = false
			}
		}
	}
}

func (b *Builder) compileRules(ph Phase) {
	for _, r := range b.g.rules {
		el := b.g.shapes[r.NameIndex]
		b.curShape = el
		b.enterFrame(el.Params)
		r.Body.compile(ph, b)
		b.leaveFrame()
		b.curShape = nil
	}
	if b.g.start != nil && b.g.start.Spec != nil {
		b.depth = b.g.globalSize
		b.g.start.Spec = b.g.start.Spec.compile(ph, b)
		b.g.start.Mod = b.g.start.Mod.compile(ph, b).(*ModExpr)
	}
}

// enterFrame starts a parameter frame: params at offsets 0..N.
func (b *Builder) enterFrame(params []*Param) {
	b.scopes = b.scopes[:0]
	b.depth = 0
	b.pushScope()
	for _, p := range params {
		b.declareLocal(p.Name, p.Type, p.Size, p.Natural, p.Span)
	}
}

func (b *Builder) leaveFrame() {
	b.popScope()
	b.scopes = b.scopes[:0]
}

func (b *Builder) pushScope() {
	b.scopes = append(b.scopes, scope{names: make(map[string]*Binding), depth: b.depth})
}

func (b *Builder) popScope() {
	top := b.scopes[len(b.scopes)-1]
	b.depth = top.depth
	b.scopes = b.scopes[:len(b.scopes)-1]
}

// declareLocal allocates size stack slots in the innermost scope. An
// empty name allocates an anonymous slot.
func (b *Builder) declareLocal(name string, typ ExprType, size int, natural bool, span Span) *Binding {
	bd := &Binding{Name: name, Type: typ, Size: size, Natural: natural, Offset: b.depth, Span: span}
	b.depth += size
	if b.depth > b.g.maxLocals {
		b.g.maxLocals = b.depth
	}
	if name == "" || len(b.scopes) == 0 {
		return bd
	}
	top := b.scopes[len(b.scopes)-1].names
	if prev, ok := top[name]; ok {
		b.errorf(span, "%q is already defined at %s", name, prev.Span)
	}
	top[name] = bd
	return bd
}

// lookup resolves a variable: innermost scope first, then globals, first
// in the reference's namespace.
func (b *Builder) lookup(name, ns string) *Binding {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if bd, ok := b.scopes[i].names[name]; ok {
			return bd
		}
	}
	if ns != "" {
		if bd := b.globals[ns+name]; bd != nil && bd.Type != NoType {
			return bd
		}
	}
	if bd := b.globals[name]; bd != nil && bd.Type != NoType {
		return bd
	}
	return nil
}

// resolveName turns a name that is not a variable into a value: a shape
// reference or a CF:: constant.
func (b *Builder) resolveName(span Span, name, ns string) Expr {
	if v, ok := flagConstant(name); ok {
		r := NewReal(span, name, v)
		r.typ |= FlagType
		return r
	}
	if idx, ok := b.shapeIndex(name, ns); ok {
		return newRuleSpec(span, b.g.shapes[idx].Name, idx, NoArgs, nil)
	}
	return nil
}

// shapeIndex finds a declared shape, preferring the namespace.
func (b *Builder) shapeIndex(name, ns string) (int, bool) {
	if ns != "" {
		if i, ok := b.g.names[ns+name]; ok && b.g.shapes[i].declared {
			return i, true
		}
	}
	i, ok := b.g.names[name]
	if ok && b.g.shapes[i].declared {
		return i, true
	}
	return 0, false
}

// funcDef finds a user function, preferring the namespace.
func (b *Builder) funcDef(name, ns string) *FuncDef {
	if f := b.funcs[ns+name]; f != nil {
		return f
	}
	return b.funcs[name]
}

func (b *Builder) suggestName(name string) string {
	var cands []string
	for _, s := range b.scopes {
		for n := range s.names {
			cands = append(cands, n)
		}
	}
	for n := range b.globals {
		cands = append(cands, n)
	}
	for _, el := range b.g.shapes {
		if el.declared {
			cands = append(cands, el.Name)
		}
	}
	return suggest(name, cands)
}

func (b *Builder) suggestShape(name string) string {
	var cands []string
	for _, el := range b.g.shapes {
		if el.declared {
			cands = append(cands, el.Name)
		}
	}
	return suggest(name, cands)
}

func (b *Builder) suggestFunc(name string) string {
	cands := make([]string, 0, len(builtins)+len(b.funcs))
	for n := range builtins {
		cands = append(cands, n)
	}
	for n := range b.funcs {
		cands = append(cands, n)
	}
	return suggest(name, cands)
}

// constNumber evaluates a constant scalar at compile time.
func (b *Builder) constNumber(e Expr) (float64, bool) {
	if e == nil || !e.IsConstant() || e.Type()&NumericType == 0 || e.Size() != 1 {
		return 0, false
	}
	var v float64
	ok := tryFold(func() { v = evalScalar(nil, e) })
	return v, ok
}

// constNatural evaluates a constant natural number at compile time.
func (b *Builder) constNatural(e Expr) (float64, bool) {
	v, ok := b.constNumber(e)
	if !ok || !isNaturalValue(v) {
		return 0, false
	}
	return v, true
}

// staticRand is the stream rand_static() draws from.
func (b *Builder) staticRand() *rand64.Rand64 {
	return &b.static
}

func (b *Builder) usesFrameTime() {
	b.g.frameDependent = true
}

// checkArgs matches arguments against declared parameters.
func (b *Builder) checkArgs(span Span, name string, params []*Param, args []Expr) bool {
	if len(args) != len(params) {
		b.errorf(span, "%s takes %d arguments, got %d", name, len(params), len(args))
		return false
	}
	ok := true
	for i, p := range params {
		a := args[i]
		switch {
		case a.Type() == NoType:
			ok = false
		case a.Type()&p.Type == 0:
			b.errorf(a.Span(), "argument %d of %s must be %s, not %s", i+1, name, p.Type, a.Type())
			ok = false
		case p.Type == NumericType && a.Size() != p.Size:
			b.errorf(a.Span(), "argument %d of %s must have length %d, not %d", i+1, name, p.Size, a.Size())
			ok = false
		case p.Natural && a.IsConstant():
			if v, isConst := b.constNumber(a); isConst && !isNaturalValue(v) {
				b.errorf(a.Span(), "argument %d of %s must be a natural number", i+1, name)
				ok = false
			}
		}
	}
	return ok
}

// sameParamsAsCurrent reports whether params match the shape whose rule
// is being compiled, as name(=) requires.
func (b *Builder) sameParamsAsCurrent(params []*Param) bool {
	return b.curShape != nil && sameParams(b.curShape.Params, params)
}

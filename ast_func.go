package cfdg

import (
	"math"
	"strings"

	"github.com/gogpu/cfdg/internal/rand64"
)

// builtin describes a built-in function. Argument counts are in numeric
// slots, so a vector argument counts once per element.
type builtin struct {
	minArgs, maxArgs int // maxArgs < 0: no upper bound
	size             int // result length; 0 when computed from the arguments
	random           bool
	frame            bool
	// naturalArgs marks functions whose result is natural when every
	// argument is; naturalResult marks functions that always return one.
	naturalArgs   bool
	naturalResult bool
	// intArgs functions require natural argument values.
	intArgs bool
	eval    func(r *Renderer, c *Call, a, out []float64)
}

func unary(f func(float64) float64) func(*Renderer, *Call, []float64, []float64) {
	return func(_ *Renderer, _ *Call, a, out []float64) { out[0] = f(a[0]) }
}

func binary(f func(x, y float64) float64) func(*Renderer, *Call, []float64, []float64) {
	return func(_ *Renderer, _ *Call, a, out []float64) { out[0] = f(a[0], a[1]) }
}

func bits(f func(x, y uint64) uint64) func(*Renderer, *Call, []float64, []float64) {
	return func(_ *Renderer, _ *Call, a, out []float64) {
		out[0] = float64(f(uint64(a[0]), uint64(a[1])) & (maxInteger - 1))
	}
}

func degreesOf(f func(float64) float64) func(float64) float64 {
	return func(x float64) float64 { return degrees(f(x)) }
}

func ofDegrees(f func(float64) float64) func(float64) float64 {
	return func(x float64) float64 { return f(radians(x)) }
}

var builtins map[string]*builtin

func init() {
	builtins = map[string]*builtin{
		"cos":   {minArgs: 1, maxArgs: 1, size: 1, eval: unary(ofDegrees(math.Cos))},
		"sin":   {minArgs: 1, maxArgs: 1, size: 1, eval: unary(ofDegrees(math.Sin))},
		"tan":   {minArgs: 1, maxArgs: 1, size: 1, eval: unary(ofDegrees(math.Tan))},
		"cot":   {minArgs: 1, maxArgs: 1, size: 1, eval: unary(ofDegrees(func(x float64) float64 { return 1 / math.Tan(x) }))},
		"acos":  {minArgs: 1, maxArgs: 1, size: 1, eval: unary(degreesOf(math.Acos))},
		"asin":  {minArgs: 1, maxArgs: 1, size: 1, eval: unary(degreesOf(math.Asin))},
		"atan":  {minArgs: 1, maxArgs: 1, size: 1, eval: unary(degreesOf(math.Atan))},
		"acot":  {minArgs: 1, maxArgs: 1, size: 1, eval: unary(degreesOf(func(x float64) float64 { return math.Atan(1 / x) }))},
		"cosh":  {minArgs: 1, maxArgs: 1, size: 1, eval: unary(math.Cosh)},
		"sinh":  {minArgs: 1, maxArgs: 1, size: 1, eval: unary(math.Sinh)},
		"tanh":  {minArgs: 1, maxArgs: 1, size: 1, eval: unary(math.Tanh)},
		"acosh": {minArgs: 1, maxArgs: 1, size: 1, eval: unary(math.Acosh)},
		"asinh": {minArgs: 1, maxArgs: 1, size: 1, eval: unary(math.Asinh)},
		"atanh": {minArgs: 1, maxArgs: 1, size: 1, eval: unary(math.Atanh)},
		"log":   {minArgs: 1, maxArgs: 1, size: 1, eval: unary(math.Log)},
		"log10": {minArgs: 1, maxArgs: 1, size: 1, eval: unary(math.Log10)},
		"sqrt":  {minArgs: 1, maxArgs: 1, size: 1, eval: unary(math.Sqrt)},
		"exp":   {minArgs: 1, maxArgs: 1, size: 1, eval: unary(math.Exp)},
		"abs":   {minArgs: 1, maxArgs: 1, size: 1, naturalArgs: true, eval: unary(math.Abs)},
		"floor": {minArgs: 1, maxArgs: 1, size: 1, naturalArgs: true, eval: unary(math.Floor)},
		"ceiling": {minArgs: 1, maxArgs: 1, size: 1, naturalArgs: true, eval: unary(math.Ceil)},
		"infinity": {minArgs: 0, maxArgs: 1, size: 1, eval: func(_ *Renderer, _ *Call, a, out []float64) {
			out[0] = math.Inf(1)
			if len(a) == 1 && math.Signbit(a[0]) {
				out[0] = math.Inf(-1)
			}
		}},
		"factorial": {minArgs: 1, maxArgs: 1, size: 1, intArgs: true, naturalResult: true, eval: func(_ *Renderer, c *Call, a, out []float64) {
			if a[0] > 170 {
				runtimeError(c.span, "factorial argument %s is too large", formatFloat(a[0]))
			}
			f := 1.0
			for i := 2.0; i <= a[0]; i++ {
				f *= i
			}
			out[0] = f
		}},
		"sg": {minArgs: 1, maxArgs: 1, size: 1, naturalArgs: true, eval: unary(func(x float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			}
			return 0
		})},
		"isNatural": {minArgs: 1, maxArgs: 1, size: 1, naturalResult: true, eval: unary(func(x float64) float64 {
			return boolValue(isNaturalValue(x))
		})},
		"bitnot": {minArgs: 1, maxArgs: 1, size: 1, intArgs: true, naturalResult: true, eval: unary(func(x float64) float64 {
			return float64(^uint64(x) & (maxInteger - 1))
		})},
		"bitor":    {minArgs: 2, maxArgs: 2, size: 1, intArgs: true, naturalResult: true, eval: bits(func(x, y uint64) uint64 { return x | y })},
		"bitand":   {minArgs: 2, maxArgs: 2, size: 1, intArgs: true, naturalResult: true, eval: bits(func(x, y uint64) uint64 { return x & y })},
		"bitxor":   {minArgs: 2, maxArgs: 2, size: 1, intArgs: true, naturalResult: true, eval: bits(func(x, y uint64) uint64 { return x ^ y })},
		"bitleft":  {minArgs: 2, maxArgs: 2, size: 1, intArgs: true, naturalResult: true, eval: bits(func(x, y uint64) uint64 { return x << y })},
		"bitright": {minArgs: 2, maxArgs: 2, size: 1, intArgs: true, naturalResult: true, eval: bits(func(x, y uint64) uint64 { return x >> y })},
		"atan2": {minArgs: 2, maxArgs: 2, size: 1, eval: binary(func(y, x float64) float64 {
			return degrees(math.Atan2(y, x))
		})},
		"mod": {minArgs: 2, maxArgs: 2, size: 1, naturalArgs: true, eval: func(_ *Renderer, c *Call, a, out []float64) {
			if c.natural && a[1] == 0 {
				runtimeError(c.span, "mod by zero")
			}
			out[0] = math.Mod(a[0], a[1])
		}},
		"divides": {minArgs: 2, maxArgs: 2, size: 1, intArgs: true, naturalResult: true, eval: func(_ *Renderer, c *Call, a, out []float64) {
			if a[1] == 0 {
				runtimeError(c.span, "divides by zero")
			}
			out[0] = boolValue(math.Mod(a[0], a[1]) == 0)
		}},
		"div": {minArgs: 2, maxArgs: 2, size: 1, naturalArgs: true, eval: func(_ *Renderer, c *Call, a, out []float64) {
			if a[1] == 0 {
				runtimeError(c.span, "div by zero")
			}
			out[0] = math.Floor(a[0] / a[1])
		}},
		"dot": {minArgs: 2, maxArgs: -1, size: 1, eval: func(_ *Renderer, _ *Call, a, out []float64) {
			n := len(a) / 2
			s := 0.0
			for i := range n {
				s += a[i] * a[n+i]
			}
			out[0] = s
		}},
		"cross": {minArgs: 4, maxArgs: 6, eval: func(_ *Renderer, _ *Call, a, out []float64) {
			if len(a) == 4 {
				out[0] = a[0]*a[3] - a[1]*a[2]
				return
			}
			out[0] = a[1]*a[5] - a[2]*a[4]
			out[1] = a[2]*a[3] - a[0]*a[5]
			out[2] = a[0]*a[4] - a[1]*a[3]
		}},
		"hsb2rgb": {minArgs: 3, maxArgs: 3, size: 3, eval: func(_ *Renderer, _ *Call, a, out []float64) {
			out[0], out[1], out[2] = hsbToRGB(a[0], a[1], a[2])
		}},
		"rgb2hsb": {minArgs: 3, maxArgs: 3, size: 3, eval: func(_ *Renderer, _ *Call, a, out []float64) {
			out[0], out[1], out[2] = rgbToHSB(a[0], a[1], a[2])
		}},
		"vec": {minArgs: 2, maxArgs: 2, naturalArgs: true, eval: func(_ *Renderer, _ *Call, a, out []float64) {
			for i := range out {
				out[i] = a[0]
			}
		}},
		"min": {minArgs: 1, maxArgs: -1, size: 1, naturalArgs: true, eval: func(_ *Renderer, _ *Call, a, out []float64) {
			v := a[0]
			for _, x := range a[1:] {
				v = math.Min(v, x)
			}
			out[0] = v
		}},
		"max": {minArgs: 1, maxArgs: -1, size: 1, naturalArgs: true, eval: func(_ *Renderer, _ *Call, a, out []float64) {
			v := a[0]
			for _, x := range a[1:] {
				v = math.Max(v, x)
			}
			out[0] = v
		}},
		"ftime": {minArgs: 0, maxArgs: 0, size: 1, frame: true, eval: func(r *Renderer, _ *Call, _, out []float64) {
			out[0] = r.frameTime
		}},
		"frame": {minArgs: 0, maxArgs: 0, size: 1, frame: true, naturalResult: true, eval: func(r *Renderer, _ *Call, _, out []float64) {
			out[0] = float64(r.frameNum)
		}},
		"rand_static": {minArgs: 0, maxArgs: 2, size: 1, eval: randUniform},
		"rand":        {minArgs: 0, maxArgs: 2, size: 1, random: true, eval: randUniform},
		"rand+/-": {minArgs: 1, maxArgs: 2, size: 1, random: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			rnd := c.source(r)
			if len(a) == 1 {
				out[0] = rnd.Range(-a[0], a[0])
				return
			}
			out[0] = rnd.Range(a[0]-a[1], a[0]+a[1])
		}},
		"randint": {minArgs: 0, maxArgs: 2, size: 1, random: true, naturalArgs: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			rnd := c.source(r)
			switch len(a) {
			case 0:
				out[0] = float64(rnd.Int(0, 2))
			case 1:
				out[0] = float64(rnd.Int(0, int64(math.Floor(a[0]))))
			default:
				out[0] = float64(rnd.Int(int64(math.Floor(a[0])), int64(math.Floor(a[1]))))
			}
		}},

		"rand::uniform": {minArgs: 2, maxArgs: 2, size: 1, random: true, eval: randUniform},
		"rand::exponential": {minArgs: 1, maxArgs: 1, size: 1, random: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = c.source(r).Exponential(a[0])
		}},
		"rand::gamma": {minArgs: 2, maxArgs: 2, size: 1, random: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = c.source(r).Gamma(a[0], a[1])
		}},
		"rand::weibull": {minArgs: 2, maxArgs: 2, size: 1, random: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = c.source(r).Weibull(a[0], a[1])
		}},
		"rand::extremeV": {minArgs: 2, maxArgs: 2, size: 1, random: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = c.source(r).ExtremeValue(a[0], a[1])
		}},
		"rand::normal": {minArgs: 2, maxArgs: 2, size: 1, random: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = c.source(r).Normal(a[0], a[1])
		}},
		"rand::lognormal": {minArgs: 2, maxArgs: 2, size: 1, random: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = c.source(r).LogNormal(a[0], a[1])
		}},
		"rand::chisquared": {minArgs: 1, maxArgs: 1, size: 1, random: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = c.source(r).ChiSquared(a[0])
		}},
		"rand::cauchy": {minArgs: 2, maxArgs: 2, size: 1, random: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = c.source(r).Cauchy(a[0], a[1])
		}},
		"rand::fisherF": {minArgs: 2, maxArgs: 2, size: 1, random: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = c.source(r).FisherF(a[0], a[1])
		}},
		"rand::studentT": {minArgs: 1, maxArgs: 1, size: 1, random: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = c.source(r).StudentT(a[0])
		}},
		"rand::bernoulli": {minArgs: 1, maxArgs: 1, size: 1, random: true, naturalResult: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = boolValue(c.source(r).Bernoulli(a[0]))
		}},
		"rand::binomial": {minArgs: 2, maxArgs: 2, size: 1, random: true, naturalResult: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = float64(c.source(r).Binomial(int64(a[0]), a[1]))
		}},
		"rand::negbinomial": {minArgs: 2, maxArgs: 2, size: 1, random: true, naturalResult: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = float64(c.source(r).NegativeBinomial(int64(a[0]), a[1]))
		}},
		"rand::poisson": {minArgs: 1, maxArgs: 1, size: 1, random: true, naturalResult: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = float64(c.source(r).Poisson(a[0]))
		}},
		"rand::geometric": {minArgs: 1, maxArgs: 1, size: 1, random: true, naturalResult: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = float64(c.source(r).Geometric(a[0]))
		}},
		"rand::discrete": {minArgs: 1, maxArgs: -1, size: 1, random: true, naturalResult: true, eval: func(r *Renderer, c *Call, a, out []float64) {
			out[0] = float64(max(c.source(r).Index(a), 0))
		}},
	}
}

// randUniform is rand(), rand(hi) and rand(lo, hi).
func randUniform(r *Renderer, c *Call, a, out []float64) {
	rnd := c.source(r)
	switch len(a) {
	case 0:
		out[0] = rnd.Double()
	case 1:
		out[0] = rnd.Range(0, a[0])
	default:
		out[0] = rnd.Range(a[0], a[1])
	}
}

// isBuiltin reports whether name is a built-in function.
func isBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// Call invokes a built-in function.
type Call struct {
	exprBase
	Name string
	Args []Expr
	fn   *builtin
	// static is the seed that rand_static draws from at compile time.
	static *rand64.Rand64
	nargs  int
}

func newCall(span Span, name string, args []Expr) *Call {
	c := &Call{Name: name, Args: args, fn: builtins[name]}
	c.span = span
	return c
}

// source returns the random stream the call draws from.
func (c *Call) source(r *Renderer) *rand64.Rand64 {
	if c.static != nil {
		return c.static
	}
	if r == nil {
		panic(deferSignal{})
	}
	return r.rand()
}

func (c *Call) compile(ph Phase, b *Builder) Expr {
	for i := range c.Args {
		c.Args[i] = c.Args[i].compile(ph, b)
	}
	switch ph {
	case PhaseTypeCheck:
		c.typeCheck(b)
	case PhaseSimplify:
		if c.constant {
			if f := foldNumeric(c); f != nil {
				return f
			}
		}
	}
	return c
}

func (c *Call) typeCheck(b *Builder) {
	fn := c.fn
	c.nargs = 0
	c.constant = true
	c.natural = true
	c.locality = PureLocal
	for _, a := range c.Args {
		if a.Type() == NoType {
			c.invalidate()
			return
		}
		if a.Type()&NumericType == 0 {
			b.errorf(a.Span(), "arguments of %s() must be numbers, not %s", c.Name, a.Type())
			c.invalidate()
			return
		}
		c.nargs += a.Size()
		c.constant = c.constant && a.IsConstant()
		c.natural = c.natural && a.IsNatural()
		c.locality = combineLocality(c.locality, a.Locality())
	}
	if c.nargs < fn.minArgs || fn.maxArgs >= 0 && c.nargs > fn.maxArgs {
		switch {
		case fn.minArgs == fn.maxArgs:
			b.errorf(c.span, "%s() takes %d arguments, got %d", c.Name, fn.minArgs, c.nargs)
		case fn.maxArgs < 0:
			b.errorf(c.span, "%s() takes at least %d arguments, got %d", c.Name, fn.minArgs, c.nargs)
		default:
			b.errorf(c.span, "%s() takes %d to %d arguments, got %d", c.Name, fn.minArgs, fn.maxArgs, c.nargs)
		}
		c.invalidate()
		return
	}
	c.typ = NumericType
	c.size = fn.size

	switch c.Name {
	case "dot":
		if len(c.Args) != 2 || c.Args[0].Size() != c.Args[1].Size() {
			b.errorf(c.span, "dot() takes two vectors of the same length")
			c.invalidate()
			return
		}
	case "cross":
		if len(c.Args) != 2 || c.Args[0].Size() != c.Args[1].Size() || c.nargs == 5 {
			b.errorf(c.span, "cross() takes two vector2 or two vector3 arguments")
			c.invalidate()
			return
		}
		c.size = c.nargs / 2
		if c.size == 2 {
			c.size = 1
		}
	case "vec":
		n, ok := b.constNatural(c.Args[len(c.Args)-1])
		if len(c.Args) != 2 || c.Args[0].Size() != 1 || !ok || n < 1 || n > 99 {
			b.errorf(c.span, "vec() takes a number and a constant length from 1 to 99")
			c.invalidate()
			return
		}
		c.size = int(n)
	case "rand_static":
		c.static = b.staticRand()
	}

	switch {
	case fn.naturalResult:
		c.natural = true
	case !fn.naturalArgs:
		c.natural = false
	}
	if fn.random || fn.frame {
		c.constant = false
		c.locality = ImpureNonlocal
	}
	if fn.frame {
		b.usesFrameTime()
	}
}

func (c *Call) Evaluate(r *Renderer, out []float64) int {
	if c.typ&NumericType == 0 {
		return -1
	}
	if out == nil {
		return c.size
	}
	if c.fn.frame && r == nil {
		panic(deferSignal{})
	}
	var buf [8]float64
	a := scratch(buf[:], c.nargs)
	pos := 0
	for _, e := range c.Args {
		n := e.Evaluate(r, a[pos:pos+e.Size()])
		if n < 0 {
			return -1
		}
		pos += n
	}
	if c.fn.intArgs {
		for _, v := range a {
			if !isNaturalValue(v) {
				if r == nil {
					panic(deferSignal{})
				}
				runtimeError(c.span, "%s() needs natural number arguments, got %s", c.Name, formatFloat(v))
			}
		}
	}
	c.fn.eval(r, c, a, out[:c.size])
	return c.size
}

func (c *Call) Entropy(e *strings.Builder) {
	for _, a := range c.Args {
		a.Entropy(e)
	}
	e.WriteString(c.Name)
}

// FuncDef is a user-defined function "type name(params) = body".
type FuncDef struct {
	Name      string
	Params    []*Param
	ParamSize int
	Type      ExprType
	Size      int
	Natural   bool
	Body      Expr
	Span      Span
}

// UserCall invokes a user-defined function. The arguments are pushed as
// a new frame and the body is evaluated against it.
type UserCall struct {
	exprBase
	Def  *FuncDef
	Args []Expr
}

func newUserCall(span Span, def *FuncDef, args []Expr) *UserCall {
	u := &UserCall{Def: def, Args: args}
	u.span = span
	return u
}

func (u *UserCall) compile(ph Phase, b *Builder) Expr {
	for i := range u.Args {
		u.Args[i] = u.Args[i].compile(ph, b)
	}
	if ph == PhaseTypeCheck {
		if !b.checkArgs(u.span, u.Def.Name, u.Def.Params, u.Args) {
			u.invalidate()
			return u
		}
		u.typ = u.Def.Type
		u.size = u.Def.Size
		u.natural = u.Def.Natural
		u.locality = ImpureNonlocal
	}
	return u
}

// enter pushes the argument frame and returns the bases to restore.
func (u *UserCall) enter(r *Renderer) (base, frame int) {
	if r == nil {
		panic(deferSignal{})
	}
	items := bindArgs(r, u.Def.Params, u.Args)
	base = r.st.Size()
	for _, it := range items {
		r.st.Push(it)
	}
	return base, r.st.SetFrame(base)
}

func (u *UserCall) leave(r *Renderer, base, frame int) {
	r.st.SetFrame(frame)
	r.st.Truncate(base)
}

func (u *UserCall) Evaluate(r *Renderer, out []float64) int {
	if u.typ&NumericType == 0 {
		return -1
	}
	if out == nil {
		return u.size
	}
	base, frame := u.enter(r)
	n := u.Def.Body.Evaluate(r, out)
	u.leave(r, base, frame)
	return n
}

func (u *UserCall) EvalMod(r *Renderer, m *Modification, shapeDest bool) {
	base, frame := u.enter(r)
	u.Def.Body.EvalMod(r, m, shapeDest)
	u.leave(r, base, frame)
}

func (u *UserCall) EvalRule(r *Renderer) *StackRule {
	base, frame := u.enter(r)
	rule := u.Def.Body.EvalRule(r)
	u.leave(r, base, frame)
	return rule
}

func (u *UserCall) Entropy(e *strings.Builder) {
	for _, a := range u.Args {
		a.Entropy(e)
	}
	e.WriteString(u.Def.Name)
}

// bindArgs evaluates arguments into the stack layout of params without
// touching the stack. A nil renderer folds constant arguments.
func bindArgs(r *Renderer, params []*Param, args []Expr) []StackItem {
	items := make([]StackItem, 0, len(args))
	for i, p := range params {
		a := args[i]
		switch p.Type {
		case NumericType:
			vals := evalNumbers(r, a)
			if p.Natural {
				for _, v := range vals {
					if isNaturalValue(v) {
						continue
					}
					if r == nil {
						panic(deferSignal{})
					}
					if !r.impure {
						runtimeError(a.Span(), "parameter %q must be a natural number, got %s", p.Name, formatFloat(v))
					}
				}
			}
			for _, v := range vals {
				items = append(items, NumberItem(v))
			}
		case ModType:
			m := NewModification()
			a.EvalMod(r, &m, false)
			items = append(items, ModItem(&m))
		case RuleType:
			items = append(items, RuleItem(a.EvalRule(r)))
		}
	}
	return items
}

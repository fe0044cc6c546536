package cfdg

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync/atomic"

	"github.com/gogpu/cfdg/internal/rand64"
	"golang.org/x/time/rate"
)

// yieldEvery is the number of expansions between scheduler yields,
// rescales and listener checks. It must be a power of two.
const yieldEvery = 1 << 12

// maxNaturalLimit is the largest value CF::MaxNatural may take: the
// largest integer a float64 holds exactly.
const maxNaturalLimit = 1 << 53

// Stats counts the work of the last expansion.
type Stats struct {
	Expanded int // shapes whose rules ran
	Finished int // shapes ready to draw
	Pruned   int // shapes dropped below the minimum size
	MaxQueue int // longest the expansion queue got
}

// Renderer expands a Grammar into finished shapes and draws them.
//
// A Renderer is not safe for concurrent use, except for the Request
// methods, which may be called from any goroutine while Run is in
// progress. Any number of renderers may share one Grammar.
type Renderer struct {
	g     *Grammar
	opts  renderOptions
	diags *Diagnostics
	st    *Stack

	// State of the expansion in progress.
	seed       rand64.Rand64
	randUsed   bool
	curParams  *StackRule
	impure     bool
	maxNatural float64
	frameTime  float64
	frameNum   int
	path       *pathBuilder

	queue    []Shape
	head     int
	finished []FinishedShape
	bounds   Bounds
	scaledAt Bounds
	scale    float64
	minArea  float64
	order    int
	gen      uint64
	stats    Stats

	// Configuration read from the grammar at init.
	maxShapes   int
	border      float64
	borderDyn   float64
	background  HSBColor
	alpha       bool
	colorDepth  int
	fixedSize   *Bounds
	timeBounds  *AffineTime
	symmetry    Symmetry
	animating   bool

	stop     atomic.Bool
	finishUp atomic.Bool
	update   atomic.Bool
	limiter  *rate.Limiter
}

// NewRenderer creates a renderer for g. It fails with ErrCompile when g
// did not compile and with ErrNoStartShape when no start shape is given.
func NewRenderer(g *Grammar, opts ...RenderOption) (*Renderer, error) {
	if g == nil {
		return nil, fmt.Errorf("cfdg: nil grammar: %w", ErrCompile)
	}
	if g.diags != nil && g.diags.HasErrors() {
		return nil, fmt.Errorf("%s: %w", g.Name, ErrCompile)
	}
	if (g.start == nil || g.start.Spec == nil) && g.configExpr(ConfigStartShape) == nil {
		return nil, fmt.Errorf("%s: %w", g.Name, ErrNoStartShape)
	}
	o := defaultRenderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("cfdg: invalid size %dx%d", o.width, o.height)
	}
	if need := g.stackNeed(); o.stackLimit > 0 && o.stackLimit < need {
		return nil, fmt.Errorf("cfdg: stack limit %d is below the %d items %s needs", o.stackLimit, need, g.Name)
	}
	r := &Renderer{g: g, opts: o, diags: o.diags, limiter: o.limiter()}
	if r.diags == nil {
		r.diags = &Diagnostics{}
	}
	return r, nil
}

// NewRenderer creates a renderer for the grammar.
func (g *Grammar) NewRenderer(opts ...RenderOption) (*Renderer, error) {
	return NewRenderer(g, opts...)
}

// Grammar returns the grammar being rendered.
func (r *Renderer) Grammar() *Grammar { return r.g }

// Diagnostics returns the runtime messages of the renderer.
func (r *Renderer) Diagnostics() *Diagnostics { return r.diags }

// Stats returns the counters of the last expansion.
func (r *Renderer) Stats() Stats { return r.stats }

// ShapeCount returns the number of finished shapes.
func (r *Renderer) ShapeCount() int { return len(r.finished) }

// Shapes returns the finished shapes in production order until Draw
// sorts them into drawing order. The slice is owned by the renderer.
func (r *Renderer) Shapes() []FinishedShape { return r.finished }

// Bounds returns the bounds of the design in design units.
func (r *Renderer) Bounds() Bounds { return r.designBounds() }

// Background returns the background color set by CF::Background.
func (r *Renderer) Background() RGBA {
	bg := r.background.RGBA()
	if !r.alpha {
		bg.A = 1
	}
	return bg
}

// Transparent reports whether CF::Alpha asked for a transparent output.
func (r *Renderer) Transparent() bool { return r.alpha }

// ColorDepth returns the bits per channel CF::ColorDepth asks for: 8 or
// 16.
func (r *Renderer) ColorDepth() int {
	if r.colorDepth == 0 {
		return 8
	}
	return r.colorDepth
}

// Symmetry returns the symmetry group of CF::Symmetry, CF::Tile and
// CF::Frieze.
func (r *Renderer) Symmetry() Symmetry { return r.symmetry }

// Size returns the pixel size the design is drawn at.
func (r *Renderer) Size() (width, height int) {
	fit := r.fit(r.drawBounds())
	return fit.Width, fit.Height
}

// RequestStop asks a running render to stop as soon as possible. Run and
// Draw then return ErrStopped.
func (r *Renderer) RequestStop() { r.stop.Store(true) }

// RequestFinishUp asks a running render to stop expanding and draw the
// shapes it has. Made while drawing, it ends the frame early.
func (r *Renderer) RequestFinishUp() { r.finishUp.Store(true) }

// RequestUpdate asks for a listener call at the next opportunity,
// regardless of the redraw interval.
func (r *Renderer) RequestUpdate() { r.update.Store(true) }

// Run expands the grammar and, when c is not nil, draws the result onto
// c. Cancelling ctx stops the render like RequestStop.
//
// A grammar error at run time aborts the expansion: the error is added to
// the diagnostics and returned wrapped in ErrRuntime, and the shapes
// finished before it are kept.
func (r *Renderer) Run(ctx context.Context, c Canvas) error {
	if err := r.expandAll(ctx); err != nil {
		return err
	}
	if c == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ErrStopped
	}
	return r.Draw(c)
}

// expandAll runs one complete expansion pass.
func (r *Renderer) expandAll(ctx context.Context) (err error) {
	r.stop.Store(false)
	r.finishUp.Store(false)
	if ctx.Err() != nil {
		return ErrStopped
	}
	release := context.AfterFunc(ctx, r.RequestStop)
	defer release()
	defer r.recoverRun(&err)

	r.reset()
	r.init()
	r.seedStart()
	r.expand()
	r.stats.Finished = len(r.finished)
	Logger().Info("cfdg: expansion finished", "grammar", r.g.Name,
		"shapes", len(r.finished), "expanded", r.stats.Expanded, "pruned", r.stats.Pruned)
	return nil
}

// recoverRun turns the panics of a traversal into the error of Run.
func (r *Renderer) recoverRun(err *error) {
	p := recover()
	switch v := p.(type) {
	case nil:
	case stopSignal:
		*err = ErrStopped
	case *Error:
		r.diags.Error(v.Message, v.Span)
		Logger().Warn("cfdg: render aborted", "error", v)
		*err = fmt.Errorf("%w: %w", ErrRuntime, v)
	default:
		Logger().Error("cfdg: unexpected panic", "panic", v)
		r.diags.Fail(fmt.Sprint(v))
		*err = fmt.Errorf("%w: %v", ErrRuntime, v)
	}
	r.path = nil
}

// reset clears the state of a previous pass.
func (r *Renderer) reset() {
	r.st = NewStack(r.opts.stackLimit, r.g.stackNeed())
	r.queue = r.queue[:0]
	r.head = 0
	r.finished = r.finished[:0]
	r.bounds = Bounds{}
	r.scaledAt = Bounds{}
	r.order = 0
	r.stats = Stats{}
	r.path = nil
	r.curParams = nil
	r.gen = r.g.pathGen.Add(1)
	r.scale = float64(min(r.opts.width, r.opts.height))
	r.seed = rand64.New(r.opts.variation)
}

// init evaluates the globals and reads the configuration parameters.
// CF::Impure and CF::MaxNatural are read first when they are constant,
// since they govern the checks made while evaluating the globals.
func (r *Renderer) init() {
	r.impure = false
	r.maxNatural = 1000
	r.naturalConfig(true)
	if e := r.g.configExpr(ConfigFrameTime); e != nil && !r.animating && e.IsConstant() {
		r.frameTime = evalScalar(r, e)
	}

	// Globals sit at the bottom of the stack in declaration order.
	r.st.SetFrame(0)
	for _, gd := range r.g.globals {
		pushValue(r, gd.Value)
	}

	r.naturalConfig(false)
	r.configure()
}

// naturalConfig reads CF::Impure and CF::MaxNatural, either the constant
// ones or the rest.
func (r *Renderer) naturalConfig(constant bool) {
	if e := r.g.configExpr(ConfigImpure); e != nil && e.IsConstant() == constant {
		r.impure = evalScalar(r, e) != 0
	}
	if e := r.g.configExpr(ConfigMaxNatural); e != nil && e.IsConstant() == constant {
		v := evalScalar(r, e)
		if v < 1 || v > maxNaturalLimit || math.IsNaN(v) {
			runtimeError(e.Span(), "%s must be between 1 and %s", ConfigMaxNatural, formatFloat(maxNaturalLimit))
		}
		r.maxNatural = v
	}
}

// configure reads the CF:: parameters that shape the output.
func (r *Renderer) configure() {
	g := r.g
	if e := g.configExpr(ConfigFrameTime); e != nil && !r.animating && !e.IsConstant() {
		r.frameTime = evalScalar(r, e)
	}
	r.maxShapes = r.opts.maxShapes
	if e := g.configExpr(ConfigMaxShapes); e != nil {
		if v := evalScalar(r, e); v >= 1 {
			r.maxShapes = int(min(v, math.MaxInt32))
		}
	}
	minSize := r.opts.minSize
	if e := g.configExpr(ConfigMinimumSize); e != nil {
		minSize = math.Max(evalScalar(r, e), 0)
	}
	r.minArea = minSize * minSize

	r.border = r.opts.border
	if e := g.configExpr(ConfigBorderFixed); e != nil {
		r.border += math.Max(evalScalar(r, e), 0)
	}
	r.borderDyn = 0
	if e := g.configExpr(ConfigBorderDynamic); e != nil {
		r.borderDyn = math.Max(evalScalar(r, e), 0)
	}

	r.background = White
	if e := g.configExpr(ConfigBackground); e != nil {
		bg := NewModification()
		bg.Color = White
		e.EvalMod(r, &bg, true)
		r.background = bg.Color
	}
	r.alpha = false
	if e := g.configExpr(ConfigAlpha); e != nil {
		r.alpha = evalScalar(r, e) != 0
	}
	r.colorDepth = 8
	if e := g.configExpr(ConfigColorDepth); e != nil {
		if evalScalar(r, e) >= 16 {
			r.colorDepth = 16
		}
	}

	r.fixedSize = nil
	if e := g.configExpr(ConfigSize); e != nil {
		m := r.configMod(e)
		c := m.Transform.Translation()
		w, h := math.Abs(m.Transform.A), math.Abs(m.Transform.E)
		if w > 0 && h > 0 {
			b := NewBounds(c.X-w/2, c.Y-h/2, c.X+w/2, c.Y+h/2)
			r.fixedSize = &b
		}
	}
	r.timeBounds = nil
	if e := g.configExpr(ConfigTime); e != nil {
		m := r.configMod(e)
		if m.Time.Interval && m.Time.End > m.Time.Begin {
			t := m.Time
			r.timeBounds = &t
		}
	}

	r.symmetry = Symmetry{Transforms: []Matrix{Identity()}}
	if e := g.configExpr(ConfigSymmetry); e != nil {
		sym, err := ParseSymmetry(evalNumbers(r, e), g.symmetryFlags)
		if err != nil {
			runtimeError(e.Span(), "%v", err)
		}
		r.symmetry = sym
	}
	if e := g.configExpr(ConfigTile); e != nil {
		if r.symmetry.Tile != nil {
			runtimeError(e.Span(), "%s conflicts with a periodic symmetry group", ConfigTile)
		}
		m := r.configMod(e).Transform
		tile := Matrix{A: m.A, B: m.B, D: m.D, E: m.E}
		if math.Abs(tile.Determinant()) < 1e-12 {
			runtimeError(e.Span(), "%s must be invertible", ConfigTile)
		}
		r.symmetry.Tile, r.symmetry.Frieze = &tile, false
	}
	if e := g.configExpr(ConfigFrieze); e != nil {
		if r.symmetry.Tile != nil {
			runtimeError(e.Span(), "%s conflicts with another tiling", ConfigFrieze)
		}
		m := r.configMod(e).Transform
		v := m.Translation()
		if v.Length() == 0 {
			v = m.TransformVector(Pt(1, 0))
		}
		if v.Length() == 0 {
			runtimeError(e.Span(), "%s needs a non-zero repeat", ConfigFrieze)
		}
		r.symmetry.Tile, r.symmetry.Frieze = &Matrix{A: v.X, D: v.Y}, true
	}
}

// configMod evaluates an adjustment-valued parameter.
func (r *Renderer) configMod(e Expr) Modification {
	m := NewModification()
	e.EvalMod(r, &m, false)
	return m
}

// startRule returns the start shape and its adjustment.
func (r *Renderer) startRule() (*StackRule, *ModExpr, Span) {
	if s := r.g.start; s != nil && s.Spec != nil {
		return s.Spec.EvalRule(r), s.Mod, s.Span
	}
	e := r.g.configExpr(ConfigStartShape)
	return e.EvalRule(r), nil, e.Span()
}

// seedStart queues one start shape per symmetry transform.
func (r *Renderer) seedStart() {
	rule, mod, span := r.startRule()
	world := NewWorld(rand64.New(r.opts.variation))
	if mod != nil {
		mod.EvalMod(r, &world, true)
	}
	// Until shapes are finished the start shape stands for the design.
	if a := world.Transform.Area(); a > 0 && !math.IsInf(a, 0) {
		r.scale = float64(min(r.opts.width, r.opts.height)) / math.Sqrt(a)
	}
	r.rescale()
	for _, s := range r.symmetry.Transforms {
		child := Shape{Type: rule.Shape, Params: rule, World: world}
		child.World.Transform = s.Multiply(world.Transform)
		r.processChild(&child, span)
	}
}

// expand runs the queue until it is empty or a limit is hit.
func (r *Renderer) expand() {
	for r.head < len(r.queue) {
		if r.stop.Load() {
			panic(stopSignal{})
		}
		if r.finishUp.Load() {
			// Honored here; a later request cuts the drawing short.
			r.finishUp.Store(false)
			break
		}
		if len(r.finished) >= r.maxShapes {
			break
		}
		s := r.queue[r.head]
		r.queue[r.head] = Shape{}
		r.head++
		r.expandShape(&s)
		r.stats.Expanded++

		if r.stats.Expanded&(yieldEvery-1) == 0 {
			runtime.Gosched()
			r.rescale()
			r.notify()
		}
		if r.head > yieldEvery && r.head*2 > len(r.queue) {
			n := copy(r.queue, r.queue[r.head:])
			clear(r.queue[n:])
			r.queue = r.queue[:n]
			r.head = 0
		}
	}
	r.rescale()
}

// expandShape runs one rule of s.
func (r *Renderer) expandShape(s *Shape) {
	rule := r.g.FindRule(s.Type, s.World.Seed.Double())
	if rule == nil {
		runtimeError(Span{}, "no rule for shape %q", r.g.shapes[s.Type].Name)
	}
	r.seed = s.World.Seed
	r.seed.Bump()
	r.randUsed = false

	base := r.st.Size()
	r.st.PushRule(s.Params)
	frame := r.st.SetFrame(base)
	r.curParams = s.Params
	rule.Body.Traverse(s, false, r)
	r.st.SetFrame(frame)
	r.st.Truncate(base)
	r.curParams = nil
}

// processChild sends a new shape to the finished list, the path
// expander or the queue.
func (r *Renderer) processChild(child *Shape, span Span) {
	el := r.g.shapes[child.Type]
	area := child.Area()
	if math.IsNaN(area) || math.IsInf(area, 0) {
		runtimeError(span, "shape %q has a non-finite size", el.Name)
	}
	switch {
	case el.Kind == KindPrimitive:
		r.finishPrimitive(child)
	case !el.HasRules:
		runtimeError(span, "shape %q has no rules", el.Name)
	case el.Kind == KindPath:
		r.processPath(child, span)
	case area*r.scale*r.scale < r.minArea:
		r.stats.Pruned++
	default:
		r.queue = append(r.queue, *child)
		r.stats.MaxQueue = max(r.stats.MaxQueue, len(r.queue)-r.head)
	}
}

func (r *Renderer) finishPrimitive(child *Shape) {
	fs := FinishedShape{Type: child.Type, World: child.World}
	if p := PrimitivePath(child.Type); p != nil {
		fs.Bounds = p.Bounds(child.World.Transform, 0, p.Len())
	}
	r.commit(fs)
}

// commit appends a finished shape.
func (r *Renderer) commit(fs FinishedShape) {
	fs.Order = r.order
	r.order++
	if fs.Bounds.Valid() {
		r.bounds.Merge(fs.Bounds)
		if r.outgrown() {
			r.rescale()
		}
	}
	r.finished = append(r.finished, fs)
}

// outgrown reports whether the bounds grew by more than a tenth since the
// last rescale.
func (r *Renderer) outgrown() bool {
	s := r.scaledAt
	if !s.Valid() {
		return true
	}
	slack := 0.1 * math.Max(s.Width(), s.Height())
	b := r.bounds
	return b.MinX < s.MinX-slack || b.MinY < s.MinY-slack ||
		b.MaxX > s.MaxX+slack || b.MaxY > s.MaxY+slack
}

// rand returns the random stream of the expansion in progress.
func (r *Renderer) rand() *rand64.Rand64 {
	r.randUsed = true
	return &r.seed
}

// checkNatural raises a runtime error when v must be a natural number
// and is not.
func (r *Renderer) checkNatural(v float64, span Span) {
	if r.impure {
		return
	}
	if !isNaturalValue(v) || v > r.maxNatural {
		runtimeError(span, "%s is not a natural number (CF::MaxNatural is %s)", formatFloat(v), formatFloat(r.maxNatural))
	}
}

// poll unwinds the traversal when a stop was requested.
func (r *Renderer) poll() {
	if r.stop.Load() {
		panic(stopSignal{})
	}
}

// rescale refits the design so pruning follows the output resolution.
func (r *Renderer) rescale() {
	r.scaledAt = r.bounds
	b := r.drawBounds()
	if !b.Valid() {
		return
	}
	fit := r.fit(b)
	if fit.Scale > 0 && fit.Scale != r.scale {
		Logger().Debug("cfdg: rescale", "scale", fit.Scale, "shapes", len(r.finished))
		r.scale = fit.Scale
	}
}

// notify calls the listener when a redraw is due.
func (r *Renderer) notify() {
	if r.opts.listener == nil {
		return
	}
	if r.update.Swap(false) || r.limiter.Allow() {
		r.opts.listener.Draw()
	}
}

// designBounds is the area the design covers, including the dynamic
// border.
func (r *Renderer) designBounds() Bounds {
	if r.fixedSize != nil {
		return *r.fixedSize
	}
	b := r.bounds
	if b.Valid() && r.borderDyn > 0 {
		b = b.Dilate(r.borderDyn * math.Max(b.Width(), b.Height()) / 2)
	}
	return b
}

// drawBounds is the area mapped onto the canvas: one lattice cell when
// the design tiles.
func (r *Renderer) drawBounds() Bounds {
	return r.frameBounds(r.bounds)
}

func (r *Renderer) fit(b Bounds) Fit {
	exact := r.opts.exact || r.symmetry.Tile != nil && !r.symmetry.Frieze
	return b.Fit(r.opts.width, r.opts.height, r.border, exact)
}

// Draw sorts the finished shapes and draws them onto c. It returns
// ErrStopped when a stop is requested while drawing, and otherwise the
// error of the canvas.
func (r *Renderer) Draw(c Canvas) error {
	r.sortShapes()
	return r.drawFrame(c, true, r.finished, r.drawBounds())
}

func (r *Renderer) sortShapes() {
	sort.SliceStable(r.finished, func(i, j int) bool {
		return r.finished[i].Less(&r.finished[j])
	})
}

// drawFrame draws shapes, already in drawing order, fitting b onto the
// canvas.
func (r *Renderer) drawFrame(c Canvas, first bool, shapes []FinishedShape, b Bounds) error {
	fit := r.fit(b)
	bg := r.Background()
	c.Start(first, bg, fit.Width, fit.Height)
	c.Clear(bg)

	frame := Scale(float64(fit.Width), float64(fit.Height))
	var view Bounds
	tile := r.symmetry.Tile
	if tile != nil {
		view = NewBounds(0, 0, float64(fit.Width), float64(fit.Height)).Transform(fit.Transform.Invert())
	}
	origin := []Point{{}}
	for i := range shapes {
		if r.stop.Load() {
			c.End()
			return ErrStopped
		}
		if r.finishUp.Load() {
			break
		}
		s := &shapes[i]
		color := s.World.Color.RGBA()
		blend := s.World.Blend
		if s.Type == ShapeFill && s.Path == nil {
			c.DrawRect(frame, color, blend)
			continue
		}
		offsets := origin
		if tile != nil {
			offsets = tileOffsets(*tile, r.symmetry.Frieze, s.Bounds, view)
		}
		for _, off := range offsets {
			m := fit.Transform.Multiply(Translate(off.X, off.Y)).Multiply(s.World.Transform)
			if s.Path != nil {
				c.Path(color, m, s.Path, s.Attr, blend)
			} else {
				c.Primitive(s.Type, color, m, blend)
			}
		}
	}
	c.End()
	return c.Err()
}

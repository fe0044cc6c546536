package cfdg

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// ShapeKind says what a name table entry declares.
type ShapeKind uint8

const (
	KindUndefined ShapeKind = iota
	KindPrimitive
	KindShape
	KindPath
)

// Param is a declared shape or function parameter.
type Param struct {
	Name    string
	Type    ExprType
	Size    int // stack slots
	Natural bool
	Span    Span
}

// paramSize is the number of stack slots params occupy.
func paramSize(params []*Param) int {
	n := 0
	for _, p := range params {
		n += p.Size
	}
	return n
}

// ShapeElement is an entry of the shape name table. Indices into the table
// are the permanent identifiers of shapes.
type ShapeElement struct {
	Name      string
	Kind      ShapeKind
	Params    []*Param
	ParamSize int
	HasRules  bool
	FirstUse  Span
	declared  bool
}

// WeightKind says how a rule's weight was written.
type WeightKind uint8

const (
	WeightNone WeightKind = iota
	WeightExplicit
	WeightPercent
)

// Rule is one alternative of a shape. After loading, Weight holds the
// cumulative probability of the rule within its shape.
type Rule struct {
	NameIndex  int
	Weight     float64
	WeightKind WeightKind
	IsPath     bool
	Body       *RepContainer
	Span       Span

	cache pathCache
}

// pathCache holds the output of a deterministic path rule for the last
// arguments it was expanded with.
type pathCache struct {
	mu         sync.Mutex
	params     *StackRule
	generation uint64
	valid      bool
	storage    *PathStorage
	cmds       []pathCommand
}

func (c *pathCache) lookup(params *StackRule, gen uint64) (*PathStorage, []pathCommand, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || c.generation != gen || !c.params.Equal(params) {
		return nil, nil, false
	}
	return c.storage, c.cmds, true
}

func (c *pathCache) store(params *StackRule, gen uint64, storage *PathStorage, cmds []pathCommand) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params, c.generation, c.valid = params, gen, true
	c.storage, c.cmds = storage, cmds
}

// globalDef is a global definition, evaluated once per render.
type globalDef struct {
	Name    string
	Value   Expr
	binding *Binding
	Span    Span

	typed       bool
	declType    ExprType
	declSize    int
	declNatural bool
}

// configDef is a CF:: parameter definition.
type configDef struct {
	Value Expr
	Depth int // include depth of the defining file
	Span  Span
}

// startDef is the startshape declaration.
type startDef struct {
	Spec Expr
	Mod  *ModExpr
	Span Span
}

// Grammar is a compiled CFDG program. It is read-only after loading, so
// any number of renderers may share it.
type Grammar struct {
	Name string

	shapes []*ShapeElement
	names  map[string]int
	rules  []*Rule

	globals    []*globalDef
	globalSize int
	config     map[string]*configDef
	start      *startDef

	// AllowOverlap is CF::AllowOverlap: overlapping switch cases are legal.
	AllowOverlap bool

	// symmetryFlags marks the slots of CF::Symmetry that name a group.
	symmetryFlags []bool

	frameDependent bool
	maxLocals      int
	diags          *Diagnostics

	// pathGen numbers the expansion passes of the grammar's renderers.
	// A cached path is only reused within the pass that stored it.
	pathGen atomic.Uint64
}

func newGrammar(name string, diags *Diagnostics) *Grammar {
	g := &Grammar{
		Name:   name,
		names:  make(map[string]int),
		config: make(map[string]*configDef),
		diags:  diags,
	}
	for i, n := range primitiveNames {
		g.shapes = append(g.shapes, &ShapeElement{Name: n, Kind: KindPrimitive, declared: true})
		g.names[n] = i
	}
	return g
}

// ShapeIndex returns the name table index of a shape, adding an undefined
// entry on first use.
func (g *Grammar) ShapeIndex(name string, span Span) int {
	if i, ok := g.names[name]; ok {
		return i
	}
	g.shapes = append(g.shapes, &ShapeElement{Name: name, FirstUse: span})
	g.names[name] = len(g.shapes) - 1
	return len(g.shapes) - 1
}

// Lookup returns the index of a declared or referenced name.
func (g *Grammar) Lookup(name string) (int, bool) {
	i, ok := g.names[name]
	return i, ok
}

// Shape returns entry i of the name table.
func (g *Grammar) Shape(i int) *ShapeElement {
	return g.shapes[i]
}

// ShapeCount returns the size of the name table.
func (g *Grammar) ShapeCount() int {
	return len(g.shapes)
}

// Rules returns the normalized, sorted rules.
func (g *Grammar) Rules() []*Rule {
	return g.rules
}

// Diagnostics returns the messages reported while compiling.
func (g *Grammar) Diagnostics() *Diagnostics {
	return g.diags
}

// stackNeed is the deepest the stack gets in a single rule body: the
// globals plus the most parameters and locals any body declares.
func (g *Grammar) stackNeed() int {
	return g.globalSize + g.maxLocals
}

// FrameDependent reports whether any expression reads ftime() or frame(),
// so animations must expand the grammar again for every frame.
func (g *Grammar) FrameDependent() bool {
	return g.frameDependent
}

// addRule appends a rule before normalization.
func (g *Grammar) addRule(r *Rule) {
	g.rules = append(g.rules, r)
	g.shapes[r.NameIndex].HasRules = true
}

// normalizeWeights turns the weights of every shape's rules into strictly
// increasing cumulative probabilities ending at 1, then sorts the rules by
// (shape, cumulative weight).
func (g *Grammar) normalizeWeights(sink Sink) {
	byName := make(map[int][]*Rule)
	var order []int
	for _, r := range g.rules {
		if _, ok := byName[r.NameIndex]; !ok {
			order = append(order, r.NameIndex)
		}
		byName[r.NameIndex] = append(byName[r.NameIndex], r)
	}

	kept := g.rules[:0]
	for _, idx := range order {
		kept = append(kept, normalizeShape(g.shapes[idx].Name, byName[idx], sink)...)
	}
	g.rules = kept
	sort.SliceStable(g.rules, func(i, j int) bool {
		a, b := g.rules[i], g.rules[j]
		if a.NameIndex != b.NameIndex {
			return a.NameIndex < b.NameIndex
		}
		return a.Weight < b.Weight
	})
}

func normalizeShape(name string, rules []*Rule, sink Sink) []*Rule {
	live := rules[:0:0]
	for _, r := range rules {
		if r.WeightKind != WeightNone && r.Weight <= 0 {
			sink.Warning(fmt.Sprintf("rule of %q with zero weight is never chosen", name), r.Span)
			continue
		}
		live = append(live, r)
	}
	if len(live) == 0 {
		return nil
	}

	percent, other := 0.0, 0.0
	nOther := 0
	for _, r := range live {
		switch r.WeightKind {
		case WeightPercent:
			percent += r.Weight
		case WeightNone:
			r.Weight = 1
			fallthrough
		default:
			other += r.Weight
			nOther++
		}
	}

	const eps = 1e-9
	switch {
	case percent > 1+eps:
		sink.Error(fmt.Sprintf("percentage weights of %q add up to more than 100%%", name), live[0].Span)
		for _, r := range live {
			if r.WeightKind == WeightPercent {
				r.Weight /= percent
			} else {
				r.Weight = 0
			}
		}
	case nOther == 0:
		if percent < 1-eps {
			sink.Warning(fmt.Sprintf("percentage weights of %q add up to less than 100%%, scaling them", name), live[0].Span)
		}
		for _, r := range live {
			r.Weight /= percent
		}
	default:
		remain := math.Max(0, 1-percent)
		if remain <= eps {
			sink.Warning(fmt.Sprintf("percentage weights of %q leave nothing for the other rules", name), live[0].Span)
		}
		for _, r := range live {
			if r.WeightKind != WeightPercent {
				r.Weight = r.Weight / other * remain
			}
		}
	}

	cum := 0.0
	for _, r := range live {
		cum += r.Weight
		r.Weight = cum
	}
	live[len(live)-1].Weight = 1
	return live
}

// FindRule returns the rule of shape for the uniform draw u in [0,1): the
// first rule whose cumulative weight exceeds u.
func (g *Grammar) FindRule(shape int, u float64) *Rule {
	lo := sort.Search(len(g.rules), func(i int) bool { return g.rules[i].NameIndex >= shape })
	hi := sort.Search(len(g.rules), func(i int) bool { return g.rules[i].NameIndex > shape })
	if lo == hi {
		return nil
	}
	i := lo + sort.Search(hi-lo, func(i int) bool { return g.rules[lo+i].Weight > u })
	if i >= hi {
		i = hi - 1
	}
	return g.rules[i]
}

// setConfig records a CF:: definition. The definition from the shallowest
// include depth wins; at the same depth the later one does.
func (g *Grammar) setConfig(name string, def *configDef) {
	if old, ok := g.config[name]; ok && old.Depth < def.Depth {
		return
	}
	g.config[name] = def
}

// configExpr returns the expression of a CF:: parameter, or nil.
func (g *Grammar) configExpr(name string) Expr {
	if d, ok := g.config[name]; ok {
		return d.Value
	}
	return nil
}

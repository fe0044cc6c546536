package cfdg

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"testing"
	"testing/fstest"
)

func compile(t *testing.T, src string) *Grammar {
	t.Helper()
	g, err := Compile("test.cfdg", []byte(src), WithFS(fstest.MapFS{}))
	if err != nil {
		var msgs []string
		if g != nil {
			for _, d := range g.Diagnostics().List() {
				msgs = append(msgs, d.String())
			}
		}
		t.Fatalf("Compile() error = %v\n%s", err, strings.Join(msgs, "\n"))
	}
	return g
}

func render(t *testing.T, src string, opts ...RenderOption) (*Renderer, *fakeCanvas) {
	t.Helper()
	r, err := compile(t, src).NewRenderer(opts...)
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	c := &fakeCanvas{}
	if err := r.Run(context.Background(), c); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return r, c
}

func countPrims(c *fakeCanvas) map[int]int {
	n := make(map[int]int)
	for _, p := range c.prims {
		n[p]++
	}
	return n
}

func TestRuleWeights(t *testing.T) {
	const src = `
startshape Many
shape Many {
	loop 10000 [] W []
}
shape W
rule 2 { CIRCLE [] }
rule 3 { SQUARE [] }
rule 5 { TRIANGLE [] }
`
	_, c := render(t, src, WithVariation(1234))
	n := countPrims(c)
	total := float64(len(c.prims))
	if total != 10000 {
		t.Fatalf("drew %v shapes, want 10000", total)
	}
	for shape, want := range map[int]float64{ShapeCircle: 0.2, ShapeSquare: 0.3, ShapeTriangle: 0.5} {
		got := float64(n[shape]) / total
		if math.Abs(got-want) > 0.025 {
			t.Errorf("%s chosen %.3f of the time, want %.1f", primitiveNames[shape], got, want)
		}
	}
}

func TestLoopFinally(t *testing.T) {
	const src = `
startshape L
shape L {
	loop i = 0, 5 [x 1] SQUARE []
	finally CIRCLE []
}
`
	for _, v := range []uint64{1, 2, 3} {
		_, c := render(t, src, WithVariation(v))
		n := countPrims(c)
		if n[ShapeSquare] != 5 || n[ShapeCircle] != 1 || len(c.prims) != 6 {
			t.Errorf("variation %d drew %v, want 5 squares and 1 circle", v, n)
		}
	}
}

func TestSwitchRanges(t *testing.T) {
	const src = `
startshape Test
shape Test {
	loop i = 0, 5 [x 2] Sel(i) []
}
shape Sel(number n) {
	switch (n) {
		case 0..2: A []
		case 3: B []
		else: C []
	}
}
shape A { CIRCLE [] }
shape B { SQUARE [] }
shape C { TRIANGLE [] }
`
	_, c := render(t, src)
	want := []int{ShapeCircle, ShapeCircle, ShapeCircle, ShapeSquare, ShapeTriangle}
	if len(c.prims) != len(want) {
		t.Fatalf("drew %v, want %v", c.prims, want)
	}
	for i := range want {
		if c.prims[i] != want[i] {
			t.Errorf("selector %d drew %s, want %s", i, primitiveNames[c.prims[i]], primitiveNames[want[i]])
		}
	}
}

func TestPruning(t *testing.T) {
	const src = `
startshape Spiral
shape Spiral {
	CIRCLE []
	Spiral [y 1 s 0.9 r 10]
}
`
	r, c := render(t, src, WithSize(200, 200))
	st := r.Stats()
	if st.Pruned != 1 {
		t.Errorf("Pruned = %d, want 1", st.Pruned)
	}
	if r.ShapeCount() == 0 || r.ShapeCount() != len(c.prims) {
		t.Errorf("ShapeCount() = %d, drew %d", r.ShapeCount(), len(c.prims))
	}
	if st.Expanded != r.ShapeCount() {
		t.Errorf("Expanded = %d, want one per circle (%d)", st.Expanded, r.ShapeCount())
	}

	// a larger minimum size stops the spiral sooner
	r2, _ := render(t, src, WithSize(200, 200), WithMinimumSize(5))
	if r2.ShapeCount() >= r.ShapeCount() {
		t.Errorf("minimum size 5 drew %d shapes, size 0.3 drew %d", r2.ShapeCount(), r.ShapeCount())
	}
}

func TestStackBalanced(t *testing.T) {
	const src = `
half = 0.5
startshape Tree(4)
shape Tree(natural depth) {
	SQUARE [s half]
	if (depth > 0) {
		loop 2 [r 90] Tree(depth - 1) [y 1 s 0.6]
	}
}
`
	r, c := render(t, src)
	if got, want := r.st.Size(), r.g.globalSize; got != want {
		t.Errorf("stack holds %d items after the render, want %d globals", got, want)
	}
	// 1 + 2 + 4 + 8 + 16 trees
	if len(c.prims) != 31 {
		t.Errorf("drew %d squares, want 31", len(c.prims))
	}
}

func TestDeterministic(t *testing.T) {
	const src = `
startshape R
shape R
rule { CIRCLE [x rand(-1, 1)] R [s 0.8 r rand(360)] }
rule 0.2 { SQUARE [] }
`
	_, a := render(t, src, WithVariation(7))
	_, b := render(t, src, WithVariation(7))
	if len(a.matrices) != len(b.matrices) {
		t.Fatalf("renders drew %d and %d shapes", len(a.matrices), len(b.matrices))
	}
	for i := range a.matrices {
		if a.matrices[i] != b.matrices[i] {
			t.Fatalf("shape %d differs: %+v vs %+v", i, a.matrices[i], b.matrices[i])
		}
	}
}

func TestSymmetryReplicatesStart(t *testing.T) {
	const src = `
CF::Symmetry = CF::Cyclic, 4
startshape S
shape S { CIRCLE [x 2] }
`
	_, c := render(t, src)
	if len(c.prims) != 4 {
		t.Errorf("drew %d circles, want 4", len(c.prims))
	}
}

func TestConfigBackgroundAndFill(t *testing.T) {
	const src = `
CF::Background = [b -1]
startshape S
shape S {
	FILL [b 1 a -0.5]
	SQUARE []
}
`
	r, c := render(t, src)
	if bg := r.Background(); bg != (RGBA{A: 1}) {
		t.Errorf("Background() = %+v, want black", bg)
	}
	if c.bg != (RGBA{A: 1}) {
		t.Errorf("canvas cleared to %+v, want black", c.bg)
	}
	if c.rects != 1 {
		t.Errorf("FILL drew %d rects, want 1", c.rects)
	}
}

func TestConfigMaxShapes(t *testing.T) {
	const src = `
CF::MaxShapes = 10
startshape S
shape S { CIRCLE [] S [x 1] }
`
	r, _ := render(t, src)
	if r.ShapeCount() != 10 {
		t.Errorf("ShapeCount() = %d, want 10", r.ShapeCount())
	}
}

func TestDrawOrder(t *testing.T) {
	const src = `
startshape S
shape S {
	SQUARE [z 1]
	CIRCLE [z -1]
	TRIANGLE []
}
`
	_, c := render(t, src)
	want := []int{ShapeCircle, ShapeTriangle, ShapeSquare}
	for i := range want {
		if c.prims[i] != want[i] {
			t.Fatalf("draw order %v, want %v", c.prims, want)
		}
	}
}

func TestFrameProtocol(t *testing.T) {
	_, c := render(t, "startshape S\nshape S { CIRCLE [] }\n", WithSize(100, 50), WithExactSize())
	if c.starts != 1 || c.ends != 1 || c.clears != 1 {
		t.Errorf("start/end/clear = %d/%d/%d, want 1/1/1", c.starts, c.ends, c.clears)
	}
	if !c.first[0] {
		t.Error("first frame not marked first")
	}
	if c.sizes[0] != [2]int{100, 50} {
		t.Errorf("frame size = %v, want 100x50", c.sizes[0])
	}
}

func TestPathFillAndStroke(t *testing.T) {
	const src = `
startshape P
path P {
	MOVETO(0, 0)
	LINETO(1, 0)
	LINETO(0, 1)
	CLOSEPOLY()
	FILL [b 0.5]
	STROKE(0.1) []
}
`
	r, c := render(t, src)
	if len(c.paths) != 2 {
		t.Fatalf("drew %d paths, want 2", len(c.paths))
	}
	if !c.paths[0].IsFill() || c.paths[1].IsFill() {
		t.Errorf("attributes = %+v, want fill then stroke", c.paths)
	}
	if w := c.paths[1].StrokeWidth; math.Abs(w-0.1) > epsilon {
		t.Errorf("stroke width = %v, want 0.1", w)
	}
	b := r.Bounds()
	if b.MinX > -0.04 || b.MaxX < 1.04 {
		t.Errorf("bounds %+v do not include the stroke", b)
	}
}

func TestRuntimeError(t *testing.T) {
	// T(-5) reaches n + 1 with a negative natural
	const src = `
startshape T(1)
shape T(natural n) {
	CIRCLE [s (n + 1)]
	T(n - 6) []
}
`
	g, err := Compile("err.cfdg", []byte(src), WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	r, err := g.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	err = r.Run(context.Background(), &fakeCanvas{})
	if !errors.Is(err, ErrRuntime) {
		t.Fatalf("Run() error = %v, want ErrRuntime", err)
	}
	if !r.Diagnostics().HasErrors() {
		t.Error("runtime error not reported as a diagnostic")
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown function", "startshape S\nshape S { CIRCLE [x sqt(4)] }\n", `did you mean "sqrt"`},
		{"unknown shape argument", "startshape S\nshape S { CIRCLE [x nope] }\n", "unknown name"},
		{"overlapping cases", "startshape S\nshape S { switch (1) { case 0..2: CIRCLE [] case 1: SQUARE [] } }\n", "overlaps"},
		{"syntax", "startshape S\nshape S { CIRCLE [x 1 }\n", ""},
		{"percentages over 100", "startshape S\nshape S\nrule 60% { CIRCLE [] }\nrule 50% { SQUARE [] }\n", "more than 100%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Compile("bad.cfdg", []byte(tt.src), WithFS(fstest.MapFS{}))
			if err == nil {
				t.Fatal("Compile() succeeded")
			}
			if _, err := NewRenderer(g); !errors.Is(err, ErrCompile) {
				t.Errorf("NewRenderer() error = %v, want ErrCompile", err)
			}
			var all []string
			for _, d := range g.Diagnostics().List() {
				all = append(all, d.String())
			}
			joined := strings.Join(all, "\n")
			if !strings.Contains(joined, tt.want) {
				t.Errorf("diagnostics %q do not mention %q", joined, tt.want)
			}
			if !strings.Contains(joined, "bad.cfdg:") {
				t.Errorf("diagnostics %q carry no position", joined)
			}
		})
	}
}

func TestNoStartShape(t *testing.T) {
	g := compile(t, "shape S { CIRCLE [] }\n")
	if _, err := g.NewRenderer(); !errors.Is(err, ErrNoStartShape) {
		t.Errorf("NewRenderer() error = %v, want ErrNoStartShape", err)
	}
	g = compile(t, "startshape S\nshape S { CIRCLE [] }\n")
	if _, err := g.NewRenderer(WithSize(0, 10)); err == nil {
		t.Error("NewRenderer() accepted a zero size")
	}
}

func TestRunCancelled(t *testing.T) {
	r, err := compile(t, "startshape S\nshape S { CIRCLE [] S [s 0.99 r 1] }\n").NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx, &fakeCanvas{}); !errors.Is(err, ErrStopped) {
		t.Errorf("Run() error = %v, want ErrStopped", err)
	}
	// a stopped renderer can run again
	if err := r.Run(context.Background(), &fakeCanvas{}); err != nil {
		t.Errorf("second Run() error = %v", err)
	}
}

func TestListener(t *testing.T) {
	tests := []struct {
		name  string
		count int
		calls bool
	}{
		{"one short expansion", 100, false},
		{"many expansions", 5000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := fmt.Sprintf("startshape S\nshape S { loop %d [x 0.001] T [] }\nshape T { CIRCLE [] }\n", tt.count)
			calls := 0
			r, err := compile(t, src).NewRenderer(WithRedrawInterval(0),
				WithListener(ListenerFunc(func() { calls++ })))
			if err != nil {
				t.Fatal(err)
			}
			if err := r.Run(context.Background(), nil); err != nil {
				t.Fatal(err)
			}
			if (calls > 0) != tt.calls {
				t.Errorf("listener called %d times", calls)
			}
		})
	}
}

func TestAnimate(t *testing.T) {
	const src = `
startshape S
shape S {
	CIRCLE [time 0 1]
	SQUARE [time 1 2]
}
`
	r, err := compile(t, src).NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	c := &fakeCanvas{}
	var frames []int
	perFrame := []int{}
	err = r.Animate(context.Background(), c, 4, func(i int) error {
		frames = append(frames, i)
		perFrame = append(perFrame, len(c.prims))
		return nil
	})
	if err != nil {
		t.Fatalf("Animate() error = %v", err)
	}
	if len(frames) != 4 || c.starts != 4 {
		t.Fatalf("frames = %v, starts = %d", frames, c.starts)
	}
	if !c.first[0] || c.first[1] {
		t.Errorf("first flags = %v", c.first)
	}
	if perFrame[0] == 0 {
		t.Error("first frame is empty")
	}

	stop := errors.New("stop")
	err = r.Animate(context.Background(), &fakeCanvas{}, 4, func(i int) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("Animate() error = %v, want the callback's error", err)
	}
	if err := r.Animate(context.Background(), c, 0, nil); err == nil {
		t.Error("Animate() accepted zero frames")
	}
}

func TestPruningScaleInvariant(t *testing.T) {
	counts := make(map[string]int)
	for _, k := range []string{"1", "0.01", "0.0001", "100"} {
		src := "startshape T [s " + k + "]\nshape T { CIRCLE [] T [y 0.5 s 0.95] }\n"
		r, _ := render(t, src, WithSize(400, 400))
		if r.ShapeCount() == 0 {
			t.Fatalf("s %s drew nothing", k)
		}
		counts[k] = r.ShapeCount()
	}
	for k, n := range counts {
		if d := n - counts["1"]; d < -1 || d > 1 {
			t.Errorf("start scale %s drew %d circles, scale 1 drew %d", k, n, counts["1"])
		}
	}
}

func TestStackSizedByGrammar(t *testing.T) {
	const src = `
a = 1
b = 2
startshape S(3, 4)
shape S(number x, number y) {
	CIRCLE [x (x + a) y (y + b)]
}
`
	g := compile(t, src)
	if _, err := g.NewRenderer(WithStackLimit(1)); err == nil {
		t.Error("NewRenderer() accepted a stack limit below the grammar's needs")
	}

	r, err := g.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if got, need := cap(r.st.items), g.stackNeed(); got < need {
		t.Errorf("stack capacity = %d, grammar needs %d", got, need)
	}
	if g.maxLocals == 0 {
		t.Error("maxLocals = 0 for a shape with parameters")
	}
}

func TestFinishUpDuringExpansion(t *testing.T) {
	const src = "startshape S\nshape S { loop 5000 [x 0.001] T [] }\nshape T { CIRCLE [] }\n"
	var r *Renderer
	r, err := compile(t, src).NewRenderer(WithRedrawInterval(0),
		WithListener(ListenerFunc(func() { r.RequestFinishUp() })))
	if err != nil {
		t.Fatal(err)
	}
	c := &fakeCanvas{}
	if err := r.Run(context.Background(), c); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n := r.ShapeCount(); n == 0 || n >= 5000 {
		t.Errorf("ShapeCount() = %d, want an early partial expansion", n)
	}
	if len(c.prims) != r.ShapeCount() {
		t.Errorf("drew %d of %d finished shapes", len(c.prims), r.ShapeCount())
	}
}

// interruptCanvas calls fn once the first primitive was drawn.
type interruptCanvas struct {
	fakeCanvas
	fn func()
}

func (c *interruptCanvas) Primitive(shape int, col RGBA, m Matrix, blend BlendMode) {
	c.fakeCanvas.Primitive(shape, col, m, blend)
	if len(c.prims) == 1 {
		c.fn()
	}
}

func TestRequestsWhileDrawing(t *testing.T) {
	const src = "startshape S\nshape S { loop 10 [x 1] CIRCLE [] }\n"
	tests := []struct {
		name    string
		request func(*Renderer)
		wantErr error
	}{
		{"finish up", (*Renderer).RequestFinishUp, nil},
		{"stop", (*Renderer).RequestStop, ErrStopped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := compile(t, src).NewRenderer()
			if err != nil {
				t.Fatal(err)
			}
			c := &interruptCanvas{}
			c.fn = func() { tt.request(r) }
			if err := r.Run(context.Background(), c); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if r.ShapeCount() != 10 {
				t.Errorf("ShapeCount() = %d, want 10", r.ShapeCount())
			}
			if len(c.prims) != 1 || c.ends != 1 {
				t.Errorf("drew %d shapes and ended %d times, want 1 and 1", len(c.prims), c.ends)
			}
		})
	}
}

func TestTiling(t *testing.T) {
	tests := []struct {
		name   string
		config string
		frieze bool
	}{
		{"tile", "CF::Tile = [s 3]", false},
		{"frieze", "CF::Frieze = [x 3]", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.config + "\nstartshape S\nshape S { CIRCLE [x 1.2] }\n"
			r, c := render(t, src)
			if r.ShapeCount() != 1 {
				t.Fatalf("ShapeCount() = %d, want 1", r.ShapeCount())
			}
			if len(c.prims) < 2 {
				t.Fatalf("drew %d copies, want the circle repeated across the cell edge", len(c.prims))
			}
			first := c.matrices[0]
			for i, m := range c.matrices[1:] {
				if m.A != first.A || m.E != first.E {
					t.Errorf("copy %d is scaled differently: %+v vs %+v", i+1, m, first)
				}
				if m.C == first.C && m.F == first.F {
					t.Errorf("copy %d is drawn at the same place as the first", i+1)
				}
				if tt.frieze && math.Abs(m.F-first.F) > epsilon {
					t.Errorf("frieze copy %d moved off the repeat axis: %+v", i+1, m)
				}
			}
		})
	}
}

func TestParentArgs(t *testing.T) {
	const src = `
startshape A(3)
shape A(number n) {
	SQUARE [s n]
	B(=) []
}
shape B(number n) {
	CIRCLE [s n]
}
`
	_, c := render(t, src)
	if !slices.Equal(c.prims, []int{ShapeSquare, ShapeCircle}) {
		t.Fatalf("drew %v, want a square then a circle", c.prims)
	}
	if a, b := c.matrices[0].Scaling(), c.matrices[1].Scaling(); math.Abs(a-b) > epsilon {
		t.Errorf("circle scaling %v, square %v: B(=) did not reuse n", b, a)
	}

	bad := "startshape A(3)\nshape A(number n) { B(=) [] }\nshape B(number n, number m) { CIRCLE [] }\n"
	if _, err := Compile("bad.cfdg", []byte(bad), WithFS(fstest.MapFS{})); err == nil {
		t.Error("Compile() accepted (=) with different parameters")
	}
}

func TestMixedWeights(t *testing.T) {
	const src = `
startshape S
shape S
rule 50% { CIRCLE [] }
rule 1 { SQUARE [] }
rule 3 { TRIANGLE [] }
`
	g := compile(t, src)
	idx, ok := g.Lookup("S")
	if !ok {
		t.Fatal("S not in the name table")
	}
	var got []float64
	for _, r := range g.rules {
		if r.NameIndex == idx {
			got = append(got, r.Weight)
		}
	}
	want := []float64{0.5, 0.625, 1}
	if len(got) != len(want) {
		t.Fatalf("cumulative weights = %v, want %v", got, want)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("cumulative weights = %v, want %v", got, want)
			break
		}
	}
}

func TestPathCache(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		cached bool
	}{
		{"deterministic", "LINETO(1, 0)", true},
		{"random", "LINETO(rand(1, 2), 0)", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "startshape S\nshape S { loop 3 [y 2] P [] }\npath P {\n\tMOVETO(0, 0)\n\t" +
				tt.line + "\n\tLINETO(0, 1)\n\tCLOSEPOLY()\n\tFILL []\n}\n"
			r, c := render(t, src)
			if len(c.storages) != 3 {
				t.Fatalf("drew %d paths, want 3", len(c.storages))
			}
			idx, _ := r.g.Lookup("P")
			if got := r.g.FindRule(idx, 0).cache.valid; got != tt.cached {
				t.Errorf("cache valid = %v, want %v", got, tt.cached)
			}
			same := c.storages[0].Equal(c.storages[1]) && c.storages[1].Equal(c.storages[2])
			if same != tt.cached {
				t.Errorf("identical geometry = %v, want %v", same, tt.cached)
			}
		})
	}
}

func TestPathGenerationPerGrammar(t *testing.T) {
	const src = "startshape S\nshape S { CIRCLE [] }\n"
	g := compile(t, src)
	var gens []uint64
	for range 2 {
		r, err := g.NewRenderer()
		if err != nil {
			t.Fatal(err)
		}
		if err := r.Run(context.Background(), nil); err != nil {
			t.Fatal(err)
		}
		gens = append(gens, r.gen)
	}
	if gens[0] == gens[1] {
		t.Errorf("renderers of one grammar share generation %d", gens[0])
	}

	other, err := compile(t, src).NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	if err := other.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if other.gen != 1 {
		t.Errorf("first pass of a new grammar has generation %d, want 1", other.gen)
	}
}

package cfdg

import (
	"math"
	"testing"

	"github.com/gogpu/cfdg/internal/rand64"
	"github.com/gogpu/cfdg/syntax"
)

// typeChecked converts and type checks a single expression outside of any
// grammar.
func typeChecked(t *testing.T, src string) (Expr, *Builder) {
	t.Helper()
	diags := &Diagnostics{}
	b := &Builder{
		g:       newGrammar("expr.cfdg", diags),
		diags:   diags,
		files:   []*fileCtx{{name: "expr.cfdg"}},
		loading: make(map[string]bool),
		globals: make(map[string]*Binding),
		funcs:   make(map[string]*FuncDef),
		static:  rand64.New(0),
	}
	se, err := syntax.ParseExpr(src)
	if err != nil {
		t.Fatalf("ParseExpr(%q) error = %v", src, err)
	}
	e := b.expr(se).compile(PhaseTypeCheck, b)
	if diags.HasErrors() {
		t.Fatalf("%q: %v", src, diags.List())
	}
	return e, b
}

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		src  string
		want []float64
	}{
		{"1 + 2 * 3", []float64{7}},
		{"2 ^ 10", []float64{1024}},
		{"-(4 - 6)", []float64{2}},
		{"5 _ 7", []float64{0}},
		{"7 _ 5", []float64{2}},
		{"sqrt(16) + abs(-3)", []float64{7}},
		{"min(4, 2, 8) + max(1, 9)", []float64{11}},
		{"mod(7, 3)", []float64{1}},
		{"floor(2.7) * factorial(3)", []float64{12}},
		{"cos(180)", []float64{-1}},
		{"if(1 > 0, 5, 6)", []float64{5}},
		{"select(7, 10, 20, 30)", []float64{30}},
		{"2 * (1, 2)", []float64{2, 4}},
		{"3 == 3 && 2 < 1", []float64{0}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e, b := typeChecked(t, tt.src)
			if !e.IsConstant() {
				t.Fatal("IsConstant() = false")
			}
			before := make([]float64, e.Size())
			if n := e.Evaluate(nil, before); n != len(tt.want) {
				t.Fatalf("Evaluate() = %d values, want %d", n, len(tt.want))
			}

			s := e.compile(PhaseSimplify, b)
			after := make([]float64, s.Size())
			if n := s.Evaluate(nil, after); n != len(tt.want) {
				t.Fatalf("simplified Evaluate() = %d values, want %d", n, len(tt.want))
			}
			for i, w := range tt.want {
				if math.Abs(before[i]-w) > 1e-12 {
					t.Errorf("value[%d] = %v, want %v", i, before[i], w)
				}
				if before[i] != after[i] {
					t.Errorf("value[%d] = %v before folding, %v after", i, before[i], after[i])
				}
			}
		})
	}
}

func TestRandomIsNotConstant(t *testing.T) {
	for _, src := range []string{"rand(1)", "1 + randint(5)", "if(rand() > 0.5, 1, 2)"} {
		e, _ := typeChecked(t, src)
		if e.IsConstant() {
			t.Errorf("%q is constant", src)
		}
	}
}

func TestNaturalPower(t *testing.T) {
	e, b := typeChecked(t, "3 ^ 33")
	s := e.compile(PhaseSimplify, b)
	v := make([]float64, 1)
	s.Evaluate(nil, v)
	if v[0] != 5559060566555523 {
		t.Errorf("3 ^ 33 = %v, want the exact integer", v[0])
	}
}

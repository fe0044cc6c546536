package rand64

import (
	"math"
	"testing"
)

func TestDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 1000; i++ {
		if x, y := a.Uint64(), b.Uint64(); x != y {
			t.Fatalf("step %d: %x != %x", i, x, y)
		}
	}
}

func TestZeroSeed(t *testing.T) {
	r := New(0)
	if r.State() == 0 {
		t.Fatal("zero seed left generator stuck at zero")
	}
	if r.Uint64() == 0 && r.Uint64() == 0 {
		t.Error("zero-seeded generator produced zeros")
	}
}

func TestDoubleRange(t *testing.T) {
	r := New(7)
	sum := 0.0
	const n = 100000
	for i := 0; i < n; i++ {
		d := r.Double()
		if d < 0 || d >= 1 {
			t.Fatalf("Double() = %v, want [0,1)", d)
		}
		sum += d
	}
	if mean := sum / n; math.Abs(mean-0.5) > 0.01 {
		t.Errorf("mean = %v, want ~0.5", mean)
	}
}

func TestAddCommutative(t *testing.T) {
	a, b, c := New(1), New(2), New(3)
	x := a
	x.Add(b)
	x.Add(c)
	y := a
	y.Add(c)
	y.Add(b)
	if x != y {
		t.Errorf("Add not commutative: %x vs %x", x.State(), y.State())
	}
}

func TestXorString(t *testing.T) {
	a, b := New(5), New(5)
	a.XorString("SQUARE")
	b.XorString("SQUARE")
	if a != b {
		t.Error("XorString not deterministic")
	}
	c := New(5)
	c.XorString("CIRCLE")
	if a == c {
		t.Error("different strings produced same state")
	}
}

func TestIndex(t *testing.T) {
	r := New(99)
	weights := []float64{2, 3, 5}
	counts := make([]int, 3)
	const n = 100000
	for i := 0; i < n; i++ {
		counts[r.Index(weights)]++
	}
	for i, w := range weights {
		got := float64(counts[i]) / n
		if math.Abs(got-w/10) > 0.01 {
			t.Errorf("Index frequency[%d] = %v, want ~%v", i, got, w/10)
		}
	}
	if got := r.Index([]float64{0, -1}); got != -1 {
		t.Errorf("Index(all zero) = %d, want -1", got)
	}
}

func TestDistributionMeans(t *testing.T) {
	tests := []struct {
		name string
		draw func(r *Rand64) float64
		mean float64
		tol  float64
	}{
		{"exponential", func(r *Rand64) float64 { return r.Exponential(2) }, 0.5, 0.02},
		{"normal", func(r *Rand64) float64 { return r.Normal(3, 1) }, 3, 0.03},
		{"gamma", func(r *Rand64) float64 { return r.Gamma(2, 3) }, 6, 0.15},
		{"gamma<1", func(r *Rand64) float64 { return r.Gamma(0.5, 1) }, 0.5, 0.03},
		{"chi2", func(r *Rand64) float64 { return r.ChiSquared(4) }, 4, 0.15},
		{"poisson small", func(r *Rand64) float64 { return float64(r.Poisson(4)) }, 4, 0.1},
		{"poisson large", func(r *Rand64) float64 { return float64(r.Poisson(100)) }, 100, 0.5},
		{"binomial", func(r *Rand64) float64 { return float64(r.Binomial(20, 0.25)) }, 5, 0.1},
		{"geometric", func(r *Rand64) float64 { return float64(r.Geometric(0.5)) }, 1, 0.05},
		{"weibull", func(r *Rand64) float64 { return r.Weibull(1, 2) }, 2, 0.08},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(1234)
			const n = 50000
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += tt.draw(&r)
			}
			if mean := sum / n; math.Abs(mean-tt.mean) > tt.tol {
				t.Errorf("mean = %v, want %v±%v", mean, tt.mean, tt.tol)
			}
		})
	}
}

func BenchmarkDouble(b *testing.B) {
	r := New(1)
	for i := 0; i < b.N; i++ {
		r.Double()
	}
}

// Package rand64 implements the deterministic 64-bit random stream used for
// rule selection and for the random functions of the expression language.
//
// The generator is xorshift64*. A Rand64 is a plain value: copying it forks
// the stream, which is how child shapes inherit their parent's entropy.
//
// https://en.wikipedia.org/wiki/Xorshift#xorshift*
package rand64

import "math"

// defaultSeed replaces a zero state, which xorshift cannot leave.
const defaultSeed uint64 = 0x3DF41234FC6A1B2D

const multiplier uint64 = 0x2545F4914F6CDD1D

// Rand64 is a xorshift64* random number generator.
type Rand64 struct {
	state uint64
}

// New returns a generator seeded with seed.
func New(seed uint64) Rand64 {
	var r Rand64
	r.Seed(seed)
	return r
}

// Seed resets the generator state.
func (r *Rand64) Seed(seed uint64) {
	if seed == 0 {
		seed = defaultSeed
	}
	r.state = seed
}

// State returns the raw generator state.
func (r Rand64) State() uint64 {
	return r.state
}

// Uint64 advances the stream and returns the next value.
func (r *Rand64) Uint64() uint64 {
	x := r.state
	if x == 0 {
		x = defaultSeed
	}
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.state = x
	return x * multiplier
}

// Double returns a uniform value in [0,1) with 53 bits of precision.
func (r *Rand64) Double() float64 {
	return float64(r.Uint64()>>11) * (1.0 / (1 << 53))
}

// Bump advances the stream by one step, discarding the value.
func (r *Rand64) Bump() {
	r.Uint64()
}

// Add mixes another stream into r. Addition is commutative, so children
// seeded from the same parent combine identically in any order.
func (r *Rand64) Add(o Rand64) {
	r.state += o.state
	if r.state == 0 {
		r.state = defaultSeed
	}
}

// XorString hashes s into the state. Characters are folded in eight-bit
// lanes so the same string always produces the same perturbation.
func (r *Rand64) XorString(s string) {
	h := r.state
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i]) << (uint(i%8) * 8)
		if i%8 == 7 {
			h = mix(h)
		}
	}
	r.state = mix(h)
	if r.state == 0 {
		r.state = defaultSeed
	}
}

// mix is the splitmix64 finalizer.
func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Range returns a uniform value in [lo,hi).
func (r *Rand64) Range(lo, hi float64) float64 {
	return lo + (hi-lo)*r.Double()
}

// Int returns a uniform integer in [lo,hi). It returns lo when hi <= lo.
func (r *Rand64) Int(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + int64(r.Double()*float64(hi-lo))
}

// Index picks an index from weights with probability proportional to each
// weight. Negative weights count as zero; it returns -1 if all are zero.
func (r *Rand64) Index(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	u := r.Double() * total
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if u < w {
			return i
		}
		u -= w
	}
	return last
}

// open returns a uniform value in (0,1), safe for logarithms.
func (r *Rand64) open() float64 {
	for {
		if u := r.Double(); u > 0 {
			return u
		}
	}
}

// Exponential returns an exponential variate with rate lambda.
func (r *Rand64) Exponential(lambda float64) float64 {
	return -math.Log(r.open()) / lambda
}

// Normal returns a normal variate using the Box-Muller transform.
func (r *Rand64) Normal(mean, stddev float64) float64 {
	u1 := r.open()
	u2 := r.Double()
	return mean + stddev*math.Sqrt(-2*math.Log(u1))*math.Cos(2*math.Pi*u2)
}

// LogNormal returns exp of a normal variate.
func (r *Rand64) LogNormal(mean, stddev float64) float64 {
	return math.Exp(r.Normal(mean, stddev))
}

// Gamma returns a gamma variate with shape alpha and scale beta
// (Marsaglia and Tsang).
func (r *Rand64) Gamma(alpha, beta float64) float64 {
	if alpha <= 0 || beta <= 0 {
		return math.NaN()
	}
	if alpha < 1 {
		return r.Gamma(alpha+1, beta) * math.Pow(r.open(), 1/alpha)
	}
	d := alpha - 1.0/3
	c := 1 / math.Sqrt(9*d)
	for {
		x := r.Normal(0, 1)
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := r.open()
		if u < 1-0.0331*x*x*x*x {
			return d * v * beta
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v * beta
		}
	}
}

// Weibull returns a Weibull variate with shape a and scale b.
func (r *Rand64) Weibull(a, b float64) float64 {
	return b * math.Pow(-math.Log(r.open()), 1/a)
}

// ExtremeValue returns a Gumbel variate with location a and scale b.
func (r *Rand64) ExtremeValue(a, b float64) float64 {
	return a - b*math.Log(-math.Log(r.open()))
}

// ChiSquared returns a chi-squared variate with n degrees of freedom.
func (r *Rand64) ChiSquared(n float64) float64 {
	return 2 * r.Gamma(n/2, 1)
}

// Cauchy returns a Cauchy variate with location a and scale b.
func (r *Rand64) Cauchy(a, b float64) float64 {
	return a + b*math.Tan(math.Pi*(r.open()-0.5))
}

// FisherF returns a Fisher F variate with m and n degrees of freedom.
func (r *Rand64) FisherF(m, n float64) float64 {
	return (r.ChiSquared(m) / m) / (r.ChiSquared(n) / n)
}

// StudentT returns a Student t variate with n degrees of freedom.
func (r *Rand64) StudentT(n float64) float64 {
	return r.Normal(0, 1) / math.Sqrt(r.ChiSquared(n)/n)
}

// Bernoulli returns true with probability p.
func (r *Rand64) Bernoulli(p float64) bool {
	return r.Double() < p
}

// Binomial returns the number of successes in t trials of probability p.
func (r *Rand64) Binomial(t int64, p float64) int64 {
	if t <= 0 || p <= 0 {
		return 0
	}
	if p >= 1 {
		return t
	}
	if t <= 1000 {
		var n int64
		for i := int64(0); i < t; i++ {
			if r.Double() < p {
				n++
			}
		}
		return n
	}
	mean := float64(t) * p
	sd := math.Sqrt(mean * (1 - p))
	n := int64(math.Floor(r.Normal(mean, sd) + 0.5))
	return min(max(n, 0), t)
}

// NegativeBinomial returns the number of failures before k successes with
// success probability p.
func (r *Rand64) NegativeBinomial(k int64, p float64) int64 {
	if k <= 0 || p >= 1 {
		return 0
	}
	if p <= 0 {
		return math.MaxInt64
	}
	return r.Poisson(r.Gamma(float64(k), (1-p)/p))
}

// Poisson returns a Poisson variate with the given mean. Small means use
// Knuth's product method, large ones Hörmann's PTRS rejection.
func (r *Rand64) Poisson(mean float64) int64 {
	if mean <= 0 {
		return 0
	}
	if mean < 30 {
		l := math.Exp(-mean)
		var k int64
		p := 1.0
		for {
			p *= r.Double()
			if p <= l {
				return k
			}
			k++
		}
	}
	slam := math.Sqrt(mean)
	loglam := math.Log(mean)
	b := 0.931 + 2.53*slam
	a := -0.059 + 0.02483*b
	invalpha := 1.1239 + 1.1328/(b-3.4)
	vr := 0.9277 - 3.6224/(b-2)
	for {
		u := r.Double() - 0.5
		v := r.open()
		us := 0.5 - math.Abs(u)
		k := math.Floor((2*a/us+b)*u + mean + 0.43)
		if us >= 0.07 && v <= vr {
			return int64(k)
		}
		if k < 0 || (us < 0.013 && v > us) {
			continue
		}
		lg, _ := math.Lgamma(k + 1)
		if math.Log(v)+math.Log(invalpha)-math.Log(a/(us*us)+b) <= -mean+k*loglam-lg {
			return int64(k)
		}
	}
}

// Geometric returns the number of failures before the first success.
func (r *Rand64) Geometric(p float64) int64 {
	if p >= 1 {
		return 0
	}
	if p <= 0 {
		return math.MaxInt64
	}
	return int64(math.Floor(math.Log(r.open()) / math.Log1p(-p)))
}

package blend

import "math"

// channelFunc is a separable blend function B(Cs, Cd) on straight color
// channels.
type channelFunc func(s, d float32) float32

// separable lifts B into the general compositing formula
//
//	Co = S*(1-Da) + D*(1-Sa) + Sa*Da*B(S/Sa, D/Da)
//	Ao = Sa + Da - Sa*Da
func separable(b channelFunc) Func {
	return func(s, d Color) Color {
		if s.A == 0 {
			return d
		}
		if d.A == 0 {
			return s
		}
		both := s.A * d.A
		ks, kd := 1-d.A, 1-s.A
		ch := func(sc, dc float32) float32 {
			return sc*ks + dc*kd + both*b(sc/s.A, dc/d.A)
		}
		return Color{
			R: ch(s.R, d.R),
			G: ch(s.G, d.G),
			B: ch(s.B, d.B),
			A: s.A + d.A - both,
		}
	}
}

func multiply(s, d float32) float32 { return s * d }

func screen(s, d float32) float32 { return s + d - s*d }

func overlay(s, d float32) float32 { return hardLight(d, s) }

func darken(s, d float32) float32 { return min(s, d) }

func lighten(s, d float32) float32 { return max(s, d) }

func colorDodge(s, d float32) float32 {
	switch {
	case d == 0:
		return 0
	case s >= 1:
		return 1
	}
	return min(1, d/(1-s))
}

func colorBurn(s, d float32) float32 {
	switch {
	case d >= 1:
		return 1
	case s <= 0:
		return 0
	}
	return 1 - min(1, (1-d)/s)
}

func hardLight(s, d float32) float32 {
	if s <= 0.5 {
		return multiply(2*s, d)
	}
	return screen(2*s-1, d)
}

func softLight(s, d float32) float32 {
	if s <= 0.5 {
		return d - (1-2*s)*d*(1-d)
	}
	var g float32
	if d <= 0.25 {
		g = ((16*d-12)*d + 4) * d
	} else {
		g = sqrt32(d)
	}
	return d + (2*s-1)*(g-d)
}

func difference(s, d float32) float32 {
	if s > d {
		return s - d
	}
	return d - s
}

func exclusion(s, d float32) float32 { return s + d - 2*s*d }

func sqrt32(x float32) float32 { return float32(math.Sqrt(float64(x))) }

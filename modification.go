package cfdg

import (
	"math"

	"github.com/gogpu/cfdg/internal/rand64"
)

// BlendSet marks an adjustment that sets the blend mode.
const BlendSet ColorAssignment = 1 << 12

// Modification is both the world state of a shape and an adjustment that
// is applied to one. As world state the color fields are absolute; as an
// adjustment they are the signed deltas of HSBColor.Adjust and Flags says
// which channels are touched.
type Modification struct {
	Transform Matrix
	Z         Affine1D
	Time      AffineTime
	Color     HSBColor
	Target    HSBColor
	Flags     ColorAssignment
	Blend     BlendMode
	Seed      rand64.Rand64
}

// NewModification returns the identity adjustment.
func NewModification() Modification {
	return Modification{
		Transform: Identity(),
		Z:         Identity1D(),
		Time:      IdentityTime(),
	}
}

// NewWorld returns the state of the initial shape: black, opaque, unit
// lifetime.
func NewWorld(seed rand64.Rand64) Modification {
	m := NewModification()
	m.Time = DefaultWorldTime()
	m.Color = Black
	m.Seed = seed
	return m
}

// IsIdentity reports whether m changes nothing.
func (m *Modification) IsIdentity() bool {
	return m.Transform.IsIdentity() && m.Z == Identity1D() &&
		m.Time == IdentityTime() && m.Flags == 0 &&
		m.Color == HSBColor{} && m.Target == HSBColor{}
}

// Area is the area scale of the transform.
func (m *Modification) Area() float64 {
	return m.Transform.Area()
}

// Concat applies the adjustment adj to the world state m.
func (m *Modification) Concat(adj *Modification) {
	m.Transform = m.Transform.Multiply(adj.Transform)
	m.Z = m.Z.Concat(adj.Z)
	m.Time = m.Time.Concat(adj.Time)

	if adj.Flags&(TargetHueSet|TargetSatSet|TargetBrightSet|TargetAlphaSet) != 0 {
		t := adj.Target
		if adj.Flags&TargetHueSet != 0 {
			m.Target.H = wrapHue(m.Target.H + t.H)
		}
		if adj.Flags&TargetSatSet != 0 {
			m.Target.S = adjustChannel(m.Target.S, t.S, false, 0)
		}
		if adj.Flags&TargetBrightSet != 0 {
			m.Target.B = adjustChannel(m.Target.B, t.B, false, 0)
		}
		if adj.Flags&TargetAlphaSet != 0 {
			m.Target.A = adjustChannel(m.Target.A, t.A, false, 0)
		}
	}
	if adj.Flags&colorValueMask != 0 {
		m.Color = m.Color.Adjust(adj.Color, adj.Flags, m.Target)
	}
	if adj.Flags&BlendSet != 0 {
		m.Blend = adj.Blend
	}
}

// Merge folds the adjustment o into the adjustment m, as if o were applied
// after m. It reports false when both set the same color channel in
// incompatible ways.
func (m *Modification) Merge(o *Modification) bool {
	ok := true
	m.Transform = m.Transform.Multiply(o.Transform)
	m.Z = m.Z.Concat(o.Z)
	m.Time = m.Time.Concat(o.Time)

	both := m.Flags & o.Flags
	channels := []struct {
		set, target ColorAssignment
		dst         *float64
		src         float64
		hue         bool
	}{
		{HueSet, HueTarget, &m.Color.H, o.Color.H, true},
		{SatSet, SatTarget, &m.Color.S, o.Color.S, false},
		{BrightSet, BrightTarget, &m.Color.B, o.Color.B, false},
		{AlphaSet, AlphaTarget, &m.Color.A, o.Color.A, false},
	}
	for _, c := range channels {
		if o.Flags&c.set == 0 {
			continue
		}
		if both&c.set != 0 {
			if (m.Flags^o.Flags)&c.target != 0 || m.Flags&c.target != 0 {
				ok = false
			}
		}
		if c.hue && o.Flags&c.target == 0 {
			*c.dst += c.src
		} else {
			*c.dst = mergeFraction(*c.dst, c.src)
		}
	}
	targets := []struct {
		set ColorAssignment
		dst *float64
		src float64
		hue bool
	}{
		{TargetHueSet, &m.Target.H, o.Target.H, true},
		{TargetSatSet, &m.Target.S, o.Target.S, false},
		{TargetBrightSet, &m.Target.B, o.Target.B, false},
		{TargetAlphaSet, &m.Target.A, o.Target.A, false},
	}
	for _, t := range targets {
		if o.Flags&t.set == 0 {
			continue
		}
		if t.hue {
			*t.dst += t.src
		} else {
			*t.dst = mergeFraction(*t.dst, t.src)
		}
	}
	m.Flags |= o.Flags
	if o.Flags&BlendSet != 0 {
		m.Blend = o.Blend
	}
	return ok
}

// mergeFraction combines two successive fractional channel adjustments
// into one with the same effect when both move the same way.
func mergeFraction(a, b float64) float64 {
	switch {
	case a == 0:
		return b
	case b == 0:
		return a
	case a > 0 && b > 0:
		return 1 - (1-a)*(1-b)
	case a < 0 && b < 0:
		return -(1 - (1+a)*(1+b))
	}
	return math.Max(-1, math.Min(1, a+b))
}

// Equal reports whether two modifications are equal within tolerance.
func (m *Modification) Equal(o *Modification) bool {
	const tol = 1e-9
	return m.Transform.Equal(o.Transform, tol) &&
		math.Abs(m.Z.Sz-o.Z.Sz) < tol && math.Abs(m.Z.Tz-o.Z.Tz) < tol &&
		m.Time == o.Time && m.Color == o.Color && m.Target == o.Target &&
		m.Flags == o.Flags && m.Blend == o.Blend
}

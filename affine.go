package cfdg

// Affine1D is the depth (z) transform z' = Sz*z + Tz.
type Affine1D struct {
	Sz, Tz float64
}

// Identity1D returns the identity depth transform.
func Identity1D() Affine1D {
	return Affine1D{Sz: 1}
}

// Concat returns a followed by m in a's frame.
func (a Affine1D) Concat(m Affine1D) Affine1D {
	return Affine1D{
		Sz: a.Sz * m.Sz,
		Tz: a.Tz + a.Sz*m.Tz,
	}
}

// Apply maps a depth value.
func (a Affine1D) Apply(z float64) float64 {
	return a.Sz*z + a.Tz
}

// AffineTime is the time state of a shape or a time adjustment.
//
// For a shape, [Begin, End] is its lifetime in global time and Scale is the
// length of one unit of local time. For an adjustment, Interval reports
// whether a "time" term set [Begin, End] relative to the parent's begin.
type AffineTime struct {
	Begin, End float64
	Scale      float64
	Interval   bool
}

// IdentityTime returns the time adjustment that changes nothing.
func IdentityTime() AffineTime {
	return AffineTime{Scale: 1}
}

// DefaultWorldTime is the lifetime of a shape when nothing sets it.
func DefaultWorldTime() AffineTime {
	return AffineTime{Begin: 0, End: 1, Scale: 1, Interval: true}
}

// Concat applies m in t's time frame.
func (t AffineTime) Concat(m AffineTime) AffineTime {
	r := t
	if m.Interval {
		r.Begin = t.Begin + m.Begin*t.Scale
		r.End = t.Begin + m.End*t.Scale
		r.Interval = true
	}
	r.Scale = t.Scale * m.Scale
	return r
}

// Overlaps reports whether the lifetime intersects [begin, end).
func (t AffineTime) Overlaps(begin, end float64) bool {
	return t.Begin < end && t.End >= begin
}

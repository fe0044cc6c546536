package cfdg

import (
	"context"
	"fmt"
	"math"
)

// FrameFunc is called after frame i of an animation was drawn onto the
// canvas. Returning an error stops the animation.
type FrameFunc func(frame int) error

// Animate renders frames frames onto c, calling done after each one.
//
// Frame i shows the shapes alive at time begin + (end-begin)·i/frames,
// where [begin, end] is CF::Time or else the lifetime of all shapes. A
// grammar that reads ftime() or frame() is expanded again for every frame
// and each frame is fitted to its own shapes; otherwise it is expanded
// once, the bounds of every frame are computed up front and smoothed, and
// the frames replay its shapes.
func (r *Renderer) Animate(ctx context.Context, c Canvas, frames int, done FrameFunc) error {
	if frames < 1 {
		return fmt.Errorf("cfdg: invalid frame count %d", frames)
	}
	r.animating = true
	defer func() { r.animating = false }()

	rerun := r.g.frameDependent
	r.frameTime, r.frameNum = 0, 0
	if err := r.expandAll(ctx); err != nil {
		return err
	}
	r.sortShapes()
	span := r.lifetime()
	boxes := r.smooth(r.frameBuckets(span, frames), r.bounds)

	for i := 0; i < frames; i++ {
		t := frameTime(span, i, frames)
		stale := i > 0 || t != r.frameTime
		r.frameTime, r.frameNum = t, i
		if rerun && stale {
			if err := r.expandAll(ctx); err != nil {
				return err
			}
			r.sortShapes()
		}

		visible, b := r.alive(t)
		if !rerun {
			b = boxes[i]
		}
		if !b.Valid() {
			b = r.bounds
		}

		err := r.drawFrame(c, i == 0, visible, r.frameBounds(b))
		if err != nil {
			return err
		}
		if err := done(i); err != nil {
			return err
		}
		if ctx.Err() != nil || r.stop.Load() {
			return ErrStopped
		}
		Logger().Debug("cfdg: frame drawn", "frame", i, "time", t, "shapes", len(visible))
	}
	return nil
}

// frameTime is the time shown by frame i.
func frameTime(span AffineTime, i, frames int) float64 {
	return span.Begin + (span.End-span.Begin)*float64(i)/float64(frames)
}

// frameBuckets merges the bounds of every finished shape into the frames
// its lifetime covers.
func (r *Renderer) frameBuckets(span AffineTime, frames int) []Bounds {
	out := make([]Bounds, frames)
	length := span.End - span.Begin
	if length <= 0 {
		return out
	}
	k := float64(frames) / length
	for i := range r.finished {
		s := &r.finished[i]
		if !s.Bounds.Valid() {
			continue
		}
		first := max(int(math.Ceil((s.World.Time.Begin-span.Begin)*k)), 0)
		last := min(int(math.Floor((s.World.Time.End-span.Begin)*k)), frames-1)
		for f := first; f <= last; f++ {
			out[f].Merge(s.Bounds)
		}
	}
	return out
}

// smooth applies the smoothing option to per-frame bounds. Frames with no
// shapes fall back to all.
func (r *Renderer) smooth(frames []Bounds, all Bounds) []Bounds {
	out := make([]Bounds, len(frames))
	switch r.opts.smoothing {
	case SmoothFixed:
		for i := range out {
			out[i] = all
		}
	case SmoothMovingAverage:
		half := r.opts.smoothWindow / 2
		for i := range out {
			lo, hi := max(i-half, 0), min(i+half+1, len(frames))
			out[i] = averageBounds(frames[lo:hi])
		}
	case SmoothExponential:
		// Backward, so a frame already frames the shapes that follow it.
		var prev Bounds
		for i := len(frames) - 1; i >= 0; i-- {
			prev = prev.Interpolate(frames[i], r.opts.smoothAlpha)
			out[i] = prev
		}
	default:
		copy(out, frames)
	}
	for i := range out {
		if !out[i].Valid() {
			out[i] = all
		}
	}
	return out
}

// lifetime is the time span of the animation.
func (r *Renderer) lifetime() AffineTime {
	if r.timeBounds != nil {
		return *r.timeBounds
	}
	t := AffineTime{Begin: math.Inf(1), End: math.Inf(-1), Scale: 1, Interval: true}
	for i := range r.finished {
		w := r.finished[i].World.Time
		t.Begin = math.Min(t.Begin, w.Begin)
		t.End = math.Max(t.End, w.End)
	}
	if t.End <= t.Begin {
		return DefaultWorldTime()
	}
	return t
}

// alive returns the shapes whose lifetime covers t, in drawing order,
// and their bounds.
func (r *Renderer) alive(t float64) ([]FinishedShape, Bounds) {
	var (
		out []FinishedShape
		b   Bounds
	)
	for i := range r.finished {
		s := &r.finished[i]
		if s.World.Time.Begin <= t && t <= s.World.Time.End {
			out = append(out, *s)
			if s.Bounds.Valid() {
				b.Merge(s.Bounds)
			}
		}
	}
	return out, b
}

// frameBounds applies the dynamic border and the tiling cell to the
// bounds of one frame.
func (r *Renderer) frameBounds(b Bounds) Bounds {
	if r.fixedSize != nil {
		return *r.fixedSize
	}
	if b.Valid() && r.borderDyn > 0 {
		b = b.Dilate(r.borderDyn * math.Max(b.Width(), b.Height()) / 2)
	}
	if t := r.symmetry.Tile; t != nil {
		return cellBounds(*t, r.symmetry.Frieze, b)
	}
	return b
}

// averageBounds is the mean of the valid boxes in list.
func averageBounds(list []Bounds) Bounds {
	var x0, y0, x1, y1 float64
	n := 0
	for _, b := range list {
		if !b.Valid() {
			continue
		}
		x0 += b.MinX
		y0 += b.MinY
		x1 += b.MaxX
		y1 += b.MaxY
		n++
	}
	if n == 0 {
		return Bounds{}
	}
	k := float64(n)
	return NewBounds(x0/k, y0/k, x1/k, y1/k)
}

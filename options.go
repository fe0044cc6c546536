package cfdg

import (
	"time"

	"golang.org/x/time/rate"
)

// RenderOption configures a Renderer.
//
// Example:
//
//	v, _ := cfdg.VariationFromString("ABC")
//	r, err := g.NewRenderer(
//	    cfdg.WithSize(1024, 768),
//	    cfdg.WithVariation(v),
//	)
type RenderOption func(*renderOptions)

// Listener is told when enough new shapes are available to redraw.
type Listener interface {
	Draw()
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func()

// Draw calls f.
func (f ListenerFunc) Draw() { f() }

// Smoothing selects how animation frames follow the changing bounds of
// the design.
type Smoothing uint8

const (
	// SmoothNone fits every frame to its own shapes.
	SmoothNone Smoothing = iota
	// SmoothMovingAverage averages the bounds of neighboring frames.
	SmoothMovingAverage
	// SmoothExponential blends each frame's bounds into the previous ones.
	SmoothExponential
	// SmoothFixed uses the bounds of all frames for every frame.
	SmoothFixed
)

// renderOptions holds optional configuration of a Renderer.
type renderOptions struct {
	width, height int
	variation     uint64
	maxShapes     int
	minSize       float64
	border        float64
	exact         bool
	listener      Listener
	redraw        time.Duration
	diags         *Diagnostics
	stackLimit    int
	smoothing     Smoothing
	smoothWindow  int
	smoothAlpha   float64
}

// defaultRenderOptions returns the default renderer options.
func defaultRenderOptions() renderOptions {
	return renderOptions{
		width:        500,
		height:       500,
		maxShapes:    500_000_000,
		minSize:      0.3,
		border:       0,
		redraw:       500 * time.Millisecond,
		stackLimit:   defaultStackLimit,
		smoothing:    SmoothFixed,
		smoothWindow: 5,
		smoothAlpha:  0.25,
	}
}

// WithSize sets the requested output size in pixels. Unless WithExactSize
// is given, the canvas may shrink to the aspect ratio of the design.
func WithSize(width, height int) RenderOption {
	return func(o *renderOptions) {
		o.width, o.height = width, height
	}
}

// WithVariation sets the random seed of the render.
func WithVariation(v uint64) RenderOption {
	return func(o *renderOptions) {
		o.variation = v
	}
}

// WithMaxShapes stops expansion after n finished shapes. CF::MaxShapes
// takes precedence.
func WithMaxShapes(n int) RenderOption {
	return func(o *renderOptions) {
		o.maxShapes = n
	}
}

// WithMinimumSize sets the pixel size below which shapes are pruned.
func WithMinimumSize(px float64) RenderOption {
	return func(o *renderOptions) {
		o.minSize = px
	}
}

// WithBorder sets the border around the design in pixels.
func WithBorder(px float64) RenderOption {
	return func(o *renderOptions) {
		o.border = px
	}
}

// WithExactSize keeps the canvas at the requested size.
func WithExactSize() RenderOption {
	return func(o *renderOptions) {
		o.exact = true
	}
}

// WithListener installs a progressive redraw callback.
func WithListener(l Listener) RenderOption {
	return func(o *renderOptions) {
		o.listener = l
	}
}

// WithRedrawInterval sets the minimum time between listener calls.
func WithRedrawInterval(d time.Duration) RenderOption {
	return func(o *renderOptions) {
		o.redraw = d
	}
}

// WithDiagnostics collects runtime messages into d.
func WithDiagnostics(d *Diagnostics) RenderOption {
	return func(o *renderOptions) {
		o.diags = d
	}
}

// WithStackLimit bounds the execution stack, in items.
func WithStackLimit(n int) RenderOption {
	return func(o *renderOptions) {
		o.stackLimit = n
	}
}

// WithSmoothing selects how animation frames are fitted. window is the
// frame count of SmoothMovingAverage; alpha the weight of the new frame
// for SmoothExponential.
func WithSmoothing(s Smoothing, window int, alpha float64) RenderOption {
	return func(o *renderOptions) {
		o.smoothing = s
		if window > 0 {
			o.smoothWindow = window
		}
		if alpha > 0 && alpha <= 1 {
			o.smoothAlpha = alpha
		}
	}
}

// limiter returns the rate limiter for listener calls.
func (o *renderOptions) limiter() *rate.Limiter {
	if o.redraw <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(o.redraw), 1)
}

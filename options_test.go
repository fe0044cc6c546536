package cfdg

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestDefaultRenderOptions(t *testing.T) {
	o := defaultRenderOptions()
	if o.width != 500 || o.height != 500 {
		t.Errorf("size = %dx%d, want 500x500", o.width, o.height)
	}
	if o.minSize != 0.3 {
		t.Errorf("minSize = %v, want 0.3", o.minSize)
	}
	if o.smoothing != SmoothFixed {
		t.Errorf("smoothing = %v, want SmoothFixed", o.smoothing)
	}
	if o.stackLimit != defaultStackLimit {
		t.Errorf("stackLimit = %d, want %d", o.stackLimit, defaultStackLimit)
	}
}

func TestRenderOptions(t *testing.T) {
	var d Diagnostics
	l := ListenerFunc(func() {})
	o := defaultRenderOptions()
	for _, opt := range []RenderOption{
		WithSize(640, 480),
		WithVariation(77),
		WithMaxShapes(1000),
		WithMinimumSize(1.5),
		WithBorder(8),
		WithExactSize(),
		WithListener(l),
		WithRedrawInterval(time.Second),
		WithDiagnostics(&d),
		WithStackLimit(4096),
		WithSmoothing(SmoothMovingAverage, 9, 0.5),
	} {
		opt(&o)
	}

	if o.width != 640 || o.height != 480 {
		t.Errorf("size = %dx%d, want 640x480", o.width, o.height)
	}
	if o.variation != 77 || o.maxShapes != 1000 || o.minSize != 1.5 || o.border != 8 {
		t.Errorf("options = %+v", o)
	}
	if !o.exact {
		t.Error("exact not set")
	}
	if o.listener == nil {
		t.Error("listener not set")
	}
	if o.redraw != time.Second {
		t.Errorf("redraw = %v, want 1s", o.redraw)
	}
	if o.diags != &d {
		t.Error("diagnostics not set")
	}
	if o.stackLimit != 4096 {
		t.Errorf("stackLimit = %d, want 4096", o.stackLimit)
	}
	if o.smoothing != SmoothMovingAverage || o.smoothWindow != 9 || o.smoothAlpha != 0.5 {
		t.Errorf("smoothing = %v/%d/%v", o.smoothing, o.smoothWindow, o.smoothAlpha)
	}
}

func TestWithSmoothingKeepsDefaultsForInvalidValues(t *testing.T) {
	o := defaultRenderOptions()
	WithSmoothing(SmoothExponential, 0, 3)(&o)
	if o.smoothWindow != 5 || o.smoothAlpha != 0.25 {
		t.Errorf("window/alpha = %d/%v, want defaults 5/0.25", o.smoothWindow, o.smoothAlpha)
	}
}

func TestLimiter(t *testing.T) {
	o := defaultRenderOptions()
	o.redraw = 0
	if got := o.limiter().Limit(); got != rate.Inf {
		t.Errorf("limit with no interval = %v, want Inf", got)
	}
	o.redraw = 100 * time.Millisecond
	if got := o.limiter().Limit(); got != rate.Every(100*time.Millisecond) {
		t.Errorf("limit = %v, want 10/s", got)
	}
}

package cfdg

import (
	"fmt"
	"sort"
	"sync"
)

// Canvas receives the finished shapes of a render. Coordinates passed to
// a canvas are in pixels with the origin at the top-left corner.
//
// A frame is drawn as Start, any number of drawing calls, then End. Clear
// resets the whole surface. Drawing errors are sticky and reported by Err
// so the draw loop does not need to check every call.
type Canvas interface {
	// Clear fills the whole surface with bg.
	Clear(bg RGBA)

	// Start begins a frame of width×height pixels. first is set for the
	// first frame of a render or an animation.
	Start(first bool, bg RGBA, width, height int)

	// Primitive draws CIRCLE, SQUARE or TRIANGLE: the unit outline of the
	// shape mapped by m.
	Primitive(shape int, c RGBA, m Matrix, blend BlendMode)

	// Path fills or strokes p mapped by m.
	Path(c RGBA, m Matrix, p *PathStorage, attr PathAttr, blend BlendMode)

	// DrawRect fills the unit square [0,1]² mapped by m. The FILL
	// primitive uses it to cover the frame.
	DrawRect(m Matrix, c RGBA, blend BlendMode)

	// End finishes the frame.
	End()

	// Err returns the first error the canvas ran into.
	Err() error
}

// CanvasFactory creates a canvas of the given size. Factories are
// registered with RegisterCanvas and called by NewCanvas.
type CanvasFactory func(width, height int) Canvas

var (
	canvasMu  sync.RWMutex
	canvasReg = make(map[string]CanvasFactory)
)

// RegisterCanvas makes a canvas available by name. It is meant to be
// called from the init function of the package implementing the canvas,
// following the database/sql driver pattern:
//
//	func init() {
//	    cfdg.RegisterCanvas("raster", func(w, h int) cfdg.Canvas {
//	        return New(w, h)
//	    })
//	}
//
// RegisterCanvas panics if factory is nil or the name is taken.
func RegisterCanvas(name string, factory CanvasFactory) {
	canvasMu.Lock()
	defer canvasMu.Unlock()

	if factory == nil {
		panic("cfdg: RegisterCanvas factory is nil")
	}
	if _, dup := canvasReg[name]; dup {
		panic("cfdg: RegisterCanvas called twice for " + name)
	}
	canvasReg[name] = factory
}

// UnregisterCanvas removes a canvas from the registry. It is a no-op for
// unknown names.
func UnregisterCanvas(name string) {
	canvasMu.Lock()
	defer canvasMu.Unlock()
	delete(canvasReg, name)
}

// NewCanvas creates a registered canvas. The error wraps ErrUnknownCanvas
// when nothing is registered under name.
func NewCanvas(name string, width, height int) (Canvas, error) {
	canvasMu.RLock()
	factory, ok := canvasReg[name]
	canvasMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w %q (forgotten import?)", ErrUnknownCanvas, name)
	}
	return factory(width, height), nil
}

// Canvases returns the registered canvas names in sorted order.
func Canvases() []string {
	canvasMu.RLock()
	defer canvasMu.RUnlock()

	names := make([]string, 0, len(canvasReg))
	for name := range canvasReg {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

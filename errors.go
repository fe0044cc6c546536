package cfdg

import (
	"errors"
	"fmt"

	"github.com/gogpu/cfdg/syntax"
)

// Sentinel errors returned by the compile and render pipeline.
var (
	// ErrCompile is returned when a grammar has semantic errors.
	ErrCompile = errors.New("cfdg: compile failed")

	// ErrRuntime is returned when a render pass aborts on a grammar error.
	ErrRuntime = errors.New("cfdg: runtime error")

	// ErrStopped is returned when a render was cancelled before it finished.
	ErrStopped = errors.New("cfdg: render stopped")

	// ErrNoStartShape is returned when neither startshape nor
	// CF::StartShape names a shape.
	ErrNoStartShape = errors.New("cfdg: no start shape")

	// ErrUnknownCanvas is returned by NewCanvas for unregistered names.
	ErrUnknownCanvas = errors.New("cfdg: unknown canvas")

	// ErrImport is returned when an imported file cannot be read.
	ErrImport = errors.New("cfdg: import failed")
)

// Span locates a construct in the source.
type Span = syntax.Span

// Error is a grammar error at a source location. Runtime errors raised
// while traversing the grammar are *Error values.
type Error struct {
	Span    Span
	Message string
}

func (e *Error) Error() string {
	if e.Span.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Span, e.Message)
}

// runtimeError aborts the current render pass.
func runtimeError(span Span, format string, args ...any) {
	panic(&Error{Span: span, Message: fmt.Sprintf(format, args...)})
}

// deferSignal is raised by nodes that need a live renderer while the
// simplifier is constant folding.
type deferSignal struct{}

// stopSignal unwinds a traversal after a stop was requested.
type stopSignal struct{}

// tryFold evaluates fn, reporting false if fn raised deferSignal.
func tryFold(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isDefer := r.(deferSignal); !isDefer {
				panic(r)
			}
			ok = false
		}
	}()
	fn()
	return true
}

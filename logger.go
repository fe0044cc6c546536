package cfdg

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops every record. Enabled reports false, so callers skip
// building the attributes.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(discard{}))
}

// SetLogger sets the logger used by the compiler, the renderer and the
// canvases in sub-packages. Nil silences logging again, which is the
// default. It may be called while renders are running.
//
// Levels:
//   - [slog.LevelDebug]: compile summaries, rescales, animation frames
//   - [slog.LevelInfo]: finished expansions with their shape counts
//   - [slog.LevelWarn]: grammar warnings and aborted renders
//   - [slog.LevelError]: panics recovered from a render
//
// For example:
//
//	cfdg.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discard{})
	}
	logger.Store(l)
}

// Logger returns the logger set with SetLogger.
func Logger() *slog.Logger {
	return logger.Load()
}

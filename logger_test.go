package cfdg

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
)

func TestDiscardHandler(t *testing.T) {
	var h slog.Handler = discard{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("Enabled(%v) = true", level)
		}
	}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("Handle() = %v", err)
	}
	if _, ok := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).(discard); !ok {
		t.Error("WithAttrs() changed the handler type")
	}
	if _, ok := h.WithGroup("g").(discard); !ok {
		t.Error("WithGroup() changed the handler type")
	}
}

func TestLoggerDefaultSilent(t *testing.T) {
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if Logger().Enabled(context.Background(), level) {
			t.Errorf("default logger enabled at %v", level)
		}
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	SetLogger(custom)
	if Logger() != custom {
		t.Fatal("Logger() is not the logger passed to SetLogger")
	}
	Logger().Info("hello", "key", "value")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) left logging enabled")
	}
}

func TestDiagnosticWarningsAreLogged(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	var d Diagnostics
	d.Warning("shape \"A\" has no rules", Span{File: "a.cfdg", Line: 3, Col: 7})
	d.Info("start shape A is given default arguments", Span{})

	out := buf.String()
	if !strings.Contains(out, "has no rules") || !strings.Contains(out, "a.cfdg:3:7") {
		t.Errorf("warning not logged with its position: %q", out)
	}
	if strings.Contains(out, "default arguments") {
		t.Errorf("info message logged at warn level: %q", out)
	}
}

func TestCompileLogsAtDebug(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	if _, err := Compile("log.cfdg", []byte("startshape A\nshape A { CIRCLE [] }\n"), WithFS(fstest.MapFS{})); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !strings.Contains(buf.String(), "compiled grammar") {
		t.Errorf("no debug record for the compile: %q", buf.String())
	}
}

func TestLoggerConcurrentAccess(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Logger().Debug("concurrent read")
		}()
		go func() {
			defer wg.Done()
			SetLogger(slog.Default())
			SetLogger(nil)
		}()
	}
	wg.Wait()
}

func BenchmarkDisabledLog(b *testing.B) {
	l := Logger()
	b.ReportAllocs()
	for b.Loop() {
		l.Debug("message", "key", "value")
	}
}

package recording

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/gogpu/cfdg"
)

func TestNewRecorder(t *testing.T) {
	rec := NewRecorder(800, 600)

	if rec.Width() != 800 {
		t.Errorf("Width() = %d, want 800", rec.Width())
	}
	if rec.Height() != 600 {
		t.Errorf("Height() = %d, want 600", rec.Height())
	}
	if rec.resources == nil {
		t.Error("resources should not be nil")
	}
	if rec.Err() != nil {
		t.Errorf("Err() = %v, want nil", rec.Err())
	}
}

func TestRecorderFrame(t *testing.T) {
	rec := NewRecorder(100, 100)
	bg := cfdg.RGBA{R: 1, G: 1, B: 1, A: 1}
	red := cfdg.RGBA{R: 1, A: 1}

	rec.Start(true, bg, 64, 32)
	rec.Clear(bg)
	rec.Primitive(cfdg.ShapeCircle, red, cfdg.Scale(10, 10), cfdg.BlendNormal)
	rec.Path(red, cfdg.Identity(), triangle(), cfdg.PathAttr{Flags: cfdg.PathFill}, cfdg.BlendMultiply)
	rec.DrawRect(cfdg.Scale(64, 32), red, cfdg.BlendNormal)
	rec.End()

	r := rec.FinishRecording()
	if r.Width() != 64 || r.Height() != 32 {
		t.Errorf("size = %dx%d, want 64x32", r.Width(), r.Height())
	}
	want := []CommandType{CmdStart, CmdClear, CmdPrimitive, CmdPath, CmdRect, CmdEnd}
	if len(r.Commands()) != len(want) {
		t.Fatalf("len(Commands()) = %d, want %d", len(r.Commands()), len(want))
	}
	for i, c := range r.Commands() {
		if c.Type() != want[i] {
			t.Errorf("Commands()[%d] = %v, want %v", i, c.Type(), want[i])
		}
	}
	if rec.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", rec.Frames())
	}
	if rec.Err() != nil {
		t.Errorf("Err() = %v", rec.Err())
	}
}

func TestRecorderMisuse(t *testing.T) {
	tests := []struct {
		name string
		run  func(rec *Recorder)
	}{
		{"end without start", func(rec *Recorder) { rec.End() }},
		{"nested start", func(rec *Recorder) {
			rec.Start(true, cfdg.RGBA{}, 1, 1)
			rec.Start(false, cfdg.RGBA{}, 1, 1)
		}},
		{"fill as primitive", func(rec *Recorder) {
			rec.Primitive(cfdg.ShapeFill, cfdg.RGBA{}, cfdg.Identity(), cfdg.BlendNormal)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecorder(1, 1)
			tt.run(rec)
			if rec.Err() == nil {
				t.Error("Err() = nil, want an error")
			}
		})
	}
}

func TestRecordingPlayback(t *testing.T) {
	rec := NewRecorder(10, 10)
	rec.Start(true, cfdg.RGBA{A: 1}, 10, 10)
	rec.Primitive(cfdg.ShapeSquare, cfdg.RGBA{G: 1, A: 1}, cfdg.Identity(), cfdg.BlendNormal)
	rec.Path(cfdg.RGBA{A: 1}, cfdg.Identity(), triangle(), cfdg.PathAttr{StrokeWidth: 0.1}, cfdg.BlendNormal)
	rec.End()
	first := rec.FinishRecording()

	copyRec := NewRecorder(10, 10)
	if err := first.Playback(copyRec); err != nil {
		t.Fatalf("Playback() error = %v", err)
	}
	if !first.Equal(copyRec.FinishRecording()) {
		t.Error("played back recording differs from the original")
	}
}

func TestRecorderReset(t *testing.T) {
	rec := NewRecorder(10, 10)
	rec.End()
	rec.Reset()
	if rec.Err() != nil || len(rec.FinishRecording().Commands()) != 0 || rec.Frames() != 0 {
		t.Error("Reset() did not clear the recorder")
	}
}

func TestRecorderRegistered(t *testing.T) {
	c, err := cfdg.NewCanvas("record", 20, 30)
	if err != nil {
		t.Fatalf("NewCanvas(record) error = %v", err)
	}
	if _, ok := c.(*Recorder); !ok {
		t.Errorf("NewCanvas(record) = %T, want *Recorder", c)
	}
}

const spiral = `
startshape Spiral

shape Spiral
rule {
	CIRCLE [ ]
	Spiral [ y 1.5 r 13 s 0.95 b 0.01 ]
}
rule 0.05 {
	SQUARE [ h 120 sat 1 b 1 ]
	Spiral [ flip 90 ]
}
`

func renderRecording(t *testing.T, src string, variation uint64) (*Recording, *cfdg.Renderer) {
	t.Helper()
	g, err := cfdg.Compile("spiral.cfdg", []byte(src), cfdg.WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("Compile() error = %v (%v)", err, g.Diagnostics().List())
	}
	r, err := g.NewRenderer(cfdg.WithSize(200, 200), cfdg.WithVariation(variation))
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	rec := NewRecorder(200, 200)
	if err := r.Run(context.Background(), rec); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return rec.FinishRecording(), r
}

func TestRenderIsDeterministic(t *testing.T) {
	a, ra := renderRecording(t, spiral, 42)
	b, _ := renderRecording(t, spiral, 42)
	if !a.Equal(b) {
		t.Error("two renders of the same variation differ")
	}
	if ra.ShapeCount() == 0 {
		t.Fatal("no shapes rendered")
	}
	if got := a.Count(CmdPrimitive); got != ra.ShapeCount() {
		t.Errorf("recorded %d primitives, want %d", got, ra.ShapeCount())
	}

	c, _ := renderRecording(t, spiral, 43)
	if a.Equal(c) {
		t.Error("different variations rendered the same recording")
	}
}

func TestRunStopped(t *testing.T) {
	g, err := cfdg.Compile("spiral.cfdg", []byte(spiral), cfdg.WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	r, err := g.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx, NewRecorder(10, 10)); !errors.Is(err, cfdg.ErrStopped) {
		t.Errorf("Run(cancelled) error = %v, want ErrStopped", err)
	}
}

package recording

import (
	"fmt"

	"github.com/gogpu/cfdg"
)

func init() {
	cfdg.RegisterCanvas("record", func(w, h int) cfdg.Canvas {
		return NewRecorder(w, h)
	})
}

// Recorder captures canvas operations as commands.
// It implements cfdg.Canvas but generates commands instead of
// rasterizing pixels. Use FinishRecording to obtain an immutable
// Recording that can be replayed onto other canvases.
//
// Example:
//
//	rec := recording.NewRecorder(800, 600)
//	renderer.Draw(rec)
//	recording := rec.FinishRecording()
//
// The Recorder is not safe for concurrent use.
type Recorder struct {
	width, height int
	commands      []Command
	resources     *ResourcePool
	frames        int
	inFrame       bool
	err           error
}

var _ cfdg.Canvas = (*Recorder)(nil)

// NewRecorder creates a new Recorder for the given dimensions.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{
		width:     width,
		height:    height,
		commands:  make([]Command, 0, 256),
		resources: NewResourcePool(),
	}
}

// Width returns the width of the last frame, or the initial width.
func (rec *Recorder) Width() int { return rec.width }

// Height returns the height of the last frame, or the initial height.
func (rec *Recorder) Height() int { return rec.height }

// Frames returns the number of frames started.
func (rec *Recorder) Frames() int { return rec.frames }

// Clear records a fill of the whole surface.
func (rec *Recorder) Clear(bg cfdg.RGBA) {
	rec.commands = append(rec.commands, ClearCommand{Color: bg})
}

// Start records the beginning of a frame.
func (rec *Recorder) Start(first bool, bg cfdg.RGBA, width, height int) {
	if rec.inFrame {
		rec.fail(fmt.Errorf("recording: Start inside frame %d", rec.frames))
	}
	rec.inFrame = true
	rec.frames++
	rec.width, rec.height = width, height
	rec.commands = append(rec.commands, StartCommand{First: first, Background: bg, Width: width, Height: height})
}

// Primitive records a primitive shape.
func (rec *Recorder) Primitive(shape int, c cfdg.RGBA, m cfdg.Matrix, blend cfdg.BlendMode) {
	if !cfdg.IsPrimitive(shape) || shape == cfdg.ShapeFill {
		rec.fail(fmt.Errorf("recording: %d is not a primitive outline", shape))
		return
	}
	rec.commands = append(rec.commands, PrimitiveCommand{Shape: shape, Color: c, Transform: m, Blend: blend})
}

// Path records a filled or stroked path.
func (rec *Recorder) Path(c cfdg.RGBA, m cfdg.Matrix, p *cfdg.PathStorage, attr cfdg.PathAttr, blend cfdg.BlendMode) {
	ref := rec.resources.AddPath(p)
	rec.commands = append(rec.commands, PathCommand{Path: ref, Color: c, Transform: m, Attr: attr, Blend: blend})
}

// DrawRect records a fill of the unit square.
func (rec *Recorder) DrawRect(m cfdg.Matrix, c cfdg.RGBA, blend cfdg.BlendMode) {
	rec.commands = append(rec.commands, RectCommand{Color: c, Transform: m, Blend: blend})
}

// End records the end of a frame.
func (rec *Recorder) End() {
	if !rec.inFrame {
		rec.fail(fmt.Errorf("recording: End without Start"))
	}
	rec.inFrame = false
	rec.commands = append(rec.commands, EndCommand{})
}

// Err returns the first misuse of the canvas protocol.
func (rec *Recorder) Err() error { return rec.err }

func (rec *Recorder) fail(err error) {
	if rec.err == nil {
		rec.err = err
		cfdg.Logger().Warn("recording: canvas misuse", "error", err)
	}
}

// Reset discards the recorded commands, keeping the allocated memory.
func (rec *Recorder) Reset() {
	clear(rec.commands)
	rec.commands = rec.commands[:0]
	rec.resources.Clear()
	rec.frames = 0
	rec.inFrame = false
	rec.err = nil
}

// FinishRecording returns the recording made so far. The recorder can
// keep recording; later commands do not change the returned Recording.
func (rec *Recorder) FinishRecording() *Recording {
	cmds := make([]Command, len(rec.commands))
	copy(cmds, rec.commands)
	return &Recording{
		width:     rec.width,
		height:    rec.height,
		commands:  cmds,
		resources: rec.resources.Clone(),
	}
}

// Recording is an immutable sequence of canvas commands.
type Recording struct {
	width, height int
	commands      []Command
	resources     *ResourcePool
}

// Width returns the width of the last recorded frame.
func (r *Recording) Width() int {
	return r.width
}

// Height returns the height of the last recorded frame.
func (r *Recording) Height() int {
	return r.height
}

// Commands returns the recorded commands.
func (r *Recording) Commands() []Command {
	return r.commands
}

// Resources returns the resource pool.
func (r *Recording) Resources() *ResourcePool {
	return r.resources
}

// Count returns the number of commands of type t.
func (r *Recording) Count(t CommandType) int {
	n := 0
	for _, c := range r.commands {
		if c.Type() == t {
			n++
		}
	}
	return n
}

// Playback replays the recording onto the given canvas and returns the
// canvas error.
func (r *Recording) Playback(c cfdg.Canvas) error {
	for _, cmd := range r.commands {
		switch cmd := cmd.(type) {
		case StartCommand:
			c.Start(cmd.First, cmd.Background, cmd.Width, cmd.Height)
		case ClearCommand:
			c.Clear(cmd.Color)
		case EndCommand:
			c.End()
		case PrimitiveCommand:
			c.Primitive(cmd.Shape, cmd.Color, cmd.Transform, cmd.Blend)
		case PathCommand:
			c.Path(cmd.Color, cmd.Transform, r.resources.GetPath(cmd.Path), cmd.Attr, cmd.Blend)
		case RectCommand:
			c.DrawRect(cmd.Transform, cmd.Color, cmd.Blend)
		}
	}
	return c.Err()
}

// Equal reports whether two recordings hold the same commands and paths.
func (r *Recording) Equal(o *Recording) bool {
	if r.width != o.width || r.height != o.height || len(r.commands) != len(o.commands) {
		return false
	}
	for i, a := range r.commands {
		b := o.commands[i]
		pa, okA := a.(PathCommand)
		pb, okB := b.(PathCommand)
		if okA != okB {
			return false
		}
		if !okA {
			if a != b {
				return false
			}
			continue
		}
		x, y := r.resources.GetPath(pa.Path), o.resources.GetPath(pb.Path)
		if (x == nil) != (y == nil) || x != nil && !x.Equal(y) {
			return false
		}
		pa.Path, pb.Path = 0, 0
		if pa != pb {
			return false
		}
	}
	return true
}

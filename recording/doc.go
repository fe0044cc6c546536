// Package recording provides a canvas that records drawing operations.
//
// A Recorder implements cfdg.Canvas and stores every call as a typed
// command instead of drawing pixels. The finished Recording can be
// inspected, compared with another recording, or replayed onto any other
// canvas.
//
// # Architecture
//
// Commands capture all canvas operations:
//   - Frame commands (Start, Clear, End)
//   - Drawing commands (Primitive, Path, Rect)
//
// Paths are stored in a ResourcePool and referenced by PathRef handles, so
// a path drawn many times under different transforms is stored once.
//
// # Example
//
//	rec := recording.NewRecorder(800, 600)
//	if err := renderer.Run(ctx, rec); err != nil {
//	    return err
//	}
//	r := rec.FinishRecording()
//
//	// Replay onto a raster canvas
//	c := raster.New(r.Width(), r.Height())
//	r.Playback(c)
//
// The recorder is also registered with cfdg.RegisterCanvas as "record".
package recording

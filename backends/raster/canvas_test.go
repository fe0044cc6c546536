package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/gogpu/cfdg"
)

var (
	white = cfdg.RGBA{R: 1, G: 1, B: 1, A: 1}
	red   = cfdg.RGBA{R: 1, A: 1}
)

func TestCanvasRegistration(t *testing.T) {
	c, err := cfdg.NewCanvas("raster", 64, 32)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	rc, ok := c.(*Canvas)
	if !ok {
		t.Fatalf("canvas is %T, want *raster.Canvas", c)
	}
	if rc.Width() != 64 || rc.Height() != 32 {
		t.Errorf("size = %dx%d, want 64x32", rc.Width(), rc.Height())
	}
}

func TestCanvasFrameProtocol(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *Canvas)
		want error
	}{
		{"ok", func(c *Canvas) {
			c.Start(true, white, 10, 10)
			c.End()
		}, nil},
		{"nested", func(c *Canvas) {
			c.Start(true, white, 10, 10)
			c.Start(false, white, 10, 10)
		}, ErrNestedFrame},
		{"end without start", func(c *Canvas) {
			c.End()
		}, ErrNoFrame},
		{"draw outside frame", func(c *Canvas) {
			c.Primitive(cfdg.ShapeSquare, red, cfdg.Identity(), cfdg.BlendNormal)
		}, ErrNoFrame},
		{"bad size", func(c *Canvas) {
			c.Start(true, white, 0, 10)
		}, ErrBadSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(10, 10)
			tt.run(c)
			if !errors.Is(c.Err(), tt.want) {
				t.Errorf("Err() = %v, want %v", c.Err(), tt.want)
			}
		})
	}
}

func TestCanvasResizesToFrame(t *testing.T) {
	c := New(10, 10)
	c.Start(true, white, 40, 20)
	c.Clear(white)
	c.End()
	b := c.Image().Bounds()
	if b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("image size = %v, want 40x20", b)
	}
	if c.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", c.Frames())
	}
}

func rgbaAt(img *image.RGBA, x, y int) [4]uint8 {
	o := img.PixOffset(x, y)
	return [4]uint8{img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3]}
}

func TestCanvasPrimitive(t *testing.T) {
	c := New(20, 20)
	c.Start(true, white, 20, 20)
	c.Clear(white)
	// a 10 pixel square centered in the canvas
	m := cfdg.Translate(10, 10).Multiply(cfdg.Scale(10, 10))
	c.Primitive(cfdg.ShapeSquare, red, m, cfdg.BlendNormal)
	c.End()
	if err := c.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	img := c.RGBA()
	if got := rgbaAt(img, 10, 10); got != [4]uint8{255, 0, 0, 255} {
		t.Errorf("center = %v, want red", got)
	}
	if got := rgbaAt(img, 1, 1); got != [4]uint8{255, 255, 255, 255} {
		t.Errorf("corner = %v, want white", got)
	}
}

func TestCanvasBlendModes(t *testing.T) {
	tests := []struct {
		name string
		mode cfdg.BlendMode
		want [4]uint8
	}{
		{"normal", cfdg.BlendNormal, [4]uint8{255, 0, 0, 255}},
		{"clear", cfdg.BlendClear, [4]uint8{0, 0, 0, 0}},
		{"multiply", cfdg.BlendMultiply, [4]uint8{255, 0, 0, 255}},
		{"dest over", cfdg.BlendDestOver, [4]uint8{255, 255, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(8, 8)
			c.Start(true, white, 8, 8)
			c.Clear(white)
			c.DrawRect(cfdg.Scale(8, 8), red, tt.mode)
			c.End()
			if got := rgbaAt(c.RGBA(), 4, 4); got != tt.want {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanvasStroke(t *testing.T) {
	p := cfdg.NewPathStorage()
	p.MoveTo(cfdg.Pt(2, 10))
	p.LineTo(cfdg.Pt(18, 10))

	c := New(20, 20)
	c.Start(true, white, 20, 20)
	c.Clear(white)
	attr := cfdg.PathAttr{StrokeWidth: 4, MiterLimit: 4}
	c.Path(red, cfdg.Identity(), p, attr, cfdg.BlendNormal)
	c.End()

	img := c.RGBA()
	if got := rgbaAt(img, 10, 10); got != [4]uint8{255, 0, 0, 255} {
		t.Errorf("on the line = %v, want red", got)
	}
	if got := rgbaAt(img, 10, 3); got != [4]uint8{255, 255, 255, 255} {
		t.Errorf("off the line = %v, want white", got)
	}
}

func TestCanvasSupersample(t *testing.T) {
	c := New(16, 16, WithSupersample(2))
	c.Start(true, white, 16, 16)
	c.Clear(white)
	c.DrawRect(cfdg.Scale(16, 16), red, cfdg.BlendNormal)
	c.End()
	img := c.RGBA()
	if img.Bounds().Dx() != 16 {
		t.Fatalf("width = %d, want 16", img.Bounds().Dx())
	}
	if got := rgbaAt(img, 8, 8); got != [4]uint8{255, 0, 0, 255} {
		t.Errorf("pixel = %v, want red", got)
	}
}

func TestCanvasColorDepth(t *testing.T) {
	c := New(4, 4, WithColorDepth(16))
	c.Start(true, white, 4, 4)
	c.Clear(white)
	c.End()
	if _, ok := c.Image().(*image.RGBA64); !ok {
		t.Errorf("Image() is %T, want *image.RGBA64", c.Image())
	}
	c.SetColorDepth(8)
	if _, ok := c.Image().(*image.RGBA); !ok {
		t.Errorf("Image() is %T, want *image.RGBA", c.Image())
	}
}

func TestCanvasWriteTo(t *testing.T) {
	c := New(8, 8)
	c.Start(true, white, 8, 8)
	c.Clear(red)
	c.End()

	var buf bytes.Buffer
	n, err := c.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo returned %d, wrote %d", n, buf.Len())
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("decoded width = %d, want 8", img.Bounds().Dx())
	}
}

const circles = `
startshape Dots
shape Dots {
	loop 5 [x 2] CIRCLE [hue 120 sat 1 b 1]
}
`

func TestRenderCircles(t *testing.T) {
	g, err := cfdg.Compile("dots.cfdg", []byte(circles), cfdg.WithFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	r, err := g.NewRenderer(cfdg.WithSize(100, 40), cfdg.WithBorder(0))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	c := New(100, 40)
	if err := r.Run(context.Background(), c); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.ShapeCount() != 5 {
		t.Errorf("ShapeCount() = %d, want 5", r.ShapeCount())
	}

	img := c.RGBA()
	green := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := rgbaAt(img, x, y)
			if p[1] > 200 && p[0] < 50 && p[2] < 50 {
				green++
			}
		}
	}
	if green == 0 {
		t.Error("no green pixels drawn")
	}
}

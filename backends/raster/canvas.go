// Package raster provides a pixel canvas for cfdg renders.
//
// Shapes are scan converted by rasterx into a coverage mask and then
// composited into a float premultiplied buffer, so every blend mode of
// the language is honored. The buffer can be supersampled; Image scales
// it down to the output size.
//
// # Example
//
//	// Import to register the canvas
//	import _ "github.com/gogpu/cfdg/backends/raster"
//
//	// Create via registry
//	c, _ := cfdg.NewCanvas("raster", 800, 600)
//
//	// Or create directly
//	c := raster.New(800, 600, raster.WithSupersample(2))
//
//	r.Run(ctx, c)
//	c.SavePNG("output.png")
//
// # Limitations
//
// The scanner works with nonzero winding only; even-odd fills are drawn
// with nonzero winding. Strokes under a non-uniform transform use the
// geometric mean of the scale factors as their width.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/cfdg"
	"github.com/gogpu/cfdg/internal/blend"
)

func init() {
	cfdg.RegisterCanvas("raster", func(width, height int) cfdg.Canvas {
		return New(width, height)
	})
}

// Canvas errors.
var (
	ErrNestedFrame = errors.New("raster: Start inside a frame")
	ErrNoFrame     = errors.New("raster: drawing outside a frame")
	ErrBadSize     = errors.New("raster: invalid canvas size")
)

// maxCoord keeps device coordinates inside the range of fixed.Int26_6.
const maxCoord = 1 << 23

// Canvas draws shapes into a float premultiplied image. It implements
// cfdg.Canvas.
type Canvas struct {
	width, height int
	ss            int // supersampling factor
	depth         int

	buf  []blend.Color // (width·ss)×(height·ss)
	mask *image.Alpha

	scanner *rasterx.ScannerGV
	filler  *rasterx.Filler
	stroker *rasterx.Stroker

	frames  int
	inFrame bool
	err     error
}

var _ cfdg.Canvas = (*Canvas)(nil)

// Option configures a Canvas.
type Option func(*Canvas)

// WithSupersample renders at k times the output resolution in each
// direction. k is clamped to [1, 4].
func WithSupersample(k int) Option {
	return func(c *Canvas) {
		c.ss = min(max(k, 1), 4)
	}
}

// WithColorDepth selects 8 or 16 bits per channel for Image.
func WithColorDepth(bits int) Option {
	return func(c *Canvas) {
		c.SetColorDepth(bits)
	}
}

// New creates a canvas of width×height pixels. The size follows the
// frames drawn onto it: Start resizes the canvas when needed.
func New(width, height int, opts ...Option) *Canvas {
	c := &Canvas{ss: 1, depth: 8}
	for _, opt := range opts {
		opt(c)
	}
	if width > 0 && height > 0 {
		c.resize(width, height)
	}
	return c
}

// Width returns the output width.
func (c *Canvas) Width() int {
	return c.width
}

// Height returns the output height.
func (c *Canvas) Height() int {
	return c.height
}

// Frames returns the number of frames finished on the canvas.
func (c *Canvas) Frames() int {
	return c.frames
}

// SetColorDepth selects 8 or 16 bits per channel for Image.
func (c *Canvas) SetColorDepth(bits int) {
	if bits == 16 {
		c.depth = 16
	} else {
		c.depth = 8
	}
}

// Err returns the first error the canvas ran into.
func (c *Canvas) Err() error {
	return c.err
}

func (c *Canvas) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *Canvas) resize(width, height int) {
	c.width, c.height = width, height
	w, h := width*c.ss, height*c.ss
	c.buf = make([]blend.Color, w*h)
	c.mask = image.NewAlpha(image.Rect(0, 0, w, h))
	c.scanner = rasterx.NewScannerGV(w, h, c.mask, c.mask.Bounds())
	c.scanner.SetColor(color.Alpha{A: 0xff})
	c.filler = rasterx.NewFiller(w, h, c.scanner)
	c.stroker = rasterx.NewStroker(w, h, c.scanner)
}

// Start begins a frame, resizing the canvas to width×height.
func (c *Canvas) Start(_ bool, _ cfdg.RGBA, width, height int) {
	if c.inFrame {
		c.fail(ErrNestedFrame)
		return
	}
	if width <= 0 || height <= 0 {
		c.fail(fmt.Errorf("%w %dx%d", ErrBadSize, width, height))
		return
	}
	if width != c.width || height != c.height {
		c.resize(width, height)
	}
	c.inFrame = true
}

// End finishes the frame.
func (c *Canvas) End() {
	if !c.inFrame {
		c.fail(ErrNoFrame)
		return
	}
	c.inFrame = false
	c.frames++
}

// Clear fills the canvas with bg.
func (c *Canvas) Clear(bg cfdg.RGBA) {
	p := blend.FromRGBA(bg)
	for i := range c.buf {
		c.buf[i] = p
	}
}

// Primitive draws CIRCLE, SQUARE or TRIANGLE.
func (c *Canvas) Primitive(shape int, col cfdg.RGBA, m cfdg.Matrix, mode cfdg.BlendMode) {
	p := cfdg.PrimitivePath(shape)
	if p == nil {
		c.fail(fmt.Errorf("raster: shape %d is not a drawable primitive", shape))
		return
	}
	c.fill(p, m, false, col, mode)
}

// Path fills or strokes p.
func (c *Canvas) Path(col cfdg.RGBA, m cfdg.Matrix, p *cfdg.PathStorage, attr cfdg.PathAttr, mode cfdg.BlendMode) {
	if attr.IsFill() {
		c.fill(p, m, attr.Flags&cfdg.EvenOdd != 0, col, mode)
		return
	}
	c.stroke(p, m, attr, col, mode)
}

var unitSquare = func() *cfdg.PathStorage {
	p := cfdg.NewPathStorage()
	p.MoveTo(cfdg.Pt(0, 0))
	p.LineTo(cfdg.Pt(1, 0))
	p.LineTo(cfdg.Pt(1, 1))
	p.LineTo(cfdg.Pt(0, 1))
	p.Close(false)
	return p
}()

// DrawRect fills the unit square mapped by m.
func (c *Canvas) DrawRect(m cfdg.Matrix, col cfdg.RGBA, mode cfdg.BlendMode) {
	c.fill(unitSquare, m, false, col, mode)
}

func (c *Canvas) fill(p *cfdg.PathStorage, m cfdg.Matrix, evenOdd bool, col cfdg.RGBA, mode cfdg.BlendMode) {
	if !c.ready() {
		return
	}
	c.filler.Clear()
	c.filler.SetWinding(!evenOdd)
	r := addPath(c.filler, p, c.device(m), 0)
	c.filler.Draw()
	c.filler.Clear()
	c.composite(r, col, mode)
}

func (c *Canvas) stroke(p *cfdg.PathStorage, m cfdg.Matrix, attr cfdg.PathAttr, col cfdg.RGBA, mode cfdg.BlendMode) {
	if !c.ready() {
		return
	}
	dev := c.device(m)
	width := attr.StrokeWidth * dev.Scaling()
	if !(width > 0) {
		return
	}
	miter := max(attr.MiterLimit, 1)
	capFn := capFunc(attr.Cap())
	c.stroker.Clear()
	c.stroker.SetWinding(true)
	c.stroker.SetStroke(toFixed(width), toFixed(miter), capFn, capFn, rasterx.RoundGap, joinMode(attr.Join()))

	pad := width / 2
	if attr.Join() == cfdg.JoinMiter {
		pad *= miter
	}
	if attr.Cap() == cfdg.CapSquare {
		pad *= math.Sqrt2
	}
	r := addPath(c.stroker, p, dev, pad)
	c.stroker.Draw()
	c.stroker.Clear()
	c.composite(r, col, mode)
}

func (c *Canvas) ready() bool {
	if !c.inFrame {
		c.fail(ErrNoFrame)
		return false
	}
	return c.err == nil
}

// device maps shape coordinates to supersampled pixels.
func (c *Canvas) device(m cfdg.Matrix) cfdg.Matrix {
	if c.ss == 1 {
		return m
	}
	k := float64(c.ss)
	return cfdg.Scale(k, k).Multiply(m)
}

// composite blends col through the coverage in rect r of the mask and
// zeroes that part of the mask again.
func (c *Canvas) composite(r image.Rectangle, col cfdg.RGBA, mode cfdg.BlendMode) {
	r = r.Intersect(c.mask.Bounds())
	if r.Empty() {
		return
	}
	f := blend.Get(mode)
	src := blend.FromRGBA(col)
	stride := c.mask.Stride
	w := c.mask.Rect.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := c.mask.Pix[y*stride : y*stride+w]
		for x := r.Min.X; x < r.Max.X; x++ {
			a := row[x]
			if a == 0 {
				continue
			}
			i := y*w + x
			c.buf[i] = blend.Composite(f, src, c.buf[i], float32(a)/0xff)
			row[x] = 0
		}
	}
}

// adder is the path interface shared by rasterx.Filler and
// rasterx.Stroker.
type adder interface {
	Start(a fixed.Point26_6)
	Line(b fixed.Point26_6)
	QuadBezier(b, c fixed.Point26_6)
	CubeBezier(b, c, d fixed.Point26_6)
	Stop(closeLoop bool)
}

// addPath feeds p mapped by m to a, returning the pixels it may touch
// when grown by pad.
func addPath(a adder, p *cfdg.PathStorage, m cfdg.Matrix, pad float64) image.Rectangle {
	var (
		b    cfdg.Bounds
		open bool
	)
	pt := func(q cfdg.Point) fixed.Point26_6 {
		q = m.TransformPoint(q)
		q.X = min(max(q.X, -maxCoord), maxCoord)
		q.Y = min(max(q.Y, -maxCoord), maxCoord)
		b.MergePoint(q)
		return fixed.Point26_6{X: toFixed(q.X), Y: toFixed(q.Y)}
	}
	for _, s := range p.Segments() {
		switch s.Op {
		case cfdg.OpMoveTo:
			if open {
				a.Stop(false)
			}
			a.Start(pt(s.To))
			open = true
		case cfdg.OpLineTo:
			a.Line(pt(s.To))
		case cfdg.OpQuadTo:
			a.QuadBezier(pt(s.Ctrl1), pt(s.To))
		case cfdg.OpCubicTo:
			a.CubeBezier(pt(s.Ctrl1), pt(s.Ctrl2), pt(s.To))
		case cfdg.OpClose:
			if open {
				a.Stop(true)
			}
			open = false
		}
	}
	if open {
		a.Stop(false)
	}
	if !b.Valid() {
		return image.Rectangle{}
	}
	b = b.Dilate(pad + 1)
	return image.Rect(
		int(math.Floor(b.MinX)), int(math.Floor(b.MinY)),
		int(math.Ceil(b.MaxX)), int(math.Ceil(b.MaxY)),
	)
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func capFunc(flags int) rasterx.CapFunc {
	switch flags {
	case cfdg.CapRound:
		return rasterx.RoundCap
	case cfdg.CapSquare:
		return rasterx.SquareCap
	default:
		return rasterx.ButtCap
	}
}

func joinMode(flags int) rasterx.JoinMode {
	switch flags {
	case cfdg.JoinRound:
		return rasterx.Round
	case cfdg.JoinBevel:
		return rasterx.Bevel
	default:
		return rasterx.Miter
	}
}

// Image returns the canvas at output size: an *image.RGBA, or an
// *image.RGBA64 at 16 bits per channel.
func (c *Canvas) Image() image.Image {
	if c.depth == 16 {
		return c.RGBA64()
	}
	return c.RGBA()
}

// RGBA returns the canvas as an 8-bit image at output size.
func (c *Canvas) RGBA() *image.RGBA {
	w, h := c.width*c.ss, c.height*c.ss
	full := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, p := range c.buf {
		o := i * 4
		full.Pix[o+0] = to8(p.R)
		full.Pix[o+1] = to8(p.G)
		full.Pix[o+2] = to8(p.B)
		full.Pix[o+3] = to8(p.A)
	}
	if c.ss == 1 {
		return full
	}
	out := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	xdraw.BiLinear.Scale(out, out.Bounds(), full, full.Bounds(), xdraw.Src, nil)
	return out
}

// RGBA64 returns the canvas as a 16-bit image at output size.
func (c *Canvas) RGBA64() *image.RGBA64 {
	w, h := c.width*c.ss, c.height*c.ss
	full := image.NewRGBA64(image.Rect(0, 0, w, h))
	for i, p := range c.buf {
		o := i * 8
		put16(full.Pix[o:], p.R)
		put16(full.Pix[o+2:], p.G)
		put16(full.Pix[o+4:], p.B)
		put16(full.Pix[o+6:], p.A)
	}
	if c.ss == 1 {
		return full
	}
	out := image.NewRGBA64(image.Rect(0, 0, c.width, c.height))
	xdraw.BiLinear.Scale(out, out.Bounds(), full, full.Bounds(), xdraw.Src, nil)
	return out
}

func to8(v float32) uint8 {
	return uint8(min(max(v, 0), 1)*0xff + 0.5)
}

func put16(b []byte, v float32) {
	u := uint16(min(max(v, 0), 1)*0xffff + 0.5)
	b[0], b[1] = byte(u>>8), byte(u)
}

// EncodePNG writes the canvas to w as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.Image())
}

// WriteTo writes the canvas to w as PNG.
func (c *Canvas) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := png.Encode(cw, c.Image())
	return cw.n, err
}

// SavePNG saves the canvas to a PNG file.
func (c *Canvas) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

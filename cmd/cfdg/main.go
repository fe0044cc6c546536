// Command cfdg renders a CFDG program to PNG.
//
// Usage:
//
//	cfdg [flags] file.cfdg
//
// With -frames N the design is animated and frame i is written to
// out-000i.png next to the -o file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/cfdg"
	"github.com/gogpu/cfdg/backends/raster"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stderr)
	stop()
	switch {
	case errors.Is(err, flag.ErrHelp):
		os.Exit(2)
	case errors.Is(err, errUsage):
		os.Exit(2)
	case err != nil:
		fmt.Fprintln(os.Stderr, "cfdg:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

// options are the settings of one invocation, merged from the settings
// file and the command line.
type options struct {
	Output      string  `yaml:"output"`
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Variation   string  `yaml:"variation"`
	MaxShapes   int     `yaml:"maxshapes"`
	MinSize     float64 `yaml:"minsize"`
	Border      float64 `yaml:"border"`
	Frames      int     `yaml:"frames"`
	Zoom        float64 `yaml:"zoom"`
	Antialias   bool    `yaml:"aa"`
	Quiet       bool    `yaml:"quiet"`
	Debug       bool    `yaml:"debug"`
	settingPath string
}

func defaultOptions() options {
	return options{
		Output:    "out.png",
		Width:     500,
		Height:    500,
		MaxShapes: 500_000_000,
		MinSize:   0.3,
		Border:    2,
		Zoom:      1,
	}
}

// parseArgs reads flags over the defaults. Flags given on the command
// line win over the settings file.
func parseArgs(args []string, stderr io.Writer) (options, string, error) {
	o := defaultOptions()
	fs := flag.NewFlagSet("cfdg", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: cfdg [flags] file.cfdg")
		fs.PrintDefaults()
	}

	var f options
	fs.StringVar(&f.Output, "o", o.Output, "output PNG file")
	fs.IntVar(&f.Width, "w", o.Width, "image width")
	fs.IntVar(&f.Height, "h", o.Height, "image height")
	fs.StringVar(&f.Variation, "v", "", "variation code (random when empty)")
	fs.IntVar(&f.MaxShapes, "maxshapes", o.MaxShapes, "maximum number of shapes")
	fs.Float64Var(&f.MinSize, "minsize", o.MinSize, "minimum shape size in pixels")
	fs.Float64Var(&f.Border, "border", o.Border, "border in pixels")
	fs.IntVar(&f.Frames, "frames", 0, "render an animation of this many frames")
	fs.Float64Var(&f.Zoom, "zoom", o.Zoom, "scale the output size")
	fs.BoolVar(&f.Antialias, "aa", false, "supersample 2x")
	fs.StringVar(&f.settingPath, "config", "", "YAML settings file")
	fs.BoolVar(&f.Quiet, "q", false, "quiet")
	fs.BoolVar(&f.Debug, "debug", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return o, "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return o, "", errUsage
	}

	if f.settingPath != "" {
		if err := loadSettings(f.settingPath, &o); err != nil {
			return o, "", err
		}
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "o":
			o.Output = f.Output
		case "w":
			o.Width = f.Width
		case "h":
			o.Height = f.Height
		case "v":
			o.Variation = f.Variation
		case "maxshapes":
			o.MaxShapes = f.MaxShapes
		case "minsize":
			o.MinSize = f.MinSize
		case "border":
			o.Border = f.Border
		case "frames":
			o.Frames = f.Frames
		case "zoom":
			o.Zoom = f.Zoom
		case "aa":
			o.Antialias = f.Antialias
		case "q":
			o.Quiet = f.Quiet
		case "debug":
			o.Debug = f.Debug
		}
	})
	return o, fs.Arg(0), nil
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	o, file, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	setupLogger(stderr, o)

	variation := cfdg.RandomVariation(3)
	if o.Variation != "" {
		if variation, err = cfdg.VariationFromString(o.Variation); err != nil {
			return err
		}
	}
	width := max(int(float64(o.Width)*o.Zoom), 1)
	height := max(int(float64(o.Height)*o.Zoom), 1)

	g, err := cfdg.CompileFile(file)
	if g != nil {
		printDiagnostics(stderr, g.Diagnostics())
	}
	if err != nil {
		return err
	}

	prog := newProgress(stderr, o.Quiet)
	var r *cfdg.Renderer
	r, err = g.NewRenderer(
		cfdg.WithSize(width, height),
		cfdg.WithVariation(variation),
		cfdg.WithMaxShapes(o.MaxShapes),
		cfdg.WithMinimumSize(o.MinSize),
		cfdg.WithBorder(o.Border),
		cfdg.WithListener(cfdg.ListenerFunc(func() {
			prog.update(r.ShapeCount())
		})),
	)
	if err != nil {
		return err
	}

	var copts []raster.Option
	if o.Antialias {
		copts = append(copts, raster.WithSupersample(2))
	}
	c := raster.New(width, height, copts...)

	if o.Frames > 0 {
		err = r.Animate(ctx, c, o.Frames, func(i int) error {
			c.SetColorDepth(r.ColorDepth())
			return c.SavePNG(frameName(o.Output, i))
		})
	} else {
		err = r.Run(ctx, c)
		if err == nil {
			c.SetColorDepth(r.ColorDepth())
			err = c.SavePNG(o.Output)
		}
	}
	prog.done()
	printDiagnostics(stderr, r.Diagnostics())
	if err != nil {
		return err
	}

	if !o.Quiet {
		printStats(stderr, file, cfdg.VariationString(variation), r)
	}
	return nil
}

func setupLogger(w io.Writer, o options) {
	level := slog.LevelWarn
	switch {
	case o.Debug:
		level = slog.LevelDebug
	case o.Quiet:
		level = slog.LevelError
	}
	cfdg.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// frameName numbers an animation frame: out.png becomes out-0001.png for
// frame 0.
func frameName(output string, frame int) string {
	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	if ext == "" {
		ext = ".png"
	}
	return fmt.Sprintf("%s-%04d%s", base, frame+1, ext)
}

func printDiagnostics(w io.Writer, d *cfdg.Diagnostics) {
	if d == nil {
		return
	}
	for _, m := range d.List() {
		if m.Severity == cfdg.SeverityInfo {
			continue
		}
		fmt.Fprintln(w, m.String())
	}
	d.Reset()
}

func printStats(w io.Writer, file, variation string, r *cfdg.Renderer) {
	p := message.NewPrinter(language.English)
	st := r.Stats()
	width, height := r.Size()
	p.Fprintf(w, "%s [%s]: %d shapes, %d expanded, %d pruned, %dx%d\n",
		file, variation, r.ShapeCount(), st.Expanded, st.Pruned, width, height)
}

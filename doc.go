// Package cfdg interprets CFDG programs: context-free design grammars
// that describe images as shapes replaced by other shapes.
//
// # Overview
//
// A program names a start shape and gives one or more weighted rules for
// every shape it declares. A rule body replaces its shape with children,
// each under an adjustment of geometry, color, depth and time. Expansion
// stops when shapes get too small to see, leaving primitives (CIRCLE,
// SQUARE, TRIANGLE, FILL) and filled or stroked paths to draw.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/cfdg"
//	    "github.com/gogpu/cfdg/backends/raster"
//	)
//
//	g, err := cfdg.CompileFile("spiral.cfdg")
//	if err != nil {
//	    log.Fatal(err) // g.Diagnostics() has the details
//	}
//	r, err := g.NewRenderer(cfdg.WithSize(800, 800))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c := raster.New(800, 800)
//	if err := r.Run(context.Background(), c); err != nil {
//	    log.Fatal(err)
//	}
//	c.SavePNG("spiral.png")
//
// # Architecture
//
// The package is organized into:
//   - Front end: the syntax package parses source into declarations
//   - Compiler: Compile type checks, folds constants and builds a Grammar
//   - Renderer: expands a Grammar breadth first into finished shapes
//   - Canvas: receives the shapes; see the recording and backends/raster
//     packages and RegisterCanvas
//
// A Grammar is read-only once compiled and may be shared by any number of
// renderers, each running on its own goroutine.
//
// # Coordinate System
//
// Designs use mathematical coordinates:
//   - Y increases up
//   - Angles in degrees, counter-clockwise
//   - Primitives are centered on the origin with unit size
//
// The renderer fits the design into the output and hands canvases pixel
// coordinates with the origin at the top-left.
//
// # Randomness
//
// Rule choice and the rand functions draw from a 64-bit xorshift stream
// that is seeded by the variation and mixed with a hash of every
// replacement's source text, so a variation renders the same image on
// every run and platform.
package cfdg

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0-alpha.1"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0

	// VersionPrerelease is the prerelease identifier
	VersionPrerelease = "alpha.1"
)

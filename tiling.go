package cfdg

import (
	"fmt"
	"math"
)

// symmetryKind identifies a symmetry group of CF::Symmetry.
type symmetryKind int

const (
	symCyclic symmetryKind = iota + 1
	symDihedral

	// Frieze groups.
	symP111
	symP11g
	symP11m
	symP1m1
	symP2 // frieze with one argument, wallpaper with two
	symP2mg
	symP2mm

	// Wallpaper groups.
	symP1
	symPm
	symPg
	symCm
	symPmm
	symPmg
	symPgg
	symCmm
	symP4
	symP4m
	symP4g
	symP3
	symP3m1
	symP31m
	symP6
	symP6m
)

var symmetryNames = map[string]symmetryKind{
	"CF::Cyclic":   symCyclic,
	"CF::Dihedral": symDihedral,
	"CF::p111":     symP111,
	"CF::p11g":     symP11g,
	"CF::p11m":     symP11m,
	"CF::p1m1":     symP1m1,
	"CF::p2":       symP2,
	"CF::p2mg":     symP2mg,
	"CF::p2mm":     symP2mm,
	"CF::p1":       symP1,
	"CF::pm":       symPm,
	"CF::pg":       symPg,
	"CF::cm":       symCm,
	"CF::pmm":      symPmm,
	"CF::pmg":      symPmg,
	"CF::pgg":      symPgg,
	"CF::cmm":      symCmm,
	"CF::p4":       symP4,
	"CF::p4m":      symP4m,
	"CF::p4g":      symP4g,
	"CF::p3":       symP3,
	"CF::p3m1":     symP3m1,
	"CF::p31m":     symP31m,
	"CF::p6":       symP6,
	"CF::p6m":      symP6m,
}

// Symmetry is the set of transforms the start shape is replicated under,
// plus the lattice a periodic group tiles.
type Symmetry struct {
	Transforms []Matrix
	// Tile holds the lattice vectors in its columns (A,D) and (B,E). It is
	// nil when the design does not repeat.
	Tile *Matrix
	// Frieze reports that the design repeats along the first lattice
	// vector only.
	Frieze bool
}

// tolerance for comparing symmetry transforms.
const symmetryTolerance = 1e-8

// addUnique appends m unless an equal transform is already in list.
func addUnique(list []Matrix, m Matrix) []Matrix {
	for _, t := range list {
		if t.Equal(m, symmetryTolerance) {
			return list
		}
	}
	return append(list, m)
}

// compose combines the transforms of a group with those collected so far.
func compose(have, group []Matrix) []Matrix {
	var out []Matrix
	for _, g := range group {
		for _, h := range have {
			out = addUnique(out, g.Multiply(h))
		}
	}
	return out
}

// ParseSymmetry interprets the numbers of CF::Symmetry. flags marks the
// slots that name a group; the numbers after a group are its arguments.
func ParseSymmetry(vals []float64, flags []bool) (Symmetry, error) {
	sym := Symmetry{Transforms: []Matrix{Identity()}}
	if len(vals) != len(flags) {
		return sym, fmt.Errorf("symmetry: %d values but %d flags", len(vals), len(flags))
	}
	for i := 0; i < len(vals); {
		if !flags[i] {
			return sym, fmt.Errorf("symmetry: expected a group name, found %s", formatFloat(vals[i]))
		}
		kind := symmetryKind(vals[i])
		j := i + 1
		for j < len(vals) && !flags[j] {
			j++
		}
		group, tile, frieze, err := symmetryGroup(kind, vals[i+1:j])
		if err != nil {
			return sym, err
		}
		sym.Transforms = compose(sym.Transforms, group)
		if tile != nil {
			if sym.Tile != nil {
				return sym, fmt.Errorf("symmetry: more than one periodic group")
			}
			sym.Tile, sym.Frieze = tile, frieze
		}
		i = j
	}
	return sym, nil
}

// aroundCenter conjugates m so that it acts about (x, y).
func aroundCenter(m Matrix, x, y float64) Matrix {
	return Translate(x, y).Multiply(m).Multiply(Translate(-x, -y))
}

func symmetryGroup(kind symmetryKind, args []float64) (ops []Matrix, tile *Matrix, frieze bool, err error) {
	bad := func() ([]Matrix, *Matrix, bool, error) {
		return nil, nil, false, fmt.Errorf("symmetry: wrong number of arguments (%d) for group %d", len(args), kind)
	}
	switch kind {
	case symCyclic, symDihedral:
		return pointGroup(kind, args)
	case symP111, symP11g, symP11m, symP1m1, symP2mg, symP2mm:
		if len(args) != 1 {
			return bad()
		}
		return friezeGroup(kind, args[0])
	case symP2:
		switch len(args) {
		case 1:
			return friezeGroup(kind, args[0])
		case 2:
			return wallpaperGroup(kind, args)
		}
		return bad()
	}
	if kind < symP1 || kind > symP6m {
		return nil, nil, false, fmt.Errorf("symmetry: unknown group %d", kind)
	}
	if len(args) < 1 || len(args) > 2 || len(args) == 2 && kind >= symP4 {
		return bad()
	}
	return wallpaperGroup(kind, args)
}

// pointGroup builds CF::Cyclic (order [x y]) and CF::Dihedral (order
// [mirror angle] [x y]).
func pointGroup(kind symmetryKind, args []float64) ([]Matrix, *Matrix, bool, error) {
	var order, angle, cx, cy float64
	switch {
	case len(args) == 1:
		order = args[0]
	case len(args) == 2 && kind == symDihedral:
		order, angle = args[0], args[1]
	case len(args) == 3:
		order, cx, cy = args[0], args[1], args[2]
	case len(args) == 4 && kind == symDihedral:
		order, angle, cx, cy = args[0], args[1], args[2], args[3]
	default:
		return nil, nil, false, fmt.Errorf("symmetry: wrong number of arguments (%d)", len(args))
	}
	n := int(order)
	if n < 1 || float64(n) != order {
		return nil, nil, false, fmt.Errorf("symmetry: order %s is not a positive integer", formatFloat(order))
	}
	var ops []Matrix
	for i := 0; i < n; i++ {
		rot := Rotate(2 * math.Pi * float64(i) / float64(n))
		ops = addUnique(ops, aroundCenter(rot, cx, cy))
		if kind == symDihedral {
			ops = addUnique(ops, aroundCenter(rot.Multiply(Flip(radians(angle))), cx, cy))
		}
	}
	return ops, nil, false, nil
}

// friezeGroup builds a frieze group repeating every d units along x.
func friezeGroup(kind symmetryKind, d float64) ([]Matrix, *Matrix, bool, error) {
	if d <= 0 {
		return nil, nil, false, fmt.Errorf("symmetry: frieze distance must be positive")
	}
	mx := Scale(-1, 1) // mirror in the vertical axis
	my := Scale(1, -1) // mirror in the frieze axis
	r2 := Scale(-1, -1)
	ops := []Matrix{Identity()}
	switch kind {
	case symP11g:
		ops = append(ops, Translate(d/2, 0).Multiply(my))
	case symP11m:
		ops = append(ops, my)
	case symP1m1:
		ops = append(ops, mx)
	case symP2:
		ops = append(ops, r2)
	case symP2mg:
		ops = append(ops, r2, Translate(d/2, 0).Multiply(mx), Translate(d/2, 0).Multiply(my))
	case symP2mm:
		ops = append(ops, mx, my, r2)
	}
	tile := Matrix{A: d}
	return ops, &tile, true, nil
}

// op is a symmetry operation in lattice coordinates:
// x' = a*x + b*y + c, y' = d*x + e*y + f.
type op [6]float64

func (o op) matrix() Matrix {
	return Matrix{A: o[0], B: o[1], C: o[2], D: o[3], E: o[4], F: o[5]}
}

var (
	opI    = op{1, 0, 0, 0, 1, 0}
	opR2   = op{-1, 0, 0, 0, -1, 0}
	opMx   = op{-1, 0, 0, 0, 1, 0}
	opMy   = op{1, 0, 0, 0, -1, 0}
	opR4   = op{0, -1, 0, 1, 0, 0}
	opR4i  = op{0, 1, 0, -1, 0, 0}
	opMd   = op{0, 1, 0, 1, 0, 0}
	opMdi  = op{0, -1, 0, -1, 0, 0}
	opR3   = op{0, -1, 0, 1, -1, 0}
	opR3i  = op{-1, 1, 0, -1, 0, 0}
	opR6   = op{1, -1, 0, 1, 0, 0}
	opR6i  = op{0, 1, 0, -1, 1, 0}
	hexM1  = []op{{0, -1, 0, -1, 0, 0}, {-1, 1, 0, 0, 1, 0}, {1, 0, 0, 1, -1, 0}}
	hexM31 = []op{{0, 1, 0, 1, 0, 0}, {1, -1, 0, 0, -1, 0}, {-1, 0, 0, -1, 1, 0}}
)

// shifted returns o followed by a translation of (dx, dy) cells.
func (o op) shifted(dx, dy float64) op {
	o[2] += dx
	o[5] += dy
	return o
}

func shiftAll(ops []op, dx, dy float64) []op {
	out := make([]op, len(ops))
	for i, o := range ops {
		out[i] = o.shifted(dx, dy)
	}
	return out
}

// wallpaperOps are the coset representatives of each group within one
// cell, in lattice coordinates.
func wallpaperOps(kind symmetryKind) []op {
	switch kind {
	case symP2:
		return []op{opI, opR2}
	case symPm:
		return []op{opI, opMx}
	case symPg:
		return []op{opI, opMx.shifted(0, 0.5)}
	case symCm:
		base := []op{opI, opMx}
		return append(base, shiftAll(base, 0.5, 0.5)...)
	case symPmm:
		return []op{opI, opR2, opMx, opMy}
	case symPmg:
		return []op{opI, opR2, opMx.shifted(0.5, 0), opMy.shifted(0.5, 0)}
	case symPgg:
		return []op{opI, opR2, opMx.shifted(0.5, 0.5), opMy.shifted(0.5, 0.5)}
	case symCmm:
		base := []op{opI, opR2, opMx, opMy}
		return append(base, shiftAll(base, 0.5, 0.5)...)
	case symP4:
		return []op{opI, opR2, opR4, opR4i}
	case symP4m:
		return []op{opI, opR2, opR4, opR4i, opMx, opMy, opMd, opMdi}
	case symP4g:
		return append([]op{opI, opR2, opR4, opR4i},
			shiftAll([]op{opMx, opMy, opMd, opMdi}, 0.5, 0.5)...)
	case symP3:
		return []op{opI, opR3, opR3i}
	case symP3m1:
		return append([]op{opI, opR3, opR3i}, hexM1...)
	case symP31m:
		return append([]op{opI, opR3, opR3i}, hexM31...)
	case symP6:
		return []op{opI, opR3, opR3i, opR2, opR6, opR6i}
	case symP6m:
		ops := []op{opI, opR3, opR3i, opR2, opR6, opR6i}
		ops = append(ops, hexM1...)
		return append(ops, hexM31...)
	}
	return []op{opI}
}

// wallpaperGroup builds a wallpaper group on a lattice of the given cell
// size: one side for square and hexagonal lattices, one or two for the
// rest.
func wallpaperGroup(kind symmetryKind, args []float64) ([]Matrix, *Matrix, bool, error) {
	sx := args[0]
	sy := sx
	if len(args) == 2 {
		sy = args[1]
	}
	if sx <= 0 || sy <= 0 {
		return nil, nil, false, fmt.Errorf("symmetry: lattice size must be positive")
	}
	lattice := Matrix{A: sx, E: sy}
	if kind >= symP3 {
		lattice = Matrix{A: sx, B: -sx / 2, E: sx * math.Sqrt(3) / 2}
	}
	inv := lattice.Invert()
	var ops []Matrix
	for _, o := range wallpaperOps(kind) {
		ops = addUnique(ops, lattice.Multiply(o.matrix()).Multiply(inv))
	}
	if kind >= symP3 {
		// Tile hexagonal groups with the rectangular cell that holds two
		// lattice points, so the output repeats edge to edge.
		shift := Translate(sx/2, sx*math.Sqrt(3)/2)
		for _, m := range ops {
			ops = addUnique(ops, shift.Multiply(m))
		}
		lattice = Matrix{A: sx, E: sx * math.Sqrt(3)}
	}
	return ops, &lattice, false, nil
}

// tileOffsets returns the lattice translations under which a shape with
// bounds b can overlap the cell box view.
func tileOffsets(tile Matrix, frieze bool, b, view Bounds) []Point {
	a := Pt(tile.A, tile.D)
	c := Pt(tile.B, tile.E)
	if frieze {
		n := a.Length()
		if n == 0 {
			return []Point{{}}
		}
		// Project both boxes on the repeat direction.
		lo, hi := projectRange(b, a), projectRange(view, a)
		k0 := math.Floor((hi[0] - lo[1]) / n)
		k1 := math.Ceil((hi[1] - lo[0]) / n)
		var out []Point
		for k := k0; k <= k1; k++ {
			out = append(out, a.Mul(k))
		}
		return out
	}
	basis := Matrix{A: a.X, B: c.X, D: a.Y, E: c.Y}
	inv := basis.Invert()
	sb, vb := b.Transform(inv), view.Transform(inv)
	i0, i1 := math.Floor(vb.MinX-sb.MaxX), math.Ceil(vb.MaxX-sb.MinX)
	j0, j1 := math.Floor(vb.MinY-sb.MaxY), math.Ceil(vb.MaxY-sb.MinY)
	var out []Point
	for i := i0; i <= i1; i++ {
		for j := j0; j <= j1; j++ {
			out = append(out, a.Mul(i).Add(c.Mul(j)))
		}
	}
	return out
}

// projectRange is the extent of b along the direction of v.
func projectRange(b Bounds, v Point) [2]float64 {
	u := v.Mul(1 / v.Length())
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range []Point{{X: b.MinX, Y: b.MinY}, {X: b.MaxX, Y: b.MinY}, {X: b.MinX, Y: b.MaxY}, {X: b.MaxX, Y: b.MaxY}} {
		d := p.X*u.X + p.Y*u.Y
		lo, hi = math.Min(lo, d), math.Max(hi, d)
	}
	return [2]float64{lo, hi}
}

// cellBounds is the box around one lattice cell centered on the origin.
func cellBounds(tile Matrix, frieze bool, design Bounds) Bounds {
	a := Pt(tile.A, tile.D)
	if frieze {
		// One period along the repeat direction, the design's extent
		// across it.
		if math.Abs(a.X) >= math.Abs(a.Y) {
			return NewBounds(-math.Abs(a.X)/2, design.MinY, math.Abs(a.X)/2, design.MaxY)
		}
		return NewBounds(design.MinX, -math.Abs(a.Y)/2, design.MaxX, math.Abs(a.Y)/2)
	}
	c := Pt(tile.B, tile.E)
	var box Bounds
	for _, s := range [][2]float64{{-0.5, -0.5}, {0.5, -0.5}, {-0.5, 0.5}, {0.5, 0.5}} {
		box.MergePoint(a.Mul(s[0]).Add(c.Mul(s[1])))
	}
	return box
}

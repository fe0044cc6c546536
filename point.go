package cfdg

import "math"

// Point is a position or a displacement in the plane.
type Point struct {
	X, Y float64
}

// Pt returns the point (x, y).
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p displaced by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the displacement from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul scales p by s.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Length is the distance from the origin.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Lerp moves t of the way from p to q.
func (p Point) Lerp(q Point, t float64) Point {
	return p.Add(q.Sub(p).Mul(t))
}

package geom

import "github.com/chewxy/math32"

// Point represents a 2D point, vector or size.
type Point struct {
	X, Y float32
}

// Pt is a convenience function to create a Point.
func Pt(x, y float32) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float32) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Inverse returns the component-wise reciprocal. Zero components stay zero.
func (p Point) Inverse() Point {
	var q Point
	if p.X != 0 {
		q.X = 1 / p.X
	}
	if p.Y != 0 {
		q.Y = 1 / p.Y
	}
	return q
}

// IsZero reports whether both components are zero.
func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// Ceil rounds both components up.
func (p Point) Ceil() Point {
	return Point{X: math32.Ceil(p.X), Y: math32.Ceil(p.Y)}
}

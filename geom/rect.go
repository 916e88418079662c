package geom

import (
	"fmt"

	"github.com/chewxy/math32"
)

// DefaultCeilEpsilon is the tolerance used by Rect.Ceil so that edges lying
// within floating-point noise of a grid line are not pushed out a whole cell.
const DefaultCeilEpsilon = 0.001

// Rect is an axis-aligned rectangle in pixel units of some declared space
// (screen, texture or local).
type Rect struct {
	X, Y          float32
	Width, Height float32
}

// NewRect creates a rectangle from its origin and size.
func NewRect(x, y, width, height float32) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// FromLTRB creates a rectangle from its edges.
func FromLTRB(left, top, right, bottom float32) Rect {
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
}

// Left returns the minimum x edge.
func (r Rect) Left() float32 { return r.X }

// Right returns the maximum x edge.
func (r Rect) Right() float32 { return r.X + r.Width }

// Top returns the minimum y edge.
func (r Rect) Top() float32 { return r.Y }

// Bottom returns the maximum y edge.
func (r Rect) Bottom() float32 { return r.Y + r.Height }

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{X: r.X, Y: r.Y} }

// Size returns the width and height as a point.
func (r Rect) Size() Point { return Point{X: r.Width, Y: r.Height} }

// Empty reports whether the rectangle has a non-positive width or height.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Pad grows the rectangle by p on every side.
func (r Rect) Pad(p float32) Rect {
	return r.PadXY(p, p)
}

// PadXY grows the rectangle by px horizontally and py vertically on each side.
func (r Rect) PadXY(px, py float32) Rect {
	return Rect{
		X:      r.X - px,
		Y:      r.Y - py,
		Width:  r.Width + 2*px,
		Height: r.Height + 2*py,
	}
}

// Fit clips the rectangle to its intersection with o. When the two do not
// overlap the result has zero width and/or height.
func (r Rect) Fit(o Rect) Rect {
	x1 := math32.Max(r.X, o.X)
	x2 := math32.Min(r.Right(), o.Right())
	y1 := math32.Max(r.Y, o.Y)
	y2 := math32.Min(r.Bottom(), o.Bottom())

	return Rect{
		X:      x1,
		Y:      y1,
		Width:  math32.Max(x2-x1, 0),
		Height: math32.Max(y2-y1, 0),
	}
}

// Enlarge grows the rectangle to the bounding union of itself and o.
func (r Rect) Enlarge(o Rect) Rect {
	x1 := math32.Min(r.X, o.X)
	x2 := math32.Max(r.Right(), o.Right())
	y1 := math32.Min(r.Y, o.Y)
	y2 := math32.Max(r.Bottom(), o.Bottom())

	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Ceil rounds the rectangle outward onto a grid of 1/resolution units,
// using DefaultCeilEpsilon. Ceil(1) aligns to whole pixels.
func (r Rect) Ceil(resolution float32) Rect {
	return r.CeilEps(resolution, DefaultCeilEpsilon)
}

// CeilEps is Ceil with an explicit epsilon.
func (r Rect) CeilEps(resolution, eps float32) Rect {
	if resolution <= 0 {
		resolution = 1
	}
	x2 := math32.Ceil((r.X+r.Width-eps)*resolution) / resolution
	y2 := math32.Ceil((r.Y+r.Height-eps)*resolution) / resolution
	x := math32.Floor((r.X+eps)*resolution) / resolution
	y := math32.Floor((r.Y+eps)*resolution) / resolution

	return Rect{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y &&
		o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// ContainsPoint reports whether (x, y) lies inside r. The right and bottom
// edges are exclusive.
func (r Rect) ContainsPoint(x, y float32) bool {
	return x >= r.X && y >= r.Y && x < r.Right() && y < r.Bottom()
}

// Offset returns the rectangle translated by (dx, dy).
func (r Rect) Offset(dx, dy float32) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Scale multiplies origin and size by s.
func (r Rect) Scale(s float32) Rect {
	return Rect{X: r.X * s, Y: r.Y * s, Width: r.Width * s, Height: r.Height * s}
}

// Eq reports whether two rectangles are identical.
func (r Rect) Eq(o Rect) bool {
	return r == o
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect(%g, %g, %g, %g)", r.X, r.Y, r.Width, r.Height)
}

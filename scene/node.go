package scene

import (
	"github.com/gogpu/filterpipe"
	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// PaintFunc draws a node's own content into the device's bound target.
type PaintFunc func(dev render.Device, n *Node) error

// Node is one element of a scene tree.
type Node struct {
	// Name identifies the node in errors and Find.
	Name string
	// Bounds is the node's own content region in world units.
	Bounds geom.Rect
	// FilterArea, when not empty, replaces the measured bounds of the
	// node's filter scope.
	FilterArea geom.Rect
	// Filters are applied to the node and all its children.
	Filters []filterpipe.Filter
	// Options tunes the node's filter scope.
	Options *filterpipe.ScopeOptions
	// Children are drawn after the node's own content, in order.
	Children []*Node
	// Paint draws the node's own content. It may be nil for groups.
	Paint PaintFunc
	// Hidden nodes and their subtrees are skipped.
	Hidden bool
}

// NewNode returns an empty group node.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// NewRect returns a node filling bounds with c.
func NewRect(name string, bounds geom.Rect, c render.Color) *Node {
	return &Node{Name: name, Bounds: bounds, Paint: Fill(c)}
}

// Fill returns a PaintFunc filling the node's bounds with c.
func Fill(c render.Color) PaintFunc {
	return func(dev render.Device, n *Node) error {
		return render.Fill(dev, n.Bounds, c)
	}
}

// Add appends children and returns n.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// WithFilters sets the node's filters and returns n.
func (n *Node) WithFilters(filters ...filterpipe.Filter) *Node {
	n.Filters = filters
	return n
}

// WithFilterArea sets an explicit filter region and returns n.
func (n *Node) WithFilterArea(area geom.Rect) *Node {
	n.FilterArea = area
	return n
}

// Walk calls fn for n and every visible descendant, depth first. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(n *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int) bool, depth int) {
	if n.Hidden || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Find returns the first visible node called name, or nil.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Walk(func(c *Node, _ int) bool {
		if found != nil {
			return false
		}
		if c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found
}

// SubtreeBounds returns the union of the bounds of n and its visible
// descendants.
func (n *Node) SubtreeBounds() geom.Rect {
	var out geom.Rect
	n.Walk(func(c *Node, _ int) bool {
		switch {
		case c.Bounds.Empty():
		case out.Empty():
			out = c.Bounds
		default:
			out = out.Enlarge(c.Bounds)
		}
		return true
	})
	return out
}

// target adapts a node to the filterpipe target interfaces.
type target struct {
	n *Node
}

func (t target) Bounds() geom.Rect { return t.n.SubtreeBounds() }

func (t target) FilterArea() (geom.Rect, bool) {
	return t.n.FilterArea, !t.n.FilterArea.Empty()
}

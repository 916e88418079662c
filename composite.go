package filterpipe

import (
	"slices"

	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// Composite is a filter built from nested filters.
//
// The composite owns the lifecycle binding of the children it keeps: their
// viewport follows the composite's and their padding feeds the composite's
// padding. It never owns GPU resources. The default Measure walks the
// children backward; the default Apply runs them in order through a Pipe.
type Composite struct {
	Base

	children []Filter
}

// NewComposite returns a composite with the defaults of NewFilter.
func NewComposite(children ...Filter) *Composite {
	c := &Composite{}
	c.Init()
	for _, f := range children {
		c.Keep(f)
	}
	return c
}

// Keep adds f as a bound child and returns it.
func (c *Composite) Keep(f Filter) Filter {
	return c.keep(f, true)
}

// KeepUnbound adds f as a child whose viewport is not bound to the
// composite.
func (c *Composite) KeepUnbound(f Filter) Filter {
	return c.keep(f, false)
}

func (c *Composite) keep(f Filter, bound bool) Filter {
	b := f.FilterBase()
	b.parent = c
	b.bound = bound
	c.children = append(c.children, f)
	c.SyncPadding()
	return f
}

// Kick removes f from the children. It reports whether f was a child.
func (c *Composite) Kick(f Filter) bool {
	i := slices.Index(c.children, f)
	if i < 0 {
		return false
	}
	b := f.FilterBase()
	b.parent = nil
	b.bound = false
	c.children = slices.Delete(c.children, i, i+1)
	c.SyncPadding()
	return true
}

// Children returns the nested filters. The slice must not be modified.
func (c *Composite) Children() []Filter { return c.children }

// SyncPadding recomputes Padding from the children. Call it after changing
// a child's padding.
func (c *Composite) SyncPadding() {
	c.Padding = AggregatePadding(c.children)
}

// Measure walks the children from last to first, each one asked for the
// region the next one needs. The composite's frame is the first child's.
// If any child fails to set a frame, the composite leaves its own frame
// unset.
func (c *Composite) Measure(targetBounds, passBounds geom.Rect, padding float32) {
	frame := passBounds
	for i := len(c.children) - 1; i >= 0; i-- {
		b := c.children[i].FilterBase()
		b.resetMeasure()
		c.children[i].Measure(targetBounds, frame, padding)
		if !b.measured {
			c.unmeasured = filterName(c.children[i])
			if b.unmeasured != "" {
				c.unmeasured += "/" + b.unmeasured
			}
			return
		}
		b.frame = b.frame.Fit(targetBounds)
		if !b.renderable {
			c.renderable = false
		}
		frame = b.frame
	}
	c.SetFrame(frame)
}

// Apply runs the children in order, bridging through intermediate textures
// and closing into output.
func (c *Composite) Apply(sys *System, input, output *render.Texture, clear bool, scope *Scope, opts *RenderOptions) (*render.Texture, error) {
	switch len(c.children) {
	case 0:
		return nil, sys.ApplyFilter(sys.IdentityFilter(), input, output, clear, opts)
	case 1:
		return c.children[0].Apply(sys, input, output, clear, scope, opts)
	}

	pipe := sys.Pipe().Open(sys, input, output, clear, scope)
	for i, f := range c.children[:len(c.children)-1] {
		next, _ := c.children[i+1].FilterBase().Frame()
		if err := pipe.BridgeTo(f, next, nil); err != nil {
			_ = pipe.Finalize()
			return nil, err
		}
	}
	return pipe.CloseWith(c.children[len(c.children)-1], opts)
}

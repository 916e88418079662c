package scene

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/filterpipe"
)

// RenderStats describes the last Render call.
type RenderStats struct {
	// Nodes is the number of visible nodes visited.
	Nodes int
	// Painted is the number of nodes whose Paint ran.
	Painted int
	// Scopes is the number of filter scopes pushed.
	Scopes int
	// MaxDepth is the deepest filter nesting reached.
	MaxDepth int
	// TimeTotal is the duration of the call.
	TimeTotal time.Duration
}

// Renderer draws node trees through a filter system.
//
// A Renderer is not safe for concurrent use; it shares the system's device.
type Renderer struct {
	sys   *filterpipe.System
	stats RenderStats
	depth int
}

// NewRenderer returns a renderer drawing through sys.
func NewRenderer(sys *filterpipe.System) *Renderer {
	return &Renderer{sys: sys}
}

// System returns the filter system the renderer pushes scopes on.
func (r *Renderer) System() *filterpipe.System { return r.sys }

// Stats returns the statistics of the last render.
func (r *Renderer) Stats() RenderStats { return r.stats }

// Render draws root and its subtree into the device's current target.
func (r *Renderer) Render(root *Node) error {
	return r.RenderWithContext(context.Background(), root)
}

// RenderWithContext is Render with cancellation. The context is checked
// before each node; a canceled render still pops every scope it pushed.
func (r *Renderer) RenderWithContext(ctx context.Context, root *Node) error {
	r.stats = RenderStats{}
	r.depth = 0
	if root == nil {
		return nil
	}
	start := time.Now()
	err := r.render(ctx, root)
	r.stats.TimeTotal = time.Since(start)
	filterpipe.Logger().Debug("scene: rendered",
		"nodes", r.stats.Nodes, "scopes", r.stats.Scopes, "duration", r.stats.TimeTotal)
	return err
}

func (r *Renderer) render(ctx context.Context, n *Node) (err error) {
	if n.Hidden {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.stats.Nodes++

	if len(n.Filters) > 0 {
		if err := r.sys.Push(target{n}, n.Filters, n.Options); err != nil {
			return fmt.Errorf("scene: push %q: %w", n.Name, err)
		}
		r.stats.Scopes++
		r.depth++
		r.stats.MaxDepth = max(r.stats.MaxDepth, r.depth)
		defer func() {
			r.depth--
			if perr := r.sys.Pop(); perr != nil {
				err = errors.Join(err, fmt.Errorf("scene: pop %q: %w", n.Name, perr))
			}
		}()
	}

	if n.Paint != nil {
		if err := n.Paint(r.sys.Device(), n); err != nil {
			return fmt.Errorf("scene: paint %q: %w", n.Name, err)
		}
		r.stats.Painted++
	}
	for _, c := range n.Children {
		if err := r.render(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// Package filterpipe schedules multi-pass GPU filters over a 2D scene graph.
//
// # Overview
//
// A filtered object is drawn between [System.Push] and [System.Pop]. Push
// measures the filter chain, walking it backward to find the smallest input
// region each pass needs, and binds a pooled texture covering that region.
// The caller renders the object into it. Pop runs the filters forward,
// ping-ponging between two textures ("flip/flop"), and writes the last pass
// into whatever target was bound before Push. Scopes nest: an object inside
// a filtered group gets its own scope on top of its parent's.
//
// # Quick Start
//
//	dev := software.NewDevice(800, 600)
//	sys := filterpipe.New(dev)
//	defer sys.Close()
//
//	blur := effects.NewBlur(8, 2)
//	if err := sys.Push(node, []filterpipe.Filter{blur}, nil); err != nil {
//	    return err
//	}
//	node.Paint(dev)
//	if err := sys.Pop(); err != nil {
//	    return err
//	}
//
// # Filters
//
// Leaf filters embed [Base] and provide a render.Program. Composite filters
// embed [Composite], keep nested filters, and drive them with a [Pipe] from
// their Apply method. The measured frame and renderable flag of a filter
// are overwritten by every measurement, so one filter instance must not be
// used by two scopes that are open at the same time.
//
// # Textures
//
// All intermediate textures come from a render.TexturePool keyed by
// power-of-two size and resolution. Each texture handed out is returned
// exactly once, on success and on every error path.
//
// # Coordinate Spaces
//
// Frames are world-space rectangles. A texture holds the world region in
// its FilterFrame starting at its origin; geometry is normalized to the
// output frame of the pass; sampling coordinates are normalized to the
// texture. [System.ConvertFrameToGeometry] and [System.ConvertFrameToClamp]
// convert between them.
//
// # Logging
//
// filterpipe logs through log/slog and is silent by default; see
// [SetLogger].
package filterpipe

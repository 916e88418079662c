// Package scene drives a filterpipe.System from a tree of nodes.
//
// A Node has world-space bounds, an optional filter list and a paint
// function. The Renderer walks the tree depth first: for every node with
// filters it pushes a scope, paints the node, renders its children and pops
// the scope. Pops always mirror pushes, so the filter stack is balanced
// after every Render call, even when painting fails.
//
//	root := scene.NewNode("root").Add(
//	    scene.NewRect("card", geom.NewRect(20, 20, 100, 60), render.Color{R: 1, A: 1}).
//	        WithFilters(effects.NewDropShadow(effects.DefaultShadowOptions)),
//	)
//	r := scene.NewRenderer(filterpipe.New(device))
//	err := r.Render(root)
package scene

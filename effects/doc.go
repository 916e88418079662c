// Package effects provides ready-made filters built on the filterpipe
// machinery.
//
// Blur is a composite of one-axis Gaussian passes chained through a pipe.
// ColorMatrix is a leaf filter applying a 5x4 color transform. DropShadow
// saves its input, renders a tinted, offset and blurred copy of the input's
// alpha, and composites the saved input over it.
//
// Every program carries both a WGSL shade function for backend/wgpu and a
// CPU Shade for backend/software.
//
//	sys := filterpipe.New(device)
//	blur := effects.NewBlur(8, 2)
//	shadow := effects.NewDropShadow(effects.DefaultShadowOptions)
//	sys.Push(node, []filterpipe.Filter{blur, shadow}, nil)
//	// draw the node
//	sys.Pop()
//
// FromPreset builds filters from config presets.
package effects

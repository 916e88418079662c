// Package backend is the registry of render.Device implementations.
//
// Device packages register a factory from their init() functions and are
// selected at runtime. The CPU device registers itself on import:
//
//	import _ "github.com/gogpu/filterpipe/backend/software"
//
// The GPU device needs a device supplied by the host application, so it is
// registered explicitly:
//
//	wgpu.Register(provider)
//
// # Device Selection
//
// Use Default() to get the best available device, or Get() to request a
// specific one by name:
//
//	dev, err := backend.Default(800, 600)
//
//	// Or request a specific device
//	dev, err := backend.Get("software", 800, 600)
//
// # Available Devices
//
//   - "software": CPU shading into *image.RGBA (always available once imported)
//   - "wgpu": GPU shading via gogpu/wgpu
package backend

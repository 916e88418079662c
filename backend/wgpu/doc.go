// Package wgpu implements render.Device on a gogpu/wgpu HAL device.
//
// Every filter program is compiled once: its WGSL body is appended to a
// shared prelude declaring the uniform block, the input and secondary
// textures and the sampler, compiled to SPIR-V with gogpu/naga and turned
// into one render pipeline per blend mode. Each clear and draw is encoded
// in its own render pass and submitted synchronously, which keeps the
// device's behavior identical to backend/software at the cost of
// batching.
//
// The device usually comes from the host application:
//
//	dev, err := wgpu.NewFromProvider(provider, 800, 600)
//
// or is registered with the backend registry:
//
//	wgpu.Register(provider)
//	dev, err := backend.Default(800, 600)
package wgpu

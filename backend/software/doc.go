// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package software implements render.Device on the CPU.
//
// Textures are *image.RGBA at their physical size holding premultiplied
// color. Draws rasterize the call geometry, then shade every covered texel
// with Program.Shade, splitting rows across goroutines. The device is the
// reference backend: tests and headless tools use it, and backend/wgpu must
// produce the same images.
//
// Example:
//
//	dev := software.NewDevice(320, 240)
//	sys := filterpipe.New(dev)
//	defer sys.Close()
//
//	// ... push, paint, pop ...
//
//	img := dev.Snapshot(nil) // the screen
package software

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceHandle provides GPU device access from the host application.
// It is an alias for gpucontext.DeviceProvider; backend/wgpu builds a Device
// from one.
type DeviceHandle = gpucontext.DeviceProvider

// DefaultFormat is the pixel format of every render target the pipeline
// allocates.
const DefaultFormat = gputypes.TextureFormatRGBA8Unorm

// Allocator creates and destroys the backing storage of textures.
type Allocator interface {
	// Allocate creates storage for tex at its physical size and stores it in
	// tex.Backing.
	Allocate(tex *Texture) error

	// Release destroys the storage held in tex.Backing.
	Release(tex *Texture)
}

// Binding describes the active render target.
type Binding struct {
	// Target is the bound texture. Devices report their default framebuffer
	// here rather than nil.
	Target *Texture

	// Source is the world-space region mapped onto Destination.
	Source geom.Rect

	// Destination is the region of the target, in logical units, that
	// receives Source.
	Destination geom.Rect
}

// Device is the render-target and draw service consumed by the filter system.
//
// Devices are used from a single goroutine: the filter system records work in
// scene-traversal order and never calls a device concurrently.
type Device interface {
	Allocator

	// MaxTextureSize returns the largest texture dimension, in physical
	// pixels, the device can allocate.
	MaxTextureSize() int

	// Bind makes target the active render target. A nil target binds the
	// device's default framebuffer.
	Bind(target *Texture, source, destination geom.Rect)

	// Binding returns the active render target.
	Binding() Binding

	// Clear fills the whole bound target with c.
	Clear(c Color)

	// ClearRect fills r, given in the target's logical units, with c.
	ClearRect(r geom.Rect, c Color)

	// Draw runs call.Program over call.Geometry into the bound target.
	Draw(call *DrawCall) error
}

// DrawMode is the primitive topology of a draw call.
type DrawMode uint8

const (
	// DrawTriangleStrip draws a triangle strip.
	DrawTriangleStrip DrawMode = iota
	// DrawTriangles draws independent triangles.
	DrawTriangles
)

// BlendMode selects how a draw combines with the target.
type BlendMode uint8

const (
	// BlendNormal is premultiplied source-over.
	BlendNormal BlendMode = iota
	// BlendReplace overwrites the target.
	BlendReplace
)

// DrawCall is one filter draw.
type DrawCall struct {
	// Program shades each covered fragment.
	Program Program

	// Input is the texture sampled as the program's main input.
	Input *Texture

	// Secondary is an optional second input (for example a saved texture).
	Secondary *Texture

	// Globals is the per-pass uniform block.
	Globals *Globals

	// Geometry positions are normalized to Globals.OutputFrame. Nil draws
	// the default full quad.
	Geometry *Geometry

	// Mode is the primitive topology of Geometry.
	Mode DrawMode

	// Blend is how fragments combine with the target.
	Blend BlendMode
}

// ResolvedGeometry returns the call's geometry, falling back to the default quad.
func (c *DrawCall) ResolvedGeometry() *Geometry {
	if c.Geometry != nil {
		return c.Geometry
	}
	return DefaultQuad()
}

// TextureDescriptor returns the GPU descriptor for a pool texture.
func TextureDescriptor(tex *Texture) gputypes.TextureDescriptor {
	//nolint:gosec // G115: dimensions are bounded by MaxTextureSize
	return gputypes.TextureDescriptor{
		Label: tex.Label,
		Size: gputypes.Extent3D{
			Width:              uint32(tex.PixelWidth()),
			Height:             uint32(tex.PixelHeight()),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        DefaultFormat,
		Usage: gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageRenderAttachment |
			gputypes.TextureUsageCopySrc |
			gputypes.TextureUsageCopyDst,
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"

	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/internal/cache"
)

// BytesPerPixel is the storage cost of one RGBA8 texel.
const BytesPerPixel = 4

// Owner tags who is currently responsible for returning a texture.
type Owner uint8

const (
	// OwnerPool marks an idle texture sitting in the pool.
	OwnerPool Owner = iota

	// OwnerSystem marks a texture held by the filter system itself
	// (flip/flop buddies, textures handed out by GetFilterTexture).
	OwnerSystem

	// OwnerScope marks the render texture of a pushed scope.
	OwnerScope

	// OwnerPipe marks a bridge texture held by a Pipe.
	OwnerPipe

	// OwnerFilter marks a texture a filter obtained for its own use.
	OwnerFilter

	// OwnerExternal marks a texture that was never allocated by a pool,
	// such as the screen or a caller-provided target.
	OwnerExternal
)

func (o Owner) String() string {
	switch o {
	case OwnerPool:
		return "pool"
	case OwnerSystem:
		return "system"
	case OwnerScope:
		return "scope"
	case OwnerPipe:
		return "pipe"
	case OwnerFilter:
		return "filter"
	case OwnerExternal:
		return "external"
	default:
		return fmt.Sprintf("Owner(%d)", uint8(o))
	}
}

// Sampling selects how a texture is filtered when read by a program.
type Sampling uint8

const (
	// SamplingLinear interpolates between texels.
	SamplingLinear Sampling = iota
	// SamplingNearest picks the closest texel.
	SamplingNearest
)

// Color is a premultiplied RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Transparent is the zero color.
var Transparent = Color{}

// Texture is a render target handle.
//
// The handle is what the pipeline passes around; the pixels live in Backing,
// which belongs to the Device that allocated it. Width and Height are logical
// units (physical pixels divided by resolution), matching the frames the
// texture is bound with.
type Texture struct {
	// Label is an optional debug name.
	Label string

	// FilterFrame is the world-space region this texture currently holds.
	FilterFrame geom.Rect

	// Sampling is the filter used when the texture is read.
	Sampling Sampling

	// Backing is the device-specific storage (an *image.RGBA, a GPU texture
	// and view, ...). Set by Allocator.Allocate.
	Backing any

	id          uint64
	pixelWidth  int
	pixelHeight int
	resolution  float32
	owner       Owner
	key         poolKey
	pool        *TexturePool
	node        *cache.Node[*Texture]
}

// NewTexture creates a texture handle that is not managed by any pool.
// The caller still needs to allocate its backing on a device.
func NewTexture(pixelWidth, pixelHeight int, resolution float32) *Texture {
	if resolution <= 0 {
		resolution = 1
	}
	return &Texture{
		pixelWidth:  pixelWidth,
		pixelHeight: pixelHeight,
		resolution:  resolution,
		owner:       OwnerExternal,
		FilterFrame: geom.NewRect(0, 0, float32(pixelWidth)/resolution, float32(pixelHeight)/resolution),
	}
}

// ID returns the pool-assigned identifier, or 0 for external textures.
func (t *Texture) ID() uint64 { return t.id }

// Width returns the logical width.
func (t *Texture) Width() float32 { return float32(t.pixelWidth) / t.resolution }

// Height returns the logical height.
func (t *Texture) Height() float32 { return float32(t.pixelHeight) / t.resolution }

// Dimensions returns the logical size as a point.
func (t *Texture) Dimensions() geom.Point { return geom.Pt(t.Width(), t.Height()) }

// PixelWidth returns the physical width in texels.
func (t *Texture) PixelWidth() int { return t.pixelWidth }

// PixelHeight returns the physical height in texels.
func (t *Texture) PixelHeight() int { return t.pixelHeight }

// Resolution returns the number of texels per logical unit.
func (t *Texture) Resolution() float32 { return t.resolution }

// Owner returns the current owner tag.
func (t *Texture) Owner() Owner { return t.owner }

// SizeBytes returns the storage cost of the backing.
func (t *Texture) SizeBytes() uint64 {
	//nolint:gosec // G115: dimensions are bounded by the device's max texture size
	return uint64(t.pixelWidth) * uint64(t.pixelHeight) * BytesPerPixel
}

func (t *Texture) String() string {
	label := t.Label
	if label == "" {
		label = fmt.Sprintf("tex#%d", t.id)
	}
	return fmt.Sprintf("%s[%dx%d@%g %s]", label, t.pixelWidth, t.pixelHeight, t.resolution, t.owner)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/chewxy/math32"

	"github.com/gogpu/filterpipe/backend"
	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// Name is the registry name of the software device.
const Name = "software"

// DefaultMaxTextureSize is the largest texture dimension allocated unless
// WithMaxTextureSize says otherwise.
const DefaultMaxTextureSize = 8192

// ErrNotAllocated is returned when drawing into or from a texture whose
// backing was not created by a software device.
var ErrNotAllocated = errors.New("software: texture has no image backing")

func init() {
	backend.Register(Name, func(width, height int) (render.Device, error) {
		return NewDevice(width, height), nil
	})
}

// Option configures a Device.
type Option func(*Device)

// WithMaxTextureSize sets the reported texture size limit.
func WithMaxTextureSize(n int) Option {
	return func(d *Device) {
		if n > 0 {
			d.maxSize = n
		}
	}
}

// WithParallel enables or disables row-parallel shading. It is enabled by
// default.
func WithParallel(enabled bool) Option {
	return func(d *Device) {
		d.parallel = enabled
	}
}

// Device is a CPU render.Device.
type Device struct {
	maxSize  int
	parallel bool

	screen  *render.Texture
	binding render.Binding

	draws  int
	blits  int
	clears int
}

// NewDevice creates a device whose default framebuffer is a width x height
// screen at resolution 1.
func NewDevice(width, height int, opts ...Option) *Device {
	d := &Device{
		maxSize:  DefaultMaxTextureSize,
		parallel: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.screen = render.NewTexture(width, height, 1)
	d.screen.Label = "screen"
	d.screen.Backing = image.NewRGBA(image.Rect(0, 0, width, height))
	d.Bind(nil, geom.Rect{}, geom.Rect{})
	return d
}

// Screen returns the default framebuffer.
func (d *Device) Screen() *render.Texture { return d.screen }

// Allocate implements render.Allocator.
func (d *Device) Allocate(tex *render.Texture) error {
	w, h := tex.PixelWidth(), tex.PixelHeight()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", render.ErrInvalidSize, w, h)
	}
	if w > d.maxSize || h > d.maxSize {
		return fmt.Errorf("%w: %dx%d exceeds %d", render.ErrInvalidSize, w, h, d.maxSize)
	}
	tex.Backing = image.NewRGBA(image.Rect(0, 0, w, h))
	return nil
}

// Release implements render.Allocator.
func (d *Device) Release(tex *render.Texture) {
	tex.Backing = nil
}

// MaxTextureSize implements render.Device.
func (d *Device) MaxTextureSize() int { return d.maxSize }

// Bind implements render.Device. Empty frames default to the whole target.
func (d *Device) Bind(target *render.Texture, source, destination geom.Rect) {
	if target == nil {
		target = d.screen
	}
	whole := geom.NewRect(0, 0, target.Width(), target.Height())
	if destination.Empty() {
		destination = whole
	}
	if source.Empty() {
		source = destination
	}
	d.binding = render.Binding{Target: target, Source: source, Destination: destination}
}

// Binding implements render.Device.
func (d *Device) Binding() render.Binding { return d.binding }

// Clear implements render.Device.
func (d *Device) Clear(c render.Color) {
	img := imageOf(d.binding.Target)
	if img == nil {
		return
	}
	d.clears++
	fill(img, img.Rect, c)
}

// ClearRect implements render.Device.
func (d *Device) ClearRect(r geom.Rect, c render.Color) {
	t := d.binding.Target
	img := imageOf(t)
	if img == nil {
		return
	}
	res := t.Resolution()
	px := image.Rect(
		int(math32.Floor(r.X*res)), int(math32.Floor(r.Y*res)),
		int(math32.Ceil(r.Right()*res)), int(math32.Ceil(r.Bottom()*res)),
	).Intersect(img.Rect)
	if px.Empty() {
		return
	}
	d.clears++
	fill(img, px, c)
}

// Draw implements render.Device.
func (d *Device) Draw(call *render.DrawCall) error {
	if call == nil || call.Program == nil {
		return fmt.Errorf("software: %w", render.ErrInvalidDraw)
	}
	target := d.binding.Target
	dst := imageOf(target)
	if dst == nil {
		return fmt.Errorf("%w: target %s", ErrNotAllocated, target)
	}
	if call.Globals == nil {
		return fmt.Errorf("software: %w", render.ErrInvalidDraw)
	}

	if ok, err := d.blit(call, dst); ok || err != nil {
		return err
	}

	r, err := d.newRaster(call, dst)
	if err != nil {
		return err
	}
	if r == nil {
		return nil
	}
	d.draws++
	r.run(d.parallel)
	return nil
}

// Image returns the backing image of tex, or of the screen for nil. The
// image is live: later draws change it.
func (d *Device) Image(tex *render.Texture) *image.RGBA {
	if tex == nil {
		tex = d.screen
	}
	return imageOf(tex)
}

// Snapshot returns a copy of the pixels of tex, or of the screen for nil.
func (d *Device) Snapshot(tex *render.Texture) *image.RGBA {
	img := d.Image(tex)
	if img == nil {
		return nil
	}
	return clone.AsRGBA(img)
}

// Stats reports how many draws, identity blits and clears the device ran.
func (d *Device) Stats() (draws, blits, clears int) {
	return d.draws, d.blits, d.clears
}

func imageOf(tex *render.Texture) *image.RGBA {
	if tex == nil {
		return nil
	}
	img, _ := tex.Backing.(*image.RGBA)
	return img
}

// worldToPixel maps world-space x, y onto the bound target's texels.
func worldToPixel(b render.Binding, res float32, p geom.Point) geom.Point {
	sx := b.Destination.Width / b.Source.Width
	sy := b.Destination.Height / b.Source.Height
	return geom.Pt(
		(b.Destination.X+(p.X-b.Source.X)*sx)*res,
		(b.Destination.Y+(p.Y-b.Source.Y)*sy)*res,
	)
}

// pixelToWorld is the inverse of worldToPixel.
func pixelToWorld(b render.Binding, res float32, p geom.Point) geom.Point {
	sx := b.Source.Width / b.Destination.Width
	sy := b.Source.Height / b.Destination.Height
	return geom.Pt(
		b.Source.X+(p.X/res-b.Destination.X)*sx,
		b.Source.Y+(p.Y/res-b.Destination.Y)*sy,
	)
}

// clipRect returns the texels of the bound destination frame.
func clipRect(b render.Binding, res float32, img *image.RGBA) image.Rectangle {
	d := b.Destination
	return image.Rect(
		int(math32.Floor(d.X*res)), int(math32.Floor(d.Y*res)),
		int(math32.Ceil(d.Right()*res)), int(math32.Ceil(d.Bottom()*res)),
	).Intersect(img.Rect)
}

package wgpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/filterpipe/backend"
	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// Device errors.
var (
	// ErrNoDevice is returned when a nil HAL device or queue is given.
	ErrNoDevice = errors.New("wgpu: device and queue are required")

	// ErrNotHAL is returned when a provider does not expose HAL types.
	ErrNotHAL = errors.New("wgpu: provider does not expose HAL device and queue")

	// ErrFeedbackLoop is returned when a draw samples its own target.
	ErrFeedbackLoop = errors.New("wgpu: draw reads from its render target")

	// ErrNotAllocated is returned for textures without a GPU backing.
	ErrNotAllocated = errors.New("wgpu: texture has no GPU backing")
)

// waitTimeout bounds how long a submission may take.
const waitTimeout = 5 * time.Second

// Option configures a Device.
type Option func(*Device)

// WithMaxTextureSize lowers the texture size limit below the adapter's
// default limits.
func WithMaxTextureSize(n int) Option {
	return func(d *Device) {
		if n > 0 && n < d.maxSize {
			d.maxSize = n
		}
	}
}

// gpuTexture is the Backing of every texture allocated by a Device.
type gpuTexture struct {
	tex  hal.Texture
	view hal.TextureView
}

// Device is a GPU render.Device.
//
// A Device does not own the HAL device it draws on; Destroy releases only
// the resources the Device created.
type Device struct {
	device  hal.Device
	queue   hal.Queue
	maxSize int

	screen  *render.Texture
	binding render.Binding

	linear     hal.Sampler
	nearest    hal.Sampler
	layout     hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipelines  *pipelineCache

	// blank is bound in place of a missing input or secondary texture.
	blank *render.Texture

	submits int
}

// New creates a device drawing with the given HAL device and queue. Its
// default framebuffer is an offscreen width x height texture.
func New(device hal.Device, queue hal.Queue, width, height int, opts ...Option) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	d := &Device{
		device:  device,
		queue:   queue,
		maxSize: int(gputypes.DefaultLimits().MaxTextureDimension2D),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.pipelines = newPipelineCache(d)

	if err := d.init(width, height); err != nil {
		d.Destroy()
		return nil, err
	}
	return d, nil
}

// NewFromProvider creates a device from a host application's device
// provider. The provider must implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider, width, height int, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := any(provider).(halProvider)
	if !ok {
		return nil, ErrNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNotHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNotHAL)
	}
	return New(device, queue, width, height, opts...)
}

// Register makes devices built from provider available to the backend
// registry under backend.NameWGPU.
func Register(provider gpucontext.DeviceProvider, opts ...Option) {
	backend.Register(backend.NameWGPU, func(width, height int) (render.Device, error) {
		return NewFromProvider(provider, width, height, opts...)
	})
}

func (d *Device) init(width, height int) error {
	var err error
	d.linear, err = d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "filter_linear_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create linear sampler: %w", err)
	}
	d.nearest, err = d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "filter_nearest_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create nearest sampler: %w", err)
	}

	// Bind group layout:
	//   Binding 0: draw uniforms (vertex+fragment)
	//   Binding 1: program parameters (vertex+fragment)
	//   Binding 2: input texture
	//   Binding 3: secondary texture
	//   Binding 4: sampler
	textureLayout := &gputypes.TextureBindingLayout{
		SampleType:    gputypes.TextureSampleTypeFloat,
		ViewDimension: gputypes.TextureViewDimension2D,
	}
	d.layout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "filter_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{Binding: 2, Visibility: gputypes.ShaderStageFragment, Texture: textureLayout},
			{Binding: 3, Visibility: gputypes.ShaderStageFragment, Texture: textureLayout},
			{
				Binding:    4,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group layout: %w", err)
	}
	d.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "filter_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{d.layout},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}

	d.blank = render.NewTexture(1, 1, 1)
	d.blank.Label = "blank"
	if err := d.Allocate(d.blank); err != nil {
		return err
	}
	d.upload(d.blank, make([]byte, render.BytesPerPixel))

	d.screen = render.NewTexture(width, height, 1)
	d.screen.Label = "screen"
	if err := d.Allocate(d.screen); err != nil {
		return err
	}
	d.Bind(nil, geom.Rect{}, geom.Rect{})
	return nil
}

// Destroy releases every GPU resource the device created. Textures handed
// out by a pool must be released through the pool first.
func (d *Device) Destroy() {
	if d.device == nil {
		return
	}
	d.pipelines.destroy()
	for _, tex := range []*render.Texture{d.screen, d.blank} {
		if tex != nil {
			d.Release(tex)
		}
	}
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.layout != nil {
		d.device.DestroyBindGroupLayout(d.layout)
		d.layout = nil
	}
	if d.nearest != nil {
		d.device.DestroySampler(d.nearest)
		d.nearest = nil
	}
	if d.linear != nil {
		d.device.DestroySampler(d.linear)
		d.linear = nil
	}
}

// Screen returns the default framebuffer.
func (d *Device) Screen() *render.Texture { return d.screen }

// Submits returns the number of command buffers submitted.
func (d *Device) Submits() int { return d.submits }

// Allocate implements render.Allocator.
func (d *Device) Allocate(tex *render.Texture) error {
	if tex.PixelWidth() > d.maxSize || tex.PixelHeight() > d.maxSize {
		return fmt.Errorf("%w: %dx%d exceeds %d", render.ErrInvalidSize, tex.PixelWidth(), tex.PixelHeight(), d.maxSize)
	}
	desc := render.TextureDescriptor(tex)
	t, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Size.Width, Height: desc.Size.Height, DepthOrArrayLayers: 1},
		MipLevelCount: desc.MipLevelCount,
		SampleCount:   desc.SampleCount,
		Dimension:     desc.Dimension,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create texture %s: %w", tex, err)
	}
	view, err := d.device.CreateTextureView(t, &hal.TextureViewDescriptor{
		Label:         desc.Label,
		Format:        desc.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(t)
		return fmt.Errorf("wgpu: create texture view %s: %w", tex, err)
	}
	tex.Backing = &gpuTexture{tex: t, view: view}
	return nil
}

// Release implements render.Allocator.
func (d *Device) Release(tex *render.Texture) {
	g, ok := tex.Backing.(*gpuTexture)
	if !ok {
		return
	}
	if g.view != nil {
		d.device.DestroyTextureView(g.view)
	}
	if g.tex != nil {
		d.device.DestroyTexture(g.tex)
	}
	tex.Backing = nil
}

// MaxTextureSize implements render.Device.
func (d *Device) MaxTextureSize() int { return d.maxSize }

// Bind implements render.Device. Empty frames default to the whole target.
func (d *Device) Bind(target *render.Texture, source, destination geom.Rect) {
	if target == nil {
		target = d.screen
	}
	if destination.Empty() {
		destination = geom.NewRect(0, 0, target.Width(), target.Height())
	}
	if source.Empty() {
		source = destination
	}
	d.binding = render.Binding{Target: target, Source: source, Destination: destination}
}

// Binding implements render.Device.
func (d *Device) Binding() render.Binding { return d.binding }

func backingOf(tex *render.Texture) (*gpuTexture, error) {
	if tex == nil {
		return nil, ErrNotAllocated
	}
	g, ok := tex.Backing.(*gpuTexture)
	if !ok || g == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAllocated, tex)
	}
	return g, nil
}

// upload writes tightly packed RGBA rows into tex.
func (d *Device) upload(tex *render.Texture, pixels []byte) {
	g, err := backingOf(tex)
	if err != nil {
		return
	}
	w, h := uint32(tex.PixelWidth()), uint32(tex.PixelHeight()) //nolint:gosec // bounded by MaxTextureSize
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: g.tex, MipLevel: 0},
		pixels,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * render.BytesPerPixel, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
}

package wgpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// copyPitchAlignment is the row alignment required by texture-to-buffer
// copies.
const copyPitchAlignment = 256

// errEmptyGeometry is returned for a draw whose geometry has no triangles.
var errEmptyGeometry = errors.New("wgpu: draw geometry has no triangles")

// drawResources are the per-draw buffers and bind group.
type drawResources struct {
	uniformBuf hal.Buffer
	paramsBuf  hal.Buffer
	vertBuf    hal.Buffer
	idxBuf     hal.Buffer
	bindGroup  hal.BindGroup
	indexCount uint32
}

func (d *Device) destroyResources(r *drawResources) {
	if r.bindGroup != nil {
		d.device.DestroyBindGroup(r.bindGroup)
	}
	for _, buf := range []hal.Buffer{r.uniformBuf, r.paramsBuf, r.vertBuf, r.idxBuf} {
		if buf != nil {
			d.device.DestroyBuffer(buf)
		}
	}
}

// Clear implements render.Device.
func (d *Device) Clear(c render.Color) {
	g, err := backingOf(d.binding.Target)
	if err != nil {
		render.Logger().Warn("wgpu: clear", "error", err)
		return
	}
	err = d.submit("filter_clear", func(encoder hal.CommandEncoder) {
		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "filter_clear_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       g.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)},
			}},
		})
		rp.End()
	})
	if err != nil {
		render.Logger().Warn("wgpu: clear", "error", err)
	}
}

// ClearRect implements render.Device. The rectangle is filled by a
// replacing solid draw restricted to r.
func (d *Device) ClearRect(r geom.Rect, c render.Color) {
	b := d.binding
	if r.Empty() || b.Destination.Empty() {
		return
	}
	// Map the logical rectangle back into the bound source space.
	sx := b.Source.Width / b.Destination.Width
	sy := b.Source.Height / b.Destination.Height
	world := geom.NewRect(
		b.Source.X+(r.X-b.Destination.X)*sx,
		b.Source.Y+(r.Y-b.Destination.Y)*sy,
		r.Width*sx,
		r.Height*sy,
	)
	globals := &render.Globals{
		InputFrame:         world,
		OutputFrame:        world,
		InputFrameInverse:  [2]float32{1 / world.Width, 1 / world.Height},
		OutputFrameInverse: [2]float32{1 / world.Width, 1 / world.Height},
		Resolution:         b.Target.Resolution(),
	}
	err := d.Draw(&render.DrawCall{
		Program: render.SolidProgram(c),
		Globals: globals,
		Blend:   render.BlendReplace,
	})
	if err != nil {
		render.Logger().Warn("wgpu: clear rect", "rect", r, "error", err)
	}
}

// Draw implements render.Device. Each draw is encoded into its own command
// buffer and waited on before returning.
func (d *Device) Draw(call *render.DrawCall) error {
	if call == nil || call.Program == nil || call.Globals == nil {
		return fmt.Errorf("wgpu: %w", render.ErrInvalidDraw)
	}
	b := d.binding
	target, err := backingOf(b.Target)
	if err != nil {
		return err
	}
	if call.Input == b.Target || call.Secondary == b.Target {
		return ErrFeedbackLoop
	}
	vp := viewport(b)
	if vp.Empty() {
		return nil
	}

	pipeline, err := d.pipelines.get(call.Program, call.Blend)
	if err != nil {
		return err
	}
	res, err := d.prepare(call)
	if err != nil {
		return err
	}
	defer d.destroyResources(res)

	err = d.submit("filter_"+call.Program.Label(), func(encoder hal.CommandEncoder) {
		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "filter_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:    target.view,
				LoadOp:  gputypes.LoadOpLoad,
				StoreOp: gputypes.StoreOpStore,
			}},
		})
		rp.SetViewport(0, 0, float32(b.Target.PixelWidth()), float32(b.Target.PixelHeight()), 0, 1)
		//nolint:gosec // G115: vp is clipped to the target
		rp.SetScissorRect(uint32(vp.Min.X), uint32(vp.Min.Y), uint32(vp.Dx()), uint32(vp.Dy()))
		rp.SetPipeline(pipeline)
		rp.SetBindGroup(0, res.bindGroup, nil)
		rp.SetVertexBuffer(0, res.vertBuf, 0)
		rp.SetIndexBuffer(res.idxBuf, gputypes.IndexFormatUint16, 0)
		rp.DrawIndexed(res.indexCount, 1, 0, 0, 0)
		rp.End()
	})
	if err != nil {
		return fmt.Errorf("wgpu: draw %q: %w", call.Program.Label(), err)
	}
	return nil
}

// viewport returns the pixel rectangle of the bound destination, clipped
// to the target.
func viewport(b render.Binding) image.Rectangle {
	res := b.Target.Resolution()
	r := image.Rect(
		int(math32.Floor(b.Destination.X*res)),
		int(math32.Floor(b.Destination.Y*res)),
		int(math32.Ceil(b.Destination.Right()*res)),
		int(math32.Ceil(b.Destination.Bottom()*res)),
	)
	return r.Intersect(image.Rect(0, 0, b.Target.PixelWidth(), b.Target.PixelHeight()))
}

// prepare uploads the uniforms and geometry of a draw and builds its bind
// group.
func (d *Device) prepare(call *render.DrawCall) (*drawResources, error) {
	verts, indices := triangleList(call.ResolvedGeometry(), call.Mode)
	if len(indices) == 0 {
		return nil, errEmptyGeometry
	}

	res := &drawResources{indexCount: uint32(len(indices))} //nolint:gosec // G115: uint16 indices
	fail := func(err error) (*drawResources, error) {
		d.destroyResources(res)
		return nil, err
	}

	var err error
	if res.uniformBuf, err = d.buffer("filter_uniforms", d.drawUniforms(call), gputypes.BufferUsageUniform); err != nil {
		return fail(err)
	}
	if res.paramsBuf, err = d.buffer("filter_params", paramsBytes(call.Program), gputypes.BufferUsageUniform); err != nil {
		return fail(err)
	}
	if res.vertBuf, err = d.buffer("filter_vertices", render.AppendFloats(nil, verts), gputypes.BufferUsageVertex); err != nil {
		return fail(err)
	}
	if res.idxBuf, err = d.buffer("filter_indices", indexBytes(indices), gputypes.BufferUsageIndex); err != nil {
		return fail(err)
	}

	input, err := d.sourceOf(call.Input)
	if err != nil {
		return fail(err)
	}
	secondary, err := d.sourceOf(call.Secondary)
	if err != nil {
		return fail(err)
	}
	if call.Secondary == nil {
		secondary = input
	}
	sampler := d.linear
	if call.Input != nil && call.Input.Sampling == render.SamplingNearest {
		sampler = d.nearest
	}

	res.bindGroup, err = d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "filter_bind",
		Layout: d.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: res.uniformBuf.NativeHandle(), Offset: 0, Size: drawUniformSize,
			}},
			{Binding: 1, Resource: gputypes.BufferBinding{
				Buffer: res.paramsBuf.NativeHandle(), Offset: 0, Size: paramsUniformSize,
			}},
			{Binding: 2, Resource: gputypes.TextureViewBinding{
				TextureView: uintptr(input.view.NativeHandle()),
			}},
			{Binding: 3, Resource: gputypes.TextureViewBinding{
				TextureView: uintptr(secondary.view.NativeHandle()),
			}},
			{Binding: 4, Resource: gputypes.SamplerBinding{
				Sampler: uintptr(sampler.NativeHandle()),
			}},
		},
	})
	if err != nil {
		return fail(fmt.Errorf("wgpu: create bind group: %w", err))
	}
	return res, nil
}

// sourceOf returns the backing of a sampled texture, or the blank texture
// when there is none.
func (d *Device) sourceOf(tex *render.Texture) (*gpuTexture, error) {
	if tex == nil {
		return backingOf(d.blank)
	}
	return backingOf(tex)
}

// buffer creates a buffer of the given usage and fills it with data.
func (d *Device) buffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s buffer: %w", label, err)
	}
	d.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// drawUniforms encodes the Globals of a draw followed by the binding and
// secondary input state read by the vertex stage.
func (d *Device) drawUniforms(call *render.DrawCall) []byte {
	b := d.binding
	out := make([]byte, 0, drawUniformSize)
	out = call.Globals.AppendBytes(out)
	out = render.AppendRect(out, b.Source)
	out = render.AppendRect(out, b.Destination)
	out = render.AppendFloats(out, []float32{b.Target.Width(), b.Target.Height()})

	frame, size := geom.Rect{}, [4]float32{1, 1, 1, 1}
	if s := call.Secondary; s != nil {
		frame = s.FilterFrame
		size = [4]float32{s.Width(), s.Height(), 1 / s.Width(), 1 / s.Height()}
	} else if call.Input != nil {
		frame = call.Globals.InputFrame
		size = call.Globals.InputSize
	}
	out = render.AppendRect(out, frame)
	out = render.AppendFloats(out, size[:])

	var mode float32
	if render.VertexModeOf(call.Program) == render.VertexRescale {
		mode = 1
	}
	return render.AppendFloats(out, []float32{mode})
}

// paramsBytes encodes a program's uniforms padded to the full block.
func paramsBytes(p render.Program) []byte {
	u := p.Uniforms()
	if len(u) > render.MaxProgramUniforms {
		u = u[:render.MaxProgramUniforms]
	}
	out := render.AppendFloats(make([]byte, 0, paramsUniformSize), u)
	return append(out, make([]byte, paramsUniformSize-len(out))...)
}

// indexBytes encodes indices, padded to a four byte multiple.
func indexBytes(indices []uint16) []byte {
	out := make([]byte, 0, len(indices)*2+2)
	for _, i := range indices {
		out = append(out, byte(i), byte(i>>8))
	}
	if len(out)%4 != 0 {
		out = append(out, 0, 0)
	}
	return out
}

// triangleList returns the vertices and triangle-list indices of g. Strips
// are unrolled with alternating winding; culling is disabled so the order
// within each triangle does not matter.
func triangleList(g *render.Geometry, mode render.DrawMode) ([]float32, []uint16) {
	indices := g.Indices
	if len(indices) == 0 {
		n := g.VertexCount()
		indices = make([]uint16, n)
		for i := range indices {
			indices[i] = uint16(i) //nolint:gosec // G115: bounded by uint16 geometry
		}
	}
	if mode == render.DrawTriangles {
		return g.Positions, indices[:len(indices)/3*3]
	}
	var list []uint16
	for i := 2; i < len(indices); i++ {
		a, b, c := indices[i-2], indices[i-1], indices[i]
		if i%2 == 1 {
			a, b = b, a
		}
		list = append(list, a, b, c)
	}
	return g.Positions, list
}

// submit records one command buffer with record, submits it and waits for
// the GPU to finish.
func (d *Device) submit(label string, record func(encoder hal.CommandEncoder)) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	record(encoder)
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)
	return d.wait(cmdBuf)
}

func (d *Device) wait(cmdBuf hal.CommandBuffer) error {
	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	d.submits++
	fenceOK, err := d.device.Wait(fence, 1, waitTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// Snapshot reads tex back into a new image. A nil tex reads the screen.
func (d *Device) Snapshot(tex *render.Texture) (*image.RGBA, error) {
	if tex == nil {
		tex = d.screen
	}
	g, err := backingOf(tex)
	if err != nil {
		return nil, err
	}
	w, h := uint32(tex.PixelWidth()), uint32(tex.PixelHeight()) //nolint:gosec // G115: bounded by MaxTextureSize

	bytesPerRow := w * render.BytesPerPixel
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "filter_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	err = d.submit("filter_readback", func(encoder hal.CommandEncoder) {
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: g.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		encoder.CopyTextureToBuffer(g.tex, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
			TextureBase:  hal.ImageCopyTexture{Texture: g.tex, MipLevel: 0},
			Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		}})
		encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: g.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: readback %s: %w", tex, err)
	}

	readback := make([]byte, stagingSize)
	if err := d.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("wgpu: readback %s: %w", tex, err)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for row := 0; row < int(h); row++ {
		src := readback[row*int(alignedBytesPerRow):]
		copy(img.Pix[row*img.Stride:row*img.Stride+int(bytesPerRow)], src[:bytesPerRow])
	}
	return img, nil
}

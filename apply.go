package filterpipe

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// ApplyFilter draws f's program once, sampling input and writing output.
//
// The output is bound with its filter frame mapped onto the texture origin,
// except for the final pass of a scope, which restores the parent target's
// original binding. opts overrides f's RenderOptions when non-nil.
func (s *System) ApplyFilter(f Filter, input, output *render.Texture, clear bool, opts *RenderOptions) error {
	b := f.FilterBase()
	if b.Program == nil {
		return fmt.Errorf("%w: %s", ErrNoProgram, filterName(f))
	}

	scope := s.active
	ro := b.RenderOptions
	if opts != nil {
		ro = *opts
	}
	ro = s.ResolveRenderOptions(ro, scope)

	if scope != nil && scope.restoring && output == scope.restoreTarget {
		s.device.Bind(output, scope.snapshot.source, scope.snapshot.destination)
	} else {
		source := s.globals.OutputFrame
		if output != nil {
			source = output.FilterFrame
		}
		destination := geom.NewRect(0, 0, source.Width, source.Height)
		if ro.HasDestination {
			destination = ro.DestinationFrame
		}
		s.device.Bind(output, source, destination)
	}

	if clear {
		if ro.HasDestination {
			s.device.ClearRect(ro.DestinationFrame, render.Transparent)
		} else {
			s.device.Clear(render.Transparent)
		}
	}

	call := render.DrawCall{
		Program:   b.Program,
		Input:     input,
		Secondary: ro.Secondary,
		Globals:   &s.globals,
		Blend:     b.Blend,
		Mode:      render.DrawTriangleStrip,
	}
	switch {
	case ro.Geometry != nil:
		call.Geometry = ro.Geometry
		call.Mode = ro.DrawMode
	case b.Legacy && input != nil:
		// Legacy filters draw the input's whole frame.
		q := frameQuad(input.FilterFrame, s.globals.OutputFrame)
		call.Geometry = render.NewQuadTriangles(q[0], q[1], q[2], q[3])
		call.Mode = render.DrawTriangles
	}
	return s.device.Draw(&call)
}

// ResolveRenderOptions turns symbolic frames into geometry for the pass
// being recorded.
func (s *System) ResolveRenderOptions(opts RenderOptions, scope *Scope) RenderOptions {
	var frame geom.Rect
	switch opts.Frame {
	case FrameNakedTarget:
		if scope == nil {
			return opts
		}
		frame = scope.NakedTargetBounds().Fit(s.InputFrame())
	case FrameWholeInput:
		frame = s.InputFrame()
	case FrameRect:
		frame = opts.Rect
	default:
		return opts
	}
	opts.Geometry = s.ConvertFrameToGeometry(frame, s.OutputFrame())
	opts.DrawMode = render.DrawTriangleStrip
	return opts
}

// ConvertFrameToGeometry returns a strip quad covering frame, normalized to
// outputFrame. The geometry is shared; callers must not modify it.
func (s *System) ConvertFrameToGeometry(frame, outputFrame geom.Rect) *render.Geometry {
	key := geometryKey(frameQuad(frame, outputFrame))
	return s.geometries.GetOrCreate(key, func() *render.Geometry {
		return render.NewQuad(key[0], key[1], key[2], key[3])
	})
}

// frameQuad returns (u0, v0, u1, v1) of frame relative to outputFrame.
func frameQuad(frame, outputFrame geom.Rect) [4]float32 {
	return [4]float32{
		(frame.X - outputFrame.X) / outputFrame.Width,
		(frame.Y - outputFrame.Y) / outputFrame.Height,
		(frame.X - outputFrame.X + frame.Width) / outputFrame.Width,
		(frame.Y - outputFrame.Y + frame.Height) / outputFrame.Height,
	}
}

// ConvertFrameToClamp returns the half-texel-inset UV box of frame inside a
// texture of logical size dims whose origin holds outputFrame's origin.
func (s *System) ConvertFrameToClamp(frame, outputFrame geom.Rect, dims geom.Point) [4]float32 {
	return [4]float32{
		(math32.Floor(frame.X-outputFrame.X) + 0.5) / dims.X,
		(math32.Floor(frame.Y-outputFrame.Y) + 0.5) / dims.Y,
		(math32.Ceil(frame.Right()-outputFrame.X) - 0.5) / dims.X,
		(math32.Ceil(frame.Bottom()-outputFrame.Y) - 0.5) / dims.Y,
	}
}

// UpdateUniforms loads the frames of pass into the globals.
func (s *System) UpdateUniforms(pass Pass) {
	s.SetInputFrame(pass.InputFrame)
	s.SetOutputFrame(pass.OutputFrame)
}

// UpdateTextureUniforms loads the size of tex as the input size. Filters
// call it before sampling a texture whose size differs from the scope's.
func (s *System) UpdateTextureUniforms(tex *render.Texture) {
	g := &s.globals
	w, h := tex.Width(), tex.Height()
	g.InputSize = [4]float32{w, h, 1 / w, 1 / h}
	pw, ph := w*tex.Resolution(), h*tex.Resolution()
	g.InputPixel = [4]float32{pw, ph, 1 / pw, 1 / ph}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/parallel"
	"github.com/chewxy/math32"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// raster is one draw call prepared for shading.
type raster struct {
	call    *render.DrawCall
	dst     *image.RGBA
	binding render.Binding
	res     float32
	params  []float32
	mode    render.VertexMode

	// area is the bounding box of covered texels; mask marks which of them
	// the geometry covers, row by row.
	area image.Rectangle
	mask []bool

	input, secondary *sampler
	secondaryFrame   geom.Rect
	secondarySize    geom.Point
}

func (d *Device) newRaster(call *render.DrawCall, dst *image.RGBA) (*raster, error) {
	target := d.binding.Target
	r := &raster{
		call:    call,
		dst:     dst,
		binding: d.binding,
		res:     target.Resolution(),
		params:  call.Program.Uniforms(),
		mode:    render.VertexModeOf(call.Program),
	}

	in, err := sourceImage(call.Input, dst)
	if err != nil {
		return nil, err
	}
	r.input = newSampler(in, sampling(call.Input))
	r.secondary = r.input
	if call.Secondary != nil {
		sec, err := sourceImage(call.Secondary, dst)
		if err != nil {
			return nil, err
		}
		r.secondary = newSampler(sec, call.Secondary.Sampling)
		r.secondaryFrame = call.Secondary.FilterFrame
		r.secondarySize = call.Secondary.Dimensions()
	}

	verts := r.vertices(call.ResolvedGeometry())
	if len(verts) < 3 {
		return nil, nil
	}
	clip := clipRect(r.binding, r.res, dst)
	r.area = bounds(verts).Intersect(clip)
	if r.area.Empty() {
		return nil, nil
	}
	r.cover(verts, call.ResolvedGeometry().Indices, call.Mode)
	return r, nil
}

// sourceImage returns the pixels a draw reads from tex. Reading the target
// itself gets a copy so shading does not observe its own writes.
func sourceImage(tex *render.Texture, dst *image.RGBA) (*image.RGBA, error) {
	if tex == nil {
		return nil, nil
	}
	img := imageOf(tex)
	if img == nil {
		return nil, ErrNotAllocated
	}
	if img == dst {
		return clone.AsRGBA(img), nil
	}
	return img, nil
}

func sampling(tex *render.Texture) render.Sampling {
	if tex == nil {
		return render.SamplingLinear
	}
	return tex.Sampling
}

// vertices maps geometry positions, normalized to the output frame, onto
// target texels.
func (r *raster) vertices(g *render.Geometry) []geom.Point {
	out := r.call.Globals.OutputFrame
	verts := make([]geom.Point, 0, g.VertexCount())
	for i := 0; i+1 < len(g.Positions); i += 2 {
		world := geom.Pt(out.X+g.Positions[i]*out.Width, out.Y+g.Positions[i+1]*out.Height)
		verts = append(verts, worldToPixel(r.binding, r.res, world))
	}
	return verts
}

func bounds(verts []geom.Point) image.Rectangle {
	minX, minY := verts[0].X, verts[0].Y
	maxX, maxY := minX, minY
	for _, v := range verts[1:] {
		minX, maxX = math32.Min(minX, v.X), math32.Max(maxX, v.X)
		minY, maxY = math32.Min(minY, v.Y), math32.Max(maxY, v.Y)
	}
	return image.Rect(
		int(math32.Floor(minX)), int(math32.Floor(minY)),
		int(math32.Ceil(maxX)), int(math32.Ceil(maxY)),
	)
}

// cover marks texels whose centers lie inside any triangle.
func (r *raster) cover(verts []geom.Point, indices []uint16, mode render.DrawMode) {
	w, h := r.area.Dx(), r.area.Dy()
	r.mask = make([]bool, w*h)

	tri := func(a, b, c int) {
		if a >= len(verts) || b >= len(verts) || c >= len(verts) {
			return
		}
		r.triangle(verts[a], verts[b], verts[c])
	}
	switch mode {
	case render.DrawTriangles:
		for i := 0; i+2 < len(indices); i += 3 {
			tri(int(indices[i]), int(indices[i+1]), int(indices[i+2]))
		}
	default:
		for i := 0; i+2 < len(indices); i++ {
			tri(int(indices[i]), int(indices[i+1]), int(indices[i+2]))
		}
	}
}

func edge(a, b, p geom.Point) float32 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

func (r *raster) triangle(a, b, c geom.Point) {
	area := edge(a, b, c)
	if area == 0 {
		return
	}
	box := bounds([]geom.Point{a, b, c}).Intersect(r.area)
	w := r.area.Dx()
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			p := geom.Pt(float32(x)+0.5, float32(y)+0.5)
			e0, e1, e2 := edge(a, b, p), edge(b, c, p), edge(c, a, p)
			if area < 0 {
				e0, e1, e2 = -e0, -e1, -e2
			}
			if e0 >= 0 && e1 >= 0 && e2 >= 0 {
				r.mask[(y-r.area.Min.Y)*w+(x-r.area.Min.X)] = true
			}
		}
	}
}

func (r *raster) run(par bool) {
	rows := r.area.Dy()
	if par {
		parallel.Line(rows, r.shadeRows)
		return
	}
	r.shadeRows(0, rows)
}

func (r *raster) shadeRows(start, end int) {
	g := r.call.Globals
	frag := render.Fragment{
		Input:     r.input,
		Secondary: r.secondary,
		Globals:   g,
		Params:    r.params,
	}
	w := r.area.Dx()
	for row := start; row < end; row++ {
		y := r.area.Min.Y + row
		for col := 0; col < w; col++ {
			if !r.mask[row*w+col] {
				continue
			}
			x := r.area.Min.X + col
			p := pixelToWorld(r.binding, r.res, geom.Pt(float32(x)+0.5, float32(y)+0.5))
			frag.Position = p
			frag.UV = r.inputUV(p)
			frag.SecondaryUV = frag.UV
			if r.call.Secondary != nil {
				frag.SecondaryUV = geom.Pt(
					(p.X-r.secondaryFrame.X)/r.secondarySize.X,
					(p.Y-r.secondaryFrame.Y)/r.secondarySize.Y,
				)
			}
			src := clampPremultiplied(r.call.Program.Shade(&frag))
			i := r.dst.PixOffset(x, y)
			px := r.dst.Pix[i : i+4]
			store(px, blend(r.call.Blend, src, load(px)))
		}
	}
}

// inputUV returns the input texture coordinate for world position p.
func (r *raster) inputUV(p geom.Point) geom.Point {
	g := r.call.Globals
	in := g.InputFrame
	inv := geom.Pt(g.InputSize[2], g.InputSize[3])
	if r.mode == render.VertexRescale {
		out := g.OutputFrame
		u := (p.X - out.X) / out.Width * in.Width
		v := (p.Y - out.Y) / out.Height * in.Height
		return geom.Pt(u*inv.X, v*inv.Y)
	}
	return geom.Pt((p.X-in.X)*inv.X, (p.Y-in.Y)*inv.Y)
}

// blit copies texels with x/image/draw when an identity draw lines up
// exactly with the input texture. It reports whether it handled the call.
func (d *Device) blit(call *render.DrawCall, dst *image.RGBA) (bool, error) {
	if call.Program != render.IdentityProgram() || call.Geometry != nil || call.Secondary != nil || call.Input == nil {
		return false, nil
	}
	src := imageOf(call.Input)
	if src == nil {
		return false, ErrNotAllocated
	}
	b := d.binding
	res := b.Target.Resolution()
	g := call.Globals
	switch {
	case src == dst,
		call.Input.Resolution() != res,
		b.Source.Width != b.Destination.Width || b.Source.Height != b.Destination.Height,
		g.InputSize[0] != call.Input.Width() || g.InputSize[1] != call.Input.Height():
		return false, nil
	}

	out := g.OutputFrame
	lo := worldToPixel(b, res, out.Origin())
	hi := worldToPixel(b, res, geom.Pt(out.Right(), out.Bottom()))
	rect := image.Rect(
		int(math32.Ceil(lo.X-0.5)), int(math32.Ceil(lo.Y-0.5)),
		int(math32.Floor(hi.X-0.5))+1, int(math32.Floor(hi.Y-0.5))+1,
	).Intersect(clipRect(b, res, dst))
	if rect.Empty() {
		return true, nil
	}

	// Texel of the input sampled by the center of rect.Min.
	p := pixelToWorld(b, res, geom.Pt(float32(rect.Min.X)+0.5, float32(rect.Min.Y)+0.5))
	sx := (p.X-g.InputFrame.X)*res - 0.5
	sy := (p.Y-g.InputFrame.Y)*res - 0.5
	rx, ry := math32.Round(sx), math32.Round(sy)
	if math32.Abs(sx-rx) > 1e-3 || math32.Abs(sy-ry) > 1e-3 {
		return false, nil
	}
	sp := image.Pt(int(rx), int(ry))
	if !sp.In(src.Rect) || !rect.Sub(rect.Min).Add(sp).In(src.Rect) {
		return false, nil
	}

	op := xdraw.Over
	if call.Blend == render.BlendReplace {
		op = xdraw.Src
	}
	xdraw.Draw(dst, rect, src, sp, op)
	d.blits++
	return true, nil
}

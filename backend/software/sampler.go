// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/gogpu/filterpipe/geom"
	"github.com/gogpu/filterpipe/render"
)

// sampler reads an RGBA image the way a clamp-to-edge GPU sampler does.
type sampler struct {
	img     *image.RGBA
	w, h    int
	nearest bool
}

func newSampler(img *image.RGBA, sampling render.Sampling) *sampler {
	if img == nil {
		return &sampler{}
	}
	b := img.Rect
	return &sampler{img: img, w: b.Dx(), h: b.Dy(), nearest: sampling == render.SamplingNearest}
}

func (s *sampler) texel(x, y int) render.Color {
	x = min(max(x, 0), s.w-1)
	y = min(max(y, 0), s.h-1)
	i := s.img.PixOffset(s.img.Rect.Min.X+x, s.img.Rect.Min.Y+y)
	return load(s.img.Pix[i : i+4])
}

// Sample implements render.Sampler.
func (s *sampler) Sample(uv geom.Point) render.Color {
	if s.img == nil || s.w == 0 || s.h == 0 {
		return render.Transparent
	}
	x := uv.X*float32(s.w) - 0.5
	y := uv.Y*float32(s.h) - 0.5
	if s.nearest {
		return s.texel(int(math32.Round(x)), int(math32.Round(y)))
	}

	x0, y0 := math32.Floor(x), math32.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	c00 := s.texel(ix, iy)
	c10 := s.texel(ix+1, iy)
	c01 := s.texel(ix, iy+1)
	c11 := s.texel(ix+1, iy+1)
	return lerp(lerp(c00, c10, fx), lerp(c01, c11, fx), fy)
}

func lerp(a, b render.Color, t float32) render.Color {
	return render.Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}

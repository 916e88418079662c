// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package software

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/gogpu/filterpipe/render"
)

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

func fromByte(v uint8) float32 {
	return float32(v) / 255
}

// clampPremultiplied keeps color channels at or below alpha.
func clampPremultiplied(c render.Color) render.Color {
	c.A = math32.Min(math32.Max(c.A, 0), 1)
	c.R = math32.Min(math32.Max(c.R, 0), c.A)
	c.G = math32.Min(math32.Max(c.G, 0), c.A)
	c.B = math32.Min(math32.Max(c.B, 0), c.A)
	return c
}

func load(pix []uint8) render.Color {
	return render.Color{R: fromByte(pix[0]), G: fromByte(pix[1]), B: fromByte(pix[2]), A: fromByte(pix[3])}
}

func store(pix []uint8, c render.Color) {
	pix[0] = toByte(c.R)
	pix[1] = toByte(c.G)
	pix[2] = toByte(c.B)
	pix[3] = toByte(c.A)
}

func blend(mode render.BlendMode, src, dst render.Color) render.Color {
	if mode == render.BlendReplace {
		return src
	}
	k := 1 - src.A
	return render.Color{
		R: src.R + dst.R*k,
		G: src.G + dst.G*k,
		B: src.B + dst.B*k,
		A: src.A + dst.A*k,
	}
}

func fill(img *image.RGBA, r image.Rectangle, c render.Color) {
	c = clampPremultiplied(c)
	px := [4]uint8{toByte(c.R), toByte(c.G), toByte(c.B), toByte(c.A)}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := img.Pix[img.PixOffset(r.Min.X, y):img.PixOffset(r.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			copy(row[i:i+4], px[:])
		}
	}
}

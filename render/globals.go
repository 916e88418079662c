// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/filterpipe/geom"
)

// GlobalsSize is the std140 size of Globals in bytes (ten vec4s).
const GlobalsSize = 160

// Globals is the uniform block shared by every filter draw.
//
// The filter system owns exactly one Globals and overwrites it before each
// pass; it describes the draw currently being recorded and is never read
// after that draw.
type Globals struct {
	// InputSize is (width, height, 1/width, 1/height) of the input texture
	// in logical units.
	InputSize [4]float32

	// InputPixel is InputSize in physical texels.
	InputPixel [4]float32

	// InputClamp is the half-texel-inset UV box of the valid input region.
	InputClamp [4]float32

	// ObjectClamp is the half-texel-inset UV box of the unpadded object.
	ObjectClamp [4]float32

	// FilterArea is (texture width, texture height, output x, output y).
	FilterArea [4]float32

	// FilterClamp mirrors InputClamp for filters written against the older
	// uniform names.
	FilterClamp [4]float32

	// InputFrame is the world-space region held by the input texture.
	InputFrame geom.Rect

	// OutputFrame is the world-space region being written.
	OutputFrame geom.Rect

	// InputFrameInverse is (1/InputFrame.Width, 1/InputFrame.Height).
	InputFrameInverse [2]float32

	// OutputFrameInverse is (1/OutputFrame.Width, 1/OutputFrame.Height).
	OutputFrameInverse [2]float32

	// Resolution is the scope resolution.
	Resolution float32
}

// Bytes returns the std140 encoding of the block.
func (g *Globals) Bytes() []byte {
	return g.AppendBytes(make([]byte, 0, GlobalsSize))
}

// AppendBytes appends the std140 encoding of the block to b.
func (g *Globals) AppendBytes(b []byte) []byte {
	b = appendVec4(b, g.InputSize)
	b = appendVec4(b, g.InputPixel)
	b = appendVec4(b, g.InputClamp)
	b = appendVec4(b, g.ObjectClamp)
	b = appendVec4(b, g.FilterArea)
	b = appendVec4(b, g.FilterClamp)
	b = AppendRect(b, g.InputFrame)
	b = AppendRect(b, g.OutputFrame)
	b = appendVec4(b, [4]float32{
		g.InputFrameInverse[0], g.InputFrameInverse[1],
		g.OutputFrameInverse[0], g.OutputFrameInverse[1],
	})
	return appendVec4(b, [4]float32{g.Resolution, 0, 0, 0})
}

// AppendRect appends r as a vec4 (x, y, width, height).
func AppendRect(b []byte, r geom.Rect) []byte {
	return appendVec4(b, [4]float32{r.X, r.Y, r.Width, r.Height})
}

// AppendFloats appends v padded with zeros to a multiple of four values.
func AppendFloats(b []byte, v []float32) []byte {
	for _, f := range v {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	for i := len(v); i%4 != 0; i++ {
		b = binary.LittleEndian.AppendUint32(b, 0)
	}
	return b
}

func appendVec4(b []byte, v [4]float32) []byte {
	return AppendFloats(b, v[:])
}

package filterpipe

import "github.com/gogpu/filterpipe/geom"

// Pass records the frames of one filter pass.
//
// TargetInFrame lies within InputFrame and TargetOutFrame lies within
// OutputFrame.
type Pass struct {
	// InputFrame is the region held by the pass input texture.
	InputFrame geom.Rect
	// TargetInFrame is the part of InputFrame the filter reads.
	TargetInFrame geom.Rect
	// OutputFrame is the region held by the pass output texture.
	OutputFrame geom.Rect
	// TargetOutFrame is the part of OutputFrame the filter writes; the rest
	// is copied from the input.
	TargetOutFrame geom.Rect
	// DestinationFrame is an optional sub-rectangle of the output texture.
	DestinationFrame geom.Rect
	HasDestination   bool
}

// NewPass returns a pass reading all of in and writing all of out.
func NewPass(in, out geom.Rect) Pass {
	return Pass{InputFrame: in, TargetInFrame: in, OutputFrame: out, TargetOutFrame: out}
}

// Reset zeroes every frame.
func (p *Pass) Reset() { *p = Pass{} }

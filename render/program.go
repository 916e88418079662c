// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import "github.com/gogpu/filterpipe/geom"

// MaxProgramUniforms is the number of float32 slots a program may use for
// its own uniforms (sixteen vec4s on the GPU).
const MaxProgramUniforms = 64

// Program is a filter shader.
//
// A program is evaluated by whichever device runs it: backend/wgpu compiles
// Source, backend/software calls Shade once per covered texel. Both must
// compute the same result.
type Program interface {
	// Label identifies the program in logs and pipeline caches.
	Label() string

	// Source returns the WGSL body of the fragment stage. It must define
	// `fn shade(in: VertexOutput) -> vec4<f32>` and may read `globals`,
	// `params.data`, `input_texture`, `secondary_texture` and
	// `input_sampler`.
	Source() string

	// Uniforms returns up to MaxProgramUniforms values exposed to the shader
	// as params.data (vec4-packed).
	Uniforms() []float32

	// Shade computes one premultiplied output fragment on the CPU.
	Shade(f *Fragment) Color
}

// VertexMode selects how output positions map to input texture coordinates.
type VertexMode uint8

const (
	// VertexShift samples the input at the same world position that is being
	// written. This is the default.
	VertexShift VertexMode = iota

	// VertexRescale stretches the whole input frame over the output frame.
	VertexRescale
)

// VertexModer is implemented by programs that need a vertex mode other than
// VertexShift.
type VertexModer interface {
	VertexMode() VertexMode
}

// VertexModeOf returns the vertex mode a program requests.
func VertexModeOf(p Program) VertexMode {
	if vm, ok := p.(VertexModer); ok {
		return vm.VertexMode()
	}
	return VertexShift
}

// Sampler reads a texture at normalized coordinates. Coordinates outside
// [0, 1] are clamped to the edge, matching the GPU sampler.
type Sampler interface {
	Sample(uv geom.Point) Color
}

// Fragment is the input to Program.Shade.
type Fragment struct {
	// Position is the world-space position being shaded.
	Position geom.Point

	// UV is the normalized coordinate into Input.
	UV geom.Point

	// SecondaryUV is the normalized coordinate into Secondary for the same
	// world position.
	SecondaryUV geom.Point

	// Input samples the pass input.
	Input Sampler

	// Secondary samples DrawCall.Secondary, or Input when none was given.
	Secondary Sampler

	// Globals is the per-pass uniform block.
	Globals *Globals

	// Params is Program.Uniforms for the current draw.
	Params []float32
}

// ClampUV limits uv to the half-texel-inset box in clamp (minU, minV, maxU, maxV),
// as produced by the inputClamp and objectClamp uniforms.
func ClampUV(uv geom.Point, clamp [4]float32) geom.Point {
	return geom.Pt(clampf(uv.X, clamp[0], clamp[2]), clampf(uv.Y, clamp[1], clamp[3]))
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// passthrough copies its input.
type passthrough struct {
	label string
	mode  VertexMode
}

const passthroughSource = `
fn shade(in: VertexOutput) -> vec4<f32> {
    return textureSample(input_texture, input_sampler, in.uv);
}
`

func (p *passthrough) Label() string          { return p.label }
func (p *passthrough) Source() string         { return passthroughSource }
func (p *passthrough) Uniforms() []float32    { return nil }
func (p *passthrough) VertexMode() VertexMode { return p.mode }

func (p *passthrough) Shade(f *Fragment) Color {
	return f.Input.Sample(f.UV)
}

var (
	identityProgram Program = &passthrough{label: "identity", mode: VertexShift}
	rescaleProgram  Program = &passthrough{label: "rescale", mode: VertexRescale}
)

// IdentityProgram returns the program that copies the input unchanged.
func IdentityProgram() Program { return identityProgram }

// RescaleProgram returns the program that maps the entire input frame onto
// the output frame.
func RescaleProgram() Program { return rescaleProgram }

// solid fills with a constant color.
type solid struct {
	color Color
}

const solidSource = `
fn shade(in: VertexOutput) -> vec4<f32> {
    return params.data[0];
}
`

// SolidProgram returns a program that writes c everywhere it draws.
func SolidProgram(c Color) Program { return &solid{color: c} }

func (p *solid) Label() string          { return "solid" }
func (p *solid) Source() string         { return solidSource }
func (p *solid) Uniforms() []float32    { return []float32{p.color.R, p.color.G, p.color.B, p.color.A} }
func (p *solid) Shade(*Fragment) Color  { return p.color }
func (p *solid) VertexMode() VertexMode { return VertexShift }

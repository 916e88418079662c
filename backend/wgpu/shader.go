package wgpu

import (
	"fmt"

	"github.com/gogpu/naga"

	"github.com/gogpu/filterpipe/render"
)

// drawUniformSize is the byte size of the draw uniform block: the filter
// Globals followed by six vec4s of draw state.
const drawUniformSize = render.GlobalsSize + 6*16

// paramsUniformSize is the byte size of the program parameter block.
const paramsUniformSize = render.MaxProgramUniforms * 4

// prelude is prepended to every program's shade function.
const prelude = `
struct Globals {
    input_size: vec4<f32>,
    input_pixel: vec4<f32>,
    input_clamp: vec4<f32>,
    object_clamp: vec4<f32>,
    filter_area: vec4<f32>,
    filter_clamp: vec4<f32>,
    input_frame: vec4<f32>,
    output_frame: vec4<f32>,
    frame_inverse: vec4<f32>,
    resolution: vec4<f32>,
    source: vec4<f32>,
    destination: vec4<f32>,
    target_size: vec4<f32>,
    secondary_frame: vec4<f32>,
    secondary_size: vec4<f32>,
    mode: vec4<f32>,
}

struct Params {
    data: array<vec4<f32>, 16>,
}

@group(0) @binding(0) var<uniform> globals: Globals;
@group(0) @binding(1) var<uniform> params: Params;
@group(0) @binding(2) var input_texture: texture_2d<f32>;
@group(0) @binding(3) var secondary_texture: texture_2d<f32>;
@group(0) @binding(4) var input_sampler: sampler;

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
    @location(1) world: vec2<f32>,
    @location(2) secondary_uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    let frame = globals.output_frame;
    let world = frame.xy + pos * frame.zw;
    let logical = globals.destination.xy + (world - globals.source.xy) * globals.destination.zw / globals.source.zw;
    let ndc = logical / globals.target_size.xy * 2.0 - vec2<f32>(1.0, 1.0);
    out.clip = vec4<f32>(ndc.x, -ndc.y, 0.0, 1.0);
    let inf = globals.input_frame;
    if (globals.mode.x > 0.5) {
        out.uv = pos * inf.zw * globals.input_size.zw;
    } else {
        out.uv = (world - inf.xy) * globals.input_size.zw;
    }
    out.world = world;
    out.secondary_uv = (world - globals.secondary_frame.xy) * globals.secondary_size.zw;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return shade(in);
}
`

// ShaderSource returns the complete WGSL module for a program.
func ShaderSource(p render.Program) string {
	return prelude + p.Source()
}

// CompileProgram compiles the complete module for p to SPIR-V words.
func CompileProgram(p render.Program) ([]uint32, error) {
	spirvBytes, err := naga.Compile(ShaderSource(p))
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile %q: %w", p.Label(), err)
	}

	// Convert bytes to uint32 slice for SPIR-V
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/filterpipe/render"
)

// vertexStride is the byte stride per vertex: 2 x float32 (x, y) = 8 bytes.
const vertexStride = 8

type pipelineKey struct {
	program string
	blend   render.BlendMode
}

// pipelineCache compiles each program once and keeps one render pipeline
// per program and blend mode.
type pipelineCache struct {
	d         *Device
	modules   map[string]hal.ShaderModule
	pipelines map[pipelineKey]hal.RenderPipeline
	failed    map[string]error
}

func newPipelineCache(d *Device) *pipelineCache {
	return &pipelineCache{
		d:         d,
		modules:   make(map[string]hal.ShaderModule),
		pipelines: make(map[pipelineKey]hal.RenderPipeline),
		failed:    make(map[string]error),
	}
}

func programKey(p render.Program) string {
	return p.Label() + "\x00" + p.Source()
}

func (c *pipelineCache) module(p render.Program) (hal.ShaderModule, error) {
	key := programKey(p)
	if m, ok := c.modules[key]; ok {
		return m, nil
	}
	if err, ok := c.failed[key]; ok {
		return nil, err
	}

	words, err := CompileProgram(p)
	if err != nil {
		c.failed[key] = err
		return nil, err
	}
	m, err := c.d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "filter_" + p.Label(),
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		err = fmt.Errorf("wgpu: create shader module %q: %w", p.Label(), err)
		c.failed[key] = err
		return nil, err
	}
	c.modules[key] = m
	render.Logger().Debug("wgpu: compiled program", "program", p.Label(), "words", len(words))
	return m, nil
}

func (c *pipelineCache) get(p render.Program, blend render.BlendMode) (hal.RenderPipeline, error) {
	key := pipelineKey{program: programKey(p), blend: blend}
	if rp, ok := c.pipelines[key]; ok {
		return rp, nil
	}
	module, err := c.module(p)
	if err != nil {
		return nil, err
	}

	target := gputypes.ColorTargetState{
		Format:    render.DefaultFormat,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if blend == render.BlendNormal {
		premulBlend := gputypes.BlendStatePremultiplied()
		target.Blend = &premulBlend
	}

	rp, err := c.d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "filter_" + p.Label(),
		Layout: c.d.pipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{
				{
					ArrayStride: vertexStride,
					StepMode:    gputypes.VertexStepModeVertex,
					Attributes: []gputypes.VertexAttribute{
						{
							Format:         gputypes.VertexFormatFloat32x2,
							Offset:         0,
							ShaderLocation: 0,
						},
					},
				},
			},
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets:    []gputypes.ColorTargetState{target},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline %q: %w", p.Label(), err)
	}
	c.pipelines[key] = rp
	return rp, nil
}

// destroy releases pipelines, then shader modules.
func (c *pipelineCache) destroy() {
	if c == nil {
		return
	}
	for key, rp := range c.pipelines {
		c.d.device.DestroyRenderPipeline(rp)
		delete(c.pipelines, key)
	}
	for key, m := range c.modules {
		c.d.device.DestroyShaderModule(m)
		delete(c.modules, key)
	}
}

// Len returns the number of cached pipelines.
func (c *pipelineCache) Len() int { return len(c.pipelines) }

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// TargetFormat is the default color attachment format of the host pass.
const TargetFormat = gputypes.TextureFormatBGRA8Unorm

// Target describes the color attachment the host records into.
type Target struct {
	Format      gputypes.TextureFormat
	SampleCount uint32
}

func (t Target) withDefaults() Target {
	if t.Format == gputypes.TextureFormatUndefined {
		t.Format = TargetFormat
	}
	if t.SampleCount == 0 {
		t.SampleCount = 1
	}
	return t
}

// pipelineDesc is what differs between the renderers' pipelines.
type pipelineDesc struct {
	label   string
	layout  hal.PipelineLayout
	shader  hal.ShaderModule
	buffers []gputypes.VertexBufferLayout
	target  Target
}

// createPipeline builds a premultiplied-alpha triangle-list pipeline with
// entry points vs_main and fs_main.
func createPipeline(device hal.Device, d pipelineDesc) (hal.RenderPipeline, error) {
	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  d.label,
		Layout: d.layout,
		Vertex: hal.VertexState{
			Module:     d.shader,
			EntryPoint: "vs_main",
			Buffers:    d.buffers,
		},
		Fragment: &hal.FragmentState{
			Module:     d.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    d.target.Format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: d.target.SampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", d.label, err)
	}
	return pipeline, nil
}

package gpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// pushConstantSetter is implemented by encoders of backends that expose
// push constants.
type pushConstantSetter interface {
	SetPushConstants(stages gputypes.ShaderStages, offset uint32, data []byte)
}

// WrapPass adapts a hal render pass encoder to RenderPass. The result
// implements RegionPass, and PushConstantPass when the encoder can set push
// constants.
func WrapPass(enc hal.RenderPassEncoder) RenderPass {
	if pc, ok := enc.(pushConstantSetter); ok {
		return halPushPass{halPass{enc}, pc}
	}
	return halPass{enc}
}

type halPass struct {
	enc hal.RenderPassEncoder
}

func (p halPass) SetPipeline(pipeline hal.RenderPipeline) {
	p.enc.SetPipeline(pipeline)
}

func (p halPass) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	p.enc.SetBindGroup(index, group, offsets)
}

func (p halPass) SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64) {
	p.enc.SetVertexBuffer(slot, buffer, offset)
}

func (p halPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.enc.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p halPass) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	p.enc.SetViewport(x, y, width, height, minDepth, maxDepth)
}

func (p halPass) SetScissorRect(x, y, width, height uint32) {
	p.enc.SetScissorRect(x, y, width, height)
}

type halPushPass struct {
	halPass
	pc pushConstantSetter
}

func (p halPushPass) SetPushConstants(stages gputypes.ShaderStages, offset uint32, data []byte) {
	p.pc.SetPushConstants(stages, offset, data)
}

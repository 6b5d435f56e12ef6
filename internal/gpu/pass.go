package gpu

import (
	"errors"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Sentinel errors for renderer construction and use.
var (
	// ErrNilDevice is returned when a renderer is created without a device
	// or queue.
	ErrNilDevice = errors.New("tilemap/gpu: nil device or queue")

	// ErrOutOfBounds is returned when a cell edit lies outside the grid.
	// Edits are never clamped.
	ErrOutOfBounds = errors.New("tilemap/gpu: cell out of bounds")

	// ErrLayerMismatch is returned when draw parameters do not match the
	// layer count of the grid.
	ErrLayerMismatch = errors.New("tilemap/gpu: layer count mismatch")

	// ErrPushConstantsUnsupported is returned when a push-constant renderer
	// is asked to record into a pass that cannot set push constants.
	ErrPushConstantsUnsupported = errors.New("tilemap/gpu: render pass does not support push constants")

	// ErrShaderCompile is returned when a WGSL variant fails to compile.
	ErrShaderCompile = errors.New("tilemap/gpu: shader compilation failed")

	// ErrDestroyed is returned when a destroyed renderer is used.
	ErrDestroyed = errors.New("tilemap/gpu: renderer destroyed")
)

// RenderPass is the subset of hal.RenderPassEncoder the renderers record
// into. The host owns the pass; renderers only add draws to it.
type RenderPass interface {
	SetPipeline(pipeline hal.RenderPipeline)
	SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32)
	SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
}

// PushConstantPass is a RenderPass on a backend with push constants.
type PushConstantPass interface {
	RenderPass
	SetPushConstants(stages gputypes.ShaderStages, offset uint32, data []byte)
}

// RegionPass is a RenderPass that can confine drawing to a rectangle of
// the attachment.
type RegionPass interface {
	RenderPass
	SetViewport(x, y, width, height, minDepth, maxDepth float32)
	SetScissorRect(x, y, width, height uint32)
}

// quadVertices is the vertex count of one instanced cell quad.
const quadVertices = 6

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// overlay is the pipeline shared by the grid, collision and cell
// renderers: group 0 is the viewport, group 1 the overlay's own uniform
// block and, when a texture is given, group 2 its texture and sampler.
// Overlays always bind uniform buffers, whatever the tile renderer uses.
type overlay struct {
	device hal.Device
	up     *uploader
	label  string

	uniform     hal.Buffer
	uniformSize uint64
	layouts     []hal.BindGroupLayout
	groups      []hal.BindGroup
	pipeLayout  hal.PipelineLayout
	shader      hal.ShaderModule
	pipeline    hal.RenderPipeline
}

type overlayDesc struct {
	label       string
	source      string
	uniformSize uint64
	buffers     []gputypes.VertexBufferLayout
	texture     *AtlasTexture
	target      Target
	spirv       bool
}

func newOverlay(device hal.Device, up *uploader, viewport *Viewport, d overlayDesc) (*overlay, error) {
	o := &overlay{device: device, up: up, label: d.label}
	if err := o.create(viewport, d); err != nil {
		o.destroy()
		return nil, err
	}
	return o, nil
}

func (o *overlay) create(viewport *Viewport, d overlayDesc) error {
	var err error
	o.uniform, err = o.device.CreateBuffer(&hal.BufferDescriptor{
		Label: d.label + "_uniform",
		Size:  d.uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create %s uniform: %w", d.label, err)
	}
	o.uniformSize = d.uniformSize
	o.up.allocated(d.uniformSize)

	stages := [2]gputypes.ShaderStages{
		gputypes.ShaderStageVertex,
		gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
	}
	sizes := [2]uint64{viewportSize, d.uniformSize}
	buffers := [2]hal.Buffer{viewport.Buffer(), o.uniform}
	for i := range buffers {
		err = o.addGroup(d.label, uniformLayoutEntry(stages[i], false, sizes[i]), []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buffers[i].NativeHandle(), Offset: 0, Size: sizes[i]}},
		})
		if err != nil {
			return err
		}
	}
	if d.texture != nil {
		if err := o.addGroup(d.label, atlasLayoutEntries(), d.texture.bindGroupEntries()); err != nil {
			return err
		}
	}

	o.pipeLayout, err = o.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            d.label + "_pipe_layout",
		BindGroupLayouts: o.layouts,
	})
	if err != nil {
		return fmt.Errorf("create %s pipeline layout: %w", d.label, err)
	}
	o.shader, err = createShaderModule(o.device, d.label+"_shader", d.source, d.spirv)
	if err != nil {
		return err
	}
	o.pipeline, err = createPipeline(o.device, pipelineDesc{
		label:   d.label + "_pipeline",
		layout:  o.pipeLayout,
		shader:  o.shader,
		buffers: d.buffers,
		target:  d.target.withDefaults(),
	})
	return err
}

// addGroup creates the next bind group and its layout.
func (o *overlay) addGroup(label string, layout []gputypes.BindGroupLayoutEntry, entries []gputypes.BindGroupEntry) error {
	i := len(o.groups)
	bgl, err := o.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   fmt.Sprintf("%s_layout_%d", label, i),
		Entries: layout,
	})
	if err != nil {
		return fmt.Errorf("create %s bind group layout %d: %w", label, i, err)
	}
	o.layouts = append(o.layouts, bgl)
	group, err := o.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   fmt.Sprintf("%s_bind_group_%d", label, i),
		Layout:  bgl,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create %s bind group %d: %w", label, i, err)
	}
	o.groups = append(o.groups, group)
	return nil
}

// bind sets the pipeline and every bind group.
func (o *overlay) bind(pass RenderPass) {
	pass.SetPipeline(o.pipeline)
	for i, g := range o.groups {
		pass.SetBindGroup(uint32(i), g, nil) //nolint:gosec // at most three groups
	}
}

func (o *overlay) writeUniform(data []byte) {
	o.up.write(o.uniform, 0, data)
}

func (o *overlay) destroyed() bool { return o.pipeline == nil }

// destroy releases GPU objects in reverse creation order.
func (o *overlay) destroy() {
	d := o.device
	if o.pipeline != nil {
		d.DestroyRenderPipeline(o.pipeline)
		o.pipeline = nil
	}
	if o.shader != nil {
		d.DestroyShaderModule(o.shader)
		o.shader = nil
	}
	if o.pipeLayout != nil {
		d.DestroyPipelineLayout(o.pipeLayout)
		o.pipeLayout = nil
	}
	for _, g := range o.groups {
		d.DestroyBindGroup(g)
	}
	o.groups = nil
	for _, l := range o.layouts {
		d.DestroyBindGroupLayout(l)
	}
	o.layouts = nil
	if o.uniform != nil {
		d.DestroyBuffer(o.uniform)
		o.up.released(o.uniformSize)
		o.uniform = nil
	}
}

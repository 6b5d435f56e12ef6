package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Push-constant ranges of the tile shader. The fragment range covers the
// opacity and the padding that rounds the block up to 16 bytes.
const (
	pushVertexSize = viewportSize + autotilesSize // 112
	pushBlockSize  = 128
)

// PushConstantSize is the push-constant block the tile shader declares. A
// backend whose MaxPushConstantSize is smaller needs the uniform path.
const PushConstantSize = pushBlockSize

// binder moves the viewport, animation state and per-layer opacity to the
// tile shader. A renderer picks one implementation at construction and
// keeps it; the per-layer draw loop never branches on capability.
type binder interface {
	pipelineLayout() hal.PipelineLayout

	// bindFrame binds what is shared by every layer of a frame.
	bindFrame(pass RenderPass) error

	// bindLayer supplies the opacity of one layer draw.
	bindLayer(pass RenderPass, layer int, opacity float32)

	// autotilesChanged is called after the animation state changed.
	autotilesChanged()

	// resizeLayers adapts per-layer storage to a new layer count.
	resizeLayers(layers int) error

	destroy()
}

// bindingResources are the inputs every binder works from.
type bindingResources struct {
	device    hal.Device
	up        *uploader
	texture   *AtlasTexture
	viewport  *Viewport
	autotiles *autotileState
	layers    int
}

// newBinder returns the binder for the chosen path.
func newBinder(res bindingResources, pushConstants bool) (binder, error) {
	if pushConstants {
		return newPushBinder(res)
	}
	return newUniformBinder(res)
}

// createAtlasGroup creates bind group layout and group 0: atlas texture
// and sampler.
func createAtlasGroup(device hal.Device, tex *AtlasTexture) (hal.BindGroupLayout, hal.BindGroup, error) {
	layout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "tilemap_atlas_layout",
		Entries: atlasLayoutEntries(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create atlas bind group layout: %w", err)
	}
	group, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "tilemap_atlas_bind_group",
		Layout:  layout,
		Entries: tex.bindGroupEntries(),
	})
	if err != nil {
		device.DestroyBindGroupLayout(layout)
		return nil, nil, fmt.Errorf("create atlas bind group: %w", err)
	}
	return layout, group, nil
}

// pushBinder sends the viewport and animation block as vertex push
// constants and the opacity as a fragment push constant.
type pushBinder struct {
	res        bindingResources
	atlasBGL   hal.BindGroupLayout
	atlasGroup hal.BindGroup
	layout     hal.PipelineLayout
	frame      [pushVertexSize]byte
}

func newPushBinder(res bindingResources) (*pushBinder, error) {
	b := &pushBinder{res: res}
	var err error
	b.atlasBGL, b.atlasGroup, err = createAtlasGroup(res.device, res.texture)
	if err != nil {
		return nil, err
	}
	b.layout, err = res.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "tilemap_push_layout",
		BindGroupLayouts: []hal.BindGroupLayout{b.atlasBGL},
		PushConstantRanges: []hal.PushConstantRange{
			{Stages: gputypes.ShaderStageVertex, Range: hal.Range{Start: 0, End: pushVertexSize}},
			{Stages: gputypes.ShaderStageFragment, Range: hal.Range{Start: pushVertexSize, End: pushBlockSize}},
		},
	})
	if err != nil {
		b.destroy()
		return nil, fmt.Errorf("create push constant pipeline layout: %w", err)
	}
	return b, nil
}

func (b *pushBinder) pipelineLayout() hal.PipelineLayout { return b.layout }
func (b *pushBinder) autotilesChanged() {}
func (b *pushBinder) resizeLayers(int) error { return nil }

func (b *pushBinder) bindFrame(pass RenderPass) error {
	pc, ok := pass.(PushConstantPass)
	if !ok {
		return ErrPushConstantsUnsupported
	}
	pass.SetBindGroup(0, b.atlasGroup, nil)
	copy(b.frame[:viewportSize], b.res.viewport.Bytes())
	copy(b.frame[viewportSize:], b.res.autotiles.bytes[:])
	pc.SetPushConstants(gputypes.ShaderStageVertex, 0, b.frame[:])
	return nil
}

func (b *pushBinder) bindLayer(pass RenderPass, _ int, opacity float32) {
	var data [4]byte
	binary.LittleEndian.PutUint32(data[:], math.Float32bits(opacity))
	// bindFrame already checked the pass type.
	pass.(PushConstantPass).SetPushConstants(gputypes.ShaderStageFragment, pushVertexSize, data[:])
}

func (b *pushBinder) destroy() {
	d := b.res.device
	if b.layout != nil {
		d.DestroyPipelineLayout(b.layout)
		b.layout = nil
	}
	if b.atlasGroup != nil {
		d.DestroyBindGroup(b.atlasGroup)
		b.atlasGroup = nil
	}
	if b.atlasBGL != nil {
		d.DestroyBindGroupLayout(b.atlasBGL)
		b.atlasBGL = nil
	}
}

// uniformBinder keeps every input in a uniform buffer with a persistent
// bind group: 0 atlas, 1 viewport, 2 autotiles, 3 opacity. Opacity uses a
// dynamic offset per layer so one bind group serves all layers.
type uniformBinder struct {
	res bindingResources

	autotileBuf hal.Buffer
	opacity     *layerOpacity

	layouts [4]hal.BindGroupLayout
	groups  [4]hal.BindGroup
	layout  hal.PipelineLayout
}

func newUniformBinder(res bindingResources) (*uniformBinder, error) {
	b := &uniformBinder{res: res}
	if err := b.create(); err != nil {
		b.destroy()
		return nil, err
	}
	return b, nil
}

func uniformLayoutEntry(stages gputypes.ShaderStages, dynamic bool, size uint64) []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: stages,
		Buffer: &gputypes.BufferBindingLayout{
			Type:             gputypes.BufferBindingTypeUniform,
			HasDynamicOffset: dynamic,
			MinBindingSize:   size,
		},
	}}
}

func (b *uniformBinder) create() error {
	d := b.res.device
	var err error
	b.layouts[0], b.groups[0], err = createAtlasGroup(d, b.res.texture)
	if err != nil {
		return err
	}

	b.autotileBuf, err = d.CreateBuffer(&hal.BufferDescriptor{
		Label: "tilemap_autotiles",
		Size:  autotilesSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create autotile buffer: %w", err)
	}
	b.res.up.allocated(autotilesSize)
	b.res.up.write(b.autotileBuf, 0, b.res.autotiles.bytes[:])

	b.opacity, err = newLayerOpacity(d, b.res.up, b.res.layers)
	if err != nil {
		return err
	}

	entries := [4][]gputypes.BindGroupLayoutEntry{
		1: uniformLayoutEntry(gputypes.ShaderStageVertex, false, viewportSize),
		2: uniformLayoutEntry(gputypes.ShaderStageVertex, false, autotilesSize),
		3: uniformLayoutEntry(gputypes.ShaderStageFragment, true, opacitySize),
	}
	for i := 1; i < 4; i++ {
		b.layouts[i], err = d.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("tilemap_uniform_layout_%d", i),
			Entries: entries[i],
		})
		if err != nil {
			return fmt.Errorf("create bind group layout %d: %w", i, err)
		}
	}

	buffers := [4]struct {
		buf  hal.Buffer
		size uint64
	}{
		1: {b.res.viewport.Buffer(), viewportSize},
		2: {b.autotileBuf, autotilesSize},
		3: {b.opacity.buf, opacitySize},
	}
	for i := 1; i < 4; i++ {
		if err := b.createGroup(i, buffers[i].buf, buffers[i].size); err != nil {
			return err
		}
	}

	b.layout, err = d.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "tilemap_uniform_layout",
		BindGroupLayouts: b.layouts[:],
	})
	if err != nil {
		return fmt.Errorf("create uniform pipeline layout: %w", err)
	}
	return nil
}

func (b *uniformBinder) createGroup(i int, buf hal.Buffer, size uint64) error {
	group, err := b.res.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  fmt.Sprintf("tilemap_uniform_bind_group_%d", i),
		Layout: b.layouts[i],
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: size}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group %d: %w", i, err)
	}
	b.groups[i] = group
	return nil
}

func (b *uniformBinder) pipelineLayout() hal.PipelineLayout { return b.layout }

func (b *uniformBinder) bindFrame(pass RenderPass) error {
	for i := uint32(0); i < 3; i++ {
		pass.SetBindGroup(i, b.groups[i], nil)
	}
	return nil
}

func (b *uniformBinder) bindLayer(pass RenderPass, layer int, opacity float32) {
	b.opacity.set(layer, opacity)
	pass.SetBindGroup(3, b.groups[3], []uint32{uint32(b.opacity.offset(layer))}) //nolint:gosec // small offsets
}

func (b *uniformBinder) autotilesChanged() {
	b.res.up.write(b.autotileBuf, 0, b.res.autotiles.bytes[:])
}

// resizeLayers replaces the opacity buffer and its bind group. The other
// groups are unaffected.
func (b *uniformBinder) resizeLayers(layers int) error {
	if layers <= len(b.opacity.values) {
		return nil
	}
	opacity, err := newLayerOpacity(b.res.device, b.res.up, layers)
	if err != nil {
		return err
	}
	b.res.device.DestroyBindGroup(b.groups[3])
	b.groups[3] = nil
	b.opacity.destroy()
	b.opacity = opacity
	return b.createGroup(3, opacity.buf, opacitySize)
}

func (b *uniformBinder) destroy() {
	d := b.res.device
	if b.layout != nil {
		d.DestroyPipelineLayout(b.layout)
		b.layout = nil
	}
	for i := range b.groups {
		if b.groups[i] != nil {
			d.DestroyBindGroup(b.groups[i])
			b.groups[i] = nil
		}
	}
	for i := range b.layouts {
		if b.layouts[i] != nil {
			d.DestroyBindGroupLayout(b.layouts[i])
			b.layouts[i] = nil
		}
	}
	if b.opacity != nil {
		b.opacity.destroy()
		b.opacity = nil
	}
	if b.autotileBuf != nil {
		d.DestroyBuffer(b.autotileBuf)
		b.res.up.released(autotilesSize)
		b.autotileBuf = nil
	}
}

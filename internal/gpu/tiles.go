package gpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilemap/atlas"
	"github.com/gogpu/tilemap/autotile"
	"github.com/gogpu/tilemap/grid"
)

// DefaultDimOpacity is the opacity of layers other than the selected one.
const DefaultDimOpacity = 0.5

// TileConfig configures a TileRenderer.
type TileConfig struct {
	// Atlas is retained by the renderer until Destroy.
	Atlas *atlas.Atlas

	// Table is uploaded once at construction.
	Table *grid.Table3

	// Viewport is shared with overlays and not owned by the renderer.
	Viewport *Viewport

	// PushConstants selects the push-constant binding path. It is fixed
	// for the renderer's lifetime.
	PushConstants bool

	// SPIRV compiles the shader with naga instead of handing WGSL to the
	// backend.
	SPIRV bool

	Target Target
	Label  string
}

// DrawParams is the per-frame input of TileRenderer.Draw.
type DrawParams struct {
	// Visible has one entry per layer. Hidden layers issue no draw.
	Visible []bool

	// Selected is the focused layer, or a negative value for none.
	Selected int

	// DimOpacity applies to unselected layers while a layer is selected.
	// Zero means DefaultDimOpacity.
	DimOpacity float32
}

// layerOpacity returns the opacity of layer under p.
func (p DrawParams) layerOpacity(layer int) float32 {
	if p.Selected < 0 || p.Selected == layer {
		return 1
	}
	if p.DimOpacity == 0 {
		return DefaultDimOpacity
	}
	return p.DimOpacity
}

// DrawStats summarises one Draw call.
type DrawStats struct {
	Draws     int
	Instances int
}

// TileRenderer draws a layered tile grid with one instanced draw per
// visible layer, bottom to top.
//
// The binding path is chosen at construction: push constants when the
// backend has them, uniform buffers otherwise. Each path owns its shader
// variant and pipeline layout.
type TileRenderer struct {
	device hal.Device
	up     *uploader
	label  string
	target Target
	push   bool

	atlas     *atlas.Atlas
	texture   *AtlasTexture
	viewport  *Viewport
	instances *Instances
	autotiles *autotileState
	binder    binder

	shader   hal.ShaderModule
	pipeline hal.RenderPipeline
}

// NewTileRenderer uploads the atlas and grid and builds the pipeline of
// the selected binding path.
func NewTileRenderer(device hal.Device, queue hal.Queue, cfg TileConfig) (*TileRenderer, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if cfg.Atlas == nil || cfg.Table == nil || cfg.Viewport == nil {
		return nil, fmt.Errorf("tilemap/gpu: tile renderer needs an atlas, a table and a viewport")
	}
	label := cfg.Label
	if label == "" {
		label = "tilemap_tiles"
	}
	r := &TileRenderer{
		device:   device,
		up:       &uploader{queue: queue},
		label:    label,
		target:   cfg.Target.withDefaults(),
		atlas:    cfg.Atlas.Retain(),
		viewport: cfg.Viewport,
		push:     cfg.PushConstants,
	}
	if err := r.create(queue, cfg); err != nil {
		r.Destroy()
		return nil, err
	}
	slogger().Info("tile renderer created",
		"label", label,
		"atlas", cfg.Atlas.ID(),
		"size", fmt.Sprintf("%dx%dx%d", cfg.Table.XSize(), cfg.Table.YSize(), cfg.Table.ZSize()),
		"push_constants", cfg.PushConstants)
	return r, nil
}

func (r *TileRenderer) create(queue hal.Queue, cfg TileConfig) error {
	var err error
	r.texture, err = AtlasTextureFor(r.device, queue, r.atlas)
	if err != nil {
		return err
	}
	r.instances, err = newInstances(r.device, r.up, cfg.Table)
	if err != nil {
		return err
	}
	r.autotiles = newAutotileState(r.atlas.Layout(), cfg.Table.XSize())
	r.binder, err = newBinder(bindingResources{
		device:    r.device,
		up:        r.up,
		texture:   r.texture,
		viewport:  r.viewport,
		autotiles: r.autotiles,
		layers:    cfg.Table.ZSize(),
	}, cfg.PushConstants)
	if err != nil {
		return err
	}
	variant := "uniform"
	if cfg.PushConstants {
		variant = "push"
	}
	r.shader, err = createShaderModule(r.device, r.label+"_"+variant+"_shader",
		TileShaderSource(cfg.PushConstants), cfg.SPIRV)
	if err != nil {
		return err
	}
	r.pipeline, err = createPipeline(r.device, pipelineDesc{
		label:   r.label + "_pipeline",
		layout:  r.binder.pipelineLayout(),
		shader:  r.shader,
		buffers: instanceLayout(),
		target:  r.target,
	})
	return err
}

// PushConstants reports whether the renderer uses the push-constant path.
func (r *TileRenderer) PushConstants() bool { return r.push }

// Atlas returns the atlas the renderer draws from.
func (r *TileRenderer) Atlas() *atlas.Atlas { return r.atlas }

// Instances returns the GPU grid.
func (r *TileRenderer) Instances() *Instances { return r.instances }

// Layers returns the layer count.
func (r *TileRenderer) Layers() int { return r.instances.Layers() }

// MemoryStats reports the renderer's buffers and the atlas texture it
// samples. The viewport is not included.
func (r *TileRenderer) MemoryStats() MemoryStats {
	s := r.up.mem
	if r.texture != nil {
		s.TextureBytes = r.texture.bytes()
		s.Textures = 1
	}
	return s
}

// Writes returns the number of buffer writes issued by the renderer,
// excluding the shared viewport.
func (r *TileRenderer) Writes() int { return r.up.writes }

// SetTile replaces one cell with a single 4-byte write.
func (r *TileRenderer) SetTile(x, y, layer int, ref autotile.Ref) error {
	if r.pipeline == nil {
		return ErrDestroyed
	}
	return r.instances.Set(x, y, layer, ref)
}

// SetTable replaces the whole grid. A table of the same size is written in
// place; a new size reallocates the instance buffer.
func (r *TileRenderer) SetTable(table *grid.Table3) error {
	if r.pipeline == nil {
		return ErrDestroyed
	}
	in := r.instances
	if table.XSize() == in.Width() && table.YSize() == in.Height() && table.ZSize() == in.Layers() {
		return in.Upload(table)
	}
	next, err := newInstances(r.device, r.up, table)
	if err != nil {
		return err
	}
	if err := r.binder.resizeLayers(table.ZSize()); err != nil {
		next.Destroy()
		return err
	}
	in.Destroy()
	r.instances = next
	r.autotiles.setMapWidth(table.XSize())
	r.binder.autotilesChanged()
	slogger().Debug("tile grid resized", "label", r.label,
		"size", fmt.Sprintf("%dx%dx%d", table.XSize(), table.YSize(), table.ZSize()))
	return nil
}

// SetAniIndex sets the autotile animation index. The uniform path writes
// only when the index changes.
func (r *TileRenderer) SetAniIndex(ani uint32) {
	if r.pipeline == nil {
		return
	}
	if r.autotiles.setAniIndex(ani) {
		r.binder.autotilesChanged()
	}
}

// AniIndex returns the current animation index.
func (r *TileRenderer) AniIndex() uint32 { return r.autotiles.ani }

// Draw records one instanced draw per visible layer into pass. The pass
// belongs to the caller.
func (r *TileRenderer) Draw(pass RenderPass, p DrawParams) (DrawStats, error) {
	var stats DrawStats
	if r.pipeline == nil {
		return stats, ErrDestroyed
	}
	layers := r.instances.Layers()
	if len(p.Visible) != layers {
		return stats, fmt.Errorf("%w: %d visibility flags for %d layers", ErrLayerMismatch, len(p.Visible), layers)
	}
	if p.Selected >= layers {
		return stats, fmt.Errorf("%w: selected layer %d of %d", ErrLayerMismatch, p.Selected, layers)
	}
	cells := int(r.instances.cells.layerCells())
	if cells == 0 {
		return stats, nil
	}

	pass.SetPipeline(r.pipeline)
	if err := r.binder.bindFrame(pass); err != nil {
		return stats, err
	}
	for layer, visible := range p.Visible {
		if !visible {
			continue
		}
		r.binder.bindLayer(pass, layer, p.layerOpacity(layer))
		r.instances.draw(pass, layer)
		stats.Draws++
		stats.Instances += cells
	}
	return stats, nil
}

// Destroy releases GPU objects in reverse creation order and drops the
// atlas reference. The atlas texture lives on with the atlas.
func (r *TileRenderer) Destroy() {
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
	if r.binder != nil {
		r.binder.destroy()
		r.binder = nil
	}
	if r.instances != nil {
		r.instances.Destroy()
		r.instances = nil
	}
	r.texture = nil
	if r.atlas != nil {
		r.atlas.Release()
		r.atlas = nil
	}
}

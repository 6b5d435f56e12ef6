package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilemap/atlas"
	"github.com/gogpu/tilemap/grid"
)

// cellDisplaySize is the byte size of the WGSL Display struct of the cell
// shader.
const cellDisplaySize = 16

// EmptyCell is the instance value of a cell that draws nothing.
const EmptyCell = math.MaxUint32

// CellConfig configures a CellRenderer.
type CellConfig struct {
	Viewport *Viewport
	Atlas    *atlas.CellAtlas

	// Cells holds one animation cell index per grid cell. Negative
	// values are empty.
	Cells *grid.Table2

	// Hue rotates every color by this many degrees.
	Hue    float32
	Target Target
	SPIRV  bool
}

// CellRenderer draws a grid of animation cells from one animation sheet,
// one instance per grid cell. It owns the sheet's texture.
type CellRenderer struct {
	o        *overlay
	texture  *AtlasTexture
	cells    *cellBuffer
	patterns int
	hue      float32
}

// NewCellRenderer uploads the animation sheet and the cell grid.
func NewCellRenderer(device hal.Device, queue hal.Queue, cfg CellConfig) (*CellRenderer, error) {
	if device == nil || queue == nil || cfg.Viewport == nil {
		return nil, ErrNilDevice
	}
	if cfg.Atlas == nil || cfg.Cells == nil {
		return nil, fmt.Errorf("tilemap/gpu: cell renderer needs an atlas and a cell table")
	}
	tex, err := uploadTexture(device, queue, "tilemap_cells_"+cfg.Atlas.Name(), cfg.Atlas.Image())
	if err != nil {
		return nil, err
	}
	o, err := newOverlay(device, &uploader{queue: queue}, cfg.Viewport, overlayDesc{
		label:       "tilemap_cells",
		source:      CellShaderSource(),
		uniformSize: cellDisplaySize,
		buffers:     instanceLayout(),
		texture:     tex,
		target:      cfg.Target,
		spirv:       cfg.SPIRV,
	})
	if err != nil {
		tex.Destroy()
		return nil, err
	}
	r := &CellRenderer{o: o, texture: tex, patterns: cfg.Atlas.Patterns(), hue: cfg.Hue}
	if err := r.upload(cfg.Cells); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

// cellValue maps a table entry to its instance value.
func cellValue(v int16) uint32 {
	if v < 0 {
		return EmptyCell
	}
	return uint32(v) //nolint:gosec // non-negative
}

func (r *CellRenderer) upload(t *grid.Table2) error {
	data := t.Data()
	cells, err := newCellBuffer(r.o.device, r.o.up, "tilemap_cell_instances", t.XSize(), t.YSize(), 1,
		func(i int) uint32 { return cellValue(data[i]) })
	if err != nil {
		return err
	}
	if r.cells != nil {
		r.cells.destroy()
	}
	r.cells = cells
	r.writeDisplay()
	return nil
}

func (r *CellRenderer) writeDisplay() {
	var b [cellDisplaySize]byte
	binary.LittleEndian.PutUint32(b[0:], uint32(r.cells.width)) //nolint:gosec // int16-bounded
	putFloats(b[4:], r.hue/360)
	binary.LittleEndian.PutUint32(b[8:], uint32(r.patterns)) //nolint:gosec // <= int16 range
	r.o.writeUniform(b[:])
}

// Patterns returns the number of drawable animation cells.
func (r *CellRenderer) Patterns() int { return r.patterns }

// SetCell replaces one grid cell with a single write. A negative cell
// clears it.
func (r *CellRenderer) SetCell(x, y int, cell int16) error {
	if r.o.destroyed() {
		return ErrDestroyed
	}
	return r.cells.write(x, y, 0, cellValue(cell))
}

// SetCells replaces the whole grid, reallocating when its size changes.
func (r *CellRenderer) SetCells(t *grid.Table2) error {
	if r.o.destroyed() {
		return ErrDestroyed
	}
	return r.upload(t)
}

// SetHue changes the hue rotation in degrees. An unchanged hue writes
// nothing.
func (r *CellRenderer) SetHue(hue float32) {
	if hue == r.hue || r.o.destroyed() {
		return
	}
	r.hue = hue
	r.writeDisplay()
}

// Hue returns the hue rotation in degrees.
func (r *CellRenderer) Hue() float32 { return r.hue }

// Writes returns the number of buffer writes issued so far.
func (r *CellRenderer) Writes() int { return r.o.up.writes }

// Draw records one instanced draw over every grid cell.
func (r *CellRenderer) Draw(pass RenderPass) error {
	if r.o.destroyed() {
		return ErrDestroyed
	}
	n := r.cells.layerCells()
	if n == 0 {
		return nil
	}
	r.o.bind(pass)
	pass.SetVertexBuffer(0, r.cells.buf, 0)
	pass.Draw(quadVertices, n, 0, 0)
	return nil
}

// MemoryStats reports the instance and display buffers and the sheet
// texture.
func (r *CellRenderer) MemoryStats() MemoryStats {
	s := r.o.up.mem
	if r.texture != nil {
		s.TextureBytes = r.texture.bytes()
		s.Textures = 1
	}
	return s
}

// Destroy releases the grid, the overlay and the texture. It is safe to
// call more than once.
func (r *CellRenderer) Destroy() {
	if r.cells != nil {
		r.cells.destroy()
		r.cells = nil
	}
	r.o.destroy()
	if r.texture != nil {
		r.texture.Destroy()
		r.texture = nil
	}
}

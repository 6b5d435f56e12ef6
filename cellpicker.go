package tilemap

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilemap/atlas"
	"github.com/gogpu/tilemap/grid"
	"github.com/gogpu/tilemap/internal/gpu"
)

// DefaultCellScale is the display scale of a CellPicker: cells are shown
// at half size.
const DefaultCellScale = 0.5

// CellPicker is the cell palette of an animation sheet. It shows every
// cell of the sheet in rows of Columns cells and keeps one selected cell.
//
// Like a Map it is owned by the render thread.
type CellPicker struct {
	atlas    *atlas.CellAtlas
	table    *grid.Table2
	viewport *gpu.Viewport
	cells    *gpu.CellRenderer

	cols     int
	scale    float32
	scroll   mgl32.Vec2
	selected int
}

// NewCellPicker creates a picker for a. WithCellColumns, WithCellScale,
// WithHue and the target options apply.
func NewCellPicker(device hal.Device, queue hal.Queue, a *atlas.CellAtlas, opts ...Option) (*CellPicker, error) {
	if device == nil || queue == nil {
		return nil, gpu.ErrNilDevice
	}
	if a == nil {
		return nil, ErrNilInput
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &CellPicker{atlas: a, cols: o.cellColumns, scale: o.cellScale}
	if p.cols <= 0 {
		p.cols = max(a.Patterns(), 1)
	}
	var err error
	p.table, err = CellTable(a.Patterns(), p.cols)
	if err != nil {
		return nil, err
	}
	size := p.Size()
	p.viewport, err = gpu.NewViewport(device, queue, size)
	if err != nil {
		return nil, err
	}
	p.viewport.Set(size, mgl32.Vec2{}, p.scale)
	p.cells, err = gpu.NewCellRenderer(device, queue, gpu.CellConfig{
		Viewport: p.viewport,
		Atlas:    a,
		Cells:    p.table,
		Hue:      o.hue,
		Target:   o.target,
		SPIRV:    o.spirv,
	})
	if err != nil {
		p.Destroy()
		return nil, err
	}
	slogger().Debug("cell picker created", "sheet", a.Name(), "patterns", a.Patterns(), "columns", p.cols)
	return p, nil
}

// CellTable lays cells 0..patterns-1 out in rows of cols. Slots past the
// last cell are -1 and draw nothing.
func CellTable(patterns, cols int) (*grid.Table2, error) {
	cols = max(cols, 1)
	rows := (patterns + cols - 1) / cols
	t, err := grid.NewTable2(cols, rows)
	if err != nil {
		return nil, err
	}
	for i := range t.Data() {
		v := int16(i) //nolint:gosec // sheets hold far fewer than 32768 cells
		if i >= patterns {
			v = -1
		}
		t.Data()[i] = v
	}
	return t, nil
}

// Atlas returns the animation sheet.
func (p *CellPicker) Atlas() *atlas.CellAtlas { return p.atlas }

// Table returns the palette grid.
func (p *CellPicker) Table() *grid.Table2 { return p.table }

// Columns returns the palette width in cells.
func (p *CellPicker) Columns() int { return p.cols }

// Rows returns the palette height in cells.
func (p *CellPicker) Rows() int { return p.table.YSize() }

// Scale returns the display scale.
func (p *CellPicker) Scale() float32 { return p.scale }

// Size returns the full canvas size of the palette in pixels.
func (p *CellPicker) Size() mgl32.Vec2 {
	return mgl32.Vec2{float32(p.cols * atlas.CellSize), float32(p.Rows() * atlas.CellSize)}.Mul(p.scale)
}

// Selected returns the selected cell.
func (p *CellPicker) Selected() int { return p.selected }

// SetSelected selects cell, clamped to the cells of the sheet.
func (p *CellPicker) SetSelected(cell int) {
	p.selected = min(max(cell, 0), max(p.atlas.Patterns()-1, 0))
}

// Select selects the cell under canvas position pos, which is relative to
// the palette's top-left corner. ok is false outside the palette, leaving
// the selection unchanged.
func (p *CellPicker) Select(pos mgl32.Vec2) (cell int, ok bool) {
	size := p.Size()
	if pos.X() < 0 || pos.Y() < 0 || pos.X() >= size.X() || pos.Y() >= size.Y() {
		return p.selected, false
	}
	step := atlas.CellSize * p.scale
	x, y := int(pos.X()/step), int(pos.Y()/step)
	p.SetSelected(x + y*p.cols)
	return p.selected, true
}

// SelectionRect returns the canvas rectangle of the selected cell, for
// drawing a highlight.
func (p *CellPicker) SelectionRect() image.Rectangle {
	step := atlas.CellSize * p.scale
	x := float32(p.selected%p.cols) * step
	y := float32(p.selected/p.cols) * step
	return image.Rect(int(x), int(y), int(x+step), int(y+step))
}

// SetScroll sets the canvas position shown at the top-left of the drawn
// region.
func (p *CellPicker) SetScroll(offset mgl32.Vec2) { p.scroll = offset }

// SetHue changes the hue rotation in degrees.
func (p *CellPicker) SetHue(degrees float32) {
	if p.cells != nil {
		p.cells.SetHue(degrees)
	}
}

// Hue returns the hue rotation in degrees.
func (p *CellPicker) Hue() float32 {
	if p.cells == nil {
		return 0
	}
	return p.cells.Hue()
}

// Draw records the palette into pass. A non-empty rect confines drawing
// to that region of the attachment; otherwise the whole canvas is drawn.
func (p *CellPicker) Draw(pass RenderPass, rect image.Rectangle) error {
	if p.cells == nil {
		return ErrDestroyed
	}
	size := p.Size()
	if !rect.Empty() {
		size = mgl32.Vec2{float32(rect.Dx()), float32(rect.Dy())}
		if rp, ok := pass.(gpu.RegionPass); ok {
			rp.SetViewport(float32(rect.Min.X), float32(rect.Min.Y), float32(rect.Dx()), float32(rect.Dy()), 0, 1)
			rp.SetScissorRect(uint32(max(rect.Min.X, 0)), uint32(max(rect.Min.Y, 0)), uint32(rect.Dx()), uint32(rect.Dy())) //nolint:gosec // clamped
		}
	}
	p.viewport.Set(size, p.scroll.Mul(-1), p.scale)
	return p.cells.Draw(pass)
}

// MemoryStats reports the GPU memory held by the picker.
func (p *CellPicker) MemoryStats() MemoryStats {
	var s MemoryStats
	if p.viewport != nil {
		s = s.Add(p.viewport.MemoryStats())
	}
	if p.cells != nil {
		s = s.Add(p.cells.MemoryStats())
	}
	return s
}

// Destroy releases every GPU object. It is safe to call more than once.
func (p *CellPicker) Destroy() {
	if p.cells != nil {
		p.cells.Destroy()
		p.cells = nil
	}
	if p.viewport != nil {
		p.viewport.Destroy()
		p.viewport = nil
	}
}

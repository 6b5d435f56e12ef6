package tilemap

import (
	"github.com/gogpu/tilemap/atlas"
	"github.com/gogpu/tilemap/autotile"
	"github.com/gogpu/tilemap/grid"
)

// PickerColumns is the width of the tile picker in tiles.
const PickerColumns = atlas.TilesetColumns

// Blank is the reference of the picker's eraser cell.
const Blank autotile.Ref = -1

// Picker is the tile palette of a tileset: one row of autotile heads
// followed by the tileset sheet. Draw it with a Map built on Table.
type Picker struct {
	table *grid.Table3
}

// NewPicker lays out the palette of a.
func NewPicker(a *atlas.Atlas) (*Picker, error) {
	t, err := PickerTable(a)
	if err != nil {
		return nil, err
	}
	return &Picker{table: t}, nil
}

// PickerTable builds the one-layer palette grid of a. Row 0 holds the
// pattern-0 head of each autotile slot and a blank eraser; the rows below
// list the tileset tiles in sheet order.
func PickerTable(a *atlas.Atlas) (*grid.Table3, error) {
	if a == nil {
		return nil, ErrNilInput
	}
	tiles := a.Layout().TileCount
	rows := 1 + (tiles+PickerColumns-1)/PickerColumns
	t, err := grid.NewTable3(PickerColumns, rows, 1)
	if err != nil {
		return nil, err
	}
	data := t.Data()
	for slot := range autotile.Slots {
		data[slot] = autotile.AutotileRef(slot, 0)
	}
	for i := autotile.Slots; i < PickerColumns; i++ {
		data[i] = Blank
	}
	for i := range tiles {
		data[PickerColumns+i] = autotile.TileRef(i)
	}
	for i := PickerColumns + tiles; i < len(data); i++ {
		data[i] = Blank
	}
	return t, nil
}

// Table returns the palette grid.
func (p *Picker) Table() *grid.Table3 { return p.table }

// TileAt returns the reference under palette pixel (px, py). ok is false
// outside the palette.
func (p *Picker) TileAt(px, py float32) (r autotile.Ref, ok bool) {
	if px < 0 || py < 0 {
		return Blank, false
	}
	r, ok = p.table.At(int(px)/atlas.TileSize, int(py)/atlas.TileSize, 0)
	if !ok {
		return Blank, false
	}
	return r, true
}

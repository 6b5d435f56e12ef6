// Package grid provides the flat 2-D and 3-D tile reference tables that
// back map layers, collision masks and picker layouts.
//
// Index order is x-fastest: x + y*xsize + z*xsize*ysize. GPU instance
// buffers use the same order so a table can be uploaded without
// reshuffling.
package grid

import (
	"errors"
	"fmt"

	"github.com/gogpu/tilemap/autotile"
)

// ErrOutOfBounds is returned when a coordinate lies outside a table.
var ErrOutOfBounds = errors.New("grid: coordinate out of bounds")

// ErrInvalidSize is returned for negative dimensions or mismatched data.
var ErrInvalidSize = errors.New("grid: invalid table size")

// Table3 is a 3-D grid of tile references.
type Table3 struct {
	xsize, ysize, zsize int
	data                []autotile.Ref
}

// NewTable3 creates a zero-filled table.
func NewTable3(xsize, ysize, zsize int) (*Table3, error) {
	if xsize < 0 || ysize < 0 || zsize < 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidSize, xsize, ysize, zsize)
	}
	return &Table3{
		xsize: xsize, ysize: ysize, zsize: zsize,
		data: make([]autotile.Ref, xsize*ysize*zsize),
	}, nil
}

// Table3From wraps existing data. len(data) must equal xsize*ysize*zsize.
func Table3From(xsize, ysize, zsize int, data []autotile.Ref) (*Table3, error) {
	if xsize < 0 || ysize < 0 || zsize < 0 || len(data) != xsize*ysize*zsize {
		return nil, fmt.Errorf("%w: %dx%dx%d with %d cells", ErrInvalidSize, xsize, ysize, zsize, len(data))
	}
	return &Table3{xsize: xsize, ysize: ysize, zsize: zsize, data: data}, nil
}

// XSize returns the width in cells.
func (t *Table3) XSize() int { return t.xsize }

// YSize returns the height in cells.
func (t *Table3) YSize() int { return t.ysize }

// ZSize returns the layer count.
func (t *Table3) ZSize() int { return t.zsize }

// Len returns the number of cells.
func (t *Table3) Len() int { return len(t.data) }

// Data returns the backing slice in index order.
func (t *Table3) Data() []autotile.Ref { return t.data }

// Index returns the flat index of (x, y, z).
func (t *Table3) Index(x, y, z int) (int, bool) {
	if x < 0 || y < 0 || z < 0 || x >= t.xsize || y >= t.ysize || z >= t.zsize {
		return 0, false
	}
	return x + y*t.xsize + z*t.xsize*t.ysize, true
}

// At returns the reference at (x, y, z).
func (t *Table3) At(x, y, z int) (autotile.Ref, bool) {
	i, ok := t.Index(x, y, z)
	if !ok {
		return 0, false
	}
	return t.data[i], true
}

// Set stores r at (x, y, z).
func (t *Table3) Set(x, y, z int, r autotile.Ref) error {
	i, ok := t.Index(x, y, z)
	if !ok {
		return fmt.Errorf("%w: (%d, %d, %d) in %dx%dx%d", ErrOutOfBounds, x, y, z, t.xsize, t.ysize, t.zsize)
	}
	t.data[i] = r
	return nil
}

// Layer returns the cells of layer z.
func (t *Table3) Layer(z int) []autotile.Ref {
	n := t.xsize * t.ysize
	return t.data[z*n : (z+1)*n]
}

// Resize changes the dimensions, keeping the overlapping region.
// New cells are zero.
func (t *Table3) Resize(xsize, ysize, zsize int) error {
	if xsize < 0 || ysize < 0 || zsize < 0 {
		return fmt.Errorf("%w: %dx%dx%d", ErrInvalidSize, xsize, ysize, zsize)
	}
	data := make([]autotile.Ref, xsize*ysize*zsize)
	for z := range min(zsize, t.zsize) {
		for y := range min(ysize, t.ysize) {
			for x := range min(xsize, t.xsize) {
				data[x+y*xsize+z*xsize*ysize] = t.data[x+y*t.xsize+z*t.xsize*t.ysize]
			}
		}
	}
	t.xsize, t.ysize, t.zsize = xsize, ysize, zsize
	t.data = data
	return nil
}

// Table2 is a 2-D grid of 16-bit values.
type Table2 struct {
	xsize, ysize int
	data         []int16
}

// NewTable2 creates a zero-filled table.
func NewTable2(xsize, ysize int) (*Table2, error) {
	if xsize < 0 || ysize < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, xsize, ysize)
	}
	return &Table2{xsize: xsize, ysize: ysize, data: make([]int16, xsize*ysize)}, nil
}

// XSize returns the width in cells.
func (t *Table2) XSize() int { return t.xsize }

// YSize returns the height in cells.
func (t *Table2) YSize() int { return t.ysize }

// Data returns the backing slice in index order.
func (t *Table2) Data() []int16 { return t.data }

// At returns the value at (x, y).
func (t *Table2) At(x, y int) (int16, bool) {
	if x < 0 || y < 0 || x >= t.xsize || y >= t.ysize {
		return 0, false
	}
	return t.data[x+y*t.xsize], true
}

// Set stores v at (x, y).
func (t *Table2) Set(x, y int, v int16) error {
	if x < 0 || y < 0 || x >= t.xsize || y >= t.ysize {
		return fmt.Errorf("%w: (%d, %d) in %dx%d", ErrOutOfBounds, x, y, t.xsize, t.ysize)
	}
	t.data[x+y*t.xsize] = v
	return nil
}

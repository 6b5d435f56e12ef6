package gpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilemap/autotile"
	"github.com/gogpu/tilemap/grid"
)

// Instances mirrors a tile reference grid on the GPU. Each instance is the
// sanitised reference of one cell; the cell position is implicit in the
// instance index and rebuilt by the vertex shader.
//
// Edits cost one 4-byte write. The buffer is never reallocated by Set and
// no CPU copy is kept: the caller's grid.Table3 is the source of truth.
type Instances struct {
	cells *cellBuffer
}

// NewInstances uploads table. Negative and reserved references are stored
// as autotile.Empty.
func NewInstances(device hal.Device, queue hal.Queue, table *grid.Table3) (*Instances, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	return newInstances(device, &uploader{queue: queue}, table)
}

func newInstances(device hal.Device, up *uploader, table *grid.Table3) (*Instances, error) {
	data := table.Data()
	cells, err := newCellBuffer(device, up, "tilemap_instances",
		table.XSize(), table.YSize(), table.ZSize(),
		func(i int) uint32 { return autotile.Sanitize(data[i]) })
	if err != nil {
		return nil, err
	}
	return &Instances{cells: cells}, nil
}

// Set replaces the reference at (x, y, layer). Coordinates outside the
// grid return ErrOutOfBounds.
func (in *Instances) Set(x, y, layer int, r autotile.Ref) error {
	return in.cells.write(x, y, layer, autotile.Sanitize(r))
}

// Upload rewrites every cell from table in one write. The table must have
// the dimensions the buffer was created with.
func (in *Instances) Upload(table *grid.Table3) error {
	c := in.cells
	if table.XSize() != c.width || table.YSize() != c.height || table.ZSize() != c.layers {
		return fmt.Errorf("%w: table %dx%dx%d, buffer %dx%dx%d", ErrLayerMismatch,
			table.XSize(), table.YSize(), table.ZSize(), c.width, c.height, c.layers)
	}
	data := table.Data()
	if len(data) == 0 {
		return nil
	}
	b := make([]byte, len(data)*cellStride)
	for i, r := range data {
		binary.LittleEndian.PutUint32(b[i*cellStride:], autotile.Sanitize(r))
	}
	c.up.write(c.buf, 0, b)
	return nil
}

// Width returns the grid width in cells.
func (in *Instances) Width() int { return in.cells.width }

// Height returns the grid height in cells.
func (in *Instances) Height() int { return in.cells.height }

// Layers returns the layer count.
func (in *Instances) Layers() int { return in.cells.layers }

// Buffer returns the underlying vertex buffer.
func (in *Instances) Buffer() hal.Buffer { return in.cells.buf }

// draw records the instanced draw of one layer.
func (in *Instances) draw(pass RenderPass, layer int) {
	pass.SetVertexBuffer(0, in.cells.buf, in.cells.layerOffset(layer))
	pass.Draw(quadVertices, in.cells.layerCells(), 0, 0)
}

// Destroy releases the buffer.
func (in *Instances) Destroy() {
	in.cells.destroy()
}

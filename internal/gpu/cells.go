package gpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// cellStride is the byte size of one instance: a single u32.
const cellStride = 4

// bufferWrite describes one queue write, for observers.
type bufferWrite struct {
	Buffer hal.Buffer
	Offset uint64
	Data   []byte
}

// uploader funnels every queue write of a renderer through one place so
// write counts stay observable. It also keeps the renderer's buffer
// accounting.
type uploader struct {
	queue   hal.Queue
	writes  int
	onWrite func(bufferWrite)
	mem     MemoryStats
}

func (u *uploader) write(buf hal.Buffer, offset uint64, data []byte) {
	u.writes++
	if u.onWrite != nil {
		u.onWrite(bufferWrite{Buffer: buf, Offset: offset, Data: data})
	}
	u.queue.WriteBuffer(buf, offset, data)
}

// cellBuffer is a write-only GPU array holding one u32 per grid cell in
// x-fastest order. Cells are never read back.
type cellBuffer struct {
	device hal.Device
	up     *uploader
	buf    hal.Buffer
	size   uint64

	width, height, layers int
}

// newCellBuffer allocates the buffer and uploads every cell once.
func newCellBuffer(device hal.Device, up *uploader, label string, width, height, layers int, value func(i int) uint32) (*cellBuffer, error) {
	if width < 0 || height < 0 || layers < 0 {
		return nil, fmt.Errorf("%s: invalid size %dx%dx%d", label, width, height, layers)
	}
	n := width * height * layers
	size := uint64(max(n, 1) * cellStride)
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	up.allocated(size)
	c := &cellBuffer{device: device, up: up, buf: buf, size: size, width: width, height: height, layers: layers}
	if n > 0 {
		data := make([]byte, n*cellStride)
		for i := range n {
			binary.LittleEndian.PutUint32(data[i*cellStride:], value(i))
		}
		up.write(buf, 0, data)
	}
	slogger().Debug("cell buffer created", "label", label, "cells", n, "bytes", size)
	return c, nil
}

// index returns the flat index of (x, y, z), rejecting anything outside
// the grid.
func (c *cellBuffer) index(x, y, z int) (int, error) {
	if x < 0 || y < 0 || z < 0 || x >= c.width || y >= c.height || z >= c.layers {
		return 0, fmt.Errorf("%w: (%d, %d, %d) in %dx%dx%d", ErrOutOfBounds, x, y, z, c.width, c.height, c.layers)
	}
	return x + y*c.width + z*c.width*c.height, nil
}

// write stores v at (x, y, z) with one 4-byte queue write.
func (c *cellBuffer) write(x, y, z int, v uint32) error {
	i, err := c.index(x, y, z)
	if err != nil {
		return err
	}
	offset := i * cellStride
	if offset < 0 {
		panic(fmt.Sprintf("tilemap/gpu: negative cell offset %d", offset))
	}
	var b [cellStride]byte
	binary.LittleEndian.PutUint32(b[:], v)
	c.up.write(c.buf, uint64(offset), b[:])
	return nil
}

// layerCells returns the instance count of one layer.
func (c *cellBuffer) layerCells() uint32 {
	return uint32(c.width * c.height) //nolint:gosec // grid sizes are int16-bounded
}

// layerOffset returns the byte offset of layer z.
func (c *cellBuffer) layerOffset(z int) uint64 {
	return uint64(z * c.width * c.height * cellStride) //nolint:gosec // z is a validated layer index
}

func (c *cellBuffer) destroy() {
	if c.buf != nil {
		c.device.DestroyBuffer(c.buf)
		c.up.released(c.size)
		c.buf = nil
	}
}

// instanceLayout is the vertex buffer layout of a cellBuffer: one u32 per
// instance at shader location 0.
func instanceLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: cellStride,
			StepMode:    gputypes.VertexStepModeInstance,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatUint32, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	// opacityAlign is the dynamic-offset stride between layers. It is the
	// WebGPU default for minUniformBufferOffsetAlignment.
	opacityAlign = 256

	// opacitySize is the bound size of one layer's Opacity struct.
	opacitySize = 16
)

// layerOpacity holds one opacity per layer in a uniform buffer, each at
// an opacityAlign-byte slot selected with a dynamic offset. A layer's slot
// is rewritten only when its value changes.
type layerOpacity struct {
	device hal.Device
	up     *uploader
	buf    hal.Buffer
	values []float32
}

func newLayerOpacity(device hal.Device, up *uploader, layers int) (*layerOpacity, error) {
	n := max(layers, 1)
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "tilemap_layer_opacity",
		Size:  uint64(n * opacityAlign),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create opacity buffer: %w", err)
	}
	up.allocated(uint64(n * opacityAlign))
	o := &layerOpacity{device: device, up: up, buf: buf, values: make([]float32, n)}
	data := make([]byte, n*opacityAlign)
	for i := range o.values {
		o.values[i] = 1
		binary.LittleEndian.PutUint32(data[i*opacityAlign:], math.Float32bits(1))
	}
	up.write(buf, 0, data)
	return o, nil
}

// set stores the opacity of layer, writing only on change.
func (o *layerOpacity) set(layer int, value float32) {
	if o.values[layer] == value {
		return
	}
	o.values[layer] = value
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(value))
	o.up.write(o.buf, o.offset(layer), b[:])
}

func (o *layerOpacity) offset(layer int) uint64 {
	return uint64(layer * opacityAlign) //nolint:gosec // validated layer index
}

func (o *layerOpacity) destroy() {
	if o.buf != nil {
		o.device.DestroyBuffer(o.buf)
		o.up.released(uint64(len(o.values) * opacityAlign))
		o.buf = nil
	}
}

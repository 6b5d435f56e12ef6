package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// viewportSize is the byte size of the projection: one mat4x4<f32>.
const viewportSize = 64

// Viewport is the projection shared by the tile renderer and its overlays.
// It maps map pixels to clip space as ortho(size) × translate(pan) ×
// scale(scale), so a map pixel p lands at pan + p*scale on screen.
//
// The uniform buffer is rewritten only when Set changes the state; every
// renderer drawing in the same frame reads the same buffer.
type Viewport struct {
	device hal.Device
	up     *uploader
	buf    hal.Buffer

	size  mgl32.Vec2
	pan   mgl32.Vec2
	scale float32
	proj  mgl32.Mat4
	bytes [viewportSize]byte
}

// NewViewport creates a viewport for a size-pixel canvas at pan 0, scale 1.
func NewViewport(device hal.Device, queue hal.Queue, size mgl32.Vec2) (*Viewport, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "tilemap_viewport",
		Size:  viewportSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create viewport buffer: %w", err)
	}
	v := &Viewport{device: device, up: &uploader{queue: queue}, buf: buf, size: size, scale: 1}
	v.up.allocated(viewportSize)
	v.recompute()
	v.up.write(v.buf, 0, v.bytes[:])
	return v, nil
}

// Set updates the canvas size, pan offset and zoom scale. It reports
// whether anything changed; an unchanged state issues no buffer write.
// After Destroy it changes nothing.
func (v *Viewport) Set(size, pan mgl32.Vec2, scale float32) bool {
	if v.buf == nil || (size == v.size && pan == v.pan && scale == v.scale) {
		return false
	}
	v.size, v.pan, v.scale = size, pan, scale
	v.recompute()
	v.up.write(v.buf, 0, v.bytes[:])
	return true
}

// SetScale changes only the zoom scale.
func (v *Viewport) SetScale(scale float32) bool { return v.Set(v.size, v.pan, scale) }

// SetPan changes only the pan offset.
func (v *Viewport) SetPan(pan mgl32.Vec2) bool { return v.Set(v.size, pan, v.scale) }

// SetSize changes only the canvas size.
func (v *Viewport) SetSize(size mgl32.Vec2) bool { return v.Set(size, v.pan, v.scale) }

func (v *Viewport) recompute() {
	w, h := max(v.size.X(), 1), max(v.size.Y(), 1)
	v.proj = mgl32.Ortho(0, w, h, 0, -1, 1).
		Mul4(mgl32.Translate3D(v.pan.X(), v.pan.Y(), 0)).
		Mul4(mgl32.Scale3D(v.scale, v.scale, 1))
	for i, f := range v.proj {
		binary.LittleEndian.PutUint32(v.bytes[i*4:], math.Float32bits(f))
	}
}

// Size returns the canvas size in pixels.
func (v *Viewport) Size() mgl32.Vec2 { return v.size }

// Pan returns the pan offset in pixels.
func (v *Viewport) Pan() mgl32.Vec2 { return v.pan }

// Scale returns the zoom scale.
func (v *Viewport) Scale() float32 { return v.scale }

// Matrix returns the column-major projection.
func (v *Viewport) Matrix() mgl32.Mat4 { return v.proj }

// Bytes returns the projection as uploaded.
func (v *Viewport) Bytes() []byte { return v.bytes[:] }

// Buffer returns the uniform buffer.
func (v *Viewport) Buffer() hal.Buffer { return v.buf }

// Writes returns the number of buffer writes issued so far.
func (v *Viewport) Writes() int { return v.up.writes }

// MemoryStats reports the projection buffer.
func (v *Viewport) MemoryStats() MemoryStats { return v.up.mem }

// Destroy releases the uniform buffer.
func (v *Viewport) Destroy() {
	if v.buf != nil {
		v.device.DestroyBuffer(v.buf)
		v.up.released(viewportSize)
		v.buf = nil
	}
}

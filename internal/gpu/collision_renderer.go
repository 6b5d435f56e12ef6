package gpu

import (
	"encoding/binary"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilemap/grid"
)

// collisionUniformSize is the byte size of the WGSL Collision struct.
const collisionUniformSize = 32

// passageMask keeps the four direction bits of a passage value.
const passageMask = 0xF

// DefaultCollisionColor is a translucent red.
var DefaultCollisionColor = mgl32.Vec4{1, 0, 0, 0.6}

// CollisionConfig configures a CollisionRenderer.
type CollisionConfig struct {
	Viewport *Viewport

	// Passages holds one direction mask per cell.
	Passages *grid.Table2

	// Color is straight RGBA. The zero value means DefaultCollisionColor.
	Color  mgl32.Vec4
	Target Target
	SPIRV  bool
}

// CollisionRenderer draws a bar on every blocked side of every cell. It
// keeps one u32 instance per cell, edited with single writes like the
// tile grid.
type CollisionRenderer struct {
	o     *overlay
	cells *cellBuffer
	color mgl32.Vec4
}

// NewCollisionRenderer uploads the passage grid.
func NewCollisionRenderer(device hal.Device, queue hal.Queue, cfg CollisionConfig) (*CollisionRenderer, error) {
	if device == nil || queue == nil || cfg.Viewport == nil {
		return nil, ErrNilDevice
	}
	if cfg.Passages == nil {
		return nil, fmt.Errorf("tilemap/gpu: collision renderer needs a passage table")
	}
	up := &uploader{queue: queue}
	o, err := newOverlay(device, up, cfg.Viewport, overlayDesc{
		label:       "tilemap_collision",
		source:      CollisionShaderSource(),
		uniformSize: collisionUniformSize,
		buffers:     instanceLayout(),
		target:      cfg.Target,
		spirv:       cfg.SPIRV,
	})
	if err != nil {
		return nil, err
	}
	c := &CollisionRenderer{o: o, color: cfg.Color}
	if c.color == (mgl32.Vec4{}) {
		c.color = DefaultCollisionColor
	}
	if err := c.upload(cfg.Passages); err != nil {
		o.destroy()
		return nil, err
	}
	return c, nil
}

func (c *CollisionRenderer) upload(t *grid.Table2) error {
	data := t.Data()
	cells, err := newCellBuffer(c.o.device, c.o.up, "tilemap_passages", t.XSize(), t.YSize(), 1,
		func(i int) uint32 { return uint32(data[i]) & passageMask }) //nolint:gosec // masked
	if err != nil {
		return err
	}
	if c.cells != nil {
		c.cells.destroy()
	}
	c.cells = cells
	c.writeUniform()
	return nil
}

func (c *CollisionRenderer) writeUniform() {
	var b [collisionUniformSize]byte
	putFloats(b[:], c.color[:]...)
	binary.LittleEndian.PutUint32(b[16:], uint32(c.cells.width)) //nolint:gosec // int16-bounded
	c.o.writeUniform(b[:])
}

// SetPassage replaces the mask of one cell with a single write.
func (c *CollisionRenderer) SetPassage(x, y int, mask int16) error {
	if c.o.destroyed() {
		return ErrDestroyed
	}
	return c.cells.write(x, y, 0, uint32(mask)&passageMask) //nolint:gosec // masked
}

// SetPassages replaces the whole grid, reallocating when its size changes.
func (c *CollisionRenderer) SetPassages(t *grid.Table2) error {
	if c.o.destroyed() {
		return ErrDestroyed
	}
	return c.upload(t)
}

// SetColor changes the bar color.
func (c *CollisionRenderer) SetColor(color mgl32.Vec4) {
	if color == c.color || c.o.destroyed() {
		return
	}
	c.color = color
	c.writeUniform()
}

// Writes returns the number of buffer writes issued so far.
func (c *CollisionRenderer) Writes() int { return c.o.up.writes }

// Draw records one instanced draw over every cell.
func (c *CollisionRenderer) Draw(pass RenderPass) error {
	if c.o.destroyed() {
		return ErrDestroyed
	}
	n := c.cells.layerCells()
	if n == 0 {
		return nil
	}
	c.o.bind(pass)
	pass.SetVertexBuffer(0, c.cells.buf, 0)
	pass.Draw(quadVertices, n, 0, 0)
	return nil
}

// MemoryStats reports the passage buffer and the overlay's buffers.
func (c *CollisionRenderer) MemoryStats() MemoryStats { return c.o.up.mem }

// Destroy releases the passage buffer and the overlay.
func (c *CollisionRenderer) Destroy() {
	if c.cells != nil {
		c.cells.destroy()
		c.cells = nil
	}
	c.o.destroy()
}

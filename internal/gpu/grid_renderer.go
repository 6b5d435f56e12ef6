package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/wgpu/hal"
)

// gridDisplaySize is the byte size of the WGSL Display struct.
const gridDisplaySize = 48

// GridStyle is the look of the cell grid overlay.
type GridStyle struct {
	// Color is straight (non-premultiplied) RGBA.
	Color mgl32.Vec4

	// Thickness is the line width in points.
	Thickness float32

	// PixelsPerPoint is the device pixel ratio.
	PixelsPerPoint float32
}

// DefaultGridStyle is a thin translucent black line.
var DefaultGridStyle = GridStyle{Color: mgl32.Vec4{0, 0, 0, 0.5}, Thickness: 1, PixelsPerPoint: 1}

// GridConfig configures a GridRenderer.
type GridConfig struct {
	Viewport *Viewport
	Width    int
	Height   int
	Style    GridStyle
	Target   Target
	SPIRV    bool
}

// GridRenderer draws cell borders over the whole map with a single quad.
// Its display block is rewritten only when it changes.
type GridRenderer struct {
	o        *overlay
	viewport *Viewport

	width, height int
	style         GridStyle
	written       [gridDisplaySize]byte
	pending       [gridDisplaySize]byte
}

// NewGridRenderer creates the grid overlay for a width×height map.
func NewGridRenderer(device hal.Device, queue hal.Queue, cfg GridConfig) (*GridRenderer, error) {
	if device == nil || queue == nil || cfg.Viewport == nil {
		return nil, ErrNilDevice
	}
	o, err := newOverlay(device, &uploader{queue: queue}, cfg.Viewport, overlayDesc{
		label:       "tilemap_grid",
		source:      GridShaderSource(),
		uniformSize: gridDisplaySize,
		target:      cfg.Target,
		spirv:       cfg.SPIRV,
	})
	if err != nil {
		return nil, err
	}
	style := cfg.Style
	if style == (GridStyle{}) {
		style = DefaultGridStyle
	}
	g := &GridRenderer{o: o, viewport: cfg.Viewport, width: cfg.Width, height: cfg.Height, style: style}
	g.sync()
	return g, nil
}

// SetStyle changes the line look.
func (g *GridRenderer) SetStyle(s GridStyle) { g.style = s }

// Style returns the line look.
func (g *GridRenderer) Style() GridStyle { return g.style }

// SetMapSize changes the map size in cells.
func (g *GridRenderer) SetMapSize(width, height int) { g.width, g.height = width, height }

// Writes returns the number of display writes issued so far.
func (g *GridRenderer) Writes() int { return g.o.up.writes }

// Draw records the grid quad.
func (g *GridRenderer) Draw(pass RenderPass) error {
	if g.o.destroyed() {
		return ErrDestroyed
	}
	g.sync()
	if g.width <= 0 || g.height <= 0 {
		return nil
	}
	g.o.bind(pass)
	pass.Draw(quadVertices, 1, 0, 0)
	return nil
}

// sync writes the display block if it differs from the last write.
func (g *GridRenderer) sync() {
	b := g.pending[:]
	size := g.viewport.Size()
	putFloats(b[0:], size.X(), size.Y(), g.style.PixelsPerPoint, g.style.Thickness,
		float32(g.width), float32(g.height), 0, 0)
	putFloats(b[32:], g.style.Color[:]...)
	if g.written == g.pending && g.o.up.writes > 0 {
		return
	}
	g.written = g.pending
	g.o.writeUniform(g.written[:])
}

// MemoryStats reports the overlay's buffers.
func (g *GridRenderer) MemoryStats() MemoryStats { return g.o.up.mem }

// Destroy releases the overlay's GPU objects.
func (g *GridRenderer) Destroy() { g.o.destroy() }

func putFloats(b []byte, fs ...float32) {
	for i, f := range fs {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
}

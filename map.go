package tilemap

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilemap/atlas"
	"github.com/gogpu/tilemap/autotile"
	"github.com/gogpu/tilemap/collision"
	"github.com/gogpu/tilemap/grid"
	"github.com/gogpu/tilemap/internal/gpu"
)

// Zoom limits applied by ZoomBy.
const (
	MinScale = 0.125
	MaxScale = 16
)

var (
	// ErrNilProvider is returned by FromProvider without a provider.
	ErrNilProvider = errors.New("tilemap: nil device provider")

	// ErrNoHAL is returned when a provider does not expose hal objects.
	ErrNoHAL = errors.New("tilemap: provider does not expose hal device and queue")

	// ErrNilInput is returned by New without an atlas or a table.
	ErrNilInput = errors.New("tilemap: nil atlas or table")

	// ErrLayerOutOfRange is returned for a layer index the map lacks.
	ErrLayerOutOfRange = errors.New("tilemap: layer out of range")

	// ErrDestroyed is returned by a Map after Destroy.
	ErrDestroyed = gpu.ErrDestroyed
)

// RenderPass is what a Map records into. Wrap a hal encoder with WrapPass.
type RenderPass = gpu.RenderPass

// WrapPass adapts a hal render pass encoder for Draw.
func WrapPass(enc hal.RenderPassEncoder) RenderPass { return gpu.WrapPass(enc) }

// GridStyle configures the grid overlay.
type GridStyle = gpu.GridStyle

// MemoryStats is the GPU memory held by a Map.
type MemoryStats = gpu.MemoryStats

// DefaultGridStyle draws one-point translucent black lines.
var DefaultGridStyle = gpu.DefaultGridStyle

// FrameStats summarises one Draw. Draws and Instances count tile layers
// only.
type FrameStats struct {
	Draws     int
	Instances int
	AniIndex  uint32
}

// Map is a layered tile map bound to a device: the tile renderer plus the
// optional grid and collision overlays, all sharing one viewport.
//
// A Map is owned by the render thread and is not safe for concurrent use.
type Map struct {
	device hal.Device
	queue  hal.Queue
	opts   options
	caps   Capabilities

	atlas    *atlas.Atlas
	table    *grid.Table3
	viewport *gpu.Viewport
	tiles    *gpu.TileRenderer
	grid     *gpu.GridRenderer

	collision *gpu.CollisionRenderer
	passages  *grid.Table2
	blockers  []collision.Blocker

	visible  []bool
	selected int
	animator *Animator
}

// New creates a map drawing table with a. size is the canvas size in
// pixels. The map keeps a reference to a until Destroy and edits table in
// place through SetTile.
func New(device hal.Device, queue hal.Queue, a *atlas.Atlas, table *grid.Table3, size mgl32.Vec2, opts ...Option) (*Map, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	caps, err := resolveCapabilities(o, device)
	if err != nil {
		return nil, err
	}
	return newMap(device, queue, a, table, size, caps, o)
}

// FromProvider creates a map on the device of a gpucontext provider, such
// as a gogpu app. The provider must expose its hal device and queue. The
// target format defaults to the provider's surface format.
func FromProvider(provider gpucontext.DeviceProvider, a *atlas.Atlas, table *grid.Table3, size mgl32.Vec2, opts ...Option) (*Map, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}

	o := defaultOptions()
	o.target.Format = provider.SurfaceFormat()
	for _, opt := range opts {
		opt(&o)
	}
	caps, err := resolveCapabilities(o, provider, provider.Device(), provider.Adapter())
	if err != nil {
		return nil, err
	}
	return newMap(device, queue, a, table, size, caps, o)
}

func newMap(device hal.Device, queue hal.Queue, a *atlas.Atlas, table *grid.Table3, size mgl32.Vec2, caps Capabilities, o options) (*Map, error) {
	if device == nil || queue == nil {
		return nil, gpu.ErrNilDevice
	}
	if a == nil || table == nil {
		return nil, ErrNilInput
	}
	if o.selected >= table.ZSize() {
		return nil, fmt.Errorf("%w: selected %d of %d", ErrLayerOutOfRange, o.selected, table.ZSize())
	}

	m := &Map{
		device:   device,
		queue:    queue,
		opts:     o,
		caps:     caps,
		atlas:    a.Retain(),
		table:    table,
		visible:  make([]bool, table.ZSize()),
		selected: o.selected,
		animator: NewAnimator(o.interval),
	}
	for i := range m.visible {
		m.visible[i] = true
	}
	if err := m.create(size); err != nil {
		m.Destroy()
		return nil, err
	}
	slogger().Debug("map created",
		"atlas", a.ID(),
		"layers", table.ZSize(),
		"push_constants", caps.PushConstants,
		"grid", m.grid != nil,
		"collision", m.collision != nil)
	return m, nil
}

func (m *Map) create(size mgl32.Vec2) error {
	var err error
	m.viewport, err = gpu.NewViewport(m.device, m.queue, size)
	if err != nil {
		return err
	}
	m.tiles, err = m.newTileRenderer(m.atlas)
	if err != nil {
		return err
	}
	if m.opts.grid != nil {
		m.grid, err = gpu.NewGridRenderer(m.device, m.queue, gpu.GridConfig{
			Viewport: m.viewport,
			Width:    m.table.XSize(),
			Height:   m.table.YSize(),
			Style:    *m.opts.grid,
			Target:   m.opts.target,
			SPIRV:    m.opts.spirv,
		})
		if err != nil {
			return err
		}
	}
	if m.opts.collision != nil {
		m.passages, err = collision.Calculate(m.table, *m.opts.collision, nil)
		if err != nil {
			return err
		}
		m.collision, err = gpu.NewCollisionRenderer(m.device, m.queue, gpu.CollisionConfig{
			Viewport: m.viewport,
			Passages: m.passages,
			Target:   m.opts.target,
			SPIRV:    m.opts.spirv,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Map) newTileRenderer(a *atlas.Atlas) (*gpu.TileRenderer, error) {
	return gpu.NewTileRenderer(m.device, m.queue, gpu.TileConfig{
		Atlas:         a,
		Table:         m.table,
		Viewport:      m.viewport,
		PushConstants: m.caps.PushConstants,
		SPIRV:         m.opts.spirv,
		Target:        m.opts.target,
		Label:         m.opts.label,
	})
}

// Capabilities returns the capabilities the map was built for.
func (m *Map) Capabilities() Capabilities { return m.caps }

// Table returns the tile grid.
func (m *Map) Table() *grid.Table3 { return m.table }

// Atlas returns the atlas the map draws from.
func (m *Map) Atlas() *atlas.Atlas { return m.atlas }

// Passages returns the collision masks, or nil without a collision overlay.
func (m *Map) Passages() *grid.Table2 { return m.passages }

// Animator returns the autotile animation clock.
func (m *Map) Animator() *Animator { return m.animator }

// MemoryStats sums the buffers of every renderer and the atlas texture.
// After Destroy it is zero.
func (m *Map) MemoryStats() MemoryStats {
	var s MemoryStats
	if m.viewport != nil {
		s = s.Add(m.viewport.MemoryStats())
	}
	if m.tiles != nil {
		s = s.Add(m.tiles.MemoryStats())
	}
	if m.grid != nil {
		s = s.Add(m.grid.MemoryStats())
	}
	if m.collision != nil {
		s = s.Add(m.collision.MemoryStats())
	}
	return s
}

// Viewport returns the canvas size, pan and zoom scale. After Destroy it
// returns zeros.
func (m *Map) Viewport() (size, pan mgl32.Vec2, scale float32) {
	if m.viewport == nil {
		return size, pan, 0
	}
	return m.viewport.Size(), m.viewport.Pan(), m.viewport.Scale()
}

// SetTile writes one cell of the table and of the GPU grid, and refreshes
// the collision mask of the cell.
func (m *Map) SetTile(x, y, layer int, r autotile.Ref) error {
	if m.tiles == nil {
		return ErrDestroyed
	}
	if err := m.table.Set(x, y, layer, r); err != nil {
		return err
	}
	if err := m.tiles.SetTile(x, y, layer, r); err != nil {
		return err
	}
	if m.collision == nil {
		return nil
	}
	mask := collision.Cell(m.table, *m.opts.collision, m.blockers, x, y)
	if old, _ := m.passages.At(x, y); old == mask {
		return nil
	}
	if err := m.passages.Set(x, y, mask); err != nil {
		return err
	}
	return m.collision.SetPassage(x, y, mask)
}

// SetTable replaces the tile grid. A different layer count resets the
// visibility of every layer to shown and clears a selection past the end.
func (m *Map) SetTable(table *grid.Table3) error {
	if m.tiles == nil {
		return ErrDestroyed
	}
	if table == nil {
		return ErrNilInput
	}
	if err := m.tiles.SetTable(table); err != nil {
		return err
	}
	m.table = table
	if len(m.visible) != table.ZSize() {
		m.visible = make([]bool, table.ZSize())
		for i := range m.visible {
			m.visible[i] = true
		}
		if m.selected >= table.ZSize() {
			m.selected = -1
		}
	}
	if m.grid != nil {
		m.grid.SetMapSize(table.XSize(), table.YSize())
	}
	return m.recalculatePassages()
}

// SetBlockers sets the map objects that take part in passage calculation.
func (m *Map) SetBlockers(blockers []collision.Blocker) error {
	if m.tiles == nil {
		return ErrDestroyed
	}
	m.blockers = append(m.blockers[:0], blockers...)
	return m.recalculatePassages()
}

func (m *Map) recalculatePassages() error {
	if m.collision == nil {
		return nil
	}
	passages, err := collision.Calculate(m.table, *m.opts.collision, m.blockers)
	if err != nil {
		return err
	}
	if err := m.collision.SetPassages(passages); err != nil {
		return err
	}
	m.passages = passages
	return nil
}

// SetAtlas swaps the tileset, as after a hot reload. The map keeps a
// reference to a and drops the one to the previous atlas.
func (m *Map) SetAtlas(a *atlas.Atlas) error {
	if m.tiles == nil {
		return ErrDestroyed
	}
	if a == nil {
		return ErrNilInput
	}
	next, err := m.newTileRenderer(a)
	if err != nil {
		return err
	}
	next.SetAniIndex(m.tiles.AniIndex())
	m.tiles.Destroy()
	m.tiles = next
	m.atlas.Release()
	m.atlas = a.Retain()
	return nil
}

// SetViewport sets the canvas size, pan offset and zoom scale. Like the
// other viewport setters it does nothing after Destroy.
func (m *Map) SetViewport(size, pan mgl32.Vec2, scale float32) {
	if m.viewport != nil {
		m.viewport.Set(size, pan, scale)
	}
}

// PanBy moves the map by delta screen pixels.
func (m *Map) PanBy(delta mgl32.Vec2) {
	if m.viewport != nil {
		m.viewport.SetPan(m.viewport.Pan().Add(delta))
	}
}

// ZoomBy multiplies the zoom scale by factor, keeping the map pixel under
// anchor fixed on screen. The scale is clamped to [MinScale, MaxScale].
func (m *Map) ZoomBy(factor float32, anchor mgl32.Vec2) {
	if factor <= 0 || m.viewport == nil {
		return
	}
	scale := mgl32.Clamp(m.viewport.Scale()*factor, MinScale, MaxScale)
	p := m.ScreenToMap(anchor)
	pan := anchor.Sub(p.Mul(scale))
	m.viewport.Set(m.viewport.Size(), pan, scale)
}

// ScreenToMap converts a canvas position to map pixels. After Destroy it
// returns s unchanged.
func (m *Map) ScreenToMap(s mgl32.Vec2) mgl32.Vec2 {
	if m.viewport == nil {
		return s
	}
	return s.Sub(m.viewport.Pan()).Mul(1 / m.viewport.Scale())
}

// CellAt returns the cell under canvas position s.
func (m *Map) CellAt(s mgl32.Vec2) (x, y int, ok bool) {
	if m.viewport == nil {
		return 0, 0, false
	}
	p := m.ScreenToMap(s)
	if p.X() < 0 || p.Y() < 0 {
		return 0, 0, false
	}
	x, y = int(p.X())/atlas.TileSize, int(p.Y())/atlas.TileSize
	return x, y, x < m.table.XSize() && y < m.table.YSize()
}

// SetPixelsPerPoint updates the grid line scale for HiDPI displays.
func (m *Map) SetPixelsPerPoint(ppp float32) {
	if m.grid == nil || ppp <= 0 {
		return
	}
	s := m.grid.Style()
	s.PixelsPerPoint = ppp
	m.grid.SetStyle(s)
}

// SetGridStyle restyles the grid overlay. It is a no-op without one.
func (m *Map) SetGridStyle(s GridStyle) {
	if m.grid != nil {
		m.grid.SetStyle(s)
	}
}

// SetCollisionColor recolours the collision overlay.
func (m *Map) SetCollisionColor(c mgl32.Vec4) {
	if m.collision != nil {
		m.collision.SetColor(c)
	}
}

// SetLayerVisible shows or hides a layer.
func (m *Map) SetLayerVisible(layer int, visible bool) error {
	if layer < 0 || layer >= len(m.visible) {
		return fmt.Errorf("%w: %d of %d", ErrLayerOutOfRange, layer, len(m.visible))
	}
	m.visible[layer] = visible
	return nil
}

// LayerVisible reports whether a layer is shown.
func (m *Map) LayerVisible(layer int) bool {
	return layer >= 0 && layer < len(m.visible) && m.visible[layer]
}

// SelectLayer focuses a layer, dimming the others. A negative layer
// clears the selection.
func (m *Map) SelectLayer(layer int) error {
	if layer >= len(m.visible) {
		return fmt.Errorf("%w: %d of %d", ErrLayerOutOfRange, layer, len(m.visible))
	}
	m.selected = max(layer, -1)
	return nil
}

// SelectedLayer returns the focused layer, or -1.
func (m *Map) SelectedLayer() int { return m.selected }

// Tick advances the animation clock to now and returns the delay until
// the next frame change, for repaint scheduling.
func (m *Map) Tick(now time.Time) time.Duration {
	_, next := m.animator.Advance(now)
	return next
}

// Draw records the map into pass: tiles, then collision, then grid. A
// non-empty rect confines drawing to that region of the attachment and
// resizes the viewport to match.
func (m *Map) Draw(pass RenderPass, rect image.Rectangle) (FrameStats, error) {
	var fs FrameStats
	if m.tiles == nil {
		return fs, ErrDestroyed
	}
	if !rect.Empty() {
		m.viewport.SetSize(mgl32.Vec2{float32(rect.Dx()), float32(rect.Dy())})
		if rp, ok := pass.(gpu.RegionPass); ok {
			rp.SetViewport(float32(rect.Min.X), float32(rect.Min.Y), float32(rect.Dx()), float32(rect.Dy()), 0, 1)
			rp.SetScissorRect(uint32(max(rect.Min.X, 0)), uint32(max(rect.Min.Y, 0)), uint32(rect.Dx()), uint32(rect.Dy())) //nolint:gosec // clamped
		}
	}

	m.tiles.SetAniIndex(m.animator.Index())
	stats, err := m.tiles.Draw(pass, gpu.DrawParams{
		Visible:    m.visible,
		Selected:   m.selected,
		DimOpacity: m.opts.dimOpacity,
	})
	if err != nil {
		return fs, err
	}
	fs.Draws, fs.Instances, fs.AniIndex = stats.Draws, stats.Instances, m.tiles.AniIndex()

	if m.collision != nil {
		if err := m.collision.Draw(pass); err != nil {
			return fs, err
		}
	}
	if m.grid != nil {
		if err := m.grid.Draw(pass); err != nil {
			return fs, err
		}
	}
	return fs, nil
}

// Destroy releases every GPU object and the atlas reference. It is safe
// to call more than once.
func (m *Map) Destroy() {
	if m.grid != nil {
		m.grid.Destroy()
		m.grid = nil
	}
	if m.collision != nil {
		m.collision.Destroy()
		m.collision = nil
	}
	if m.tiles != nil {
		m.tiles.Destroy()
		m.tiles = nil
	}
	if m.viewport != nil {
		m.viewport.Destroy()
		m.viewport = nil
	}
	if m.atlas != nil {
		m.atlas.Release()
		m.atlas = nil
	}
}

package tilemap

import (
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilemap/collision"
	"github.com/gogpu/tilemap/internal/gpu"
)

// Option configures a Map or a CellPicker during creation. Options that
// do not apply to what is being created are ignored.
//
// Example:
//
//	m, err := tilemap.New(device, queue, a, table, size,
//	    tilemap.WithSelectedLayer(1),
//	    tilemap.WithGrid(tilemap.DefaultGridStyle),
//	)
type Option func(*options)

type options struct {
	caps       *Capabilities
	selected   int
	dimOpacity float32
	grid       *GridStyle
	collision  *collision.Tileset
	target     gpu.Target
	label      string
	spirv      bool
	interval   time.Duration

	cellColumns int
	cellScale   float32
	hue         float32
}

func defaultOptions() options {
	return options{
		selected:  -1,
		interval:  DefaultAnimationInterval,
		cellScale: DefaultCellScale,
	}
}

// WithCapabilities overrides capability detection. Use it to force the
// uniform-buffer path on a backend that has push constants.
func WithCapabilities(c Capabilities) Option {
	return func(o *options) {
		o.caps = &c
	}
}

// WithSelectedLayer sets the initially focused layer. Other layers are
// dimmed. Negative means no selection.
func WithSelectedLayer(layer int) Option {
	return func(o *options) {
		o.selected = layer
	}
}

// WithDimOpacity sets the opacity of unselected layers.
func WithDimOpacity(opacity float32) Option {
	return func(o *options) {
		o.dimOpacity = opacity
	}
}

// WithGrid enables the cell grid overlay.
func WithGrid(style GridStyle) Option {
	return func(o *options) {
		o.grid = &style
	}
}

// WithCollision enables the collision overlay, deriving passages from the
// tileset's per-tile attributes.
func WithCollision(ts collision.Tileset) Option {
	return func(o *options) {
		o.collision = &ts
	}
}

// WithTargetFormat sets the color format of the pass the map draws into.
// FromProvider uses the surface format unless this is given.
func WithTargetFormat(format gputypes.TextureFormat) Option {
	return func(o *options) {
		o.target.Format = format
	}
}

// WithSampleCount sets the MSAA sample count of the target pass.
func WithSampleCount(n uint32) Option {
	return func(o *options) {
		o.target.SampleCount = n
	}
}

// WithLabel names the GPU objects of the map, for debuggers.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// WithSPIRV hands naga-compiled SPIR-V to the backend instead of WGSL.
func WithSPIRV(enabled bool) Option {
	return func(o *options) {
		o.spirv = enabled
	}
}

// WithAnimationInterval sets the autotile animation cadence.
func WithAnimationInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithCellColumns sets the width of a CellPicker in cells. The default
// lays every cell of the sheet in one row.
func WithCellColumns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cellColumns = n
		}
	}
}

// WithCellScale sets the display scale of a CellPicker.
func WithCellScale(scale float32) Option {
	return func(o *options) {
		if scale > 0 {
			o.cellScale = scale
		}
	}
}

// WithHue sets the initial hue rotation of a CellPicker in degrees.
func WithHue(degrees float32) Option {
	return func(o *options) {
		o.hue = degrees
	}
}

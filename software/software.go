// Package software is the CPU reference renderer of a tile map.
//
// Compose resolves every cell through the same rules as the GPU tile shader
// and blits the atlas rectangle it selects, so its output is the expected
// image of a GPU frame. Render adds the grid and collision overlays with gg
// and returns a context ready for PNG encoding.
package software

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"github.com/gogpu/tilemap/atlas"
	"github.com/gogpu/tilemap/autotile"
	"github.com/gogpu/tilemap/collision"
	"github.com/gogpu/tilemap/grid"
)

// ErrLayerMismatch is returned when the visibility flags do not match the
// table's layer count.
var ErrLayerMismatch = errors.New("software: layer count mismatch")

// DefaultDimOpacity is the opacity of unselected layers.
const DefaultDimOpacity = 0.5

// Params selects what is drawn.
type Params struct {
	// Visible has one entry per layer. Nil shows every layer.
	Visible []bool

	// Selected is the focused layer, or negative for none.
	Selected int

	// DimOpacity applies to unselected layers. Zero means
	// DefaultDimOpacity.
	DimOpacity float64

	// AniIndex is the autotile animation index.
	AniIndex uint32

	// Scale is an integer zoom factor. Zero means 1.
	Scale int
}

func (p Params) scale() int { return max(p.Scale, 1) }

func (p Params) layerOpacity(layer int) float64 {
	if p.Selected < 0 || p.Selected == layer {
		return 1
	}
	if p.DimOpacity == 0 {
		return DefaultDimOpacity
	}
	return p.DimOpacity
}

// Size returns the pixel size of a rendered table.
func Size(table *grid.Table3, scale int) image.Point {
	s := max(scale, 1) * atlas.TileSize
	return image.Pt(table.XSize()*s, table.YSize()*s)
}

// Compose draws the visible layers of table bottom to top onto a new
// transparent image.
func Compose(a *atlas.Atlas, table *grid.Table3, p Params) (*image.RGBA, error) {
	layers := table.ZSize()
	if p.Visible != nil && len(p.Visible) != layers {
		return nil, fmt.Errorf("%w: %d visibility flags for %d layers", ErrLayerMismatch, len(p.Visible), layers)
	}
	dst := image.NewRGBA(image.Rectangle{Max: Size(table, p.Scale)})
	src := a.Image()
	layout := a.Layout()
	cell := p.scale() * atlas.TileSize

	for z := range layers {
		if p.Visible != nil && !p.Visible[z] {
			continue
		}
		var opts *draw.Options
		if op := p.layerOpacity(z); op < 1 {
			if op <= 0 {
				continue
			}
			opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(op*255 + 0.5)})}
		}
		for y := range table.YSize() {
			for x := range table.XSize() {
				r, _ := table.At(x, y, z)
				sr, ok := layout.InstanceRect(autotile.Sanitize(r), p.AniIndex)
				if !ok {
					continue
				}
				dr := image.Rect(x*cell, y*cell, (x+1)*cell, (y+1)*cell)
				draw.NearestNeighbor.Scale(dst, dr, src, sr, draw.Over, opts)
			}
		}
	}
	return dst, nil
}

// Overlay styles for Render. A nil style disables the overlay.
type (
	GridStyle struct {
		Color color.Color
		Width float64
	}

	CollisionStyle struct {
		Color    color.Color
		Passages *grid.Table2
	}
)

// Options are the overlays drawn by Render.
type Options struct {
	Grid      *GridStyle
	Collision *CollisionStyle
}

// collisionBar is the bar thickness as a fraction of a cell.
const collisionBar = 0.125

// Render composes the map and draws the requested overlays on top.
func Render(a *atlas.Atlas, table *grid.Table3, p Params, o Options) (*gg.Context, error) {
	img, err := Compose(a, table, p)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContextForImage(img)
	cell := float64(p.scale() * atlas.TileSize)
	if o.Collision != nil && o.Collision.Passages != nil {
		if err := drawCollision(dc, o.Collision, cell); err != nil {
			return nil, err
		}
	}
	if o.Grid != nil {
		if err := drawGrid(dc, table.XSize(), table.YSize(), o.Grid, cell); err != nil {
			return nil, err
		}
	}
	return dc, nil
}

func drawGrid(dc *gg.Context, w, h int, s *GridStyle, cell float64) error {
	dc.SetColor(s.Color)
	dc.SetLineWidth(max(s.Width, 1))
	for x := 0; x <= w; x++ {
		dc.DrawLine(float64(x)*cell, 0, float64(x)*cell, float64(h)*cell)
	}
	for y := 0; y <= h; y++ {
		dc.DrawLine(0, float64(y)*cell, float64(w)*cell, float64(y)*cell)
	}
	return dc.Stroke()
}

func drawCollision(dc *gg.Context, s *CollisionStyle, cell float64) error {
	bar := cell * collisionBar
	t := s.Passages
	for y := range t.YSize() {
		for x := range t.XSize() {
			mask, _ := t.At(x, y)
			x0, y0 := float64(x)*cell, float64(y)*cell
			if mask&collision.Down != 0 {
				dc.DrawRectangle(x0, y0+cell-bar, cell, bar)
			}
			if mask&collision.Left != 0 {
				dc.DrawRectangle(x0, y0, bar, cell)
			}
			if mask&collision.Right != 0 {
				dc.DrawRectangle(x0+cell-bar, y0, bar, cell)
			}
			if mask&collision.Up != 0 {
				dc.DrawRectangle(x0, y0, cell, bar)
			}
		}
	}
	dc.SetColor(s.Color)
	return dc.Fill()
}

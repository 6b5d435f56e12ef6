package atlas

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Animation cell geometry. Animation sheets are AnimationColumns cells
// wide and arbitrarily tall; sheets taller than CellColumnHeight wrap into
// further columns of the cell atlas.
const (
	// CellSize is the edge of one animation cell.
	CellSize = 192

	// AnimationColumns is the number of cells per sheet row.
	AnimationColumns = 5

	// AnimationWidth is the width of a sheet and of each atlas column.
	AnimationWidth = CellSize * AnimationColumns

	// CellRows is the number of cell rows in one atlas column.
	CellRows = MaxSize / CellSize

	// CellColumnHeight is the height of one full atlas column.
	CellColumnHeight = CellRows * CellSize

	// CellsPerColumn is the number of cells in one full atlas column.
	CellsPerColumn = CellRows * AnimationColumns

	// placeholderSquare is the checker size of missing sheets.
	placeholderSquare = 16
)

var placeholderColors = [2]color.RGBA{{R: 255, B: 255, A: 255}, {A: 255}}

// CellAtlas is an animation sheet laid out for one texture. Cell n of the
// sheet lands at CellOrigin(n). A missing or unreadable sheet leaves a
// one-row placeholder so pickers still have something to show.
type CellAtlas struct {
	name   string
	img    *image.RGBA
	height int
	err    error
}

// BuildCells lays out an animation sheet. in.Err and a sheet shorter than
// one cell are recorded on Err and never fail the build.
func BuildCells(in Input) *CellAtlas {
	c := &CellAtlas{name: in.Name, err: in.Err, height: CellSize}
	src := in.Image
	if src != nil && src.Bounds().Dy() < CellSize {
		c.err = fmt.Errorf("height %d below one cell", src.Bounds().Dy())
		src = nil
	}
	if src != nil {
		c.height = src.Bounds().Dy() / CellSize * CellSize
	}

	columns := c.Columns()
	c.img = image.NewRGBA(image.Rect(0, 0, columns*AnimationWidth, min(c.height, CellColumnHeight)))
	fillPlaceholder(c.img)
	if src == nil {
		if c.err != nil {
			slogger().Warn("animation sheet unusable", "name", in.Name, "err", c.err)
		}
		return c
	}

	b := src.Bounds()
	w := min(AnimationWidth, b.Dx())
	for i := range columns {
		h := CellColumnHeight
		if i == columns-1 {
			h = c.height - CellColumnHeight*i
		}
		dst := image.Rect(AnimationWidth*i, 0, AnimationWidth*i+w, h)
		draw.Draw(c.img, dst, src, b.Min.Add(image.Pt(0, CellColumnHeight*i)), draw.Src)
	}
	slogger().Debug("cell atlas built", "name", in.Name, "patterns", c.Patterns(), "columns", columns)
	return c
}

func fillPlaceholder(img *image.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, placeholderColors[(x/placeholderSquare+y/placeholderSquare)%2])
		}
	}
}

// Name returns the sheet name the atlas was built from.
func (c *CellAtlas) Name() string { return c.name }

// Image returns the laid-out RGBA pixels. Callers must not modify it.
func (c *CellAtlas) Image() *image.RGBA { return c.img }

// Err returns the problem recorded while building, if any.
func (c *CellAtlas) Err() error { return c.err }

// AnimationHeight returns the sheet height rounded down to whole cells,
// or CellSize for a placeholder.
func (c *CellAtlas) AnimationHeight() int { return c.height }

// Columns returns the number of atlas columns the sheet wraps into.
func (c *CellAtlas) Columns() int { return ceilDiv(c.height, CellColumnHeight) }

// Patterns returns the number of addressable cells.
func (c *CellAtlas) Patterns() int { return c.height / CellSize * AnimationColumns }

// CellOrigin returns the top-left atlas pixel of cell. Negative cells
// map to cell 0.
func CellOrigin(cell int) image.Point {
	cell = max(cell, 0)
	return image.Point{
		X: (cell%AnimationColumns + cell/CellsPerColumn*AnimationColumns) * CellSize,
		Y: cell / AnimationColumns % CellRows * CellSize,
	}
}

// CellRect returns the atlas rectangle of cell. ok is false for cells
// outside the sheet, which draw nothing.
func (c *CellAtlas) CellRect(cell int) (image.Rectangle, bool) {
	if cell < 0 || cell >= c.Patterns() {
		return image.Rectangle{}, false
	}
	o := CellOrigin(cell)
	return image.Rectangle{Min: o, Max: o.Add(image.Pt(CellSize, CellSize))}, true
}

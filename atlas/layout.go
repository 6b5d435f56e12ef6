package atlas

import (
	"image"

	"github.com/gogpu/tilemap/autotile"
)

// Atlas geometry. All values are pixels unless the name says rows or
// columns.
const (
	// MaxSize is the largest atlas edge. It matches the 2-D texture limit
	// of WebGL2-class devices.
	MaxSize = 8192

	// TileSize is the edge of one tile.
	TileSize = autotile.TileSize

	// TilesetColumns is the number of tiles per tileset row.
	TilesetColumns = 8

	// TilesetWidth is the width of the tileset sheet and of each tileset
	// strip placed in the atlas.
	TilesetWidth = TileSize * TilesetColumns

	// FrameColumns is the number of composed autotile cells per frame row.
	FrameColumns = 8

	// FrameWidth is the width of one composed autotile frame.
	FrameWidth = FrameColumns * TileSize

	// SlotRows is the number of cell rows one composed autotile occupies.
	SlotRows = autotile.PatternCount / FrameColumns

	// SlotHeight is the height of one composed autotile.
	SlotHeight = SlotRows * TileSize

	// AutotileHeight is the height of the autotile band at the top.
	AutotileHeight = SlotHeight * autotile.Slots

	// AutotileRows is AutotileHeight in rows.
	AutotileRows = SlotRows * autotile.Slots

	// HeightUnder is the space left below the autotile band.
	HeightUnder = MaxSize - AutotileHeight

	// RowsUnder is HeightUnder in rows.
	RowsUnder = MaxSize/TileSize - AutotileRows

	// SideRows is the number of rows in a full-height side strip.
	SideRows = MaxSize / TileSize

	// MissingTilesetHeight is reported when no tileset image exists, so
	// pickers still get a usable canvas.
	MissingTilesetHeight = 256
)

// Layout describes where everything lives inside an atlas image.
// It is a pure function of the frame counts and the tileset height.
type Layout struct {
	// Width and Height are the atlas pixel size.
	Width, Height int

	// Frames holds the frame count per autotile slot. Zero marks an
	// absent slot, which draws nothing.
	Frames [autotile.Slots]int

	// AutotileWidth is the width of the autotile band, one FrameWidth per
	// frame of the longest strip.
	AutotileWidth int

	// SheetHeight is the tileset sheet height as decoded, zero when
	// there is no sheet.
	SheetHeight int

	// TilesetHeight is the part of the sheet copied into the atlas:
	// SheetHeight rounded down to whole tiles, or MissingTilesetHeight
	// when there is no sheet. A partial bottom row is never addressable.
	TilesetHeight int

	// TileCount is the number of addressable tileset cells.
	TileCount int

	// RowsUnder and RowsSide count tileset strips placed under the
	// autotile band and to its right. A tileset that fits below the band
	// uses one strip under and none to the side.
	RowsUnder, RowsSide int
}

// ComputeLayout derives the atlas layout. tilesetHeight <= 0 means the
// tileset is absent.
func ComputeLayout(frames [autotile.Slots]int, tilesetHeight int) Layout {
	l := Layout{Frames: frames}

	maxFrames := 1
	for i, f := range frames {
		if f < 0 {
			l.Frames[i] = 0
		}
		maxFrames = max(maxFrames, f)
	}
	l.AutotileWidth = maxFrames * FrameWidth

	if tilesetHeight > 0 {
		l.SheetHeight = tilesetHeight
		l.TilesetHeight = tilesetHeight / TileSize * TileSize
		l.TileCount = l.TilesetHeight / TileSize * TilesetColumns
	} else {
		l.TilesetHeight = MissingTilesetHeight
	}

	if AutotileHeight+l.TilesetHeight < MaxSize {
		l.Width = max(l.AutotileWidth, TilesetWidth)
		l.Height = AutotileHeight + l.TilesetHeight
		l.RowsUnder = 1
		return l
	}

	l.RowsUnder = min(ceilDiv(l.TilesetHeight, HeightUnder), ceilDiv(l.AutotileWidth, TilesetWidth))
	l.RowsSide = ceilDiv(max(l.TilesetHeight-l.RowsUnder*HeightUnder, 0), MaxSize)
	l.Width = max((l.RowsUnder+l.RowsSide)*TilesetWidth, l.AutotileWidth)
	l.Height = MaxSize
	return l
}

// MaxFrames returns the frame count of the longest autotile strip.
func (l Layout) MaxFrames() int { return l.AutotileWidth / FrameWidth }

// AutotileOrigin returns the top-left pixel of a composed autotile cell.
func (l Layout) AutotileOrigin(slot, pattern, frame int) image.Point {
	return image.Point{
		X: frame*FrameWidth + pattern%FrameColumns*TileSize,
		Y: slot*SlotHeight + pattern/FrameColumns*TileSize,
	}
}

// TileOrigin returns the top-left pixel of tileset cell index.
// Cells fill the strips under the autotile band first, one strip per
// autotile frame column, then the full-height strips to the right.
func (l Layout) TileOrigin(index int) image.Point {
	maxFrames := l.MaxFrames()
	maxUnder := maxFrames * RowsUnder * TilesetColumns
	col := index % TilesetColumns
	if index < maxUnder {
		strip := index / (RowsUnder * TilesetColumns)
		return image.Point{
			X: (col + strip*TilesetColumns) * TileSize,
			Y: (index/TilesetColumns%RowsUnder + AutotileRows) * TileSize,
		}
	}
	j := index - maxUnder
	strip := j/(SideRows*TilesetColumns) + maxFrames
	return image.Point{
		X: (col + strip*TilesetColumns) * TileSize,
		Y: j / TilesetColumns % SideRows * TileSize,
	}
}

// strip is one vertical band of the tileset sheet copied into the atlas.
type strip struct {
	src image.Rectangle
	dst image.Point
}

// strips returns the tileset bands and their atlas destinations.
func (l Layout) strips() []strip {
	if l.TileCount == 0 {
		return nil
	}
	if l.RowsSide == 0 && AutotileHeight+l.TilesetHeight < MaxSize {
		return []strip{{
			src: image.Rect(0, 0, TilesetWidth, l.TilesetHeight),
			dst: image.Pt(0, AutotileHeight),
		}}
	}
	out := make([]strip, 0, l.RowsUnder+l.RowsSide)
	for i := range l.RowsUnder {
		y := HeightUnder * i
		h := min(HeightUnder, l.TilesetHeight-y)
		out = append(out, strip{
			src: image.Rect(0, y, TilesetWidth, y+h),
			dst: image.Pt(TilesetWidth*i, AutotileHeight),
		})
	}
	for i := range l.RowsSide {
		y := HeightUnder*l.RowsUnder + MaxSize*i
		h := min(MaxSize, l.TilesetHeight-y)
		out = append(out, strip{
			src: image.Rect(0, y, TilesetWidth, y+h),
			dst: image.Pt(TilesetWidth*(l.RowsUnder+i), 0),
		})
	}
	return out
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

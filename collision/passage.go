// Package collision derives per-cell passability from tile attributes.
//
// A passage value is a 4-bit mask of blocked directions. Each tile id of a
// tileset carries a passage mask and a priority; a cell is blocked in a
// direction when the topmost tile that decides that direction blocks it.
// A priority-0 tile decides every direction it does not block, so tiles
// beneath it never matter.
package collision

import (
	"errors"
	"fmt"

	"github.com/gogpu/tilemap/autotile"
	"github.com/gogpu/tilemap/grid"
)

// Directions of a passage mask.
const (
	Down  int16 = 1
	Left  int16 = 2
	Right int16 = 4
	Up    int16 = 8

	// All blocks every direction.
	All = Down | Left | Right | Up
)

var directions = [...]int16{Down, Left, Right, Up}

// ErrNilTable is returned by Calculate without a tile table.
var ErrNilTable = errors.New("collision: nil tile table")

// Attr is the passage and priority of one tile.
type Attr struct {
	Passage  int16
	Priority int16
}

// Passage folds the attributes of the tiles stacked on one cell, topmost
// first, into a blocked-direction mask.
func Passage(stack []Attr) int16 {
	var mask int16
	for _, dir := range directions {
		for _, a := range stack {
			if a.Passage&dir != 0 {
				mask |= dir
				break
			}
			if a.Priority == 0 {
				break
			}
		}
	}
	return mask
}

// Blocker is a map object standing on a cell. It is considered above
// every tile layer.
type Blocker struct {
	X, Y int
	Attr Attr
}

// Tileset holds the per-id attributes of a tileset. Ids outside both
// slices, and negative ids, count as passable priority-0 tiles.
type Tileset struct {
	Passages   []int16
	Priorities []int16
}

// Attr returns the attributes of tile id r.
func (ts Tileset) Attr(r autotile.Ref) Attr {
	id := int(r)
	if id < 0 || id >= len(ts.Passages) || id >= len(ts.Priorities) {
		return Attr{}
	}
	return Attr{Passage: ts.Passages[id], Priority: ts.Priorities[id]}
}

// Calculate computes the passage mask of every cell of tiles. Layers are
// consulted from the top one down. Blockers outside the map are ignored;
// when several share a cell the last one wins.
func Calculate(tiles *grid.Table3, ts Tileset, blockers []Blocker) (*grid.Table2, error) {
	if tiles == nil {
		return nil, ErrNilTable
	}
	out, err := grid.NewTable2(tiles.XSize(), tiles.YSize())
	if err != nil {
		return nil, fmt.Errorf("collision: %w", err)
	}

	onCell := make(map[[2]int]Attr, len(blockers))
	for _, b := range blockers {
		onCell[[2]int{b.X, b.Y}] = b.Attr
	}

	stack := make([]Attr, 0, tiles.ZSize()+1)
	for y := range tiles.YSize() {
		for x := range tiles.XSize() {
			stack = stack[:0]
			if a, ok := onCell[[2]int{x, y}]; ok {
				stack = append(stack, a)
			}
			stack = appendLayers(stack, tiles, ts, x, y)
			// In range by construction.
			_ = out.Set(x, y, Passage(stack))
		}
	}
	return out, nil
}

// Cell computes the passage mask of one cell, matching Calculate. Cells
// outside tiles are passable.
func Cell(tiles *grid.Table3, ts Tileset, blockers []Blocker, x, y int) int16 {
	if x < 0 || y < 0 || x >= tiles.XSize() || y >= tiles.YSize() {
		return 0
	}
	stack := make([]Attr, 0, tiles.ZSize()+1)
	for i := len(blockers) - 1; i >= 0; i-- {
		if b := blockers[i]; b.X == x && b.Y == y {
			stack = append(stack, b.Attr)
			break
		}
	}
	return Passage(appendLayers(stack, tiles, ts, x, y))
}

// appendLayers appends the attributes of the tiles on (x, y), top first.
func appendLayers(stack []Attr, tiles *grid.Table3, ts Tileset, x, y int) []Attr {
	for z := tiles.ZSize() - 1; z >= 0; z-- {
		r, _ := tiles.At(x, y, z)
		stack = append(stack, ts.Attr(r))
	}
	return stack
}

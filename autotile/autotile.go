// Package autotile holds the fixed autotile composition table and the
// tile reference decomposition shared by the atlas builder, the CPU
// renderer and the WGSL tile shader.
//
// An autotile strip is a 96 px wide frame holding a 6×8 grid of 16 px
// quarter tiles. Each of the 48 patterns stitches four of those quarter
// tiles (top-left, top-right, bottom-left, bottom-right) into one 32 px
// cell.
package autotile

import "fmt"

// PatternCount is the number of composed variants per autotile.
const PatternCount = 48

// Patterns is the quadrant composition table. Entry order and values are
// fixed by the legacy map format and must not be changed.
var Patterns = [PatternCount][4]uint32{
	{26, 27, 32, 33}, {4, 27, 32, 33}, {26, 5, 32, 33}, {4, 5, 32, 33},
	{26, 27, 32, 11}, {4, 27, 32, 11}, {26, 5, 32, 11}, {4, 5, 32, 11},
	{26, 27, 10, 33}, {4, 27, 10, 33}, {26, 5, 10, 33}, {4, 5, 10, 33},
	{26, 27, 10, 11}, {4, 27, 10, 11}, {26, 5, 10, 11}, {4, 5, 10, 11},
	{24, 25, 30, 31}, {24, 5, 30, 31}, {24, 25, 30, 11}, {24, 5, 30, 11},
	{14, 15, 20, 21}, {14, 15, 20, 11}, {14, 15, 10, 21}, {14, 15, 10, 11},
	{28, 29, 34, 35}, {28, 29, 10, 35}, {4, 29, 34, 35}, {4, 29, 10, 35},
	{38, 39, 44, 45}, {4, 39, 44, 45}, {38, 5, 44, 45}, {4, 5, 44, 45},
	{24, 29, 30, 35}, {14, 15, 44, 45}, {12, 13, 18, 19}, {12, 13, 18, 11},
	{16, 17, 22, 23}, {16, 17, 10, 23}, {40, 41, 46, 47}, {4, 41, 46, 47},
	{36, 37, 42, 43}, {36, 5, 42, 43}, {12, 17, 18, 23}, {12, 13, 42, 43},
	{36, 41, 42, 47}, {16, 17, 46, 47}, {12, 17, 42, 47}, {0, 1, 6, 7},
}

// Subtiles returns the four quarter-tile indices of pattern.
// Callers derive pattern as id%PatternCount; anything else is a bug.
func Subtiles(pattern int) [4]uint32 {
	if pattern < 0 || pattern >= PatternCount {
		panic(fmt.Sprintf("autotile: pattern %d out of range", pattern))
	}
	return Patterns[pattern]
}

// Strip geometry, in pixels unless stated otherwise.
const (
	// TileSize is the edge of one composed cell.
	TileSize = 32

	// SubtileSize is the edge of one quarter tile.
	SubtileSize = TileSize / 2

	// SubtileColumns is the number of quarter tiles per strip frame row.
	SubtileColumns = 6

	// FrameWidth is the width of one animation frame in a source strip.
	FrameWidth = SubtileColumns * SubtileSize
)

// SubtileOrigin returns the top-left pixel of quarter tile sub inside
// frame of a source strip.
func SubtileOrigin(sub uint32, frame int) (x, y int) {
	x = int(sub%SubtileColumns)*SubtileSize + frame*FrameWidth
	y = int(sub/SubtileColumns) * SubtileSize
	return x, y
}

// FrameCount returns the number of animation frames in a strip of the
// given pixel width. Missing strips count as one frame.
func FrameCount(width int) int {
	n := width / FrameWidth
	if n < 1 {
		return 1
	}
	return n
}

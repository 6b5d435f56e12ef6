package gpu

import (
	"encoding/binary"

	"github.com/gogpu/tilemap/atlas"
	"github.com/gogpu/tilemap/autotile"
)

// autotilesSize is the byte size of the WGSL Autotiles struct:
//
//	frames     array<vec4<u32>, 2>  0..32  frame count per slot, 0 = absent
//	ani_index  u32                  32
//	map_width  u32                  36
//	tile_count u32                  40
//	max_frames u32                  44
const autotilesSize = 48

// autotileState is the per-map animation block read by the tile shader.
// Only ani_index changes after construction.
type autotileState struct {
	frames    [autotile.Slots]uint32
	mapWidth  uint32
	tileCount uint32
	maxFrames uint32
	ani       uint32
	bytes     [autotilesSize]byte
}

func newAutotileState(layout atlas.Layout, mapWidth int) *autotileState {
	s := &autotileState{
		mapWidth:  uint32(mapWidth),         //nolint:gosec // int16-bounded
		tileCount: uint32(layout.TileCount), //nolint:gosec // bounded by MaxSize
		maxFrames: uint32(layout.MaxFrames()),
	}
	for i, f := range layout.Frames {
		s.frames[i] = uint32(f) //nolint:gosec // frame counts are small
	}
	s.encode()
	return s
}

// setAniIndex reports whether the index changed.
func (s *autotileState) setAniIndex(ani uint32) bool {
	if s.ani == ani {
		return false
	}
	s.ani = ani
	binary.LittleEndian.PutUint32(s.bytes[32:], ani)
	return true
}

func (s *autotileState) setMapWidth(width int) {
	s.mapWidth = uint32(width) //nolint:gosec // int16-bounded
	binary.LittleEndian.PutUint32(s.bytes[36:], s.mapWidth)
}

func (s *autotileState) encode() {
	for i, f := range s.frames {
		binary.LittleEndian.PutUint32(s.bytes[i*4:], f)
	}
	binary.LittleEndian.PutUint32(s.bytes[32:], s.ani)
	binary.LittleEndian.PutUint32(s.bytes[36:], s.mapWidth)
	binary.LittleEndian.PutUint32(s.bytes[40:], s.tileCount)
	binary.LittleEndian.PutUint32(s.bytes[44:], s.maxFrames)
}

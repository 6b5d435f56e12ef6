package autotile

// Ref is a tile reference as stored in a map cell.
type Ref int16

// Slots is the number of autotile strips a tileset can carry.
const Slots = 7

const (
	// AutotileRange is the first reference past the autotile groups.
	AutotileRange = PatternCount * Slots

	// TilesetBase is the first direct tileset reference. It reserves one
	// extra group past the autotile slots, so the value is tied to Slots
	// and must not be tuned on its own.
	TilesetBase = PatternCount * (Slots + 1)
)

// Empty is the instance value for cells that draw nothing.
const Empty uint32 = 0xFFFFFFFF

// Kind classifies a decomposed reference.
type Kind uint8

const (
	// KindEmpty draws nothing: negative, reserved or sanitised references.
	KindEmpty Kind = iota
	// KindAutotile selects a composed autotile variant.
	KindAutotile
	// KindTile selects a cell of the main tileset.
	KindTile
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAutotile:
		return "autotile"
	case KindTile:
		return "tile"
	default:
		return "empty"
	}
}

// Parts is the decomposition of a reference.
type Parts struct {
	Kind Kind

	// Group and Pattern are set for KindAutotile.
	Group   int
	Pattern int

	// Index is set for KindTile and counts row-major from the tileset origin.
	Index int
}

// Decompose splits r into its group/pattern or tile index.
func (r Ref) Decompose() Parts {
	return DecomposeInstance(Sanitize(r))
}

// Sanitize maps r onto the value uploaded to the instance buffer.
// Negative references and the reserved group become Empty.
func Sanitize(r Ref) uint32 {
	switch {
	case r < 0:
		return Empty
	case int(r) >= AutotileRange && int(r) < TilesetBase:
		return Empty
	default:
		return uint32(r)
	}
}

// DecomposeInstance decodes a raw instance buffer value. Values the
// uploader would never write, including corrupted ones, decode as empty.
func DecomposeInstance(v uint32) Parts {
	switch {
	case v == Empty:
		return Parts{Kind: KindEmpty}
	case v < AutotileRange:
		return Parts{
			Kind:    KindAutotile,
			Group:   int(v / PatternCount),
			Pattern: int(v % PatternCount),
		}
	case v < TilesetBase:
		return Parts{Kind: KindEmpty}
	case v <= 0x7FFF:
		return Parts{Kind: KindTile, Index: int(v - TilesetBase)}
	default:
		return Parts{Kind: KindEmpty}
	}
}

// AutotileRef returns the reference of pattern in autotile slot group.
func AutotileRef(group, pattern int) Ref {
	return Ref(group*PatternCount + pattern)
}

// TileRef returns the reference of tileset cell index.
func TileRef(index int) Ref {
	return Ref(TilesetBase + index)
}

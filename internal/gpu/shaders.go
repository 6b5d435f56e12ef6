package gpu

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilemap/atlas"
	"github.com/gogpu/tilemap/autotile"
)

//go:embed shaders/tiles.wgsl
var tilesBody string

//go:embed shaders/tiles_push.wgsl
var tilesPushHeader string

//go:embed shaders/tiles_uniform.wgsl
var tilesUniformHeader string

//go:embed shaders/grid.wgsl
var gridBody string

//go:embed shaders/collision.wgsl
var collisionBody string

//go:embed shaders/cells.wgsl
var cellsBody string

// shaderConstants mirrors the atlas geometry into WGSL so the shaders and
// the CPU resolver cannot drift apart.
var shaderConstants = fmt.Sprintf(`const TILE_SIZE: u32 = %du;
const PATTERN_COUNT: u32 = %du;
const AUTOTILE_RANGE: u32 = %du;
const TILESET_BASE: u32 = %du;
const EMPTY_TILE: u32 = %du;
const FRAME_COLUMNS: u32 = %du;
const FRAME_WIDTH: u32 = %du;
const SLOT_HEIGHT: u32 = %du;
const TILESET_COLUMNS: u32 = %du;
const AUTOTILE_ROWS: u32 = %du;
const ROWS_UNDER: u32 = %du;
const SIDE_ROWS: u32 = %du;
const CELL_SIZE: u32 = %du;
const ANIMATION_COLUMNS: u32 = %du;
const CELL_ROWS: u32 = %du;
const CELLS_PER_COLUMN: u32 = %du;
`,
	atlas.TileSize, autotile.PatternCount, autotile.AutotileRange, autotile.TilesetBase,
	autotile.Empty, atlas.FrameColumns, atlas.FrameWidth, atlas.SlotHeight,
	atlas.TilesetColumns, atlas.AutotileRows, atlas.RowsUnder, atlas.SideRows,
	atlas.CellSize, atlas.AnimationColumns, atlas.CellRows, atlas.CellsPerColumn)

var (
	pushReplacer    = strings.NewReplacer("FRAGMENT_OPACITY", "push_constants.opacity", "HOST.", "push_constants.")
	uniformReplacer = strings.NewReplacer("FRAGMENT_OPACITY", "layer_opacity.opacity", "HOST.", "")
)

// TileShaderSource returns the WGSL of the tile renderer variant. WGSL
// cannot branch on push-constant availability, so each binding path gets
// its own source.
func TileShaderSource(pushConstants bool) string {
	if pushConstants {
		return shaderConstants + tilesPushHeader + pushReplacer.Replace(tilesBody)
	}
	return shaderConstants + tilesUniformHeader + uniformReplacer.Replace(tilesBody)
}

// GridShaderSource returns the WGSL of the grid overlay.
func GridShaderSource() string { return shaderConstants + gridBody }

// CollisionShaderSource returns the WGSL of the collision overlay.
func CollisionShaderSource() string { return shaderConstants + collisionBody }

// CellShaderSource returns the WGSL of the animation cell renderer.
func CellShaderSource() string { return shaderConstants + cellsBody }

// ShaderSources returns every shader the package builds, keyed by label.
func ShaderSources() map[string]string {
	return map[string]string{
		"tiles_push":    TileShaderSource(true),
		"tiles_uniform": TileShaderSource(false),
		"grid":          GridShaderSource(),
		"collision":     CollisionShaderSource(),
		"cells":         CellShaderSource(),
	}
}

// CompileSPIRV compiles WGSL to SPIR-V words with naga.
func CompileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShaderCompile, err)
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// createShaderModule builds a module from WGSL, or from naga-compiled
// SPIR-V when spirv is set.
func createShaderModule(device hal.Device, label, source string, spirv bool) (hal.ShaderModule, error) {
	desc := &hal.ShaderModuleDescriptor{Label: label}
	if spirv {
		words, err := CompileSPIRV(source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		desc.Source = hal.ShaderSource{SPIRV: words}
	} else {
		desc.Source = hal.ShaderSource{WGSL: source}
	}
	module, err := device.CreateShaderModule(desc)
	if err != nil {
		return nil, fmt.Errorf("create %s shader: %w", label, err)
	}
	return module, nil
}

// Package gpu provides the instanced tile renderers behind package tilemap.
//
// It draws directly against the gogpu/wgpu hal layer: callers hand over a
// hal.Device and hal.Queue and record draws into a render pass they own.
// Nothing here creates a surface or submits command buffers.
//
// # Architecture Overview
//
// One map frame is a handful of draws sharing a single Viewport buffer:
//
//	Viewport -> TileRenderer (one instanced draw per layer) -> CollisionRenderer -> GridRenderer
//
// Key components:
//
//   - Viewport: orthographic projection with pan and zoom, one uniform buffer
//   - Instances: the tile grid as one u32 per cell, x-fastest then y then layer
//   - AtlasTexture: the tileset atlas, uploaded once per device and atlas
//   - TileRenderer: per-layer instanced draws with autotile animation state
//   - GridRenderer: cell borders drawn as one map-sized quad
//   - CollisionRenderer: passage arrows, one instance per cell
//   - CellRenderer: animation cells from one sheet, with a hue rotation,
//     used by the cell picker on its own Viewport
//
// # Binding Paths
//
// TileRenderer binds its per-frame state in one of two ways, chosen at
// construction:
//
//   - Push constants: a 128-byte block with the projection and autotile
//     state, plus the layer opacity at offset 112
//   - Uniforms: four bind groups (viewport, atlas, autotiles, opacity); the
//     opacity group has a 256-byte aligned dynamic offset per layer
//
// The push path requires a pass implementing PushConstantPass; WrapPass
// returns one when the hal encoder supports it. Overlays and the cell
// renderer always use uniforms.
//
// # Buffer Writes
//
// Every queue write goes through one uploader per renderer. A cell edit is
// a single 4-byte write, an unchanged viewport or grid style writes nothing,
// and an animation tick writes the autotile block only on the uniform path.
// MemoryStats reports the buffers each renderer holds.
//
// # Shaders
//
// Shaders are WGSL. ShaderSources lists every variant; CompileSPIRV runs
// one through naga, which the tilemapview -validate flag uses.
//
// # Error Handling
//
// Common errors returned by this package:
//
//   - ErrNilDevice: device or queue is nil
//   - ErrOutOfBounds: cell outside the grid
//   - ErrLayerMismatch: visibility does not match the layer count
//   - ErrPushConstantsUnsupported: push path drawn into a plain pass
//   - ErrShaderCompile: a shader failed to compile
//   - ErrDestroyed: renderer used after Destroy
package gpu

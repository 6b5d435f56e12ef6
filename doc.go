// Package tilemap renders layered 2-D tile maps with instanced GPU draws.
//
// # Overview
//
// tilemap is the rendering core of a tile-map editor in the style of
// RPG Maker XP. A tileset (one tile sheet plus up to seven animated autotile
// strips) is packed into a single atlas texture, every map cell becomes one
// 4-byte instance, and each visible layer is drawn with a single instanced
// call. Editing a cell costs one small buffer write.
//
// # Quick Start
//
//	loader := &atlas.DirLoader{Root: "Graphics", Tilesets: tilesets}
//	src, _ := loader.Load("Dungeon")
//	a := atlas.Build(src)
//	defer a.Release()
//
//	table, _ := grid.NewTable3(20, 15, 3)
//	m, err := tilemap.FromProvider(app.GPUContextProvider(), a, table,
//	    mgl32.Vec2{640, 480}, tilemap.WithGrid(tilemap.DefaultGridStyle))
//	if err != nil {
//	    return err
//	}
//	defer m.Destroy()
//
//	// In the paint callback:
//	next := m.Tick(time.Now())
//	m.Draw(tilemap.WrapPass(encoder), rect)
//	// schedule a repaint after next
//
// # Tile References
//
// A cell holds a 16-bit reference:
//   - 0..335: autotile group id/48, pattern id%48
//   - 336..383: reserved, draws nothing
//   - 384 and up: tileset tile id-384
//   - negative: empty
//
// See package autotile for the decomposition and package atlas for where
// each reference lands in the texture.
//
// # Binding Paths
//
// Backends with push constants get the per-frame block (projection and
// autotile state) and the per-layer opacity as push constants. Every other
// backend gets four uniform bind groups with a dynamic offset per layer.
// The path is chosen once from Capabilities and never changes for a Map.
//
// # Animation Cells
//
// CellPicker shows the 192-pixel cells of an animation sheet, built with
// atlas.BuildCells, and tracks the selected cell. Sheets taller than one
// texture column wrap into further columns.
//
// # Coordinate System
//
// Map pixels have the origin at the top-left cell, X right and Y down. The
// viewport maps a map pixel p to pan + p*scale on the canvas.
package tilemap

// Version is the current version of the library.
const Version = "0.3.0"

package main

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/tilemap/atlas"
	"github.com/gogpu/tilemap/autotile"
	"github.com/gogpu/tilemap/collision"
	"github.com/gogpu/tilemap/grid"
)

// Config is the preview description read from YAML.
type Config struct {
	// Graphics is the directory holding Tilesets/ and Autotiles/.
	Graphics string                        `yaml:"graphics"`
	Tilesets map[string]atlas.TilesetFiles `yaml:"tilesets"`
	Tileset  string                        `yaml:"tileset"`

	Map    string `yaml:"map"`
	Output string `yaml:"output"`

	Scale    int    `yaml:"scale"`
	AniIndex uint32 `yaml:"ani_index"`
	Selected *int   `yaml:"selected"`
	Visible  []bool `yaml:"visible"`

	Grid      *GridConfig      `yaml:"grid"`
	Collision *CollisionConfig `yaml:"collision"`
}

// GridConfig enables the grid overlay.
type GridConfig struct {
	Color YAMLColor `yaml:"color"`
	Width float64   `yaml:"width"`
}

// CollisionConfig enables the collision overlay from per-id attributes.
type CollisionConfig struct {
	Color      YAMLColor `yaml:"color"`
	Passages   []int16   `yaml:"passages"`
	Priorities []int16   `yaml:"priorities"`
}

// tileset returns the attribute table of the collision overlay.
func (c *CollisionConfig) tileset() collision.Tileset {
	return collision.Tileset{Passages: c.Passages, Priorities: c.Priorities}
}

// MapFile is a tile grid stored as YAML. Data is x-fastest, then y, then
// layer.
type MapFile struct {
	Width  int            `yaml:"width"`
	Height int            `yaml:"height"`
	Layers int            `yaml:"layers"`
	Data   []autotile.Ref `yaml:"data"`
}

// loadConfig reads and validates a config. Relative paths are resolved
// against the config's directory.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Config{Output: "preview.png", Scale: 1}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Tileset == "" {
		return nil, fmt.Errorf("%s: tileset is required", path)
	}
	if _, ok := cfg.Tilesets[cfg.Tileset]; !ok {
		return nil, fmt.Errorf("%s: tileset %q is not listed under tilesets", path, cfg.Tileset)
	}
	if cfg.Map == "" {
		return nil, fmt.Errorf("%s: map is required", path)
	}
	if cfg.Scale < 1 {
		return nil, fmt.Errorf("%s: scale %d must be at least 1", path, cfg.Scale)
	}

	dir := filepath.Dir(path)
	cfg.Graphics = resolve(dir, cfg.Graphics)
	cfg.Map = resolve(dir, cfg.Map)
	cfg.Output = resolve(dir, cfg.Output)
	return &cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// loadMap reads a MapFile into a table.
func loadMap(path string) (*grid.Table3, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mf MapFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if mf.Data == nil {
		return grid.NewTable3(mf.Width, mf.Height, mf.Layers)
	}
	t, err := grid.Table3From(mf.Width, mf.Height, mf.Layers, mf.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// YAMLColor is a color written as "#RRGGBB" or "#RRGGBBAA".
type YAMLColor struct {
	color.Color
}

var errColorFormat = errors.New("invalid color format")

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}
	s := strings.TrimPrefix(value.Value, "#")
	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("%w: %s", errColorFormat, value.Value)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fmt.Errorf("%w: %s", errColorFormat, value.Value)
	}
	if len(s) == 6 {
		v = v<<8 | 0xFF
	}
	c.Color = color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)} //nolint:gosec // byte extraction
	return nil
}

// or returns c, or def when c was not set.
func (c YAMLColor) or(def color.Color) color.Color {
	if c.Color == nil {
		return def
	}
	return c.Color
}

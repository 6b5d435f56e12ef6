package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/tilemap/atlas"
)

// writePNG writes a w×h image filled with c.
func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// testProject lays out a graphics directory, a two-cell map and a config.
func testProject(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "Graphics", "Tilesets", "town.png"), atlas.TilesetWidth, atlas.TileSize, color.NRGBA{G: 255, A: 255})
	writePNG(t, filepath.Join(dir, "Graphics", "Autotiles", "water.png"), 96, 128, color.NRGBA{B: 255, A: 255})
	writeFile(t, filepath.Join(dir, "town.yaml"), "width: 2\nheight: 1\nlayers: 1\ndata: [384, -1]\n")
	writeFile(t, filepath.Join(dir, "preview.yaml"), `graphics: Graphics
tilesets:
  Town:
    tileset: town
    autotiles: [water]
tileset: Town
map: town.yaml
output: out/town.png
`+extra)
	if err := os.MkdirAll(filepath.Join(dir, "out"), 0o755); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(dir, "preview.yaml")
}

func TestLoadConfig(t *testing.T) {
	path := testProject(t, "scale: 2\nselected: 0\ngrid:\n  color: \"#ffffff80\"\n")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	dir := filepath.Dir(path)
	if cfg.Graphics != filepath.Join(dir, "Graphics") || cfg.Output != filepath.Join(dir, "out", "town.png") {
		t.Errorf("paths not resolved against the config: %q, %q", cfg.Graphics, cfg.Output)
	}
	if cfg.Scale != 2 || cfg.Selected == nil || *cfg.Selected != 0 {
		t.Errorf("scale/selected = %d/%v", cfg.Scale, cfg.Selected)
	}
	if got := cfg.Grid.Color.Color; got != (color.NRGBA{R: 255, G: 255, B: 255, A: 128}) {
		t.Errorf("grid color = %v", got)
	}
	if cfg.Tilesets["Town"].Autotiles[0] != "water" {
		t.Errorf("tilesets = %+v", cfg.Tilesets)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name, content, want string
	}{
		{"no tileset", "map: m.yaml\n", "tileset is required"},
		{"unknown tileset", "tileset: X\nmap: m.yaml\n", "not listed"},
		{"no map", "tileset: X\ntilesets: {X: {tileset: a}}\n", "map is required"},
		{"bad scale", "tileset: X\ntilesets: {X: {tileset: a}}\nmap: m.yaml\nscale: 0\n", "scale"},
		{"bad yaml", "tileset: [\n", "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
			writeFile(t, path, tt.content)
			_, err := loadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
	if _, err := loadConfig(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v", err)
	}
}

func TestLoadMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.yaml")
	writeFile(t, path, "width: 2\nheight: 2\nlayers: 2\ndata: [1, 2, 3, 4, 5, 6, 7, 8]\n")
	table, err := loadMap(path)
	if err != nil {
		t.Fatalf("loadMap: %v", err)
	}
	if r, _ := table.At(1, 1, 1); r != 8 {
		t.Errorf("cell (1,1,1) = %d, want 8", r)
	}

	writeFile(t, path, "width: 3\nheight: 1\nlayers: 1\n")
	if table, err = loadMap(path); err != nil || table.Len() != 3 {
		t.Errorf("map without data: %v", err)
	}

	writeFile(t, path, "width: 3\nheight: 1\nlayers: 1\ndata: [1]\n")
	if _, err := loadMap(path); err == nil {
		t.Error("short data accepted")
	}
}

func TestYAMLColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.Color
		wantErr bool
	}{
		{`"#ff000099"`, color.NRGBA{R: 255, A: 0x99}, false},
		{`"00ff00"`, color.NRGBA{G: 255, A: 255}, false},
		{`"#fff"`, nil, true},
		{`"#gg0000"`, nil, true},
		{`[1, 2]`, nil, true},
	}
	for _, tt := range tests {
		var c YAMLColor
		err := yaml.Unmarshal([]byte(tt.in), &c)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && c.Color != tt.want {
			t.Errorf("%s = %v, want %v", tt.in, c.Color, tt.want)
		}
	}
	if got := (YAMLColor{}).or(color.White); got != color.White {
		t.Error("unset color did not fall back")
	}
}

func TestPreviewRender(t *testing.T) {
	path := testProject(t, "grid:\n  width: 1\ncollision:\n  passages: []\n")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	p := newPreview(cfg)
	defer p.cache.Clear()

	a, err := p.cache.Load(cfg.Tileset, p.loader.Load)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer a.Release()
	if len(a.Errors()) != 0 {
		t.Fatalf("atlas errors: %v", a.Errors())
	}
	if err := p.render(a); err != nil {
		t.Fatalf("render: %v", err)
	}

	data, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Fatalf("preview size = %v, want 64x32", b.Size())
	}
	if _, g, _, _ := img.At(16, 16).RGBA(); g>>8 != 255 {
		t.Errorf("direct tile pixel = %v, want tileset green", img.At(16, 16))
	}
	if _, _, _, alpha := img.At(48, 16).RGBA(); alpha != 0 {
		t.Errorf("empty cell pixel = %v, want transparent", img.At(48, 16))
	}

	if err := p.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if p.cache.Len() != 1 {
		t.Errorf("cache len = %d after reload, want 1", p.cache.Len())
	}
}

func TestValidateShaders(t *testing.T) {
	var out bytes.Buffer
	err := validateShaders(&out)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(out.String(), "not yet implemented") || strings.Contains(out.String(), "push_constant") ||
			strings.Contains(out.String(), "lowering error") || strings.Contains(out.String(), "not supported") {
			t.Skipf("Skipping: naga limitation: %v", errStr)
		}
		t.Fatalf("validateShaders: %v\n%s", err, out.String())
	}
	for _, label := range []string{"tiles_push", "tiles_uniform", "grid", "collision", "cells"} {
		if !strings.Contains(out.String(), label) {
			t.Errorf("output misses %s:\n%s", label, out.String())
		}
	}
}

func TestIsImage(t *testing.T) {
	for name, want := range map[string]bool{
		"a/b.PNG": true, "c.bmp": true, "d.webp": true, "e.yaml": false, "f": false,
	} {
		if isImage(name) != want {
			t.Errorf("isImage(%q) = %v", name, !want)
		}
	}
}

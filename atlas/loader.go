package atlas

import (
	"errors"
	"fmt"
	"image"
	_ "image/png" // tileset sheets are usually PNG
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"  // legacy projects ship BMP autotiles
	_ "golang.org/x/image/webp" // web exports ship WebP
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/tilemap/autotile"
)

// ErrUnknownTileset is returned by DirLoader for ids it has no entry for.
var ErrUnknownTileset = errors.New("atlas: unknown tileset")

// imageExts is the lookup order for names given without an extension.
var imageExts = []string{".png", ".bmp", ".webp"}

// TilesetFiles names the images of one tileset. Empty names are empty
// slots.
type TilesetFiles struct {
	Tileset   string   `yaml:"tileset"`
	Autotiles []string `yaml:"autotiles"`
	Frames    []int    `yaml:"frames"`
}

// DirLoader reads tileset images from Root/Tilesets and Root/Autotiles,
// and animation sheets from Root/Animations.
type DirLoader struct {
	Root     string
	Tilesets map[string]TilesetFiles
}

// Load implements LoadFunc. Images are decoded in parallel; a bad image
// is recorded on its Input and does not fail the load. Failures are
// logged once per load at warn level.
func (l *DirLoader) Load(id string) (Source, error) {
	files, ok := l.Tilesets[id]
	if !ok {
		return Source{}, fmt.Errorf("%w: %q", ErrUnknownTileset, id)
	}
	if len(files.Autotiles) > autotile.Slots {
		return Source{}, fmt.Errorf("atlas: tileset %q lists %d autotiles, max %d", id, len(files.Autotiles), autotile.Slots)
	}

	src := Source{ID: id}
	var g errgroup.Group
	g.SetLimit(4)
	g.Go(func() error {
		src.Tileset = l.read("Tilesets", files.Tileset)
		return src.Tileset.slotError(TilesetSlot)
	})
	for i, name := range files.Autotiles {
		g.Go(func() error {
			in := l.read("Autotiles", name)
			if i < len(files.Frames) {
				in.Frames = files.Frames[i]
			}
			src.Autotiles[i] = in
			return in.slotError(i)
		})
	}
	// Wait reports the first failure only; every one stays on its Input.
	if err := g.Wait(); err != nil {
		slogger().Warn("tileset images failed to load", "id", id, "failed", src.failed(), "first", err)
	}
	return src, nil
}

// LoadAnimation reads one animation sheet from Root/Animations. An empty
// name is an empty Input; a missing or broken sheet is recorded on Err.
func (l *DirLoader) LoadAnimation(name string) Input {
	in := l.read("Animations", name)
	if in.Err != nil {
		slogger().Warn("animation sheet failed to load", "name", name, "err", in.Err)
	}
	return in
}

func (l *DirLoader) read(dir, name string) Input {
	in := Input{Name: name}
	if name == "" {
		return in
	}
	path, err := l.resolve(dir, name)
	if err != nil {
		in.Err = err
		return in
	}
	f, err := os.Open(path)
	if err != nil {
		in.Err = err
		return in
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		in.Err = fmt.Errorf("decode %s: %w", path, err)
		return in
	}
	in.Image = img
	return in
}

func (l *DirLoader) resolve(dir, name string) (string, error) {
	base := filepath.Join(l.Root, dir, name)
	if filepath.Ext(name) != "" {
		return base, nil
	}
	for _, ext := range imageExts {
		if _, err := os.Stat(base + ext); err == nil {
			return base + ext, nil
		}
	}
	return "", fmt.Errorf("%s: %w", base, os.ErrNotExist)
}

// Paths returns the tileset directories DirLoader reads from, for file
// watchers.
func (l *DirLoader) Paths() []string {
	return []string{filepath.Join(l.Root, "Tilesets"), filepath.Join(l.Root, "Autotiles")}
}

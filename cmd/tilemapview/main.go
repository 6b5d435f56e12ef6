// Command tilemapview renders a tile map preview to PNG.
//
// Usage:
//
//	tilemapview -config preview.yaml
//	tilemapview -config preview.yaml -watch
//	tilemapview -validate
//
// With -watch the tileset images are watched and the preview is rebuilt
// whenever one of them changes.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/tilemap"
	"github.com/gogpu/tilemap/atlas"
	"github.com/gogpu/tilemap/collision"
	"github.com/gogpu/tilemap/internal/gpu"
	"github.com/gogpu/tilemap/software"
)

// reloadDebounce coalesces the burst of events one save produces.
const reloadDebounce = 100 * time.Millisecond

func main() {
	var (
		configPath = flag.String("config", "tilemapview.yaml", "preview config file")
		validate   = flag.Bool("validate", false, "compile the tile shaders and exit")
		watch      = flag.Bool("watch", false, "re-render when tileset images change")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	tilemap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*configPath, *validate, *watch); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string, validate, watch bool) error {
	if validate {
		return validateShaders(os.Stdout)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	p := newPreview(cfg)
	defer p.cache.Clear()

	a, err := p.cache.Load(cfg.Tileset, p.loader.Load)
	if err != nil {
		return err
	}
	err = p.render(a)
	a.Release()
	if err != nil {
		return err
	}
	log.Printf("Preview saved to %s", cfg.Output)

	if watch {
		return p.watch()
	}
	return nil
}

// validateShaders compiles every shader variant to SPIR-V.
func validateShaders(w io.Writer) error {
	sources := gpu.ShaderSources()
	labels := make([]string, 0, len(sources))
	for label := range sources {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	var failed []string
	for _, label := range labels {
		words, err := gpu.CompileSPIRV(sources[label])
		if err != nil {
			fmt.Fprintf(w, "FAIL %-14s %v\n", label, err)
			failed = append(failed, label)
			continue
		}
		fmt.Fprintf(w, "ok   %-14s %d words\n", label, len(words))
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d shader(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

// preview renders one config.
type preview struct {
	cfg    *Config
	loader *atlas.DirLoader
	cache  *atlas.Cache
}

func newPreview(cfg *Config) *preview {
	return &preview{
		cfg:    cfg,
		loader: &atlas.DirLoader{Root: cfg.Graphics, Tilesets: cfg.Tilesets},
		cache:  atlas.NewCache(),
	}
}

// render draws the map with a and writes the PNG.
func (p *preview) render(a *atlas.Atlas) error {
	for _, e := range a.Errors() {
		log.Printf("warning: %v", e)
	}
	table, err := loadMap(p.cfg.Map)
	if err != nil {
		return err
	}

	params := software.Params{
		Visible:  p.cfg.Visible,
		Selected: -1,
		AniIndex: p.cfg.AniIndex,
		Scale:    p.cfg.Scale,
	}
	if p.cfg.Selected != nil {
		params.Selected = *p.cfg.Selected
	}

	var opts software.Options
	if g := p.cfg.Grid; g != nil {
		opts.Grid = &software.GridStyle{Color: g.Color.or(color.NRGBA{A: 128}), Width: max(g.Width, 1)}
	}
	if c := p.cfg.Collision; c != nil {
		passages, err := collision.Calculate(table, c.tileset(), nil)
		if err != nil {
			return err
		}
		opts.Collision = &software.CollisionStyle{
			Color:    c.Color.or(color.NRGBA{R: 255, A: 153}),
			Passages: passages,
		}
	}

	dc, err := software.Render(a, table, params, opts)
	if err != nil {
		return err
	}
	return dc.SavePNG(p.cfg.Output)
}

// watch re-renders on tileset image changes until interrupted.
func (p *preview) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	for _, dir := range p.loader.Paths() {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	log.Printf("Watching %s", strings.Join(p.loader.Paths(), ", "))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)

	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 || !isImage(event.Name) {
				continue
			}
			pending = time.After(reloadDebounce)
		case <-pending:
			pending = nil
			if err := p.reload(); err != nil {
				log.Printf("reload: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		case <-stop:
			return nil
		}
	}
}

// reload rebuilds the atlas and the preview.
func (p *preview) reload() error {
	a, err := p.cache.Reload(p.cfg.Tileset, p.loader.Load)
	if err != nil {
		return err
	}
	defer a.Release()
	if err := p.render(a); err != nil {
		return err
	}
	log.Printf("Preview updated: %s", p.cfg.Output)
	return nil
}

func isImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".bmp", ".webp":
		return true
	}
	return false
}

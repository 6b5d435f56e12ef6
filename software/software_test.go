package software

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/tilemap/atlas"
	"github.com/gogpu/tilemap/autotile"
	"github.com/gogpu/tilemap/collision"
	"github.com/gogpu/tilemap/grid"
)

// subtileColor is the fill of sub-tile sub in frame f of the test strip.
func subtileColor(sub uint32, f int) color.RGBA {
	return color.RGBA{R: uint8(sub * 5), G: uint8(f * 40), B: 90, A: 255}
}

// tileColor is the fill of tileset cell i.
func tileColor(i int) color.RGBA {
	return color.RGBA{R: 10, G: uint8(i), B: 200, A: 255}
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// testAtlas builds an atlas with an autotile of frames frames in slot 0
// and a two-row tileset.
func testAtlas(t *testing.T, frames int) *atlas.Atlas {
	t.Helper()
	strip := image.NewRGBA(image.Rect(0, 0, frames*autotile.FrameWidth, 128))
	for f := range frames {
		for sub := range uint32(48) {
			x, y := autotile.SubtileOrigin(sub, f)
			fill(strip, image.Rect(x, y, x+autotile.SubtileSize, y+autotile.SubtileSize), subtileColor(sub, f))
		}
	}
	tileset := image.NewRGBA(image.Rect(0, 0, atlas.TilesetWidth, 2*atlas.TileSize))
	for i := range 2 * atlas.TilesetColumns {
		x, y := i%atlas.TilesetColumns*atlas.TileSize, i/atlas.TilesetColumns*atlas.TileSize
		fill(tileset, image.Rect(x, y, x+atlas.TileSize, y+atlas.TileSize), tileColor(i))
	}
	a := atlas.Build(atlas.Source{
		ID:        "software",
		Tileset:   atlas.Input{Name: "tileset", Image: tileset},
		Autotiles: [autotile.Slots]atlas.Input{{Name: "strip", Image: strip}},
	})
	t.Cleanup(a.Release)
	return a
}

func table(t *testing.T, w, h, layers int, refs ...autotile.Ref) *grid.Table3 {
	t.Helper()
	tb, err := grid.Table3From(w, h, layers, refs)
	if err != nil {
		t.Fatalf("Table3From: %v", err)
	}
	return tb
}

// uniformIn reports whether every pixel of r equals c.
func uniformIn(img *image.RGBA, r image.Rectangle, c color.RGBA) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) != c {
				return false
			}
		}
	}
	return true
}

func TestComposeDirectTile(t *testing.T) {
	a := testAtlas(t, 1)
	img, err := Compose(a, table(t, 1, 1, 1, autotile.TilesetBase), Params{Selected: -1})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if img.Bounds().Size() != image.Pt(32, 32) {
		t.Fatalf("size = %v, want 32x32", img.Bounds().Size())
	}
	if !uniformIn(img, img.Bounds(), tileColor(0)) {
		t.Errorf("cell is not tileset tile 0: pixel (0,0) = %v", img.RGBAAt(0, 0))
	}

	// Direct tiles ignore the animation clock.
	for _, ani := range []uint32{1, 7, 1000} {
		again, err := Compose(a, table(t, 1, 1, 1, autotile.TilesetBase), Params{Selected: -1, AniIndex: ani})
		if err != nil {
			t.Fatal(err)
		}
		if string(again.Pix) != string(img.Pix) {
			t.Errorf("ani %d changed a direct tile", ani)
		}
	}
}

func TestComposeAutotilePattern(t *testing.T) {
	a := testAtlas(t, 1)
	var first []byte
	for _, ani := range []uint32{0, 1, 5, 123} {
		img, err := Compose(a, table(t, 2, 1, 1, 0, -1), Params{Selected: -1, AniIndex: ani})
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		for q, sub := range autotile.Subtiles(0) {
			at := image.Pt(q%2*autotile.SubtileSize, q/2*autotile.SubtileSize)
			r := image.Rectangle{Min: at, Max: at.Add(image.Pt(autotile.SubtileSize, autotile.SubtileSize))}
			if !uniformIn(img, r, subtileColor(sub, 0)) {
				t.Errorf("ani %d quadrant %d: want sub-tile %d, got pixel %v", ani, q, sub, img.RGBAAt(r.Min.X, r.Min.Y))
			}
		}
		if !uniformIn(img, image.Rect(32, 0, 64, 32), color.RGBA{}) {
			t.Errorf("ani %d: empty cell is not transparent", ani)
		}
		if first == nil {
			first = img.Pix
		} else if string(first) != string(img.Pix) {
			t.Errorf("ani %d: single-frame autotile changed", ani)
		}
	}
}

func TestComposeAnimatedAutotile(t *testing.T) {
	a := testAtlas(t, 3)
	for ani := range uint32(6) {
		img, err := Compose(a, table(t, 1, 1, 1, autotile.AutotileRef(0, 0)), Params{Selected: -1, AniIndex: ani})
		if err != nil {
			t.Fatal(err)
		}
		sub := autotile.Subtiles(0)[0]
		if got, want := img.RGBAAt(0, 0), subtileColor(sub, int(ani%3)); got != want {
			t.Errorf("ani %d: pixel %v, want frame %d colour %v", ani, got, ani%3, want)
		}
	}
}

func TestComposeVisibilityAndOpacity(t *testing.T) {
	a := testAtlas(t, 1)
	tb := table(t, 1, 1, 2, autotile.TilesetBase, -1)

	img, err := Compose(a, tb, Params{Visible: []bool{false, true}, Selected: -1})
	if err != nil {
		t.Fatal(err)
	}
	if img.RGBAAt(5, 5) != (color.RGBA{}) {
		t.Errorf("hidden layer drawn: %v", img.RGBAAt(5, 5))
	}

	img, err = Compose(a, tb, Params{Selected: 1})
	if err != nil {
		t.Fatal(err)
	}
	got := img.RGBAAt(5, 5)
	if got.A < 126 || got.A > 129 {
		t.Errorf("dimmed layer alpha = %d, want about 128", got.A)
	}

	if _, err := Compose(a, tb, Params{Visible: []bool{true}}); !errors.Is(err, ErrLayerMismatch) {
		t.Errorf("err = %v, want ErrLayerMismatch", err)
	}
}

func TestComposeScale(t *testing.T) {
	a := testAtlas(t, 1)
	img, err := Compose(a, table(t, 2, 1, 1, autotile.TilesetBase, autotile.TilesetBase+1), Params{Selected: -1, Scale: 2})
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Size() != image.Pt(128, 64) {
		t.Fatalf("size = %v", img.Bounds().Size())
	}
	if !uniformIn(img, image.Rect(64, 0, 128, 64), tileColor(1)) {
		t.Error("scaled second cell is not tileset tile 1")
	}
}

func TestRenderOverlays(t *testing.T) {
	a := testAtlas(t, 1)
	tb := table(t, 2, 2, 1, autotile.TilesetBase, autotile.TilesetBase, autotile.TilesetBase, autotile.TilesetBase)
	passages, err := grid.NewTable2(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := passages.Set(1, 1, collision.Up); err != nil {
		t.Fatal(err)
	}
	dc, err := Render(a, tb, Params{Selected: -1}, Options{
		Collision: &CollisionStyle{Color: color.RGBA{R: 255, A: 255}, Passages: passages},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if dc.Width() != 64 || dc.Height() != 64 {
		t.Fatalf("context size = %dx%d", dc.Width(), dc.Height())
	}
	img := dc.Image()
	r, g, b, _ := img.At(48, 33).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("blocked top edge pixel = %v, want red", img.At(48, 33))
	}
	if got := img.At(48, 48); got == img.At(48, 33) {
		t.Error("cell centre painted as a collision bar")
	}

	if _, err := Render(a, tb, Params{Selected: -1}, Options{Grid: &GridStyle{Color: color.Black, Width: 1}}); err != nil {
		t.Errorf("Render with grid: %v", err)
	}
}

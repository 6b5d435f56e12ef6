package atlas

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/tilemap/autotile"
)

// stripImage returns an autotile strip of frames frames in which every
// quarter tile is filled with a colour encoding (sub, frame).
func stripImage(frames int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frames*autotile.FrameWidth, 128))
	for f := range frames {
		for sub := range uint32(48) {
			x0, y0 := autotile.SubtileOrigin(sub, f)
			c := color.RGBA{R: uint8(sub), G: uint8(f), B: 200, A: 255}
			for y := y0; y < y0+16; y++ {
				for x := x0; x < x0+16; x++ {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}
	return img
}

// tilesetImage returns a tileset whose cell i is filled with colour
// (i&0xff, i>>8, 100).
func tilesetImage(rows int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, TilesetWidth, rows*TileSize))
	for i := range rows * TilesetColumns {
		x0, y0 := i%TilesetColumns*TileSize, i/TilesetColumns*TileSize
		c := color.RGBA{R: uint8(i), G: uint8(i >> 8), B: 100, A: 255}
		for y := y0; y < y0+TileSize; y++ {
			for x := x0; x < x0+TileSize; x++ {
				img.SetRGBA(x, y, c)
			}
		}
	}
	return img
}

func TestComputeLayoutSmallTileset(t *testing.T) {
	l := ComputeLayout([autotile.Slots]int{1, 4, 0, 2}, 64*TileSize+5)
	if l.TilesetHeight != 64*TileSize {
		t.Errorf("TilesetHeight = %d, want %d", l.TilesetHeight, 64*TileSize)
	}
	if l.SheetHeight != 64*TileSize+5 {
		t.Errorf("SheetHeight = %d, want %d", l.SheetHeight, 64*TileSize+5)
	}
	if l.AutotileWidth != 4*FrameWidth {
		t.Errorf("AutotileWidth = %d, want %d", l.AutotileWidth, 4*FrameWidth)
	}
	if l.Width != 4*FrameWidth || l.Height != AutotileHeight+64*TileSize {
		t.Errorf("size = %dx%d", l.Width, l.Height)
	}
	if l.TileCount != 64*TilesetColumns {
		t.Errorf("TileCount = %d", l.TileCount)
	}
	if l.RowsUnder != 1 || l.RowsSide != 0 {
		t.Errorf("rows = %d/%d, want 1/0", l.RowsUnder, l.RowsSide)
	}
}

func TestComputeLayoutNoAutotiles(t *testing.T) {
	l := ComputeLayout([autotile.Slots]int{}, 0)
	if l.AutotileWidth != FrameWidth || l.Width != TilesetWidth {
		t.Errorf("width %d autotile width %d", l.Width, l.AutotileWidth)
	}
	if l.TilesetHeight != MissingTilesetHeight || l.TileCount != 0 || l.SheetHeight != 0 {
		t.Errorf("missing tileset: height %d/%d count %d", l.SheetHeight, l.TilesetHeight, l.TileCount)
	}
}

func TestComputeLayoutTallTileset(t *testing.T) {
	tests := []struct {
		name          string
		frames        int
		rows          int
		wantUnder     int
		wantSide      int
		wantWidthStrp int
	}{
		{"fits one strip under", 1, RowsUnder, 1, 0, 1},
		{"spills to side", 1, RowsUnder + 10, 1, 1, 2},
		{"two frames two strips under", 2, RowsUnder + 10, 2, 0, 2},
		{"two frames very tall", 2, 2*RowsUnder + SideRows + 1, 2, 2, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ComputeLayout([autotile.Slots]int{tt.frames}, tt.rows*TileSize)
			if l.RowsUnder != tt.wantUnder || l.RowsSide != tt.wantSide {
				t.Errorf("rows under/side = %d/%d, want %d/%d", l.RowsUnder, l.RowsSide, tt.wantUnder, tt.wantSide)
			}
			if l.Height != MaxSize || l.Width != tt.wantWidthStrp*TilesetWidth {
				t.Errorf("size = %dx%d", l.Width, l.Height)
			}
		})
	}
}

func TestTileOriginMatchesStrips(t *testing.T) {
	rows := 2*RowsUnder + SideRows + 3
	l := ComputeLayout([autotile.Slots]int{2}, rows*TileSize)
	strips := l.strips()
	for _, idx := range []int{0, 7, 8, RowsUnder*8 - 1, RowsUnder * 8, 2*RowsUnder*8 + 5, l.TileCount - 1} {
		srcY := idx / TilesetColumns * TileSize
		srcX := idx % TilesetColumns * TileSize
		var want image.Point
		found := false
		for _, s := range strips {
			if srcY >= s.src.Min.Y && srcY < s.src.Max.Y {
				want = s.dst.Add(image.Pt(srcX, srcY-s.src.Min.Y))
				found = true
			}
		}
		if !found {
			t.Fatalf("tile %d not covered by any strip", idx)
		}
		if got := l.TileOrigin(idx); got != want {
			t.Errorf("TileOrigin(%d) = %v, want %v", idx, got, want)
		}
	}
}

func TestBuildIdempotent(t *testing.T) {
	src := Source{
		ID:      "forest",
		Tileset: Input{Name: "forest", Image: tilesetImage(10)},
	}
	src.Autotiles[0] = Input{Name: "water", Image: stripImage(3)}
	src.Autotiles[4] = Input{Name: "lava", Image: stripImage(1)}

	a, b := Build(src), Build(src)
	defer a.Release()
	defer b.Release()
	if a.Layout() != b.Layout() {
		t.Fatalf("layouts differ:\n%+v\n%+v", a.Layout(), b.Layout())
	}
	if string(a.Image().Pix) != string(b.Image().Pix) {
		t.Fatal("atlas pixels differ between identical builds")
	}
	if want := ([autotile.Slots]int{3, 0, 0, 0, 1, 0, 0}); a.Layout().Frames != want {
		t.Errorf("Frames = %v, want %v", a.Layout().Frames, want)
	}
}

func TestBuildComposesPatterns(t *testing.T) {
	var src Source
	src.Autotiles[2] = Input{Image: stripImage(2)}
	a := Build(src)
	defer a.Release()
	img := a.Image()
	l := a.Layout()
	for _, pattern := range []int{0, 13, 47} {
		for frame := range 2 {
			cell := l.AutotileOrigin(2, pattern, frame)
			for q, sub := range autotile.Subtiles(pattern) {
				px := cell.Add(image.Pt(q%2*16+3, q/2*16+3))
				got := img.RGBAAt(px.X, px.Y)
				if got.R != uint8(sub) || got.G != uint8(frame) || got.B != 200 {
					t.Errorf("pattern %d frame %d quadrant %d: got %v, want sub %d", pattern, frame, q, got, sub)
				}
			}
		}
	}
}

func TestBuildMissingSlotsRecoverable(t *testing.T) {
	loadErr := errors.New("no such file")
	src := Source{Tileset: Input{Name: "gone", Err: loadErr}}
	src.Autotiles[1] = Input{Name: "broken", Err: loadErr}
	src.Autotiles[3] = Input{Name: "ok", Image: stripImage(1)}

	a := Build(src)
	defer a.Release()
	if len(a.Errors()) != 2 {
		t.Fatalf("Errors() = %v, want 2 entries", a.Errors())
	}
	if !errors.Is(a.Errors()[0], loadErr) || a.Errors()[0].Slot != TilesetSlot {
		t.Errorf("first error = %v", a.Errors()[0])
	}
	if _, ok := a.TileRect(autotile.TileRef(0), 0); ok {
		t.Error("tile ref resolved without a tileset")
	}
	if _, ok := a.TileRect(autotile.AutotileRef(1, 0), 0); ok {
		t.Error("broken autotile slot resolved")
	}
	if _, ok := a.TileRect(autotile.AutotileRef(3, 5), 0); !ok {
		t.Error("healthy autotile slot did not resolve")
	}
}

func TestTileRect(t *testing.T) {
	src := Source{Tileset: Input{Image: tilesetImage(4)}}
	src.Autotiles[0] = Input{Image: stripImage(1)}
	src.Autotiles[1] = Input{Image: stripImage(4)}
	a := Build(src)
	defer a.Release()

	tests := []struct {
		name string
		ref  autotile.Ref
		ani  uint32
		want image.Point
		ok   bool
	}{
		{"first tile", 384, 0, image.Pt(0, AutotileHeight), true},
		{"tile row 2", 384 + 17, 9, image.Pt(32, AutotileHeight+64), true},
		{"tile past sheet", 384 + 32, 0, image.Point{}, false},
		{"slot 0 pattern 0", 0, 0, image.Pt(0, 0), true},
		{"single frame ignores clock", 0, 12345, image.Pt(0, 0), true},
		{"slot 1 frame wraps", autotile.AutotileRef(1, 9), 6, image.Pt(2*FrameWidth+32, SlotHeight+32), true},
		{"absent slot", autotile.AutotileRef(5, 0), 0, image.Point{}, false},
		{"reserved group", 340, 0, image.Point{}, false},
		{"negative", -1, 0, image.Point{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := a.TileRect(tt.ref, tt.ani)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && (r.Min != tt.want || r.Dx() != TileSize || r.Dy() != TileSize) {
				t.Errorf("rect = %v, want origin %v", r, tt.want)
			}
		})
	}

	r, _ := a.TileRect(384+17, 0)
	if got := a.Image().RGBAAt(r.Min.X+1, r.Min.Y+1); got.R != 17 || got.B != 100 {
		t.Errorf("pixel at tile 17 = %v", got)
	}
}

type fakeResource struct{ destroyed *int }

func (f fakeResource) Destroy() { *f.destroyed++ }

func TestAtlasRefcountDestroysResources(t *testing.T) {
	a := Build(Source{})
	destroyed := 0
	created := 0
	create := func(*Atlas) (Resource, error) {
		created++
		return fakeResource{&destroyed}, nil
	}
	for range 2 {
		if _, err := a.Resource("dev", create); err != nil {
			t.Fatal(err)
		}
	}
	if created != 1 {
		t.Errorf("created = %d, want 1", created)
	}
	a.Retain()
	a.Release()
	if destroyed != 0 {
		t.Fatal("resource destroyed while still referenced")
	}
	a.Release()
	if destroyed != 1 {
		t.Errorf("destroyed = %d, want 1", destroyed)
	}
	if _, err := a.Resource("dev", create); !errors.Is(err, ErrReleased) {
		t.Errorf("Resource after release err = %v", err)
	}
}

func TestAtlasOverReleasePanics(t *testing.T) {
	a := Build(Source{})
	a.Release()
	defer func() {
		if recover() == nil {
			t.Error("second Release did not panic")
		}
	}()
	a.Release()
}

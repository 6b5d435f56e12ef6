package tilemap

import (
	"errors"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/tilemap/atlas"
	"github.com/gogpu/tilemap/autotile"
)

func TestPickerTable(t *testing.T) {
	a := testAtlas(t)
	table, err := PickerTable(a)
	if err != nil {
		t.Fatalf("PickerTable: %v", err)
	}
	tiles := a.Layout().TileCount
	if table.XSize() != PickerColumns || table.YSize() != 1+tiles/PickerColumns || table.ZSize() != 1 {
		t.Fatalf("size = %dx%dx%d", table.XSize(), table.YSize(), table.ZSize())
	}
	for slot := range autotile.Slots {
		if r, _ := table.At(slot, 0, 0); r != autotile.Ref(slot*autotile.PatternCount) {
			t.Errorf("head %d = %d, want %d", slot, r, slot*autotile.PatternCount)
		}
	}
	if r, _ := table.At(7, 0, 0); r != Blank {
		t.Errorf("eraser = %d, want Blank", r)
	}
	for i := range tiles {
		if r, _ := table.At(i%PickerColumns, 1+i/PickerColumns, 0); r != autotile.Ref(autotile.TilesetBase+i) {
			t.Errorf("tile %d = %d", i, r)
		}
	}

	if _, err := PickerTable(nil); !errors.Is(err, ErrNilInput) {
		t.Errorf("nil atlas: err = %v", err)
	}
}

func TestPickerWithoutTileset(t *testing.T) {
	a := atlas.Build(atlas.Source{ID: "empty"})
	defer a.Release()
	p, err := NewPicker(a)
	if err != nil {
		t.Fatalf("NewPicker: %v", err)
	}
	if p.Table().YSize() != 1 {
		t.Errorf("rows = %d, want only the autotile row", p.Table().YSize())
	}
}

func TestPickerTileAt(t *testing.T) {
	p, err := NewPicker(testAtlas(t))
	if err != nil {
		t.Fatalf("NewPicker: %v", err)
	}
	tests := []struct {
		name   string
		px, py float32
		want   autotile.Ref
		ok     bool
	}{
		{"first autotile", 5, 5, 0, true},
		{"third autotile", 2*32 + 31, 31, 96, true},
		{"eraser", 7*32 + 1, 0, Blank, true},
		{"first tile", 0, 32, autotile.TilesetBase, true},
		{"last tile", 7*32 + 10, 32 + 10, autotile.TilesetBase + 7, true},
		{"right of palette", 8 * 32, 0, Blank, false},
		{"below palette", 0, 2 * 32, Blank, false},
		{"negative", -1, 3, Blank, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := p.TileAt(tt.px, tt.py)
			if r != tt.want || ok != tt.ok {
				t.Errorf("TileAt(%v, %v) = (%d, %v), want (%d, %v)", tt.px, tt.py, r, ok, tt.want, tt.ok)
			}
		})
	}
}

// The palette is an ordinary one-layer map.
func TestPickerDrawsAsMap(t *testing.T) {
	a := testAtlas(t)
	p, err := NewPicker(a)
	if err != nil {
		t.Fatal(err)
	}
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	m, err := New(device, queue, a, p.Table(), mgl32.Vec2{256, 64})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Destroy()
	pass := &countingPass{}
	if _, err := m.Draw(pass, image.Rectangle{}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(pass.draws) != 1 || pass.draws[0] != 16 {
		t.Errorf("draws = %v, want one layer of 16 cells", pass.draws)
	}
}

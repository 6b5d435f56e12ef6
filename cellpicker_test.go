package tilemap

import (
	"errors"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/tilemap/atlas"
)

// testSheet builds a cell atlas of rows full sheet rows.
func testSheet(rows int) *atlas.CellAtlas {
	return atlas.BuildCells(atlas.Input{
		Name:  "sheet",
		Image: image.NewRGBA(image.Rect(0, 0, atlas.AnimationWidth, rows*atlas.CellSize)),
	})
}

func newTestCellPicker(t *testing.T, a *atlas.CellAtlas, opts ...Option) *CellPicker {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	p, err := NewCellPicker(device, queue, a, opts...)
	if err != nil {
		t.Fatalf("NewCellPicker: %v", err)
	}
	t.Cleanup(p.Destroy)
	return p
}

func TestCellTable(t *testing.T) {
	tbl, err := CellTable(7, 3)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.XSize() != 3 || tbl.YSize() != 3 {
		t.Fatalf("size = %dx%d, want 3x3", tbl.XSize(), tbl.YSize())
	}
	want := []int16{0, 1, 2, 3, 4, 5, 6, -1, -1}
	for i, v := range tbl.Data() {
		if v != want[i] {
			t.Errorf("cell %d = %d, want %d", i, v, want[i])
		}
	}
}

func TestCellPickerDefaultsToOneRow(t *testing.T) {
	p := newTestCellPicker(t, testSheet(2))
	if p.Columns() != 10 || p.Rows() != 1 {
		t.Errorf("layout = %dx%d, want 10x1", p.Columns(), p.Rows())
	}
	if got := p.Size(); got != (mgl32.Vec2{10 * atlas.CellSize / 2, atlas.CellSize / 2}) {
		t.Errorf("Size = %v", got)
	}
}

func TestCellPickerSelect(t *testing.T) {
	// 15 cells in rows of 4: the last row holds cells 12 to 14.
	sheet := atlas.BuildCells(atlas.Input{Image: image.NewRGBA(image.Rect(0, 0, atlas.AnimationWidth, 3*atlas.CellSize))})
	p := newTestCellPicker(t, sheet, WithCellColumns(4), WithCellScale(1))
	if p.Rows() != 4 {
		t.Fatalf("Rows = %d, want 4", p.Rows())
	}
	const c = atlas.CellSize
	tests := []struct {
		name string
		pos  mgl32.Vec2
		want int
		ok   bool
	}{
		{"first", mgl32.Vec2{1, 1}, 0, true},
		{"second row", mgl32.Vec2{2*c + 5, c + 5}, 6, true},
		{"last row", mgl32.Vec2{5, 3*c + 5}, 12, true},
		{"past last cell clamps", mgl32.Vec2{3*c + 5, 3*c + 5}, 14, true},
		{"outside keeps selection", mgl32.Vec2{4 * c, 0}, 14, false},
		{"negative", mgl32.Vec2{-1, 0}, 14, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Select(tt.pos)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Select(%v) = (%d, %v), want (%d, %v)", tt.pos, got, ok, tt.want, tt.ok)
			}
		})
	}

	p.SetSelected(5)
	if r := p.SelectionRect(); r != image.Rect(c, c, 2*c, 2*c) {
		t.Errorf("SelectionRect = %v", r)
	}
	p.SetSelected(-4)
	if p.Selected() != 0 {
		t.Errorf("negative selection = %d, want 0", p.Selected())
	}
}

func TestCellPickerDraw(t *testing.T) {
	p := newTestCellPicker(t, testSheet(1), WithHue(30))
	if p.Hue() != 30 {
		t.Errorf("Hue = %v, want 30", p.Hue())
	}
	pass := &countingPass{}
	p.SetScroll(mgl32.Vec2{96, 0})
	if err := p.Draw(pass, image.Rect(10, 20, 110, 116)); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(pass.draws) != 1 || pass.draws[0] != 5 {
		t.Errorf("draws = %v, want one draw of 5 cells", pass.draws)
	}
	if pass.scissor != [4]uint32{10, 20, 100, 96} {
		t.Errorf("scissor = %v", pass.scissor)
	}
	if pan := p.viewport.Pan(); pan != (mgl32.Vec2{-96, 0}) {
		t.Errorf("pan = %v, want scrolled by -96", pan)
	}

	before := p.MemoryStats()
	if before.Textures != 1 || before.Buffers != 3 {
		t.Errorf("MemoryStats = %+v, want 3 buffers and the sheet", before)
	}
	p.Destroy()
	if s := p.MemoryStats(); s.TotalBytes() != 0 {
		t.Errorf("after Destroy = %+v", s)
	}
	if err := p.Draw(pass, image.Rectangle{}); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Draw after Destroy: err = %v", err)
	}
	p.SetHue(10)
	p.Destroy()
}

func TestNewCellPickerNilInputs(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	if _, err := NewCellPicker(device, queue, nil); !errors.Is(err, ErrNilInput) {
		t.Errorf("nil atlas: err = %v", err)
	}
	if _, err := NewCellPicker(nil, queue, testSheet(1)); err == nil {
		t.Error("nil device accepted")
	}
}

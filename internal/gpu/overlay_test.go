package gpu

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/tilemap/grid"
)

func TestGridRendererDraw(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	vp, err := NewViewport(device, queue, mgl32.Vec2{320, 240})
	if err != nil {
		t.Fatalf("NewViewport: %v", err)
	}
	defer vp.Destroy()

	g, err := NewGridRenderer(device, queue, GridConfig{Viewport: vp, Width: 20, Height: 15})
	if err != nil {
		t.Fatalf("NewGridRenderer: %v", err)
	}
	defer g.Destroy()

	if g.Style() != DefaultGridStyle {
		t.Errorf("style = %+v, want default", g.Style())
	}
	pass := &fakePass{}
	for range 3 {
		if err := g.Draw(pass); err != nil {
			t.Fatalf("Draw: %v", err)
		}
	}
	if len(pass.draws) != 3 || pass.draws[0].vertices != 6 || pass.draws[0].instances != 1 {
		t.Errorf("draws = %+v, want three single quads", pass.draws)
	}
	if g.Writes() != 1 {
		t.Errorf("unchanged display wrote %d times, want 1", g.Writes())
	}

	g.SetStyle(GridStyle{Color: mgl32.Vec4{1, 1, 1, 1}, Thickness: 2, PixelsPerPoint: 2})
	vp.SetSize(mgl32.Vec2{640, 480})
	if err := g.Draw(pass); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if g.Writes() != 2 {
		t.Errorf("changed display: writes = %d, want 2", g.Writes())
	}

	g.SetMapSize(0, 15)
	before := len(pass.draws)
	if err := g.Draw(pass); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(pass.draws) != before {
		t.Error("empty map drew a grid")
	}
}

func TestCollisionRenderer(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	vp, err := NewViewport(device, queue, mgl32.Vec2{320, 240})
	if err != nil {
		t.Fatalf("NewViewport: %v", err)
	}
	defer vp.Destroy()

	passages, err := grid.NewTable2(4, 3)
	if err != nil {
		t.Fatal(err)
	}
	if err := passages.Set(1, 1, 0x1F); err != nil {
		t.Fatal(err)
	}
	c, err := NewCollisionRenderer(device, queue, CollisionConfig{Viewport: vp, Passages: passages})
	if err != nil {
		t.Fatalf("NewCollisionRenderer: %v", err)
	}
	defer c.Destroy()

	pass := &fakePass{}
	if err := c.Draw(pass); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(pass.draws) != 1 || pass.draws[0].instances != 12 {
		t.Errorf("draws = %+v, want one draw of 12 instances", pass.draws)
	}

	writes := recordWrites(c.o.up)
	if err := c.SetPassage(3, 2, 0x12); err != nil {
		t.Fatalf("SetPassage: %v", err)
	}
	if err := c.SetPassage(4, 0, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("SetPassage out of bounds: err = %v", err)
	}
	if len(*writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(*writes))
	}
	if got := binary.LittleEndian.Uint32((*writes)[0].Data); got != 0x2 {
		t.Errorf("stored mask = %#x, want 0x2", got)
	}

	c.SetColor(c.color)
	if len(*writes) != 1 {
		t.Error("unchanged color was written")
	}
	c.SetColor(mgl32.Vec4{0, 0, 1, 1})
	if len(*writes) != 2 {
		t.Errorf("writes after color change = %d, want 2", len(*writes))
	}

	bigger, err := grid.NewTable2(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetPassages(bigger); err != nil {
		t.Fatalf("SetPassages: %v", err)
	}
	pass = &fakePass{}
	if err := c.Draw(pass); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if pass.draws[0].instances != 64 {
		t.Errorf("instances after resize = %d, want 64", pass.draws[0].instances)
	}

	c.Destroy()
	if err := c.Draw(pass); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Draw after Destroy: err = %v", err)
	}
}

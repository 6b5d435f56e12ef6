package grid

import (
	"errors"
	"testing"

	"github.com/gogpu/tilemap/autotile"
)

func TestTable3IndexOrder(t *testing.T) {
	tbl, err := NewTable3(4, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		x, y, z int
		want    int
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 1},
		{0, 1, 0, 4},
		{0, 0, 1, 12},
		{3, 2, 1, 23},
	}
	for _, tt := range tests {
		got, ok := tbl.Index(tt.x, tt.y, tt.z)
		if !ok || got != tt.want {
			t.Errorf("Index(%d,%d,%d) = %d,%v want %d", tt.x, tt.y, tt.z, got, ok, tt.want)
		}
	}
}

func TestTable3SetBounds(t *testing.T) {
	tbl, _ := NewTable3(2, 2, 2)
	if err := tbl.Set(1, 1, 1, 400); err != nil {
		t.Fatalf("Set at last cell: %v", err)
	}
	for _, c := range [][3]int{{2, 0, 0}, {0, 2, 0}, {0, 0, 2}, {-1, 0, 0}} {
		if err := tbl.Set(c[0], c[1], c[2], 1); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Set%v err = %v, want ErrOutOfBounds", c, err)
		}
	}
	if v, _ := tbl.At(1, 1, 1); v != 400 {
		t.Errorf("At(1,1,1) = %d, want 400", v)
	}
}

func TestTable3FromSizeMismatch(t *testing.T) {
	if _, err := Table3From(2, 2, 1, make([]autotile.Ref, 3)); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("err = %v, want ErrInvalidSize", err)
	}
}

func TestTable3Resize(t *testing.T) {
	tbl, _ := NewTable3(3, 2, 1)
	_ = tbl.Set(2, 1, 0, 7)
	_ = tbl.Set(0, 0, 0, 5)
	if err := tbl.Resize(4, 4, 2); err != nil {
		t.Fatal(err)
	}
	if v, _ := tbl.At(2, 1, 0); v != 7 {
		t.Errorf("At(2,1,0) after grow = %d, want 7", v)
	}
	if err := tbl.Resize(1, 1, 1); err != nil {
		t.Fatal(err)
	}
	if v, _ := tbl.At(0, 0, 0); v != 5 || tbl.Len() != 1 {
		t.Errorf("after shrink: v=%d len=%d", v, tbl.Len())
	}
}

func TestTable3Layer(t *testing.T) {
	tbl, _ := NewTable3(2, 2, 3)
	_ = tbl.Set(1, 0, 2, 9)
	layer := tbl.Layer(2)
	if len(layer) != 4 || layer[1] != 9 {
		t.Errorf("Layer(2) = %v", layer)
	}
}

func TestTable2(t *testing.T) {
	tbl, _ := NewTable2(3, 2)
	if err := tbl.Set(2, 1, 15); err != nil {
		t.Fatal(err)
	}
	if v, ok := tbl.At(2, 1); !ok || v != 15 {
		t.Errorf("At(2,1) = %d,%v", v, ok)
	}
	if err := tbl.Set(3, 0, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("err = %v, want ErrOutOfBounds", err)
	}
}

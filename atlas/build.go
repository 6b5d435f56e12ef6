package atlas

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/gogpu/tilemap/autotile"
)

// TilesetSlot identifies the main tileset in a SlotError.
const TilesetSlot = -1

// Input is one source image of a tileset. A nil Image with a nil Err is
// an intentionally empty slot.
type Input struct {
	Name  string
	Image image.Image
	Err   error

	// Frames limits the number of animation frames used from an autotile
	// strip. Zero uses every frame the strip holds.
	Frames int
}

// Source is everything needed to build an atlas.
type Source struct {
	ID        string
	Tileset   Input
	Autotiles [autotile.Slots]Input
}

// SlotError records an unusable source image. The affected slot draws
// nothing; the rest of the atlas is unaffected.
type SlotError struct {
	Slot int // TilesetSlot or an autotile slot
	Name string
	Err  error
}

func (e *SlotError) Error() string {
	if e.Slot == TilesetSlot {
		return fmt.Sprintf("atlas: tileset %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("atlas: autotile %d %q: %v", e.Slot, e.Name, e.Err)
}

func (e *SlotError) Unwrap() error { return e.Err }

// slotError returns the failure of in as a SlotError, or nil.
func (in Input) slotError(slot int) error {
	if in.Err == nil {
		return nil
	}
	return &SlotError{Slot: slot, Name: in.Name, Err: in.Err}
}

// failed counts the inputs of src that carry an error.
func (src *Source) failed() int {
	n := 0
	if src.Tileset.Err != nil {
		n++
	}
	for _, in := range src.Autotiles {
		if in.Err != nil {
			n++
		}
	}
	return n
}

// Frames returns the per-slot frame counts the builder will use for src.
func (src *Source) Frames() [autotile.Slots]int {
	var frames [autotile.Slots]int
	for i, in := range src.Autotiles {
		if in.Image == nil {
			continue
		}
		n := autotile.FrameCount(in.Image.Bounds().Dx())
		if in.Frames > 0 {
			n = min(n, in.Frames)
		}
		frames[i] = n
	}
	return frames
}

// Build packs src into a new atlas holding one reference.
// Missing or failed images are recorded in Atlas.Errors and never fail
// the build.
func Build(src Source) *Atlas {
	var errs []*SlotError
	if err := src.Tileset.slotError(TilesetSlot); err != nil {
		errs = append(errs, err.(*SlotError))
	}
	for i, in := range src.Autotiles {
		if err := in.slotError(i); err != nil {
			errs = append(errs, err.(*SlotError))
		}
	}

	tilesetHeight := 0
	if src.Tileset.Image != nil {
		tilesetHeight = src.Tileset.Image.Bounds().Dy()
		if tilesetHeight < TileSize {
			errs = append(errs, &SlotError{
				Slot: TilesetSlot, Name: src.Tileset.Name,
				Err: fmt.Errorf("height %d below one tile", tilesetHeight),
			})
			tilesetHeight = 0
		}
	}

	layout := ComputeLayout(src.Frames(), tilesetHeight)
	img := image.NewRGBA(image.Rect(0, 0, layout.Width, layout.Height))

	for slot, in := range src.Autotiles {
		if in.Image == nil {
			continue
		}
		composeAutotile(img, layout, slot, in.Image)
	}
	if layout.TileCount > 0 {
		b := src.Tileset.Image.Bounds()
		for _, s := range layout.strips() {
			dst := image.Rectangle{Min: s.dst, Max: s.dst.Add(s.src.Size())}
			draw.Draw(img, dst, src.Tileset.Image, b.Min.Add(s.src.Min), draw.Src)
		}
	}

	for _, e := range errs {
		slogger().Warn("atlas slot unavailable", "id", src.ID, "slot", e.Slot, "name", e.Name, "err", e.Err)
	}
	slogger().Info("atlas built", "id", src.ID,
		"width", layout.Width, "height", layout.Height,
		"tiles", layout.TileCount, "frames", layout.Frames)

	return newAtlas(src.ID, img, layout, errs)
}

// composeAutotile stitches the 48 patterns of one strip for every frame.
func composeAutotile(dst *image.RGBA, layout Layout, slot int, strip image.Image) {
	b := strip.Bounds()
	for frame := range layout.Frames[slot] {
		for pattern, quad := range autotile.Patterns {
			cell := layout.AutotileOrigin(slot, pattern, frame)
			for q, sub := range quad {
				sx, sy := autotile.SubtileOrigin(sub, frame)
				at := cell.Add(image.Pt(q%2*autotile.SubtileSize, q/2*autotile.SubtileSize))
				r := image.Rectangle{Min: at, Max: at.Add(image.Pt(autotile.SubtileSize, autotile.SubtileSize))}
				draw.Draw(dst, r, strip, b.Min.Add(image.Pt(sx, sy)), draw.Src)
			}
		}
	}
}

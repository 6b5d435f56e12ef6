// Package atlas packs a tileset sheet and its autotile strips into one
// texture image and records where every tile reference lands in it.
//
// An Atlas is immutable once built. It is shared by the map view, the
// tile picker and any other renderer showing the same tileset, and it is
// reference counted: GPU resources attached to it are destroyed when the
// last holder calls Release. Reloading a tileset builds a new Atlas; views
// holding the old one keep drawing from it until they release it.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/tilemap/autotile"
)

// ErrReleased is returned when a released atlas is used.
var ErrReleased = errors.New("atlas: already released")

// Resource is a per-device object derived from an atlas, such as an
// uploaded texture.
type Resource interface {
	Destroy()
}

// Atlas is a packed tileset image plus its layout.
type Atlas struct {
	id     string
	img    *image.RGBA
	layout Layout
	errs   []*SlotError

	refs atomic.Int32

	mu        sync.Mutex
	resources map[any]Resource
}

func newAtlas(id string, img *image.RGBA, layout Layout, errs []*SlotError) *Atlas {
	a := &Atlas{id: id, img: img, layout: layout, errs: errs}
	a.refs.Store(1)
	return a
}

// ID returns the tileset identity the atlas was built for.
func (a *Atlas) ID() string { return a.id }

// Image returns the packed RGBA pixels. Callers must not modify it.
func (a *Atlas) Image() *image.RGBA { return a.img }

// Layout returns the atlas layout.
func (a *Atlas) Layout() Layout { return a.layout }

// Errors returns the per-slot problems recorded while building.
func (a *Atlas) Errors() []*SlotError { return a.errs }

// Retain adds a reference and returns a.
func (a *Atlas) Retain() *Atlas {
	if a.refs.Add(1) <= 1 {
		panic("atlas: Retain after final Release")
	}
	return a
}

// Release drops a reference. The last release destroys attached resources.
func (a *Atlas) Release() {
	n := a.refs.Add(-1)
	switch {
	case n == 0:
		a.mu.Lock()
		res := a.resources
		a.resources = nil
		a.mu.Unlock()
		for _, r := range res {
			r.Destroy()
		}
		slogger().Debug("atlas released", "id", a.id)
	case n < 0:
		panic("atlas: Release called more times than Retain")
	}
}

// Refs returns the current reference count.
func (a *Atlas) Refs() int { return int(a.refs.Load()) }

// Resource returns the resource stored under key, creating it on first use.
// The resource lives until the atlas is fully released.
func (a *Atlas) Resource(key any, create func(*Atlas) (Resource, error)) (Resource, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.refs.Load() <= 0 {
		return nil, ErrReleased
	}
	if r, ok := a.resources[key]; ok {
		return r, nil
	}
	r, err := create(a)
	if err != nil {
		return nil, fmt.Errorf("atlas %q: %w", a.id, err)
	}
	if a.resources == nil {
		a.resources = make(map[any]Resource)
	}
	a.resources[key] = r
	return r, nil
}

// TileRect returns the atlas pixel rectangle drawn for r at animation
// index ani. The second result is false when r draws nothing.
func (a *Atlas) TileRect(r autotile.Ref, ani uint32) (image.Rectangle, bool) {
	return a.layout.InstanceRect(autotile.Sanitize(r), ani)
}

// InstanceRect resolves a raw instance value the same way the tile shader
// does.
func (l Layout) InstanceRect(v uint32, ani uint32) (image.Rectangle, bool) {
	p := autotile.DecomposeInstance(v)
	var origin image.Point
	switch p.Kind {
	case autotile.KindAutotile:
		frames := l.Frames[p.Group]
		if frames <= 0 {
			return image.Rectangle{}, false
		}
		origin = l.AutotileOrigin(p.Group, p.Pattern, int(ani%uint32(frames)))
	case autotile.KindTile:
		if p.Index >= l.TileCount {
			return image.Rectangle{}, false
		}
		origin = l.TileOrigin(p.Index)
	default:
		return image.Rectangle{}, false
	}
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(TileSize, TileSize))}, true
}

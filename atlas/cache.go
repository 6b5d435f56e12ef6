package atlas

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrEvicted is returned when an atlas keeps being evicted while it loads.
var ErrEvicted = errors.New("atlas: evicted during load")

// LoadFunc produces the source images of a tileset. An error here means
// the tileset itself is unknown; unreadable images belong in Input.Err.
type LoadFunc func(id string) (Source, error)

// Cache holds one atlas per tileset id. It is safe for concurrent use;
// concurrent loads of the same id build only once.
type Cache struct {
	mu      sync.Mutex
	atlases map[string]*Atlas
	group   singleflight.Group
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{atlases: make(map[string]*Atlas)}
}

// Load returns the cached atlas for id, building it with load on a miss.
// The returned atlas carries a reference the caller must Release.
func (c *Cache) Load(id string, load LoadFunc) (*Atlas, error) {
	for range 3 {
		if a := c.lookup(id); a != nil {
			return a, nil
		}
		_, err, _ := c.group.Do(id, func() (any, error) {
			if c.contains(id) {
				return nil, nil
			}
			a, err := build(id, load)
			if err != nil {
				return nil, err
			}
			c.store(id, a)
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrEvicted, id)
}

// Reload builds a fresh atlas for id and replaces the cached one.
// Holders of the previous atlas keep it until they release it.
func (c *Cache) Reload(id string, load LoadFunc) (*Atlas, error) {
	_, err, _ := c.group.Do("reload\x00"+id, func() (any, error) {
		a, err := build(id, load)
		if err != nil {
			return nil, err
		}
		c.store(id, a)
		slogger().Info("atlas reloaded", "id", id)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	if a := c.lookup(id); a != nil {
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrEvicted, id)
}

// Clear drops the cache's reference to every atlas.
func (c *Cache) Clear() {
	c.mu.Lock()
	old := c.atlases
	c.atlases = make(map[string]*Atlas)
	c.mu.Unlock()
	for _, a := range old {
		a.Release()
	}
}

// Len returns the number of cached atlases.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.atlases)
}

func (c *Cache) lookup(id string) *Atlas {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.atlases[id]; ok {
		return a.Retain()
	}
	return nil
}

func (c *Cache) contains(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.atlases[id]
	return ok
}

// store installs a, taking over its initial reference, and releases the
// atlas it replaces.
func (c *Cache) store(id string, a *Atlas) {
	c.mu.Lock()
	old := c.atlases[id]
	c.atlases[id] = a
	c.mu.Unlock()
	if old != nil {
		old.Release()
	}
}

func build(id string, load LoadFunc) (*Atlas, error) {
	src, err := load(id)
	if err != nil {
		return nil, fmt.Errorf("atlas: load tileset %q: %w", id, err)
	}
	src.ID = id
	return Build(src), nil
}

package gpu

import "fmt"

// MemoryStats reports the GPU memory held by a renderer.
type MemoryStats struct {
	// BufferBytes is the total size of live buffers.
	BufferBytes uint64

	// Buffers is the number of live buffers.
	Buffers int

	// TextureBytes is the size of the atlas texture. A texture shared by
	// several renderers is reported by each of them.
	TextureBytes uint64

	// Textures is the number of textures drawn from.
	Textures int
}

// TotalBytes returns buffer and texture bytes together.
func (s MemoryStats) TotalBytes() uint64 { return s.BufferBytes + s.TextureBytes }

// Add returns the sum of s and o.
func (s MemoryStats) Add(o MemoryStats) MemoryStats {
	return MemoryStats{
		BufferBytes:  s.BufferBytes + o.BufferBytes,
		Buffers:      s.Buffers + o.Buffers,
		TextureBytes: s.TextureBytes + o.TextureBytes,
		Textures:     s.Textures + o.Textures,
	}
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%d buffers %.1f KB, %d textures %.1f KB]",
		s.Buffers, float64(s.BufferBytes)/1024,
		s.Textures, float64(s.TextureBytes)/1024)
}

// allocated records a new buffer of size bytes.
func (u *uploader) allocated(size uint64) {
	u.mem.BufferBytes += size
	u.mem.Buffers++
}

// released records a destroyed buffer of size bytes.
func (u *uploader) released(size uint64) {
	u.mem.BufferBytes -= size
	u.mem.Buffers--
}

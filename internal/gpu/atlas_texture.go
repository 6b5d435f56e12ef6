package gpu

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilemap/atlas"
)

// AtlasTexture is an atlas image uploaded to one device. A tile atlas
// texture is attached to the atlas as a resource, so every renderer on
// that device shares it and it is destroyed with the atlas's final
// Release. Cell atlas textures belong to their renderer.
type AtlasTexture struct {
	device  hal.Device
	texture hal.Texture
	view    hal.TextureView
	sampler hal.Sampler
	width   uint32
	height  uint32
}

// textureKey keys atlas textures by device.
type textureKey struct {
	device hal.Device
}

// AtlasTextureFor returns the texture of a on device, uploading it on
// first use.
func AtlasTextureFor(device hal.Device, queue hal.Queue, a *atlas.Atlas) (*AtlasTexture, error) {
	res, err := a.Resource(textureKey{device}, func(a *atlas.Atlas) (atlas.Resource, error) {
		return newAtlasTexture(device, queue, a)
	})
	if err != nil {
		return nil, err
	}
	return res.(*AtlasTexture), nil
}

func newAtlasTexture(device hal.Device, queue hal.Queue, a *atlas.Atlas) (*AtlasTexture, error) {
	t, err := uploadTexture(device, queue, "tilemap_atlas_"+a.ID(), a.Image())
	if err != nil {
		return nil, err
	}
	slogger().Debug("atlas texture uploaded", "id", a.ID(), "width", t.width, "height", t.height)
	return t, nil
}

// uploadTexture creates a sampled RGBA8 texture holding img.
func uploadTexture(device hal.Device, queue hal.Queue, label string, img *image.RGBA) (*AtlasTexture, error) {
	w := uint32(img.Bounds().Dx()) //nolint:gosec // atlas edges are <= MaxSize
	h := uint32(img.Bounds().Dy()) //nolint:gosec // atlas edges are <= MaxSize
	t := &AtlasTexture{device: device, width: w, height: h}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	t.texture = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("create %s texture view: %w", label, err)
	}
	t.view = view

	// Tiles are pixel art: no filtering across cell borders.
	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label + "_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		t.Destroy()
		return nil, fmt.Errorf("create %s sampler: %w", label, err)
	}
	t.sampler = sampler

	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		img.Pix,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(img.Stride), RowsPerImage: h}, //nolint:gosec // stride = 4*width
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	return t, nil
}

// Size returns the texture size in pixels.
func (t *AtlasTexture) Size() (width, height uint32) { return t.width, t.height }

// bytes returns the texture size in bytes.
func (t *AtlasTexture) bytes() uint64 { return uint64(t.width) * uint64(t.height) * 4 }

// bindGroupEntries returns the texture and sampler entries of an atlas
// bind group.
func (t *AtlasTexture) bindGroupEntries() []gputypes.BindGroupEntry {
	return []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}},
		{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: t.sampler.NativeHandle()}},
	}
}

// Destroy releases the texture, its view and sampler.
func (t *AtlasTexture) Destroy() {
	if t.sampler != nil {
		t.device.DestroySampler(t.sampler)
		t.sampler = nil
	}
	if t.view != nil {
		t.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.texture != nil {
		t.device.DestroyTexture(t.texture)
		t.texture = nil
	}
}

// atlasLayoutEntries is the layout of bind group 0 in both tile shader
// variants. The vertex stage reads the texture size.
func atlasLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		},
		{
			Binding:    1,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		},
	}
}

package fakegl

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/internal/texel"
	"github.com/aquaria-psp/fakegl/mem"
)

// MaxTextureSize is the largest texture width and height.
const MaxTextureSize = 512

// Texture errors.
var (
	// ErrTextureUndefined is returned when pixels are written to a texture
	// that has no storage.
	ErrTextureUndefined = errors.New("fakegl: texture has no storage")

	// ErrTextureRegion is returned for a region outside the texture or not
	// aligned to swizzle blocks.
	ErrTextureRegion = errors.New("fakegl: invalid texture region")

	// ErrTextureSize is returned for texture dimensions outside 1..MaxTextureSize.
	ErrTextureSize = errors.New("fakegl: invalid texture size")
)

// Texture is a texture resource: pixel storage in GE memory, the palette
// of indexed formats and the sampling parameters.
//
// A Texture without storage is the placeholder a texture ID holds between
// GenTextures and the first TexImage2D. Drawing with it bound disables
// texturing for the draw.
type Texture struct {
	alloc  *mem.Allocator
	addr   mem.Addr
	pal    mem.Addr
	width  int
	height int
	layout texel.Layout
	source texel.Source

	minFilter, magFilter gputypes.FilterMode
	wrapS, wrapT         gputypes.AddressMode

	// frame serial of the last draw that referenced the storage
	used uint64
}

// Ensure Texture implements the gpucontext texture interfaces.
var (
	_ gpucontext.Texture              = (*Texture)(nil)
	_ gpucontext.TextureUpdater       = (*Texture)(nil)
	_ gpucontext.TextureRegionUpdater = (*Texture)(nil)
)

// newPlaceholder returns an undefined texture with the GL default
// sampling parameters.
func newPlaceholder() *Texture {
	return &Texture{
		minFilter: gputypes.FilterModeNearest,
		magFilter: gputypes.FilterModeLinear,
		wrapS:     gputypes.AddressModeRepeat,
		wrapT:     gputypes.AddressModeRepeat,
	}
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Size returns the texture dimensions.
func (t *Texture) Size() gputypes.Extent3D {
	return gputypes.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1}
}

// Format returns the storage format.
func (t *Texture) Format() gputypes.TextureFormat {
	if !t.Defined() {
		return gputypes.TextureFormatUndefined
	}
	return t.layout.Format.Info().GPU
}

// Defined reports whether the texture has storage.
func (t *Texture) Defined() bool { return t.addr != mem.Nil }

// Swizzled reports whether the storage is in swizzled block order.
func (t *Texture) Swizzled() bool { return t.layout.Swizzled }

// Pixels returns the texture storage: rows of the power-of-two storage
// width, RGBA bytes or palette indices, swizzled when Swizzled reports so.
// Writes are seen by draws the GE has not executed yet.
func (t *Texture) Pixels() []byte {
	if !t.Defined() {
		return nil
	}
	return t.alloc.Bytes(t.addr, t.layout.Size())
}

// Palette returns the 256 RGBA entries of an indexed texture, or nil.
func (t *Texture) Palette() []byte {
	if t.pal == mem.Nil {
		return nil
	}
	return t.alloc.Bytes(t.pal, texel.PaletteEntries*4)
}

// UpdateData replaces the whole texture. data holds rows of Width pixels
// in the layout the texture was defined with.
func (t *Texture) UpdateData(data []byte) error {
	return t.UpdateRegion(0, 0, t.width, t.height, data)
}

// UpdateRegion replaces a rectangle of the texture. data holds rows of w
// pixels in the layout the texture was defined with. On swizzled textures
// the region must cover whole blocks.
func (t *Texture) UpdateRegion(x, y, w, h int, data []byte) error {
	if !t.Defined() {
		return ErrTextureUndefined
	}
	if err := t.checkRegion(x, y, w, h); err != nil {
		return err
	}
	stride := w * t.source.BytesPerPixel()
	if len(data) < stride*h {
		return fmt.Errorf("%w: %d bytes for %dx%d %v pixels", ErrTextureRegion, len(data), w, h, t.source)
	}
	texel.Store(t.Pixels(), t.layout, t.source, x, y, w, h, data, t.source, stride)
	return nil
}

func (t *Texture) checkRegion(x, y, w, h int) error {
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > t.width || y+h > t.height {
		return fmt.Errorf("%w: (%d,%d %dx%d) outside %dx%d", ErrTextureRegion, x, y, w, h, t.width, t.height)
	}
	if !t.layout.Aligned(x, y, w, h) {
		return fmt.Errorf("%w: (%d,%d %dx%d) not aligned to swizzle blocks", ErrTextureRegion, x, y, w, h)
	}
	return nil
}

// Image returns a copy of the texture. Texel alpha is straight, so the
// result is NRGBA.
func (t *Texture) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.width, t.height))
	if t.Defined() {
		texel.Load(img.Pix, texel.SourceRGBA, img.Stride, t.layout, t.Palette(), 0, 0, t.width, t.height, t.Pixels())
	}
	return img
}

// storageLayout returns the layout of a w x h texture defined from src.
func storageLayout(w, h int, src texel.Source, swizzle bool) texel.Layout {
	l := texel.Layout{
		Format: src.Storage(),
		Width:  texel.NextPow2(w),
		Height: texel.NextPow2(h),
	}
	l.Swizzled = swizzle && texel.CanSwizzle(l.RowBytes(), l.Height)
	return l
}

// storage is the memory of one texture definition.
type storage struct {
	addr, pal mem.Addr
	layout    texel.Layout
}

// allocStorage allocates zeroed pixel memory and, for indexed formats, a
// ramp palette. It returns false when the allocator is exhausted.
func allocStorage(alloc *mem.Allocator, l texel.Layout, src texel.Source) (storage, bool) {
	s := storage{layout: l}
	s.addr = alloc.Alloc(l.Size(), 16, mem.Clear)
	if s.addr == mem.Nil {
		return s, false
	}
	if l.Format.Info().Indexed {
		s.pal = alloc.Alloc(texel.PaletteEntries*4, 16, 0)
		if s.pal == mem.Nil {
			_ = alloc.Free(s.addr)
			return storage{}, false
		}
		texel.PutRamp(alloc.Bytes(s.pal, texel.PaletteEntries*4), src)
	}
	return s, true
}

// attach makes s the storage of t and returns the storage it replaced.
func (t *Texture) attach(alloc *mem.Allocator, s storage, w, h int, src texel.Source) storage {
	old := storage{addr: t.addr, pal: t.pal, layout: t.layout}
	t.alloc = alloc
	t.addr, t.pal, t.layout = s.addr, s.pal, s.layout
	t.width, t.height, t.source = w, h, src
	return old
}

// release frees the storage. The GE must no longer read it.
func (t *Texture) release() {
	if t.addr != mem.Nil {
		_ = t.alloc.Free(t.addr)
	}
	if t.pal != mem.Nil {
		_ = t.alloc.Free(t.pal)
	}
	t.addr, t.pal = mem.Nil, mem.Nil
}

// NewTexture creates a texture resource from an image, stored as RGBA with
// straight alpha.
// Associate it with an ID through SetTextureResource.
func (c *Context) NewTexture(img image.Image) (*Texture, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 1 || h < 1 || w > MaxTextureSize || h > MaxTextureSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrTextureSize, w, h)
	}
	src, ok := img.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) {
		src = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)
	}
	l := storageLayout(w, h, texel.SourceRGBA, c.cfg.swizzle)
	s, ok := allocStorage(c.alloc, l, texel.SourceRGBA)
	if !ok {
		return nil, fmt.Errorf("%w: texture of %d bytes", ge.ErrNoMemory, l.Size())
	}
	t := newPlaceholder()
	t.attach(c.alloc, s, w, h, texel.SourceRGBA)
	texel.Store(t.Pixels(), l, texel.SourceRGBA, 0, 0, w, h, src.Pix, texel.SourceRGBA, src.Stride)
	return t, nil
}

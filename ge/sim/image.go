package sim

import (
	"image"
	"image/png"
	"os"

	"github.com/aquaria-psp/fakegl/ge"
)

// Snapshot copies the visible part of a surface into an image. Framebuffer
// alpha is straight, so the result is NRGBA.
func (d *Device) Snapshot(s ge.Surface) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	src := s.Bytes(d.alloc)
	if src == nil {
		return img
	}
	row := s.Width * 4
	for y := 0; y < s.Height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+row], src[y*s.Stride*4:])
	}
	return img
}

// Pixel returns the RGBA bytes of pixel (x, y) of a surface.
func (d *Device) Pixel(s ge.Surface, x, y int) [4]byte {
	var p [4]byte
	if x < 0 || y < 0 || x >= s.Width || y >= s.Height {
		return p
	}
	b := s.Bytes(d.alloc)
	if b == nil {
		return p
	}
	copy(p[:], b[(y*s.Stride+x)*4:])
	return p
}

// SavePNG writes the display buffer to a PNG file.
func (d *Device) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Encode(f, d.Snapshot(d.DisplayBuffer()))
}

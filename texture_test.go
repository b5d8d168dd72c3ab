package fakegl

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/aquaria-psp/fakegl/ge/sim"
	"github.com/aquaria-psp/fakegl/mem"
)

// newBoundTexture generates a texture and binds it.
func newBoundTexture(t *testing.T, gl *Context) uint32 {
	t.Helper()
	var ids [1]uint32
	gl.GenTextures(ids[:])
	gl.BindTexture(Texture2D, ids[0])
	expectError(t, gl, NoError)
	return ids[0]
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 3)
	}
	return b
}

func solid(w, h int, c [4]byte) []byte {
	b := make([]byte, 0, w*h*4)
	for i := 0; i < w*h; i++ {
		b = append(b, c[:]...)
	}
	return b
}

func TestTexImageRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int32
		opts    []Option
		swizzle bool
	}{
		{"swizzled", 16, 8, nil, true},
		{"npot", 5, 3, nil, false},
		{"linear", 16, 16, []Option{WithoutSwizzle()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl := newTestContext(t, tt.opts...)
			newBoundTexture(t, gl)
			src := pattern(int(tt.w * tt.h * 4))
			gl.TexImage2D(Texture2D, 0, RGBA, tt.w, tt.h, 0, RGBA, UnsignedByte, src)
			expectError(t, gl, NoError)
			if got := gl.BoundTexture().Swizzled(); got != tt.swizzle {
				t.Errorf("Swizzled() = %v, want %v", got, tt.swizzle)
			}

			out := make([]byte, len(src))
			gl.GetTexImage(Texture2D, 0, RGBA, UnsignedByte, out)
			expectError(t, gl, NoError)
			if !bytes.Equal(out, src) {
				t.Error("GetTexImage does not return the uploaded pixels")
			}

			var p [1]int32
			gl.GetTexLevelParameteriv(Texture2D, 0, TextureWidth, p[:])
			if p[0] != tt.w {
				t.Errorf("TEXTURE_WIDTH = %d, want %d", p[0], tt.w)
			}
			gl.GetTexLevelParameteriv(Texture2D, 0, TextureInternalFormat, p[:])
			if Enum(p[0]) != RGBA {
				t.Errorf("TEXTURE_INTERNAL_FORMAT = %#x, want RGBA", p[0])
			}
		})
	}
}

func TestTexImageRGB(t *testing.T) {
	gl := newTestContext(t)
	newBoundTexture(t, gl)
	src := []byte{10, 20, 30, 40, 50, 60}
	gl.TexImage2D(Texture2D, 0, RGB, 2, 1, 0, RGB, UnsignedByte, src)
	expectError(t, gl, NoError)

	out := make([]byte, 8)
	gl.GetTexImage(Texture2D, 0, RGBA, UnsignedByte, out)
	want := []byte{10, 20, 30, 255, 40, 50, 60, 255}
	if !bytes.Equal(out, want) {
		t.Errorf("pixels = %v, want %v", out, want)
	}
}

func TestTexImageErrors(t *testing.T) {
	gl := newTestContext(t)
	px := make([]byte, 4*4*4)

	gl.TexImage2D(Texture2D, 0, RGBA, 4, 4, 0, RGBA, UnsignedByte, px)
	expectError(t, gl, InvalidOperation) // nothing bound

	newBoundTexture(t, gl)
	tests := []struct {
		name string
		call func()
		want ErrorCode
	}{
		{"target", func() { gl.TexImage2D(Texture2D+1, 0, RGBA, 4, 4, 0, RGBA, UnsignedByte, px) }, InvalidEnum},
		{"level", func() { gl.TexImage2D(Texture2D, 1, RGBA, 4, 4, 0, RGBA, UnsignedByte, px) }, InvalidValue},
		{"zero size", func() { gl.TexImage2D(Texture2D, 0, RGBA, 0, 4, 0, RGBA, UnsignedByte, px) }, InvalidValue},
		{"too large", func() { gl.TexImage2D(Texture2D, 0, RGBA, MaxTextureSize+1, 4, 0, RGBA, UnsignedByte, nil) }, InvalidValue},
		{"border", func() { gl.TexImage2D(Texture2D, 0, RGBA, 4, 4, 1, RGBA, UnsignedByte, px) }, InvalidValue},
		{"type", func() { gl.TexImage2D(Texture2D, 0, RGBA, 4, 4, 0, RGBA, Enum(0x1403), px) }, InvalidEnum},
		{"short buffer", func() { gl.TexImage2D(Texture2D, 0, RGBA, 8, 8, 0, RGBA, UnsignedByte, px) }, InvalidValue},
		{"undefined sub image", func() { gl.TexSubImage2D(Texture2D, 0, 0, 0, 1, 1, RGBA, UnsignedByte, px) }, InvalidOperation},
		{"undefined read", func() { gl.GetTexImage(Texture2D, 0, RGBA, UnsignedByte, px) }, InvalidOperation},
	}
	for _, tt := range tests {
		tt.call()
		if got := gl.GetError(); got != tt.want {
			t.Errorf("%s: error %v, want %v", tt.name, got, tt.want)
		}
	}
	if gl.BoundTexture().Defined() {
		t.Error("rejected calls defined the texture")
	}
}

func TestTexSubImageAlignment(t *testing.T) {
	gl := newTestContext(t)
	newBoundTexture(t, gl)
	gl.TexImage2D(Texture2D, 0, RGBA, 16, 16, 0, RGBA, UnsignedByte, nil)
	expectError(t, gl, NoError)

	block := make([]byte, 4*8*4)
	gl.TexSubImage2D(Texture2D, 0, 1, 0, 4, 8, RGBA, UnsignedByte, block)
	expectError(t, gl, InvalidOperation)
	gl.TexSubImage2D(Texture2D, 0, 0, 0, 4, 4, RGBA, UnsignedByte, block)
	expectError(t, gl, InvalidOperation)
	gl.TexSubImage2D(Texture2D, 0, 12, 8, 8, 8, RGBA, UnsignedByte, make([]byte, 8*8*4))
	expectError(t, gl, InvalidValue)

	src := pattern(len(block))
	gl.TexSubImage2D(Texture2D, 0, 4, 8, 4, 8, RGBA, UnsignedByte, src)
	expectError(t, gl, NoError)

	out := make([]byte, 16*16*4)
	gl.GetTexImage(Texture2D, 0, RGBA, UnsignedByte, out)
	for y := 0; y < 8; y++ {
		row := out[((8+y)*16+4)*4:][:16]
		if !bytes.Equal(row, src[y*16:][:16]) {
			t.Fatalf("row %d = %v, want %v", y, row, src[y*16:][:16])
		}
	}
	if out[0] != 0 || out[len(out)-1] != 0 {
		t.Error("TexSubImage2D wrote outside its region")
	}

	tex := gl.BoundTexture()
	if err := tex.UpdateRegion(1, 0, 1, 1, make([]byte, 4)); !errors.Is(err, ErrTextureRegion) {
		t.Errorf("UpdateRegion misaligned error = %v, want ErrTextureRegion", err)
	}
}

func TestDeleteTextureDefersFree(t *testing.T) {
	gl := newTestContext(t)
	id := newBoundTexture(t, gl)
	gl.TexImage2D(Texture2D, 0, RGBA, 32, 32, 0, RGBA, UnsignedByte, nil)
	addr := gl.BoundTexture().addr

	gl.DeleteTextures([]uint32{id})
	expectError(t, gl, NoError)
	if gl.IsTexture(id) {
		t.Error("deleted texture still exists")
	}
	if gl.BoundTexture() != nil {
		t.Error("deleting the bound texture did not unbind it")
	}
	if !gl.alloc.Owns(addr) {
		t.Fatal("storage freed before the next frame")
	}
	beginFrame(t, gl)
	if gl.alloc.Owns(addr) {
		t.Error("storage still allocated after the next frame began")
	}
	endFrame(t, gl)

	gl.BindTexture(Texture2D, id)
	expectError(t, gl, InvalidOperation)
}

// texturedRect draws the bound texture over a window rectangle.
func texturedRect(gl *Context, x0, y0, x1, y1 float32) {
	gl.Begin(Quads)
	gl.TexCoord2f(0, 0)
	gl.Vertex2f(x0, y0)
	gl.TexCoord2f(1, 0)
	gl.Vertex2f(x1, y0)
	gl.TexCoord2f(1, 1)
	gl.Vertex2f(x1, y1)
	gl.TexCoord2f(0, 1)
	gl.Vertex2f(x0, y1)
	gl.End()
}

func TestTexSubImageInFlightCopies(t *testing.T) {
	gl := newTestContext(t)
	newBoundTexture(t, gl)
	red := [4]byte{255, 0, 0, 255}
	green := [4]byte{0, 255, 0, 255}
	gl.TexImage2D(Texture2D, 0, RGBA, 16, 16, 0, RGBA, UnsignedByte, solid(16, 16, red))

	beginFrame(t, gl)
	clearBlack(gl)
	setupOrtho(gl)
	gl.Enable(Texture2D)
	texturedRect(gl, 0, 0, 16, 16)
	before := gl.BoundTexture().addr
	gl.TexSubImage2D(Texture2D, 0, 0, 0, 16, 16, RGBA, UnsignedByte, solid(16, 16, green))
	expectError(t, gl, NoError)
	if gl.BoundTexture().addr == before {
		t.Error("storage referenced by the frame was written in place")
	}
	texturedRect(gl, 32, 0, 48, 16)
	endFrame(t, gl)

	if got := readPixel(t, gl, 8, 8); got != red {
		t.Errorf("first draw = %v, want red", got)
	}
	if got := readPixel(t, gl, 40, 8); got != green {
		t.Errorf("second draw = %v, want green", got)
	}
	if !gl.alloc.Owns(before) {
		t.Error("old storage freed while the frame may read it")
	}

	// Outside any frame, once the GE is idle, writes go in place.
	if err := gl.Finish(); err != nil {
		t.Fatal(err)
	}
	addr := gl.BoundTexture().addr
	gl.TexSubImage2D(Texture2D, 0, 0, 0, 16, 16, RGBA, UnsignedByte, solid(16, 16, red))
	if gl.BoundTexture().addr != addr {
		t.Error("idle texture was copied")
	}
}

func TestNewTexture(t *testing.T) {
	gl := newTestContext(t)
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(2, 1, color.RGBA{0, 0, 255, 255})

	tex, err := gl.NewTexture(img)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	if tex.Width() != 3 || tex.Height() != 2 {
		t.Fatalf("size = %dx%d, want 3x2", tex.Width(), tex.Height())
	}
	got := tex.Image()
	if c := got.NRGBAAt(0, 0); c != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("pixel (0,0) = %v", c)
	}
	if c := got.NRGBAAt(2, 1); c != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("pixel (2,1) = %v", c)
	}

	id := newBoundTexture(t, gl)
	gl.SetTextureResource(id, tex)
	expectError(t, gl, NoError)
	if gl.BoundTexture() != tex {
		t.Fatal("bound resource is not the new texture")
	}
	out := make([]byte, 3*2*4)
	gl.GetTexImage(Texture2D, 0, RGBA, UnsignedByte, out)
	if !bytes.Equal(out, got.Pix) {
		t.Errorf("GetTexImage = %v, want %v", out, got.Pix)
	}

	// Replacing the resource retires the old storage.
	addr := tex.addr
	gl.SetTextureResource(id, nil)
	if gl.BoundTexture().Defined() {
		t.Error("nil resource left the texture defined")
	}
	beginFrame(t, gl)
	if gl.alloc.Owns(addr) {
		t.Error("replaced storage not freed")
	}
	endFrame(t, gl)

	if _, err := gl.NewTexture(image.NewRGBA(image.Rect(0, 0, MaxTextureSize+1, 1))); !errors.Is(err, ErrTextureSize) {
		t.Errorf("oversized NewTexture error = %v, want ErrTextureSize", err)
	}
}

func TestSetTextureResourceErrors(t *testing.T) {
	gl := newTestContext(t)
	gl.SetTextureResource(0, nil)
	expectError(t, gl, InvalidValue)

	other, err := sim.New(mem.NewAllocator(16<<20, 4<<20))
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	glOther, err := New(WithDevice(other))
	if err != nil {
		t.Fatal(err)
	}
	defer glOther.Close()
	foreign, err := glOther.NewTexture(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if err != nil {
		t.Fatal(err)
	}

	id := newBoundTexture(t, gl)
	gl.SetTextureResource(id, foreign)
	expectError(t, gl, InvalidValue)
}

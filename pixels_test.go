package fakegl

import (
	"bytes"
	"testing"
)

// clearRect clears a window rectangle to a color through the scissor box.
func clearRect(gl *Context, x, y, w, h int32, r, g, b float32) {
	gl.Enable(ScissorTest)
	gl.Scissor(x, y, w, h)
	gl.ClearColor(r, g, b, 1)
	gl.Clear(ColorBufferBit)
	gl.Disable(ScissorTest)
}

func TestReadPixelsFormats(t *testing.T) {
	gl := newTestContext(t)
	beginFrame(t, gl)
	gl.ClearColor(51.0/255, 102.0/255, 153.0/255, 204.0/255)
	gl.Clear(ColorBufferBit)
	endFrame(t, gl)

	tests := []struct {
		format Enum
		want   []byte
	}{
		{RGBA, []byte{51, 102, 153, 204, 51, 102, 153, 204}},
		{RGB, []byte{51, 102, 153, 51, 102, 153}},
		{Alpha, []byte{204, 204}},
		{Luminance, []byte{51, 51}},
	}
	for _, tt := range tests {
		got := make([]byte, len(tt.want))
		gl.ReadPixels(10, 10, 2, 1, tt.format, UnsignedByte, got)
		expectError(t, gl, NoError)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("format %#x: %v, want %v", tt.format, got, tt.want)
		}
	}

	// Off-screen pixels read as zero.
	got := make([]byte, 8)
	gl.ReadPixels(-1, 0, 2, 1, RGBA, UnsignedByte, got)
	if want := []byte{0, 0, 0, 0, 51, 102, 153, 204}; !bytes.Equal(got, want) {
		t.Errorf("clipped read = %v, want %v", got, want)
	}
}

func TestReadPixelsErrors(t *testing.T) {
	gl := newTestContext(t)
	buf := make([]byte, 16)
	gl.ReadPixels(0, 0, 1, 1, RGBA, UnsignedByte, buf)
	expectError(t, gl, InvalidOperation) // no frame rendered

	beginFrame(t, gl)
	endFrame(t, gl)
	gl.ReadPixels(0, 0, -1, 1, RGBA, UnsignedByte, buf)
	expectError(t, gl, InvalidValue)
	gl.ReadPixels(0, 0, 1, 1, ColorIndex, UnsignedByte, buf)
	expectError(t, gl, InvalidEnum)
	gl.ReadPixels(0, 0, 4, 4, RGBA, UnsignedByte, buf)
	expectError(t, gl, InvalidValue)
	gl.ReadPixels(0, 0, 0, 0, RGBA, UnsignedByte, nil)
	expectError(t, gl, NoError)
}

func TestReadPixelsBottomUp(t *testing.T) {
	gl := newTestContext(t)
	beginFrame(t, gl)
	clearBlack(gl)
	clearRect(gl, 0, 0, 10, 1, 1, 1, 1)
	endFrame(t, gl)

	got := make([]byte, 8)
	gl.ReadPixels(0, 0, 1, 2, RGBA, UnsignedByte, got)
	if want := append(white[:], black[:]...); !bytes.Equal(got, want) {
		t.Errorf("column = %v, want white then black", got)
	}
}

func TestCopyPixels(t *testing.T) {
	gl := newTestContext(t)
	beginFrame(t, gl)
	clearBlack(gl)
	clearRect(gl, 0, 0, 10, 10, 1, 1, 1)
	gl.RasterPos2i(100, 50)
	gl.CopyPixels(0, 0, 10, 10, PixelColor)
	// Clipped at the right edge.
	gl.RasterPos2i(testW-5, 0)
	gl.CopyPixels(0, 0, 10, 10, PixelColor)
	expectError(t, gl, NoError)
	endFrame(t, gl)

	tests := []struct {
		x, y int32
		want [4]byte
	}{
		{100, 50, white},
		{109, 59, white},
		{110, 50, black},
		{100, 60, black},
		{99, 49, black},
		{testW - 5, 0, white},
		{testW - 1, 9, white},
		{testW - 6, 0, black},
	}
	for _, tt := range tests {
		if got := readPixel(t, gl, tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestCopyPixelsErrors(t *testing.T) {
	gl := newTestContext(t)
	gl.CopyPixels(0, 0, 1, 1, PixelColor)
	expectError(t, gl, InvalidOperation)

	beginFrame(t, gl)
	gl.CopyPixels(0, 0, 1, 1, Enum(0x1801))
	expectError(t, gl, InvalidEnum)
	gl.CopyPixels(0, 0, -1, 1, PixelColor)
	expectError(t, gl, InvalidValue)
	endFrame(t, gl)

	id := gl.GenLists(1)
	gl.NewList(id, Compile)
	gl.CopyPixels(0, 0, 1, 1, PixelColor)
	expectError(t, gl, InvalidOperation)
	gl.EndList()
}

func TestClipCopy(t *testing.T) {
	tests := []struct {
		name                 string
		sx, sy, dx, dy, w, h int
		want                 [6]int
	}{
		{"inside", 0, 0, 10, 10, 5, 5, [6]int{0, 0, 10, 10, 5, 5}},
		{"source left", -3, 0, 10, 0, 5, 5, [6]int{0, 0, 13, 0, 2, 5}},
		{"dest right", 0, 0, 97, 0, 5, 5, [6]int{0, 0, 97, 0, 3, 5}},
		{"dest below", 0, 0, 0, -2, 5, 5, [6]int{0, 2, 0, 0, 5, 3}},
		{"outside", 200, 0, 0, 0, 5, 5, [6]int{200, 0, 0, 0, -100, 5}},
	}
	for _, tt := range tests {
		sx, sy, dx, dy, w, h := clipCopy(tt.sx, tt.sy, tt.dx, tt.dy, tt.w, tt.h, 100, 100)
		if got := [6]int{sx, sy, dx, dy, w, h}; got != tt.want {
			t.Errorf("%s: clipCopy = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCopyTexImage(t *testing.T) {
	gl := newTestContext(t)
	newBoundTexture(t, gl)
	red := [4]byte{255, 0, 0, 255}
	blue := [4]byte{0, 0, 255, 255}

	beginFrame(t, gl)
	clearRect(gl, 0, 0, testW, testH, 0, 0, 1)
	clearRect(gl, 0, 0, 4, 4, 1, 0, 0)
	gl.CopyTexImage2D(Texture2D, 0, RGBA, 0, 0, 8, 8, 0)
	expectError(t, gl, NoError)

	tex := make([]byte, 8*8*4)
	texel := func(x, y int) [4]byte { return [4]byte(tex[(y*8+x)*4:]) }
	gl.GetTexImage(Texture2D, 0, RGBA, UnsignedByte, tex)
	for _, c := range []struct {
		x, y int
		want [4]byte
	}{{0, 0, red}, {3, 3, red}, {4, 0, blue}, {0, 4, blue}, {7, 7, blue}} {
		if got := texel(c.x, c.y); got != c.want {
			t.Errorf("texel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}

	// 8x8 RGBA storage is swizzled: the region covers a whole block column.
	gl.CopyTexSubImage2D(Texture2D, 0, 4, 0, 0, 0, 4, 8)
	expectError(t, gl, NoError)
	gl.CopyTexSubImage2D(Texture2D, 0, 2, 0, 0, 0, 4, 8)
	expectError(t, gl, InvalidOperation)
	endFrame(t, gl)

	gl.GetTexImage(Texture2D, 0, RGBA, UnsignedByte, tex)
	if got := texel(4, 0); got != red {
		t.Errorf("texel (4,0) = %v, want red", got)
	}
	if got := texel(7, 5); got != blue {
		t.Errorf("texel (7,5) = %v, want blue", got)
	}
}

func TestCopyTexImageErrors(t *testing.T) {
	gl := newTestContext(t)
	beginFrame(t, gl)
	gl.CopyTexImage2D(Texture2D, 0, RGBA, 0, 0, 8, 8, 0)
	expectError(t, gl, InvalidOperation)
	newBoundTexture(t, gl)
	gl.CopyTexImage2D(Texture2D, 0, RGBA, 0, 0, 8, 8, 1)
	expectError(t, gl, InvalidValue)
	gl.CopyTexImage2D(Texture2D, 0, Enum(0x8058), 0, 0, 8, 8, 0)
	expectError(t, gl, InvalidEnum)
	gl.CopyTexSubImage2D(Texture2D, 0, 0, 0, 0, 0, 1, 1)
	expectError(t, gl, InvalidOperation) // texture undefined
	endFrame(t, gl)
}

func TestCopyTexSubImageInFlight(t *testing.T) {
	red := [4]byte{255, 0, 0, 255}
	green := [4]byte{0, 255, 0, 255}
	gl := newTestContext(t)
	newBoundTexture(t, gl)
	gl.TexImage2D(Texture2D, 0, RGBA, 16, 16, 0, RGBA, UnsignedByte, solid(16, 16, red))

	beginFrame(t, gl)
	clearBlack(gl)
	setupOrtho(gl)
	gl.Enable(Texture2D)
	texturedRect(gl, 0, 0, 16, 16)
	before := gl.BoundTexture().addr

	gl.CopyTexSubImage2D(Texture2D, 0, 8, 8, 0, 0, 16, 16)
	expectError(t, gl, InvalidValue)
	if gl.BoundTexture().addr != before {
		t.Error("rejected copy replaced the texture storage")
	}

	clearRect(gl, 100, 100, 16, 16, 0, 1, 0)
	gl.CopyTexSubImage2D(Texture2D, 0, 0, 0, 100, 100, 16, 16)
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
}

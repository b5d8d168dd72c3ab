package fakegl

import (
	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/internal/texel"
	"github.com/aquaria-psp/fakegl/mem"
)

// Clear clears the buffers in mask inside the scissor box. Only the color
// buffer exists; the depth and stencil bits are accepted.
func (c *Context) Clear(mask Bitfield) {
	if mask&^(ColorBufferBit|DepthBufferBit|StencilBufferBit) != 0 {
		c.setError(InvalidValue, "Clear: unknown buffer bits", "mask", uint32(mask))
		return
	}
	if !c.checkState("Clear") {
		return
	}
	if mask&(ColorBufferBit|DepthBufferBit) == 0 {
		return
	}
	x0, y0, x1, y1, ok := c.screenScissor()
	if !ok {
		return
	}
	c.syncState()
	mode := uint32(ge.ClearEnable)
	if mask&ColorBufferBit != 0 {
		mode |= ge.ClearColor | ge.ClearAlpha
	}
	if mask&DepthBufferBit != 0 {
		mode |= ge.ClearDepth
	}
	argb := c.st.clearColor
	color := argb&0xFF00FF00 | argb>>16&0xFF | (argb&0xFF)<<16
	w := c.out()
	w.Emit(ge.OpCLEAR, mode)
	c.emitSprites(ge.VertexFormat{Color: true, Through: true}, x0, y0, x1+1, y1+1, color)
	w.Emit(ge.OpCLEAR, 0)
}

// RasterPos2i sets the window position CopyPixels copies to.
func (c *Context) RasterPos2i(x, y int32) {
	if !c.checkState("RasterPos2i") {
		return
	}
	c.st.rasterX, c.st.rasterY = x, y
}

// readback waits for the GE and returns the pixels of the current render
// target.
func (c *Context) readback(name string) ([]byte, bool) {
	if c.prim.active {
		c.setError(InvalidOperation, name+": inside Begin/End")
		return nil, false
	}
	if c.target.Addr == mem.Nil {
		c.setError(InvalidOperation, name+": nothing rendered yet")
		return nil, false
	}
	if err := c.Finish(); err != nil {
		Logger().Warn("fakegl: "+name+": GE failed", "err", err)
	}
	return c.target.Bytes(c.alloc), true
}

// readRect copies the w x h window rectangle at (x, y) from fb as RGBA
// rows, bottom row first. Pixels outside the screen read as zero.
func (c *Context) readRect(fb []byte, x, y, w, h int) []byte {
	out := make([]byte, w*h*4)
	stride := c.target.Stride
	for row := 0; row < h; row++ {
		sy := c.height - 1 - (y + row)
		if sy < 0 || sy >= c.height {
			continue
		}
		for col := 0; col < w; col++ {
			sx := x + col
			if sx < 0 || sx >= c.width {
				continue
			}
			o := (sy*stride + sx) * 4
			copy(out[(row*w+col)*4:], fb[o:o+4])
		}
	}
	return out
}

// ReadPixels reads a window rectangle into pixels, bottom row first. The
// GE is waited for.
func (c *Context) ReadPixels(x, y, width, height int32, format, typ Enum, pixels []byte) {
	if width < 0 || height < 0 {
		c.setError(InvalidValue, "ReadPixels: negative size", "w", width, "h", height)
		return
	}
	if format == ColorIndex {
		c.setError(InvalidEnum, "ReadPixels: unsupported format", "format", format)
		return
	}
	to, ok := c.checkPixels("ReadPixels", format, typ, int(width), int(height), pixels, false)
	if !ok {
		return
	}
	fb, ok := c.readback("ReadPixels")
	if !ok {
		return
	}
	w, h := int(width), int(height)
	rgba := c.readRect(fb, int(x), int(y), w, h)
	bpp := to.BytesPerPixel()
	for i := 0; i < w*h; i++ {
		p := rgba[i*4:]
		texel.Put(pixels[i*bpp:], to, p[0], p[1], p[2], p[3])
	}
}

// CopyTexImage2D defines the bound texture from a window rectangle.
func (c *Context) CopyTexImage2D(target Enum, level int32, internalFormat Enum, x, y, width, height, border int32) {
	if !c.checkImage("CopyTexImage2D", target, level) {
		return
	}
	stored, ok := sourceOf(internalFormat)
	if !ok {
		c.setError(InvalidEnum, "CopyTexImage2D: unsupported internal format", "format", internalFormat)
		return
	}
	if border != 0 || !validSize(width, height) {
		c.setError(InvalidValue, "CopyTexImage2D: invalid size or border", "w", width, "h", height, "border", border)
		return
	}
	if c.st.texture == 0 {
		c.setError(InvalidOperation, "CopyTexImage2D: no texture bound")
		return
	}
	fb, ok := c.readback("CopyTexImage2D")
	if !ok {
		return
	}
	w, h := int(width), int(height)
	t := c.defineBound("CopyTexImage2D", w, h, stored)
	if t == nil {
		return
	}
	texel.Store(t.Pixels(), t.layout, stored, 0, 0, w, h, c.readRect(fb, int(x), int(y), w, h), texel.SourceRGBA, w*4)
}

// CopyTexSubImage2D replaces a region of the bound texture with a window
// rectangle.
func (c *Context) CopyTexSubImage2D(target Enum, level, xoff, yoff, x, y, width, height int32) {
	if !c.checkImage("CopyTexSubImage2D", target, level) {
		return
	}
	t := c.subImageRegion("CopyTexSubImage2D", xoff, yoff, width, height)
	if t == nil {
		return
	}
	fb, ok := c.readback("CopyTexSubImage2D")
	if !ok {
		return
	}
	w, h := int(width), int(height)
	rect := c.readRect(fb, int(x), int(y), w, h)
	if !c.writableOrError("CopyTexSubImage2D", t) {
		return
	}
	texel.Store(t.Pixels(), t.layout, t.source, int(xoff), int(yoff), w, h, rect, texel.SourceRGBA, w*4)
}

// CopyPixels copies a window rectangle to the raster position with a GE
// block transfer. Parts outside the screen are clipped.
func (c *Context) CopyPixels(x, y, width, height int32, typ Enum) {
	if typ != PixelColor {
		c.setError(InvalidEnum, "CopyPixels: unsupported type", "type", typ)
		return
	}
	if width < 0 || height < 0 {
		c.setError(InvalidValue, "CopyPixels: negative size", "w", width, "h", height)
		return
	}
	if !c.checkState("CopyPixels") {
		return
	}
	if c.rec != nil {
		c.setError(InvalidOperation, "CopyPixels: not supported in display lists")
		return
	}
	sx, sy, dx, dy, w, h := clipCopy(int(x), int(y), int(c.st.rasterX), int(c.st.rasterY), int(width), int(height), c.width, c.height)
	if w <= 0 || h <= 0 {
		return
	}
	c.syncState()
	out := c.out()
	addr := uint32(c.target.Addr)
	stride := uint32(c.target.Stride)
	out.Emit(ge.OpTRXSBP, addr&0xFFFFFF)
	out.Emit(ge.OpTRXSBW, stride|(addr>>24&0xF)<<16)
	out.Emit(ge.OpTRXDBP, addr&0xFFFFFF)
	out.Emit(ge.OpTRXDBW, stride|(addr>>24&0xF)<<16)
	out.Emit(ge.OpTRXSPOS, uint32(c.height-(sy+h))<<10|uint32(sx))
	out.Emit(ge.OpTRXDPOS, uint32(c.height-(dy+h))<<10|uint32(dx))
	out.Emit(ge.OpTRXSIZE, uint32(h-1)<<10|uint32(w-1))
	out.Emit(ge.OpTRXKICK, 1)
}

// clipCopy clips a w x h copy from (sx, sy) to (dx, dy) so both
// rectangles lie inside a width x height screen.
func clipCopy(sx, sy, dx, dy, w, h, width, height int) (int, int, int, int, int, int) {
	clip := func(s, d, n, limit int) (int, int, int) {
		if s < 0 {
			d, n, s = d-s, n+s, 0
		}
		if d < 0 {
			s, n, d = s-d, n+d, 0
		}
		n = min(n, limit-s, limit-d)
		return s, d, n
	}
	sx, dx, w = clip(sx, dx, w, width)
	sy, dy, h = clip(sy, dy, h, height)
	return sx, sy, dx, dy, w, h
}

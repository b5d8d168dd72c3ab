package fakegl

import (
	"github.com/gogpu/gputypes"

	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/internal/slotmap"
	"github.com/aquaria-psp/fakegl/internal/texel"
	"github.com/aquaria-psp/fakegl/mem"
)

// sourceOf maps a GL pixel format to its client layout.
func sourceOf(format Enum) (texel.Source, bool) {
	switch format {
	case RGB:
		return texel.SourceRGB, true
	case RGBA:
		return texel.SourceRGBA, true
	case Alpha:
		return texel.SourceAlpha, true
	case Luminance:
		return texel.SourceLuminance, true
	case ColorIndex:
		return texel.SourceIndex, true
	}
	return 0, false
}

func formatOf(s texel.Source) Enum {
	switch s {
	case texel.SourceRGB:
		return RGB
	case texel.SourceRGBA:
		return RGBA
	case texel.SourceAlpha:
		return Alpha
	case texel.SourceLuminance:
		return Luminance
	default:
		return ColorIndex
	}
}

// checkManage validates a texture or display list management call.
func (c *Context) checkManage(name string) bool {
	if c.prim.active {
		c.setError(InvalidOperation, name+": inside Begin/End")
		return false
	}
	return true
}

// boundTexture returns the texture bound to TEXTURE_2D, or nil.
func (c *Context) boundTexture() *Texture {
	if c.st.texture == 0 {
		return nil
	}
	t, ok := c.textures.Get(c.st.texture)
	if !ok {
		internal("bound texture %#x is not live", uint32(c.st.texture))
	}
	return *t
}

// liveTexture returns id, or 0 when id was deleted.
func (c *Context) liveTexture(id slotmap.ID) slotmap.ID {
	if c.textures.State(id) != slotmap.Live {
		return 0
	}
	return id
}

// texturing reports whether draws sample a texture.
func (c *Context) texturing() bool {
	return c.st.enabled(capTexture2D) && c.st.texture != 0
}

// placeholderBound reports whether texturing is on with a texture that
// has no storage.
func (c *Context) placeholderBound() bool {
	return c.texturing() && !c.boundTexture().Defined()
}

// retire queues storage for release at the next frame.
func (c *Context) retire(s storage) {
	for _, a := range [...]mem.Addr{s.addr, s.pal} {
		if a != mem.Nil {
			c.retired = append(c.retired, a)
		}
	}
}

// GenTextures fills ids with new texture names. Each name holds an
// undefined texture until TexImage2D.
func (c *Context) GenTextures(ids []uint32) {
	if !c.checkManage("GenTextures") {
		return
	}
	if c.textures.Available() < len(ids) {
		c.setError(OutOfMemory, "GenTextures: texture table full", "n", len(ids), "available", c.textures.Available())
		return
	}
	for i := range ids {
		id, ok := c.textures.Insert(newPlaceholder())
		if !ok {
			internal("texture table full after capacity check")
		}
		ids[i] = uint32(id)
	}
}

// DeleteTextures deletes textures. Their memory is released when the next
// frame begins. Deleting the bound texture binds 0. Zero and unknown names
// are ignored.
func (c *Context) DeleteTextures(ids []uint32) {
	if !c.checkManage("DeleteTextures") {
		return
	}
	for _, n := range ids {
		id := slotmap.ID(n)
		if !c.textures.Remove(id) {
			continue
		}
		if c.st.texture == id {
			c.st.texture = 0
			c.dirty |= dirtyTexture
		}
		for i := range c.attribs {
			if c.attribs[i].st.texture == id {
				c.attribs[i].st.texture = 0
			}
		}
	}
}

// IsTexture reports whether id names a texture that was not deleted.
func (c *Context) IsTexture(id uint32) bool {
	return c.textures.State(slotmap.ID(id)) == slotmap.Live
}

// BindTexture binds a texture name to TEXTURE_2D. 0 unbinds.
func (c *Context) BindTexture(target Enum, id uint32) {
	if target != Texture2D {
		c.setError(InvalidEnum, "BindTexture: unsupported target", "target", target)
		return
	}
	sid := slotmap.ID(id)
	if id != 0 {
		if !c.textures.InRange(sid) {
			c.setError(InvalidValue, "BindTexture: texture name out of range", "id", id)
			return
		}
		if c.textures.State(sid) != slotmap.Live {
			c.setError(InvalidOperation, "BindTexture: texture not generated or deleted", "id", id)
			return
		}
	}
	if !c.checkManage("BindTexture") {
		return
	}
	if c.st.texture != sid {
		c.st.texture = sid
		c.dirty |= dirtyTexture
	}
}

// BoundTexture returns the resource bound to TEXTURE_2D, or nil. Its
// pixels and palette may be changed directly.
func (c *Context) BoundTexture() *Texture {
	return c.boundTexture()
}

// SetTextureResource makes t the resource of texture id. The context owns
// t from then on; the resource it replaces is released when the next frame
// begins. A nil t makes the texture undefined.
func (c *Context) SetTextureResource(id uint32, t *Texture) {
	sid := slotmap.ID(id)
	if id == 0 || !c.textures.InRange(sid) {
		c.setError(InvalidValue, "SetTextureResource: texture name out of range", "id", id)
		return
	}
	p, ok := c.textures.Get(sid)
	if !ok {
		c.setError(InvalidOperation, "SetTextureResource: texture not generated or deleted", "id", id)
		return
	}
	if t != nil && t.Defined() && t.alloc != c.alloc {
		c.setError(InvalidValue, "SetTextureResource: texture from another device", "id", id)
		return
	}
	if !c.checkManage("SetTextureResource") {
		return
	}
	if t == nil {
		t = newPlaceholder()
	}
	if old := *p; old != t {
		c.retire(storage{addr: old.addr, pal: old.pal})
		old.addr, old.pal = mem.Nil, mem.Nil
	}
	*p = t
	if c.st.texture == sid {
		c.dirty |= dirtyTexture
	}
}

// checkImage validates the arguments shared by the texture image calls.
func (c *Context) checkImage(name string, target Enum, level int32) bool {
	if target != Texture2D {
		c.setError(InvalidEnum, name+": unsupported target", "target", target)
		return false
	}
	if level != 0 {
		c.setError(InvalidValue, name+": mipmap levels are not supported", "level", level)
		return false
	}
	return true
}

// checkPixels validates a client pixel format and buffer.
func (c *Context) checkPixels(name string, format, typ Enum, w, h int, pixels []byte, optional bool) (texel.Source, bool) {
	src, ok := sourceOf(format)
	if !ok {
		c.setError(InvalidEnum, name+": unsupported format", "format", format)
		return 0, false
	}
	if typ != UnsignedByte {
		c.setError(InvalidEnum, name+": unsupported type", "type", typ)
		return 0, false
	}
	if (pixels != nil || !optional) && len(pixels) < w*h*src.BytesPerPixel() {
		c.setError(InvalidValue, name+": pixel buffer too small", "len", len(pixels), "want", w*h*src.BytesPerPixel())
		return 0, false
	}
	return src, true
}

func validSize(w, h int32) bool {
	return w >= 1 && h >= 1 && w <= MaxTextureSize && h <= MaxTextureSize
}

// TexImage2D defines the bound texture. pixels holds width x height
// pixels in format, the row at t = 0 first, or is nil to leave the texture
// zeroed. The previous storage is released when the next
// frame begins.
func (c *Context) TexImage2D(target Enum, level int32, internalFormat Enum, width, height, border int32, format, typ Enum, pixels []byte) {
	if !c.checkImage("TexImage2D", target, level) {
		return
	}
	stored, ok := sourceOf(internalFormat)
	if !ok {
		c.setError(InvalidValue, "TexImage2D: unsupported internal format", "internalFormat", internalFormat)
		return
	}
	if !validSize(width, height) || border != 0 {
		c.setError(InvalidValue, "TexImage2D: invalid size or border", "width", width, "height", height, "border", border)
		return
	}
	from, ok := c.checkPixels("TexImage2D", format, typ, int(width), int(height), pixels, true)
	if !ok {
		return
	}
	t := c.defineBound("TexImage2D", int(width), int(height), stored)
	if t == nil {
		return
	}
	if pixels != nil {
		w := int(width)
		texel.Store(t.Pixels(), t.layout, stored, 0, 0, w, int(height), pixels, from, w*from.BytesPerPixel())
	}
}

// defineBound gives the bound texture new zeroed storage.
func (c *Context) defineBound(name string, w, h int, stored texel.Source) *Texture {
	if !c.checkManage(name) {
		return nil
	}
	if c.st.texture == 0 {
		c.setError(InvalidOperation, name+": no texture bound")
		return nil
	}
	l := storageLayout(w, h, stored, c.cfg.swizzle)
	s, ok := allocStorage(c.alloc, l, stored)
	if !ok {
		c.setError(OutOfMemory, name+": texture memory exhausted", "bytes", l.Size())
		return nil
	}
	t := c.boundTexture()
	c.retire(t.attach(c.alloc, s, w, h, stored))
	c.dirty |= dirtyTexture
	return t
}

// busy reports whether an object last used in frame serial may still be
// read by the GE.
func (c *Context) busy(serial uint64) bool {
	return serial == c.serial && (c.inFrame || c.inflight)
}

// writable prepares t for a CPU write. Storage referenced by a frame the
// GE may not have executed yet is replaced by a copy.
func (c *Context) writable(t *Texture) bool {
	if !c.busy(t.used) {
		return true
	}
	s, ok := allocStorage(c.alloc, t.layout, t.source)
	if !ok {
		return false
	}
	copy(c.alloc.Bytes(s.addr, t.layout.Size()), t.Pixels())
	if s.pal != mem.Nil {
		copy(c.alloc.Bytes(s.pal, texel.PaletteEntries*4), t.Palette())
	}
	c.retire(t.attach(c.alloc, s, t.width, t.height, t.source))
	t.used = 0
	c.dirty |= dirtyTexture
	return true
}

// subImageTarget validates a sub-image region of the bound texture and
// prepares the texture for the write.
func (c *Context) subImageTarget(name string, x, y, w, h int32) *Texture {
	t := c.subImageRegion(name, x, y, w, h)
	if t == nil || !c.writableOrError(name, t) {
		return nil
	}
	return t
}

func (c *Context) writableOrError(name string, t *Texture) bool {
	if !c.writable(t) {
		c.setError(OutOfMemory, name+": texture memory exhausted")
		return false
	}
	return true
}

// subImageRegion validates a sub-image region of the bound texture.
func (c *Context) subImageRegion(name string, x, y, w, h int32) *Texture {
	if !c.checkManage(name) {
		return nil
	}
	t := c.boundTexture()
	if t == nil || !t.Defined() {
		c.setError(InvalidOperation, name+": bound texture is undefined")
		return nil
	}
	if x < 0 || y < 0 || w < 0 || h < 0 || int(x+w) > t.width || int(y+h) > t.height {
		c.setError(InvalidValue, name+": region outside the texture", "x", x, "y", y, "w", w, "h", h)
		return nil
	}
	if !t.layout.Aligned(int(x), int(y), int(w), int(h)) {
		c.setError(InvalidOperation, name+": region not aligned to swizzle blocks", "x", x, "y", y, "w", w, "h", h)
		return nil
	}
	return t
}

// TexSubImage2D replaces a region of the bound texture. On swizzled
// textures the region must cover whole 16-byte by 8-row blocks.
func (c *Context) TexSubImage2D(target Enum, level, x, y, width, height int32, format, typ Enum, pixels []byte) {
	if !c.checkImage("TexSubImage2D", target, level) {
		return
	}
	from, ok := c.checkPixels("TexSubImage2D", format, typ, int(width), int(height), pixels, false)
	if !ok {
		return
	}
	t := c.subImageTarget("TexSubImage2D", x, y, width, height)
	if t == nil {
		return
	}
	w := int(width)
	texel.Store(t.Pixels(), t.layout, t.source, int(x), int(y), w, int(height), pixels, from, w*from.BytesPerPixel())
}

// GetTexImage reads the bound texture into pixels.
func (c *Context) GetTexImage(target Enum, level int32, format, typ Enum, pixels []byte) {
	if !c.checkImage("GetTexImage", target, level) {
		return
	}
	if !c.checkManage("GetTexImage") {
		return
	}
	t := c.boundTexture()
	if t == nil || !t.Defined() {
		c.setError(InvalidOperation, "GetTexImage: bound texture is undefined")
		return
	}
	to, ok := c.checkPixels("GetTexImage", format, typ, t.width, t.height, pixels, false)
	if !ok {
		return
	}
	texel.Load(pixels, to, t.width*to.BytesPerPixel(), t.layout, t.Palette(), 0, 0, t.width, t.height, t.Pixels())
}

func filterMode(e Enum) (gputypes.FilterMode, bool) {
	switch e {
	case Nearest, NearestMipmapNearest, NearestMipmapLinear:
		return gputypes.FilterModeNearest, true
	case Linear, LinearMipmapNearest, LinearMipmapLinear:
		return gputypes.FilterModeLinear, true
	}
	return 0, false
}

func addressMode(e Enum) (gputypes.AddressMode, bool) {
	switch e {
	case Clamp, ClampToEdge:
		return gputypes.AddressModeClampToEdge, true
	case Repeat:
		return gputypes.AddressModeRepeat, true
	case MirroredRepeat:
		return gputypes.AddressModeMirrorRepeat, true
	}
	return 0, false
}

// TexParameteri sets a filter or wrap mode of the bound texture. Mipmap
// filters fall back to their base filter.
func (c *Context) TexParameteri(target, pname Enum, param int32) {
	if target != Texture2D {
		c.setError(InvalidEnum, "TexParameteri: unsupported target", "target", target)
		return
	}
	var (
		f  gputypes.FilterMode
		a  gputypes.AddressMode
		ok bool
	)
	switch pname {
	case TextureMinFilter:
		f, ok = filterMode(Enum(param))
	case TextureMagFilter:
		f, ok = filterMode(Enum(param))
		ok = ok && (Enum(param) == Nearest || Enum(param) == Linear)
	case TextureWrapS, TextureWrapT:
		a, ok = addressMode(Enum(param))
	default:
		c.setError(InvalidEnum, "TexParameteri: unsupported parameter", "pname", pname)
		return
	}
	if !ok {
		c.setError(InvalidEnum, "TexParameteri: unsupported value", "pname", pname, "param", param)
		return
	}
	if !c.checkManage("TexParameteri") {
		return
	}
	t := c.boundTexture()
	if t == nil {
		c.setError(InvalidOperation, "TexParameteri: no texture bound")
		return
	}
	switch pname {
	case TextureMinFilter:
		t.minFilter = f
	case TextureMagFilter:
		t.magFilter = f
	case TextureWrapS:
		t.wrapS = a
	case TextureWrapT:
		t.wrapT = a
	}
	c.dirty |= dirtyTexture
}

// GetTexLevelParameteriv returns TEXTURE_WIDTH, TEXTURE_HEIGHT or
// TEXTURE_INTERNAL_FORMAT of the bound texture in params[0].
func (c *Context) GetTexLevelParameteriv(target Enum, level int32, pname Enum, params []int32) {
	if !c.checkImage("GetTexLevelParameteriv", target, level) {
		return
	}
	if pname != TextureWidth && pname != TextureHeight && pname != TextureInternalFormat {
		c.setError(InvalidEnum, "GetTexLevelParameteriv: unsupported parameter", "pname", pname)
		return
	}
	if len(params) < 1 {
		c.setError(InvalidValue, "GetTexLevelParameteriv: no room for the result")
		return
	}
	t := c.boundTexture()
	if t == nil {
		t = newPlaceholder()
	}
	switch pname {
	case TextureWidth:
		params[0] = int32(t.width)
	case TextureHeight:
		params[0] = int32(t.height)
	case TextureInternalFormat:
		params[0] = 0
		if t.Defined() {
			params[0] = int32(formatOf(t.source))
		}
	}
}

// textureBlockLen is the length in words of a texture block recorded in a
// display list.
const textureBlockLen = 18

// textureBlock appends the commands programming the texture unit for t to
// dst. With pad set the block is filled up to textureBlockLen with NOPs, so
// it can be rewritten in place for another texture.
func textureBlock(dst []uint32, t *Texture, on, pad bool) []uint32 {
	start := len(dst)
	emit := func(op ge.Op, arg uint32) { dst = append(dst, ge.Command(op, arg)) }
	emit(ge.OpTME, flag(on))
	if t != nil && t.Defined() {
		l := t.layout
		addr := uint32(t.addr)
		emit(ge.OpTPSM, l.Format.Info().PSM)
		emit(ge.OpTMODE, flag(l.Swizzled))
		emit(ge.OpTBP0, addr&0xFFFFFF)
		emit(ge.OpTBW0, uint32(l.Width)|(addr>>24&0x1F)<<16)
		emit(ge.OpTSIZE0, uint32(texel.Log2(l.Height))<<8|uint32(texel.Log2(l.Width)))
		emit(ge.OpUSCALE, ge.Float24(float32(t.width)/float32(l.Width)))
		emit(ge.OpVSCALE, ge.Float24(float32(t.height)/float32(l.Height)))
		emit(ge.OpUOFFSET, ge.Float24(0))
		emit(ge.OpVOFFSET, ge.Float24(0))
		emit(ge.OpTFLT, uint32(t.minFilter)|uint32(t.magFilter)<<8)
		emit(ge.OpTWRAP, uint32(t.wrapS)|uint32(t.wrapT)<<8)
		emit(ge.OpTFUNC, ge.TexModulate|1<<8)
		if t.pal != mem.Nil {
			pal := uint32(t.pal)
			emit(ge.OpCLUT, ge.PSM8888|0xFF<<8)
			emit(ge.OpCBP, pal&0xFFFFFF)
			emit(ge.OpCBPH, (pal>>24&0xF)<<16)
			emit(ge.OpCLOAD, texel.PaletteEntries/8)
		}
		emit(ge.OpTFLUSH, 0)
	}
	for pad && len(dst)-start < textureBlockLen {
		emit(ge.OpNOP, 0)
	}
	return dst
}

// emitTexture programs the texture unit for the bound texture. A list
// records the texture by ID and gets a fixed-size block, resolved when the
// list is called.
func (c *Context) emitTexture() {
	w := c.out()
	t := c.boundTexture()
	var buf [textureBlockLen]uint32
	words := buf[:0]
	switch r := c.rec; {
	case r != nil && c.st.texture != 0:
		on := c.st.enabled(capTexture2D)
		r.texs = append(r.texs, texRef{off: r.cmds.Len(), id: c.st.texture, on: on})
		words = textureBlock(words, t, on && t.Defined(), true)
	case r == nil && t != nil && t.Defined():
		t.used = c.serial
		fallthrough
	default:
		words = textureBlock(words, t, c.texturing(), false)
	}
	for _, wd := range words {
		op, arg := ge.Decode(wd)
		w.Emit(op, arg)
	}
}

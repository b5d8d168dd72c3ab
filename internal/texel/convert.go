package texel

import "encoding/binary"

// PaletteEntries is the size of the palette attached to indexed textures.
const PaletteEntries = 256

// Ramp returns the palette entry for index i of the linear ramp used by
// 8-bit textures defined from s, as RGBA bytes.
func Ramp(s Source, i byte) (r, g, b, a byte) {
	switch s {
	case SourceAlpha:
		return 0xFF, 0xFF, 0xFF, i
	case SourceLuminance:
		return i, i, i, 0xFF
	default:
		return i, i, i, i
	}
}

// PutRamp writes the 256-entry ramp palette for s into dst as little endian
// ABGR words (R, G, B, A byte order).
func PutRamp(dst []byte, s Source) {
	for i := 0; i < PaletteEntries; i++ {
		r, g, b, a := Ramp(s, byte(i))
		binary.LittleEndian.PutUint32(dst[i*4:], uint32(r)|uint32(g)<<8|uint32(b)<<16|uint32(a)<<24)
	}
}

// Expand returns the RGBA value of the client pixel p in layout s.
func Expand(p []byte, s Source) (r, g, b, a byte) {
	switch s {
	case SourceRGB:
		return p[0], p[1], p[2], 0xFF
	case SourceRGBA:
		return p[0], p[1], p[2], p[3]
	default:
		return Ramp(s, p[0])
	}
}

// Reduce returns the single byte a one-byte layout s keeps of an RGBA value.
func Reduce(r, g, b, a byte, s Source) byte {
	if s == SourceAlpha {
		return a
	}
	return r
}

// Put writes an RGBA value as a client pixel in layout s.
func Put(p []byte, s Source, r, g, b, a byte) {
	switch s {
	case SourceRGB:
		p[0], p[1], p[2] = r, g, b
	case SourceRGBA:
		p[0], p[1], p[2], p[3] = r, g, b, a
	default:
		p[0] = Reduce(r, g, b, a, s)
	}
}

// Store converts the w x h client pixels in src (layout from, srcStride
// bytes per row) into texture storage dst at (x, y). internal is the layout
// the texture was defined with; it selects the palette ramp for indexed
// storage and forces opaque alpha for RGB textures.
func Store(dst []byte, l Layout, internal Source, x, y, w, h int, src []byte, from Source, srcStride int) {
	sbpp := from.BytesPerPixel()
	indexed := l.Format == FormatT8
	for row := 0; row < h; row++ {
		sp := src[row*srcStride:]
		for col := 0; col < w; col++ {
			p := sp[col*sbpp:]
			o := l.Offset(x+col, y+row)
			if indexed {
				if sbpp == 1 {
					dst[o] = p[0]
				} else {
					r, g, b, a := Expand(p, from)
					dst[o] = Reduce(r, g, b, a, internal)
				}
				continue
			}
			r, g, b, a := Expand(p, from)
			if internal == SourceRGB {
				a = 0xFF
			}
			dst[o], dst[o+1], dst[o+2], dst[o+3] = r, g, b, a
		}
	}
}

// Load reads the w x h region at (x, y) of texture storage src into dst as
// client pixels in layout to, dstStride bytes per row. pal is the palette of
// indexed storage in PutRamp layout.
func Load(dst []byte, to Source, dstStride int, l Layout, pal []byte, x, y, w, h int, src []byte) {
	dbpp := to.BytesPerPixel()
	for row := 0; row < h; row++ {
		dp := dst[row*dstStride:]
		for col := 0; col < w; col++ {
			r, g, b, a := At(src, l, pal, x+col, y+row)
			Put(dp[col*dbpp:], to, r, g, b, a)
		}
	}
}

// At returns the RGBA value of texel (x, y), looking indices up in pal.
func At(src []byte, l Layout, pal []byte, x, y int) (r, g, b, a byte) {
	o := l.Offset(x, y)
	if l.Format == FormatT8 {
		p := pal[int(src[o])*4:]
		return p[0], p[1], p[2], p[3]
	}
	return src[o], src[o+1], src[o+2], src[o+3]
}

// Package texel converts pixel data between client layouts and GE texture
// storage.
//
// Textures are stored either as 32-bit RGBA8888 texels or as 8-bit indices
// into a 256-entry palette. Storage dimensions are powers of two and the
// rows may be swizzled into the GE's 16-byte by 8-row block order.
package texel

import "github.com/gogpu/gputypes"

// Format is a texture storage format.
type Format uint8

const (
	// FormatRGBA8888 stores 4 bytes per texel in R, G, B, A byte order.
	FormatRGBA8888 Format = iota

	// FormatT8 stores one palette index per texel.
	FormatT8

	formatCount
)

// FormatInfo contains metadata about a storage format.
type FormatInfo struct {
	// BytesPerPixel is the number of bytes per texel.
	BytesPerPixel int

	// PSM is the GE texel format code (TPSM argument).
	PSM uint32

	// Indexed reports whether texels are palette indices.
	Indexed bool

	// GPU is the equivalent portable texture format.
	GPU gputypes.TextureFormat
}

var formatInfoTable = [formatCount]FormatInfo{
	FormatRGBA8888: {BytesPerPixel: 4, PSM: 3, GPU: gputypes.TextureFormatRGBA8Unorm},
	FormatT8:       {BytesPerPixel: 1, PSM: 5, Indexed: true, GPU: gputypes.TextureFormatR8Unorm},
}

// Info returns the FormatInfo for this format.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	return formatInfoTable[f]
}

// BytesPerPixel returns the number of bytes per texel.
func (f Format) BytesPerPixel() int {
	return f.Info().BytesPerPixel
}

// String returns a string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatRGBA8888:
		return "RGBA8888"
	case FormatT8:
		return "T8"
	default:
		return "Unknown"
	}
}

// Source is a client pixel layout, as passed to texture upload and pixel
// read-back calls.
type Source uint8

const (
	// SourceRGB is 3 bytes per pixel.
	SourceRGB Source = iota
	// SourceRGBA is 4 bytes per pixel.
	SourceRGBA
	// SourceAlpha is one alpha byte per pixel.
	SourceAlpha
	// SourceLuminance is one gray byte per pixel.
	SourceLuminance
	// SourceIndex is one intensity byte per pixel, replicated to all channels.
	SourceIndex
)

// BytesPerPixel returns the client pixel size.
func (s Source) BytesPerPixel() int {
	switch s {
	case SourceRGB:
		return 3
	case SourceRGBA:
		return 4
	default:
		return 1
	}
}

// Storage returns the storage format used for textures defined from s.
func (s Source) Storage() Format {
	switch s {
	case SourceRGB, SourceRGBA:
		return FormatRGBA8888
	default:
		return FormatT8
	}
}

// String returns a string representation of the source layout.
func (s Source) String() string {
	switch s {
	case SourceRGB:
		return "RGB"
	case SourceRGBA:
		return "RGBA"
	case SourceAlpha:
		return "Alpha"
	case SourceLuminance:
		return "Luminance"
	case SourceIndex:
		return "Index"
	default:
		return "Unknown"
	}
}

// NextPow2 returns the smallest power of two >= n, and 1 for n <= 1.
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Log2 returns floor(log2(n)) for n >= 1.
func Log2(n int) int {
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}

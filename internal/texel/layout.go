package texel

// Swizzle block geometry: blocks are 16 bytes wide and 8 rows tall, stored
// contiguously in row-major block order.
const (
	BlockBytes = 16
	BlockRows  = 8
)

// CanSwizzle reports whether a surface with the given row size in bytes and
// height can be stored swizzled.
func CanSwizzle(rowBytes, height int) bool {
	return rowBytes > 0 && height > 0 && rowBytes%BlockBytes == 0 && height%BlockRows == 0
}

// SwizzledOffset maps byte column x of row y to its offset in swizzled
// storage with rowBytes bytes per row.
func SwizzledOffset(x, y, rowBytes int) int {
	blocksPerRow := rowBytes / BlockBytes
	block := (y/BlockRows)*blocksPerRow + x/BlockBytes
	return block*BlockBytes*BlockRows + (y%BlockRows)*BlockBytes + x%BlockBytes
}

// Swizzle reorders linear rows from src into block order in dst.
func Swizzle(dst, src []byte, rowBytes, height int) {
	for y := 0; y < height; y++ {
		row := src[y*rowBytes : (y+1)*rowBytes]
		for x := 0; x < rowBytes; x += BlockBytes {
			copy(dst[SwizzledOffset(x, y, rowBytes):], row[x:x+BlockBytes])
		}
	}
}

// Unswizzle is the inverse of Swizzle.
func Unswizzle(dst, src []byte, rowBytes, height int) {
	for y := 0; y < height; y++ {
		row := dst[y*rowBytes : (y+1)*rowBytes]
		for x := 0; x < rowBytes; x += BlockBytes {
			o := SwizzledOffset(x, y, rowBytes)
			copy(row[x:x+BlockBytes], src[o:o+BlockBytes])
		}
	}
}

// Layout describes the storage of one texture.
type Layout struct {
	Format   Format
	Width    int // storage width, a power of two
	Height   int // storage height, a power of two
	Swizzled bool
}

// RowBytes returns the size of one storage row.
func (l Layout) RowBytes() int {
	return l.Width * l.Format.BytesPerPixel()
}

// Size returns the total storage size in bytes.
func (l Layout) Size() int {
	return l.RowBytes() * l.Height
}

// Offset returns the byte offset of texel (x, y).
func (l Layout) Offset(x, y int) int {
	bx := x * l.Format.BytesPerPixel()
	if l.Swizzled {
		return SwizzledOffset(bx, y, l.RowBytes())
	}
	return y*l.RowBytes() + bx
}

// Aligned reports whether the region (x, y, w, h) covers whole swizzle
// blocks. Unswizzled layouts accept any region.
func (l Layout) Aligned(x, y, w, h int) bool {
	if !l.Swizzled {
		return true
	}
	bpp := l.Format.BytesPerPixel()
	return (x*bpp)%BlockBytes == 0 && (w*bpp)%BlockBytes == 0 && y%BlockRows == 0 && h%BlockRows == 0
}

package sim

import (
	"fmt"

	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/mem"
)

// transfer copies the rectangle described by the TRX registers. Pixels are
// 32 bits when wide is set and 16 bits otherwise.
func (d *Device) transfer(wide bool) error {
	t := &d.regs.trx
	bpp := 2
	if wide {
		bpp = 4
	}
	src := mem.Addr((t[1]>>16&0xF)<<24 | t[0]&0xFFFFFF)
	dst := mem.Addr((t[3]>>16&0xF)<<24 | t[2]&0xFFFFFF)
	sStride, dStride := int(t[1]&0xFFFF), int(t[3]&0xFFFF)
	sx, sy := int(t[4]&0x3FF), int(t[4]>>10&0x3FF)
	dx, dy := int(t[5]&0x3FF), int(t[5]>>10&0x3FF)
	w, h := int(t[6]&0x3FF)+1, int(t[6]>>10&0x3FF)+1

	sb := d.alloc.Bytes(src, ((sy+h-1)*sStride+sx+w)*bpp)
	db := d.alloc.Bytes(dst, ((dy+h-1)*dStride+dx+w)*bpp)
	if sb == nil || db == nil || w > sStride || w > dStride {
		return fmt.Errorf("%w: transfer %dx%d from %#08x to %#08x outside memory",
			ge.ErrBadList, w, h, uint32(src), uint32(dst))
	}

	row := w * bpp
	tmp := make([]byte, row*h)
	for y := 0; y < h; y++ {
		o := ((sy+y)*sStride + sx) * bpp
		copy(tmp[y*row:], sb[o:o+row])
	}
	for y := 0; y < h; y++ {
		o := ((dy+y)*dStride + dx) * bpp
		copy(db[o:o+row], tmp[y*row:])
	}
	return nil
}

package sim

import (
	"fmt"

	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/internal/blend"
	"github.com/aquaria-psp/fakegl/mem"
)

// drawRange is the size of the GE's drawing space. Screen coordinates are
// drawing coordinates minus OFFSETX/OFFSETY.
const drawRange = 4096

// screenVertex is a vertex after transform, in framebuffer pixels with
// texture coordinates in texels.
type screenVertex struct {
	x, y  float64
	w     float64
	u, v  float64
	color blend.Color

	// drawable is false for a vertex behind the eye or outside the
	// drawing space; primitives using it are dropped.
	drawable bool
}

// fetch reads count vertices at VADDR and transforms them. VADDR advances
// past the records read.
func (d *Device) fetch(count int, out []screenVertex) ([]screenVertex, error) {
	r := &d.regs
	if r.vbad != nil {
		return out, r.vbad
	}
	size := r.vtype.Size()
	b := d.alloc.Bytes(r.vaddr, count*size)
	if b == nil {
		return out, fmt.Errorf("%w: %d vertices at %#08x outside memory", ge.ErrBadList, count, uint32(r.vaddr))
	}
	r.vaddr += mem.Addr(count * size)

	tw, th := r.textureSize()
	var in ge.Vertex
	for i := 0; i < count; i++ {
		in = ge.Vertex{}
		r.vtype.Get(b[i*size:], &in)
		out = append(out, r.transform(&in, float64(tw), float64(th)))
	}
	return out, nil
}

func (r *registers) transform(in *ge.Vertex, tw, th float64) screenVertex {
	var s screenVertex
	if r.vtype.Color {
		c := in.Color
		s.color = blend.Color{byte(c), byte(c >> 8), byte(c >> 16), byte(c >> 24)}
	} else {
		s.color = r.material
	}

	if r.vtype.Through {
		s.x, s.y, s.w = float64(in.X), float64(in.Y), 1
		s.u, s.v = float64(in.U), float64(in.V)
		s.drawable = true
		return s
	}

	p := [3]float32{in.X, in.Y, in.Z}
	p = mul43(&r.world, p)
	p = mul43(&r.view, p)
	var clip [4]float32
	for j := 0; j < 4; j++ {
		clip[j] = p[0]*r.proj[j] + p[1]*r.proj[4+j] + p[2]*r.proj[8+j] + r.proj[12+j]
	}
	s.w = float64(clip[3])
	if s.w > 0 {
		nx, ny := float64(clip[0])/s.w, float64(clip[1])/s.w
		gx := nx*float64(r.scaleX) + float64(r.posX)
		gy := ny*float64(r.scaleY) + float64(r.posY)
		s.x, s.y = gx-float64(r.offsetX), gy-float64(r.offsetY)
		s.drawable = gx >= 0 && gx < drawRange && gy >= 0 && gy < drawRange
	}
	s.u = (float64(in.U)*float64(r.uScale) + float64(r.uOffset)) * tw
	s.v = (float64(in.V)*float64(r.vScale) + float64(r.vOffset)) * th
	return s
}

// mul43 applies a 4x3 matrix in upload order to a point.
func mul43(m *[12]float32, p [3]float32) [3]float32 {
	var o [3]float32
	for j := 0; j < 3; j++ {
		o[j] = p[0]*m[j] + p[1]*m[3+j] + p[2]*m[6+j] + m[9+j]
	}
	return o
}

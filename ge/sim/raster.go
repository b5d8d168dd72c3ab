package sim

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/internal/blend"
)

// raster draws into the framebuffer selected by FBP/FBW, clipped to the
// scissor rectangle.
type raster struct {
	r      *registers
	fb     []byte
	stride int
	x0, y0 int
	x1, y1 int // inclusive

	tex    sampler
	hasTex bool
}

func (d *Device) prim(p ge.Primitive, count int) error {
	verts, err := d.fetch(count, d.verts[:0])
	d.verts = verts
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	r := &d.regs
	addr, stride := r.framebuffer()
	rs := raster{
		r:      r,
		stride: stride,
		x0:     max(r.scissor[0], 0),
		y0:     max(r.scissor[1], 0),
		x1:     min(r.scissor[2], stride-1),
		y1:     r.scissor[3],
	}
	if rs.x1 < rs.x0 || rs.y1 < rs.y0 || stride == 0 {
		return nil
	}
	rs.fb = d.alloc.Bytes(addr, (rs.y1+1)*stride*4)
	if rs.fb == nil {
		slogger().Warn("sim: framebuffer outside memory", "addr", uint32(addr), "stride", stride)
		return nil
	}
	if r.textureEnable && r.clear&ge.ClearEnable == 0 {
		rs.tex, rs.hasTex = d.sampler(false)
	}

	switch p {
	case ge.Points:
		for i := range verts {
			rs.point(&verts[i])
		}
	case ge.Lines:
		for i := 0; i+1 < len(verts); i += 2 {
			rs.line(&verts[i], &verts[i+1])
		}
	case ge.LineStrip:
		for i := 0; i+1 < len(verts); i++ {
			rs.line(&verts[i], &verts[i+1])
		}
	case ge.Triangles:
		for i := 0; i+2 < len(verts); i += 3 {
			rs.triangle(verts[i], verts[i+1], verts[i+2], verts[i+2].color)
		}
	case ge.TriangleStrip:
		for i := 0; i+2 < len(verts); i++ {
			if i&1 == 0 {
				rs.triangle(verts[i], verts[i+1], verts[i+2], verts[i+2].color)
			} else {
				rs.triangle(verts[i+1], verts[i], verts[i+2], verts[i+2].color)
			}
		}
	case ge.TriangleFan:
		for i := 2; i < len(verts); i++ {
			rs.triangle(verts[0], verts[i-1], verts[i], verts[i].color)
		}
	case ge.Sprites:
		for i := 0; i+1 < len(verts); i += 2 {
			rs.sprite(&verts[i], &verts[i+1])
		}
	default:
		slogger().Debug("sim: unknown primitive ignored", "prim", p)
	}
	return nil
}

func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// topLeft reports whether a zero edge value counts as inside for the edge
// from a to b of a triangle with positive area.
func topLeft(a, b *screenVertex) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return (dy == 0 && dx > 0) || dy < 0
}

func (rs *raster) triangle(a, b, c screenVertex, flat blend.Color) {
	if !a.drawable || !b.drawable || !c.drawable {
		return
	}
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if area == 0 {
		return
	}
	if rs.r.cullEnable && rs.r.clear&ge.ClearEnable == 0 {
		if (rs.r.cullCCW && area < 0) || (!rs.r.cullCCW && area > 0) {
			return
		}
	}
	if area < 0 {
		b, c = c, b
		area = -area
	}
	if rs.hasTex {
		uvArea := math.Abs((b.u-a.u)*(c.v-a.v) - (b.v-a.v)*(c.u-a.u))
		rs.tex.linear = rs.r.magLinear
		if uvArea > area {
			rs.tex.linear = rs.r.minLinear
		}
	}

	minX := max(rs.x0, int(math.Floor(min(a.x, b.x, c.x))))
	maxX := min(rs.x1, int(math.Ceil(max(a.x, b.x, c.x))))
	minY := max(rs.y0, int(math.Floor(min(a.y, b.y, c.y))))
	maxY := min(rs.y1, int(math.Ceil(max(a.y, b.y, c.y))))
	if minX > maxX || minY > maxY {
		return
	}

	tlA, tlB, tlC := topLeft(&b, &c), topLeft(&c, &a), topLeft(&a, &b)
	shaded := rs.r.gouraud && (a.color != b.color || b.color != c.color)
	color := flat
	if rs.r.gouraud && !shaded {
		color = a.color
	}

	for py := minY; py <= maxY; py++ {
		cy := float64(py) + 0.5
		for px := minX; px <= maxX; px++ {
			cx := float64(px) + 0.5
			wa := edge(b.x, b.y, c.x, c.y, cx, cy)
			wb := edge(c.x, c.y, a.x, a.y, cx, cy)
			wc := edge(a.x, a.y, b.x, b.y, cx, cy)
			if wa < 0 || wb < 0 || wc < 0 ||
				(wa == 0 && !tlA) || (wb == 0 && !tlB) || (wc == 0 && !tlC) {
				continue
			}
			la, lb, lc := wa/area, wb/area, wc/area
			col := color
			if shaded {
				for ch := range col {
					col[ch] = lerp3(a.color[ch], b.color[ch], c.color[ch], la, lb, lc)
				}
			}
			rs.fragment(px, py, col, la*a.u+lb*b.u+lc*c.u, la*a.v+lb*b.v+lc*c.v)
		}
	}
}

func lerp3(a, b, c byte, la, lb, lc float64) byte {
	v := math.Round(float64(a)*la + float64(b)*lb + float64(c)*lc)
	return byte(min(max(v, 0), 255))
}

// sprite fills the axis-aligned rectangle spanned by two vertices, using
// the color of the second.
func (rs *raster) sprite(a, b *screenVertex) {
	if !a.drawable || !b.drawable || a.x == b.x || a.y == b.y {
		return
	}
	if rs.hasTex {
		rs.tex.linear = rs.r.magLinear
		if math.Abs((b.u-a.u)*(b.v-a.v)) > math.Abs((b.x-a.x)*(b.y-a.y)) {
			rs.tex.linear = rs.r.minLinear
		}
	}
	minX := max(rs.x0, int(math.Ceil(min(a.x, b.x)-0.5)))
	maxX := min(rs.x1, int(math.Ceil(max(a.x, b.x)-0.5))-1)
	minY := max(rs.y0, int(math.Ceil(min(a.y, b.y)-0.5)))
	maxY := min(rs.y1, int(math.Ceil(max(a.y, b.y)-0.5))-1)
	du := (b.u - a.u) / (b.x - a.x)
	dv := (b.v - a.v) / (b.y - a.y)
	for py := minY; py <= maxY; py++ {
		v := a.v + (float64(py)+0.5-a.y)*dv
		for px := minX; px <= maxX; px++ {
			u := a.u + (float64(px)+0.5-a.x)*du
			rs.fragment(px, py, b.color, u, v)
		}
	}
}

// line steps from a towards b, leaving out the last pixel.
func (rs *raster) line(a, b *screenVertex) {
	if !a.drawable || !b.drawable {
		return
	}
	dx, dy := b.x-a.x, b.y-a.y
	steps := int(math.Round(max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		return
	}
	if rs.hasTex {
		rs.tex.linear = rs.r.magLinear
	}
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps)
		col := b.color
		if rs.r.gouraud {
			for ch := range col {
				col[ch] = lerp3(a.color[ch], b.color[ch], 0, 1-t, t, 0)
			}
		}
		x := int(math.Floor(a.x + dx*t))
		y := int(math.Floor(a.y + dy*t))
		rs.pixel(x, y, col, a.u+(b.u-a.u)*t, a.v+(b.v-a.v)*t)
	}
}

func (rs *raster) point(a *screenVertex) {
	if !a.drawable {
		return
	}
	if rs.hasTex {
		rs.tex.linear = rs.r.magLinear
	}
	rs.pixel(int(math.Floor(a.x)), int(math.Floor(a.y)), a.color, a.u, a.v)
}

// pixel is fragment with the scissor test.
func (rs *raster) pixel(x, y int, c blend.Color, u, v float64) {
	if x < rs.x0 || x > rs.x1 || y < rs.y0 || y > rs.y1 {
		return
	}
	rs.fragment(x, y, c, u, v)
}

// fragment runs the per-pixel pipeline for a pixel inside the clip
// rectangle: clear mode, texture function, alpha test, blending.
func (rs *raster) fragment(x, y int, c blend.Color, u, v float64) {
	r := rs.r
	p := rs.fb[(y*rs.stride+x)*4:]
	p = p[:4:4]

	if r.clear&ge.ClearEnable != 0 {
		if r.clear&ge.ClearColor != 0 {
			p[0], p[1], p[2] = c[0], c[1], c[2]
		}
		if r.clear&ge.ClearAlpha != 0 {
			p[3] = c[3]
		}
		return
	}

	if rs.hasTex {
		c = r.texFunction(rs.tex.sample(u, v), c)
	}
	if r.alphaTestEnable && !compare(r.alphaFunc, c[3]&r.alphaMask, r.alphaRef&r.alphaMask) {
		return
	}
	if r.blendEnable {
		c = r.equation.Blend(c, blend.Color{p[0], p[1], p[2], p[3]})
	}
	p[0], p[1], p[2], p[3] = c[0], c[1], c[2], c[3]
}

func compare(f gputypes.CompareFunction, v, ref byte) bool {
	switch f {
	case gputypes.CompareFunctionNever:
		return false
	case gputypes.CompareFunctionLess:
		return v < ref
	case gputypes.CompareFunctionEqual:
		return v == ref
	case gputypes.CompareFunctionLessEqual:
		return v <= ref
	case gputypes.CompareFunctionGreater:
		return v > ref
	case gputypes.CompareFunctionNotEqual:
		return v != ref
	case gputypes.CompareFunctionGreaterEqual:
		return v >= ref
	default:
		return true
	}
}

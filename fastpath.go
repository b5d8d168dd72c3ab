package fakegl

import (
	"math"

	"github.com/aquaria-psp/fakegl/ge"
)

// spriteStrip is the width of the sprites a screen fill is cut into. The
// texture cache handles narrow strips better than one screen-wide sprite.
const spriteStrip = 64

// fastQuad draws a single quad that exactly covers the screen as sprites
// in through mode. It reports false, emitting nothing, when the quad does
// not qualify or the state could make the result differ from the
// transformed draw.
func (c *Context) fastQuad(p *primitive, data []byte) bool {
	s := &c.st
	switch {
	case !c.cfg.fastPath || c.rec != nil:
		return false
	case p.mode != Quads || p.stored != 4 || p.format.Normal:
		return false
	case s.enabled(capLighting) || s.enabled(capCullFace):
		return false
	case s.viewport != [4]int32{0, 0, int32(c.width), int32(c.height)}:
		return false
	}
	if x0, y0, x1, y1, ok := c.screenScissor(); !ok || x0 != 0 || y0 != 0 || x1 != c.width-1 || y1 != c.height-1 {
		return false
	}
	m := c.proj.top().Mul4(c.model.top())
	if m[3] != 0 || m[7] != 0 || m[11] != 0 || m[15] != 1 || m[1] != 0 || m[4] != 0 {
		return false
	}
	var t *Texture
	if c.texturing() {
		if t = c.boundTexture(); !t.Defined() {
			return false
		}
	}

	w, h := float32(c.width), float32(c.height)
	eps := c.cfg.fastPathEpsilon
	var first ge.Vertex
	corners := 0
	for i := 0; i < 4; i++ {
		var v ge.Vertex
		p.format.Get(data[i*p.size:], &v)
		if i == 0 {
			first = v
		} else if p.format.Color && v.Color != first.Color {
			return false
		}
		sx := (m[0]*v.X + m[8]*v.Z + m[12] + 1) * w / 2
		sy := (1 - (m[5]*v.Y + m[9]*v.Z + m[13])) * h / 2
		cx, okx := snapEdge(sx, w, eps)
		cy, oky := snapEdge(sy, h, eps)
		if !okx || !oky {
			return false
		}
		corners |= 1 << (cx*2 + cy)
		if t != nil && (abs32(v.U*float32(t.width)-sx) > eps || abs32(v.V*float32(t.height)-sy) > eps) {
			return false
		}
	}
	if corners != 0xF {
		return false
	}

	color := abgr(s.color)
	if p.format.Color {
		color = first.Color
	}
	c.syncState()
	c.emitSprites(ge.VertexFormat{Texture: t != nil, Color: true, Through: true}, 0, 0, c.width, c.height, color)
	return true
}

// snapEdge reports which edge of [0, size] the coordinate lies on.
func snapEdge(v, size, eps float32) (int, bool) {
	switch {
	case abs32(v) <= eps:
		return 0, true
	case abs32(v-size) <= eps:
		return 1, true
	}
	return 0, false
}

func abs32(f float32) float32 { return float32(math.Abs(float64(f))) }

// emitSprites fills the screen rectangle [x0, x1) x [y0, y1) with
// through-mode sprites, texel coordinates equal to screen coordinates.
func (c *Context) emitSprites(f ge.VertexFormat, x0, y0, x1, y1 int, color uint32) {
	if x1 <= x0 || y1 <= y0 {
		return
	}
	strips := (x1 - x0 + spriteStrip - 1) / spriteStrip
	size := f.Size()
	store := c.vertexStore()
	store.begin()
	b := store.add(2 * strips * size)
	if b == nil {
		store.end()
		c.setError(OutOfMemory, "sprite vertices: memory exhausted")
		return
	}
	for i := 0; i < strips; i++ {
		xa := x0 + i*spriteStrip
		xb := min(xa+spriteStrip, x1)
		v := ge.Vertex{Color: color, U: float32(xa), V: float32(y0), X: float32(xa), Y: float32(y0)}
		f.Put(b[(2*i)*size:], &v)
		v.U, v.V, v.X, v.Y = float32(xb), float32(y1), float32(xb), float32(y1)
		f.Put(b[(2*i+1)*size:], &v)
	}
	store.end()
	addr, _ := store.primitive()
	w := c.out()
	w.Emit(ge.OpVTYPE, f.VTYPE())
	w.EmitAddr(ge.OpVADDR, addr)
	w.Emit(ge.OpPRIM, ge.Prim(ge.Sprites, 2*strips))
}

package fakegl

import (
	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/mem"
)

// maxPrimCount is the largest vertex count of one PRIM command.
const maxPrimCount = 0xFFFF

// maxVertexSize is the size of the largest vertex record: texture
// coordinate, color, normal and position.
const maxVertexSize = 36

// attrSet is a set of vertex attributes.
type attrSet uint8

const (
	attrTexture attrSet = 1 << iota
	attrColor
	attrNormal
)

// primitive is the Begin/End block being assembled.
type primitive struct {
	active bool
	mode   Enum
	set    attrSet // attributes given since Begin
	locked bool
	format ge.VertexFormat
	size   int
	count  int // vertices given
	stored int // records written to the store
	first  [maxVertexSize]byte
	held   [maxVertexSize]byte // third vertex of an incomplete quad
	warned bool
	failed bool
	store  vertexStore
}

// topology maps a GL primitive mode to the GE primitive drawing it.
func topology(mode Enum) (ge.Primitive, bool) {
	switch mode {
	case Points:
		return ge.Points, true
	case Lines:
		return ge.Lines, true
	case LineStrip, LineLoop:
		return ge.LineStrip, true
	case Triangles:
		return ge.Triangles, true
	case TriangleStrip, QuadStrip, Quads:
		return ge.TriangleStrip, true
	case TriangleFan, Polygon:
		return ge.TriangleFan, true
	}
	return 0, false
}

func polygonal(mode Enum) bool {
	return mode >= Triangles
}

// drawCount trims n stored vertices to whole primitives of mode.
func drawCount(mode Enum, n int) int {
	switch mode {
	case Lines:
		n &^= 1
	case LineStrip, LineLoop:
		if n < 2 {
			n = 0
		}
	case Triangles:
		n -= n % 3
	case TriangleStrip, TriangleFan, Polygon:
		if n < 3 {
			n = 0
		}
	case Quads:
		n -= n % 4
	case QuadStrip:
		if n &^= 1; n < 4 {
			n = 0
		}
	}
	return n
}

// abgr packs an RGBA color as a GE vertex color.
func abgr(c [4]uint8) uint32 {
	return uint32(c[0]) | uint32(c[1])<<8 | uint32(c[2])<<16 | uint32(c[3])<<24
}

// vertexStore returns where vertex records go: the recording list's
// chunks or the frame list.
func (c *Context) vertexStore() vertexStore {
	if c.rec != nil {
		return c.rec.verts
	}
	return &c.frameVerts
}

// Begin starts a primitive of the given mode.
func (c *Context) Begin(mode Enum) {
	if _, ok := topology(mode); !ok {
		c.setError(InvalidEnum, "Begin: unsupported mode", "mode", mode)
		return
	}
	if c.prim.active {
		c.setError(InvalidOperation, "Begin: already inside Begin/End")
		return
	}
	if !c.emitting() {
		c.setError(InvalidOperation, "Begin: no active frame")
		return
	}
	store := c.vertexStore()
	c.prim = primitive{active: true, mode: mode, store: store}
	store.begin()
}

// touch records that an attribute setter ran inside the primitive.
func (c *Context) touch(a attrSet) {
	p := &c.prim
	if !p.active {
		return
	}
	p.set |= a
	if !p.locked || p.warned {
		return
	}
	f := p.format
	if a == attrTexture && !f.Texture || a == attrColor && !f.Color || a == attrNormal && !f.Normal {
		p.warned = true
		Logger().Warn("fakegl: attribute set after the first vertex is not in the vertex format", "mode", p.mode)
	}
}

// Color4ub sets the current color.
func (c *Context) Color4ub(r, g, b, a uint8) {
	c.st.color = [4]uint8{r, g, b, a}
	c.touch(attrColor)
}

// Color3ub sets the current color with full alpha.
func (c *Context) Color3ub(r, g, b uint8) { c.Color4ub(r, g, b, 255) }

// Color4f sets the current color. Components are clamped to [0, 1].
func (c *Context) Color4f(r, g, b, a float32) {
	c.Color4ub(toByte(r), toByte(g), toByte(b), toByte(a))
}

// Color3f sets the current color with full alpha.
func (c *Context) Color3f(r, g, b float32) { c.Color4f(r, g, b, 1) }

// TexCoord2f sets the current texture coordinate.
func (c *Context) TexCoord2f(s, t float32) {
	c.st.texCoord = [2]float32{s, t}
	c.touch(attrTexture)
}

// Normal3f sets the current normal.
func (c *Context) Normal3f(x, y, z float32) {
	c.st.normal = [3]float32{x, y, z}
	c.touch(attrNormal)
}

// Vertex2f adds a vertex at z = 0.
func (c *Context) Vertex2f(x, y float32) { c.Vertex3f(x, y, 0) }

// Vertex3f adds a vertex with the current attributes. The first vertex of
// a primitive fixes its vertex format.
func (c *Context) Vertex3f(x, y, z float32) {
	p := &c.prim
	if !p.active {
		c.setError(InvalidOperation, "Vertex: outside Begin/End")
		return
	}
	if p.failed {
		return
	}
	if !p.locked {
		p.format = ge.VertexFormat{
			Texture: p.set&attrTexture != 0 || c.texturing(),
			Color:   p.set&attrColor != 0,
			Normal:  p.set&attrNormal != 0,
		}
		p.size = p.format.Size()
		p.locked = true
	}
	s := &c.st
	v := ge.Vertex{
		U: s.texCoord[0], V: s.texCoord[1],
		Color: abgr(s.color),
		NX:    s.normal[0], NY: s.normal[1], NZ: s.normal[2],
		X: x, Y: y, Z: z,
	}
	var rec [maxVertexSize]byte
	p.format.Put(rec[:], &v)
	b := rec[:p.size]
	if p.count == 0 {
		copy(p.first[:], b)
	}
	p.count++
	if p.mode == Quads {
		// The GE draws each quad as a strip: V0 V1 V3 V2.
		switch p.count % 4 {
		case 3:
			copy(p.held[:], b)
			return
		case 0:
			c.storeVertex(b)
			c.storeVertex(p.held[:p.size])
			return
		}
	}
	c.storeVertex(b)
}

func (c *Context) storeVertex(b []byte) {
	p := &c.prim
	if p.failed {
		return
	}
	dst := p.store.add(len(b))
	if dst == nil {
		p.failed = true
		c.setError(OutOfMemory, "Vertex: vertex memory exhausted", "vertices", p.stored)
		return
	}
	copy(dst, b)
	p.stored++
}

// End finishes the primitive and draws it. Trailing vertices that do not
// complete a primitive are dropped.
func (c *Context) End() {
	p := &c.prim
	if !p.active {
		c.setError(InvalidOperation, "End: outside Begin/End")
		return
	}
	if p.mode == LineLoop && p.stored >= 2 {
		c.storeVertex(p.first[:p.size])
	}
	p.store.end()
	addr, data := p.store.primitive()
	prim := *p
	c.prim = primitive{}

	n := drawCount(prim.mode, prim.stored)
	if n == 0 || prim.failed {
		return
	}
	if polygonal(prim.mode) && c.culledAll() {
		return
	}
	if c.fastQuad(&prim, data) {
		return
	}
	if c.rec == nil && c.needsClip(&prim, data[:n*prim.size]) {
		c.drawClipped(&prim, data[:n*prim.size])
		return
	}
	c.drawPrimitive(&prim, addr, n)
}

// drawPrimitive emits the state and PRIM commands drawing n stored
// vertices at addr.
func (c *Context) drawPrimitive(p *primitive, addr mem.Addr, n int) {
	c.syncState()
	w := c.out()
	w.Emit(ge.OpVTYPE, p.format.VTYPE())
	if !p.format.Color {
		col := abgr(c.st.color)
		w.Emit(ge.OpAMC, col&0xFFFFFF)
		w.Emit(ge.OpAMA, col>>24)
	}
	// a list resolves undefined textures in its own texture blocks
	placeholder := c.rec == nil && c.placeholderBound()
	if placeholder {
		w.Emit(ge.OpTME, 0)
	}
	hw, _ := topology(p.mode)
	switch p.mode {
	case Quads:
		w.EmitAddr(ge.OpVADDR, addr)
		for i := 0; i < n; i += 4 {
			w.Emit(ge.OpPRIM, ge.Prim(ge.TriangleStrip, 4))
		}
	case Points, Lines, Triangles:
		// VADDR advances past the vertices each PRIM consumes.
		per := 1
		if p.mode == Lines {
			per = 2
		} else if p.mode == Triangles {
			per = 3
		}
		chunk := maxPrimCount - maxPrimCount%per
		w.EmitAddr(ge.OpVADDR, addr)
		for n > 0 {
			k := min(n, chunk)
			w.Emit(ge.OpPRIM, ge.Prim(hw, k))
			n -= k
		}
	case LineStrip, LineLoop, TriangleStrip, QuadStrip:
		overlap := 2
		if hw == ge.LineStrip {
			overlap = 1
		}
		const chunk = maxPrimCount &^ 1
		for first := 0; ; first += chunk - overlap {
			k := min(n-first, chunk)
			w.EmitAddr(ge.OpVADDR, addr+mem.Addr(first*p.size))
			w.Emit(ge.OpPRIM, ge.Prim(hw, k))
			if first+k >= n {
				break
			}
		}
	case TriangleFan, Polygon:
		if n > maxPrimCount {
			Logger().Warn("fakegl: fan truncated to the GE's vertex limit", "vertices", n, "limit", maxPrimCount)
			n = maxPrimCount
		}
		w.EmitAddr(ge.OpVADDR, addr)
		w.Emit(ge.OpPRIM, ge.Prim(hw, n))
	}
	if placeholder {
		w.Emit(ge.OpTME, 1)
	}
}

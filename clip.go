package fakegl

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/aquaria-psp/fakegl/ge"
)

// The GE rasterizes inside a 4096x4096 drawing space around the screen and
// drops every triangle or line with a vertex outside it or behind the eye.
// Frame primitives reaching that far are cut on the CPU to a box just
// inside the drawing space, so their visible part still draws.
const (
	guardMin = 1
	guardMax = 4095
	nearW    = 1e-5
)

// plane is a half-space of clip space: n·p + d >= 0.
type plane struct {
	n mgl32.Vec4
	d float32
}

func (pl plane) dist(p mgl32.Vec4) float32 { return pl.n.Dot(p) + pl.d }

// guardBand is the region of clip space inside the drawing box.
type guardBand [5]plane

// guardBand returns the drawing box for the current viewport. Drawing x is
// px + sx*cx/cw, so guardMin <= x <= guardMax is linear in clip space once
// cw > 0.
func (c *Context) guardBand() guardBand {
	sx, sy, px, py := c.viewportTransform()
	return guardBand{
		{n: mgl32.Vec4{0, 0, 0, 1}, d: -nearW},
		{n: mgl32.Vec4{sx, 0, 0, px - guardMin}},
		{n: mgl32.Vec4{-sx, 0, 0, guardMax - px}},
		{n: mgl32.Vec4{0, sy, 0, py - guardMin}},
		{n: mgl32.Vec4{0, -sy, 0, guardMax - py}},
	}
}

func (g *guardBand) contains(p mgl32.Vec4) bool {
	for _, pl := range g {
		if pl.dist(p) < 0 {
			return false
		}
	}
	return true
}

// clipVertex is a vertex record with its clip-space position.
type clipVertex struct {
	v    ge.Vertex
	clip mgl32.Vec4
}

// lerpVertex interpolates every attribute of a and b. Positions are linear
// in object and clip space alike, so one t serves both.
func lerpVertex(a, b *clipVertex, t float32) clipVertex {
	l := func(x, y float32) float32 { return x + (y-x)*t }
	r := clipVertex{
		v: ge.Vertex{
			U: l(a.v.U, b.v.U), V: l(a.v.V, b.v.V),
			NX: l(a.v.NX, b.v.NX), NY: l(a.v.NY, b.v.NY), NZ: l(a.v.NZ, b.v.NZ),
			X: l(a.v.X, b.v.X), Y: l(a.v.Y, b.v.Y), Z: l(a.v.Z, b.v.Z),
		},
		clip: a.clip.Add(b.clip.Sub(a.clip).Mul(t)),
	}
	for sh := 0; sh < 32; sh += 8 {
		ca, cb := float32(a.v.Color>>sh&0xFF), float32(b.v.Color>>sh&0xFF)
		r.v.Color |= uint32(l(ca, cb)+0.5) << sh
	}
	return r
}

// clipPolygon clips the convex polygon in to the guard band. tmp is
// scratch space; the result aliases in or tmp.
func (g *guardBand) clipPolygon(in, tmp []clipVertex) []clipVertex {
	for _, pl := range g {
		if len(in) == 0 {
			break
		}
		out := tmp[:0]
		prev := &in[len(in)-1]
		dp := pl.dist(prev.clip)
		for i := range in {
			cur := &in[i]
			dc := pl.dist(cur.clip)
			if (dp >= 0) != (dc >= 0) {
				out = append(out, lerpVertex(prev, cur, dp/(dp-dc)))
			}
			if dc >= 0 {
				out = append(out, *cur)
			}
			prev, dp = cur, dc
		}
		in, tmp = out, in
	}
	return in
}

// clipLine clips the segment a-b to the guard band. ok is false when
// nothing is left.
func (g *guardBand) clipLine(a, b clipVertex) (clipVertex, clipVertex, bool) {
	for _, pl := range g {
		da, db := pl.dist(a.clip), pl.dist(b.clip)
		switch {
		case da < 0 && db < 0:
			return a, b, false
		case da < 0:
			a = lerpVertex(&a, &b, da/(da-db))
		case db < 0:
			b = lerpVertex(&b, &a, db/(db-da))
		}
	}
	return a, b, true
}

// decodeClip decodes stored vertex records and transforms them to clip
// space with the current matrices.
func (c *Context) decodeClip(f ge.VertexFormat, data []byte) []clipVertex {
	size := f.Size()
	mvp := c.proj.top().Mul4(c.model.top())
	out := make([]clipVertex, len(data)/size)
	for i := range out {
		v := &out[i]
		f.Get(data[i*size:], &v.v)
		v.clip = mvp.Mul4x1(mgl32.Vec4{v.v.X, v.v.Y, v.v.Z, 1})
	}
	return out
}

// needsClip reports whether a stored line or polygon primitive has a
// vertex outside the drawing box.
func (c *Context) needsClip(p *primitive, data []byte) bool {
	if p.mode == Points {
		return false
	}
	g := c.guardBand()
	mvp := c.proj.top().Mul4(c.model.top())
	var v ge.Vertex
	for off := 0; off+p.size <= len(data); off += p.size {
		p.format.Get(data[off:], &v)
		if !g.contains(mvp.Mul4x1(mgl32.Vec4{v.X, v.Y, v.Z, 1})) {
			return true
		}
	}
	return false
}

// triangles returns the triangles of a stored polygon primitive of n
// vertices in the winding the GE gives them. The last vertex of each
// triangle provides its flat color.
func triangles(mode Enum, n int) [][3]int {
	var out [][3]int
	switch mode {
	case Triangles:
		for i := 0; i+2 < n; i += 3 {
			out = append(out, [3]int{i, i + 1, i + 2})
		}
	case Quads:
		for i := 0; i+3 < n; i += 4 {
			out = append(out, [3]int{i, i + 1, i + 2}, [3]int{i + 2, i + 1, i + 3})
		}
	case TriangleStrip, QuadStrip:
		for i := 0; i+2 < n; i++ {
			if i&1 == 0 {
				out = append(out, [3]int{i, i + 1, i + 2})
			} else {
				out = append(out, [3]int{i + 1, i, i + 2})
			}
		}
	case TriangleFan, Polygon:
		for i := 2; i < n; i++ {
			out = append(out, [3]int{0, i - 1, i})
		}
	}
	return out
}

// segments returns the lines of a stored line primitive of n vertices.
func segments(mode Enum, n int) [][2]int {
	var out [][2]int
	step := 1
	if mode == Lines {
		step = 2
	}
	for i := 0; i+1 < n; i += step {
		out = append(out, [2]int{i, i + 1})
	}
	return out
}

// drawClipped cuts a stored primitive to the drawing box and draws what is
// left as a triangle or line list.
func (c *Context) drawClipped(p *primitive, data []byte) {
	g := c.guardBand()
	in := c.decodeClip(p.format, data)
	flat := c.st.shadeModel == Flat && p.format.Color

	var out []clipVertex
	q := *p
	if polygonal(p.mode) {
		q.mode = Triangles
		// a triangle gains at most one vertex per plane
		bufA := make([]clipVertex, 0, 3+len(g))
		bufB := make([]clipVertex, 0, 3+len(g))
		for _, tri := range triangles(p.mode, len(in)) {
			poly := append(bufA[:0], in[tri[0]], in[tri[1]], in[tri[2]])
			poly = g.clipPolygon(poly, bufB[:0])
			for i := 2; i < len(poly); i++ {
				out = append(out, poly[0], poly[i-1], poly[i])
				if flat {
					for k := len(out) - 3; k < len(out); k++ {
						out[k].v.Color = in[tri[2]].v.Color
					}
				}
			}
		}
	} else {
		q.mode = Lines
		for _, seg := range segments(p.mode, len(in)) {
			a, b, ok := g.clipLine(in[seg[0]], in[seg[1]])
			if !ok {
				continue
			}
			if flat {
				a.v.Color, b.v.Color = in[seg[1]].v.Color, in[seg[1]].v.Color
			}
			out = append(out, a, b)
		}
	}
	if len(out) == 0 {
		return
	}

	store := &c.frameVerts
	store.begin()
	b := store.add(len(out) * p.size)
	store.end()
	if b == nil {
		c.setError(OutOfMemory, "End: vertex memory exhausted", "vertices", len(out))
		return
	}
	for i := range out {
		p.format.Put(b[i*p.size:], &out[i].v)
	}
	addr, _ := store.primitive()
	Logger().Debug("fakegl: primitive clipped to the drawing space", "mode", p.mode, "in", len(in), "out", len(out))
	c.drawPrimitive(&q, addr, len(out))
}

package fakegl

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/aquaria-psp/fakegl/ge"
)

// drawingPos returns the GE drawing space position of a window coordinate
// under setupOrtho.
func drawingPos(v ge.Vertex) (x, y float32) {
	return screenOffset + v.X, screenOffset + testH - v.Y
}

func TestClipLargeQuad(t *testing.T) {
	gl := newTestContext(t)
	beginFrame(t, gl)
	clearBlack(gl)
	setupOrtho(gl)
	fillRect(gl, -5000, -5000, 5000, 5000)
	expectError(t, gl, NoError)
	endFrame(t, gl)

	for _, p := range [][2]int32{{0, 0}, {testW / 2, testH / 2}, {testW - 1, testH - 1}, {0, testH - 1}} {
		if got := readPixel(t, gl, p[0], p[1]); got != white {
			t.Errorf("pixel %v = %v, want white", p, got)
		}
	}

	tr := frameTrace(t, gl)
	d := tr.draws[len(tr.draws)-1]
	if d.prim != ge.Triangles {
		t.Fatalf("clipped quad drawn as %v, want a triangle list", d.prim)
	}
	for _, v := range d.verts {
		if x, y := drawingPos(v); x < 0 || x >= 4096 || y < 0 || y >= 4096 {
			t.Errorf("vertex (%v,%v) at drawing position (%v,%v)", v.X, v.Y, x, y)
		}
	}
}

func TestClipKeepsInRangePrimitives(t *testing.T) {
	gl := newTestContext(t)
	beginFrame(t, gl)
	setupOrtho(gl)
	// reaches past the screen but stays inside the drawing space
	fillRect(gl, -1000, -1000, 2000, 1500)
	endFrame(t, gl)

	tr := frameTrace(t, gl)
	d := tr.draws[len(tr.draws)-1]
	if d.prim != ge.TriangleStrip || len(d.verts) != 4 {
		t.Errorf("draw = %v with %d vertices, want the quad strip unchanged", d.prim, len(d.verts))
	}
}

func TestClipLine(t *testing.T) {
	gl := newTestContext(t)
	beginFrame(t, gl)
	clearBlack(gl)
	setupOrtho(gl)
	gl.ShadeModel(Flat)
	gl.Begin(LineStrip)
	gl.Color3ub(255, 0, 0)
	gl.Vertex2f(-9000, 100.5)
	gl.Color3ub(255, 255, 255)
	gl.Vertex2f(9000, 100.5)
	gl.End()
	expectError(t, gl, NoError)
	endFrame(t, gl)

	for _, x := range []int32{0, 240, testW - 1} {
		if got := readPixel(t, gl, x, 100); got != white {
			t.Errorf("pixel (%d,100) = %v, want the flat white of the last vertex", x, got)
		}
	}
	tr := frameTrace(t, gl)
	if d := tr.draws[len(tr.draws)-1]; d.prim != ge.Lines || len(d.verts) != 2 {
		t.Errorf("clipped line drawn as %v with %d vertices", d.prim, len(d.verts))
	}
}

func TestClipPolygon(t *testing.T) {
	g := guardBand{
		{n: mgl32.Vec4{0, 0, 0, 1}, d: -nearW},
		{n: mgl32.Vec4{1, 0, 0, 0}}, // x >= 0
	}
	for i := 2; i < len(g); i++ {
		g[i] = g[0]
	}
	v := func(x, y float32) clipVertex {
		return clipVertex{v: ge.Vertex{X: x, Y: y}, clip: mgl32.Vec4{x, y, 0, 1}}
	}

	tests := []struct {
		name string
		in   []clipVertex
		want int
	}{
		{"inside", []clipVertex{v(1, 0), v(2, 0), v(1, 1)}, 3},
		{"one vertex out", []clipVertex{v(-1, 0), v(1, 0), v(1, 1)}, 4},
		{"two vertices out", []clipVertex{v(-1, 0), v(1, 0), v(-1, 1)}, 3},
		{"outside", []clipVertex{v(-1, 0), v(-2, 0), v(-1, 1)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.clipPolygon(tt.in, make([]clipVertex, 0, 8))
			if len(got) != tt.want {
				t.Fatalf("clipped to %d vertices, want %d", len(got), tt.want)
			}
			for _, p := range got {
				if p.clip[0] < 0 || p.v.X != p.clip[0] {
					t.Errorf("vertex %v outside or out of step with its clip position %v", p.v, p.clip)
				}
			}
		})
	}
}

func TestLerpVertexColor(t *testing.T) {
	a := clipVertex{v: ge.Vertex{Color: 0xFF0000FF}}
	b := clipVertex{v: ge.Vertex{Color: 0xFF00FF00}}
	if got := lerpVertex(&a, &b, 0.5).v.Color; got != 0xFF008080 {
		t.Errorf("color = %#08x, want 0xff008080", got)
	}
}

package fakegl

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/aquaria-psp/fakegl/ge"
)

func matrixNear(a, b mgl32.Mat4) bool {
	return a.ApproxEqualThreshold(b, 1e-5)
}

func TestMatrixOperationsMultiplyOnTheRight(t *testing.T) {
	gl := newTestContext(t)
	gl.Translatef(10, 0, 0)
	gl.Scalef(2, 2, 2)

	// A point is scaled first, then translated.
	p := gl.model.top().Mul4x1(mgl32.Vec4{1, 1, 0, 1})
	if p != (mgl32.Vec4{12, 2, 0, 1}) {
		t.Errorf("transformed point = %v, want (12,2,0,1)", p)
	}

	gl.LoadIdentity()
	gl.Orthof(0, 480, 0, 272, -1, 1)
	want := mgl32.Ortho(0, 480, 0, 272, -1, 1)
	if !matrixNear(gl.model.top(), want) {
		t.Errorf("Orthof = %v, want %v", gl.model.top(), want)
	}
}

func TestRotatef(t *testing.T) {
	tests := []struct {
		name    string
		angle   float32
		x, y, z float32
		in      mgl32.Vec3
		want    mgl32.Vec3
	}{
		{"z", 90, 0, 0, 1, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{"negative z", 90, 0, 0, -1, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, -1, 0}},
		{"x", 90, 1, 0, 0, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
		{"y", 90, 0, 2, 0, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}},
		{"diagonal", 120, 1, 1, 1, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl := newTestContext(t)
			gl.Rotatef(tt.angle, tt.x, tt.y, tt.z)
			got := mgl32.TransformCoordinate(tt.in, gl.model.top())
			if !got.ApproxEqualThreshold(tt.want, 1e-5) {
				t.Errorf("rotated %v = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	gl := newTestContext(t)
	gl.Rotatef(45, 0, 0, 0)
	expectError(t, gl, NoError)
	if gl.model.top() != mgl32.Ident4() {
		t.Error("rotation around a zero axis changed the matrix")
	}
}

func TestMatrixStacks(t *testing.T) {
	gl := newTestContext(t)
	gl.Translatef(1, 0, 0)
	gl.PushMatrix()
	gl.Translatef(1, 0, 0)
	if x := gl.model.top()[12]; x != 2 {
		t.Fatalf("pushed translation = %v, want 2", x)
	}
	gl.PopMatrix()
	if x := gl.model.top()[12]; x != 1 {
		t.Errorf("translation after PopMatrix = %v, want 1", x)
	}
	gl.PopMatrix()
	expectError(t, gl, StackUnderflow)

	for i := 1; i < MaxModelviewStackDepth; i++ {
		gl.PushMatrix()
	}
	expectError(t, gl, NoError)
	gl.PushMatrix()
	expectError(t, gl, StackOverflow)
	if d := gl.model.depth(); d != MaxModelviewStackDepth {
		t.Errorf("modelview depth = %d, want %d", d, MaxModelviewStackDepth)
	}

	gl.MatrixMode(Projection)
	gl.PushMatrix()
	gl.PushMatrix()
	expectError(t, gl, StackOverflow)
	gl.Scalef(2, 2, 2)
	if gl.proj.top()[0] != 2 || gl.model.top()[0] != 1 {
		t.Error("Scalef did not apply to the selected stack")
	}

	gl.MatrixMode(Texture2D)
	expectError(t, gl, InvalidEnum)
}

func TestMatrixUnwind(t *testing.T) {
	s := newMatrixStack(8)
	for i := 0; i < 5; i++ {
		s.push()
	}
	s.unwind(2)
	if s.depth() != 2 {
		t.Errorf("depth = %d, want 2", s.depth())
	}
	c := s.clone()
	c.push()
	if s.depth() != 2 || c.depth() != 3 {
		t.Error("clone shares storage with the original")
	}
}

func TestMatrixErrors(t *testing.T) {
	gl := newTestContext(t)
	gl.Orthof(0, 0, 0, 1, -1, 1)
	expectError(t, gl, InvalidValue)
	if gl.model.top() != mgl32.Ident4() {
		t.Error("rejected Orthof changed the matrix")
	}

	beginFrame(t, gl)
	gl.Begin(Points)
	gl.LoadIdentity()
	expectError(t, gl, InvalidOperation)
	gl.End()
	endFrame(t, gl)
}

func TestModelviewEmittedAsView(t *testing.T) {
	gl := newTestContext(t)
	beginFrame(t, gl)
	setupOrtho(gl)
	gl.Translatef(3, 4, 0)
	gl.Begin(Points)
	gl.Vertex2f(0, 0)
	gl.End()
	endFrame(t, gl)

	// VIEW uploads are 12 words after VMS: column-major 4x3.
	tr := frameTrace(t, gl)
	var view []float32
	for i, c := range tr.cmds {
		if c.op == ge.OpVMS && i+12 < len(tr.cmds) {
			view = view[:0]
			for _, w := range tr.cmds[i+1 : i+13] {
				view = append(view, ge.FromFloat24(w.arg))
			}
		}
	}
	if len(view) != 12 || view[9] != 3 || view[10] != 4 {
		t.Errorf("last VIEW upload = %v, want translation (3,4,0)", view)
	}
}

package fakegl

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl32/matstack"
)

// Matrix stack depths.
const (
	MaxProjectionStackDepth = 2
	MaxModelviewStackDepth  = 32
)

// matrixStack is a matstack.MatStack with a depth limit.
type matrixStack struct {
	s     matstack.MatStack
	limit int
}

func newMatrixStack(limit int) *matrixStack {
	return &matrixStack{s: *matstack.NewMatStack(), limit: limit}
}

func (m *matrixStack) depth() int        { return len(m.s) }
func (m *matrixStack) top() mgl32.Mat4   { return m.s.Peek() }
func (m *matrixStack) load(t mgl32.Mat4) { m.s.Load(t) }
func (m *matrixStack) mul(t mgl32.Mat4)  { m.s.RightMul(t) }

func (m *matrixStack) push() bool {
	if len(m.s) >= m.limit {
		return false
	}
	m.s.Push()
	return true
}

func (m *matrixStack) pop() bool {
	return m.s.Pop() == nil
}

// unwind pops down to depth n.
func (m *matrixStack) unwind(n int) {
	for len(m.s) > n && m.pop() {
	}
}

func (m *matrixStack) clone() matrixStack {
	return matrixStack{s: append(matstack.MatStack(nil), m.s...), limit: m.limit}
}

// current returns the stack selected by the matrix mode and its dirty bit.
func (c *Context) current() (*matrixStack, dirtyFlags) {
	if c.st.matrixMode == Projection {
		return c.proj, dirtyProjection
	}
	return c.model, dirtyModelview
}

// checkMatrix validates a matrix operation: no open primitive.
func (c *Context) checkMatrix(name string) bool {
	if c.prim.active {
		c.setError(InvalidOperation, name+": inside Begin/End")
		return false
	}
	return true
}

// MatrixMode selects the matrix stack later matrix operations apply to.
func (c *Context) MatrixMode(mode Enum) {
	if mode != Modelview && mode != Projection {
		c.setError(InvalidEnum, "MatrixMode: unsupported mode", "mode", mode)
		return
	}
	if !c.checkMatrix("MatrixMode") {
		return
	}
	c.st.matrixMode = mode
}

// LoadIdentity replaces the current matrix with the identity.
func (c *Context) LoadIdentity() {
	c.applyMatrix("LoadIdentity", func(s *matrixStack) { s.load(mgl32.Ident4()) })
}

// LoadMatrixf replaces the current matrix with m, column major.
func (c *Context) LoadMatrixf(m *[16]float32) {
	c.applyMatrix("LoadMatrixf", func(s *matrixStack) { s.load(mgl32.Mat4(*m)) })
}

// MultMatrixf multiplies the current matrix by m, column major.
func (c *Context) MultMatrixf(m *[16]float32) {
	c.applyMatrix("MultMatrixf", func(s *matrixStack) { s.mul(mgl32.Mat4(*m)) })
}

// Translatef multiplies the current matrix by a translation.
func (c *Context) Translatef(x, y, z float32) {
	c.applyMatrix("Translatef", func(s *matrixStack) { s.mul(mgl32.Translate3D(x, y, z)) })
}

// Scalef multiplies the current matrix by a scale.
func (c *Context) Scalef(x, y, z float32) {
	c.applyMatrix("Scalef", func(s *matrixStack) { s.mul(mgl32.Scale3D(x, y, z)) })
}

// Rotatef multiplies the current matrix by a rotation of angle degrees
// around (x, y, z). A zero axis leaves the matrix unchanged.
func (c *Context) Rotatef(angle, x, y, z float32) {
	r, ok := rotation(angle, x, y, z)
	if !ok {
		Logger().Debug("fakegl: Rotatef around a zero axis ignored")
		c.checkMatrix("Rotatef")
		return
	}
	c.applyMatrix("Rotatef", func(s *matrixStack) { s.mul(r) })
}

func rotation(angle, x, y, z float32) (mgl32.Mat4, bool) {
	rad := mgl32.DegToRad(angle)
	switch {
	case y == 0 && z == 0 && x != 0:
		return mgl32.HomogRotate3DX(float32(math.Copysign(float64(rad), float64(x)))), true
	case x == 0 && z == 0 && y != 0:
		return mgl32.HomogRotate3DY(float32(math.Copysign(float64(rad), float64(y)))), true
	case x == 0 && y == 0 && z != 0:
		return mgl32.HomogRotate3DZ(float32(math.Copysign(float64(rad), float64(z)))), true
	}
	axis := mgl32.Vec3{x, y, z}
	if axis.Len() == 0 {
		return mgl32.Mat4{}, false
	}
	return mgl32.HomogRotate3D(rad, axis.Normalize()), true
}

// Orthof multiplies the current matrix by an orthographic projection.
func (c *Context) Orthof(left, right, bottom, top, near, far float32) {
	if left == right || bottom == top || near == far {
		c.setError(InvalidValue, "Orthof: empty volume",
			"left", left, "right", right, "bottom", bottom, "top", top, "near", near, "far", far)
		return
	}
	c.applyMatrix("Orthof", func(s *matrixStack) { s.mul(mgl32.Ortho(left, right, bottom, top, near, far)) })
}

func (c *Context) applyMatrix(name string, fn func(*matrixStack)) {
	if !c.checkMatrix(name) {
		return
	}
	s, bit := c.current()
	fn(s)
	c.dirty |= bit
}

// PushMatrix duplicates the top of the current stack.
func (c *Context) PushMatrix() {
	if !c.checkMatrix("PushMatrix") {
		return
	}
	s, _ := c.current()
	if !s.push() {
		c.setError(StackOverflow, "PushMatrix: stack full", "mode", c.st.matrixMode, "depth", s.depth())
	}
}

// PopMatrix restores the previous top of the current stack.
func (c *Context) PopMatrix() {
	if !c.checkMatrix("PopMatrix") {
		return
	}
	s, bit := c.current()
	if !s.pop() {
		c.setError(StackUnderflow, "PopMatrix: stack empty", "mode", c.st.matrixMode)
		return
	}
	c.dirty |= bit
}

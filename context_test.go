package fakegl

import (
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/ge/sim"
	"github.com/aquaria-psp/fakegl/mem"
)

const (
	testW = ge.ScreenWidth
	testH = ge.ScreenHeight
)

// newTestContextDevice creates a context drawing with a private software GE.
func newTestContextDevice(t *testing.T, opts ...Option) (*Context, *sim.Device) {
	t.Helper()
	d, err := sim.New(mem.NewAllocator(16<<20, 4<<20))
	if err != nil {
		t.Fatalf("sim.New: %v", err)
	}
	t.Cleanup(d.Close)
	gl, err := New(append([]Option{WithDevice(d)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := gl.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return gl, d
}

func newTestContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	gl, _ := newTestContextDevice(t, opts...)
	return gl
}

func beginFrame(t *testing.T, gl *Context) {
	t.Helper()
	if err := gl.BeginOffscreenFrame(); err != nil {
		t.Fatalf("BeginOffscreenFrame: %v", err)
	}
	expectError(t, gl, NoError)
}

func endFrame(t *testing.T, gl *Context) {
	t.Helper()
	if err := gl.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
}

func expectError(t *testing.T, gl *Context, want ErrorCode) {
	t.Helper()
	if got := gl.GetError(); got != want {
		t.Fatalf("GetError() = %v, want %v", got, want)
	}
}

// setupOrtho maps GL coordinates to window pixels.
func setupOrtho(gl *Context) {
	gl.MatrixMode(Projection)
	gl.LoadIdentity()
	gl.Orthof(0, testW, 0, testH, -1, 1)
	gl.MatrixMode(Modelview)
	gl.LoadIdentity()
}

type command struct {
	op  ge.Op
	arg uint32
}

type drawCall struct {
	prim   ge.Primitive
	format ge.VertexFormat
	verts  []ge.Vertex
}

// trace is a command list as the GE executes it: jumps and calls followed,
// vertices fetched.
type trace struct {
	cmds  []command
	draws []drawCall
}

func (tr *trace) count(op ge.Op) int {
	n := 0
	for _, c := range tr.cmds {
		if c.op == op {
			n++
		}
	}
	return n
}

// ops returns the opcodes of the trace with jumps and addressing removed.
func (tr *trace) ops() []ge.Op {
	var out []ge.Op
	for _, c := range tr.cmds {
		switch c.op {
		case ge.OpBASE, ge.OpJUMP:
			continue
		}
		out = append(out, c.op)
	}
	return out
}

func decodeList(t *testing.T, alloc *mem.Allocator, start mem.Addr) *trace {
	t.Helper()
	tr := &trace{}
	var (
		base  uint32
		vaddr mem.Addr
		f     ge.VertexFormat
		stack []mem.Addr
	)
	pc := start
	for n := 0; n < 1<<22; n++ {
		b := alloc.Bytes(pc, 4)
		if b == nil {
			t.Fatalf("pc %#08x outside memory", uint32(pc))
		}
		op, arg := ge.Decode(binary.LittleEndian.Uint32(b))
		pc += 4
		tr.cmds = append(tr.cmds, command{op, arg})
		addr := mem.Addr(base<<24 | arg)
		switch op {
		case ge.OpBASE:
			base = arg >> 16 & 0xF
		case ge.OpJUMP:
			pc = addr
		case ge.OpCALL:
			stack = append(stack, pc)
			pc = addr
		case ge.OpRET:
			if len(stack) == 0 {
				t.Fatal("RET without CALL")
			}
			pc = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		case ge.OpEND:
			return tr
		case ge.OpVTYPE:
			var err error
			if f, err = ge.ParseVertexType(arg); err != nil {
				t.Fatal(err)
			}
		case ge.OpVADDR:
			vaddr = addr
		case ge.OpPRIM:
			count := int(arg & 0xFFFF)
			size := f.Size()
			data := alloc.Bytes(vaddr, count*size)
			if data == nil {
				t.Fatalf("vertices at %#08x outside memory", uint32(vaddr))
			}
			d := drawCall{prim: ge.Primitive(arg >> 16 & 7), format: f, verts: make([]ge.Vertex, count)}
			for i := range d.verts {
				f.Get(data[i*size:], &d.verts[i])
			}
			vaddr += mem.Addr(count * size)
			tr.draws = append(tr.draws, d)
		}
	}
	t.Fatal("list does not end")
	return nil
}

// frameTrace decodes the last frame list. The frame must have ended.
func frameTrace(t *testing.T, gl *Context) *trace {
	t.Helper()
	return decodeList(t, gl.alloc, gl.frame.Addr())
}

// readPixel returns the RGBA value of window pixel (x, y).
func readPixel(t *testing.T, gl *Context, x, y int32) [4]byte {
	t.Helper()
	var p [4]byte
	gl.ReadPixels(x, y, 1, 1, RGBA, UnsignedByte, p[:])
	expectError(t, gl, NoError)
	return p
}

func TestNewWithoutBackend(t *testing.T) {
	name := "sim"
	factory := func() ge.Device { return nil }
	ge.Backends.Register(name, factory)
	t.Cleanup(func() {
		ge.Backends.Register(name, func() ge.Device {
			d, err := sim.New(mem.NewAllocator(mem.DefaultMainSize, mem.DefaultTempSize))
			if err != nil {
				return nil
			}
			return d
		})
	})
	if _, err := New(); !errors.Is(err, ErrNoDevice) {
		t.Errorf("New() error = %v, want ErrNoDevice", err)
	}
}

func TestFramePrologue(t *testing.T) {
	gl, d := newTestContextDevice(t)
	beginFrame(t, gl)
	endFrame(t, gl)

	tr := frameTrace(t, gl)
	want := []ge.Op{ge.OpFBP, ge.OpFBW, ge.OpOFFSETX, ge.OpOFFSETY, ge.OpCLEAR}
	for i, op := range want {
		if tr.cmds[i].op != op {
			t.Fatalf("command %d = %v, want %v", i, tr.cmds[i].op, op)
		}
	}
	target := d.OffscreenBuffer()
	if got := mem.Addr(tr.cmds[0].arg | (tr.cmds[1].arg>>16&0xFF)<<24); got != target.Addr {
		t.Errorf("framebuffer = %#08x, want %#08x", uint32(got), uint32(target.Addr))
	}
	last := tr.cmds[len(tr.cmds)-2:]
	if last[0].op != ge.OpFINISH || last[1].op != ge.OpEND {
		t.Errorf("frame ends with %v %v, want FINISH END", last[0].op, last[1].op)
	}
}

func TestFrameMisuse(t *testing.T) {
	gl := newTestContext(t)

	gl.Enable(Blend)
	expectError(t, gl, InvalidOperation)
	if gl.IsEnabled(Blend) {
		t.Error("Enable outside a frame changed state")
	}
	if err := gl.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	expectError(t, gl, InvalidOperation)

	beginFrame(t, gl)
	if err := gl.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	expectError(t, gl, InvalidOperation)

	gl.Begin(Triangles)
	if err := gl.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	expectError(t, gl, InvalidOperation)
	gl.End()
	endFrame(t, gl)
	expectError(t, gl, NoError)
}

func TestOnscreenFrameSwaps(t *testing.T) {
	gl, d := newTestContextDevice(t)
	draw := d.DrawBuffer()
	if err := gl.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame: %v", err)
	}
	gl.ClearColor(1, 0, 0, 1)
	gl.Clear(ColorBufferBit)
	endFrame(t, gl)

	if d.DisplayBuffer() != draw {
		t.Fatal("EndFrame did not swap buffers")
	}
	if got := d.Pixel(d.DisplayBuffer(), 10, 10); got != [4]byte{255, 0, 0, 255} {
		t.Errorf("displayed pixel = %v, want red", got)
	}
}

func TestFlushAndFinish(t *testing.T) {
	gl, d := newTestContextDevice(t)
	beginFrame(t, gl)
	gl.ClearColor(0, 1, 0, 1)
	gl.Clear(ColorBufferBit)
	if err := gl.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	// Finish inside a frame executes everything emitted so far.
	if got := d.Pixel(d.OffscreenBuffer(), 0, 0); got != [4]byte{0, 255, 0, 255} {
		t.Errorf("pixel after Finish = %v, want green", got)
	}
	endFrame(t, gl)
	if err := gl.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if gl.inflight {
		t.Error("Finish outside a frame left the frame in flight")
	}
}

func TestFrameListOverflow(t *testing.T) {
	gl := newTestContext(t, WithFrameListSize(2048))
	beginFrame(t, gl)
	setupOrtho(gl)
	gl.Begin(Points)
	for i := 0; i < 1000; i++ {
		gl.Vertex2f(float32(i%testW), 1)
	}
	gl.End()
	expectError(t, gl, OutOfMemory)
	endFrame(t, gl)
	expectError(t, gl, OutOfMemory)

	// The truncated frame still ends and the next one works.
	if err := gl.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	beginFrame(t, gl)
	gl.ClearColor(0, 0, 1, 1)
	gl.Clear(ColorBufferBit)
	endFrame(t, gl)
	if got := readPixel(t, gl, 5, 5); got != [4]byte{0, 0, 255, 255} {
		t.Errorf("pixel = %v, want blue", got)
	}
}

// stateSnapshot is the shadow state a rejected call must leave alone.
type stateSnapshot struct {
	st          glState
	proj, model matrixStack
	attribs     []attribEntry
	dirty       dirtyFlags
}

func snapshot(gl *Context) stateSnapshot {
	return stateSnapshot{
		st:      gl.st,
		proj:    gl.proj.clone(),
		model:   gl.model.clone(),
		attribs: append([]attribEntry(nil), gl.attribs...),
		dirty:   gl.dirty,
	}
}

func TestErrorKeepsState(t *testing.T) {
	gl := newTestContext(t)
	var ids [2]uint32
	gl.GenTextures(ids[:])
	tex, deleted := ids[0], ids[1]
	gl.DeleteTextures([]uint32{deleted})
	gl.BindTexture(Texture2D, tex)
	gl.TexImage2D(Texture2D, 0, RGBA, 16, 16, 0, RGBA, UnsignedByte, nil)
	list := gl.GenLists(1)
	gl.NewList(list, Compile)
	fillRect(gl, 0, 0, 1, 1)
	gl.EndList()
	gone := gl.GenLists(1)
	gl.DeleteLists(gone, 1)
	expectError(t, gl, NoError)

	beginFrame(t, gl)
	setupOrtho(gl)
	gl.Enable(Texture2D)
	gl.BlendFunc(SrcAlpha, OneMinusSrcAlpha)
	gl.Translatef(3, 4, 0)
	gl.PushMatrix()
	gl.Rotatef(30, 0, 0, 1)
	gl.PushAttrib(AllAttribBits)
	gl.Color3ub(10, 20, 30)
	gl.Viewport(1, 2, 300, 200)
	expectError(t, gl, NoError)

	tests := []struct {
		name string
		call func()
		want ErrorCode
	}{
		{"blend factor", func() { gl.BlendFunc(SrcAlpha, SrcAlphaSaturate) }, InvalidEnum},
		{"capability", func() { gl.Enable(0x1234) }, InvalidEnum},
		{"matrix mode", func() { gl.MatrixMode(0x1234) }, InvalidEnum},
		{"shade model", func() { gl.ShadeModel(Modelview) }, InvalidEnum},
		{"texture target", func() { gl.BindTexture(0x1234, tex) }, InvalidEnum},
		{"viewport size", func() { gl.Viewport(0, 0, -1, 1) }, InvalidValue},
		{"texture name out of range", func() { gl.BindTexture(Texture2D, 0xFFFF) }, InvalidValue},
		{"deleted texture", func() { gl.BindTexture(Texture2D, deleted) }, InvalidOperation},
		{"never generated texture", func() { gl.BindTexture(Texture2D, tex+100) }, InvalidOperation},
		{"texture size", func() {
			gl.TexImage2D(Texture2D, 0, RGBA, 1024, 16, 0, RGBA, UnsignedByte, nil)
		}, InvalidValue},
		{"sub-image region", func() {
			gl.TexSubImage2D(Texture2D, 0, 8, 8, 16, 16, RGBA, UnsignedByte, make([]byte, 16*16*4))
		}, InvalidValue},
		{"list 0", func() { gl.CallList(0) }, InvalidValue},
		{"list out of range", func() { gl.CallList(0xFFFF) }, InvalidValue},
		{"deleted list", func() { gl.CallList(gone) }, InvalidOperation},
		{"list range", func() { gl.DeleteLists(list, -1) }, InvalidValue},
		{"inside Begin/End", func() {
			gl.Begin(Triangles)
			gl.BlendFunc(One, Zero)
			gl.LoadIdentity()
			gl.End()
		}, InvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl.syncState()
			before := snapshot(gl)
			tt.call()
			if got := gl.GetError(); got != tt.want {
				t.Errorf("GetError() = %v, want %v", got, tt.want)
			}
			if after := snapshot(gl); !reflect.DeepEqual(after, before) {
				t.Errorf("state changed by a rejected call:\n got %+v\nwant %+v", after, before)
			}
		})
	}

	// The last error wins and GetError clears it.
	gl.Enable(0x1234)
	gl.Viewport(0, 0, -1, 1)
	expectError(t, gl, InvalidValue)
	expectError(t, gl, NoError)
	endFrame(t, gl)

	before := snapshot(gl)
	gl.CallList(list)
	gl.Clear(ColorBufferBit)
	expectError(t, gl, InvalidOperation)
	if after := snapshot(gl); !reflect.DeepEqual(after, before) {
		t.Errorf("state changed by calls outside a frame:\n got %+v\nwant %+v", after, before)
	}
}

func TestClearColorAndScissor(t *testing.T) {
	gl := newTestContext(t)
	beginFrame(t, gl)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(ColorBufferBit)
	gl.Enable(ScissorTest)
	gl.Scissor(10, 20, 30, 40)
	gl.ClearColor(1, 0.5, 0, 1)
	gl.Clear(ColorBufferBit | DepthBufferBit)
	endFrame(t, gl)

	tests := []struct {
		x, y int32
		want [4]byte
	}{
		{10, 20, [4]byte{255, 128, 0, 255}},
		{39, 59, [4]byte{255, 128, 0, 255}},
		{9, 20, [4]byte{0, 0, 0, 255}},
		{40, 20, [4]byte{0, 0, 0, 255}},
		{10, 60, [4]byte{0, 0, 0, 255}},
	}
	for _, tt := range tests {
		if got := readPixel(t, gl, tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}

	beginFrame(t, gl)
	gl.Clear(0x8000)
	expectError(t, gl, InvalidValue)
	endFrame(t, gl)
}

func TestClose(t *testing.T) {
	d, err := sim.New(mem.NewAllocator(16<<20, 4<<20))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	alloc := d.Memory()
	before := alloc.Stats()

	gl, err := New(WithDevice(d))
	if err != nil {
		t.Fatal(err)
	}
	var ids [2]uint32
	gl.GenTextures(ids[:])
	gl.BindTexture(Texture2D, ids[0])
	gl.TexImage2D(Texture2D, 0, RGBA, 16, 16, 0, RGBA, UnsignedByte, nil)
	list := gl.GenLists(1)
	gl.NewList(list, Compile)
	gl.Begin(Triangles)
	gl.Vertex2f(0, 0)
	gl.Vertex2f(1, 0)
	gl.Vertex2f(0, 1)
	gl.End()
	gl.EndList()
	expectError(t, gl, NoError)

	if err := gl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := gl.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	after := alloc.Stats()
	if after.Main.Blocks != before.Main.Blocks || after.Temp.Blocks != before.Temp.Blocks {
		t.Errorf("blocks leaked: before %v, after %v", before, after)
	}
}

package fakegl

import (
	"errors"
	"fmt"
	"io"

	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/internal/slotmap"
	"github.com/aquaria-psp/fakegl/mem"
)

// ErrNoDevice is returned by New when no GE backend is available.
var ErrNoDevice = errors.New("fakegl: no GE device available")

// Context is the GL state machine. It keeps the shadow GL state, the
// texture and display list registries and the command list of the frame
// being built, and submits that list to a ge.Device.
//
// A Context is not safe for concurrent use: all calls must come from the
// rendering goroutine.
type Context struct {
	cfg    config
	dev    ge.Device
	alloc  *mem.Allocator
	width  int
	height int

	// Frame
	frame      *ge.Writer
	frameVerts frameVertices
	inFrame    bool
	offscreen  bool
	inflight   bool   // a frame was submitted and not waited for
	serial     uint64 // frames begun
	target     ge.Surface

	// GL state
	st      glState
	proj    *matrixStack
	model   *matrixStack
	attribs []attribEntry
	dirty   dirtyFlags
	err     ErrorCode

	textures *slotmap.Map[*Texture]
	lists    *slotmap.Map[*displayList]
	rec      *recording
	prim     primitive

	// callStamp counts CallList resolutions, so a list reached twice in
	// one call is resolved once.
	callStamp uint64

	// Texture storage and list commands replaced while the GE may read
	// them, freed at the next frame.
	retired []mem.Addr

	closed bool
}

// Ensure Context implements io.Closer
var _ io.Closer = (*Context)(nil)

// New creates a GL context. Without WithDevice the best backend registered
// in ge.Backends is used:
//
//	gl, err := fakegl.New()
//	if err != nil {
//		return err
//	}
//	defer gl.Close()
//
//	gl.BeginFrame()
//	gl.ClearColor(0, 0, 0, 1)
//	gl.Clear(fakegl.ColorBufferBit)
//	gl.EndFrame()
func New(opts ...Option) (*Context, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	dev := cfg.device
	if dev == nil {
		name := ge.Backends.BestName()
		if name == "" {
			return nil, ErrNoDevice
		}
		dev = ge.Backends.Get(name)
		if dev == nil {
			return nil, fmt.Errorf("%w: backend %q failed to start", ErrNoDevice, name)
		}
		Logger().Info("fakegl: device selected", "backend", name)
	}
	alloc := dev.Memory()
	frame, err := ge.NewWriter(alloc, cfg.frameListSize, mem.Temp, false)
	if err != nil {
		return nil, fmt.Errorf("fakegl: frame list: %w", err)
	}
	w, h := dev.Size()
	c := &Context{
		cfg:        cfg,
		dev:        dev,
		alloc:      alloc,
		width:      w,
		height:     h,
		frame:      frame,
		frameVerts: frameVertices{w: frame, alloc: alloc},
		st:         defaultState(w, h),
		proj:       newMatrixStack(MaxProjectionStackDepth),
		model:      newMatrixStack(MaxModelviewStackDepth),
		textures:   slotmap.New[*Texture](cfg.maxTextures),
		lists:      slotmap.New[*displayList](cfg.maxLists),
		dirty:      dirtyAll,
	}
	Logger().Info("fakegl: context created", "width", w, "height", h,
		"frameList", cfg.frameListSize, "fastPath", cfg.fastPath)
	return c, nil
}

// Device returns the GE the context submits to.
func (c *Context) Device() ge.Device { return c.dev }

// Size returns the framebuffer size in pixels.
func (c *Context) Size() (width, height int) { return c.width, c.height }

// Close waits for the GE and releases every texture, display list and the
// frame list. The context must not be used afterwards.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.dev.Sync()
	c.textures.All(func(id slotmap.ID, t **Texture) bool {
		c.textures.Remove(id)
		return true
	})
	c.lists.All(func(id slotmap.ID, l **displayList) bool {
		c.lists.Remove(id)
		return true
	})
	c.reclaim()
	if c.rec != nil {
		c.rec.free()
		c.rec = nil
	}
	return errors.Join(err, c.frame.Free())
}

// emitting reports whether commands currently have somewhere to go.
func (c *Context) emitting() bool { return c.inFrame || c.rec != nil }

// checkState validates a call that changes state observed by draws: it
// needs an active frame or a recording list and no open primitive.
func (c *Context) checkState(name string) bool {
	switch {
	case c.prim.active:
		c.setError(InvalidOperation, name+": inside Begin/End")
		return false
	case !c.emitting():
		c.setError(InvalidOperation, name+": no active frame")
		return false
	}
	return true
}

// out returns the writer commands go to: the recording list's command
// buffer or the frame list.
func (c *Context) out() *ge.Writer {
	if c.rec != nil {
		return c.rec.cmds
	}
	if !c.inFrame {
		internal("command emitted outside a frame")
	}
	return c.frame
}

// BeginFrame starts a frame drawn into the back buffer. It frees the
// resources deleted during the previous frame.
func (c *Context) BeginFrame() error {
	return c.beginFrame(false)
}

// BeginOffscreenFrame starts a frame drawn into the offscreen buffer, whose
// contents are read back with ReadPixels or the copy calls.
func (c *Context) BeginOffscreenFrame() error {
	return c.beginFrame(true)
}

func (c *Context) beginFrame(offscreen bool) error {
	if c.inFrame || c.rec != nil {
		c.setError(InvalidOperation, "BeginFrame: frame or display list already open")
		return nil
	}
	if c.inflight {
		if err := c.dev.Sync(); err != nil {
			Logger().Warn("fakegl: previous frame failed", "err", err)
		}
		c.inflight = false
	}
	c.reclaim()

	c.target = c.dev.DrawBuffer()
	if offscreen {
		c.target = c.dev.OffscreenBuffer()
	}
	c.frame.Reset()
	c.prologue()
	if err := c.dev.Enqueue(c.frame.Addr(), c.frame.Addr()); err != nil {
		return fmt.Errorf("fakegl: begin frame: %w", err)
	}
	c.inFrame, c.offscreen = true, offscreen
	c.serial++
	c.dirty = dirtyAll
	return nil
}

// prologue binds the frame's render target and resets the state no
// dirty flag covers.
func (c *Context) prologue() {
	w := c.frame
	addr := uint32(c.target.Addr)
	w.Emit(ge.OpFBP, addr&0xFFFFFF)
	w.Emit(ge.OpFBW, uint32(c.target.Stride)|(addr>>24&0xFF)<<16)
	w.Emit(ge.OpOFFSETX, screenOffset<<4)
	w.Emit(ge.OpOFFSETY, screenOffset<<4)
	w.Emit(ge.OpCLEAR, 0)
	ident := identity()
	w.EmitMatrix43(ge.OpWMS, ge.OpWORLD, &ident)
}

// reclaim destroys resources deleted before the GE was last known idle.
func (c *Context) reclaim() {
	nt := c.textures.Drain(func(t *Texture) { t.release() })
	nl := c.lists.Drain(func(l *displayList) { l.free() })
	for _, addr := range c.retired {
		if err := c.alloc.Free(addr); err != nil {
			internal("retired storage: %v", err)
		}
	}
	if nt+nl+len(c.retired) > 0 {
		Logger().Debug("fakegl: deferred resources freed", "textures", nt, "lists", nl, "storage", len(c.retired))
	}
	c.retired = c.retired[:0]
}

// EndFrame submits the frame. An onscreen frame is shown once the GE has
// drawn it; EndFrame waits for that.
func (c *Context) EndFrame() error {
	if !c.inFrame || c.prim.active {
		c.setError(InvalidOperation, "EndFrame: no frame open or inside Begin/End")
		return nil
	}
	if err := c.frame.Err(); err != nil {
		c.setError(OutOfMemory, "EndFrame: frame list overflow", "err", err)
	}
	c.frame.Terminate()
	c.inFrame = false
	if err := c.dev.UpdateStall(mem.Nil); err != nil {
		return fmt.Errorf("fakegl: end frame: %w", err)
	}
	if c.offscreen {
		c.inflight = true
		return nil
	}
	if err := c.dev.SwapBuffers(); err != nil {
		return fmt.Errorf("fakegl: swap: %w", err)
	}
	return nil
}

// Flush hands the commands emitted so far to the GE.
func (c *Context) Flush() {
	if !c.inFrame {
		return
	}
	if err := c.dev.UpdateStall(c.frame.Pos()); err != nil {
		Logger().Warn("fakegl: flush failed", "err", err)
	}
}

// Finish flushes and waits until the GE has executed everything submitted.
func (c *Context) Finish() error {
	c.Flush()
	if err := c.dev.Sync(); err != nil {
		return fmt.Errorf("fakegl: finish: %w", err)
	}
	if !c.inFrame {
		c.inflight = false
	}
	return nil
}

// markAll forces every piece of hardware state to be re-emitted.
func (c *Context) markAll() { c.dirty = dirtyAll }

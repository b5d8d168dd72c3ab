// Package sim is a software implementation of the GE.
//
// A Device executes command lists from allocator memory into RGBA8888
// framebuffers that live in the same address space. Execution is deferred:
// queued lists run when the caller waits for them (Sync, SwapBuffers), which
// models a GPU that completes work some time after submission. Tests rely on
// this to check that memory referenced by queued commands is left intact
// until the GPU is known to be done with it.
//
// The device implements the subset of the GE used by the fakegl layer:
// list control (CALL, RET, JUMP, END, FINISH, stall addresses), untransformed
// and through-mode vertices, all primitive types, nearest and bilinear
// texturing with palettes and swizzling, alpha test, blending, scissor,
// clear mode and block transfers. Lighting, fog and depth buffering are
// accepted and ignored.
package sim

import (
	"errors"
	"fmt"

	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/mem"
)

// ErrStalled is returned by SwapBuffers when a list is still waiting at its
// stall address and has not reached END.
var ErrStalled = errors.New("sim: list stalled before END")

// maxCallDepth is the depth of the CALL return stack.
const maxCallDepth = 32

// maxCommands bounds one execution pass; a list that runs longer is assumed
// to loop forever.
const maxCommands = 1 << 24

type options struct {
	width, height int
	eager         bool
}

// Option configures a Device.
type Option func(*options)

// WithSize sets the display size. The default is 480x272.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.width, o.height = width, height
	}
}

// WithEagerExecution makes the device execute commands as soon as they are
// committed with Enqueue or UpdateStall instead of at the next wait.
func WithEagerExecution() Option {
	return func(o *options) {
		o.eager = true
	}
}

type list struct {
	pc    mem.Addr
	stall mem.Addr
	stack []mem.Addr
	done  bool
}

// Device is a software GE. It is not safe for concurrent use.
type Device struct {
	alloc  *mem.Allocator
	width  int
	height int
	stride int
	eager  bool

	buffers   [2]ge.Surface // display, draw
	offscreen ge.Surface

	queue []*list
	regs  registers
	verts []screenVertex

	executed int // commands executed, for tests and diagnostics
	frames   int
}

// New creates a device whose framebuffers are allocated from alloc.
func New(alloc *mem.Allocator, opts ...Option) (*Device, error) {
	o := options{width: ge.ScreenWidth, height: ge.ScreenHeight}
	for _, opt := range opts {
		opt(&o)
	}
	if o.width <= 0 || o.height <= 0 || o.width > 1024 || o.height > 1024 {
		return nil, fmt.Errorf("sim: invalid display size %dx%d", o.width, o.height)
	}
	d := &Device{
		alloc:  alloc,
		width:  o.width,
		height: o.height,
		stride: max(ge.ScreenStride, (o.width+63)&^63),
		eager:  o.eager,
	}
	surfaces := []*ge.Surface{&d.buffers[0], &d.buffers[1], &d.offscreen}
	for _, s := range surfaces {
		size := d.stride * d.height * 4
		addr := alloc.Alloc(size, 64, mem.Top|mem.Clear)
		if addr == mem.Nil {
			d.Close()
			return nil, fmt.Errorf("%w: framebuffer of %d bytes", ge.ErrNoMemory, size)
		}
		*s = ge.Surface{Addr: addr, Width: d.width, Height: d.height, Stride: d.stride}
	}
	d.regs.reset(d.buffers[1])
	slogger().Debug("sim: device created", "width", d.width, "height", d.height,
		"draw", fmt.Sprintf("%#08x", uint32(d.buffers[1].Addr)))
	return d, nil
}

// Close frees the framebuffers.
func (d *Device) Close() {
	for _, s := range []*ge.Surface{&d.buffers[0], &d.buffers[1], &d.offscreen} {
		if s.Addr != mem.Nil {
			_ = d.alloc.Free(s.Addr)
			s.Addr = mem.Nil
		}
	}
}

// Size implements ge.Device.
func (d *Device) Size() (width, height int) { return d.width, d.height }

// Memory implements ge.Device.
func (d *Device) Memory() *mem.Allocator { return d.alloc }

// DrawBuffer implements ge.Device.
func (d *Device) DrawBuffer() ge.Surface { return d.buffers[1] }

// DisplayBuffer returns the buffer currently shown.
func (d *Device) DisplayBuffer() ge.Surface { return d.buffers[0] }

// OffscreenBuffer implements ge.Device.
func (d *Device) OffscreenBuffer() ge.Surface { return d.offscreen }

// Executed returns the number of commands executed so far.
func (d *Device) Executed() int { return d.executed }

// Pending reports whether queued work has not been executed yet.
func (d *Device) Pending() bool {
	for _, l := range d.queue {
		if !l.done && l.pc != l.stall {
			return true
		}
	}
	return false
}

// Enqueue implements ge.Device.
func (d *Device) Enqueue(addr, stall mem.Addr) error {
	if d.alloc.Bytes(addr, 4) == nil {
		return fmt.Errorf("%w: list address %#08x", ge.ErrBadList, uint32(addr))
	}
	d.queue = append(d.queue, &list{pc: addr, stall: stall})
	slogger().Debug("sim: list queued", "addr", fmt.Sprintf("%#08x", uint32(addr)))
	if d.eager {
		return d.run()
	}
	return nil
}

// UpdateStall implements ge.Device.
func (d *Device) UpdateStall(stall mem.Addr) error {
	if len(d.queue) == 0 {
		return ge.ErrNotQueued
	}
	d.queue[len(d.queue)-1].stall = stall
	if d.eager {
		return d.run()
	}
	return nil
}

// Sync implements ge.Device. It runs every queued list until it ends or
// reaches its stall address.
func (d *Device) Sync() error {
	return d.run()
}

// SwapBuffers implements ge.Device.
func (d *Device) SwapBuffers() error {
	if err := d.run(); err != nil {
		return err
	}
	if len(d.queue) > 0 {
		return fmt.Errorf("%w: %d list(s) outstanding", ErrStalled, len(d.queue))
	}
	d.buffers[0], d.buffers[1] = d.buffers[1], d.buffers[0]
	d.frames++
	return nil
}

// run executes queued lists in order. Finished lists leave the queue; a
// stalled list blocks the lists behind it.
func (d *Device) run() error {
	for len(d.queue) > 0 {
		l := d.queue[0]
		if err := d.execute(l); err != nil {
			d.queue = d.queue[1:]
			slogger().Warn("sim: list aborted", "err", err)
			return err
		}
		if !l.done {
			return nil
		}
		d.queue = d.queue[1:]
	}
	return nil
}

// execute runs l until END or its stall address.
func (d *Device) execute(l *list) error {
	for n := 0; ; n++ {
		if l.done || (l.stall != mem.Nil && l.pc == l.stall) {
			return nil
		}
		if n >= maxCommands {
			return fmt.Errorf("%w: runaway list at %#08x", ge.ErrBadList, uint32(l.pc))
		}
		word, ok := d.read32(l.pc)
		if !ok {
			return fmt.Errorf("%w: pc %#08x outside memory", ge.ErrBadList, uint32(l.pc))
		}
		l.pc += 4
		d.executed++
		op, arg := ge.Decode(word)

		switch op {
		case ge.OpJUMP:
			l.pc = d.regs.address(arg) &^ 3
		case ge.OpCALL:
			if len(l.stack) >= maxCallDepth {
				return fmt.Errorf("%w: call stack overflow at %#08x", ge.ErrBadList, uint32(l.pc-4))
			}
			l.stack = append(l.stack, l.pc)
			l.pc = d.regs.address(arg) &^ 3
		case ge.OpRET:
			if len(l.stack) == 0 {
				return fmt.Errorf("%w: RET without CALL at %#08x", ge.ErrBadList, uint32(l.pc-4))
			}
			l.pc = l.stack[len(l.stack)-1]
			l.stack = l.stack[:len(l.stack)-1]
		case ge.OpEND:
			l.done = true
		case ge.OpFINISH, ge.OpSIGNAL:
		default:
			if err := d.command(op, arg); err != nil {
				return err
			}
		}
	}
}

func (d *Device) read32(addr mem.Addr) (uint32, bool) {
	b := d.alloc.Bytes(addr, 4)
	if b == nil {
		return 0, false
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, true
}

func init() {
	ge.Backends.Register("sim", func() ge.Device {
		d, err := New(mem.NewAllocator(mem.DefaultMainSize, mem.DefaultTempSize))
		if err != nil {
			slogger().Warn("sim: backend unavailable", "err", err)
			return nil
		}
		return d
	})
}

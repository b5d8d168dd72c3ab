package ge

import (
	"errors"

	"github.com/gogpu/gpucontext"

	"github.com/aquaria-psp/fakegl/mem"
)

// Screen geometry of the GE display.
const (
	ScreenWidth  = 480
	ScreenHeight = 272
	ScreenStride = 512 // framebuffer row pitch in pixels
)

// Device errors.
var (
	// ErrNotQueued is returned by UpdateStall when no list is executing.
	ErrNotQueued = errors.New("ge: no list queued")

	// ErrBadList is returned when a list cannot be executed.
	ErrBadList = errors.New("ge: invalid command list")
)

// Surface describes a 32-bit RGBA8888 framebuffer in GE memory.
type Surface struct {
	Addr   mem.Addr
	Width  int
	Height int
	Stride int // pixels per row
}

// Bytes returns the memory of s.
func (s Surface) Bytes(alloc *mem.Allocator) []byte {
	return alloc.Bytes(s.Addr, s.Stride*s.Height*4)
}

// Device is a GE backend. It executes command lists asynchronously with
// respect to the caller.
//
// A list is enqueued with a stall address: the device executes commands up
// to, but not including, the stall address and waits until UpdateStall moves
// it forward. A stall address of mem.Nil means no stall.
type Device interface {
	// Size returns the display size in pixels.
	Size() (width, height int)

	// Memory returns the allocator whose address space the device reads.
	Memory() *mem.Allocator

	// Enqueue queues the list starting at list.
	Enqueue(list, stall mem.Addr) error

	// UpdateStall moves the stall address of the most recently queued list.
	UpdateStall(stall mem.Addr) error

	// Sync blocks until every queued list has completed.
	Sync() error

	// SwapBuffers waits for completion and exchanges display and draw buffers.
	SwapBuffers() error

	// DrawBuffer returns the buffer onscreen frames render into.
	DrawBuffer() Surface

	// OffscreenBuffer returns the buffer offscreen frames render into.
	OffscreenBuffer() Surface
}

// Backends holds the registered device factories. The software GE registers
// itself as "sim".
var Backends = gpucontext.NewRegistry[Device](
	gpucontext.WithPriority("hw", "sim"),
)

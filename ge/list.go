package ge

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/aquaria-psp/fakegl/mem"
)

// List errors.
var (
	// ErrListFull is recorded when a fixed-size list runs out of space or a
	// growable list cannot be reallocated.
	ErrListFull = errors.New("ge: command list full")

	// ErrNoMemory is returned when the backing block cannot be allocated.
	ErrNoMemory = errors.New("ge: out of GE memory")
)

// Writer appends command words to a block of allocator memory.
//
// A fixed-size writer never moves, so addresses obtained from Pos and Reserve
// stay valid; this is what the live frame list needs for inline vertex data
// and patched jumps. A growable writer reallocates on overflow and may move,
// so only its final Addr may be published.
//
// Once a write fails the writer records the error and ignores further
// writes until Reset.
type Writer struct {
	alloc    *mem.Allocator
	addr     mem.Addr
	size     int
	off      int
	flags    mem.Flags
	growable bool
	err      error
}

// listTail is the room a fixed-size writer keeps past its capacity for the
// words written by Terminate.
const listTail = 8

// NewWriter allocates a size-byte list block with the given allocation flags.
func NewWriter(alloc *mem.Allocator, size int, flags mem.Flags, growable bool) (*Writer, error) {
	size = (size + 3) &^ 3
	n := size
	if !growable {
		n += listTail
	}
	addr := alloc.Alloc(n, 16, flags)
	if addr == mem.Nil {
		return nil, fmt.Errorf("%w: list of %d bytes", ErrNoMemory, n)
	}
	return &Writer{alloc: alloc, addr: addr, size: size, flags: flags, growable: growable}, nil
}

// Addr returns the address of the first command.
func (w *Writer) Addr() mem.Addr { return w.addr }

// Len returns the number of bytes written.
func (w *Writer) Len() int { return w.off }

// Cap returns the number of bytes Emit and Reserve may use.
func (w *Writer) Cap() int { return w.size }

// Pos returns the address the next command will be written at.
func (w *Writer) Pos() mem.Addr { return w.addr + mem.Addr(w.off) }

// Err returns the first write failure since the last Reset.
func (w *Writer) Err() error { return w.err }

// Reset rewinds the writer to an empty list.
func (w *Writer) Reset() {
	w.off = 0
	w.err = nil
}

// Free releases the backing block. The writer must not be used afterwards.
func (w *Writer) Free() error {
	addr := w.addr
	w.addr, w.size, w.off = mem.Nil, 0, 0
	return w.alloc.Free(addr)
}

// ensure makes room for n more bytes.
func (w *Writer) ensure(n int) bool {
	if w.err != nil {
		return false
	}
	if w.off+n <= w.size {
		return true
	}
	if !w.growable {
		w.err = fmt.Errorf("%w: %d of %d bytes used", ErrListFull, w.off, w.size)
		return false
	}
	size := max(w.size*2, w.off+n)
	addr := w.alloc.Realloc(w.addr, size, w.flags)
	if addr == mem.Nil {
		w.err = fmt.Errorf("%w: cannot grow to %d bytes", ErrListFull, size)
		return false
	}
	w.addr, w.size = addr, size
	return true
}

// Emit appends one command word.
func (w *Writer) Emit(op Op, arg uint32) {
	if !w.ensure(4) {
		return
	}
	binary.LittleEndian.PutUint32(w.alloc.Bytes(w.Pos(), 4), Command(op, arg))
	w.off += 4
}

// EmitFloat appends a command with a float argument.
func (w *Writer) EmitFloat(op Op, f float32) {
	w.Emit(op, Float24(f))
}

// EmitAddr appends a BASE command followed by op carrying the low 24 bits
// of addr.
func (w *Writer) EmitAddr(op Op, addr mem.Addr) {
	w.Emit(OpBASE, (uint32(addr)>>24&0xF)<<16)
	w.Emit(op, uint32(addr))
}

// EmitMatrix43 uploads the 4x3 part of a matrix in GL memory order (basis
// vectors then translation) through a select/load command pair.
func (w *Writer) EmitMatrix43(sel, load Op, m *[16]float32) {
	w.Emit(sel, 0)
	for col := 0; col < 4; col++ {
		for row := 0; row < 3; row++ {
			w.EmitFloat(load, m[col*4+row])
		}
	}
}

// EmitMatrix44 uploads a full 4x4 matrix in GL memory order.
func (w *Writer) EmitMatrix44(sel, load Op, m *[16]float32) {
	w.Emit(sel, 0)
	for _, v := range m {
		w.EmitFloat(load, v)
	}
}

// Reserve returns n bytes of space in the list, rounded up to a multiple of
// four. The caller fills it with data the GE reads but does not execute.
// It returns mem.Nil and nil when the list is full.
func (w *Writer) Reserve(n int) (mem.Addr, []byte) {
	n = (n + 3) &^ 3
	if !w.ensure(n) {
		return mem.Nil, nil
	}
	addr := w.Pos()
	w.off += n
	return addr, w.alloc.Bytes(addr, n)
}

// Terminate appends FINISH and END. A fixed-size writer writes them into
// the room kept past its capacity, so a list that overflowed still ends.
func (w *Writer) Terminate() {
	if w.growable {
		w.Emit(OpFINISH, 0)
		w.Emit(OpEND, 0)
		return
	}
	if w.off > w.size {
		panic("ge: list terminated twice")
	}
	b := w.alloc.Bytes(w.Pos(), listTail)
	binary.LittleEndian.PutUint32(b, Command(OpFINISH, 0))
	binary.LittleEndian.PutUint32(b[4:], Command(OpEND, 0))
	w.off += listTail
}

// Patch overwrites the command word at addr, which must lie inside the
// written part of the list.
func (w *Writer) Patch(addr mem.Addr, op Op, arg uint32) {
	if addr < w.addr || addr+4 > w.Pos() {
		panic(fmt.Sprintf("ge: patch at %#08x outside list [%#08x, %#08x)", uint32(addr), uint32(w.addr), uint32(w.Pos())))
	}
	binary.LittleEndian.PutUint32(w.alloc.Bytes(addr, 4), Command(op, arg))
}

// Shrink trims the backing block to the written length.
func (w *Writer) Shrink() {
	if w.off == 0 || w.off == w.size {
		return
	}
	if addr := w.alloc.Realloc(w.addr, w.off, w.flags); addr != mem.Nil {
		w.addr, w.size = addr, w.off
	}
}

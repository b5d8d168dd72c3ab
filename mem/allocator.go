// Package mem implements the pool allocator that owns every byte the GE reads.
//
// All memory handed out by an Allocator lives in one flat 32-bit address space.
// Command lists, vertex chunks, texture pixels, palettes and framebuffers are
// blocks in that space, and GE command words refer to them by [Addr]. The main
// pool starts at [BaseAddr]; the temp pool follows it directly.
//
// Allocation never panics and never returns an error: a failed allocation
// yields [Nil], mirroring the contract the GL layer builds on.
//
// Allocator is not safe for concurrent use.
package mem

import (
	"errors"
	"fmt"
	"sort"
)

// Addr is a byte address inside an Allocator's address space.
type Addr uint32

// Nil is the null address. No block ever starts at Nil.
const Nil Addr = 0

// BaseAddr is the address of the first byte of the main pool.
const BaseAddr Addr = 0x08800000

// Default pool sizes.
const (
	DefaultMainSize = 16 << 20
	DefaultTempSize = 4 << 20

	// DefaultAlign is used when Alloc is called with align <= 0.
	DefaultAlign = 16
)

// Flags select the pool and placement of an allocation.
type Flags uint8

const (
	// Temp allocates from the temp pool instead of the main pool.
	Temp Flags = 1 << iota
	// Top allocates from the high end of the pool.
	Top
	// Clear zero-fills the allocation. On Realloc only the grown tail is cleared.
	Clear
)

// placement is the subset of Flags that fixes where a block lives.
const placement = Temp | Top

// Allocator errors.
var (
	// ErrUnknownBlock is returned by Free for an address that is not the
	// start of a live block.
	ErrUnknownBlock = errors.New("mem: address is not an allocated block")
)

type block struct {
	off   int
	size  int
	used  bool
	align int
	flags Flags
}

type pool struct {
	base   Addr
	data   []byte
	blocks []block // sorted by off, contiguous, covering data
}

func newPool(base Addr, size int) *pool {
	return &pool{
		base:   base,
		data:   make([]byte, size),
		blocks: []block{{off: 0, size: size}},
	}
}

func (p *pool) contains(addr Addr) bool {
	return addr >= p.base && uint64(addr) < uint64(p.base)+uint64(len(p.data))
}

// find returns the index of the block starting exactly at off.
func (p *pool) find(off int) int {
	i := sort.Search(len(p.blocks), func(i int) bool { return p.blocks[i].off >= off })
	if i < len(p.blocks) && p.blocks[i].off == off {
		return i
	}
	return -1
}

// carve marks [start, start+size) inside free block i as used, splitting the
// remainder into free blocks on either side.
func (p *pool) carve(i, start, size, align int, flags Flags) {
	b := p.blocks[i]
	var out []block
	if start > b.off {
		out = append(out, block{off: b.off, size: start - b.off})
	}
	out = append(out, block{off: start, size: size, used: true, align: align, flags: flags & placement})
	if end := start + size; end < b.off+b.size {
		out = append(out, block{off: end, size: b.off + b.size - end})
	}
	p.blocks = append(p.blocks[:i], append(out, p.blocks[i+1:]...)...)
}

func (p *pool) alloc(size, align int, flags Flags) (int, bool) {
	base := int(p.base)
	if flags&Top != 0 {
		for i := len(p.blocks) - 1; i >= 0; i-- {
			b := p.blocks[i]
			if b.used || b.size < size {
				continue
			}
			start := alignDown(base+b.off+b.size-size, align) - base
			if start >= b.off {
				p.carve(i, start, size, align, flags)
				return start, true
			}
		}
		return 0, false
	}
	for i, b := range p.blocks {
		if b.used || b.size < size {
			continue
		}
		start := alignUp(base+b.off, align) - base
		if start+size <= b.off+b.size {
			p.carve(i, start, size, align, flags)
			return start, true
		}
	}
	return 0, false
}

// release frees block i and merges it with free neighbours.
func (p *pool) release(i int) {
	p.blocks[i].used = false
	p.blocks[i].align = 0
	p.blocks[i].flags = 0
	if i+1 < len(p.blocks) && !p.blocks[i+1].used {
		p.blocks[i].size += p.blocks[i+1].size
		p.blocks = append(p.blocks[:i+1], p.blocks[i+2:]...)
	}
	if i > 0 && !p.blocks[i-1].used {
		p.blocks[i-1].size += p.blocks[i].size
		p.blocks = append(p.blocks[:i], p.blocks[i+1:]...)
	}
}

// Allocator manages a main and a temp pool in one address space.
type Allocator struct {
	main *pool
	temp *pool
}

// NewAllocator creates an allocator with the given pool sizes in bytes.
// Sizes are rounded up to a multiple of DefaultAlign.
func NewAllocator(mainSize, tempSize int) *Allocator {
	mainSize = alignUp(max(mainSize, DefaultAlign), DefaultAlign)
	tempSize = alignUp(max(tempSize, DefaultAlign), DefaultAlign)
	return &Allocator{
		main: newPool(BaseAddr, mainSize),
		temp: newPool(BaseAddr+Addr(mainSize), tempSize),
	}
}

func (a *Allocator) poolFor(flags Flags) *pool {
	if flags&Temp != 0 {
		return a.temp
	}
	return a.main
}

func (a *Allocator) poolOf(addr Addr) *pool {
	switch {
	case a.main.contains(addr):
		return a.main
	case a.temp.contains(addr):
		return a.temp
	}
	return nil
}

// lookup resolves addr to its pool and block index.
func (a *Allocator) lookup(addr Addr) (*pool, int) {
	p := a.poolOf(addr)
	if p == nil {
		return nil, -1
	}
	i := p.find(int(addr - p.base))
	if i < 0 || !p.blocks[i].used {
		return nil, -1
	}
	return p, i
}

// Alloc allocates size bytes aligned to align (a power of two; <= 0 selects
// DefaultAlign). It returns Nil if the request cannot be satisfied.
func (a *Allocator) Alloc(size, align int, flags Flags) Addr {
	if size <= 0 {
		return Nil
	}
	if align <= 0 {
		align = DefaultAlign
	}
	if align&(align-1) != 0 {
		return Nil
	}
	p := a.poolFor(flags)
	off, ok := p.alloc(size, align, flags)
	if !ok {
		return Nil
	}
	if flags&Clear != 0 {
		clear(p.data[off : off+size])
	}
	return p.base + Addr(off)
}

// Realloc resizes the block at addr to size bytes and returns its (possibly
// new) address. A Nil addr behaves like Alloc; a zero size frees the block.
//
// When flags select a different pool or placement than the block was
// allocated with, the data is always relocated and the old block freed.
// Otherwise the block shrinks in place, grows in place into a following free
// block when possible, and relocates as a last resort. On failure Nil is
// returned and the original block is left untouched.
func (a *Allocator) Realloc(addr Addr, size int, flags Flags) Addr {
	if addr == Nil {
		return a.Alloc(size, DefaultAlign, flags)
	}
	p, i := a.lookup(addr)
	if p == nil {
		return Nil
	}
	if size <= 0 {
		p.release(i)
		return Nil
	}
	b := p.blocks[i]
	if b.flags&placement == flags&placement {
		if size <= b.size {
			p.shrink(i, size)
			return addr
		}
		if p.growInPlace(i, size) {
			if flags&Clear != 0 {
				clear(p.data[b.off+b.size : b.off+size])
			}
			return addr
		}
	}
	return a.relocate(p, i, size, flags)
}

func (a *Allocator) relocate(p *pool, i, size int, flags Flags) Addr {
	b := p.blocks[i]
	nb := a.Alloc(size, b.align, flags&^Clear)
	if nb == Nil {
		return Nil
	}
	np := a.poolOf(nb)
	noff := int(nb - np.base)
	n := copy(np.data[noff:noff+size], p.data[b.off:b.off+b.size])
	if flags&Clear != 0 && n < size {
		clear(np.data[noff+n : noff+size])
	}
	// The old block index may have shifted if the new block was carved from
	// the same pool.
	_, i = a.lookup(p.base + Addr(b.off))
	p.release(i)
	return nb
}

func (p *pool) shrink(i, size int) {
	b := p.blocks[i]
	if size == b.size {
		return
	}
	p.blocks[i].size = size
	tail := block{off: b.off + size, size: b.size - size}
	p.blocks = append(p.blocks[:i+1], append([]block{tail}, p.blocks[i+1:]...)...)
	if i+2 < len(p.blocks) && !p.blocks[i+2].used {
		p.blocks[i+1].size += p.blocks[i+2].size
		p.blocks = append(p.blocks[:i+2], p.blocks[i+3:]...)
	}
}

func (p *pool) growInPlace(i, size int) bool {
	if i+1 >= len(p.blocks) {
		return false
	}
	b, next := p.blocks[i], p.blocks[i+1]
	if next.used || b.size+next.size < size {
		return false
	}
	need := size - b.size
	p.blocks[i].size = size
	if need == next.size {
		p.blocks = append(p.blocks[:i+1], p.blocks[i+2:]...)
	} else {
		p.blocks[i+1].off += need
		p.blocks[i+1].size -= need
	}
	return true
}

// Free releases the block starting at addr. Freeing Nil is a no-op.
func (a *Allocator) Free(addr Addr) error {
	if addr == Nil {
		return nil
	}
	p, i := a.lookup(addr)
	if p == nil {
		return fmt.Errorf("%w: %#08x", ErrUnknownBlock, uint32(addr))
	}
	p.release(i)
	return nil
}

// Size returns the size of the live block starting at addr, or 0.
func (a *Allocator) Size(addr Addr) int {
	p, i := a.lookup(addr)
	if p == nil {
		return 0
	}
	return p.blocks[i].size
}

// Owns reports whether addr is the start of a live block.
func (a *Allocator) Owns(addr Addr) bool {
	p, _ := a.lookup(addr)
	return p != nil
}

// Block returns the full contents of the live block starting at addr.
func (a *Allocator) Block(addr Addr) []byte {
	p, i := a.lookup(addr)
	if p == nil {
		return nil
	}
	b := p.blocks[i]
	return p.data[b.off : b.off+b.size : b.off+b.size]
}

// Bytes returns a view of n bytes of memory starting at addr, regardless of
// block boundaries. It returns nil when the range leaves the pool containing
// addr. This is how the GE reads memory.
func (a *Allocator) Bytes(addr Addr, n int) []byte {
	p := a.poolOf(addr)
	if p == nil || n < 0 {
		return nil
	}
	off := int(addr - p.base)
	if off+n > len(p.data) {
		return nil
	}
	return p.data[off : off+n : off+n]
}

func alignUp(v, align int) int   { return (v + align - 1) &^ (align - 1) }
func alignDown(v, align int) int { return v &^ (align - 1) }

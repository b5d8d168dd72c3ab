package fakegl

import (
	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/mem"
)

// vertexStore holds the vertex records of primitives. The records of one
// primitive are contiguous, as the GE reads them from a single VADDR.
type vertexStore interface {
	// begin starts a primitive.
	begin()
	// add returns room for n more bytes of the current primitive, or nil
	// when memory is exhausted.
	add(n int) []byte
	// primitive returns the address and records of the current primitive.
	primitive() (mem.Addr, []byte)
	// end seals the current primitive.
	end()
}

// frameVertices stores vertex records inline in the frame list, behind a
// jump that end points past them.
type frameVertices struct {
	w     *ge.Writer
	alloc *mem.Allocator
	base  mem.Addr
	jump  mem.Addr
	start mem.Addr
	ok    bool
}

func (s *frameVertices) begin() {
	s.base = s.w.Pos()
	s.w.Emit(ge.OpBASE, 0)
	s.jump = s.w.Pos()
	s.w.Emit(ge.OpJUMP, 0)
	s.start = s.w.Pos()
	s.ok = s.w.Err() == nil
}

func (s *frameVertices) add(n int) []byte {
	if !s.ok {
		return nil
	}
	_, b := s.w.Reserve(n)
	return b
}

func (s *frameVertices) primitive() (mem.Addr, []byte) {
	if !s.ok {
		return mem.Nil, nil
	}
	return s.start, s.alloc.Bytes(s.start, int(s.w.Pos()-s.start))
}

func (s *frameVertices) end() {
	if !s.ok {
		return
	}
	next := uint32(s.w.Pos())
	s.w.Patch(s.base, ge.OpBASE, (next>>24&0xF)<<16)
	s.w.Patch(s.jump, ge.OpJUMP, next&0xFFFFFF)
}

// chunkVertices stores the vertex records of a display list in a chain of
// chunks. A chunk never moves once a finished primitive lives in it.
type chunkVertices struct {
	alloc  *mem.Allocator
	size   int // default chunk size
	chunks []mem.Addr
	cur    mem.Addr
	cap    int
	off    int
	start  int // offset of the current primitive in cur
}

func newChunkVertices(alloc *mem.Allocator, size int) *chunkVertices {
	return &chunkVertices{alloc: alloc, size: size}
}

func (s *chunkVertices) begin() { s.start = s.off }

func (s *chunkVertices) add(n int) []byte {
	if s.cur == mem.Nil || s.off+n > s.cap {
		if !s.grow(n) {
			return nil
		}
	}
	b := s.alloc.Bytes(s.cur+mem.Addr(s.off), n)
	s.off += n
	return b
}

// grow makes room for n bytes. A chunk holding only the current primitive
// is reallocated; otherwise the primitive moves to a new chunk and the old
// one is cut back to the primitives before it.
func (s *chunkVertices) grow(n int) bool {
	part := s.off - s.start
	if s.cur != mem.Nil && s.start == 0 {
		size := max(s.cap*2, part+n)
		addr := s.alloc.Realloc(s.cur, size, 0)
		if addr == mem.Nil {
			return false
		}
		s.cur, s.cap = addr, size
		s.chunks[len(s.chunks)-1] = addr
		return true
	}
	size := max(s.size, part+n)
	addr := s.alloc.Alloc(size, 16, 0)
	if addr == mem.Nil {
		return false
	}
	if s.cur != mem.Nil {
		copy(s.alloc.Bytes(addr, part), s.alloc.Bytes(s.cur+mem.Addr(s.start), part))
		if s.alloc.Realloc(s.cur, s.start, 0) == mem.Nil {
			internal("vertex chunk shrink failed")
		}
	}
	s.chunks = append(s.chunks, addr)
	s.cur, s.cap, s.off, s.start = addr, size, part, 0
	return true
}

func (s *chunkVertices) primitive() (mem.Addr, []byte) {
	if s.cur == mem.Nil {
		return mem.Nil, nil
	}
	addr := s.cur + mem.Addr(s.start)
	return addr, s.alloc.Bytes(addr, s.off-s.start)
}

func (s *chunkVertices) end() {}

// shrink releases the unused tail of the last chunk.
func (s *chunkVertices) shrink() {
	if s.cur == mem.Nil || s.off == s.cap {
		return
	}
	if s.off == 0 {
		_ = s.alloc.Free(s.cur)
		s.chunks = s.chunks[:len(s.chunks)-1]
		s.cur, s.cap = mem.Nil, 0
		return
	}
	if s.alloc.Realloc(s.cur, s.off, 0) == mem.Nil {
		internal("vertex chunk shrink failed")
	}
	s.cap = s.off
}

func (s *chunkVertices) free() {
	for _, addr := range s.chunks {
		_ = s.alloc.Free(addr)
	}
	s.chunks, s.cur, s.cap, s.off, s.start = nil, mem.Nil, 0, 0, 0
}

package fakegl

import (
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/internal/slotmap"
	"github.com/aquaria-psp/fakegl/mem"
)

// initialListSize is the initial size of a display list's command buffer.
const initialListSize = 1 << 10

// displayList is a compiled display list: a command list ending in RET and
// the vertex chunks its primitives read. A list without commands was
// generated and not yet defined.
//
// Textures and nested lists are named by ID in texs and calls. The words
// at those offsets are rewritten for the current objects before every call
// from a frame.
type displayList struct {
	cmds  *ge.Writer
	verts *chunkVertices
	texs  []texRef
	calls []callRef

	used  uint64 // frame serial of the last call
	stamp uint64 // callStamp of the last resolution
}

// texRef is a texture block of textureBlockLen words at off.
type texRef struct {
	off int
	id  slotmap.ID
	on  bool // TEXTURE_2D enabled
}

// callRef is a nested CallList: BASE and CALL at off.
type callRef struct {
	off int
	id  slotmap.ID
}

func (l *displayList) defined() bool { return l.cmds != nil }

func (l *displayList) free() {
	if l.cmds != nil {
		_ = l.cmds.Free()
	}
	if l.verts != nil {
		l.verts.free()
	}
	l.cmds, l.verts = nil, nil
}

// recording is the display list being compiled and the state NewList
// saved.
type recording struct {
	id    slotmap.ID
	cmds  *ge.Writer
	verts *chunkVertices
	texs  []texRef
	calls []callRef

	st      glState
	dirty   dirtyFlags
	proj    matrixStack
	model   matrixStack
	attribs []attribEntry
}

func (r *recording) free() {
	_ = r.cmds.Free()
	r.verts.free()
}

// GenLists returns a new display list name. Only n == 1 is supported.
// It returns 0 on error.
func (c *Context) GenLists(n int32) uint32 {
	if n != 1 {
		c.setError(InvalidValue, "GenLists: only one list at a time is supported", "n", n)
		return 0
	}
	if !c.checkManage("GenLists") {
		return 0
	}
	id, ok := c.lists.Insert(&displayList{})
	if !ok {
		c.setError(OutOfMemory, "GenLists: list table full")
		return 0
	}
	return uint32(id)
}

// DeleteLists deletes the lists named first through first+n-1. Their
// memory is released when the next frame begins. Unknown names are
// ignored.
//
// Names carry a slot generation in their upper 16 bits, so the range is
// numeric: it covers consecutive slots of one generation. Names from
// GenLists are consecutive only while no deleted slot is reused.
func (c *Context) DeleteLists(first uint32, n int32) {
	if n < 0 {
		c.setError(InvalidValue, "DeleteLists: negative range", "n", n)
		return
	}
	if !c.checkManage("DeleteLists") {
		return
	}
	for i := uint32(0); i < uint32(n); i++ {
		c.lists.Remove(slotmap.ID(first + i))
	}
}

// IsList reports whether id names a list that was not deleted.
func (c *Context) IsList(id uint32) bool {
	return c.lists.State(slotmap.ID(id)) == slotmap.Live
}

// NewList starts compiling the commands that follow into list id. Only
// Compile mode is supported. Recording starts from an identity modelview,
// so the list's transforms apply relative to the modelview current at
// CallList.
func (c *Context) NewList(id uint32, mode Enum) {
	if mode != Compile {
		c.setError(InvalidEnum, "NewList: unsupported mode", "mode", mode)
		return
	}
	if id == 0 || !c.lists.InRange(slotmap.ID(id)) {
		c.setError(InvalidValue, "NewList: list name out of range", "list", id)
		return
	}
	switch {
	case c.rec != nil:
		c.setError(InvalidOperation, "NewList: already recording", "list", c.rec.id)
		return
	case c.prim.active:
		c.setError(InvalidOperation, "NewList: inside Begin/End")
		return
	}
	l, ok := c.lists.Get(slotmap.ID(id))
	if !ok {
		c.setError(InvalidOperation, "NewList: list not generated or deleted", "list", id)
		return
	}
	if (*l).defined() {
		c.setError(InvalidOperation, "NewList: list already defined", "list", id)
		return
	}
	cmds, err := ge.NewWriter(c.alloc, initialListSize, 0, true)
	if err != nil {
		c.setError(OutOfMemory, "NewList: command buffer", "err", err)
		return
	}
	c.rec = &recording{
		id:      slotmap.ID(id),
		cmds:    cmds,
		verts:   newChunkVertices(c.alloc, c.cfg.chunkSize),
		st:      c.st,
		dirty:   c.dirty,
		proj:    c.proj.clone(),
		model:   c.model.clone(),
		attribs: append([]attribEntry(nil), c.attribs...),
	}
	c.model.load(mgl32.Ident4())
	c.dirty = 0
}

// EndList finishes the list being compiled and restores the state NewList
// saved.
func (c *Context) EndList() {
	r := c.rec
	switch {
	case r == nil:
		c.setError(InvalidOperation, "EndList: not recording")
		return
	case c.prim.active:
		c.setError(InvalidOperation, "EndList: inside Begin/End")
		return
	}
	c.syncState()
	ident := identity()
	r.cmds.EmitMatrix43(ge.OpWMS, ge.OpWORLD, &ident)
	r.cmds.Emit(ge.OpRET, 0)

	if c.model.depth() != r.model.depth() {
		Logger().Warn("fakegl: display list left the modelview stack unbalanced",
			"list", uint32(r.id), "depth", c.model.depth(), "want", r.model.depth())
	}
	c.rec = nil
	c.restoreRecording(r)

	if err := r.cmds.Err(); err != nil {
		c.setError(OutOfMemory, "EndList: list memory exhausted", "list", uint32(r.id), "err", err)
		r.free()
		return
	}
	r.cmds.Shrink()
	r.verts.shrink()
	l, ok := c.lists.Get(r.id)
	if !ok {
		// deleted while recording
		r.free()
		return
	}
	(*l).cmds, (*l).verts = r.cmds, r.verts
	(*l).texs, (*l).calls = r.texs, r.calls
	Logger().Debug("fakegl: display list compiled", "list", uint32(r.id),
		"commands", r.cmds.Len(), "vertexChunks", len(r.verts.chunks))
}

// restoreRecording reinstates the state saved by NewList.
func (c *Context) restoreRecording(r *recording) {
	c.st = r.st
	c.st.texture = c.liveTexture(c.st.texture)
	*c.proj, *c.model = r.proj, r.model
	c.attribs = r.attribs
	for i := range c.attribs {
		c.attribs[i].st.texture = c.liveTexture(c.attribs[i].st.texture)
	}
	c.dirty = r.dirty | dirtyProjection | dirtyModelview | dirtyTexture
}

// CallList executes a compiled list.
func (c *Context) CallList(id uint32) {
	if !c.checkState("CallList") {
		return
	}
	sid := slotmap.ID(id)
	if id == 0 || !c.lists.InRange(sid) {
		c.setError(InvalidValue, "CallList: list name out of range", "list", id)
		return
	}
	if c.rec != nil && c.rec.id == sid {
		c.setError(InvalidOperation, "CallList: list is being recorded", "list", id)
		return
	}
	l, ok := c.lists.Get(sid)
	if !ok || !(*l).defined() {
		c.setError(InvalidOperation, "CallList: list undefined or deleted", "list", id)
		return
	}
	if c.rec == nil {
		c.callStamp++
		if !c.resolveList(*l) {
			c.setError(OutOfMemory, "CallList: list memory exhausted", "list", id)
			return
		}
	}
	c.syncState()
	if r := c.rec; r != nil {
		r.calls = append(r.calls, callRef{off: r.cmds.Len(), id: sid})
	}
	c.out().EmitAddr(ge.OpCALL, (*l).cmds.Addr())
	c.markAll()
}

// listPatch is a run of command words resolveList wants at off.
type listPatch struct {
	off   int
	words []uint32
}

// resolveList rewrites the texture blocks and nested calls of l and of
// every list it calls for the current objects, and marks the lists and
// textures they reach used by this frame. It reports false when memory is
// exhausted.
func (c *Context) resolveList(l *displayList) bool {
	if l.stamp == c.callStamp {
		return true
	}
	l.stamp = c.callStamp

	var patches []listPatch
	for _, r := range l.calls {
		words := []uint32{ge.Command(ge.OpNOP, 0), ge.Command(ge.OpNOP, 0)}
		if sub, ok := c.lists.Get(r.id); ok && (*sub).defined() {
			if !c.resolveList(*sub) {
				return false
			}
			a := uint32((*sub).cmds.Addr())
			words = []uint32{ge.Command(ge.OpBASE, (a>>24&0xF)<<16), ge.Command(ge.OpCALL, a)}
		}
		patches = append(patches, listPatch{r.off, words})
	}
	for _, r := range l.texs {
		var t *Texture
		if p, ok := c.textures.Get(r.id); ok {
			t = *p
		}
		on := r.on && t != nil && t.Defined()
		if on {
			t.used = c.serial
		}
		patches = append(patches, listPatch{r.off, textureBlock(nil, t, on, true)})
	}

	stale := false
	for _, p := range patches {
		if !c.listHolds(l, p) {
			stale = true
			break
		}
	}
	if stale {
		if c.busy(l.used) && !c.relocateList(l) {
			return false
		}
		for _, p := range patches {
			b := c.alloc.Bytes(l.cmds.Addr()+mem.Addr(p.off), 4*len(p.words))
			for i, w := range p.words {
				binary.LittleEndian.PutUint32(b[4*i:], w)
			}
		}
	}
	l.used = c.serial
	return true
}

func (c *Context) listHolds(l *displayList, p listPatch) bool {
	b := c.alloc.Bytes(l.cmds.Addr()+mem.Addr(p.off), 4*len(p.words))
	for i, w := range p.words {
		if binary.LittleEndian.Uint32(b[4*i:]) != w {
			return false
		}
	}
	return true
}

// relocateList moves the commands of l to a new block. The old block stays
// with the GE until the next frame.
func (c *Context) relocateList(l *displayList) bool {
	n := l.cmds.Len()
	cmds, err := ge.NewWriter(c.alloc, n, 0, true)
	if err != nil {
		return false
	}
	_, b := cmds.Reserve(n)
	copy(b, c.alloc.Bytes(l.cmds.Addr(), n))
	c.retired = append(c.retired, l.cmds.Addr())
	l.cmds = cmds
	return true
}

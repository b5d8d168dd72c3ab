package fakegl

// MaxAttribStackDepth is the depth of the attribute stack.
const MaxAttribStackDepth = 16

// attribEntry is one PushAttrib: the groups saved and a copy of the state.
type attribEntry struct {
	mask Bitfield
	st   glState
}

// PushAttrib saves the attribute groups selected by mask.
func (c *Context) PushAttrib(mask Bitfield) {
	if c.prim.active {
		c.setError(InvalidOperation, "PushAttrib: inside Begin/End")
		return
	}
	if len(c.attribs) >= MaxAttribStackDepth {
		c.setError(StackOverflow, "PushAttrib: attribute stack full")
		return
	}
	c.attribs = append(c.attribs, attribEntry{mask: mask, st: c.st})
}

// PopAttrib restores the groups saved by the matching PushAttrib.
func (c *Context) PopAttrib() {
	if c.prim.active {
		c.setError(InvalidOperation, "PopAttrib: inside Begin/End")
		return
	}
	n := len(c.attribs)
	if n == 0 {
		c.setError(StackUnderflow, "PopAttrib: attribute stack empty")
		return
	}
	e := c.attribs[n-1]
	c.attribs = c.attribs[:n-1]
	c.restoreAttribs(e.mask, &e.st)
}

// restoreAttribs copies the groups in mask from saved and marks the
// hardware state they cover.
func (c *Context) restoreAttribs(mask Bitfield, saved *glState) {
	s := &c.st
	caps := func(bits capability) {
		s.caps = s.caps&^bits | saved.caps&bits
	}
	if mask&CurrentBit != 0 {
		s.color, s.texCoord, s.normal = saved.color, saved.texCoord, saved.normal
		s.rasterX, s.rasterY = saved.rasterX, saved.rasterY
	}
	if mask&PointBit != 0 {
		s.pointSize = saved.pointSize
	}
	if mask&LineBit != 0 {
		s.lineWidth = saved.lineWidth
		caps(capLineSmooth)
		c.dirty |= dirtyCaps
	}
	if mask&PolygonBit != 0 {
		caps(capCullFace)
		s.frontFace, s.cullMode = saved.frontFace, saved.cullMode
		c.dirty |= dirtyRaster | dirtyCaps
	}
	if mask&LightingBit != 0 {
		caps(capLighting | capLight0 | capLight1 | capLight2 | capLight3)
		s.lights, s.lightAmbient = saved.lights, saved.lightAmbient
		s.shadeModel = saved.shadeModel
		c.dirty |= dirtyLights | dirtyCaps | dirtyRaster
	}
	if mask&FogBit != 0 {
		caps(capFog)
		c.dirty |= dirtyCaps
	}
	if mask&ViewportBit != 0 {
		s.viewport = saved.viewport
		c.dirty |= dirtyViewport
	}
	if mask&TransformBit != 0 {
		s.matrixMode = saved.matrixMode
	}
	if mask&EnableBit != 0 {
		s.caps = saved.caps
		c.dirty |= dirtyCaps | dirtyTexture
	}
	if mask&ColorBufferBit != 0 {
		caps(capAlphaTest | capBlend | capDither)
		s.alphaFunc, s.alphaRef = saved.alphaFunc, saved.alphaRef
		s.blendSrc, s.blendDst = saved.blendSrc, saved.blendDst
		s.clearColor = saved.clearColor
		c.dirty |= dirtyAlphaTest | dirtyBlend | dirtyCaps
	}
	if mask&DepthBufferBit != 0 {
		caps(capDepthTest)
		s.depthFunc, s.depthMask, s.clearDepth = saved.depthFunc, saved.depthMask, saved.clearDepth
		c.dirty |= dirtyCaps
	}
	if mask&ScissorBit != 0 {
		caps(capScissorTest)
		s.scissor = saved.scissor
		c.dirty |= dirtyScissor | dirtyCaps
	}
	if mask&TextureBit != 0 {
		caps(capTexture2D)
		s.texture = c.liveTexture(saved.texture)
		c.dirty |= dirtyTexture | dirtyCaps
	}
}

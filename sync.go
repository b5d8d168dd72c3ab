package fakegl

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/aquaria-psp/fakegl/ge"
)

// dirtyFlags mark shadow state not yet programmed into the GE.
type dirtyFlags uint32

const (
	dirtyProjection dirtyFlags = 1 << iota
	dirtyModelview
	dirtyTexture
	dirtyCaps
	dirtyBlend
	dirtyAlphaTest
	dirtyViewport
	dirtyScissor
	dirtyLights
	dirtyRaster // shade model and cull winding

	dirtyAll = 1<<iota - 1
)

// screenOffset is the GE's screen origin inside its 4096x4096 drawing
// space.
const screenOffset = 2048

func identity() [16]float32 { return [16]float32(mgl32.Ident4()) }

// syncState emits every dirty piece of state and clears the flags.
func (c *Context) syncState() {
	if c.dirty == 0 {
		return
	}
	w := c.out()
	d := c.dirty
	if d&dirtyCaps != 0 {
		d |= dirtyScissor | dirtyTexture | dirtyLights
		c.emitCaps()
	}
	if d&dirtyProjection != 0 {
		m := [16]float32(c.proj.top())
		w.EmitMatrix44(ge.OpPMS, ge.OpPROJ, &m)
	}
	if d&dirtyModelview != 0 {
		m := [16]float32(c.model.top())
		if c.rec != nil {
			w.EmitMatrix43(ge.OpWMS, ge.OpWORLD, &m)
		} else {
			w.EmitMatrix43(ge.OpVMS, ge.OpVIEW, &m)
		}
	}
	if d&dirtyViewport != 0 {
		c.emitViewport()
	}
	if d&dirtyScissor != 0 {
		c.emitScissor()
	}
	if d&dirtyBlend != 0 {
		w.Emit(ge.OpALPHA, blendArg(c.st.blendSrc, c.st.blendDst))
	}
	if d&dirtyAlphaTest != 0 {
		ref := uint32(math.Round(float64(c.st.alphaRef) * 255))
		w.Emit(ge.OpATST, uint32(compareFunction(c.st.alphaFunc))|ref<<8|0xFF<<16)
	}
	if d&dirtyRaster != 0 {
		shade := uint32(0)
		if c.st.shadeModel == Smooth {
			shade = 1
		}
		w.Emit(ge.OpSHADE, shade)
		w.Emit(ge.OpCULL, c.cullArg())
	}
	if d&dirtyLights != 0 {
		c.emitLights()
	}
	if d&dirtyTexture != 0 {
		c.emitTexture()
	}
	c.dirty = 0
}

func flag(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (c *Context) emitCaps() {
	w := c.out()
	s := &c.st
	w.Emit(ge.OpATE, flag(s.enabled(capAlphaTest)))
	w.Emit(ge.OpABE, flag(s.enabled(capBlend)))
	w.Emit(ge.OpBCE, flag(s.enabled(capCullFace) && s.cullMode != FrontAndBack))
	w.Emit(ge.OpZTE, flag(s.enabled(capDepthTest)))
	w.Emit(ge.OpLTE, flag(s.enabled(capLighting)))
	w.Emit(ge.OpAAE, flag(s.enabled(capLineSmooth)))
	w.Emit(ge.OpDTE, flag(s.enabled(capDither)))
	w.Emit(ge.OpFGE, flag(s.enabled(capFog)))
	for i := 0; i < maxLights; i++ {
		w.Emit(ge.OpLTE0+ge.Op(i), flag(s.enabled(capLight0<<i)))
	}
}

// cullArg returns the CULL argument: the screen winding the GE rejects.
// GL window y grows upwards and the screen's downwards, which flips every
// winding.
func (c *Context) cullArg() uint32 {
	return flag((c.st.frontFace == CCW) != (c.st.cullMode == Back))
}

// culledAll reports whether culling discards every polygon.
func (c *Context) culledAll() bool {
	return c.st.enabled(capCullFace) && c.st.cullMode == FrontAndBack
}

func (c *Context) emitViewport() {
	w := c.out()
	sx, sy, px, py := c.viewportTransform()
	w.EmitFloat(ge.OpXSCALE, sx)
	w.EmitFloat(ge.OpYSCALE, sy)
	w.EmitFloat(ge.OpZSCALE, 0.5)
	w.EmitFloat(ge.OpXPOS, px)
	w.EmitFloat(ge.OpYPOS, py)
	w.EmitFloat(ge.OpZPOS, 0.5)
}

// viewportTransform returns the scale and center of the viewport in the
// GE's drawing space: drawing x = px + sx*ndc x, likewise for y.
func (c *Context) viewportTransform() (sx, sy, px, py float32) {
	x, y, vw, vh := c.viewportf()
	return vw / 2, -vh / 2, screenOffset + x + vw/2, screenOffset + float32(c.height) - y - vh/2
}

func (c *Context) viewportf() (x, y, w, h float32) {
	v := c.st.viewport
	return float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3])
}

// screenScissor returns the effective scissor box in screen coordinates
// (origin top left, inclusive). ok is false when the box is empty.
func (c *Context) screenScissor() (x0, y0, x1, y1 int, ok bool) {
	x0, y0, x1, y1 = 0, 0, c.width-1, c.height-1
	if !c.st.enabled(capScissorTest) {
		return x0, y0, x1, y1, true
	}
	s := c.st.scissor
	x0 = max(x0, int(s[0]))
	x1 = min(x1, int(s[2]))
	y0 = max(y0, c.height-1-int(s[3]))
	y1 = min(y1, c.height-1-int(s[1]))
	return x0, y0, x1, y1, x0 <= x1 && y0 <= y1
}

func (c *Context) emitScissor() {
	w := c.out()
	x0, y0, x1, y1, ok := c.screenScissor()
	if !ok {
		x0, y0, x1, y1 = 1, 1, 0, 0
	}
	w.Emit(ge.OpSCISSOR1, uint32(y0)<<10|uint32(x0))
	w.Emit(ge.OpSCISSOR2, uint32(y1)<<10|uint32(x1))
}

// blendFactor maps a GL blend factor to its GE code.
func blendFactor(f Enum) gputypes.BlendFactor {
	switch f {
	case Zero:
		return gputypes.BlendFactorZero
	case One:
		return gputypes.BlendFactorOne
	case SrcColor:
		return gputypes.BlendFactorSrc
	case OneMinusSrcColor:
		return gputypes.BlendFactorOneMinusSrc
	case SrcAlpha:
		return gputypes.BlendFactorSrcAlpha
	case OneMinusSrcAlpha:
		return gputypes.BlendFactorOneMinusSrcAlpha
	case DstAlpha:
		return gputypes.BlendFactorDstAlpha
	case OneMinusDstAlpha:
		return gputypes.BlendFactorOneMinusDstAlpha
	case DstColor:
		return gputypes.BlendFactorDst
	case OneMinusDstColor:
		return gputypes.BlendFactorOneMinusDst
	case SrcAlphaSaturate:
		return gputypes.BlendFactorSrcAlphaSaturated
	}
	internal("unvalidated blend factor %#x", uint32(f))
	return 0
}

func blendArg(src, dst Enum) uint32 {
	return uint32(blendFactor(src)) | uint32(blendFactor(dst))<<4 | uint32(gputypes.BlendOperationAdd)<<8
}

// compareFunction maps a GL comparison to its GE code. The GL values are
// consecutive in the same order.
func compareFunction(f Enum) gputypes.CompareFunction {
	return gputypes.CompareFunctionNever + gputypes.CompareFunction(f-Never)
}

func (c *Context) emitLights() {
	w := c.out()
	s := &c.st
	w.Emit(ge.OpALC, rgbToGE(s.lightAmbient))
	w.Emit(ge.OpALA, 0xFF)
	for i := range s.lights {
		l := &s.lights[i]
		n := ge.Op(i)
		typ := uint32(0) // directional
		switch {
		case l.position[3] != 0 && l.spotCutoff != 180:
			typ = 2
		case l.position[3] != 0:
			typ = 1
		}
		w.Emit(ge.OpLT0+n, typ)
		pos := mgl32.Vec4(l.position)
		if pos[3] != 0 {
			pos = pos.Mul(1 / pos[3])
		}
		for j := 0; j < 3; j++ {
			w.EmitFloat(ge.OpLXP0+3*n+ge.Op(j), pos[j])
			w.EmitFloat(ge.OpLXD0+3*n+ge.Op(j), l.direction[j])
		}
		w.EmitFloat(ge.OpSPOTEXP0+n, l.spotExponent)
		w.EmitFloat(ge.OpSPOTCUT0+n, float32(math.Cos(float64(mgl32.DegToRad(l.spotCutoff)))))
		w.Emit(ge.OpALC0+3*n, rgbToGE(l.ambient))
		w.Emit(ge.OpDLC0+3*n, rgbToGE(l.diffuse))
		w.Emit(ge.OpSLC0+3*n, rgbToGE(l.specular))
	}
}

// rgbToGE converts 0xRRGGBB to the GE's 0xBBGGRR.
func rgbToGE(rgb uint32) uint32 {
	return rgb>>16&0xFF | rgb&0xFF00 | (rgb&0xFF)<<16
}

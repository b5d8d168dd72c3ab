package fakegl

import (
	"math"

	"github.com/aquaria-psp/fakegl/internal/slotmap"
)

// capability is a bit in glState.caps.
type capability uint32

const (
	capAlphaTest capability = 1 << iota
	capBlend
	capCullFace
	capDepthTest
	capLighting
	capLight0
	capLight1
	capLight2
	capLight3
	capLineSmooth
	capScissorTest
	capTexture2D
	capDither
	capFog
)

// capabilityOf maps a GL capability to its bit. Lights 4-7 are accepted
// and have no bit.
func capabilityOf(e Enum) (capability, bool) {
	switch e {
	case AlphaTest:
		return capAlphaTest, true
	case Blend:
		return capBlend, true
	case CullFace:
		return capCullFace, true
	case DepthTest:
		return capDepthTest, true
	case Lighting:
		return capLighting, true
	case Light0, Light1, Light2, Light3:
		return capLight0 << (e - Light0), true
	case Light4, Light5, Light6, Light7:
		return 0, true
	case LineSmooth:
		return capLineSmooth, true
	case ScissorTest:
		return capScissorTest, true
	case Texture2D:
		return capTexture2D, true
	case Dither:
		return capDither, true
	case Fog:
		return capFog, true
	}
	return 0, false
}

const maxLights = 4

// light holds the parameters of one hardware light. Colors are packed
// 0xRRGGBB.
type light struct {
	ambient, diffuse, specular uint32
	position                   [4]float32
	direction                  [3]float32
	spotExponent               float32
	spotCutoff                 float32
}

// glState is the shadow copy of the GL state.
type glState struct {
	caps capability

	blendSrc, blendDst Enum
	alphaFunc          Enum
	alphaRef           float32
	depthFunc          Enum
	depthMask          bool
	clearDepth         float32

	shadeModel Enum
	frontFace  Enum
	cullMode   Enum

	lights       [maxLights]light
	lightAmbient uint32 // light model ambient, 0xRRGGBB

	clearColor uint32   // 0xAARRGGBB
	scissor    [4]int32 // x0, y0, x1, y1 inclusive, window coordinates
	viewport   [4]int32 // x, y, w, h

	color    [4]uint8 // current RGBA
	texCoord [2]float32
	normal   [3]float32
	rasterX  int32
	rasterY  int32

	lineWidth float32
	pointSize float32

	matrixMode Enum
	texture    slotmap.ID
}

func defaultState(width, height int) glState {
	s := glState{
		caps:       capDither,
		blendSrc:   One,
		blendDst:   Zero,
		alphaFunc:  Always,
		depthFunc:  Less,
		depthMask:  true,
		clearDepth: 1,
		shadeModel: Smooth,
		frontFace:  CCW,
		cullMode:   Back,
		scissor:    [4]int32{0, 0, int32(width) - 1, int32(height) - 1},
		viewport:   [4]int32{0, 0, int32(width), int32(height)},
		color:      [4]uint8{255, 255, 255, 255},
		normal:     [3]float32{0, 0, 1},
		lineWidth:  1,
		pointSize:  1,
		matrixMode: Modelview,
	}
	s.lightAmbient = 0x333333
	for i := range s.lights {
		l := &s.lights[i]
		l.position = [4]float32{0, 0, 1, 0}
		l.direction = [3]float32{0, 0, -1}
		l.spotCutoff = 180
	}
	s.lights[0].diffuse = 0xFFFFFF
	s.lights[0].specular = 0xFFFFFF
	return s
}

func (s *glState) enabled(c capability) bool { return s.caps&c != 0 }

// Enable enables a capability.
func (c *Context) Enable(target Enum) { c.setCapability("Enable", target, true) }

// Disable disables a capability.
func (c *Context) Disable(target Enum) { c.setCapability("Disable", target, false) }

func (c *Context) setCapability(name string, target Enum, on bool) {
	bit, ok := capabilityOf(target)
	if !ok {
		c.setError(InvalidEnum, name+": unsupported capability", "cap", target)
		return
	}
	if !c.checkState(name) {
		return
	}
	if bit == 0 {
		Logger().Debug("fakegl: light beyond the hardware's four ignored", "cap", target)
		return
	}
	if c.st.enabled(bit) == on {
		return
	}
	if on {
		c.st.caps |= bit
	} else {
		c.st.caps &^= bit
	}
	c.dirty |= dirtyCaps
	if bit == capTexture2D {
		c.dirty |= dirtyTexture
	}
}

// IsEnabled reports whether a capability is enabled.
func (c *Context) IsEnabled(target Enum) bool {
	bit, ok := capabilityOf(target)
	if !ok {
		c.setError(InvalidEnum, "IsEnabled: unsupported capability", "cap", target)
		return false
	}
	return bit != 0 && c.st.enabled(bit)
}

func validBlendFactor(f Enum) bool {
	switch f {
	case Zero, One, SrcColor, OneMinusSrcColor, SrcAlpha, OneMinusSrcAlpha,
		DstAlpha, OneMinusDstAlpha, DstColor, OneMinusDstColor, SrcAlphaSaturate:
		return true
	}
	return false
}

// BlendFunc sets the blend factors.
func (c *Context) BlendFunc(src, dst Enum) {
	if !validBlendFactor(src) || !validBlendFactor(dst) || dst == SrcAlphaSaturate {
		c.setError(InvalidEnum, "BlendFunc: unsupported factor", "src", src, "dst", dst)
		return
	}
	if !c.checkState("BlendFunc") {
		return
	}
	if c.st.blendSrc == src && c.st.blendDst == dst {
		return
	}
	c.st.blendSrc, c.st.blendDst = src, dst
	c.dirty |= dirtyBlend
}

func validCompare(f Enum) bool { return f >= Never && f <= Always }

// AlphaFunc sets the alpha test. ref is clamped to [0, 1].
func (c *Context) AlphaFunc(fn Enum, ref float32) {
	if !validCompare(fn) {
		c.setError(InvalidEnum, "AlphaFunc: unsupported function", "func", fn)
		return
	}
	if !c.checkState("AlphaFunc") {
		return
	}
	c.st.alphaFunc, c.st.alphaRef = fn, clamp01(ref)
	c.dirty |= dirtyAlphaTest
}

// DepthFunc sets the depth comparison. There is no depth buffer; the value
// is tracked for queries only.
func (c *Context) DepthFunc(fn Enum) {
	if !validCompare(fn) {
		c.setError(InvalidEnum, "DepthFunc: unsupported function", "func", fn)
		return
	}
	if !c.checkState("DepthFunc") {
		return
	}
	c.st.depthFunc = fn
}

// DepthMask enables or disables depth writes. Tracked only.
func (c *Context) DepthMask(on bool) {
	if !c.checkState("DepthMask") {
		return
	}
	c.st.depthMask = on
}

// ShadeModel selects flat or smooth shading.
func (c *Context) ShadeModel(mode Enum) {
	if mode != Flat && mode != Smooth {
		c.setError(InvalidEnum, "ShadeModel: unsupported mode", "mode", mode)
		return
	}
	if !c.checkState("ShadeModel") {
		return
	}
	c.st.shadeModel = mode
	c.dirty |= dirtyRaster
}

// FrontFace selects the winding of front-facing polygons.
func (c *Context) FrontFace(mode Enum) {
	if mode != CW && mode != CCW {
		c.setError(InvalidEnum, "FrontFace: unsupported mode", "mode", mode)
		return
	}
	if !c.checkState("FrontFace") {
		return
	}
	c.st.frontFace = mode
	c.dirty |= dirtyRaster
}

// CullFace selects which faces are culled when CullFace is enabled.
func (c *Context) CullFace(mode Enum) {
	if mode != Front && mode != Back && mode != FrontAndBack {
		c.setError(InvalidEnum, "CullFace: unsupported mode", "mode", mode)
		return
	}
	if !c.checkState("CullFace") {
		return
	}
	c.st.cullMode = mode
	c.dirty |= dirtyRaster | dirtyCaps
}

// ClearColor sets the color used by Clear.
func (c *Context) ClearColor(r, g, b, a float32) {
	if !c.checkState("ClearColor") {
		return
	}
	c.st.clearColor = uint32(toByte(a))<<24 | uint32(toByte(r))<<16 | uint32(toByte(g))<<8 | uint32(toByte(b))
}

// ClearDepth sets the depth clear value. Only 1.0 is supported.
func (c *Context) ClearDepth(d float64) {
	if d != 1 {
		c.setError(InvalidValue, "ClearDepth: only 1.0 is supported", "depth", d)
		return
	}
	if !c.checkState("ClearDepth") {
		return
	}
	c.st.clearDepth = 1
}

// Viewport sets the viewport in window coordinates (origin bottom left).
func (c *Context) Viewport(x, y, w, h int32) {
	if w < 0 || h < 0 {
		c.setError(InvalidValue, "Viewport: negative size", "w", w, "h", h)
		return
	}
	if !c.checkState("Viewport") {
		return
	}
	c.st.viewport = [4]int32{x, y, w, h}
	c.dirty |= dirtyViewport
}

// Scissor sets the scissor box in window coordinates (origin bottom left).
func (c *Context) Scissor(x, y, w, h int32) {
	if w < 0 || h < 0 {
		c.setError(InvalidValue, "Scissor: negative size", "w", w, "h", h)
		return
	}
	if !c.checkState("Scissor") {
		return
	}
	c.st.scissor = [4]int32{x, y, x + w - 1, y + h - 1}
	c.dirty |= dirtyScissor
}

// LineWidth sets the line width. Only 1 has an effect.
func (c *Context) LineWidth(w float32) {
	if w <= 0 {
		c.setError(InvalidValue, "LineWidth: width must be positive", "width", w)
		return
	}
	if !c.checkState("LineWidth") {
		return
	}
	if w != 1 {
		Logger().Debug("fakegl: LineWidth has no effect", "width", w)
	}
	c.st.lineWidth = w
}

// PointSize sets the point size. Only 1 has an effect.
func (c *Context) PointSize(s float32) {
	if s <= 0 {
		c.setError(InvalidValue, "PointSize: size must be positive", "size", s)
		return
	}
	if !c.checkState("PointSize") {
		return
	}
	if s != 1 {
		Logger().Debug("fakegl: PointSize has no effect", "size", s)
	}
	c.st.pointSize = s
}

// PixelZoom sets the pixel zoom factors. Only 1:1 is supported.
func (c *Context) PixelZoom(x, y float32) {
	if x != 1 || y != 1 {
		c.setError(InvalidValue, "PixelZoom: only 1:1 is supported", "x", x, "y", y)
		return
	}
	c.checkState("PixelZoom")
}

// Lightf sets a scalar light parameter.
func (c *Context) Lightf(l, pname Enum, param float32) {
	if pname != SpotExponent && pname != SpotCutoff {
		c.setError(InvalidEnum, "Lightf: unsupported parameter", "pname", pname)
		return
	}
	c.Lightfv(l, pname, []float32{param})
}

// Lightfv sets a light parameter. Colors take RGBA, Position four values,
// SpotDirection three and the spot parameters one.
func (c *Context) Lightfv(l, pname Enum, params []float32) {
	if l < Light0 || l > Light7 {
		c.setError(InvalidEnum, "Lightfv: unsupported light", "light", l)
		return
	}
	need := 0
	switch pname {
	case Ambient, Diffuse, Specular, Position:
		need = 4
	case SpotDirection:
		need = 3
	case SpotExponent, SpotCutoff:
		need = 1
	default:
		c.setError(InvalidEnum, "Lightfv: unsupported parameter", "pname", pname)
		return
	}
	if len(params) < need {
		c.setError(InvalidValue, "Lightfv: too few values", "pname", pname, "n", len(params))
		return
	}
	switch {
	case pname == SpotExponent && (params[0] < 0 || params[0] > 128):
		c.setError(InvalidValue, "Lightfv: spot exponent out of range", "value", params[0])
		return
	case pname == SpotCutoff && params[0] != 180 && (params[0] < 0 || params[0] > 90):
		c.setError(InvalidValue, "Lightfv: spot cutoff out of range", "value", params[0])
		return
	}
	if !c.checkState("Lightfv") {
		return
	}
	if l > Light3 {
		Logger().Debug("fakegl: light beyond the hardware's four ignored", "light", l)
		return
	}
	lt := &c.st.lights[l-Light0]
	switch pname {
	case Ambient:
		lt.ambient = packRGB(params)
	case Diffuse:
		lt.diffuse = packRGB(params)
	case Specular:
		lt.specular = packRGB(params)
	case Position:
		copy(lt.position[:], params)
	case SpotDirection:
		copy(lt.direction[:], params)
	case SpotExponent:
		lt.spotExponent = params[0]
	case SpotCutoff:
		lt.spotCutoff = params[0]
	}
	c.dirty |= dirtyLights
}

// LightModelfv sets the light model ambient color.
func (c *Context) LightModelfv(pname Enum, params []float32) {
	if pname != LightModelAmbient {
		c.setError(InvalidEnum, "LightModelfv: unsupported parameter", "pname", pname)
		return
	}
	if len(params) < 4 {
		c.setError(InvalidValue, "LightModelfv: too few values", "n", len(params))
		return
	}
	if !c.checkState("LightModelfv") {
		return
	}
	c.st.lightAmbient = packRGB(params)
	c.dirty |= dirtyLights
}

func clamp01(f float32) float32 {
	return min(max(f, 0), 1)
}

// toByte converts a [0, 1] color component to 0-255.
func toByte(f float32) uint8 {
	return uint8(math.Round(float64(clamp01(f)) * 255))
}

func packRGB(p []float32) uint32 {
	return uint32(toByte(p[0]))<<16 | uint32(toByte(p[1]))<<8 | uint32(toByte(p[2]))
}

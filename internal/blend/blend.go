// Package blend evaluates fixed-function blend equations on 8-bit RGBA
// colors.
//
// Colors are straight (not premultiplied) R, G, B, A bytes, as stored in
// GE framebuffers. An Equation combines a source and a destination color with
// per-channel factors and an operation, the way glBlendFunc does.
package blend

import "github.com/gogpu/gputypes"

// Color is an RGBA color.
type Color [4]byte

// Equation is a blend equation with separate color and alpha components.
type Equation struct {
	Color gputypes.BlendComponent
	Alpha gputypes.BlendComponent

	// Constant is used by the Constant and OneMinusConstant factors.
	Constant Color
}

// Over returns the classic SRC_ALPHA, ONE_MINUS_SRC_ALPHA equation.
func Over() Equation {
	return Func(gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha)
}

// Func returns an additive equation using the same factors for color and
// alpha, like glBlendFunc.
func Func(src, dst gputypes.BlendFactor) Equation {
	c := gputypes.BlendComponent{SrcFactor: src, DstFactor: dst, Operation: gputypes.BlendOperationAdd}
	return Equation{Color: c, Alpha: c}
}

// Blend combines src with dst.
func (e *Equation) Blend(src, dst Color) Color {
	var out Color
	for ch := 0; ch < 3; ch++ {
		out[ch] = e.channel(&e.Color, src, dst, ch)
	}
	out[3] = e.channel(&e.Alpha, src, dst, 3)
	return out
}

func (e *Equation) channel(c *gputypes.BlendComponent, src, dst Color, ch int) byte {
	s, d := src[ch], dst[ch]
	switch c.Operation {
	case gputypes.BlendOperationMin:
		return min(s, d)
	case gputypes.BlendOperationMax:
		return max(s, d)
	}
	sf := mulDiv255(s, factor(c.SrcFactor, src, dst, e.Constant, ch))
	df := mulDiv255(d, factor(c.DstFactor, src, dst, e.Constant, ch))
	switch c.Operation {
	case gputypes.BlendOperationSubtract:
		return subClamp(sf, df)
	case gputypes.BlendOperationReverseSubtract:
		return subClamp(df, sf)
	default:
		return addClamp(sf, df)
	}
}

// factor returns the weight of a blend factor for channel ch.
func factor(f gputypes.BlendFactor, src, dst, k Color, ch int) byte {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorOne:
		return 255
	case gputypes.BlendFactorSrc:
		return src[ch]
	case gputypes.BlendFactorOneMinusSrc:
		return inv255(src[ch])
	case gputypes.BlendFactorSrcAlpha:
		return src[3]
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return inv255(src[3])
	case gputypes.BlendFactorDst:
		return dst[ch]
	case gputypes.BlendFactorOneMinusDst:
		return inv255(dst[ch])
	case gputypes.BlendFactorDstAlpha:
		return dst[3]
	case gputypes.BlendFactorOneMinusDstAlpha:
		return inv255(dst[3])
	case gputypes.BlendFactorSrcAlphaSaturated:
		if ch == 3 {
			return 255
		}
		return min(src[3], inv255(dst[3]))
	case gputypes.BlendFactorConstant:
		return k[ch]
	case gputypes.BlendFactorOneMinusConstant:
		return inv255(k[ch])
	}
	return 0
}

// Modulate multiplies two colors channel by channel.
func Modulate(a, b Color) Color {
	return Color{mulDiv255(a[0], b[0]), mulDiv255(a[1], b[1]), mulDiv255(a[2], b[2]), mulDiv255(a[3], b[3])}
}

// Mix returns a*(255-t)/255 + b*t/255.
func Mix(a, b, t byte) byte {
	return addClamp(mulDiv255(a, inv255(t)), mulDiv255(b, t))
}

// Add adds two channel values, saturating at 255.
func Add(a, b byte) byte {
	return addClamp(a, b)
}

package sim

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/internal/blend"
	"github.com/aquaria-psp/fakegl/internal/texel"
)

// sampler reads texels from the texture selected by the TEX registers.
type sampler struct {
	src          []byte
	layout       texel.Layout
	pal          []byte
	w, h         int
	linear       bool
	wrapU, wrapV gputypes.AddressMode
}

// sampler returns the sampler for the current texture state, or false when
// the texture lies outside memory. minify selects the minification filter.
func (d *Device) sampler(minify bool) (sampler, bool) {
	r := &d.regs
	l := r.textureLayout()
	w, h := r.textureSize()
	if l.Width < w {
		l.Width = w
	}
	src := d.alloc.Bytes(r.textureAddr(), l.Size())
	if src == nil {
		slogger().Warn("sim: texture outside memory", "addr", uint32(r.textureAddr()))
		return sampler{}, false
	}
	linear := r.magLinear
	if minify {
		linear = r.minLinear
	}
	return sampler{
		src:    src,
		layout: l,
		pal:    r.clut[:],
		w:      w,
		h:      h,
		linear: linear,
		wrapU:  r.wrapU,
		wrapV:  r.wrapV,
	}, true
}

// sample returns the texel color at (u, v) in texel units.
func (s *sampler) sample(u, v float64) blend.Color {
	if !s.linear {
		return s.fetch(int(math.Floor(u)), int(math.Floor(v)))
	}
	u -= 0.5
	v -= 0.5
	fu, fv := math.Floor(u), math.Floor(v)
	x, y := int(fu), int(fv)
	tu := byte(math.Round((u - fu) * 255))
	tv := byte(math.Round((v - fv) * 255))
	c00 := s.fetch(x, y)
	c10 := s.fetch(x+1, y)
	c01 := s.fetch(x, y+1)
	c11 := s.fetch(x+1, y+1)
	var out blend.Color
	for ch := range out {
		top := blend.Mix(c00[ch], c10[ch], tu)
		bottom := blend.Mix(c01[ch], c11[ch], tu)
		out[ch] = blend.Mix(top, bottom, tv)
	}
	return out
}

func (s *sampler) fetch(x, y int) blend.Color {
	x = wrap(x, s.w, s.wrapU)
	y = wrap(y, s.h, s.wrapV)
	r, g, b, a := texel.At(s.src, s.layout, s.pal, x, y)
	return blend.Color{r, g, b, a}
}

func wrap(i, n int, mode gputypes.AddressMode) int {
	switch mode {
	case gputypes.AddressModeClampToEdge:
		return min(max(i, 0), n-1)
	case gputypes.AddressModeMirrorRepeat:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i
	default:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
}

// texFunction combines a texel with the fragment color.
func (r *registers) texFunction(t, c blend.Color) blend.Color {
	if !r.texAlpha {
		t[3] = 0xFF
	}
	switch r.texFunc {
	case ge.TexDecal:
		out := c
		for ch := 0; ch < 3; ch++ {
			out[ch] = blend.Mix(c[ch], t[ch], t[3])
		}
		return out
	case ge.TexReplace:
		if !r.texAlpha {
			t[3] = c[3]
		}
		return t
	case ge.TexAdd:
		out := blend.Modulate(t, c)
		for ch := 0; ch < 3; ch++ {
			out[ch] = blend.Add(t[ch], c[ch])
		}
		return out
	default:
		return blend.Modulate(t, c)
	}
}

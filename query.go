package fakegl

import "math"

// queryValues returns the values of a state query as floats, and whether
// they are colors (mapped to the full integer range by GetIntegerv).
func (c *Context) queryValues(name string, pname Enum) ([]float32, bool, bool) {
	s := &c.st
	switch pname {
	case CurrentColor:
		v := make([]float32, 4)
		for i, b := range s.color {
			v[i] = float32(b) / 255
		}
		return v, true, true
	case ModelviewMatrix:
		m := c.model.top()
		return m[:], false, true
	case ProjectionMatrix:
		m := c.proj.top()
		return m[:], false, true
	case ViewportParam:
		v := s.viewport
		return []float32{float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3])}, false, true
	case MaxTextureSizeParam:
		return []float32{MaxTextureSize}, false, true
	case MatrixMode:
		return []float32{float32(s.matrixMode)}, false, true
	case TextureBinding2D:
		return []float32{float32(s.texture)}, false, true
	}
	c.setError(InvalidEnum, name+": unsupported parameter", "pname", pname)
	return nil, false, false
}

// GetFloatv stores the value of a state parameter in params.
func (c *Context) GetFloatv(pname Enum, params []float32) {
	v, _, ok := c.queryValues("GetFloatv", pname)
	if !ok {
		return
	}
	if len(params) < len(v) {
		c.setError(InvalidValue, "GetFloatv: params too short", "pname", pname, "want", len(v))
		return
	}
	copy(params, v)
}

// GetIntegerv stores the value of a state parameter in params. Colors map
// [0, 1] to [0, MaxInt32]; other values are rounded.
func (c *Context) GetIntegerv(pname Enum, params []int32) {
	if pname == TextureBinding2D && len(params) > 0 {
		// IDs do not survive a float round trip.
		params[0] = int32(c.st.texture)
		return
	}
	v, color, ok := c.queryValues("GetIntegerv", pname)
	if !ok {
		return
	}
	if len(params) < len(v) {
		c.setError(InvalidValue, "GetIntegerv: params too short", "pname", pname, "want", len(v))
		return
	}
	for i, f := range v {
		if color {
			params[i] = int32(math.Round(float64(f) * math.MaxInt32))
		} else {
			params[i] = int32(math.Round(float64(f)))
		}
	}
}

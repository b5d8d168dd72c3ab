package fakegl

import (
	"math"
	"testing"
)

func TestGetFloatv(t *testing.T) {
	gl := newTestContext(t)
	beginFrame(t, gl)
	gl.Color4ub(255, 0, 51, 255)
	gl.Viewport(1, 2, 30, 40)
	gl.Translatef(1, 2, 3)
	expectError(t, gl, NoError)

	tests := []struct {
		pname Enum
		want  []float32
	}{
		{CurrentColor, []float32{1, 0, 0.2, 1}},
		{ViewportParam, []float32{1, 2, 30, 40}},
		{MaxTextureSizeParam, []float32{MaxTextureSize}},
		{MatrixMode, []float32{float32(Modelview)}},
		{TextureBinding2D, []float32{0}},
	}
	for _, tt := range tests {
		got := make([]float32, len(tt.want))
		gl.GetFloatv(tt.pname, got)
		expectError(t, gl, NoError)
		for i := range got {
			if math.Abs(float64(got[i]-tt.want[i])) > 1e-6 {
				t.Errorf("pname %#x = %v, want %v", tt.pname, got, tt.want)
				break
			}
		}
	}

	m := make([]float32, 16)
	gl.GetFloatv(ModelviewMatrix, m)
	if m[12] != 1 || m[13] != 2 || m[14] != 3 || m[0] != 1 {
		t.Errorf("modelview = %v, want a translation by (1,2,3)", m)
	}
	gl.GetFloatv(ProjectionMatrix, m)
	if m[0] != 1 || m[12] != 0 {
		t.Errorf("projection = %v, want identity", m)
	}
	endFrame(t, gl)
}

func TestGetIntegerv(t *testing.T) {
	gl := newTestContext(t)
	id := newBoundTexture(t, gl)
	beginFrame(t, gl)
	gl.Color4ub(255, 0, 0, 255)

	var c [4]int32
	gl.GetIntegerv(CurrentColor, c[:])
	if c != [4]int32{math.MaxInt32, 0, 0, math.MaxInt32} {
		t.Errorf("current color = %v", c)
	}
	var v [1]int32
	gl.GetIntegerv(TextureBinding2D, v[:])
	if uint32(v[0]) != id {
		t.Errorf("binding = %d, want %d", v[0], id)
	}
	gl.GetIntegerv(MaxTextureSizeParam, v[:])
	if v[0] != MaxTextureSize {
		t.Errorf("max texture size = %d", v[0])
	}
	expectError(t, gl, NoError)
	endFrame(t, gl)
}

func TestGetErrors(t *testing.T) {
	gl := newTestContext(t)
	f := make([]float32, 16)
	gl.GetFloatv(Enum(0x0B21), f) // LINE_WIDTH is not queryable
	expectError(t, gl, InvalidEnum)
	gl.GetFloatv(ViewportParam, f[:2])
	expectError(t, gl, InvalidValue)
	i := make([]int32, 3)
	gl.GetIntegerv(CurrentColor, i)
	expectError(t, gl, InvalidValue)
}

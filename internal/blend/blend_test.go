package blend

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestMulDiv255(t *testing.T) {
	tests := []struct {
		name string
		a, b byte
		want byte
	}{
		{"zero * max", 0, 255, 0},
		{"max * max", 255, 255, 255},
		{"half * max", 128, 255, 128},
		{"half * half", 128, 128, 64},
		{"100 * 100", 100, 100, 39},
		{"200 * 200", 200, 200, 157},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mulDiv255(tt.a, tt.b); got != tt.want {
				t.Errorf("mulDiv255(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMulDiv255AllValues(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			want := byte((a*b + 127) / 255)
			if got := mulDiv255(byte(a), byte(b)); got != want {
				t.Fatalf("mulDiv255(%d, %d) = %d, want %d", a, b, got, want)
			}
		}
	}
}

func TestBlendOver(t *testing.T) {
	e := Over()
	tests := []struct {
		name     string
		src, dst Color
		want     Color
	}{
		{"opaque source", Color{255, 0, 0, 255}, Color{0, 0, 255, 255}, Color{255, 0, 0, 255}},
		{"transparent source", Color{255, 0, 0, 0}, Color{0, 0, 255, 255}, Color{0, 0, 255, 255}},
		{"half source", Color{255, 0, 0, 128}, Color{0, 0, 255, 255}, Color{128, 0, 127, 191}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Blend(tt.src, tt.dst); got != tt.want {
				t.Errorf("Blend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBlendFactors(t *testing.T) {
	src := Color{200, 100, 50, 128}
	dst := Color{10, 20, 30, 255}
	tests := []struct {
		name     string
		src, dst gputypes.BlendFactor
		want     Color
	}{
		{"one zero", gputypes.BlendFactorOne, gputypes.BlendFactorZero, src},
		{"zero one", gputypes.BlendFactorZero, gputypes.BlendFactorOne, dst},
		{"additive", gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOne, Color{110, 70, 55, 255}},
		{"modulate", gputypes.BlendFactorDst, gputypes.BlendFactorZero, Color{8, 8, 6, 128}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Func(tt.src, tt.dst)
			if got := e.Blend(src, dst); got != tt.want {
				t.Errorf("Blend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBlendOperations(t *testing.T) {
	src := Color{200, 10, 50, 255}
	dst := Color{100, 40, 50, 255}
	one := gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOne}
	tests := []struct {
		op   gputypes.BlendOperation
		want Color
	}{
		{gputypes.BlendOperationAdd, Color{255, 50, 100, 255}},
		{gputypes.BlendOperationSubtract, Color{100, 0, 0, 0}},
		{gputypes.BlendOperationReverseSubtract, Color{0, 30, 0, 0}},
		{gputypes.BlendOperationMin, Color{100, 10, 50, 255}},
		{gputypes.BlendOperationMax, Color{200, 40, 50, 255}},
	}
	for _, tt := range tests {
		c := one
		c.Operation = tt.op
		e := Equation{Color: c, Alpha: c}
		if got := e.Blend(src, dst); got != tt.want {
			t.Errorf("op %v: Blend() = %v, want %v", tt.op, got, tt.want)
		}
	}
}

func TestBlendConstant(t *testing.T) {
	e := Func(gputypes.BlendFactorConstant, gputypes.BlendFactorOneMinusConstant)
	e.Constant = Color{255, 0, 255, 255}
	got := e.Blend(Color{10, 20, 30, 40}, Color{50, 60, 70, 80})
	if want := (Color{10, 60, 30, 40}); got != want {
		t.Errorf("Blend() = %v, want %v", got, want)
	}
}

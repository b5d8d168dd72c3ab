package ge

import (
	"encoding/binary"
	"fmt"
	"math"
)

// VTYPE argument fields. Only the float and 8888 encodings are produced by
// this package; other encodings are rejected by ParseVertexType.
const (
	vtTexFloat    = 3 << 0
	vtTexMask     = 3 << 0
	vtColor8888   = 7 << 2
	vtColorMask   = 7 << 2
	vtNormalFloat = 3 << 5
	vtNormalMask  = 3 << 5
	vtPosFloat    = 3 << 7
	vtPosMask     = 3 << 7
	vtIndexMask   = 3 << 11
	vtWeightMask  = 3<<9 | 7<<14
	vtMorphMask   = 7 << 18
	vtThrough     = 1 << 23
)

// VertexFormat lists the attributes present in each vertex record. Records
// store, in order: texture coordinate (2 x float32), color (uint32 ABGR),
// normal (3 x float32) and position (3 x float32), little endian.
type VertexFormat struct {
	Texture bool
	Color   bool
	Normal  bool

	// Through disables the transform: positions are screen coordinates and
	// texture coordinates are in texels.
	Through bool
}

// VTYPE returns the VTYPE command argument for the format.
func (f VertexFormat) VTYPE() uint32 {
	v := uint32(vtPosFloat)
	if f.Texture {
		v |= vtTexFloat
	}
	if f.Color {
		v |= vtColor8888
	}
	if f.Normal {
		v |= vtNormalFloat
	}
	if f.Through {
		v |= vtThrough
	}
	return v
}

// ParseVertexType decodes a VTYPE argument.
func ParseVertexType(arg uint32) (VertexFormat, error) {
	f := VertexFormat{Through: arg&vtThrough != 0}
	switch arg & vtTexMask {
	case 0:
	case vtTexFloat:
		f.Texture = true
	default:
		return f, fmt.Errorf("ge: unsupported texture coordinate encoding in VTYPE %#06x", arg)
	}
	switch arg & vtColorMask {
	case 0:
	case vtColor8888:
		f.Color = true
	default:
		return f, fmt.Errorf("ge: unsupported color encoding in VTYPE %#06x", arg)
	}
	switch arg & vtNormalMask {
	case 0:
	case vtNormalFloat:
		f.Normal = true
	default:
		return f, fmt.Errorf("ge: unsupported normal encoding in VTYPE %#06x", arg)
	}
	if arg&vtPosMask != vtPosFloat {
		return f, fmt.Errorf("ge: unsupported position encoding in VTYPE %#06x", arg)
	}
	if arg&(vtIndexMask|vtWeightMask|vtMorphMask) != 0 {
		return f, fmt.Errorf("ge: indexed, weighted or morphed vertices in VTYPE %#06x", arg)
	}
	return f, nil
}

// Size returns the size of one vertex record in bytes.
func (f VertexFormat) Size() int {
	n := 12
	if f.Texture {
		n += 8
	}
	if f.Color {
		n += 4
	}
	if f.Normal {
		n += 12
	}
	return n
}

// Vertex holds every attribute a record can carry.
type Vertex struct {
	U, V       float32
	Color      uint32 // ABGR: red in the low byte
	NX, NY, NZ float32
	X, Y, Z    float32
}

// Put encodes v into b, which must hold at least f.Size() bytes.
func (f VertexFormat) Put(b []byte, v *Vertex) {
	o := 0
	if f.Texture {
		putFloats(b[o:], v.U, v.V)
		o += 8
	}
	if f.Color {
		binary.LittleEndian.PutUint32(b[o:], v.Color)
		o += 4
	}
	if f.Normal {
		putFloats(b[o:], v.NX, v.NY, v.NZ)
		o += 12
	}
	putFloats(b[o:], v.X, v.Y, v.Z)
}

// Get decodes a record from b. Attributes absent from f are left unchanged.
func (f VertexFormat) Get(b []byte, v *Vertex) {
	o := 0
	if f.Texture {
		v.U, v.V = getFloat(b[o:]), getFloat(b[o+4:])
		o += 8
	}
	if f.Color {
		v.Color = binary.LittleEndian.Uint32(b[o:])
		o += 4
	}
	if f.Normal {
		v.NX, v.NY, v.NZ = getFloat(b[o:]), getFloat(b[o+4:]), getFloat(b[o+8:])
		o += 12
	}
	v.X, v.Y, v.Z = getFloat(b[o:]), getFloat(b[o+4:]), getFloat(b[o+8:])
}

func putFloats(b []byte, fs ...float32) {
	for i, f := range fs {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
}

func getFloat(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

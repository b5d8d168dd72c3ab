// Package ge describes the command set of the GE graphics engine and provides
// the pieces shared by everything that produces or consumes GE command lists:
// command word encoding, a list writer over allocator memory, vertex type
// descriptors and the Device interface implemented by GE backends.
//
// A command word is 32 bits: the opcode in bits 24-31 and a 24-bit argument
// in bits 0-23. Floating point arguments are IEEE-754 single precision values
// with the low 8 mantissa bits dropped (see Float24).
//
// Commands selecting a fixed-function mode (blend factors, compare functions,
// texture filters and wrap modes) carry github.com/gogpu/gputypes enum codes.
package ge

import (
	"fmt"
	"math"
)

// Op is a GE command opcode.
type Op uint8

// Command opcodes.
const (
	OpNOP    Op = 0x00
	OpVADDR  Op = 0x01 // vertex address (low 24 bits, BASE supplies the rest)
	OpIADDR  Op = 0x02 // index address
	OpPRIM   Op = 0x04 // draw primitive: type<<16 | vertex count
	OpJUMP   Op = 0x08
	OpCALL   Op = 0x0A
	OpRET    Op = 0x0B
	OpEND    Op = 0x0C
	OpSIGNAL Op = 0x0E
	OpFINISH Op = 0x0F
	OpBASE   Op = 0x10 // address bits 24-27 in argument bits 16-19
	OpVTYPE  Op = 0x12
	OpORIGIN Op = 0x14

	OpLTE  Op = 0x17 // lighting enable
	OpLTE0 Op = 0x18 // light 0-3 enable
	OpBCE  Op = 0x1D // backface culling enable
	OpTME  Op = 0x1E // texture mapping enable
	OpFGE  Op = 0x1F // fog enable
	OpDTE  Op = 0x20 // dither enable
	OpABE  Op = 0x21 // alpha blend enable
	OpATE  Op = 0x22 // alpha test enable
	OpZTE  Op = 0x23 // depth test enable
	OpAAE  Op = 0x25 // antialiasing enable
	OpLOE  Op = 0x28 // logic op enable

	OpWMS     Op = 0x3A // world matrix select
	OpWORLD   Op = 0x3B // world matrix upload
	OpVMS     Op = 0x3C
	OpVIEW    Op = 0x3D
	OpPMS     Op = 0x3E
	OpPROJ    Op = 0x3F
	OpTMS     Op = 0x40
	OpTMATRIX Op = 0x41

	OpXSCALE  Op = 0x42
	OpYSCALE  Op = 0x43
	OpZSCALE  Op = 0x44
	OpXPOS    Op = 0x45
	OpYPOS    Op = 0x46
	OpZPOS    Op = 0x47
	OpUSCALE  Op = 0x48
	OpVSCALE  Op = 0x49
	OpUOFFSET Op = 0x4A
	OpVOFFSET Op = 0x4B
	OpOFFSETX Op = 0x4C
	OpOFFSETY Op = 0x4D

	OpSHADE Op = 0x50
	OpCMAT  Op = 0x53 // material color source
	OpEMC   Op = 0x54 // emissive material color
	OpAMC   Op = 0x55 // ambient material color
	OpDMC   Op = 0x56
	OpSMC   Op = 0x57
	OpAMA   Op = 0x58 // ambient material alpha
	OpSPOW  Op = 0x5B
	OpALC   Op = 0x5C // ambient light color
	OpALA   Op = 0x5D
	OpLMODE Op = 0x5E

	OpLT0      Op = 0x5F // light type, one per light
	OpLXP0     Op = 0x63 // light position, 3 per light
	OpLXD0     Op = 0x6F // light direction, 3 per light
	OpLCA0     Op = 0x7B // attenuation, 3 per light
	OpSPOTEXP0 Op = 0x87
	OpSPOTCUT0 Op = 0x8B
	OpALC0     Op = 0x8F // per-light ambient, diffuse, specular: 3 per light
	OpDLC0     Op = 0x90
	OpSLC0     Op = 0x91

	OpCULL Op = 0x9B // screen-space winding culled: 0 = clockwise, 1 = counter-clockwise
	OpFBP  Op = 0x9C // framebuffer address, low 24 bits
	OpFBW  Op = 0x9D // framebuffer width, address bits 24-31 in 16-23
	OpZBP  Op = 0x9E
	OpZBW  Op = 0x9F

	OpTBP0   Op = 0xA0 // texture address, low 24 bits
	OpTBW0   Op = 0xA8 // texture stride, address bits 24-28 in 16-20
	OpCBP    Op = 0xB0 // palette address, low 24 bits
	OpCBPH   Op = 0xB1 // palette address bits 24-27 in 16-19
	OpTRXSBP Op = 0xB2
	OpTRXSBW Op = 0xB3
	OpTRXDBP Op = 0xB4
	OpTRXDBW Op = 0xB5
	OpTSIZE0 Op = 0xB8 // log2 height << 8 | log2 width
	OpTMODE  Op = 0xC2 // bit 0: swizzled
	OpTPSM   Op = 0xC3 // texel format
	OpCLOAD  Op = 0xC4 // palette load, in 8-entry blocks
	OpCLUT   Op = 0xC5 // palette format
	OpTFLT   Op = 0xC6 // min | mag<<8, gputypes.FilterMode codes
	OpTWRAP  Op = 0xC7 // u | v<<8, gputypes.AddressMode codes
	OpTFUNC  Op = 0xC9 // TexFunc | 1<<8 when texture alpha is used
	OpTEC    Op = 0xCA
	OpTFLUSH Op = 0xCB
	OpTSYNC  Op = 0xCC

	OpPSM      Op = 0xD2
	OpCLEAR    Op = 0xD3 // bit 0: clear mode, bits 8-10: color/alpha/depth
	OpSCISSOR1 Op = 0xD4 // y0<<10 | x0
	OpSCISSOR2 Op = 0xD5 // y1<<10 | x1, inclusive
	OpNEARZ    Op = 0xD6
	OpFARZ     Op = 0xD7
	OpCTST     Op = 0xD8
	OpATST     Op = 0xDB // gputypes.CompareFunction | ref<<8 | mask<<16
	OpZTST     Op = 0xDE
	OpALPHA    Op = 0xDF // src | dst<<4 | op<<8, gputypes blend codes
	OpSFIX     Op = 0xE0
	OpDFIX     Op = 0xE1
	OpZMSK     Op = 0xE7
	OpPMSKC    Op = 0xE8
	OpPMSKA    Op = 0xE9
	OpTRXKICK  Op = 0xEA // bit 0: 32-bit pixels
	OpTRXSPOS  Op = 0xEB // y<<10 | x
	OpTRXDPOS  Op = 0xEC
	OpTRXSIZE  Op = 0xEE // (h-1)<<10 | (w-1)
)

var opNames = map[Op]string{
	OpNOP: "NOP", OpVADDR: "VADDR", OpIADDR: "IADDR", OpPRIM: "PRIM", OpJUMP: "JUMP",
	OpCALL: "CALL", OpRET: "RET", OpEND: "END", OpSIGNAL: "SIGNAL", OpFINISH: "FINISH",
	OpBASE: "BASE", OpVTYPE: "VTYPE", OpORIGIN: "ORIGIN", OpTME: "TME", OpABE: "ABE",
	OpATE: "ATE", OpWORLD: "WORLD", OpVIEW: "VIEW", OpPROJ: "PROJ", OpTMATRIX: "TMATRIX",
	OpAMC: "AMC", OpAMA: "AMA", OpFBP: "FBP", OpFBW: "FBW", OpTBP0: "TBP0", OpTBW0: "TBW0",
	OpCBP: "CBP", OpCBPH: "CBPH", OpTSIZE0: "TSIZE0", OpTMODE: "TMODE", OpTPSM: "TPSM",
	OpCLOAD: "CLOAD", OpCLUT: "CLUT", OpCLEAR: "CLEAR", OpSCISSOR1: "SCISSOR1",
	OpSCISSOR2: "SCISSOR2", OpALPHA: "ALPHA", OpTRXKICK: "TRXKICK",
}

// String returns the mnemonic of the opcode.
func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return fmt.Sprintf("OP_%02X", uint8(op))
}

// Command packs an opcode and a 24-bit argument into a command word.
func Command(op Op, arg uint32) uint32 {
	return uint32(op)<<24 | arg&0xFFFFFF
}

// Decode splits a command word into its opcode and argument.
func Decode(word uint32) (Op, uint32) {
	return Op(word >> 24), word & 0xFFFFFF
}

// Float24 encodes f as a 24-bit GE float argument.
func Float24(f float32) uint32 {
	return math.Float32bits(f) >> 8
}

// FromFloat24 decodes a 24-bit GE float argument.
func FromFloat24(arg uint32) float32 {
	return math.Float32frombits(arg << 8)
}

// Primitive types carried in bits 16-18 of a PRIM argument.
type Primitive uint8

const (
	Points Primitive = iota
	Lines
	LineStrip
	Triangles
	TriangleStrip
	TriangleFan
	Sprites
)

// Prim builds the argument of a PRIM command.
func Prim(p Primitive, count int) uint32 {
	return uint32(p)<<16 | uint32(count)&0xFFFF
}

// Clear mode flags for the CLEAR command.
const (
	ClearEnable = 1 << 0
	ClearColor  = 1 << 8
	ClearAlpha  = 1 << 9
	ClearDepth  = 1 << 10
)

// Texture functions for TFUNC.
const (
	TexModulate = 0
	TexDecal    = 1
	TexBlend    = 2
	TexReplace  = 3
	TexAdd      = 4
)

// Texel and palette formats used by TPSM and CLUT.
const (
	PSM5650 = 0
	PSM5551 = 1
	PSM4444 = 2
	PSM8888 = 3
	PSMT4   = 4
	PSMT8   = 5
)

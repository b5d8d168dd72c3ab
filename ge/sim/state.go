package sim

import (
	"github.com/gogpu/gputypes"

	"github.com/aquaria-psp/fakegl/ge"
	"github.com/aquaria-psp/fakegl/internal/blend"
	"github.com/aquaria-psp/fakegl/internal/texel"
	"github.com/aquaria-psp/fakegl/mem"
)

// registers is the GE state set by non-control commands.
type registers struct {
	base  uint32 // address bits 24-27
	vaddr mem.Addr
	vtype ge.VertexFormat
	vbad  error

	world, view, tmat  [12]float32
	proj               [16]float32
	worldN, viewN      int
	projN, tmatN       int
	scaleX, scaleY     float32
	posX, posY         float32
	offsetX, offsetY   float32
	uScale, vScale     float32
	uOffset, vOffset   float32
	material           blend.Color
	gouraud            bool
	cullEnable         bool
	cullCCW            bool
	textureEnable      bool
	blendEnable        bool
	alphaTestEnable    bool
	fbp, fbw           uint32
	tbp, tbw           uint32
	tsize, tmode, tpsm uint32
	minLinear          bool
	magLinear          bool
	wrapU, wrapV       gputypes.AddressMode
	texFunc            uint32
	texAlpha           bool
	cbp, cbph          uint32
	clut               [texel.PaletteEntries * 4]byte
	clear              uint32
	scissor            [4]int // x0, y0, x1, y1 inclusive
	alphaFunc          gputypes.CompareFunction
	alphaRef           byte
	alphaMask          byte
	equation           blend.Equation
	trx                [8]uint32 // sbp, sbw, dbp, dbw, spos, dpos, size, unused
}

func (r *registers) reset(fb ge.Surface) {
	*r = registers{
		scaleX: 1, scaleY: 1,
		uScale: 1, vScale: 1,
		material:  blend.Color{0xFF, 0xFF, 0xFF, 0xFF},
		gouraud:   true,
		fbp:       uint32(fb.Addr) & 0xFFFFFF,
		fbw:       uint32(fb.Addr)>>24<<16 | uint32(fb.Stride),
		wrapU:     gputypes.AddressModeRepeat,
		wrapV:     gputypes.AddressModeRepeat,
		texAlpha:  true,
		scissor:   [4]int{0, 0, fb.Width - 1, fb.Height - 1},
		alphaFunc: gputypes.CompareFunctionAlways,
		alphaMask: 0xFF,
		equation:  blend.Over(),
	}
	r.vtype.Color = true
	r.world, r.view, r.tmat = identity43, identity43, identity43
	r.proj = [16]float32{0: 1, 5: 1, 10: 1, 15: 1}
}

// identity43 is a 4x3 identity in upload order: three basis rows, then
// the translation.
var identity43 = [12]float32{0: 1, 4: 1, 8: 1}

// address combines a 24-bit argument with the BASE register.
func (r *registers) address(arg uint32) mem.Addr {
	return mem.Addr(r.base<<24 | arg&0xFFFFFF)
}

func (r *registers) framebuffer() (addr mem.Addr, stride int) {
	return mem.Addr((r.fbw>>16&0xFF)<<24 | r.fbp), int(r.fbw & 0x7FF)
}

func (r *registers) textureAddr() mem.Addr {
	return mem.Addr((r.tbw>>16&0x1F)<<24 | r.tbp)
}

func (r *registers) textureLayout() texel.Layout {
	f := texel.FormatRGBA8888
	if r.tpsm == ge.PSMT8 {
		f = texel.FormatT8
	}
	return texel.Layout{
		Format:   f,
		Width:    int(r.tbw & 0xFFFF),
		Height:   1 << (r.tsize >> 8 & 0xF),
		Swizzled: r.tmode&1 != 0,
	}
}

func (r *registers) textureSize() (w, h int) {
	return 1 << (r.tsize & 0xF), 1 << (r.tsize >> 8 & 0xF)
}

func bit(arg uint32) bool { return arg&1 != 0 }

// command applies a non-control command.
func (d *Device) command(op ge.Op, arg uint32) error {
	r := &d.regs
	switch op {
	case ge.OpBASE:
		r.base = arg >> 16 & 0xF
	case ge.OpVADDR:
		r.vaddr = r.address(arg)
	case ge.OpVTYPE:
		r.vtype, r.vbad = ge.ParseVertexType(arg)
	case ge.OpPRIM:
		return d.prim(ge.Primitive(arg>>16&7), int(arg&0xFFFF))

	case ge.OpBCE:
		r.cullEnable = bit(arg)
	case ge.OpCULL:
		r.cullCCW = bit(arg)
	case ge.OpTME:
		r.textureEnable = bit(arg)
	case ge.OpABE:
		r.blendEnable = bit(arg)
	case ge.OpATE:
		r.alphaTestEnable = bit(arg)
	case ge.OpSHADE:
		r.gouraud = bit(arg)

	case ge.OpWMS:
		r.worldN = int(arg)
	case ge.OpWORLD:
		r.worldN = load(r.world[:], r.worldN, arg)
	case ge.OpVMS:
		r.viewN = int(arg)
	case ge.OpVIEW:
		r.viewN = load(r.view[:], r.viewN, arg)
	case ge.OpPMS:
		r.projN = int(arg)
	case ge.OpPROJ:
		r.projN = load(r.proj[:], r.projN, arg)
	case ge.OpTMS:
		r.tmatN = int(arg)
	case ge.OpTMATRIX:
		r.tmatN = load(r.tmat[:], r.tmatN, arg)

	case ge.OpXSCALE:
		r.scaleX = ge.FromFloat24(arg)
	case ge.OpYSCALE:
		r.scaleY = ge.FromFloat24(arg)
	case ge.OpXPOS:
		r.posX = ge.FromFloat24(arg)
	case ge.OpYPOS:
		r.posY = ge.FromFloat24(arg)
	case ge.OpOFFSETX:
		r.offsetX = float32(arg&0xFFFF) / 16
	case ge.OpOFFSETY:
		r.offsetY = float32(arg&0xFFFF) / 16
	case ge.OpUSCALE:
		r.uScale = ge.FromFloat24(arg)
	case ge.OpVSCALE:
		r.vScale = ge.FromFloat24(arg)
	case ge.OpUOFFSET:
		r.uOffset = ge.FromFloat24(arg)
	case ge.OpVOFFSET:
		r.vOffset = ge.FromFloat24(arg)

	case ge.OpAMC:
		r.material[0], r.material[1], r.material[2] = byte(arg), byte(arg>>8), byte(arg>>16)
	case ge.OpAMA:
		r.material[3] = byte(arg)

	case ge.OpFBP:
		r.fbp = arg
	case ge.OpFBW:
		r.fbw = arg
	case ge.OpTBP0:
		r.tbp = arg
	case ge.OpTBW0:
		r.tbw = arg
	case ge.OpTSIZE0:
		r.tsize = arg
	case ge.OpTMODE:
		r.tmode = arg
	case ge.OpTPSM:
		r.tpsm = arg
	case ge.OpCBP:
		r.cbp = arg
	case ge.OpCBPH:
		r.cbph = arg
	case ge.OpCLOAD:
		d.loadPalette(int(arg&0x3F) * 8)
	case ge.OpTFLT:
		r.minLinear = gputypes.FilterMode(arg&0xFF) == gputypes.FilterModeLinear
		r.magLinear = gputypes.FilterMode(arg>>8&0xFF) == gputypes.FilterModeLinear
	case ge.OpTWRAP:
		r.wrapU = gputypes.AddressMode(arg & 0xFF)
		r.wrapV = gputypes.AddressMode(arg >> 8 & 0xFF)
	case ge.OpTFUNC:
		r.texFunc = arg & 7
		r.texAlpha = arg&(1<<8) != 0

	case ge.OpCLEAR:
		r.clear = arg
	case ge.OpSCISSOR1:
		r.scissor[0], r.scissor[1] = int(arg&0x3FF), int(arg>>10&0x3FF)
	case ge.OpSCISSOR2:
		r.scissor[2], r.scissor[3] = int(arg&0x3FF), int(arg>>10&0x3FF)
	case ge.OpATST:
		r.alphaFunc = gputypes.CompareFunction(arg & 0xFF)
		r.alphaRef = byte(arg >> 8)
		r.alphaMask = byte(arg >> 16)
	case ge.OpALPHA:
		c := gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactor(arg & 0xF),
			DstFactor: gputypes.BlendFactor(arg >> 4 & 0xF),
			Operation: gputypes.BlendOperation(arg >> 8 & 0xF),
		}
		r.equation.Color, r.equation.Alpha = c, c
	case ge.OpSFIX:
		r.equation.Constant = blend.Color{byte(arg), byte(arg >> 8), byte(arg >> 16), 0xFF}

	case ge.OpTRXSBP, ge.OpTRXSBW, ge.OpTRXDBP, ge.OpTRXDBW:
		r.trx[op-ge.OpTRXSBP] = arg
	case ge.OpTRXSPOS:
		r.trx[4] = arg
	case ge.OpTRXDPOS:
		r.trx[5] = arg
	case ge.OpTRXSIZE:
		r.trx[6] = arg
	case ge.OpTRXKICK:
		return d.transfer(bit(arg))
	}
	return nil
}

// load stores a matrix element and returns the next index.
func load(m []float32, i int, arg uint32) int {
	if i >= 0 && i < len(m) {
		m[i] = ge.FromFloat24(arg)
	}
	return i + 1
}

func (d *Device) loadPalette(entries int) {
	r := &d.regs
	addr := mem.Addr((r.cbph>>16&0xF)<<24 | r.cbp&0xFFFFFF)
	n := min(entries, texel.PaletteEntries) * 4
	src := d.alloc.Bytes(addr, n)
	if src == nil {
		slogger().Warn("sim: palette outside memory", "addr", uint32(addr))
		return
	}
	copy(r.clut[:], src)
}

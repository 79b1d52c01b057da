// Package arm64 provides typed AArch64 instruction-word encoders for
// the AAPCS64 compiler backend. Every AArch64 instruction is a fixed
// 32-bit word, so unlike the amd64 package there is no variable-length
// prefix/opcode/ModRM assembly — each function here just computes one
// uint32 and hands it to the buffer. Encodings are bit-accurate against
// the Arm Architecture Reference Manual, not transliterated from the
// source implementation's macros (spec.md §9 flags those as
// approximate).
package arm64

import "github.com/tramp-ffi/trampoline/internal/asm"

// Reg is a 5-bit AArch64 register index. In most contexts register 31
// is the zero register (XZR/WZR); in the few instruction forms that
// take SP as an operand (ADD/SUB immediate, and as a load/store base),
// the same encoding instead means the stack pointer. Callers pick
// SP/XZR from context; this package does not disambiguate for them.
type Reg int

const (
	X0 Reg = iota
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15
	X16
	X17
	X18
	X19
	X20
	X21
	X22
	X23
	X24
	X25
	X26
	X27
	X28
	X29 // frame pointer (FP)
	X30 // link register (LR)
)

// SP and XZR share encoding 31; the instruction form determines which
// one is meant.
const (
	SP  Reg = 31
	XZR Reg = 31
)

// V0..V31 are the SIMD/FP registers, used here only in their scalar
// forms (the S register view for FLOAT, the D view for DOUBLE).
const (
	V0 Reg = iota
	V1
	V2
	V3
	V4
	V5
	V6
	V7
	V8
	V9
	V10
	V11
	V12
	V13
	V14
	V15
	V16
	V17
	V18
	V19
	V20
	V21
	V22
	V23
	V24
	V25
	V26
	V27
	V28
	V29
	V30
	V31
)

// Width selects the transfer size of a load or store.
type Width int

const (
	Width8 Width = iota
	Width16
	Width32
	Width64
)

// MOVZ emits `MOVZ Xd, #imm16, LSL #(hw*16)`, loading imm16 into bits
// [hw*16+15:hw*16] of Xd and zeroing every other bit.
func MOVZ(buf *asm.Buffer, rd Reg, imm16 uint16, hw uint8) {
	buf.ARMWord(movWide(0b10, rd, imm16, hw))
}

// MOVK emits `MOVK Xd, #imm16, LSL #(hw*16)`, loading imm16 into bits
// [hw*16+15:hw*16] of Xd and leaving every other bit of Xd unchanged.
func MOVK(buf *asm.Buffer, rd Reg, imm16 uint16, hw uint8) {
	buf.ARMWord(movWide(0b11, rd, imm16, hw))
}

func movWide(opc uint32, rd Reg, imm16 uint16, hw uint8) uint32 {
	const sf = uint32(1) << 31 // 64-bit variant
	return sf | opc<<29 | 0b100101<<23 | uint32(hw&0b11)<<21 | uint32(imm16)<<5 | uint32(rd)
}

// LoadImm64 emits the four-instruction MOVZ/MOVK sequence that
// materializes an arbitrary 64-bit constant in rd: AArch64 has no
// single instruction that can.
func LoadImm64(buf *asm.Buffer, rd Reg, imm uint64) {
	MOVZ(buf, rd, uint16(imm), 0)
	MOVK(buf, rd, uint16(imm>>16), 1)
	MOVK(buf, rd, uint16(imm>>32), 2)
	MOVK(buf, rd, uint16(imm>>48), 3)
}

// MOVReg emits `MOV Xd, Xm` via its canonical `ORR Xd, XZR, Xm` alias.
func MOVReg(buf *asm.Buffer, rd, rm Reg) {
	const sf = uint32(1) << 31
	word := sf | 0b01<<29 | 0b01010<<24 | uint32(rm)<<16 | uint32(XZR)<<5 | uint32(rd)
	buf.ARMWord(word)
}

// ADDImm emits `ADD Xd, Xn, #imm12` (no shift). Rn/Rd encoding 31
// means SP in this instruction class, enabling stack-pointer
// arithmetic.
func ADDImm(buf *asm.Buffer, rd, rn Reg, imm12 uint16) {
	buf.ARMWord(addSubImm(0, rd, rn, imm12))
}

// SUBImm emits `SUB Xd, Xn, #imm12`.
func SUBImm(buf *asm.Buffer, rd, rn Reg, imm12 uint16) {
	buf.ARMWord(addSubImm(1, rd, rn, imm12))
}

func addSubImm(op uint32, rd, rn Reg, imm12 uint16) uint32 {
	const sf = uint32(1) << 31
	return sf | op<<30 | 0<<29 /* S=0 */ | 0b10001<<24 | 0<<22 /* shift=0 */ | uint32(imm12&0xFFF)<<10 | uint32(rn)<<5 | uint32(rd)
}

// ldstSizeOpc returns the size/opc fields of the LDR/STR (immediate,
// unsigned offset) encoding for the given width, load-vs-store, and
// (for loads) sign-extension. Store ignores signed.
func ldstSizeOpc(width Width, isLoad, signed bool) (size, opc uint32) {
	switch width {
	case Width8:
		size = 0b00
	case Width16:
		size = 0b01
	case Width32:
		size = 0b10
	case Width64:
		size = 0b11
	}
	if !isLoad {
		return size, 0b00
	}
	if !signed || width == Width64 {
		// A 64-bit load fills Xt entirely; there is nothing to extend.
		return size, 0b01
	}
	// Sign-extending loads into a 64-bit Xt (LDRSB, LDRSH, LDRSW) all
	// use opc=10; opc=11 would select the 32-bit Wt form of LDRSB/LDRSH.
	// This package only ever sign-extends up to a full Xt.
	return size, 0b10
}

// LoadGPR emits a load from [base, #imm12] (scaled by the access
// width) into an integer register, at the given width, zero- or
// sign-extended up to the full 64-bit register per signed.
func LoadGPR(buf *asm.Buffer, rt, base Reg, imm12 uint16, width Width, signed bool) {
	size, opc := ldstSizeOpc(width, true, signed)
	buf.ARMWord(ldstUnsignedImm(size, opc, base, rt, imm12))
}

// StoreGPR emits a store of rt's low `width` bytes to [base, #imm12]
// (scaled by the access width).
func StoreGPR(buf *asm.Buffer, rt, base Reg, imm12 uint16, width Width) {
	size, opc := ldstSizeOpc(width, false, false)
	buf.ARMWord(ldstUnsignedImm(size, opc, base, rt, imm12))
}

// LoadFPR emits `LDR St/Dt, [base, #imm12]` (32- or 64-bit scalar
// float load), selected by width (only Width32 and Width64 are valid).
func LoadFPR(buf *asm.Buffer, vt, base Reg, imm12 uint16, width Width) {
	size := uint32(0b10)
	if width == Width64 {
		size = 0b11
	}
	buf.ARMWord(ldstUnsignedImmFP(size, 0b01, base, vt, imm12))
}

// StoreFPR emits `STR St/Dt, [base, #imm12]`.
func StoreFPR(buf *asm.Buffer, vt, base Reg, imm12 uint16, width Width) {
	size := uint32(0b10)
	if width == Width64 {
		size = 0b11
	}
	buf.ARMWord(ldstUnsignedImmFP(size, 0b00, base, vt, imm12))
}

func ldstUnsignedImm(size, opc uint32, base, rt Reg, imm12 uint16) uint32 {
	// Unsigned-offset immediate is pre-scaled by the access size; the
	// caller passes an already-scaled imm12 (e.g. in units of 8 for a
	// 64-bit access) so the raw field here is imm12 as given.
	return size<<30 | 0b111<<27 | 0b01<<24 | opc<<22 | uint32(imm12&0xFFF)<<10 | uint32(base)<<5 | uint32(rt)
}

func ldstUnsignedImmFP(size, opc uint32, base, vt Reg, imm12 uint16) uint32 {
	// Same family as ldstUnsignedImm with the SIMD&FP bit (26) set.
	return size<<30 | 0b111<<27 | 1<<26 | 0b01<<24 | opc<<22 | uint32(imm12&0xFFF)<<10 | uint32(base)<<5 | uint32(vt)
}

// stp/ldp addressing-mode selector for bits [25:23] of the pair
// encoding.
const (
	pairPostIndex   = 0b001
	pairOffset      = 0b010
	pairPreIndex    = 0b011
)

// STPPreIndex emits `STP Xt, Xt2, [SP, #imm]!`: writes SP back before
// the access, the standard AAPCS64 prologue "push a register pair"
// idiom. imm is in bytes and must be a multiple of 8 in [-512, 504].
func STPPreIndex(buf *asm.Buffer, rt, rt2 Reg, base Reg, imm int16) {
	buf.ARMWord(pairWord(0b10, 0, pairPreIndex, imm/8, rt2, base, rt))
}

// LDPPostIndex emits `LDP Xt, Xt2, [SP], #imm`: reads then adjusts SP,
// the matching epilogue "pop a register pair" idiom.
func LDPPostIndex(buf *asm.Buffer, rt, rt2 Reg, base Reg, imm int16) {
	buf.ARMWord(pairWord(0b10, 1, pairPostIndex, imm/8, rt2, base, rt))
}

// StoreStackPair emits `STP Xt, Xt2, [SP, #imm]` at a fixed (no
// writeback) stack offset, for frame-local stores rather than
// prologue/epilogue pushes. No compiler backend calls it at present.
func StoreStackPair(buf *asm.Buffer, rt, rt2 Reg, base Reg, imm int16) {
	buf.ARMWord(pairWord(0b10, 0, pairOffset, imm/8, rt2, base, rt))
}

// LoadStackPair emits `LDP Xt, Xt2, [SP, #imm]` at a fixed offset.
func LoadStackPair(buf *asm.Buffer, rt, rt2 Reg, base Reg, imm int16) {
	buf.ARMWord(pairWord(0b10, 1, pairOffset, imm/8, rt2, base, rt))
}

// pairWord builds an STP/LDP word: opc selects the 32/64-bit GPR
// variant, l distinguishes load (1) from store (0), variant selects
// the post-index/offset/pre-index addressing form, and imm7 is the
// already-divided-by-8 signed immediate.
func pairWord(opc, l, variant uint32, imm7 int16, rt2, base, rt Reg) uint32 {
	return opc<<30 | 0b101<<27 | 0<<26 /* V=0, general registers */ | variant<<23 |
		l<<22 | uint32(uint16(imm7)&0x7F)<<15 | uint32(rt2)<<10 | uint32(base)<<5 | uint32(rt)
}

// BR emits `BR Xn`: an unconditional branch to the address in Xn,
// without linking (no return address recorded).
func BR(buf *asm.Buffer, rn Reg) {
	buf.ARMWord(0xD61F0000 | uint32(rn)<<5)
}

// BLR emits `BLR Xn`: branch to the address in Xn, recording the
// return address in X30 (LR).
func BLR(buf *asm.Buffer, rn Reg) {
	buf.ARMWord(0xD63F0000 | uint32(rn)<<5)
}

// RET emits `RET Xn` (defaults to X30/LR when rn is X30).
func RET(buf *asm.Buffer, rn Reg) {
	buf.ARMWord(0xD65F0000 | uint32(rn)<<5)
}

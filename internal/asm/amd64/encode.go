// Package amd64 provides typed x86-64 instruction-encoding primitives
// shared by the System V and Microsoft x64 compiler backends. It holds
// no ABI knowledge (no register-bank assignment, no spill rules) — it
// only knows how to turn "move this register to that memory slot" into
// bytes. Grounded on the REX/ModR/M construction in the teacher's
// former internal/asm/amd64/impl.go (register3bits, rexPrefix
// composition) and the register-naming convention of its consts.go.
package amd64

import "github.com/tramp-ffi/trampoline/internal/asm"

// Reg is a 4-bit x86-64 register index. The same numbering space is
// used for the general-purpose and XMM register files; which file a
// given Reg refers to is a property of the instruction, not the value.
type Reg int

// General-purpose registers, encoded 0..15 (REX.B/R/X supplies bit 3
// for R8..R15).
const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// XMM registers share the same 4-bit encoding space as the GPRs.
const (
	XMM0 Reg = iota
	XMM1
	XMM2
	XMM3
	XMM4
	XMM5
	XMM6
	XMM7
	XMM8
	XMM9
	XMM10
	XMM11
	XMM12
	XMM13
	XMM14
	XMM15
)

// Width selects the operand size of a load or store.
type Width int

const (
	Width8 Width = iota
	Width16
	Width32
	Width64
)

// REX prefix bits (Intel SDM vol. 2A, 2.2.1).
const (
	rexBase byte = 0x40
	RexW    byte = 0x08
	RexR    byte = 0x04
	RexX    byte = 0x02
	RexB    byte = 0x01
)

// REX builds a REX prefix byte from its four bit fields.
func REX(w, r, x, b bool) byte {
	p := rexBase
	if w {
		p |= RexW
	}
	if r {
		p |= RexR
	}
	if x {
		p |= RexX
	}
	if b {
		p |= RexB
	}
	return p
}

// ModR/M addressing modes. Every memory operand in this package uses a
// compile-time-constant displacement, so mod is always disp8 or disp32,
// never the no-displacement or RIP-relative forms; a SIB byte appears
// only in the RSP-based StoreStackSlot* forms.
const (
	ModNoDisp = 0b00
	ModDisp8  = 0b01
	ModDisp32 = 0b10
	ModDirect = 0b11
)

// ModRM packs a ModR/M byte from its mod/reg/rm fields. reg and rm
// each contribute only their low 3 bits; the 4th bit is carried by
// REX.R (reg) or REX.B (rm) and must be emitted separately.
func ModRM(mod, reg, rm byte) byte {
	return mod<<6 | (reg&7)<<3 | (rm & 7)
}

func regBits(r Reg) (low3 byte, ext bool) {
	return byte(r) & 7, r >= 8
}

// needsByteREX reports whether r, used as an 8-bit operand, requires a
// REX prefix to select the SPL/BPL/SIL/DIL encoding rather than the
// legacy AH/CH/DH/BH one. RSP, RBP, RSI, and RDI (indices 4..7) are the
// registers this applies to; a REX prefix with every bit clear (0x40)
// is sufficient to disambiguate.
func needsByteREX(r Reg) bool {
	return r >= RSP && r <= RDI
}

// MovRegImm64 emits `MOV dst, imm64` (the "movabs" form: REX.W + B8+rd
// + 8 immediate bytes), the only x86-64 instruction able to load an
// arbitrary 64-bit constant — used to materialize the callee address.
func MovRegImm64(buf *asm.Buffer, dst Reg, imm uint64) {
	lo, ext := regBits(dst)
	buf.Byte(REX(true, false, false, ext))
	buf.Byte(0xB8 + lo)
	buf.Uint64(imm)
}

// Push emits `PUSH r64`.
func Push(buf *asm.Buffer, r Reg) {
	lo, ext := regBits(r)
	if ext {
		buf.Byte(REX(false, false, false, true))
	}
	buf.Byte(0x50 + lo)
}

// Pop emits `POP r64`.
func Pop(buf *asm.Buffer, r Reg) {
	lo, ext := regBits(r)
	if ext {
		buf.Byte(REX(false, false, false, true))
	}
	buf.Byte(0x58 + lo)
}

// MovRegReg emits `MOV dst, src` between two 64-bit GPRs.
func MovRegReg(buf *asm.Buffer, dst, src Reg) {
	dstLo, dstExt := regBits(dst)
	srcLo, srcExt := regBits(src)
	buf.Byte(REX(true, srcExt, false, dstExt))
	buf.Byte(0x89) // MOV r/m64, r64
	buf.Byte(ModRM(ModDirect, srcLo, dstLo))
}

// SubRSPImm32 emits `SUB RSP, imm32`, sign-extended to 64 bits.
func SubRSPImm32(buf *asm.Buffer, imm int32) {
	buf.Byte(REX(true, false, false, false))
	buf.Byte(0x81)
	buf.Byte(ModRM(ModDirect, 5, byte(RSP))) // /5 == SUB
	buf.Uint32(uint32(imm))
}

// AddRSPImm32 emits `ADD RSP, imm32`, sign-extended to 64 bits.
func AddRSPImm32(buf *asm.Buffer, imm int32) {
	buf.Byte(REX(true, false, false, false))
	buf.Byte(0x81)
	buf.Byte(ModRM(ModDirect, 0, byte(RSP))) // /0 == ADD
	buf.Uint32(uint32(imm))
}

// CallReg emits `CALL r64` (an indirect call through a register).
func CallReg(buf *asm.Buffer, r Reg) {
	lo, ext := regBits(r)
	if ext {
		buf.Byte(REX(false, false, false, true))
	}
	buf.Byte(0xFF)
	buf.Byte(ModRM(ModDirect, 2, lo)) // /2 == CALL
}

// Ret emits `RET`.
func Ret(buf *asm.Buffer) {
	buf.Byte(0xC3)
}

// EndBR64 emits the indirect-branch-tracking landing pad expected at
// the entry of any function reachable via an indirect CALL/JMP under
// CET-enabled toolchains. A trampoline's entry point is always called
// indirectly (the dispatcher holds its address as a function pointer),
// so it needs one even though the compiler never emits an indirect
// jump of its own.
func EndBR64(buf *asm.Buffer) {
	buf.Raw(0xF3, 0x0F, 0x1E, 0xFA)
}

func memModDisp(disp int32) (mod byte, dispIsByte bool) {
	if disp >= -128 && disp <= 127 {
		return ModDisp8, true
	}
	return ModDisp32, false
}

func emitDisp(buf *asm.Buffer, disp int32, dispIsByte bool) {
	if dispIsByte {
		buf.Byte(byte(int8(disp)))
	} else {
		buf.Uint32(uint32(disp))
	}
}

// LoadInt emits a load from [base+disp] into dst, at the given width,
// zero- or sign-extended up to a full 64-bit GPR per signed. base must
// not be RSP or R12: their low bits (100) encode "SIB follows", and
// this compiler's register allocation never assigns either to a
// memory-operand base (the one base that must be RSP — stack-relative
// argument stores — goes through StoreStackSlot/StoreStackSlotFloat
// below, which emit the required SIB byte explicitly). RBP and R13 are
// usable bases because mod is never 00 here, so their low bits (101)
// never select the RIP-relative form.
func LoadInt(buf *asm.Buffer, dst, base Reg, disp int32, width Width, signed bool) {
	dstLo, dstExt := regBits(dst)
	baseLo, baseExt := regBits(base)
	mod, dispIsByte := memModDisp(disp)

	switch width {
	case Width64:
		buf.Byte(REX(true, dstExt, false, baseExt))
		buf.Byte(0x8B) // MOV r64, r/m64
		buf.Byte(ModRM(mod, dstLo, baseLo))
	case Width32:
		if signed {
			buf.Byte(REX(true, dstExt, false, baseExt))
			buf.Byte(0x63) // MOVSXD r64, r/m32
			buf.Byte(ModRM(mod, dstLo, baseLo))
		} else {
			// A plain 32-bit MOV zero-extends into the full 64-bit
			// register as an architectural side effect of writing a
			// 32-bit destination.
			if dstExt || baseExt {
				buf.Byte(REX(false, dstExt, false, baseExt))
			}
			buf.Byte(0x8B)
			buf.Byte(ModRM(mod, dstLo, baseLo))
		}
	case Width16:
		buf.Byte(REX(true, dstExt, false, baseExt))
		buf.Byte(0x0F)
		if signed {
			buf.Byte(0xBF) // MOVSX r64, r/m16
		} else {
			buf.Byte(0xB7) // MOVZX r64, r/m16
		}
		buf.Byte(ModRM(mod, dstLo, baseLo))
	case Width8:
		buf.Byte(REX(true, dstExt, false, baseExt))
		buf.Byte(0x0F)
		if signed {
			buf.Byte(0xBE) // MOVSX r64, r/m8
		} else {
			buf.Byte(0xB6) // MOVZX r64, r/m8
		}
		buf.Byte(ModRM(mod, dstLo, baseLo))
	}
	emitDisp(buf, disp, dispIsByte)
}

// StoreInt emits a store of src's low `width` bytes to [base+disp].
// Same base-register restriction as LoadInt.
func StoreInt(buf *asm.Buffer, src, base Reg, disp int32, width Width) {
	srcLo, srcExt := regBits(src)
	baseLo, baseExt := regBits(base)
	mod, dispIsByte := memModDisp(disp)

	switch width {
	case Width64:
		buf.Byte(REX(true, srcExt, false, baseExt))
		buf.Byte(0x89) // MOV r/m64, r64
	case Width32:
		if srcExt || baseExt {
			buf.Byte(REX(false, srcExt, false, baseExt))
		}
		buf.Byte(0x89)
	case Width16:
		buf.Byte(0x66) // operand-size override
		if srcExt || baseExt {
			buf.Byte(REX(false, srcExt, false, baseExt))
		}
		buf.Byte(0x89)
	case Width8:
		if srcExt || baseExt || needsByteREX(src) {
			buf.Byte(REX(false, srcExt, false, baseExt))
		}
		buf.Byte(0x88) // MOV r/m8, r8
	}
	buf.Byte(ModRM(mod, srcLo, baseLo))
	emitDisp(buf, disp, dispIsByte)
}

// LoadFloat emits `MOVSS`/`MOVSD dst, [base+disp]` (single- or
// double-precision scalar load into an XMM register).
func LoadFloat(buf *asm.Buffer, dst, base Reg, disp int32, double bool) {
	dstLo, dstExt := regBits(dst)
	baseLo, baseExt := regBits(base)
	mod, dispIsByte := memModDisp(disp)

	if double {
		buf.Byte(0xF2)
	} else {
		buf.Byte(0xF3)
	}
	if dstExt || baseExt {
		buf.Byte(REX(false, dstExt, false, baseExt))
	}
	buf.Raw(0x0F, 0x10) // MOVSS/MOVSD xmm, m32/m64
	buf.Byte(ModRM(mod, dstLo, baseLo))
	emitDisp(buf, disp, dispIsByte)
}

// StoreFloat emits `MOVSS`/`MOVSD [base+disp], src`.
func StoreFloat(buf *asm.Buffer, src, base Reg, disp int32, double bool) {
	srcLo, srcExt := regBits(src)
	baseLo, baseExt := regBits(base)
	mod, dispIsByte := memModDisp(disp)

	if double {
		buf.Byte(0xF2)
	} else {
		buf.Byte(0xF3)
	}
	if srcExt || baseExt {
		buf.Byte(REX(false, srcExt, false, baseExt))
	}
	buf.Raw(0x0F, 0x11) // MOVSS/MOVSD m32/m64, xmm
	buf.Byte(ModRM(mod, srcLo, baseLo))
	emitDisp(buf, disp, dispIsByte)
}

// StoreStackSlot emits a 64-bit store to [RSP+disp]. RSP's low 3 bits
// (100) always require an explicit SIB byte (base=100 means "SIB
// follows", never "RSP direct") — the one place in this package where
// that quirk is unavoidable, since an outgoing stack argument is by
// definition RSP-relative.
func StoreStackSlot(buf *asm.Buffer, src Reg, disp int32) {
	srcLo, srcExt := regBits(src)
	mod, dispIsByte := memModDisp(disp)
	buf.Byte(REX(true, srcExt, false, false))
	buf.Byte(0x89)
	buf.Byte(ModRM(mod, srcLo, 0b100))
	buf.Byte(sib(0, 0b100, 0b100)) // no index, base=RSP
	emitDisp(buf, disp, dispIsByte)
}

// StoreStackSlotFloat emits a MOVSD (8-byte) or, when double is false,
// MOVSS (4-byte) store to [RSP+disp], used when a floating-point stack
// argument must be written from an XMM register rather than a GPR.
func StoreStackSlotFloat(buf *asm.Buffer, src Reg, disp int32, double bool) {
	srcLo, srcExt := regBits(src)
	mod, dispIsByte := memModDisp(disp)
	if double {
		buf.Byte(0xF2)
	} else {
		buf.Byte(0xF3)
	}
	if srcExt {
		buf.Byte(REX(false, srcExt, false, false))
	}
	buf.Raw(0x0F, 0x11)
	buf.Byte(ModRM(mod, srcLo, 0b100))
	buf.Byte(sib(0, 0b100, 0b100))
	emitDisp(buf, disp, dispIsByte)
}

func sib(scale, index, base byte) byte {
	return scale<<6 | (index&7)<<3 | (base & 7)
}

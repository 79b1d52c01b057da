package compiler

import (
	"github.com/tramp-ffi/trampoline/internal/abi"
	"github.com/tramp-ffi/trampoline/internal/asm"
	"github.com/tramp-ffi/trampoline/internal/asm/arm64"
)

var aapcsIntArgRegs = [8]arm64.Reg{
	arm64.X0, arm64.X1, arm64.X2, arm64.X3, arm64.X4, arm64.X5, arm64.X6, arm64.X7,
}
var aapcsFPArgRegs = [8]arm64.Reg{
	arm64.V0, arm64.V1, arm64.V2, arm64.V3, arm64.V4, arm64.V5, arm64.V6, arm64.V7,
}

// Callee-saved registers holding the vector base and return-buffer
// address across the call ("X19/X20 on AAPCS64", spec.md §4.4 step 2).
const (
	aapcsVectorBaseReg = arm64.X19
	aapcsReturnBufReg  = arm64.X20
)

// Scratch registers. X16 is AAPCS64's conventional intra-procedure-call
// scratch register (IP0), the idiomatic choice for a computed branch
// target such as this trampoline's callee address. V16 is fully
// caller-saved (unlike V8..V15, whose low 64 bits are callee-saved),
// so it needs no save/restore around its use as a float stack-spill
// temporary.
const (
	aapcsPtrScratch   = arm64.X9
	aapcsValScratch   = arm64.X10
	aapcsFloatScratch = arm64.V16
	aapcsCalleeReg    = arm64.X16
)

func compileAAPCS64(buf *asm.Buffer, sig *abi.Signature, plan *abi.Plan, calleeAddr uintptr) {
	// Prologue: push the frame-pointer/link-register pair, establish
	// the new frame, then push the pair this body holds live across
	// the call. AAPCS64 pairs callee-saved pushes naturally (each STP
	// keeps SP 16-byte aligned on its own), unlike x86-64's three
	// single pushes.
	arm64.STPPreIndex(buf, arm64.X29, arm64.X30, arm64.SP, -16)
	arm64.ADDImm(buf, arm64.X29, arm64.SP, 0) // MOV X29, SP (the ORR form would read register 31 as XZR)
	arm64.STPPreIndex(buf, aapcsVectorBaseReg, aapcsReturnBufReg, arm64.SP, -16)
	arm64.MOVReg(buf, aapcsVectorBaseReg, arm64.X0) // incoming arg 1: vector base
	arm64.MOVReg(buf, aapcsReturnBufReg, arm64.X2)  // incoming arg 3: return buffer

	if plan.StackReserve > 0 {
		arm64.SUBImm(buf, arm64.SP, arm64.SP, uint16(plan.StackReserve))
	}

	for i, loc := range plan.Params {
		layout := abi.TypeLayout(sig.Params[i], abi.AAPCS64)
		arm64.LoadGPR(buf, aapcsPtrScratch, aapcsVectorBaseReg, uint16(i), arm64.Width64, false)
		materializeAAPCS64Param(buf, loc, layout)
	}

	arm64.LoadImm64(buf, aapcsCalleeReg, uint64(calleeAddr))
	arm64.BLR(buf, aapcsCalleeReg)

	captureAAPCS64Return(buf, sig, plan)

	if plan.StackReserve > 0 {
		arm64.ADDImm(buf, arm64.SP, arm64.SP, uint16(plan.StackReserve))
	}
	arm64.LDPPostIndex(buf, aapcsVectorBaseReg, aapcsReturnBufReg, arm64.SP, 16)
	arm64.LDPPostIndex(buf, arm64.X29, arm64.X30, arm64.SP, 16)
	arm64.RET(buf, arm64.X30)
}

func materializeAAPCS64Param(buf *asm.Buffer, loc abi.Location, layout abi.Layout) {
	width, signed := widthOfARM64(layout)

	switch loc.Kind {
	case abi.LocGPR:
		arm64.LoadGPR(buf, aapcsIntArgRegs[loc.Reg], aapcsPtrScratch, 0, width, signed)
	case abi.LocFPR:
		arm64.LoadFPR(buf, aapcsFPArgRegs[loc.Reg], aapcsPtrScratch, 0, floatWidthARM64(layout))
	case abi.LocGPRPair:
		arm64.LoadGPR(buf, aapcsIntArgRegs[loc.Reg], aapcsPtrScratch, 0, arm64.Width64, false)
		arm64.LoadGPR(buf, aapcsIntArgRegs[loc.RegHi], aapcsPtrScratch, 1, arm64.Width64, false)
	case abi.LocStack:
		slot := uint16(loc.StackOffset / 8)
		switch {
		case layout.Class == abi.ClassFloat:
			fw := floatWidthARM64(layout)
			arm64.LoadFPR(buf, aapcsFloatScratch, aapcsPtrScratch, 0, fw)
			arm64.StoreFPR(buf, aapcsFloatScratch, arm64.SP, scaledImm(loc.StackOffset, fw), fw)
		case layout.Class == abi.ClassInt128:
			arm64.LoadGPR(buf, aapcsValScratch, aapcsPtrScratch, 0, arm64.Width64, false)
			arm64.StoreGPR(buf, aapcsValScratch, arm64.SP, slot, arm64.Width64)
			arm64.LoadGPR(buf, aapcsValScratch, aapcsPtrScratch, 1, arm64.Width64, false)
			arm64.StoreGPR(buf, aapcsValScratch, arm64.SP, slot+1, arm64.Width64)
		default:
			arm64.LoadGPR(buf, aapcsValScratch, aapcsPtrScratch, 0, width, signed)
			arm64.StoreGPR(buf, aapcsValScratch, arm64.SP, slot, arm64.Width64)
		}
	}
}

func captureAAPCS64Return(buf *asm.Buffer, sig *abi.Signature, plan *abi.Plan) {
	layout := abi.TypeLayout(sig.Return, abi.AAPCS64)
	switch plan.Return.Kind {
	case abi.RetNone:
	case abi.RetInRegGPR:
		width, _ := widthOfARM64(layout)
		arm64.StoreGPR(buf, arm64.X0, aapcsReturnBufReg, 0, width)
	case abi.RetInRegFPR:
		arm64.StoreFPR(buf, arm64.V0, aapcsReturnBufReg, 0, floatWidthARM64(layout))
	case abi.RetInRegGPRPair:
		arm64.StoreGPR(buf, arm64.X0, aapcsReturnBufReg, 0, arm64.Width64)
		arm64.StoreGPR(buf, arm64.X1, aapcsReturnBufReg, 1, arm64.Width64)
	case abi.RetHiddenPointer:
		// Not produced by the AAPCS64 classifier in this scope
		// (structs > 16 bytes are out of scope); nothing to do.
	}
}

// widthOfARM64 maps a resolved Layout to the arm64 encoder's Width and
// signedness for a scalar (non-float, non-128-bit) load/store. Unlike
// LoadGPR's imm12 field (which the caller must pre-scale), Width here
// only selects the transfer size and extension.
func widthOfARM64(layout abi.Layout) (arm64.Width, bool) {
	switch layout.Size {
	case 1:
		return arm64.Width8, layout.Signed
	case 2:
		return arm64.Width16, layout.Signed
	case 4:
		return arm64.Width32, layout.Signed
	default:
		return arm64.Width64, layout.Signed
	}
}

func floatWidthARM64(layout abi.Layout) arm64.Width {
	if layout.Size == 8 {
		return arm64.Width64
	}
	return arm64.Width32
}

// scaledImm converts a byte offset to the pre-scaled imm12 field the
// LDR/STR (unsigned immediate) encoding expects for a given width.
func scaledImm(byteOffset int, width arm64.Width) uint16 {
	switch width {
	case arm64.Width8:
		return uint16(byteOffset)
	case arm64.Width16:
		return uint16(byteOffset / 2)
	case arm64.Width32:
		return uint16(byteOffset / 4)
	default:
		return uint16(byteOffset / 8)
	}
}

package compiler

import (
	"github.com/tramp-ffi/trampoline/internal/abi"
	"github.com/tramp-ffi/trampoline/internal/asm"
	"github.com/tramp-ffi/trampoline/internal/asm/amd64"
)

// System V AMD64 argument registers, in classifier bank order.
var sysvIntArgRegs = [6]amd64.Reg{amd64.RDI, amd64.RSI, amd64.RDX, amd64.RCX, amd64.R8, amd64.R9}
var sysvFPArgRegs = [8]amd64.Reg{
	amd64.XMM0, amd64.XMM1, amd64.XMM2, amd64.XMM3,
	amd64.XMM4, amd64.XMM5, amd64.XMM6, amd64.XMM7,
}

// Callee-saved registers the prologue dedicates to holding the
// argument-vector base and return-buffer address across the call
// (spec.md §4.4 step 2's "R14/R12 on System V" design, adjusted to
// R14/R15 here: R12's low 3 bits are 0b100, which x86-64 always
// decodes as "SIB byte follows" in a memory operand's ModR/M byte, and
// LoadInt/StoreInt/LoadFloat/StoreFloat never emit one — only
// StoreStackSlot*'s hardcoded RSP encoding does. R15 carries the same
// callee-saved guarantee without that encoding hazard.)
const (
	sysvVectorBaseReg = amd64.R14
	sysvReturnBufReg  = amd64.R15
)

// Caller-saved scratch registers, unused by the argument/return
// register banks above, free for the duration of argument
// materialization.
const (
	sysvPtrScratch   = amd64.R10 // holds each parameter's value-pointer
	sysvValScratch   = amd64.R11 // holds a stack-destined integer value
	sysvFloatScratch = amd64.XMM8
	sysvCalleeReg    = amd64.RAX
)

func compileSystemV(buf *asm.Buffer, sig *abi.Signature, plan *abi.Plan, calleeAddr uintptr) {
	amd64.EndBR64(buf)

	// Prologue: establish the frame, then save the two registers this
	// body holds live across the call. Push order RBP, R14, R15; the
	// epilogue pops in the reverse order.
	amd64.Push(buf, amd64.RBP)
	amd64.MovRegReg(buf, amd64.RBP, amd64.RSP)
	amd64.Push(buf, sysvVectorBaseReg)
	amd64.Push(buf, sysvReturnBufReg)
	amd64.MovRegReg(buf, sysvVectorBaseReg, amd64.RDI) // incoming arg 1: vector base
	amd64.MovRegReg(buf, sysvReturnBufReg, amd64.RDX)  // incoming arg 3: return buffer

	if plan.StackReserve > 0 {
		amd64.SubRSPImm32(buf, int32(plan.StackReserve))
	}

	for i, loc := range plan.Params {
		layout := abi.TypeLayout(sig.Params[i], abi.SystemVAMD64)
		amd64.LoadInt(buf, sysvPtrScratch, sysvVectorBaseReg, int32(i*8), amd64.Width64, false)
		materializeSysVParam(buf, loc, layout)
	}

	// Fixed-arity System V contract: AL must hold the number of SSE
	// registers used (zero is always a safe, conservative value for a
	// non-variadic callee; spec.md §4.4 step 5).
	buf.Raw(0xB0, 0x00) // MOV AL, 0

	amd64.MovRegImm64(buf, sysvCalleeReg, uint64(calleeAddr))
	amd64.CallReg(buf, sysvCalleeReg)

	captureSysVReturn(buf, sig, plan)

	if plan.StackReserve > 0 {
		amd64.AddRSPImm32(buf, int32(plan.StackReserve))
	}
	amd64.Pop(buf, sysvReturnBufReg)
	amd64.Pop(buf, sysvVectorBaseReg)
	amd64.Pop(buf, amd64.RBP)
	amd64.Ret(buf)
}

// materializeSysVParam dereferences the value pointer already loaded
// into sysvPtrScratch and deposits it at loc's location.
func materializeSysVParam(buf *asm.Buffer, loc abi.Location, layout abi.Layout) {
	width, signed := widthOfAMD64(layout)

	switch loc.Kind {
	case abi.LocGPR:
		amd64.LoadInt(buf, sysvIntArgRegs[loc.Reg], sysvPtrScratch, 0, width, signed)
	case abi.LocFPR:
		amd64.LoadFloat(buf, sysvFPArgRegs[loc.Reg], sysvPtrScratch, 0, layout.Size == 8)
	case abi.LocGPRPair:
		amd64.LoadInt(buf, sysvIntArgRegs[loc.Reg], sysvPtrScratch, 0, amd64.Width64, false)
		amd64.LoadInt(buf, sysvIntArgRegs[loc.RegHi], sysvPtrScratch, 8, amd64.Width64, false)
	case abi.LocStack:
		switch {
		case layout.Class == abi.ClassFloat:
			double := layout.Size == 8
			amd64.LoadFloat(buf, sysvFloatScratch, sysvPtrScratch, 0, double)
			amd64.StoreStackSlotFloat(buf, sysvFloatScratch, int32(loc.StackOffset), double)
		case layout.Class == abi.ClassInt128:
			amd64.LoadInt(buf, sysvValScratch, sysvPtrScratch, 0, amd64.Width64, false)
			amd64.StoreStackSlot(buf, sysvValScratch, int32(loc.StackOffset))
			amd64.LoadInt(buf, sysvValScratch, sysvPtrScratch, 8, amd64.Width64, false)
			amd64.StoreStackSlot(buf, sysvValScratch, int32(loc.StackOffset+8))
		default:
			amd64.LoadInt(buf, sysvValScratch, sysvPtrScratch, 0, width, signed)
			amd64.StoreStackSlot(buf, sysvValScratch, int32(loc.StackOffset))
		}
	}
}

func captureSysVReturn(buf *asm.Buffer, sig *abi.Signature, plan *abi.Plan) {
	layout := abi.TypeLayout(sig.Return, abi.SystemVAMD64)
	switch plan.Return.Kind {
	case abi.RetNone:
	case abi.RetInRegGPR:
		width, _ := widthOfAMD64(layout)
		amd64.StoreInt(buf, amd64.RAX, sysvReturnBufReg, 0, width)
	case abi.RetInRegFPR:
		amd64.StoreFloat(buf, amd64.XMM0, sysvReturnBufReg, 0, layout.Size == 8)
	case abi.RetInRegGPRPair:
		amd64.StoreInt(buf, amd64.RAX, sysvReturnBufReg, 0, amd64.Width64)
		amd64.StoreInt(buf, amd64.RDX, sysvReturnBufReg, 8, amd64.Width64)
	case abi.RetHiddenPointer:
		// Not produced by the System V classifier (INT128/UINT128
		// returns use RetInRegGPRPair there); nothing to do if it ever
		// were, since the callee writes the buffer directly.
	}
}

// widthOfAMD64 maps a resolved Layout to the amd64 encoder's Width and
// signedness for a scalar (non-float, non-128-bit) load/store.
func widthOfAMD64(layout abi.Layout) (amd64.Width, bool) {
	switch layout.Size {
	case 1:
		return amd64.Width8, layout.Signed
	case 2:
		return amd64.Width16, layout.Signed
	case 4:
		return amd64.Width32, layout.Signed
	default:
		return amd64.Width64, layout.Signed
	}
}

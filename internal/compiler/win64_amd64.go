package compiler

import (
	"github.com/tramp-ffi/trampoline/internal/abi"
	"github.com/tramp-ffi/trampoline/internal/asm"
	"github.com/tramp-ffi/trampoline/internal/asm/amd64"
)

// Microsoft x64 paired argument slots: the Nth slot shares a GPR and an
// XMM register positionally (spec.md §4.3.2's adopted paired-slot
// model).
var win64GPRSlotRegs = [4]amd64.Reg{amd64.RCX, amd64.RDX, amd64.R8, amd64.R9}
var win64FPRSlotRegs = [4]amd64.Reg{amd64.XMM0, amd64.XMM1, amd64.XMM2, amd64.XMM3}

// Callee-saved registers holding the vector base and return-buffer
// address across the call ("R13/R14 on Microsoft x64", spec.md §4.4
// step 2). Both are callee-saved on Win64, unlike System V's larger
// caller-saved XMM set, which is why the float scratch register below
// is deliberately chosen outside the argument bank rather than reused
// from it.
const (
	win64VectorBaseReg = amd64.R13
	win64ReturnBufReg  = amd64.R14
)

const (
	win64PtrScratch   = amd64.R10
	win64ValScratch   = amd64.R11
	win64FloatScratch = amd64.XMM4 // caller-saved on Win64; XMM6..15 are not
	win64CalleeReg    = amd64.RAX
)

// win64ShadowSpaceBytes is the fixed reservation Win64 requires at the
// top of every outgoing argument area; Plan.StackOffset values are
// relative to the first byte past it (spec.md §4.3.2).
const win64ShadowSpaceBytes = 32

func compileWin64(buf *asm.Buffer, sig *abi.Signature, plan *abi.Plan, calleeAddr uintptr) {
	amd64.EndBR64(buf)

	amd64.Push(buf, amd64.RBP)
	amd64.MovRegReg(buf, amd64.RBP, amd64.RSP)
	amd64.Push(buf, win64VectorBaseReg)
	amd64.Push(buf, win64ReturnBufReg)
	amd64.MovRegReg(buf, win64VectorBaseReg, amd64.RCX) // incoming arg 1: vector base
	amd64.MovRegReg(buf, win64ReturnBufReg, amd64.R8)   // incoming arg 3: return buffer

	if plan.StackReserve > 0 {
		amd64.SubRSPImm32(buf, int32(plan.StackReserve))
	}

	if plan.Return.Kind == abi.RetHiddenPointer {
		// Materialized before any ordinary parameter consumes the
		// first argument register (spec.md §4.4 edge-case policy).
		amd64.MovRegReg(buf, win64GPRSlotRegs[plan.Return.HiddenPointerReg], win64ReturnBufReg)
	}

	for i, loc := range plan.Params {
		layout := abi.TypeLayout(sig.Params[i], abi.MicrosoftX64)
		amd64.LoadInt(buf, win64PtrScratch, win64VectorBaseReg, int32(i*8), amd64.Width64, false)
		materializeWin64Param(buf, loc, layout)
	}

	amd64.MovRegImm64(buf, win64CalleeReg, uint64(calleeAddr))
	amd64.CallReg(buf, win64CalleeReg)

	captureWin64Return(buf, sig, plan)

	if plan.StackReserve > 0 {
		amd64.AddRSPImm32(buf, int32(plan.StackReserve))
	}
	amd64.Pop(buf, win64ReturnBufReg)
	amd64.Pop(buf, win64VectorBaseReg)
	amd64.Pop(buf, amd64.RBP)
	amd64.Ret(buf)
}

func materializeWin64Param(buf *asm.Buffer, loc abi.Location, layout abi.Layout) {
	width, signed := widthOfAMD64(layout)

	if loc.ByReference {
		// A >8-byte value (INT128/UINT128): Win64 has no register-pair
		// passing convention, so the pointer already in win64PtrScratch
		// is forwarded unchanged rather than dereferenced.
		switch loc.Kind {
		case abi.LocGPR:
			amd64.MovRegReg(buf, win64GPRSlotRegs[loc.Reg], win64PtrScratch)
		case abi.LocStack:
			amd64.StoreStackSlot(buf, win64PtrScratch, int32(win64ShadowSpaceBytes+loc.StackOffset))
		}
		return
	}

	switch loc.Kind {
	case abi.LocGPR:
		amd64.LoadInt(buf, win64GPRSlotRegs[loc.Reg], win64PtrScratch, 0, width, signed)
	case abi.LocFPR:
		amd64.LoadFloat(buf, win64FPRSlotRegs[loc.Reg], win64PtrScratch, 0, layout.Size == 8)
	case abi.LocStack:
		off := int32(win64ShadowSpaceBytes + loc.StackOffset)
		if layout.Class == abi.ClassFloat {
			double := layout.Size == 8
			amd64.LoadFloat(buf, win64FloatScratch, win64PtrScratch, 0, double)
			amd64.StoreStackSlotFloat(buf, win64FloatScratch, off, double)
		} else {
			amd64.LoadInt(buf, win64ValScratch, win64PtrScratch, 0, width, signed)
			amd64.StoreStackSlot(buf, win64ValScratch, off)
		}
	}
}

func captureWin64Return(buf *asm.Buffer, sig *abi.Signature, plan *abi.Plan) {
	if plan.Return.Kind == abi.RetHiddenPointer {
		// The callee has already written through the buffer address
		// forwarded before argument materialization.
		return
	}
	layout := abi.TypeLayout(sig.Return, abi.MicrosoftX64)
	switch plan.Return.Kind {
	case abi.RetNone:
	case abi.RetInRegGPR:
		width, _ := widthOfAMD64(layout)
		amd64.StoreInt(buf, amd64.RAX, win64ReturnBufReg, 0, width)
	case abi.RetInRegFPR:
		amd64.StoreFloat(buf, amd64.XMM0, win64ReturnBufReg, 0, layout.Size == 8)
	}
}

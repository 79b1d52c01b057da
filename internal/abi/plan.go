package abi

import "fmt"

// LocationKind discriminates where one parameter's value lives once
// classified. This is the tagged union spec.md §9 asks for: a small
// owned sum type, not an inheritance hierarchy.
type LocationKind uint8

const (
	LocGPR LocationKind = iota
	LocFPR
	LocGPRPair
	LocStack
)

// Location is the classifier's answer for a single parameter: which
// register (or stack slot) it is assigned to.
type Location struct {
	Kind LocationKind

	// Reg is the bank-relative register index (0-based into the ABI's
	// ordered argument-register list) for LocGPR, LocFPR, and the low
	// half of LocGPRPair.
	Reg int
	// RegHi is the bank-relative index of the high half of a 128-bit
	// pair, valid only when Kind == LocGPRPair.
	RegHi int

	// StackOffset is the byte offset from the base of the outgoing
	// stack-argument area (RSP+0 on SysV/AAPCS64 after the callee's own
	// reservation, RSP+32 on Win64 past the shadow space), valid only
	// when Kind == LocStack.
	StackOffset int
	// Slots is the number of 8-byte stack slots occupied (1, or 2 for a
	// spilled 128-bit value), valid only when Kind == LocStack.
	Slots int

	// ByReference marks a Win64-only case: a value larger than one GPR
	// slot (the 128-bit integer types; MSVC has no register-pair
	// passing convention) is passed as a pointer to the caller's own
	// storage rather than by loading its bytes into the slot (whether
	// that slot is a register, Kind == LocGPR, or stack, Kind ==
	// LocStack). The argument vector already holds that pointer, so the
	// compiler forwards it unchanged instead of dereferencing it.
	ByReference bool
}

func (l Location) String() string {
	switch l.Kind {
	case LocGPR:
		return fmt.Sprintf("gpr[%d]", l.Reg)
	case LocFPR:
		return fmt.Sprintf("fpr[%d]", l.Reg)
	case LocGPRPair:
		return fmt.Sprintf("gpr[%d:%d]", l.RegHi, l.Reg)
	case LocStack:
		if l.ByReference {
			return fmt.Sprintf("stack+%d(byref)", l.StackOffset)
		}
		return fmt.Sprintf("stack+%d(%d slots)", l.StackOffset, l.Slots)
	default:
		return "invalid-location"
	}
}

// ReturnKind discriminates how the callee's result is communicated back.
type ReturnKind uint8

const (
	RetNone ReturnKind = iota
	RetInRegGPR
	RetInRegFPR
	RetInRegGPRPair
	RetHiddenPointer
)

// ReturnConvention describes where/how the return value is produced.
type ReturnConvention struct {
	Kind ReturnKind
	// HiddenPointerReg is the bank-relative GPR index that must receive
	// the caller's return-buffer address before ordinary parameters are
	// materialized, valid only when Kind == RetHiddenPointer.
	HiddenPointerReg int
}

// Plan is the classifier's full output for one (Signature, ABI) pair.
type Plan struct {
	ABI ABI

	// Params has exactly len(Signature.Params) entries, in declaration
	// order.
	Params []Location
	Return ReturnConvention

	// StackReserve is the 16-byte-aligned byte count the trampoline
	// subtracts from the stack pointer after its prologue, including
	// Win64's 32-byte shadow space where applicable.
	StackReserve int

	// UsedXMM is the number of XMM/float argument registers consumed by
	// fixed (non-stack) float/double parameters. It is informational:
	// the System V backend does not read it and sets AL to 0 before
	// every call.
	UsedXMM int
}

// Classify computes the argument-passing plan for sig under target ABI a.
// It is a pure function: the same (sig, a) always yields an identical Plan.
func Classify(sig *Signature, a ABI) (Plan, error) {
	for _, p := range sig.Params {
		if !Supported(p) {
			return Plan{}, fmt.Errorf("%w: parameter type %v", ErrUnsupportedType, p)
		}
	}
	if !Supported(sig.Return) {
		return Plan{}, fmt.Errorf("%w: return type %v", ErrUnsupportedType, sig.Return)
	}

	switch a {
	case SystemVAMD64:
		return classifySystemV(sig)
	case MicrosoftX64:
		return classifyWin64(sig)
	case AAPCS64:
		return classifyAAPCS64(sig)
	default:
		return Plan{}, fmt.Errorf("%w: abi %v", ErrUnsupportedType, a)
	}
}

func alignUp16(n int) int {
	return (n + 15) &^ 15
}

package abi

// AAPCS64 (AArch64): 8 integer argument registers (X0..X7), 8
// floating-point/SIMD registers (V0..V7). Spillover mirrors System V:
// once any parameter cannot be satisfied by its required bank, that
// parameter and every later one (any class) goes to the stack.
// Spec.md §4.3.3.
const (
	aapcs64GPRCount = 8
	aapcs64FPRCount = 8
)

func classifyAAPCS64(sig *Signature) (Plan, error) {
	var (
		locs     = make([]Location, len(sig.Params))
		gprIdx   int
		fprIdx   int
		spilling bool
		stackOff int
	)

	for i, t := range sig.Params {
		layout := TypeLayout(t, AAPCS64)

		switch layout.Class {
		case ClassFloat:
			if !spilling && fprIdx < aapcs64FPRCount {
				locs[i] = Location{Kind: LocFPR, Reg: fprIdx}
				fprIdx++
				continue
			}
		case ClassInt128:
			if !spilling && gprIdx+2 <= aapcs64GPRCount {
				locs[i] = Location{Kind: LocGPRPair, Reg: gprIdx, RegHi: gprIdx + 1}
				gprIdx += 2
				continue
			}
		default:
			if !spilling && gprIdx < aapcs64GPRCount {
				locs[i] = Location{Kind: LocGPR, Reg: gprIdx}
				gprIdx++
				continue
			}
		}

		spilling = true
		slots := 1
		if layout.Class == ClassInt128 {
			slots = 2
		}
		locs[i] = Location{Kind: LocStack, StackOffset: stackOff, Slots: slots}
		stackOff += slots * 8
	}

	return Plan{
		ABI:          AAPCS64,
		Params:       locs,
		Return:       aapcs64Return(sig.Return),
		StackReserve: alignUp16(stackOff),
	}, nil
}

func aapcs64Return(t Type) ReturnConvention {
	layout := TypeLayout(t, AAPCS64)
	switch layout.Class {
	case ClassVoid:
		return ReturnConvention{Kind: RetNone}
	case ClassFloat:
		return ReturnConvention{Kind: RetInRegFPR}
	case ClassInt128:
		return ReturnConvention{Kind: RetInRegGPRPair}
	default:
		return ReturnConvention{Kind: RetInRegGPR}
	}
}

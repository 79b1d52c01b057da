package abi

// Microsoft x64: 4 argument slots shared positionally between GPR
// (RCX, RDX, R8, R9) and XMM (XMM0..XMM3): the Nth parameter always
// consumes the Nth slot, whether it is an integer or a float (spec.md
// §4.3.2's paired-slot model, adopted per the spec.md §9 redesign
// flag rather than the source's simpler fill-by-bank approximation).
const (
	win64SlotCount   = 4
	win64ShadowSpace = 32
)

func classifyWin64(sig *Signature) (Plan, error) {
	ret := win64Return(sig.Return)

	slot := 0
	if ret.Kind == RetHiddenPointer {
		// The hidden return pointer occupies slot 0 (RCX); every
		// declared parameter is shifted one slot to the right.
		slot = 1
	}

	locs := make([]Location, len(sig.Params))
	stackOff := 0

	for i, t := range sig.Params {
		layout := TypeLayout(t, MicrosoftX64)
		byRef := layout.Class == ClassInt128

		if slot < win64SlotCount {
			loc := Location{Reg: slot, ByReference: byRef}
			if layout.Class == ClassFloat {
				loc.Kind = LocFPR
			} else {
				loc.Kind = LocGPR
			}
			locs[i] = loc
		} else {
			locs[i] = Location{Kind: LocStack, StackOffset: stackOff, Slots: 1, ByReference: byRef}
			stackOff += 8
		}
		slot++
	}

	return Plan{
		ABI:          MicrosoftX64,
		Params:       locs,
		Return:       ret,
		StackReserve: alignUp16(win64ShadowSpace + stackOff),
	}, nil
}

func win64Return(t Type) ReturnConvention {
	layout := TypeLayout(t, MicrosoftX64)
	switch {
	case layout.Class == ClassVoid:
		return ReturnConvention{Kind: RetNone}
	case layout.Size > 8:
		// INT128/UINT128 (or, in full generality, any >8-byte
		// aggregate, out of scope beyond the 128-bit case): the
		// caller's return buffer address is passed as the implicit
		// first argument in RCX (spec.md §4.3.2).
		return ReturnConvention{Kind: RetHiddenPointer, HiddenPointerReg: 0}
	case layout.Class == ClassFloat:
		return ReturnConvention{Kind: RetInRegFPR}
	default:
		return ReturnConvention{Kind: RetInRegGPR}
	}
}

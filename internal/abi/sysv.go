package abi

// System V AMD64: 6 integer argument registers (RDI, RSI, RDX, RCX, R8,
// R9), 8 XMM registers (XMM0..XMM7). See spec.md §4.3.1.
const (
	sysvGPRCount = 6
	sysvFPRCount = 8
)

func classifySystemV(sig *Signature) (Plan, error) {
	var (
		locs      = make([]Location, len(sig.Params))
		gprIdx    int
		fprIdx    int
		spilling  bool
		stackOff  int
		usedXMM   int
	)

	for i, t := range sig.Params {
		layout := TypeLayout(t, SystemVAMD64)

		switch layout.Class {
		case ClassFloat:
			if !spilling && fprIdx < sysvFPRCount {
				locs[i] = Location{Kind: LocFPR, Reg: fprIdx}
				fprIdx++
				usedXMM++
				continue
			}
		case ClassInt128:
			if !spilling && gprIdx+2 <= sysvGPRCount {
				locs[i] = Location{Kind: LocGPRPair, Reg: gprIdx, RegHi: gprIdx + 1}
				gprIdx += 2
				continue
			}
		default: // ClassInt (includes pointer, size_t, all integer widths)
			if !spilling && gprIdx < sysvGPRCount {
				locs[i] = Location{Kind: LocGPR, Reg: gprIdx}
				gprIdx++
				continue
			}
		}

		// Either this parameter's bank is exhausted, or a prior
		// parameter already forced the spill: every parameter from
		// here on (any class) goes to the stack, in order.
		spilling = true
		slots := 1
		if layout.Class == ClassInt128 {
			slots = 2
		}
		locs[i] = Location{Kind: LocStack, StackOffset: stackOff, Slots: slots}
		stackOff += slots * 8
	}

	ret := sysvReturn(sig.Return)

	return Plan{
		ABI:          SystemVAMD64,
		Params:       locs,
		Return:       ret,
		StackReserve: alignUp16(stackOff),
		UsedXMM:      usedXMM,
	}, nil
}

func sysvReturn(t Type) ReturnConvention {
	layout := TypeLayout(t, SystemVAMD64)
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

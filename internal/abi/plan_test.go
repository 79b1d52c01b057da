package abi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ints(n int) []Type {
	out := make([]Type, n)
	for i := range out {
		out[i] = INT
	}
	return out
}

func TestClassifySystemV_SevenIntsOneSpilled(t *testing.T) {
	sig := &Signature{DebugName: "sum7", Return: INT, Params: ints(7)}
	plan, err := Classify(sig, SystemVAMD64)
	require.NoError(t, err)
	require.Equal(t, RetInRegGPR, plan.Return.Kind)
	for i := 0; i < 6; i++ {
		require.Equal(t, LocGPR, plan.Params[i].Kind)
		require.Equal(t, i, plan.Params[i].Reg)
	}
	require.Equal(t, LocStack, plan.Params[6].Kind)
	require.Equal(t, 0, plan.Params[6].StackOffset)
	require.Zero(t, plan.StackReserve%16)
}

func TestClassifySystemV_EightIntsTwoSpilled(t *testing.T) {
	sig := &Signature{DebugName: "sum8", Return: INT, Params: ints(8)}
	plan, err := Classify(sig, SystemVAMD64)
	require.NoError(t, err)
	require.Equal(t, LocStack, plan.Params[6].Kind)
	require.Equal(t, LocStack, plan.Params[7].Kind)
	require.Equal(t, 0, plan.Params[6].StackOffset)
	require.Equal(t, 8, plan.Params[7].StackOffset)
	require.Equal(t, 16, plan.StackReserve)
}

func TestClassifySystemV_NineDoublesOneSpilled(t *testing.T) {
	params := make([]Type, 9)
	for i := range params {
		params[i] = DOUBLE
	}
	sig := &Signature{DebugName: "sum9d", Return: DOUBLE, Params: params}
	plan, err := Classify(sig, SystemVAMD64)
	require.NoError(t, err)
	require.Equal(t, RetInRegFPR, plan.Return.Kind)
	for i := 0; i < 8; i++ {
		require.Equal(t, LocFPR, plan.Params[i].Kind)
		require.Equal(t, i, plan.Params[i].Reg)
	}
	require.Equal(t, LocStack, plan.Params[8].Kind)
	require.Equal(t, 8, plan.UsedXMM)
}

func TestClassifySystemV_MixedSpill(t *testing.T) {
	// Six ints, eight floats, one trailing int, one trailing double.
	params := append(append(ints(6), floats(8)...), INT, DOUBLE)
	sig := &Signature{DebugName: "mixed", Return: INT, Params: params}
	plan, err := Classify(sig, SystemVAMD64)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		require.Equal(t, LocGPR, plan.Params[i].Kind)
	}
	for i := 6; i < 14; i++ {
		require.Equal(t, LocFPR, plan.Params[i].Kind)
	}
	// The trailing int and double both spill: no GPRs/FPRs remain.
	require.Equal(t, LocStack, plan.Params[14].Kind)
	require.Equal(t, LocStack, plan.Params[15].Kind)
	require.Equal(t, 0, plan.Params[14].StackOffset)
	require.Equal(t, 8, plan.Params[15].StackOffset)
}

func floats(n int) []Type {
	out := make([]Type, n)
	for i := range out {
		out[i] = FLOAT
	}
	return out
}

func TestClassifySystemV_Int128RoundTrip(t *testing.T) {
	sig := &Signature{DebugName: "identity128", Return: INT128, Params: []Type{INT128}}
	plan, err := Classify(sig, SystemVAMD64)
	require.NoError(t, err)
	require.Equal(t, RetInRegGPRPair, plan.Return.Kind)
	require.Equal(t, LocGPRPair, plan.Params[0].Kind)
	require.Equal(t, 0, plan.Params[0].Reg)
	require.Equal(t, 1, plan.Params[0].RegHi)
}

func TestClassifySystemV_Void(t *testing.T) {
	sig := &Signature{DebugName: "print2", Return: VOID, Params: ints(2)}
	plan, err := Classify(sig, SystemVAMD64)
	require.NoError(t, err)
	require.Equal(t, RetNone, plan.Return.Kind)
}

func TestClassifyWin64_PairedSlotModel(t *testing.T) {
	// int, float, int, float: each occupies its own positional slot.
	sig := &Signature{DebugName: "mix4", Return: INT, Params: []Type{INT, FLOAT, INT, FLOAT}}
	plan, err := Classify(sig, MicrosoftX64)
	require.NoError(t, err)
	require.Equal(t, LocGPR, plan.Params[0].Kind)
	require.Equal(t, 0, plan.Params[0].Reg)
	require.Equal(t, LocFPR, plan.Params[1].Kind)
	require.Equal(t, 1, plan.Params[1].Reg)
	require.Equal(t, LocGPR, plan.Params[2].Kind)
	require.Equal(t, 2, plan.Params[2].Reg)
	require.Equal(t, LocFPR, plan.Params[3].Kind)
	require.Equal(t, 3, plan.Params[3].Reg)
}

func TestClassifyWin64_FiveIntsOneSpilled(t *testing.T) {
	sig := &Signature{DebugName: "sum5", Return: INT, Params: ints(5)}
	plan, err := Classify(sig, MicrosoftX64)
	require.NoError(t, err)
	require.Equal(t, LocStack, plan.Params[4].Kind)
	require.Equal(t, 0, plan.Params[4].StackOffset)
	require.GreaterOrEqual(t, plan.StackReserve, win64ShadowSpace)
	require.Zero(t, plan.StackReserve%16)
}

func TestClassifyWin64_HiddenPointerShiftsParams(t *testing.T) {
	sig := &Signature{DebugName: "identity128", Return: INT128, Params: []Type{INT128}}
	plan, err := Classify(sig, MicrosoftX64)
	require.NoError(t, err)
	require.Equal(t, RetHiddenPointer, plan.Return.Kind)
	require.Equal(t, 0, plan.Return.HiddenPointerReg)
	// The lone parameter is shifted to slot 1 (RDX), and passed by
	// reference since __int128 has no Win64 register-pair convention.
	require.Equal(t, LocGPR, plan.Params[0].Kind)
	require.Equal(t, 1, plan.Params[0].Reg)
	require.True(t, plan.Params[0].ByReference)
}

func TestClassifyAAPCS64_EightIntsAllRegisters(t *testing.T) {
	sig := &Signature{DebugName: "sum8", Return: INT, Params: ints(8)}
	plan, err := Classify(sig, AAPCS64)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		require.Equal(t, LocGPR, plan.Params[i].Kind)
		require.Equal(t, i, plan.Params[i].Reg)
	}
	require.Equal(t, 0, plan.StackReserve)
}

func TestClassifyAAPCS64_NineIntsOneSpilled(t *testing.T) {
	sig := &Signature{DebugName: "sum9", Return: INT, Params: ints(9)}
	plan, err := Classify(sig, AAPCS64)
	require.NoError(t, err)
	require.Equal(t, LocStack, plan.Params[8].Kind)
	require.Equal(t, 16, plan.StackReserve)
}

func TestTypeLayout_LongWidthDivergesByABI(t *testing.T) {
	require.Equal(t, 8, TypeLayout(LONG, SystemVAMD64).Size)
	require.Equal(t, 8, TypeLayout(LONG, AAPCS64).Size)
	require.Equal(t, 4, TypeLayout(LONG, MicrosoftX64).Size)
}

func TestTypeLayout_WCharWidthDivergesByABI(t *testing.T) {
	unix := TypeLayout(WCHAR, SystemVAMD64)
	require.Equal(t, 4, unix.Size)
	require.True(t, unix.Signed)

	win := TypeLayout(WCHAR, MicrosoftX64)
	require.Equal(t, 2, win.Size)
	require.False(t, win.Signed)
}

func TestClassify_UnsupportedTypeRejected(t *testing.T) {
	sig := &Signature{DebugName: "bogus", Return: INT, Params: []Type{Type(200)}}
	_, err := Classify(sig, SystemVAMD64)
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestStackReserveInvariant_AlwaysMultipleOf16(t *testing.T) {
	for _, abiv := range []ABI{SystemVAMD64, MicrosoftX64, AAPCS64} {
		for n := 0; n <= 20; n++ {
			sig := &Signature{DebugName: "n", Return: INT, Params: ints(n)}
			plan, err := Classify(sig, abiv)
			require.NoError(t, err)
			require.Zerof(t, plan.StackReserve%16, "abi=%v n=%d reserve=%d", abiv, n, plan.StackReserve)
		}
	}
}

func TestEveryLocationUniqueWithinBank(t *testing.T) {
	for _, abiv := range []ABI{SystemVAMD64, MicrosoftX64, AAPCS64} {
		params := append(append(ints(6), floats(8)...), INT, DOUBLE, INT128)
		sig := &Signature{DebugName: "everything", Return: INT, Params: params}
		plan, err := Classify(sig, abiv)
		require.NoError(t, err)

		seenGPR := map[int]bool{}
		seenFPR := map[int]bool{}
		for _, loc := range plan.Params {
			switch loc.Kind {
			case LocGPR:
				require.Falsef(t, seenGPR[loc.Reg], "abi=%v duplicate gpr %d", abiv, loc.Reg)
				seenGPR[loc.Reg] = true
			case LocFPR:
				require.Falsef(t, seenFPR[loc.Reg], "abi=%v duplicate fpr %d", abiv, loc.Reg)
				seenFPR[loc.Reg] = true
			case LocGPRPair:
				require.Falsef(t, seenGPR[loc.Reg], "abi=%v duplicate gpr %d", abiv, loc.Reg)
				require.Falsef(t, seenGPR[loc.RegHi], "abi=%v duplicate gpr %d", abiv, loc.RegHi)
				seenGPR[loc.Reg] = true
				seenGPR[loc.RegHi] = true
			}
		}
	}
}

package dispatcher

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/tramp-ffi/trampoline/internal/abi"
)

func TestHostABI_Recognized(t *testing.T) {
	a, err := HostABI()
	require.NoError(t, err)
	require.Contains(t, []abi.ABI{abi.SystemVAMD64, abi.MicrosoftX64, abi.AAPCS64}, a)
}

func TestConstruct_UnsupportedTypeFailsBeforeAllocation(t *testing.T) {
	sig := abi.Signature{DebugName: "bogus", Return: abi.Type(255), Params: nil}
	tr, err := Construct(sig, abi.SystemVAMD64, 0, nil)
	require.Error(t, err)
	require.Nil(t, tr)
}

func TestConstruct_StateReachesCallable(t *testing.T) {
	sig := abi.Signature{DebugName: "identity_int", Return: abi.INT, Params: []abi.Type{abi.INT}}
	tr, err := Construct(sig, abi.SystemVAMD64, 0xdeadbeef, nil)
	require.NoError(t, err)
	require.Equal(t, StateCallable, tr.State())
	tr.Destroy()
	require.Equal(t, StateDestroyed, tr.State())
}

func TestDestroy_Idempotent(t *testing.T) {
	sig := abi.Signature{DebugName: "void_noop", Return: abi.VOID}
	tr, err := Construct(sig, abi.AAPCS64, 0x1000, nil)
	require.NoError(t, err)
	tr.Destroy()
	tr.Destroy()
	require.Equal(t, StateDestroyed, tr.State())
}

func TestInvoke_ArgumentCountMismatch(t *testing.T) {
	sig := abi.Signature{DebugName: "sum2", Return: abi.INT, Params: []abi.Type{abi.INT, abi.INT}}
	tr, err := Construct(sig, abi.SystemVAMD64, 0x2000, nil)
	require.NoError(t, err)
	defer tr.Destroy()

	var a, b int32 = 1, 2
	var ret int32
	err = tr.Invoke([]unsafe.Pointer{unsafe.Pointer(&a)}, unsafe.Pointer(&ret))
	require.ErrorIs(t, err, ErrArgumentCountMismatch)
	_ = b
}

func TestInvoke_MissingReturnBufferForNonVoid(t *testing.T) {
	sig := abi.Signature{DebugName: "one_int", Return: abi.INT, Params: []abi.Type{abi.INT}}
	tr, err := Construct(sig, abi.MicrosoftX64, 0x3000, nil)
	require.NoError(t, err)
	defer tr.Destroy()

	var a int32 = 1
	err = tr.Invoke([]unsafe.Pointer{unsafe.Pointer(&a)}, nil)
	require.ErrorIs(t, err, ErrMissingReturnBuffer)
}

func TestInvoke_UnexpectedReturnBufferForVoid(t *testing.T) {
	sig := abi.Signature{DebugName: "print2", Return: abi.VOID, Params: []abi.Type{abi.INT, abi.INT}}
	tr, err := Construct(sig, abi.AAPCS64, 0x4000, nil)
	require.NoError(t, err)
	defer tr.Destroy()

	var a, b int32 = 50, 75
	var junk int32
	err = tr.Invoke([]unsafe.Pointer{unsafe.Pointer(&a), unsafe.Pointer(&b)}, unsafe.Pointer(&junk))
	require.ErrorIs(t, err, ErrUnexpectedReturnBuffer)
}

func TestInvoke_FailsAfterDestroy(t *testing.T) {
	sig := abi.Signature{DebugName: "noop", Return: abi.VOID}
	tr, err := Construct(sig, abi.SystemVAMD64, 0x5000, nil)
	require.NoError(t, err)
	tr.Destroy()

	err = tr.Invoke(nil, nil)
	require.ErrorIs(t, err, ErrNotCallable)
}

func TestConstruct_TeardownHookDefaultsToNoop(t *testing.T) {
	sig := abi.Signature{DebugName: "noop", Return: abi.VOID}
	require.NotPanics(t, func() {
		tr, err := Construct(sig, abi.SystemVAMD64, 0x6000, nil)
		require.NoError(t, err)
		tr.Destroy()
	})
}

//go:build cgo

package testabi

import (
	"testing"

	"github.com/stretchr/testify/require"

	ffi "github.com/tramp-ffi/trampoline"
	"github.com/tramp-ffi/trampoline/internal/fficonv"
)

// TestScenario1_Sum7 covers spec.md §8 scenario 1: register-only fill
// on AAPCS64, six-GPR fill plus one stack spill on System V, boundary
// between register and stack on Win64.
func TestScenario1_Sum7(t *testing.T) {
	sig := ffi.Signature{Name: "sum7", Return: ffi.INT, Params: []ffi.Type{
		ffi.INT, ffi.INT, ffi.INT, ffi.INT, ffi.INT, ffi.INT, ffi.INT,
	}}
	tr, err := ffi.New(sig, Sum7Addr(), nil)
	require.NoError(t, err)
	defer tr.Close()

	p := fficonv.NewPacker()
	for i := int32(1); i <= 7; i++ {
		p.Int32(i)
	}
	ret := fficonv.ReturnBuffer(4)
	require.NoError(t, tr.Call(p.Vector(), ret))
	require.Equal(t, int32(28), *(*int32)(ret))
}

// TestScenario2_Sum8 forces a stack spill on System V and Win64; on
// AAPCS64 all eight fit in X0..X7.
func TestScenario2_Sum8(t *testing.T) {
	sig := ffi.Signature{Name: "sum8", Return: ffi.INT, Params: []ffi.Type{
		ffi.INT, ffi.INT, ffi.INT, ffi.INT, ffi.INT, ffi.INT, ffi.INT, ffi.INT,
	}}
	tr, err := ffi.New(sig, Sum8Addr(), nil)
	require.NoError(t, err)
	defer tr.Close()

	p := fficonv.NewPacker()
	for i := int32(1); i <= 8; i++ {
		p.Int32(i)
	}
	ret := fficonv.ReturnBuffer(4)
	require.NoError(t, tr.Call(p.Vector(), ret))
	require.Equal(t, int32(36), *(*int32)(ret))
}

// TestScenario3_Sum9Doubles forces one FP spill on System V/AAPCS64.
func TestScenario3_Sum9Doubles(t *testing.T) {
	sig := ffi.Signature{Name: "sum9d", Return: ffi.DOUBLE, Params: make([]ffi.Type, 9)}
	for i := range sig.Params {
		sig.Params[i] = ffi.DOUBLE
	}
	tr, err := ffi.New(sig, Sum9DAddr(), nil)
	require.NoError(t, err)
	defer tr.Close()

	p := fficonv.NewPacker()
	for i := 1; i <= 9; i++ {
		p.Float64(float64(i))
	}
	ret := fficonv.ReturnBuffer(8)
	require.NoError(t, tr.Call(p.Vector(), ret))
	require.Equal(t, 45.0, *(*float64)(ret))
}

// TestScenario4_MixedSpill verifies interleaved GPR+FPR+stack handling.
func TestScenario4_MixedSpill(t *testing.T) {
	params := make([]ffi.Type, 0, 16)
	for i := 0; i < 6; i++ {
		params = append(params, ffi.INT)
	}
	for i := 0; i < 8; i++ {
		params = append(params, ffi.FLOAT)
	}
	params = append(params, ffi.INT, ffi.DOUBLE)

	sig := ffi.Signature{Name: "mixed", Return: ffi.INT, Params: params}
	tr, err := ffi.New(sig, MixedAddr(), nil)
	require.NoError(t, err)
	defer tr.Close()

	p := fficonv.NewPacker()
	for i := int32(1); i <= 6; i++ {
		p.Int32(i)
	}
	for i := 1; i <= 8; i++ {
		p.Float32(float32(i))
	}
	p.Int32(7)
	p.Float64(9.0)

	ret := fficonv.ReturnBuffer(4)
	require.NoError(t, tr.Call(p.Vector(), ret))
	require.Equal(t, int32(73), *(*int32)(ret))
}

// TestScenario5_Int128RoundTrip verifies pair allocation and pair return.
func TestScenario5_Int128RoundTrip(t *testing.T) {
	sig := ffi.Signature{Name: "identity128", Return: ffi.INT128, Params: []ffi.Type{ffi.INT128}}
	tr, err := ffi.New(sig, Identity128Addr(), nil)
	require.NoError(t, err)
	defer tr.Close()

	p := fficonv.NewPacker()
	p.Int128(0xFEDCBA9876543210, 0x0123456789ABCDEF)
	ret := fficonv.ReturnBuffer(16)
	require.NoError(t, tr.Call(p.Vector(), ret))

	pair := (*[2]uint64)(ret)
	require.Equal(t, uint64(0xFEDCBA9876543210), pair[0])
	require.Equal(t, uint64(0x0123456789ABCDEF), pair[1])
}

// TestScenario6_VoidCall completes without writing the return buffer.
func TestScenario6_VoidCall(t *testing.T) {
	sig := ffi.Signature{Name: "print2", Return: ffi.VOID, Params: []ffi.Type{ffi.INT, ffi.INT}}
	tr, err := ffi.New(sig, Print2Addr(), nil)
	require.NoError(t, err)
	defer tr.Close()

	p := fficonv.NewPacker()
	p.Int32(50).Int32(75)
	require.NoError(t, tr.Call(p.Vector(), nil))
}

// TestBoundary_NullPointerIdentity covers the NULL pointer boundary case.
func TestBoundary_NullPointerIdentity(t *testing.T) {
	sig := ffi.Signature{Name: "identity_ptr", Return: ffi.POINTER, Params: []ffi.Type{ffi.POINTER}}
	tr, err := ffi.New(sig, IdentityPtrAddr(), nil)
	require.NoError(t, err)
	defer tr.Close()

	p := fficonv.NewPacker()
	p.Uintptr(0)
	ret := fficonv.ReturnBuffer(8)
	require.NoError(t, tr.Call(p.Vector(), ret))
	require.Equal(t, uintptr(0), *(*uintptr)(ret))
}

// TestBoundary_FabricatedNonNullPointerIdentity covers a non-null but
// otherwise unresolved address, which the engine must forward
// unexamined (P4, aliasing isolation).
func TestBoundary_FabricatedNonNullPointerIdentity(t *testing.T) {
	sig := ffi.Signature{Name: "identity_ptr", Return: ffi.POINTER, Params: []ffi.Type{ffi.POINTER}}
	tr, err := ffi.New(sig, IdentityPtrAddr(), nil)
	require.NoError(t, err)
	defer tr.Close()

	const fabricated = uintptr(0x1000)
	p := fficonv.NewPacker()
	p.Uintptr(fabricated)
	ret := fficonv.ReturnBuffer(8)
	require.NoError(t, tr.Call(p.Vector(), ret))
	require.Equal(t, fabricated, *(*uintptr)(ret))
}

// TestBoundary_ArgumentCountMismatchFailsWithoutCalling ensures a
// misuse error is returned instead of invoking the callee.
func TestBoundary_ArgumentCountMismatchFailsWithoutCalling(t *testing.T) {
	sig := ffi.Signature{Name: "sum7", Return: ffi.INT, Params: []ffi.Type{
		ffi.INT, ffi.INT, ffi.INT, ffi.INT, ffi.INT, ffi.INT, ffi.INT,
	}}
	tr, err := ffi.New(sig, Sum7Addr(), nil)
	require.NoError(t, err)
	defer tr.Close()

	p := fficonv.NewPacker()
	p.Int32(1).Int32(2)
	ret := fficonv.ReturnBuffer(4)
	err = tr.Call(p.Vector(), ret)
	require.Error(t, err)
}

// TestBoundary_IntExtremes covers INT_MIN/INT_MAX through the identity
// path exercised by sum7 (seven copies of the same extreme summed
// would overflow, so isolate the value in position 0 against zeros).
func TestBoundary_IntExtremes(t *testing.T) {
	sig := ffi.Signature{Name: "sum7", Return: ffi.INT, Params: []ffi.Type{
		ffi.INT, ffi.INT, ffi.INT, ffi.INT, ffi.INT, ffi.INT, ffi.INT,
	}}
	tr, err := ffi.New(sig, Sum7Addr(), nil)
	require.NoError(t, err)
	defer tr.Close()

	for _, extreme := range []int32{-2147483648, 2147483647} {
		p := fficonv.NewPacker()
		p.Int32(extreme)
		for i := 0; i < 6; i++ {
			p.Int32(0)
		}
		ret := fficonv.ReturnBuffer(4)
		require.NoError(t, tr.Call(p.Vector(), ret))
		require.Equal(t, extreme, *(*int32)(ret))
	}
}

// TestBoundary_DoubleExtremes covers DBL_MIN/DBL_MAX via sum9d with
// the extreme isolated in one slot and the rest zeroed.
func TestBoundary_DoubleExtremes(t *testing.T) {
	sig := ffi.Signature{Name: "sum9d", Return: ffi.DOUBLE, Params: make([]ffi.Type, 9)}
	for i := range sig.Params {
		sig.Params[i] = ffi.DOUBLE
	}
	tr, err := ffi.New(sig, Sum9DAddr(), nil)
	require.NoError(t, err)
	defer tr.Close()

	extremes := []float64{2.2250738585072014e-308, 1.7976931348623157e+308}
	for _, extreme := range extremes {
		p := fficonv.NewPacker()
		p.Float64(extreme)
		for i := 0; i < 8; i++ {
			p.Float64(0)
		}
		ret := fficonv.ReturnBuffer(8)
		require.NoError(t, tr.Call(p.Vector(), ret))
		require.Equal(t, extreme, *(*float64)(ret))
	}
}

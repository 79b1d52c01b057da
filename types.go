// Package ffi is the public surface of the runtime foreign-function
// trampoline engine: given a C function's prototype and address, it
// JIT-compiles a small native entry point that marshals a generic
// argument vector into that function's calling convention, invokes
// it, and captures its return value.
package ffi

import "github.com/tramp-ffi/trampoline/internal/abi"

// Type is a primitive C type tag understood by the engine: the
// physical size, signedness, and register class of each value is
// resolved per target ABI during New, not by the caller.
type Type = abi.Type

// The supported primitive type tags, re-exported from internal/abi so
// callers never need to import an internal package.
const (
	VOID    = abi.VOID
	BOOL    = abi.BOOL
	CHAR    = abi.CHAR
	SCHAR   = abi.SCHAR
	UCHAR   = abi.UCHAR
	SHORT   = abi.SHORT
	USHORT  = abi.USHORT
	SSHORT  = abi.SSHORT
	INT     = abi.INT
	UINT    = abi.UINT
	SINT    = abi.SINT
	LONG    = abi.LONG
	ULONG   = abi.ULONG
	SLONG   = abi.SLONG
	LLONG   = abi.LLONG
	ULLONG  = abi.ULLONG
	SLLONG  = abi.SLLONG
	FLOAT   = abi.FLOAT
	DOUBLE  = abi.DOUBLE
	POINTER = abi.POINTER
	WCHAR   = abi.WCHAR
	SIZE_T  = abi.SIZE_T
	INT128  = abi.INT128
	UINT128 = abi.UINT128
)

// Package abi classifies a function signature into a per-architecture
// calling-convention plan: register assignments, stack layout, and the
// return convention. Classification is a pure computation; it performs
// no I/O and emits no instructions.
package abi

import "fmt"

// Type is the primitive type tag the engine understands. Its physical
// size, signedness, and register class are resolved per ABI by TypeLayout.
type Type uint8

const (
	VOID Type = iota
	BOOL
	CHAR
	SCHAR
	UCHAR
	SHORT
	USHORT
	SSHORT
	INT
	UINT
	SINT
	LONG
	ULONG
	SLONG
	LLONG
	ULLONG
	SLLONG
	FLOAT
	DOUBLE
	POINTER
	WCHAR
	SIZE_T
	INT128
	UINT128
)

var typeNames = [...]string{
	VOID: "void", BOOL: "_Bool", CHAR: "char", SCHAR: "signed char", UCHAR: "unsigned char",
	SHORT: "short", USHORT: "unsigned short", SSHORT: "signed short",
	INT: "int", UINT: "unsigned int", SINT: "signed int",
	LONG: "long", ULONG: "unsigned long", SLONG: "signed long",
	LLONG: "long long", ULLONG: "unsigned long long", SLLONG: "signed long long",
	FLOAT: "float", DOUBLE: "double", POINTER: "void*", WCHAR: "wchar_t", SIZE_T: "size_t",
	INT128: "__int128", UINT128: "unsigned __int128",
}

// String renders the C-ish spelling of the type, used for debug names.
func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return fmt.Sprintf("abi.Type(%d)", uint8(t))
}

// ABI identifies one of the three supported target calling conventions.
type ABI uint8

const (
	SystemVAMD64 ABI = iota
	MicrosoftX64
	AAPCS64
)

func (a ABI) String() string {
	switch a {
	case SystemVAMD64:
		return "system_v_amd64"
	case MicrosoftX64:
		return "microsoft_x64"
	case AAPCS64:
		return "aapcs64"
	default:
		return fmt.Sprintf("abi.ABI(%d)", uint8(a))
	}
}

// Class is the register bank a value is assigned to during classification.
type Class uint8

const (
	ClassVoid Class = iota
	ClassInt
	ClassFloat
	ClassInt128
)

// Layout is the resolved, ABI-specific physical representation of a Type.
type Layout struct {
	Size   int // physical width in bytes
	Signed bool
	Class  Class
}

// TypeLayout resolves t's physical size, signedness, and register class
// under the given ABI. This is the single table spec.md §9 calls for,
// centralizing what would otherwise be duplicated switches in each
// per-ABI classifier and in the compiler's load/store selection.
func TypeLayout(t Type, a ABI) Layout {
	switch t {
	case VOID:
		return Layout{Size: 0, Class: ClassVoid}
	case BOOL:
		return Layout{Size: 1, Signed: false, Class: ClassInt}
	case CHAR:
		return Layout{Size: 1, Signed: true, Class: ClassInt}
	case SCHAR:
		return Layout{Size: 1, Signed: true, Class: ClassInt}
	case UCHAR:
		return Layout{Size: 1, Signed: false, Class: ClassInt}
	case SHORT, SSHORT:
		return Layout{Size: 2, Signed: true, Class: ClassInt}
	case USHORT:
		return Layout{Size: 2, Signed: false, Class: ClassInt}
	case INT, SINT:
		return Layout{Size: 4, Signed: true, Class: ClassInt}
	case UINT:
		return Layout{Size: 4, Signed: false, Class: ClassInt}
	case LONG, SLONG:
		return Layout{Size: longSize(a), Signed: true, Class: ClassInt}
	case ULONG:
		return Layout{Size: longSize(a), Signed: false, Class: ClassInt}
	case LLONG, SLLONG:
		return Layout{Size: 8, Signed: true, Class: ClassInt}
	case ULLONG:
		return Layout{Size: 8, Signed: false, Class: ClassInt}
	case FLOAT:
		return Layout{Size: 4, Signed: true, Class: ClassFloat}
	case DOUBLE:
		return Layout{Size: 8, Signed: true, Class: ClassFloat}
	case POINTER:
		return Layout{Size: 8, Signed: false, Class: ClassInt}
	case SIZE_T:
		return Layout{Size: 8, Signed: false, Class: ClassInt}
	case WCHAR:
		if a == MicrosoftX64 {
			return Layout{Size: 2, Signed: false, Class: ClassInt}
		}
		return Layout{Size: 4, Signed: true, Class: ClassInt}
	case INT128:
		return Layout{Size: 16, Signed: true, Class: ClassInt128}
	case UINT128:
		return Layout{Size: 16, Signed: false, Class: ClassInt128}
	default:
		return Layout{Size: 0, Class: ClassVoid}
	}
}

func longSize(a ABI) int {
	if a == MicrosoftX64 {
		return 4
	}
	return 8
}

// Supported reports whether t can be classified under any of the three
// target ABIs. Every Type constant above is supported; this exists so
// callers constructing a Type from an untrusted numeric value (e.g. an
// FFI boundary) can validate it before classifying.
func Supported(t Type) bool {
	return t <= UINT128
}

// Signature is the ABI-independent description of a callee's prototype.
// It carries no callee address: that belongs to the Dispatcher layer,
// not to classification.
type Signature struct {
	DebugName string
	Return    Type
	Params    []Type
}

// String renders a C-like prototype, e.g. "int sum7(int, int, int)".
func (s *Signature) String() string {
	name := s.DebugName
	if name == "" {
		name = "<anonymous>"
	}
	out := s.Return.String() + " " + name + "("
	for i, p := range s.Params {
		if i > 0 {
			out += ", "
		}
		out += p.String()
	}
	return out + ")"
}

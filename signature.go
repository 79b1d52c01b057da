package ffi

import "github.com/tramp-ffi/trampoline/internal/abi"

// Signature describes a callee's C prototype: its return type and
// ordered parameter types. It carries no address; New pairs a
// Signature with a callee address to produce a Trampoline.
type Signature struct {
	Name   string
	Return Type
	Params []Type
}

func (s Signature) toInternal() abi.Signature {
	return abi.Signature{DebugName: s.Name, Return: s.Return, Params: s.Params}
}

// String renders a C-like prototype, e.g. "int sum7(int, int, int)".
func (s Signature) String() string {
	internal := s.toInternal()
	return internal.String()
}

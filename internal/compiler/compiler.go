// Package compiler drives the Instruction Emitter (internal/asm) using
// an internal/abi.Plan to produce a self-contained trampoline body: a
// function obeying the target ABI's three-argument calling sequence
// (argument-vector base, argument count, return-buffer address) that
// marshals each parameter into its classified location, calls the
// fixed callee address, and stores the result through the return
// buffer. One backend file per ABI; this file holds only the shared
// dispatch and capacity-estimation contract. Grounded on
// original_source/cross.c's three generate_*_trampoline functions for
// instruction choice and register assignment, and on the teacher's
// per-backend compiler split (wazevo's arch/amd64, arch/arm64
// code-generation packages) for the one-file-per-ABI layout.
package compiler

import (
	"errors"
	"fmt"

	"github.com/tramp-ffi/trampoline/internal/abi"
	"github.com/tramp-ffi/trampoline/internal/asm"
)

// ErrUnknownABI is returned when a Plan names an ABI with no backend.
var ErrUnknownABI = errors.New("compiler: no backend registered for this abi")

// ErrEmissionOverrun is returned when the emitted trampoline body would
// not fit in its capacity estimate.
var ErrEmissionOverrun = errors.New("compiler: emitted trampoline exceeds reserved capacity")

const (
	fixedOverheadBytes  = 96 // landing pad, prologue, stack adjust, call sequence, epilogue
	perParamWorstCaseBytes = 40 // pointer load + dereference + register/stack deposit
	minCapacityBytes    = 512
)

// EstimateCapacity returns a safe upper bound, in bytes, on the
// emitted size of a trampoline for sig. The estimate is deliberately
// architecture-independent (it does not special-case per-ABI
// instruction counts) and floored at minCapacityBytes, matching the
// per-trampoline page reservation default noted in spec.md §3.
func EstimateCapacity(sig *abi.Signature) int {
	n := fixedOverheadBytes + len(sig.Params)*perParamWorstCaseBytes
	if n < minCapacityBytes {
		n = minCapacityBytes
	}
	return n
}

// Compile emits a complete trampoline body for (sig, plan) targeting
// calleeAddr and returns the emitted bytes. plan.ABI selects the
// backend; sig supplies the per-parameter type information (width,
// signedness, float-vs-integer class) that Plan's Location values
// alone do not carry.
func Compile(sig *abi.Signature, plan *abi.Plan, calleeAddr uintptr) ([]byte, error) {
	buf := asm.NewBuffer(EstimateCapacity(sig))

	switch plan.ABI {
	case abi.SystemVAMD64:
		compileSystemV(buf, sig, plan, calleeAddr)
	case abi.MicrosoftX64:
		compileWin64(buf, sig, plan, calleeAddr)
	case abi.AAPCS64:
		compileAAPCS64(buf, sig, plan, calleeAddr)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownABI, plan.ABI)
	}

	if err := buf.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmissionOverrun, err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

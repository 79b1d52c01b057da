package abi

import "errors"

// ErrUnsupportedType is returned when a Signature names a type tag (or
// ABI) this package cannot classify. It is fatal to trampoline
// construction (spec.md §7, classification error).
var ErrUnsupportedType = errors.New("abi: unsupported type for classification")

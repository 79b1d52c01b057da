package ffi

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/tramp-ffi/trampoline/internal/dispatcher"
)

// Trampoline is a JIT-compiled, callable bridge to one native function
// at a fixed address. Construct one with New; it is safe for
// concurrent use by multiple goroutines (spec.md §5's "parallelism
// contract" — a single trampoline's executable pages are written once
// and never again).
type Trampoline struct {
	closeOnce sync.Once
	impl      *dispatcher.Trampoline
}

// New classifies sig for the host's ABI, compiles a trampoline body
// targeting callee, acquires executable memory, and synchronizes the
// instruction cache, returning a ready-to-call Trampoline. onError, if
// non-nil, receives non-fatal OS teardown anomalies (spec.md §7 kind
// 5): a failed release during Close, or, from within New, a failed
// release of the region after instruction cache sync fails.
func New(sig Signature, callee uintptr, onError func(error)) (*Trampoline, error) {
	target, err := dispatcher.HostABI()
	if err != nil {
		return nil, err
	}

	impl, err := dispatcher.Construct(sig.toInternal(), target, callee, onError)
	if err != nil {
		return nil, err
	}

	t := &Trampoline{impl: impl}
	runtime.SetFinalizer(t, func(t *Trampoline) { t.Close() })
	return t, nil
}

// Call invokes the native function through t. args must have exactly
// len(Signature.Params) elements, cell i pointing at parameter i's
// storage; ret must be non-nil iff the signature's return type is not
// VOID. Call returns an error describing the misuse without invoking
// the callee if either contract is violated, and ErrClosed if t has
// already been closed.
func (t *Trampoline) Call(args []unsafe.Pointer, ret unsafe.Pointer) error {
	if t.impl.State() == dispatcher.StateDestroyed {
		return ErrClosed
	}
	return t.impl.Invoke(args, ret)
}

// Close releases t's executable memory. Idempotent and safe to call
// more than once; a runtime.SetFinalizer registered by New calls it as
// a backstop if the caller forgets, matching the teacher's
// CodeSegment.Unmap idempotency convention.
func (t *Trampoline) Close() error {
	t.closeOnce.Do(func() {
		runtime.SetFinalizer(t, nil)
		t.impl.Destroy()
	})
	return nil
}

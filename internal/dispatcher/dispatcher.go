// Package dispatcher implements the construct/invoke/destroy state
// machine (spec.md §4.5): it wires the ABI Classifier, the Trampoline
// Compiler, and the Page Service together into one owned resource with
// exactly one valid path from construction to either a callable state
// or a released one. It holds no ABI-specific emission knowledge
// itself; that lives in internal/abi and internal/compiler.
package dispatcher

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/tramp-ffi/trampoline/internal/abi"
	"github.com/tramp-ffi/trampoline/internal/compiler"
	"github.com/tramp-ffi/trampoline/internal/platform"
)

// State is the trampoline object's lifecycle stage, named directly
// after spec.md §4.5/§5's Created -> Emitted -> Synchronized ->
// Callable -> Destroyed sequence.
type State uint8

const (
	StateCreated State = iota
	StateEmitted
	StateSynchronized
	StateCallable
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateEmitted:
		return "emitted"
	case StateSynchronized:
		return "synchronized"
	case StateCallable:
		return "callable"
	case StateDestroyed:
		return "destroyed"
	default:
		return "invalid"
	}
}

var (
	// ErrArgumentCountMismatch is an invocation-misuse error (spec.md
	// §7 kind 4): argument_count did not equal len(Signature.Params).
	ErrArgumentCountMismatch = errors.New("dispatcher: argument count does not match signature")
	// ErrMissingReturnBuffer is an invocation-misuse error: a non-void
	// signature was invoked with a nil return buffer.
	ErrMissingReturnBuffer = errors.New("dispatcher: non-void signature requires a non-nil return buffer")
	// ErrUnexpectedReturnBuffer is an invocation-misuse error: a void
	// signature was invoked with a non-nil return buffer.
	ErrUnexpectedReturnBuffer = errors.New("dispatcher: void signature must not receive a return buffer")
	// ErrNotCallable is returned when Invoke is called on a trampoline
	// that never finished construction or has already been destroyed.
	ErrNotCallable = errors.New("dispatcher: trampoline is not in a callable state")
)

// entryFunc is the three-argument calling sequence every backend's
// compiled entry point obeys: (vector_base, argument_count,
// return_buffer). argument_count is accepted by the compiled body for
// ABI-uniformity with the source's GenericTrampoline signature but
// never read there, since the parameter count is already fixed at
// compile time; the dispatcher still passes the real count so the
// call site documents the contract it relies on.
//
// There is no portable way for Go to call a raw, runtime-generated
// code address as if it were a Go func value: the ABI the JIT body
// was compiled against (System V, Win64, or AAPCS64) is a C calling
// convention, not Go's internal one. purego.SyscallN is purego's
// answer to exactly this problem (calling an arbitrary C-ABI function
// pointer without cgo); entryFunc closes over the compiled address and
// adapts it to that call.
type entryFunc func(vectorBase, argumentCount, returnBuffer uintptr)

func makeEntry(code []byte) entryFunc {
	addr := uintptr(unsafe.Pointer(&code[0]))
	return func(vectorBase, argumentCount, returnBuffer uintptr) {
		purego.SyscallN(addr, vectorBase, argumentCount, returnBuffer)
	}
}

// Trampoline is one constructed, possibly-callable native-call
// trampoline: an executable region holding a compiled entry point for
// exactly one (Signature, callee address) pair.
type Trampoline struct {
	// mu guards state/region/entry. Invoke holds a read lock for the
	// full duration of the native call, not just the state check:
	// Destroy takes the write lock to release the executable region, so
	// a read-locked Invoke is guaranteed the region stays mapped until
	// the call returns instead of racing a concurrent Destroy's munmap.
	mu    sync.RWMutex
	state State

	sig    abi.Signature
	region platform.Region
	entry  entryFunc

	// onTeardownError receives OS teardown anomalies (spec.md §7 kind
	// 5: Release/SyncICache failure) for diagnostic purposes; it never
	// blocks destroy. Defaults to a no-op.
	onTeardownError func(error)
}

// Construct allocates, classifies, compiles, and synchronizes a
// trampoline for sig against calleeAddr under target ABI a. On any
// failure the partially-built region is released before the error is
// returned, per spec.md §9's "executable memory ownership" guidance.
func Construct(sig abi.Signature, a abi.ABI, calleeAddr uintptr, onTeardownError func(error)) (*Trampoline, error) {
	if onTeardownError == nil {
		onTeardownError = func(error) {}
	}

	plan, err := abi.Classify(&sig, a)
	if err != nil {
		return nil, err
	}

	code, err := compiler.Compile(&sig, &plan, calleeAddr)
	if err != nil {
		return nil, err
	}

	region, err := platform.Acquire(len(code))
	if err != nil {
		return nil, err
	}

	t := &Trampoline{state: StateCreated, sig: sig, region: region, onTeardownError: onTeardownError}

	copy(region.Base, code)
	t.state = StateEmitted

	if err := platform.SyncICache(region); err != nil {
		// Cache sync at construction time is load-bearing, not a
		// teardown anomaly: skipping it would let a caller observe
		// stale instruction bytes on the very first invocation, so
		// construction must fail and release the region rather than
		// hand back a trampoline that might run garbage code.
		if relErr := platform.Release(region); relErr != nil {
			onTeardownError(relErr)
		}
		return nil, fmt.Errorf("dispatcher: instruction cache sync failed: %w", err)
	}
	t.state = StateSynchronized

	t.entry = makeEntry(region.Base)
	t.state = StateCallable

	return t, nil
}

// Invoke performs one call through t's entry point. argumentVector
// must have exactly len(sig.Params) cells, each pointing at that
// parameter's storage; returnBuffer must be non-nil iff the
// signature's return type is non-void. Violations fail without
// touching the callee, per spec.md §4.5/§7 kind 4.
func (t *Trampoline) Invoke(argumentVector []unsafe.Pointer, returnBuffer unsafe.Pointer) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	state := t.state
	entry := t.entry
	sig := t.sig

	if state != StateCallable {
		return fmt.Errorf("%w: state=%s", ErrNotCallable, state)
	}
	if len(argumentVector) != len(sig.Params) {
		return fmt.Errorf("%w: got %d, want %d", ErrArgumentCountMismatch, len(argumentVector), len(sig.Params))
	}
	if sig.Return == abi.VOID && returnBuffer != nil {
		return ErrUnexpectedReturnBuffer
	}
	if sig.Return != abi.VOID && returnBuffer == nil {
		return ErrMissingReturnBuffer
	}

	var vectorBase uintptr
	if len(argumentVector) > 0 {
		vectorBase = uintptr(unsafe.Pointer(&argumentVector[0]))
	}
	// Held for the duration of the call (see mu's doc comment): this is
	// the section a concurrent Destroy must not race.
	entry(vectorBase, uintptr(len(argumentVector)), uintptr(returnBuffer))
	runtime.KeepAlive(argumentVector)
	runtime.KeepAlive(returnBuffer)
	return nil
}

// Destroy releases t's executable region and transitions it to
// StateDestroyed. Idempotent: a second call is a no-op, matching
// spec.md §4.5's "destroy(trampoline) ... Idempotent on a
// fully-destroyed value."
func (t *Trampoline) Destroy() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == StateDestroyed {
		return
	}

	region := t.region
	t.region = platform.Region{}
	t.entry = nil
	t.state = StateDestroyed

	if err := platform.Release(region); err != nil {
		t.onTeardownError(err)
	}
}

// State reports t's current lifecycle stage, chiefly for tests and
// diagnostics.
func (t *Trampoline) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Command trampolinebench JIT-compiles a sample trampoline and times
// N invocations through it. It is an ambient diagnostic tool, not part
// of the core engine (spec.md §1 places CLI tooling outside the
// core's scope).
package main

import (
	"fmt"
	"os"
	"time"
	"unsafe"

	"github.com/spf13/cobra"

	ffi "github.com/tramp-ffi/trampoline"
	"github.com/tramp-ffi/trampoline/internal/fficonv"
)

var iterations int

var command = &cobra.Command{
	Use:   "trampolinebench",
	Short: "Time N invocations of a sample JIT-compiled trampoline",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench(cmd, iterations)
	},
}

func init() {
	command.Flags().IntVarP(&iterations, "iterations", "n", 1_000_000, "number of invocations to time")
}

func main() {
	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// identityCalleeAddr returns the address of a trivial native identity
// function compiled in for this purpose. Without cgo there is no real
// native callee to benchmark against, so the command reports that
// plainly instead of fabricating one.
func identityCalleeAddr() (uintptr, bool) {
	return lookupIdentityCallee()
}

func runBench(cmd *cobra.Command, n int) error {
	addr, ok := identityCalleeAddr()
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "trampolinebench: built without cgo, no native callee available to benchmark")
		return nil
	}

	sig := ffi.Signature{Name: "identity_int", Return: ffi.INT, Params: []ffi.Type{ffi.INT}}
	tr, err := ffi.New(sig, addr, nil)
	if err != nil {
		return fmt.Errorf("construct trampoline: %w", err)
	}
	defer tr.Close()

	var in int32 = 42
	ret := fficonv.ReturnBuffer(4)
	args := []unsafe.Pointer{unsafe.Pointer(&in)}

	start := time.Now()
	for i := 0; i < n; i++ {
		if err := tr.Call(args, ret); err != nil {
			return fmt.Errorf("invocation %d: %w", i, err)
		}
	}
	elapsed := time.Since(start)

	fmt.Fprintf(cmd.OutOrStdout(), "%d invocations in %s (%.1f ns/call)\n",
		n, elapsed, float64(elapsed.Nanoseconds())/float64(n))
	return nil
}

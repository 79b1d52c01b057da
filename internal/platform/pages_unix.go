//go:build linux || darwin

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Acquire reserves a page-aligned anonymous mapping that is
// simultaneously readable, writable, and executable, per spec.md
// §4.1. Grounded on cross.c's ffi_create_executable_memory (mmap with
// PROT_READ|PROT_WRITE|PROT_EXEC, MAP_PRIVATE|MAP_ANONYMOUS).
func Acquire(size int) (Region, error) {
	aligned := RoundUpToPageSize(size)
	data, err := unix.Mmap(-1, 0, aligned, unix.PROT_READ|unix.PROT_WRITE|unix.PROT_EXEC, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return Region{}, fmt.Errorf("%w: %v", ErrAcquireFailed, err)
	}
	return Region{Base: data, Size: aligned}, nil
}

// Release returns r to the OS. Grounded on
// ffi_free_executable_memory's munmap call.
func Release(r Region) error {
	if r.Base == nil {
		return nil
	}
	if err := unix.Munmap(r.Base); err != nil {
		return fmt.Errorf("platform: munmap failed: %w", err)
	}
	return nil
}

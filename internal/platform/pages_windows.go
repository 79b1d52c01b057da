//go:build windows

package platform

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Acquire reserves and commits a page-aligned region with
// PAGE_EXECUTE_READWRITE protection. Grounded on cross.c's Win64
// branch of ffi_create_executable_memory (VirtualAlloc).
func Acquire(size int) (Region, error) {
	aligned := RoundUpToPageSize(size)
	addr, err := windows.VirtualAlloc(0, uintptr(aligned), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_EXECUTE_READWRITE)
	if err != nil {
		return Region{}, fmt.Errorf("%w: %v", ErrAcquireFailed, err)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), aligned)
	return Region{Base: data, Size: aligned}, nil
}

// Release frees r. Grounded on ffi_free_executable_memory's
// VirtualFree(mem, 0, MEM_RELEASE) call.
func Release(r Region) error {
	if r.Base == nil {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&r.Base[0]))
	if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil {
		return fmt.Errorf("platform: VirtualFree failed: %w", err)
	}
	return nil
}

//go:build darwin && arm64 && cgo

package platform

/*
#include <libkern/OSCacheControl.h>
*/
import "C"
import "unsafe"

// SyncICache invokes libSystem's sys_icache_invalidate, which macOS
// requires explicitly on arm64 (unlike Linux, XNU does not synchronize
// the instruction cache automatically when a page is marked
// executable). Grounded on cross.c's GCC/Clang branch, which relies on
// __builtin___clear_cache; this is the same underlying libSystem call
// that builtin lowers to on Darwin.
func SyncICache(r Region) error {
	if len(r.Base) == 0 {
		return nil
	}
	C.sys_icache_invalidate(unsafe.Pointer(&r.Base[0]), C.size_t(len(r.Base)))
	return nil
}

//go:build cgo

package main

/*
#include <stdint.h>

static int identity_int(int v) { return v; }
static uintptr_t identity_int_addr(void) { return (uintptr_t)&identity_int; }
*/
import "C"

func lookupIdentityCallee() (uintptr, bool) {
	return uintptr(C.identity_int_addr()), true
}

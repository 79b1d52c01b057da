//go:build cgo

// Package testabi provides tiny, genuinely-compiled native C functions
// to exercise the engine end to end (spec.md §8's concrete scenarios
// and boundary cases need a real callee, not a Go stand-in — the same
// reasoning behind cgo's use elsewhere in the corpus for producing a
// real native function to call against, e.g. the teacher's own
// integration/fuzz harnesses).
package testabi

/*
#include <stdint.h>

static int sum7(int a, int b, int c, int d, int e, int f, int g) {
	return a + b + c + d + e + f + g;
}

static int sum8(int a, int b, int c, int d, int e, int f, int g, int h) {
	return a + b + c + d + e + f + g + h;
}

static double sum9d(double a, double b, double c, double d, double e,
                     double f, double g, double h, double i) {
	return a + b + c + d + e + f + g + h + i;
}

static int mixed(int i0, int i1, int i2, int i3, int i4, int i5,
                  float f0, float f1, float f2, float f3,
                  float f4, float f5, float f6, float f7,
                  int i6, double d0) {
	double total = i0 + i1 + i2 + i3 + i4 + i5 + i6;
	total += f0 + f1 + f2 + f3 + f4 + f5 + f6 + f7;
	total += d0;
	return (int)total;
}

static __int128 identity128(__int128 v) {
	return v;
}

static void print2(int a, int b) {
	(void)a;
	(void)b;
}

static void *identity_ptr(void *p) {
	return p;
}

static uintptr_t sum7_addr(void)       { return (uintptr_t)&sum7; }
static uintptr_t sum8_addr(void)       { return (uintptr_t)&sum8; }
static uintptr_t sum9d_addr(void)      { return (uintptr_t)&sum9d; }
static uintptr_t mixed_addr(void)      { return (uintptr_t)&mixed; }
static uintptr_t identity128_addr(void){ return (uintptr_t)&identity128; }
static uintptr_t print2_addr(void)     { return (uintptr_t)&print2; }
static uintptr_t identity_ptr_addr(void){ return (uintptr_t)&identity_ptr; }
*/
import "C"

// Sum7Addr returns the address of a native int sum7(int,int,int,int,int,int,int).
func Sum7Addr() uintptr { return uintptr(C.sum7_addr()) }

// Sum8Addr returns the address of a native int sum8(...8 ints...).
func Sum8Addr() uintptr { return uintptr(C.sum8_addr()) }

// Sum9DAddr returns the address of a native double sum9d(...9 doubles...).
func Sum9DAddr() uintptr { return uintptr(C.sum9d_addr()) }

// MixedAddr returns the address of the mixed-bank scenario callee from
// spec.md §8 scenario 4 (six ints, eight floats, a trailing int, a
// trailing double).
func MixedAddr() uintptr { return uintptr(C.mixed_addr()) }

// Identity128Addr returns the address of a native __int128 identity(__int128).
func Identity128Addr() uintptr { return uintptr(C.identity128_addr()) }

// Print2Addr returns the address of a native void print2(int,int).
func Print2Addr() uintptr { return uintptr(C.print2_addr()) }

// IdentityPtrAddr returns the address of a native void* identity(void*),
// used for the NULL and fabricated-non-null pointer boundary cases.
func IdentityPtrAddr() uintptr { return uintptr(C.identity_ptr_addr()) }

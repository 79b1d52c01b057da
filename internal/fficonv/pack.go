// Package fficonv is a convenience layer over the Dispatcher's public
// surface: it turns ordinary Go-typed values into the []unsafe.Pointer
// cell vector Call expects, so callers do not have to manage
// unsafe.Pointer arithmetic by hand for the common case. It performs
// no classification and has no ABI knowledge (spec.md §1 names
// argument marshaling convenience as an out-of-scope collaborator, not
// part of the core engine).
package fficonv

import "unsafe"

// Cell owns the storage for one packed argument. Packer keeps these
// alive for the lifetime of the call so the pointers handed to Call
// remain valid.
type Cell struct {
	storage any
	ptr     unsafe.Pointer
}

// Packer accumulates typed values into an argument vector in
// declaration order.
type Packer struct {
	cells []Cell
}

// NewPacker returns an empty Packer.
func NewPacker() *Packer {
	return &Packer{}
}

func (p *Packer) push(v any, ptr unsafe.Pointer) {
	p.cells = append(p.cells, Cell{storage: v, ptr: ptr})
}

// Int32 packs a signed 32-bit integer (C int on every supported ABI).
func (p *Packer) Int32(v int32) *Packer {
	boxed := new(int32)
	*boxed = v
	p.push(boxed, unsafe.Pointer(boxed))
	return p
}

// Uint32 packs an unsigned 32-bit integer.
func (p *Packer) Uint32(v uint32) *Packer {
	boxed := new(uint32)
	*boxed = v
	p.push(boxed, unsafe.Pointer(boxed))
	return p
}

// Int64 packs a signed 64-bit integer (C long long / size_t-width long).
func (p *Packer) Int64(v int64) *Packer {
	boxed := new(int64)
	*boxed = v
	p.push(boxed, unsafe.Pointer(boxed))
	return p
}

// Uint64 packs an unsigned 64-bit integer.
func (p *Packer) Uint64(v uint64) *Packer {
	boxed := new(uint64)
	*boxed = v
	p.push(boxed, unsafe.Pointer(boxed))
	return p
}

// Float32 packs a C float.
func (p *Packer) Float32(v float32) *Packer {
	boxed := new(float32)
	*boxed = v
	p.push(boxed, unsafe.Pointer(boxed))
	return p
}

// Float64 packs a C double.
func (p *Packer) Float64(v float64) *Packer {
	boxed := new(float64)
	*boxed = v
	p.push(boxed, unsafe.Pointer(boxed))
	return p
}

// Uintptr packs a C pointer-sized value (void*, size_t).
func (p *Packer) Uintptr(v uintptr) *Packer {
	boxed := new(uintptr)
	*boxed = v
	p.push(boxed, unsafe.Pointer(boxed))
	return p
}

// Int128 packs a 128-bit integer as its low/high 64-bit halves,
// little-endian in memory (offset 0 low, offset 8 high), matching the
// return-buffer layout spec.md §6 specifies for 128-bit values.
func (p *Packer) Int128(lo, hi uint64) *Packer {
	boxed := new([2]uint64)
	boxed[0], boxed[1] = lo, hi
	p.push(boxed, unsafe.Pointer(boxed))
	return p
}

// Vector returns the packed argument vector, in push order, ready to
// pass to Trampoline.Call. The returned slice (and the storage it
// points into) remains valid as long as the Packer is reachable.
func (p *Packer) Vector() []unsafe.Pointer {
	out := make([]unsafe.Pointer, len(p.cells))
	for i, c := range p.cells {
		out[i] = c.ptr
	}
	return out
}

// ReturnBuffer allocates a zeroed buffer of at least n bytes, suitable
// for passing as Call's return-binding argument.
func ReturnBuffer(n int) unsafe.Pointer {
	if n < 16 {
		n = 16 // spec.md §6: "at least 16 bytes"
	}
	buf := make([]byte, n)
	return unsafe.Pointer(&buf[0])
}

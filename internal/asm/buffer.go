// Package asm implements the Instruction Emitter: an append-only byte
// buffer with typed helpers for the x86-64 and AArch64 instruction
// forms the compiler needs. It holds no ABI knowledge — spec.md §4.2.
package asm

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrCapacityExceeded is returned (and latched) the first time a write
// would exceed the buffer's reserved capacity. Spec.md §4.2: "The
// emitter rejects writes past a caller-supplied capacity (error ->
// compiler aborts and the trampoline object is discarded)".
var ErrCapacityExceeded = errors.New("asm: emission exceeds reserved capacity")

// Buffer is an append-only instruction stream bounded by a fixed
// capacity fixed at construction time. Unlike the teacher's
// CodeSegment, which grows an unbounded, module-wide code region on
// demand, a Buffer here is sized once from the signature (the
// compiler's EstimateCapacity) before any byte is written (spec.md §4.4's atomic-construction
// requirement means we must know up front whether emission fits), so
// growth past capacity is a hard error, not a resize.
type Buffer struct {
	data []byte
	cap  int
	err  error
}

// NewBuffer allocates a Buffer that can hold up to capacity bytes.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacity), cap: capacity}
}

// Len returns the number of bytes written so far.
func (b *Buffer) Len() int { return len(b.data) }

// Cap returns the buffer's fixed capacity.
func (b *Buffer) Cap() int { return b.cap }

// Bytes returns the written bytes. The slice is only valid until the
// next write.
func (b *Buffer) Bytes() []byte { return b.data }

// Err returns the first capacity error encountered, or nil.
func (b *Buffer) Err() error { return b.err }

// Offset returns the current write cursor, suitable for a later call
// to PatchUint32At (forward-branch patching; presently unused by any
// compiler backend, per spec.md §4.2).
func (b *Buffer) Offset() int { return len(b.data) }

func (b *Buffer) reserve(n int) bool {
	if b.err != nil {
		return false
	}
	if len(b.data)+n > b.cap {
		b.err = fmt.Errorf("%w: need %d more byte(s), %d/%d already used", ErrCapacityExceeded, n, len(b.data), b.cap)
		return false
	}
	return true
}

// Byte appends a single raw byte.
func (b *Buffer) Byte(v byte) {
	if !b.reserve(1) {
		return
	}
	b.data = append(b.data, v)
}

// Raw appends each byte in p, in order, without interpreting them as a
// multi-byte integer. Used for multi-byte opcode sequences where the
// byte order is dictated by the ISA manual, not host endianness.
func (b *Buffer) Raw(p ...byte) {
	if !b.reserve(len(p)) {
		return
	}
	b.data = append(b.data, p...)
}

// Uint16 appends v as a little-endian 16-bit word.
func (b *Buffer) Uint16(v uint16) {
	if !b.reserve(2) {
		return
	}
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// Uint32 appends v as a little-endian 32-bit word.
func (b *Buffer) Uint32(v uint32) {
	if !b.reserve(4) {
		return
	}
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// Uint64 appends v as a little-endian 64-bit word.
func (b *Buffer) Uint64(v uint64) {
	if !b.reserve(8) {
		return
	}
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

// ARMWord appends a fixed-width 32-bit AArch64 instruction word. It is
// a distinct, named entry point from Uint32 so AArch64 compiler code
// reads as "emit one instruction" even though the wire encoding
// (little-endian 32 bits) is identical.
func (b *Buffer) ARMWord(instr uint32) {
	b.Uint32(instr)
}

// PatchUint32At overwrites the 4 bytes at a previously captured Offset
// with v. Reserved for forward-branch patching; no compiler backend in
// this repository currently emits a forward branch (spec.md §4.2).
func (b *Buffer) PatchUint32At(offset int, v uint32) {
	if offset < 0 || offset+4 > len(b.data) {
		panic("asm: PatchUint32At out of range")
	}
	binary.LittleEndian.PutUint32(b.data[offset:offset+4], v)
}

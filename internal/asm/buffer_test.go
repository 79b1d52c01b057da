package asm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tramp-ffi/trampoline/internal/asm"
)

func TestBuffer_AppendsInOrder(t *testing.T) {
	b := asm.NewBuffer(16)
	b.Byte(0x90)
	b.Uint16(0x1122)
	b.Uint32(0x33445566)
	require.NoError(t, b.Err())
	require.Equal(t, []byte{0x90, 0x22, 0x11, 0x66, 0x55, 0x44, 0x33}, b.Bytes())
}

func TestBuffer_ARMWordIsLittleEndian(t *testing.T) {
	b := asm.NewBuffer(4)
	b.ARMWord(0xD65F03C0) // RET
	require.Equal(t, []byte{0xC0, 0x03, 0x5F, 0xD6}, b.Bytes())
}

func TestBuffer_RejectsWritesPastCapacity(t *testing.T) {
	b := asm.NewBuffer(2)
	b.Uint32(0xDEADBEEF)
	require.ErrorIs(t, b.Err(), asm.ErrCapacityExceeded)
	require.Equal(t, 0, b.Len())
}

func TestBuffer_LatchesFirstError(t *testing.T) {
	b := asm.NewBuffer(1)
	b.Byte(0x01)
	b.Byte(0x02) // exceeds capacity, latches error
	b.Byte(0x03) // no-op: error already latched
	require.Equal(t, []byte{0x01}, b.Bytes())
	require.ErrorIs(t, b.Err(), asm.ErrCapacityExceeded)
}

func TestBuffer_PatchUint32At(t *testing.T) {
	b := asm.NewBuffer(8)
	off := b.Offset()
	b.Uint32(0)
	b.Uint32(0xCAFEBABE)
	b.PatchUint32At(off, 0x11223344)
	require.Equal(t, []byte{0x44, 0x33, 0x22, 0x11, 0xBE, 0xBA, 0xFE, 0xCA}, b.Bytes())
}

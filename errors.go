package ffi

import "errors"

// ErrClosed is returned by Call when the Trampoline has already been
// closed.
var ErrClosed = errors.New("ffi: trampoline is closed")

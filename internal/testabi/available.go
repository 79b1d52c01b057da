package testabi

// Available reports whether this build was compiled with cgo, and
// therefore has real native callees to offer. Tests that need a
// genuine C function to call through the engine should skip (not
// fail) when this is false.
const Available = cgoEnabled

//go:build cgo

package testabi

const cgoEnabled = true

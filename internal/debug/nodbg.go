//go:build !debug

package debug

import "testing"

// Enabled is false in release builds; every call in this file is a no-op.
const Enabled = false

func Log(string, string, ...any)    {}
func Assert(bool, string, ...any)   {}
func WithTesting(testing.TB) func() { return func() {} }
func TrackAlloc(uintptr)            {}
func TrackFree(uintptr)             {}

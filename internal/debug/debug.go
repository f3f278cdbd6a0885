//go:build debug

// Package debug includes debugging helpers for the allocator core.
//
// It is compiled in only with the "debug" build tag; release builds use
// nodbg.go instead, which turns every call in this package into a no-op so
// that release binaries pay nothing for tracing.
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/timandy/routine"

	"github.com/flier/smallobj/internal/xsync"
)

// Enabled is true when the binary was built with the "debug" tag.
const Enabled = true

// live records every block address currently allocated, so TrackFree can
// catch a double free, which Chunk.Release does not detect on its own.
var live xsync.Map[uintptr, struct{}]

// TrackAlloc records p as allocated. It panics if p is already tracked,
// which would mean the free list handed out a live block.
func TrackAlloc(p uintptr) {
	if _, dup := live.LoadOrStore(p, func() struct{} { return struct{}{} }); dup {
		panic(fmt.Errorf("smallobj: internal assertion failed: block %#x allocated while already live", p))
	}
}

// TrackFree clears p's live marker. It panics if p was not tracked, which
// means the caller is freeing a pointer twice.
func TrackFree(p uintptr) {
	if !live.Delete(p) {
		panic(fmt.Errorf("smallobj: double free at %#x", p))
	}
}

var tls = routine.NewThreadLocal[testing.TB]()

// WithTesting routes Log output through t.Log instead of stderr for the
// duration of a test, restoring the previous target on return.
func WithTesting(t testing.TB) func() {
	t.Helper()

	prev := tls.Get()
	tls.Set(t)

	return func() { tls.Set(prev) }
}

// Log prints a trace line tagged with the calling goroutine's id, as
// reported by routine.Goid(). op names the allocator operation ("chunk.new",
// "arena.shrink", "pool.crossfree", ...); format/args are printed after it.
func Log(op string, format string, args ...any) {
	_, file, line, _ := runtime.Caller(2)

	buf := new(strings.Builder)
	fmt.Fprintf(buf, "%s:%d [g%04d] %s: ", filepath.Base(file), line, routine.Goid(), op)
	fmt.Fprintf(buf, format, args...)

	if t := tls.Get(); t != nil {
		t.Log(buf.String())
		return
	}

	buf.WriteByte('\n')
	os.Stderr.WriteString(buf.String())
}

// Assert panics if cond is false. Only compiled in debug builds; callers
// guard cheap invariant checks behind debug.Assert so release builds never
// pay for them.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Errorf("smallobj: internal assertion failed: "+format, args...))
	}
}

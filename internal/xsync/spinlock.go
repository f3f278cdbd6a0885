package xsync

import (
	"runtime"
	"sync/atomic"
)

// spinIterations is the number of busy-wait CAS attempts before SpinLock
// yields the current goroutine to the scheduler.
const spinIterations = 64

// SpinLock is an adaptive spin lock: Lock busy-waits on a CAS for a bounded
// number of iterations, then calls runtime.Gosched to let other goroutines
// run before retrying. It gives no fairness guarantee, matching the
// platform primitive it stands in for.
//
// The zero value is an unlocked SpinLock, ready to use.
type SpinLock struct {
	held atomic.Bool
}

// TryLock attempts a single CAS and reports whether it succeeded.
func (l *SpinLock) TryLock() bool {
	return l.held.CompareAndSwap(false, true)
}

// Lock blocks until the lock is acquired.
func (l *SpinLock) Lock() {
	for i := 1; ; i++ {
		if l.TryLock() {
			return
		}
		if i >= spinIterations {
			runtime.Gosched()
			i = 0
		}
	}
}

// Unlock releases the lock. Unlock on an already-unlocked SpinLock is a
// programming error but does not panic, matching the source's noexcept
// contract.
func (l *SpinLock) Unlock() {
	l.held.Store(false)
}

package xsync

import "sync"

// RWBarrier is a reader/writer barrier: many readers may hold it
// concurrently, a writer excludes everyone else. It wraps sync.RWMutex
// directly rather than reimplementing one, since Go's RWMutex already gives
// the "whatever the platform provides, no particular writer-priority
// policy guaranteed" semantics the source's pthrrwlock/srwlock split
// delegated to the OS.
type RWBarrier struct {
	mu sync.RWMutex
}

// ReadLock acquires the barrier for shared (read) access.
func (b *RWBarrier) ReadLock() { b.mu.RLock() }

// ReadUnlock releases a previously acquired shared lock.
func (b *RWBarrier) ReadUnlock() { b.mu.RUnlock() }

// WriteLock acquires the barrier for exclusive (write) access.
func (b *RWBarrier) WriteLock() { b.mu.Lock() }

// WriteUnlock releases a previously acquired exclusive lock.
func (b *RWBarrier) WriteUnlock() { b.mu.Unlock() }

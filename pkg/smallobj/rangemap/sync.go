package rangemap

import "github.com/flier/smallobj/internal/xsync"

// Synchronized wraps a Tree with a reader/writer barrier: Find, All, and
// Empty take the read lock; Insert and Erase take the write lock. Arena
// does not currently need this wrapper — its own mutex already serializes
// every chunks-index access — but it is kept as the building block for
// any future caller that wants to read the range index without going
// through Arena's mutex.
type Synchronized[V any] struct {
	barrier xsync.RWBarrier
	tree    Tree[V]
}

// Insert acquires the write lock and delegates to Tree.Insert.
func (s *Synchronized[V]) Insert(key Range, value V) error {
	s.barrier.WriteLock()
	defer s.barrier.WriteUnlock()
	return s.tree.Insert(key, value)
}

// Erase acquires the write lock and delegates to Tree.Erase.
func (s *Synchronized[V]) Erase(key Range) bool {
	s.barrier.WriteLock()
	defer s.barrier.WriteUnlock()
	return s.tree.Erase(key)
}

// Find acquires the read lock and delegates to Tree.Find.
func (s *Synchronized[V]) Find(point uintptr) (Entry[V], bool) {
	s.barrier.ReadLock()
	defer s.barrier.ReadUnlock()
	return s.tree.Find(point)
}

// Empty acquires the read lock and delegates to Tree.Empty.
func (s *Synchronized[V]) Empty() bool {
	s.barrier.ReadLock()
	defer s.barrier.ReadUnlock()
	return s.tree.Empty()
}

// All acquires the read lock and delegates to Tree.All.
func (s *Synchronized[V]) All() []Entry[V] {
	s.barrier.ReadLock()
	defer s.barrier.ReadUnlock()
	return s.tree.All()
}

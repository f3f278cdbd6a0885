// Package reglist implements a lock-free, singly-owned-growth doubly-linked
// list. It backs the per-pool arena registry: arenas are
// pushed once, on creation, and never removed during normal operation;
// Erase exists only for teardown symmetry.
//
// Grounded on goutil's pkg/arena/art/node/ref.go pattern of wrapping a
// raw pointer in a typed, atomically-swappable value, generalized here from
// a tagged node reference (pointer + type bits) to a plain atomic.Pointer
// doubly-linked node, since the registry holds exactly one node "type".
package reglist

import (
	"runtime"
	"sync/atomic"
)

// Node is a list node holding one value. PushFront allocates it and links
// it; callers reach the stored value via the Value field. The list is not
// intrusive: it does not link nodes embedded in caller types.
type Node[T any] struct {
	Value T

	prev atomic.Pointer[Node[T]]
	next atomic.Pointer[Node[T]]
}

// List is the lock-free doubly-linked list itself. The zero value is an
// empty, ready-to-use list.
type List[T any] struct {
	head atomic.Pointer[Node[T]]
	tail atomic.Pointer[Node[T]]
}

// PushFront allocates a new node holding v and links it at the head of the
// list. It is wait-free except for CAS retries under contention with other
// pushers.
func (l *List[T]) PushFront(v T) *Node[T] {
	n := &Node[T]{Value: v}

	for {
		head := l.head.Load()
		n.next.Store(head)
		n.prev.Store(nil)

		if !l.head.CompareAndSwap(head, n) {
			runtime.Gosched()
			continue
		}

		if head != nil {
			head.prev.Store(n)
		} else {
			l.tail.CompareAndSwap(nil, n)
		}

		return n
	}
}

// Erase unlinks n from the list. It exists for teardown symmetry; the
// registry is never shrunk during normal operation — every arena ever
// constructed under a pool appears exactly once in the registry and
// remains there until the pool is destroyed.
func (l *List[T]) Erase(n *Node[T]) {
	for {
		prev := n.prev.Load()
		next := n.next.Load()

		if prev != nil {
			if !prev.next.CompareAndSwap(n, next) {
				runtime.Gosched()
				continue
			}
		} else {
			if !l.head.CompareAndSwap(n, next) {
				runtime.Gosched()
				continue
			}
		}

		if next != nil {
			next.prev.CompareAndSwap(n, prev)
		} else {
			l.tail.CompareAndSwap(n, prev)
		}

		return
	}
}

// Front returns the head node of the list, or nil if the list is empty.
func (l *List[T]) Front() *Node[T] {
	return l.head.Load()
}

// Next returns the node following n, or nil at the end of the list.
func (n *Node[T]) Next() *Node[T] {
	return n.next.Load()
}

// All returns a slice of every value currently linked in the list, walked
// head to tail. It is a point-in-time snapshot; concurrent pushes may or
// may not be observed.
func (l *List[T]) All() []T {
	var out []T
	for n := l.Front(); n != nil; n = n.Next() {
		out = append(out, n.Value)
	}
	return out
}

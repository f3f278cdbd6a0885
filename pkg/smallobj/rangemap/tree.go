package rangemap

// Tree is a balanced BST mapping disjoint half-open ranges to a value of
// type V. The zero value is an empty tree, ready to use. Tree is not safe
// for concurrent use; see Synchronized for a lock-wrapped variant.
type Tree[V any] struct {
	root *node[V]
	size int
}

// Insert adds key -> value. It returns ErrOverlap, leaving the tree
// unchanged, if key overlaps any range already present.
func (t *Tree[V]) Insert(key Range, value V) error {
	if !key.valid() {
		panic("rangemap: range.Min must be < range.Max")
	}

	root, err := insert(t.root, key, value)
	if err != nil {
		return err
	}

	t.root = root
	t.size++
	return nil
}

// Find returns the entry whose range contains point, if any.
func (t *Tree[V]) Find(point uintptr) (Entry[V], bool) {
	n := search(t.root, point)
	if n == nil {
		return Entry[V]{}, false
	}
	return Entry[V]{Key: n.key, Value: n.value}, true
}

// Erase removes the entry stored under key. It reports whether anything
// was removed.
func (t *Tree[V]) Erase(key Range) bool {
	root, ok := deleteRange(t.root, key)
	if !ok {
		return false
	}

	t.root = root
	t.size--
	return true
}

// Len returns the number of entries currently stored.
func (t *Tree[V]) Len() int { return t.size }

// Empty reports whether the tree holds no entries.
func (t *Tree[V]) Empty() bool { return t.size == 0 }

// All returns every entry in ascending key order. The returned slice is a
// point-in-time copy; it is not invalidated by later mutation, unlike the
// source's iterators.
func (t *Tree[V]) All() []Entry[V] {
	return inorder(t.root, nil)
}

// Clear removes every entry, using a non-recursive post-order walk so a
// degenerate (effectively linear) tree doesn't blow the stack.
func (t *Tree[V]) Clear() {
	destroy(t.root)
	t.root = nil
	t.size = 0
}

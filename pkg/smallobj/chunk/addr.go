package chunk

import "unsafe"

// addrOf returns the address of a slice's backing array. Go's current
// garbage collector does not move heap allocations, so this address stays
// valid for as long as buf (or anything derived from it) is reachable —
// the same assumption goutil's arena package makes when it hands out
// raw *byte values from unsafe.Slice.
func addrOf(buf []byte) uintptr {
	if len(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[0]))
}

// AddrOfBlock returns the address of a block previously returned by
// Chunk.Alloc. Callers (arena.Arena, pool.Pool) use this to recover the
// address identity needed to key the range index and to pass to Release.
func AddrOfBlock(block []byte) uintptr {
	return addrOf(block)
}

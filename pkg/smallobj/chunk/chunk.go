// Package chunk implements the fixed-block slab: a contiguous region of
// exactly BlockCount equally sized blocks, with an intrusive singly-linked
// free list threaded through the first byte of each free block.
//
// Mirrors goutil's pkg/arena/recycle.go, which threads a "next"
// pointer through the first machine word of a freed block to build a
// per-size-class free list; Chunk narrows that idea to an 8-bit index
// (rather than a full pointer) scoped to a single 255-block slab, since
// free-list successor indices are one byte wide.
package chunk

import "github.com/flier/smallobj/internal/debug"

// BlockCount is the number of blocks in every chunk. Free-list successor
// indices are stored as a single byte, so this is fixed at the size of that
// byte's value space minus the reserved end-of-list sentinel.
const BlockCount = 255

// endOfList is the sentinel stored in a free block's first byte (or in
// Chunk.position) meaning "no further free block".
const endOfList = 255

// Chunk is a slab of BlockCount blocks of blockSize bytes each, with an
// intrusive free list. Chunk is not safe for concurrent use; callers
// (arena.Arena) must serialize access.
type Chunk struct {
	buf       []byte
	blockSize int
	position  uint8 // head-of-free-list index, endOfList when full
	freeCount uint16
}

// New constructs a Chunk backed by buf, which must have length
// BlockCount*blockSize. The free list is initialized so that block k's
// first byte names k+1 as its successor, and the last block names
// endOfList, satisfying the invariant that every free block's first byte
// is a valid successor index or endOfList.
func New(blockSize int, buf []byte) *Chunk {
	if len(buf) != BlockCount*blockSize {
		panic("chunk: buf has the wrong length for blockSize")
	}

	for k := 0; k < BlockCount; k++ {
		next := byte(k + 1)
		if k == BlockCount-1 {
			next = endOfList
		}
		buf[k*blockSize] = next
	}

	return &Chunk{
		buf:       buf,
		blockSize: blockSize,
		position:  0,
		freeCount: BlockCount,
	}
}

// Begin returns the address of the first byte of the chunk's backing
// storage, used by the owning arena to key its range index.
func (c *Chunk) Begin() uintptr { return addrOf(c.buf) }

// End returns the address one past the last byte of the chunk's backing
// storage (exclusive), used by the owning arena to key its range index.
func (c *Chunk) End() uintptr { return addrOf(c.buf) + uintptr(len(c.buf)) }

// FreeCount returns the number of free blocks remaining in the chunk.
func (c *Chunk) FreeCount() int { return int(c.freeCount) }

// Empty reports whether every block in the chunk is free.
func (c *Chunk) Empty() bool { return int(c.freeCount) == BlockCount }

// Full reports whether no block in the chunk is free.
func (c *Chunk) Full() bool { return c.freeCount == 0 }

// Alloc removes the head of the free list and returns it as a BlockSize()
// length slice into the chunk's backing storage. ok is false iff the chunk
// is full.
func (c *Chunk) Alloc() (block []byte, ok bool) {
	if c.freeCount == 0 {
		return nil, false
	}

	off := int(c.position) * c.blockSize
	block = c.buf[off : off+c.blockSize]

	next := block[0]
	c.freeCount--
	if c.freeCount == 0 {
		c.position = endOfList
	} else {
		c.position = next
	}

	debug.TrackAlloc(addrOf(c.buf) + uintptr(off))

	return block, true
}

// Contains reports whether p lies within this chunk's address range.
func (c *Chunk) Contains(p uintptr) bool {
	return p >= c.Begin() && p < c.End()
}

// Release returns the block starting at address p to the free list. It
// reports false, without mutating any state, if p does not lie within
// [Begin, End) or is not block-aligned — callers are expected to have
// already established this via the range index, but it is checked here as
// a defensive boundary rather than trusted blindly.
func (c *Chunk) Release(p uintptr) bool {
	if !c.Contains(p) {
		return false
	}

	rel := p - c.Begin()
	if rel%uintptr(c.blockSize) != 0 {
		return false
	}

	idx := uint8(rel / uintptr(c.blockSize))
	off := int(idx) * c.blockSize
	block := c.buf[off : off+c.blockSize]

	debug.TrackFree(p)

	block[0] = c.position
	c.position = idx
	c.freeCount++

	return true
}

// BlockSize returns the fixed size, in bytes, of every block in the chunk.
func (c *Chunk) BlockSize() int { return c.blockSize }

// Bytes returns the chunk's entire backing storage, for returning to a
// page source on Shrink.
func (c *Chunk) Bytes() []byte { return c.buf }

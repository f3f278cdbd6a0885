// Package arena implements a pool of chunks serving a single size class,
// with single-thread-ownership fast paths and a range index that maps a
// freed pointer back to its owning chunk.
//
// Mirrors goutil's pkg/arena/arena.go (the cached "current chunk"
// fast path, falling back to a slow path that grows) adapted from a bump
// allocator to a segregated free-list pool, and on internal/reglist's
// compare-and-swap idiom for the reserved flag (a single CAS, no retry).
package arena

import (
	"sync"
	"sync/atomic"

	"github.com/flier/smallobj/internal/debug"
	"github.com/flier/smallobj/pkg/smallobj/chunk"
	"github.com/flier/smallobj/pkg/smallobj/pagesrc"
	"github.com/flier/smallobj/pkg/smallobj/rangemap"
)

// defaultMaxEmptyChunks is the number of empty chunks an arena keeps as a
// cache against near-future growth before returning pages to the source.
// Treated as an internal tunable rather than a public Option, since 2 has
// proven a sensible default and nothing downstream needs to override it.
const defaultMaxEmptyChunks = 2

// Arena serves allocations for exactly one size class, on behalf of
// (currently) at most one thread of ownership at a time. The zero value is
// not usable; construct with New.
type Arena struct {
	blockSize int
	pages     pagesrc.Source

	mu               sync.Mutex
	chunks           rangemap.Tree[*chunk.Chunk]
	allocCursor      *chunk.Chunk
	freeCursor       *chunk.Chunk
	emptyChunksCount int
	maxEmptyChunks   int

	reserved atomic.Bool
}

// New constructs an Arena for the given block size, backed by pages. No
// chunk is created until the first Malloc (the source creates its first
// chunk eagerly; this port defers it, since Go allocation failure is
// reported through an error return rather than a constructor that cannot
// fail).
func New(blockSize int, pages pagesrc.Source) *Arena {
	return &Arena{
		blockSize:      blockSize,
		pages:          pages,
		maxEmptyChunks: defaultMaxEmptyChunks,
	}
}

// BlockSize returns the fixed block size this arena serves.
func (a *Arena) BlockSize() int { return a.blockSize }

// Malloc allocates one block, returning a slice of length BlockSize.
// Callers that asked for fewer bytes should trim the result themselves;
// the arena always deals in whole blocks.
func (a *Arena) Malloc() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.allocCursor != nil {
		if b, ok := a.allocCursor.Alloc(); ok {
			return b, nil
		}
	}

	for _, e := range a.chunks.All() {
		if e.Value == a.allocCursor {
			continue
		}
		if b, ok := e.Value.Alloc(); ok {
			a.allocCursor = e.Value
			return b, nil
		}
	}

	c, err := a.growLocked()
	if err != nil {
		return nil, err
	}

	a.allocCursor = c
	a.freeCursor = c

	b, ok := c.Alloc()
	debug.Assert(ok, "arena: freshly grown chunk failed to allocate")
	return b, nil
}

// growLocked allocates a fresh chunk from the page source and inserts it
// into the range index. Callers must hold a.mu.
func (a *Arena) growLocked() (*chunk.Chunk, error) {
	buf, err := a.pages.PageAlloc(chunk.BlockCount * a.blockSize)
	if err != nil {
		return nil, err
	}

	c := chunk.New(a.blockSize, buf)

	if err := a.chunks.Insert(rangemap.Range{Min: c.Begin(), Max: c.End()}, c); err != nil {
		// Disjointness is guaranteed by the page source handing back fresh,
		// non-overlapping memory; surfacing this rather than panicking keeps
		// the contract honest if that assumption is ever violated.
		return nil, err
	}

	debug.Log("chunk.new", "%#x:%#x block=%d", c.Begin(), c.End(), a.blockSize)

	return c, nil
}

// Free releases the block at address p. It reports false, changing
// nothing, if p is not the start of a block inside one of this arena's
// chunks. It does not check whether that block is currently allocated.
//
// Free uses exactly one lock — this mutex — for both same-thread and
// cross-thread callers. Pool's cross-thread fallback calls Free directly,
// with no additional barrier: the mutex already serializes every mutation
// of chunks/cursors/counts, so a second lock would only add contention
// without adding safety.
func (a *Arena) Free(p uintptr) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.freeCursor != nil && a.freeCursor.Release(p) {
		a.afterFreeLocked(a.freeCursor)
		return true
	}

	e, ok := a.chunks.Find(p)
	if !ok {
		return false
	}

	if !e.Value.Release(p) {
		return false
	}

	a.freeCursor = e.Value
	a.afterFreeLocked(e.Value)
	return true
}

func (a *Arena) afterFreeLocked(c *chunk.Chunk) {
	if !c.Empty() {
		return
	}

	a.emptyChunksCount++
	if a.emptyChunksCount > a.maxEmptyChunks {
		a.shrinkLocked()
	}
}

// Reserve atomically marks this arena as owned by the calling thread. It
// reports true on success, false if some other thread already owns it.
// Wait-free.
func (a *Arena) Reserve() bool {
	return a.reserved.CompareAndSwap(false, true)
}

// Release marks this arena as unowned, making it eligible for another
// thread to Reserve. Wait-free.
func (a *Arena) Release() {
	a.reserved.Store(false)
}

// Reserved reports whether some thread currently owns this arena.
func (a *Arena) Reserved() bool {
	return a.reserved.Load()
}

// Shrink scans the range index and returns all but maxEmptyChunks empty
// chunks to the page source, resetting emptyChunksCount to at most that
// many. emptyChunksCount is treated as a hint recomputed here from an
// actual scan, not trusted blindly.
func (a *Arena) Shrink() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shrinkLocked()
}

func (a *Arena) shrinkLocked() {
	var toFree []*chunk.Chunk
	kept := 0

	for _, e := range a.chunks.All() {
		if !e.Value.Empty() {
			continue
		}
		if kept < a.maxEmptyChunks {
			kept++
			continue
		}
		toFree = append(toFree, e.Value)
	}

	for _, c := range toFree {
		a.chunks.Erase(rangemap.Range{Min: c.Begin(), Max: c.End()})
		a.pages.PageFree(c.Bytes())

		if a.allocCursor == c {
			a.allocCursor = nil
		}
		if a.freeCursor == c {
			a.freeCursor = nil
		}

		debug.Log("arena.shrink", "%#x:%#x returned", c.Begin(), c.End())
	}

	a.emptyChunksCount = kept
}

// Stats is a read-only snapshot of an arena's bookkeeping, added to make
// invariants like the chunk high-water mark and the empty-chunk bound
// observable from tests without reaching into unexported state.
type Stats struct {
	BlockSize     int
	NumChunks     int
	EmptyChunks   int
	BytesInUse    int
	BytesCapacity int
}

// Stats returns a snapshot of this arena's current bookkeeping.
func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Stats{BlockSize: a.blockSize}
	for _, e := range a.chunks.All() {
		s.NumChunks++
		if e.Value.Empty() {
			s.EmptyChunks++
		}
		used := chunk.BlockCount - e.Value.FreeCount()
		s.BytesInUse += used * a.blockSize
		s.BytesCapacity += chunk.BlockCount * a.blockSize
	}
	return s
}

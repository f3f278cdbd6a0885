// Package pool implements the thread-affinity dispatcher that hands each
// goroutine its own Arena for one size class, manages cross-thread
// deallocation, and reclaims an owner's arena when the owner exits.
//
// Mirrors goutil's internal/debug/testing.go use of
// routine.NewThreadLocal[T] for goroutine-scoped state, and on
// internal/reglist for the arena registry. Go has no synchronous
// goroutine-exit hook; this port approximates one with
// runtime.SetFinalizer on a small per-goroutine handle, documented in
// DESIGN.md as a best-effort, GC-driven substitute rather than a
// synchronous one.
package pool

import (
	"runtime"

	"github.com/timandy/routine"

	"github.com/flier/smallobj/internal/debug"
	"github.com/flier/smallobj/internal/reglist"
	"github.com/flier/smallobj/internal/xsync"
	"github.com/flier/smallobj/pkg/smallobj/arena"
	"github.com/flier/smallobj/pkg/smallobj/chunk"
	"github.com/flier/smallobj/pkg/smallobj/pagesrc"
)

// Pool coordinates every Arena serving one size class across all
// goroutines. The zero value is not usable; construct with New.
type Pool struct {
	blockSize  int
	chunkBytes uintptr
	pages      pagesrc.Source

	registry reglist.List[*arena.Arena]
	tls      routine.ThreadLocal[*ownership]
	hints    xsync.HintCache[uintptr, *arena.Arena]
}

// ownership is the value stored in a goroutine's thread-local slot: the
// arena it currently owns. It carries a finalizer that releases the arena
// back to the registry once the slot becomes unreachable, standing in for
// a thread-exit destructor that Go has no synchronous equivalent of.
type ownership struct {
	arena *arena.Arena
}

// New constructs a Pool serving blockSize, drawing fresh chunks from pages.
func New(blockSize int, pages pagesrc.Source) *Pool {
	return &Pool{
		blockSize:  blockSize,
		chunkBytes: uintptr(chunk.BlockCount * blockSize),
		pages:      pages,
		tls:        routine.NewThreadLocal[*ownership](),
	}
}

// BlockSize returns the fixed block size this pool serves.
func (p *Pool) BlockSize() int { return p.blockSize }

// Malloc allocates one block from the calling goroutine's reserved arena,
// reserving one first if this is the goroutine's first call into this pool.
func (p *Pool) Malloc() ([]byte, error) {
	a := p.arenaFor()
	return a.Malloc()
}

// arenaFor returns the arena reserved by the calling goroutine, reserving
// one (reusing a released arena from the registry when possible, else
// growing the registry) on first use.
func (p *Pool) arenaFor() *arena.Arena {
	if own := p.tls.Get(); own != nil {
		return own.arena
	}

	a := p.acquire()

	own := &ownership{arena: a}
	runtime.SetFinalizer(own, func(own *ownership) {
		own.arena.Shrink()
		own.arena.Release()
	})
	p.tls.Set(own)

	return a
}

// acquire reserves an existing unreserved arena from the registry, or
// grows the registry with a fresh one if every existing arena is owned.
func (p *Pool) acquire() *arena.Arena {
	for _, a := range p.registry.All() {
		if a.Reserve() {
			return a
		}
	}

	a := arena.New(p.blockSize, p.pages)
	a.Reserve()
	p.registry.PushFront(a)

	debug.Log("pool.grow", "blockSize=%d registry grew", p.blockSize)

	return a
}

// Free releases the block at address pointer. It first tries the calling
// goroutine's own arena (the common case of allocate/free on the same
// goroutine), then a cached hint from a prior cross-thread free to the same
// chunk-sized address bucket, and finally falls back to scanning every
// arena in the registry — the block's owning arena is guaranteed to exist
// there, so the scan always terminates with an answer.
func (p *Pool) Free(pointer uintptr) bool {
	if own := p.tls.Get(); own != nil && own.arena.Free(pointer) {
		return true
	}

	bucket := p.bucket(pointer)

	if a, ok := p.hints.Get(bucket); ok && a.Free(pointer) {
		return true
	}

	for _, a := range p.registry.All() {
		if a.Free(pointer) {
			p.hints.Set(bucket, a)
			debug.Log("pool.crossfree", "blockSize=%d addr=%#x", p.blockSize, pointer)
			return true
		}
	}

	return false
}

func (p *Pool) bucket(pointer uintptr) uintptr {
	return pointer / p.chunkBytes
}

// Stats is a read-only snapshot aggregating every arena in the pool's
// registry, added so cross-arena invariants (no leaks, no double-serving)
// are observable from tests.
type Stats struct {
	BlockSize     int
	NumArenas     int
	ReservedCount int
	Arenas        []arena.Stats
}

// Stats returns a snapshot of every arena currently registered with p.
func (p *Pool) Stats() Stats {
	s := Stats{BlockSize: p.blockSize}

	for _, a := range p.registry.All() {
		s.NumArenas++
		if a.Reserved() {
			s.ReservedCount++
		}
		s.Arenas = append(s.Arenas, a.Stats())
	}

	return s
}

package smallobj

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/flier/smallobj/pkg/smallobj/chunk"
	"github.com/flier/smallobj/pkg/smallobj/pagesrc"
	"github.com/flier/smallobj/pkg/smallobj/pool"
)

// wordSize is the machine word, in bytes, that every size class is a
// multiple of.
const wordSize = int(unsafe.Sizeof(uintptr(0)))

// MinSize and MaxSize bound the size classes served by the allocator core;
// requests outside (0, MaxSize] either are invalid or bypass the pools
// entirely. Step is the distance between consecutive class block sizes.
const (
	MinSize = 2 * wordSize
	MaxSize = 16 * wordSize
	Step    = wordSize
)

// numClasses is the number of pools, one per size class in [MinSize,
// MaxSize] spaced by Step.
const numClasses = (MaxSize-MinSize)/Step + 1

// ErrInvalidSize is returned by Allocate for a non-positive size.
var ErrInvalidSize = errors.New("smallobj: size must be positive")

// OOMError reports that the allocator core could not satisfy a request
// because its page source failed. It wraps the underlying pagesrc error so
// callers can errors.As/errors.Is through to it.
type OOMError struct {
	Size int
	Err  error
}

func (e *OOMError) Error() string {
	return fmt.Sprintf("smallobj: allocate %d bytes: %v", e.Size, e.Err)
}

func (e *OOMError) Unwrap() error { return e.Err }

// ClassOf reports which size-class index would serve a request of size
// bytes, and whether size falls within the allocator core's range at all
// (size <= 0 or size > MaxSize reports ok == false). Exposed so a caller
// can learn the dispatch decision without actually allocating.
func ClassOf(size int) (class int, ok bool) {
	if size <= 0 || size > MaxSize {
		return 0, false
	}

	rounded := size
	if size < MinSize {
		rounded = MinSize
	} else if rem := size % wordSize; rem != 0 {
		rounded = size + (wordSize - rem)
	}

	return rounded/wordSize - MinSize/wordSize, true
}

func blockSizeForClass(class int) int {
	return MinSize + class*Step
}

// Facade is the dispatcher fronting one fixed-length array of pools, one
// per size class. Most callers use the package-level Allocate/Deallocate,
// which dispatch through a lazily constructed process-wide Facade;
// NewFacade exists for tests that want an isolated instance over a
// FakePageSource.
type Facade struct {
	pages pagesrc.Source
	pools [numClasses]*pool.Pool
}

// Option configures a Facade built with NewFacade.
type Option func(*Facade)

// WithPageSource overrides the page source backing every pool in the
// Facade. The default is pagesrc.OSPageSource{}.
func WithPageSource(src pagesrc.Source) Option {
	return func(f *Facade) { f.pages = src }
}

// NewFacade constructs a standalone Facade. It does not affect the
// package-level singleton used by Allocate/Deallocate.
func NewFacade(opts ...Option) *Facade {
	f := &Facade{pages: pagesrc.OSPageSource{}}
	for _, opt := range opts {
		opt(f)
	}

	for i := range f.pools {
		f.pools[i] = pool.New(blockSizeForClass(i), f.pages)
	}

	return f
}

// Allocate returns a slice of exactly size bytes, aligned to at least
// wordSize. For size <= MaxSize the block comes from the allocator core;
// larger requests are served directly by Go's own allocator. size must be
// positive.
func (f *Facade) Allocate(size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	if size > MaxSize {
		return make([]byte, size), nil
	}

	class, _ := ClassOf(size)

	b, err := f.pools[class].Malloc()
	if err != nil {
		return nil, &OOMError{Size: size, Err: err}
	}

	return b[:size], nil
}

// Deallocate returns b to the pool it was allocated from. len(b) must be
// exactly the size passed to the Allocate call that produced it — this is
// a sized deallocation, not a free-by-pointer. Freeing never fails: a
// pointer unknown to any arena of the implied size class is undefined
// behavior, and in this implementation is silently ignored in every build.
// Debug builds panic on a double free of a block that lies inside one of
// the pool's chunks.
func (f *Facade) Deallocate(b []byte) {
	size := len(b)
	if size <= 0 {
		return
	}

	if size > MaxSize {
		return // left for the garbage collector, same as Go's own allocator
	}

	class, ok := ClassOf(size)
	if !ok {
		return
	}

	f.pools[class].Free(chunk.AddrOfBlock(b))
}

// Stats aggregates every size class's pool.Stats, for tests asserting
// allocator invariants end to end.
func (f *Facade) Stats() []pool.Stats {
	stats := make([]pool.Stats, len(f.pools))
	for i, p := range f.pools {
		stats[i] = p.Stats()
	}
	return stats
}

var (
	instance     *Facade
	instanceOnce sync.Once
)

// defaultFacade returns the process-wide singleton, constructing it on
// first use. sync.Once gives the same happens-before guarantee a
// double-checked-locking singleton would, idiomatically in Go.
func defaultFacade() *Facade {
	instanceOnce.Do(func() {
		instance = NewFacade()
	})
	return instance
}

// Allocate dispatches through the process-wide Facade. See Facade.Allocate.
func Allocate(size int) ([]byte, error) {
	return defaultFacade().Allocate(size)
}

// Deallocate dispatches through the process-wide Facade. See
// Facade.Deallocate.
func Deallocate(b []byte) {
	defaultFacade().Deallocate(b)
}

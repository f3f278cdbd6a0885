// Package pagesrc implements the system page source contract: two
// functions moving raw, sufficiently aligned memory in and out of the
// allocator core. Platform-specific page allocators (mmap, VirtualAlloc)
// are out of scope; this package instead treats the Go runtime's own
// allocator as the "OS" for purposes of this contract, grounded on
// original_source's posix/mmap_allocator.hpp and posix/aligned_malloc.hpp,
// which likewise each expose a real backend behind the same two-function
// shape and let callers pick.
package pagesrc

import "errors"

// ErrOutOfMemory is returned when a page allocation fails. The allocator
// core wraps this in smallobj.OOMError before it reaches a caller of
// Allocate.
var ErrOutOfMemory = errors.New("pagesrc: out of memory")

// Source is the two-function contract required of a page source.
type Source interface {
	// PageAlloc returns nbytes of memory aligned to at least the source's
	// alignment guarantee, or ErrOutOfMemory.
	PageAlloc(nbytes int) ([]byte, error)

	// PageFree releases memory previously returned by PageAlloc. buf must
	// be exactly the slice PageAlloc returned (same address, same length).
	PageFree(buf []byte)
}

// OSPageSource backs pages with the Go runtime's own allocator
// (make([]byte, n)). Go has no portable raw mmap/VirtualAlloc in the
// standard library, and a real syscall-backed source is out of scope here
// — make() already aligns large allocations at least as strictly as this
// allocator's blocks require (machine-word multiples), so it stands in
// for the OS page allocator without a real unmap: pages are simply
// dropped and left for the garbage collector.
type OSPageSource struct{}

var _ Source = OSPageSource{}

// PageAlloc implements Source.
func (OSPageSource) PageAlloc(nbytes int) ([]byte, error) {
	if nbytes <= 0 {
		return nil, errors.New("pagesrc: nbytes must be positive")
	}
	return make([]byte, nbytes), nil
}

// PageFree implements Source. It is a no-op: the backing array is left for
// the garbage collector once nothing references it anymore.
func (OSPageSource) PageFree([]byte) {}

package pagesrc

import "sync"

// FakePageSource is a test double that can be made to fail on demand and
// that tracks every outstanding allocation, so tests can assert "no leaks"
// by checking Outstanding() == 0 at the end of a run.
type FakePageSource struct {
	mu          sync.Mutex
	outstanding map[*byte]int
	failNext    int
}

// NewFake returns a ready-to-use FakePageSource.
func NewFake() *FakePageSource {
	return &FakePageSource{outstanding: make(map[*byte]int)}
}

var _ Source = (*FakePageSource)(nil)

// FailNext makes the next n calls to PageAlloc return ErrOutOfMemory.
func (f *FakePageSource) FailNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = n
}

// PageAlloc implements Source.
func (f *FakePageSource) PageAlloc(nbytes int) ([]byte, error) {
	f.mu.Lock()
	if f.failNext > 0 {
		f.failNext--
		f.mu.Unlock()
		return nil, ErrOutOfMemory
	}
	f.mu.Unlock()

	buf := make([]byte, nbytes)

	f.mu.Lock()
	f.outstanding[&buf[0]] = nbytes
	f.mu.Unlock()

	return buf, nil
}

// PageFree implements Source.
func (f *FakePageSource) PageFree(buf []byte) {
	if len(buf) == 0 {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.outstanding, &buf[0])
}

// Outstanding returns the number of pages allocated but not yet freed.
func (f *FakePageSource) Outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outstanding)
}

package arena_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/flier/smallobj/pkg/smallobj/arena"
	"github.com/flier/smallobj/pkg/smallobj/chunk"
	"github.com/flier/smallobj/pkg/smallobj/pagesrc"
)

const blockSize = 16

func TestArenaFillChunkThenDrain(t *testing.T) {
	// Fill one chunk, confirm the 256th allocation grows a second chunk,
	// then drain in reverse order and confirm Shrink leaves at most two
	// chunks.
	pages := pagesrc.NewFake()
	a := arena.New(blockSize, pages)

	var ptrs []uintptr
	seen := make(map[uintptr]bool)

	for i := 0; i < chunk.BlockCount; i++ {
		b, err := a.Malloc()
		if err != nil {
			t.Fatalf("Malloc() #%d failed: %v", i, err)
		}
		p := chunk.AddrOfBlock(b)
		if seen[p] {
			t.Fatalf("Malloc() returned duplicate address %#x", p)
		}
		seen[p] = true
		ptrs = append(ptrs, p)
	}

	if got := a.Stats().NumChunks; got != 1 {
		t.Fatalf("NumChunks after filling one chunk = %d, want 1", got)
	}

	// The 256th allocation must create a second chunk.
	if _, err := a.Malloc(); err != nil {
		t.Fatalf("Malloc() #256 failed: %v", err)
	}
	if got := a.Stats().NumChunks; got != 2 {
		t.Fatalf("NumChunks after 256th allocation = %d, want 2", got)
	}

	for i := len(ptrs) - 1; i >= 0; i-- {
		if !a.Free(ptrs[i]) {
			t.Fatalf("Free(%#x) = false, want true", ptrs[i])
		}
	}

	a.Shrink()
	if got := a.Stats().NumChunks; got > 2 {
		t.Fatalf("NumChunks after Shrink = %d, want <= 2", got)
	}
}

func TestArenaFreeUnknownPointer(t *testing.T) {
	a := arena.New(blockSize, pagesrc.NewFake())
	if _, err := a.Malloc(); err != nil {
		t.Fatalf("Malloc() failed: %v", err)
	}

	if a.Free(0xdeadbeef) {
		t.Fatalf("Free() of an unrelated pointer reported success")
	}
}

func TestArenaReserveRelease(t *testing.T) {
	Convey("Given a fresh arena", t, func() {
		a := arena.New(blockSize, pagesrc.NewFake())

		Convey("the first Reserve succeeds", func() {
			So(a.Reserve(), ShouldBeTrue)
			So(a.Reserved(), ShouldBeTrue)

			Convey("a second Reserve by another thread fails", func() {
				So(a.Reserve(), ShouldBeFalse)
			})

			Convey("after Release, Reserve succeeds again", func() {
				a.Release()
				So(a.Reserved(), ShouldBeFalse)
				So(a.Reserve(), ShouldBeTrue)
			})
		})
	})
}

func TestArenaShrinkThreshold(t *testing.T) {
	// Leave five empty chunks in one arena; after the free that triggers
	// the fifth, Shrink must reduce the empty count to <= 2, and the
	// surviving chunks must still serve allocations.
	a := arena.New(blockSize, pagesrc.NewFake())

	const chunks = 5
	var ptrs [chunks][]uintptr

	for c := 0; c < chunks; c++ {
		for i := 0; i < chunk.BlockCount; i++ {
			b, err := a.Malloc()
			if err != nil {
				t.Fatalf("Malloc() failed: %v", err)
			}
			ptrs[c] = append(ptrs[c], chunk.AddrOfBlock(b))
		}
	}

	for c := 0; c < chunks; c++ {
		for _, p := range ptrs[c] {
			a.Free(p)
		}
	}

	a.Shrink()

	if got := a.Stats().EmptyChunks; got > 2 {
		t.Fatalf("EmptyChunks after Shrink = %d, want <= 2", got)
	}

	if _, err := a.Malloc(); err != nil {
		t.Fatalf("Malloc() after Shrink failed: %v", err)
	}
}

func TestArenaOOMPropagates(t *testing.T) {
	pages := pagesrc.NewFake()
	pages.FailNext(1)

	a := arena.New(blockSize, pages)
	if _, err := a.Malloc(); err == nil {
		t.Fatalf("Malloc() succeeded despite a failing page source")
	}
}

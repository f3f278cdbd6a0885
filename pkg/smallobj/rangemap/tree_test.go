package rangemap

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTreeInsertFind(t *testing.T) {
	Convey("Given an empty range tree", t, func() {
		var tr Tree[string]

		Convey("it is empty", func() {
			So(tr.Empty(), ShouldBeTrue)
		})

		Convey("when inserting a range", func() {
			err := tr.Insert(Range{Min: 100, Max: 200}, "a")
			So(err, ShouldBeNil)
			So(tr.Len(), ShouldEqual, 1)

			Convey("Find inside the range succeeds", func() {
				e, ok := tr.Find(150)
				So(ok, ShouldBeTrue)
				So(e.Value, ShouldEqual, "a")
			})

			Convey("Find at the lower bound succeeds (inclusive)", func() {
				_, ok := tr.Find(100)
				So(ok, ShouldBeTrue)
			})

			Convey("Find at the upper bound fails (exclusive)", func() {
				_, ok := tr.Find(200)
				So(ok, ShouldBeFalse)
			})

			Convey("inserting an overlapping range fails and leaves the tree unchanged", func() {
				err := tr.Insert(Range{Min: 150, Max: 250}, "b")
				So(err, ShouldEqual, ErrOverlap)
				So(tr.Len(), ShouldEqual, 1)
			})

			Convey("inserting an adjacent, non-overlapping range succeeds", func() {
				err := tr.Insert(Range{Min: 200, Max: 300}, "b")
				So(err, ShouldBeNil)
				So(tr.Len(), ShouldEqual, 2)

				e, ok := tr.Find(200)
				So(ok, ShouldBeTrue)
				So(e.Value, ShouldEqual, "b")
			})

			Convey("erasing the range empties the tree", func() {
				So(tr.Erase(Range{Min: 100, Max: 200}), ShouldBeTrue)
				So(tr.Empty(), ShouldBeTrue)

				_, ok := tr.Find(150)
				So(ok, ShouldBeFalse)
			})

			Convey("erasing a range not present fails", func() {
				So(tr.Erase(Range{Min: 1000, Max: 1100}), ShouldBeFalse)
				So(tr.Len(), ShouldEqual, 1)
			})
		})
	})
}

func TestTreeManyDisjointRanges(t *testing.T) {
	var tr Tree[int]

	const n = 500
	const width = 16

	for i := 0; i < n; i++ {
		lo := uintptr(i * width)
		if err := tr.Insert(Range{Min: lo, Max: lo + width}, i); err != nil {
			t.Fatalf("Insert(%d) = %v, want nil", i, err)
		}
	}

	if got := tr.Len(); got != n {
		t.Fatalf("Len() = %d, want %d", got, n)
	}

	for i := 0; i < n; i++ {
		lo := uintptr(i * width)
		e, ok := tr.Find(lo + width/2)
		if !ok || e.Value != i {
			t.Errorf("Find(%d) = (%v, %v), want (%d, true)", lo+width/2, e.Value, ok, i)
		}
	}

	all := tr.All()
	for i := 1; i < len(all); i++ {
		if !(all[i-1].Key.Max <= all[i].Key.Min) {
			t.Fatalf("All() not in ascending disjoint order at index %d", i)
		}
	}

	// Erase every other entry and confirm the rest are still reachable.
	for i := 0; i < n; i += 2 {
		lo := uintptr(i * width)
		if !tr.Erase(Range{Min: lo, Max: lo + width}) {
			t.Fatalf("Erase(%d) = false, want true", i)
		}
	}
	if got, want := tr.Len(), n/2; got != want {
		t.Fatalf("Len() after erasing = %d, want %d", got, want)
	}
	for i := 1; i < n; i += 2 {
		lo := uintptr(i * width)
		if _, ok := tr.Find(lo); !ok {
			t.Errorf("Find(%d) missing after unrelated erases", lo)
		}
	}
}

func TestTreeClear(t *testing.T) {
	var tr Tree[int]
	for i := 0; i < 1000; i++ {
		lo := uintptr(i)
		_ = tr.Insert(Range{Min: lo, Max: lo + 1}, i)
	}
	tr.Clear()
	if !tr.Empty() {
		t.Fatalf("tree not empty after Clear")
	}
	if _, ok := tr.Find(5); ok {
		t.Fatalf("Find succeeded after Clear")
	}
}

func TestRangeInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic inserting an invalid range")
		}
	}()

	var tr Tree[int]
	_ = tr.Insert(Range{Min: 10, Max: 10}, 0)
}

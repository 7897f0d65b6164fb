package proc

import "testing"

func TestSlotTableAllocReusesHoles(t *testing.T) {
	var t1 SlotTable
	id0 := t1.Alloc("a")
	id1 := t1.Alloc("b")
	t1.Free(id0)
	id2 := t1.Alloc("c")
	if id2 != id0 {
		t.Fatalf("expected Alloc to reuse freed slot %d, got %d", id0, id2)
	}
	if v, ok := t1.Get(id1); !ok || v != "b" {
		t.Fatalf("Get(%d) = %v, %v; want b, true", id1, v, ok)
	}
}

func TestSlotTableGetMissing(t *testing.T) {
	var tbl SlotTable
	id := tbl.Alloc(42)
	tbl.Free(id)
	if _, ok := tbl.Get(id); ok {
		t.Fatal("expected freed slot to report missing")
	}
	if _, ok := tbl.Get(999); ok {
		t.Fatal("expected out-of-range id to report missing")
	}
}

func TestBorrowPanicsOnOverlap(t *testing.T) {
	var b Borrow
	b.Lock("outer")
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on overlapping borrow")
		}
	}()
	b.Lock("inner")
}

func TestBorrowAllowsSequentialUse(t *testing.T) {
	var b Borrow
	b.Lock("first")
	b.Unlock()
	b.Lock("second")
	b.Unlock()
}

package vm

import (
	"testing"

	"rvcore/mem"
)

func newTestPT(t *testing.T, frames uint64) (*PageTable, *mem.Allocator, mem.Backing) {
	t.Helper()
	const base = 16
	alloc := mem.NewAllocator(base, base+mem.PhysPageNum(frames))
	ram := mem.NewSimRAM((base + frames + 1) * 4096)
	pt, err := New(alloc, ram)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return pt, alloc, ram
}

func TestMapTranslateUnmapRoundTrip(t *testing.T) {
	pt, _, _ := newTestPT(t, 16)
	vpn := VirtPageNum(0x123456789)
	ppn := mem.PhysPageNum(0x1000)
	flags := PTEValid | PTERead | PTEWrite

	pt.Map(vpn, ppn, flags&^PTEValid)
	pte, ok := pt.Translate(vpn)
	if !ok {
		t.Fatal("translate after map: not found")
	}
	if pte.PPN != ppn {
		t.Fatalf("ppn = %#x, want %#x", pte.PPN, ppn)
	}
	if pte.Flags&PTEValid == 0 {
		t.Fatal("expected V to be set by Map")
	}
	if pte.Flags&flags != flags {
		t.Fatalf("flags = %#x, want superset of %#x", pte.Flags, flags)
	}

	pt.Unmap(vpn)
	if _, ok := pt.Translate(vpn); ok {
		t.Fatal("translate after unmap: still found")
	}
}

func TestMapAlreadyMappedPanics(t *testing.T) {
	pt, _, _ := newTestPT(t, 16)
	vpn := VirtPageNum(1)
	pt.Map(vpn, mem.PhysPageNum(2), PTERead)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic mapping an already-mapped vpn")
		}
	}()
	pt.Map(vpn, mem.PhysPageNum(3), PTERead)
}

func TestUnmapNotMappedPanics(t *testing.T) {
	pt, _, _ := newTestPT(t, 16)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic unmapping a never-mapped vpn")
		}
	}()
	pt.Unmap(VirtPageNum(7))
}

func TestTokenEncoding(t *testing.T) {
	pt, _, _ := newTestPT(t, 4)
	tok := pt.Token()
	if mode := tok >> 60; mode != 8 {
		t.Fatalf("satp MODE = %d, want 8", mode)
	}
	if ppn := mem.PhysPageNum(tok & ((1 << 44) - 1)); ppn != pt.root {
		t.Fatalf("satp PPN = %#x, want %#x", ppn, pt.root)
	}
}

func TestTranslateBufferComposition(t *testing.T) {
	pt, alloc, ram := newTestPT(t, 16)
	const base = VirtAddr(0x1000_0000)
	for i := 0; i < 3; i++ {
		f, ok := mem.Alloc(alloc, ram)
		if !ok {
			t.Fatal("alloc failed")
		}
		pt.Map(base.Floor()+VirtPageNum(i), f.PPN(), PTERead|PTEWrite)
		b := f.Bytes()
		for j := range b {
			b[j] = byte(i)
		}
	}
	// A buffer starting 100 bytes into page 0 and running 2.5 pages long.
	ptr := uint64(base) + 100
	n := uint64(4096*2 + 50)
	slices := TranslateBuffer(pt.Token(), ram.(Ram), ptr, n)

	var got []byte
	for _, s := range slices {
		got = append(got, s...)
	}
	if uint64(len(got)) != n {
		t.Fatalf("composed length = %d, want %d", len(got), n)
	}
	if got[0] != 0 || got[len(got)-1] != 2 {
		t.Fatalf("composed bytes span wrong pages: first=%d last=%d", got[0], got[len(got)-1])
	}
}

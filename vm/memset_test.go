package vm

import (
	"testing"

	"rvcore/mem"
)

type fakeActivator struct{ last uint64 }

func (f *fakeActivator) Activate(token uint64) { f.last = token }

func newTestMemSet(t *testing.T) (*MemorySet, mem.PhysPageNum) {
	t.Helper()
	alloc := mem.NewAllocator(16, 256)
	ram := mem.NewSimRAM(256 * 4096)
	trampFrame, ok := mem.Alloc(alloc, ram)
	if !ok {
		t.Fatal("alloc trampoline frame")
	}
	ms, err := NewBare(alloc, ram, trampFrame.PPN())
	if err != nil {
		t.Fatalf("NewBare: %v", err)
	}
	return ms, trampFrame.PPN()
}

func TestTrampolineInvariant(t *testing.T) {
	ms, trampPPN := newTestMemSet(t)
	const trampolineVA = VirtAddr(0xFFFF_FFFF_FFFF_F000)
	ms.MapTrampoline(trampolineVA)

	pte, ok := ms.Translate(trampolineVA.Floor())
	if !ok {
		t.Fatal("trampoline not mapped")
	}
	if pte.PPN != trampPPN {
		t.Fatalf("trampoline ppn = %#x, want %#x", pte.PPN, trampPPN)
	}
	want := PTERead | PTEExec
	if pte.Flags&want != want {
		t.Fatalf("trampoline flags = %#x, want R|X set", pte.Flags)
	}
	if pte.Flags&PTEUser != 0 {
		t.Fatal("trampoline must not be user-accessible")
	}
}

func TestActivateWritesToken(t *testing.T) {
	ms, _ := newTestMemSet(t)
	act := &fakeActivator{}
	ms.Activate(act)
	if act.last != ms.Token() {
		t.Fatalf("activator got token %#x, want %#x", act.last, ms.Token())
	}
}

func TestInsertFramedAreaZeroLength(t *testing.T) {
	ms, _ := newTestMemSet(t)
	before := len(ms.areas)
	ms.InsertFramedArea(VirtAddr(0x2000), VirtAddr(0x2000), PermR|PermW)
	area := ms.areas[len(ms.areas)-1]
	if area.Start != area.End {
		t.Fatalf("expected zero-length area, got [%d,%d)", area.Start, area.End)
	}
	_ = before
}

func TestRemoveAreaUnmaps(t *testing.T) {
	ms, _ := newTestMemSet(t)
	ms.InsertFramedArea(VirtAddr(0x3000), VirtAddr(0x3000+4096*2), PermR|PermW|PermU)
	startVPN := VirtAddr(0x3000).Floor()
	if _, ok := ms.Translate(startVPN); !ok {
		t.Fatal("area should be mapped")
	}
	ms.RemoveAreaWithStartVPN(startVPN)
	if _, ok := ms.Translate(startVPN); ok {
		t.Fatal("area should be unmapped after removal")
	}
}

func TestCloneFromExistingCopiesFrameContents(t *testing.T) {
	src, trampPPN := newTestMemSet(t)
	const trampolineVA = VirtAddr(0xFFFF_FFFF_FFFF_F000)
	src.MapTrampoline(trampolineVA)
	src.InsertFramedArea(VirtAddr(0x4000), VirtAddr(0x4000+4096), PermR|PermW|PermU)

	pte, _ := src.Translate(VirtAddr(0x4000).Floor())
	src.ram.Bytes(pte.PPN)[0] = 0x42

	dst, err := CloneFromExisting(src, trampolineVA)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	dstPTE, ok := dst.Translate(VirtAddr(0x4000).Floor())
	if !ok {
		t.Fatal("clone missing framed area")
	}
	if dstPTE.PPN == pte.PPN {
		t.Fatal("clone must allocate a distinct frame")
	}
	if dst.ram.Bytes(dstPTE.PPN)[0] != 0x42 {
		t.Fatal("clone did not copy frame contents")
	}

	tramp, ok := dst.Translate(trampolineVA.Floor())
	if !ok || tramp.PPN != trampPPN {
		t.Fatal("clone must re-map the shared trampoline frame")
	}
}

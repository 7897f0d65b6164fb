// Package vm implements the Sv39 page table, per-address-space map
// areas, and whole-address-space ("memory set") construction: frame
// allocator-backed virtual memory, following biscuit's
// vm.Vm_t/mem.Pmap_t address-space abstraction.
package vm

import (
	"fmt"

	"rvcore/config"
	"rvcore/mem"
)

// VirtPageNum is a 27-bit Sv39 virtual page number.
type VirtPageNum uint64

// VirtAddr is a 39-bit Sv39 virtual byte address.
type VirtAddr uint64

func (va VirtAddr) Floor() VirtPageNum { return VirtPageNum(uint64(va) >> config.PageSizeBits) }
func (va VirtAddr) Ceil() VirtPageNum {
	if va == 0 {
		return 0
	}
	return VirtPageNum((uint64(va) + config.PageSize - 1) >> config.PageSizeBits)
}
func (va VirtAddr) PageOffset() uint64 { return uint64(va) & config.PageOffsetMask }

func (vpn VirtPageNum) Addr() VirtAddr { return VirtAddr(uint64(vpn) << config.PageSizeBits) }

// indexes splits a VPN into its three 9-bit Sv39 level indices, ordered
// from the root (level 2) down to the leaf (level 0).
func (vpn VirtPageNum) indexes() [3]uint64 {
	v := uint64(vpn)
	var idx [3]uint64
	for i := 2; i >= 0; i-- {
		idx[i] = v & 0x1ff
		v >>= 9
	}
	return idx
}

// PTEFlags are the low 8 bits of a page-table entry (spec.md section 3):
// V R W X U G A D.
type PTEFlags uint8

const (
	PTEValid PTEFlags = 1 << iota
	PTERead
	PTEWrite
	PTEExec
	PTEUser
	PTEGlobal
	PTEAccessed
	PTEDirty
)

// pteBits is the on-disk layout of a PTE: [reserved|PPN(44)|reserved(2)|flags(8)].
type pteBits uint64

func newPTE(ppn mem.PhysPageNum, flags PTEFlags) pteBits {
	return pteBits(uint64(ppn)<<10 | uint64(flags))
}

func (p pteBits) ppn() mem.PhysPageNum   { return mem.PhysPageNum((uint64(p) >> 10) & ((1 << config.PPNWidthSv39) - 1)) }
func (p pteBits) flags() PTEFlags        { return PTEFlags(p) }
func (p pteBits) valid() bool            { return p.flags()&PTEValid != 0 }

// PTE is a snapshot of a page-table entry, returned by value so callers
// cannot mutate live page-table state through it (spec.md section 4.2
// Translate returns "a copy of the leaf PTE").
type PTE struct {
	PPN   mem.PhysPageNum
	Flags PTEFlags
}

func (p PTE) Valid() bool { return p.Flags&PTEValid != 0 }

// Ram is the physical-memory boundary the page table reads/writes PTEs
// and page contents through. It is satisfied by mem.SimRAM on
// non-riscv64 builds and by a direct map on riscv64.
type Ram interface {
	mem.Backing
	ReadAt(pa mem.PhysAddr, n int) []byte
}

// PageTable owns the root-frame handle plus every intermediate frame
// allocated while walking the tree, so that dropping the PageTable frees
// the whole tree transitively (spec.md section 4.2). A PageTable
// constructed via FromToken is a *borrowed* view used only to translate
// user pointers from kernel context; it owns no frames.
type PageTable struct {
	ram    Ram
	alloc  *mem.Allocator // nil for borrowed (FromToken) views
	root   mem.PhysPageNum
	frames []*mem.OwnedFrame // owned intermediate + root frames; nil for borrowed views
}

// New allocates a fresh root frame and an empty page table.
func New(alloc *mem.Allocator, ram Ram) (*PageTable, error) {
	root, ok := mem.Alloc(alloc, ram)
	if !ok {
		return nil, fmt.Errorf("vm: out of physical frames for page table root")
	}
	return &PageTable{ram: ram, alloc: alloc, root: root.PPN(), frames: []*mem.OwnedFrame{root}}, nil
}

// FromToken builds a borrowed view of the address space identified by
// token (an encoded satp value), for translating user pointers from
// kernel context (spec.md section 4.2). It owns no frames: dropping it
// does nothing to the underlying tree.
func FromToken(token uint64, ram Ram) *PageTable {
	return &PageTable{ram: ram, root: mem.PhysPageNum(token & ((1 << 44) - 1))}
}

// Token encodes this page table as a satp value: MODE=8 (Sv39) in bits
// 63..60, root PPN in bits 43..0.
func (pt *PageTable) Token() uint64 {
	return uint64(8)<<60 | uint64(pt.root)
}

func (pt *PageTable) writePTE(ppn mem.PhysPageNum, idx uint64, val pteBits) {
	raw := pt.ram.Bytes(ppn)
	v := uint64(val)
	for b := 0; b < 8; b++ {
		raw[idx*8+uint64(b)] = byte(v >> (8 * b))
	}
}

func (pt *PageTable) readPTE(ppn mem.PhysPageNum, idx uint64) pteBits {
	raw := pt.ram.Bytes(ppn)
	var v uint64
	for b := 0; b < 8; b++ {
		v |= uint64(raw[idx*8+uint64(b)]) << (8 * b)
	}
	return pteBits(v)
}

// findPTECreate descends the tree, allocating intermediate frames as
// needed, and returns the (ppn, index) of the leaf slot for vpn.
func (pt *PageTable) findPTECreate(vpn VirtPageNum) (mem.PhysPageNum, uint64, bool) {
	idxs := vpn.indexes()
	ppn := pt.root
	for level := 0; level < 3; level++ {
		idx := idxs[level]
		if level == 2 {
			return ppn, idx, true
		}
		pte := pt.readPTE(ppn, idx)
		if !pte.valid() {
			frame, ok := mem.Alloc(pt.alloc, pt.ram)
			if !ok {
				return 0, 0, false
			}
			pt.frames = append(pt.frames, frame)
			pt.writePTE(ppn, idx, newPTE(frame.PPN(), PTEValid))
			ppn = frame.PPN()
		} else {
			ppn = pte.ppn()
		}
	}
	return 0, 0, false
}

// findPTE descends the tree without creating intermediate levels,
// returning (ppn, index, false) if any branch PTE along the way is
// absent.
func (pt *PageTable) findPTE(vpn VirtPageNum) (mem.PhysPageNum, uint64, bool) {
	idxs := vpn.indexes()
	ppn := pt.root
	for level := 0; level < 3; level++ {
		idx := idxs[level]
		if level == 2 {
			return ppn, idx, true
		}
		pte := pt.readPTE(ppn, idx)
		if !pte.valid() {
			return 0, 0, false
		}
		ppn = pte.ppn()
	}
	return 0, 0, false
}

// Map installs vpn -> ppn with the given flags. Precondition: vpn is not
// already mapped (spec.md section 4.2); violating it panics.
func (pt *PageTable) Map(vpn VirtPageNum, ppn mem.PhysPageNum, flags PTEFlags) {
	leafPPN, idx, ok := pt.findPTECreate(vpn)
	if !ok {
		panic("vm: out of frames while extending page table")
	}
	if pt.readPTE(leafPPN, idx).valid() {
		panic(fmt.Sprintf("vm: vpn %#x is mapped before mapping", vpn))
	}
	pt.writePTE(leafPPN, idx, newPTE(ppn, flags|PTEValid))
}

// Unmap clears the mapping for vpn. Precondition: vpn is currently
// mapped; violating it panics. Intermediate tables are never reaped
// (spec.md section 4.2): only dropping the whole PageTable frees frames.
func (pt *PageTable) Unmap(vpn VirtPageNum) {
	leafPPN, idx, ok := pt.findPTE(vpn)
	if !ok || !pt.readPTE(leafPPN, idx).valid() {
		panic(fmt.Sprintf("vm: vpn %#x is not mapped before unmapping", vpn))
	}
	pt.writePTE(leafPPN, idx, 0)
}

// Translate returns a copy of the leaf PTE for vpn, or ok=false if
// unmapped.
func (pt *PageTable) Translate(vpn VirtPageNum) (PTE, bool) {
	leafPPN, idx, ok := pt.findPTE(vpn)
	if !ok {
		return PTE{}, false
	}
	pte := pt.readPTE(leafPPN, idx)
	if !pte.valid() {
		return PTE{}, false
	}
	return PTE{PPN: pte.ppn(), Flags: pte.flags()}, true
}

// TranslateVA resolves a full virtual address to a physical address by
// translating its page and re-applying the page offset.
func (pt *PageTable) TranslateVA(va VirtAddr) (mem.PhysAddr, bool) {
	pte, ok := pt.Translate(va.Floor())
	if !ok {
		return 0, false
	}
	base := uint64(pte.PPN) << config.PageSizeBits
	return mem.PhysAddr(base + va.PageOffset()), true
}

// Release drops every owned frame (root + intermediates). A borrowed
// view (FromToken) owns nothing and Release is a no-op on it.
func (pt *PageTable) Release() {
	for i := len(pt.frames) - 1; i >= 0; i-- {
		pt.frames[i].Release()
	}
	pt.frames = nil
}

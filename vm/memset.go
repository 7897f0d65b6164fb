// Address space ("memory set") construction: map areas, kernel address
// space, and fork-style clone, following biscuit's vm.Vm_t
// address-space abstraction.
package vm

import (
	"fmt"

	"rvcore/mem"
)

// MapType distinguishes identity-mapped kernel sections from per-page
// framed (freshly allocated) mappings (spec.md section 3).
type MapType int

const (
	Identical MapType = iota
	Framed
)

// Perm is the R/W/X/U permission set of a map area, independent of the
// V bit the page table itself manages.
type Perm uint8

const (
	PermR Perm = 1 << iota
	PermW
	PermX
	PermU
)

func (p Perm) pteFlags() PTEFlags {
	var f PTEFlags
	if p&PermR != 0 {
		f |= PTERead
	}
	if p&PermW != 0 {
		f |= PTEWrite
	}
	if p&PermX != 0 {
		f |= PTEExec
	}
	if p&PermU != 0 {
		f |= PTEUser
	}
	return f
}

// MapArea is a half-open VPN range [Start, End), a mapping kind, and a
// permission set. Every VPN in the range is mapped in the owning page
// table exactly while the area is alive (spec.md section 3); Unmap
// releases it.
type MapArea struct {
	Start, End VirtPageNum
	Type       MapType
	Perm       Perm
	frames     map[VirtPageNum]*mem.OwnedFrame // Framed only
}

// NewMapArea constructs an area over [startVA, endVA), rounding the
// start down and the end up to page boundaries (matching
// MapArea::new's start_va.floor()/end_va.ceil()).
func NewMapArea(startVA, endVA VirtAddr, typ MapType, perm Perm) *MapArea {
	return &MapArea{
		Start:  startVA.Floor(),
		End:    endVA.Ceil(),
		Type:   typ,
		Perm:   perm,
		frames: make(map[VirtPageNum]*mem.OwnedFrame),
	}
}

// mapOne installs one VPN's mapping: identity for Identical areas, a
// freshly allocated frame for Framed ones.
func (a *MapArea) mapOne(pt *PageTable, alloc *mem.Allocator, ram Ram, vpn VirtPageNum) {
	var ppn mem.PhysPageNum
	switch a.Type {
	case Identical:
		ppn = mem.PhysPageNum(vpn)
	case Framed:
		frame, ok := mem.Alloc(alloc, ram)
		if !ok {
			panic("vm: out of frames mapping a framed area")
		}
		a.frames[vpn] = frame
		ppn = frame.PPN()
	}
	pt.Map(vpn, ppn, a.Perm.pteFlags())
}

// Map installs every VPN in the area into pt.
func (a *MapArea) Map(pt *PageTable, alloc *mem.Allocator, ram Ram) {
	for vpn := a.Start; vpn < a.End; vpn++ {
		a.mapOne(pt, alloc, ram, vpn)
	}
}

// Unmap releases every VPN in the area, freeing any owned frames and
// clearing the page-table entries.
func (a *MapArea) Unmap(pt *PageTable) {
	for vpn := a.Start; vpn < a.End; vpn++ {
		if a.Type == Framed {
			if f, ok := a.frames[vpn]; ok {
				f.Release()
				delete(a.frames, vpn)
			}
		}
		pt.Unmap(vpn)
	}
}

// CopyData copies bytes page-by-page into the area's (already mapped)
// frames, starting at a.Start. Used to load ELF segment contents.
func (a *MapArea) CopyData(pt *PageTable, ram Ram, data []byte) {
	vpn := a.Start
	for start := 0; start < len(data); {
		end := start + 4096
		if end > len(data) {
			end = len(data)
		}
		pte, ok := pt.Translate(vpn)
		if !ok {
			panic("vm: copy_data into unmapped page")
		}
		dst := ram.Bytes(pte.PPN)
		copy(dst, data[start:end])
		start = end
		vpn++
	}
}

// MemorySet is one page table plus an ordered list of map areas
// (spec.md section 3). Ranges in the area list never overlap, and the
// trampoline page is mapped R|X in every instance (the two invariants
// named in spec.md section 4.3).
type MemorySet struct {
	alloc  *mem.Allocator
	ram    Ram
	pt     *PageTable
	areas  []*MapArea
	trampolinePPN mem.PhysPageNum
}

// NewBare constructs an empty address space with a fresh page table.
func NewBare(alloc *mem.Allocator, ram Ram, trampolinePPN mem.PhysPageNum) (*MemorySet, error) {
	pt, err := New(alloc, ram)
	if err != nil {
		return nil, err
	}
	return &MemorySet{alloc: alloc, ram: ram, pt: pt, trampolinePPN: trampolinePPN}, nil
}

// Token returns the address space's satp-encoding token.
func (ms *MemorySet) Token() uint64 { return ms.pt.Token() }

// PageTable exposes the underlying page table for translation helpers.
func (ms *MemorySet) PageTable() *PageTable { return ms.pt }

// RawRam exposes the backing physical memory, used by callers (e.g.
// proc's trap-context installer) that already hold a PPN and just need
// the byte slice behind it.
func (ms *MemorySet) RawRam() Ram { return ms.ram }

// Allocator exposes the frame allocator backing this address space, so
// a fresh address space (e.g. exec's replacement memory set) can be
// built from the same pool.
func (ms *MemorySet) Allocator() *mem.Allocator { return ms.alloc }

// MapTrampoline maps the trampoline page R|X (never U) at TRAMPOLINE in
// this address space, pointing at the single physical trampoline page
// shared by every address space (spec.md section 4.3/4.4).
func (ms *MemorySet) MapTrampoline(trampolineVA VirtAddr) {
	ms.pt.Map(trampolineVA.Floor(), ms.trampolinePPN, PTERead|PTEExec)
}

// InsertFramedArea appends a new Framed area over [startVA, endVA) with
// the given permission and maps it immediately. A zero-length range
// (start==end) maps zero pages, per spec.md section 8.
func (ms *MemorySet) InsertFramedArea(startVA, endVA VirtAddr, perm Perm) {
	area := NewMapArea(startVA, endVA, Framed, perm)
	area.Map(ms.pt, ms.alloc, ms.ram)
	ms.areas = append(ms.areas, area)
}

// insertArea appends an already-constructed area (used for Identical
// kernel sections and for ELF LOAD segments) and maps it.
func (ms *MemorySet) insertArea(area *MapArea) {
	area.Map(ms.pt, ms.alloc, ms.ram)
	ms.areas = append(ms.areas, area)
}

// RemoveAreaWithStartVPN unmaps and drops the area whose Start equals
// vpn, used when a thread's per-thread resources (user stack, trap
// context) are released.
func (ms *MemorySet) RemoveAreaWithStartVPN(vpn VirtPageNum) {
	for i, a := range ms.areas {
		if a.Start == vpn {
			a.Unmap(ms.pt)
			ms.areas = append(ms.areas[:i], ms.areas[i+1:]...)
			return
		}
	}
}

// Translate is a convenience wrapper over the page table.
func (ms *MemorySet) Translate(vpn VirtPageNum) (PTE, bool) { return ms.pt.Translate(vpn) }

// RecycleDataPages drops every Framed area's frames (and its page-table
// entries) but keeps the page-table skeleton itself intact, so a
// waiting parent can still translate through this address space after
// the child has exited (spec.md section 4.5, exit_current_and_run_next).
func (ms *MemorySet) RecycleDataPages() {
	for _, a := range ms.areas {
		if a.Type == Framed {
			a.Unmap(ms.pt)
		}
	}
	ms.areas = nil
}

// CloneFromExisting deep-copies src's non-identity areas into a fresh
// address space: same ranges, same permissions, byte-identical frame
// contents, plus a fresh trampoline mapping. Used by fork (spec.md
// section 4.3, from_existed_user).
func CloneFromExisting(src *MemorySet, trampolineVA VirtAddr) (*MemorySet, error) {
	dst, err := NewBare(src.alloc, src.ram, src.trampolinePPN)
	if err != nil {
		return nil, err
	}
	dst.MapTrampoline(trampolineVA)
	for _, srcArea := range src.areas {
		dstArea := NewMapArea(srcArea.Start.Addr(), srcArea.End.Addr(), srcArea.Type, srcArea.Perm)
		dstArea.Map(dst.pt, dst.alloc, dst.ram)
		if srcArea.Type == Framed {
			for vpn := srcArea.Start; vpn < srcArea.End; vpn++ {
				srcPTE, ok := src.pt.Translate(vpn)
				if !ok {
					continue
				}
				dstPTE, ok := dst.pt.Translate(vpn)
				if !ok {
					return nil, fmt.Errorf("vm: clone lost mapping for vpn %#x", vpn)
				}
				copy(dst.ram.Bytes(dstPTE.PPN), src.ram.Bytes(srcPTE.PPN))
			}
		}
		dst.areas = append(dst.areas, dstArea)
	}
	return dst, nil
}

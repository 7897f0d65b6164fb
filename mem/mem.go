// Package mem implements the physical frame allocator: a stack of
// recycled frames plus a bump pointer over [ekernelCeil, MEMORY_END),
// following biscuit's mem.Physmem_t frame bookkeeping.
package mem

import (
	"fmt"
	"sync"

	"rvcore/config"
)

// PhysPageNum is a 44-bit physical page number (spec.md section 3).
type PhysPageNum uint64

// PhysAddr is a physical byte address.
type PhysAddr uint64

// Floor returns the page number containing pa. Per spec.md section 8,
// ceil(0) and floor(0) both return page 0, never wrapping.
func (pa PhysAddr) Floor() PhysPageNum { return PhysPageNum(uint64(pa) >> config.PageSizeBits) }

// Ceil returns the smallest page number at or after pa.
func (pa PhysAddr) Ceil() PhysPageNum {
	if pa == 0 {
		return 0
	}
	return PhysPageNum((uint64(pa) + config.PageSize - 1) >> config.PageSizeBits)
}

// PageOffset returns the offset of pa within its containing page.
func (pa PhysAddr) PageOffset() uint64 { return uint64(pa) & config.PageOffsetMask }

// Addr converts a page number back to the address of its first byte.
func (ppn PhysPageNum) Addr() PhysAddr { return PhysAddr(uint64(ppn) << config.PageSizeBits) }

// Allocator is a stack-of-recycled-plus-bump-pointer frame allocator over
// [start, end). It is the sole owner of the notion "which frames are
// free"; OwnedFrame handles are the sole owner of "which frames are in
// use" (spec.md section 4.1 invariant).
type Allocator struct {
	mu       sync.Mutex
	current  PhysPageNum
	end      PhysPageNum
	recycled []PhysPageNum
}

// NewAllocator constructs an allocator over the half-open frame range
// [start, end), mirroring StackFrameAllocator::init.
func NewAllocator(start, end PhysPageNum) *Allocator {
	return &Allocator{current: start, end: end}
}

// alloc pops a recycled frame if one exists, else bumps current, else
// reports exhaustion. Unexported: callers go through Alloc, which also
// zeroes the frame.
func (a *Allocator) alloc() (PhysPageNum, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.recycled); n > 0 {
		ppn := a.recycled[n-1]
		a.recycled = a.recycled[:n-1]
		return ppn, true
	}
	if a.current < a.end {
		ppn := a.current
		a.current++
		return ppn, true
	}
	return 0, false
}

// dealloc returns ppn to the free list. Precondition: ppn was allocated
// from this allocator and is not already free; violating either panics,
// per spec.md section 4.1 ("panic enforces double-free detection").
func (a *Allocator) dealloc(ppn PhysPageNum) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ppn >= a.current {
		panic(fmt.Sprintf("mem: frame %#x was never allocated", ppn))
	}
	for _, r := range a.recycled {
		if r == ppn {
			panic(fmt.Sprintf("mem: double free of frame %#x", ppn))
		}
	}
	a.recycled = append(a.recycled, ppn)
}

// Backing is the abstraction over "physical RAM" that lets OwnedFrame
// zero a frame on acquisition without the allocator itself needing to
// know how bytes are read or written. On riscv64 this is backed by a
// direct map over real DRAM; the software model in sim.go backs it with
// a Go byte slice so the allocator and every package built on it
// (vm) are unit-testable.
type Backing interface {
	// Zero clears the PAGE_SIZE bytes starting at the frame's address.
	Zero(ppn PhysPageNum)
	// Bytes returns a mutable view of the frame's contents.
	Bytes(ppn PhysPageNum) []byte
}

// OwnedFrame is the unique handle to a physical frame. Constructing one
// zeroes the frame; dropping it (Release) returns the frame to its
// allocator. A frame must never be simultaneously free and referenced by
// a live PTE (spec.md section 3).
type OwnedFrame struct {
	alloc    *Allocator
	backing  Backing
	ppn      PhysPageNum
	released bool
}

// Alloc hands out one zeroed frame, or reports exhaustion.
func Alloc(a *Allocator, backing Backing) (*OwnedFrame, bool) {
	ppn, ok := a.alloc()
	if !ok {
		return nil, false
	}
	backing.Zero(ppn)
	return &OwnedFrame{alloc: a, backing: backing, ppn: ppn}, true
}

// PPN returns the frame's physical page number.
func (f *OwnedFrame) PPN() PhysPageNum { return f.ppn }

// Bytes returns the frame's contents for in-place editing.
func (f *OwnedFrame) Bytes() []byte { return f.backing.Bytes(f.ppn) }

// Release returns the frame to its allocator. It is idempotent-unsafe by
// design: releasing the same handle twice panics on the handle's own
// released flag, surfacing the bug rather than masking it.
func (f *OwnedFrame) Release() {
	if f.released {
		panic("mem: frame released twice")
	}
	f.released = true
	f.alloc.dealloc(f.ppn)
}

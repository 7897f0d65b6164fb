//go:build !riscv64

// Software model of physical RAM, used on every architecture other than
// riscv64 so the allocator, page table, and address-space logic are
// exercised by go test without real hardware (see SPEC_FULL.md's
// "Execution model" expansion).
package mem

import "rvcore/config"

// SimRAM backs Backing with a flat Go byte slice standing in for the
// physical address range [0, len(bytes)).
type SimRAM struct {
	bytes []byte
}

// NewSimRAM allocates a simulated RAM of the given byte size.
func NewSimRAM(size uint64) *SimRAM {
	return &SimRAM{bytes: make([]byte, size)}
}

func (r *SimRAM) Zero(ppn PhysPageNum) {
	b := r.Bytes(ppn)
	for i := range b {
		b[i] = 0
	}
}

func (r *SimRAM) Bytes(ppn PhysPageNum) []byte {
	off := uint64(ppn) << config.PageSizeBits
	return r.bytes[off : off+config.PageSize]
}

// ReadAt gives vm's user-pointer helpers byte-level access to arbitrary
// physical addresses (the values they read or write are smaller than a
// page and live at an offset within one).
func (r *SimRAM) ReadAt(pa PhysAddr, n int) []byte {
	return r.bytes[uint64(pa) : uint64(pa)+uint64(n)]
}

// NewPlatformRAM constructs the physical memory backing for this
// build's target: a simulated byte-slice RAM standing in for hardware
// on every architecture other than riscv64 (mem/direct_riscv64.go
// supplies the real-hardware backing there).
func NewPlatformRAM(size uint64) *SimRAM {
	return NewSimRAM(size)
}

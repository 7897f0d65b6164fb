//go:build riscv64

package mem

import (
	"unsafe"

	"rvcore/config"
)

// DirectRAM backs Backing on real hardware: a freestanding riscv64
// image boots with the MMU off, so every physical address is still
// dereferenceable as-is until this kernel's own Sv39 root is
// activated, and Sv39 is built as an identity map over the range this
// backing serves. This is the riscv64 analogue of biscuit's
// mem/dmap.go direct map, simplified since there is no patched Go
// runtime underneath to coordinate with here.
type DirectRAM struct{}

// NewDirectRAM returns the direct-mapped physical memory backing.
// size is accepted for symmetry with NewPlatformRAM on the software
// backend; real hardware's physical range is fixed by config.MemoryEnd,
// not by a runtime parameter.
func NewDirectRAM(size uint64) DirectRAM {
	_ = size
	return DirectRAM{}
}

func (DirectRAM) Zero(ppn PhysPageNum) {
	b := (*[config.PageSize]byte)(unsafe.Pointer(uintptr(ppn.Addr())))
	for i := range b {
		b[i] = 0
	}
}

func (DirectRAM) Bytes(ppn PhysPageNum) []byte {
	return (*[config.PageSize]byte)(unsafe.Pointer(uintptr(ppn.Addr())))[:]
}

func (DirectRAM) ReadAt(pa PhysAddr, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(pa))), n)
}

// NewPlatformRAM constructs the physical memory backing for this
// build's target: the direct map on riscv64 (mem/sim.go supplies the
// simulated backing everywhere else).
func NewPlatformRAM(size uint64) DirectRAM {
	return NewDirectRAM(size)
}

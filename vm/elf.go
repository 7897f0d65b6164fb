// ELF loading into a fresh user address space, following biscuit's ELF
// handling conventions (biscuit parses program headers the same way
// when loading its own statically linked binaries).
package vm

import (
	"debug/elf"
	"fmt"

	"rvcore/config"
)

// GuardPageSize is the size of the unmapped guard page inserted
// immediately after the last LOAD segment (spec.md section 4.3).
const GuardPageSize = config.PageSize

// FromELF parses a statically linked ELF image and fills ms with the
// trampoline mapping and one framed area per PT_LOAD segment. It
// returns the base virtual address for the first thread's user stack
// (immediately above a one-page guard past the last LOAD segment), and
// the ELF entry point. The user stack itself and the first thread's
// trap-context page are NOT mapped here — per spec.md section 4.3,
// that is the per-thread resource allocator's job on thread creation.
func FromELF(ms *MemorySet, trampolineVA VirtAddr, data []byte) (userStackBase uint64, entry uint64, err error) {
	f, err := elf.NewFile(bytesReaderAt(data))
	if err != nil {
		return 0, 0, fmt.Errorf("vm: parse elf: %w", err)
	}
	if f.Class != elf.ELFCLASS64 {
		return 0, 0, fmt.Errorf("vm: not a 64-bit elf")
	}

	ms.MapTrampoline(trampolineVA)

	var maxEnd VirtAddr
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		startVA := VirtAddr(prog.Vaddr)
		endVA := VirtAddr(prog.Vaddr + prog.Memsz)
		perm := PermU
		if prog.Flags&elf.PF_R != 0 {
			perm |= PermR
		}
		if prog.Flags&elf.PF_W != 0 {
			perm |= PermW
		}
		if prog.Flags&elf.PF_X != 0 {
			perm |= PermX
		}
		area := NewMapArea(startVA, endVA, Framed, perm)
		area.Map(ms.pt, ms.alloc, ms.ram)
		segData := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(segData, 0); err != nil {
			return 0, 0, fmt.Errorf("vm: read segment: %w", err)
		}
		area.CopyData(ms.pt, ms.ram, segData)
		ms.areas = append(ms.areas, area)
		if endVA.Ceil().Addr() > maxEnd {
			maxEnd = endVA.Ceil().Addr()
		}
	}

	userStackBase = uint64(maxEnd) + GuardPageSize
	return userStackBase, f.Entry, nil
}

// bytesReaderAt adapts a byte slice to io.ReaderAt for debug/elf.
type bytesReaderAt []byte

func (b bytesReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(b)) {
		return 0, fmt.Errorf("vm: elf read out of range")
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, fmt.Errorf("vm: elf short read")
	}
	return n, nil
}

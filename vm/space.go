package vm

// KernelLayout names the linker-provided section boundaries the kernel
// address space identity-maps (spec.md section 4.3). On a real
// freestanding image these come from the linker script symbols named in
// spec.md section 1 (stext, etext, ...); the software model supplies
// them as plain virtual addresses chosen to equal their physical
// counterparts, since kernel sections are identity mapped.
type KernelLayout struct {
	Stext, Etext   VirtAddr
	Srodata, Erodata VirtAddr
	Sdata, Edata   VirtAddr
	SbssWithStack, Ebss VirtAddr
	Ekernel        VirtAddr
	MemoryEnd      VirtAddr
}

// NewKernel builds the kernel address space: the trampoline plus one
// identity-mapped area per linker section, each permissioned per
// spec.md section 4.3.
func NewKernel(ms *MemorySet, trampolineVA VirtAddr, layout KernelLayout) {
	ms.MapTrampoline(trampolineVA)
	ms.insertArea(NewMapArea(layout.Stext, layout.Etext, Identical, PermR|PermX))
	ms.insertArea(NewMapArea(layout.Srodata, layout.Erodata, Identical, PermR))
	ms.insertArea(NewMapArea(layout.Sdata, layout.Edata, Identical, PermR|PermW))
	ms.insertArea(NewMapArea(layout.SbssWithStack, layout.Ebss, Identical, PermR|PermW))
	ms.insertArea(NewMapArea(layout.Ekernel, layout.MemoryEnd, Identical, PermR|PermW))
}

// Activator is the hardware boundary for "make this address space the
// active one": write satp, then sfence.vma. On riscv64 it is backed by
// real CSR writes; the software model just records the last activated
// token, which is enough for tests to assert the scheduler switched
// spaces.
type Activator interface {
	Activate(token uint64)
}

// Activate installs this address space as the active one via act.
func (ms *MemorySet) Activate(act Activator) {
	act.Activate(ms.Token())
}

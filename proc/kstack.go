package proc

import (
	"rvcore/config"
	"rvcore/vm"
)

// KernelSpace is the single kernel address space every kernel stack is
// mapped into. Set once by cmd/kernel during boot (spec.md section 2,
// "build kernel address space"); proc never constructs its own kernel
// space so that every thread's kstack region lands in the same page
// table the trap trampoline activates into.
var KernelSpace *vm.MemorySet

var kstackIDs = NewIDAllocator(0)

// KernelStack is a per-thread framed region in KernelSpace, positioned
// kstack_id * (KERNEL_STACK_SIZE + PAGE_SIZE) below the trampoline with
// a one-page guard gap beneath it (spec.md section 3).
type KernelStack struct {
	id         uint64
	bottom, top uint64
}

// NewKernelStack allocates a kstack-id and maps its region.
func NewKernelStack() *KernelStack {
	id := kstackIDs.Alloc()
	bottom, top := config.KernelStackVA(id)
	KernelSpace.InsertFramedArea(vm.VirtAddr(bottom), vm.VirtAddr(top), vm.PermR|vm.PermW)
	return &KernelStack{id: id, bottom: bottom, top: top}
}

// Top returns the initial stack pointer for a thread starting on this
// kernel stack.
func (k *KernelStack) Top() uint64 { return k.top }

// Release unmaps the region and frees the kstack-id.
func (k *KernelStack) Release() {
	KernelSpace.RemoveAreaWithStartVPN(vm.VirtAddr(k.bottom).Floor())
	kstackIDs.Dealloc(k.id)
}

package proc

import (
	"rvcore/config"
	"rvcore/mem"
	"rvcore/trap"
	"rvcore/vm"
)

// UserRes is a thread's per-tid user-space footprint: its user-stack
// region and its trap-context page, both mapped into the owning
// process's address space (spec.md section 3, "owned per-thread user
// resource token"). tid is allocated from the owning PCB's tid
// allocator; ustackBase is shared by every thread in the process.
type UserRes struct {
	tid        uint64
	ustackBase uint64
	proc       *ProcessControlBlock
}

// NewUserRes allocates a tid and, unless deferred (fork inherits the
// mapping from the cloned address space, so it passes alloc=false),
// maps the thread's user stack and trap-context page.
func NewUserRes(p *ProcessControlBlock, ustackBase uint64, alloc bool) *UserRes {
	r := &UserRes{tid: p.TidAllocator.Alloc(), ustackBase: ustackBase, proc: p}
	if alloc {
		r.mapUserStack()
		r.mapTrapContext()
	}
	return r
}

func (r *UserRes) mapUserStack() {
	bottom := config.UserStackVA(r.ustackBase, r.tid)
	top := bottom + config.UserStackSize
	r.proc.MemSet.InsertFramedArea(vm.VirtAddr(bottom), vm.VirtAddr(top), vm.PermR|vm.PermW|vm.PermU)
}

func (r *UserRes) mapTrapContext() {
	va := config.TrapContextVA(r.tid)
	r.proc.MemSet.InsertFramedArea(vm.VirtAddr(va), vm.VirtAddr(va+config.PageSize), vm.PermR|vm.PermW)
}

// Tid returns the thread's identifier within its process.
func (r *UserRes) Tid() uint64 { return r.tid }

// UserStackTop returns the initial user stack pointer for this thread.
func (r *UserRes) UserStackTop() uint64 {
	return config.UserStackVA(r.ustackBase, r.tid) + config.UserStackSize
}

// TrapContextPPN looks up the physical frame currently backing this
// thread's trap-context page, re-reading the page table rather than
// caching, since exec rebuilds the address space under the same tid.
func (r *UserRes) TrapContextPPN() mem.PhysPageNum {
	va := config.TrapContextVA(r.tid)
	pte, ok := r.proc.MemSet.Translate(vm.VirtAddr(va).Floor())
	if !ok {
		panic("proc: trap context page not mapped")
	}
	return pte.PPN
}

// TrapContextVA returns the thread's trap-context virtual address.
func (r *UserRes) TrapContextVA() uint64 { return trap.TrapContextVA(r.tid) }

// Release unmaps the user-stack and trap-context regions and frees the
// tid. Called from exit_current_and_run_next (for the exiting thread and,
// when the main thread exits, for its remaining siblings); Waittid only
// clears the task slot.
func (r *UserRes) Release() {
	bottom := config.UserStackVA(r.ustackBase, r.tid)
	r.proc.MemSet.RemoveAreaWithStartVPN(vm.VirtAddr(bottom).Floor())
	trapVA := config.TrapContextVA(r.tid)
	r.proc.MemSet.RemoveAreaWithStartVPN(vm.VirtAddr(trapVA).Floor())
	r.proc.TidAllocator.Dealloc(r.tid)
}

package proc

import (
	"rvcore/mem"
	"rvcore/trap"
	"rvcore/vm"
)

// Status is a thread's scheduling state (spec.md section 3).
type Status int

const (
	StatusReady Status = iota
	StatusRunning
	StatusBlocked
)

var pidAllocator = NewIDAllocator(0)

// ThreadControlBlock is one schedulable unit: a kernel stack, a slice
// of user-space footprint in the owning process, a cached trap-context
// frame, and the kernel-to-kernel switch frame (spec.md section 3).
type ThreadControlBlock struct {
	Process *ProcessControlBlock
	KStack  *KernelStack
	Res     *UserRes

	trapCxPPN mem.PhysPageNum
	TaskCx    trap.TaskContext
	Status    Status
	ExitCode  *int32

	// Body is the software-model stand-in for this thread's machine
	// code: on builds with no real register-level __switch, sched runs
	// it on a dedicated goroutine instead of resuming a trap context.
	// Left nil for real ELF-backed threads on the riscv64 backend.
	Body func()
}

// TrapContext returns a pointer into the thread's trap-context frame,
// re-resolved through the owning process's page table each call (so it
// survives an exec rebuilding the address space).
func (t *ThreadControlBlock) TrapContext(ram vm.Ram) *trap.TrapContext {
	t.trapCxPPN = t.Res.TrapContextPPN()
	bytes := ram.Bytes(t.trapCxPPN)
	return (*trap.TrapContext)(ptrOf(bytes))
}

// ProcessControlBlock owns a process's address space and the thread
// vector fanning out of it (spec.md section 3). inner is the exclusive
// access cell guarding every field below it; callers take it through
// the With helper and must never still hold the borrow across a
// suspension point.
type ProcessControlBlock struct {
	Pid uint64

	inner Borrow

	Zombie       bool
	MemSet       *vm.MemorySet
	Parent       *ProcessControlBlock // weak: does not keep the parent alive
	Children     []*ProcessControlBlock
	ExitCode     int32
	Tasks        []*ThreadControlBlock // holes (nil) are recycled tids
	TidAllocator *IDAllocator

	Mutexes    SlotTable
	Semaphores SlotTable
	Condvars   SlotTable
}

// With runs fn while holding the exclusive-access borrow, labeling the
// borrow with owner for panic diagnostics, and always releases it
// afterward. fn must not call anything that suspends the current
// thread -- that is precisely the bug this cell exists to catch.
func (p *ProcessControlBlock) With(owner string, fn func()) {
	p.inner.Lock(owner)
	defer p.inner.Unlock()
	fn()
}

// NewInitProcess builds the first process from an ELF image: a fresh
// pid, a from_elf address space, and its single main thread (tid 0,
// alloc_user_res=true) with an initial trap context pointing at the
// ELF entry (spec.md section 4.3/4.6).
func NewInitProcess(alloc *mem.Allocator, ram vm.Ram, trampolineVA uint64, elfData []byte) (*ProcessControlBlock, error) {
	ms, entry, ustackBase, err := buildUserSpace(alloc, ram, trampolineVA, elfData)
	if err != nil {
		return nil, err
	}
	p := &ProcessControlBlock{
		Pid:          pidAllocator.Alloc(),
		MemSet:       ms,
		TidAllocator: NewIDAllocator(0),
	}
	p.spawnMainThread(entry, ustackBase)
	return p, nil
}

func buildUserSpace(alloc *mem.Allocator, ram vm.Ram, trampolineVA uint64, elfData []byte) (*vm.MemorySet, uint64, uint64, error) {
	trampFrame, ok := mem.Alloc(alloc, ram)
	if !ok {
		panic("proc: out of memory allocating trampoline frame")
	}
	ms, err := vm.NewBare(alloc, ram, trampFrame.PPN())
	if err != nil {
		return nil, 0, 0, err
	}
	ustackBase, entry, err := vm.FromELF(ms, vm.VirtAddr(trampolineVA), elfData)
	if err != nil {
		return nil, 0, 0, err
	}
	return ms, entry, ustackBase, nil
}

func (p *ProcessControlBlock) spawnMainThread(entry, ustackBase uint64) *ThreadControlBlock {
	res := NewUserRes(p, ustackBase, true)
	kstack := NewKernelStack()
	tcb := &ThreadControlBlock{
		Process: p,
		KStack:  kstack,
		Res:     res,
		Status:  StatusReady,
		TaskCx:  trap.NewTaskContext(kstack.Top(), trap.TrapReturnSentinel),
	}
	cx := trap.NewAppInitContext(entry, res.UserStackTop(), p.MemSet.Token(), kstack.Top(), trapHandlerVA)
	writeTrapContext(p.MemSet, res, cx)
	p.Tasks = []*ThreadControlBlock{tcb}
	if EnqueueTask != nil {
		EnqueueTask(tcb)
	}
	return tcb
}

// writeTrapContext installs cx into res's trap-context page through the
// owning address space's own page table (so it works identically for
// the freshly built and the freshly exec'd address space).
func writeTrapContext(ms *vm.MemorySet, res *UserRes, cx trap.TrapContext) {
	ppn := res.TrapContextPPN()
	bytes := ms.RawRam().Bytes(ppn)
	*(*trap.TrapContext)(ptrOf(bytes)) = cx
}

// EnqueueTask is installed by sched at boot; proc calls it whenever it
// creates or wakes a thread that should become schedulable, the same
// hook pattern trap uses for its switch/syscall boundary.
var EnqueueTask func(*ThreadControlBlock)

package proc

import (
	"fmt"

	"rvcore/config"
	"rvcore/trap"
	"rvcore/vm"
)

// MainThread returns the process's tid-0 thread.
func (p *ProcessControlBlock) MainThread() *ThreadControlBlock {
	if len(p.Tasks) == 0 {
		return nil
	}
	return p.Tasks[0]
}

// ThreadCount returns the number of live (non-hole) threads.
func (p *ProcessControlBlock) ThreadCount() int {
	n := 0
	for _, t := range p.Tasks {
		if t != nil {
			n++
		}
	}
	return n
}

// Fork clones parent into a new single-threaded child process (spec.md
// section 4.6, sys_fork): deep-copies the address space, allocates a
// fresh pid and main thread whose user resources are inherited from the
// clone rather than freshly mapped, and overwrites only kernel_sp in
// the cloned trap context (everything else, including the parent's a0,
// carries over so the child observes the same ecall return site; svc
// sets the child's a0 to 0 after Fork returns, so that the child's
// fork returns 0 while the parent's returns the child pid).
//
// Requires parent to be single-threaded; multi-threaded fork is
// rejected by panic, matching spec.md section 8's "rejected by
// assertion (by design)".
func Fork(parent *ProcessControlBlock) *ProcessControlBlock {
	if parent.ThreadCount() != 1 {
		panic("proc: fork of a multi-threaded process is unsupported")
	}
	childMS, err := vm.CloneFromExisting(parent.MemSet, vm.VirtAddr(config.TrampolineVA))
	if err != nil {
		panic(fmt.Sprintf("proc: fork clone: %v", err))
	}

	child := &ProcessControlBlock{
		Pid:          pidAllocator.Alloc(),
		MemSet:       childMS,
		Parent:       parent,
		TidAllocator: NewIDAllocator(0),
	}

	parentMain := parent.MainThread()
	res := NewUserRes(child, 0, false) // alloc_user_res=false: mapping already cloned
	kstack := NewKernelStack()

	childCx := *parentMain.TrapContext(parent.MemSet.RawRam())
	childCx.KernelSP = kstack.Top()

	childTCB := &ThreadControlBlock{
		Process: child,
		KStack:  kstack,
		Res:     res,
		Status:  StatusReady,
		TaskCx:  trap.NewTaskContext(kstack.Top(), trap.TrapReturnSentinel),
	}
	writeTrapContext(childMS, res, childCx)
	child.Tasks = []*ThreadControlBlock{childTCB}

	parent.Children = append(parent.Children, child)

	if EnqueueTask != nil {
		EnqueueTask(childTCB)
	}
	return child
}

// Exec replaces p's address space with a freshly loaded ELF image and
// marshals argv onto the new user stack (spec.md section 4.6,
// sys_exec). Returns the argc/argv_base pair the caller writes into its
// own trap context (a0/a1) after this call -- Exec does not touch the
// calling thread's trap context itself, since the caller is the one
// about to resume through it.
func Exec(p *ProcessControlBlock, elfData []byte, argv []string) (argc int, argvBase uint64, entry uint64, userSP uint64, err error) {
	newMS, entryPoint, ustackBase, err := buildUserSpace(p.MemSet.Allocator(), p.MemSet.RawRam(), config.TrampolineVA, elfData)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	p.MemSet = newMS

	main := p.MainThread()
	main.Res = NewUserRes(p, ustackBase, true)

	sp := main.Res.UserStackTop()
	argvBase, sp = marshalArgv(newMS, sp, argv)

	return len(argv), argvBase, entryPoint, sp, nil
}

// marshalArgv writes argv onto the user stack below sp: first the
// strings (NUL-terminated, packed downward), then a NUL-terminated
// pointer array pointing at them, pointer-aligned (spec.md section
// 4.6).
func marshalArgv(ms *vm.MemorySet, sp uint64, argv []string) (base uint64, newSP uint64) {
	ptrs := make([]uint64, len(argv)+1)
	for i, s := range argv {
		b := append([]byte(s), 0)
		sp -= uint64(len(b))
		writeUserBytes(ms, sp, b)
		ptrs[i] = sp
	}
	sp &^= 7 // align down to 8 bytes before the pointer array

	sp -= uint64(len(ptrs)) * 8
	base = sp
	for i, p := range ptrs {
		writeUserU64(ms, sp+uint64(i)*8, p)
	}
	return base, sp
}

func writeUserBytes(ms *vm.MemorySet, va uint64, data []byte) {
	written := 0
	for written < len(data) {
		pte, ok := ms.Translate(vm.VirtAddr(va + uint64(written)).Floor())
		if !ok {
			panic("proc: argv marshal wrote into an unmapped page")
		}
		off := (va + uint64(written)) & uint64(config.PageOffsetMask)
		n := copy(ms.RawRam().Bytes(pte.PPN)[off:], data[written:])
		written += n
	}
}

func writeUserU64(ms *vm.MemorySet, va uint64, v uint64) {
	var b [8]byte
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
	writeUserBytes(ms, va, b[:])
}

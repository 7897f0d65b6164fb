package proc

import (
	"rvcore/trap"
)

// ThreadCreate implements sys_thread_create (spec.md section 4.6):
// allocates a new tid under p sharing the main thread's ustack_base,
// maps its own user-stack and trap-context pages, and seeds its trap
// context so it starts at entry with arg in a0.
func ThreadCreate(p *ProcessControlBlock, entry, arg uint64) *ThreadControlBlock {
	main := p.MainThread()
	res := NewUserRes(p, main.Res.userStackBase(), true)
	kstack := NewKernelStack()

	tcb := &ThreadControlBlock{
		Process: p,
		KStack:  kstack,
		Res:     res,
		Status:  StatusReady,
		TaskCx:  trap.NewTaskContext(kstack.Top(), trap.TrapReturnSentinel),
	}

	cx := trap.NewAppInitContext(entry, res.UserStackTop(), p.MemSet.Token(), kstack.Top(), trapHandlerVA)
	cx.X[trap.RegA0] = arg
	writeTrapContext(p.MemSet, res, cx)

	growTasks(p, res.Tid())
	p.Tasks[res.Tid()] = tcb

	if EnqueueTask != nil {
		EnqueueTask(tcb)
	}
	return tcb
}

func growTasks(p *ProcessControlBlock, tid uint64) {
	for uint64(len(p.Tasks)) <= tid {
		p.Tasks = append(p.Tasks, nil)
	}
}

// userStackBase exposes the shared user-stack base new sibling threads
// inherit (every thread in a process shares one ustack_base, offset by
// tid*stride, per spec.md section 6).
func (r *UserRes) userStackBase() uint64 { return r.ustackBase }

// trapHandlerVA is the virtual address __alltraps jumps to once it has
// switched into kernel space; installed once by cmd/kernel, since its
// value depends on where the trap dispatch entry point is linked.
var trapHandlerVA uint64

// SetTrapHandlerVA installs trapHandlerVA. Called once during boot.
func SetTrapHandlerVA(va uint64) { trapHandlerVA = va }

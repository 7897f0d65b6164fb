//go:build !riscv64

package trap

// Switch implements the kernel-to-kernel control transfer the scheduler
// uses to move the processor from one thread's kernel stack to another
// (spec.md section 4.4, __switch). There is no real register file or
// stack to save on this backend, so Switch does not touch cur/next at
// all: it only needs to reproduce __switch's control-flow contract,
// that the call does not return to its caller until some other thread
// switches back into cur. That rendezvous is owned by the scheduler,
// which knows which goroutine represents which task; Switch just calls
// the hook sched installs at startup.
//
// TaskContext itself stays the same 14-word struct on every backend
// (RA/SP/S are meaningful only to the riscv64 implementation) so code
// that builds and stores TaskContext values does not need a backend
// split.
var switchHook func(cur, next *TaskContext)

// SetSwitchHook installs the backend that actually performs the
// suspend/resume rendezvous for Switch. Called once from sched's
// processor setup; panics if called twice; sched owns the goroutine
// bookkeeping, trap only owns the data layout.
func SetSwitchHook(hook func(cur, next *TaskContext)) {
	if switchHook != nil {
		panic("trap: switch hook already installed")
	}
	switchHook = hook
}

func Switch(cur, next *TaskContext) {
	if switchHook == nil {
		panic("trap: Switch called before sched installed a switch hook")
	}
	switchHook(cur, next)
}

package sched

import (
	"rvcore/proc"
	"rvcore/trap"
)

// processor holds the single hart's current running TCB and its idle
// task context, the scratchpad run_tasks switches out of and back into
// (spec.md section 4.5). One hart, so one processor; SMP is explicitly
// out of scope.
type processor struct {
	current *proc.ThreadControlBlock
	idleCx  trap.TaskContext
}

var cpu = &processor{}

// Current returns the thread presently occupying the processor, or nil
// if none is running (the outer run_tasks loop itself).
func Current() *proc.ThreadControlBlock { return cpu.current }

// CurrentToken returns the running thread's address-space token, used
// by syscalls that need to translate a user pointer.
func CurrentToken() uint64 {
	if cpu.current == nil {
		panic("sched: CurrentToken called with no task running")
	}
	return cpu.current.Process.MemSet.Token()
}

// takeCurrent clears and returns the current thread, used by
// exit_current_and_run_next and block_current_and_run_next which must
// not leave a stale "current" pointer around across a switch.
func takeCurrent() *proc.ThreadControlBlock {
	t := cpu.current
	cpu.current = nil
	return t
}

// Init installs proc's thread-creation hook, trap's exit and suspend
// hooks and, on backends that need one, the trap.Switch rendezvous.
// Called once from cmd/kernel during boot.
func Init() {
	proc.EnqueueTask = AddTask
	trap.ExitCurrentAndRunNext = ExitCurrentAndRunNext
	trap.SuspendCurrentAndRunNext = SuspendCurrentAndRunNext
	installSwitchBackend()
}

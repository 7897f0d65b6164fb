package sched

import (
	"rvcore/proc"
	"rvcore/trap"
)

// AddTask marks t Ready and appends it to the tail of the ready queue
// (spec.md section 4.5, "wakeup_task: mark Ready, enqueue" and the
// general add-at-tail policy). It is also proc's EnqueueTask hook, used
// when a thread is created; WakeupTask re-enqueues a blocked thread
// without the software backend's goroutine-spawn step.
func AddTask(t *proc.ThreadControlBlock) {
	t.Status = proc.StatusReady
	maybeSpawn(t)
	ready.add(t)
}

// RunTasks is the idle control flow's outer loop (spec.md section 4.5):
// pop a ready thread, mark it Running, make it current, and switch into
// it. When Switch returns -- the thread yielded, blocked, or exited --
// loop and fetch the next one. Never returns; callers run it on the
// hart's boot stack.
func RunTasks() {
	for {
		t := ready.fetch()
		if t == nil {
			continue
		}
		t.Status = proc.StatusRunning
		cpu.current = t
		trap.Switch(&cpu.idleCx, &t.TaskCx)
	}
}

// schedule hands the processor back to the idle control flow. Callers
// must have already released every exclusive-access borrow they hold;
// holding one across this call is exactly the bug class the borrow
// cell exists to catch.
func schedule(curCx *trap.TaskContext) {
	trap.Switch(curCx, &cpu.idleCx)
}

// SuspendCurrentAndRunNext marks the current thread Ready, re-enqueues
// it, and yields the processor (spec.md section 4.5 and syscall 124).
func SuspendCurrentAndRunNext() {
	t := takeCurrent()
	if t == nil {
		return
	}
	t.Status = proc.StatusReady
	ready.add(t)
	schedule(&t.TaskCx)
}

// BlockCurrentAndRunNext marks the current thread Blocked -- without
// re-enqueuing it -- and yields. Re-enqueuing is the wake-up path's
// job (spec.md section 4.5).
func BlockCurrentAndRunNext() {
	t := takeCurrent()
	if t == nil {
		return
	}
	t.Status = proc.StatusBlocked
	schedule(&t.TaskCx)
}

// WakeupTask marks a blocked thread Ready and re-enqueues it (spec.md
// section 4.5), used by mutex/semaphore/condvar unlock paths and by
// the timer's check_timer.
func WakeupTask(t *proc.ThreadControlBlock) {
	t.Status = proc.StatusReady
	ready.add(t)
}

// ExitCurrentAndRunNext records the exit code, releases the thread's
// per-thread resources, and -- if this was the process's main thread --
// finalizes the whole process: marks it a zombie, reparents children to
// init, drops the framed regions of its address space (keeping the
// page-table skeleton so a waiting parent can still translate), and
// drops every other thread's resources too (spec.md section 4.6). The
// call never returns to its caller; schedule is invoked with a task
// context that will never be switched back into.
func ExitCurrentAndRunNext(code int32) {
	t := takeCurrent()
	if t == nil {
		return
	}
	exitCode := code
	t.ExitCode = &exitCode
	p := t.Process

	isMain := t.Res.Tid() == 0
	var dummy trap.TaskContext

	p.With("ExitCurrentAndRunNext", func() {
		t.Res.Release()
		t.KStack.Release()
		if isMain {
			// Threads that already exited released their resources on
			// their own exit; drop their slots so finalizeProcess does
			// not release them a second time.
			for i, other := range p.Tasks {
				if other != nil && other.ExitCode != nil {
					p.Tasks[i] = nil
				}
			}
			finalizeProcess(p, exitCode)
		}
	})

	schedule(&dummy)
}

// InitProc is the process every exiting process's children are
// reparented to (spec.md section 4.6). Set once by cmd/kernel after the
// first process is built.
var InitProc *proc.ProcessControlBlock

// Shutdown halts the machine once InitProc itself exits (spec.md
// section 7: "Init process exits: shutdown the machine via SBI").
// sched cannot import sbi directly -- sbi imports timer, and
// timer imports sched, which would cycle -- so cmd/kernel wires this
// hook at boot the same way it wires trap.SetNextTrigger.
var Shutdown func(failure bool)

// finalizeProcess runs the main-thread exit path: called with p's
// borrow already held, so it must not itself suspend.
func finalizeProcess(p *proc.ProcessControlBlock, exitCode int32) {
	p.Zombie = true
	p.ExitCode = exitCode
	if p == InitProc && Shutdown != nil {
		Shutdown(exitCode != 0)
		return
	}
	for _, child := range p.Children {
		child.Parent = InitProc
		if InitProc != nil {
			InitProc.Children = append(InitProc.Children, child)
		}
	}
	p.Children = nil
	p.MemSet.RecycleDataPages()
	for _, other := range p.Tasks {
		if other == nil || other.Res.Tid() == 0 {
			continue
		}
		other.Res.Release()
		other.KStack.Release()
	}
	p.Tasks = nil
}

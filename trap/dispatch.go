package trap

import (
	"fmt"

	"rvcore/defs"
	"rvcore/klog"
)

// Kind classifies why control landed back in supervisor mode: the
// scause cases a trap handler switches on.
type Kind int

const (
	KindUserEnvCall Kind = iota
	KindStoreFault
	KindLoadFault
	KindIllegalInstruction
	KindSupervisorTimer
	KindUnknown
)

// Outcome tells the caller (the run loop driving a thread's kernel
// control flow) what to do once Dispatch returns.
type Outcome int

const (
	OutcomeContinue Outcome = iota // resume the faulting/calling thread
	OutcomeExit                    // the current thread already exited
	OutcomeRescheduled             // the current thread yielded the processor
)

// Hooks the syscall layer and the scheduler install once at boot.
// Dispatch never imports svc/sched/timer directly: those packages
// import trap for TrapContext, so the dependency has to run the other
// way, through these function variables (spec.md section 4.4/4.9).
var (
	SyscallHandler           func(a7 int64, args [3]uint64, cx *TrapContext) int64
	ExitCurrentAndRunNext    func(exitCode int32)
	SuspendCurrentAndRunNext func()
	SetNextTrigger           func()
	CheckTimer               func()
)

// Dispatch runs the kernel-side half of a trap: on a syscall it reads
// a7/a0/a1/a2 out of cx, calls the registered handler, and writes the
// result back into a0 (spec.md section 4.9); on a fault it kills the
// current thread with a fixed exit code; on a timer interrupt it
// rearms the timer, wakes any threads whose deadline has passed, and
// yields the processor.
func Dispatch(kind Kind, cx *TrapContext) Outcome {
	switch kind {
	case KindUserEnvCall:
		cx.Sepc += 4 // ecall is 4 bytes; resume after it
		a7 := int64(cx.X[RegA7])
		args := [3]uint64{cx.X[RegA0], cx.X[RegA1], cx.X[RegA2]}
		if SyscallHandler == nil {
			panic("trap: syscall dispatched before svc installed a handler")
		}
		ret := SyscallHandler(a7, args, cx)
		// cx may be stale if the syscall (e.g. exec) replaced the
		// thread's trap context; re-read the live one is the caller's
		// job, we only write back when asked to continue.
		cx.X[RegA0] = uint64(ret)
		return OutcomeContinue

	case KindStoreFault, KindLoadFault:
		klog.Warn("page fault in application, core dumped")
		requireExit(defs.ExitPageFault)
		return OutcomeExit

	case KindIllegalInstruction:
		klog.Warn("illegal instruction in application, core dumped")
		requireExit(defs.ExitIllegal)
		return OutcomeExit

	case KindSupervisorTimer:
		if SetNextTrigger != nil {
			SetNextTrigger()
		}
		if CheckTimer != nil {
			CheckTimer()
		}
		if SuspendCurrentAndRunNext != nil {
			SuspendCurrentAndRunNext()
		}
		return OutcomeRescheduled

	default:
		panic(fmt.Sprintf("trap: unsupported trap kind %d", kind))
	}
}

func requireExit(code defs.Err_t) {
	if ExitCurrentAndRunNext == nil {
		panic("trap: fault dispatched before sched installed exit_current_and_run_next")
	}
	ExitCurrentAndRunNext(int32(code))
}

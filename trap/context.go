// Package trap holds the trap-context/task-context frame layouts that
// cross the U<->S and kernel<->kernel control-flow boundaries, and the
// dispatch logic invoked once a trap has landed in kernel code.
package trap

import "rvcore/config"

// TrapContext is the per-thread register save area that crosses the
// U<->S boundary, living at a known per-thread virtual page one page
// below the trampoline (spec.md sections 3 and 6). Total: 37 usize
// words (32 GPRs + sstatus + sepc + 3 write-once kernel fields).
type TrapContext struct {
	X           [32]uint64 // general registers x0..x31
	Sstatus     uint64
	Sepc        uint64
	KernelSatp  uint64 // write-once at thread creation
	KernelSP    uint64 // write-once at thread creation
	TrapHandler uint64 // write-once at thread creation: va of trap_handler
}

// Register indices into X, named for readability at call sites.
const (
	RegSP = 2  // x2, stack pointer
	RegA0 = 10 // x10, syscall arg0 / return value
	RegA1 = 11
	RegA2 = 12
	RegA7 = 17 // syscall number
)

// sstatusSPPUser is the bit pattern recording that the trap originated
// from U-mode (SPP=0) with SPIE set, so sret drops back to U-mode with
// interrupts re-enabled. The software model only needs this to be a
// stable sentinel; real hardware reads/writes the actual CSR via the
// riscv64 trampoline.
const sstatusSPPUser uint64 = 1 << 5 // SPIE

// NewAppInitContext builds the initial trap context for a newly created
// thread: entry point in sepc, user stack pointer, and the three
// write-once kernel-side fields needed by __alltraps/__restore
// (spec.md section 4.6 step 3 and original app_init_context).
func NewAppInitContext(entry, userSP, kernelSatp, kernelSP, trapHandlerVA uint64) TrapContext {
	cx := TrapContext{
		Sstatus:     sstatusSPPUser,
		Sepc:        entry,
		KernelSatp:  kernelSatp,
		KernelSP:    kernelSP,
		TrapHandler: trapHandlerVA,
	}
	cx.X[RegSP] = userSP
	return cx
}

// TaskContext is the kernel-to-kernel switch frame: return address,
// kernel stack pointer, and 12 callee-saved registers (spec.md section
// 3). 14 usize words total.
type TaskContext struct {
	RA uint64
	SP uint64
	S  [12]uint64
}

// NewTaskContext builds the task context a freshly created thread's
// kernel control flow starts in: __switch will "return" into
// trapReturnVA (trap_return) with SP already pointing at the top of the
// thread's kernel stack (original goto_trap_ret).
func NewTaskContext(kernelStackTop, trapReturnVA uint64) TaskContext {
	return TaskContext{RA: trapReturnVA, SP: kernelStackTop}
}

// TrapContextVA computes the per-thread trap-context virtual address.
func TrapContextVA(tid uint64) uint64 { return config.TrapContextVA(tid) }

// TrapReturnSentinel is the RA a freshly built TaskContext carries
// (original: goto_trap_ret). On the riscv64 backend the real value is
// the trampoline-relative address of __restore, computed by boot
// assembly this repository does not implement a linker script for; the
// sentinel keeps the TaskContext layout faithful to spec.md section 6
// without claiming a code address that is never actually jumped to by
// the software model's goroutine-based control flow.
const TrapReturnSentinel uint64 = 0

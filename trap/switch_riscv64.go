//go:build riscv64

package trap

// Switch saves ra, sp, s0..s11 into *cur and loads them from *next,
// then returns into next's ra (spec.md section 4.4, __switch). This is
// the genuine register-level coroutine switch and is implemented in
// trampoline_riscv64.s; it runs with interrupts disabled on entry by
// hardware convention (spec.md section 5).
func Switch(cur, next *TaskContext)

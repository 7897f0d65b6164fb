// Package timer is the monotonic tick source and the min-heap timer
// wheel driving sys_sleep and periodic preemption (spec.md section
// 4.8).
package timer

// Ticks returns the current value of the monotonic tick counter (the
// riscv64 `time` CSR on real hardware, a software counter elsewhere).
// The two backends run at different rates -- see Millis, which each
// backend defines to match its own Ticks().
func Ticks() uint64 { return readTicks() }

// NowMillis is a convenience wrapper used by sys_sleep and the wheel.
func NowMillis() uint64 { return Millis(Ticks()) }

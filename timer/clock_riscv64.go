//go:build riscv64

package timer

import "rvcore/config"

// readTicks reads the `time` CSR directly (timer_riscv64.s). It runs
// at config.ClockFreq Hz, not config.TicksPerSec Hz.
func readTicks() uint64

// StartWallClock is a no-op on real hardware: the `time` CSR free-runs
// on its own, driven by the timer interrupt sbi.SetNextTrigger arms
// rather than a host goroutine.
func StartWallClock() (stop func()) { return func() {} }

// Millis converts a raw `time` CSR reading to milliseconds, dividing
// out the hardware's own clock rate first (spec.md section 4.8: tick
// rate = CLOCK_FREQ / TICKS_PER_SEC) rather than assuming ticks are
// already OS-tick-rate, the way the software backend's counter is.
func Millis(ticks uint64) uint64 {
	return ticks * uint64(config.MsecPerSec) / config.ClockFreq
}

//go:build !riscv64

package timer

import (
	"time"

	"gvisor.dev/gvisor/pkg/atomicbitops"

	"rvcore/config"
)

// softTicks stands in for the `time` CSR: nothing on this backend
// increments it automatically except Advance (tests) or the goroutine
// StartWallClock spawns (a simulated boot), so behavior stays
// deterministic unless a caller opts into wall-clock time.
var softTicks atomicbitops.Uint64

func readTicks() uint64 { return softTicks.Load() }

// Millis converts a tick count to milliseconds. softTicks already
// advances at config.TicksPerSec Hz (once per StartWallClock interval,
// or once per Advance call in tests), so the conversion is a plain
// rate scaling, unlike the riscv64 backend which still has to divide
// out the raw `time` CSR's hardware frequency.
func Millis(ticks uint64) uint64 {
	return ticks * uint64(config.MsecPerSec) / uint64(config.TicksPerSec)
}

// Advance bumps the tick counter by n, used by tests to drive sleep
// ordering deterministically without a real wall clock.
func Advance(n uint64) { softTicks.Add(n) }

// StartWallClock spawns a goroutine that advances the tick counter at
// the configured rate using real time, the software model's equivalent
// of a free-running hardware timer. Returns a stop function.
func StartWallClock() (stop func()) {
	interval := time.Second / time.Duration(config.TicksPerSec)
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				softTicks.Add(1)
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

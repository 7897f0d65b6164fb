package timer

import (
	"testing"

	"rvcore/proc"
)

func resetWheel() {
	wheel.mu.Lock()
	wheel.h = nil
	wheel.mu.Unlock()
	softTicks.Store(0)
}

func TestCheckTimerPopsOnlyDueEntries(t *testing.T) {
	resetWheel()

	a := &proc.ThreadControlBlock{}
	b := &proc.ThreadControlBlock{}
	c := &proc.ThreadControlBlock{}

	AddTimer(100, a)
	AddTimer(50, b)
	AddTimer(200, c)

	// TicksPerSec=100 so 1 tick = 10ms; 6 ticks = 60ms, past only b's
	// 50ms deadline.
	Advance(6)
	CheckTimer()
	wheel.mu.Lock()
	remaining := len(wheel.h)
	wheel.mu.Unlock()
	if remaining != 2 {
		t.Fatalf("remaining = %d, want 2 (only the 50ms entry should have fired)", remaining)
	}

	Advance(100)
	CheckTimer()
	wheel.mu.Lock()
	remaining = len(wheel.h)
	wheel.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("remaining = %d, want 0 after advancing well past every deadline", remaining)
	}
}

func TestMillisConversion(t *testing.T) {
	if got := Millis(100); got != 1000 {
		t.Fatalf("Millis(100) = %d, want 1000 at 100 ticks/sec", got)
	}
}

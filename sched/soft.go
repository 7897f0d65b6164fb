//go:build !riscv64

package sched

import (
	"sync"

	"rvcore/proc"
	"rvcore/trap"
)

// On a backend with no real per-hart register file, __switch's
// contract -- "control does not return to the caller until some other
// task context switches back into it" -- is reproduced with one
// goroutine per task and a resume channel keyed by *trap.TaskContext
// identity. trap.Switch(cur, next) signals next's goroutine to
// proceed and parks the caller on cur's channel; whatever later calls
// Switch(next, cur) (directly, or indirectly through schedule) wakes it
// back up. Installed once via trap.SetSwitchHook.
type softSwitcher struct {
	mu     sync.Mutex
	resume map[*trap.TaskContext]chan struct{}
}

var soft = &softSwitcher{resume: make(map[*trap.TaskContext]chan struct{})}

func (s *softSwitcher) channelFor(tc *trap.TaskContext) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.resume[tc]
	if !ok {
		ch = make(chan struct{})
		s.resume[tc] = ch
	}
	return ch
}

func (s *softSwitcher) switchTo(cur, next *trap.TaskContext) {
	s.channelFor(next) <- struct{}{}
	<-s.channelFor(cur)
}

func installSwitchBackend() {
	trap.SetSwitchHook(soft.switchTo)
}

// maybeSpawn starts t's goroutine the first time it is added to the
// ready queue, parked on its own resume channel until run_tasks first
// switches into it. A thread with no Body (nothing to simulate) still
// needs a goroutine, since schedule() must have something listening on
// its channel; an empty body just exits immediately, which drives
// exit_current_and_run_next on its own behalf.
var spawned sync.Map // *proc.ThreadControlBlock -> struct{}

func maybeSpawn(t *proc.ThreadControlBlock) {
	if _, already := spawned.LoadOrStore(t, struct{}{}); already {
		return
	}
	ch := soft.channelFor(&t.TaskCx)
	go func() {
		<-ch
		if t.Body != nil {
			t.Body()
		}
		ExitCurrentAndRunNext(0)
	}()
}

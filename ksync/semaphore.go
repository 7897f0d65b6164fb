package ksync

import (
	gsync "gvisor.dev/gvisor/pkg/sync"

	"rvcore/proc"
	"rvcore/sched"
)

// Semaphore is a signed counter plus a FIFO wait queue. The sign
// encodes both meanings at once: positive is available resource count,
// negative is (negated) waiter count -- which is why down decrements
// before testing (spec.md section 4.7).
type Semaphore struct {
	mu    gsync.Mutex
	count int64
	waitq []*proc.ThreadControlBlock
}

func NewSemaphore(initial int64) *Semaphore {
	return &Semaphore{count: initial}
}

// Up releases one unit, waking the oldest waiter if the counter is
// still non-positive after the increment (it was negative before).
func (s *Semaphore) Up() {
	s.mu.Lock()
	s.count++
	var wake *proc.ThreadControlBlock
	if s.count <= 0 && len(s.waitq) > 0 {
		wake = s.waitq[0]
		s.waitq = s.waitq[1:]
	}
	s.mu.Unlock()
	if wake != nil {
		sched.WakeupTask(wake)
	}
}

// Down decrements first, then blocks if that pushed the counter
// negative -- so count == -3 means three threads are waiting.
func (s *Semaphore) Down() {
	s.mu.Lock()
	s.count--
	if s.count < 0 {
		s.waitq = append(s.waitq, sched.Current())
		s.mu.Unlock()
		sched.BlockCurrentAndRunNext()
		return
	}
	s.mu.Unlock()
}

package ksync

import (
	gsync "gvisor.dev/gvisor/pkg/sync"

	"rvcore/proc"
	"rvcore/sched"
)

// Condvar is a bare FIFO wait queue with no associated state of its
// own; Wait unlocks the caller-supplied mutex before blocking and
// re-locks it after being woken (spec.md section 4.7). Signal does not
// hand off the mutex itself -- the woken waiter re-acquires it on its
// own.
type Condvar struct {
	mu    gsync.Mutex
	waitq []*proc.ThreadControlBlock
}

func NewCondvar() *Condvar { return &Condvar{} }

func (c *Condvar) Wait(m Mutex) {
	m.Unlock()
	c.mu.Lock()
	c.waitq = append(c.waitq, sched.Current())
	c.mu.Unlock()
	sched.BlockCurrentAndRunNext()
	m.Lock()
}

func (c *Condvar) Signal() {
	c.mu.Lock()
	if len(c.waitq) == 0 {
		c.mu.Unlock()
		return
	}
	next := c.waitq[0]
	c.waitq = c.waitq[1:]
	c.mu.Unlock()
	sched.WakeupTask(next)
}

// Package ksync holds the user-visible synchronization primitives --
// spin mutex, blocking mutex, semaphore, condition variable -- that
// live in a process's resource tables (spec.md section 4.7). Each
// primitive guards its own fields with a gvisor pkg/sync mutex; waiting
// and waking go through sched's block/wakeup calls.
package ksync

import (
	gsync "gvisor.dev/gvisor/pkg/sync"

	"rvcore/proc"
	"rvcore/sched"
)

// Mutex is the interface both mutex flavors satisfy; svc stores
// whichever one sys_mutex_create was asked for behind this.
type Mutex interface {
	Lock()
	Unlock()
}

// SpinMutex busy-waits rather than blocking: lock failure suspends the
// current thread and retries, it never joins a wait queue (spec.md
// section 4.7).
type SpinMutex struct {
	mu     gsync.Mutex
	locked bool
}

func NewSpinMutex() *SpinMutex { return &SpinMutex{} }

func (m *SpinMutex) Lock() {
	for {
		m.mu.Lock()
		if !m.locked {
			m.locked = true
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()
		sched.SuspendCurrentAndRunNext()
	}
}

// Unlock clears the flag. No ownership check is performed here (any
// thread may unlock a SpinMutex it never locked); spec.md section 9
// records this as a known looseness to preserve, not a bug to patch.
func (m *SpinMutex) Unlock() {
	m.mu.Lock()
	m.locked = false
	m.mu.Unlock()
}

// BlockingMutex keeps a FIFO wait queue and hands ownership directly to
// the oldest waiter on unlock, without ever clearing the locked flag in
// between (spec.md section 4.7, "direct handoff").
type BlockingMutex struct {
	mu     gsync.Mutex
	locked bool
	waitq  []*proc.ThreadControlBlock
}

func NewBlockingMutex() *BlockingMutex { return &BlockingMutex{} }

func (m *BlockingMutex) Lock() {
	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.mu.Unlock()
		return
	}
	m.waitq = append(m.waitq, sched.Current())
	m.mu.Unlock()
	sched.BlockCurrentAndRunNext()
}

func (m *BlockingMutex) Unlock() {
	m.mu.Lock()
	if len(m.waitq) > 0 {
		next := m.waitq[0]
		m.waitq = m.waitq[1:]
		m.mu.Unlock()
		sched.WakeupTask(next)
		return
	}
	m.locked = false
	m.mu.Unlock()
}

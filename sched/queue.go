// Package sched is the FIFO ready queue and the per-CPU "processor"
// alternating between idle and task control flow (spec.md section 4.5),
// following biscuit's switch/__switch-adjacent context-save conventions.
package sched

import (
	"sync"

	"rvcore/proc"
)

// readyQueue is the FIFO deque of Ready threads: fetch removes the
// head, add appends at the tail.
type readyQueue struct {
	mu    sync.Mutex
	tasks []*proc.ThreadControlBlock
}

var ready = &readyQueue{}

func (q *readyQueue) add(t *proc.ThreadControlBlock) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
}

func (q *readyQueue) fetch() *proc.ThreadControlBlock {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t
}

package timer

import (
	"container/heap"
	"sync"

	"rvcore/proc"
	"rvcore/sched"
)

// entry is one pending wake-up: a thread sleeping until expireMs.
// container/heap backs the priority queue (see DESIGN.md for why
// stdlib is the right call here); the ordering and pop-while-due logic
// implement a deadline-ordered min-heap of sleeping threads.
type entry struct {
	expireMs uint64
	task     *proc.ThreadControlBlock
}

type entryHeap []entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].expireMs < h[j].expireMs }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Wheel is the monotonic-time-ordered timer heap driving sleep and
// periodic preemption (spec.md section 4.8).
type Wheel struct {
	mu sync.Mutex
	h  entryHeap
}

var wheel = &Wheel{}

// AddTimer schedules task to be woken once NowMillis reaches expireMs.
func AddTimer(expireMs uint64, task *proc.ThreadControlBlock) {
	wheel.mu.Lock()
	heap.Push(&wheel.h, entry{expireMs: expireMs, task: task})
	wheel.mu.Unlock()
}

// CheckTimer pops and wakes every entry whose deadline has passed. Run
// from the timer-interrupt path (spec.md section 4.8).
func CheckTimer() {
	now := NowMillis()
	for {
		wheel.mu.Lock()
		if len(wheel.h) == 0 || wheel.h[0].expireMs > now {
			wheel.mu.Unlock()
			return
		}
		e := heap.Pop(&wheel.h).(entry)
		wheel.mu.Unlock()
		sched.WakeupTask(e.task)
	}
}

// Sleep blocks the current thread until now+ms has elapsed (syscall
// 101).
func Sleep(ms uint64) {
	t := sched.Current()
	AddTimer(NowMillis()+ms, t)
	sched.BlockCurrentAndRunNext()
}

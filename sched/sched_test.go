package sched_test

import (
	"sync"
	"testing"

	"rvcore/ksync"
	"rvcore/mem"
	"rvcore/proc"
	"rvcore/sched"
	"rvcore/trap"
	"rvcore/vm"
)

// The scheduler's Init installs a process-wide switch hook that panics
// if installed twice, and RunTasks is a single idle loop over shared
// package state -- so every test in this file shares one boot and one
// running idle loop, started exactly once.
var (
	once     sync.Once
	allocG   *mem.Allocator
	ramG     vm.Ram
)

func bootOnce(t *testing.T) {
	t.Helper()
	once.Do(func() {
		allocG = mem.NewAllocator(0, 4096)
		ramG = mem.NewSimRAM(4096 * 4096)
		kframe, ok := mem.Alloc(allocG, ramG)
		if !ok {
			t.Fatal("out of frames booting kernel space")
		}
		kms, err := vm.NewBare(allocG, ramG, kframe.PPN())
		if err != nil {
			t.Fatal(err)
		}
		proc.KernelSpace = kms
		proc.SetTrapHandlerVA(0x1000)
		sched.Init()
		go sched.RunTasks()
	})
}

// newBodyThread builds a schedulable thread whose user-space footprint
// is never touched (alloc=false): these threads only exercise sched and
// ksync control flow through Body, never a real trap context.
func newBodyThread(t *testing.T, p *proc.ProcessControlBlock, body func()) *proc.ThreadControlBlock {
	t.Helper()
	res := proc.NewUserRes(p, 0, false)
	kstack := proc.NewKernelStack()
	return &proc.ThreadControlBlock{
		Process: p,
		KStack:  kstack,
		Res:     res,
		Status:  proc.StatusReady,
		TaskCx:  trap.NewTaskContext(kstack.Top(), trap.TrapReturnSentinel),
		Body:    body,
	}
}

func newTestProcess(t *testing.T) *proc.ProcessControlBlock {
	t.Helper()
	frame, ok := mem.Alloc(allocG, ramG)
	if !ok {
		t.Fatal("out of frames building process address space")
	}
	ms, err := vm.NewBare(allocG, ramG, frame.PPN())
	if err != nil {
		t.Fatal(err)
	}
	return &proc.ProcessControlBlock{
		Pid:          1,
		MemSet:       ms,
		TidAllocator: proc.NewIDAllocator(0),
	}
}

// TestRoundRobinYieldOrder drives two threads through sys_yield's kernel
// path (sched.SuspendCurrentAndRunNext) and checks the FIFO ready queue
// interleaves them strictly in turn, never letting one run twice before
// the other has had its turn. Each thread is the sole (tid 0, "main")
// thread of its own throwaway process, so its eventual return -- which
// drives exit_current_and_run_next -- only ever tears down its own
// process and never races a sibling thread's resources.
func TestRoundRobinYieldOrder(t *testing.T) {
	bootOnce(t)

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	done := make(chan struct{}, 2)
	a := newBodyThread(t, newTestProcess(t), func() {
		record("a1")
		sched.SuspendCurrentAndRunNext()
		record("a2")
		done <- struct{}{}
	})
	b := newBodyThread(t, newTestProcess(t), func() {
		record("b1")
		sched.SuspendCurrentAndRunNext()
		record("b2")
		done <- struct{}{}
	})

	sched.AddTask(a)
	sched.AddTask(b)
	<-done
	<-done

	mu.Lock()
	defer mu.Unlock()
	want := []string{"a1", "b1", "a2", "b2"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

// TestBlockingMutexSerializesIncrements hammers a shared counter from
// several goroutine-backed threads -- each the sole thread of its own
// process -- through a single ksync.BlockingMutex and checks the final
// count is exact, which only holds if Lock/Unlock actually serialize
// instead of racing.
func TestBlockingMutexSerializesIncrements(t *testing.T) {
	bootOnce(t)

	const n = 8
	const itersPerThread = 50
	m := ksync.NewBlockingMutex()
	var counter int
	done := make(chan struct{}, n)

	for i := 0; i < n; i++ {
		th := newBodyThread(t, newTestProcess(t), func() {
			for j := 0; j < itersPerThread; j++ {
				m.Lock()
				counter++
				m.Unlock()
			}
			done <- struct{}{}
		})
		sched.AddTask(th)
	}

	for i := 0; i < n; i++ {
		<-done
	}

	if counter != n*itersPerThread {
		t.Fatalf("counter = %d, want %d", counter, n*itersPerThread)
	}
}

// Package proc holds the process/thread data model: process and thread
// control blocks, the pid/tid/kstack-id allocator, and the per-process
// resource slot tables mutexes/semaphores/condvars live in, following
// biscuit's style of small owned-resource structs with explicit
// release methods (mem.OwnedFrame, vm.MapArea).
package proc

import "sync"

// IDAllocator is a simple-range allocator: pop the recycle stack
// first, else bump the counter. Shared by pid, tid and kstack-id
// allocation (spec.md section 3, "Identifier").
type IDAllocator struct {
	mu        sync.Mutex
	current   uint64
	recycled  []uint64
}

// NewIDAllocator starts counting from start (0 for pid/kstack-id
// allocators that own their whole range, or from 1 where id 0 is
// reserved, as callers choose).
func NewIDAllocator(start uint64) *IDAllocator {
	return &IDAllocator{current: start}
}

// Alloc returns a fresh id, preferring a recycled one.
func (a *IDAllocator) Alloc() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.recycled); n > 0 {
		id := a.recycled[n-1]
		a.recycled = a.recycled[:n-1]
		return id
	}
	id := a.current
	a.current++
	return id
}

// Dealloc returns id to the pool. Panics on a double-free or on an id
// that was never issued.
func (a *IDAllocator) Dealloc(id uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id >= a.current {
		panic("proc: dealloc of an id never allocated")
	}
	for _, r := range a.recycled {
		if r == id {
			panic("proc: double free of id")
		}
	}
	a.recycled = append(a.recycled, id)
}

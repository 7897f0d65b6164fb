package proc

import (
	"fmt"

	gsync "gvisor.dev/gvisor/pkg/sync"
)

// Borrow is the exclusive-access cell PCB/TCB inner state lives behind:
// a single borrower, checked at runtime, panicking on overlap rather
// than blocking (spec.md section 9, "Reimplementations should use a
// reentrancy-unsafe mutable borrow (panicking on overlap) -- this is a
// feature, surfacing the 'borrow held across a context switch' bug
// class loudly"). Every exported PCB/TCB method that touches shared
// fields must Lock/Unlock (or With) around the touch, and must never
// still hold the borrow when it calls into sched's suspend/block/exit
// helpers.
type Borrow struct {
	mu       gsync.Mutex
	borrowed bool
	owner    string
}

// Lock takes the borrow. owner is a short label (caller's function
// name) used only in the panic message.
func (b *Borrow) Lock(owner string) {
	b.mu.Lock()
	if b.borrowed {
		b.mu.Unlock()
		panic(fmt.Sprintf("proc: exclusive-access conflict: %s while %s still holds the borrow", owner, b.owner))
	}
	b.borrowed = true
	b.owner = owner
	b.mu.Unlock()
}

// Unlock releases the borrow.
func (b *Borrow) Unlock() {
	b.mu.Lock()
	b.borrowed = false
	b.owner = ""
	b.mu.Unlock()
}

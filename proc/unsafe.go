package proc

import "unsafe"

// ptrOf reinterprets a physical page's byte slice as a pointer to a
// fixed-layout struct living at its start, the Go equivalent of the
// original's `unsafe { (*mut TrapContext).as_mut() }` over a raw
// physical page. Callers are responsible for the slice outliving the
// struct access and for the struct fitting within one page.
func ptrOf(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		panic("proc: ptrOf on empty page")
	}
	return unsafe.Pointer(&b[0])
}

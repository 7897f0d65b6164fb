package svc

import (
	"rvcore/defs"
	"rvcore/sbi"
	"rvcore/sched"
	"rvcore/vm"
)

// RAM is the physical memory every address space translates through.
// Set once by cmd/kernel.
var RAM vm.Ram

const (
	fdStdin  = 0
	fdStdout = 1
)

func sysReadImpl(fd, buf, length uint64) int64 {
	if fd != fdStdin {
		return int64(-defs.EINVAL)
	}
	if length != 1 {
		// The console reader only ever reads one byte at a time; a
		// longer request would need buffering this console doesn't
		// implement.
		length = 1
	}
	var b byte
	for {
		c := sbi.ConsoleGetChar()
		if c != 0 {
			b = byte(c)
			break
		}
		sched.SuspendCurrentAndRunNext()
	}
	slices := vm.TranslateBuffer(sched.CurrentToken(), RAM, buf, length)
	if len(slices) == 0 || len(slices[0]) == 0 {
		return int64(-defs.EFAULT)
	}
	slices[0][0] = b
	return 1
}

func sysWriteImpl(fd, buf, length uint64) int64 {
	if fd != fdStdout {
		return int64(-defs.EINVAL)
	}
	slices := vm.TranslateBuffer(sched.CurrentToken(), RAM, buf, length)
	n := 0
	for _, s := range slices {
		for _, b := range s {
			sbi.ConsolePutChar(b)
		}
		n += len(s)
	}
	return int64(n)
}

package svc

import (
	"rvcore/proc"
	"rvcore/sched"
	"rvcore/timer"
	"rvcore/trap"
	"rvcore/vm"
)

func sysSleepImpl(ms uint64) int64 {
	timer.Sleep(ms)
	return 0
}

func sysGetTimeImpl() int64 { return int64(timer.Ticks()) }

// sysForkImpl clones the calling process; the parent's ecall returns
// the child pid (trap.Dispatch writes this into the parent's a0), and
// the child's own trap context -- a fresh copy -- gets its a0
// overwritten to 0 here so that when it first resumes it sees the
// fork-child return value, per spec.md section 4.6.
func sysForkImpl(cx *trap.TrapContext) int64 {
	parent := sched.Current().Process
	child := proc.Fork(parent)
	childCx := child.MainThread().TrapContext(parent.MemSet.RawRam())
	childCx.X[trap.RegA0] = 0
	return int64(child.Pid)
}

func sysExecImpl(cx *trap.TrapContext, pathPtr, argvPtr uint64) int64 {
	path := vm.TranslateStr(sched.CurrentToken(), RAM, pathPtr)
	data, ok := Apps.Lookup(path)
	if !ok {
		return -1
	}
	argv := readArgv(sched.CurrentToken(), argvPtr)

	p := sched.Current().Process
	argc, argvBase, entry, sp, err := proc.Exec(p, data, argv)
	if err != nil {
		return -1
	}
	cx.Sepc = entry
	cx.X[trap.RegSP] = sp
	cx.X[trap.RegA0] = uint64(argc)
	cx.X[trap.RegA1] = argvBase
	return int64(argc)
}

// readArgv walks the user's NUL-terminated argv pointer array, reading
// each pointed-to string.
func readArgv(token uint64, argvPtr uint64) []string {
	if argvPtr == 0 {
		return nil
	}
	var out []string
	for i := 0; ; i++ {
		word := vm.TranslateRefMutOffset(token, RAM, argvPtr+uint64(i)*8, 8)
		ptr := uint64(0)
		for j := 7; j >= 0; j-- {
			ptr = ptr<<8 | uint64(word[j])
		}
		if ptr == 0 {
			break
		}
		out = append(out, vm.TranslateStr(token, RAM, ptr))
	}
	return out
}

func sysWaitpidImpl(pid int64, codePtr uint64) int64 {
	parent := sched.Current().Process
	childPid, exitCode, status := proc.Waitpid(parent, pid)
	if status != 0 {
		return int64(status)
	}
	if codePtr != 0 {
		writeExitCode(sched.CurrentToken(), codePtr, exitCode)
	}
	return childPid
}

func writeExitCode(token uint64, ptr uint64, code int32) {
	dst := vm.TranslateRefMutOffset(token, RAM, ptr, 4)
	v := uint32(code)
	for i := 0; i < 4; i++ {
		dst[i] = byte(v >> (8 * i))
	}
}

func sysThreadCreateImpl(entry, arg uint64) int64 {
	p := sched.Current().Process
	tcb := proc.ThreadCreate(p, entry, arg)
	return int64(tcb.Res.Tid())
}

func sysWaitTidImpl(tid uint64) int64 {
	t := sched.Current()
	code, status := proc.Waittid(t.Process, t.Res.Tid(), tid)
	if status != 0 {
		return int64(status)
	}
	return int64(code)
}

// Package svc is the single syscall dispatch table keyed by a7 (spec.md
// section 4.9), following biscuit's table-driven dispatch style. Every
// handler receives already-marshaled arguments and returns the isize
// convention: negative on failure, never panics for a bad argument
// (spec.md section 7).
package svc

import (
	"fmt"

	"rvcore/apps"
	"rvcore/sched"
	"rvcore/trap"
)

// Apps is the boot-built app registry exec() looks names up in.
var Apps *apps.Registry

const (
	sysRead             = 63
	sysWrite            = 64
	sysExit             = 93
	sysSleep            = 101
	sysYield            = 124
	sysGetTime          = 169
	sysGetPid           = 172
	sysFork             = 220
	sysExec             = 221
	sysWaitpid          = 260
	sysThreadCreate     = 1000
	sysGetTid           = 1001
	sysWaitTid          = 1002
	sysMutexCreate      = 1010
	sysMutexLock        = 1011
	sysMutexUnlock      = 1012
	sysSemaphoreCreate  = 1020
	sysSemaphoreUp      = 1021
	sysSemaphoreDown    = 1022
	sysCondvarCreate    = 1030
	sysCondvarSignal    = 1031
	sysCondvarWait      = 1032
)

// Init installs this package's Dispatch as trap's syscall hook. Called
// once from cmd/kernel during boot.
func Init() {
	trap.SyscallHandler = Dispatch
}

// Dispatch is trap.SyscallHandler: it reads a7 and the three argument
// registers already marshaled by trap.Dispatch and returns the isize
// result trap.Dispatch writes back into a0.
func Dispatch(a7 int64, args [3]uint64, cx *trap.TrapContext) int64 {
	switch a7 {
	case sysRead:
		return sysReadImpl(args[0], args[1], args[2])
	case sysWrite:
		return sysWriteImpl(args[0], args[1], args[2])
	case sysExit:
		sched.ExitCurrentAndRunNext(int32(int64(args[0])))
		return 0
	case sysSleep:
		return sysSleepImpl(args[0])
	case sysYield:
		sched.SuspendCurrentAndRunNext()
		return 0
	case sysGetTime:
		return sysGetTimeImpl()
	case sysGetPid:
		return int64(sched.Current().Process.Pid)
	case sysFork:
		return sysForkImpl(cx)
	case sysExec:
		return sysExecImpl(cx, args[0], args[1])
	case sysWaitpid:
		return sysWaitpidImpl(int64(args[0]), args[1])
	case sysThreadCreate:
		return sysThreadCreateImpl(args[0], args[1])
	case sysGetTid:
		return int64(sched.Current().Res.Tid())
	case sysWaitTid:
		return sysWaitTidImpl(args[0])
	case sysMutexCreate:
		return sysMutexCreateImpl(args[0] != 0)
	case sysMutexLock:
		return sysMutexLockImpl(int(args[0]))
	case sysMutexUnlock:
		return sysMutexUnlockImpl(int(args[0]))
	case sysSemaphoreCreate:
		return sysSemaphoreCreateImpl(int64(args[0]))
	case sysSemaphoreUp:
		return sysSemaphoreUpImpl(int(args[0]))
	case sysSemaphoreDown:
		return sysSemaphoreDownImpl(int(args[0]))
	case sysCondvarCreate:
		return sysCondvarCreateImpl()
	case sysCondvarSignal:
		return sysCondvarSignalImpl(int(args[0]))
	case sysCondvarWait:
		return sysCondvarWaitImpl(int(args[0]), int(args[1]))
	default:
		panic(fmt.Sprintf("svc: unknown syscall id %d", a7))
	}
}

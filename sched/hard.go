//go:build riscv64

package sched

import "rvcore/proc"

// On real hardware trap.Switch is genuine assembly; there is no
// rendezvous to install and no goroutine to pre-spawn for a thread
// before it is first scheduled.
func installSwitchBackend() {}

func maybeSpawn(_ *proc.ThreadControlBlock) {}

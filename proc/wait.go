package proc

// Waitpid implements sys_waitpid (spec.md section 4.6): pid == -1
// matches any child. Returns (childPid, exitCode, status) where status
// is 0 on success, -1 if no child matches at all, -2 if a match exists
// but none is a zombie yet.
func Waitpid(parent *ProcessControlBlock, pid int64) (childPid int64, exitCode int32, status int32) {
	matchIdx := -1
	zombieIdx := -1
	for i, c := range parent.Children {
		if pid != -1 && int64(c.Pid) != pid {
			continue
		}
		matchIdx = i
		if c.Zombie {
			zombieIdx = i
			break
		}
	}
	if matchIdx == -1 {
		return 0, 0, -1
	}
	if zombieIdx == -1 {
		return 0, 0, -2
	}

	child := parent.Children[zombieIdx]
	parent.Children = append(parent.Children[:zombieIdx], parent.Children[zombieIdx+1:]...)
	return int64(child.Pid), child.ExitCode, 0
}

// Waittid implements sys_waittid (spec.md section 4.6): -1 if tid is
// the caller's own or out of range, -2 if that thread hasn't exited
// yet, else the exit code (and the slot is cleared so a second
// waittid on the same tid also returns -1).
func Waittid(p *ProcessControlBlock, callerTid, tid uint64) (code int32, status int32) {
	if tid == callerTid || int(tid) >= len(p.Tasks) || p.Tasks[tid] == nil {
		return 0, -1
	}
	t := p.Tasks[tid]
	if t.ExitCode == nil {
		return 0, -2
	}
	code = *t.ExitCode
	p.Tasks[tid] = nil
	return code, 0
}

package proc

import "testing"

func TestWaitpidNoChildMatches(t *testing.T) {
	parent := &ProcessControlBlock{Pid: 1}
	_, _, status := Waitpid(parent, -1)
	if status != -1 {
		t.Fatalf("status = %d, want -1 (no child)", status)
	}
}

func TestWaitpidChildNotYetZombie(t *testing.T) {
	parent := &ProcessControlBlock{Pid: 1}
	child := &ProcessControlBlock{Pid: 2}
	parent.Children = []*ProcessControlBlock{child}
	_, _, status := Waitpid(parent, -1)
	if status != -2 {
		t.Fatalf("status = %d, want -2 (child alive)", status)
	}
}

func TestWaitpidReapsZombieChildByPid(t *testing.T) {
	parent := &ProcessControlBlock{Pid: 1}
	child := &ProcessControlBlock{Pid: 2, Zombie: true, ExitCode: 7}
	sibling := &ProcessControlBlock{Pid: 3}
	parent.Children = []*ProcessControlBlock{sibling, child}

	pid, code, status := Waitpid(parent, 2)
	if status != 0 || pid != 2 || code != 7 {
		t.Fatalf("Waitpid = (%d,%d,%d), want (2,7,0)", pid, code, status)
	}
	if len(parent.Children) != 1 || parent.Children[0] != sibling {
		t.Fatal("expected only the reaped child removed from Children")
	}
}

func TestWaittidSelfOrOutOfRangeRejected(t *testing.T) {
	p := &ProcessControlBlock{Tasks: make([]*ThreadControlBlock, 2)}
	if _, status := Waittid(p, 0, 0); status != -1 {
		t.Fatalf("waittid(self) status = %d, want -1", status)
	}
	if _, status := Waittid(p, 0, 5); status != -1 {
		t.Fatalf("waittid(out of range) status = %d, want -1", status)
	}
}

func TestWaittidNotYetExited(t *testing.T) {
	p := &ProcessControlBlock{Tasks: []*ThreadControlBlock{{}, {}}}
	if _, status := Waittid(p, 0, 1); status != -2 {
		t.Fatalf("status = %d, want -2 (not exited)", status)
	}
}

func TestWaittidReturnsCodeAndClearsSlot(t *testing.T) {
	code := int32(9)
	p := &ProcessControlBlock{Tasks: []*ThreadControlBlock{{}, {ExitCode: &code}}}
	got, status := Waittid(p, 0, 1)
	if status != 0 || got != 9 {
		t.Fatalf("Waittid = (%d,%d), want (9,0)", got, status)
	}
	if p.Tasks[1] != nil {
		t.Fatal("expected slot cleared after waittid")
	}
}

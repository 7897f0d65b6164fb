package trap

import (
	"testing"

	"rvcore/defs"
)

func resetHooks() {
	SyscallHandler = nil
	ExitCurrentAndRunNext = nil
	SuspendCurrentAndRunNext = nil
	SetNextTrigger = nil
	CheckTimer = nil
}

func TestDispatchSyscallAdvancesSepcAndWritesA0(t *testing.T) {
	resetHooks()
	defer resetHooks()

	var gotA7 int64
	var gotArgs [3]uint64
	SyscallHandler = func(a7 int64, args [3]uint64, cx *TrapContext) int64 {
		gotA7, gotArgs = a7, args
		return 42
	}

	cx := NewAppInitContext(0x1000, 0x2000, 0, 0, 0)
	cx.Sepc = 0x1000
	cx.X[RegA7] = 64 // write
	cx.X[RegA0] = 1
	cx.X[RegA1] = 0xbeef
	cx.X[RegA2] = 8

	outcome := Dispatch(KindUserEnvCall, &cx)
	if outcome != OutcomeContinue {
		t.Fatalf("outcome = %v, want OutcomeContinue", outcome)
	}
	if cx.Sepc != 0x1004 {
		t.Fatalf("sepc = %#x, want advanced past ecall", cx.Sepc)
	}
	if gotA7 != 64 || gotArgs != [3]uint64{1, 0xbeef, 8} {
		t.Fatalf("handler args = %d %v", gotA7, gotArgs)
	}
	if cx.X[RegA0] != 42 {
		t.Fatalf("a0 = %d, want 42", cx.X[RegA0])
	}
}

func TestDispatchPageFaultExitsWithFaultCode(t *testing.T) {
	resetHooks()
	defer resetHooks()

	var gotCode int32
	ExitCurrentAndRunNext = func(code int32) { gotCode = code }

	cx := NewAppInitContext(0, 0, 0, 0, 0)
	outcome := Dispatch(KindStoreFault, &cx)
	if outcome != OutcomeExit {
		t.Fatalf("outcome = %v, want OutcomeExit", outcome)
	}
	if gotCode != int32(defs.ExitPageFault) {
		t.Fatalf("exit code = %d, want %d", gotCode, defs.ExitPageFault)
	}
}

func TestDispatchIllegalInstructionExits(t *testing.T) {
	resetHooks()
	defer resetHooks()

	var gotCode int32
	ExitCurrentAndRunNext = func(code int32) { gotCode = code }

	cx := NewAppInitContext(0, 0, 0, 0, 0)
	Dispatch(KindIllegalInstruction, &cx)
	if gotCode != int32(defs.ExitIllegal) {
		t.Fatalf("exit code = %d, want %d", gotCode, defs.ExitIllegal)
	}
}

func TestDispatchTimerRearmsChecksAndSuspends(t *testing.T) {
	resetHooks()
	defer resetHooks()

	var rearmed, checked, suspended bool
	SetNextTrigger = func() { rearmed = true }
	CheckTimer = func() { checked = true }
	SuspendCurrentAndRunNext = func() { suspended = true }

	cx := NewAppInitContext(0, 0, 0, 0, 0)
	outcome := Dispatch(KindSupervisorTimer, &cx)
	if outcome != OutcomeRescheduled {
		t.Fatalf("outcome = %v, want OutcomeRescheduled", outcome)
	}
	if !rearmed || !checked || !suspended {
		t.Fatalf("rearmed=%v checked=%v suspended=%v, want all true", rearmed, checked, suspended)
	}
}

func TestDispatchSyscallPanicsWithoutHandler(t *testing.T) {
	resetHooks()
	defer resetHooks()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when no syscall handler installed")
		}
	}()
	cx := NewAppInitContext(0, 0, 0, 0, 0)
	Dispatch(KindUserEnvCall, &cx)
}

//go:build riscv64

package sbi

// sbiCall issues an ecall to OpenSBI with the legacy v0.1 extension ids
// (sbi_riscv64.s): eid in a7, single argument in a0, return value in
// a0.
func sbiCall(eid, arg uint64) uint64

const (
	sbiSetTimer      = 0
	sbiConsolePutChar = 1
	sbiConsoleGetChar = 2
	sbiShutdown      = 8
)

func consolePutChar(b byte) { sbiCall(sbiConsolePutChar, uint64(b)) }

func consoleGetChar() uint32 { return uint32(sbiCall(sbiConsoleGetChar, 0)) }

func setTimer(absTime uint64) { sbiCall(sbiSetTimer, absTime) }

func shutdown(failure bool) {
	arg := uint64(0)
	if failure {
		arg = 1
	}
	sbiCall(sbiShutdown, arg)
	for {
	} // SBI shutdown never returns; spin in case it somehow does.
}

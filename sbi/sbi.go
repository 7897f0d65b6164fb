// Package sbi is the firmware boundary the core consumes and never
// implements itself (spec.md section 1, "Out of scope"):
// console_putchar, console_getchar, set_timer, shutdown. The riscv64
// backend issues real SBI ecalls; the software backend simulates a
// console over a real terminal using the same x/term raw-mode idiom
// smoynes-elsie's terminal glue uses.
package sbi

import (
	"rvcore/config"
	"rvcore/timer"
)

// ConsolePutChar writes one byte to the console.
func ConsolePutChar(b byte) { consolePutChar(b) }

// ConsoleGetChar returns the next pending byte, or 0 if none is
// available (spec.md section 6).
func ConsoleGetChar() uint32 { return consoleGetChar() }

// SetTimer programs the next timer interrupt for absTime ticks from
// boot.
func SetTimer(absTime uint64) { setTimer(absTime) }

// SetNextTrigger arms the timer one OS tick-period ahead of now
// (spec.md section 4.8). A tick period is config.ClockFreq /
// config.TicksPerSec raw `time` CSR counts, not a single raw count --
// arming one raw count ahead would fire near the hardware clock
// frequency instead of at TicksPerSec.
func SetNextTrigger() {
	SetTimer(timer.Ticks() + config.ClockFreq/uint64(config.TicksPerSec))
}

// Shutdown halts the machine. failure selects the SBI exit code.
func Shutdown(failure bool) { shutdown(failure) }

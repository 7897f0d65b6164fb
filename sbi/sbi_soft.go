//go:build !riscv64

package sbi

import (
	"fmt"
	"os"

	cterm "github.com/charmbracelet/x/term"
	"golang.org/x/term"
)

// The software backend simulates the console SBI calls over the host's
// real terminal: stdin is put into raw mode so byte-at-a-time
// console_getchar sees keystrokes immediately rather than line-buffered,
// the same interactive-raw-mode idiom smoynes-elsie's terminal glue
// uses for its simulated front panel.
var (
	rawFD      = int(os.Stdin.Fd())
	keypresses = make(chan byte, 256)
	restoreRaw func()
)

// init puts stdin in raw mode so console_getchar sees keystrokes
// byte-at-a-time instead of line-buffered, the same interactive
// raw-mode idiom smoynes-elsie's terminal glue uses. golang.org/x/term
// is tried first; github.com/charmbracelet/x/term is a fallback for
// terminals it fails to put in raw mode (e.g. some ConPTY setups), the
// same two-library split tinyrange-cc keeps for its own terminal glue.
func init() {
	if term.IsTerminal(rawFD) {
		if s, err := term.MakeRaw(rawFD); err == nil {
			restoreRaw = func() { term.Restore(rawFD, s) }
		} else if s, err := cterm.MakeRaw(uintptr(rawFD)); err == nil {
			restoreRaw = func() { cterm.Restore(uintptr(rawFD), s) }
		}
	}
	go pumpStdin()
}

func pumpStdin() {
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			keypresses <- buf[0]
		}
		if err != nil {
			return
		}
	}
}

func consolePutChar(b byte) {
	if b == '\n' {
		os.Stdout.Write([]byte{'\r', '\n'})
		return
	}
	os.Stdout.Write([]byte{b})
}

func consoleGetChar() uint32 {
	select {
	case b := <-keypresses:
		return uint32(b)
	default:
		return 0
	}
}

func setTimer(absTime uint64) {
	// No mtimecmp to program on this backend; timer.StartWallClock
	// drives the tick counter on its own schedule.
	_ = absTime
}

func shutdown(failure bool) {
	if restoreRaw != nil {
		restoreRaw()
	}
	status := 0
	if failure {
		status = 1
	}
	fmt.Println()
	os.Exit(status)
}

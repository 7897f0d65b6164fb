package vm

import "testing"

func TestFromELFRejectsGarbage(t *testing.T) {
	ms, _ := newTestMemSet(t)
	const trampolineVA = VirtAddr(0xFFFF_FFFF_FFFF_F000)
	_, _, err := FromELF(ms, trampolineVA, []byte("not an elf file"))
	if err == nil {
		t.Fatal("expected an error parsing garbage as ELF")
	}
}

// Cross-address-space pointer helpers used by syscalls to read/write
// user memory from kernel context, following biscuit's
// vm.Userdmap8_inner copy-in/copy-out conventions.
//
// Rather than casting a raw pointer, every walk is expressed as
// (token, va, layout) -> byte slices over the actual physical pages, so
// the translation is explicit and auditable (spec.md section 9).
package vm

import "rvcore/config"

// TranslateBuffer walks the user address space identified by token and
// returns the sequence of byte slices backing [ptr, ptr+n), split at
// page boundaries. Each slice aliases the real physical page.
func TranslateBuffer(token uint64, ram Ram, ptr uint64, n uint64) [][]byte {
	pt := FromToken(token, ram)
	start := ptr
	end := ptr + n
	var out [][]byte
	for start < end {
		startVA := VirtAddr(start)
		vpn := startVA.Floor()
		pte, ok := pt.Translate(vpn)
		if !ok {
			panic("vm: translate_buffer on unmapped page")
		}
		nextPageVA := VirtAddr((uint64(vpn) + 1) << config.PageSizeBits)
		sliceEnd := nextPageVA
		if uint64(sliceEnd) > end {
			sliceEnd = VirtAddr(end)
		}
		page := ram.Bytes(pte.PPN)
		out = append(out, page[startVA.PageOffset():pageEndOffset(sliceEnd)])
		start = uint64(sliceEnd)
	}
	return out
}

// pageEndOffset returns va's offset within its page, except when va
// lands exactly on the next page boundary, in which case it returns
// config.PageSize so a slice ending there reaches the page's last byte.
func pageEndOffset(va VirtAddr) uint64 {
	off := va.PageOffset()
	if off == 0 {
		return config.PageSize
	}
	return off
}

// TranslateStr walks byte-by-byte through the user address space
// starting at ptr until a NUL, returning the decoded string.
func TranslateStr(token uint64, ram Ram, ptr uint64) string {
	pt := FromToken(token, ram)
	var out []byte
	va := ptr
	for {
		pa, ok := pt.TranslateVA(VirtAddr(va))
		if !ok {
			panic("vm: translate_str on unmapped page")
		}
		b := ram.ReadAt(pa, 1)[0]
		if b == 0 {
			break
		}
		out = append(out, b)
		va++
	}
	return string(out)
}

// TranslateRefMutOffset translates the starting address of a value of
// byteLen bytes and returns the physical-memory slice backing it. The
// caller must guarantee the value does not straddle a page boundary
// (spec.md section 4.2).
func TranslateRefMutOffset(token uint64, ram Ram, ptr uint64, byteLen int) []byte {
	pt := FromToken(token, ram)
	pa, ok := pt.TranslateVA(VirtAddr(ptr))
	if !ok {
		panic("vm: translate_ref_mut on unmapped page")
	}
	return ram.ReadAt(pa, byteLen)
}

package player

import (
	"encoding/binary"
	"testing"

	"rezid/tune"
)

func driverTune(t *testing.T) *tune.Tune {
	t.Helper()
	img := makePSID(0x1000, 0x20, 1, beepTune(0x1000))
	tn, err := tune.Load("drv.sid", img)
	if err != nil {
		t.Fatal(err)
	}
	return tn
}

func TestDriverRelocation(t *testing.T) {
	tn := driverTune(t)

	noPages := func(page uint8) bool { return page <= 0x03 || page >= 0xd0 }

	// Relocating the same driver to two different pages yields images
	// that differ exactly in the relocated operands.
	d1 := &driver{tune: tn, song: 1, cpuFreq: 985248, rasterLines: 312}
	if !d1.relocate(func(p uint8) bool { return noPages(p) || p != 0x08 }) {
		t.Fatalf("relocation failed: %s", d1.errorString)
	}
	d2 := &driver{tune: tn, song: 1, cpuFreq: 985248, rasterLines: 312}
	if !d2.relocate(func(p uint8) bool { return noPages(p) || p != 0x09 }) {
		t.Fatalf("relocation failed: %s", d2.errorString)
	}

	if d1.addr != 0x0800 || d2.addr != 0x0900 {
		t.Fatalf("driver pages %#x/%#x, want 0x0800/0x0900", d1.addr, d2.addr)
	}
	if len(d1.image) != len(d2.image) {
		t.Fatal("relocated images differ in size")
	}

	// The first instruction is JMP cold; its operand must land inside
	// the respective page.
	if d1.image[0] != 0x4c {
		t.Fatalf("driver does not start with JMP: %#x", d1.image[0])
	}
	cold1 := binary.LittleEndian.Uint16(d1.image[1:])
	cold2 := binary.LittleEndian.Uint16(d2.image[1:])
	if cold1>>8 != 0x08 || cold2>>8 != 0x09 {
		t.Errorf("cold entries %#x/%#x not relocated into their pages", cold1, cold2)
	}
	if cold1&0xff != cold2&0xff {
		t.Error("relocation changed the in-page layout")
	}
}

func TestDriverHonorsRelocHint(t *testing.T) {
	img := makePSID(0x1000, 0x20, 0, beepTune(0x1000))
	img[120] = 0x20 // relocStartPage
	img[121] = 0x01 // relocPages

	tn, err := tune.Load("hint.sid", img)
	if err != nil {
		t.Fatal(err)
	}

	d := &driver{tune: tn, song: 1, cpuFreq: 985248, rasterLines: 312}
	if !d.relocate(func(page uint8) bool { return page != 0x20 }) {
		t.Fatalf("relocation failed: %s", d.errorString)
	}
	if d.addr != 0x2000 {
		t.Errorf("driver at %#x, want the hinted page 0x2000", d.addr)
	}
}

func TestDriverNoFreePage(t *testing.T) {
	tn := driverTune(t)

	d := &driver{tune: tn, song: 1, cpuFreq: 985248, rasterLines: 312}
	if d.relocate(func(page uint8) bool { return true }) {
		t.Fatal("relocation succeeded with no free page")
	}
	if d.errorString == "" {
		t.Error("no error message for failed install")
	}
}

func TestO65RoundTrip(t *testing.T) {
	// A text segment with one absolute self-reference at offset 1.
	text := []byte{0x4c, 0x03, 0x00, 0x60} // JMP $0003; RTS
	image := makeO65(text, 0, []int{1})

	var r reloc65
	r.setTextReloc(0x3000)
	seg, ok := r.reloc(image)
	if !ok {
		t.Fatal("relocation failed")
	}
	if got := binary.LittleEndian.Uint16(seg[1:]); got != 0x3003 {
		t.Errorf("relocated operand = %#x, want 0x3003", got)
	}
}

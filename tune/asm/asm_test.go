package asm

import (
	"bytes"
	"testing"
)

func TestLabelsAndBranches(t *testing.T) {
	a := New(0x1000)

	a.Label("start")
	a.LDAimm(0x01) // 1000: A9 01
	a.BEQ("skip")  // 1002: F0 02
	a.LDAimm(0x02) // 1004: A9 02
	a.Label("skip")
	a.JMP("start") // 1006: 4C 00 10

	got := a.Assemble()
	want := []byte{0xa9, 0x01, 0xf0, 0x02, 0xa9, 0x02, 0x4c, 0x00, 0x10}
	if !bytes.Equal(got, want) {
		t.Errorf("assembled % x, want % x", got, want)
	}
}

func TestBackwardBranch(t *testing.T) {
	a := New(0x2000)

	a.Label("loop")
	a.DEX()        // 2000: CA
	a.BNE("loop")  // 2001: D0 FD
	a.RTS()

	got := a.Assemble()
	want := []byte{0xca, 0xd0, 0xfd, 0x60}
	if !bytes.Equal(got, want) {
		t.Errorf("assembled % x, want % x", got, want)
	}
}

func TestRelocsRecorded(t *testing.T) {
	a := New(0)
	a.JMP("end") // operand at offset 1
	a.Label("end")
	a.RTS()

	a.Assemble()
	relocs := a.Relocs()
	if len(relocs) != 1 || relocs[0] != 1 {
		t.Errorf("relocs = %v, want [1]", relocs)
	}
}

func TestUndefinedLabelPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("no panic on undefined label")
		}
	}()

	a := New(0)
	a.JMP("nowhere")
	a.Assemble()
}

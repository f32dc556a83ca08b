// Package asm is a minimal 6502 code emitter with labels, used to build
// the small machine-language routines the player injects into C64
// memory (the PSID driver and the Sidplayer interpreter).
package asm

import "fmt"

// Assembler accumulates code at a fixed origin. Forward references are
// resolved by Assemble.
type Assembler struct {
	org uint16
	buf []byte

	labels map[string]uint16

	// Unresolved references: offset in buf -> label, kind.
	fixups []fixup

	// Offsets (into buf) of absolute address operands that point inside
	// the code itself and must be adjusted if it is relocated.
	relocs []int
}

type fixupKind int

const (
	fixAbs fixupKind = iota // 16-bit absolute
	fixRel                  // 8-bit branch displacement
	fixLo                   // low byte
	fixHi                   // high byte
)

type fixup struct {
	off   int
	label string
	kind  fixupKind
}

func New(org uint16) *Assembler {
	return &Assembler{org: org, labels: map[string]uint16{}}
}

// Origin returns the assembly origin.
func (a *Assembler) Origin() uint16 { return a.org }

// PC returns the address of the next emitted byte.
func (a *Assembler) PC() uint16 { return a.org + uint16(len(a.buf)) }

// Label defines name at the current position.
func (a *Assembler) Label(name string) {
	if _, dup := a.labels[name]; dup {
		panic(fmt.Sprintf("asm: duplicate label %q", name))
	}
	a.labels[name] = a.PC()
}

func (a *Assembler) db(b ...byte) { a.buf = append(a.buf, b...) }

// Byte emits raw data bytes.
func (a *Assembler) Byte(b ...byte) { a.db(b...) }

// Word emits a 16-bit little-endian value.
func (a *Assembler) Word(v uint16) { a.db(byte(v), byte(v>>8)) }

func (a *Assembler) abs(label string) {
	a.fixups = append(a.fixups, fixup{off: len(a.buf), label: label, kind: fixAbs})
	a.relocs = append(a.relocs, len(a.buf))
	a.db(0, 0)
}

func (a *Assembler) rel(label string) {
	a.fixups = append(a.fixups, fixup{off: len(a.buf), label: label, kind: fixRel})
	a.db(0)
}

/* immediate and zero-page forms */

func (a *Assembler) LDAimm(v byte) { a.db(0xa9, v) }
func (a *Assembler) LDXimm(v byte) { a.db(0xa2, v) }
func (a *Assembler) LDYimm(v byte) { a.db(0xa0, v) }
func (a *Assembler) CMPimm(v byte) { a.db(0xc9, v) }
func (a *Assembler) CPXimm(v byte) { a.db(0xe0, v) }
func (a *Assembler) ADCimm(v byte) { a.db(0x69, v) }
func (a *Assembler) SBCimm(v byte) { a.db(0xe9, v) }
func (a *Assembler) ANDimm(v byte) { a.db(0x29, v) }
func (a *Assembler) ORAimm(v byte) { a.db(0x09, v) }

func (a *Assembler) LDAzp(zp byte) { a.db(0xa5, zp) }
func (a *Assembler) STAzp(zp byte) { a.db(0x85, zp) }
func (a *Assembler) STXzp(zp byte) { a.db(0x86, zp) }
func (a *Assembler) STYzp(zp byte) { a.db(0x84, zp) }
func (a *Assembler) ADCzp(zp byte) { a.db(0x65, zp) }
func (a *Assembler) DECzp(zp byte) { a.db(0xc6, zp) }
func (a *Assembler) INCzp(zp byte) { a.db(0xe6, zp) }
func (a *Assembler) LDAindY(zp byte) { a.db(0xb1, zp) }

/* absolute forms, fixed address */

func (a *Assembler) LDAabs(addr uint16) { a.db(0xad); a.Word(addr) }
func (a *Assembler) STAabs(addr uint16) { a.db(0x8d); a.Word(addr) }
func (a *Assembler) STAabsX(addr uint16) { a.db(0x9d); a.Word(addr) }
func (a *Assembler) STAabsY(addr uint16) { a.db(0x99); a.Word(addr) }
func (a *Assembler) LDAabsY(addr uint16) { a.db(0xb9); a.Word(addr) }
func (a *Assembler) INCabs(addr uint16) { a.db(0xee); a.Word(addr) }
func (a *Assembler) ADCabs(addr uint16) { a.db(0x6d); a.Word(addr) }
func (a *Assembler) BITabs(addr uint16) { a.db(0x2c); a.Word(addr) }

/* absolute forms, label targets inside the routine */

func (a *Assembler) JMP(label string)    { a.db(0x4c); a.abs(label) }
func (a *Assembler) JSR(label string)    { a.db(0x20); a.abs(label) }
func (a *Assembler) JMPabs(addr uint16)  { a.db(0x4c); a.Word(addr) }
func (a *Assembler) JSRabs(addr uint16)  { a.db(0x20); a.Word(addr) }
func (a *Assembler) LDAabsL(label string) { a.db(0xad); a.abs(label) }
func (a *Assembler) STAabsL(label string) { a.db(0x8d); a.abs(label) }
func (a *Assembler) LDAabsXL(label string) { a.db(0xbd); a.abs(label) }

/* branches */

func (a *Assembler) BEQ(label string) { a.db(0xf0); a.rel(label) }
func (a *Assembler) BNE(label string) { a.db(0xd0); a.rel(label) }
func (a *Assembler) BCC(label string) { a.db(0x90); a.rel(label) }
func (a *Assembler) BCS(label string) { a.db(0xb0); a.rel(label) }
func (a *Assembler) BPL(label string) { a.db(0x10); a.rel(label) }
func (a *Assembler) BMI(label string) { a.db(0x30); a.rel(label) }

/* implied */

func (a *Assembler) SEI() { a.db(0x78) }
func (a *Assembler) CLI() { a.db(0x58) }
func (a *Assembler) CLC() { a.db(0x18) }
func (a *Assembler) SEC() { a.db(0x38) }
func (a *Assembler) CLD() { a.db(0xd8) }
func (a *Assembler) RTS() { a.db(0x60) }
func (a *Assembler) RTI() { a.db(0x40) }
func (a *Assembler) PHA() { a.db(0x48) }
func (a *Assembler) PLA() { a.db(0x68) }
func (a *Assembler) TXA() { a.db(0x8a) }
func (a *Assembler) TAX() { a.db(0xaa) }
func (a *Assembler) TYA() { a.db(0x98) }
func (a *Assembler) TAY() { a.db(0xa8) }
func (a *Assembler) INX() { a.db(0xe8) }
func (a *Assembler) INY() { a.db(0xc8) }
func (a *Assembler) DEX() { a.db(0xca) }
func (a *Assembler) DEY() { a.db(0x88) }
func (a *Assembler) TXS() { a.db(0x9a) }
func (a *Assembler) ASLa() { a.db(0x0a) }
func (a *Assembler) LSRa() { a.db(0x4a) }
func (a *Assembler) NOP() { a.db(0xea) }

// Assemble resolves all references and returns the code image. It
// panics on undefined labels or out-of-range branches: the routines
// built with this are compiled into the binary, so failures are
// programming errors, not input errors.
func (a *Assembler) Assemble() []byte {
	for _, f := range a.fixups {
		target, ok := a.labels[f.label]
		if !ok {
			panic(fmt.Sprintf("asm: undefined label %q", f.label))
		}
		switch f.kind {
		case fixAbs:
			a.buf[f.off] = byte(target)
			a.buf[f.off+1] = byte(target >> 8)
		case fixRel:
			disp := int(target) - int(a.org) - (f.off + 1)
			if disp < -128 || disp > 127 {
				panic(fmt.Sprintf("asm: branch to %q out of range (%d)", f.label, disp))
			}
			a.buf[f.off] = byte(disp)
		case fixLo:
			a.buf[f.off] = byte(target)
		case fixHi:
			a.buf[f.off] = byte(target >> 8)
		}
	}
	return a.buf
}

// Relocs returns the buffer offsets of 16-bit absolute operands that
// reference addresses inside the routine; an o65 writer turns these
// into relocation entries.
func (a *Assembler) Relocs() []int { return a.relocs }

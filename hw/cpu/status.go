package cpu

import "strings"

// P is the 6510 status register.
type P uint8

const (
	pC P = 1 << iota // carry
	pZ               // zero
	pI               // interrupt disable
	pD               // decimal mode
	pB               // break (only exists on the stack)
	pU               // unused, reads as 1
	pV               // overflow
	pN               // negative
)

func (p P) Carry() bool      { return p&pC != 0 }
func (p P) Zero() bool       { return p&pZ != 0 }
func (p P) IntDisable() bool { return p&pI != 0 }
func (p P) Decimal() bool    { return p&pD != 0 }
func (p P) Overflow() bool   { return p&pV != 0 }
func (p P) Negative() bool   { return p&pN != 0 }

func (p *P) set(flag P, on bool) {
	if on {
		*p |= flag
	} else {
		*p &^= flag
	}
}

func (p *P) SetCarry(on bool)      { p.set(pC, on) }
func (p *P) SetZero(on bool)       { p.set(pZ, on) }
func (p *P) SetIntDisable(on bool) { p.set(pI, on) }
func (p *P) SetDecimal(on bool)    { p.set(pD, on) }
func (p *P) SetBreak(on bool)      { p.set(pB, on) }
func (p *P) SetUnused(on bool)     { p.set(pU, on) }
func (p *P) SetOverflow(on bool)   { p.set(pV, on) }
func (p *P) SetNegative(on bool)   { p.set(pN, on) }

// checkNZ sets the negative and zero flags from a result byte.
func (p *P) checkNZ(v uint8) {
	p.set(pZ, v == 0)
	p.set(pN, v&0x80 != 0)
}

func (p P) String() string {
	var sb strings.Builder
	glyphs := "nvubdizc"
	for i := 7; i >= 0; i-- {
		g := glyphs[7-i]
		if p&(1<<i) != 0 {
			g -= 'a' - 'A'
		}
		sb.WriteByte(g)
	}
	return sb.String()
}

package cpu

// Addressing helpers. Each performs the exact memory cycles of the
// hardware, including the dummy accesses on index carries; read forms
// take the page-cross penalty only when the carry actually happens,
// store and read-modify-write forms always perform the extra access.

func (c *CPU) fetch() uint8 {
	v := c.Read8(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch()
	hi := c.fetch()
	return uint16(hi)<<8 | uint16(lo)
}

// impl performs the dummy operand read of implied/accumulator opcodes.
func (c *CPU) impl() {
	c.Read8(c.PC)
}

func (c *CPU) amZp() uint16 { return uint16(c.fetch()) }

func (c *CPU) amZpIdx(idx uint8) uint16 {
	base := c.fetch()
	c.Read8(uint16(base)) // dummy read while the index is added
	return uint16(base + idx)
}

func (c *CPU) amAbs() uint16 { return c.fetch16() }

func (c *CPU) amAbsIdxRead(idx uint8) uint16 {
	base := c.fetch16()
	addr := base + uint16(idx)
	if base&0xff00 != addr&0xff00 {
		// Dummy read at the un-carried address.
		c.Read8(addr - 0x100)
	}
	return addr
}

func (c *CPU) amAbsIdxWrite(idx uint8) uint16 {
	base := c.fetch16()
	addr := base + uint16(idx)
	c.Read8(addr&0x00ff | base&0xff00)
	return addr
}

func (c *CPU) amIndX() uint16 {
	ptr := c.fetch()
	c.Read8(uint16(ptr)) // dummy read while X is added
	ptr += c.X
	lo := c.Read8(uint16(ptr))
	hi := c.Read8(uint16(ptr + 1))
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) amIndYRead() uint16 {
	ptr := c.fetch()
	lo := c.Read8(uint16(ptr))
	hi := c.Read8(uint16(ptr + 1))
	base := uint16(hi)<<8 | uint16(lo)
	addr := base + uint16(c.Y)
	if base&0xff00 != addr&0xff00 {
		c.Read8(addr - 0x100)
	}
	return addr
}

func (c *CPU) amIndYWrite() uint16 {
	ptr := c.fetch()
	lo := c.Read8(uint16(ptr))
	hi := c.Read8(uint16(ptr + 1))
	base := uint16(hi)<<8 | uint16(lo)
	addr := base + uint16(c.Y)
	c.Read8(addr&0x00ff | base&0xff00)
	return addr
}

// rmw performs the modify part of a read-modify-write instruction: the
// old value is written back while the ALU works, then the result.
func (c *CPU) rmw(addr uint16, f func(uint8) uint8) uint8 {
	v := c.Read8(addr)
	c.Write8(addr, v)
	v = f(v)
	c.Write8(addr, v)
	return v
}

// branch executes a relative branch: 2 cycles not taken, 3 taken, 4 on
// page crossing.
func (c *CPU) branch(cond bool) {
	off := int8(c.fetch())
	if !cond {
		return
	}
	c.Read8(c.PC)
	dest := c.PC + uint16(int16(off))
	if dest&0xff00 != c.PC&0xff00 {
		c.Read8(c.PC&0xff00 | dest&0x00ff)
	}
	c.PC = dest
}

/* arithmetic and logic */

func (c *CPU) ora(v uint8) { c.A |= v; c.P.checkNZ(c.A) }
func (c *CPU) and(v uint8) { c.A &= v; c.P.checkNZ(c.A) }
func (c *CPU) eor(v uint8) { c.A ^= v; c.P.checkNZ(c.A) }

// adc follows the documented 6502 decimal behavior, including the
// undefined N/V results on invalid BCD inputs.
func (c *CPU) adc(v uint8) {
	carry := uint16(0)
	if c.P.Carry() {
		carry = 1
	}

	if c.P.Decimal() {
		lo := uint16(c.A&0x0f) + uint16(v&0x0f) + carry
		if lo > 9 {
			lo += 6
		}
		hi := uint16(c.A>>4) + uint16(v>>4)
		if lo > 0x0f {
			hi++
		}

		bin := uint16(c.A) + uint16(v) + carry
		c.P.SetZero(bin&0xff == 0)
		c.P.SetNegative(hi&0x08 != 0)
		c.P.SetOverflow((uint8(hi<<4)^c.A)&0x80 != 0 && (c.A^v)&0x80 == 0)

		if hi > 9 {
			hi += 6
		}
		c.P.SetCarry(hi > 0x0f)
		c.A = uint8(hi<<4) | uint8(lo&0x0f)
	} else {
		sum := uint16(c.A) + uint16(v) + carry
		c.P.SetCarry(sum > 0xff)
		c.P.SetOverflow((c.A^uint8(sum))&(v^uint8(sum))&0x80 != 0)
		c.A = uint8(sum)
		c.P.checkNZ(c.A)
	}
}

func (c *CPU) sbc(v uint8) {
	borrow := uint16(1)
	if c.P.Carry() {
		borrow = 0
	}

	bin := uint16(c.A) - uint16(v) - borrow

	if c.P.Decimal() {
		lo := uint16(c.A&0x0f) - uint16(v&0x0f) - borrow
		var res uint16
		if lo&0x10 != 0 {
			res = (lo-6)&0x0f | (uint16(c.A&0xf0) - uint16(v&0xf0) - 0x10)
		} else {
			res = lo&0x0f | (uint16(c.A&0xf0) - uint16(v&0xf0))
		}
		if res&0x100 != 0 {
			res -= 0x60
		}

		c.P.SetCarry(bin < 0x100)
		c.P.SetOverflow((c.A^uint8(bin))&0x80 != 0 && (c.A^v)&0x80 != 0)
		c.P.checkNZ(uint8(bin))
		c.A = uint8(res)
	} else {
		c.P.SetCarry(bin < 0x100)
		c.P.SetOverflow((c.A^uint8(bin))&0x80 != 0 && (c.A^v)&0x80 != 0)
		c.A = uint8(bin)
		c.P.checkNZ(c.A)
	}
}

func (c *CPU) compare(reg, v uint8) {
	c.P.SetCarry(reg >= v)
	c.P.checkNZ(reg - v)
}

func (c *CPU) bit(v uint8) {
	c.P.SetZero(c.A&v == 0)
	c.P.SetOverflow(v&0x40 != 0)
	c.P.SetNegative(v&0x80 != 0)
}

/* shifts */

func (c *CPU) asl(v uint8) uint8 {
	c.P.SetCarry(v&0x80 != 0)
	v <<= 1
	c.P.checkNZ(v)
	return v
}

func (c *CPU) lsr(v uint8) uint8 {
	c.P.SetCarry(v&0x01 != 0)
	v >>= 1
	c.P.checkNZ(v)
	return v
}

func (c *CPU) rol(v uint8) uint8 {
	carry := v & 0x80
	v <<= 1
	if c.P.Carry() {
		v |= 0x01
	}
	c.P.SetCarry(carry != 0)
	c.P.checkNZ(v)
	return v
}

func (c *CPU) ror(v uint8) uint8 {
	carry := v & 0x01
	v >>= 1
	if c.P.Carry() {
		v |= 0x80
	}
	c.P.SetCarry(carry != 0)
	c.P.checkNZ(v)
	return v
}

func (c *CPU) inc(v uint8) uint8 { v++; c.P.checkNZ(v); return v }
func (c *CPU) dec(v uint8) uint8 { v--; c.P.checkNZ(v); return v }

/* undocumented operations */

func (c *CPU) slo(v uint8) uint8 { v = c.asl(v); c.ora(v); return v }
func (c *CPU) rla(v uint8) uint8 { v = c.rol(v); c.and(v); return v }
func (c *CPU) sre(v uint8) uint8 { v = c.lsr(v); c.eor(v); return v }
func (c *CPU) rra(v uint8) uint8 { v = c.ror(v); c.adc(v); return v }
func (c *CPU) dcp(v uint8) uint8 { v--; c.compare(c.A, v); return v }
func (c *CPU) isc(v uint8) uint8 { v++; c.sbc(v); return v }

func (c *CPU) lax(v uint8) {
	c.A = v
	c.X = v
	c.P.checkNZ(v)
}

func (c *CPU) anc(v uint8) {
	c.A &= v
	c.P.checkNZ(c.A)
	c.P.SetCarry(c.A&0x80 != 0)
}

func (c *CPU) alr(v uint8) {
	c.A &= v
	c.P.SetCarry(c.A&0x01 != 0)
	c.A >>= 1
	c.P.checkNZ(c.A)
}

func (c *CPU) arr(v uint8) {
	t := c.A & v
	res := t >> 1
	if c.P.Carry() {
		res |= 0x80
	}

	if c.P.Decimal() {
		// Decimal mode fixups measured on hardware.
		c.P.SetNegative(c.P.Carry())
		c.P.SetZero(res == 0)
		c.P.SetOverflow((res^t)&0x40 != 0)

		if t&0x0f+t&0x01 > 5 {
			res = res&0xf0 | (res+6)&0x0f
		}
		c.P.SetCarry(uint16(t&0xf0)+uint16(t&0x10) > 0x50)
		if c.P.Carry() {
			res += 0x60
		}
		c.A = res
	} else {
		c.A = res
		c.P.checkNZ(c.A)
		c.P.SetCarry(res&0x40 != 0)
		c.P.SetOverflow((res>>6^res>>5)&0x01 != 0)
	}
}

func (c *CPU) sbx(v uint8) {
	t := c.A & c.X
	c.P.SetCarry(t >= v)
	c.X = t - v
	c.P.checkNZ(c.X)
}

func (c *CPU) las(v uint8) {
	t := v & c.SP
	c.A = t
	c.X = t
	c.SP = t
	c.P.checkNZ(t)
}

// ane/xaa is unstable on real silicon; the usual magic constant
// reproduces the behavior of most chips at room temperature.
func (c *CPU) ane(v uint8) {
	c.A = (c.A | 0xee) & c.X & v
	c.P.checkNZ(c.A)
}

// shaLike implements the SHA/SHX/SHY family store: value AND high byte
// of the target address plus one. The page-cross corruption of the high
// byte is reproduced.
func (c *CPU) shaLike(reg uint8, idx uint8) {
	base := c.fetch16()
	addr := base + uint16(idx)
	c.Read8(addr&0x00ff | base&0xff00)

	v := reg & (uint8(base>>8) + 1)
	if base&0xff00 != addr&0xff00 {
		addr = addr&0x00ff | uint16(v)<<8
	}
	c.Write8(addr, v)
}

/* instruction dispatch table */

var ops = [256]func(*CPU){
	0x00: brk,
	0x01: func(c *CPU) { c.ora(c.Read8(c.amIndX())) },
	0x02: jam, 0x12: jam, 0x22: jam, 0x32: jam, 0x42: jam, 0x52: jam,
	0x62: jam, 0x72: jam, 0x92: jam, 0xb2: jam, 0xd2: jam, 0xf2: jam,
	0x03: func(c *CPU) { c.rmw(c.amIndX(), c.slo) },
	0x04: func(c *CPU) { c.Read8(c.amZp()) }, // NOP zp
	0x05: func(c *CPU) { c.ora(c.Read8(c.amZp())) },
	0x06: func(c *CPU) { c.rmw(c.amZp(), c.asl) },
	0x07: func(c *CPU) { c.rmw(c.amZp(), c.slo) },
	0x08: func(c *CPU) { c.impl(); p := c.P; p.SetBreak(true); p.SetUnused(true); c.push8(uint8(p)) },
	0x09: func(c *CPU) { c.ora(c.fetch()) },
	0x0a: func(c *CPU) { c.impl(); c.A = c.asl(c.A) },
	0x0b: func(c *CPU) { c.anc(c.fetch()) },
	0x0c: func(c *CPU) { c.Read8(c.amAbs()) }, // NOP abs
	0x0d: func(c *CPU) { c.ora(c.Read8(c.amAbs())) },
	0x0e: func(c *CPU) { c.rmw(c.amAbs(), c.asl) },
	0x0f: func(c *CPU) { c.rmw(c.amAbs(), c.slo) },
	0x10: func(c *CPU) { c.branch(!c.P.Negative()) },
	0x11: func(c *CPU) { c.ora(c.Read8(c.amIndYRead())) },
	0x13: func(c *CPU) { c.rmw(c.amIndYWrite(), c.slo) },
	0x14: func(c *CPU) { c.Read8(c.amZpIdx(c.X)) }, // NOP zp,x
	0x15: func(c *CPU) { c.ora(c.Read8(c.amZpIdx(c.X))) },
	0x16: func(c *CPU) { c.rmw(c.amZpIdx(c.X), c.asl) },
	0x17: func(c *CPU) { c.rmw(c.amZpIdx(c.X), c.slo) },
	0x18: func(c *CPU) { c.impl(); c.P.SetCarry(false) },
	0x19: func(c *CPU) { c.ora(c.Read8(c.amAbsIdxRead(c.Y))) },
	0x1a: func(c *CPU) { c.impl() }, // NOP
	0x1b: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.Y), c.slo) },
	0x1c: func(c *CPU) { c.Read8(c.amAbsIdxRead(c.X)) }, // NOP abs,x
	0x1d: func(c *CPU) { c.ora(c.Read8(c.amAbsIdxRead(c.X))) },
	0x1e: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.X), c.asl) },
	0x1f: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.X), c.slo) },

	0x20: jsr,
	0x21: func(c *CPU) { c.and(c.Read8(c.amIndX())) },
	0x23: func(c *CPU) { c.rmw(c.amIndX(), c.rla) },
	0x24: func(c *CPU) { c.bit(c.Read8(c.amZp())) },
	0x25: func(c *CPU) { c.and(c.Read8(c.amZp())) },
	0x26: func(c *CPU) { c.rmw(c.amZp(), c.rol) },
	0x27: func(c *CPU) { c.rmw(c.amZp(), c.rla) },
	0x28: func(c *CPU) { c.impl(); c.Read8(0x0100 + uint16(c.SP)); c.plp() },
	0x29: func(c *CPU) { c.and(c.fetch()) },
	0x2a: func(c *CPU) { c.impl(); c.A = c.rol(c.A) },
	0x2b: func(c *CPU) { c.anc(c.fetch()) },
	0x2c: func(c *CPU) { c.bit(c.Read8(c.amAbs())) },
	0x2d: func(c *CPU) { c.and(c.Read8(c.amAbs())) },
	0x2e: func(c *CPU) { c.rmw(c.amAbs(), c.rol) },
	0x2f: func(c *CPU) { c.rmw(c.amAbs(), c.rla) },
	0x30: func(c *CPU) { c.branch(c.P.Negative()) },
	0x31: func(c *CPU) { c.and(c.Read8(c.amIndYRead())) },
	0x33: func(c *CPU) { c.rmw(c.amIndYWrite(), c.rla) },
	0x34: func(c *CPU) { c.Read8(c.amZpIdx(c.X)) },
	0x35: func(c *CPU) { c.and(c.Read8(c.amZpIdx(c.X))) },
	0x36: func(c *CPU) { c.rmw(c.amZpIdx(c.X), c.rol) },
	0x37: func(c *CPU) { c.rmw(c.amZpIdx(c.X), c.rla) },
	0x38: func(c *CPU) { c.impl(); c.P.SetCarry(true) },
	0x39: func(c *CPU) { c.and(c.Read8(c.amAbsIdxRead(c.Y))) },
	0x3a: func(c *CPU) { c.impl() },
	0x3b: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.Y), c.rla) },
	0x3c: func(c *CPU) { c.Read8(c.amAbsIdxRead(c.X)) },
	0x3d: func(c *CPU) { c.and(c.Read8(c.amAbsIdxRead(c.X))) },
	0x3e: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.X), c.rol) },
	0x3f: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.X), c.rla) },

	0x40: rti,
	0x41: func(c *CPU) { c.eor(c.Read8(c.amIndX())) },
	0x43: func(c *CPU) { c.rmw(c.amIndX(), c.sre) },
	0x44: func(c *CPU) { c.Read8(c.amZp()) },
	0x45: func(c *CPU) { c.eor(c.Read8(c.amZp())) },
	0x46: func(c *CPU) { c.rmw(c.amZp(), c.lsr) },
	0x47: func(c *CPU) { c.rmw(c.amZp(), c.sre) },
	0x48: func(c *CPU) { c.impl(); c.push8(c.A) },
	0x49: func(c *CPU) { c.eor(c.fetch()) },
	0x4a: func(c *CPU) { c.impl(); c.A = c.lsr(c.A) },
	0x4b: func(c *CPU) { c.alr(c.fetch()) },
	0x4c: func(c *CPU) { c.PC = c.amAbs() },
	0x4d: func(c *CPU) { c.eor(c.Read8(c.amAbs())) },
	0x4e: func(c *CPU) { c.rmw(c.amAbs(), c.lsr) },
	0x4f: func(c *CPU) { c.rmw(c.amAbs(), c.sre) },
	0x50: func(c *CPU) { c.branch(!c.P.Overflow()) },
	0x51: func(c *CPU) { c.eor(c.Read8(c.amIndYRead())) },
	0x53: func(c *CPU) { c.rmw(c.amIndYWrite(), c.sre) },
	0x54: func(c *CPU) { c.Read8(c.amZpIdx(c.X)) },
	0x55: func(c *CPU) { c.eor(c.Read8(c.amZpIdx(c.X))) },
	0x56: func(c *CPU) { c.rmw(c.amZpIdx(c.X), c.lsr) },
	0x57: func(c *CPU) { c.rmw(c.amZpIdx(c.X), c.sre) },
	0x58: func(c *CPU) { c.impl(); c.P.SetIntDisable(false) },
	0x59: func(c *CPU) { c.eor(c.Read8(c.amAbsIdxRead(c.Y))) },
	0x5a: func(c *CPU) { c.impl() },
	0x5b: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.Y), c.sre) },
	0x5c: func(c *CPU) { c.Read8(c.amAbsIdxRead(c.X)) },
	0x5d: func(c *CPU) { c.eor(c.Read8(c.amAbsIdxRead(c.X))) },
	0x5e: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.X), c.lsr) },
	0x5f: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.X), c.sre) },

	0x60: rts,
	0x61: func(c *CPU) { c.adc(c.Read8(c.amIndX())) },
	0x63: func(c *CPU) { c.rmw(c.amIndX(), c.rra) },
	0x64: func(c *CPU) { c.Read8(c.amZp()) },
	0x65: func(c *CPU) { c.adc(c.Read8(c.amZp())) },
	0x66: func(c *CPU) { c.rmw(c.amZp(), c.ror) },
	0x67: func(c *CPU) { c.rmw(c.amZp(), c.rra) },
	0x68: func(c *CPU) { c.impl(); c.Read8(0x0100 + uint16(c.SP)); c.A = c.pull8(); c.P.checkNZ(c.A) },
	0x69: func(c *CPU) { c.adc(c.fetch()) },
	0x6a: func(c *CPU) { c.impl(); c.A = c.ror(c.A) },
	0x6b: func(c *CPU) { c.arr(c.fetch()) },
	0x6c: jmpInd,
	0x6d: func(c *CPU) { c.adc(c.Read8(c.amAbs())) },
	0x6e: func(c *CPU) { c.rmw(c.amAbs(), c.ror) },
	0x6f: func(c *CPU) { c.rmw(c.amAbs(), c.rra) },
	0x70: func(c *CPU) { c.branch(c.P.Overflow()) },
	0x71: func(c *CPU) { c.adc(c.Read8(c.amIndYRead())) },
	0x73: func(c *CPU) { c.rmw(c.amIndYWrite(), c.rra) },
	0x74: func(c *CPU) { c.Read8(c.amZpIdx(c.X)) },
	0x75: func(c *CPU) { c.adc(c.Read8(c.amZpIdx(c.X))) },
	0x76: func(c *CPU) { c.rmw(c.amZpIdx(c.X), c.ror) },
	0x77: func(c *CPU) { c.rmw(c.amZpIdx(c.X), c.rra) },
	0x78: func(c *CPU) { c.impl(); c.P.SetIntDisable(true) },
	0x79: func(c *CPU) { c.adc(c.Read8(c.amAbsIdxRead(c.Y))) },
	0x7a: func(c *CPU) { c.impl() },
	0x7b: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.Y), c.rra) },
	0x7c: func(c *CPU) { c.Read8(c.amAbsIdxRead(c.X)) },
	0x7d: func(c *CPU) { c.adc(c.Read8(c.amAbsIdxRead(c.X))) },
	0x7e: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.X), c.ror) },
	0x7f: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.X), c.rra) },

	0x80: func(c *CPU) { c.fetch() }, // NOP #imm
	0x81: func(c *CPU) { c.Write8(c.amIndX(), c.A) },
	0x82: func(c *CPU) { c.fetch() },
	0x83: func(c *CPU) { c.Write8(c.amIndX(), c.A&c.X) },
	0x84: func(c *CPU) { c.Write8(c.amZp(), c.Y) },
	0x85: func(c *CPU) { c.Write8(c.amZp(), c.A) },
	0x86: func(c *CPU) { c.Write8(c.amZp(), c.X) },
	0x87: func(c *CPU) { c.Write8(c.amZp(), c.A&c.X) },
	0x88: func(c *CPU) { c.impl(); c.Y = c.dec(c.Y) },
	0x89: func(c *CPU) { c.fetch() },
	0x8a: func(c *CPU) { c.impl(); c.A = c.X; c.P.checkNZ(c.A) },
	0x8b: func(c *CPU) { c.ane(c.fetch()) },
	0x8c: func(c *CPU) { c.Write8(c.amAbs(), c.Y) },
	0x8d: func(c *CPU) { c.Write8(c.amAbs(), c.A) },
	0x8e: func(c *CPU) { c.Write8(c.amAbs(), c.X) },
	0x8f: func(c *CPU) { c.Write8(c.amAbs(), c.A&c.X) },
	0x90: func(c *CPU) { c.branch(!c.P.Carry()) },
	0x91: func(c *CPU) { c.Write8(c.amIndYWrite(), c.A) },
	0x93: func(c *CPU) { c.shaIndY() },
	0x94: func(c *CPU) { c.Write8(c.amZpIdx(c.X), c.Y) },
	0x95: func(c *CPU) { c.Write8(c.amZpIdx(c.X), c.A) },
	0x96: func(c *CPU) { c.Write8(c.amZpIdx(c.Y), c.X) },
	0x97: func(c *CPU) { c.Write8(c.amZpIdx(c.Y), c.A&c.X) },
	0x98: func(c *CPU) { c.impl(); c.A = c.Y; c.P.checkNZ(c.A) },
	0x99: func(c *CPU) { c.Write8(c.amAbsIdxWrite(c.Y), c.A) },
	0x9a: func(c *CPU) { c.impl(); c.SP = c.X },
	0x9b: func(c *CPU) { c.SP = c.A & c.X; c.shaLike(c.SP, c.Y) }, // TAS
	0x9c: func(c *CPU) { c.shaLike(c.Y, c.X) },                   // SHY
	0x9d: func(c *CPU) { c.Write8(c.amAbsIdxWrite(c.X), c.A) },
	0x9e: func(c *CPU) { c.shaLike(c.X, c.Y) }, // SHX
	0x9f: func(c *CPU) { c.shaLike(c.A&c.X, c.Y) },

	0xa0: func(c *CPU) { c.Y = c.fetch(); c.P.checkNZ(c.Y) },
	0xa1: func(c *CPU) { c.A = c.Read8(c.amIndX()); c.P.checkNZ(c.A) },
	0xa2: func(c *CPU) { c.X = c.fetch(); c.P.checkNZ(c.X) },
	0xa3: func(c *CPU) { c.lax(c.Read8(c.amIndX())) },
	0xa4: func(c *CPU) { c.Y = c.Read8(c.amZp()); c.P.checkNZ(c.Y) },
	0xa5: func(c *CPU) { c.A = c.Read8(c.amZp()); c.P.checkNZ(c.A) },
	0xa6: func(c *CPU) { c.X = c.Read8(c.amZp()); c.P.checkNZ(c.X) },
	0xa7: func(c *CPU) { c.lax(c.Read8(c.amZp())) },
	0xa8: func(c *CPU) { c.impl(); c.Y = c.A; c.P.checkNZ(c.Y) },
	0xa9: func(c *CPU) { c.A = c.fetch(); c.P.checkNZ(c.A) },
	0xaa: func(c *CPU) { c.impl(); c.X = c.A; c.P.checkNZ(c.X) },
	0xab: func(c *CPU) { v := c.fetch(); c.lax((c.A | 0xee) & v) }, // LXA, stable enough with 0xee chips
	0xac: func(c *CPU) { c.Y = c.Read8(c.amAbs()); c.P.checkNZ(c.Y) },
	0xad: func(c *CPU) { c.A = c.Read8(c.amAbs()); c.P.checkNZ(c.A) },
	0xae: func(c *CPU) { c.X = c.Read8(c.amAbs()); c.P.checkNZ(c.X) },
	0xaf: func(c *CPU) { c.lax(c.Read8(c.amAbs())) },
	0xb0: func(c *CPU) { c.branch(c.P.Carry()) },
	0xb1: func(c *CPU) { c.A = c.Read8(c.amIndYRead()); c.P.checkNZ(c.A) },
	0xb3: func(c *CPU) { c.lax(c.Read8(c.amIndYRead())) },
	0xb4: func(c *CPU) { c.Y = c.Read8(c.amZpIdx(c.X)); c.P.checkNZ(c.Y) },
	0xb5: func(c *CPU) { c.A = c.Read8(c.amZpIdx(c.X)); c.P.checkNZ(c.A) },
	0xb6: func(c *CPU) { c.X = c.Read8(c.amZpIdx(c.Y)); c.P.checkNZ(c.X) },
	0xb7: func(c *CPU) { c.lax(c.Read8(c.amZpIdx(c.Y))) },
	0xb8: func(c *CPU) { c.impl(); c.P.SetOverflow(false) },
	0xb9: func(c *CPU) { c.A = c.Read8(c.amAbsIdxRead(c.Y)); c.P.checkNZ(c.A) },
	0xba: func(c *CPU) { c.impl(); c.X = c.SP; c.P.checkNZ(c.X) },
	0xbb: func(c *CPU) { c.las(c.Read8(c.amAbsIdxRead(c.Y))) },
	0xbc: func(c *CPU) { c.Y = c.Read8(c.amAbsIdxRead(c.X)); c.P.checkNZ(c.Y) },
	0xbd: func(c *CPU) { c.A = c.Read8(c.amAbsIdxRead(c.X)); c.P.checkNZ(c.A) },
	0xbe: func(c *CPU) { c.X = c.Read8(c.amAbsIdxRead(c.Y)); c.P.checkNZ(c.X) },
	0xbf: func(c *CPU) { c.lax(c.Read8(c.amAbsIdxRead(c.Y))) },

	0xc0: func(c *CPU) { c.compare(c.Y, c.fetch()) },
	0xc1: func(c *CPU) { c.compare(c.A, c.Read8(c.amIndX())) },
	0xc2: func(c *CPU) { c.fetch() },
	0xc3: func(c *CPU) { c.rmw(c.amIndX(), c.dcp) },
	0xc4: func(c *CPU) { c.compare(c.Y, c.Read8(c.amZp())) },
	0xc5: func(c *CPU) { c.compare(c.A, c.Read8(c.amZp())) },
	0xc6: func(c *CPU) { c.rmw(c.amZp(), c.dec) },
	0xc7: func(c *CPU) { c.rmw(c.amZp(), c.dcp) },
	0xc8: func(c *CPU) { c.impl(); c.Y = c.inc(c.Y) },
	0xc9: func(c *CPU) { c.compare(c.A, c.fetch()) },
	0xca: func(c *CPU) { c.impl(); c.X = c.dec(c.X) },
	0xcb: func(c *CPU) { c.sbx(c.fetch()) },
	0xcc: func(c *CPU) { c.compare(c.Y, c.Read8(c.amAbs())) },
	0xcd: func(c *CPU) { c.compare(c.A, c.Read8(c.amAbs())) },
	0xce: func(c *CPU) { c.rmw(c.amAbs(), c.dec) },
	0xcf: func(c *CPU) { c.rmw(c.amAbs(), c.dcp) },
	0xd0: func(c *CPU) { c.branch(!c.P.Zero()) },
	0xd1: func(c *CPU) { c.compare(c.A, c.Read8(c.amIndYRead())) },
	0xd3: func(c *CPU) { c.rmw(c.amIndYWrite(), c.dcp) },
	0xd4: func(c *CPU) { c.Read8(c.amZpIdx(c.X)) },
	0xd5: func(c *CPU) { c.compare(c.A, c.Read8(c.amZpIdx(c.X))) },
	0xd6: func(c *CPU) { c.rmw(c.amZpIdx(c.X), c.dec) },
	0xd7: func(c *CPU) { c.rmw(c.amZpIdx(c.X), c.dcp) },
	0xd8: func(c *CPU) { c.impl(); c.P.SetDecimal(false) },
	0xd9: func(c *CPU) { c.compare(c.A, c.Read8(c.amAbsIdxRead(c.Y))) },
	0xda: func(c *CPU) { c.impl() },
	0xdb: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.Y), c.dcp) },
	0xdc: func(c *CPU) { c.Read8(c.amAbsIdxRead(c.X)) },
	0xdd: func(c *CPU) { c.compare(c.A, c.Read8(c.amAbsIdxRead(c.X))) },
	0xde: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.X), c.dec) },
	0xdf: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.X), c.dcp) },

	0xe0: func(c *CPU) { c.compare(c.X, c.fetch()) },
	0xe1: func(c *CPU) { c.sbc(c.Read8(c.amIndX())) },
	0xe2: func(c *CPU) { c.fetch() },
	0xe3: func(c *CPU) { c.rmw(c.amIndX(), c.isc) },
	0xe4: func(c *CPU) { c.compare(c.X, c.Read8(c.amZp())) },
	0xe5: func(c *CPU) { c.sbc(c.Read8(c.amZp())) },
	0xe6: func(c *CPU) { c.rmw(c.amZp(), c.inc) },
	0xe7: func(c *CPU) { c.rmw(c.amZp(), c.isc) },
	0xe8: func(c *CPU) { c.impl(); c.X = c.inc(c.X) },
	0xe9: func(c *CPU) { c.sbc(c.fetch()) },
	0xea: func(c *CPU) { c.impl() },
	0xeb: func(c *CPU) { c.sbc(c.fetch()) }, // USBC
	0xec: func(c *CPU) { c.compare(c.X, c.Read8(c.amAbs())) },
	0xed: func(c *CPU) { c.sbc(c.Read8(c.amAbs())) },
	0xee: func(c *CPU) { c.rmw(c.amAbs(), c.inc) },
	0xef: func(c *CPU) { c.rmw(c.amAbs(), c.isc) },
	0xf0: func(c *CPU) { c.branch(c.P.Zero()) },
	0xf1: func(c *CPU) { c.sbc(c.Read8(c.amIndYRead())) },
	0xf3: func(c *CPU) { c.rmw(c.amIndYWrite(), c.isc) },
	0xf4: func(c *CPU) { c.Read8(c.amZpIdx(c.X)) },
	0xf5: func(c *CPU) { c.sbc(c.Read8(c.amZpIdx(c.X))) },
	0xf6: func(c *CPU) { c.rmw(c.amZpIdx(c.X), c.inc) },
	0xf7: func(c *CPU) { c.rmw(c.amZpIdx(c.X), c.isc) },
	0xf8: func(c *CPU) { c.impl(); c.P.SetDecimal(true) },
	0xf9: func(c *CPU) { c.sbc(c.Read8(c.amAbsIdxRead(c.Y))) },
	0xfa: func(c *CPU) { c.impl() },
	0xfb: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.Y), c.isc) },
	0xfc: func(c *CPU) { c.Read8(c.amAbsIdxRead(c.X)) },
	0xfd: func(c *CPU) { c.sbc(c.Read8(c.amAbsIdxRead(c.X))) },
	0xfe: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.X), c.inc) },
	0xff: func(c *CPU) { c.rmw(c.amAbsIdxWrite(c.X), c.isc) },
}

func jam(c *CPU) {
	c.impl()
	c.halt()
}

func jsr(c *CPU) {
	lo := c.fetch()
	c.Read8(0x0100 + uint16(c.SP)) // internal operation
	c.push16(c.PC)
	hi := c.Read8(c.PC)
	c.PC = uint16(hi)<<8 | uint16(lo)
}

func rts(c *CPU) {
	c.impl()
	c.Read8(0x0100 + uint16(c.SP)) // increment S
	c.PC = c.pull16()
	c.Read8(c.PC) // increment PC
	c.PC++
}

func rti(c *CPU) {
	c.impl()
	c.Read8(0x0100 + uint16(c.SP))
	c.plp()
	c.PC = c.pull16()
}

// jmpInd reproduces the page-wrap bug of JMP (ind): the high byte of the
// pointer is fetched from the start of the same page.
func jmpInd(c *CPU) {
	ptr := c.fetch16()
	lo := c.Read8(ptr)
	hi := c.Read8(ptr&0xff00 | (ptr+1)&0x00ff)
	c.PC = uint16(hi)<<8 | uint16(lo)
}

// plp pulls the status register; B and U are not real bits.
func (c *CPU) plp() {
	p := P(c.pull8())
	p.SetBreak(false)
	p.SetUnused(true)
	c.P = p
}

// shaIndY is the (zp),Y form of SHA.
func (c *CPU) shaIndY() {
	ptr := c.fetch()
	lo := c.Read8(uint16(ptr))
	hi := c.Read8(uint16(ptr + 1))
	base := uint16(hi)<<8 | uint16(lo)
	addr := base + uint16(c.Y)
	c.Read8(addr&0x00ff | base&0xff00)

	v := c.A & c.X & (uint8(base>>8) + 1)
	if base&0xff00 != addr&0xff00 {
		addr = addr&0x00ff | uint16(v)<<8
	}
	c.Write8(addr, v)
}

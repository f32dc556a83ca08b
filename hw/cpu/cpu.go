// Package cpu emulates the MOS 6510, cycle-stepped: every memory access
// costs one cycle, during which all scheduled hardware events up to that
// cycle are dispatched first. All documented opcodes plus the stable
// undocumented ones are implemented; JAM opcodes halt the CPU.
package cpu

import (
	"io"

	"rezid/emu/log"
	"rezid/emu/sched"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

// Bus is the CPU's view of memory. Accesses have side effects (chip
// registers); Peek must not.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, v uint8)
	Peek(addr uint16) uint8
}

// CPU is a 6510 at power-up state. It owns the virtual clock: each
// memory access advances the scheduler by one full cycle, firing the
// Phi1 and Phi2 events of that cycle before the access and sampling
// interrupt lines after it.
type CPU struct {
	bus Bus
	sch *sched.Scheduler

	// Cycles counts executed CPU cycles since reset.
	Cycles int64

	// Registers.
	A, X, Y, SP uint8
	PC          uint16
	P           P

	// Interrupt handling. The NMI edge detector polls the line during
	// the second half of each cycle; IRQ is level sampled the same way.
	// It is the state at the end of the second-to-last cycle of an
	// instruction that decides.
	nmiLine              bool
	prevNmiLine          bool
	needNmi, prevNeedNmi bool
	irqLine              bool
	runIRQ, prevRunIRQ   bool

	// Cycles still to burn with the RDY line low; reads stall, writes
	// complete.
	rdyStall uint32

	halted bool

	tracer *tracer
}

// New creates a CPU driving the given scheduler and bus.
func New(s *sched.Scheduler, bus Bus) *CPU {
	return &CPU{
		bus: bus,
		sch: s,
		SP:  0xFD,
	}
}

// Reset initializes PC from the reset vector, sets I and sets SP to $FD.
// A, X and Y are left as they are.
func (c *CPU) Reset() {
	c.P.SetIntDisable(true)
	c.P.SetUnused(true)
	c.SP = 0xFD

	c.Cycles = 0
	c.halted = false
	c.nmiLine = false
	c.prevNmiLine = false
	c.needNmi = false
	c.prevNeedNmi = false
	c.irqLine = false
	c.runIRQ = false
	c.prevRunIRQ = false
	c.rdyStall = 0

	// Direct bus access: the reset fetch must not tick the clock before
	// the machine is fully wired.
	lo := c.bus.Peek(ResetVector)
	hi := c.bus.Peek(ResetVector + 1)
	c.PC = uint16(hi)<<8 | uint16(lo)
}

// SetNMI drives the NMI line; the interrupt triggers on a rising edge.
func (c *CPU) SetNMI(state bool) { c.nmiLine = state }

// SetIRQ drives the level-triggered IRQ line.
func (c *CPU) SetIRQ(state bool) { c.irqLine = state }

// Steal pulls RDY low for n cycles: the CPU stalls on its next read.
func (c *CPU) Steal(n uint32) { c.rdyStall += n }

// IsHalted reports whether a JAM opcode stopped the CPU.
func (c *CPU) IsHalted() bool { return c.halted }

// SetTraceOutput enables the per-instruction execution log.
func (c *CPU) SetTraceOutput(w io.Writer) {
	if w == nil {
		c.tracer = nil
		return
	}
	c.tracer = &tracer{w: w}
}

// Step executes a single instruction (or a pending interrupt sequence).
func (c *CPU) Step() {
	if c.halted {
		return
	}

	if c.tracer != nil {
		c.tracer.write(c)
	}

	opcode := c.Read8(c.PC)
	c.PC++
	ops[opcode](c)

	if c.halted {
		log.ModCPU.WarnZ("CPU halted").
			Hex16("PC", c.PC).
			Hex8("opcode", opcode).
			End()
		return
	}

	if c.prevRunIRQ || c.prevNeedNmi {
		c.irq()
	}
}

func (c *CPU) halt() { c.halted = true }

func (c *CPU) cycleBegin() {
	// Fire this cycle's Phi1 and Phi2 events before the CPU touches the
	// bus.
	c.sch.RunUntil(sched.Clock(c.Cycles * 2))
	c.sch.RunUntil(sched.Clock(c.Cycles*2 + 1))
	c.Cycles++
}

func (c *CPU) cycleEnd() {
	c.handleInterrupts()
}

func (c *CPU) handleInterrupts() {
	// The internal signal goes high during Phi1 of the cycle that
	// follows the one where the edge is detected, and stays high until
	// the NMI has been handled.
	c.prevNeedNmi = c.needNmi

	if !c.prevNmiLine && c.nmiLine {
		c.needNmi = true
	}
	c.prevNmiLine = c.nmiLine

	// Keep the IRQ line value from the previous cycle; the
	// second-to-last cycle's value decides whether the interrupt is
	// taken after this instruction.
	c.prevRunIRQ = c.runIRQ
	c.runIRQ = c.irqLine && !c.P.IntDisable()
}

// Read8 performs one read cycle. While RDY is low the CPU stalls here;
// writes are not affected.
func (c *CPU) Read8(addr uint16) uint8 {
	for c.rdyStall > 0 {
		c.rdyStall--
		c.cycleBegin()
		c.cycleEnd()
	}
	c.cycleBegin()
	v := c.bus.Read(addr)
	c.cycleEnd()
	return v
}

// Write8 performs one write cycle.
func (c *CPU) Write8(addr uint16, v uint8) {
	c.cycleBegin()
	c.bus.Write(addr, v)
	c.cycleEnd()
}

func (c *CPU) Read16(addr uint16) uint16 {
	lo := c.Read8(addr)
	hi := c.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

/* stack operations */

func (c *CPU) push8(v uint8) {
	c.Write8(0x0100+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) push16(v uint16) {
	c.push8(uint8(v >> 8))
	c.push8(uint8(v))
}

func (c *CPU) pull8() uint8 {
	c.SP++
	return c.Read8(0x0100 + uint16(c.SP))
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return uint16(hi)<<8 | uint16(lo)
}

/* interrupt sequences */

// irq runs the 7-cycle interrupt sequence. An NMI pending at this point
// wins over IRQ and redirects the sequence to its own vector.
func (c *CPU) irq() {
	c.Read8(c.PC) // dummy reads
	c.Read8(c.PC)

	c.push16(c.PC)

	if c.needNmi {
		c.needNmi = false
		p := c.P
		p.SetUnused(true)
		c.push8(uint8(p))

		c.P.SetIntDisable(true)
		c.PC = c.Read16(NMIVector)
	} else {
		p := c.P
		p.SetUnused(true)
		c.push8(uint8(p))

		c.P.SetIntDisable(true)
		c.PC = c.Read16(IRQVector)
	}
}

// brk implements the BRK instruction, including the hijacking of its
// vector by a concurrent NMI.
func brk(c *CPU) {
	_ = c.Read8(c.PC) // padding byte

	c.push16(c.PC + 1)

	p := c.P
	p.SetBreak(true)
	p.SetUnused(true)
	if c.needNmi {
		c.needNmi = false
		c.push8(uint8(p))
		c.P.SetIntDisable(true)
		c.PC = c.Read16(NMIVector)
	} else {
		c.push8(uint8(p))
		c.P.SetIntDisable(true)
		c.PC = c.Read16(IRQVector)
	}

	// The first instruction of the handler runs before a pending NMI
	// can be taken.
	c.prevNeedNmi = false
}

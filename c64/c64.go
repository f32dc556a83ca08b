// Package c64 assembles the minimal Commodore 64 needed to run tune
// code: the 6510, two CIAs, the raster-interrupt part of the VIC, the
// banked memory, and one to three SID chips.
package c64

import (
	"rezid/emu/sched"
	"rezid/hw/cia"
	"rezid/hw/cpu"
	"rezid/hw/vic"
)

// SidDevice is the bus-facing side of a SID chip emulation. Accesses
// must internally catch the chip up to the machine clock.
type SidDevice interface {
	BusRead(offset uint8) uint8
	BusWrite(offset uint8, v uint8)
}

// C64 is the machine composite. The CPU is the clock master: every CPU
// cycle dispatches the scheduler events of that cycle.
type C64 struct {
	sch *sched.Scheduler

	CPU  *cpu.CPU
	CIA1 *cia.CIA
	CIA2 *cia.CIA
	VIC  *vic.VIC
	MMU  *MMU

	baseSid   SidDevice
	extraSids [2]SidDevice
	extraAddr [2]uint16

	model Model

	// Interrupt line aggregation.
	cia1IRQ, vicIRQ bool

	colorRAM [0x400]uint8
}

// New creates a PAL machine on a fresh scheduler.
func New() *C64 {
	c := &C64{sch: &sched.Scheduler{}}

	c.MMU = newMMU(c)
	c.CPU = cpu.New(c.sch, c)

	c.CIA1 = cia.New("CIA1", c.sch)
	c.CIA1.Interrupt = func(state bool) {
		c.cia1IRQ = state
		c.updateIRQ()
	}
	c.CIA2 = cia.New("CIA2", c.sch)
	c.CIA2.Interrupt = func(state bool) {
		c.CPU.SetNMI(state)
	}

	c.VIC = vic.New(c.sch)
	c.VIC.Interrupt = func(state bool) {
		c.vicIRQ = state
		c.updateIRQ()
	}
	c.VIC.Steal = c.CPU.Steal

	c.SetModel(PALB)
	return c
}

func (c *C64) updateIRQ() {
	c.CPU.SetIRQ(c.cia1IRQ || c.vicIRQ)
}

// Scheduler exposes the machine clock.
func (c *C64) Scheduler() *sched.Scheduler { return c.sch }

// SetModel selects the machine flavour: CPU clock, raster geometry and
// power-line frequency.
func (c *C64) SetModel(m Model) {
	c.model = m
	c.VIC.SetModel(models[m].vicModel)
	c.CIA1.SetTodClock(models[m].cpuFreq)
	c.CIA2.SetTodClock(models[m].cpuFreq)
}

// Model returns the selected machine flavour.
func (c *C64) Model() Model { return c.model }

// CpuFreq returns the CPU clock in Hz.
func (c *C64) CpuFreq() float64 { return models[c.model].cpuFreq }

// SetCiaModel selects the interrupt logic revision of both CIAs.
func (c *C64) SetCiaModel(m cia.Model) {
	c.CIA1.SetModel(m)
	c.CIA2.SetModel(m)
}

// SetRoms installs the system ROM images; nil slices leave the power-on
// RAM pattern visible instead.
func (c *C64) SetRoms(kernal, basic, chargen []uint8) {
	c.MMU.setRoms(kernal, basic, chargen)
}

// HasBasic reports whether a BASIC ROM is installed.
func (c *C64) HasBasic() bool { return c.MMU.basic != nil }

// SetBaseSid installs the chip answering at $D400.
func (c *C64) SetBaseSid(s SidDevice) { c.baseSid = s }

// AddExtraSid installs a second or third chip at the given base
// address. Valid bases are the even 0x20-aligned addresses in
// $D420-$D7E0 and $DE00-$DFE0.
func (c *C64) AddExtraSid(s SidDevice, base uint16) bool {
	if !ValidExtraSidAddress(base) {
		return false
	}
	for i := range c.extraSids {
		if c.extraSids[i] == nil {
			c.extraSids[i] = s
			c.extraAddr[i] = base
			return true
		}
	}
	return false
}

// ClearSids removes all chips.
func (c *C64) ClearSids() {
	c.baseSid = nil
	c.extraSids = [2]SidDevice{}
	c.extraAddr = [2]uint16{}
}

// ValidExtraSidAddress reports whether an extra SID may live at the
// given base address.
func ValidExtraSidAddress(addr uint16) bool {
	if addr&0x1f != 0 {
		return false
	}
	switch {
	case addr >= 0xd420 && addr <= 0xd7e0:
		return true
	case addr >= 0xde00 && addr <= 0xdfe0:
		return true
	}
	return false
}

// Reset cold-starts the machine. The CPU reset itself is left to the
// caller so a power-on delay can be inserted first.
func (c *C64) Reset() {
	c.sch.Reset()
	c.MMU.reset()
	c.CIA1.Reset()
	c.CIA2.Reset()
	c.VIC.Reset()
	clear(c.colorRAM[:])
}

// ResetCpu restarts the CPU through the reset vector.
func (c *C64) ResetCpu() { c.CPU.Reset() }

// Clock runs one CPU instruction.
func (c *C64) Clock() { c.CPU.Step() }

/* cpu.Bus */

func (c *C64) Read(addr uint16) uint8     { return c.MMU.CpuRead(addr) }
func (c *C64) Write(addr uint16, v uint8) { c.MMU.CpuWrite(addr, v) }
func (c *C64) Peek(addr uint16) uint8     { return c.MMU.CpuPeek(addr) }

/* I/O window dispatch */

// sidAt returns the chip decoding the given I/O address, honoring the
// $D400-$D7FF mirroring of the base chip.
func (c *C64) sidAt(addr uint16) SidDevice {
	window := addr &^ 0x1f
	for i, s := range c.extraSids {
		if s != nil && c.extraAddr[i] == window {
			return s
		}
	}
	if addr >= 0xd400 && addr <= 0xd7ff {
		return c.baseSid
	}
	return nil
}

func (c *C64) ioRead(addr uint16) uint8 {
	switch addr >> 8 & 0x0f {
	case 0x0, 0x1, 0x2, 0x3:
		return c.VIC.Read(uint8(addr))
	case 0x4, 0x5, 0x6, 0x7:
		if s := c.sidAt(addr); s != nil {
			return s.BusRead(uint8(addr & 0x1f))
		}
		return 0
	case 0x8, 0x9, 0xa, 0xb:
		return c.colorRAM[addr&0x3ff] & 0x0f
	case 0xc:
		return c.CIA1.Read(uint8(addr))
	case 0xd:
		return c.CIA2.Read(uint8(addr))
	default: // $DE00-$DFFF, open I/O expansion
		if s := c.sidAt(addr); s != nil {
			return s.BusRead(uint8(addr & 0x1f))
		}
		return 0
	}
}

func (c *C64) ioWrite(addr uint16, v uint8) {
	switch addr >> 8 & 0x0f {
	case 0x0, 0x1, 0x2, 0x3:
		c.VIC.Write(uint8(addr), v)
	case 0x4, 0x5, 0x6, 0x7:
		if s := c.sidAt(addr); s != nil {
			s.BusWrite(uint8(addr&0x1f), v)
		}
	case 0x8, 0x9, 0xa, 0xb:
		c.colorRAM[addr&0x3ff] = v & 0x0f
	case 0xc:
		c.CIA1.Write(uint8(addr), v)
	case 0xd:
		c.CIA2.Write(uint8(addr), v)
	default:
		if s := c.sidAt(addr); s != nil {
			s.BusWrite(uint8(addr&0x1f), v)
		}
	}
}

func (c *C64) ioPeek(addr uint16) uint8 {
	// Chip reads have side effects; tracing sees the I/O window as
	// open bus.
	return 0xff
}

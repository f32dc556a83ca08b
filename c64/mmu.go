package c64

// MMU models the PLA bank switching of the C64: 64 KiB of RAM overlaid
// by the KERNAL, BASIC and CHARGEN ROMs and the 4 KiB I/O window,
// selected by the LORAM/HIRAM/CHAREN outputs of the processor port at
// $00/$01. EXROM/GAME are always high here (no cartridge).
type MMU struct {
	ram [0x10000]uint8

	kernal  []uint8 // 8 KiB at $E000, or nil
	basic   []uint8 // 8 KiB at $A000, or nil
	chargen []uint8 // 4 KiB at $D000, or nil

	// Processor port.
	dir  uint8
	data uint8

	loram, hiram, charen bool

	// io receives accesses to $D000-$DFFF while the I/O window is
	// banked in.
	io ioHandler
}

type ioHandler interface {
	ioRead(addr uint16) uint8
	ioWrite(addr uint16, v uint8)
	ioPeek(addr uint16) uint8
}

// Pulled-up input lines of the processor port.
const portPullups = 0x17

func newMMU(io ioHandler) *MMU {
	m := &MMU{io: io}
	m.reset()
	return m
}

func (m *MMU) reset() {
	// C64 power-on RAM pattern: alternating 64-byte runs of 0x00 and
	// 0xff.
	clear(m.ram[:])
	for i := 0x40; i < len(m.ram); i += 0x80 {
		for j := 0; j < 0x40; j++ {
			m.ram[i+j] = 0xff
		}
	}

	m.dir = 0
	m.data = 0
	m.updateBanks()
}

func (m *MMU) setRoms(kernal, basic, chargen []uint8) {
	m.kernal = dupRom(kernal, 0x2000)
	m.basic = dupRom(basic, 0x2000)
	m.chargen = dupRom(chargen, 0x1000)
}

// dupRom copies a ROM image so hooks can be patched in without
// mutating the caller's blob.
func dupRom(rom []uint8, size int) []uint8 {
	if rom == nil || len(rom) < size {
		return nil
	}
	out := make([]uint8, size)
	copy(out, rom)
	return out
}

// InstallResetHook redirects the Kernal reset vector to addr, so a
// cold start lands in the player driver even with ROMs banked in.
func (m *MMU) InstallResetHook(addr uint16) {
	if m.kernal != nil {
		m.kernal[0x1ffc] = uint8(addr)
		m.kernal[0x1ffd] = uint8(addr >> 8)
	}
}

// updateBanks derives the bank selection from the port lines; inputs
// read high through the pull-ups.
func (m *MMU) updateBanks() {
	lines := m.data | ^m.dir
	m.loram = lines&0x01 != 0
	m.hiram = lines&0x02 != 0
	m.charen = lines&0x04 != 0
}

func (m *MMU) writePort(addr uint16, v uint8) {
	if addr == 0 {
		m.dir = v
	} else {
		m.data = v
	}
	m.updateBanks()
}

func (m *MMU) readPort(addr uint16) uint8 {
	if addr == 0 {
		return m.dir
	}
	return m.data&m.dir | portPullups&^m.dir
}

// CpuRead returns memory as seen by the CPU.
func (m *MMU) CpuRead(addr uint16) uint8 {
	if addr <= 1 {
		return m.readPort(addr)
	}

	switch addr >> 12 {
	case 0xa, 0xb:
		if m.loram && m.hiram && m.basic != nil {
			return m.basic[addr&0x1fff]
		}
	case 0xd:
		if m.ioVisible() {
			if m.charen {
				return m.io.ioRead(addr)
			}
			if m.chargen != nil {
				return m.chargen[addr&0x0fff]
			}
		}
	case 0xe, 0xf:
		if m.hiram && m.kernal != nil {
			return m.kernal[addr&0x1fff]
		}
	}
	return m.ram[addr]
}

// CpuWrite stores memory as seen by the CPU. Writes always reach the
// RAM under a ROM; only the I/O window intercepts them.
func (m *MMU) CpuWrite(addr uint16, v uint8) {
	if addr <= 1 {
		m.writePort(addr, v)
		return
	}

	if addr>>12 == 0xd && m.ioVisible() && m.charen {
		m.io.ioWrite(addr, v)
		return
	}
	m.ram[addr] = v
}

// CpuPeek reads without side effects, for tracing.
func (m *MMU) CpuPeek(addr uint16) uint8 {
	if addr>>12 == 0xd && m.ioVisible() && m.charen {
		return m.io.ioPeek(addr)
	}
	if addr <= 1 {
		return m.readPort(addr)
	}
	return m.CpuRead(addr)
}

func (m *MMU) ioVisible() bool { return m.loram || m.hiram }

// Direct RAM access, used to install the tune image and the driver.

func (m *MMU) ReadMemByte(addr uint16) uint8 { return m.ram[addr] }

func (m *MMU) WriteMemByte(addr uint16, v uint8) { m.ram[addr] = v }

func (m *MMU) ReadMemWord(addr uint16) uint16 {
	return uint16(m.ram[addr]) | uint16(m.ram[addr+1])<<8
}

func (m *MMU) WriteMemWord(addr uint16, v uint16) {
	m.ram[addr] = uint8(v)
	m.ram[addr+1] = uint8(v >> 8)
}

func (m *MMU) FillRam(start uint16, src []uint8) {
	copy(m.ram[start:], src)
}

func (m *MMU) FillRamValue(start uint16, v uint8, n int) {
	for i := 0; i < n; i++ {
		m.ram[start+uint16(i)] = v
	}
}

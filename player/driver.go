package player

import (
	"rezid/tune"
	"rezid/tune/asm"
)

// driver is the small machine-language routine injected into a free RAM
// page to run a PSID tune: it banks in the memory configuration the
// tune expects, calls init with the song number, arms either CIA 1
// timer A or the VIC raster interrupt per the tune's cadence, and calls
// play from the interrupt handler.
type driver struct {
	tune *tune.Tune
	song int

	// Machine parameters.
	cpuFreq     float64
	rasterLines uint32

	addr   uint16 // page the driver was relocated to
	length uint16
	image  []byte

	errorString string
}

// Driver entry offsets: cold start at +0, interrupt handler at +3.
const (
	drvColdOff = 0
	drvIRQOff  = 3
)

// iomap returns the $01 value under which the given address is
// executable: ROMs are banked out of the way of tune code.
func (d *driver) iomap(addr uint16) uint8 {
	if d.tune.Compat == tune.CompatR64 || d.tune.Compat == tune.CompatBASIC || addr == 0 {
		return 0x37 // standard map
	}
	switch {
	case addr < 0xa000:
		return 0x37 // BASIC, I/O and Kernal visible
	case addr < 0xd000:
		return 0x36 // BASIC out
	case addr >= 0xe000:
		return 0x35 // Kernal out as well
	default:
		return 0x34 // RAM everywhere, I/O banked out too
	}
}

// build assembles the driver for the selected song.
func (d *driver) build() ([]byte, []int) {
	t := d.tune
	useCIA := t.SongSpeed(d.song) == tune.SpeedCIA1A
	hasPlay := t.PlayAddr != 0

	a := asm.New(0)

	a.JMP("cold")
	a.JMP("irq")

	a.Label("cold")
	a.SEI()
	a.CLD()
	a.LDXimm(0xff)
	a.TXS()

	// Processor port: LORAM/HIRAM/CHAREN as outputs, like the Kernal
	// leaves them.
	a.LDAimm(0x2f)
	a.STAabs(0x0000)
	a.LDAimm(0x37)
	a.STAabs(0x0001)

	// Quiesce both interrupt sources, then arm the one the tune wants.
	a.LDAimm(0x00)
	a.STAabs(0xd01a)
	a.LDAabs(0xd019)
	a.STAabs(0xd019)
	a.LDAimm(0x7f)
	a.STAabs(0xdc0d)
	a.LDAabs(0xdc0d)

	if hasPlay {
		if useCIA {
			// CIA 1 timer A at the 60Hz the Kernal would program.
			latch := uint16(d.cpuFreq/60 + 0.5)
			a.LDAimm(uint8(latch))
			a.STAabs(0xdc04)
			a.LDAimm(uint8(latch >> 8))
			a.STAabs(0xdc05)
			a.LDAimm(0x81)
			a.STAabs(0xdc0d)
			a.LDAimm(0x01)
			a.STAabs(0xdc0e)
		} else {
			// Raster interrupt on the last line of the frame.
			line := d.rasterLines - 1
			a.LDAimm(uint8(line))
			a.STAabs(0xd012)
			ctrl1 := uint8(0x1b)
			if line > 0xff {
				ctrl1 |= 0x80
			}
			a.LDAimm(ctrl1)
			a.STAabs(0xd011)
			a.LDAimm(0x01)
			a.STAabs(0xd01a)
		}
	}

	// Bank for init, then call it with the song number.
	a.LDAimm(d.iomap(t.InitAddr))
	a.STAabs(0x0001)
	a.LDAimm(uint8(d.song - 1))
	a.LDXimm(0x00)
	a.LDYimm(0x00)
	a.JSRabs(t.InitAddr)
	a.CLI()

	a.Label("idle")
	a.JMP("idle")

	a.Label("irq")
	if hasPlay {
		a.PHA()
		a.TXA()
		a.PHA()
		a.TYA()
		a.PHA()

		a.LDAabs(0x0001)
		a.PHA()
		a.LDAimm(d.iomap(t.PlayAddr))
		a.STAabs(0x0001)

		if useCIA {
			a.LDAabs(0xdc0d) // reading acknowledges the CIA
		} else {
			a.LDAabs(0xd019)
			a.STAabs(0xd019)
		}

		a.JSRabs(t.PlayAddr)

		a.PLA()
		a.STAabs(0x0001)
		a.PLA()
		a.TAY()
		a.PLA()
		a.TAX()
		a.PLA()
	}
	a.RTI()

	return a.Assemble(), a.Relocs()
}

// relocate finds a free page for the driver and relocates it there
// through its o65 image.
func (d *driver) relocate(used func(page uint8) bool) bool {
	text, relocs := d.build()
	image := makeO65(text, 0, relocs)

	startPage := d.tune.RelocStartPage
	pages := d.tune.RelocPages

	page := uint8(0)
	if pages != 0 {
		// The tune names a free window; take it at its word.
		if int(startPage)+int(pages) > 0x100 || used(startPage) {
			d.errorString = "SIDPLAYER ERROR: No space to install driver in C64 ram"
			return false
		}
		page = startPage
	} else {
		found := false
		for p := 0x04; p < 0xd0; p++ {
			if !used(uint8(p)) {
				page = uint8(p)
				found = true
				break
			}
		}
		if !found {
			d.errorString = "SIDPLAYER ERROR: No space to install driver in C64 ram"
			return false
		}
	}

	var r reloc65
	r.setTextReloc(int(page) << 8)
	seg, ok := r.reloc(image)
	if !ok {
		d.errorString = "SIDPLAYER ERROR: Failed to relocate driver"
		return false
	}

	d.addr = uint16(page) << 8
	d.length = uint16(len(seg))
	d.image = seg
	return true
}

// install writes the relocated driver and the vectors into memory.
func (d *driver) install(mem tune.Memory) {
	for i, b := range d.image {
		mem.WriteMemByte(d.addr+uint16(i), b)
	}

	// Cold start through the reset vector.
	mem.WriteMemWord(0xfffc, d.addr+drvColdOff)

	if d.tune.PlayAddr != 0 {
		// Both the Kernal indirection and the bare hardware vector, so
		// the handler is reached under any banking.
		mem.WriteMemWord(0x0314, d.addr+drvIRQOff)
		mem.WriteMemWord(0xfffe, d.addr+drvIRQOff)
	}
}

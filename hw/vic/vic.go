// Package vic provides just enough of the VIC-II for tune playback: the
// raster counter with its interrupt, and bad-line DMA cycle stealing.
// There is no video output.
package vic

import (
	"rezid/emu/log"
	"rezid/emu/sched"
)

// Model carries the raster geometry of a VIC revision.
type Model struct {
	CyclesPerLine uint32
	RasterLines   uint32
}

var (
	MOS6569     = Model{63, 312} // PAL-B
	MOS6567     = Model{65, 263} // NTSC-M
	MOS6567R56A = Model{64, 262} // old NTSC-M
	MOS6572     = Model{65, 312} // PAL-N (Drean)
	MOS6573     = Model{65, 263} // PAL-M
)

const (
	irqRaster uint8 = 1 << 0
)

// VIC is the raster-interrupt source. Interrupt is called on IRQ line
// transitions; Steal is called at the start of every bad line with the
// number of cycles the CPU loses to character DMA.
type VIC struct {
	sch   *sched.Scheduler
	model Model

	Interrupt func(state bool)
	Steal     func(cycles uint32)

	event *sched.Event

	raster      uint32
	rasterCmp   uint32
	ctrl1       uint8
	irqFlags    uint8
	irqMask     uint8
	den         bool // display enable seen on line 0x30
}

func New(s *sched.Scheduler) *VIC {
	v := &VIC{sch: s, model: MOS6569}
	v.event = sched.NewEvent("VIC Raster", v.line)
	return v
}

func (v *VIC) SetModel(m Model) { v.model = m }

func (v *VIC) Reset() {
	v.raster = 0
	v.rasterCmp = 0
	v.ctrl1 = 0
	v.irqFlags = 0
	v.irqMask = 0
	v.den = false

	v.sch.Cancel(v.event)
	v.sch.Schedule(v.event, uint64(v.model.CyclesPerLine), sched.Phi1)
}

// line advances the raster by one raster line.
func (v *VIC) line() {
	v.raster++
	if v.raster >= v.model.RasterLines {
		v.raster = 0
	}

	if v.raster == 0x30 {
		v.den = v.ctrl1&0x10 != 0
	}

	// A bad line steals 40 character fetch cycles plus the 3-cycle
	// BA setup from the CPU.
	if v.den && v.raster >= 0x30 && v.raster <= 0xf7 &&
		v.raster&7 == uint32(v.ctrl1)&7 {
		if v.Steal != nil {
			v.Steal(43)
		}
	}

	if v.raster == v.rasterCmp {
		v.activateIRQFlag(irqRaster)
	}

	v.sch.Schedule(v.event, uint64(v.model.CyclesPerLine), sched.Phi1)
}

func (v *VIC) activateIRQFlag(flag uint8) {
	v.irqFlags |= flag
	v.updateIRQ()
}

func (v *VIC) updateIRQ() {
	if v.irqFlags&v.irqMask != 0 {
		if v.irqFlags&0x80 == 0 {
			v.irqFlags |= 0x80
			if v.Interrupt != nil {
				v.Interrupt(true)
			}
		}
	} else if v.irqFlags&0x80 != 0 {
		v.irqFlags &= 0x7f
		if v.Interrupt != nil {
			v.Interrupt(false)
		}
	}
}

// Read returns a VIC register; addr is masked to 6 bits.
func (v *VIC) Read(addr uint8) uint8 {
	addr &= 0x3f
	switch addr {
	case 0x11:
		return v.ctrl1&0x7f | uint8(v.raster>>1)&0x80
	case 0x12:
		return uint8(v.raster)
	case 0x19:
		return v.irqFlags | 0x70
	case 0x1a:
		return v.irqMask | 0xf0
	default:
		return 0xff
	}
}

// Write stores v into a VIC register; addr is masked to 6 bits.
func (v *VIC) Write(addr uint8, data uint8) {
	addr &= 0x3f

	log.ModVIC.DebugZ("write").Hex8("reg", addr).Hex8("val", data).End()

	switch addr {
	case 0x11:
		v.ctrl1 = data
		v.rasterCmp = v.rasterCmp&0xff | uint32(data&0x80)<<1
	case 0x12:
		v.rasterCmp = v.rasterCmp&0x100 | uint32(data)
	case 0x19:
		// Writing 1s acknowledges the corresponding flags.
		v.irqFlags &= ^data & 0x0f
		v.updateIRQ()
	case 0x1a:
		v.irqMask = data & 0x0f
		v.updateIRQ()
	}
}

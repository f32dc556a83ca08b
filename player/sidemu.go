package player

import (
	"rezid/c64"
	"rezid/emu/sched"
	"rezid/hw/sid"
)

// Samples of buffering per chip; covers the longest stretch between two
// mixer catch-ups with plenty of slack.
const sidBufferSize = 1 << 16

// sidemu couples a SID chip to the machine clock. The chip is clocked
// lazily: register accesses and the mixer catch it up to the current
// scheduler time, producing resampled output into its buffer.
type sidemu struct {
	chip *sid.SID
	sch  *sched.Scheduler

	buffer    []int16
	bufferpos int

	accessClk uint64
}

var _ c64.SidDevice = (*sidemu)(nil)

func newSidemu(chip *sid.SID, sch *sched.Scheduler) *sidemu {
	return &sidemu{
		chip:   chip,
		sch:    sch,
		buffer: make([]int16, sidBufferSize),
	}
}

// clock runs the chip up to the present.
func (s *sidemu) clock() {
	now := s.sch.Time(sched.Phi2)
	delta := uint32(now - s.accessClk)
	if delta == 0 {
		return
	}
	s.accessClk = now
	s.bufferpos += s.chip.Clock(delta, s.buffer[s.bufferpos:])
}

// clockSilent runs the chip up to the present without output.
func (s *sidemu) clockSilent() {
	now := s.sch.Time(sched.Phi2)
	delta := uint32(now - s.accessClk)
	if delta == 0 {
		return
	}
	s.accessClk = now
	s.chip.ClockSilent(delta)
}

func (s *sidemu) reset() {
	s.chip.Reset()
	s.bufferpos = 0
	s.accessClk = 0
}

/* c64.SidDevice */

func (s *sidemu) BusRead(offset uint8) uint8 {
	s.clock()
	return s.chip.Read(offset)
}

func (s *sidemu) BusWrite(offset uint8, v uint8) {
	s.clock()
	s.chip.Write(offset, v)
}

package cia

import (
	"rezid/emu/sched"
)

// tod is the 24-hour BCD time-of-day clock. It counts tenths of a second
// derived from the CPU clock frequency; the 50/60 Hz select in CRA bit 7
// is not consulted.
// Writing the hours register stops the clock, writing tenths restarts
// it; reading hours latches all four registers until tenths is read.
type tod struct {
	sch    *sched.Scheduler
	parent *CIA
	event  *sched.Event

	// Cycles per tenth of a second, in 1/128 cycle fixed point.
	period uint64
	cycles uint64

	clock   [4]byte // tenths, seconds, minutes, hours, running count
	latch   [4]byte
	alarm   [4]byte
	latched bool
	stopped bool
}

const (
	todTen = iota
	todSec
	todMin
	todHr
)

func newTod(parent *CIA, s *sched.Scheduler) *tod {
	t := &tod{sch: s, parent: parent}
	t.event = sched.NewEvent("CIA Time of Day", t.tick)
	return t
}

// setPeriod sets the tenth-of-a-second period from the CPU clock
// frequency. The small fixed point keeps long-term drift away.
func (t *tod) setPeriod(cpuFreq float64) {
	t.period = uint64(cpuFreq/10.0*128.0 + 0.5)
}

func (t *tod) reset() {
	t.cycles = 0
	t.clock = [4]byte{0, 0, 0, 1} // power up at 1:00:00.0 AM
	t.latch = [4]byte{}
	t.alarm = [4]byte{}
	t.latched = false
	t.stopped = true

	t.sch.Cancel(t.event)
	t.sch.Schedule(t.event, 0, sched.Phi1)
}

func (t *tod) read(reg uint8) uint8 {
	// TOD is latched on reads of hours until tenths is read, so the
	// CPU cannot observe a carry mid-way.
	if !t.latched {
		copy(t.latch[:], t.clock[:])
	}

	switch reg {
	case todHr:
		t.latched = true
	case todTen:
		t.latched = false
	}
	return t.latch[reg]
}

func (t *tod) write(reg uint8, v uint8, toAlarm bool) {
	switch reg {
	case todTen:
		v &= 0x0f
	case todSec, todMin:
		v &= 0x7f
	case todHr:
		v &= 0x9f
	}

	if toAlarm {
		t.alarm[reg] = v
		t.checkAlarm()
		return
	}

	switch reg {
	case todHr:
		// Writing 12 AM/PM flips around; the hours write also stops
		// the clock until tenths is written.
		if v&0x1f == 0x12 {
			v ^= 0x80
		}
		t.stopped = true
	case todTen:
		t.stopped = false
	}
	t.clock[reg] = v
	t.checkAlarm()
}

// tick fires every tenth of a second of emulated time.
func (t *tod) tick() {
	t.cycles += t.period

	// Reschedule one tenth of a second ahead, keeping the fractional
	// cycles in the low 7 bits.
	next := t.cycles >> 7
	t.cycles &= 127
	t.sch.Schedule(t.event, next, sched.Phi1)

	if t.stopped {
		return
	}

	// BCD increment with carries, tenths through hours.
	t.clock[todTen] = bcdInc(t.clock[todTen], 0x09, 0x0f)
	if t.clock[todTen] == 0 {
		t.clock[todSec] = bcdInc(t.clock[todSec], 0x59, 0x7f)
		if t.clock[todSec] == 0 {
			t.clock[todMin] = bcdInc(t.clock[todMin], 0x59, 0x7f)
			if t.clock[todMin] == 0 {
				pm := t.clock[todHr] & 0x80
				hr := t.clock[todHr] & 0x1f
				switch hr {
				case 0x11:
					hr = 0x12
					pm ^= 0x80
				case 0x12:
					hr = 0x01
				case 0x09:
					hr = 0x10
				default:
					hr = bcdInc(hr, 0x12, 0x1f)
				}
				t.clock[todHr] = pm | hr
			}
		}
	}

	t.checkAlarm()
}

func bcdInc(v, wrap, mask byte) byte {
	v++
	if v&0x0f > 0x09 {
		v = (v & 0xf0) + 0x10
	}
	if v > wrap {
		v = 0
	}
	return v & mask
}

func (t *tod) checkAlarm() {
	if t.clock == t.alarm {
		t.parent.todInterrupt()
	}
}

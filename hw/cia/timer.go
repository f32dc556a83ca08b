package cia

import (
	"rezid/emu/sched"
)

// Timer state machine bits, after the VICE ciatimer core. The low byte
// mirrors the control register; the pipeline bits above it are shifted
// one byte (8 bits) left on every clock, which is what delays the effect of a
// control register write by one cycle.
const (
	ciatCRStart   int32 = 1 << 0
	ciatStep      int32 = 1 << 2
	ciatCROneShot int32 = 1 << 3
	ciatCRFLoad   int32 = 1 << 4
	ciatPhi2In    int32 = 1 << 5
	ciatCRMask    int32 = ciatCRStart | ciatCROneShot | ciatCRFLoad | ciatPhi2In

	ciatCount2 int32 = 1 << 8
	ciatCount3 int32 = 1 << 9

	ciatOneShot0 int32 = ciatCROneShot << 8
	ciatOneShot  int32 = ciatCROneShot << 16
	ciatLoad1    int32 = ciatCRFLoad << 8
	ciatLoad     int32 = ciatCRFLoad << 16

	ciatOut int32 = -1 << 31
)

// timer is one of the CIA's two 16-bit down-counters. It advances as a
// self-rescheduling Phi1 event, and skips ahead over stretches of idle
// counting so the scheduler only sees it near interesting edges.
type timer struct {
	name string
	sch  *sched.Scheduler

	// Calls into the owning CIA on underflow / serial shift.
	underflow  func()
	serialPort func()

	event     *sched.Event
	skipEvent *sched.Event

	state            int32
	lastControlValue uint8

	timer uint16
	latch uint16

	// PB6/PB7 underflow flip-flop.
	pbToggleFlag bool

	// 0 when the event is ticking every cycle, -1 while synced with the
	// CPU, otherwise the Phi1 time the cycle skipping started.
	ciaEventPauseTime int64
}

func newTimer(name string, s *sched.Scheduler) *timer {
	t := &timer{name: name, sch: s}
	t.event = sched.NewEvent(name, t.clockEvent)
	t.skipEvent = sched.NewEvent(name+" skip", t.cycleSkippingEvent)
	return t
}

func (t *timer) reset() {
	t.sch.Cancel(t.event)
	t.sch.Cancel(t.skipEvent)
	t.timer = 0xffff
	t.latch = 0xffff
	t.pbToggleFlag = false
	t.state = 0
	t.lastControlValue = 0
	t.ciaEventPauseTime = 0
	t.sch.Schedule(t.event, 1, sched.Phi1)
}

// setControlRegister pipelines a control register write: the observed
// bits take effect one cycle later through the state machine.
func (t *timer) setControlRegister(cr uint8) {
	t.state &= ^ciatCRMask
	t.state |= int32(cr)&ciatCRMask ^ ciatPhi2In
	t.lastControlValue = cr
}

// syncWithCpu brings the timer up to date before the CPU touches any of
// its registers.
func (t *timer) syncWithCpu() {
	if t.ciaEventPauseTime > 0 {
		t.sch.Cancel(t.skipEvent)
		elapsed := int64(t.sch.Time(sched.Phi2)) - t.ciaEventPauseTime
		// The CIA can decide to sleep starting from the next cycle and
		// have its plans aborted by the CPU; do not wind the state
		// backwards if the first sleep cycle is still in the future.
		if elapsed >= 0 {
			t.timer -= uint16(elapsed)
			t.clock()
		}
	}
	if t.ciaEventPauseTime == 0 {
		t.sch.Cancel(t.event)
	}
	t.ciaEventPauseTime = -1
}

func (t *timer) wakeUpAfterSyncWithCpu() {
	t.ciaEventPauseTime = 0
	t.sch.Schedule(t.event, 0, sched.Phi1)
}

func (t *timer) clockEvent() {
	t.clock()
	t.reschedule()
}

// cycleSkippingEvent fires just before an underflow after a stretch of
// skipped idle cycles, and re-enters normal per-cycle operation.
func (t *timer) cycleSkippingEvent() {
	elapsed := int64(t.sch.Time(sched.Phi1)) - t.ciaEventPauseTime
	t.ciaEventPauseTime = 0
	t.timer -= uint16(elapsed)
	t.clockEvent()
}

// clock performs one Phi1 tick of the state machine.
func (t *timer) clock() {
	if t.timer != 0 && t.state&ciatCount3 != 0 {
		t.timer--
	}

	// Advance the state pipeline. Note the ordering: CR_FLOAD ->
	// LOAD1 -> LOAD and CR_ONESHOT -> ONESHOT0 -> ONESHOT each take two
	// cycles to propagate.
	adj := t.state & (ciatCRStart | ciatCROneShot | ciatPhi2In)
	if t.state&(ciatCRStart|ciatPhi2In) == ciatCRStart|ciatPhi2In {
		adj |= ciatCount2
	}
	if t.state&ciatCount2 != 0 ||
		t.state&(ciatStep|ciatCRStart) == ciatStep|ciatCRStart {
		adj |= ciatCount3
	}
	adj |= (t.state & (ciatCRFLoad | ciatCROneShot | ciatLoad1 | ciatOneShot0)) << 8
	t.state = adj

	if t.timer == 0 && t.state&ciatCount3 != 0 {
		// Underflow. Underflow happens before reload; a pending
		// load-then-stop beats a freshly written start bit.
		t.state |= ciatLoad | ciatOut

		if t.state&(ciatOneShot|ciatOneShot0) != 0 {
			t.state &= ^(ciatCRStart | ciatCount2)
		}

		// By setting bits 2&3 of the control register the underflow is
		// signalled on PB6/PB7 as a toggling level.
		if t.lastControlValue&0x06 == 6 {
			t.pbToggleFlag = !t.pbToggleFlag
		}

		t.underflow()
		t.serialPort()
	}

	if t.state&ciatLoad != 0 {
		t.timer = t.latch
		t.state &= ^ciatCount3
	}
}

// reschedule decides whether the timer needs to run next cycle, can skip
// ahead to just before its underflow, or can go fully idle.
func (t *timer) reschedule() {
	// Flags that are only present in a passing manner but must cycle
	// through the state machine.
	const unwanted = ciatOut | ciatCRFLoad | ciatLoad1 | ciatLoad
	if t.state&unwanted != 0 {
		t.sch.Schedule(t.event, 1, sched.Phi1)
		return
	}

	if t.state&ciatCount3 != 0 {
		// Steady state counting: skip ahead to just before underflow.
		const wanted = ciatCRStart | ciatPhi2In | ciatCount2 | ciatCount3
		if t.timer > 2 && t.state&wanted == wanted {
			// This cycle was executed, so the pause time is +1. If the
			// skip event fires on the very next clock the elapsed count
			// must come out as zero.
			t.ciaEventPauseTime = int64(t.sch.Time(sched.Phi1)) + 1
			t.sch.Schedule(t.skipEvent, uint64(t.timer-1), sched.Phi1)
			return
		}

		t.sch.Schedule(t.event, 1, sched.Phi1)
		return
	}

	// Conditions that cause CIA activity in the next cycle; if none
	// apply the timer deactivates itself.
	const unwanted1 = ciatCRStart | ciatPhi2In
	const unwanted2 = ciatCRStart | ciatStep

	if t.state&unwanted1 == unwanted1 || t.state&unwanted2 == unwanted2 {
		t.sch.Schedule(t.event, 1, sched.Phi1)
		return
	}
}

// cascade receives an underflow from the other timer (linked mode). The
// step is applied as if the CPU had written the control register.
func (t *timer) cascade() {
	t.syncWithCpu()
	t.state |= ciatStep
	t.wakeUpAfterSyncWithCpu()
}

func (t *timer) started() bool { return t.state&ciatCRStart != 0 }

func (t *timer) getTimer() uint16 { return t.timer }

// getPb returns the timer output as it appears on PB6/PB7.
func (t *timer) getPb(cr uint8) bool {
	if cr&0x04 != 0 {
		return t.pbToggleFlag
	}
	return t.state&ciatOut != 0
}

func (t *timer) setPbToggle(v bool) { t.pbToggleFlag = v }

func (t *timer) latchLo(v uint8) {
	t.latch = t.latch&0xff00 | uint16(v)
	if t.state&ciatLoad != 0 {
		t.timer = t.timer&0xff00 | uint16(v)
	}
}

func (t *timer) latchHi(v uint8) {
	t.latch = t.latch&0x00ff | uint16(v)<<8
	if t.state&ciatLoad != 0 {
		t.timer = t.timer&0x00ff | uint16(v)<<8
	} else if t.state&ciatCRStart == 0 {
		// A high-byte write while the timer is stopped loads the timer.
		t.timer = t.latch
	}
}

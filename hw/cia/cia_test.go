package cia

import (
	"testing"

	"rezid/emu/sched"
)

// testRig drives a CIA with a per-cycle ticker event standing in for the
// CPU, reading the ICR to acknowledge interrupts like a service routine
// would.
type testRig struct {
	sch  *sched.Scheduler
	cia  *CIA
	tick *sched.Event

	cycle       uint64
	irqRaised   bool
	asserts     []uint64
	ackOnAssert bool
}

func newRig(model Model) *testRig {
	r := &testRig{sch: &sched.Scheduler{}, ackOnAssert: true}
	r.cia = New("CIA1", r.sch)
	r.cia.SetModel(model)
	r.cia.SetTodClock(985248)
	r.cia.Interrupt = func(state bool) {
		if state {
			r.irqRaised = true
			r.asserts = append(r.asserts, r.sch.Time(sched.Phi1))
		}
	}
	r.cia.Reset()

	r.tick = sched.NewEvent("cpu tick", func() {
		r.cycle++
		if r.irqRaised && r.ackOnAssert {
			r.irqRaised = false
			r.cia.Read(regICR)
		}
		r.sch.Schedule(r.tick, 1, sched.Phi2)
	})
	r.sch.Schedule(r.tick, 1, sched.Phi2)
	return r
}

func (r *testRig) run(cycles uint64) {
	until := r.cycle + cycles
	for r.cycle < until {
		r.sch.Clock()
	}
}

// A free-running timer A started with latch L underflows every L+1
// cycles.
func TestTimerAUnderflowPeriod(t *testing.T) {
	for _, model := range []Model{MOS6526, MOS8521} {
		r := newRig(model)

		const latch = 100
		r.cia.Write(regTAL, latch)
		r.cia.Write(regTAH, 0)
		r.cia.Write(regICR, 0x81)
		r.cia.Write(regCRA, 0x01)

		r.run(2000)

		if len(r.asserts) < 3 {
			t.Fatalf("model %d: only %d interrupts in 2000 cycles", model, len(r.asserts))
		}
		for i := 1; i < len(r.asserts); i++ {
			if got := r.asserts[i] - r.asserts[i-1]; got != latch+1 {
				t.Errorf("model %d: underflow interval %d = %d, want %d",
					model, i, got, latch+1)
			}
		}
	}
}

// In linked mode timer B counts timer A underflows.
func TestTimerBLinkedMode(t *testing.T) {
	r := newRig(MOS8521)

	const latchA = 9
	const latchB = 3

	r.cia.Write(regTAL, latchA)
	r.cia.Write(regTAH, 0)
	r.cia.Write(regTBL, latchB)
	r.cia.Write(regTBH, 0)
	r.cia.Write(regICR, 0x82)   // timer B interrupts only
	r.cia.Write(regCRB, 0x41)   // start B, count A underflows
	r.cia.Write(regCRA, 0x01)   // start A

	r.run(2000)

	if len(r.asserts) < 3 {
		t.Fatalf("only %d timer B interrupts in 2000 cycles", len(r.asserts))
	}
	want := uint64((latchA + 1) * (latchB + 1))
	for i := 1; i < len(r.asserts); i++ {
		if got := r.asserts[i] - r.asserts[i-1]; got != want {
			t.Errorf("linked underflow interval %d = %d, want %d", i, got, want)
		}
	}
}

// One-shot mode stops the timer after a single underflow.
func TestTimerAOneShot(t *testing.T) {
	r := newRig(MOS8521)

	r.cia.Write(regTAL, 50)
	r.cia.Write(regTAH, 0)
	r.cia.Write(regICR, 0x81)
	r.cia.Write(regCRA, 0x09) // start, one-shot

	r.run(1000)

	if len(r.asserts) != 1 {
		t.Fatalf("got %d interrupts from a one-shot timer, want 1", len(r.asserts))
	}
	if r.cia.Read(regCRA)&0x01 != 0 {
		t.Error("start bit still set after one-shot underflow")
	}
}

// On the 6526 the interrupt line asserts one cycle after the underflow;
// on the 8521 it follows immediately.
func TestInterruptDelay(t *testing.T) {
	times := map[Model]uint64{}
	for _, model := range []Model{MOS6526, MOS8521} {
		r := newRig(model)

		r.cia.Write(regTAL, 80)
		r.cia.Write(regTAH, 0)
		r.cia.Write(regICR, 0x81)
		r.cia.Write(regCRA, 0x01)

		r.run(200)
		if len(r.asserts) == 0 {
			t.Fatalf("model %d: no interrupt", model)
		}
		times[model] = r.asserts[0]
	}

	if times[MOS6526] != times[MOS8521]+1 {
		t.Errorf("6526 assert at %d, 8521 at %d; want old chip one cycle later",
			times[MOS6526], times[MOS8521])
	}
}

// Reading the hours register latches the TOD until tenths is read.
func TestTODLatch(t *testing.T) {
	r := newRig(MOS8521)

	// Start the clock: writing tenths releases the stop.
	r.cia.Write(regTODHr, 0x01)
	r.cia.Write(regTODMin, 0x00)
	r.cia.Write(regTODSec, 0x00)
	r.cia.Write(regTODTen, 0x00)

	hr := r.cia.Read(regTODHr) // latches
	min := r.cia.Read(regTODMin)

	// Run for more than a tenth of a second of emulated time.
	r.run(200000)

	if got := r.cia.Read(regTODMin); got != min {
		t.Errorf("minutes changed while latched: %#x -> %#x", min, got)
	}
	if got := r.cia.Read(regTODHr); got != hr {
		t.Errorf("hours changed while latched: %#x -> %#x", hr, got)
	}

	// Reading tenths releases the latch; afterwards the clock is seen
	// running again.
	before := r.cia.Read(regTODTen)
	r.run(200000)
	if got := r.cia.Read(regTODTen); got == before {
		t.Error("tenths did not advance after releasing the latch")
	}
}

// Writing a mask bit for an already-latched flag raises the interrupt.
func TestICRLateMaskEnable(t *testing.T) {
	r := newRig(MOS6526)
	r.ackOnAssert = false

	r.cia.Write(regTAL, 30)
	r.cia.Write(regTAH, 0)
	r.cia.Write(regCRA, 0x01) // no mask: the flag latches silently

	r.run(200)
	if len(r.asserts) != 0 {
		t.Fatal("interrupt asserted without mask")
	}

	r.cia.Write(regICR, 0x81)
	r.run(4)

	if len(r.asserts) == 0 {
		t.Error("no interrupt after enabling the mask for a latched flag")
	}
}

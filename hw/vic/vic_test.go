package vic

import (
	"testing"

	"rezid/emu/sched"
)

func TestRasterIRQPeriod(t *testing.T) {
	s := &sched.Scheduler{}
	v := New(s)
	v.SetModel(MOS6569)

	var asserts []uint64
	v.Interrupt = func(state bool) {
		if state {
			asserts = append(asserts, s.Time(sched.Phi1))
			// Acknowledge like an interrupt handler would.
			v.Write(0x19, v.Read(0x19))
		}
	}
	v.Reset()

	// Interrupt on line 100.
	v.Write(0x12, 100)
	v.Write(0x1a, 0x01)

	frame := uint64(MOS6569.CyclesPerLine * MOS6569.RasterLines)
	s.RunUntil(sched.Clock(3*frame) * 2)

	if len(asserts) < 2 {
		t.Fatalf("got %d raster interrupts in 3 frames", len(asserts))
	}
	for i := 1; i < len(asserts); i++ {
		if got := asserts[i] - asserts[i-1]; got != frame {
			t.Errorf("raster interval %d = %d cycles, want %d", i, got, frame)
		}
	}
}

func TestRasterCompareBit8(t *testing.T) {
	s := &sched.Scheduler{}
	v := New(s)
	v.Reset()

	v.Write(0x12, 0x37)
	v.Write(0x11, 0x80) // raster compare bit 8

	if v.rasterCmp != 0x137 {
		t.Errorf("raster compare = %#x, want 0x137", v.rasterCmp)
	}
}

func TestBadLineStealing(t *testing.T) {
	s := &sched.Scheduler{}
	v := New(s)

	stolen := uint32(0)
	v.Steal = func(n uint32) { stolen += n }
	v.Reset()

	v.Write(0x11, 0x1b) // display enabled, yscroll 3

	// One full frame: 25 bad lines in the display window.
	frame := uint64(MOS6569.CyclesPerLine * MOS6569.RasterLines)
	s.RunUntil(sched.Clock(frame) * 2)

	if stolen == 0 {
		t.Fatal("no cycles stolen in a frame with display enabled")
	}
	if want := uint32(25 * 43); stolen != want {
		t.Errorf("stolen = %d cycles per frame, want %d", stolen, want)
	}
}

package sid

import "testing"

func TestBusValueFade(t *testing.T) {
	s := New(MOS6581)

	s.Write(0x00, 0x42)
	if got := s.Read(0x00); got != 0x42 {
		t.Errorf("read-back of write-only register = %#x, want bus value 0x42", got)
	}

	// Each read of a write-only register halves the residual TTL; the
	// value still reads back while the TTL is alive.
	s.Write(0x00, 0x42)
	s.ClockSilent(busTTL6581 / 4)
	if got := s.Read(0x00); got != 0x42 {
		t.Errorf("bus value = %#x before TTL elapsed, want 0x42", got)
	}

	// After the full model TTL the bus has discharged.
	s.Write(0x00, 0x42)
	s.ClockSilent(busTTL6581 + 1)
	if got := s.Read(0x00); got != 0 {
		t.Errorf("bus value = %#x after TTL elapsed, want 0", got)
	}
}

func TestBusTTLModelSpecific(t *testing.T) {
	s := New(MOS8580)

	// The 8580 bus holds its value far longer than the 6581.
	s.Write(0x00, 0x99)
	s.ClockSilent(busTTL6581 + 1)
	if got := s.Read(0x00); got != 0x99 {
		t.Errorf("8580 bus value = %#x after 6581 TTL, want 0x99", got)
	}
}

func TestOSC3AndENV3Readable(t *testing.T) {
	s := New(MOS8580)

	// Sawtooth on voice 3, let it run, then sample OSC3.
	s.Write(0x0e, 0xff)
	s.Write(0x0f, 0xff)
	s.Write(0x12, 0x20)

	s.ClockSilent(1000)

	if got := s.Read(0x1b); got == 0 {
		t.Error("OSC3 = 0 after clocking a fast sawtooth, want non-zero")
	}
}

func TestMutedVoiceSeesZeroControl(t *testing.T) {
	s := New(MOS6581)
	s.Mute(0, true)

	s.Write(0x04, 0x11) // gate + triangle
	if s.voices[0].wave.waveform != 0 {
		t.Errorf("muted voice waveform = %d, want 0", s.voices[0].wave.waveform)
	}
	if s.voices[0].envelope.gate {
		t.Error("muted voice gate set, want cleared")
	}

	s.Mute(0, false)
	s.Write(0x04, 0x11)
	if s.voices[0].wave.waveform != 1 {
		t.Errorf("unmuted voice waveform = %d, want 1", s.voices[0].wave.waveform)
	}
}

func TestPotReadback(t *testing.T) {
	s := New(MOS6581)
	s.SetPot(0x34, 0x56)

	if got := s.Read(0x19); got != 0x34 {
		t.Errorf("POT X = %#x, want 0x34", got)
	}
	if got := s.Read(0x1a); got != 0x56 {
		t.Errorf("POT Y = %#x, want 0x56", got)
	}
}

func TestClockProducesSamples(t *testing.T) {
	s := New(MOS6581)
	if err := s.SetSamplingParameters(985248, Decimate, 44100); err != nil {
		t.Fatal(err)
	}
	s.Reset()

	// Gate a loud sawtooth on voice 1, full volume.
	s.Write(0x18, 0x0f)
	s.Write(0x00, 0xff)
	s.Write(0x01, 0x1f)
	s.Write(0x05, 0x00)
	s.Write(0x06, 0xf0)
	s.Write(0x04, 0x21)

	buf := make([]int16, 2048)
	n := s.Clock(20000, buf)

	// 20000 cycles at ~985kHz -> ~895 samples at 44.1kHz.
	if n < 800 || n > 1000 {
		t.Fatalf("produced %d samples for 20000 cycles, want ~895", n)
	}

	nonZero := false
	for _, v := range buf[:n] {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("all samples are zero with a gated sawtooth at full volume")
	}
}

func TestVoiceSyncDeadline(t *testing.T) {
	s := New(MOS6581)

	// Voice 1 oscillates and voice 2 has sync set: voice 1's accumulator
	// MSB crossing becomes the sync deadline.
	s.Write(0x00, 0x00)
	s.Write(0x01, 0x10) // freq 0x1000
	s.Write(0x0b, 0x02) // voice 2: sync

	want := ((0x7fffff-s.voices[0].wave.readAccumulator())&0xffffff)/0x1000 + 1
	if s.nextVoiceSync != want {
		t.Errorf("nextVoiceSync = %d, want %d", s.nextVoiceSync, want)
	}
}

package player

import (
	"encoding/binary"
	"errors"
	"testing"

	"rezid/tune"
	"rezid/tune/asm"
)

// makePSID builds a PSID v2 image around the given code: init at the
// image start, play at image start + playOff (0 = no play routine).
func makePSID(load uint16, playOff uint16, speed uint32, code []byte) []uint8 {
	buf := make([]uint8, 0x7c)
	copy(buf, "PSID")
	binary.BigEndian.PutUint16(buf[4:], 2)    // version
	binary.BigEndian.PutUint16(buf[6:], 0x7c) // dataOffset
	binary.BigEndian.PutUint16(buf[8:], load)
	binary.BigEndian.PutUint16(buf[10:], load) // init
	if playOff != 0 {
		binary.BigEndian.PutUint16(buf[12:], load+playOff)
	}
	binary.BigEndian.PutUint16(buf[14:], 1) // songs
	binary.BigEndian.PutUint16(buf[16:], 1) // startSong
	binary.BigEndian.PutUint32(buf[18:], speed)
	copy(buf[22:], "test tune")

	return append(buf, code...)
}

// beepTune returns code that sets up a loud sawtooth on voice 1 in init
// and bumps the frequency from play.
func beepTune(load uint16) []byte {
	a := asm.New(load)
	a.LDAimm(0x0f)
	a.STAabs(0xd418) // volume
	a.LDAimm(0x1f)
	a.STAabs(0xd401) // freq hi
	a.LDAimm(0x00)
	a.STAabs(0xd405)
	a.LDAimm(0xf0)
	a.STAabs(0xd406) // sustain 15
	a.LDAimm(0x21)
	a.STAabs(0xd404) // sawtooth + gate
	a.RTS()

	code := a.Assemble()
	// Pad to the play entry at +0x20.
	for len(code) < 0x20 {
		code = append(code, 0xea)
	}

	pl := asm.New(load + 0x20)
	pl.INCabs(0xd401)
	pl.RTS()
	return append(code, pl.Assemble()...)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Frequency = 44100
	cfg.SamplingMethod = Interpolate // keep table building out of the hot path
	cfg.PowerOnDelay = 0x100
	return cfg
}

func loadBeep(t *testing.T, speed uint32) *Player {
	t.Helper()

	img := makePSID(0x1000, 0x20, speed, beepTune(0x1000))
	tn, err := tune.Load("beep.sid", img)
	if err != nil {
		t.Fatal(err)
	}

	p := New()
	if err := p.Config(testConfig()); err != nil {
		t.Fatal(err)
	}
	if err := p.Load(tn); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPlayProducesSamples(t *testing.T) {
	for _, speed := range []uint32{0, 1} { // VBI and CIA cadence
		p := loadBeep(t, speed)

		buf := make([]int16, 8192)
		n, err := p.Play(buf, len(buf))
		if err != nil {
			t.Fatalf("speed %d: play failed: %v", speed, err)
		}
		if n != len(buf) {
			t.Fatalf("speed %d: got %d samples, want %d", speed, n, len(buf))
		}

		nonZero := 0
		for _, v := range buf[:n] {
			if v != 0 {
				nonZero++
			}
		}
		if nonZero == 0 {
			t.Errorf("speed %d: output is all zeroes", speed)
		}
	}
}

func TestPlayRoutineRuns(t *testing.T) {
	p := loadBeep(t, 1) // CIA cadence

	// Run for about half a second of emulated time with the CIA-driven
	// play routine installed; playback must run without error and the
	// emulated clock must advance past 300 ms.
	buf := make([]int16, 4096)
	for i := 0; i < 5; i++ {
		if _, err := p.Play(buf, len(buf)); err != nil {
			t.Fatal(err)
		}
	}

	if p.TimeMs() < 300 {
		t.Fatalf("only %d ms elapsed", p.TimeMs())
	}
}

func TestStopResets(t *testing.T) {
	p := loadBeep(t, 0)

	buf := make([]int16, 2048)
	if _, err := p.Play(buf, len(buf)); err != nil {
		t.Fatal(err)
	}

	p.Stop()
	if _, err := p.Play(buf, len(buf)); err != nil {
		t.Fatal(err)
	}

	// A fresh Play starts over from a clean machine.
	if _, err := p.Play(buf, len(buf)); err != nil {
		t.Fatal(err)
	}
}

func TestHaltSurfacesRuntimeError(t *testing.T) {
	img := makePSID(0x1000, 0, 0, []byte{0x02}) // init is a JAM opcode
	tn, err := tune.Load("halt.sid", img)
	if err != nil {
		t.Fatal(err)
	}

	p := New()
	if err := p.Config(testConfig()); err != nil {
		t.Fatal(err)
	}
	if err := p.Load(tn); err != nil {
		t.Fatal(err)
	}

	buf := make([]int16, 2048)
	_, err = p.Play(buf, len(buf))

	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want RuntimeError", err)
	}
	if p.Error() != "Illegal instruction executed" {
		t.Errorf("error string = %q", p.Error())
	}

	// The engine recovers: the next Play runs again from reset.
	if _, err := p.Play(buf, len(buf)); err == nil {
		t.Log("second play after halt restarted the tune")
	}
}

func TestDryRun(t *testing.T) {
	p := loadBeep(t, 0)

	n, err := p.Play(nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("dry run wrote %d samples", n)
	}
	if p.TimeMs() == 0 {
		t.Error("dry run did not advance the machine")
	}
}

func TestUnsupportedFrequency(t *testing.T) {
	p := New()
	cfg := DefaultConfig()
	cfg.Frequency = 4000

	err := p.Config(cfg)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want ConfigError", err)
	}
	if ce.Msg != "SIDPLAYER ERROR: Unsupported sampling frequency." {
		t.Errorf("message = %q", ce.Msg)
	}
}

func TestFastForwardRange(t *testing.T) {
	p := New()
	if err := p.FastForward(100); err != nil {
		t.Errorf("100%% rejected: %v", err)
	}
	if err := p.FastForward(3200); err != nil {
		t.Errorf("3200%% rejected: %v", err)
	}
	if err := p.FastForward(50); err == nil {
		t.Error("50%% accepted, want error")
	}
	if err := p.FastForward(3300); err == nil {
		t.Error("3300%% accepted, want error")
	}
}

func TestBasicTuneNeedsRom(t *testing.T) {
	prg := []uint8{0x01, 0x08, 0xea, 0x60}
	tn, err := tune.Load("test.prg", prg)
	if err != nil {
		t.Fatal(err)
	}

	p := New()
	if err := p.Config(testConfig()); err != nil {
		t.Fatal(err)
	}

	err = p.Load(tn)
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want ConfigError about the BASIC ROM", err)
	}
}

func TestDriverAvoidsTuneMemory(t *testing.T) {
	p := loadBeep(t, 0)

	info := p.Info()
	if info.DriverAddr == 0 {
		t.Fatal("driver not installed")
	}
	tuneStart := uint16(0x1000)
	tuneEnd := tuneStart + uint16(len(p.tune.Data))
	if info.DriverAddr >= tuneStart && info.DriverAddr < tuneEnd {
		t.Errorf("driver at %#x overlaps the tune image", info.DriverAddr)
	}
}

func TestMuteVoice(t *testing.T) {
	p := loadBeep(t, 0)
	p.Mute(0, 0, true)

	buf := make([]int16, 8192)
	if _, err := p.Play(buf, len(buf)); err != nil {
		t.Fatal(err)
	}
	// Skip the external filter's DC settling, then expect near-silence
	// from the muted voice.
	for _, v := range buf[4096:] {
		if v > 1024 || v < -1024 {
			t.Fatalf("sample %d with muted voice, want near-silence", v)
		}
	}
}

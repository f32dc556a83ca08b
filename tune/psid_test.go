package tune

import (
	"errors"
	"testing"
)

const bufferSize = 128

// Header field offsets used by the tests.
const (
	versionLo        = 5
	dataOffsetLo     = 7
	loadAddressLo    = 9
	initAddressHi    = 10
	initAddressLo    = 11
	playAddressLo    = 13
	songsHi          = 14
	songsLo          = 15
	speedLoLo        = 21
	startPage        = 120
	pageLength       = 121
	secondSIDAddress = 122
	thirdSIDAddress  = 123
)

func rsidBuffer() []uint8 {
	buf := make([]uint8, bufferSize)
	copy(buf, "RSID")
	buf[5] = 0x02  // version
	buf[7] = 0x7c  // dataOffset
	buf[15] = 0x01 // songs
	// Data: embedded load address $07E8 plus two bytes of payload.
	buf[124] = 0xe8
	buf[125] = 0x07
	return buf
}

func wantLoadError(t *testing.T, data []uint8, msg string) {
	t.Helper()
	_, err := Load("test.sid", data)
	if err == nil {
		t.Fatalf("load succeeded, want error %q", msg)
	}
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("error type %T, want *LoadError", err)
	}
	if le.Msg != msg {
		t.Errorf("error = %q, want %q", le.Msg, msg)
	}
}

func TestLoadOK(t *testing.T) {
	tn, err := Load("test.sid", rsidBuffer())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if tn.LoadAddr != 0x07e8 {
		t.Errorf("load address = %#x, want 0x07e8", tn.LoadAddr)
	}
	if tn.Compat != CompatR64 {
		t.Errorf("compat = %v, want R64", tn.Compat)
	}
}

func TestUnsupportedRSIDVersion(t *testing.T) {
	data := rsidBuffer()
	data[versionLo] = 0x01
	wantLoadError(t, data, "Unsupported RSID version")
}

func TestWrongLoadAddress(t *testing.T) {
	data := rsidBuffer()
	data[loadAddressLo] = 0xff
	wantLoadError(t, data, "SIDTUNE ERROR: File contains invalid data")
}

func TestWrongActualLoadAddress(t *testing.T) {
	data := rsidBuffer()
	data[124] = 0xe7
	data[125] = 0x07
	wantLoadError(t, data, "SIDTUNE ERROR: Bad address data")
}

func TestWrongPlayAddress(t *testing.T) {
	data := rsidBuffer()
	data[playAddressLo] = 0xff
	wantLoadError(t, data, "SIDTUNE ERROR: File contains invalid data")
}

func TestWrongSpeed(t *testing.T) {
	data := rsidBuffer()
	data[speedLoLo] = 0xff
	wantLoadError(t, data, "SIDTUNE ERROR: File contains invalid data")
}

func TestWrongDataOffset(t *testing.T) {
	data := rsidBuffer()
	data[dataOffsetLo] = 0x76
	wantLoadError(t, data, "SIDTUNE ERROR: Bad address data")
}

func TestWrongInitAddressRom(t *testing.T) {
	data := rsidBuffer()
	data[initAddressHi] = 0xb0
	wantLoadError(t, data, "SIDTUNE ERROR: Bad address data")
}

func TestWrongInitAddressTooLow(t *testing.T) {
	data := rsidBuffer()
	data[initAddressHi] = 0x07
	data[initAddressLo] = 0xe7
	wantLoadError(t, data, "SIDTUNE ERROR: Bad address data")
}

func TestTooManySongs(t *testing.T) {
	data := rsidBuffer()
	data[songsHi] = 0x01
	data[songsLo] = 0x01

	tn, err := Load("test.sid", data)
	if err != nil {
		t.Fatal(err)
	}
	if tn.Songs != 256 {
		t.Errorf("songs = %d, want clamped to 256", tn.Songs)
	}
}

func TestDefaultStartSong(t *testing.T) {
	tn, err := Load("test.sid", rsidBuffer())
	if err != nil {
		t.Fatal(err)
	}
	if tn.StartSong != 1 {
		t.Errorf("start song = %d, want 1", tn.StartSong)
	}
}

func TestWrongPageLength(t *testing.T) {
	data := rsidBuffer()
	data[startPage] = 0xff
	data[pageLength] = 0x77

	tn, err := Load("test.sid", data)
	if err != nil {
		t.Fatal(err)
	}
	if tn.RelocPages != 0 {
		t.Errorf("reloc pages = %d, want 0", tn.RelocPages)
	}
}

func TestSecondSIDAddress(t *testing.T) {
	tests := []struct {
		value uint8
		want  uint16
	}{
		{0x42, 0xd420}, // valid
		{0x43, 0},      // odd values are invalid
		{0x80, 0},      // $D800-$DDF0 range is reserved
	}

	for _, tt := range tests {
		data := rsidBuffer()
		data[versionLo] = 0x03
		data[secondSIDAddress] = tt.value

		tn, err := Load("test.sid", data)
		if err != nil {
			t.Fatal(err)
		}
		if got := tn.SidChipBase(1); got != tt.want {
			t.Errorf("second SID %#02x: base = %#x, want %#x", tt.value, got, tt.want)
		}
	}
}

func TestThirdSIDAddress(t *testing.T) {
	tests := []struct {
		second, third uint8
		want          uint16
	}{
		{0x42, 0x50, 0xd500}, // valid
		{0x42, 0x43, 0},      // odd
		{0x42, 0x80, 0},      // reserved range
		{0x42, 0x42, 0},      // same as second SID
	}

	for _, tt := range tests {
		data := rsidBuffer()
		data[versionLo] = 0x04
		data[secondSIDAddress] = tt.second
		data[thirdSIDAddress] = tt.third

		tn, err := Load("test.sid", data)
		if err != nil {
			t.Fatal(err)
		}
		if got := tn.SidChipBase(2); got != tt.want {
			t.Errorf("third SID %#02x: base = %#x, want %#x", tt.third, got, tt.want)
		}
	}
}

func TestUnknownFormat(t *testing.T) {
	wantLoadError(t, []uint8{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a},
		"SIDTUNE ERROR: Could not determine file format")
}

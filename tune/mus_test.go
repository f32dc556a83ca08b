package tune

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// musBuffer builds a minimal valid Sidplayer file: three one-note voice
// streams, each ending with the HLT command, plus two credit lines.
func musBuffer() []uint8 {
	voice := []uint8{
		0x21, 0x04, // one note
		0x4f, 0x01, // HLT
	}

	var buf []uint8
	buf = binary.LittleEndian.AppendUint16(buf, 0x0900) // load address
	for i := 0; i < 3; i++ {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(voice)))
	}
	for i := 0; i < 3; i++ {
		buf = append(buf, voice...)
	}
	// PETSCII credits: "TITLE" CR "AUTHOR" NUL
	buf = append(buf, 0x54, 0x49, 0x54, 0x4c, 0x45, 0x0d)
	buf = append(buf, 0x41, 0x55, 0x54, 0x48, 0x4f, 0x52, 0x00)
	return buf
}

func TestMUSLoad(t *testing.T) {
	tn, err := Load("test.mus", musBuffer())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if tn.LoadAddr != 0x0900 {
		t.Errorf("load address = %#x, want 0x0900", tn.LoadAddr)
	}
	if tn.InitAddr != musPlayerAddr {
		t.Errorf("init = %#x, want the installed player at %#x", tn.InitAddr, musPlayerAddr)
	}
	if diff := cmp.Diff([]string{"title", "author"}, tn.Info); diff != "" {
		t.Errorf("credits mismatch (-want +got):\n%s", diff)
	}
}

// A voice length that does not land on an HLT command means the file is
// not recognized as MUS at all.
func TestMUSWrongVoiceLength(t *testing.T) {
	data := musBuffer()
	data[2] = 0x76 // voice 1 length low byte

	wantLoadError(t, data, "SIDTUNE ERROR: Could not determine file format")
}

type fakeMem struct {
	ram [0x10000]uint8
}

func (m *fakeMem) FillRam(start uint16, src []uint8)     { copy(m.ram[start:], src) }
func (m *fakeMem) WriteMemByte(addr uint16, v uint8)     { m.ram[addr] = v }
func (m *fakeMem) WriteMemWord(addr uint16, v uint16)    { m.ram[addr] = uint8(v); m.ram[addr+1] = uint8(v >> 8) }

func TestMUSInstallsPlayer(t *testing.T) {
	tn, err := Load("test.mus", musBuffer())
	if err != nil {
		t.Fatal(err)
	}

	mem := &fakeMem{}
	if err := tn.PlaceInC64Mem(mem); err != nil {
		t.Fatal(err)
	}

	// Data at $0900, interpreter at its fixed address, entry points are
	// JMPs.
	if mem.ram[0x0900] != 4 {
		t.Errorf("voice 1 length at $0900 = %d, want 4", mem.ram[0x0900])
	}
	if mem.ram[musPlayerAddr] != 0x4c || mem.ram[musPlayerAddr+3] != 0x4c {
		t.Error("player entry points are not JMP instructions")
	}
}

func TestPlaceRoundTrip(t *testing.T) {
	tn, err := Load("test.sid", rsidBuffer())
	if err != nil {
		t.Fatal(err)
	}

	mem := &fakeMem{}
	if err := tn.PlaceInC64Mem(mem); err != nil {
		t.Fatal(err)
	}

	for i, b := range tn.Data {
		if mem.ram[int(tn.LoadAddr)+i] != b {
			t.Fatalf("RAM[%#x] = %#x, want %#x", int(tn.LoadAddr)+i, mem.ram[int(tn.LoadAddr)+i], b)
		}
	}
}

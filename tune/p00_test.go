package tune

import "testing"

func p00Buffer() []uint8 {
	buf := []uint8("C64File\x00")
	name := make([]uint8, 17)
	copy(name, "DEMO SONG") // PETSCII digits/upper match ASCII here
	buf = append(buf, name...)
	buf = append(buf, 0x00)             // record length
	buf = append(buf, 0x01, 0x08)       // load address $0801
	buf = append(buf, 0xea, 0xea, 0x60) // payload
	return buf
}

func TestP00Load(t *testing.T) {
	tn, err := Load("demo.p00", p00Buffer())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if tn.LoadAddr != 0x0801 {
		t.Errorf("load address = %#x, want 0x0801", tn.LoadAddr)
	}
	if tn.Compat != CompatBASIC {
		t.Errorf("compat = %v, want BASIC", tn.Compat)
	}
	if len(tn.Data) != 3 {
		t.Errorf("payload length = %d, want 3", len(tn.Data))
	}
	if got := tn.InfoString(0); got != "demo song" {
		t.Errorf("name = %q, want %q", got, "demo song")
	}
}

// A SEQ container is recognized but cannot be played.
func TestP00WrongKind(t *testing.T) {
	_, err := Load("demo.s00", p00Buffer())
	if err == nil || err.Error() != "Not a PRG inside X00" {
		t.Fatalf("error = %v, want %q", err, "Not a PRG inside X00")
	}
}

func TestP00BadMagic(t *testing.T) {
	data := p00Buffer()
	data[0] = 'X'
	// Without the magic the loader does not claim the file at all.
	if _, err := Load("demo.p00", data); err == nil {
		t.Fatal("load succeeded with bad magic")
	}
}

func TestPRGLoad(t *testing.T) {
	tn, err := Load("demo.prg", []uint8{0x00, 0x10, 0xa9, 0x00, 0x60})
	if err != nil {
		t.Fatal(err)
	}
	if tn.LoadAddr != 0x1000 {
		t.Errorf("load address = %#x, want 0x1000", tn.LoadAddr)
	}
	if tn.Format != "Tape image file (PRG)" {
		t.Errorf("format = %q", tn.Format)
	}
}

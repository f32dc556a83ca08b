package c64

import "testing"

func TestPowerOnRAMPattern(t *testing.T) {
	m := New()
	m.Reset()

	// 64-byte runs alternating 0x00 and 0xff, starting with zeroes.
	checks := []struct {
		addr uint16
		want uint8
	}{
		{0x0000, 0x00},
		{0x003f, 0x00},
		{0x0040, 0xff},
		{0x007f, 0xff},
		{0x0080, 0x00},
		{0x4000, 0x00},
		{0x4040, 0xff},
	}
	for _, c := range checks {
		if got := m.MMU.ReadMemByte(c.addr); got != c.want {
			t.Errorf("RAM[%#04x] = %#02x, want %#02x", c.addr, got, c.want)
		}
	}
}

func TestBankingPort(t *testing.T) {
	m := New()
	m.Reset()

	kernal := make([]uint8, 0x2000)
	kernal[0x1fff] = 0x4a
	m.SetRoms(kernal, nil, nil)

	// Power-on: pull-ups select the standard map; $FFFF reads Kernal.
	if got := m.Read(0xffff); got != kernal[0x1fff] {
		t.Errorf("Read($FFFF) = %#x, want kernal byte %#x", got, kernal[0x1fff])
	}

	// Writes go to the RAM under the ROM.
	m.Write(0xffff, 0x55)
	if got := m.Read(0xffff); got != kernal[0x1fff] {
		t.Error("write banked out the Kernal")
	}

	// Bank the Kernal away: $01 = $35 & ~2 -> hiram low.
	m.Write(0x0000, 0x07) // DDR: bits 0-2 outputs
	m.Write(0x0001, 0x05) // hiram low
	if got := m.Read(0xffff); got != 0x55 {
		t.Errorf("Read($FFFF) = %#x with Kernal banked out, want RAM 0x55", got)
	}
}

func TestIOWindowDecoding(t *testing.T) {
	m := New()
	m.Reset()

	// At power-on I/O is banked in; a CIA1 register write decodes.
	m.Write(0xdc04, 0x12) // timer A latch low
	m.Write(0xdc05, 0x00)
	// Color RAM nibbles.
	m.Write(0xd812, 0x3f)
	if got := m.Read(0xd812); got != 0x0f {
		t.Errorf("color RAM read = %#x, want low nibble 0x0f", got)
	}

	// With charen low (and ROMs absent), $D000 reads RAM.
	m.Write(0x0000, 0x07)
	m.Write(0x0001, 0x03) // charen low, loram/hiram high
	m.MMU.WriteMemByte(0xd812, 0xab)
	if got := m.Read(0xd812); got != 0xab {
		t.Errorf("RAM under I/O = %#x, want 0xab", got)
	}
}

func TestValidExtraSidAddress(t *testing.T) {
	valid := []uint16{0xd420, 0xd500, 0xd7e0, 0xde00, 0xdfe0}
	invalid := []uint16{0xd400, 0xd410, 0xd421, 0xd800, 0xdd00, 0xc000}

	for _, a := range valid {
		if !ValidExtraSidAddress(a) {
			t.Errorf("%#x rejected, want valid", a)
		}
	}
	for _, a := range invalid {
		if ValidExtraSidAddress(a) {
			t.Errorf("%#x accepted, want invalid", a)
		}
	}
}

package sid

import "testing"

// The 8580 DAC (2R/R = 2.00, terminated) is strictly increasing; the
// 6581 DAC (2R/R = 2.20, no termination) is not monotonic.
func TestDacLinearity8580(t *testing.T) {
	d := newDAC(8)
	d.kinkedDAC(MOS8580)

	prev := -1.0
	for i := uint(0); i < 256; i++ {
		v := d.output(i)
		if v <= prev {
			t.Fatalf("8580 dac[%d] = %f <= dac[%d] = %f, want strictly increasing", i, v, i-1, prev)
		}
		prev = v
	}
}

func TestDacNonLinearity6581(t *testing.T) {
	d := newDAC(8)
	d.kinkedDAC(MOS6581)

	monotonic := true
	prev := -1.0
	for i := uint(0); i < 256; i++ {
		v := d.output(i)
		if v <= prev {
			monotonic = false
			break
		}
		prev = v
	}
	if monotonic {
		t.Error("6581 dac is monotonic, expected kinks")
	}
}

func TestEnvelopeDacRange(t *testing.T) {
	for _, model := range []ChipModel{MOS6581, MOS8580} {
		dt := dacTablesFor(model)
		if dt.env[0] != 0 {
			t.Errorf("model %d: env dac[0] = %d, want 0", model, dt.env[0])
		}
		if dt.env[255] < 250 || dt.env[255] > 260 {
			t.Errorf("model %d: env dac[255] = %d, want ~255", model, dt.env[255])
		}
	}
}

package sid

// ChipModel selects between the two SID revisions. The 6581 carries the
// original NMOS analog section, the 8580 the reworked HMOS-II one.
//
//go:generate go tool stringer -type=ChipModel
type ChipModel int

const (
	MOS6581 ChipModel = iota
	MOS8580
)

// dacBuilder models the SID R-2R ladder DACs. The term "kinked" refers to
// the 6581 DACs, whose 2R/R ratio of ~2.20 and missing termination resistor
// make the transfer function non-monotonic. The 8580 DACs use 2R/R = 2.00
// with proper termination and are perfectly linear.
type dacBuilder struct {
	bits []float64
}

func newDAC(bits int) *dacBuilder {
	return &dacBuilder{bits: make([]float64, bits)}
}

const rInfinity = 1e6

// kinkedDAC computes the voltage contribution of each individual bit in
// the ladder for the given chip model.
func (d *dacBuilder) kinkedDAC(model ChipModel) {
	_2RdivR := 2.00
	term := true
	if model == MOS6581 {
		_2RdivR = 2.20
		term = false
	}

	for setBit := range d.bits {
		vn := 1.0 // normalized bit voltage
		r := 1.0  // normalized R
		_2R := _2RdivR * r
		rn := rInfinity // missing termination
		if term {
			rn = _2R
		}

		var bit int

		// Tail resistance by repeated parallel substitution.
		for bit = 0; bit < setBit; bit++ {
			if rn == rInfinity {
				rn = r + _2R
			} else {
				rn = r + _2R*rn/(_2R+rn) // R + 2R || Rn
			}
		}

		// Source transformation for the bit voltage.
		if rn == rInfinity {
			rn = _2R
		} else {
			rn = _2R * rn / (_2R + rn)
			vn = vn * rn / _2R
		}

		// Output voltage by repeated source transformation from the tail.
		for bit++; bit < len(d.bits); bit++ {
			rn += r
			i := vn / rn
			rn = _2R * rn / (_2R + rn)
			vn = rn * i
		}

		d.bits[setBit] = vn
	}

	// Normalize to integerish behavior.
	var sum float64
	for _, v := range d.bits {
		sum += v
	}
	vsum := sum / float64(uint(1)<<len(d.bits))
	for i := range d.bits {
		d.bits[i] /= vsum
	}
}

// output returns the analog level for the given digital input code.
func (d *dacBuilder) output(input uint) float64 {
	var v float64
	for i := range d.bits {
		if input&(1<<i) != 0 {
			v += d.bits[i]
		}
	}
	return v
}

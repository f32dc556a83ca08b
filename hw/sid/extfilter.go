package sid

// ExternalFilter models the external RC networks between the SID audio
// output pin and the audio-out jack: a low-pass at ~16kHz (R=10kOhm,
// C=1000pF) followed by a high-pass at ~16Hz (R=1kOhm, C=10uF). Cutoff
// frequency accuracy (4 bits) is traded off for filter signal accuracy
// (27 bits), which is crucial since the two poles are so far apart.
type ExternalFilter struct {
	vlp int32
	vhp int32

	w0lpS7  int32
	w0hpS17 int32
}

func newExternalFilter() *ExternalFilter {
	f := &ExternalFilter{}
	f.setClockFrequency(1e6)
	f.reset()
	return f
}

func (f *ExternalFilter) setClockFrequency(clock float64) {
	// w0lp = 1/(1e4*1e-9) = 100000, w0hp = 1/(1e3*1e-5) = 100
	f.w0lpS7 = int32(100000/clock*(1<<7) + 0.5)
	f.w0hpS17 = int32(100/clock*(1<<17) + 0.5)
}

// Clock advances the filter one cycle with the 16-bit input sample.
func (f *ExternalFilter) Clock(vi int16) {
	// Vlp = Vlp + w0lp*(Vi - Vlp)*delta_t
	// Vhp = Vhp + w0hp*(Vlp - Vhp)*delta_t
	dVlp := f.w0lpS7 * (int32(vi)<<11 - f.vlp) >> 7
	dVhp := f.w0hpS17 * (f.vlp - f.vhp) >> 17
	f.vlp += dVlp
	f.vhp += dVhp
}

func (f *ExternalFilter) reset() {
	f.vlp = 0
	f.vhp = 0
}

// Output returns the filtered sample, saturated to 16 bits.
func (f *ExternalFilter) Output() int16 {
	const half = 1 << 15
	vo := (f.vlp - f.vhp) >> 11
	if vo >= half {
		vo = half - 1
	} else if vo < -half {
		vo = -half
	}
	return int16(vo)
}

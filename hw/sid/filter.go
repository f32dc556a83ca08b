package sid

// Filter is the SID's two-integrator-loop biquadratic filter together
// with the audio mixer and output stage. Vhp is the output of the summer,
// Vbp the output of the first integrator and Vlp the output of the second
// one. The active stages are self-biased NMOS inverters acting as op-amps
// for small signals; their measured transfer functions drive all the
// lookup tables used here.
//
// Both chip models share the topology. The 6581 cutoff resistor is an
// NMOS VCR solved per-cycle with the EKV transistor model; the 8580 uses
// a parallel W/L-weighted NMOS resistance ladder and a split resonance
// ladder.
type Filter struct {
	mf *filterModel

	enabled bool

	fc   uint32 // cutoff frequency register, 11 bits
	res  uint32
	filt uint32
	mode uint32
	vol  uint32

	// Masks out EXT IN when not connected, and mutes voices under test.
	voiceMask uint32

	// Which inputs route into the summer / mixer, derived from filt,
	// mode and voiceMask.
	sum uint32
	mix uint32

	// Filter state.
	vhp        int32 // highpass
	vbp        int32 // bandpass
	vbpX, vbpVc int32
	vlp        int32 // lowpass
	vlpX, vlpVc int32

	// Filter / mixer inputs.
	ve, v1, v2, v3 int32

	// Cutoff DAC voltage and resonance.
	vddtVw2 int32
	vwBias  int32
	eightDivQ  int32
	nDac    int32
	kVgt    int32

	// Enables the commented-out integrator capacitor clamp of the
	// original analog model.
	clampIntegrators bool

	model ChipModel
}

func newFilter(model ChipModel) *Filter {
	f := &Filter{
		model:     model,
		mf:        filterModelFor(model),
		enabled:   true,
		voiceMask: 0xf7,
	}
	f.setCurve(0.5)
	f.input(0)
	f.reset()
	return f
}

func (f *Filter) enableFilter(enable bool) {
	f.enabled = enable
	f.setSumMix()
}

// setCurve adjusts the cutoff DAC bias, shifting the FC -> center
// frequency mapping without rebuilding any table. curve is 0..1 with 0.5
// the measured chip.
func (f *Filter) setCurve(curve float64) {
	dacBias := (curve - 0.5) * 2.0 // +/- 1V around the measured zero

	f.vwBias = int32(dacBias * f.mf.voN16)

	// 8580: the gate voltage comes from a switched capacitor voltage
	// divider, Ua = Ue * v = 4.75v, 1 < v < 2.
	fi := &filterModelInits[MOS8580]
	vg := 4.75 * (dacBias*6./100. + 1.6)
	vgt := fi.k * (vg - fi.vth)
	vmin := fi.opampVoltage[0].x
	f.kVgt = int32(filterModelFor(MOS8580).voN16*(vgt-vmin) + 0.5)

	f.setW0()
}

func (f *Filter) setVoiceMask(mask uint32) {
	f.voiceMask = 0xf0 | (mask & 0x0f)
	f.setSumMix()
}

// Clock runs the filter one cycle with the given 20-bit voice outputs.
func (f *Filter) Clock(voice1, voice2, voice3 int32) {
	mf := f.mf

	f.v1 = voice1*mf.voiceScaleS14>>18 + mf.voiceDC
	f.v2 = voice2*mf.voiceScaleS14>>18 + mf.voiceDC
	f.v3 = voice3*mf.voiceScaleS14>>18 + mf.voiceDC

	if !f.enabled {
		return
	}

	// Sum the inputs routed into the filter.
	var vi int32
	n := 0
	inputs := [4]int32{f.v1, f.v2, f.v3, f.ve}
	for i, in := range inputs {
		if f.sum&(1<<i) != 0 {
			vi += in
			n++
		}
	}
	offset := summerOffsets[n]

	if f.model == MOS6581 {
		f.vlp = f.solveIntegrate6581(f.vbp, &f.vlpX, &f.vlpVc)
		f.vbp = f.solveIntegrate6581(f.vhp, &f.vbpX, &f.vbpVc)
		f.vhp = int32(mf.summer[offset+int32(mf.gain[f.eightDivQ][f.vbp])+f.vlp+vi])
	} else {
		f.vlp = f.solveIntegrate8580(f.vbp, &f.vlpX, &f.vlpVc)
		f.vbp = f.solveIntegrate8580(f.vhp, &f.vbpX, &f.vbpVc)
		f.vhp = int32(mf.summer[offset+int32(mf.resonance[f.res][f.vbp])+f.vlp+vi])
	}
}

func (f *Filter) reset() {
	f.fc = 0
	f.res = 0
	f.filt = 0
	f.mode = 0
	f.vol = 0

	f.vhp = 0
	f.vbp, f.vbpX, f.vbpVc = 0, 0, 0
	f.vlp, f.vlpX, f.vlpVc = 0, 0, 0

	f.setW0()
	f.setQ()
	f.setSumMix()
}

func (f *Filter) writeFCLo(v uint8) {
	f.fc = (f.fc & 0x7f8) | (uint32(v) & 0x007)
	f.setW0()
}

func (f *Filter) writeFCHi(v uint8) {
	f.fc = ((uint32(v) << 3) & 0x7f8) | (f.fc & 0x007)
	f.setW0()
}

func (f *Filter) writeResFilt(v uint8) {
	f.res = (uint32(v) >> 4) & 0x0f
	f.setQ()

	f.filt = uint32(v) & 0x0f
	f.setSumMix()
}

func (f *Filter) writeModeVol(v uint8) {
	f.mode = uint32(v) & 0xf0
	f.setSumMix()

	f.vol = uint32(v) & 0x0f
}

// input feeds the 16-bit EXT IN sample. The op-amp "zero" DC level is
// added as a crude stand-in for the AC coupling capacitor, which lets the
// MOS8580 "digi boost" work without a separate DC input interface.
func (f *Filter) input(sample int32) {
	mf := f.mf
	f.ve = sample*mf.voiceScaleS14*3>>14 + int32(mf.mixer[0])
}

// Output mixes the selected signals and runs them through the volume
// gain, returning a 16-bit sample.
func (f *Filter) Output() int16 {
	mf := f.mf

	var vi int32
	n := 0
	inputs := [7]int32{f.v1, f.v2, f.v3, f.ve, f.vlp, f.vbp, f.vhp}
	for i, in := range inputs {
		if f.mix&(1<<i) != 0 {
			vi += in
			n++
		}
	}
	offset := mixerOffsets[n]

	return int16(int32(mf.gain[f.vol][mf.mixer[offset+vi]]) - 1<<15)
}

// setW0 updates the cutoff control voltage from the FC register.
func (f *Filter) setW0() {
	mf := f.mf
	if f.model == MOS6581 {
		vw := f.vwBias + int32(mf.f0Dac[f.fc])
		f.vddtVw2 = int32(uint32(mf.kVddt-vw) * uint32(mf.kVddt-vw) >> 1)
	} else {
		// MOS 8580 cutoff: 0 - 12.5kHz.
		f.nDac = (mf.nParam * int32(mf.f0Dac[f.fc])) >> 15
	}
}

// setQ updates the resonance. In the 6581, 1/Q is controlled linearly by
// res: 1/Q ~ ~res/8. The coefficient 8 is dispensed of by the 2^3 scale
// of the gain table index.
func (f *Filter) setQ() {
	f.eightDivQ = int32(^f.res & 0x0f)
}

// setSumMix derives the summer and mixer routing bits.
func (f *Filter) setSumMix() {
	// NB! voice3off (mode bit 7) only affects voice 3 if it is routed
	// directly to the mixer.
	if f.enabled {
		f.sum = f.filt & f.voiceMask
		f.mix = ((f.mode & 0x70) | (^(f.filt | (f.mode&0x80)>>5) & 0x0f)) & f.voiceMask
	} else {
		f.sum = 0
		f.mix = 0x0f & f.voiceMask
	}
}

// solveIntegrate6581 finds the output voltage of the inverting
// integrator op-amp circuit with a single fixpoint iteration step. The
// cutoff resistor Rw is a VCR operating in subthreshold, triode and
// saturation modes; its current is computed with the EKV model through
// the precomputed term tables. The parallel "snake" transistor always
// operates in triode mode.
func (f *Filter) solveIntegrate6581(vi int32, vx, vc *int32) int32 {
	mf := f.mf
	kVddt := mf.kVddt // scaled by m*2^16

	// "Snake" voltages for the triode mode calculation.
	vgst := uint32(kVddt - *vx)
	vgdt := uint32(kVddt - vi)
	vgdt2 := vgdt * vgdt

	// "Snake" current, scaled by (1/m)*2^13*m*2^16*m*2^16*2^-15 = m*2^30.
	nISnake := mf.nSnake * (int32(vgst*vgst-vgdt2) >> 15)

	// VCR gate voltage, scaled by m*2^16:
	// Vg = Vddt - sqrt(((Vddt - Vw)^2 + Vgdt^2)/2)
	kVg := int32(mf.vcrKVg[(uint32(f.vddtVw2)+vgdt2>>1)>>16])

	// VCR voltages for the EKV model table lookup.
	vgs := kVg - *vx
	if vgs < 0 {
		vgs = 0
	}
	vgd := kVg - vi
	if vgd < 0 {
		vgd = 0
	}

	// VCR current, scaled by m*2^15*2^15 = m*2^30.
	nIVcr := int32(uint32(mf.vcrNIdsTerm[vgs]-mf.vcrNIdsTerm[vgd]) << 15)

	// Change in capacitor charge.
	*vc -= nISnake + nIVcr

	if f.clampIntegrators {
		if *vc < mf.vcMin {
			*vc = mf.vcMin
		} else if *vc > mf.vcMax {
			*vc = mf.vcMax
		}
	}

	// vx = g(vc)
	*vx = int32(mf.opampRev[(*vc>>15)+(1<<15)])

	return *vx + *vc>>14
}

// solveIntegrate8580 is the 8580 integrator: the resistance is formed by
// multiple NMOS transistors in parallel controlled by the fc bits, with
// the gate voltage driven by a temperature dependent voltage divider.
func (f *Filter) solveIntegrate8580(vi int32, vx, vc *int32) int32 {
	mf := f.mf

	vgst := uint32(f.kVgt - *vx)
	var vgdt uint32
	if vi < f.kVgt {
		vgdt = uint32(f.kVgt - vi) // triode/saturation mode
	}

	nIRfc := f.nDac * (int32(vgst*vgst-vgdt*vgdt) >> 15)

	*vc -= nIRfc

	*vx = int32(mf.opampRev[(*vc>>15)+(1<<15)])

	return *vx + *vc>>14
}

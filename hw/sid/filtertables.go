package sid

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/singleflight"
)

// The SID 6581 op-amp voltage transfer function, measured on CAP1B/CAP1A
// on a chip marked MOS 6581R4AR 0687 14. All measured chips have op-amps
// with output voltages (and thus input voltages) within 0.81V - 10.31V.
var opampVoltage6581 = []splinePoint{
	{0.81, 10.31}, // Approximate start of actual range
	{2.40, 10.31},
	{2.60, 10.30},
	{2.70, 10.29},
	{2.80, 10.26},
	{2.90, 10.17},
	{3.00, 10.04},
	{3.10, 9.83},
	{3.20, 9.58},
	{3.30, 9.32},
	{3.50, 8.69},
	{3.70, 8.00},
	{4.00, 6.89},
	{4.40, 5.21},
	{4.54, 4.54}, // Working point (vi = vo)
	{4.60, 4.19},
	{4.80, 3.00},
	{4.90, 2.30}, // Change of curvature
	{4.95, 2.03},
	{5.00, 1.88},
	{5.05, 1.77},
	{5.10, 1.69},
	{5.20, 1.58},
	{5.40, 1.44},
	{5.60, 1.33},
	{5.80, 1.26},
	{6.00, 1.21},
	{6.40, 1.12},
	{7.00, 1.02},
	{7.50, 0.97},
	{8.50, 0.89},
	{10.00, 0.81},
	{10.31, 0.81}, // Approximate end of actual range
}

// The SID 8580 op-amp voltage transfer function, measured on CAP1B/CAP1A
// on a chip marked CSG 8580R5 1690 25.
var opampVoltage8580 = []splinePoint{
	{1.30, 8.91}, // Approximate start of actual range
	{4.76, 8.91},
	{4.77, 8.90},
	{4.78, 8.88},
	{4.785, 8.86},
	{4.79, 8.80},
	{4.795, 8.60},
	{4.80, 8.25},
	{4.805, 7.50},
	{4.81, 6.10},
	{4.815, 4.05}, // Change of curvature
	{4.82, 2.27},
	{4.825, 1.65},
	{4.83, 1.55},
	{4.84, 1.47},
	{4.85, 1.43},
	{4.87, 1.37},
	{4.90, 1.34},
	{5.00, 1.30},
	{5.10, 1.30},
	{8.91, 1.30}, // Approximate end of actual range
}

// Physical parameters of one filter model.
type filterModelInit struct {
	opampVoltage []splinePoint

	voiceVoltageRange float64
	voiceDCVoltage    float64

	c float64 // capacitor value

	vdd   float64
	vth   float64 // threshold voltage
	ut    float64 // thermal voltage, k*T/q ~ 26mV
	k     float64 // gate coupling coefficient, Cox/(Cox+Cdep)
	uCox  float64
	wlVCR   float64 // W/L for the cutoff VCR
	wlSnake float64 // W/L for the "snake"

	dacZero   float64
	dacScale  float64
	dac2RdivR float64
	dacTerm   bool
}

var filterModelInits = [2]filterModelInit{
	{
		opampVoltage: opampVoltage6581,
		// The dynamic analog range of one voice is approximately 1.5V,
		// riding at a DC level of approximately 5.0V.
		voiceVoltageRange: 1.5,
		voiceDCVoltage:    5.0,
		c:                 470e-12,
		vdd:               12.18,
		vth:               1.31,
		ut:                26.0e-3,
		k:                 1.0,
		uCox:              20e-6,
		wlVCR:             9.0 / 1.0,
		wlSnake:           1.0 / 115,
		dacZero:           6.65,
		dacScale:          2.63,
		dac2RdivR:         2.20,
		dacTerm:           false,
	},
	{
		opampVoltage:      opampVoltage8580,
		voiceVoltageRange: 0.4,
		// The 4.75V virtual ground comes from a PolySi resistor divider.
		voiceDCVoltage: 4.80,
		c:              22e-9,
		vdd:            9.09,
		vth:            0.80,
		ut:             26.0e-3,
		k:              1.0,
		uCox:           50e-6,
		dac2RdivR:      2.00,
		dacTerm:        true,
	},
}

// Resonance gain ladder of the 8580, in 2^7 scale, derived from the
// channel lengths of the split feedback/input resistor ladders.
var resGain8580 = func() [16]int32 {
	rf := 1.4
	par := func(a, b float64) float64 { return a * b / (a + b) }
	feedback := [4]float64{rf, par(rf, 15.3), par(rf, 7.3), par(rf, 4.7)}
	input := [4]float64{1.0, 1.4, 2.0, 2.8}

	var t [16]int32
	for res := 0; res < 16; res++ {
		t[res] = int32((1 << 7) * (feedback[res&3] / input[res>>2]))
	}
	return t
}()

const (
	// The highpass summer has 2-6 inputs (bandpass, lowpass, 0-4 voices).
	summerSpan = (2 + 3 + 4 + 5 + 6) << 16
	// The mixer has 0-7 inputs (0-4 voices and 0-3 filter outputs).
	mixerSpan = 1 + (1+2+3+4+5+6+7)<<16
)

// summerOffsets[n] is the table offset for a summer with 2+n inputs.
var summerOffsets = [6]int32{
	0,
	2 << 16,
	(2 + 3) << 16,
	(2 + 3 + 4) << 16,
	(2 + 3 + 4 + 5) << 16,
	(2 + 3 + 4 + 5 + 6) << 16,
}

// mixerOffsets[n] is the table offset for a mixer with n inputs.
var mixerOffsets = [8]int32{
	0,
	1,
	1 + 1<<16,
	1 + (1+2)<<16,
	1 + (1+2+3)<<16,
	1 + (1+2+3+4)<<16,
	1 + (1+2+3+4+5)<<16,
	1 + (1+2+3+4+5+6)<<16,
}

type opampPoint struct {
	vx  uint16 // m*2^16*(fn - xmin)
	dvx int16  // 2^11*dfn
}

// filterModel carries the precomputed integer tables for one chip model.
// All table building is done in doubles; the runtime path only touches
// the fixed-point tables, keeping playback deterministic across platforms.
type filterModel struct {
	voN16        float64
	kVddt        int32
	nSnake       int32 // 6581
	voiceScaleS14 int32
	voiceDC      int32
	ak, bk       int32
	vcMin, vcMax int32

	opamp    []opampPoint // retained for gain solving with a shifted bias
	opampRev []uint16
	summer   []uint16
	mixer    []uint16
	gain     [16][]uint16
	f0Dac    []uint16

	// 6581 VCR tables.
	vcrKVg      []uint16
	vcrNIdsTerm []uint16

	// 8580 only.
	resonance [16][]uint16
	nParam    int32
}

var filterModelGroup singleflight.Group
var filterModelCache sync.Map // ChipModel -> *filterModel

func filterModelFor(model ChipModel) *filterModel {
	if t, ok := filterModelCache.Load(model); ok {
		return t.(*filterModel)
	}
	t, _, _ := filterModelGroup.Do(fmt.Sprintf("filter-%d", model), func() (any, error) {
		mf := buildFilterModel(model)
		filterModelCache.Store(model, mf)
		return mf, nil
	})
	return t.(*filterModel)
}

func buildFilterModel(model ChipModel) *filterModel {
	fi := &filterModelInits[model]
	mf := &filterModel{}

	vmin := fi.opampVoltage[0].x
	opampMax := fi.opampVoltage[0].y
	kVddt := fi.k * (fi.vdd - fi.vth)
	vmax := math.Max(kVddt, opampMax)
	denorm := vmax - vmin
	norm := 1.0 / denorm

	// Scaling and translation constants.
	n16 := norm * float64(1<<16-1)
	n30 := norm * float64(1<<30-1)
	n31 := norm * float64(uint(1<<31-1))
	mf.voN16 = n16

	// The digital range of one voice is 20 bits; create a scaling term
	// for multiplication which fits in 11 bits.
	n14 := norm * (1 << 14)
	mf.voiceScaleS14 = int32(n14 * fi.voiceVoltageRange)
	mf.voiceDC = int32(n16 * (fi.voiceDCVoltage - vmin))

	// Vdd - Vth, normalized so that translated values can be subtracted:
	// k*Vddt - x = (k*Vddt - t) - (x - t)
	mf.kVddt = int32(n16*(kVddt-vmin) + 0.5)

	nParam := denorm * (1 << 13) * (fi.uCox / (2 * fi.k) * 1.0e-6 / fi.c)

	// Map op-amp voltage across output and input to input voltage:
	// vo - vx -> vx. The x axis is scaled to 16 bits, the y axis
	// temporarily to 31 bits for accuracy of the derivative.
	npoints := len(fi.opampVoltage)
	scaled := make([]splinePoint, npoints)
	for i, p := range fi.opampVoltage {
		scaled[npoints-1-i] = splinePoint{
			x: float64(int(n16*(p.y-p.x+denorm)/2 + 0.5)),
			y: n31 * (p.x - vmin),
		}
	}
	// Rounding may push the last point past 16 bits.
	if scaled[npoints-1].x >= 1<<16 {
		scaled[npoints-1].x = 1<<16 - 1
		scaled[npoints-2].x = 1<<16 - 1
	}

	s := newSpline(scaled)

	mf.ak = int32(scaled[0].x)
	mf.bk = int32(scaled[npoints-1].x)

	mf.opamp = make([]opampPoint, 1<<16)
	prev, _ := s.evaluate(float64(mf.ak))
	for j := mf.ak; j <= mf.bk; j++ {
		f, _ := s.evaluate(float64(j))
		if f < 0 {
			f = 0
		}
		df := f - prev // scaled by 2^15 per x step
		prev = f

		vx := uint32(f) >> 15
		if vx > 0xffff {
			vx = 0xffff
		}
		mf.opamp[j].vx = uint16(vx)
		mf.opamp[j].dvx = int16(int32(df) >> (15 - 11))
	}
	// No differential for the first point; borrow the second's.
	mf.opamp[mf.ak].dvx = mf.opamp[mf.ak+1].dvx

	mf.vcMax = int32(n30 * (fi.opampVoltage[0].y - fi.opampVoltage[0].x))
	mf.vcMin = int32(n30 * (fi.opampVoltage[npoints-1].y - fi.opampVoltage[npoints-1].x))

	// vc -> vx
	mf.opampRev = make([]uint16, 1<<16)
	for i := range mf.opampRev {
		mf.opampRev[i] = mf.opamp[i].vx
	}

	// 4-bit "resistor" ladders in the bandpass resonance gain and the
	// audio output gain necessitate 16 gain tables: gain ~ n8/8.
	for n8 := 0; n8 < 16; n8++ {
		n := int32(n8 << 4) // scaled by 2^7
		x := mf.ak
		mf.gain[n8] = make([]uint16, 1<<16)
		for vi := int32(0); vi < 1<<16; vi++ {
			mf.gain[n8][vi] = uint16(solveGain(mf.opamp, n, vi, &x, mf))
		}
	}

	// The filter summer operates at n ~ 1, with 2-6 input "resistors".
	// All "on" transistors are modeled as one.
	mf.summer = make([]uint16, summerSpan)
	offset := int32(0)
	for k := 0; k < 5; k++ {
		idiv := int32(2 + k)
		nIdiv := idiv << 7
		size := idiv << 16
		x := mf.ak
		for vi := int32(0); vi < size; vi++ {
			mf.summer[offset+vi] = uint16(solveGain(mf.opamp, nIdiv, vi/idiv, &x, mf))
		}
		offset += size
	}

	// The audio mixer operates at n ~ 8/6, with 0-7 input "resistors".
	mf.mixer = make([]uint16, mixerSpan)
	offset = 0
	size := int32(1) // single lookup element for 0 inputs
	for l := int32(0); l < 8; l++ {
		idiv := l
		nIdiv := (idiv << 7) * 8 / 6
		if idiv == 0 {
			idiv = 1 // result correct anyway since nIdiv = 0
		}
		x := mf.ak
		for vi := int32(0); vi < size; vi++ {
			mf.mixer[offset+vi] = uint16(solveGain(mf.opamp, nIdiv, vi/idiv, &x, mf))
		}
		offset += size
		size = (l + 1) << 16
	}

	const dacBits = 11

	mf.f0Dac = make([]uint16, 1<<dacBits)

	if model == MOS6581 {
		// Cutoff DAC: kinked R-2R, output in volts through dacZero/dacScale.
		d := newDAC(dacBits)
		d.kinkedDAC(model)
		for n := 0; n < 1<<dacBits; n++ {
			mf.f0Dac[n] = uint16(n16*(fi.dacZero+d.output(uint(n))*fi.dacScale/(1<<dacBits)-vmin) + 0.5)
		}

		// Normalized snake current factor for 1 cycle at 1MHz; 5 bits.
		mf.nSnake = int32(fi.wlSnake*nParam + 0.5)

		// VCR gate voltage table: Vg = Vddt - sqrt(((Vddt-vi)^2 + (Vddt-Vw)^2)/2)
		nkVddt := n16 * kVddt
		nvmin := n16 * vmin
		mf.vcrKVg = make([]uint16, 1<<16)
		for i := range mf.vcrKVg {
			vg := nkVddt - math.Sqrt(float64(i)*(1<<16))
			mf.vcrKVg[i] = uint16(fi.k*vg - nvmin + 0.5)
		}

		// EKV model:
		//   Ids = Is*(if - ir)
		//   Is = 2*u*Cox*Ut^2/k*W/L
		//   if = ln^2(1 + e^((k*(Vg - Vt) - Vs)/(2*Ut))
		//   ir = ln^2(1 + e^((k*(Vg - Vt) - Vd)/(2*Ut))
		kVt := fi.k * fi.vth
		is := 2 * fi.uCox * fi.ut * fi.ut / fi.k * fi.wlVCR
		n15 := n16 / 2
		nIs := n15 * 1.0e-6 / fi.c * is

		mf.vcrNIdsTerm = make([]uint16, 1<<16)
		for kVgVx := range mf.vcrNIdsTerm {
			logTerm := math.Log1p(math.Exp((float64(kVgVx)/n16 - kVt) / (2 * fi.ut)))
			mf.vcrNIdsTerm[kVgVx] = uint16(nIs * logTerm * logTerm)
		}
	} else {
		// The 8580 cutoff "DAC" is a set of parallel NMOS resistances
		// with W/L proportional to the bit weights.
		const dacWL = 3 // 0.0029296875 * 1024 (actual value ~= 0.003075)
		mf.f0Dac[0] = dacWL
		for n := 1; n < 1<<dacBits; n++ {
			var wl uint16
			for i := 0; i < dacBits; i++ {
				bitmask := uint(1) << i
				if uint(n)&bitmask != 0 {
					wl += dacWL * uint16(bitmask<<1)
				}
			}
			mf.f0Dac[n] = wl
		}

		// Current factor, scaled 5 bits.
		mf.nParam = int32(nParam*32 + 0.5)

		// Resonance tables from the split resistor ladder gains.
		for n8 := 0; n8 < 16; n8++ {
			x := mf.ak
			mf.resonance[n8] = make([]uint16, 1<<16)
			for vi := int32(0); vi < 1<<16; vi++ {
				mf.resonance[n8][vi] = uint16(solveGain(mf.opamp, resGain8580[n8], vi, &x, mf))
			}
		}
	}

	return mf
}

// solveGain finds the output voltage of the inverting gain / summer
// op-amp circuits with a combination of Newton-Raphson and bisection.
//
//	           ---R2--
//	          |       |
//	vi ---R1-----[A>----- vo
//	          vx
//
// All variables are translated and scaled to fit in 16 bits; the
// translations cancel out in the subtractions below.
func solveGain(opamp []opampPoint, n, vi int32, x *int32, mf *filterModel) int32 {
	// Start off with an estimate of x and a root bracket [ak, bk].
	// f is increasing, so that f(ak) < 0 and f(bk) > 0.
	ak, bk := mf.ak, mf.bk

	a := n + 1<<7    // scaled by 2^7
	b := mf.kVddt    // scaled by m*2^16
	bVi := b - vi    // scaled by m*2^16
	if bVi < 0 {
		bVi = 0
	}
	c := n * int32(uint32(bVi)*uint32(bVi)>>12) // scaled by m^2*2^27

	for {
		xk := *x

		vx := int32(opamp[*x].vx)  // scaled by m*2^16
		dvx := int32(opamp[*x].dvx) // scaled by 2^11

		// f = a*(b - vx)^2 - c - (b - vo)^2
		// df = 2*((b - vo)*(dvx + 1) - a*(b - vx)*dvx)
		vo := vx + (*x << 1) - 1<<16
		if vo >= 1<<16 {
			vo = 1<<16 - 1
		} else if vo < 0 {
			vo = 0
		}
		bVx := b - vx
		if bVx < 0 {
			bVx = 0
		}
		bVo := b - vo
		if bVo < 0 {
			bVo = 0
		}
		// The dividend is scaled by m^2*2^27.
		f := a*int32(uint32(bVx)*uint32(bVx)>>12) - c - int32(uint32(bVo)*uint32(bVo)>>5)
		// The divisor is scaled by m*2^11.
		df := (bVo*(dvx+1<<11) - a*(bVx*dvx>>7)) >> 15
		// The resulting quotient is thus scaled by m*2^16.

		// Newton-Raphson step: xk1 = xk - f(xk)/f'(xk)
		if df != 0 {
			*x -= f / df
		}
		if *x == xk {
			// No further root improvement possible.
			return vo
		}

		// Narrow down the root bracket.
		if f < 0 {
			ak = xk
		} else {
			bk = xk
		}

		if *x <= ak || *x >= bk {
			// Bisection step (ala Dekker's method).
			*x = (ak + bk) >> 1
			if *x == ak {
				// No further bisection possible.
				return vo
			}
		}
	}
}

package resample

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/singleflight"
)

const (
	// 16 bits -> -96dB stopband attenuation.
	sincBits = 16

	// Ring buffer of the most recent input samples; must hold firN.
	ringSize = 2048

	// Maximum error acceptable in I0 is 1e-6, or ~96 dB.
	i0e = 1e-6
)

// i0 computes the 0th order modified Bessel function of the first kind,
// used to build the Kaiser window.
func i0(x float64) float64 {
	sum, u, n := 1.0, 1.0, 1.0
	halfx := x / 2

	for {
		temp := halfx / n
		u *= temp * temp
		sum += u
		n += 1
		if u < i0e*sum {
			return sum
		}
	}
}

// firTable is a polyphase FIR filter bank: firRES sub-phase tables of
// firN taps each.
type firTable struct {
	firRES int
	firN   int
	coeffs [][]int16
}

// The FIR computation is expensive and sampling parameters are set often,
// but from a very small set of choices, so tables are cached per
// parameter set.
var firCache sync.Map // string -> *firTable
var firGroup singleflight.Group

// Sinc is a Kaiser-windowed sinc FIR resampler from the chip clock to an
// output frequency, emitting the linear interpolation between the two
// nearest sub-phase convolutions.
type Sinc struct {
	table *firTable

	sample      [ringSize * 2]int16
	sampleIndex int

	sampleOffset    int
	cyclesPerSample int // scaled by 1024

	outputValue int32
}

// NewSinc designs (or fetches from cache) the FIR for resampling from
// clockFrequency down to samplingFrequency, with transparent response up
// to highestAccurateFrequency.
func NewSinc(clockFrequency, samplingFrequency, highestAccurateFrequency float64) *Sinc {
	s := &Sinc{
		cyclesPerSample: int(clockFrequency/samplingFrequency*1024 + 0.5),
	}

	// 16 bits -> -96dB stopband attenuation.
	a := -20 * math.Log10(1.0/(1<<sincBits))
	// A fraction of the bandwidth is allocated to the transition band,
	// which we double because the filter transitions halfway at nyquist.
	dw := (1 - 2*highestAccurateFrequency/samplingFrequency) * math.Pi * 2

	// Kaiser beta and filter order per the kaiserord rule.
	beta := 0.1102 * (a - 8.7)
	i0beta := i0(beta)
	cyclesPerSampleD := clockFrequency / samplingFrequency

	// The filter order equals the number of zero crossings and must be
	// even (sinc is symmetric with respect to x = 0); the filter length
	// must be odd.
	n := int((a-7.95)/(2.285*dw) + 0.5)
	n += n & 1

	firN := int(float64(n)*cyclesPerSampleD) + 1
	firN |= 1

	if firN >= ringSize {
		panic(fmt.Sprintf("resample: FIR length %d exceeds ring buffer", firN))
	}

	// Error is bounded by err < 1.234 / L^2, so
	// L = sqrt(1.234 / 2^-16) = sqrt(1.234 * 2^16).
	firRES := int(math.Ceil(math.Sqrt(1.234*float64(int(1)<<sincBits)) / cyclesPerSampleD))

	key := fmt.Sprintf("%d,%d,%v", firN, firRES, cyclesPerSampleD)
	if t, ok := firCache.Load(key); ok {
		s.table = t.(*firTable)
		return s
	}

	t, _, _ := firGroup.Do(key, func() (any, error) {
		table := &firTable{
			firRES: firRES,
			firN:   firN,
			coeffs: make([][]int16, firRES),
		}

		// The cutoff frequency is midway through the transition band, in
		// effect the same as nyquist.
		wc := math.Pi

		scale := 32768.0 * wc / cyclesPerSampleD / math.Pi

		for i := 0; i < firRES; i++ {
			jPhase := float64(i)/float64(firRES) + float64(firN/2)
			table.coeffs[i] = make([]int16, firN)

			for j := 0; j < firN; j++ {
				x := float64(j) - jPhase

				xt := x / float64(firN/2)
				kaiserXt := 0.0
				if math.Abs(xt) < 1 {
					kaiserXt = i0(beta*math.Sqrt(1-xt*xt)) / i0beta
				}

				wt := wc * x / cyclesPerSampleD
				sincWt := 1.0
				if math.Abs(wt) >= 1e-8 {
					sincWt = math.Sin(wt) / wt
				}

				table.coeffs[i][j] = int16(scale * sincWt * kaiserXt)
			}
		}

		firCache.Store(key, table)
		return table, nil
	})
	s.table = t.(*firTable)
	return s
}

func convolve(a []int16, b []int16) int32 {
	var out int32
	for i := range b {
		out += int32(a[i]) * int32(b[i])
	}
	return (out + 1<<14) >> 15
}

func (s *Sinc) fir(subcycle int) int32 {
	t := s.table

	// Find the first of the nearest fir tables close to the phase.
	firTableFirst := subcycle * t.firRES >> 10
	firTableOffset := (subcycle * t.firRES) & 0x3ff

	// Find firN most recent samples, plus one extra in case the FIR wraps.
	sampleStart := s.sampleIndex - t.firN + ringSize - 1

	v1 := convolve(s.sample[sampleStart:sampleStart+t.firN], t.coeffs[firTableFirst])

	// Use the next FIR table, wrapping around to the first FIR table
	// using the previous sample.
	firTableFirst++
	if firTableFirst == t.firRES {
		firTableFirst = 0
		sampleStart++
	}

	v2 := convolve(s.sample[sampleStart:sampleStart+t.firN], t.coeffs[firTableFirst])

	// Linear interpolation between the sinc tables yields a good
	// approximation of the exact value.
	return v1 + (int32(firTableOffset)*(v2-v1)>>10)
}

func (s *Sinc) Input(input int32) bool {
	ready := false

	// The input may overflow the 16-bit range; measured chip output
	// ranges are about +/-20000 (6581) and +/-33000 (8580).
	v := clip16(input)
	s.sample[s.sampleIndex] = v
	s.sample[s.sampleIndex+ringSize] = v
	s.sampleIndex = (s.sampleIndex + 1) & (ringSize - 1)

	if s.sampleOffset < 1024 {
		s.outputValue = s.fir(s.sampleOffset)
		ready = true
		s.sampleOffset += s.cyclesPerSample
	}
	s.sampleOffset -= 1024

	return ready
}

func (s *Sinc) Output() int16 { return clip16(s.outputValue) }

func (s *Sinc) Reset() {
	clear(s.sample[:])
	s.sampleOffset = 0
}

// TwoPass chains two sinc resamplers through an intermediate frequency,
// which keeps both FIR lengths short. The intermediate frequency follows
// L. Ganier's formula and evaluates to about 120kHz at typical settings.
type TwoPass struct {
	s1, s2 *Sinc
}

func NewTwoPass(clockFrequency, samplingFrequency, highestAccurateFrequency float64) *TwoPass {
	intermediate := 2*highestAccurateFrequency +
		math.Sqrt(2*highestAccurateFrequency*clockFrequency*
			(samplingFrequency-2*highestAccurateFrequency)/samplingFrequency)

	return &TwoPass{
		s1: NewSinc(clockFrequency, intermediate, highestAccurateFrequency),
		s2: NewSinc(intermediate, samplingFrequency, highestAccurateFrequency),
	}
}

func (t *TwoPass) Input(sample int32) bool {
	return t.s1.Input(sample) && t.s2.Input(int32(t.s1.Output()))
}

func (t *TwoPass) Output() int16 { return t.s2.Output() }

func (t *TwoPass) Reset() {
	t.s1.Reset()
	t.s2.Reset()
}

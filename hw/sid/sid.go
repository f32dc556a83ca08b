// Package sid emulates the MOS 6581 / 8580 Sound Interface Device at
// cycle granularity: three voices (waveform + envelope generators), the
// resonant multi-mode analog filter, the external RC filter and the
// model-specific non-linear DACs.
package sid

import (
	"errors"

	"rezid/emu/log"
	"rezid/hw/sid/resample"
)

// The last byte written to any register stays on the data bus and can be
// read back from write-only registers until it fades. The TTLs differ
// wildly between models; values measured by the VICE project.
const (
	busTTL6581 = 0x01d00
	busTTL8580 = 0xa2000
)

// SamplingMethod selects the sample-rate converter.
type SamplingMethod int

const (
	// Decimate uses linear interpolation between chip samples. Fast.
	Decimate SamplingMethod = iota
	// Resample uses the two-pass Kaiser-windowed sinc. Accurate.
	Resample
)

// SID is one emulated chip.
type SID struct {
	voices [3]*Voice

	filter    *Filter
	extFilter *ExternalFilter
	resampler resample.Resampler

	potX, potY uint8

	busValue    uint8
	busValueTTL int32
	modelTTL    int32

	nextVoiceSync uint32

	model ChipModel
	muted [3]bool
}

// New creates a chip of the given model, in reset state.
func New(model ChipModel) *SID {
	s := &SID{
		voices:    [3]*Voice{newVoice(), newVoice(), newVoice()},
		extFilter: newExternalFilter(),
		potX:      0,
		potY:      0,
	}
	s.SetChipModel(model)
	s.Reset()
	return s
}

// SetChipModel switches the analog model: waveform tables, DACs, filter
// and bus fade time.
func (s *SID) SetChipModel(model ChipModel) {
	s.model = model
	s.filter = newFilter(model)
	if model == MOS6581 {
		s.modelTTL = busTTL6581
	} else {
		s.modelTTL = busTTL8580
	}
	for _, v := range s.voices {
		v.setChipModel(model)
	}
}

// Model returns the emulated chip model.
func (s *SID) Model() ChipModel { return s.model }

// SetFilterCurve adjusts the cutoff DAC zero point, 0..1 (0.5 = measured
// chip). Lets the caller match tone preferences without rebuilding any
// lookup table.
func (s *SID) SetFilterCurve(curve float64) {
	s.filter.setCurve(curve)
}

// EnableFilter bypasses the filter when disabled; useful for testing.
func (s *SID) EnableFilter(enable bool) {
	s.filter.enableFilter(enable)
}

// Mute gates a voice: a muted voice sees its control register forced to
// zero on every write.
func (s *SID) Mute(voice int, on bool) {
	if voice >= 0 && voice < 3 {
		s.muted[voice] = on
	}
}

// SetPot feeds the potentiometer inputs read back at $19/$1A.
func (s *SID) SetPot(x, y uint8) {
	s.potX, s.potY = x, y
}

func (s *SID) ageBusValue(n uint32) {
	if s.busValueTTL != 0 {
		s.busValueTTL -= int32(n)
		if s.busValueTTL <= 0 {
			s.busValue = 0
			s.busValueTTL = 0
		}
	}
}

// output computes one cycle of analog output: voices into filter into
// external filter.
func (s *SID) output() int16 {
	v1 := s.voices[0].Output(s.voices[2].wave)
	v2 := s.voices[1].Output(s.voices[0].wave)
	v3 := s.voices[2].Output(s.voices[1].wave)

	s.filter.Clock(v1, v2, v3)
	s.extFilter.Clock(s.filter.Output())
	return s.extFilter.Output()
}

// voiceSync applies hard sync (when sync is true) and recomputes the
// number of cycles until any accumulator can next cross its MSB, so the
// main clock loop only has to re-check at that boundary.
func (s *SID) voiceSync(sync bool) {
	if sync {
		// Synchronize the 3 waveform generators.
		for i := range s.voices {
			s.voices[i].wave.Synchronize(s.voices[(i+1)%3].wave, s.voices[(i+2)%3].wave)
		}
	}

	s.nextVoiceSync = 1<<31 - 1

	for i := range s.voices {
		w := s.voices[i].wave
		freq := w.readFreq()

		if w.readTest() || freq == 0 || !s.voices[(i+1)%3].wave.readSync() {
			continue
		}

		accumulator := w.readAccumulator()
		thisVoiceSync := ((0x7fffff-accumulator)&0xffffff)/freq + 1

		if thisVoiceSync < s.nextVoiceSync {
			s.nextVoiceSync = thisVoiceSync
		}
	}
}

// Reset puts the chip in power-up state. The voice accumulators and
// envelope counters keep their power-up values.
func (s *SID) Reset() {
	for _, v := range s.voices {
		v.reset()
	}
	s.filter.reset()
	s.extFilter.reset()
	if s.resampler != nil {
		s.resampler.Reset()
	}

	s.busValue = 0
	s.busValueTTL = 0
	s.voiceSync(false)
}

// Input feeds the EXT IN pin (16 bits).
func (s *SID) Input(value int32) {
	s.filter.input(value)
}

// Read returns the value of a chip register. Only $19-$1C are readable;
// reads of write-only registers return the fading bus value and make the
// bus discharge faster (emulated by halving the residual TTL).
func (s *SID) Read(offset uint8) uint8 {
	switch offset {
	case 0x19: // X value of paddle
		s.busValue = s.potX
		s.busValueTTL = s.modelTTL
	case 0x1a: // Y value of paddle
		s.busValue = s.potY
		s.busValueTTL = s.modelTTL
	case 0x1b: // Voice #3 waveform output
		s.busValue = s.voices[2].wave.ReadOSC()
		s.busValueTTL = s.modelTTL
	case 0x1c: // Voice #3 ADSR output
		s.busValue = s.voices[2].envelope.ReadENV()
		s.busValueTTL = s.modelTTL
	default:
		s.busValueTTL /= 2
	}

	return s.busValue
}

// Write stores v into a chip register.
func (s *SID) Write(offset uint8, v uint8) {
	s.busValue = v
	s.busValueTTL = s.modelTTL

	log.ModSID.DebugZ("write").Hex8("reg", offset).Hex8("val", v).End()

	switch offset {
	case 0x00:
		s.voices[0].wave.writeFreqLo(v)
	case 0x01:
		s.voices[0].wave.writeFreqHi(v)
	case 0x02:
		s.voices[0].wave.writePWLo(v)
	case 0x03:
		s.voices[0].wave.writePWHi(v)
	case 0x04:
		s.voices[0].writeControl(muteGate(v, s.muted[0]))
	case 0x05:
		s.voices[0].envelope.writeAttackDecay(v)
	case 0x06:
		s.voices[0].envelope.writeSustainRelease(v)
	case 0x07:
		s.voices[1].wave.writeFreqLo(v)
	case 0x08:
		s.voices[1].wave.writeFreqHi(v)
	case 0x09:
		s.voices[1].wave.writePWLo(v)
	case 0x0a:
		s.voices[1].wave.writePWHi(v)
	case 0x0b:
		s.voices[1].writeControl(muteGate(v, s.muted[1]))
	case 0x0c:
		s.voices[1].envelope.writeAttackDecay(v)
	case 0x0d:
		s.voices[1].envelope.writeSustainRelease(v)
	case 0x0e:
		s.voices[2].wave.writeFreqLo(v)
	case 0x0f:
		s.voices[2].wave.writeFreqHi(v)
	case 0x10:
		s.voices[2].wave.writePWLo(v)
	case 0x11:
		s.voices[2].wave.writePWHi(v)
	case 0x12:
		s.voices[2].writeControl(muteGate(v, s.muted[2]))
	case 0x13:
		s.voices[2].envelope.writeAttackDecay(v)
	case 0x14:
		s.voices[2].envelope.writeSustainRelease(v)
	case 0x15:
		s.filter.writeFCLo(v)
	case 0x16:
		s.filter.writeFCHi(v)
	case 0x17:
		s.filter.writeResFilt(v)
	case 0x18:
		s.filter.writeModeVol(v)
	}

	// Update the voice sync deadline just in case.
	s.voiceSync(false)
}

func muteGate(v uint8, muted bool) uint8 {
	if muted {
		return 0
	}
	return v
}

// SetSamplingParameters configures the sample-rate conversion.
func (s *SID) SetSamplingParameters(clockFrequency float64, method SamplingMethod, samplingFrequency float64) error {
	s.extFilter.setClockFrequency(clockFrequency)

	const highestAccurateFrequency = 20000.0

	switch method {
	case Decimate:
		s.resampler = resample.NewZeroOrder(clockFrequency, samplingFrequency)
	case Resample:
		s.resampler = resample.NewTwoPass(clockFrequency, samplingFrequency, highestAccurateFrequency)
	default:
		return errors.New("Unknown sampling method")
	}
	return nil
}

// SetResampler installs a custom sample-rate converter in place of the
// built-in ones.
func (s *SID) SetResampler(r resample.Resampler, clockFrequency float64) {
	s.extFilter.setClockFrequency(clockFrequency)
	s.resampler = r
}

// Clock advances the chip the given number of cycles, writing finished
// output samples into buf and returning how many were produced.
func (s *SID) Clock(cycles uint32, buf []int16) int {
	s.ageBusValue(cycles)
	n := 0

	for cycles != 0 {
		delta := min(s.nextVoiceSync, cycles)

		if delta > 0 {
			for i := uint32(0); i < delta; i++ {
				// Clock waveform generators.
				s.voices[0].wave.Clock()
				s.voices[1].wave.Clock()
				s.voices[2].wave.Clock()

				// Clock envelope generators.
				s.voices[0].envelope.Clock()
				s.voices[1].envelope.Clock()
				s.voices[2].envelope.Clock()

				if s.resampler.Input(int32(s.output())) {
					buf[n] = s.resampler.Output()
					n++
				}
			}

			cycles -= delta
			s.nextVoiceSync -= delta
		}

		if s.nextVoiceSync == 0 {
			s.voiceSync(true)
		}
	}

	return n
}

// ClockSilent advances the chip without producing samples; used when the
// player runs the machine dry. OSC3 and ENV3 keep updating.
func (s *SID) ClockSilent(cycles uint32) {
	s.ageBusValue(cycles)

	for cycles != 0 {
		delta := min(s.nextVoiceSync, cycles)

		if delta > 0 {
			for i := uint32(0); i < delta; i++ {
				s.voices[0].wave.Clock()
				s.voices[1].wave.Clock()
				s.voices[2].wave.Clock()

				s.voices[0].wave.Output(s.voices[2].wave)
				s.voices[1].wave.Output(s.voices[0].wave)
				s.voices[2].wave.Output(s.voices[1].wave)

				// Clock ENV3 only.
				s.voices[2].envelope.Clock()
			}

			cycles -= delta
			s.nextVoiceSync -= delta
		}

		if s.nextVoiceSync == 0 {
			s.voiceSync(true)
		}
	}
}

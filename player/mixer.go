package player

// VolumeMax is the unity gain of the left/right volume controls.
const VolumeMax = 1024

// mixer owns the per-chip sample buffers and produces interleaved PCM
// for 1-3 chips in mono or stereo, with 1-32x fast forward.
type mixer struct {
	chips []*sidemu

	stereo            bool
	fastForwardFactor int

	volume [2]int32

	// Output window of the current play() call.
	sampleBuffer []int16
	sampleIndex  int
	sampleCount  int

	// One reduced sample per chip, refreshed each mixing step.
	iSamples []int32

	oldRandomValue int32
	randState      uint32
}

func newMixer() *mixer {
	return &mixer{
		fastForwardFactor: 1,
		volume:            [2]int32{VolumeMax, VolumeMax},
		randState:         0x2b3c4d5e,
	}
}

func (m *mixer) clearSids() {
	m.chips = nil
	m.iSamples = nil
}

func (m *mixer) addSid(s *sidemu) {
	m.chips = append(m.chips, s)
	m.iSamples = append(m.iSamples, 0)
}

func (m *mixer) getSid(i int) *sidemu {
	if i < 0 || i >= len(m.chips) {
		return nil
	}
	return m.chips[i]
}

func (m *mixer) setStereo(stereo bool) { m.stereo = stereo }

func (m *mixer) setFastForward(ff int) bool {
	if ff < 1 || ff > 32 {
		return false
	}
	m.fastForwardFactor = ff
	return true
}

func (m *mixer) setVolume(left, right int32) {
	m.volume[0] = left
	m.volume[1] = right
}

func (m *mixer) begin(buffer []int16, count int) {
	m.sampleBuffer = buffer
	m.sampleIndex = 0
	m.sampleCount = count
}

func (m *mixer) notFinished() bool { return m.sampleIndex < m.sampleCount }

func (m *mixer) samplesGenerated() int { return m.sampleIndex }

// clockChips catches all chips up to the machine clock.
func (m *mixer) clockChips() {
	for _, chip := range m.chips {
		chip.clock()
	}
}

// resetBufs drops buffered chip output; used when running dry.
func (m *mixer) resetBufs() {
	for _, chip := range m.chips {
		chip.bufferpos = 0
	}
}

// triangularDithering returns a high-pass filtered random value in
// [-VolumeMax, VolumeMax), decorrelating the quantization error.
func (m *mixer) triangularDithering() int32 {
	prev := m.oldRandomValue
	m.randState = m.randState*1103515245 + 12345
	m.oldRandomValue = int32(m.randState>>16) & (VolumeMax - 1)
	return m.oldRandomValue - prev
}

// Stereo routing: one chip feeds both channels; two chips split
// left/right; with three chips the first feeds both sides and the
// others split.
func (m *mixer) channelSample(ch int) int32 {
	switch len(m.chips) {
	case 1:
		return m.iSamples[0]
	case 2:
		if !m.stereo {
			return (m.iSamples[0] + m.iSamples[1]) / 2
		}
		return m.iSamples[ch]
	default:
		if !m.stereo {
			return (m.iSamples[0] + m.iSamples[1] + m.iSamples[2]) / 3
		}
		return (m.iSamples[0] + m.iSamples[1+ch]) / 2
	}
}

// doMix drains whatever the chips have produced into the output buffer,
// then moves any leftover chip samples to the front of their buffers.
func (m *mixer) doMix() {
	if len(m.chips) == 0 {
		return
	}

	// All chips share the clock, so their buffer positions agree.
	sampleCount := m.chips[0].bufferpos

	i := 0
	for i < sampleCount {
		if m.sampleIndex >= m.sampleCount {
			break
		}
		// Enough input to reduce one output sample?
		if i+m.fastForwardFactor > sampleCount {
			break
		}

		// Boxcar average over the fast-forward window keeps aliasing at
		// bay while skipping ahead.
		for k, chip := range m.chips {
			var sum int32
			for j := 0; j < m.fastForwardFactor; j++ {
				sum += int32(chip.buffer[i+j])
			}
			m.iSamples[k] = sum / int32(m.fastForwardFactor)
		}
		i += m.fastForwardFactor

		dither := m.triangularDithering()

		channels := 1
		if m.stereo {
			channels = 2
		}
		for ch := 0; ch < channels; ch++ {
			v := (m.channelSample(ch)*m.volume[ch] + dither) / VolumeMax
			if v > 32767 {
				v = 32767
			} else if v < -32768 {
				v = -32768
			}
			m.sampleBuffer[m.sampleIndex] = int16(v)
			m.sampleIndex++
		}
	}

	// Keep unconsumed samples for the next round.
	left := sampleCount - i
	for _, chip := range m.chips {
		copy(chip.buffer, chip.buffer[i:i+left])
		chip.bufferpos = left
	}
}

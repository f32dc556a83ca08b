package sid

// Voice couples one waveform generator with its envelope generator. The
// voices of a chip live in a fixed array inside SID and refer to their
// ring-modulation / hard-sync neighbors by index.
type Voice struct {
	wave     *WaveformGenerator
	envelope *EnvelopeGenerator

	dac *dacTables
}

func newVoice() *Voice {
	return &Voice{
		wave:     newWaveformGenerator(),
		envelope: newEnvelopeGenerator(),
	}
}

func (v *Voice) setChipModel(model ChipModel) {
	v.wave.setChipModel(model)
	v.envelope.setChipModel(model)
	v.dac = dacTablesFor(model)
}

// Output is the amplitude modulated waveform output in the range
// [-2048*255, 2047*255] (20 bits).
func (v *Voice) Output(ringModulator *WaveformGenerator) int32 {
	w := v.wave.Output(ringModulator)
	return (v.dac.wave[w] - v.dac.waveZero) * v.envelope.Output()
}

func (v *Voice) writeControl(control uint8) {
	v.wave.writeControl(control)
	v.envelope.writeControl(control)
}

func (v *Voice) reset() {
	v.wave.reset()
	v.envelope.reset()
}

package resample

// ZeroOrder is the fast-path converter: it emits the linear interpolation
// of the two chip samples straddling each output instant. Cheap, and
// aliasing-prone by design; the sinc resampler is the accurate path.
type ZeroOrder struct {
	cachedSample int32
	outputValue  int32

	sampleOffset    int32
	cyclesPerSample int32
}

func NewZeroOrder(clockFrequency, samplingFrequency float64) *ZeroOrder {
	return &ZeroOrder{
		cyclesPerSample: int32(clockFrequency/samplingFrequency*1024 + 0.5),
	}
}

func (z *ZeroOrder) Input(sample int32) bool {
	ready := false

	if z.sampleOffset < 1024 {
		z.outputValue = z.cachedSample + (z.sampleOffset*(sample-z.cachedSample)>>10)
		ready = true
		z.sampleOffset += z.cyclesPerSample
	}
	z.sampleOffset -= 1024

	z.cachedSample = sample
	return ready
}

func (z *ZeroOrder) Output() int16 { return clip16(z.outputValue) }

func (z *ZeroOrder) Reset() {
	z.sampleOffset = 0
	z.cachedSample = 0
}

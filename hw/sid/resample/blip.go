package resample

import "github.com/arl/blip"

// Cycles accumulated before flushing deltas into the band-limited
// buffer.
const blipFrameCycles = 1024

// Blip adapts a band-limited synthesis buffer to the Resampler
// interface. It is the fast-sampling path: cheaper than the sinc
// resampler, with the aliasing behavior of the underlying delta
// buffer.
type Blip struct {
	buf  *blip.Buffer
	prev int32
	t    int

	pending []int16
	scratch []int16
	pos     int
}

func NewBlip(clockFrequency, samplingFrequency float64) *Blip {
	b := &Blip{
		buf:     blip.NewBuffer(blipFrameCycles),
		scratch: make([]int16, blipFrameCycles),
	}
	b.buf.SetRates(clockFrequency, samplingFrequency)
	return b
}

func (b *Blip) Input(sample int32) bool {
	if delta := sample - b.prev; delta != 0 {
		b.buf.AddDelta(uint64(b.t), delta)
		b.prev = sample
	}
	b.t++

	if b.t == blipFrameCycles {
		b.buf.EndFrame(blipFrameCycles)
		b.t = 0

		n := b.buf.ReadSamples(b.scratch, len(b.scratch), blip.Mono)

		// Compact the unread tail, then queue the new samples.
		left := copy(b.pending, b.pending[b.pos:])
		b.pending = append(b.pending[:left], b.scratch[:n]...)
		b.pos = 0
	}

	return b.pos < len(b.pending)
}

func (b *Blip) Output() int16 {
	v := b.pending[b.pos]
	b.pos++
	return v
}

func (b *Blip) Reset() {
	b.buf.Clear()
	b.prev = 0
	b.t = 0
	b.pending = b.pending[:0]
	b.pos = 0
}

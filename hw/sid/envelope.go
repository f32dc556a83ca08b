package sid

// Rate counter comparison values for each of the 16 attack/decay/release
// settings. The rate counter is a 15-bit LFSR; when it reaches the
// comparison value the envelope counter is stepped and the LFSR reset.
var adsrtable = [16]uint32{
	0x007f,
	0x3000,
	0x1e00,
	0x0660,
	0x0182,
	0x5573,
	0x000e,
	0x3805,
	0x2424,
	0x2220,
	0x090c,
	0x0ecd,
	0x010e,
	0x23f7,
	0x5237,
	0x64a8,
}

type envState int

const (
	stateAttack envState = iota
	stateDecaySustain
	stateRelease
)

// EnvelopeGenerator is the per-voice ADSR unit: a 15-bit rate LFSR
// dividing the clock to an 8-bit envelope counter, plus a 5-bit
// exponential counter that approximates the exponential decay with
// piecewise-linear segments.
type EnvelopeGenerator struct {
	lfsr uint32
	rate uint32

	exponentialCounter       uint32
	exponentialCounterPeriod uint32

	statePipeline       uint32
	envelopePipeline    uint32
	exponentialPipeline uint32

	state     envState
	nextState envState

	// Only switching to attack can unfreeze the counter.
	counterEnabled bool

	gate      bool
	resetLfsr bool

	envelopeCounter uint8

	attack  uint8
	decay   uint8
	sustain uint8
	release uint8

	// ENV3 readback, sampled at the first phase of the clock.
	env3 uint8

	dac *dacTables
}

func newEnvelopeGenerator() *EnvelopeGenerator {
	return &EnvelopeGenerator{
		lfsr:                     0x7fff,
		exponentialCounterPeriod: 1,
		state:                    stateRelease,
		nextState:                stateRelease,
		counterEnabled:           true,
		envelopeCounter:          0xaa, // powerup value
	}
}

func (e *EnvelopeGenerator) setChipModel(model ChipModel) {
	e.dac = dacTablesFor(model)
}

// stateChange advances the pipelined envelope state switch. Entering the
// attack state takes several cycles during which the decay rate is
// "accidentally" active; behavior lifted from transistor-level
// examination of the die.
func (e *EnvelopeGenerator) stateChange() {
	e.statePipeline--

	switch e.nextState {
	case stateAttack:
		if e.statePipeline == 0 {
			e.state = stateAttack
			// The attack rate register is correctly enabled during the
			// second cycle of the attack phase.
			e.rate = adsrtable[e.attack]
			e.counterEnabled = true
		}
	case stateDecaySustain:
	case stateRelease:
		if (e.state == stateAttack && e.statePipeline == 0) ||
			(e.state == stateDecaySustain && e.statePipeline == 1) {
			e.state = stateRelease
			e.rate = adsrtable[e.release]
		}
	}
}

func (e *EnvelopeGenerator) setExponentialCounter() {
	switch e.envelopeCounter {
	case 0xff:
		e.exponentialCounterPeriod = 1
	case 0x5d:
		e.exponentialCounterPeriod = 2
	case 0x36:
		e.exponentialCounterPeriod = 4
	case 0x1a:
		e.exponentialCounterPeriod = 8
	case 0x0e:
		e.exponentialCounterPeriod = 16
	case 0x06:
		e.exponentialCounterPeriod = 30
	case 0x00:
		e.exponentialCounterPeriod = 1
	}
}

// Clock advances the envelope one cycle.
func (e *EnvelopeGenerator) Clock() {
	e.env3 = e.envelopeCounter

	if e.statePipeline != 0 {
		e.stateChange()
	}

	if e.envelopePipeline != 0 {
		e.envelopePipeline--
		if e.envelopePipeline == 0 {
			if e.counterEnabled {
				if e.state == stateAttack {
					e.envelopeCounter++
					if e.envelopeCounter == 0xff {
						e.state = stateDecaySustain
						e.rate = adsrtable[e.decay]
					}
				} else if e.state == stateDecaySustain || e.state == stateRelease {
					e.envelopeCounter--
					if e.envelopeCounter == 0x00 {
						e.counterEnabled = false
					}
				}

				e.setExponentialCounter()
			}
		}
	} else if e.exponentialPipeline != 0 {
		e.exponentialPipeline--
		if e.exponentialPipeline == 0 {
			e.exponentialCounter = 0

			if (e.state == stateDecaySustain && e.envelopeCounter != e.sustain) ||
				e.state == stateRelease {
				// The envelope counter can flip from 0x00 to 0xff by
				// changing state to attack, then to release; it then
				// continues counting down in the release state.
				e.envelopePipeline = 1
			}
		}
	} else if e.resetLfsr {
		e.lfsr = 0x7fff
		e.resetLfsr = false

		if e.state == stateAttack {
			// The first envelope step in the attack state also resets
			// the exponential counter.
			e.exponentialCounter = 0
			e.envelopePipeline = 2
		} else {
			if e.counterEnabled {
				e.exponentialCounter++
				if e.exponentialCounter == e.exponentialCounterPeriod {
					if e.exponentialCounterPeriod != 1 {
						e.exponentialPipeline = 2
					} else {
						e.exponentialPipeline = 1
					}
				}
			}
		}
	}

	// ADSR delay bug: if the rate comparison value is written below the
	// current LFSR state, the register keeps shifting until it wraps
	// through 0x8000 -> 0x7fff before the next step can fire.
	if e.lfsr != e.rate {
		feedback := ((e.lfsr << 14) ^ (e.lfsr << 13)) & 0x4000
		e.lfsr = (e.lfsr >> 1) | feedback
	} else {
		e.resetLfsr = true
	}
}

func (e *EnvelopeGenerator) reset() {
	// The counter is not changed on reset.
	e.envelopePipeline = 0
	e.statePipeline = 0

	e.attack = 0
	e.decay = 0
	e.sustain = 0
	e.release = 0

	e.gate = false

	e.resetLfsr = true

	e.exponentialCounter = 0
	e.exponentialCounterPeriod = 1

	e.state = stateRelease
	e.counterEnabled = true
	e.rate = adsrtable[e.release]
}

func (e *EnvelopeGenerator) writeControl(control uint8) {
	gateNext := control&0x01 != 0
	if gateNext == e.gate {
		return
	}
	e.gate = gateNext

	// The rate counter is never reset, so there is a delay before the
	// envelope counter starts counting up (attack) or down (release).
	if gateNext {
		e.nextState = stateAttack
		e.state = stateDecaySustain
		// The decay rate register is "accidentally" enabled during the
		// first cycle of the attack phase.
		e.rate = adsrtable[e.decay]
		e.statePipeline = 2
		if e.resetLfsr || e.exponentialPipeline == 2 {
			if e.exponentialCounterPeriod == 1 || e.exponentialPipeline == 2 {
				e.envelopePipeline = 2
			} else {
				e.envelopePipeline = 4
			}
		} else if e.exponentialPipeline == 1 {
			e.statePipeline = 3
		}
	} else {
		e.nextState = stateRelease
		if e.counterEnabled {
			if e.envelopePipeline > 0 {
				e.statePipeline = 3
			} else {
				e.statePipeline = 2
			}
		}
	}
}

func (e *EnvelopeGenerator) writeAttackDecay(v uint8) {
	e.attack = (v >> 4) & 0x0f
	e.decay = v & 0x0f

	if e.state == stateAttack {
		e.rate = adsrtable[e.attack]
	} else if e.state == stateDecaySustain {
		e.rate = adsrtable[e.decay]
	}
}

func (e *EnvelopeGenerator) writeSustainRelease(v uint8) {
	// Both the low and high nibble of the envelope counter are compared
	// to the 4-bit sustain value, so the effective level is (s<<4)|s.
	e.sustain = (v & 0xf0) | ((v >> 4) & 0x0f)
	e.release = v & 0x0f

	if e.state == stateRelease {
		e.rate = adsrtable[e.release]
	}
}

// Output returns the envelope DAC output in integer scale.
func (e *EnvelopeGenerator) Output() int32 {
	return e.dac.env[e.envelopeCounter]
}

// ReadENV returns the ENV3 readback byte.
func (e *EnvelopeGenerator) ReadENV() uint8 { return e.env3 }

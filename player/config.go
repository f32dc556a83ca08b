package player

import (
	"rezid/c64"
	"rezid/hw/cia"
	"rezid/hw/sid"
)

// C64Model selects the default machine flavour.
type C64Model int

const (
	C64PAL C64Model = iota
	C64NTSC
	C64OldNTSC
	C64Drean
	C64PALM
)

// SidModel selects the default chip flavour.
type SidModel int

const (
	SID6581 SidModel = iota
	SID8580
)

// CIAModel selects the CIA revision.
type CIAModel int

const (
	CIA6526 CIAModel = iota
	CIA8521
)

// Playback selects mono or stereo output.
type Playback int

const (
	Mono Playback = iota
	Stereo
)

// SamplingMethod selects the sample rate converter.
type SamplingMethod int

const (
	// Interpolate is the fast linear converter.
	Interpolate SamplingMethod = iota
	// ResampleInterpolate is the two-pass windowed-sinc resampler.
	ResampleInterpolate
)

// MaxPowerOnDelay bounds the deterministic power-on delay; larger
// configured values select a random delay instead.
const MaxPowerOnDelay = 0x1fff

// Config carries every engine option. Zero value is not useful; start
// from DefaultConfig.
type Config struct {
	DefaultC64Model C64Model `toml:"c64_model"`
	ForceC64Model   bool     `toml:"force_c64_model"`

	DefaultSidModel SidModel `toml:"sid_model"`
	ForceSidModel   bool     `toml:"force_sid_model"`

	DigiBoost bool `toml:"digi_boost"`

	CiaModel CIAModel `toml:"cia_model"`

	Playback  Playback `toml:"playback"`
	Frequency uint32   `toml:"frequency"`

	// Extra chip addresses used when the tune does not name its own
	// (0 = disabled).
	SecondSidAddress uint16 `toml:"second_sid_address"`
	ThirdSidAddress  uint16 `toml:"third_sid_address"`

	LeftVolume  int32 `toml:"left_volume"`
	RightVolume int32 `toml:"right_volume"`

	PowerOnDelay uint16 `toml:"power_on_delay"`

	SamplingMethod SamplingMethod `toml:"sampling_method"`
	FastSampling   bool           `toml:"fast_sampling"`

	// Filter curve knobs, 0..1 with 0.5 the measured chips.
	Filter6581Curve float64 `toml:"filter_6581_curve"`
	Filter8580Curve float64 `toml:"filter_8580_curve"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		DefaultC64Model: C64PAL,
		DefaultSidModel: SID6581,
		CiaModel:        CIA6526,
		Playback:        Mono,
		Frequency:       44100,
		LeftVolume:      VolumeMax,
		RightVolume:     VolumeMax,
		PowerOnDelay:    MaxPowerOnDelay + 1, // random
		SamplingMethod:  ResampleInterpolate,
		Filter6581Curve: 0.5,
		Filter8580Curve: 0.5,
	}
}

func (c *Config) c64Model() c64.Model {
	switch c.DefaultC64Model {
	case C64NTSC:
		return c64.NTSCM
	case C64OldNTSC:
		return c64.OldNTSCM
	case C64Drean:
		return c64.PALN
	case C64PALM:
		return c64.PALM
	default:
		return c64.PALB
	}
}

func (c *Config) ciaModel() cia.Model {
	if c.CiaModel == CIA8521 {
		return cia.MOS8521
	}
	return cia.MOS6526
}

func (c *Config) sidModel() sid.ChipModel {
	if c.DefaultSidModel == SID8580 {
		return sid.MOS8580
	}
	return sid.MOS6581
}

func (c *Config) samplingMethod() sid.SamplingMethod {
	if c.SamplingMethod == Interpolate {
		return sid.Decimate
	}
	return sid.Resample
}

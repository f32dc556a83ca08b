// Package player is the engine top level: it owns the emulated C64,
// loads tunes into it, drives the machine in chunks and fills the
// caller's PCM buffer.
package player

import (
	"io"

	"rezid/c64"
	"rezid/emu/log"
	"rezid/emu/sched"
	"rezid/hw/sid"
	"rezid/hw/sid/resample"
	"rezid/tune"
)

// Error strings.
const (
	errNA              = "NA"
	errUnsupportedFreq = "SIDPLAYER ERROR: Unsupported sampling frequency."
	errUnsupportedSize = "SIDPLAYER ERROR: Size of music data exceeds C64 memory."
	errUnsupportedAddr = "SIDPLAYER ERROR: Unsupported SID address."
	errBadPercentage   = "SIDPLAYER ERROR: Percentage value out of range."
	errNoBasic         = "SIDPLAYER ERROR: C64 BASIC ROM is required"
	errIllegalInstr    = "Illegal instruction executed"
)

// ConfigError reports a rejected configuration; the engine keeps its
// previous good state.
type ConfigError struct{ Msg string }

func (e *ConfigError) Error() string { return e.Msg }

// InstallError reports that the driver could not be placed in memory.
type InstallError struct{ Msg string }

func (e *InstallError) Error() string { return e.Msg }

// RuntimeError reports a fault during playback; the engine resets to
// the loaded tune.
type RuntimeError struct{ Msg string }

func (e *RuntimeError) Error() string { return e.Msg }

type playState int

const (
	stateStopped playState = iota
	statePlaying
	stateStopping
)

// CPU cycles to run between mixer catch-ups.
const chunkCycles = 3000

// Speed strings exposed through Info.
const (
	txtPALVBI       = "50 Hz VBI (PAL)"
	txtPALVBIFixed  = "60 Hz VBI (PAL FIXED)"
	txtPALCIA       = "CIA (PAL)"
	txtNTSCVBI      = "60 Hz VBI (NTSC)"
	txtNTSCVBIFixed = "50 Hz VBI (NTSC FIXED)"
	txtNTSCCIA      = "CIA (NTSC)"
)

// Info describes the loaded tune and the running engine configuration.
type Info struct {
	Tune *tune.Tune

	Song     int
	Channels int

	SpeedString string

	DriverAddr   uint16
	DriverLength uint16
	PowerOnDelay uint16

	C64Model  c64.Model
	SidModels []sid.ChipModel
}

// Player is the engine facade. Not safe for concurrent use; the stop
// request flag is the only thing a UI thread may poke (Stop).
type Player struct {
	m   *c64.C64
	mix *mixer
	cfg Config

	tune *tune.Tune
	song int

	chips []*sidemu

	state playState
	stop  bool

	info        Info
	errorString string

	// Deterministic PRNG for the random power-on delay.
	rand uint32
}

// New creates an engine with default configuration and no tune.
func New() *Player {
	p := &Player{
		m:    c64.New(),
		mix:  newMixer(),
		cfg:  DefaultConfig(),
		rand: 0x12345678,
		errorString: errNA,
	}
	return p
}

// Error returns the message of the last failure.
func (p *Player) Error() string { return p.errorString }

// SetRoms installs Kernal/BASIC/Chargen images; nil blobs leave the
// power-on RAM pattern visible. Without a BASIC ROM, BASIC tunes refuse
// to play.
func (p *Player) SetRoms(kernal, basic, chargen []uint8) {
	p.m.SetRoms(kernal, basic, chargen)
}

// Config applies a new configuration. On error the previous good
// configuration stays in effect.
func (p *Player) Config(cfg Config) error {
	if cfg.Frequency < 8000 {
		p.errorString = errUnsupportedFreq
		return &ConfigError{Msg: errUnsupportedFreq}
	}

	if p.tune != nil {
		if err := p.configureForTune(&cfg); err != nil {
			p.errorString = err.Error()
			// Roll back.
			if perr := p.configureForTune(&p.cfg); perr != nil {
				log.ModPlayer.ErrorZ("rollback failed").Error("err", perr).End()
			}
			return err
		}
	}

	stereo := cfg.Playback == Stereo
	p.mix.setStereo(stereo)
	p.mix.setVolume(cfg.LeftVolume, cfg.RightVolume)
	p.info.Channels = 1
	if stereo {
		p.info.Channels = 2
	}

	p.cfg = cfg
	return nil
}

// Load borrows a tune for playback; passing nil unloads. The engine is
// reconfigured for the tune but playback does not start until Play.
func (p *Player) Load(t *tune.Tune) error {
	p.tune = t
	if t == nil {
		return nil
	}
	p.song = t.StartSong
	if err := p.configureForTune(&p.cfg); err != nil {
		p.tune = nil
		p.errorString = err.Error()
		return err
	}
	return nil
}

// SelectSong picks the 1-based song number for the next initialise.
func (p *Player) SelectSong(song int) {
	if p.tune == nil || song < 1 || song > p.tune.Songs {
		return
	}
	p.song = song
	if err := p.initialise(); err != nil {
		p.errorString = err.Error()
	}
}

// c64Model derives the machine model from tune and configuration.
func (p *Player) c64Model(cfg *Config) (c64.Model, Clock) {
	clock := p.tune.Clock

	if cfg.ForceC64Model || clock == tune.ClockUnknown || clock == tune.ClockAny {
		model := cfg.c64Model()
		switch cfg.DefaultC64Model {
		case C64NTSC, C64OldNTSC, C64PALM:
			return model, tune.ClockNTSC
		default:
			return model, tune.ClockPAL
		}
	}

	if clock == tune.ClockNTSC {
		return c64.NTSCM, clock
	}
	return c64.PALB, clock
}

// Clock re-exports the tune clock type for internal use.
type Clock = tune.Clock

func (p *Player) sidModelFor(n int, cfg *Config, first sid.ChipModel) sid.ChipModel {
	tm := p.tune.SidModel(n)
	if cfg.ForceSidModel || tm == tune.ModelUnknown || tm == tune.ModelAny {
		if n > 0 {
			// Unknown extra chips follow the first chip.
			if tm == tune.ModelUnknown || tm == tune.ModelAny {
				return first
			}
		}
		return cfg.sidModel()
	}
	if tm == tune.Model8580 {
		return sid.MOS8580
	}
	return sid.MOS6581
}

// configureForTune rebuilds chips and engine timing for the loaded
// tune under the given configuration.
func (p *Player) configureForTune(cfg *Config) error {
	t := p.tune

	// Machine model and clock.
	model, clock := p.c64Model(cfg)
	p.m.SetModel(model)
	p.m.SetCiaModel(cfg.ciaModel())
	p.info.C64Model = model

	// Chips: the base SID plus whatever the tune or configuration puts
	// on extra addresses.
	p.m.ClearSids()
	p.mix.clearSids()
	p.chips = nil
	p.info.SidModels = nil

	firstModel := p.sidModelFor(0, cfg, 0)

	addChip := func(n int, base uint16) error {
		chipModel := p.sidModelFor(n, cfg, firstModel)
		chip := sid.New(chipModel)
		chip.SetFilterCurve(curveFor(chipModel, cfg))
		if cfg.DigiBoost && chipModel == sid.MOS8580 {
			chip.Input(-32768)
		}

		if cfg.FastSampling {
			// Band-limited delta buffer: cheap and good enough while
			// seeking around.
			chip.SetResampler(resample.NewBlip(p.m.CpuFreq(), float64(cfg.Frequency)), p.m.CpuFreq())
		} else if err := chip.SetSamplingParameters(p.m.CpuFreq(), cfg.samplingMethod(), float64(cfg.Frequency)); err != nil {
			return &ConfigError{Msg: err.Error()}
		}

		emu := newSidemu(chip, p.m.Scheduler())
		if n == 0 {
			p.m.SetBaseSid(emu)
		} else if !p.m.AddExtraSid(emu, base) {
			return &ConfigError{Msg: errUnsupportedAddr}
		}
		p.chips = append(p.chips, emu)
		p.mix.addSid(emu)
		p.info.SidModels = append(p.info.SidModels, chipModel)
		return nil
	}

	if err := addChip(0, 0xd400); err != nil {
		return err
	}

	second := t.SidChipBase(1)
	if second == 0 {
		second = cfg.SecondSidAddress
	}
	if second != 0 {
		if err := addChip(1, second); err != nil {
			return err
		}
	}
	third := t.SidChipBase(2)
	if third == 0 {
		third = cfg.ThirdSidAddress
	}
	if third != 0 {
		if err := addChip(2, third); err != nil {
			return err
		}
	}

	p.info.SpeedString = speedString(t, p.song, clock)

	return p.initialise()
}

func curveFor(m sid.ChipModel, cfg *Config) float64 {
	if m == sid.MOS8580 {
		return cfg.Filter8580Curve
	}
	return cfg.Filter6581Curve
}

func speedString(t *tune.Tune, song int, clock Clock) string {
	cia := t.SongSpeed(song) == tune.SpeedCIA1A
	if clock == tune.ClockNTSC {
		switch {
		case cia:
			return txtNTSCCIA
		case t.Clock == tune.ClockPAL:
			return txtNTSCVBIFixed
		default:
			return txtNTSCVBI
		}
	}
	switch {
	case cia:
		return txtPALCIA
	case t.Clock == tune.ClockNTSC:
		return txtPALVBIFixed
	default:
		return txtPALVBI
	}
}

func (p *Player) next() uint32 {
	p.rand = p.rand*1103515245 + 12345
	return p.rand
}

// initialise cold-starts the machine with the tune and driver in place.
func (p *Player) initialise() error {
	p.state = stateStopped
	p.stop = false

	t := p.tune

	size := uint32(t.LoadAddr) + uint32(len(t.Data)) - 1
	if size > 0xffff {
		return &ConfigError{Msg: errUnsupportedSize}
	}

	if t.Compat == tune.CompatBASIC && !p.m.HasBasic() {
		return &ConfigError{Msg: errNoBasic}
	}

	p.m.Reset()
	for _, c := range p.chips {
		c.reset()
	}

	powerOnDelay := p.cfg.PowerOnDelay
	if powerOnDelay > MaxPowerOnDelay {
		powerOnDelay = uint16(p.next()>>3) & MaxPowerOnDelay
	}

	drv := &driver{
		tune:        t,
		song:        p.song,
		cpuFreq:     p.m.CpuFreq(),
		rasterLines: p.m.Model().RasterLines(),
	}

	if !drv.relocate(p.usedPage) {
		return &InstallError{Msg: drv.errorString}
	}

	p.info.DriverAddr = drv.addr
	p.info.DriverLength = drv.length
	p.info.PowerOnDelay = powerOnDelay
	p.info.Tune = t
	p.info.Song = p.song

	drv.install(p.m.MMU)
	p.m.MMU.InstallResetHook(drv.addr + drvColdOff)

	if err := t.PlaceInC64Mem(p.m.MMU); err != nil {
		return &ConfigError{Msg: err.Error()}
	}

	p.m.ResetCpu()
	if powerOnDelay > 0 {
		p.m.CPU.Steal(uint32(powerOnDelay))
	}

	log.ModPlayer.DebugZ("initialised").
		Hex16("driver", drv.addr).
		Uint16("delay", powerOnDelay).
		String("speed", p.info.SpeedString).
		End()

	return nil
}

// usedPage reports whether a page is unavailable for the driver.
func (p *Player) usedPage(page uint8) bool {
	// Zero page, stack, and the Kernal/BASIC working area.
	if page <= 0x03 {
		return true
	}
	// I/O, color and ROM area.
	if page >= 0xd0 {
		return true
	}
	t := p.tune
	// Installed init/play routines can live outside the load image
	// (the Sidplayer interpreter does).
	if page == uint8(t.InitAddr>>8) || page == uint8(t.PlayAddr>>8) {
		return true
	}
	start := t.LoadAddr >> 8
	end := (uint32(t.LoadAddr) + uint32(len(t.Data)) - 1) >> 8
	return uint32(page) >= uint32(start) && uint32(page) <= end
}

// Play drives the machine until the buffer is filled, returning the
// number of samples written. A nil buffer runs the engine dry for one
// real-time quantum, which is what song-length probing uses.
func (p *Player) Play(buffer []int16, count int) (int, error) {
	if p.tune == nil {
		return 0, nil
	}

	if p.state == stateStopped {
		p.state = statePlaying
	}

	var rerr error
	if p.state == statePlaying {
		p.mix.begin(buffer, count)

		if len(p.chips) > 0 && count != 0 && buffer != nil {
			for p.state == statePlaying && p.mix.notFinished() {
				if err := p.run(chunkCycles); err != nil {
					rerr = err
					break
				}
				p.mix.clockChips()
				p.mix.doMix()
			}
			count = p.mix.samplesGenerated()
		} else {
			size := int(p.m.CpuFreq() / float64(p.cfg.Frequency))
			for p.state == statePlaying && size > 0 {
				if err := p.run(chunkCycles); err != nil {
					rerr = err
					break
				}
				p.mix.clockChips()
				p.mix.resetBufs()
				size--
			}
			count = 0
		}
	}

	if p.stop {
		p.state = stateStopping
		p.stop = false
	}

	if p.state == stateStopping {
		if err := p.initialise(); err != nil {
			log.ModPlayer.WarnZ("re-initialise failed").Error("err", err).End()
		}
		p.state = stateStopped
	}

	return count, rerr
}

// run executes CPU instructions for roughly the given number of cycles.
func (p *Player) run(cycles int64) error {
	target := p.m.CPU.Cycles + cycles
	for p.m.CPU.Cycles < target {
		p.m.Clock()
		if p.m.CPU.IsHalted() {
			p.errorString = errIllegalInstr
			p.state = stateStopping
			return &RuntimeError{Msg: errIllegalInstr}
		}
	}
	return nil
}

// Stop asynchronously requests playback to halt; the next Play call
// returns promptly and the engine resets to the loaded tune.
func (p *Player) Stop() {
	if p.tune != nil && p.state == statePlaying {
		p.stop = true
	}
}

// Mute gates a voice of a chip in the register write path.
func (p *Player) Mute(chip, voice int, on bool) {
	if s := p.mix.getSid(chip); s != nil {
		s.chip.Mute(voice, on)
	}
}

// MuteChip gates all three voices of a chip.
func (p *Player) MuteChip(chip int, on bool) {
	for voice := 0; voice < 3; voice++ {
		p.Mute(chip, voice, on)
	}
}

// FastForward sets the playback speed in percent (100-3200).
func (p *Player) FastForward(percent int) error {
	if !p.mix.setFastForward(percent / 100) {
		p.errorString = errBadPercentage
		return &ConfigError{Msg: errBadPercentage}
	}
	return nil
}

// Info returns the tune and engine metadata; immutable after load.
func (p *Player) Info() Info { return p.info }

// SetTraceOutput enables the CPU execution log.
func (p *Player) SetTraceOutput(w io.Writer) {
	p.m.CPU.SetTraceOutput(w)
}

// TimeMs returns the elapsed virtual playback time in milliseconds.
func (p *Player) TimeMs() uint32 {
	return uint32(float64(p.m.Scheduler().Time(sched.Phi2)) * 1000 / p.m.CpuFreq())
}


// Package tune loads C64 music containers: PSID/RSID, Sidplayer
// MUS/STR, PC64 P00 and raw PRG images. Loading validates the container,
// extracts the metadata and the C64 payload, and computes the MD5
// fingerprints used by song-length databases.
package tune

import (
	"strings"

	"rezid/emu/log"
)

// Error strings shared by the loaders. The exact wording is part of the
// public behavior: callers match on it.
const (
	errTruncated          = "SIDTUNE ERROR: File is most likely truncated"
	errUnrecognizedFormat = "SIDTUNE ERROR: Could not determine file format"
	errInvalidData        = "SIDTUNE ERROR: File contains invalid data"
	errBadAddr            = "SIDTUNE ERROR: Bad address data"
	errEmpty              = "SIDTUNE ERROR: No data to load"
	errTooLong            = "SIDTUNE ERROR: Input data too long"
)

// LoadError is returned for any malformed or unsupported container.
type LoadError struct{ Msg string }

func (e *LoadError) Error() string { return e.Msg }

func loadError(msg string) error { return &LoadError{Msg: msg} }

// Clock is the video standard a tune was written for.
//
//go:generate go tool stringer -type=Clock
type Clock int

const (
	ClockUnknown Clock = iota
	ClockPAL
	ClockNTSC
	ClockAny
)

// Model is the SID model a tune was written for.
type Model int

const (
	ModelUnknown Model = iota
	Model6581
	Model8580
	ModelAny
)

// Compatibility selects the environment the tune requires.
type Compatibility int

const (
	CompatC64   Compatibility = iota // fully C64 compatible
	CompatPSID                       // PSID specific
	CompatR64                        // real C64 only (RSID)
	CompatBASIC                      // requires the BASIC interpreter
)

// Song cadence values, as stored in the legacy speed tables.
const (
	SpeedVBI   = 0  // vertical blank interrupt
	SpeedCIA1A = 60 // CIA 1 timer A
)

const maxSongs = 256

// Tune is a loaded tune: descriptor plus C64 payload. It is immutable
// after loading; the player borrows it for the duration of playback.
type Tune struct {
	LoadAddr uint16
	InitAddr uint16
	PlayAddr uint16

	Songs     int
	StartSong int

	// Per-song cadence, derived from the PSID speed bitmap.
	songSpeed [maxSongs]uint8

	Clock  Clock
	Compat Compatibility

	// SID model per chip and extra chip base addresses (0 = absent).
	SidModels  [3]Model
	SidAddr    [3]uint16

	RelocStartPage uint8
	RelocPages     uint8

	// Format description and up to three credit strings (title, author,
	// released).
	Format string
	Info   []string

	// MD5 fingerprints: legacy HVSC and the v2+ full-file variant.
	MD5    [16]byte
	MD5New [16]byte

	// The C64 payload, without the embedded load address bytes.
	Data []uint8

	installer installerFunc
}

// Load detects the container format by magic bytes, falling back to the
// file extension, and parses it. name may be empty when the data does
// not come from a file.
func Load(name string, data []uint8) (*Tune, error) {
	if len(data) == 0 {
		return nil, loadError(errEmpty)
	}

	// Magic-based detection first.
	if t, err := loadPSID(data); t != nil || err != nil {
		return t, err
	}
	if t, err := loadMUS(data); t != nil || err != nil {
		return t, err
	}
	if t, err := loadP00(name, data); t != nil || err != nil {
		return t, err
	}

	// Extension fallback.
	if strings.EqualFold(ext(name), ".prg") || strings.EqualFold(ext(name), ".c64") {
		return loadPRG(data)
	}

	log.ModTune.DebugZ("no loader accepted input").String("name", name).End()
	return nil, loadError(errUnrecognizedFormat)
}

func ext(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}

// SongSpeed returns the cadence of the given 1-based song number. The
// speed bitmap covers 32 songs; larger song numbers wrap, like the
// original player did.
func (t *Tune) SongSpeed(song int) uint8 {
	if song < 1 || song > t.Songs {
		song = t.StartSong
	}
	return t.songSpeed[song-1]
}

// SidChipBase returns the base address of chip n (0-based), or 0 when
// the chip is absent.
func (t *Tune) SidChipBase(n int) uint16 {
	if n < 0 || n >= 3 {
		return 0
	}
	return t.SidAddr[n]
}

// SidModel returns the model hint for chip n.
func (t *Tune) SidModel(n int) Model {
	if n < 0 || n >= 3 {
		return ModelUnknown
	}
	return t.SidModels[n]
}

// InfoString returns credit line n, or "" when absent.
func (t *Tune) InfoString(n int) string {
	if n < 0 || n >= len(t.Info) {
		return ""
	}
	return t.Info[n]
}

// Memory is the sink for installing a tune image into the machine.
type Memory interface {
	FillRam(start uint16, src []uint8)
	WriteMemByte(addr uint16, v uint8)
	WriteMemWord(addr uint16, v uint16)
}

// PlaceInC64Mem copies the payload into the 64 KiB address space.
func (t *Tune) PlaceInC64Mem(mem Memory) error {
	end := uint32(t.LoadAddr) + uint32(len(t.Data)) - 1
	if end > 0xffff {
		return loadError(errTooLong)
	}
	mem.FillRam(t.LoadAddr, t.Data)
	if t.installer != nil {
		t.installer(mem)
	}
	return nil
}

// installer hooks format-specific extra installation (the MUS player).
type installerFunc func(mem Memory)

func (t *Tune) setInstaller(f installerFunc) { t.installer = f }

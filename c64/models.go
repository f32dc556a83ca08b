package c64

import "rezid/hw/vic"

// Model identifies a C64 flavour: CPU clock and VIC geometry.
type Model int

const (
	PALB Model = iota // Europe
	NTSCM             // USA/Japan
	OldNTSCM          // early NTSC units, 64-cycle VIC
	PALN              // Drean (Argentina)
	PALM              // Brazil
)

type modelData struct {
	cpuFreq   float64
	powerFreq float64
	vicModel  vic.Model
}

var models = [...]modelData{
	PALB:     {985248.4, 50, vic.MOS6569},
	NTSCM:    {1022727.14, 60, vic.MOS6567},
	OldNTSCM: {1022727.14, 60, vic.MOS6567R56A},
	PALN:     {1023440.4, 50, vic.MOS6572},
	PALM:     {985248.4, 60, vic.MOS6573},
}

// CpuFreq returns the CPU clock of the model in Hz.
func (m Model) CpuFreq() float64 { return models[m].cpuFreq }

// FrameCycles returns the duration of one video frame in CPU cycles.
func (m Model) FrameCycles() uint32 {
	v := models[m].vicModel
	return v.CyclesPerLine * v.RasterLines
}

// RasterLines returns the number of raster lines per frame.
func (m Model) RasterLines() uint32 { return models[m].vicModel.RasterLines }

func (m Model) String() string {
	switch m {
	case PALB:
		return "PAL-B"
	case NTSCM:
		return "NTSC-M"
	case OldNTSCM:
		return "Old NTSC-M"
	case PALN:
		return "PAL-N"
	case PALM:
		return "PAL-M"
	}
	return "unknown"
}

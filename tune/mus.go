package tune

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"

	"rezid/tune/asm"
)

// Sidplayer MUS format: a 2-byte load address, three little-endian
// voice data lengths, the three voice command streams (each terminated
// by the HLT command) and a block of PETSCII credit lines. There is no
// magic; detection is by validating the voice structure.
const (
	musHLT      = 0x014f
	musDataAddr = 0x0900

	musPlayerAddr = 0xc000
)

// detectMUS validates the voice length table and HLT terminators,
// returning the credits offset relative to the voice data.
func detectMUS(data []uint8) (voice3End int, ok bool) {
	if len(data) < 8 {
		return 0, false
	}

	// Voice offsets, relative to the start of the payload (load address
	// already stripped by the caller): 3 length words, then the voice
	// streams back to back.
	v1End := 6 + int(binary.LittleEndian.Uint16(data[0:]))
	v2End := v1End + int(binary.LittleEndian.Uint16(data[2:]))
	v3End := v2End + int(binary.LittleEndian.Uint16(data[4:]))

	if v1End < 8 || v2End < v1End+2 || v3End < v2End+2 || v3End > len(data) {
		return 0, false
	}

	if binary.LittleEndian.Uint16(data[v1End-2:]) != musHLT ||
		binary.LittleEndian.Uint16(data[v2End-2:]) != musHLT ||
		binary.LittleEndian.Uint16(data[v3End-2:]) != musHLT {
		return 0, false
	}
	return v3End, true
}

// loadMUS parses a Sidplayer file. Returns (nil, nil) when the
// structure does not validate as MUS.
func loadMUS(data []uint8) (*Tune, error) {
	if len(data) < 2+8 {
		return nil, nil
	}

	// The load address bytes are part of the container but ignored:
	// Sidplayer data always sits at $0900.
	payload := data[2:]

	v3End, ok := detectMUS(payload)
	if !ok {
		return nil, nil
	}

	t := &Tune{
		LoadAddr:  musDataAddr,
		InitAddr:  musPlayerAddr,
		PlayAddr:  musPlayerAddr + 3,
		Songs:     1,
		StartSong: 1,
		Clock:     ClockPAL,
		Compat:    CompatC64,
		Format:    "Compute!'s Sidplayer format (MUS)",
		Data:      payload,
	}
	t.SidAddr[0] = 0xd400
	t.songSpeed[0] = SpeedCIA1A

	// Credit lines follow the voice data: PETSCII, CR separated.
	t.Info = musCredits(payload[v3End:])

	t.setInstaller(installMusPlayer)

	t.MD5 = musMD5(payload)
	t.MD5New = t.MD5

	return t, nil
}

func musCredits(text []uint8) []string {
	var out []string
	var line []byte
	flush := func() {
		if len(line) > 0 && len(out) < 3 {
			out = append(out, string(line))
		}
		line = line[:0]
	}
	for _, c := range text {
		switch {
		case c == 0x00:
			flush()
			return out
		case c == 0x0d:
			flush()
		default:
			if a := petsciiToAscii(c); a != 0 {
				line = append(line, a)
			}
		}
	}
	flush()
	return out
}

func musMD5(payload []uint8) [16]byte {
	return md5.Sum(payload)
}

// Zero page cells of the interpreter.
const (
	zpHalt = 0xf0 // 3 per-voice halt flags
	zpHi   = 0xf3
	zpLo   = 0xf4
	zpDur  = 0xf5 // 3 per-voice frame counters
	zpPtr  = 0xf8 // 3 per-voice stream pointers, 2 bytes each
)

// installMusPlayer builds and installs the Sidplayer interpreter. It
// implements the note core of the format: per-voice command streams of
// 16-bit words holding pitch and duration, terminated by HLT.
func installMusPlayer(mem Memory) {
	for i, b := range musPlayer() {
		mem.WriteMemByte(musPlayerAddr+uint16(i), b)
	}
}

func musPlayer() []byte {
	a := asm.New(musPlayerAddr)

	a.JMP("init")
	a.JMP("play")

	a.Label("init")
	a.LDAimm(0x00)
	for v := byte(0); v < 3; v++ {
		a.STAzp(zpHalt + v)
		a.STAzp(zpDur + v)
	}

	// Voice stream pointers: voice 1 starts after the length table,
	// voices 2 and 3 follow the preceding stream.
	a.LDAimm(0x06)
	a.STAzp(zpPtr + 0)
	a.LDAimm(0x09)
	a.STAzp(zpPtr + 1)

	a.LDAimm(0x06)
	a.CLC()
	a.ADCabs(musDataAddr + 0) // ADC len1 lo
	a.STAzp(zpPtr + 2)
	a.LDAimm(0x09)
	a.ADCabs(musDataAddr + 1) // ADC len1 hi
	a.STAzp(zpPtr + 3)

	a.LDAzp(zpPtr + 2)
	a.CLC()
	a.ADCabs(musDataAddr + 2) // ADC len2 lo
	a.STAzp(zpPtr + 4)
	a.LDAzp(zpPtr + 3)
	a.ADCabs(musDataAddr + 3) // ADC len2 hi
	a.STAzp(zpPtr + 5)

	// SID setup: full volume, shared envelope.
	a.LDAimm(0x0f)
	a.STAabs(0xd418)
	a.LDAimm(0x00)
	a.STAabs(0xd405)
	a.STAabs(0xd40c)
	a.STAabs(0xd413)
	a.LDAimm(0xa9)
	a.STAabs(0xd406)
	a.STAabs(0xd40d)
	a.STAabs(0xd414)
	a.RTS()

	a.Label("play")
	for v := byte(0); v < 3; v++ {
		sid := uint16(0xd400 + 7*uint16(v))
		next := fmt.Sprintf("next%d", v)
		fetch := fmt.Sprintf("fetch%d", v)
		nocarry := fmt.Sprintf("nocarry%d", v)
		note := fmt.Sprintf("note%d", v)

		a.LDAzp(zpHalt + v)
		a.BNE(next)
		a.LDAzp(zpDur + v)
		a.BEQ(fetch)
		a.DECzp(zpDur + v)
		a.JMP(next)

		a.Label(fetch)
		a.LDYimm(0x00)
		a.LDAindY(zpPtr + 2*v)
		a.STAzp(zpLo)
		a.INY()
		a.LDAindY(zpPtr + 2*v)
		a.STAzp(zpHi)

		a.LDAzp(zpPtr + 2*v)
		a.CLC()
		a.ADCimm(0x02)
		a.STAzp(zpPtr + 2*v)
		a.BCC(nocarry)
		a.INCzp(zpPtr + 2*v + 1)
		a.Label(nocarry)

		// HLT ends the voice.
		a.LDAzp(zpHi)
		a.CMPimm(0x01)
		a.BNE(note)
		a.LDAzp(zpLo)
		a.CMPimm(0x4f)
		a.BNE(note)
		a.LDAimm(0x01)
		a.STAzp(zpHalt + v)
		a.LDAimm(0x20) // gate off
		a.STAabs(sid + 4)
		a.JMP(next)

		a.Label(note)
		a.LDAzp(zpLo)
		a.STAabs(sid + 1) // frequency high byte
		a.LDAimm(0x21)    // sawtooth, gate on
		a.STAabs(sid + 4)
		a.LDAzp(zpHi)
		a.ANDimm(0x3f)
		a.STAzp(zpDur + v)

		a.Label(next)
	}
	a.RTS()

	return a.Assemble()
}

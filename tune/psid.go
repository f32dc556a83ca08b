package tune

import (
	"crypto/md5"
	"encoding/binary"
)

// PSID/RSID header layout (big endian). Versions 1-4; v1 headers are
// 0x76 bytes, v2+ headers 0x7C.
const (
	psidV1DataOffset = 0x76
	psidV2DataOffset = 0x7c

	psidMaxStringLen = 32
)

type psidHeader struct {
	magic      [4]byte
	version    uint16
	dataOffset uint16
	load       uint16
	init       uint16
	play       uint16
	songs      uint16
	startSong  uint16
	speed      uint32
	name       [psidMaxStringLen]byte
	author     [psidMaxStringLen]byte
	released   [psidMaxStringLen]byte
	// v2+ fields.
	flags          uint16
	relocStartPage uint8
	relocPages     uint8
	sidChipBase2   uint8
	sidChipBase3   uint8
}

// flags bits
const (
	psidMUS     = 1 << 0
	psidSpecific = 1 << 1 // PSID: PlaySID specific; RSID: C64 BASIC
)

func readPSIDHeader(data []uint8) (*psidHeader, bool, error) {
	if len(data) < 4 {
		return nil, false, nil
	}

	var rsid bool
	switch string(data[0:4]) {
	case "PSID":
	case "RSID":
		rsid = true
	default:
		return nil, false, nil
	}

	if len(data) < psidV1DataOffset {
		return nil, rsid, loadError(errTruncated)
	}

	h := &psidHeader{}
	copy(h.magic[:], data[0:4])
	h.version = binary.BigEndian.Uint16(data[4:])
	h.dataOffset = binary.BigEndian.Uint16(data[6:])
	h.load = binary.BigEndian.Uint16(data[8:])
	h.init = binary.BigEndian.Uint16(data[10:])
	h.play = binary.BigEndian.Uint16(data[12:])
	h.songs = binary.BigEndian.Uint16(data[14:])
	h.startSong = binary.BigEndian.Uint16(data[16:])
	h.speed = binary.BigEndian.Uint32(data[18:])
	copy(h.name[:], data[22:54])
	copy(h.author[:], data[54:86])
	copy(h.released[:], data[86:118])

	if h.version >= 2 {
		if len(data) < psidV2DataOffset {
			return nil, rsid, loadError(errTruncated)
		}
		h.flags = binary.BigEndian.Uint16(data[118:])
		h.relocStartPage = data[120]
		h.relocPages = data[121]
		h.sidChipBase2 = data[122]
		h.sidChipBase3 = data[123]
	}

	return h, rsid, nil
}

// loadPSID parses a PSID or RSID image. Returns (nil, nil) when the
// magic does not match.
func loadPSID(data []uint8) (*Tune, error) {
	h, rsid, err := readPSIDHeader(data)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}

	if rsid {
		if h.version < 2 || h.version > 4 {
			return nil, loadError("Unsupported RSID version")
		}
	} else {
		if h.version < 1 || h.version > 4 {
			return nil, loadError("Unsupported PSID version")
		}
	}

	t := &Tune{}

	// Data offset.
	wantOffset := uint16(psidV1DataOffset)
	if h.version >= 2 {
		wantOffset = psidV2DataOffset
	}
	if h.dataOffset != wantOffset {
		return nil, loadError(errBadAddr)
	}
	if int(h.dataOffset) >= len(data) {
		return nil, loadError(errTruncated)
	}

	payload := data[h.dataOffset:]

	t.InitAddr = h.init
	t.PlayAddr = h.play

	t.Songs = int(h.songs)
	if t.Songs == 0 {
		t.Songs = 1
	}
	if t.Songs > maxSongs {
		t.Songs = maxSongs
	}
	t.StartSong = int(h.startSong)
	if t.StartSong == 0 || t.StartSong > t.Songs {
		t.StartSong = 1
	}

	if rsid {
		// Real C64 tunes carry strict invariants.
		if h.load != 0 || h.play != 0 || h.speed != 0 {
			return nil, loadError(errInvalidData)
		}
		t.Compat = CompatR64
		if h.flags&psidSpecific != 0 {
			t.Compat = CompatBASIC
		}
	} else {
		t.Compat = CompatC64
		if h.version >= 2 && h.flags&psidSpecific != 0 {
			t.Compat = CompatPSID
		}
	}

	// The load address is taken from the header, or embedded in the
	// first two payload bytes when the header says 0.
	if h.load == 0 {
		if len(payload) < 2 {
			return nil, loadError(errTruncated)
		}
		t.LoadAddr = uint16(payload[0]) | uint16(payload[1])<<8
		payload = payload[2:]
	} else {
		t.LoadAddr = h.load
	}
	if len(payload) == 0 {
		return nil, loadError(errEmpty)
	}
	t.Data = payload

	// PSID containers can carry Sidplayer data instead of machine code.
	if !rsid && h.version >= 2 && h.flags&psidMUS != 0 {
		musData := make([]uint8, 0, len(payload)+2)
		musData = append(musData, uint8(t.LoadAddr), uint8(t.LoadAddr>>8))
		musData = append(musData, payload...)
		mt, err := loadMUS(musData)
		if err != nil {
			return nil, err
		}
		if mt == nil {
			return nil, loadError(errInvalidData)
		}
		mt.Info = []string{
			latin1String(h.name[:]),
			latin1String(h.author[:]),
			latin1String(h.released[:]),
		}
		return mt, nil
	}

	if rsid {
		if t.LoadAddr < 0x07e8 {
			return nil, loadError(errBadAddr)
		}
		if t.InitAddr == 0 {
			t.InitAddr = t.LoadAddr
		}
		// The init routine must live in RAM visible without banking
		// tricks, and inside the loaded image.
		switch t.InitAddr >> 12 {
		case 0x0a, 0x0b, 0x0d, 0x0e, 0x0f:
			return nil, loadError(errBadAddr)
		}
		if t.InitAddr < t.LoadAddr ||
			uint32(t.InitAddr) > uint32(t.LoadAddr)+uint32(len(t.Data))-1 {
			return nil, loadError(errBadAddr)
		}
	} else if t.InitAddr == 0 {
		t.InitAddr = t.LoadAddr
	}

	// Song cadence table; the bitmap covers 32 songs, further songs
	// wrap modulo 32.
	for s := 0; s < t.Songs; s++ {
		if rsid {
			t.songSpeed[s] = SpeedCIA1A
		} else if h.speed&(1<<(s%32)) != 0 {
			t.songSpeed[s] = SpeedCIA1A
		} else {
			t.songSpeed[s] = SpeedVBI
		}
	}

	// Clock and SID models.
	if h.version >= 2 {
		switch h.flags >> 2 & 3 {
		case 1:
			t.Clock = ClockPAL
		case 2:
			t.Clock = ClockNTSC
		case 3:
			t.Clock = ClockAny
		default:
			t.Clock = ClockUnknown
		}
		t.SidModels[0] = psidModel(h.flags >> 4)
		t.SidModels[1] = psidModel(h.flags >> 6)
		t.SidModels[2] = psidModel(h.flags >> 8)
	} else {
		t.Clock = ClockUnknown
		t.SidModels[0] = ModelUnknown
	}
	if rsid {
		t.Clock = ClockPAL
	}

	// Driver relocation hints. If the start page is 0 or 0xFF the
	// page count must be ignored.
	t.RelocStartPage = h.relocStartPage
	t.RelocPages = h.relocPages
	if t.RelocStartPage == 0x00 || t.RelocStartPage == 0xff {
		t.RelocPages = 0
	}

	// Extra chip addresses.
	t.SidAddr[0] = 0xd400
	if h.version >= 3 {
		t.SidAddr[1] = decodeSidAddress(h.sidChipBase2)
	}
	if h.version >= 4 {
		t.SidAddr[2] = decodeSidAddress(h.sidChipBase3)
		if t.SidAddr[2] == t.SidAddr[1] {
			t.SidAddr[2] = 0
		}
	}

	// If the second/third model is unknown it follows the first chip.
	for i := 1; i < 3; i++ {
		if t.SidAddr[i] != 0 && t.SidModels[i] == ModelUnknown {
			t.SidModels[i] = t.SidModels[0]
		}
	}

	t.Format = "PlaySID one-file format (PSID)"
	if rsid {
		t.Format = "Real C64 one-file format (RSID)"
	}
	t.Info = []string{
		latin1String(h.name[:]),
		latin1String(h.author[:]),
		latin1String(h.released[:]),
	}

	t.MD5 = psidMD5(t, payload)
	t.MD5New = md5.Sum(data)

	return t, nil
}

func psidModel(bits uint16) Model {
	switch bits & 3 {
	case 1:
		return Model6581
	case 2:
		return Model8580
	case 3:
		return ModelAny
	default:
		return ModelUnknown
	}
}

// decodeSidAddress validates the mid-byte encoding of an extra SID
// address: even values in $42-$7E ($D420-$D7E0) or $E0-$FE
// ($DE00-$DFE0); everything else is treated as absent.
func decodeSidAddress(v uint8) uint16 {
	if v&1 != 0 {
		return 0
	}
	if (v >= 0x42 && v <= 0x7e) || (v >= 0xe0 && v <= 0xfe) {
		return 0xd000 | uint16(v)<<4
	}
	return 0
}

// psidMD5 computes the legacy HVSC fingerprint: payload, init, play,
// song count, per-song speed bytes and an NTSC marker. Only NTSC
// changes the digest, so PAL tunes hash identically across PSID
// versions.
func psidMD5(t *Tune, payload []uint8) [16]byte {
	d := md5.New()
	d.Write(payload)

	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], t.InitAddr)
	d.Write(tmp[:])
	binary.LittleEndian.PutUint16(tmp[:], t.PlayAddr)
	d.Write(tmp[:])
	binary.LittleEndian.PutUint16(tmp[:], uint16(t.Songs))
	d.Write(tmp[:])

	for s := 1; s <= t.Songs; s++ {
		d.Write([]byte{t.SongSpeed(s)})
	}

	if t.Clock == ClockNTSC {
		d.Write([]byte{2})
	}

	var sum [16]byte
	copy(sum[:], d.Sum(nil))
	return sum
}

// latin1String trims a fixed NUL-padded header field.
func latin1String(b []byte) string {
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	return string(b)
}

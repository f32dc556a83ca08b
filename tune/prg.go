package tune

import "crypto/md5"

// loadPRG accepts a raw C64 program file: a little-endian load address
// followed by data. Only reachable through the file extension, since a
// PRG has no magic.
func loadPRG(data []uint8) (*Tune, error) {
	if len(data) < 2 {
		return nil, loadError(errTruncated)
	}

	t := &Tune{
		LoadAddr:  uint16(data[0]) | uint16(data[1])<<8,
		Songs:     1,
		StartSong: 1,
		Clock:     ClockUnknown,
		Compat:    CompatBASIC,
		Format:    "Tape image file (PRG)",
		Data:      data[2:],
	}
	t.InitAddr = t.LoadAddr
	t.SidAddr[0] = 0xd400
	t.songSpeed[0] = SpeedVBI

	t.MD5 = md5.Sum(t.Data)
	t.MD5New = t.MD5

	return t, nil
}

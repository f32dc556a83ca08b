package tune

import "crypto/md5"

// PC64 "x00" container: an 8-byte magic, the original 16-character
// PETSCII file name, a record length byte and the raw C64 file. Only
// PRG payloads can be played.
const (
	x00IDLen   = 8
	x00NameLen = 17

	p00ID = "C64File\x00"
)

// loadP00 parses a PC64 container. Detection combines the extension
// (.p00/.s00/...) and the magic field; returns (nil, nil) when either
// does not match.
func loadP00(name string, data []uint8) (*Tune, error) {
	e := ext(name)
	if len(e) != 4 || !isDigit(e[2]) || !isDigit(e[3]) {
		return nil, nil
	}

	var format string
	kind := byte(0)
	switch e[1] | 0x20 {
	case 'd':
		kind, format = 'D', "Unsupported tape image file (DEL)"
	case 's':
		kind, format = 'S', "Unsupported tape image file (SEQ)"
	case 'p':
		kind, format = 'P', "Tape image file (PRG)"
	case 'u':
		kind, format = 'U', "Unsupported USR file (USR)"
	case 'r':
		kind, format = 'R', "Unsupported tape image file (REL)"
	default:
		return nil, nil
	}

	if len(data) < x00IDLen {
		return nil, nil
	}
	if string(data[:x00IDLen]) != p00ID {
		return nil, nil
	}

	if kind != 'P' {
		return nil, loadError("Not a PRG inside X00")
	}

	headerLen := x00IDLen + x00NameLen + 1
	if len(data) < headerLen+2 {
		return nil, loadError(errTruncated)
	}

	payload := data[headerLen:]

	t := &Tune{
		LoadAddr:  uint16(payload[0]) | uint16(payload[1])<<8,
		Songs:     1,
		StartSong: 1,
		Clock:     ClockUnknown,
		Compat:    CompatBASIC,
		Format:    format,
		Data:      payload[2:],
	}
	t.InitAddr = t.LoadAddr
	t.SidAddr[0] = 0xd400
	t.songSpeed[0] = SpeedVBI

	t.Info = []string{petsciiString(data[x00IDLen : x00IDLen+x00NameLen])}

	t.MD5 = md5.Sum(t.Data)
	t.MD5New = t.MD5

	return t, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

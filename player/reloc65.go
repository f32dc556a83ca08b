package player

import "encoding/binary"

// reloc65 relocates an o65 object file in memory and extracts its text
// segment. Only the subset of the format produced by the driver
// assembler is required, but the relocation table walk follows the full
// o65 specification: offset bytes (255 escapes a 254-byte skip), a
// type/segment byte, and an extra low byte after HIGH entries.
type reloc65 struct {
	tbase int
	tflag bool
	dbase int
	dflag bool
}

// o65 header field offsets (16-bit mode).
const (
	o65HeaderLen = 26

	o65TBase = 8
	o65TLen  = 10
	o65DBase = 12
	o65DLen  = 14
	o65BBase = 16
	o65BLen  = 18
	o65ZBase = 20
	o65ZLen  = 22
)

var o65Magic = []byte{0x01, 0x00, 0x6f, 0x36, 0x35, 0x00}

// setTextReloc selects the new text segment base address.
func (r *reloc65) setTextReloc(addr int) {
	r.tbase = addr
	r.tflag = true
}

// reloc relocates buf in place and returns the extracted text segment.
func (r *reloc65) reloc(buf []byte) ([]byte, bool) {
	if len(buf) < o65HeaderLen {
		return nil, false
	}
	for i, m := range o65Magic {
		if buf[i] != m {
			return nil, false
		}
	}

	mode := int(binary.LittleEndian.Uint16(buf[6:]))
	if mode&0x2000 != 0 || mode&0x8000 != 0 {
		// 32-bit offsets and pagewise relocation are not handled.
		return nil, false
	}

	tbase := int(binary.LittleEndian.Uint16(buf[o65TBase:]))
	tlen := int(binary.LittleEndian.Uint16(buf[o65TLen:]))
	dbase := int(binary.LittleEndian.Uint16(buf[o65DBase:]))
	dlen := int(binary.LittleEndian.Uint16(buf[o65DLen:]))

	tdiff := 0
	if r.tflag {
		tdiff = r.tbase - tbase
	}
	ddiff := 0
	if r.dflag {
		ddiff = r.dbase - dbase
	}

	// Skip header options.
	hlen := o65HeaderLen
	for hlen < len(buf) && buf[hlen] != 0 {
		hlen += int(buf[hlen])
	}
	hlen++

	if hlen+tlen+dlen+2 > len(buf) {
		return nil, false
	}

	segt := buf[hlen : hlen+tlen]
	segd := buf[hlen+tlen : hlen+tlen+dlen]

	// Undefined references are not supported.
	utab := hlen + tlen + dlen
	if binary.LittleEndian.Uint16(buf[utab:]) != 0 {
		return nil, false
	}

	rtab := utab + 2
	rtab = r.relocSeg(segt, tbase, rtab, buf, tdiff, ddiff)
	if rtab < 0 {
		return nil, false
	}
	rtab = r.relocSeg(segd, dbase, rtab, buf, tdiff, ddiff)
	if rtab < 0 {
		return nil, false
	}

	// Patch the header bases.
	if r.tflag {
		binary.LittleEndian.PutUint16(buf[o65TBase:], uint16(r.tbase))
	}
	if r.dflag {
		binary.LittleEndian.PutUint16(buf[o65DBase:], uint16(r.dbase))
	}

	return segt, true
}

// relocSeg applies one segment's relocation table, returning the offset
// of the byte after the table's terminating zero, or -1 on error.
func (r *reloc65) relocSeg(seg []byte, base, rtab int, buf []byte, tdiff, ddiff int) int {
	adr := base - 1
	for rtab < len(buf) {
		off := int(buf[rtab])
		rtab++
		if off == 0 {
			return rtab
		}
		if off == 255 {
			adr += 254
			continue
		}
		adr += off

		typSeg := buf[rtab]
		rtab++
		typ := typSeg & 0xe0
		segID := typSeg & 0x07

		diff := 0
		switch segID {
		case 2:
			diff = tdiff
		case 3:
			diff = ddiff
		case 4, 5:
			diff = 0
		}

		idx := adr - base
		if idx < 0 || idx >= len(seg) {
			return -1
		}

		switch typ {
		case 0x80: // WORD
			if idx+1 >= len(seg) {
				return -1
			}
			v := int(binary.LittleEndian.Uint16(seg[idx:])) + diff
			binary.LittleEndian.PutUint16(seg[idx:], uint16(v))
		case 0x40: // HIGH byte, low byte follows in the table
			lo := int(buf[rtab])
			rtab++
			v := int(seg[idx])<<8 + lo + diff
			seg[idx] = uint8(v >> 8)
		case 0x20: // LOW byte
			v := int(seg[idx]) + diff
			seg[idx] = uint8(v)
		}
	}
	return -1
}

// makeO65 wraps a text segment into a minimal o65 image with WORD
// relocation entries for the given text-relative operand offsets.
func makeO65(text []byte, org uint16, relocOffsets []int) []byte {
	var buf []byte
	buf = append(buf, o65Magic...)

	var hdr [20]byte
	binary.LittleEndian.PutUint16(hdr[0:], 0)           // mode
	binary.LittleEndian.PutUint16(hdr[2:], org)         // tbase
	binary.LittleEndian.PutUint16(hdr[4:], uint16(len(text)))
	// dbase, dlen, bbase, blen, zbase, zlen, stack: all zero.
	buf = append(buf, hdr[:]...)

	buf = append(buf, 0) // no header options

	buf = append(buf, text...)

	buf = append(buf, 0, 0) // no undefined references

	// Text relocation table: one WORD entry per absolute operand.
	prev := -1
	for _, off := range relocOffsets {
		delta := off - prev
		for delta > 254 {
			buf = append(buf, 255)
			delta -= 254
		}
		buf = append(buf, byte(delta), 0x80|0x02)
		prev = off
	}
	buf = append(buf, 0) // end of text relocations
	buf = append(buf, 0) // end of data relocations
	buf = append(buf, 0, 0) // no exported globals

	return buf
}

package exif

// reader wraps a byte buffer with bounds-checked, endian-aware accessors.
// Every accessor reports ok=false instead of panicking on a short buffer.
type reader struct {
	data         []byte
	littleEndian bool
}

func (r *reader) inRange(offset, n int) bool {
	return offset >= 0 && n >= 0 && offset <= len(r.data)-n
}

func (r *reader) uint8(offset int) (uint8, bool) {
	if !r.inRange(offset, 1) {
		return 0, false
	}
	return r.data[offset], true
}

func (r *reader) uint16(offset int) (uint16, bool) {
	if !r.inRange(offset, 2) {
		return 0, false
	}
	if r.littleEndian {
		return uint16(r.data[offset]) | uint16(r.data[offset+1])<<8, true
	}
	return uint16(r.data[offset])<<8 | uint16(r.data[offset+1]), true
}

func (r *reader) uint32(offset int) (uint32, bool) {
	if !r.inRange(offset, 4) {
		return 0, false
	}
	d := r.data[offset : offset+4]
	if r.littleEndian {
		return uint32(d[0]) | uint32(d[1])<<8 | uint32(d[2])<<16 | uint32(d[3])<<24, true
	}
	return uint32(d[0])<<24 | uint32(d[1])<<16 | uint32(d[2])<<8 | uint32(d[3]), true
}

func (r *reader) putUint16(offset int, v uint16) bool {
	if !r.inRange(offset, 2) {
		return false
	}
	if r.littleEndian {
		r.data[offset] = byte(v)
		r.data[offset+1] = byte(v >> 8)
	} else {
		r.data[offset] = byte(v >> 8)
		r.data[offset+1] = byte(v)
	}
	return true
}

func (r *reader) ascii(offset, n int) (string, bool) {
	if !r.inRange(offset, n) {
		return "", false
	}
	return string(r.data[offset : offset+n]), true
}

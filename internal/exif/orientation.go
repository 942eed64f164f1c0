package exif

// Markers and identifiers used while walking a JPEG APP1/TIFF block.
const (
	markerPrefix   = 0xFF
	markerSOI      = 0xD8
	markerAPP1     = 0xE1
	byteOrderLE    = 0x4949
	byteOrderBE    = 0x4D4D
	tiffMagic      = 0x002A
	minIFDOffset   = 0x00000008
	tagOrientation = 0x0112

	// APP1 layout: marker(2) length(2) "Exif"(4) pad(2) TIFF header.
	exifIDOffset  = 4
	tiffOffset    = 10
	ifdEntrySize  = 12
	entryValueOff = 8
)

// NeutralOrientation is the orientation value that requests no transform.
const NeutralOrientation = 1

// ReadAndResetOrientation returns the EXIF orientation code stored in the
// first APP1 block of a JPEG buffer and overwrites it in place with
// NeutralOrientation, so a decoder reading buf afterwards sees an upright
// image. found is false when buf is not a JPEG, carries no Exif block, or the
// block is malformed; buf is left untouched in that case.
func ReadAndResetOrientation(buf []byte) (orientation int, found bool) {
	r := &reader{data: buf}

	b0, ok0 := r.uint8(0)
	b1, ok1 := r.uint8(1)
	if !ok0 || !ok1 || b0 != markerPrefix || b1 != markerSOI {
		return 0, false
	}

	app1 := -1
	for offset := 2; offset+1 < len(buf); offset++ {
		if buf[offset] == markerPrefix && buf[offset+1] == markerAPP1 {
			app1 = offset
			break
		}
	}
	if app1 < 0 {
		return 0, false
	}

	if id, ok := r.ascii(app1+exifIDOffset, 4); !ok || id != "Exif" {
		return 0, false
	}

	header := app1 + tiffOffset
	order, ok := r.uint16(header)
	if !ok {
		return 0, false
	}
	switch order {
	case byteOrderLE:
		r.littleEndian = true
	case byteOrderBE:
		r.littleEndian = false
	default:
		return 0, false
	}

	if magic, ok := r.uint16(header + 2); !ok || magic != tiffMagic {
		return 0, false
	}

	first, ok := r.uint32(header + 4)
	if !ok || first < minIFDOffset {
		return 0, false
	}
	ifd := header + int(first)

	count, ok := r.uint16(ifd)
	if !ok {
		return 0, false
	}
	for i := 0; i < int(count); i++ {
		entry := ifd + 2 + i*ifdEntrySize
		tag, ok := r.uint16(entry)
		if !ok {
			return 0, false
		}
		if tag != tagOrientation {
			continue
		}
		value, ok := r.uint16(entry + entryValueOff)
		if !ok {
			return 0, false
		}
		r.putUint16(entry+entryValueOff, NeutralOrientation)
		return int(value), true
	}

	return 0, false
}

// Orientation reads the EXIF orientation without modifying buf.
func Orientation(buf []byte) (int, bool) {
	scratch := make([]byte, len(buf))
	copy(scratch, buf)
	return ReadAndResetOrientation(scratch)
}

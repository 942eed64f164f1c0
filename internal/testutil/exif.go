package testutil

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// ExifBlock describes the IFD0 entries written by WithExif.
type ExifBlock struct {
	BigEndian   bool
	Orientation uint16 // 0 omits the tag
	Make        string // empty omits the tag
}

// OrientationOffset returns the absolute offset of the orientation value in
// a buffer produced by WithExif, or -1 when the block has no orientation.
func (b ExifBlock) OrientationOffset() int {
	if b.Orientation == 0 {
		return -1
	}
	// SOI(2) + APP1 marker(2) + length(2) + "Exif\0\0"(6) = TIFF header at 12.
	// Header(8) + count(2) puts the first entry at 22; Make sorts before it.
	entry := 12 + 8 + 2
	if b.Make != "" {
		entry += 12
	}
	return entry + 8
}

// WithExif splices an APP1 Exif segment right after the SOI marker of a
// JPEG produced by EncodeJPEG.
func WithExif(t testing.TB, jpegData []byte, block ExifBlock) []byte {
	t.Helper()
	if len(jpegData) < 2 || jpegData[0] != 0xFF || jpegData[1] != 0xD8 {
		t.Fatalf("WithExif: input is not a JPEG")
	}

	var order binary.ByteOrder = binary.LittleEndian
	byteOrder := []byte("II")
	if block.BigEndian {
		order = binary.BigEndian
		byteOrder = []byte("MM")
	}

	type entry struct {
		tag, typ uint16
		count    uint32
		value    []byte
	}
	var entries []entry
	var makeData []byte
	if block.Make != "" {
		makeData = append([]byte(block.Make), 0)
		entries = append(entries, entry{tag: 0x010F, typ: 2, count: uint32(len(makeData))})
	}
	if block.Orientation != 0 {
		v := make([]byte, 4)
		order.PutUint16(v, block.Orientation)
		entries = append(entries, entry{tag: 0x0112, typ: 3, count: 1, value: v})
	}

	var tiff bytes.Buffer
	tiff.Write(byteOrder)
	writeU16(&tiff, order, 0x002A)
	writeU32(&tiff, order, 8)
	writeU16(&tiff, order, uint16(len(entries)))

	dataOffset := uint32(8 + 2 + len(entries)*12 + 4)
	for _, e := range entries {
		writeU16(&tiff, order, e.tag)
		writeU16(&tiff, order, e.typ)
		writeU32(&tiff, order, e.count)
		if e.tag == 0x010F {
			if len(makeData) <= 4 {
				v := make([]byte, 4)
				copy(v, makeData)
				tiff.Write(v)
			} else {
				writeU32(&tiff, order, dataOffset)
			}
			continue
		}
		tiff.Write(e.value)
	}
	writeU32(&tiff, order, 0)
	if len(makeData) > 4 {
		tiff.Write(makeData)
	}

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	writeU16(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(jpegData[2:])
	return out.Bytes()
}

func writeU16(b *bytes.Buffer, order binary.ByteOrder, v uint16) {
	var tmp [2]byte
	order.PutUint16(tmp[:], v)
	b.Write(tmp[:])
}

func writeU32(b *bytes.Buffer, order binary.ByteOrder, v uint32) {
	var tmp [4]byte
	order.PutUint32(tmp[:], v)
	b.Write(tmp[:])
}

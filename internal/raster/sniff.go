package raster

import (
	"bytes"
	"io"
	"net/http"
	"strings"
)

var (
	tiffLE = []byte{'I', 'I', 0x2A, 0x00}
	tiffBE = []byte{'M', 'M', 0x00, 0x2A}
)

// DetectFormat reads up to 512 bytes from r and returns the detected MIME type.
// Note: this will consume from r.
func DetectFormat(r io.Reader) (string, error) {
	buf := make([]byte, 512)
	n, err := io.ReadAtLeast(r, buf, 1)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	return Sniff(buf[:n]), nil
}

// Sniff returns the MIME type of data without parameters. It extends
// http.DetectContentType with ISO-BMFF AVIF brands and TIFF headers.
func Sniff(data []byte) string {
	if len(data) >= 12 && string(data[4:8]) == "ftyp" {
		switch string(data[8:12]) {
		case "avif", "avis":
			return TypeAVIF
		}
	}
	if bytes.HasPrefix(data, tiffLE) || bytes.HasPrefix(data, tiffBE) {
		return TypeTIFF
	}
	return BaseType(http.DetectContentType(data))
}

// BaseType strips parameters and lowercases a media type.
func BaseType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// IsImage reports whether mimeType names an image media type.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(BaseType(mimeType), "image/")
}

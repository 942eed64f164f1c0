// Package raster provides the pixel capabilities the compressor drives:
// format detection, decoding, a drawing context over an RGBA surface, and
// encoding.
package raster

import "errors"

var (
	ErrUnsupported = errors.New("unsupported image format")
	ErrEmptyImage  = errors.New("image has no pixels")
)

// Media types understood by the codec.
const (
	TypeJPEG = "image/jpeg"
	TypePNG  = "image/png"
	TypeGIF  = "image/gif"
	TypeWebP = "image/webp"
	TypeAVIF = "image/avif"
	TypeBMP  = "image/bmp"
	TypeTIFF = "image/tiff"
)

package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/png"
	"io"
	"math"

	webp "github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/jpegn"
	"go.uber.org/zap"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// DefaultAVIFSpeed is the standard speed used for AVIF encoding.
const DefaultAVIFSpeed = 6

// Codec decodes source bytes and encodes rendered surfaces.
type Codec struct {
	log       *zap.SugaredLogger
	avifSpeed int
}

// NewCodec returns a codec that logs encoded sizes at debug level.
func NewCodec(log *zap.SugaredLogger) *Codec {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Codec{log: log, avifSpeed: DefaultAVIFSpeed}
}

// Decode decodes data according to its sniffed content. The declared type is
// not trusted: a renamed PNG still decodes as PNG.
func (c *Codec) Decode(ctx context.Context, data []byte) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := bytes.NewReader(data)
	var (
		img image.Image
		err error
	)
	switch ct := Sniff(data); ct {
	case TypeJPEG:
		img, err = jpegn.Decode(r, &jpegn.Options{AutoRotate: false})
	case TypePNG:
		img, err = png.Decode(r)
	case TypeGIF:
		img, err = gif.Decode(r)
	case TypeWebP:
		img, err = webp.Decode(r)
	case TypeAVIF:
		img, err = avif.Decode(r)
	case TypeBMP:
		img, err = bmp.Decode(r)
	case TypeTIFF:
		img, err = tiff.Decode(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ct)
	}
	if err != nil {
		return nil, err
	}

	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}
	return img, nil
}

// DecodeConfig returns the stored dimensions of data without decoding pixels.
func (c *Codec) DecodeConfig(data []byte) (image.Config, string, error) {
	r := bytes.NewReader(data)
	ct := Sniff(data)

	var (
		cfg image.Config
		err error
	)
	switch ct {
	case TypeJPEG:
		cfg, err = jpegn.DecodeConfig(r)
	case TypePNG:
		cfg, err = png.DecodeConfig(r)
	case TypeGIF:
		cfg, err = gif.DecodeConfig(r)
	case TypeWebP:
		cfg, err = webp.DecodeConfig(r)
	case TypeAVIF:
		cfg, err = avif.DecodeConfig(r)
	case TypeBMP:
		cfg, err = bmp.DecodeConfig(r)
	case TypeTIFF:
		cfg, err = tiff.DecodeConfig(r)
	default:
		return image.Config{}, ct, fmt.Errorf("%w: %s", ErrUnsupported, ct)
	}
	return cfg, ct, err
}

// CanEncode reports whether Encode produces mimeType without falling back.
func CanEncode(mimeType string) bool {
	switch BaseType(mimeType) {
	case TypeJPEG, TypePNG, TypeGIF, TypeWebP, TypeAVIF, TypeBMP, TypeTIFF:
		return true
	}
	return false
}

// Encode encodes img as mimeType with quality in [0, 1]. Lossless formats
// ignore quality. Types the codec cannot produce are encoded as PNG, so the
// returned type may differ from the requested one.
func (c *Codec) Encode(ctx context.Context, img image.Image, mimeType string, quality float64) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if img == nil {
		return nil, "", errors.New("nil image")
	}

	mimeType = BaseType(mimeType)
	if !CanEncode(mimeType) {
		mimeType = TypePNG
	}
	q := qualityPercent(quality)

	var buf bytes.Buffer
	cw := &countingWriter{w: &buf}
	var err error
	switch mimeType {
	case TypeJPEG:
		err = imaging.Encode(cw, img, imaging.JPEG, imaging.JPEGQuality(q))
	case TypePNG:
		err = imaging.Encode(cw, img, imaging.PNG)
	case TypeGIF:
		err = imaging.Encode(cw, img, imaging.GIF)
	case TypeBMP:
		err = imaging.Encode(cw, img, imaging.BMP)
	case TypeTIFF:
		err = imaging.Encode(cw, img, imaging.TIFF)
	case TypeWebP:
		err = webp.Encode(cw, img, &webp.Options{Quality: float32(q)})
	case TypeAVIF:
		err = avif.Encode(cw, img, avif.Options{Quality: q, QualityAlpha: q, Speed: c.avifSpeed})
	}
	if err != nil {
		return nil, mimeType, fmt.Errorf("encode %s: %w", mimeType, err)
	}

	c.log.Debugw("raster: encoded", "type", mimeType, "size", cw.n, "quality", q)
	return buf.Bytes(), mimeType, nil
}

// qualityPercent maps a [0, 1] quality to the 1..100 scale of the encoders.
func qualityPercent(q float64) int {
	if math.IsNaN(q) {
		return 80
	}
	p := int(math.Round(q * 100))
	if p < 1 {
		p = 1
	}
	if p > 100 {
		p = 100
	}
	return p
}

// countingWriter wraps an io.Writer and counts bytes written.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	m, err := c.w.Write(p)
	c.n += int64(m)
	return m, err
}

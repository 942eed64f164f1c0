package compressor

import (
	"math"

	"imagecompressor/internal/dimension"
	"imagecompressor/internal/raster"
)

const (
	// DefaultQuality is used when Quality is not in (0, 1].
	DefaultQuality = 0.8
	// DefaultConvertSize is the PNG size above which output is forced to JPEG.
	DefaultConvertSize int64 = 2048000
)

// Options controls a single run. Start from DefaultOptions: the zero value
// disables loose mode and orientation correction.
type Options struct {
	// Quality in (0, 1] for lossy encoders.
	Quality float64
	// MimeType of the output. Non-image values select the source type.
	MimeType string
	// ConvertSize is the source size in bytes above which a PNG target is
	// encoded as JPEG over a white background.
	ConvertSize int64
	// Loose allows a result larger than the source. When false, such a
	// result is discarded unless the output box is larger than the source.
	Loose bool
	// RedressOrientation draws JPEG sources upright according to EXIF.
	RedressOrientation bool

	MaxWidth  float64
	MaxHeight float64
	MinWidth  float64
	MinHeight float64
	Width     float64
	Height    float64

	// BeforeCompress is notified once the source is decoded.
	BeforeCompress func(SourceInfo)
	// BeforeDraw runs after the background fill and before the source is
	// drawn. Fill style and filter changes apply to the draw.
	BeforeDraw func(*raster.Context)
	// AfterDraw runs after the source is drawn, in upright canvas
	// coordinates.
	AfterDraw func(*raster.Context)
}

// DefaultOptions returns the options used when the caller sets nothing.
func DefaultOptions() Options {
	return Options{
		Quality:            DefaultQuality,
		ConvertSize:        DefaultConvertSize,
		Loose:              true,
		RedressOrientation: true,
	}
}

// Constraints returns the box constraints carried by o.
func (o Options) Constraints() dimension.Constraints {
	return dimension.Constraints{
		MaxWidth:  o.MaxWidth,
		MaxHeight: o.MaxHeight,
		MinWidth:  o.MinWidth,
		MinHeight: o.MinHeight,
		Width:     o.Width,
		Height:    o.Height,
	}
}

// resolve fills in the defaults that depend on the source type.
func (o Options) resolve(sourceType string) Options {
	if math.IsNaN(o.Quality) || o.Quality <= 0 {
		o.Quality = DefaultQuality
	}
	if o.Quality > 1 {
		o.Quality = 1
	}
	if o.ConvertSize <= 0 {
		o.ConvertSize = DefaultConvertSize
	}
	if raster.IsImage(o.MimeType) {
		o.MimeType = raster.BaseType(o.MimeType)
	} else {
		o.MimeType = sourceType
	}
	return o
}

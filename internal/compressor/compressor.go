package compressor

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"imagecompressor/internal/dimension"
	"imagecompressor/internal/exif"
	"imagecompressor/internal/orientation"
	"imagecompressor/internal/raster"
)

// DefaultMaxDimension caps the width or height of a source and of the
// canvas drawn from it.
const DefaultMaxDimension = 16384

// Decoder turns source bytes into pixels. DecodeConfig reads only the
// header so oversized sources can be refused before any pixel allocation.
type Decoder interface {
	DecodeConfig(data []byte) (image.Config, string, error)
	Decode(ctx context.Context, data []byte) (image.Image, error)
}

// Encoder turns a rendered surface into bytes of (ideally) mimeType. It
// returns the type actually produced.
type Encoder interface {
	Encode(ctx context.Context, img image.Image, mimeType string, quality float64) ([]byte, string, error)
}

// Compressor runs the decode, draw, encode and select chain. It holds no
// per-run state and is safe for concurrent use.
type Compressor struct {
	log          *zap.SugaredLogger
	decoder      Decoder
	encoder      Encoder
	now          func() time.Time
	maxDimension int
}

// Option configures a Compressor.
type Option func(*Compressor)

// WithDecoder replaces the raster decoder.
func WithDecoder(d Decoder) Option { return func(c *Compressor) { c.decoder = d } }

// WithEncoder replaces the raster encoder.
func WithEncoder(e Encoder) Option { return func(c *Compressor) { c.encoder = e } }

// WithClock sets the time source used to stamp artifacts.
func WithClock(now func() time.Time) Option { return func(c *Compressor) { c.now = now } }

// WithMaxDimension rejects sources and canvases wider or taller than n
// pixels. Zero or less lifts the source check; canvases stay bounded by
// DefaultMaxDimension.
func WithMaxDimension(n int) Option { return func(c *Compressor) { c.maxDimension = n } }

// New returns a Compressor backed by the raster codec.
func New(log *zap.SugaredLogger, opts ...Option) *Compressor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	codec := raster.NewCodec(log)
	c := &Compressor{
		log:          log,
		decoder:      codec,
		encoder:      codec,
		now:          time.Now,
		maxDimension: DefaultMaxDimension,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compress runs one compression of file. Input problems (no data, a
// non-image type, undecodable bytes) are returned as errors; encode failure
// and strict-mode rejection yield the source as an artifact with a fallback
// Outcome.
func (c *Compressor) Compress(ctx context.Context, file File, opts Options) (*Artifact, error) {
	// Loading
	if len(file.Data) == 0 {
		return nil, ErrNoFile
	}
	sourceType := raster.BaseType(file.Type)
	if sourceType == "" {
		sourceType = raster.Sniff(file.Data)
	}
	if !raster.IsImage(sourceType) {
		return nil, fmt.Errorf("%w: %s", ErrNotAnImage, sourceType)
	}
	opts = opts.resolve(sourceType)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.maxDimension > 0 {
		cfg, _, err := c.decoder.DecodeConfig(file.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		if cfg.Width > c.maxDimension || cfg.Height > c.maxDimension {
			return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, cfg.Width, cfg.Height)
		}
	}
	img, err := c.decoder.Decode(ctx, file.Data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	bounds := img.Bounds()
	naturalWidth, naturalHeight := bounds.Dx(), bounds.Dy()
	if c.maxDimension > 0 && (naturalWidth > c.maxDimension || naturalHeight > c.maxDimension) {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, naturalWidth, naturalHeight)
	}

	if opts.BeforeCompress != nil {
		info := SourceInfo{
			Name:   file.Name,
			Type:   sourceType,
			Size:   int64(len(file.Data)),
			Width:  naturalWidth,
			Height: naturalHeight,
		}
		if sourceType == raster.TypeJPEG {
			info.Camera = exif.Describe(file.Data)
		}
		opts.BeforeCompress(info)
	}

	// OrientationProbe
	transform := orientation.Identity
	if sourceType == raster.TypeJPEG && opts.RedressOrientation {
		if code, found := exif.Orientation(file.Data); found {
			transform = orientation.Resolve(code)
		}
	}

	// Drawing
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	box := dimension.Negotiate(naturalWidth, naturalHeight, transform.SwapsAxes(), opts.Constraints())
	if limit := c.canvasLimit(); box.CanvasWidth > limit || box.CanvasHeight > limit {
		return nil, fmt.Errorf("%w: canvas %dx%d exceeds %d", ErrInvalidDimensions, box.CanvasWidth, box.CanvasHeight, limit)
	}
	targetType := opts.MimeType
	fill := transparentFill
	if int64(len(file.Data)) > opts.ConvertSize && targetType == raster.TypePNG {
		fill = opaqueFill
		targetType = raster.TypeJPEG
	}
	rc := render(img, transform, box, fill, opts)

	c.log.Debugw("compressor: drawn",
		"name", file.Name,
		"orientation", transform,
		"canvas_width", rc.Width(),
		"canvas_height", rc.Height(),
		"target_type", targetType,
	)

	// Encoding
	data, actualType, encErr := c.encoder.Encode(ctx, rc.Surface(), targetType, opts.Quality)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return c.settle(settleInput{
		file:       file,
		sourceType: sourceType,
		natural:    image.Pt(naturalWidth, naturalHeight),
		box:        box,
		canvas:     image.Pt(rc.Width(), rc.Height()),
		data:       data,
		dataType:   actualType,
		encodeErr:  encErr,
		loose:      opts.Loose,
	}), nil
}

// canvasLimit is the largest edge a rendered canvas may have.
func (c *Compressor) canvasLimit() int {
	if c.maxDimension > 0 {
		return c.maxDimension
	}
	return DefaultMaxDimension
}

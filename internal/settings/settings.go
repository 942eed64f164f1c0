// Package settings carries the per-run compression choices that can be set
// by configuration, request form fields or a stored job, and turns them into
// compressor options.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/golang/freetype/truetype"

	"imagecompressor/internal/compressor"
	"imagecompressor/internal/config"
	"imagecompressor/internal/effects"
)

// ErrInvalid wraps every form parse failure.
var ErrInvalid = errors.New("invalid options")

// Settings is the serialisable form of compressor.Options plus the built-in
// draw effects.
type Settings struct {
	Quality            float64 `json:"quality"`
	MimeType           string  `json:"mimeType,omitempty"`
	ConvertSize        int64   `json:"convertSize"`
	Loose              bool    `json:"loose"`
	RedressOrientation bool    `json:"redressOrientation"`
	MaxWidth           float64 `json:"maxWidth,omitempty"`
	MaxHeight          float64 `json:"maxHeight,omitempty"`
	MinWidth           float64 `json:"minWidth,omitempty"`
	MinHeight          float64 `json:"minHeight,omitempty"`
	Width              float64 `json:"width,omitempty"`
	Height             float64 `json:"height,omitempty"`
	Grayscale          bool    `json:"grayscale,omitempty"`
	Watermark          string  `json:"watermark,omitempty"`
}

// FromConfig returns the service-wide defaults.
func FromConfig(c config.CompressionConfig) Settings {
	return Settings{
		Quality:            c.Quality,
		MimeType:           c.MimeType,
		ConvertSize:        c.ConvertSize,
		Loose:              c.Loose,
		RedressOrientation: c.RedressOrientation,
		MaxWidth:           c.MaxWidth,
		MaxHeight:          c.MaxHeight,
		Grayscale:          c.Grayscale,
		Watermark:          c.WatermarkText,
	}
}

// WithForm returns a copy of s with every field present in values replaced.
// Fields are named like the JSON keys. All parse errors are reported
// together.
func (s Settings) WithForm(values url.Values) (Settings, error) {
	var errs []error
	present := func(key string) (string, bool) {
		if _, ok := values[key]; !ok {
			return "", false
		}
		return values.Get(key), true
	}
	float := func(key string, dst *float64) {
		if v, ok := present(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := present(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	float("quality", &s.Quality)
	if v, ok := present("mimeType"); ok {
		s.MimeType = v
	}
	if v, ok := present("convertSize"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("convertSize: %w", err))
		} else {
			s.ConvertSize = n
		}
	}
	boolean("loose", &s.Loose)
	boolean("redressOrientation", &s.RedressOrientation)
	float("maxWidth", &s.MaxWidth)
	float("maxHeight", &s.MaxHeight)
	float("minWidth", &s.MinWidth)
	float("minHeight", &s.MinHeight)
	float("width", &s.Width)
	float("height", &s.Height)
	boolean("grayscale", &s.Grayscale)
	if v, ok := present("watermark"); ok {
		s.Watermark = v
	}

	if err := errors.Join(errs...); err != nil {
		return s, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return s, nil
}

// Marshal encodes s for storage with a queued job.
func (s Settings) Marshal() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Unmarshal decodes stored settings over def, so keys missing from raw keep
// the default.
func Unmarshal(raw string, def Settings) (Settings, error) {
	s := def
	if raw == "" {
		return s, nil
	}
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return def, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

// Builder turns Settings into compressor options. It owns the parsed
// watermark font.
type Builder struct {
	font *truetype.Font
}

// NewBuilder loads the watermark font at fontPath; an empty path selects the
// built-in face.
func NewBuilder(fontPath string) (*Builder, error) {
	f, err := effects.LoadFont(fontPath)
	if err != nil {
		return nil, err
	}
	return &Builder{font: f}, nil
}

// Options returns the compressor options for s.
func (b *Builder) Options(s Settings) compressor.Options {
	opts := compressor.Options{
		Quality:            s.Quality,
		MimeType:           s.MimeType,
		ConvertSize:        s.ConvertSize,
		Loose:              s.Loose,
		RedressOrientation: s.RedressOrientation,
		MaxWidth:           s.MaxWidth,
		MaxHeight:          s.MaxHeight,
		MinWidth:           s.MinWidth,
		MinHeight:          s.MinHeight,
		Width:              s.Width,
		Height:             s.Height,
	}
	if s.Grayscale {
		opts.BeforeDraw = effects.Chain(effects.Grayscale)
	}
	if s.Watermark != "" && b.font != nil {
		opts.AfterDraw = effects.NewWatermarkFace(s.Watermark, b.font).Draw
	}
	return opts
}

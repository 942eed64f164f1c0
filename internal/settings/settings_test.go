package settings

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/png"
	"net/url"
	"strings"
	"testing"

	"imagecompressor/internal/compressor"
	"imagecompressor/internal/config"
	"imagecompressor/internal/raster"
	"imagecompressor/internal/testutil"
)

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Compression
	cfg.WatermarkText = "hi"
	s := FromConfig(cfg)
	if s.Quality != 0.8 || s.ConvertSize != 2048000 || !s.Loose || !s.RedressOrientation || s.Watermark != "hi" {
		t.Fatalf("unexpected settings %+v", s)
	}
}

func TestWithForm(t *testing.T) {
	base := FromConfig(config.DefaultConfig().Compression)

	tests := []struct {
		name    string
		form    url.Values
		wantErr string
		check   func(t *testing.T, s Settings)
	}{
		{
			name: "empty form keeps defaults",
			form: url.Values{},
			check: func(t *testing.T, s Settings) {
				if s != base {
					t.Fatalf("expected defaults, got %+v", s)
				}
			},
		},
		{
			name: "overrides",
			form: url.Values{
				"quality":            {"0.5"},
				"mimeType":           {"image/webp"},
				"convertSize":        {"1000"},
				"loose":              {"false"},
				"redressOrientation": {"0"},
				"maxWidth":           {"500"},
				"height":             {"200"},
				"grayscale":          {"true"},
				"watermark":          {"(c) me"},
			},
			check: func(t *testing.T, s Settings) {
				want := Settings{
					Quality: 0.5, MimeType: "image/webp", ConvertSize: 1000,
					MaxWidth: 500, Height: 200, Grayscale: true, Watermark: "(c) me",
				}
				if s != want {
					t.Fatalf("got %+v, want %+v", s, want)
				}
			},
		},
		{
			name: "empty watermark clears default",
			form: url.Values{"watermark": {""}},
			check: func(t *testing.T, s Settings) {
				if s.Watermark != "" {
					t.Fatalf("expected watermark cleared")
				}
			},
		},
		{
			name:    "bad values are reported together",
			form:    url.Values{"quality": {"high"}, "loose": {"maybe"}, "convertSize": {"1.5"}},
			wantErr: "quality",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := base.WithForm(tt.form)
			if tt.wantErr != "" {
				if !errors.Is(err, ErrInvalid) {
					t.Fatalf("expected ErrInvalid, got %v", err)
				}
				for _, key := range []string{"quality", "loose", "convertSize"} {
					if !strings.Contains(err.Error(), key) {
						t.Fatalf("error %q does not mention %s", err, key)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, got)
		})
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	def := FromConfig(config.DefaultConfig().Compression)

	s := def
	s.Quality = 0.3
	s.MaxWidth = 640
	raw, err := s.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Unmarshal(raw, def)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != s {
		t.Fatalf("got %+v, want %+v", got, s)
	}

	partial, err := Unmarshal(`{"maxWidth":10}`, def)
	if err != nil {
		t.Fatalf("unmarshal partial: %v", err)
	}
	if partial.Quality != def.Quality || partial.MaxWidth != 10 {
		t.Fatalf("missing keys must keep defaults, got %+v", partial)
	}

	if _, err := Unmarshal(`{`, def); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestBuilderOptions(t *testing.T) {
	b, err := NewBuilder("")
	if err != nil {
		t.Fatalf("builder: %v", err)
	}

	plain := b.Options(Settings{Quality: 0.7, MaxWidth: 10})
	if plain.Quality != 0.7 || plain.MaxWidth != 10 || plain.BeforeDraw != nil || plain.AfterDraw != nil {
		t.Fatalf("unexpected plain options %+v", plain)
	}

	styled := b.Options(Settings{Grayscale: true, Watermark: "x"})
	if styled.BeforeDraw == nil || styled.AfterDraw == nil {
		t.Fatalf("expected effect hooks to be set")
	}
}

func TestBuilderOptions_GrayscaleThroughCompressor(t *testing.T) {
	b, err := NewBuilder("")
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	s := FromConfig(config.DefaultConfig().Compression)
	s.Grayscale = true
	s.MimeType = raster.TypePNG

	c := compressor.New(nil)
	src := testutil.EncodePNG(t, testutil.QuadrantImage(32, 32))
	art, err := c.Compress(context.Background(), compressor.File{Name: "q.png", Type: raster.TypePNG, Data: src}, b.Options(s))
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(art.Data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, bl, _ := img.At(8, 8).RGBA()
	if r != g || g != bl {
		t.Fatalf("expected a gray pixel, got %d %d %d", r, g, bl)
	}
}

func TestNewBuilder_BadFont(t *testing.T) {
	if _, err := NewBuilder("/does/not/exist.ttf"); err == nil {
		t.Fatalf("expected error for missing font")
	}
}

package effects

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"imagecompressor/internal/raster"
)

const (
	watermarkDPI        = 72
	watermarkSizeRatio  = 0.1
	watermarkMarginLeft = 10
	watermarkBaseline   = 20
	minWatermarkSize    = 6
)

// Watermark writes a line of text near the bottom-left corner of the canvas,
// sized relative to the canvas width.
type Watermark struct {
	Text  string
	Color color.Color
	font  *truetype.Font
}

// NewWatermark returns a white watermark using the font file at fontPath, or
// the built-in Go Regular face when fontPath is empty.
func NewWatermark(text, fontPath string) (*Watermark, error) {
	f, err := LoadFont(fontPath)
	if err != nil {
		return nil, err
	}
	return NewWatermarkFace(text, f), nil
}

// NewWatermarkFace returns a white watermark drawn with an already parsed
// font, so one font can serve many runs.
func NewWatermarkFace(text string, f *truetype.Font) *Watermark {
	return &Watermark{Text: text, Color: color.White, font: f}
}

// LoadFont parses a TrueType font file. An empty path yields Go Regular.
func LoadFont(path string) (*truetype.Font, error) {
	data := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		data = b
	}
	f, err := freetype.ParseFont(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return f, nil
}

// Draw renders the text onto rc. Use it as AfterDraw.
func (w *Watermark) Draw(rc *raster.Context) {
	if w == nil || w.Text == "" || w.font == nil {
		return
	}

	size := math.Max(float64(rc.Width())*watermarkSizeRatio, minWatermarkSize)
	text, ascent := w.textImage(size)
	b := text.Bounds()
	if b.Empty() {
		return
	}

	y := float64(rc.Height() - watermarkBaseline - ascent)
	rc.DrawImage(text, watermarkMarginLeft, y, float64(b.Dx()), float64(b.Dy()))
}

// textImage renders the text on a transparent image just large enough to
// hold it and returns the ascent of the face in pixels.
func (w *Watermark) textImage(size float64) (*image.RGBA, int) {
	face := truetype.NewFace(w.font, &truetype.Options{Size: size, DPI: watermarkDPI})
	defer face.Close()

	drawer := &font.Drawer{Face: face}
	metrics := face.Metrics()
	width := drawer.MeasureString(w.Text).Ceil()
	height := (metrics.Ascent + metrics.Descent).Ceil()
	ascent := metrics.Ascent.Ceil()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	col := w.Color
	if col == nil {
		col = color.White
	}
	drawer.Dst = img
	drawer.Src = image.NewUniform(col)
	drawer.Dot = freetype.Pt(0, ascent)
	drawer.DrawString(w.Text)
	return img, ascent
}

package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// GradientImage returns an opaque gradient so encoders cannot collapse it.
func GradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			b := uint8(128)
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	return img
}

// QuadrantImage paints the four quadrants red, green, blue and white
// (top-left, top-right, bottom-left, bottom-right) so orientation changes can
// be verified by sampling quadrant centres.
func QuadrantImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.RGBA
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// TransparentImage returns a fully transparent image with a single red pixel.
func TransparentImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if width > 1 && height > 0 {
		img.Set(1, 0, color.NRGBA{255, 0, 0, 255})
	}
	return img
}

// EncodeJPEG encodes img as a baseline JPEG at the given quality.
func EncodeJPEG(t testing.TB, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// EncodePNG encodes img as PNG.
func EncodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// NoiseImage returns an opaque image of pseudo-random pixels that no codec
// compresses well. Pixel values come from a fixed LCG so the output is
// deterministic.
func NoiseImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	seed := uint32(2463534242)
	for i := range img.Pix {
		seed = seed*1664525 + 1013904223
		img.Pix[i] = byte(seed >> 24)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// NoisePNG returns NoiseImage encoded as PNG.
func NoisePNG(t testing.TB, width, height int) []byte {
	t.Helper()
	return EncodePNG(t, NoiseImage(width, height))
}

// ColorName classifies c as one of the QuadrantImage colors, "transparent"
// or "other". Channels are compared with a tolerance for lossy codecs.
func ColorName(c color.Color) string {
	r, g, b, a := c.RGBA()
	hi := func(v uint32) bool { return v > 0xC000 }
	lo := func(v uint32) bool { return v < 0x4000 }
	switch {
	case a < 0x4000:
		return "transparent"
	case hi(r) && lo(g) && lo(b):
		return "red"
	case lo(r) && hi(g) && lo(b):
		return "green"
	case lo(r) && lo(g) && hi(b):
		return "blue"
	case hi(r) && hi(g) && hi(b):
		return "white"
	}
	return "other"
}

// Quadrants samples the centre of each quadrant of img, in the order
// top-left, top-right, bottom-left, bottom-right.
func Quadrants(img image.Image) [4]string {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	at := func(fx, fy int) string {
		return ColorName(img.At(b.Min.X+w*fx/4, b.Min.Y+h*fy/4))
	}
	return [4]string{at(1, 1), at(3, 1), at(1, 3), at(3, 3)}
}

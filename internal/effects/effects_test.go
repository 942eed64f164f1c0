package effects

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"imagecompressor/internal/compressor"
	"imagecompressor/internal/raster"
	"imagecompressor/internal/testutil"
)

func TestGrayscale(t *testing.T) {
	rc := raster.NewContext(20, 20)
	Grayscale(rc)
	rc.DrawImage(testutil.QuadrantImage(20, 20), 0, 0, 20, 20)

	for _, p := range [][2]int{{5, 5}, {15, 5}, {5, 15}} {
		c := rc.Surface().RGBAAt(p[0], p[1])
		if c.R != c.G || c.G != c.B {
			t.Fatalf("pixel %v is not gray: %v", p, c)
		}
	}
}

func TestGrayscale_ThroughCompressor(t *testing.T) {
	c := compressor.New(zaptest.NewLogger(t).Sugar())
	src := testutil.EncodePNG(t, testutil.QuadrantImage(32, 32))

	opts := compressor.DefaultOptions()
	opts.BeforeDraw = Grayscale

	a, err := c.Compress(context.Background(), compressor.File{Name: "q.png", Type: "image/png", Data: src}, opts)
	if err != nil {
		t.Fatal(err)
	}
	img, err := raster.NewCodec(nil).Decode(context.Background(), a.Data)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := img.At(8, 8).RGBA()
	if r != g || g != b {
		t.Fatalf("expected gray output, got %d %d %d", r, g, b)
	}
}

func TestChain(t *testing.T) {
	if Chain(nil, nil) != nil {
		t.Fatalf("expected nil for no hooks")
	}

	var calls []int
	h := Chain(func(*raster.Context) { calls = append(calls, 1) }, nil, func(*raster.Context) { calls = append(calls, 2) })
	h(raster.NewContext(1, 1))
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestWatermark_DrawsBottomLeft(t *testing.T) {
	wm, err := NewWatermark("WATERMARK", "")
	if err != nil {
		t.Fatal(err)
	}

	rc := raster.NewContext(400, 200)
	rc.SetFillStyle(color.Black)
	rc.FillRect(0, 0, 400, 200)
	wm.Draw(rc)

	countWhite := func(x0, y0, x1, y1 int) int {
		n := 0
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				if c := rc.Surface().RGBAAt(x, y); c.R > 200 && c.G > 200 && c.B > 200 {
					n++
				}
			}
		}
		return n
	}

	if n := countWhite(0, 100, 400, 200); n == 0 {
		t.Fatalf("expected text pixels in the lower half")
	}
	if n := countWhite(0, 0, 400, 100); n != 0 {
		t.Fatalf("expected no text pixels in the upper half, got %d", n)
	}
	if n := countWhite(0, 0, watermarkMarginLeft, 200); n != 0 {
		t.Fatalf("expected the left margin to stay clear, got %d", n)
	}
}

func TestWatermark_EmptyTextIsNoop(t *testing.T) {
	wm, err := NewWatermark("", "")
	if err != nil {
		t.Fatal(err)
	}
	rc := raster.NewContext(50, 50)
	wm.Draw(rc)
	for _, v := range rc.Surface().Pix {
		if v != 0 {
			t.Fatalf("expected untouched surface")
		}
	}

	var nilMark *Watermark
	nilMark.Draw(rc)
}

func TestLoadFont(t *testing.T) {
	if _, err := LoadFont(filepath.Join(t.TempDir(), "missing.ttf")); err == nil {
		t.Fatalf("expected error for missing font file")
	}

	bad := filepath.Join(t.TempDir(), "bad.ttf")
	if err := os.WriteFile(bad, []byte("not a font"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFont(bad); err == nil {
		t.Fatalf("expected error for invalid font data")
	}

	if f, err := LoadFont(""); err != nil || f == nil {
		t.Fatalf("expected the built-in font, got %v", err)
	}
}

package compressor

import (
	"image"
	"image/color"

	"imagecompressor/internal/dimension"
	"imagecompressor/internal/orientation"
	"imagecompressor/internal/raster"
)

var (
	transparentFill color.Color = color.Transparent
	opaqueFill      color.Color = color.White
)

// render draws img upright into a canvas sized by box.
func render(img image.Image, t orientation.Transform, box dimension.Box, fill color.Color, opts Options) *raster.Context {
	rc := raster.NewContext(box.CanvasWidth, box.CanvasHeight)
	width, height := float64(rc.Width()), float64(rc.Height())

	rc.SetFillStyle(fill)
	rc.FillRect(0, 0, width, height)

	if opts.BeforeDraw != nil {
		opts.BeforeDraw(rc)
	}

	rc.Save()
	orient(rc, t, box)
	rc.DrawImage(img, 0, 0, float64(box.DrawWidth), float64(box.DrawHeight))
	rc.Restore()

	if opts.AfterDraw != nil {
		opts.AfterDraw(rc)
	}
	return rc
}

// orient sets up rc so that a draw box at the origin lands upright on the
// canvas. Mirroring is followed by a shift of the draw box size so the
// flipped image stays on the canvas. Identity leaves rc untouched.
func orient(rc *raster.Context, t orientation.Transform, box dimension.Box) {
	if t.IsIdentity() {
		return
	}
	width, height := float64(rc.Width()), float64(rc.Height())
	switch t.Rotation {
	case 90:
		rc.Translate(width, 0)
	case -90:
		rc.Translate(0, height)
	case -180:
		rc.Translate(width, height)
	}
	rc.Rotate(float64(t.Rotation))
	rc.Scale(t.ScaleX(), t.ScaleY())

	var dx, dy float64
	if t.FlipHorizontal {
		dx = -float64(box.DrawWidth)
	}
	if t.FlipVertical {
		dy = -float64(box.DrawHeight)
	}
	if dx != 0 || dy != 0 {
		rc.Translate(dx, dy)
	}
}

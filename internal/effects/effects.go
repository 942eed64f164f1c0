// Package effects holds drawing hooks for the compressor: a grayscale filter
// for BeforeDraw and a text watermark for AfterDraw.
package effects

import (
	"image"

	"github.com/disintegration/imaging"

	"imagecompressor/internal/raster"
)

// Hook is the signature of the compressor draw hooks.
type Hook func(*raster.Context)

// Grayscale makes the following draws desaturated. Use it as BeforeDraw.
func Grayscale(rc *raster.Context) {
	rc.SetFilter(func(img image.Image) image.Image {
		return imaging.Grayscale(img)
	})
}

// Chain runs the non-nil hooks in order. It returns nil when there are none.
func Chain(hooks ...Hook) func(*raster.Context) {
	var active []Hook
	for _, h := range hooks {
		if h != nil {
			active = append(active, h)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(rc *raster.Context) {
		for _, h := range active {
			h(rc)
		}
	}
}

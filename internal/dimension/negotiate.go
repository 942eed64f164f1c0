// Package dimension computes output sizes that honour caller constraints
// while preserving the source aspect ratio.
package dimension

import "math"

// MaxSide is the largest edge Negotiate reports. Larger or non-finite
// results saturate to it instead of wrapping on conversion.
const MaxSide = math.MaxInt32

// Constraints bounds the output size. A zero, negative or NaN field is
// unconstrained: max bounds become +Inf, min bounds become 0 and the exact
// Width/Height fall back to the natural size.
type Constraints struct {
	MaxWidth  float64
	MaxHeight float64
	MinWidth  float64
	MinHeight float64
	Width     float64
	Height    float64
}

// Box is the result of a negotiation. Draw* is the size the source is
// blitted at before rotation; Canvas* is the surface size after it.
type Box struct {
	DrawWidth    int
	DrawHeight   int
	CanvasWidth  int
	CanvasHeight int
}

// Negotiate fits the natural size into c. When swapAxes is set (a 90° class
// rotation) the aspect ratio is taken from the rotated size and the draw box
// is swapped back so it matches the stored raster.
func Negotiate(naturalWidth, naturalHeight int, swapAxes bool, c Constraints) Box {
	if naturalWidth <= 0 || naturalHeight <= 0 {
		return Box{}
	}

	nw, nh := float64(naturalWidth), float64(naturalHeight)
	if swapAxes {
		nw, nh = nh, nw
	}

	aspectRatio := nw / nh
	maxWidth := positiveOr(c.MaxWidth, math.Inf(1))
	maxHeight := positiveOr(c.MaxHeight, math.Inf(1))
	minWidth := positiveOr(c.MinWidth, 0)
	minHeight := positiveOr(c.MinHeight, 0)
	width := positiveOr(c.Width, nw)
	height := positiveOr(c.Height, nh)

	switch {
	case !math.IsInf(maxWidth, 1) && !math.IsInf(maxHeight, 1):
		if maxHeight*aspectRatio > maxWidth {
			maxHeight = maxWidth / aspectRatio
		} else {
			maxWidth = maxHeight * aspectRatio
		}
	case !math.IsInf(maxWidth, 1):
		maxHeight = maxWidth / aspectRatio
	case !math.IsInf(maxHeight, 1):
		maxWidth = maxHeight * aspectRatio
	}

	switch {
	case minWidth > 0 && minHeight > 0:
		if minHeight*aspectRatio > minWidth {
			minHeight = minWidth / aspectRatio
		} else {
			minWidth = minHeight * aspectRatio
		}
	case minWidth > 0:
		minHeight = minWidth / aspectRatio
	case minHeight > 0:
		minWidth = minHeight * aspectRatio
	}

	if height*aspectRatio > width {
		height = width / aspectRatio
	} else {
		width = height * aspectRatio
	}

	w := pixels(math.Min(math.Max(width, minWidth), maxWidth))
	h := pixels(math.Min(math.Max(height, minHeight), maxHeight))

	box := Box{DrawWidth: w, DrawHeight: h, CanvasWidth: w, CanvasHeight: h}
	if swapAxes {
		box.DrawWidth, box.DrawHeight = h, w
	}
	return box
}

// Exceeds reports whether the canvas is larger than w×h on either axis.
func (b Box) Exceeds(w, h int) bool {
	return b.CanvasWidth > w || b.CanvasHeight > h
}

// pixels floors v into [0, MaxSide].
func pixels(v float64) int {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= MaxSide:
		return MaxSide
	}
	return int(math.Floor(v))
}

// positiveOr returns v when it is a positive number and def otherwise.
// NaN compares false and therefore also yields def.
func positiveOr(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

// Package orientation maps EXIF orientation codes to the canvas transform
// that draws a stored raster upright.
package orientation

// Transform describes how a raster must be rotated and mirrored when drawn.
// Rotation is in degrees, clockwise positive in canvas coordinates (y down).
type Transform struct {
	Rotation       int
	FlipHorizontal bool
	FlipVertical   bool
}

// Identity draws the raster as stored.
var Identity = Transform{}

// Resolve returns the transform for an EXIF orientation code. Codes outside
// 1..8, including the zero value for "no tag", resolve to Identity.
func Resolve(code int) Transform {
	switch code {
	case 2:
		return Transform{FlipHorizontal: true}
	case 3:
		return Transform{Rotation: -180}
	case 4:
		return Transform{FlipVertical: true}
	case 5:
		return Transform{Rotation: 90, FlipVertical: true}
	case 6:
		return Transform{Rotation: 90}
	case 7:
		return Transform{Rotation: 90, FlipHorizontal: true}
	case 8:
		return Transform{Rotation: -90}
	default:
		return Identity
	}
}

// SwapsAxes reports whether the transform exchanges width and height.
func (t Transform) SwapsAxes() bool {
	r := t.Rotation % 180
	if r < 0 {
		r = -r
	}
	return r == 90
}

// IsIdentity reports whether drawing with t is a plain copy.
func (t Transform) IsIdentity() bool {
	return t == Identity
}

// ScaleX returns the horizontal scale factor applied before rotation.
func (t Transform) ScaleX() float64 {
	if t.FlipHorizontal {
		return -1
	}
	return 1
}

// ScaleY returns the vertical scale factor applied before rotation.
func (t Transform) ScaleY() float64 {
	if t.FlipVertical {
		return -1
	}
	return 1
}

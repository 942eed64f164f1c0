package raster

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Filter rewrites a source image before it is blitted.
type Filter func(image.Image) image.Image

var identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// state is the part of a Context that Save and Restore snapshot.
type state struct {
	ctm       f64.Aff3
	fillStyle color.Color
	filter    Filter
}

// Context draws onto a fixed-size RGBA surface through a current
// transformation matrix. Coordinates are in pixels, y grows downwards and
// positive rotations turn clockwise on screen.
type Context struct {
	surface *image.RGBA
	cur     state
	stack   []state

	// Interpolator resamples sources in DrawImage. Defaults to CatmullRom.
	Interpolator draw.Interpolator
}

// NewContext allocates a transparent width×height surface. Sizes below one
// pixel are raised to one.
func NewContext(width, height int) *Context {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Context{
		surface:      image.NewRGBA(image.Rect(0, 0, width, height)),
		cur:          state{ctm: identity, fillStyle: color.Transparent},
		Interpolator: draw.CatmullRom,
	}
}

// Surface returns the backing image. It is live: later drawing shows through.
func (c *Context) Surface() *image.RGBA { return c.surface }

// Width returns the surface width.
func (c *Context) Width() int { return c.surface.Bounds().Dx() }

// Height returns the surface height.
func (c *Context) Height() int { return c.surface.Bounds().Dy() }

// Save pushes the transform, fill style and filter.
func (c *Context) Save() {
	c.stack = append(c.stack, c.cur)
}

// Restore pops the state pushed by the matching Save. Unbalanced calls are
// ignored.
func (c *Context) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.cur = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

// SetFillStyle sets the color used by FillRect.
func (c *Context) SetFillStyle(col color.Color) { c.cur.fillStyle = col }

// FillStyle returns the current fill color.
func (c *Context) FillStyle() color.Color { return c.cur.fillStyle }

// SetFilter sets the filter applied to sources in DrawImage. Nil disables it.
func (c *Context) SetFilter(f Filter) { c.cur.filter = f }

// Transform returns the current transformation matrix.
func (c *Context) Transform() f64.Aff3 { return c.cur.ctm }

// Translate moves the origin by (tx, ty).
func (c *Context) Translate(tx, ty float64) {
	c.cur.ctm = mul(c.cur.ctm, f64.Aff3{1, 0, tx, 0, 1, ty})
}

// Rotate turns the axes by deg degrees.
func (c *Context) Rotate(deg float64) {
	rad := deg * math.Pi / 180
	sin, cos := snap(math.Sin(rad)), snap(math.Cos(rad))
	c.cur.ctm = mul(c.cur.ctm, f64.Aff3{cos, -sin, 0, sin, cos, 0})
}

// Scale scales the axes by (sx, sy); negative factors mirror.
func (c *Context) Scale(sx, sy float64) {
	c.cur.ctm = mul(c.cur.ctm, f64.Aff3{sx, 0, 0, 0, sy, 0})
}

// FillRect paints the rectangle (x, y, w, h) with the fill style, composited
// over the existing pixels.
func (c *Context) FillRect(x, y, w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	m := mul(c.cur.ctm, f64.Aff3{w, 0, x, 0, h, y})
	src := image.NewUniform(c.cur.fillStyle)
	draw.NearestNeighbor.Transform(c.surface, m, src, image.Rect(0, 0, 1, 1), draw.Over, nil)
}

// DrawImage draws img scaled into the rectangle (x, y, w, h) of the current
// coordinate space, composited over the existing pixels.
func (c *Context) DrawImage(img image.Image, x, y, w, h float64) {
	if img == nil || w == 0 || h == 0 {
		return
	}
	if c.cur.filter != nil {
		img = c.cur.filter(img)
	}
	sr := img.Bounds()
	if sr.Empty() {
		return
	}

	m := mul(c.cur.ctm, f64.Aff3{
		w / float64(sr.Dx()), 0, x - float64(sr.Min.X)*w/float64(sr.Dx()),
		0, h / float64(sr.Dy()), y - float64(sr.Min.Y)*h/float64(sr.Dy()),
	})

	interp := c.Interpolator
	if interp == nil {
		interp = draw.CatmullRom
	}
	interp.Transform(c.surface, m, img, sr, draw.Over, nil)
}

// mul returns the transform that applies n first and then m.
func mul(m, n f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		m[0]*n[0] + m[1]*n[3],
		m[0]*n[1] + m[1]*n[4],
		m[0]*n[2] + m[1]*n[5] + m[2],
		m[3]*n[0] + m[4]*n[3],
		m[3]*n[1] + m[4]*n[4],
		m[3]*n[2] + m[4]*n[5] + m[5],
	}
}

// snap removes the rounding noise of sin/cos at multiples of 90°.
func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < 1e-12 {
		return r
	}
	return v
}

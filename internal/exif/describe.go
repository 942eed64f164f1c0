package exif

import (
	"bytes"
	"strings"

	goexif "github.com/rwcarlsen/goexif/exif"
)

// Camera holds the descriptive EXIF fields surfaced to callers before a run.
type Camera struct {
	Make  string
	Model string
}

// Describe extracts camera make and model from a JPEG buffer. Missing or
// unparseable EXIF yields a zero Camera; it is informational only.
func Describe(buf []byte) Camera {
	x, err := goexif.Decode(bytes.NewReader(buf))
	if err != nil {
		return Camera{}
	}

	var c Camera
	if tag, err := x.Get(goexif.Make); err == nil {
		if s, err := tag.StringVal(); err == nil {
			c.Make = strings.Trim(s, "\x00 ")
		}
	}
	if tag, err := x.Get(goexif.Model); err == nil {
		if s, err := tag.StringVal(); err == nil {
			c.Model = strings.Trim(s, "\x00 ")
		}
	}
	return c
}

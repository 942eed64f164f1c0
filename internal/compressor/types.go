// Package compressor re-encodes images to fit caller constraints, correcting
// EXIF orientation on the way, and decides whether the result or the
// original is worth returning.
package compressor

import (
	"errors"
	"time"

	"imagecompressor/internal/exif"
)

var (
	ErrNoFile            = errors.New("no file to compress")
	ErrNotAnImage        = errors.New("file is not an image")
	ErrDecode            = errors.New("image could not be decoded")
	ErrInvalidDimensions = errors.New("image dimensions out of range")
)

// Outcome records which branch of the result policy produced an artifact.
type Outcome string

const (
	// OutcomeCompressed means the re-encoded candidate was returned.
	OutcomeCompressed Outcome = "compressed"
	// OutcomeNotSmaller means strict mode rejected a candidate larger than
	// the source and the source was returned unchanged.
	OutcomeNotSmaller Outcome = "not_smaller"
	// OutcomeEncodeFailed means the encoder produced nothing and the source
	// was returned unchanged.
	OutcomeEncodeFailed Outcome = "encode_failed"
)

// Fallback reports whether the artifact is the untouched source.
func (o Outcome) Fallback() bool {
	return o == OutcomeNotSmaller || o == OutcomeEncodeFailed
}

// File is a source image as received from the caller.
type File struct {
	Name    string
	Type    string
	Data    []byte
	ModTime time.Time
}

// SourceInfo describes the decoded source. It is handed to BeforeCompress.
type SourceInfo struct {
	Name   string
	Type   string
	Size   int64
	Width  int
	Height int
	Camera exif.Camera
}

// Artifact is the result of a run: either the re-encoded image or, on a
// fallback outcome, the source bytes unchanged.
type Artifact struct {
	Data       []byte
	Name       string
	MimeType   string
	Width      int
	Height     int
	Size       int64
	SourceSize int64
	SourceType string
	ModTime    time.Time
	Outcome    Outcome
}

// SavedRatio is the fraction of the source size that was saved. It is
// negative when the artifact is larger than the source.
func (a *Artifact) SavedRatio() float64 {
	if a.SourceSize <= 0 {
		return 0
	}
	return 1 - float64(a.Size)/float64(a.SourceSize)
}

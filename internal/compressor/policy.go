package compressor

import (
	"image"
	"regexp"
	"strings"

	"imagecompressor/internal/dimension"
	"imagecompressor/internal/raster"
)

var extensionPattern = regexp.MustCompile(`\.\w+$`)

type settleInput struct {
	file       File
	sourceType string
	natural    image.Point
	box        dimension.Box
	canvas     image.Point
	data       []byte
	dataType   string
	encodeErr  error
	loose      bool
}

// settle picks the artifact returned to the caller: the source when encoding
// produced nothing, the source when strict mode finds the candidate larger
// without an upscale asked for, and the candidate otherwise.
func (c *Compressor) settle(in settleInput) *Artifact {
	sourceSize := int64(len(in.file.Data))

	if in.encodeErr != nil || len(in.data) == 0 {
		c.log.Warnw("compressor: encode failed, returning source",
			"name", in.file.Name,
			"type", in.sourceType,
			"error", in.encodeErr,
		)
		return sourceArtifact(in, OutcomeEncodeFailed)
	}

	candidateSize := int64(len(in.data))
	if !in.loose && candidateSize > sourceSize && !in.box.Exceeds(in.natural.X, in.natural.Y) {
		c.log.Infow("compressor: result larger than source in strict mode, returning source",
			"name", in.file.Name,
			"source_size", sourceSize,
			"candidate_size", candidateSize,
		)
		return sourceArtifact(in, OutcomeNotSmaller)
	}

	name := in.file.Name
	if name != "" && in.dataType != in.sourceType {
		name = ReplaceExtension(name, in.dataType)
	}

	return &Artifact{
		Data:       in.data,
		Name:       name,
		MimeType:   in.dataType,
		Width:      in.canvas.X,
		Height:     in.canvas.Y,
		Size:       candidateSize,
		SourceSize: sourceSize,
		SourceType: in.sourceType,
		ModTime:    c.now(),
		Outcome:    OutcomeCompressed,
	}
}

// sourceArtifact wraps the untouched source bytes.
func sourceArtifact(in settleInput, outcome Outcome) *Artifact {
	size := int64(len(in.file.Data))
	return &Artifact{
		Data:       in.file.Data,
		Name:       in.file.Name,
		MimeType:   in.sourceType,
		Width:      in.natural.X,
		Height:     in.natural.Y,
		Size:       size,
		SourceSize: size,
		SourceType: in.sourceType,
		ModTime:    in.file.ModTime,
		Outcome:    outcome,
	}
}

// Extension returns the file extension for an image media type: ".jpg" for
// image/jpeg, otherwise the subtype. Non-image types yield ".".
func Extension(mimeType string) string {
	mimeType = raster.BaseType(mimeType)
	ext := ""
	if raster.IsImage(mimeType) {
		ext = strings.TrimPrefix(mimeType, "image/")
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	return "." + ext
}

// ReplaceExtension swaps the trailing extension of name for the one of
// mimeType. Names without an extension are returned unchanged.
func ReplaceExtension(name, mimeType string) string {
	return extensionPattern.ReplaceAllLiteralString(name, Extension(mimeType))
}

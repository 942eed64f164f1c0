package handler

import (
	"context"
	"errors"
	"net/http"

	"imagecompressor/internal/compressor"
	"imagecompressor/internal/settings"
)

// statusFor maps request and compression errors to an HTTP status and a
// message safe to return to the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge, tooLargeError
	case errors.Is(err, errSpool):
		return http.StatusInternalServerError, "failed to store upload"
	case errors.Is(err, errNotForm):
		return http.StatusBadRequest, errNotForm.Error()
	case errors.Is(err, errNoFilePart), errors.Is(err, compressor.ErrNoFile):
		return http.StatusBadRequest, missingFile
	case errors.Is(err, settings.ErrInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, compressor.ErrNotAnImage):
		return http.StatusUnsupportedMediaType, "file is not an image"
	case errors.Is(err, compressor.ErrDecode):
		return http.StatusUnprocessableEntity, "image could not be decoded"
	case errors.Is(err, compressor.ErrInvalidDimensions):
		return http.StatusUnprocessableEntity, "image dimensions out of range"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "compression timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request cancelled"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// isRejection reports whether err is the compressor refusing the input.
func isRejection(err error) bool {
	return errors.Is(err, compressor.ErrNoFile) ||
		errors.Is(err, compressor.ErrNotAnImage) ||
		errors.Is(err, compressor.ErrDecode) ||
		errors.Is(err, compressor.ErrInvalidDimensions)
}

package handler

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"os"
	"strconv"
	"time"

	"imagecompressor/internal/compressor"
	"imagecompressor/internal/metrics"
)

// compressTimeout bounds a synchronous compression.
const compressTimeout = 2 * time.Minute

// Compress handles POST /compress: a multipart upload with a "file" part and
// optional option fields. The response body is the artifact.
func (h *Handler) Compress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), compressTimeout)
	defer cancel()

	up, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := os.ReadFile(up.Path)
	os.Remove(up.Path)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	file := compressor.File{
		Name:    up.Filename,
		Type:    up.Type,
		Data:    data,
		ModTime: up.ModTime,
	}
	art, err := h.compressor.Compress(ctx, file, h.builder.Options(up.Settings))
	if err != nil {
		if isRejection(err) && h.metrics != nil {
			h.metrics.LogRejected(ctx, metrics.OriginRequest, up.Type, up.Size)
		}
		h.fail(w, r, err)
		return
	}
	if h.metrics != nil {
		h.metrics.LogArtifact(ctx, metrics.OriginRequest, art)
	}

	h.log.Infow("compress: done",
		"name", up.Filename,
		"outcome", art.Outcome,
		"type", art.MimeType,
		"size", art.Size,
		"source_size", art.SourceSize,
	)

	setArtifactHeaders(w, art.Name, art.MimeType, art.Width, art.Height, string(art.Outcome), art.SourceSize)
	modTime := art.ModTime
	if modTime.IsZero() {
		modTime = time.Now()
	}
	http.ServeContent(w, r, "", modTime, bytes.NewReader(art.Data))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorw("request failed", "path", r.URL.Path, "error", err)
	} else {
		h.log.Debugw("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, msg)
}

// setArtifactHeaders describes an artifact. Content-Length is left to the
// caller's writer.
func setArtifactHeaders(w http.ResponseWriter, name, mimeType string, width, height int, outcome string, sourceSize int64) {
	hdr := w.Header()
	hdr.Set("Content-Type", mimeType)
	if name != "" {
		if cd := mime.FormatMediaType("attachment", map[string]string{"filename": name}); cd != "" {
			hdr.Set("Content-Disposition", cd)
		}
	}
	hdr.Set("X-Image-Width", strconv.Itoa(width))
	hdr.Set("X-Image-Height", strconv.Itoa(height))
	hdr.Set("X-Compress-Outcome", outcome)
	hdr.Set("X-Original-Size", strconv.FormatInt(sourceSize, 10))
}

package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"imagecompressor/internal/raster"
	"imagecompressor/internal/settings"
	"imagecompressor/internal/storage"
)

const (
	fileField = "file"
	// lastModifiedField carries the client's file time in Unix milliseconds.
	lastModifiedField = "lastModified"

	maxFieldSize  = 4 << 10
	formOverhead  = 1 << 20
	octetStream   = "application/octet-stream"
	missingFile   = "missing file field"
	tooLargeError = "file too large"
)

var (
	errNoFilePart = errors.New(missingFile)
	errTooLarge   = errors.New(tooLargeError)
	errSpool      = errors.New("failed to store upload")
	errNotForm    = errors.New("expected a multipart/form-data body")
)

// upload is a parsed multipart request whose file has been spooled to disk.
type upload struct {
	Path     string
	Filename string
	Type     string
	Size     int64
	ModTime  time.Time
	Settings settings.Settings
}

// readUpload streams a multipart body. The file part is spooled to the
// upload directory; every other part is read as an option field. The caller
// owns the spooled file on success.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.UploadLimit+formOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errNotForm, err)
	}

	var (
		up      upload
		cleanup storage.Cleanup
		values  = url.Values{}
	)
	fail := func(err error) (*upload, error) {
		cleanup.Execute()
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(classifyBodyError(err))
		}

		name := part.FormName()
		switch {
		case name == fileField && part.FileName() != "" && up.Path == "":
			path, n, err := h.storage.SpoolUpload(part, h.config.UploadLimit)
			part.Close()
			if err != nil {
				err = classifyBodyError(err)
				if !errors.Is(err, errTooLarge) {
					err = fmt.Errorf("%w: %w", errSpool, err)
				}
				return fail(err)
			}
			cleanup.Add(path)
			up.Path = path
			up.Size = n
			up.Filename = part.FileName()
			up.Type = raster.BaseType(part.Header.Get("Content-Type"))
			if up.Type == octetStream {
				up.Type = ""
			}
		case name != "" && name != fileField:
			b, err := io.ReadAll(io.LimitReader(part, maxFieldSize))
			part.Close()
			if err != nil {
				return fail(classifyBodyError(err))
			}
			values.Add(name, string(b))
		default:
			part.Close()
		}
	}

	if up.Path == "" {
		return fail(errNoFilePart)
	}

	if v := values.Get(lastModifiedField); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fail(fmt.Errorf("%w: %s: %w", settings.ErrInvalid, lastModifiedField, err))
		}
		up.ModTime = time.UnixMilli(ms).UTC()
	}
	values.Del(lastModifiedField)

	s, err := h.config.Defaults.WithForm(values)
	if err != nil {
		return fail(err)
	}
	up.Settings = s
	return &up, nil
}

func classifyBodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || errors.Is(err, storage.ErrTooLarge) {
		return errTooLarge
	}
	return err
}

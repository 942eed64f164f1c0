// Package storage lays out spooled uploads and compressed artifacts on disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrTooLarge is returned by SpoolUpload when the reader exceeds the limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

const (
	uploadsDir   = "uploads"
	artifactsDir = "artifacts"

	uploadPrefix = "upload-"
	uploadSuffix = ".tmp"
)

// Storage resolves paths below a base data directory.
type Storage struct {
	BaseDir string
}

// New creates a new Storage instance with the provided base directory.
func New(baseDir string) *Storage {
	return &Storage{BaseDir: baseDir}
}

// UploadDir is where queued uploads wait for the worker.
func (s *Storage) UploadDir() string {
	return filepath.Join(s.BaseDir, uploadsDir)
}

// ArtifactDir is the root of all written artifacts.
func (s *Storage) ArtifactDir() string {
	return filepath.Join(s.BaseDir, artifactsDir)
}

// Init creates the upload and artifact directories.
func (s *Storage) Init() error {
	for _, dir := range []string{s.UploadDir(), s.ArtifactDir()} {
		if err := EnsureDir(dir); err != nil {
			return fmt.Errorf("ensure %s: %w", dir, err)
		}
	}
	return nil
}

// SpoolUpload copies r into a new upload-*.tmp file in the upload dir and
// returns its path and size. At most limit bytes are accepted when limit is
// positive; a larger body removes the partial file and returns ErrTooLarge.
func (s *Storage) SpoolUpload(r io.Reader, limit int64) (string, int64, error) {
	if err := EnsureDir(s.UploadDir()); err != nil {
		return "", 0, fmt.Errorf("ensure upload dir: %w", err)
	}

	f, err := os.CreateTemp(s.UploadDir(), uploadPrefix+"*"+uploadSuffix)
	if err != nil {
		return "", 0, fmt.Errorf("create upload file: %w", err)
	}
	var cleanup Cleanup
	cleanup.Add(f.Name())

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && limit > 0 && n > limit {
		err = ErrTooLarge
	}
	if err != nil {
		cleanup.Execute()
		if errors.Is(err, ErrTooLarge) {
			return "", 0, err
		}
		return "", 0, fmt.Errorf("write upload: %w", err)
	}
	return f.Name(), n, nil
}

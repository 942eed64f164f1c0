package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const artifactTempPattern = ".artifact-*"

// EnsureDir creates path and its parents with mode 0755.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// SaveArtifact writes data to the artifact path of jobID and returns that
// path.
func (s *Storage) SaveArtifact(jobID int64, ext string, createdAt time.Time, data []byte) (string, error) {
	path := s.ArtifactPath(jobID, ext, createdAt)
	if err := AtomicWrite(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// AtomicWrite replaces path with data. Readers see either the old file or
// the complete new one: data goes to a synced temp file in the same
// directory which is then renamed over path.
func AtomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, artifactTempPattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

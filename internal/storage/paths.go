package storage

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ArtifactPath returns the stable storage path for a job's artifact:
// {baseDir}/artifacts/{yyyy}/{mm}/{job_id}{ext}
// The year and month come from the job's creation time so the path can be
// recomputed later.
func (s *Storage) ArtifactPath(jobID int64, ext string, createdAt time.Time) string {
	return ArtifactPathAt(s.BaseDir, jobID, ext, createdAt)
}

// ArtifactPathAt is ArtifactPath for an explicit base directory.
func ArtifactPathAt(baseDir string, jobID int64, ext string, createdAt time.Time) string {
	t := createdAt.UTC()
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(baseDir, artifactsDir, t.Format("2006"), t.Format("01"), strconv.FormatInt(jobID, 10)+ext)
}

package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"imagecompressor/internal/db"
)

// CreateTestJob writes data to a temp upload file in dir and enqueues a
// pending job for it.
func CreateTestJob(t *testing.T, q *db.Queries, dir, filename string, data []byte, options string) db.CompressionJob {
	t.Helper()

	f, err := os.CreateTemp(dir, "upload-*.tmp")
	if err != nil {
		t.Fatalf("create temp upload: %v", err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("write temp upload: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp upload: %v", err)
	}

	job, err := q.EnqueueJob(context.Background(), db.EnqueueJobParams{
		OriginalFilename: filename,
		SourceSize:       int64(len(data)),
		TempFilepath:     f.Name(),
		Options:          options,
	})
	if err != nil {
		t.Fatalf("enqueue job: %v", err)
	}
	return job
}

// CreateTestEvent records a compression event at the given time.
func CreateTestEvent(t *testing.T, q *db.Queries, outcome string, sourceSize, outputSize int64, at time.Time) {
	t.Helper()

	err := q.CreateEvent(context.Background(), db.CreateEventParams{
		Origin:     "request",
		Outcome:    outcome,
		SourceType: "image/jpeg",
		OutputType: "image/jpeg",
		SourceSize: sourceSize,
		OutputSize: outputSize,
		CreatedAt:  at,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
}

// WriteFile writes data under dir and returns the full path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

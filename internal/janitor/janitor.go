package janitor

import (
	"context"
	"database/sql"
	"os"
	"time"

	"go.uber.org/zap"

	"imagecompressor/internal/db"
	"imagecompressor/internal/storage"
)

const (
	defaultInterval          = 6 * time.Hour
	defaultArtifactRetention = 7 * 24 * time.Hour
	defaultEventRetention    = 90 * 24 * time.Hour
	defaultTempFileAge       = 15 * time.Minute
)

// Janitor handles periodic cleanup of finished jobs, their artifacts and
// orphaned uploads
type Janitor struct {
	queries           *db.Queries
	store             *storage.Storage
	log               *zap.SugaredLogger
	interval          time.Duration
	artifactRetention time.Duration
	eventRetention    time.Duration
	tempFileAge       time.Duration
	stopChan          chan struct{}
	doneChan          chan struct{}
}

// Config holds janitor configuration. Zero durations select the defaults.
type Config struct {
	DB                *sql.DB
	Store             *storage.Storage
	Log               *zap.SugaredLogger
	Interval          time.Duration
	ArtifactRetention time.Duration
	EventRetention    time.Duration
	TempFileAge       time.Duration
}

// New creates a new Janitor instance
func New(cfg Config) *Janitor {
	if cfg.Interval == 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.ArtifactRetention == 0 {
		cfg.ArtifactRetention = defaultArtifactRetention
	}
	if cfg.EventRetention == 0 {
		cfg.EventRetention = defaultEventRetention
	}
	if cfg.TempFileAge == 0 {
		cfg.TempFileAge = defaultTempFileAge
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}

	return &Janitor{
		queries:           db.New(cfg.DB),
		store:             cfg.Store,
		log:               cfg.Log,
		interval:          cfg.Interval,
		artifactRetention: cfg.ArtifactRetention,
		eventRetention:    cfg.EventRetention,
		tempFileAge:       cfg.TempFileAge,
		stopChan:          make(chan struct{}),
		doneChan:          make(chan struct{}),
	}
}

// Start begins the cleanup scheduler in a goroutine
func (j *Janitor) Start(ctx context.Context) {
	go j.run(ctx)
}

// Stop gracefully stops the janitor
func (j *Janitor) Stop() {
	close(j.stopChan)
	<-j.doneChan // wait for cleanup to finish
}

// run is the main loop that runs cleanup tasks
func (j *Janitor) run(ctx context.Context) {
	defer close(j.doneChan)

	// Run cleanup immediately on startup
	j.runCleanup(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.runCleanup(ctx)
		case <-j.stopChan:
			j.log.Info("Janitor: received stop signal, shutting down...")
			return
		case <-ctx.Done():
			j.log.Info("Janitor: context cancelled, shutting down...")
			return
		}
	}
}

// runCleanup executes all cleanup tasks
func (j *Janitor) runCleanup(ctx context.Context) {
	j.log.Debug("Janitor: starting cleanup cycle...")
	start := time.Now().UTC()

	j.deleteExpiredJobs(ctx)
	j.deleteOldEvents(ctx)
	j.cleanupTempFiles(ctx)
	j.cleanupEmptyDirs()

	j.log.Infow("Janitor: cleanup cycle completed", "duration", time.Since(start))
}

// deleteExpiredJobs removes finished jobs past the artifact retention and
// deletes their files
func (j *Janitor) deleteExpiredJobs(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.artifactRetention)
	jobs, err := j.queries.DeleteFinishedJobsBefore(ctx, cutoff)
	if err != nil {
		j.log.Errorw("Janitor: failed to delete expired jobs", "error", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	deletedCount := 0
	for _, job := range jobs {
		if job.ArtifactPath.Valid {
			if err := os.Remove(job.ArtifactPath.String); err != nil {
				if !os.IsNotExist(err) {
					j.log.Warnw("Janitor: failed to delete artifact", "path", job.ArtifactPath.String, "error", err)
				}
			} else {
				deletedCount++
			}
		}
		// Uploads are removed by the worker; a leftover is a crash remnant.
		if err := os.Remove(job.TempFilepath); err != nil && !os.IsNotExist(err) {
			j.log.Warnw("Janitor: failed to delete upload", "path", job.TempFilepath, "error", err)
		}
	}

	j.log.Infow("Janitor: deleted expired jobs", "jobs", len(jobs), "artifacts", deletedCount)
}

// deleteOldEvents removes compression events past the event retention
func (j *Janitor) deleteOldEvents(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.eventRetention)
	n, err := j.queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		j.log.Errorw("Janitor: failed to delete old events", "error", err)
		return
	}
	if n > 0 {
		j.log.Infow("Janitor: deleted old events", "count", n)
	}
}

// cleanupTempFiles removes spooled uploads that no queued job refers to
func (j *Janitor) cleanupTempFiles(ctx context.Context) {
	active, err := j.queries.ListActiveUploads(ctx)
	if err != nil {
		j.log.Errorw("Janitor: failed to list active uploads", "error", err)
		return
	}
	inUse := make(map[string]bool, len(active))
	for _, p := range active {
		inUse[p] = true
	}

	n, err := storage.CleanOrphanedTempFiles(j.store.UploadDir(), j.tempFileAge, inUse)
	if err != nil {
		j.log.Errorw("Janitor: failed to cleanup temp files", "error", err)
		return
	}
	if n > 0 {
		j.log.Infow("Janitor: removed orphaned uploads", "count", n)
	}
}

// cleanupEmptyDirs removes empty year/month directories below the artifact root
func (j *Janitor) cleanupEmptyDirs() {
	n, err := storage.RemoveEmptyDirs(j.store.ArtifactDir())
	if err != nil {
		j.log.Warnw("Janitor: failed to remove empty directories", "error", err)
		return
	}
	if n > 0 {
		j.log.Debugw("Janitor: removed empty directories", "count", n)
	}
}

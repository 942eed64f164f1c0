package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"imagecompressor/internal/compressor"
	"imagecompressor/internal/db"
	"imagecompressor/internal/metrics"
	"imagecompressor/internal/settings"
	"imagecompressor/internal/storage"
)

// DefaultInterval is the fallback poll period when nothing triggers the
// worker.
const DefaultInterval = 2 * time.Second

// Compressor runs one compression.
type Compressor interface {
	Compress(ctx context.Context, file compressor.File, opts compressor.Options) (*compressor.Artifact, error)
}

// Config tunes the worker.
type Config struct {
	// Interval between polls. Zero selects DefaultInterval.
	Interval time.Duration
	// Defaults fill the settings keys a job does not carry.
	Defaults settings.Settings
}

// Worker handles background compression of queued uploads
type Worker struct {
	queries    *db.Queries
	store      *storage.Storage
	compressor Compressor
	builder    *settings.Builder
	events     *metrics.Logger
	log        *zap.SugaredLogger
	cfg        Config
	trigger    chan struct{}  // Channel to wake up the worker immediately
	wg         sync.WaitGroup // WaitGroup to wait for active jobs to finish
}

// NewWorker creates a new background worker. events may be nil.
func NewWorker(database *sql.DB, store *storage.Storage, comp Compressor, builder *settings.Builder, events *metrics.Logger, log *zap.SugaredLogger, cfg Config) *Worker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Worker{
		queries:    db.New(database),
		store:      store,
		compressor: comp,
		builder:    builder,
		events:     events,
		log:        log,
		cfg:        cfg,
		trigger:    make(chan struct{}, 1),
	}
}

// Start requeues jobs left in processing by a previous run and then runs the
// worker loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	if n, err := w.queries.RequeueProcessingJobs(ctx); err != nil {
		w.log.Errorw("Worker: failed to requeue interrupted jobs", "error", err)
	} else if n > 0 {
		w.log.Infow("Worker: requeued interrupted jobs", "count", n)
	}

	w.log.Infow("Worker: started background compression queue", "interval", w.cfg.Interval)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()

		// Drain whatever is already queued.
		w.processBatch(ctx)

		for {
			select {
			case <-ctx.Done():
				w.log.Info("Worker: context cancelled, stopping loop")
				return
			case <-ticker.C:
				w.processBatch(ctx)
			case <-w.trigger:
				w.processBatch(ctx)
			}
		}
	}()
}

// Stop waits for the worker to finish current tasks
func (w *Worker) Stop() {
	w.log.Info("Worker: waiting for active jobs to finish...")
	w.wg.Wait()
	w.log.Info("Worker: stopped")
}

// TriggerSignal wakes up the worker to process pending jobs immediately
func (w *Worker) TriggerSignal() {
	select {
	case w.trigger <- struct{}{}:
	default:
		// already triggered
	}
}

// processBatch processes jobs until the queue is empty
func (w *Worker) processBatch(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if !w.processNextJob(ctx) {
			return
		}
	}
}

// processNextJob handles one job and reports whether one was taken.
func (w *Worker) processNextJob(ctx context.Context) bool {
	job, err := w.queries.GetNextPendingJob(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) && ctx.Err() == nil {
			w.log.Errorw("Worker: error checking queue", "error", err)
		}
		return false
	}

	w.log.Infow("Worker: processing job", "job_id", job.ID, "file", job.OriginalFilename)

	data, err := os.ReadFile(job.TempFilepath)
	if err != nil {
		w.failJob(ctx, job, fmt.Sprintf("failed to read upload: %v", err))
		return true
	}

	s, err := settings.Unmarshal(job.Options, w.cfg.Defaults)
	if err != nil {
		w.failJob(ctx, job, err.Error())
		return true
	}

	file := compressor.File{
		Name:    job.OriginalFilename,
		Type:    job.SourceType,
		Data:    data,
		ModTime: job.CreatedAt,
	}
	art, err := w.compressor.Compress(ctx, file, w.builder.Options(s))
	if err != nil {
		if ctx.Err() != nil {
			// Left in processing; the next Start requeues it.
			w.log.Warnw("Worker: job interrupted by shutdown", "job_id", job.ID)
			return false
		}
		w.log.Warnw("Worker: job rejected", "job_id", job.ID, "error", err)
		if w.events != nil {
			w.events.LogRejected(ctx, metrics.OriginJob, job.SourceType, job.SourceSize)
		}
		w.failJob(ctx, job, err.Error())
		return true
	}

	path, err := w.store.SaveArtifact(job.ID, compressor.Extension(art.MimeType), job.CreatedAt, art.Data)
	if err != nil {
		w.failJob(ctx, job, fmt.Sprintf("failed to write artifact: %v", err))
		return true
	}

	w.completeJob(ctx, job, path, art)
	if w.events != nil {
		w.events.LogArtifact(ctx, metrics.OriginJob, art)
	}
	return true
}

func (w *Worker) failJob(ctx context.Context, job db.CompressionJob, msg string) {
	w.removeUpload(job)
	if err := w.queries.FailJob(ctx, job.ID, msg); err != nil {
		w.log.Errorw("Worker: failed to update status to failed", "job_id", job.ID, "error", err)
	}
}

func (w *Worker) completeJob(ctx context.Context, job db.CompressionJob, path string, art *compressor.Artifact) {
	w.removeUpload(job)
	err := w.queries.CompleteJob(ctx, db.CompleteJobParams{
		ID:           job.ID,
		Outcome:      string(art.Outcome),
		ArtifactPath: path,
		ArtifactName: art.Name,
		ArtifactType: art.MimeType,
		ArtifactSize: art.Size,
		Width:        int64(art.Width),
		Height:       int64(art.Height),
	})
	if err != nil {
		w.log.Errorw("Worker: failed to update status to completed", "job_id", job.ID, "error", err)
		return
	}
	w.log.Infow("Worker: job completed",
		"job_id", job.ID,
		"outcome", art.Outcome,
		"size", art.Size,
		"source_size", art.SourceSize,
	)
}

// removeUpload deletes the spooled upload once the job reaches a final state.
func (w *Worker) removeUpload(job db.CompressionJob) {
	if err := os.Remove(job.TempFilepath); err != nil && !os.IsNotExist(err) {
		w.log.Warnw("Worker: failed to remove upload", "job_id", job.ID, "path", job.TempFilepath, "error", err)
	}
}

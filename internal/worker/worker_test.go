package worker

import (
	"context"
	"image"
	_ "image/png"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"imagecompressor/internal/compressor"
	"imagecompressor/internal/config"
	"imagecompressor/internal/db"
	"imagecompressor/internal/metrics"
	"imagecompressor/internal/settings"
	"imagecompressor/internal/storage"
	"imagecompressor/internal/testutil"
)

type testEnv struct {
	queries *db.Queries
	store   *storage.Storage
	events  *metrics.Logger
	worker  *Worker
}

func newTestEnv(t *testing.T, comp Compressor) *testEnv {
	t.Helper()

	database, queries := testutil.SetupTestDB(t)
	store := storage.New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init storage: %v", err)
	}
	builder, err := settings.NewBuilder("")
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	log := zaptest.NewLogger(t).Sugar()
	if comp == nil {
		comp = compressor.New(log)
	}
	events := metrics.New(database, log)
	cfg := Config{
		Interval: 50 * time.Millisecond,
		Defaults: settings.FromConfig(config.DefaultConfig().Compression),
	}
	return &testEnv{
		queries: queries,
		store:   store,
		events:  events,
		worker:  NewWorker(database, store, comp, builder, events, log, cfg),
	}
}

func waitForJob(t *testing.T, q *db.Queries, id int64) db.CompressionJob {
	t.Helper()

	timeout := time.After(5 * time.Second)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatal("timeout waiting for worker to process job")
		case <-ticker.C:
			job, err := q.GetJob(context.Background(), id)
			if err != nil {
				t.Fatalf("failed to query job: %v", err)
			}
			if job.Status == db.JobCompleted || job.Status == db.JobFailed {
				return job
			}
		}
	}
}

func TestWorker_Integration(t *testing.T) {
	env := newTestEnv(t, nil)
	src := testutil.EncodePNG(t, testutil.GradientImage(64, 32))
	job := testutil.CreateTestJob(t, env.queries, env.store.UploadDir(), "photo.png", src, `{"mimeType":"image/png","maxWidth":32}`)

	ctx, cancel := context.WithCancel(context.Background())
	env.worker.Start(ctx)
	env.worker.TriggerSignal()
	done := waitForJob(t, env.queries, job.ID)
	cancel()
	env.worker.Stop()

	if done.Status != db.JobCompleted {
		t.Fatalf("expected status 'completed', got '%s' (%s)", done.Status, done.ErrorMessage.String)
	}
	if done.Outcome.String != "compressed" || done.ArtifactName.String != "photo.png" || done.ArtifactType.String != "image/png" {
		t.Errorf("unexpected artifact fields %+v", done)
	}
	if done.Width.Int64 != 32 || done.Height.Int64 != 16 {
		t.Errorf("expected 32x16, got %dx%d", done.Width.Int64, done.Height.Int64)
	}

	want := env.store.ArtifactPath(job.ID, ".png", job.CreatedAt)
	if done.ArtifactPath.String != want {
		t.Errorf("expected artifact at %s, got %s", want, done.ArtifactPath.String)
	}
	f, err := os.Open(done.ArtifactPath.String)
	if err != nil {
		t.Fatalf("open artifact: %v", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	if cfg.Width != 32 || cfg.Height != 16 {
		t.Errorf("artifact is %dx%d", cfg.Width, cfg.Height)
	}

	if _, err := os.Stat(job.TempFilepath); !os.IsNotExist(err) {
		t.Error("upload should be deleted after processing")
	}

	stats, err := env.events.GetStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Last7Days.Compressed != 1 {
		t.Errorf("expected one compressed event, got %+v", stats.Last7Days)
	}
}

func TestWorker_FailsOnNonImage(t *testing.T) {
	env := newTestEnv(t, nil)
	job := testutil.CreateTestJob(t, env.queries, env.store.UploadDir(), "notes.txt", []byte("not an image"), "")

	if !env.worker.processNextJob(context.Background()) {
		t.Fatalf("expected a job to be taken")
	}

	got, err := env.queries.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != db.JobFailed {
		t.Errorf("expected status 'failed', got '%s'", got.Status)
	}
	if !strings.Contains(got.ErrorMessage.String, "not an image") {
		t.Errorf("unexpected error message %q", got.ErrorMessage.String)
	}
	if _, err := os.Stat(job.TempFilepath); !os.IsNotExist(err) {
		t.Error("upload should be deleted after failure")
	}

	stats, err := env.events.GetStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Last7Days.Rejected != 1 {
		t.Errorf("expected one rejected event, got %+v", stats.Last7Days)
	}
}

func TestWorker_FailsOnOutOfRangeCanvas(t *testing.T) {
	tests := []struct {
		name    string
		options string
	}{
		{name: "huge min width", options: `{"minWidth":1e10}`},
		{name: "exact pair beyond int range", options: `{"width":1e30,"height":1e30}`},
		{name: "min height above limit", options: `{"minHeight":20000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			src := testutil.EncodePNG(t, testutil.GradientImage(16, 8))
			job := testutil.CreateTestJob(t, env.queries, env.store.UploadDir(), "photo.png", src, tt.options)

			if !env.worker.processNextJob(context.Background()) {
				t.Fatalf("expected a job to be taken")
			}

			got, err := env.queries.GetJob(context.Background(), job.ID)
			if err != nil {
				t.Fatalf("get job: %v", err)
			}
			if got.Status != db.JobFailed {
				t.Fatalf("expected status 'failed', got '%s'", got.Status)
			}
			if !strings.Contains(got.ErrorMessage.String, "dimensions out of range") {
				t.Errorf("unexpected error message %q", got.ErrorMessage.String)
			}
			if env.worker.processNextJob(context.Background()) {
				t.Errorf("failed job was taken again")
			}
		})
	}
}

func TestWorker_FailsOnMissingUpload(t *testing.T) {
	env := newTestEnv(t, nil)
	job := testutil.CreateTestJob(t, env.queries, env.store.UploadDir(), "gone.png", []byte("x"), "")
	if err := os.Remove(job.TempFilepath); err != nil {
		t.Fatalf("remove: %v", err)
	}

	env.worker.processNextJob(context.Background())

	got, err := env.queries.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != db.JobFailed || !strings.Contains(got.ErrorMessage.String, "failed to read upload") {
		t.Errorf("unexpected job %+v", got)
	}
}

func TestWorker_FailsOnBadOptions(t *testing.T) {
	env := newTestEnv(t, nil)
	src := testutil.EncodePNG(t, testutil.GradientImage(8, 8))
	job := testutil.CreateTestJob(t, env.queries, env.store.UploadDir(), "a.png", src, `{"quality":`)

	env.worker.processNextJob(context.Background())

	got, err := env.queries.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != db.JobFailed || !strings.Contains(got.ErrorMessage.String, "decode settings") {
		t.Errorf("unexpected job %+v", got)
	}
}

func TestWorker_EmptyQueue(t *testing.T) {
	env := newTestEnv(t, nil)
	if env.worker.processNextJob(context.Background()) {
		t.Fatalf("expected no work on an empty queue")
	}
}

// cancelingCompressor simulates a shutdown arriving mid-compression.
type cancelingCompressor struct {
	cancel context.CancelFunc
}

func (c *cancelingCompressor) Compress(ctx context.Context, _ compressor.File, _ compressor.Options) (*compressor.Artifact, error) {
	c.cancel()
	return nil, ctx.Err()
}

func TestWorker_InterruptedJobIsRequeued(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	env := newTestEnv(t, &cancelingCompressor{cancel: cancel})
	src := testutil.EncodePNG(t, testutil.GradientImage(8, 8))
	job := testutil.CreateTestJob(t, env.queries, env.store.UploadDir(), "a.png", src, "")

	if env.worker.processNextJob(ctx) {
		t.Fatalf("an interrupted job must stop the batch")
	}

	got, err := env.queries.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != db.JobProcessing {
		t.Fatalf("expected job left in processing, got %s", got.Status)
	}
	if _, err := os.Stat(job.TempFilepath); err != nil {
		t.Fatalf("upload must survive an interruption: %v", err)
	}

	// A fresh worker picks it up again.
	env.worker.compressor = compressor.New(nil)
	runCtx, stop := context.WithCancel(context.Background())
	env.worker.Start(runCtx)
	done := waitForJob(t, env.queries, job.ID)
	stop()
	env.worker.Stop()

	if done.Status != db.JobCompleted {
		t.Fatalf("expected requeued job to complete, got %s (%s)", done.Status, done.ErrorMessage.String)
	}
}

func TestWorker_TriggerSignal(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.worker

	select {
	case <-w.trigger:
		t.Fatal("expected trigger channel to be empty")
	default:
	}

	w.TriggerSignal()

	select {
	case <-w.trigger:
	default:
		t.Fatal("expected trigger channel to have signal")
	}

	w.TriggerSignal() // fills the buffer

	done := make(chan bool)
	go func() {
		w.TriggerSignal() // must not block on a full channel
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("TriggerSignal blocked when channel is full")
	}
}

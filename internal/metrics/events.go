package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"imagecompressor/internal/compressor"
	"imagecompressor/internal/db"
)

// Origin is where a compression was requested.
type Origin string

const (
	OriginRequest Origin = "request"
	OriginJob     Origin = "job"
)

// OutcomeRejected marks input that never reached the encoder: not an
// image, undecodable or too large.
const OutcomeRejected = "rejected"

// Logger handles compression event logging
type Logger struct {
	queries *db.Queries
	log     *zap.SugaredLogger
}

// New creates a new metrics logger
func New(database db.DBTX, log *zap.SugaredLogger) *Logger {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Logger{
		queries: db.New(database),
		log:     log,
	}
}

// LogEvent inserts a compression event into the database. Failures are
// logged and returned; callers usually ignore them.
func (l *Logger) LogEvent(ctx context.Context, origin Origin, outcome, sourceType, outputType string, sourceSize, outputSize int64) error {
	err := l.queries.CreateEvent(ctx, db.CreateEventParams{
		Origin:     string(origin),
		Outcome:    outcome,
		SourceType: sourceType,
		OutputType: outputType,
		SourceSize: sourceSize,
		OutputSize: outputSize,
	})
	if err != nil {
		l.log.Warnw("metrics: failed to log event", "origin", origin, "outcome", outcome, "error", err)
	}
	return err
}

// LogArtifact records a finished run.
func (l *Logger) LogArtifact(ctx context.Context, origin Origin, art *compressor.Artifact) error {
	return l.LogEvent(ctx, origin, string(art.Outcome), art.SourceType, art.MimeType, art.SourceSize, art.Size)
}

// LogRejected records input the compressor refused.
func (l *Logger) LogRejected(ctx context.Context, origin Origin, sourceType string, sourceSize int64) error {
	return l.LogEvent(ctx, origin, OutcomeRejected, sourceType, "", sourceSize, 0)
}

// Window aggregates events over one period.
type Window struct {
	Compressed  int64 `json:"compressed"`
	Fallbacks   int64 `json:"fallbacks"`
	Rejected    int64 `json:"rejected"`
	SourceBytes int64 `json:"sourceBytes"`
	OutputBytes int64 `json:"outputBytes"`
}

// BytesSaved is the difference between accepted input and output.
func (w Window) BytesSaved() int64 {
	return w.SourceBytes - w.OutputBytes
}

// Stats holds aggregated metrics
type Stats struct {
	Last7Days  Window `json:"last7Days"`
	Last30Days Window `json:"last30Days"`
}

// GetStats retrieves compression statistics for the last 7 and 30 days.
func (l *Logger) GetStats(ctx context.Context) (*Stats, error) {
	now := time.Now().UTC()

	last7, err := l.window(ctx, now.Add(-7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	last30, err := l.window(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		return nil, err
	}
	return &Stats{Last7Days: last7, Last30Days: last30}, nil
}

func (l *Logger) window(ctx context.Context, since time.Time) (Window, error) {
	sums, err := l.queries.SummarizeEventsSince(ctx, since)
	if err != nil {
		return Window{}, err
	}

	var w Window
	for _, s := range sums {
		switch s.Outcome {
		case OutcomeRejected:
			w.Rejected += s.Count
			continue
		case string(compressor.OutcomeCompressed):
			w.Compressed += s.Count
		default:
			w.Fallbacks += s.Count
		}
		w.SourceBytes += s.SourceBytes
		w.OutputBytes += s.OutputBytes
	}
	return w, nil
}

package metrics

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"imagecompressor/internal/compressor"
	"imagecompressor/internal/testutil"
)

func TestLogArtifact(t *testing.T) {
	database, queries := testutil.SetupTestDB(t)
	ctx := context.Background()
	logger := New(database, nil)

	art := &compressor.Artifact{
		MimeType:   "image/webp",
		Size:       300,
		SourceSize: 1000,
		SourceType: "image/jpeg",
		Outcome:    compressor.OutcomeCompressed,
	}
	if err := logger.LogArtifact(ctx, OriginRequest, art); err != nil {
		t.Fatalf("LogArtifact failed: %v", err)
	}

	sums, err := queries.SummarizeEventsSince(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(sums) != 1 {
		t.Fatalf("Expected 1 event group, got %d", len(sums))
	}
	if sums[0].Outcome != "compressed" || sums[0].SourceBytes != 1000 || sums[0].OutputBytes != 300 {
		t.Errorf("unexpected summary %+v", sums[0])
	}

	var origin, outputType string
	if err := database.QueryRow(`SELECT origin, output_type FROM compression_events`).Scan(&origin, &outputType); err != nil {
		t.Fatalf("query: %v", err)
	}
	if origin != "request" || outputType != "image/webp" {
		t.Errorf("unexpected row origin=%s output=%s", origin, outputType)
	}
}

func TestGetStats(t *testing.T) {
	database, queries := testutil.SetupTestDB(t)
	ctx := context.Background()
	logger := New(database, nil)
	now := time.Now()

	testutil.CreateTestEvent(t, queries, "compressed", 1000, 400, now.Add(-time.Hour))
	testutil.CreateTestEvent(t, queries, "not_smaller", 200, 200, now.Add(-2*time.Hour))
	testutil.CreateTestEvent(t, queries, "compressed", 500, 100, now.Add(-10*24*time.Hour))
	testutil.CreateTestEvent(t, queries, "compressed", 500, 100, now.Add(-60*24*time.Hour))
	if err := logger.LogRejected(ctx, OriginJob, "text/plain", 50); err != nil {
		t.Fatalf("LogRejected: %v", err)
	}

	stats, err := logger.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	want7 := Window{Compressed: 1, Fallbacks: 1, Rejected: 1, SourceBytes: 1200, OutputBytes: 600}
	if stats.Last7Days != want7 {
		t.Errorf("7 days: got %+v, want %+v", stats.Last7Days, want7)
	}
	want30 := Window{Compressed: 2, Fallbacks: 1, Rejected: 1, SourceBytes: 1700, OutputBytes: 700}
	if stats.Last30Days != want30 {
		t.Errorf("30 days: got %+v, want %+v", stats.Last30Days, want30)
	}
	if stats.Last30Days.BytesSaved() != 1000 {
		t.Errorf("expected 1000 bytes saved, got %d", stats.Last30Days.BytesSaved())
	}
}

func TestLogEvent_FailureIsLogged(t *testing.T) {
	database, _ := testutil.SetupTestDB(t)
	core, logs := observer.New(zapcore.WarnLevel)
	logger := New(database, zap.New(core).Sugar())

	database.Close()
	if err := logger.LogRejected(context.Background(), OriginRequest, "", 0); err == nil {
		t.Fatalf("expected error on closed database")
	}
	if logs.FilterMessage("metrics: failed to log event").Len() != 1 {
		t.Fatalf("expected one warning, got %v", logs.All())
	}
}

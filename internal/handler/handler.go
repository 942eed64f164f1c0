// Package handler exposes the compressor over HTTP.
package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"imagecompressor/internal/compressor"
	"imagecompressor/internal/db"
	"imagecompressor/internal/metrics"
	"imagecompressor/internal/settings"
	"imagecompressor/internal/storage"
)

// DefaultUploadLimit applies when Config.UploadLimit is not set.
const DefaultUploadLimit = int64(50 << 20)

// Compressor runs one compression.
type Compressor interface {
	Compress(ctx context.Context, file compressor.File, opts compressor.Options) (*compressor.Artifact, error)
}

// JobNotifier is woken when a job is queued.
type JobNotifier interface {
	TriggerSignal()
}

// Config holds the request-facing settings.
type Config struct {
	// UploadLimit is the largest accepted image in bytes.
	UploadLimit int64
	// Defaults apply to every option a request leaves out.
	Defaults settings.Settings
}

type Handler struct {
	db         *sql.DB
	queries    *db.Queries
	storage    *storage.Storage
	compressor Compressor
	builder    *settings.Builder
	metrics    *metrics.Logger
	notifier   JobNotifier
	log        *zap.SugaredLogger
	config     Config
}

// New wires a Handler. events and notifier may be nil.
func New(database *sql.DB, store *storage.Storage, comp Compressor, builder *settings.Builder, events *metrics.Logger, notifier JobNotifier, log *zap.SugaredLogger, cfg Config) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.UploadLimit <= 0 {
		cfg.UploadLimit = DefaultUploadLimit
	}
	return &Handler{
		db:         database,
		queries:    db.New(database),
		storage:    store,
		compressor: comp,
		builder:    builder,
		metrics:    events,
		notifier:   notifier,
		log:        log,
		config:     cfg,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

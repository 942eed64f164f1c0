package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"imagecompressor/internal/db"
)

// JobResponse is the JSON view of a queued compression.
type JobResponse struct {
	ID           int64      `json:"id"`
	Status       string     `json:"status"`
	Filename     string     `json:"filename"`
	SourceSize   int64      `json:"sourceSize"`
	Outcome      string     `json:"outcome,omitempty"`
	ArtifactName string     `json:"artifactName,omitempty"`
	ArtifactType string     `json:"artifactType,omitempty"`
	ArtifactSize int64      `json:"artifactSize,omitempty"`
	Width        int64      `json:"width,omitempty"`
	Height       int64      `json:"height,omitempty"`
	ArtifactURL  string     `json:"artifactUrl,omitempty"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

func jobResponse(job db.CompressionJob) JobResponse {
	resp := JobResponse{
		ID:           job.ID,
		Status:       job.Status,
		Filename:     job.OriginalFilename,
		SourceSize:   job.SourceSize,
		Outcome:      job.Outcome.String,
		ArtifactName: job.ArtifactName.String,
		ArtifactType: job.ArtifactType.String,
		ArtifactSize: job.ArtifactSize.Int64,
		Width:        job.Width.Int64,
		Height:       job.Height.Int64,
		Error:        job.ErrorMessage.String,
		CreatedAt:    job.CreatedAt.UTC(),
	}
	if job.CompletedAt.Valid {
		t := job.CompletedAt.Time.UTC()
		resp.CompletedAt = &t
	}
	if job.Status == db.JobCompleted {
		resp.ArtifactURL = fmt.Sprintf("/jobs/%d/artifact", job.ID)
	}
	return resp
}

// CreateJob handles POST /jobs: the upload is queued for the background
// worker and 202 is returned with the job.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	up, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	options, err := up.Settings.Marshal()
	if err != nil {
		os.Remove(up.Path)
		h.fail(w, r, err)
		return
	}

	job, err := h.queries.EnqueueJob(r.Context(), db.EnqueueJobParams{
		OriginalFilename: up.Filename,
		SourceType:       up.Type,
		SourceSize:       up.Size,
		TempFilepath:     up.Path,
		Options:          options,
	})
	if err != nil {
		os.Remove(up.Path)
		h.fail(w, r, err)
		return
	}

	if h.notifier != nil {
		h.notifier.TriggerSignal()
	}
	h.log.Infow("jobs: queued", "job_id", job.ID, "file", job.OriginalFilename, "size", job.SourceSize)

	w.Header().Set("Location", fmt.Sprintf("/jobs/%d", job.ID))
	writeJSON(w, http.StatusAccepted, jobResponse(job))
}

// GetJob handles GET /jobs/{id}.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, jobResponse(job))
}

// GetJobArtifact handles GET /jobs/{id}/artifact.
func (h *Handler) GetJobArtifact(w http.ResponseWriter, r *http.Request) {
	job, ok := h.loadJob(w, r)
	if !ok {
		return
	}
	if job.Status != db.JobCompleted || !job.ArtifactPath.Valid {
		writeError(w, http.StatusConflict, "job is "+job.Status)
		return
	}

	f, err := os.Open(job.ArtifactPath.String)
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusGone, "artifact no longer available")
			return
		}
		h.fail(w, r, err)
		return
	}
	defer f.Close()

	setArtifactHeaders(w, job.ArtifactName.String, job.ArtifactType.String,
		int(job.Width.Int64), int(job.Height.Int64), job.Outcome.String, job.SourceSize)
	modTime := job.CreatedAt
	if job.CompletedAt.Valid {
		modTime = job.CompletedAt.Time
	}
	http.ServeContent(w, r, "", modTime, f)
}

func (h *Handler) loadJob(w http.ResponseWriter, r *http.Request) (db.CompressionJob, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return db.CompressionJob{}, false
	}
	job, err := h.queries.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "job not found")
		} else {
			h.fail(w, r, err)
		}
		return db.CompressionJob{}, false
	}
	return job, true
}

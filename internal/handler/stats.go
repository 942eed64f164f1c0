package handler

import (
	"net/http"

	"imagecompressor/internal/metrics"
)

// StatsResponse combines event windows with the current queue.
type StatsResponse struct {
	*metrics.Stats
	Queue map[string]int64 `json:"queue"`
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		writeError(w, http.StatusNotFound, "metrics disabled")
		return
	}
	stats, err := h.metrics.GetStats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	queue, err := h.queries.CountJobsByStatus(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Stats: stats, Queue: queue})
}

package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"imagecompressor/internal/compressor"
	"imagecompressor/internal/handler"
	"imagecompressor/internal/settings"
	"imagecompressor/internal/storage"
	"imagecompressor/internal/testutil"
)

func TestHealthCheck_OK(t *testing.T) {
	env := newTestEnv(t, 0)

	w := env.serve(httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if body.Status != "healthy" {
		t.Fatalf("expected healthy status, got %s", body.Status)
	}
}

func TestHealthCheck_DBDown(t *testing.T) {
	dbConn, _ := testutil.SetupTestDB(t)
	log := zaptest.NewLogger(t).Sugar()
	h := handler.New(dbConn, storage.New(t.TempDir()), compressor.New(log), &settings.Builder{}, nil, nil, log, handler.Config{})

	// Close DB to simulate outage
	dbConn.Close()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	h.HealthCheck(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if body.Status != "unhealthy" {
		t.Fatalf("expected unhealthy status, got %s", body.Status)
	}
}

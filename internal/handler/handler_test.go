package handler_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zaptest"

	"imagecompressor/internal/compressor"
	"imagecompressor/internal/config"
	"imagecompressor/internal/db"
	"imagecompressor/internal/handler"
	"imagecompressor/internal/metrics"
	"imagecompressor/internal/settings"
	"imagecompressor/internal/storage"
	"imagecompressor/internal/testutil"
)

type countingNotifier struct {
	calls atomic.Int32
}

func (n *countingNotifier) TriggerSignal() { n.calls.Add(1) }

type testEnv struct {
	handler  *handler.Handler
	router   http.Handler
	queries  *db.Queries
	store    *storage.Storage
	notifier *countingNotifier
}

func newTestEnv(t *testing.T, uploadLimit int64) *testEnv {
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
	notifier := &countingNotifier{}
	h := handler.New(database, store, compressor.New(log), builder, metrics.New(database, log), notifier, log, handler.Config{
		UploadLimit: uploadLimit,
		Defaults:    settings.FromConfig(config.DefaultConfig().Compression),
	})
	return &testEnv{
		handler:  h,
		router:   h.NewRouter(nil),
		queries:  queries,
		store:    store,
		notifier: notifier,
	}
}

// filePart is the file section of a multipart request. An empty Type sends
// the part without a Content-Type header.
type filePart struct {
	Name string
	Type string
	Data []byte
}

func multipartRequest(t *testing.T, method, target string, file *filePart, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
		if file.Type != "" {
			hdr.Set("Content-Type", file.Type)
		}
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(file.Data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

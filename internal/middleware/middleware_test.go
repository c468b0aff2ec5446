package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/snookercounter/internal/metrics"
)

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry), buf.String())
	return entry
}

func TestLoggingRecordsRequest(t *testing.T) {
	var buf bytes.Buffer
	var seenID string
	handler := Logging(jsonLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/matches", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get(RequestIDHeader))

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, seenID, entry["request_id"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/api/v1/matches", entry["path"])
	assert.EqualValues(t, http.StatusCreated, entry["status"])
	assert.EqualValues(t, 5, entry["size"])
}

func TestLoggingKeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	handler := Logging(jsonLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "ERROR", entry["level"])
}

func TestResponseWriterDefaultsAndUnwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)
	assert.Equal(t, http.StatusOK, rw.Status())

	// Wrapping twice reuses the same writer so both layers see one status
	assert.Same(t, rw, NewResponseWriter(rw))

	_, err := rw.Write([]byte("abc"))
	require.NoError(t, err)
	rw.Flush()
	assert.Equal(t, 3, rw.Size())
	assert.True(t, rec.Flushed)

	_, _, err = rw.Hijack()
	assert.Error(t, err)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	m := metrics.New()

	router := mux.NewRouter()
	router.Use(Metrics(m))
	router.HandleFunc("/matches/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/matches/"+id, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	// Outside the router there is no route
	rec := httptest.NewRecorder()
	Metrics(m)(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	scraped := httptest.NewRecorder()
	m.Handler().ServeHTTP(scraped, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(scraped.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `snooker_http_requests_total{method="DELETE",route="/matches/{id}",status="204"} 2`)
	assert.Contains(t, string(body), `snooker_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
}

func TestRecoveryHandsPanicToHandler(t *testing.T) {
	var buf bytes.Buffer
	var recovered any
	handler := Recovery(jsonLogger(&buf), func(w http.ResponseWriter, _ *http.Request, err any) {
		recovered = err
		w.WriteHeader(http.StatusInternalServerError)
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("cue ball missing")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/matches/m1/pot", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "cue ball missing", recovered)

	entry := decodeLogLine(t, &buf)
	assert.Equal(t, "panic recovered", entry["msg"])
	assert.Equal(t, "/api/v1/matches/m1/pot", entry["path"])
	assert.True(t, strings.Contains(entry["stack"].(string), "middleware_test.go"))
}

func TestRecoveryRepanicsAbortHandler(t *testing.T) {
	handler := Recovery(slog.New(slog.NewTextHandler(io.Discard, nil)), func(http.ResponseWriter, *http.Request, any) {
		t.Fatal("abort should not reach the panic handler")
	})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

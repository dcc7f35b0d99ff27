package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ventionteams/medfast-credentials/internal/common/constants"
	"github.com/ventionteams/medfast-credentials/internal/common/logger"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "test", "critical")
}

func TestTraceIDMiddleware_PropagatesHeader(t *testing.T) {
	var seen string
	handler := TraceIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(constants.TraceIDKey).(string)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Trace-ID", "abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "abc" || rec.Header().Get("X-Trace-ID") != "abc" {
		t.Errorf("expected trace id abc, got ctx=%q header=%q", seen, rec.Header().Get("X-Trace-ID"))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Header().Get("X-Trace-ID") == "" {
		t.Error("expected generated trace id")
	}
}

func TestHealthHandler(t *testing.T) {
	checks := map[string]HealthCheck{
		"database": func(context.Context) error { return nil },
	}
	rec := httptest.NewRecorder()
	HealthHandler(testLogger(), checks)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	checks["redis"] = func(context.Context) error { return errors.New("down") }
	rec = httptest.NewRecorder()
	HealthHandler(testLogger(), checks)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["redis"] != "unavailable" || body["database"] != "ok" {
		t.Errorf("unexpected body: %v", body)
	}

	rec = httptest.NewRecorder()
	HealthHandler(testLogger(), nil)(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := BuildBaseHandler("credentials", testLogger(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var env ErrorEnvelope
	_ = json.NewDecoder(rec.Body).Decode(&env)
	if env.Code != "INTERNAL" || env.TraceID == "" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

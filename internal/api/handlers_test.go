// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/churn"
	"github.com/vishnugarg323/PlayMetric/internal/metrics"
	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/service"
	"github.com/vishnugarg323/PlayMetric/internal/store"
)

var refNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(d int) time.Time { return refNow.AddDate(0, 0, -d) }

// envelope decodes the response with data kept raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func setupTestStore(t *testing.T) *store.BadgerStore {
	t.Helper()

	s, err := store.OpenBadger("", true, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	users := []models.UserProfile{
		{UserID: "whale", Platform: "ios", FirstSeen: daysAgo(30), LastSeen: daysAgo(0), TotalSessions: 25},
		{UserID: "lapsed", Platform: "android", FirstSeen: daysAgo(50), LastSeen: daysAgo(35), TotalSessions: 3},
	}
	events := []models.Event{
		{UserID: "whale", Timestamp: daysAgo(0), Payload: models.SessionStart{}},
		{UserID: "whale", Timestamp: daysAgo(0), Payload: models.LevelComplete{LevelID: "level_1", LevelNumber: 1, Stars: 3}},
		{UserID: "whale", Timestamp: daysAgo(0), Payload: models.Purchase{ItemID: "bundle", RealMoneyValue: 19.99}},
		{UserID: "lapsed", Timestamp: daysAgo(35), Payload: models.LevelFail{LevelID: "level_1", LevelNumber: 1}},
	}
	if err := s.PutUsers(ctx, users); err != nil {
		t.Fatal(err)
	}
	if err := s.PutEvents(ctx, events); err != nil {
		t.Fatal(err)
	}
	return s
}

func setupTestRouter(t *testing.T, src service.Source) http.Handler {
	t.Helper()

	model, err := churn.NewModel(nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	svc, err := service.New(service.DefaultConfig(), src, model, zerolog.Nop(),
		service.WithClock(func() time.Time { return refNow }))
	if err != nil {
		t.Fatalf("service.New failed: %v", err)
	}
	cfg := DefaultRouterConfig()
	cfg.Middleware.RateLimitDisabled = true
	return NewRouter(svc, cfg, zerolog.Nop())
}

func doGet(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v (body %q)", path, err, rec.Body.String())
		}
	}
	return rec, env
}

func TestRouter_AnalyticsEndpoints(t *testing.T) {
	router := setupTestRouter(t, setupTestStore(t))

	paths := []string{
		"/api/v1/analytics/overview",
		"/api/v1/analytics/churn",
		"/api/v1/analytics/levels",
		"/api/v1/analytics/users/segments",
		"/api/v1/analytics/users/whale",
		"/api/v1/analytics/recommendations",
		"/api/v1/analytics/insights",
		"/api/v1/analytics/stats",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec, env := doGet(t, router, path)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if !env.Success || env.Error != nil || len(env.Data) == 0 {
				t.Errorf("unexpected envelope: %+v", env)
			}
			if env.Meta == nil || env.Meta.RequestID == "" {
				t.Error("expected request id in meta")
			}
			if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("missing security headers")
			}
		})
	}
}

func TestChurnHandler_Limit(t *testing.T) {
	router := setupTestRouter(t, setupTestStore(t))

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantPreds int
		wantError string
	}{
		{"default limit", "", http.StatusOK, 2, ""},
		{"explicit limit", "?limit=1", http.StatusOK, 1, ""},
		{"upper bound", "?limit=10000", http.StatusOK, 2, ""},
		{"zero", "?limit=0", http.StatusBadRequest, 0, ErrCodeValidationFailed},
		{"above max", "?limit=10001", http.StatusBadRequest, 0, ErrCodeValidationFailed},
		{"not a number", "?limit=ten", http.StatusBadRequest, 0, ErrCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doGet(t, router, "/api/v1/analytics/churn"+tt.query)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantError != "" {
				if env.Success || env.Error == nil || env.Error.Code != tt.wantError {
					t.Errorf("error = %+v, want %s", env.Error, tt.wantError)
				}
				return
			}

			var res models.ChurnAnalysis
			if err := json.Unmarshal(env.Data, &res); err != nil {
				t.Fatalf("decode churn: %v", err)
			}
			if len(res.Predictions) != tt.wantPreds {
				t.Errorf("predictions = %d, want %d", len(res.Predictions), tt.wantPreds)
			}
			if res.TotalUsersAnalyzed != 2 {
				t.Errorf("total analyzed = %d, want 2", res.TotalUsersAnalyzed)
			}
			if len(res.Predictions) > 0 && res.Predictions[0].UserID != "lapsed" {
				t.Errorf("highest risk = %s, want lapsed", res.Predictions[0].UserID)
			}
		})
	}
}

func TestUserHandler(t *testing.T) {
	router := setupTestRouter(t, setupTestStore(t))

	rec, env := doGet(t, router, "/api/v1/analytics/users/whale")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var ua models.UserAnalysis
	if err := json.Unmarshal(env.Data, &ua); err != nil {
		t.Fatalf("decode user: %v", err)
	}
	if ua.Profile.UserID != "whale" || ua.LevelProgress.Completions != 1 || ua.Spending.Transactions != 1 {
		t.Errorf("unexpected analysis: %+v", ua)
	}

	rec, env = doGet(t, router, "/api/v1/analytics/users/nobody")
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("unknown user: status %d, error %+v", rec.Code, env.Error)
	}

	rec, env = doGet(t, router, "/api/v1/analytics/users/has%20space")
	if rec.Code != http.StatusBadRequest || env.Error == nil || env.Error.Code != ErrCodeValidationFailed {
		t.Errorf("invalid id: status %d, error %+v", rec.Code, env.Error)
	}
}

func TestHealthHandlers(t *testing.T) {
	s := setupTestStore(t)
	router := setupTestRouter(t, s)

	rec, env := doGet(t, router, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var h models.HealthStatus
	if err := json.Unmarshal(env.Data, &h); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if h.Status != "healthy" || !h.StoreConnected || h.StoreBackend != store.BackendBadger {
		t.Errorf("health = %+v", h)
	}
	if h.ChurnModelMode != models.ModeRuleBased {
		t.Errorf("mode = %s, want rule_based", h.ChurnModelMode)
	}

	rec, _ = doGet(t, router, "/api/v1/health/live")
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}

	_ = s.Close()
	_, env = doGet(t, router, "/api/v1/health")
	if err := json.Unmarshal(env.Data, &h); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if h.Status != "degraded" || h.StoreConnected {
		t.Errorf("closed store health = %+v", h)
	}
}

// stubSource fails every read with err.
type stubSource struct{ err error }

func (s stubSource) Snapshot(context.Context) (models.Snapshot, error) {
	return models.Snapshot{}, s.err
}

func (s stubSource) User(context.Context, string) (models.UserProfile, error) {
	return models.UserProfile{}, s.err
}

func (s stubSource) UserEvents(context.Context, string) ([]models.Event, error) { return nil, s.err }
func (s stubSource) Ping(context.Context) error                                  { return s.err }
func (s stubSource) Backend() string                                             { return "stub" }

func TestHandlers_StoreErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"generic failure", errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeDatabaseError},
		{"breaker open", store.ErrStoreUnavailable, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(t, stubSource{err: tt.err})
			rec, env := doGet(t, router, "/api/v1/analytics/overview")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if env.Error == nil || env.Error.Code != tt.wantErr {
				t.Errorf("error = %+v, want %s", env.Error, tt.wantErr)
			}
			if env.Error != nil && strings.Contains(env.Error.Message, "disk on fire") {
				t.Error("internal error text leaked to client")
			}
		})
	}
}

func TestRouter_NotFoundAndMetrics(t *testing.T) {
	router := setupTestRouter(t, setupTestStore(t))

	rec, env := doGet(t, router, "/api/v1/nope")
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("status %d, error %+v", rec.Code, env.Error)
	}

	doGet(t, router, "/api/v1/analytics/stats")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/v1/analytics/stats") {
		t.Error("expected request metric for stats route")
	}
}

func TestRouter_RequestIDPropagation(t *testing.T) {
	router := setupTestRouter(t, setupTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	req.Header.Set("X-Request-ID", "trace-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if rec.Header().Get("X-Request-ID") != "trace-42" || env.Meta.RequestID != "trace-42" {
		t.Errorf("request id not propagated: header %q meta %+v", rec.Header().Get("X-Request-ID"), env.Meta)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	model, _ := churn.NewModel(nil, zerolog.Nop())
	svc, err := service.New(service.DefaultConfig(), setupTestStore(t), model, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultRouterConfig()
	cfg.Middleware.RateLimitRequests = 2
	cfg.Middleware.RateLimitWindow = time.Minute
	router := NewRouter(svc, cfg, zerolog.Nop())
	before := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("analytics"))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec, _ := doGet(t, router, "/api/v1/analytics/stats")
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
	if got := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("analytics")) - before; got != 1 {
		t.Errorf("rate limit hits = %v, want 1", got)
	}
}

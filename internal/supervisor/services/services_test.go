// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/churn"
	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/store"
)

var refNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// mockHTTPServer blocks in ListenAndServe until Shutdown.
type mockHTTPServer struct {
	listenErr     error
	shutdownErr   error
	shutdownCount atomic.Int32
	started       chan struct{}
	stopCh        chan struct{}
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{started: make(chan struct{}, 1), stopCh: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.started <- struct{}{}
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopCh
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.shutdownCount.Add(1)
	close(m.stopCh)
	return m.shutdownErr
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	srv := newMockHTTPServer()
	svc := NewHTTPServerService(srv, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	<-srv.started
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	if srv.shutdownCount.Load() != 1 {
		t.Errorf("shutdown called %d times", srv.shutdownCount.Load())
	}
	if svc.String() != "http-server" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestHTTPServerService_ListenError(t *testing.T) {
	srv := newMockHTTPServer()
	srv.listenErr = errors.New("address already in use")
	svc := NewHTTPServerService(srv, 0, zerolog.Nop())

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Errorf("err = %v, want wrapped listen error", err)
	}
	if svc.shutdownTimeout != 10*time.Second {
		t.Errorf("default shutdown timeout = %s", svc.shutdownTimeout)
	}
}

// fakeImporter counts calls and fails the first failFirst of them.
type fakeImporter struct {
	calls     atomic.Int32
	failFirst int32
}

func (f *fakeImporter) ImportFile(_ context.Context, path string) (*store.ImportStats, error) {
	if n := f.calls.Add(1); n <= f.failFirst {
		return nil, fmt.Errorf("open %s: boom", path)
	}
	return &store.ImportStats{Users: 3, Events: 10}, nil
}

func TestImportService(t *testing.T) {
	imp := &fakeImporter{failFirst: 1}
	svc := NewImportService(imp, "/data/batch.json", zerolog.Nop())

	if err := svc.Serve(context.Background()); err == nil {
		t.Fatal("expected first import to fail")
	}
	select {
	case <-svc.Ready():
		t.Fatal("ready closed after failed import")
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	select {
	case <-svc.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("ready not closed after successful import")
	}
	cancel()
	<-errCh

	// A restart after success does not import again.
	ctx2, cancel2 := context.WithCancel(context.Background())
	cancel2()
	_ = svc.Serve(ctx2)
	if imp.calls.Load() != 2 {
		t.Errorf("import calls = %d, want 2", imp.calls.Load())
	}
}

func TestImportService_NoPath(t *testing.T) {
	imp := &fakeImporter{}
	svc := NewImportService(imp, "", zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = svc.Serve(ctx)

	select {
	case <-svc.Ready():
	default:
		t.Error("ready should close when no import is configured")
	}
	if imp.calls.Load() != 0 {
		t.Errorf("import calls = %d, want 0", imp.calls.Load())
	}
}

func trainingStore(t *testing.T, users int) *store.BadgerStore {
	t.Helper()

	s, err := store.OpenBadger("", true, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	profiles := make([]models.UserProfile, 0, users)
	events := make([]models.Event, 0, users*2)
	for i := 0; i < users; i++ {
		id := fmt.Sprintf("player-%02d", i)
		inactive := 1
		sessions := 20 + i
		if i%2 == 1 {
			inactive = 30 + i
			sessions = 1 + i%3
		}
		last := refNow.AddDate(0, 0, -inactive)
		profiles = append(profiles, models.UserProfile{
			UserID:        id,
			FirstSeen:     refNow.AddDate(0, 0, -90),
			LastSeen:      last,
			TotalSessions: sessions,
		})
		events = append(events,
			models.Event{UserID: id, Timestamp: last, Payload: models.SessionStart{}},
			models.Event{UserID: id, Timestamp: last, Payload: models.LevelComplete{LevelID: "level_1", LevelNumber: 1}},
		)
	}
	ctx := context.Background()
	if err := s.PutUsers(ctx, profiles); err != nil {
		t.Fatal(err)
	}
	if err := s.PutEvents(ctx, events); err != nil {
		t.Fatal(err)
	}
	return s
}

func testModel(t *testing.T) *churn.Model {
	t.Helper()

	cfg := churn.DefaultConfig()
	cfg.Forest = churn.ForestParams{Trees: 5, MaxDepth: 4, MinSamplesSplit: 2, Seed: 7}
	cfg.MinTrainingSamples = 4
	m, err := churn.NewModel(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return m
}

func runBootstrap(t *testing.T, svc *ChurnService) {
	t.Helper()

	if err := svc.bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
}

func TestChurnService_TrainsAndPersists(t *testing.T) {
	s := trainingStore(t, 24)
	model := testModel(t)

	svc := NewChurnService(model, s, ChurnServiceConfig{
		TrainOnStartup: true,
		Now:            func() time.Time { return refNow },
	}, zerolog.Nop())
	runBootstrap(t, svc)

	if model.Mode() != models.ModeTrained {
		t.Fatalf("mode = %s, want trained", model.Mode())
	}
	if _, err := s.LoadArtifact(context.Background(), "churn"); err != nil {
		t.Fatalf("artifact not saved: %v", err)
	}

	// A fresh model picks the artifact up without training.
	restored := testModel(t)
	svc2 := NewChurnService(restored, s, ChurnServiceConfig{}, zerolog.Nop())
	runBootstrap(t, svc2)
	if restored.Mode() != models.ModeTrained {
		t.Errorf("restored mode = %s, want trained", restored.Mode())
	}
}

func TestChurnService_RuleBasedFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		users int
		train bool
	}{
		{"training disabled", 24, false},
		{"too few users", 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := trainingStore(t, tt.users)
			model := testModel(t)
			svc := NewChurnService(model, s, ChurnServiceConfig{
				TrainOnStartup: tt.train,
				Now:            func() time.Time { return refNow },
			}, zerolog.Nop())
			runBootstrap(t, svc)

			if model.Mode() != models.ModeRuleBased {
				t.Errorf("mode = %s, want rule_based", model.Mode())
			}
			if _, err := s.LoadArtifact(context.Background(), "churn"); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("unexpected artifact: %v", err)
			}
		})
	}
}

func TestChurnService_WaitsForAfter(t *testing.T) {
	s := trainingStore(t, 24)
	model := testModel(t)
	gate := make(chan struct{})

	svc := NewChurnService(model, s, ChurnServiceConfig{
		TrainOnStartup: true,
		After:          gate,
		Now:            func() time.Time { return refNow },
	}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	if model.Mode() != models.ModeRuleBased {
		t.Fatal("bootstrap ran before the gate opened")
	}

	close(gate)
	deadline := time.Now().Add(5 * time.Second)
	for model.Mode() != models.ModeTrained && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if model.Mode() != models.ModeTrained {
		t.Error("model not trained after the gate opened")
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

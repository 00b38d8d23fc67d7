// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/models"
)

var refNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// setupTestStore creates an in-memory BadgerDB store for testing.
func setupTestStore(t *testing.T) *BadgerStore {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open BadgerDB: %v", err)
	}
	s := NewBadgerStore(db, zerolog.Nop())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testUsers() []models.UserProfile {
	return []models.UserProfile{
		{UserID: "u1", Platform: "android", FirstSeen: refNow.AddDate(0, 0, -40), LastSeen: refNow.AddDate(0, 0, -1), TotalSessions: 12},
		{UserID: "u2", Platform: "ios", FirstSeen: refNow.AddDate(0, 0, -5), LastSeen: refNow, TotalSessions: 2},
	}
}

func testEvents() []models.Event {
	return []models.Event{
		{UserID: "u1", SessionID: "s2", Timestamp: refNow.Add(-time.Hour), Payload: models.LevelComplete{LevelID: "level_1", LevelNumber: 1, Stars: 3}},
		{UserID: "u1", SessionID: "s1", Timestamp: refNow.Add(-2 * time.Hour), Payload: models.SessionStart{}},
		{UserID: "u2", SessionID: "s3", Timestamp: refNow, Payload: models.Purchase{ItemID: "gems", RealMoneyValue: 4.99}},
		{UserID: "u1", Payload: models.SessionEnd{DurationMs: 60000}},
	}
}

func TestBadgerStore_UsersRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if err := s.PutUsers(ctx, testUsers()); err != nil {
		t.Fatalf("PutUsers failed: %v", err)
	}

	got, err := s.User(ctx, "u1")
	if err != nil {
		t.Fatalf("User failed: %v", err)
	}
	if got.Platform != "android" || got.TotalSessions != 12 {
		t.Errorf("unexpected profile: %+v", got)
	}
	if !got.FirstSeen.Equal(refNow.AddDate(0, 0, -40)) {
		t.Errorf("FirstSeen = %v", got.FirstSeen)
	}

	// Upsert replaces the profile.
	updated := testUsers()[:1]
	updated[0].TotalSessions = 13
	if err := s.PutUsers(ctx, updated); err != nil {
		t.Fatalf("PutUsers failed: %v", err)
	}
	got, _ = s.User(ctx, "u1")
	if got.TotalSessions != 13 {
		t.Errorf("TotalSessions = %d, want 13", got.TotalSessions)
	}

	if _, err := s.User(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBadgerStore_UserEventsOrdered(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if err := s.PutEvents(ctx, testEvents()); err != nil {
		t.Fatalf("PutEvents failed: %v", err)
	}

	events, err := s.UserEvents(ctx, "u1")
	if err != nil {
		t.Fatalf("UserEvents failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	// Unknown timestamp first, then chronological.
	if events[0].Kind() != models.KindSessionEnd || !events[0].Timestamp.IsZero() {
		t.Errorf("events[0] = %+v", events[0])
	}
	if events[1].Kind() != models.KindSessionStart || events[2].Kind() != models.KindLevelComplete {
		t.Errorf("order = %s, %s", events[1].Kind(), events[2].Kind())
	}
	lc, ok := events[2].Payload.(models.LevelComplete)
	if !ok || lc.Stars != 3 || lc.LevelID != "level_1" {
		t.Errorf("payload = %#v", events[2].Payload)
	}
	if end := events[0].Payload.(models.SessionEnd); end.DurationMs != 60000 {
		t.Errorf("duration = %d", end.DurationMs)
	}
}

func TestBadgerStore_UserPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	events := []models.Event{
		{UserID: "u1", Timestamp: refNow, Payload: models.SessionStart{}},
		{UserID: "u10", Timestamp: refNow, Payload: models.SessionStart{}},
		{UserID: "u1:x", Timestamp: refNow, Payload: models.SessionStart{}},
	}
	if err := s.PutEvents(ctx, events); err != nil {
		t.Fatalf("PutEvents failed: %v", err)
	}

	got, err := s.UserEvents(ctx, "u1")
	if err != nil {
		t.Fatalf("UserEvents failed: %v", err)
	}
	if len(got) != 1 || got[0].UserID != "u1" {
		t.Errorf("got %+v, want only u1", got)
	}
}

func TestBadgerStore_Snapshot(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot on empty store failed: %v", err)
	}
	if len(snap.Users) != 0 || len(snap.Events) != 0 {
		t.Errorf("expected empty snapshot, got %+v", snap)
	}

	if err := s.PutUsers(ctx, testUsers()); err != nil {
		t.Fatal(err)
	}
	if err := s.PutEvents(ctx, testEvents()); err != nil {
		t.Fatal(err)
	}

	snap, err = s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap.Users) != 2 || len(snap.Events) != 4 {
		t.Fatalf("snapshot = %d users, %d events", len(snap.Users), len(snap.Events))
	}
	counts := snap.EventCounts()
	if counts[models.KindPurchase] != 1 || counts[models.KindSessionStart] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestBadgerStore_Artifacts(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if _, err := s.LoadArtifact(ctx, "churn"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.SaveArtifact(ctx, "churn", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}
	if err := s.SaveArtifact(ctx, "churn", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}
	data, err := s.LoadArtifact(ctx, "churn")
	if err != nil {
		t.Fatalf("LoadArtifact failed: %v", err)
	}
	if string(data) != `{"v":2}` {
		t.Errorf("artifact = %s", data)
	}
}

func TestBadgerStore_Ping(t *testing.T) {
	s := setupTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if s.Backend() != BackendBadger {
		t.Errorf("Backend = %q", s.Backend())
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "sqlite"}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestOpen_InMemoryBadger(t *testing.T) {
	s, err := Open(context.Background(), Options{Backend: BackendBadger, InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()
	if s.Backend() != BackendBadger {
		t.Errorf("Backend = %q", s.Backend())
	}
}

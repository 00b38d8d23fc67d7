// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/models"
)

const importDoc = `{
  "users": [
    {"userId": "p1", "platform": "android", "firstSeen": "2026-05-01T10:00:00", "lastSeen": 1781524800000, "totalSessions": 4},
    {"user_id": "p2", "first_seen": "2026-06-01T00:00:00Z", "last_seen": "not a date"},
    {"user_id": "bad id"}
  ],
  "events": [
    {"eventType": "GAME_START", "globalParams": {"userId": "p1", "sessionId": "s1", "timestamp": "2026-06-10T08:00:00Z"}},
    {"eventType": "LEVEL_END", "globalParams": {"userId": "p1", "timestamp": "2026-06-10T08:05:00Z"}, "levelId": "level_1", "levelNumber": 1, "completed": true, "starsEarned": 3},
    {"eventType": "level_fail", "globalParams": {"userId": "p2", "timestamp": "2026-06-10T09:00:00Z"}, "levelNumber": 2, "failReason": "timeout"},
    {"eventType": "ECONOMY_TRANSACTION", "globalParams": {"userId": "p1"}, "realMoneyValue": 2.99, "currencyType": "USD"},
    {"eventType": "TELEPORT", "globalParams": {"userId": "p1"}},
    {"eventType": "LEVEL_END", "globalParams": {"userId": "p1"}, "starsEarned": 9}
  ]
}`

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	stats, err := NewImporter(s, zerolog.Nop()).Import(ctx, strings.NewReader(importDoc))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if stats.Users != 2 || stats.SkippedUsers != 1 {
		t.Errorf("users = %d, skipped = %d", stats.Users, stats.SkippedUsers)
	}
	if stats.Events != 4 || stats.SkippedEvents != 2 {
		t.Errorf("events = %d, skipped = %d", stats.Events, stats.SkippedEvents)
	}

	p1, err := s.User(ctx, "p1")
	if err != nil {
		t.Fatalf("User failed: %v", err)
	}
	if p1.TotalSessions != 4 || p1.FirstSeen.IsZero() || p1.LastSeen.IsZero() {
		t.Errorf("p1 = %+v", p1)
	}
	p2, _ := s.User(ctx, "p2")
	if !p2.LastSeen.IsZero() {
		t.Errorf("malformed timestamp should decode to zero, got %v", p2.LastSeen)
	}

	events, err := s.UserEvents(ctx, "p1")
	if err != nil {
		t.Fatalf("UserEvents failed: %v", err)
	}
	kinds := make(map[models.EventKind]int)
	for _, e := range events {
		kinds[e.Kind()]++
	}
	if kinds[models.KindSessionStart] != 1 || kinds[models.KindLevelComplete] != 1 || kinds[models.KindPurchase] != 1 {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestImporter_ImportFile(t *testing.T) {
	s := setupTestStore(t)
	path := filepath.Join(t.TempDir(), "batch.json")
	if err := os.WriteFile(path, []byte(`{"users":[{"user_id":"only"}],"events":[]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	stats, err := NewImporter(s, zerolog.Nop()).ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}
	if stats.Users != 1 || stats.Events != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestImporter_Errors(t *testing.T) {
	s := setupTestStore(t)
	imp := NewImporter(s, zerolog.Nop())

	if _, err := imp.Import(context.Background(), strings.NewReader("{not json")); err == nil {
		t.Error("expected decode error")
	}
	if _, err := imp.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected open error")
	}
}

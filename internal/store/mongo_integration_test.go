// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

//go:build integration

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/testinfra"
)

func setupMongoStore(t *testing.T) *MongoStore {
	t.Helper()

	mongo := testinfra.StartMongo(t)
	s, err := OpenMongo(context.Background(), MongoOptions{
		URI:      mongo.URI,
		Database: "playmetric_test",
		Timeout:  10 * time.Second,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenMongo failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMongoStore_Integration(t *testing.T) {
	ctx := context.Background()
	s := setupMongoStore(t)

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if err := s.PutUsers(ctx, testUsers()); err != nil {
		t.Fatalf("PutUsers failed: %v", err)
	}
	if err := s.PutEvents(ctx, testEvents()); err != nil {
		t.Fatalf("PutEvents failed: %v", err)
	}

	t.Run("user", func(t *testing.T) {
		got, err := s.User(ctx, "u1")
		if err != nil {
			t.Fatalf("User failed: %v", err)
		}
		if got.Platform != "android" || got.TotalSessions != 12 {
			t.Errorf("unexpected profile: %+v", got)
		}
		if _, err := s.User(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("user events ordered", func(t *testing.T) {
		events, err := s.UserEvents(ctx, "u1")
		if err != nil {
			t.Fatalf("UserEvents failed: %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("got %d events, want 3", len(events))
		}
		for i := 1; i < len(events); i++ {
			if events[i].Timestamp.Before(events[i-1].Timestamp) {
				t.Errorf("events out of order at %d", i)
			}
		}
	})

	t.Run("snapshot skips unknown event types", func(t *testing.T) {
		_, err := s.db.Collection("game_events").InsertOne(ctx, bson.M{
			"eventType":    "TELEPORT",
			"globalParams": bson.M{"userId": "u1", "timestamp": refNow},
		})
		if err != nil {
			t.Fatalf("InsertOne failed: %v", err)
		}

		snap, err := s.Snapshot(ctx)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if len(snap.Users) != 2 || len(snap.Events) != 4 {
			t.Errorf("snapshot = %d users, %d events; want 2, 4", len(snap.Users), len(snap.Events))
		}
	})

	t.Run("artifacts", func(t *testing.T) {
		if _, err := s.LoadArtifact(ctx, "churn"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		for _, blob := range []string{"v1", "v2"} {
			if err := s.SaveArtifact(ctx, "churn", []byte(blob)); err != nil {
				t.Fatalf("SaveArtifact failed: %v", err)
			}
		}
		got, err := s.LoadArtifact(ctx, "churn")
		if err != nil || string(got) != "v2" {
			t.Errorf("LoadArtifact = %q, %v; want v2", got, err)
		}
		if s.BreakerState() != "closed" {
			t.Errorf("breaker = %s after not-found reads", s.BreakerState())
		}
	})

	t.Run("unknown event kind rejected", func(t *testing.T) {
		err := s.PutEvents(ctx, []models.Event{{UserID: "u1", Timestamp: refNow}})
		if err == nil {
			t.Error("expected error for event without payload")
		}
	})
}

func TestOpenMongo_Unreachable(t *testing.T) {
	_, err := OpenMongo(context.Background(), MongoOptions{
		URI:      "mongodb://127.0.0.1:1",
		Database: "playmetric_test",
		Timeout:  500 * time.Millisecond,
	}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected connection error")
	}
}

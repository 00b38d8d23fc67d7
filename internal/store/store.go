// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

// Package store is the persistence collaborator for the analytics core.
//
// Two backends implement Store:
//
//   - BadgerStore: embedded key-value store, the default. Holds user profiles,
//     events and the trained churn model artifact.
//   - MongoStore: reads the collections written by the game SDK backend
//     (users, game_events, level_events, ...) and decodes them into the
//     event union. Every round trip runs through a circuit breaker. Model
//     artifacts live in the model_artifacts collection.
//
// Readers return complete in-memory snapshots; the analytics packages never
// perform I/O themselves.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/models"
)

var (
	// ErrNotFound is returned when a user or artifact does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable is returned while the backend is unreachable or its
	// circuit breaker is open.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Backend names.
const (
	BackendBadger = "badger"
	BackendMongo  = "mongo"
)

// Reader fetches snapshots for analysis.
type Reader interface {
	// Snapshot returns every user profile and every event.
	Snapshot(ctx context.Context) (models.Snapshot, error)
	// User returns one profile or ErrNotFound.
	User(ctx context.Context, userID string) (models.UserProfile, error)
	// UserEvents returns the events of one user in timestamp order.
	UserEvents(ctx context.Context, userID string) ([]models.Event, error)
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// Writer ingests records.
type Writer interface {
	PutUsers(ctx context.Context, users []models.UserProfile) error
	PutEvents(ctx context.Context, events []models.Event) error
}

// Store is a complete backend.
type Store interface {
	Reader
	Writer
	LoadArtifact(ctx context.Context, name string) ([]byte, error)
	SaveArtifact(ctx context.Context, name string, data []byte) error
	Backend() string
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend string

	BadgerPath string
	InMemory   bool

	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration
}

// Open creates the configured backend.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(ctx context.Context, opts Options, logger zerolog.Logger) (Store, error) {
	switch opts.Backend {
	case BackendBadger, "":
		return OpenBadger(opts.BadgerPath, opts.InMemory, logger)
	case BackendMongo:
		return OpenMongo(ctx, MongoOptions{
			URI:      opts.MongoURI,
			Database: opts.MongoDatabase,
			Timeout:  opts.MongoTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/metrics"
	"github.com/vishnugarg323/PlayMetric/internal/models"
)

// Key prefixes for BadgerDB storage. User IDs never contain control
// characters, so a NUL byte separates the user from the rest of an event key.
const (
	userKeyPrefix     = "user:"
	eventKeyPrefix    = "event:"
	artifactKeyPrefix = "artifact:"
	eventKeySep       = "\x00"
)

// BadgerStore implements Store on an embedded BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// OpenBadger opens a store at path, or an in-memory store when inMemory is set.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenBadger(path string, inMemory bool, logger zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return NewBadgerStore(db, logger), nil
}

// NewBadgerStore wraps an open database. Close closes db.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBadgerStore(db *badger.DB, logger zerolog.Logger) *BadgerStore {
	return &BadgerStore{
		db:     db,
		logger: logger.With().Str("component", "store").Str("backend", BackendBadger).Logger(),
	}
}

// Backend returns "badger".
func (s *BadgerStore) Backend() string { return BackendBadger }

// Close closes the database.
func (s *BadgerStore) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database is open.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return ErrStoreUnavailable
	}
	return nil
}

func userKey(userID string) []byte {
	return []byte(userKeyPrefix + userID)
}

func eventUserPrefix(userID string) []byte {
	return []byte(eventKeyPrefix + userID + eventKeySep)
}

// eventKey orders a user's events by time. Unknown timestamps sort first.
func eventKey(e *models.Event) []byte {
	var ms int64
	if !e.Timestamp.IsZero() {
		ms = max(e.Timestamp.UnixMilli(), 0)
	}
	return []byte(fmt.Sprintf("%s%s%s%020d:%s", eventKeyPrefix, e.UserID, eventKeySep, ms, uuid.NewString()))
}

// PutUsers upserts profiles keyed by user ID.
func (s *BadgerStore) PutUsers(ctx context.Context, users []models.UserProfile) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery(BackendBadger, "put_users", time.Since(start), err) }()

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for i := range users {
		data, err := json.Marshal(&users[i])
		if err != nil {
			return fmt.Errorf("marshal user %s: %w", users[i].UserID, err)
		}
		if err := wb.Set(userKey(users[i].UserID), data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush users: %w", err)
	}
	return nil
}

// PutEvents appends events. Events are immutable; every call adds new keys.
func (s *BadgerStore) PutEvents(ctx context.Context, events []models.Event) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery(BackendBadger, "put_events", time.Since(start), err) }()

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for i := range events {
		data, err := json.Marshal(events[i])
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if err := wb.Set(eventKey(&events[i]), data); err != nil {
			return fmt.Errorf("set event: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush events: %w", err)
	}
	return nil
}

// User returns one profile.
func (s *BadgerStore) User(ctx context.Context, userID string) (u models.UserProfile, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery(BackendBadger, "user", time.Since(start), err) }()

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &u)
		})
	})
	return u, err
}

// UserEvents returns one user's events in timestamp order.
func (s *BadgerStore) UserEvents(ctx context.Context, userID string) (events []models.Event, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery(BackendBadger, "user_events", time.Since(start), err) }()

	err = s.db.View(func(txn *badger.Txn) error {
		var err error
		events, err = s.scanEvents(txn, eventUserPrefix(userID), events)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	return events, nil
}

// Snapshot reads every profile and event in one read transaction.
func (s *BadgerStore) Snapshot(ctx context.Context) (snap models.Snapshot, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreQuery(BackendBadger, "snapshot", time.Since(start), err) }()

	err = s.db.View(func(txn *badger.Txn) error {
		var err error
		if snap.Users, err = s.scanUsers(ctx, txn); err != nil {
			return err
		}
		snap.Events, err = s.scanEvents(txn, []byte(eventKeyPrefix), nil)
		return err
	})
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	return snap, nil
}

func (s *BadgerStore) scanUsers(ctx context.Context, txn *badger.Txn) ([]models.UserProfile, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	it := txn.NewIterator(opts)
	defer it.Close()

	var users []models.UserProfile
	prefix := []byte(userKeyPrefix)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var u models.UserProfile
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &u)
		}); err != nil {
			s.logger.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("skipping unreadable user")
			continue
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *BadgerStore) scanEvents(txn *badger.Txn, prefix []byte, out []models.Event) ([]models.Event, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var ev models.Event
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &ev)
		}); err != nil {
			s.logger.Warn().Err(err).Msg("skipping undecodable event")
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

// LoadArtifact returns a stored blob or ErrNotFound.
func (s *BadgerStore) LoadArtifact(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(artifactKeyPrefix + name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get artifact: %w", err)
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", name, err)
	}
	return data, nil
}

// SaveArtifact stores a blob under name, replacing any previous one.
func (s *BadgerStore) SaveArtifact(ctx context.Context, name string, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(artifactKeyPrefix+name), data)
	})
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", name, err)
	}
	s.logger.Debug().Str("artifact", name).Int("bytes", len(data)).Msg("artifact saved")
	return nil
}

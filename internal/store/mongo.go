// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/vishnugarg323/PlayMetric/internal/metrics"
	"github.com/vishnugarg323/PlayMetric/internal/models"
)

// Collection names used by the telemetry backend.
const (
	usersCollection     = "users"
	artifactsCollection = "model_artifacts"
)

// eventCollections maps each event kind to the collection it is stored in.
var eventCollections = map[models.EventKind]string{
	models.KindSessionStart:  "game_events",
	models.KindSessionEnd:    "game_events",
	models.KindLevelStart:    "level_events",
	models.KindLevelComplete: "level_events",
	models.KindLevelFail:     "level_events",
	models.KindPurchase:      "economy_events",
	models.KindAdImpression:  "ads_events",
	models.KindMission:       "mission_events",
	models.KindUIInteraction: "ui_interaction_events",
}

// EventCollections lists the distinct event collections in read order.
var EventCollections = []string{
	"game_events",
	"level_events",
	"economy_events",
	"mission_events",
	"ads_events",
	"ui_interaction_events",
}

// userDocument is a profile as the telemetry backend stores it.
type userDocument struct {
	UserID        string          `bson:"_id"`
	DeviceID      string          `bson:"deviceId,omitempty"`
	DeviceModel   string          `bson:"deviceModel,omitempty"`
	OSVersion     string          `bson:"osVersion,omitempty"`
	Platform      string          `bson:"platform,omitempty"`
	AppVersion    string          `bson:"appVersion,omitempty"`
	FirstSeen     models.FlexTime `bson:"firstSeen"`
	LastSeen      models.FlexTime `bson:"lastSeen"`
	TotalEvents   int             `bson:"totalEvents"`
	TotalSessions int             `bson:"totalSessions"`
}

func (d *userDocument) profile() models.UserProfile {
	return models.UserProfile{
		UserID:        d.UserID,
		DeviceID:      d.DeviceID,
		DeviceModel:   d.DeviceModel,
		OSVersion:     d.OSVersion,
		Platform:      d.Platform,
		AppVersion:    d.AppVersion,
		FirstSeen:     d.FirstSeen.Time,
		LastSeen:      d.LastSeen.Time,
		TotalEvents:   d.TotalEvents,
		TotalSessions: d.TotalSessions,
	}
}

func userDocumentFrom(u *models.UserProfile) userDocument {
	return userDocument{
		UserID:        u.UserID,
		DeviceID:      u.DeviceID,
		DeviceModel:   u.DeviceModel,
		OSVersion:     u.OSVersion,
		Platform:      u.Platform,
		AppVersion:    u.AppVersion,
		FirstSeen:     models.FlexTime{Time: u.FirstSeen},
		LastSeen:      models.FlexTime{Time: u.LastSeen},
		TotalEvents:   u.TotalEvents,
		TotalSessions: u.TotalSessions,
	}
}

type artifactDocument struct {
	Name      string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoOptions configures the MongoDB backend.
type MongoOptions struct {
	URI      string
	Database string
	Timeout  time.Duration // per round trip
}

// MongoStore implements Store on the telemetry backend's MongoDB database.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	breaker *breaker
	logger  zerolog.Logger
}

// OpenMongo connects and pings the server.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenMongo(ctx context.Context, opts MongoOptions, logger zerolog.Logger) (*MongoStore, error) {
	if opts.URI == "" || opts.Database == "" {
		return nil, errors.New("mongo uri and database are required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(opts.Timeout).
		SetServerSelectionTimeout(opts.Timeout)

	connectCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := NewMongoStore(client, opts.Database, opts.Timeout, logger)
	s.logger.Info().Str("database", opts.Database).Msg("mongodb store connected")
	return s, nil
}

// NewMongoStore wraps a connected client.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMongoStore(client *mongo.Client, database string, timeout time.Duration, logger zerolog.Logger) *MongoStore {
	log := logger.With().Str("component", "store").Str("backend", BackendMongo).Logger()
	return &MongoStore{
		client:  client,
		db:      client.Database(database),
		timeout: timeout,
		breaker: newBreaker("mongodb", isBenign, log),
		logger:  log,
	}
}

// isBenign reports errors that say nothing about backend health.
func isBenign(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, mongo.ErrNoDocuments) ||
		errors.Is(err, context.Canceled)
}

// Backend returns "mongo".
func (s *MongoStore) Backend() string { return BackendMongo }

// BreakerState reports the circuit breaker state.
func (s *MongoStore) BreakerState() string { return s.breaker.State() }

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) observe(operation string, start time.Time, err error) {
	metrics.RecordStoreQuery(BackendMongo, operation, time.Since(start), err)
}

// Ping checks connectivity through the breaker.
func (s *MongoStore) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.observe("ping", start, err) }()
	_, err = guarded(s.breaker, func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return struct{}{}, s.client.Ping(ctx, readpref.Primary())
	})
	return err
}

// Snapshot reads every user and every decodable event.
func (s *MongoStore) Snapshot(ctx context.Context) (snap models.Snapshot, err error) {
	start := time.Now()
	defer func() { s.observe("snapshot", start, err) }()

	snap.Users, err = s.findUsers(ctx, bson.M{})
	if err != nil {
		return models.Snapshot{}, err
	}
	snap.Events, err = s.findEvents(ctx, bson.M{})
	if err != nil {
		return models.Snapshot{}, err
	}
	return snap, nil
}

// User returns one profile by ID.
func (s *MongoStore) User(ctx context.Context, userID string) (u models.UserProfile, err error) {
	start := time.Now()
	defer func() { s.observe("user", start, err) }()

	users, err := s.findUsers(ctx, bson.M{"_id": userID})
	if err != nil {
		return models.UserProfile{}, err
	}
	if len(users) == 0 {
		return models.UserProfile{}, ErrNotFound
	}
	return users[0], nil
}

// UserEvents returns one user's events across all collections in timestamp
// order.
func (s *MongoStore) UserEvents(ctx context.Context, userID string) (events []models.Event, err error) {
	start := time.Now()
	defer func() { s.observe("user_events", start, err) }()

	events, err = s.findEvents(ctx, bson.M{"globalParams.userId": userID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

func (s *MongoStore) findUsers(ctx context.Context, filter bson.M) ([]models.UserProfile, error) {
	docs, err := guarded(s.breaker, func() ([]userDocument, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		cur, err := s.db.Collection(usersCollection).Find(ctx, filter)
		if err != nil {
			return nil, err
		}
		var docs []userDocument
		if err := cur.All(ctx, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	users := make([]models.UserProfile, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].profile())
	}
	return users, nil
}

func (s *MongoStore) findEvents(ctx context.Context, filter bson.M) ([]models.Event, error) {
	var events []models.Event
	for _, name := range EventCollections {
		records, err := guarded(s.breaker, func() ([]models.EventRecord, error) {
			ctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			cur, err := s.db.Collection(name).Find(ctx, filter)
			if err != nil {
				return nil, err
			}
			var records []models.EventRecord
			if err := cur.All(ctx, &records); err != nil {
				return nil, err
			}
			return records, nil
		})
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", name, err)
		}

		skipped := 0
		for i := range records {
			ev, err := records[i].Decode()
			if err != nil {
				skipped++
				continue
			}
			events = append(events, ev)
		}
		if skipped > 0 {
			s.logger.Warn().Str("collection", name).Int("skipped", skipped).Msg("skipping events with unknown type")
		}
	}
	return events, nil
}

// PutUsers upserts profiles by ID.
func (s *MongoStore) PutUsers(ctx context.Context, users []models.UserProfile) (err error) {
	start := time.Now()
	defer func() { s.observe("put_users", start, err) }()

	if len(users) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(users))
	for i := range users {
		doc := userDocumentFrom(&users[i])
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.UserID}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	_, err = guarded(s.breaker, func() (*mongo.BulkWriteResult, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.db.Collection(usersCollection).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	})
	if err != nil {
		return fmt.Errorf("upsert users: %w", err)
	}
	return nil
}

// PutEvents inserts events into the collection of their kind.
func (s *MongoStore) PutEvents(ctx context.Context, events []models.Event) (err error) {
	start := time.Now()
	defer func() { s.observe("put_events", start, err) }()

	byCollection := make(map[string][]interface{})
	for i := range events {
		name, ok := eventCollections[events[i].Kind()]
		if !ok {
			return fmt.Errorf("%w: %q", models.ErrUnknownEventType, events[i].Kind())
		}
		byCollection[name] = append(byCollection[name], models.EncodeEvent(events[i]))
	}

	for _, name := range EventCollections {
		docs := byCollection[name]
		if len(docs) == 0 {
			continue
		}
		_, err := guarded(s.breaker, func() (*mongo.InsertManyResult, error) {
			ctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			return s.db.Collection(name).InsertMany(ctx, docs)
		})
		if err != nil {
			return fmt.Errorf("insert %s: %w", name, err)
		}
	}
	return nil
}

// LoadArtifact returns a stored blob or ErrNotFound.
func (s *MongoStore) LoadArtifact(ctx context.Context, name string) ([]byte, error) {
	doc, err := guarded(s.breaker, func() (artifactDocument, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		var doc artifactDocument
		err := s.db.Collection(artifactsCollection).FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return doc, ErrNotFound
		}
		return doc, err
	})
	if err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", name, err)
	}
	return doc.Data, nil
}

// SaveArtifact stores a blob under name, replacing any previous one.
func (s *MongoStore) SaveArtifact(ctx context.Context, name string, data []byte) error {
	doc := artifactDocument{Name: name, Data: data, UpdatedAt: time.Now().UTC()}
	_, err := guarded(s.breaker, func() (*mongo.UpdateResult, error) {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.db.Collection(artifactsCollection).ReplaceOne(ctx,
			bson.M{"_id": name}, doc, options.Replace().SetUpsert(true))
	})
	if err != nil {
		return fmt.Errorf("save artifact %s: %w", name, err)
	}
	return nil
}

// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

// Package service wires the analytics components to a store. Each call
// fetches a snapshot, reads the clock once and runs the pure components
// against that reference time.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/analytics"
	"github.com/vishnugarg323/PlayMetric/internal/churn"
	"github.com/vishnugarg323/PlayMetric/internal/insights"
	"github.com/vishnugarg323/PlayMetric/internal/levels"
	"github.com/vishnugarg323/PlayMetric/internal/metrics"
	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/recommend"
	"github.com/vishnugarg323/PlayMetric/internal/store"
)

const recentEventsLimit = 20

// Source is the read side of a store.
type Source interface {
	store.Reader
	Backend() string
}

// Config holds request-independent limits.
type Config struct {
	DefaultChurnLimit        int
	MaxChurnLimit            int
	RecommendationChurnUsers int
	LevelCacheTTL            time.Duration
	Version                  string
}

// DefaultConfig returns the limits used by the HTTP API.
func DefaultConfig() Config {
	return Config{
		DefaultChurnLimit:        100,
		MaxChurnLimit:            10000,
		RecommendationChurnUsers: 50,
		LevelCacheTTL:            levels.DefaultCacheTTL,
		Version:                  "dev",
	}
}

// Validate checks the limits.
func (c Config) Validate() error {
	if c.DefaultChurnLimit < 1 {
		return fmt.Errorf("default churn limit must be positive, got %d", c.DefaultChurnLimit)
	}
	if c.MaxChurnLimit < c.DefaultChurnLimit {
		return fmt.Errorf("max churn limit %d is below default %d", c.MaxChurnLimit, c.DefaultChurnLimit)
	}
	if c.RecommendationChurnUsers < 0 {
		return fmt.Errorf("recommendation churn users must not be negative, got %d", c.RecommendationChurnUsers)
	}
	if c.LevelCacheTTL < 0 {
		return fmt.Errorf("level cache ttl must not be negative, got %s", c.LevelCacheTTL)
	}
	return nil
}

// Service answers analytics queries.
type Service struct {
	cfg       Config
	source    Source
	model     *churn.Model
	levels    *levels.Analyzer
	insights  *insights.Synthesizer
	engine    *recommend.Engine
	now       func() time.Time
	startedAt time.Time
	logger    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a service over source using model for churn scoring.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, source Source, model *churn.Model, logger zerolog.Logger, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service config: %w", err)
	}
	if source == nil || model == nil {
		return nil, errors.New("service requires a source and a churn model")
	}
	s := &Service{
		cfg:      cfg,
		source:   source,
		model:    model,
		levels:   levels.NewAnalyzer(logger, levels.WithCacheTTL(cfg.LevelCacheTTL)),
		insights: insights.NewSynthesizer(logger),
		engine:   recommend.NewEngine(logger),
		now:      time.Now,
		logger:   logger.With().Str("component", "service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	return s, nil
}

// Config returns the service limits.
func (s *Service) Config() Config { return s.cfg }

// Engine exposes the recommendation engine for rule registration.
func (s *Service) Engine() *recommend.Engine { return s.engine }

// snapshot loads the data set and fixes the reference time for one call.
func (s *Service) snapshot(ctx context.Context) (models.Snapshot, time.Time, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return models.Snapshot{}, time.Time{}, fmt.Errorf("load snapshot: %w", err)
	}
	metrics.RecordSnapshot(len(snap.Users), len(snap.Events))
	return snap, s.now().UTC(), nil
}

func (s *Service) timed(component string, start time.Time) {
	elapsed := time.Since(start)
	metrics.RecordAnalysis(component, elapsed, nil)
	s.logger.Debug().Str("analysis", component).Dur("duration", elapsed).Msg("analysis complete")
}

// Overview computes headline metrics.
func (s *Service) Overview(ctx context.Context) (models.Overview, error) {
	snap, now, err := s.snapshot(ctx)
	if err != nil {
		return models.Overview{}, err
	}
	defer s.timed("overview", time.Now())
	return analytics.Overview(snap, now), nil
}

// Churn scores every user and returns at most limit predictions. A
// non-positive limit selects the configured default.
func (s *Service) Churn(ctx context.Context, limit int) (models.ChurnAnalysis, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultChurnLimit
	}
	limit = min(limit, s.cfg.MaxChurnLimit)

	snap, now, err := s.snapshot(ctx)
	if err != nil {
		return models.ChurnAnalysis{}, err
	}
	defer s.timed("churn", time.Now())
	return s.model.Analyze(snap, limit, now), nil
}

// Levels runs the level difficulty analysis.
func (s *Service) Levels(ctx context.Context) (models.LevelAnalysis, error) {
	snap, now, err := s.snapshot(ctx)
	if err != nil {
		return models.LevelAnalysis{}, err
	}
	defer s.timed("levels", time.Now())
	return s.levels.Analyze(snap.Events, now), nil
}

// Segments summarizes tags and lifecycle stages.
func (s *Service) Segments(ctx context.Context) (models.SegmentReport, error) {
	snap, now, err := s.snapshot(ctx)
	if err != nil {
		return models.SegmentReport{}, err
	}
	defer s.timed("segments", time.Now())
	return analytics.SegmentReport(snap, now), nil
}

// Recommendations runs every component and feeds the rule engine. Churn
// scoring is limited to the first RecommendationChurnUsers users by ID.
func (s *Service) Recommendations(ctx context.Context) (models.RecommendationReport, error) {
	snap, now, err := s.snapshot(ctx)
	if err != nil {
		return models.RecommendationReport{}, err
	}

	in := recommend.Input{
		Overview: analytics.Overview(snap, now),
		Levels:   s.levels.Analyze(snap.Events, now),
		Churn:    s.model.Analyze(churnSample(snap, s.cfg.RecommendationChurnUsers), 0, now).Predictions,
		Segments: analytics.SegmentReport(snap, now),
	}
	return s.engine.Generate(in, now), nil
}

// churnSample keeps the first n users by ID with all events.
func churnSample(snap models.Snapshot, n int) models.Snapshot {
	users := append([]models.UserProfile(nil), snap.Users...)
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	if len(users) > n {
		users = users[:n]
	}
	return models.Snapshot{Users: users, Events: snap.Events}
}

// Insights synthesizes the strategic report over all users.
func (s *Service) Insights(ctx context.Context) (models.InsightBundle, error) {
	snap, now, err := s.snapshot(ctx)
	if err != nil {
		return models.InsightBundle{}, err
	}
	preds := s.model.Analyze(snap, 0, now).Predictions
	return s.insights.Synthesize(snap, preds, now), nil
}

// UserAnalysis drills into one player. Unknown users yield store.ErrNotFound.
func (s *Service) UserAnalysis(ctx context.Context, userID string) (models.UserAnalysis, error) {
	u, err := s.source.User(ctx, userID)
	if err != nil {
		return models.UserAnalysis{}, fmt.Errorf("load user %s: %w", userID, err)
	}
	events, err := s.source.UserEvents(ctx, userID)
	if err != nil {
		return models.UserAnalysis{}, fmt.Errorf("load events for %s: %w", userID, err)
	}
	defer s.timed("user", time.Now())
	return BuildUserAnalysis(u, events, s.model, s.now().UTC()), nil
}

// BuildUserAnalysis assembles the drill-down view from one user's events.
func BuildUserAnalysis(u models.UserProfile, events []models.Event, model *churn.Model, now time.Time) models.UserAnalysis {
	snap := models.Snapshot{Users: []models.UserProfile{u}, Events: events}
	spend := analytics.UserSpend(events)[u.UserID]

	a := models.UserAnalysis{
		Profile:         u,
		Segment:         analytics.ClassifyUser(u, spend, now),
		ChurnPrediction: model.Predict(u, events, now),
		EventCounts:     snap.EventCounts(),
		Spending:        models.UserSpending{TotalSpent: spend},
	}
	for _, e := range events {
		switch p := e.Payload.(type) {
		case models.LevelComplete:
			a.LevelProgress.Attempts++
			a.LevelProgress.Completions++
			a.LevelProgress.MaxLevelReached = max(a.LevelProgress.MaxLevelReached, p.LevelNumber)
		case models.LevelFail:
			a.LevelProgress.Attempts++
		case models.Purchase:
			if p.RealMoneyValue > 0 {
				a.Spending.Transactions++
			}
		}
	}

	recent := append([]models.Event(nil), events...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].TimeOr(now).After(recent[j].TimeOr(now))
	})
	if len(recent) > recentEventsLimit {
		recent = recent[:recentEventsLimit]
	}
	a.RecentEvents = recent
	return a
}

// DataStats counts stored records.
func (s *Service) DataStats(ctx context.Context) (models.DataStats, error) {
	snap, _, err := s.snapshot(ctx)
	if err != nil {
		return models.DataStats{}, err
	}
	return analytics.DataStats(snap), nil
}

// Health reports store connectivity and the churn model mode. It never fails.
func (s *Service) Health(ctx context.Context) models.HealthStatus {
	now := s.now().UTC()
	h := models.HealthStatus{
		Status:         "healthy",
		Version:        s.cfg.Version,
		StoreBackend:   s.source.Backend(),
		StoreConnected: true,
		ChurnModelMode: s.model.Mode(),
		UptimeSeconds:  now.Sub(s.startedAt).Seconds(),
		Timestamp:      now,
	}
	if err := s.source.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("store ping failed")
		h.Status = "degraded"
		h.StoreConnected = false
	}
	if t := s.model.TrainedAt(); !t.IsZero() {
		h.ChurnModelTrainedAt = &t
	}
	return h
}

// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/churn"
	"github.com/vishnugarg323/PlayMetric/internal/models"
)

// ChurnModel is the part of *churn.Model the bootstrap drives.
type ChurnModel interface {
	LoadFrom(ctx context.Context, store churn.ArtifactStore) bool
	TrainFromSnapshot(snap models.Snapshot, now time.Time) (float64, error)
	SaveTo(ctx context.Context, store churn.ArtifactStore) error
	Mode() models.ChurnMode
}

// ChurnStore provides artifacts and the training snapshot.
type ChurnStore interface {
	churn.ArtifactStore
	Snapshot(ctx context.Context) (models.Snapshot, error)
}

// ChurnServiceConfig controls the bootstrap.
type ChurnServiceConfig struct {
	// TrainOnStartup trains once when no stored artifact could be loaded.
	TrainOnStartup bool

	// After delays the bootstrap until the channel is closed. Nil means
	// start immediately.
	After <-chan struct{}

	// Now is the training reference clock. Defaults to time.Now.
	Now func() time.Time
}

// ChurnService restores the churn model from its stored artifact and
// optionally trains it once. There is no periodic retraining.
type ChurnService struct {
	model  ChurnModel
	store  ChurnStore
	config ChurnServiceConfig
	logger zerolog.Logger
	done   bool
}

// NewChurnService creates the bootstrap service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewChurnService(model ChurnModel, store ChurnStore, cfg ChurnServiceConfig, logger zerolog.Logger) *ChurnService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ChurnService{
		model:  model,
		store:  store,
		config: cfg,
		logger: logger.With().Str("service", "churn-bootstrap").Logger(),
	}
}

// Serve implements suture.Service. Training problems caused by the data
// (too few samples, one class) are logged and leave the model rule-based.
// Store failures are returned so suture retries.
func (s *ChurnService) Serve(ctx context.Context) error {
	if s.config.After != nil {
		select {
		case <-s.config.After:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if !s.done {
		if err := s.bootstrap(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		s.done = true
	}

	<-ctx.Done()
	return ctx.Err()
}

func (s *ChurnService) bootstrap(ctx context.Context) error {
	if s.model.LoadFrom(ctx, s.store) {
		return nil
	}
	if !s.config.TrainOnStartup {
		s.logger.Info().Str("mode", string(s.model.Mode())).Msg("no stored churn model, using rules")
		return nil
	}

	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load training snapshot: %w", err)
	}

	start := time.Now()
	accuracy, err := s.model.TrainFromSnapshot(snap, s.config.Now().UTC())
	switch {
	case errors.Is(err, churn.ErrInsufficientData), errors.Is(err, churn.ErrSingleClass):
		s.logger.Warn().Err(err).Int("users", len(snap.Users)).Msg("churn model not trained, using rules")
		return nil
	case err != nil:
		return fmt.Errorf("train churn model: %w", err)
	}
	s.logger.Info().
		Float64("accuracy", accuracy).
		Int("users", len(snap.Users)).
		Dur("duration", time.Since(start)).
		Msg("churn model trained")

	if err := s.model.SaveTo(ctx, s.store); err != nil {
		s.logger.Warn().Err(err).Msg("churn model trained but not persisted")
	}
	return nil
}

// String implements fmt.Stringer for suture's logs.
func (s *ChurnService) String() string {
	return "churn-bootstrap"
}

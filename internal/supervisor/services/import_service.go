// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/store"
)

// FileImporter loads a JSON batch file into the store.
type FileImporter interface {
	ImportFile(ctx context.Context, path string) (*store.ImportStats, error)
}

// ImportService imports one file at startup and then idles. Ready is
// closed once the import has finished, or immediately when path is empty.
type ImportService struct {
	importer FileImporter
	path     string
	logger   zerolog.Logger

	once  sync.Once
	ready chan struct{}
	done  bool
}

// NewImportService creates the service. An empty path disables the import.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewImportService(importer FileImporter, path string, logger zerolog.Logger) *ImportService {
	return &ImportService{
		importer: importer,
		path:     path,
		logger:   logger.With().Str("service", "import").Logger(),
		ready:    make(chan struct{}),
	}
}

// Ready is closed when startup data is in place.
func (s *ImportService) Ready() <-chan struct{} {
	return s.ready
}

// Serve implements suture.Service. A failed import is returned so suture
// retries it with backoff; a finished import is not repeated on restart.
func (s *ImportService) Serve(ctx context.Context) error {
	if s.path != "" && !s.done {
		s.logger.Info().Str("path", s.path).Msg("starting startup import")
		stats, err := s.importer.ImportFile(ctx, s.path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("startup import failed: %w", err)
		}
		s.done = true
		s.logger.Info().
			Int("users", stats.Users).
			Int("events", stats.Events).
			Int("skipped_users", stats.SkippedUsers).
			Int("skipped_events", stats.SkippedEvents).
			Msg("startup import finished")
	}
	s.once.Do(func() { close(s.ready) })

	<-ctx.Done()
	return ctx.Err()
}

// String implements fmt.Stringer for suture's logs.
func (s *ImportService) String() string {
	return "import"
}

// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/validation"
)

// importBatchSize bounds a single write.
const importBatchSize = 1000

// Batch is the JSON import document. Events use the wire form, so exports of
// the telemetry collections can be imported as they are.
type Batch struct {
	Users  []models.UserProfile `json:"users"`
	Events []models.EventRecord `json:"events"`
}

// ImportStats summarizes an import.
type ImportStats struct {
	Users         int `json:"users"`
	Events        int `json:"events"`
	SkippedUsers  int `json:"skipped_users"`
	SkippedEvents int `json:"skipped_events"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Duration returns how long the import took.
func (s *ImportStats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Importer loads Batch documents into a Writer. Records that fail validation
// or carry an unknown event type are skipped and counted.
type Importer struct {
	w      Writer
	logger zerolog.Logger
}

// NewImporter creates an importer writing to w.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewImporter(w Writer, logger zerolog.Logger) *Importer {
	return &Importer{w: w, logger: logger.With().Str("component", "import").Logger()}
}

// ImportFile imports the document at path.
func (i *Importer) ImportFile(ctx context.Context, path string) (*ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			i.logger.Warn().Err(closeErr).Msg("error closing import file")
		}
	}()
	return i.Import(ctx, f)
}

// Import decodes one Batch from r and writes its valid records.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*ImportStats, error) {
	stats := &ImportStats{StartTime: time.Now()}

	var batch Batch
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return stats, fmt.Errorf("decode import document: %w", err)
	}

	users := make([]models.UserProfile, 0, len(batch.Users))
	for idx := range batch.Users {
		if verr := validation.ValidateStruct(&batch.Users[idx]); verr != nil {
			i.logger.Debug().Int("index", idx).Str("error", verr.Error()).Msg("skipping invalid user")
			stats.SkippedUsers++
			continue
		}
		users = append(users, batch.Users[idx])
	}

	events := make([]models.Event, 0, len(batch.Events))
	for idx := range batch.Events {
		rec := &batch.Events[idx]
		if verr := validation.ValidateStruct(rec); verr != nil {
			i.logger.Debug().Int("index", idx).Str("error", verr.Error()).Msg("skipping invalid event")
			stats.SkippedEvents++
			continue
		}
		ev, err := rec.Decode()
		if err != nil {
			stats.SkippedEvents++
			continue
		}
		events = append(events, ev)
	}

	for start := 0; start < len(users); start += importBatchSize {
		end := min(start+importBatchSize, len(users))
		if err := i.w.PutUsers(ctx, users[start:end]); err != nil {
			return stats, fmt.Errorf("write users: %w", err)
		}
		stats.Users = end
	}
	for start := 0; start < len(events); start += importBatchSize {
		end := min(start+importBatchSize, len(events))
		if err := i.w.PutEvents(ctx, events[start:end]); err != nil {
			return stats, fmt.Errorf("write events: %w", err)
		}
		stats.Events = end
	}
	stats.EndTime = time.Now()

	i.logger.Info().
		Int("users", stats.Users).
		Int("events", stats.Events).
		Int("skipped_users", stats.SkippedUsers).
		Int("skipped_events", stats.SkippedEvents).
		Dur("duration", stats.Duration()).
		Msg("import completed")
	return stats, nil
}

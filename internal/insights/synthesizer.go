// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

// Package insights derives higher-level findings from a snapshot: behavior
// patterns, revenue opportunities, level balance, engagement trend,
// anomalies, k-means player segments, retention drivers, monetization
// patterns, content exhaustion, business risks and an executive summary.
//
// Each section is a pure function of the snapshot and a reference time.
// Sections that need more data than is available report an
// insufficient_data status instead of failing.
package insights

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/vishnugarg323/PlayMetric/internal/metrics"
	"github.com/vishnugarg323/PlayMetric/internal/models"
)

// Synthesize computes every insight section. Predictions are the churn
// predictions for the snapshot's users and feed the risk assessment.
func Synthesize(snap models.Snapshot, predictions []models.ChurnPrediction, now time.Time) models.InsightBundle {
	revenue := Revenue(snap)
	risks := Risks(snap, predictions)
	opportunities := Opportunities(snap, now)

	return models.InsightBundle{
		PlayerBehavior:         Behavior(snap, now),
		RevenueOptimization:    revenue,
		LevelBalancing:         Balance(snap.Events),
		EngagementPredictions:  Trend(snap.Events, now),
		AnomalyDetection:       Anomalies(snap),
		PlayerSegmentsML:       Segment(snap, now),
		RetentionDrivers:       RetentionDrivers(snap.Users, now),
		MonetizationPatterns:   Monetization(snap),
		ContentRecommendations: Content(snap),
		RiskAssessment:         risks,
		OpportunityScores:      opportunities,
		ExecutiveSummary:       Summarize(risks, opportunities, revenue),
		GeneratedAt:            now,
	}
}

// Synthesizer wraps Synthesize with logging and metrics.
type Synthesizer struct {
	logger zerolog.Logger
}

// NewSynthesizer creates a Synthesizer.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewSynthesizer(logger zerolog.Logger) *Synthesizer {
	return &Synthesizer{logger: logger.With().Str("component", "insights").Logger()}
}

// Synthesize runs every section and records the duration.
func (s *Synthesizer) Synthesize(snap models.Snapshot, predictions []models.ChurnPrediction, now time.Time) models.InsightBundle {
	start := time.Now()
	bundle := Synthesize(snap, predictions, now)
	elapsed := time.Since(start)
	metrics.RecordAnalysis("insights", elapsed, nil)

	s.logger.Debug().
		Int("users", len(snap.Users)).
		Int("events", len(snap.Events)).
		Str("health", string(bundle.RiskAssessment.OverallHealth)).
		Int("anomalies", bundle.AnomalyDetection.AnomaliesDetected).
		Dur("duration", elapsed).
		Msg("insights generated")
	return bundle
}

// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

/*
Package models defines the data structures shared by every PlayMetric package.

Input records:

  - UserProfile: per-player profile maintained by the ingestion side
  - Event: one telemetry event; Payload is a closed set of per-kind structs
    (SessionStart, SessionEnd, LevelStart, LevelComplete, LevelFail, Purchase,
    AdImpression, Mission, UIInteraction)
  - EventRecord: the flat wire/storage shape used by the JSON import format and
    the Mongo collections; Decode turns it into an Event
  - Snapshot: the batch of users and events handed to the analysis components

Derived results (recomputed per call, never persisted by the analysis code):

  - Overview, RetentionRates, SegmentReport
  - LevelAnalysis, LevelStats
  - ChurnPrediction, ChurnAnalysis
  - InsightBundle
  - RecommendationReport

Service status:

  - HealthStatus
*/
package models

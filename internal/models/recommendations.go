// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package models

import "time"

// Priority is the recommendation bucket.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
	PriorityPositive Priority = "positive"
)

// Recommendation is one actionable finding.
type Recommendation struct {
	Category            string             `json:"category"`
	Priority            Priority           `json:"priority"`
	Issue               string             `json:"issue"`
	Impact              string             `json:"impact,omitempty"`
	Actions             []string           `json:"recommendations"`
	ExpectedImprovement string             `json:"expected_improvement,omitempty"`
	PotentialImpact     string             `json:"potential_impact,omitempty"`
	ActionRequired      string             `json:"action_required,omitempty"`
	PlayersAffected     int                `json:"players_affected,omitempty"`
	Metrics             map[string]float64 `json:"metrics,omitempty"`
	PriorityScore       int                `json:"priority_score"`
}

// PositiveInsight records something that is working well.
type PositiveInsight struct {
	Achievement    string `json:"achievement"`
	Insight        string `json:"insight"`
	Recommendation string `json:"recommendation"`
	PriorityScore  int    `json:"priority_score"`
}

type RecommendationSummary struct {
	Total         int `json:"total_recommendations"`
	CriticalCount int `json:"critical_count"`
	HighCount     int `json:"high_priority_count"`
	MediumCount   int `json:"medium_priority_count"`
	LowCount      int `json:"low_priority_count"`
	PositiveCount int `json:"positive_count"`
}

// RecommendationReport is the bucketed output of the recommendation engine.
// Each bucket is sorted by PriorityScore, highest first.
type RecommendationReport struct {
	Critical         []Recommendation      `json:"critical"`
	HighPriority     []Recommendation      `json:"high_priority"`
	MediumPriority   []Recommendation      `json:"medium_priority"`
	LowPriority      []Recommendation      `json:"low_priority"`
	PositiveInsights []PositiveInsight     `json:"positive_insights"`
	Summary          RecommendationSummary `json:"summary"`
	GeneratedAt      time.Time             `json:"generated_at"`
}

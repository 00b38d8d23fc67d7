// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package models

import "time"

// Overview is the product-metrics summary of one snapshot.
type Overview struct {
	UserMetrics          UserMetrics              `json:"user_metrics"`
	SessionMetrics       SessionMetrics           `json:"session_metrics"`
	LevelMetrics         LevelSummary             `json:"level_metrics"`
	RevenueMetrics       RevenueMetrics           `json:"revenue_metrics"`
	PlatformDistribution map[string]PlatformShare `json:"platform_distribution"`
	RetentionRates       RetentionRates           `json:"retention_rates"`
	TotalEventsTracked   int                      `json:"total_events_tracked"`
	GeneratedAt          time.Time                `json:"generated_at"`
}

type UserMetrics struct {
	TotalUsers         int     `json:"total_users"`
	DAU                int     `json:"dau"` // last seen within 1 day
	WAU                int     `json:"wau"` // within 7 days
	MAU                int     `json:"mau"` // within 30 days
	NewUsersToday      int     `json:"new_users_today"`
	NewUsersWeek       int     `json:"new_users_week"`
	AvgSessionsPerUser float64 `json:"avg_sessions_per_user"`
	AvgEventsPerUser   float64 `json:"avg_events_per_user"`
	DAUMAURatio        float64 `json:"dau_mau_ratio"`
}

type SessionMetrics struct {
	TotalSessions                int     `json:"total_sessions"` // distinct session IDs
	AvgSessionDurationMinutes    float64 `json:"avg_session_duration_minutes"`
	MedianSessionDurationMinutes float64 `json:"median_session_duration_minutes"`
	LongestSessionMinutes        float64 `json:"longest_session_minutes"`
	TotalPlaytimeHours           float64 `json:"total_playtime_hours"`
}

type LevelSummary struct {
	TotalAttempts    int              `json:"total_attempts"` // complete + fail events
	TotalCompletions int              `json:"total_completions"`
	CompletionRate   float64          `json:"completion_rate"` // 0..1
	MaxLevelReached  int              `json:"max_level_reached"`
	UniqueLevels     int              `json:"unique_levels"`
	MostPlayedLevels []LevelPlayCount `json:"most_played_levels"`
}

type LevelPlayCount struct {
	LevelNumber int `json:"level_number"`
	Plays       int `json:"plays"`
}

type RevenueMetrics struct {
	TotalRevenue         float64                  `json:"total_revenue"`
	TotalTransactions    int                      `json:"total_transactions"` // purchases with positive value
	PayingUsers          int                      `json:"paying_users"`
	AvgTransactionValue  float64                  `json:"avg_transaction_value"`
	RevenuePerPayingUser float64                  `json:"revenue_per_paying_user"`
	VirtualCurrency      map[string]CurrencyStats `json:"virtual_currency"`
}

type CurrencyStats struct {
	Transactions int     `json:"transactions"`
	TotalAmount  float64 `json:"total_amount"`
}

type PlatformShare struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"` // 0..100
}

// RetentionRates are percentages (0..100) over the cohort of users with
// at least 30 days of tenure.
type RetentionRates struct {
	Day1       float64 `json:"day_1_retention"`
	Day7       float64 `json:"day_7_retention"`
	Day30      float64 `json:"day_30_retention"`
	CohortSize int     `json:"cohort_size"`
}

// SegmentTag is an additive label; a user may carry several.
type SegmentTag string

const (
	TagWhale SegmentTag = "whale"
	TagNew   SegmentTag = "new"
)

// LifecycleStage is mutually exclusive; every user has exactly one.
type LifecycleStage string

const (
	StageDormant      LifecycleStage = "dormant"
	StageAtRisk       LifecycleStage = "at_risk"
	StageEngaged      LifecycleStage = "engaged"
	StageCasual       LifecycleStage = "casual"
	StageUnclassified LifecycleStage = "unclassified" // no sessions and recently seen
)

// UserSegment is the classification of a single user.
type UserSegment struct {
	UserID string         `json:"user_id"`
	Tags   []SegmentTag   `json:"tags"`
	Stage  LifecycleStage `json:"stage"`
}

// HasTag reports whether the segment carries tag.
func (s UserSegment) HasTag(tag SegmentTag) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type SegmentCount struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"` // 0..100
}

// SegmentReport aggregates tags and stages separately; tag percentages do
// not sum to 100.
type SegmentReport struct {
	TotalUsers int                             `json:"total_users"`
	Tags       map[SegmentTag]SegmentCount     `json:"tags"`
	Stages     map[LifecycleStage]SegmentCount `json:"stages"`
}

// DataStats counts stored records.
type DataStats struct {
	TotalUsers  int               `json:"total_users"`
	TotalEvents int               `json:"total_events"`
	EventCounts map[EventKind]int `json:"event_counts"`
}

// UserAnalysis is the drill-down view of one player.
type UserAnalysis struct {
	Profile         UserProfile       `json:"profile"`
	Segment         UserSegment       `json:"segment"`
	ChurnPrediction ChurnPrediction   `json:"churn_prediction"`
	LevelProgress   UserLevelProgress `json:"level_progress"`
	Spending        UserSpending      `json:"spending"`
	EventCounts     map[EventKind]int `json:"event_counts"`
	RecentEvents    []Event           `json:"recent_events"`
}

type UserLevelProgress struct {
	Attempts        int `json:"attempts"`
	Completions     int `json:"completions"`
	MaxLevelReached int `json:"max_level_reached"`
}

type UserSpending struct {
	TotalSpent   float64 `json:"total_spent"`
	Transactions int     `json:"transactions"`
}

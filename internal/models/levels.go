// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package models

import "time"

// LevelStats is the per-level diagnostic built from one snapshot.
type LevelStats struct {
	LevelID               string            `json:"level_id"`
	LevelNumber           int               `json:"level_number"`
	UniquePlayers         int               `json:"unique_players"`
	PlayersCompleted      int               `json:"players_completed"`
	TotalAttempts         int               `json:"total_attempts"`
	Completions           int               `json:"completions"`
	Failures              int               `json:"failures"`
	CompletionRate        float64           `json:"completion_rate"` // distinct completers / unique players
	AvgAttemptsToComplete float64           `json:"avg_attempts_to_complete"`
	AvgDurationSeconds    float64           `json:"avg_duration_seconds"`
	MedianDurationSeconds float64           `json:"median_duration_seconds"`
	AvgScore              float64           `json:"avg_score"`
	AvgStars              float64           `json:"avg_stars"`
	PerfectCompletionRate float64           `json:"perfect_completion_rate"`
	DifficultyScore       float64           `json:"difficulty_score"` // 0..100
	TopFailReasons        []FailReasonCount `json:"top_fail_reasons"`
}

type FailReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

type DropOffSeverity string

const (
	DropOffCritical DropOffSeverity = "critical"
	DropOffHigh     DropOffSeverity = "high"
)

type DropOffLevel struct {
	LevelID         string          `json:"level_id"`
	LevelNumber     int             `json:"level_number"`
	CompletionRate  float64         `json:"completion_rate"`
	UniquePlayers   int             `json:"unique_players"`
	PlayersStuck    int             `json:"players_stuck"`
	DifficultyScore float64         `json:"difficulty_score"`
	Severity        DropOffSeverity `json:"severity"`
}

type BottleneckLevel struct {
	LevelID        string  `json:"level_id"`
	LevelNumber    int     `json:"level_number"`
	TotalAttempts  int     `json:"total_attempts"`
	CompletionRate float64 `json:"completion_rate"`
	Impact         float64 `json:"impact"` // attempts * (1 - completion_rate)
}

type RankedLevel struct {
	LevelID         string  `json:"level_id"`
	LevelNumber     int     `json:"level_number"`
	DifficultyScore float64 `json:"difficulty_score"`
	CompletionRate  float64 `json:"completion_rate"`
}

type FunnelStep struct {
	LevelNumber   int     `json:"level_number"`
	Players       int     `json:"players"`
	RetentionRate float64 `json:"retention_rate"` // relative to level 1
	DropOffToNext int     `json:"drop_off_to_next"`
	DropOffRate   float64 `json:"drop_off_rate"`
}

type ProgressionFunnel struct {
	Steps          []FunnelStep `json:"funnel"`
	BiggestDropOff *FunnelStep  `json:"biggest_drop_off,omitempty"`
}

type LevelTimeStats struct {
	AvgSeconds    float64 `json:"avg_seconds"`
	MedianSeconds float64 `json:"median_seconds"`
	MinSeconds    float64 `json:"min_seconds"`
	MaxSeconds    float64 `json:"max_seconds"`
	StdDevSeconds float64 `json:"std_dev_seconds"`
	TotalSeconds  float64 `json:"total_seconds"`
}

type TimeOutlier struct {
	LevelID            string  `json:"level_id"`
	AvgDurationSeconds float64 `json:"avg_duration_seconds"`
}

type TimeAnalysis struct {
	PerLevel       map[string]LevelTimeStats `json:"per_level"`
	MeanSeconds    float64                   `json:"mean_seconds"`
	StdDevSeconds  float64                   `json:"std_dev_seconds"`
	UnusuallyLong  []TimeOutlier             `json:"unusually_long"`
	UnusuallyShort []TimeOutlier             `json:"unusually_short"`
}

// LevelAnalysis is the full output of the level difficulty analyzer.
type LevelAnalysis struct {
	TotalLevels       int                   `json:"total_levels"`
	LevelStats        map[string]LevelStats `json:"level_stats"`
	DifficultyScores  map[string]float64    `json:"difficulty_scores"`
	DropOffLevels     []DropOffLevel        `json:"drop_off_levels"`
	BottleneckLevels  []BottleneckLevel     `json:"bottleneck_levels"`
	HardestLevels     []RankedLevel         `json:"hardest_levels"`
	EasiestLevels     []RankedLevel         `json:"easiest_levels"`
	ProgressionFunnel ProgressionFunnel     `json:"level_progression_funnel"`
	TimeAnalysis      TimeAnalysis          `json:"time_analysis"`
	GeneratedAt       time.Time             `json:"generated_at"`
}

// EmptyLevelAnalysis returns the zero-valued analysis with non-nil collections.
func EmptyLevelAnalysis(now time.Time) LevelAnalysis {
	return LevelAnalysis{
		LevelStats:        map[string]LevelStats{},
		DifficultyScores:  map[string]float64{},
		DropOffLevels:     []DropOffLevel{},
		BottleneckLevels:  []BottleneckLevel{},
		HardestLevels:     []RankedLevel{},
		EasiestLevels:     []RankedLevel{},
		ProgressionFunnel: ProgressionFunnel{Steps: []FunnelStep{}},
		TimeAnalysis: TimeAnalysis{
			PerLevel:       map[string]LevelTimeStats{},
			UnusuallyLong:  []TimeOutlier{},
			UnusuallyShort: []TimeOutlier{},
		},
		GeneratedAt: now,
	}
}

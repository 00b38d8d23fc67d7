// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package models

import "time"

// Status values shared by the insight sections.
const (
	StatusSuccess          = "success"
	StatusInsufficientData = "insufficient_data"
	StatusClean            = "clean"
	StatusIssuesFound      = "issues_found"
)

// InsightBundle is the composite output of the insight synthesizer.
type InsightBundle struct {
	PlayerBehavior         BehaviorAnalysis       `json:"player_behavior_analysis"`
	RevenueOptimization    RevenueOpportunities   `json:"revenue_optimization"`
	LevelBalancing         LevelBalance           `json:"level_balancing"`
	EngagementPredictions  EngagementTrend        `json:"engagement_predictions"`
	AnomalyDetection       AnomalyReport          `json:"anomaly_detection"`
	PlayerSegmentsML       MLSegmentation         `json:"player_segments_ml"`
	RetentionDrivers       RetentionDrivers       `json:"retention_drivers"`
	MonetizationPatterns   MonetizationPatterns   `json:"monetization_patterns"`
	ContentRecommendations ContentRecommendations `json:"content_recommendations"`
	RiskAssessment         RiskAssessment         `json:"risk_assessment"`
	OpportunityScores      OpportunityScores      `json:"opportunity_score"`
	ExecutiveSummary       ExecutiveSummary       `json:"executive_summary"`
	GeneratedAt            time.Time              `json:"timestamp"`
}

type BehaviorAnalysis struct {
	SessionPatterns       SessionPatterns         `json:"session_patterns"`
	PeakActivityHours     PeakHours               `json:"peak_activity_hours"`
	LifecycleDistribution map[string]SegmentCount `json:"lifecycle_distribution"`
	EngagementVelocity    EngagementVelocity      `json:"engagement_velocity"`
	KeyFindings           []string                `json:"key_findings"`
}

type SessionPatterns struct {
	Distribution          map[string]SegmentCount `json:"distribution"` // micro, quick, standard, marathon
	AvgDurationMinutes    float64                 `json:"avg_duration_minutes"`
	MedianDurationMinutes float64                 `json:"median_duration_minutes"`
	StdDevMinutes         float64                 `json:"std_dev_minutes"`
}

type HourActivity struct {
	Hour          int     `json:"hour"`
	ActivityCount int     `json:"activity_count"`
	Percentage    float64 `json:"percentage"`
}

type PeakHours struct {
	PeakHour           int            `json:"peak_hour"`
	PeakHourActivity   int            `json:"peak_hour_activity"`
	TopHours           []HourActivity `json:"top_5_hours"`
	HourlyDistribution map[int]int    `json:"hourly_distribution"`
}

type EngagementVelocity struct {
	AvgEventsPerDay    float64 `json:"avg_events_per_day"`
	MedianEventsPerDay float64 `json:"median_events_per_day"`
	HighVelocityUsers  int     `json:"high_velocity_users"` // above p75
	LowVelocityUsers   int     `json:"low_velocity_users"`  // below p25
}

type PriceBucketStats struct {
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type WhaleCandidate struct {
	UserID          string  `json:"user_id"`
	Sessions        int     `json:"sessions"`
	Events          int     `json:"events"`
	EngagementScore float64 `json:"engagement_score"`
}

type RevenueOpportunities struct {
	ConversionRate        float64                     `json:"conversion_rate"` // 0..100
	TotalPayers           int                         `json:"total_payers"`
	AvgTransactionValue   float64                     `json:"avg_transaction_value"`
	PricePointPerformance map[string]PriceBucketStats `json:"price_point_performance"`
	WhaleCandidates       []WhaleCandidate            `json:"whale_candidates"`
	Recommendations       []string                    `json:"recommendations"`
}

type LevelIssue string

const (
	IssueVeryHard LevelIssue = "very_hard"
	IssueHard     LevelIssue = "hard"
	IssueTooEasy  LevelIssue = "too_easy"
	IssueTooLong  LevelIssue = "too_long"
)

type LevelBalanceStats struct {
	CompletionRate     float64 `json:"completion_rate"`
	DifficultyScore    float64 `json:"difficulty_score"` // 100 * (1 - completion_rate)
	AvgPlaytimeSeconds float64 `json:"avg_playtime_seconds"`
	Attempts           int     `json:"attempts"`
}

type ProblematicLevel struct {
	LevelNumber int               `json:"level"`
	Issues      []LevelIssue      `json:"issues"`
	Stats       LevelBalanceStats `json:"stats"`
}

type LevelBalance struct {
	LevelAnalysis     map[int]LevelBalanceStats `json:"level_analysis"`
	ProblematicLevels []ProblematicLevel        `json:"problematic_levels"`
	Recommendations   []string                  `json:"recommendations"`
}

type EngagementTrend struct {
	TrendDirection      string  `json:"trend_direction"` // growing, declining, stable
	TrendPercentage     float64 `json:"trend_percentage"`
	Recent7DaysEvents   int     `json:"recent_7_days_events"`
	Previous7DaysEvents int     `json:"previous_7_days_events"`
	ProjectedNext7Days  int     `json:"projected_next_7_days"`
	Confidence          string  `json:"confidence"` // low, medium, high
}

type Anomaly struct {
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation"`
}

type AnomalyReport struct {
	AnomaliesDetected int       `json:"anomalies_detected"`
	Anomalies         []Anomaly `json:"anomalies"`
	Status            string    `json:"status"`
}

type SegmentProfile struct {
	Name             string   `json:"name"`
	Size             int      `json:"size"`
	AvgSessions      float64  `json:"avg_sessions"`
	AvgEvents        float64  `json:"avg_events"`
	AvgSpending      float64  `json:"avg_spending"`
	AvgDailyActivity float64  `json:"avg_daily_activity"`
	UserIDs          []string `json:"user_ids,omitempty"`
}

type MLSegmentation struct {
	Status      string           `json:"status"`
	MinRequired int              `json:"min_required,omitempty"`
	NSegments   int              `json:"n_segments,omitempty"`
	Segments    []SegmentProfile `json:"segments,omitempty"`
}

type ImpactComparison struct {
	RetainedAvg float64 `json:"retained_avg"`
	ChurnedAvg  float64 `json:"churned_avg"`
	Difference  float64 `json:"difference"`
}

type RetentionDrivers struct {
	Status        string           `json:"status"`
	RetainedUsers int              `json:"retained_users"`
	ChurnedUsers  int              `json:"churned_users"`
	SessionImpact ImpactComparison `json:"session_impact"`
	EventImpact   ImpactComparison `json:"event_impact"`
	KeyDrivers    []string         `json:"key_drivers"`
}

type MonetizationPatterns struct {
	AvgDaysToFirstPurchase float64 `json:"avg_days_to_first_purchase"`
	RepeatPurchaserRate    float64 `json:"repeat_purchaser_rate"` // 0..1
	TotalPurchasingUsers   int     `json:"total_purchasing_users"`
	AvgPurchasesPerPayer   float64 `json:"avg_purchases_per_payer"`
}

type ContentRecommendation struct {
	Priority        string `json:"priority"`
	Type            string `json:"type"`
	Message         string `json:"message"`
	SuggestedLevels int    `json:"suggested_levels"`
}

type ContentRecommendations struct {
	MaxLevel        int                     `json:"max_level"`
	UsersAtMax      int                     `json:"users_at_max"`
	ExhaustionRisk  float64                 `json:"exhaustion_risk"`
	Recommendations []ContentRecommendation `json:"recommendations"`
}

type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthWarning  Health = "warning"
	HealthCritical Health = "critical"
)

type BusinessRisk struct {
	Category       string `json:"category"`
	Severity       string `json:"severity"` // critical, high
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation"`
}

type RiskAssessment struct {
	TotalRisks    int            `json:"total_risks"`
	Risks         []BusinessRisk `json:"risks"`
	OverallHealth Health         `json:"overall_health"`
}

// OpportunityScores are each in [0,100].
type OpportunityScores struct {
	Monetization int `json:"monetization"`
	Engagement   int `json:"engagement"`
	Retention    int `json:"retention"`
	Growth       int `json:"growth"`
}

type PriorityAction struct {
	Priority string `json:"priority"`
	Action   string `json:"action"`
}

type OpportunityArea struct {
	Area  string `json:"area"`
	Score int    `json:"score"`
}

type ExecutiveSummary struct {
	HealthStatus    Health           `json:"health_status"`
	TopPriorities   []PriorityAction `json:"top_priorities"`
	BestOpportunity OpportunityArea  `json:"best_opportunity"`
	QuickWins       []string         `json:"quick_wins"`
}

// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package models

import "time"

// RiskBand is the coarse churn-risk label.
type RiskBand string

const (
	RiskLow      RiskBand = "low"
	RiskMedium   RiskBand = "medium"
	RiskHigh     RiskBand = "high"
	RiskCritical RiskBand = "critical"
)

// AllRiskBands lists bands from lowest to highest.
var AllRiskBands = []RiskBand{RiskLow, RiskMedium, RiskHigh, RiskCritical}

// ChurnMode is the churn model's operating mode.
type ChurnMode string

const (
	ModeRuleBased ChurnMode = "rule_based"
	ModeTrained   ChurnMode = "trained"
)

// RiskFamily groups risk factors for recommendation lookup.
type RiskFamily string

const (
	FactorInactive          RiskFamily = "inactivity"
	FactorReducedActivity   RiskFamily = "reduced_activity"
	FactorLowEngagement     RiskFamily = "low_engagement"
	FactorLowCompletion     RiskFamily = "low_completion"
	FactorDecliningTrend    RiskFamily = "declining_engagement"
	FactorNoPurchases       RiskFamily = "no_purchases"
	FactorNoSignificantRisk RiskFamily = "none"
)

// RiskFactor is one human-readable reason behind a churn score.
type RiskFactor struct {
	Family      RiskFamily `json:"family"`
	Description string     `json:"description"`
}

// ChurnPrediction is the churn assessment of one user.
type ChurnPrediction struct {
	UserID           string       `json:"user_id"`
	ChurnProbability float64      `json:"churn_probability"` // 0..1
	RiskLevel        RiskBand     `json:"churn_risk"`
	RiskFactors      []RiskFactor `json:"risk_factors"`
	Recommendations  []string     `json:"recommendations"`
	Confidence       float64      `json:"confidence"` // 0..1
	Mode             ChurnMode    `json:"model_mode"`
	DaysInactive     int          `json:"days_inactive"`
	TotalSessions    int          `json:"total_sessions"`
}

// ChurnAnalysis ranks users by churn probability.
type ChurnAnalysis struct {
	TotalUsersAnalyzed  int               `json:"total_users_analyzed"`
	ModelMode           ChurnMode         `json:"model_mode"`
	RiskDistribution    map[RiskBand]int  `json:"risk_distribution"`
	AtRiskCount         int               `json:"at_risk_count"` // high + critical
	AvgChurnProbability float64           `json:"avg_churn_probability"`
	Predictions         []ChurnPrediction `json:"predictions"`
	GeneratedAt         time.Time         `json:"generated_at"`
}

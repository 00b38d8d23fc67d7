// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package churn

import (
	"fmt"
	"math"

	"github.com/vishnugarg323/PlayMetric/internal/models"
)

// Risk factor thresholds.
const (
	inactiveAfterDays      = 7
	reducedAfterDays       = 3
	lowEngagementSessions  = 5
	lowCompletionRate      = 0.3
	decliningTrend         = -0.3
	activeNonPayerSessions = 10
)

// familyActions maps each factor family to its canned interventions.
var familyActions = map[models.RiskFamily][]string{
	models.FactorInactive: {
		"Send re-engagement notification with special reward",
		"Offer limited-time bonus or exclusive content",
	},
	models.FactorReducedActivity: {
		"Send re-engagement notification with special reward",
		"Offer limited-time bonus or exclusive content",
	},
	models.FactorLowCompletion: {
		"Provide hints or skip option for difficult levels",
		"Adjust level difficulty based on player skill",
	},
	models.FactorDecliningTrend: {
		"Introduce new content or game modes",
		"Create time-limited events to boost engagement",
	},
	models.FactorNoPurchases: {
		"Offer first-purchase discount or special offer",
		"Show value of premium features through gameplay",
	},
	models.FactorLowEngagement: {
		"Improve onboarding experience",
		"Add social features or multiplayer modes",
	},
}

// actionOrder fixes the order recommendations are emitted in.
var actionOrder = []models.RiskFamily{
	models.FactorInactive,
	models.FactorReducedActivity,
	models.FactorLowCompletion,
	models.FactorDecliningTrend,
	models.FactorNoPurchases,
	models.FactorLowEngagement,
}

const continueMonitoring = "Continue monitoring player behavior"

var noSignificantRisk = models.RiskFactor{
	Family:      models.FactorNoSignificantRisk,
	Description: "No significant risk factors detected",
}

// trainedRiskFactors derives factors from the raw feature vector. A user
// with no level attempts has completion rate 0 and gets the completion
// factor.
func trainedRiskFactors(f Features) []models.RiskFactor {
	var out []models.RiskFactor

	days := int(f[FeatureDaysSinceLast])
	switch {
	case days > inactiveAfterDays:
		out = append(out, models.RiskFactor{
			Family:      models.FactorInactive,
			Description: fmt.Sprintf("No activity for %d days", days),
		})
	case days > reducedAfterDays:
		out = append(out, models.RiskFactor{
			Family:      models.FactorReducedActivity,
			Description: fmt.Sprintf("Reduced activity (%d days since last session)", days),
		})
	}

	sessions := f[FeatureTotalSessions]
	if sessions < lowEngagementSessions {
		out = append(out, models.RiskFactor{Family: models.FactorLowEngagement, Description: "Low overall engagement"})
	}
	if rate := f[FeatureLevelCompletionRate]; rate < lowCompletionRate {
		out = append(out, models.RiskFactor{
			Family:      models.FactorLowCompletion,
			Description: fmt.Sprintf("Low level completion rate (%.1f%%)", rate*100),
		})
	}
	if trend := f[FeatureEngagementTrend]; trend < decliningTrend {
		out = append(out, models.RiskFactor{
			Family:      models.FactorDecliningTrend,
			Description: fmt.Sprintf("Declining engagement (down %.1f%%)", math.Abs(trend)*100),
		})
	}
	if f[FeatureTotalPurchases] == 0 && sessions > activeNonPayerSessions {
		out = append(out, models.RiskFactor{Family: models.FactorNoPurchases, Description: "No purchases despite active play"})
	}

	if len(out) == 0 {
		return []models.RiskFactor{noSignificantRisk}
	}
	return out
}

// ruleRiskFactors is the reduced factor set used in rule-based mode.
func ruleRiskFactors(daysInactive, sessions int) []models.RiskFactor {
	var out []models.RiskFactor
	if daysInactive > inactiveAfterDays {
		out = append(out, models.RiskFactor{
			Family:      models.FactorInactive,
			Description: fmt.Sprintf("Inactive for %d days", daysInactive),
		})
	}
	if sessions < lowEngagementSessions {
		out = append(out, models.RiskFactor{Family: models.FactorLowEngagement, Description: "Low engagement (few sessions)"})
	}
	if len(out) == 0 {
		return []models.RiskFactor{noSignificantRisk}
	}
	return out
}

// Recommendations maps factor families to actions, deduplicated and in a
// stable order. With no actionable factor it advises monitoring.
func Recommendations(factors []models.RiskFactor) []string {
	present := make(map[models.RiskFamily]bool, len(factors))
	for _, f := range factors {
		present[f.Family] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, fam := range actionOrder {
		if !present[fam] {
			continue
		}
		for _, a := range familyActions[fam] {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	if len(out) == 0 {
		return []string{continueMonitoring}
	}
	return out
}

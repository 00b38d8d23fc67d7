// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package insights

import (
	"fmt"
	"sort"
	"time"

	"github.com/vishnugarg323/PlayMetric/internal/analytics"
	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/stats"
)

// Risk severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
)

const (
	criticalChurnShare   = 0.3
	highChurnShare       = 0.15
	revenueConcentration = 0.5
	maxPriorities        = 3
)

// Risks evaluates churn exposure and revenue concentration.
func Risks(snap models.Snapshot, predictions []models.ChurnPrediction) models.RiskAssessment {
	out := models.RiskAssessment{Risks: []models.BusinessRisk{}, OverallHealth: models.HealthHealthy}

	var atRisk int
	for _, p := range predictions {
		if p.RiskLevel == models.RiskHigh || p.RiskLevel == models.RiskCritical {
			atRisk++
		}
	}
	share := stats.SafeDiv(float64(atRisk), float64(len(snap.Users)))
	switch {
	case share > criticalChurnShare:
		out.Risks = append(out.Risks, models.BusinessRisk{
			Category:       "churn",
			Severity:       SeverityCritical,
			Impact:         fmt.Sprintf("%.1f%% of users at high churn risk", share*100),
			Recommendation: "Launch retention campaign immediately",
		})
	case share > highChurnShare:
		out.Risks = append(out.Risks, models.BusinessRisk{
			Category:       "churn",
			Severity:       SeverityHigh,
			Impact:         fmt.Sprintf("%.1f%% of users at risk", share*100),
			Recommendation: "Implement re-engagement strategies",
		})
	}

	spend := analytics.UserSpend(snap.Events)
	var total, top float64
	for _, v := range spend {
		total += v
		top = max(top, v)
	}
	if total > 0 && top/total > revenueConcentration {
		out.Risks = append(out.Risks, models.BusinessRisk{
			Category:       "revenue_concentration",
			Severity:       SeverityHigh,
			Impact:         fmt.Sprintf("Single user represents %.1f%% of revenue", top/total*100),
			Recommendation: "Diversify revenue sources",
		})
	}

	out.TotalRisks = len(out.Risks)
	for _, r := range out.Risks {
		if r.Severity == SeverityCritical {
			out.OverallHealth = models.HealthCritical
			break
		}
		out.OverallHealth = models.HealthWarning
	}
	return out
}

// Opportunities scores monetization, engagement, retention and growth
// headroom on a 0..100 scale.
func Opportunities(snap models.Snapshot, now time.Time) models.OpportunityScores {
	paying := payers(snap.Events)

	var engagedNonPayers, lowActivity, inactive int
	sessions := make([]float64, len(snap.Users))
	for i, u := range snap.Users {
		sessions[i] = float64(u.TotalSessions)
		if u.TotalSessions > 10 && !paying[u.UserID] {
			engagedNonPayers++
		}
		if u.TotalSessions < 5 {
			lowActivity++
		}
		if analytics.DaysBetween(u.LastSeen, now) > 7 {
			inactive++
		}
	}

	growth := 25
	switch avg := stats.Mean(sessions); {
	case avg > 20:
		growth = 75
	case avg > 10:
		growth = 50
	}

	return models.OpportunityScores{
		Monetization: min(100, 5*engagedNonPayers),
		Engagement:   min(100, 3*lowActivity),
		Retention:    min(100, 4*inactive),
		Growth:       growth,
	}
}

func severityRank(s string) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	default:
		return 2
	}
}

// Summarize condenses the risk, opportunity and revenue sections.
func Summarize(risks models.RiskAssessment, opp models.OpportunityScores, revenue models.RevenueOpportunities) models.ExecutiveSummary {
	ranked := append([]models.BusinessRisk(nil), risks.Risks...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return severityRank(ranked[i].Severity) < severityRank(ranked[j].Severity)
	})
	if len(ranked) > maxPriorities {
		ranked = ranked[:maxPriorities]
	}

	out := models.ExecutiveSummary{
		HealthStatus:  risks.OverallHealth,
		TopPriorities: make([]models.PriorityAction, 0, len(ranked)),
		QuickWins:     []string{},
	}
	for _, r := range ranked {
		out.TopPriorities = append(out.TopPriorities, models.PriorityAction{Priority: r.Category, Action: r.Recommendation})
	}

	areas := []models.OpportunityArea{
		{Area: "monetization", Score: opp.Monetization},
		{Area: "engagement", Score: opp.Engagement},
		{Area: "retention", Score: opp.Retention},
		{Area: "growth", Score: opp.Growth},
	}
	out.BestOpportunity = areas[0]
	for _, a := range areas[1:] {
		if a.Score > out.BestOpportunity.Score {
			out.BestOpportunity = a
		}
	}

	if n := len(revenue.WhaleCandidates); n > 0 {
		out.QuickWins = append(out.QuickWins, fmt.Sprintf("Target %d high-potential users for conversion", n))
	}
	return out
}

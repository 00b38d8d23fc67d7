// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package insights

import (
	"fmt"
	"sort"
	"time"

	"github.com/vishnugarg323/PlayMetric/internal/models"
	"github.com/vishnugarg323/PlayMetric/internal/stats"
)

const week = 7 * 24 * time.Hour

const (
	trendThreshold         = 0.05
	concentrationThreshold = 0.7
	highActivitySigmas     = 3
)

// Trend compares event volume in the last seven days with the seven days
// before and projects the next week. Events without a timestamp count as
// happening now.
func Trend(events []models.Event, now time.Time) models.EngagementTrend {
	recentFrom := now.Add(-week)
	previousFrom := now.Add(-2 * week)

	var recent, previous int
	for _, e := range events {
		t := e.TimeOr(now)
		switch {
		case t.After(recentFrom):
			recent++
		case t.After(previousFrom):
			previous++
		}
	}

	var trend float64
	if previous > 0 {
		trend = float64(recent-previous) / float64(previous)
	}
	direction := "stable"
	switch {
	case trend > trendThreshold:
		direction = "growing"
	case trend < -trendThreshold:
		direction = "declining"
	}

	confidence := "high"
	switch {
	case recent < 100 || previous < 100:
		confidence = "low"
	case recent < 500 || previous < 500:
		confidence = "medium"
	}

	return models.EngagementTrend{
		TrendDirection:      direction,
		TrendPercentage:     stats.Round(trend*100, 2),
		Recent7DaysEvents:   recent,
		Previous7DaysEvents: previous,
		ProjectedNext7Days:  int(float64(recent) * (1 + trend)),
		Confidence:          confidence,
	}
}

// Anomalies flags event kinds that dominate the stream and users whose
// volume is far above the mean.
func Anomalies(snap models.Snapshot) models.AnomalyReport {
	out := models.AnomalyReport{Anomalies: []models.Anomaly{}, Status: models.StatusClean}

	if total := len(snap.Events); total > 0 {
		counts := snap.EventCounts()
		kinds := make([]models.EventKind, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
		for _, k := range kinds {
			share := float64(counts[k]) / float64(total)
			if share > concentrationThreshold {
				out.Anomalies = append(out.Anomalies, models.Anomaly{
					Type:           "event_concentration",
					Severity:       "medium",
					Description:    fmt.Sprintf("%s represents %.1f%% of all events", k, share*100),
					Recommendation: "Investigate if this is expected behavior or data quality issue",
				})
			}
		}
	}

	if len(snap.Users) > 0 {
		volumes := make([]float64, len(snap.Users))
		for i, u := range snap.Users {
			volumes[i] = float64(u.TotalEvents)
		}
		limit := stats.Mean(volumes) + highActivitySigmas*stats.StdDev(volumes)
		var heavy int
		for _, v := range volumes {
			if v > limit {
				heavy++
			}
		}
		if heavy > 0 {
			out.Anomalies = append(out.Anomalies, models.Anomaly{
				Type:           "high_activity_users",
				Severity:       "low",
				Description:    fmt.Sprintf("Found %d users with unusually high activity", heavy),
				Recommendation: "Verify these are legitimate users, not bots",
			})
		}
	}

	out.AnomaliesDetected = len(out.Anomalies)
	if out.AnomaliesDetected > 0 {
		out.Status = models.StatusIssuesFound
	}
	return out
}
